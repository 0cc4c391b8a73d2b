package dataset

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/models"
)

func TestParseHour(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"clock minutes", "10:29", 10, false},
		{"clock seconds", "19:05:44", 19, false},
		{"single digit hour", "9:07", 9, false},
		{"twelve hour clock", "1:08 PM", 13, false},
		{"fraction of day", "0.85625", 20, false},
		{"whole hour fraction", "0.41666666666666663", 10, false},
		{"midnight", "0", 0, false},
		{"date time serial", "44562.5", 12, false},
		{"padded", "  10:29 ", 10, false},
		{"empty", "", 0, true},
		{"text", "noon", 0, true},
		{"bad clock", "25:61", 0, true},
		{"negative", "-0.5", 0, true},
		{"not a number", "NaN", 0, true},
		{"huge exponent", "1e20", 0, true},
		{"beyond the serial calendar", "123456789012345678.5", 0, true},
		{"last serial day", "2958465.75", 18, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHour(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseHour(%q) = %d, want error", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseHour(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseHour(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func testRow(id, branch, city string, date time.Time, saleTime string, total string) models.Transaction {
	return models.Transaction{
		OrderID:         id,
		Branch:          branch,
		City:            city,
		CustomerType:    "会员用户",
		Gender:          "女性",
		ProductCategory: "健康美容",
		UnitPrice:       decimal.RequireFromString("74.69"),
		Quantity:        7,
		TotalPrice:      decimal.RequireFromString(total),
		SaleDate:        date,
		SaleTime:        saleTime,
		Rating:          9.1,
	}
}

func TestEnrich(t *testing.T) {
	rows := []models.Transaction{
		testRow("A1", "1号店", "太原", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), "13:08", "548.97"),
		testRow("A2", "2号店", "大同", time.Date(2022, 3, 8, 0, 0, 0, 0, time.UTC), "0.85625", "80.22"),
		testRow("A3", "1号店", "太原", time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), "10:29", "340.53"),
	}

	table, err := Enrich(rows, Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}

	if table.Len() != len(rows) {
		t.Fatalf("expected %d rows, got %d", len(rows), table.Len())
	}

	first := table.Row(0)
	if first.MonthNumber != 1 || first.MonthName != "January" {
		t.Errorf("expected January (1), got %s (%d)", first.MonthName, first.MonthNumber)
	}
	if first.WeekdayName != "Wednesday" {
		t.Errorf("expected Wednesday, got %s", first.WeekdayName)
	}
	if first.HourOfDay != 13 {
		t.Errorf("expected hour 13, got %d", first.HourOfDay)
	}
	if got := table.Row(1).HourOfDay; got != 20 {
		t.Errorf("expected hour 20 from fractional time, got %d", got)
	}

	if rows[0].MonthName != "" {
		t.Error("Enrich() should not modify its input")
	}

	domains := table.Domains()
	if len(domains.Branches) != 2 || domains.Branches[0] != "1号店" || domains.Branches[1] != "2号店" {
		t.Errorf("unexpected branch domain %v", domains.Branches)
	}
	if len(domains.Cities) != 2 {
		t.Errorf("unexpected city domain %v", domains.Cities)
	}
	if !domains.MinDate.Equal(time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected min date %v", domains.MinDate)
	}
	if !domains.MaxDate.Equal(time.Date(2022, 3, 8, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected max date %v", domains.MaxDate)
	}
}

func TestEnrich_WithoutCity(t *testing.T) {
	rows := []models.Transaction{
		testRow("A1", "1号店", "", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), "13:08", "548.97"),
	}

	table, err := Enrich(rows, Schema{})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}
	if table.Schema().HasCity {
		t.Error("schema should not report a city column")
	}
	if table.Domains().Cities != nil {
		t.Errorf("expected no city domain, got %v", table.Domains().Cities)
	}
}

func TestEnrich_DataFormatError(t *testing.T) {
	tests := []struct {
		name       string
		row        models.Transaction
		wantColumn Column
	}{
		{
			name:       "unparseable time",
			row:        testRow("A2", "1号店", "太原", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), "lunch", "1"),
			wantColumn: ColSaleTime,
		},
		{
			name:       "missing date",
			row:        testRow("A2", "1号店", "太原", time.Time{}, "10:00", "1"),
			wantColumn: ColSaleDate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			good := testRow("A1", "1号店", "太原", time.Date(2022, 1, 5, 0, 0, 0, 0, time.UTC), "10:00", "1")
			_, err := Enrich([]models.Transaction{good, tt.row}, Schema{HasCity: true})

			var formatErr *DataFormatError
			if !errors.As(err, &formatErr) {
				t.Fatalf("expected *DataFormatError, got %v", err)
			}
			if formatErr.Row != 2 {
				t.Errorf("expected row 2, got %d", formatErr.Row)
			}
			if formatErr.Column != tt.wantColumn {
				t.Errorf("expected column %s, got %s", tt.wantColumn, formatErr.Column)
			}
		})
	}
}

func TestTable_Select(t *testing.T) {
	rows := []models.Transaction{
		testRow("A1", "1号店", "太原", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), "10:00", "1"),
		testRow("A2", "2号店", "太原", time.Date(2022, 1, 2, 0, 0, 0, 0, time.UTC), "10:00", "2"),
		testRow("A3", "1号店", "太原", time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), "10:00", "3"),
	}
	table, err := Enrich(rows, Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}

	view := table.Select(func(tx models.Transaction) bool { return tx.Branch == "1号店" })
	if view.Len() != 2 {
		t.Fatalf("expected 2 rows, got %d", view.Len())
	}
	if view.Row(0).OrderID != "A1" || view.Row(1).OrderID != "A3" {
		t.Error("Select() should preserve row order")
	}
	if table.Len() != 3 {
		t.Error("Select() should not modify the table")
	}
	if len(view.Domains().Branches) != 2 {
		t.Error("a view should keep the domains of its base table")
	}

	head := table.Head(2)
	if len(head) != 2 || head[1].OrderID != "A2" {
		t.Errorf("unexpected Head(2): %v", head)
	}
	if len(table.Head(10)) != 3 {
		t.Error("Head() should stop at the table length")
	}
}

func TestTable_DomainsIsACopy(t *testing.T) {
	rows := []models.Transaction{
		testRow("A1", "1号店", "太原", time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC), "10:00", "1"),
	}
	table, err := Enrich(rows, Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}

	d := table.Domains()
	d.Branches[0] = "changed"
	if table.Domains().Branches[0] != "1号店" {
		t.Error("modifying returned domains should not affect the table")
	}
}

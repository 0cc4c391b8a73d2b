package services

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/dataset"
)

func TestFormatCSV_Header(t *testing.T) {
	data, err := FormatCSV(sampleTable(t), false)
	if err != nil {
		t.Fatalf("FormatCSV() failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected header and 6 rows, got %d lines", len(lines))
	}
	wantHeader := "order_id,branch,city,customer_type,gender,product_category,unit_price,quantity,total_price,sale_date,sale_time,rating"
	if lines[0] != wantHeader {
		t.Errorf("unexpected header %q", lines[0])
	}
	if lines[1] != "T1,1号店,太原,会员用户,女性,健康美容,10,2,100,2022-01-03,10:29,9" {
		t.Errorf("unexpected first row %q", lines[1])
	}
	if strings.Contains(string(data), "¥") {
		t.Error("export should not contain currency symbols")
	}
}

func TestFormatCSV_BOM(t *testing.T) {
	withBOM, err := FormatCSV(sampleTable(t), true)
	if err != nil {
		t.Fatalf("FormatCSV() failed: %v", err)
	}
	if !bytes.HasPrefix(withBOM, []byte("\xef\xbb\xbf")) {
		t.Error("expected a UTF-8 byte order mark")
	}

	without, err := FormatCSV(sampleTable(t), false)
	if err != nil {
		t.Fatalf("FormatCSV() failed: %v", err)
	}
	if !bytes.Equal(withBOM[3:], without) {
		t.Error("the byte order mark should be the only difference")
	}
}

func TestFormatCSV_RoundTrip(t *testing.T) {
	base := syntheticTable(t)
	view := Filter(base, Selections{Branches: []string{"2号店"}}, MatchExact)

	data, err := FormatCSV(view, true)
	if err != nil {
		t.Fatalf("FormatCSV() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "export.csv")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	reloaded, info, err := dataset.NewLoader(dataset.Options{Path: path}, testLogger()).Load(context.Background())
	if err != nil {
		t.Fatalf("reloading the export failed: %v", err)
	}
	if info.Fallback {
		t.Fatalf("the export should be readable, got fallback: %s", info.Notice)
	}

	if reloaded.Len() != view.Len() {
		t.Fatalf("expected %d rows, got %d", view.Len(), reloaded.Len())
	}
	for i := 0; i < view.Len(); i++ {
		want, got := view.Row(i), reloaded.Row(i)
		if got.OrderID != want.OrderID ||
			got.Branch != want.Branch ||
			got.City != want.City ||
			got.CustomerType != want.CustomerType ||
			got.Gender != want.Gender ||
			got.ProductCategory != want.ProductCategory ||
			!got.UnitPrice.Equal(want.UnitPrice) ||
			got.Quantity != want.Quantity ||
			!got.TotalPrice.Equal(want.TotalPrice) ||
			!got.SaleDate.Equal(want.SaleDate) ||
			got.SaleTime != want.SaleTime ||
			got.Rating != want.Rating ||
			got.HourOfDay != want.HourOfDay {
			t.Fatalf("row %d differs after round trip:\n got %+v\nwant %+v", i, got, want)
		}
	}
}

func TestExportFilename(t *testing.T) {
	got := ExportFilename("商场销售数据", day2022(time.January, 1), day2022(time.March, 30))
	if got != "商场销售数据_20220101_20220330.csv" {
		t.Errorf("unexpected filename %q", got)
	}
}

func TestExportRange(t *testing.T) {
	domains := sampleTable(t).Domains()

	tests := []struct {
		name      string
		sel       Selections
		wantStart time.Time
		wantEnd   time.Time
	}{
		{"no range", Selections{}, day2022(time.January, 3), day2022(time.March, 12)},
		{"selected range", Selections{DateRange: &DateRange{Start: day2022(time.February, 1), End: day2022(time.February, 2)}}, day2022(time.February, 1), day2022(time.February, 2)},
		{"open end", Selections{DateRange: &DateRange{Start: day2022(time.February, 1), End: OpenEnd}}, day2022(time.February, 1), day2022(time.March, 12)},
		{"open start", Selections{DateRange: &DateRange{End: day2022(time.February, 2)}}, day2022(time.January, 3), day2022(time.February, 2)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := ExportRange(tt.sel, domains)
			if !start.Equal(tt.wantStart) || !end.Equal(tt.wantEnd) {
				t.Errorf("ExportRange() = %v..%v, want %v..%v", start, end, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

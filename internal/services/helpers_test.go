package services

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func day2022(month time.Month, d int) time.Time {
	return time.Date(2022, month, d, 0, 0, 0, 0, time.UTC)
}

func newTx(id, branch, city, category, customer string, date time.Time, saleTime, total string, rating float64) models.Transaction {
	return models.Transaction{
		OrderID:         id,
		Branch:          branch,
		City:            city,
		CustomerType:    customer,
		Gender:          "女性",
		ProductCategory: category,
		UnitPrice:       decimal.RequireFromString("10.00"),
		Quantity:        2,
		TotalPrice:      decimal.RequireFromString(total),
		SaleDate:        date,
		SaleTime:        saleTime,
		Rating:          rating,
	}
}

// sampleTable is six hand-checked rows across two months and three branches.
func sampleTable(t *testing.T) *dataset.Table {
	t.Helper()
	rows := []models.Transaction{
		newTx("T1", "1号店", "太原", "健康美容", "会员用户", day2022(time.January, 3), "10:29", "100.00", 9.0),
		newTx("T2", "2号店", "大同", "电子配件", "普通用户", day2022(time.January, 4), "13:08", "50.50", 7.0),
		newTx("T3", "1号店", "太原", "电子配件", "普通用户", day2022(time.January, 4), "0.85625", "25.25", 8.0),
		newTx("T4", "3号店", "临汾", "食品饮料", "会员用户", day2022(time.March, 7), "19:30", "200.00", 6.0),
		newTx("T5", "2号店", "大同", "健康美容", "会员用户", day2022(time.March, 8), "10:05", "74.25", 5.0),
		newTx("T6", "1号店", "临汾", "食品饮料", "普通用户", day2022(time.March, 12), "11:45", "0.10", 4.5),
	}
	table, err := dataset.Enrich(rows, dataset.Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}
	return table
}

func syntheticTable(t *testing.T) *dataset.Table {
	t.Helper()
	table, err := dataset.Enrich(dataset.Synthesize(300, 2024), dataset.Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}
	return table
}

type countingSource struct {
	table *dataset.Table
	err   error
	calls atomic.Int32
}

func (s *countingSource) Load(ctx context.Context) (*dataset.Table, dataset.LoadInfo, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, dataset.LoadInfo{}, s.err
	}
	return s.table, dataset.LoadInfo{Source: "test", Rows: s.table.Len()}, nil
}

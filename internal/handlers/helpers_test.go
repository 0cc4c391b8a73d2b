package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

type stubSource struct {
	table *dataset.Table
	info  dataset.LoadInfo
	err   error
}

func (s *stubSource) Load(ctx context.Context) (*dataset.Table, dataset.LoadInfo, error) {
	return s.table, s.info, s.err
}

func row(id, branch, city, category string, date time.Time, total string) models.Transaction {
	return models.Transaction{
		OrderID:         id,
		Branch:          branch,
		City:            city,
		CustomerType:    "会员用户",
		Gender:          "男性",
		ProductCategory: category,
		UnitPrice:       decimal.RequireFromString("12.50"),
		Quantity:        1,
		TotalPrice:      decimal.RequireFromString(total),
		SaleDate:        date,
		SaleTime:        "10:29",
		Rating:          8.5,
	}
}

func createTestTable(t *testing.T) *dataset.Table {
	t.Helper()
	rows := []models.Transaction{
		row("H1", "1号店", "太原", "健康美容", time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC), "100.00"),
		row("H2", "2号店", "大同", "电子配件", time.Date(2022, 1, 9, 0, 0, 0, 0, time.UTC), "50.00"),
		row("H3", "1号店", "临汾", "<b>食品饮料</b>", time.Date(2022, 2, 14, 0, 0, 0, 0, time.UTC), "25.00"),
	}
	table, err := dataset.Enrich(rows, dataset.Schema{HasCity: true})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}
	return table
}

func createTestExplorer(t *testing.T, source services.Source) *services.Explorer {
	t.Helper()
	store := services.NewSessionStore(source, time.Minute, testLogger())
	return services.NewExplorer(store, services.ExplorerOptions{
		Mode:        services.MatchExact,
		DatasetName: "商场销售数据",
		ExportBOM:   true,
	}, testLogger())
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if data != nil && env.Success {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("failed to decode data: %v", err)
		}
	}
	return env
}

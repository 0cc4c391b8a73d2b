package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-dashboard/internal/dataset"
)

func TestPageHandlers_HandleDashboard(t *testing.T) {
	h := NewPageHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	rr := httptest.NewRecorder()
	h.HandleDashboard(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}

	body := rr.Body.String()
	expected := []string{
		"<!DOCTYPE html>",
		"<title>商场销售数据</title>",
		`data-bind-cities value="太原"`,
		`data-bind-branches value="1号店"`,
		`data-bind-customer-types value="会员用户"`,
		`min="2022-01-03"`,
		`max="2022-02-14"`,
		`id="kpis"`,
		"¥175.00",
		`id="detail-table"`,
		"@get('/sse/refresh')",
		"chart-branches",
		"销售概览",
		"详细数据",
	}
	for _, content := range expected {
		if !strings.Contains(body, content) {
			t.Errorf("expected page to contain %q", content)
		}
	}
}

func TestPageHandlers_HandleDashboard_WithoutCity(t *testing.T) {
	table, err := dataset.Enrich(createTestTable(t).Rows(), dataset.Schema{})
	if err != nil {
		t.Fatalf("Enrich() failed: %v", err)
	}
	h := NewPageHandlers(createTestExplorer(t, &stubSource{table: table}), testLogger())

	rr := httptest.NewRecorder()
	h.HandleDashboard(rr, httptest.NewRequest("GET", "/", nil))

	if strings.Contains(rr.Body.String(), "data-bind-cities") {
		t.Error("the city filter should be hidden without a city column")
	}
}

func TestPageHandlers_HandleDashboard_DataFormatError(t *testing.T) {
	formatErr := &dataset.DataFormatError{Row: 12, Column: dataset.ColSaleTime, Value: "lunch", Err: errors.New("bad time")}
	h := NewPageHandlers(createTestExplorer(t, &stubSource{err: formatErr}), testLogger())

	rr := httptest.NewRecorder()
	h.HandleDashboard(rr, httptest.NewRequest("GET", "/", nil))

	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected status 422, got %d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "notice-error") || !strings.Contains(body, "row 12") {
		t.Error("expected the data format error on the page")
	}
}

func TestPageHandlers_NotFound(t *testing.T) {
	h := NewPageHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	rr := httptest.NewRecorder()
	h.HandleDashboard(rr, httptest.NewRequest("GET", "/missing", nil))

	if rr.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rr.Code)
	}
}

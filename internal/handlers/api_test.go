package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"reflect"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/services"
)

func TestNewAPIHandlers(t *testing.T) {
	explorer := createTestExplorer(t, &stubSource{table: createTestTable(t)})
	logger := testLogger()

	handlers := NewAPIHandlers(explorer, logger)

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.explorer != explorer {
		t.Error("NewAPIHandlers() should set explorer field")
	}
	if handlers.logger != logger {
		t.Error("NewAPIHandlers() should set logger field")
	}
}

func TestParseSelections(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		want    services.Selections
		wantErr bool
	}{
		{
			name:  "nothing selected",
			query: "",
			want:  services.Selections{},
		},
		{
			name:  "repeated and comma separated",
			query: "branch=1号店&branch=2号店,3号店",
			want:  services.Selections{Branches: []string{"1号店", "2号店", "3号店"}},
		},
		{
			name:  "present but empty",
			query: "category=",
			want:  services.Selections{ProductCategories: []string{}},
		},
		{
			name:  "all dimensions",
			query: "city=太原&customer_type=会员用户&category=健康美容&branch=1号店",
			want: services.Selections{
				Cities:            []string{"太原"},
				Branches:          []string{"1号店"},
				ProductCategories: []string{"健康美容"},
				CustomerTypes:     []string{"会员用户"},
			},
		},
		{
			name:  "date range",
			query: "start=2022-01-01&end=2022-01-31",
			want: services.Selections{DateRange: &services.DateRange{
				Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2022, 1, 31, 0, 0, 0, 0, time.UTC),
			}},
		},
		{
			name:  "open end",
			query: "start=2022-01-01",
			want: services.Selections{DateRange: &services.DateRange{
				Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
				End:   services.OpenEnd,
			}},
		},
		{
			name:    "bad date",
			query:   "start=01/01/2022",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/kpis?"+tt.query, nil)
			got, err := parseSelections(req)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseSelections() = %+v, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSelections() failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseSelections() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestExportURL_RoundTrip(t *testing.T) {
	selections := []services.Selections{
		{},
		{Branches: []string{"1号店", "2号店"}, CustomerTypes: []string{}},
		{Cities: []string{"太原"}, DateRange: &services.DateRange{
			Start: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
		{DateRange: &services.DateRange{End: time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC)}},
	}

	for _, sel := range selections {
		u, err := url.Parse(exportURL(sel))
		if err != nil {
			t.Fatalf("invalid export url: %v", err)
		}
		if u.Path != "/export" {
			t.Errorf("unexpected path %q", u.Path)
		}

		got, err := parseSelections(httptest.NewRequest("GET", u.String(), nil))
		if err != nil {
			t.Fatalf("parseSelections() failed: %v", err)
		}
		if !reflect.DeepEqual(got, sel) {
			t.Errorf("round trip of %+v gave %+v", sel, got)
		}
	}
}

func TestAPIHandlers_Recipes(t *testing.T) {
	h := NewAPIHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"options", h.HandleOptions},
		{"kpis", h.HandleKPIs},
		{"branches", h.HandleBranches},
		{"categories", h.HandleCategories},
		{"category distribution", h.HandleCategoryDistribution},
		{"daily", h.HandleDaily},
		{"monthly", h.HandleMonthly},
		{"weekdays", h.HandleWeekdays},
		{"hourly", h.HandleHourly},
		{"customer types", h.HandleCustomerTypes},
		{"genders", h.HandleGenders},
		{"rows", h.HandleRows},
		{"health", h.HandleHealth},
		{"stats", h.HandleStats},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			rr := httptest.NewRecorder()

			tt.handler(rr, req)

			if rr.Code != http.StatusOK {
				t.Errorf("expected status 200, got %d", rr.Code)
			}
			if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected application/json, got %q", ct)
			}
			if env := decodeEnvelope(t, rr, nil); !env.Success {
				t.Error("expected success response")
			}
		})
	}
}

func TestAPIHandlers_HandleKPIs(t *testing.T) {
	h := NewAPIHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	tests := []struct {
		name       string
		query      string
		wantOrders int
		wantTotal  string
		wantRating bool
	}{
		{"unfiltered", "", 3, "175", true},
		{"one branch", "branch=1号店", 2, "125", true},
		{"one month", "start=2022-01-01&end=2022-01-31", 2, "150", true},
		{"empty selection", "branch=", 0, "0", false},
		{"reversed range", "start=2022-02-01&end=2022-01-01", 0, "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/api/kpis?"+tt.query, nil)
			rr := httptest.NewRecorder()
			h.HandleKPIs(rr, req)

			var kpis models.KPIs
			if env := decodeEnvelope(t, rr, &kpis); !env.Success {
				t.Fatalf("expected success, got %+v", env.Error)
			}
			if kpis.TotalOrders != tt.wantOrders {
				t.Errorf("expected %d orders, got %d", tt.wantOrders, kpis.TotalOrders)
			}
			if kpis.TotalSales.String() != tt.wantTotal {
				t.Errorf("expected total %s, got %s", tt.wantTotal, kpis.TotalSales)
			}
			if kpis.AvgRating.Valid() != tt.wantRating {
				t.Errorf("expected rating defined = %v, got %v", tt.wantRating, kpis.AvgRating)
			}
		})
	}
}

func TestAPIHandlers_HandleBranches(t *testing.T) {
	h := NewAPIHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	req := httptest.NewRequest("GET", "/api/branches?city=太原,大同", nil)
	rr := httptest.NewRecorder()
	h.HandleBranches(rr, req)

	var branches []models.BranchSales
	decodeEnvelope(t, rr, &branches)
	if len(branches) != 2 {
		t.Fatalf("expected 2 branches, got %v", branches)
	}
	if branches[0].Branch != "1号店" || branches[0].TotalSales.String() != "100" {
		t.Errorf("unexpected first branch %+v", branches[0])
	}
}

func TestAPIHandlers_HandleOptions(t *testing.T) {
	info := dataset.LoadInfo{Source: dataset.SourceSynthetic, Fallback: true, Notice: "sample data"}
	h := NewAPIHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t), info: info}), testLogger())

	rr := httptest.NewRecorder()
	h.HandleOptions(rr, httptest.NewRequest("GET", "/api/options", nil))

	var opts optionsResponse
	decodeEnvelope(t, rr, &opts)
	if !opts.HasCity || opts.DatasetName != "商场销售数据" {
		t.Errorf("unexpected options %+v", opts)
	}
	if !reflect.DeepEqual(opts.Domains.Branches, []string{"1号店", "2号店"}) {
		t.Errorf("unexpected branches %v", opts.Domains.Branches)
	}
	if opts.Domains.MinDate != "2022-01-03" || opts.Domains.MaxDate != "2022-02-14" {
		t.Errorf("unexpected date bounds %s..%s", opts.Domains.MinDate, opts.Domains.MaxDate)
	}
	if !opts.Source.Fallback || opts.Source.Notice != "sample data" {
		t.Errorf("expected the fallback notice, got %+v", opts.Source)
	}
}

func TestAPIHandlers_HandleRows(t *testing.T) {
	h := NewAPIHandlers(createTestExplorer(t, &stubSource{table: createTestTable(t)}), testLogger())

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantIDs  []string
		total    int
	}{
		{"default page", "", http.StatusOK, []string{"H1", "H2", "H3"}, 3},
		{"paged", "limit=1&offset=1", http.StatusOK, []string{"H2"}, 3},
		{"filtered", "branch=1号店", http.StatusOK, []string{"H1", "H3"}, 2},
		{"past the end", "offset=10", http.StatusOK, []string{}, 3},
		{"bad limit", "limit=-1", http.StatusBadRequest, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.HandleRows(rr, httptest.NewRequest("GET", "/api/rows?"+tt.query, nil))

			if rr.Code != tt.wantCode {
				t.Fatalf("expected status %d, got %d", tt.wantCode, rr.Code)
			}
			if tt.wantCode != http.StatusOK {
				return
			}

			var resp rowsResponse
			decodeEnvelope(t, rr, &resp)
			if resp.Total != tt.total {
				t.Errorf("expected total %d, got %d", tt.total, resp.Total)
			}
			ids := make([]string, 0, len(resp.Rows))
			for _, r := range resp.Rows {
				ids = append(ids, r.OrderID)
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("expected rows %v, got %v", tt.wantIDs, ids)
			}
		})
	}
}

func TestAPIHandlers_Errors(t *testing.T) {
	formatErr := &dataset.DataFormatError{Row: 7, Column: dataset.ColSaleTime, Value: "lunch", Err: errors.New("bad time")}

	tests := []struct {
		name     string
		source   *stubSource
		query    string
		wantCode int
		wantErr  string
	}{
		{"bad date", &stubSource{table: createTestTable(t)}, "end=tomorrow", http.StatusBadRequest, "BAD_REQUEST"},
		{"malformed dataset", &stubSource{err: formatErr}, "", http.StatusUnprocessableEntity, "DATA_FORMAT_ERROR"},
		{"load failure", &stubSource{err: errors.New("disk on fire")}, "", http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAPIHandlers(createTestExplorer(t, tt.source), testLogger())
			rr := httptest.NewRecorder()
			h.HandleKPIs(rr, httptest.NewRequest("GET", "/api/kpis?"+tt.query, nil))

			if rr.Code != tt.wantCode {
				t.Errorf("expected status %d, got %d", tt.wantCode, rr.Code)
			}
			env := decodeEnvelope(t, rr, nil)
			if env.Success || env.Error == nil {
				t.Fatal("expected an error response")
			}
			if env.Error.Code != tt.wantErr {
				t.Errorf("expected code %s, got %s", tt.wantErr, env.Error.Code)
			}
			if tt.wantErr == "DATA_FORMAT_ERROR" && !strings.Contains(env.Error.Details, "row 7") {
				t.Errorf("expected the row in the details, got %q", env.Error.Details)
			}
		})
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	explorer := createTestExplorer(t, &stubSource{table: createTestTable(t)})
	explorer.Sessions().Resolve("")
	h := NewAPIHandlers(explorer, testLogger())

	rr := httptest.NewRecorder()
	h.HandleStats(rr, httptest.NewRequest("GET", "/admin/stats", nil))

	var stats map[string]any
	decodeEnvelope(t, rr, &stats)
	if stats["active_sessions"].(float64) != 1 {
		t.Errorf("expected 1 active session, got %v", stats["active_sessions"])
	}
	if stats["match_mode"] != "exact" {
		t.Errorf("expected exact match mode, got %v", stats["match_mode"])
	}
}

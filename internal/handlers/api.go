package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

type APIHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewAPIHandlers(explorer *services.Explorer, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

// view resolves the filtered view of the request. On failure the error has
// already been written.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (*dataset.Table, bool) {
	sel, err := parseSelections(r)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	view, err := h.explorer.View(r.Context(), sel)
	if err != nil {
		h.fail(w, r, err)
		return nil, false
	}
	return view, true
}

// recipe serves one aggregation recipe over the filtered view.
func recipe[T any](h *APIHandlers, fn func(*services.Catalog, *dataset.Table) T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, ok := h.view(w, r)
		if !ok {
			return
		}
		errors.WriteSuccess(w, fn(h.explorer.Catalog(), view))
	}
}

type optionsResponse struct {
	DatasetName string           `json:"dataset_name"`
	HasCity     bool             `json:"has_city"`
	MatchMode   string           `json:"match_mode"`
	Domains     domainsResponse  `json:"domains"`
	Source      dataset.LoadInfo `json:"source"`
}

type domainsResponse struct {
	Cities            []string `json:"cities,omitempty"`
	Branches          []string `json:"branches"`
	ProductCategories []string `json:"product_categories"`
	CustomerTypes     []string `json:"customer_types"`
	Genders           []string `json:"genders"`
	MinDate           string   `json:"min_date,omitempty"`
	MaxDate           string   `json:"max_date,omitempty"`
}

func newDomainsResponse(d dataset.Domains) domainsResponse {
	resp := domainsResponse{
		Cities:            d.Cities,
		Branches:          d.Branches,
		ProductCategories: d.ProductCategories,
		CustomerTypes:     d.CustomerTypes,
		Genders:           d.Genders,
	}
	if !d.MinDate.IsZero() {
		resp.MinDate = d.MinDate.Format(dateParamLayout)
		resp.MaxDate = d.MaxDate.Format(dateParamLayout)
	}
	return resp
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	base, info, err := h.explorer.Base(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	errors.WriteSuccess(w, optionsResponse{
		DatasetName: h.explorer.DatasetName(),
		HasCity:     base.Schema().HasCity,
		MatchMode:   string(h.explorer.Mode()),
		Domains:     newDomainsResponse(base.Domains()),
		Source:      info,
	})
}

func (h *APIHandlers) HandleKPIs(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).KPIs)(w, r)
}

func (h *APIHandlers) HandleBranches(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByBranch)(w, r)
}

func (h *APIHandlers) HandleCategories(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByCategory)(w, r)
}

func (h *APIHandlers) HandleCategoryDistribution(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).CategoryDistribution)(w, r)
}

func (h *APIHandlers) HandleDaily(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByDate)(w, r)
}

func (h *APIHandlers) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByMonth)(w, r)
}

func (h *APIHandlers) HandleWeekdays(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByWeekday)(w, r)
}

func (h *APIHandlers) HandleHourly(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByHour)(w, r)
}

func (h *APIHandlers) HandleCustomerTypes(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByCustomerType)(w, r)
}

func (h *APIHandlers) HandleGenders(w http.ResponseWriter, r *http.Request) {
	recipe(h, (*services.Catalog).ByGender)(w, r)
}

type rowsResponse struct {
	Total  int                  `json:"total"`
	Offset int                  `json:"offset"`
	Limit  int                  `json:"limit"`
	Rows   []models.Transaction `json:"rows"`
}

func intParam(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.BadRequest("invalid " + key + ", expected a non-negative integer")
	}
	return n, nil
}

// HandleRows pages through the filtered view in base order.
func (h *APIHandlers) HandleRows(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", defaultRowLimit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	offset, err := intParam(r, "offset", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	limit = min(limit, maxRowLimit)

	view, ok := h.view(w, r)
	if !ok {
		return
	}

	resp := rowsResponse{Total: view.Len(), Offset: offset, Limit: limit, Rows: []models.Transaction{}}
	for i := offset; i < view.Len() && i < offset+limit; i++ {
		resp.Rows = append(resp.Rows, view.Row(i))
	}
	errors.WriteSuccess(w, resp)
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	healthData := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
		"sessions":  h.explorer.Sessions().Len(),
	}

	errors.WriteSuccessWithHeaders(w, healthData, map[string]string{"Cache-Control": "no-store"})
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.explorer.Sessions().Stats()
	stats["match_mode"] = string(h.explorer.Mode())
	stats["dataset_name"] = h.explorer.DatasetName()

	errors.WriteSuccessWithHeaders(w, stats, map[string]string{"Cache-Control": "no-store"})
}

package handlers

import (
	stderrors "errors"
	"log/slog"
	"net/http"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/observability"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type PageHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewPageHandlers(explorer *services.Explorer, logger *slog.Logger) *PageHandlers {
	return &PageHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

// HandleDashboard renders the page over the unfiltered base table. A
// malformed dataset still renders the page, with the error in place of
// the data.
func (h *PageHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		errors.WriteError(w, h.logger, errors.NotFound("page not found"), observability.GetRequestID(r.Context()))
		return
	}

	ctx := r.Context()
	data := templates.PageData{
		Title:     h.explorer.DatasetName(),
		ExportURL: exportURL(services.Selections{}),
	}

	base, info, err := h.explorer.Base(ctx)
	status := http.StatusOK
	switch {
	case err != nil:
		var formatErr *dataset.DataFormatError
		if !stderrors.As(err, &formatErr) {
			h.logger.Error("load base table", "error", err)
		}
		appErr := errors.FromError(err)
		status = appErr.StatusCode
		data.ErrorDetail = appErr.Message
		if appErr.Details != "" {
			data.ErrorDetail += ": " + appErr.Details
		}
	default:
		data.Domains = base.Domains()
		data.HasCity = base.Schema().HasCity
		data.Info = info
		data.KPIs = h.explorer.Catalog().KPIs(base)
		data.Rows = base.Head(templates.MaxTableRows)
		data.TotalRows = base.Len()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if err := templates.Dashboard(data).Render(ctx, w); err != nil {
		h.logger.Error("render dashboard", "error", err)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/starfederation/datastar-go/datastar"

	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/services"
	"sales-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	explorer *services.Explorer
	logger   *slog.Logger
}

func NewSSEHandlers(explorer *services.Explorer, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		explorer: explorer,
		logger:   logger,
	}
}

func render(ctx context.Context, c templ.Component) (string, error) {
	var buf strings.Builder
	err := c.Render(ctx, &buf)
	return buf.String(), err
}

// notice patches the message area; the error is logged with its code.
func (h *SSEHandlers) notice(ctx context.Context, sse *datastar.ServerSentEventGenerator, err error) {
	appErr := errors.FromError(err)
	h.logger.Warn("refresh failed",
		"error_code", appErr.Code,
		"error_message", appErr.Message,
		"cause", appErr.Cause,
	)

	message := appErr.Message
	if appErr.Details != "" {
		message += ": " + appErr.Details
	}
	html, renderErr := render(ctx, templates.Notice("error", message))
	if renderErr != nil {
		h.logger.Error("render notice", "error", renderErr)
		return
	}
	sse.PatchElements(html)
}

// HandleRefresh reads the sidebar signals, runs the pipeline and patches
// the KPI row, detail table, chart data and export link.
func (h *SSEHandlers) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	var signals filterSignals
	signalsErr := datastar.ReadSignals(r, &signals)

	ctx := r.Context()
	sse := datastar.NewSSE(w, r)

	if signalsErr != nil {
		h.notice(ctx, sse, errors.BadRequestWrap(signalsErr, "invalid filter signals"))
		return
	}
	sel, err := signals.selections()
	if err != nil {
		h.notice(ctx, sse, err)
		return
	}

	_, info, err := h.explorer.Base(ctx)
	if err != nil {
		h.notice(ctx, sse, err)
		return
	}
	view, dash, err := h.explorer.Refresh(ctx, sel)
	if err != nil {
		h.notice(ctx, sse, err)
		return
	}

	kind, message := "", ""
	if info.Fallback {
		kind, message = "warning", info.Notice
	}
	for _, c := range []templ.Component{
		templates.Notice(kind, message),
		templates.KPIRow(dash.KPIs),
		templates.DetailTable(view.Head(templates.MaxTableRows), view.Len()),
	} {
		html, err := render(ctx, c)
		if err != nil {
			h.logger.Error("render fragment", "error", err)
			return
		}
		sse.PatchElements(html)
	}

	signalsJSON, err := json.Marshal(map[string]any{
		"charts":    dash,
		"exportUrl": exportURL(sel),
	})
	if err != nil {
		h.logger.Error("marshal chart signals", "error", err)
		return
	}
	sse.PatchSignals(signalsJSON)

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

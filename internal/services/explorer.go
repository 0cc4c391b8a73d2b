package services

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"sales-dashboard/internal/dataset"
	"sales-dashboard/internal/observability"
)

type ExplorerOptions struct {
	Mode        MatchMode
	DatasetName string
	ExportBOM   bool
}

// Explorer runs the per-interaction pipeline for a session: filter the
// memoized base table, evaluate recipes, export.
type Explorer struct {
	sessions *SessionStore
	catalog  *Catalog
	opts     ExplorerOptions
	logger   *slog.Logger
}

func NewExplorer(sessions *SessionStore, opts ExplorerOptions, logger *slog.Logger) *Explorer {
	if opts.Mode == "" {
		opts.Mode = MatchExact
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Explorer{
		sessions: sessions,
		catalog:  NewCatalog(opts.Mode),
		opts:     opts,
		logger:   logger,
	}
}

func (e *Explorer) Sessions() *SessionStore {
	return e.sessions
}

func (e *Explorer) Catalog() *Catalog {
	return e.catalog
}

func (e *Explorer) Mode() MatchMode {
	return e.opts.Mode
}

func (e *Explorer) DatasetName() string {
	return e.opts.DatasetName
}

// Session returns the session bound to ctx, or a detached one when the
// request carries none.
func (e *Explorer) Session(ctx context.Context) *Session {
	if sess := SessionFrom(ctx); sess != nil {
		return sess
	}
	return e.sessions.Detached()
}

func (e *Explorer) Base(ctx context.Context) (*dataset.Table, dataset.LoadInfo, error) {
	return e.Session(ctx).Base(ctx)
}

// View returns the base table narrowed by sel.
func (e *Explorer) View(ctx context.Context, sel Selections) (*dataset.Table, error) {
	base, _, err := e.Base(ctx)
	if err != nil {
		return nil, err
	}
	return Filter(base, sel, e.opts.Mode), nil
}

func (e *Explorer) Snapshot(ctx context.Context, sel Selections) (*Dashboard, error) {
	_, d, err := e.Refresh(ctx, sel)
	return d, err
}

// Refresh returns the filtered view together with every recipe evaluated
// over it.
func (e *Explorer) Refresh(ctx context.Context, sel Selections) (*dataset.Table, *Dashboard, error) {
	view, err := e.View(ctx, sel)
	if err != nil {
		return nil, nil, err
	}

	ctx, span := observability.StartSpan(ctx, "catalog.snapshot")
	defer func() {
		span.Finish()
		span.Log(ctx, e.logger)
	}()
	span.SetTag("rows", strconv.Itoa(view.Len()))

	d, err := e.catalog.Snapshot(ctx, view)
	if err != nil {
		span.SetError(err)
		return nil, nil, err
	}
	return view, d, nil
}

// Export returns the filtered view as CSV together with its suggested
// filename.
func (e *Explorer) Export(ctx context.Context, sel Selections) ([]byte, string, error) {
	base, _, err := e.Base(ctx)
	if err != nil {
		return nil, "", err
	}

	data, err := FormatCSV(Filter(base, sel, e.opts.Mode), e.opts.ExportBOM)
	if err != nil {
		return nil, "", fmt.Errorf("format export: %w", err)
	}
	start, end := ExportRange(sel, base.Domains())
	return data, ExportFilename(e.opts.DatasetName, start, end), nil
}

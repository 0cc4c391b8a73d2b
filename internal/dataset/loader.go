package dataset

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

const (
	cacheVersion = "v2"

	SourceWorkbook  = "workbook"
	SourceCSV       = "csv"
	SourceSynthetic = "synthetic"
)

type Options struct {
	Path          string
	Sheet         string
	SkipRows      int
	SyntheticRows int
	SyntheticSeed uint64
	CacheDir      string
}

// LoadInfo describes where a table came from. Notice is set when the
// synthetic fallback replaced the primary source.
type LoadInfo struct {
	Source    string        `json:"source"`
	Path      string        `json:"path,omitempty"`
	Rows      int           `json:"rows"`
	Fallback  bool          `json:"fallback"`
	Notice    string        `json:"notice,omitempty"`
	FromCache bool          `json:"from_cache"`
	Duration  time.Duration `json:"duration"`
}

type Loader struct {
	opts   Options
	logger *slog.Logger
}

func NewLoader(opts Options, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{opts: opts, logger: logger}
}

type cachedRows struct {
	Rows     []models.Transaction
	Schema   Schema
	ModTime  time.Time
	CachedAt time.Time
}

// Load reads the primary source and enriches it into a base table. Any
// failure to acquire the source (missing file or sheet, corrupt workbook,
// unusable header, no rows) is replaced by synthetic data. A malformed value
// in an acquired source is returned as a *DataFormatError.
func (l *Loader) Load(ctx context.Context) (*Table, LoadInfo, error) {
	ctx, span := observability.StartSpan(ctx, "dataset.load")
	defer func() {
		span.Finish()
		span.Log(ctx, l.logger)
	}()

	start := time.Now()
	rows, schema, info, err := l.acquire(ctx)
	if err != nil {
		var formatErr *DataFormatError
		if errors.As(err, &formatErr) || ctx.Err() != nil {
			span.SetError(err)
			return nil, info, err
		}

		l.logger.Warn("primary source unavailable, using synthetic data",
			"path", l.opts.Path,
			"error", err,
		)
		rows = Synthesize(l.opts.SyntheticRows, l.opts.SyntheticSeed)
		schema = Schema{HasCity: true}
		info = LoadInfo{
			Source:   SourceSynthetic,
			Path:     l.opts.Path,
			Fallback: true,
			Notice:   fmt.Sprintf("source %q unavailable, showing sample data", l.opts.Path),
		}
	}

	table, err := Enrich(rows, schema)
	if err != nil {
		span.SetError(err)
		return nil, info, err
	}

	info.Rows = table.Len()
	info.Duration = time.Since(start)
	span.SetTag("source", info.Source)
	l.logger.Info("dataset loaded",
		"source", info.Source,
		"rows", info.Rows,
		"from_cache", info.FromCache,
		"duration", info.Duration,
	)
	return table, info, nil
}

func (l *Loader) acquire(ctx context.Context) ([]models.Transaction, Schema, LoadInfo, error) {
	info := LoadInfo{Path: l.opts.Path}
	if l.opts.Path == "" {
		return nil, Schema{}, info, errors.New("no source configured")
	}

	stat, err := os.Stat(l.opts.Path)
	if err != nil {
		return nil, Schema{}, info, err
	}

	if cached, err := l.loadFromCache(); err == nil && cached.ModTime.Equal(stat.ModTime()) {
		info.Source = sourceKind(l.opts.Path)
		info.FromCache = true
		return cached.Rows, cached.Schema, info, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, Schema{}, info, err
	}

	var grid [][]string
	switch kind := sourceKind(l.opts.Path); kind {
	case SourceWorkbook:
		info.Source = kind
		grid, err = readWorkbook(l.opts.Path, l.opts.Sheet)
	case SourceCSV:
		info.Source = kind
		var f *os.File
		if f, err = os.Open(l.opts.Path); err == nil {
			grid, err = ReadCSV(f)
			f.Close()
		}
	default:
		err = fmt.Errorf("unsupported source type %q", filepath.Ext(l.opts.Path))
	}
	if err != nil {
		return nil, Schema{}, info, err
	}

	headerRow, index, err := findHeader(grid, l.opts.SkipRows)
	if err != nil {
		return nil, Schema{}, info, err
	}
	rows, schema, err := parseRecords(grid, headerRow, index)
	if err != nil {
		return nil, Schema{}, info, err
	}

	if err := l.saveToCache(cachedRows{Rows: rows, Schema: schema, ModTime: stat.ModTime(), CachedAt: time.Now()}); err != nil {
		l.logger.Warn("failed to save cache", "error", err)
	}
	return rows, schema, info, nil
}

func sourceKind(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return SourceWorkbook
	case ".csv":
		return SourceCSV
	}
	return ""
}

func (l *Loader) cacheFilename() string {
	name := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(l.opts.Path)
	return filepath.Join(l.opts.CacheDir, fmt.Sprintf("%s_%s_skip%d_%s.gob", name, l.opts.Sheet, l.opts.SkipRows, cacheVersion))
}

func (l *Loader) saveToCache(data cachedRows) error {
	if l.opts.CacheDir == "" {
		return nil
	}
	if err := os.MkdirAll(l.opts.CacheDir, 0o755); err != nil {
		return err
	}

	file, err := os.Create(l.cacheFilename())
	if err != nil {
		return err
	}
	defer file.Close()

	return gob.NewEncoder(file).Encode(data)
}

func (l *Loader) loadFromCache() (*cachedRows, error) {
	if l.opts.CacheDir == "" {
		return nil, os.ErrNotExist
	}

	file, err := os.Open(l.cacheFilename())
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var data cachedRows
	if err := gob.NewDecoder(file).Decode(&data); err != nil {
		return nil, err
	}
	return &data, nil
}

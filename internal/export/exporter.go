// Package export produces spreadsheet and word documents of all reports,
// embedding a bounded thumbnail of each report photo.
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"laporan/internal/fetcher"
	"laporan/internal/logging"
	"laporan/internal/model"
)

var (
	ErrStoreUnavailable = errors.New("report store unavailable")
	ErrBuild            = errors.New("document build failed")
)

var (
	exportsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laporan_exports_total",
		Help: "Total number of exports by format and outcome.",
	}, []string{"format", "outcome"})
	imageFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "laporan_export_image_failures_total",
		Help: "Total number of report photos that could not be embedded into an export.",
	}, []string{"format"})
)

const defaultConcurrency = 4

var tracer = otel.Tracer("laporan/export")

// Lister is the read side of the record store needed for exports.
type Lister interface {
	List(ctx context.Context) ([]model.Report, error)
}

// ImageFetcher returns encoded thumbnail bytes for a photo URL.
type ImageFetcher interface {
	FetchVariant(ctx context.Context, sourceURL string, v fetcher.Variant) ([]byte, error)
}

// Warning records a report whose photo could not be embedded.
type Warning struct {
	Index    int
	ReportID string
	Err      error
}

// Result is a fully built export document.
type Result struct {
	Format      Format
	Data        []byte
	ContentType string
	Filename    string
	Warnings    []Warning
}

// Service is the export use case consumed by the HTTP layer.
type Service interface {
	Export(ctx context.Context, format Format) (*Result, error)
}

// Options configure an Exporter.
type Options struct {
	Variant     fetcher.Variant
	Concurrency int
	// Timeout bounds a whole export. Zero means no bound beyond the caller's context.
	Timeout  time.Duration
	Location *time.Location
	Logger   *slog.Logger
}

// Exporter snapshots the store, fetches thumbnails concurrently and hands the
// ordered entries to the builder of the requested format.
type Exporter struct {
	store       Lister
	images      ImageFetcher
	builders    map[Format]Builder
	variant     fetcher.Variant
	concurrency int
	timeout     time.Duration
	log         *slog.Logger
}

var _ Service = (*Exporter)(nil)

// New creates an Exporter with the excel and word builders registered.
func New(store Lister, images ImageFetcher, opts Options) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = defaultConcurrency
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Exporter{
		store:  store,
		images: images,
		builders: map[Format]Builder{
			FormatExcel: ExcelBuilder{Location: opts.Location},
			FormatWord:  WordBuilder{Location: opts.Location},
		},
		variant:     opts.Variant,
		concurrency: opts.Concurrency,
		timeout:     opts.Timeout,
		log:         opts.Logger,
	}
}

// Export builds the whole document in memory. Photo failures never fail the
// export; they are returned as warnings and the report is emitted without image.
func (e *Exporter) Export(ctx context.Context, format Format) (*Result, error) {
	builder, ok := e.builders[format]
	if !ok {
		return nil, ErrUnknownFormat
	}

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	ctx, span := tracer.Start(ctx, "export.Export")
	defer span.End()
	span.SetAttributes(attribute.String("export.format", string(format)))

	reports, err := e.store.List(ctx)
	if err != nil {
		e.fail(span, format, "store_error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	span.SetAttributes(attribute.Int("export.records", len(reports)))

	entries, warnings, err := e.gather(ctx, format, reports)
	if err != nil {
		e.fail(span, format, "canceled", err)
		return nil, err
	}

	data, err := builder.Build(entries)
	if err != nil {
		e.fail(span, format, "build_error", err)
		return nil, fmt.Errorf("%w: %w", ErrBuild, err)
	}

	outcome := "success"
	if len(warnings) > 0 {
		outcome = "partial"
	}
	exportsTotal.WithLabelValues(string(format), outcome).Inc()
	span.SetAttributes(attribute.Int("export.warnings", len(warnings)))

	return &Result{
		Format:      format,
		Data:        data,
		ContentType: format.ContentType(),
		Filename:    format.Filename(),
		Warnings:    warnings,
	}, nil
}

// gather fetches thumbnails with at most e.concurrency requests in flight.
// Entries keep the snapshot order regardless of completion order.
func (e *Exporter) gather(ctx context.Context, format Format, reports []model.Report) ([]Entry, []Warning, error) {
	entries := make([]Entry, len(reports))
	failures := make([]error, len(reports))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i, r := range reports {
		entries[i].Report = r
		if r.PhotoURL == "" {
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			img, err := e.images.FetchVariant(gctx, r.PhotoURL, e.variant)
			if err != nil {
				failures[i] = err
				return nil
			}
			entries[i].Image = img
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var warnings []Warning
	for i, err := range failures {
		if err == nil {
			continue
		}
		warnings = append(warnings, Warning{Index: i, ReportID: reports[i].ID, Err: err})
		imageFailuresTotal.WithLabelValues(string(format)).Inc()
		e.log.WarnContext(ctx, "export_image_failed",
			slog.String("format", string(format)),
			slog.Int("index", i),
			slog.String("report_id", reports[i].ID),
			slog.String("photo_url", reports[i].PhotoURL),
			slog.String("error", err.Error()),
		)
	}
	return entries, warnings, nil
}

func (e *Exporter) fail(span trace.Span, format Format, outcome string, err error) {
	exportsTotal.WithLabelValues(string(format), outcome).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, outcome)
}

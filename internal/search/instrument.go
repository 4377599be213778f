package search

import (
	"context"
	"errors"
	"time"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
)

const meterName = "github.com/hyperjump/tansaku/internal/search"

// Instrumented logs and meters every search of the engine it wraps.
type Instrumented struct {
	engine   Engine
	name     string
	logger   *zap.Logger
	requests metric.Int64Counter
	duration metric.Float64Histogram
}

// InstrumentOption configures Instrument.
type InstrumentOption func(*instrumentOptions)

type instrumentOptions struct {
	provider metric.MeterProvider
}

// WithMeterProvider records metrics through mp instead of the global provider.
func WithMeterProvider(mp metric.MeterProvider) InstrumentOption {
	return func(o *instrumentOptions) { o.provider = mp }
}

// Instrument wraps engine so that each search increments tansaku.search.requests and
// records tansaku.search.duration, both labelled with the engine name and outcome.
// Instruments that cannot be created are replaced by no-ops.
func Instrument(engine Engine, name string, logger *zap.Logger, opts ...InstrumentOption) *Instrumented {
	o := instrumentOptions{provider: otel.GetMeterProvider()}
	for _, opt := range opts {
		opt(&o)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := o.provider.Meter(meterName)

	requests, err := meter.Int64Counter("tansaku.search.requests",
		metric.WithDescription("Search requests by engine and outcome"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		logger.Warn("Failed to create search request counter", zap.Error(err))
		requests = noop.Int64Counter{}
	}
	duration, err := meter.Float64Histogram("tansaku.search.duration",
		metric.WithDescription("Search latency by engine and outcome"),
		metric.WithUnit("s"),
	)
	if err != nil {
		logger.Warn("Failed to create search duration histogram", zap.Error(err))
		duration = noop.Float64Histogram{}
	}

	return &Instrumented{
		engine:   engine,
		name:     name,
		logger:   logger,
		requests: requests,
		duration: duration,
	}
}

// Name returns the engine name the wrapper reports.
func (i *Instrumented) Name() string { return i.name }

// Search implements Engine.
func (i *Instrumented) Search(ctx context.Context, q string) (*models.SearchResult, error) {
	start := time.Now()
	res, err := i.engine.Search(ctx, q)
	elapsed := time.Since(start)

	outcome := "ok"
	switch {
	case errors.Is(err, query.ErrEmpty):
		outcome = "invalid"
	case err != nil:
		outcome = "error"
		i.logger.Error("Search failed",
			zap.String("engine", i.name),
			zap.String("query", q),
			zap.Duration("duration", elapsed),
			zap.Error(err),
		)
	default:
		i.logger.Debug("Search completed",
			zap.String("engine", i.name),
			zap.String("query", q),
			zap.Int("results", len(res.Results)),
			zap.Duration("duration", elapsed),
		)
	}

	attrs := metric.WithAttributes(
		attribute.String("engine", i.name),
		attribute.String("outcome", outcome),
	)
	i.requests.Add(ctx, 1, attrs)
	i.duration.Record(ctx, elapsed.Seconds(), attrs)
	return res, err
}

// Close closes the wrapped engine if it holds resources.
func (i *Instrumented) Close() error {
	return Close(i.engine)
}

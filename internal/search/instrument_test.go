package search

import (
	"context"
	"errors"
	"testing"

	"github.com/hyperjump/tansaku/internal/models"
	"github.com/hyperjump/tansaku/internal/query"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubEngine struct {
	res    *models.SearchResult
	err    error
	closed bool
}

func (s *stubEngine) Search(context.Context, string) (*models.SearchResult, error) {
	return s.res, s.err
}

func (s *stubEngine) Close() error {
	s.closed = true
	return nil
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestInstrument_RecordsOutcomes(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	core, logs := observer.New(zap.DebugLevel)
	ok := &stubEngine{res: models.NewSearchResult("q", "q", nil, nil)}
	failing := &stubEngine{err: errors.New("connection refused")}
	blank := &stubEngine{err: query.ErrEmpty}

	ctx := context.Background()
	_, err := Instrument(ok, "sqlite", zap.New(core), WithMeterProvider(provider)).Search(ctx, "q")
	require.NoError(t, err)
	_, err = Instrument(failing, "sqlite", zap.New(core), WithMeterProvider(provider)).Search(ctx, "q")
	require.Error(t, err)
	_, err = Instrument(blank, "sqlite", zap.New(core), WithMeterProvider(provider)).Search(ctx, " ")
	require.ErrorIs(t, err, query.ErrEmpty)

	metrics := collect(t, reader)
	requests, found := metrics["tansaku.search.requests"]
	require.True(t, found, "request counter not exported")
	sum, isSum := requests.Data.(metricdata.Sum[int64])
	require.True(t, isSum, "got %T", requests.Data)

	byOutcome := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		engine, _ := dp.Attributes.Value("engine")
		assert.Equal(t, "sqlite", engine.AsString())
		outcome, _ := dp.Attributes.Value("outcome")
		byOutcome[outcome.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{"ok": 1, "error": 1, "invalid": 1}, byOutcome)

	duration, found := metrics["tansaku.search.duration"]
	require.True(t, found, "duration histogram not exported")
	hist, isHist := duration.Data.(metricdata.Histogram[float64])
	require.True(t, isHist, "got %T", duration.Data)
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	assert.Equal(t, uint64(3), count)

	assert.Equal(t, 1, logs.FilterMessage("Search failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("Search completed").Len())
}

func TestInstrument_PassesThroughAndCloses(t *testing.T) {
	want := models.NewSearchResult("iphone", "iPhone 15", []string{"iPhone 15"}, nil)
	inner := &stubEngine{res: want}
	engine := Instrument(inner, "elastic", nil)

	got, err := engine.Search(context.Background(), "iphone")
	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, "elastic", engine.Name())

	require.NoError(t, engine.Close())
	assert.True(t, inner.closed)
}

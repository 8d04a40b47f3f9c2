// Package testing provides in-memory OpenTelemetry providers and metric
// lookups for asserting instrumentation in unit tests.
//
//	mp := NewTestMeterProvider()
//	defer mp.Shutdown(context.Background())
//	counter, _ := mp.Meter("test").Int64Counter("relay.requests")
//	counter.Add(ctx, 1)
//	rm := mp.Collect(t)
//	total, _ := SumInt64(rm, "relay.requests", nil)
package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// TestTraceProvider wraps the SDK TracerProvider and in-memory exporter for testing.
type TestTraceProvider struct {
	*sdktrace.TracerProvider
	Exporter *tracetest.InMemoryExporter
}

// NewTestTraceProvider creates a TracerProvider that exports spans synchronously to memory.
func NewTestTraceProvider() *TestTraceProvider {
	exporter := tracetest.NewInMemoryExporter()
	return &TestTraceProvider{
		TracerProvider: sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)),
		Exporter:       exporter,
	}
}

// TestMeterProvider wraps the SDK MeterProvider and manual reader for testing.
type TestMeterProvider struct {
	*sdkmetric.MeterProvider
	Reader *sdkmetric.ManualReader
}

// NewTestMeterProvider creates a MeterProvider collected on demand.
func NewTestMeterProvider() *TestMeterProvider {
	reader := sdkmetric.NewManualReader()
	return &TestMeterProvider{
		MeterProvider: sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)),
		Reader:        reader,
	}
}

// Collect reads all metrics from the provider.
func (tmp *TestMeterProvider) Collect(t *testing.T) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, tmp.Reader.Collect(context.Background(), &rm), "failed to collect metrics")
	return rm
}

// FindMetric finds a metric by name. Returns nil if not found.
func FindMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

// SumInt64 adds up the data points of an int64 counter whose attributes
// contain every entry of attrs. The boolean is false when the metric is
// missing or not an int64 sum.
func SumInt64(rm metricdata.ResourceMetrics, name string, attrs []attribute.KeyValue) (int64, bool) {
	m := FindMetric(rm, name)
	if m == nil {
		return 0, false
	}
	sum, ok := m.Data.(metricdata.Sum[int64])
	if !ok {
		return 0, false
	}

	var total int64
	for _, dp := range sum.DataPoints {
		if hasAttributes(dp.Attributes, attrs) {
			total += dp.Value
		}
	}
	return total, true
}

// HistogramCount returns the number of recordings of a float64 histogram.
func HistogramCount(rm metricdata.ResourceMetrics, name string) (uint64, bool) {
	m := FindMetric(rm, name)
	if m == nil {
		return 0, false
	}
	hist, ok := m.Data.(metricdata.Histogram[float64])
	if !ok {
		return 0, false
	}

	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	return count, true
}

func hasAttributes(set attribute.Set, want []attribute.KeyValue) bool {
	for _, kv := range want {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

// Package metrics records index operation counts and latencies with
// OpenCensus and exposes them to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"time"

	"contrib.go.opencensus.io/exporter/prometheus"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

const (
	StatusOK    = "ok"
	StatusError = "error"
)

var (
	OperationCount   = stats.Int64("spatial/operations", "Number of index operations", stats.UnitDimensionless)
	OperationLatency = stats.Float64("spatial/latency", "Latency of index operations", stats.UnitMilliseconds)
	ResultSize       = stats.Int64("spatial/result_size", "Points returned by index queries", stats.UnitDimensionless)

	KeyOperation = tag.MustNewKey("operation")
	KeyKind      = tag.MustNewKey("kind")
	KeyStatus    = tag.MustNewKey("status")
)

var (
	OperationCountView = &view.View{
		Name:        "spatial/operations_count",
		Measure:     OperationCount,
		Description: "Number of index operations by operation, kind and status",
		Aggregation: view.Count(),
		TagKeys:     []tag.Key{KeyOperation, KeyKind, KeyStatus},
	}
	OperationLatencyView = &view.View{
		Name:        "spatial/latency_ms",
		Measure:     OperationLatency,
		Description: "Distribution of index operation latency",
		Aggregation: view.Distribution(0.01, 0.05, 0.1, 0.5, 1, 5, 10, 50, 100, 500, 1000),
		TagKeys:     []tag.Key{KeyOperation, KeyKind},
	}
	ResultSizeView = &view.View{
		Name:        "spatial/result_size",
		Measure:     ResultSize,
		Description: "Distribution of query result sizes",
		Aggregation: view.Distribution(1, 2, 5, 10, 50, 100, 500, 1000, 10000),
		TagKeys:     []tag.Key{KeyOperation, KeyKind},
	}
)

func Views() []*view.View {
	return []*view.View{OperationCountView, OperationLatencyView, ResultSizeView}
}

func Register() error {
	if err := view.Register(Views()...); err != nil {
		return fmt.Errorf("register views: %w", err)
	}
	return nil
}

// NewExporter registers a Prometheus exporter for the views. The exporter is
// an http.Handler serving the scrape endpoint.
func NewExporter(namespace string) (*prometheus.Exporter, error) {
	pe, err := prometheus.NewExporter(prometheus.Options{Namespace: namespace})
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}
	view.RegisterExporter(pe)
	return pe, nil
}

// Record stores one finished operation. A negative size skips the result size measure.
func Record(ctx context.Context, operation, kind string, start time.Time, size int, err error) {
	status := StatusOK
	if err != nil {
		status = StatusError
	}
	ctx, tagErr := tag.New(ctx,
		tag.Upsert(KeyOperation, operation),
		tag.Upsert(KeyKind, kind),
		tag.Upsert(KeyStatus, status),
	)
	if tagErr != nil {
		return
	}
	measurements := []stats.Measurement{
		OperationCount.M(1),
		OperationLatency.M(float64(time.Since(start)) / float64(time.Millisecond)),
	}
	if size >= 0 {
		measurements = append(measurements, ResultSize.M(int64(size)))
	}
	stats.Record(ctx, measurements...)
}

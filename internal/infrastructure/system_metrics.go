package infrastructure

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// RuntimeMetrics records the process footprint of a run. The whole feed is
// held in memory, so heap size is the number worth watching.
type RuntimeMetrics struct {
	heapInUse   metric.Int64Gauge
	totalAlloc  metric.Int64Gauge
	gcCount     metric.Int64Gauge
	runDuration metric.Float64Gauge
}

// RuntimeStats is one snapshot of the Go runtime
type RuntimeStats struct {
	HeapInUse  int64
	TotalAlloc int64
	GCCount    uint32
	Uptime     time.Duration
}

// NewRuntimeMetrics creates the runtime gauges on meter
func NewRuntimeMetrics(meter metric.Meter) (*RuntimeMetrics, error) {
	heapInUse, err := meter.Int64Gauge(
		"banks_runtime_heap_inuse",
		metric.WithDescription("Heap bytes in use at the end of the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	totalAlloc, err := meter.Int64Gauge(
		"banks_runtime_total_alloc",
		metric.WithDescription("Cumulative heap bytes allocated during the run"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	gcCount, err := meter.Int64Gauge(
		"banks_runtime_gc_cycles",
		metric.WithDescription("Completed GC cycles during the run"),
	)
	if err != nil {
		return nil, err
	}

	runDuration, err := meter.Float64Gauge(
		"banks_run_duration",
		metric.WithDescription("Wall time of the run in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &RuntimeMetrics{
		heapInUse:   heapInUse,
		totalAlloc:  totalAlloc,
		gcCount:     gcCount,
		runDuration: runDuration,
	}, nil
}

// Collect reads the runtime statistics, records them and logs a summary.
func (rm *RuntimeMetrics) Collect(ctx context.Context, startTime time.Time, logger *slog.Logger) RuntimeStats {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	stats := RuntimeStats{
		HeapInUse:  int64(memStats.HeapInuse),
		TotalAlloc: int64(memStats.TotalAlloc),
		GCCount:    memStats.NumGC,
		Uptime:     time.Since(startTime),
	}

	rm.heapInUse.Record(ctx, stats.HeapInUse)
	rm.totalAlloc.Record(ctx, stats.TotalAlloc)
	rm.gcCount.Record(ctx, int64(stats.GCCount))
	rm.runDuration.Record(ctx, stats.Uptime.Seconds())

	if logger != nil {
		logger.DebugContext(ctx, "Runtime statistics",
			slog.Int64("heap_inuse_bytes", stats.HeapInUse),
			slog.Int64("total_alloc_bytes", stats.TotalAlloc),
			slog.Int("gc_cycles", int(stats.GCCount)),
			slog.Duration("uptime", stats.Uptime))
	}

	return stats
}

package frvm

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
type MetricsCollector interface {
	// RecordEvaluate is called after each query evaluation.
	// total is the number of matching entities, duration is the time taken,
	// err is nil if successful.
	RecordEvaluate(total int, duration time.Duration, err error)

	// RecordSet is called after each tri-state assignment.
	RecordSet(duration time.Duration, err error)

	// RecordScan is called after each library scan.
	// entities is the total number of enumerated entities.
	RecordScan(entities int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEvaluate(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSet(time.Duration, error)           {}
func (NoopMetricsCollector) RecordScan(int, time.Duration, error)     {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EvaluateCount      atomic.Int64
	EvaluateErrors     atomic.Int64
	EvaluateTotalNanos atomic.Int64
	SetCount           atomic.Int64
	SetErrors          atomic.Int64
	ScanCount          atomic.Int64
	ScanErrors         atomic.Int64
	ScanEntities       atomic.Int64
}

// RecordEvaluate implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEvaluate(total int, duration time.Duration, err error) {
	b.EvaluateCount.Add(1)
	b.EvaluateTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EvaluateErrors.Add(1)
	}
}

// RecordSet implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSet(duration time.Duration, err error) {
	b.SetCount.Add(1)
	if err != nil {
		b.SetErrors.Add(1)
	}
}

// RecordScan implements MetricsCollector.
func (b *BasicMetricsCollector) RecordScan(entities int, duration time.Duration, err error) {
	b.ScanCount.Add(1)
	b.ScanEntities.Store(int64(entities))
	if err != nil {
		b.ScanErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EvaluateCount:    b.EvaluateCount.Load(),
		EvaluateErrors:   b.EvaluateErrors.Load(),
		EvaluateAvgNanos: b.getAvgEvaluateNanos(),
		SetCount:         b.SetCount.Load(),
		SetErrors:        b.SetErrors.Load(),
		ScanCount:        b.ScanCount.Load(),
		ScanErrors:       b.ScanErrors.Load(),
		ScanEntities:     b.ScanEntities.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgEvaluateNanos() int64 {
	count := b.EvaluateCount.Load()
	if count == 0 {
		return 0
	}
	return b.EvaluateTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EvaluateCount    int64
	EvaluateErrors   int64
	EvaluateAvgNanos int64
	SetCount         int64
	SetErrors        int64
	ScanCount        int64
	ScanErrors       int64
	ScanEntities     int64
}

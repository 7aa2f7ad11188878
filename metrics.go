package labelsampler

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// metrics/prometheus package provides a Prometheus implementation.
type MetricsCollector interface {
	// RecordSetup is called once after the label index is built.
	// records and labels are zero if err is non-nil.
	RecordSetup(records, labels int, duration time.Duration, err error)

	// RecordForward is called after each forward call.
	RecordForward(policy Policy, batchSize int, duration time.Duration, err error)

	// RecordRestart is called each time the sequential walk wraps around.
	RecordRestart(epoch int)

	// RecordCompanionRead is called after each random-access companion read.
	RecordCompanionRead(duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSetup(int, int, time.Duration, error)      {}
func (NoopMetricsCollector) RecordForward(Policy, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordRestart(int)                               {}
func (NoopMetricsCollector) RecordCompanionRead(time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SetupCount          atomic.Int64
	SetupErrors         atomic.Int64
	Records             atomic.Int64
	Labels              atomic.Int64
	ForwardCount        atomic.Int64
	ForwardErrors       atomic.Int64
	ForwardItems        atomic.Int64
	ForwardTotalNanos   atomic.Int64
	Restarts            atomic.Int64
	Epoch               atomic.Int64
	CompanionReads      atomic.Int64
	CompanionErrors     atomic.Int64
	CompanionTotalNanos atomic.Int64
}

// RecordSetup implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSetup(records, labels int, _ time.Duration, err error) {
	b.SetupCount.Add(1)
	if err != nil {
		b.SetupErrors.Add(1)
		return
	}
	b.Records.Store(int64(records))
	b.Labels.Store(int64(labels))
}

// RecordForward implements MetricsCollector.
func (b *BasicMetricsCollector) RecordForward(_ Policy, batchSize int, duration time.Duration, err error) {
	b.ForwardCount.Add(1)
	b.ForwardTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.ForwardErrors.Add(1)
		return
	}
	b.ForwardItems.Add(int64(batchSize))
}

// RecordRestart implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRestart(epoch int) {
	b.Restarts.Add(1)
	b.Epoch.Store(int64(epoch))
}

// RecordCompanionRead implements MetricsCollector.
func (b *BasicMetricsCollector) RecordCompanionRead(duration time.Duration, err error) {
	b.CompanionReads.Add(1)
	b.CompanionTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.CompanionErrors.Add(1)
	}
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SetupCount:        b.SetupCount.Load(),
		SetupErrors:       b.SetupErrors.Load(),
		Records:           b.Records.Load(),
		Labels:            b.Labels.Load(),
		ForwardCount:      b.ForwardCount.Load(),
		ForwardErrors:     b.ForwardErrors.Load(),
		ForwardItems:      b.ForwardItems.Load(),
		ForwardAvgNanos:   avg(b.ForwardTotalNanos.Load(), b.ForwardCount.Load()),
		Restarts:          b.Restarts.Load(),
		Epoch:             b.Epoch.Load(),
		CompanionReads:    b.CompanionReads.Load(),
		CompanionErrors:   b.CompanionErrors.Load(),
		CompanionAvgNanos: avg(b.CompanionTotalNanos.Load(), b.CompanionReads.Load()),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SetupCount        int64
	SetupErrors       int64
	Records           int64
	Labels            int64
	ForwardCount      int64
	ForwardErrors     int64
	ForwardItems      int64
	ForwardAvgNanos   int64
	Restarts          int64
	Epoch             int64
	CompanionReads    int64
	CompanionErrors   int64
	CompanionAvgNanos int64
}

// Package prometheus exports sampler metrics to Prometheus.
//
//	reg := prometheus.NewRegistry()
//	c, err := labelprom.NewCollector(reg)
//	s, err := labelsampler.New(ctx, params, labelsampler.WithMetricsCollector(c))
package prometheus

import (
	"time"

	"github.com/hupe1980/labelsampler"
	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "labelsampler"

// Collector implements labelsampler.MetricsCollector with Prometheus
// counters, gauges and histograms.
type Collector struct {
	opLatency      *prom.HistogramVec
	records        prom.Gauge
	labels         prom.Gauge
	batchItems     *prom.CounterVec
	restarts       prom.Counter
	epoch          prom.Gauge
	companionReads *prom.CounterVec
}

var _ labelsampler.MetricsCollector = (*Collector)(nil)

// NewCollector creates a collector and registers its metrics with reg.
// A nil reg registers with the default registry.
func NewCollector(reg prom.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prom.DefaultRegisterer
	}

	c := &Collector{
		opLatency: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_latency_seconds",
			Help:      "Latency of sampler operations",
			Buckets:   prom.DefBuckets,
		}, []string{"op", "status"}),
		records: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "records",
			Help:      "Number of records in the indexed store",
		}),
		labels: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "labels",
			Help:      "Number of label buckets, including empty ones",
		}),
		batchItems: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "batch_items_total",
			Help:      "Total batch items assembled",
		}, []string{"policy"}),
		restarts: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "restarts_total",
			Help:      "Total wraparounds of the sequential walk",
		}),
		epoch: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "epoch",
			Help:      "Current pass over the store",
		}),
		companionReads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "companion_reads_total",
			Help:      "Total random-access companion reads",
		}, []string{"status"}),
	}

	for _, m := range []prom.Collector{
		c.opLatency, c.records, c.labels, c.batchItems, c.restarts, c.epoch, c.companionReads,
	} {
		if err := reg.Register(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordSetup implements labelsampler.MetricsCollector.
func (c *Collector) RecordSetup(records, labels int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("setup", status(err)).Observe(d.Seconds())
	if err != nil {
		return
	}
	c.records.Set(float64(records))
	c.labels.Set(float64(labels))
}

// RecordForward implements labelsampler.MetricsCollector.
func (c *Collector) RecordForward(policy labelsampler.Policy, batchSize int, d time.Duration, err error) {
	c.opLatency.WithLabelValues("forward", status(err)).Observe(d.Seconds())
	if err == nil {
		c.batchItems.WithLabelValues(policy.String()).Add(float64(batchSize))
	}
}

// RecordRestart implements labelsampler.MetricsCollector.
func (c *Collector) RecordRestart(epoch int) {
	c.restarts.Inc()
	c.epoch.Set(float64(epoch))
}

// RecordCompanionRead implements labelsampler.MetricsCollector.
func (c *Collector) RecordCompanionRead(d time.Duration, err error) {
	c.opLatency.WithLabelValues("companion_read", status(err)).Observe(d.Seconds())
	c.companionReads.WithLabelValues(status(err)).Inc()
}

// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package batch

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics of batch runs. A nil *Metrics records nothing.
type Metrics struct {
	OperationsTotal *prometheus.CounterVec
	RemoteCalls     *prometheus.CounterVec
	PassesTotal     prometheus.Counter
	RunDuration     prometheus.Histogram
	InterBatchPause prometheus.Gauge
}

// NewMetrics creates the batch metrics and registers them on registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	factory := promauto.With(registerer)

	return &Metrics{
		OperationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_labels_batch_operations_total",
				Help: "Total number of batch operations by final status",
			},
			[]string{"status"},
		),
		RemoteCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "drive_labels_batch_remote_calls_total",
				Help: "Total number of remote calls issued by batch runs",
			},
			[]string{"call", "result"},
		),
		PassesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "drive_labels_batch_passes_total",
				Help: "Total number of passes, first attempts and retries",
			},
		),
		RunDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "drive_labels_batch_run_duration_seconds",
				Help:    "Duration of batch runs in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 300, 900},
			},
		),
		InterBatchPause: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "drive_labels_batch_inter_batch_pause_seconds",
				Help: "Current pause between batches, grown by rate limited calls",
			},
		),
	}
}

func (m *Metrics) observeCall(call string, err error) {
	if m == nil {
		return
	}
	m.RemoteCalls.WithLabelValues(call, errorKind(err)).Inc()
}

func (m *Metrics) observePass() {
	if m == nil {
		return
	}
	m.PassesTotal.Inc()
}

func (m *Metrics) observePause(d time.Duration) {
	if m == nil {
		return
	}
	m.InterBatchPause.Set(d.Seconds())
}

func (m *Metrics) observeResult(result *BatchResult) {
	if m == nil {
		return
	}

	m.OperationsTotal.WithLabelValues(string(StatusSucceeded)).Add(float64(result.Successful))
	m.OperationsTotal.WithLabelValues(string(StatusFailed)).Add(float64(result.Failed))
	m.OperationsTotal.WithLabelValues(string(StatusSkipped)).Add(float64(result.Skipped))
	m.OperationsTotal.WithLabelValues(string(StatusInvalid)).Add(float64(result.Invalid))
	m.RunDuration.Observe(result.Duration.Seconds())
}

package server

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/derickschaefer/fauna/internal/layout"
	"github.com/derickschaefer/fauna/internal/view"
)

// Metrics are the chart pipeline counters exported on /metrics.
type Metrics struct {
	Renders     prometheus.Counter
	Loads       *prometheus.CounterVec
	RowsSkipped prometheus.Counter
	Records     prometheus.Gauge
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Renders: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fauna_renders_total",
			Help: "Charts drawn onto the surface.",
		}),
		Loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fauna_loads_total",
			Help: "Completed dataset loads by result.",
		}, []string{"result"}),
		RowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fauna_rows_skipped_total",
			Help: "Malformed rows rejected while loading.",
		}),
		Records: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "fauna_dataset_records",
			Help: "Records in the current dataset.",
		}),
	}
	reg.MustRegister(m.Renders, m.Loads, m.RowsSkipped, m.Records)
	return m
}

// ObserveLoad records a completed load. It fits view.WithLoadHook.
func (m *Metrics) ObserveLoad(ev view.LoadEvent) {
	if ev.Err != nil {
		m.Loads.WithLabelValues("error").Inc()
		return
	}
	m.Loads.WithLabelValues("ok").Inc()
	m.RowsSkipped.Add(float64(ev.Skipped))
	m.Records.Set(float64(ev.Records))
}

// ObserveRender records a drawn chart. It fits view.WithRenderHook.
func (m *Metrics) ObserveRender(layout.Scene) {
	m.Renders.Inc()
}

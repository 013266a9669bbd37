package core

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts fulfillment activity for operational dashboards.
type Metrics struct {
	productsReceived    prometheus.Counter
	boxesCommitted      prometheus.Counter
	boxesClosed         prometheus.Counter
	shipmentsRecorded   prometheus.Counter
	deliveriesConfirmed prometheus.Counter
	ruleViolations      prometheus.Counter
	notifyFailures      prometheus.Counter
}

// NewMetrics registers the fulfillment counters with reg. A nil registerer
// falls back to the default prometheus registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		productsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "products_received_total",
			Help: "Products registered at receipt.",
		}),
		boxesCommitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "boxes_committed_total",
			Help: "Boxes created by assembly commits.",
		}),
		boxesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "boxes_closed_total",
			Help: "Boxes moved to the ready status.",
		}),
		shipmentsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "shipments_recorded_total",
			Help: "Boxes moved to the shipped status.",
		}),
		deliveriesConfirmed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "deliveries_confirmed_total",
			Help: "Boxes moved to the delivered status.",
		}),
		ruleViolations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "rule_violations_total",
			Help: "Transactions blocked by fulfillment rules.",
		}),
		notifyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "boxship", Name: "notify_failures_total",
			Help: "Outbound notification attempts that failed.",
		}),
	}
	reg.MustRegister(
		m.productsReceived,
		m.boxesCommitted,
		m.boxesClosed,
		m.shipmentsRecorded,
		m.deliveriesConfirmed,
		m.ruleViolations,
		m.notifyFailures,
	)
	return m
}

func (m *Metrics) incProductsReceived() {
	if m != nil {
		m.productsReceived.Inc()
	}
}

func (m *Metrics) incBoxesCommitted() {
	if m != nil {
		m.boxesCommitted.Inc()
	}
}

func (m *Metrics) incBoxesClosed() {
	if m != nil {
		m.boxesClosed.Inc()
	}
}

func (m *Metrics) incShipmentsRecorded() {
	if m != nil {
		m.shipmentsRecorded.Inc()
	}
}

func (m *Metrics) incDeliveriesConfirmed() {
	if m != nil {
		m.deliveriesConfirmed.Inc()
	}
}

func (m *Metrics) incRuleViolations() {
	if m != nil {
		m.ruleViolations.Inc()
	}
}

func (m *Metrics) incNotifyFailures() {
	if m != nil {
		m.notifyFailures.Inc()
	}
}

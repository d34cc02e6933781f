package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	DonationsTotal        prometheus.Counter
	RequestsApprovedTotal prometheus.Counter
	RequestsRejected      *prometheus.CounterVec
	StockUnits            *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics.
func New() *Metrics {
	return &Metrics{
		DonationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_donations_total",
			Help: "Total number of donations recorded",
		}),
		RequestsApprovedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bloodbank_requests_approved_total",
			Help: "Total number of blood requests approved",
		}),
		RequestsRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "bloodbank_requests_rejected_total",
			Help: "Total number of blood requests rejected, by reason",
		}, []string{"reason"}),
		StockUnits: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bloodbank_stock_units",
			Help: "Current inventory units per blood group",
		}, []string{"blood_group"}),
	}
}

// IncRequestRejected increments the rejection counter for a reason label.
func (m *Metrics) IncRequestRejected(reason string) {
	m.RequestsRejected.WithLabelValues(reason).Inc()
}

// SetStockUnits records the current balance for a blood group.
func (m *Metrics) SetStockUnits(group string, units int) {
	m.StockUnits.WithLabelValues(group).Set(float64(units))
}

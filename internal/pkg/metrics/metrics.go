package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles the prometheus collectors used across the subsystem.
// Collectors are created and registered once here and injected into the
// services; nothing instantiates metrics inside request paths.
type Metrics struct {
	OrdersPlaced      *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	WalletOps         *prometheus.CounterVec
	OpDuration        *prometheus.HistogramVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	FanoutDelivered   prometheus.Counter
	FanoutLagDrops    prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersPlaced: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_placed_total",
				Help: "Order placement attempts by outcome.",
			},
			[]string{"outcome"},
		),
		StatusTransitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "order_status_transitions_total",
				Help: "Order status transition attempts by target status and outcome.",
			},
			[]string{"target", "outcome"},
		),
		WalletOps: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_operations_total",
				Help: "Wallet ledger operations by kind and outcome.",
			},
			[]string{"op", "outcome"},
		),
		OpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "operation_duration_seconds",
				Help:    "Duration of subsystem operations in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "HTTP requests by method, route and status.",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		FanoutDelivered: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fanout_events_delivered_total",
				Help: "Change events delivered to subscribers.",
			},
		),
		FanoutLagDrops: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "fanout_subscribers_dropped_total",
				Help: "Subscribers dropped for falling behind.",
			},
		),
	}

	reg.MustRegister(
		m.OrdersPlaced,
		m.StatusTransitions,
		m.WalletOps,
		m.OpDuration,
		m.HTTPRequests,
		m.HTTPDuration,
		m.FanoutDelivered,
		m.FanoutLagDrops,
	)
	return m
}

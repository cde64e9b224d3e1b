package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrdersCreated counts orders accepted at intake, by side.
var OrdersCreated = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spotmatch_orders_created_total",
		Help: "Total number of orders accepted at intake",
	},
	[]string{"side"},
)

// OrdersCancelled counts cancelled orders.
var OrdersCancelled = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "spotmatch_orders_cancelled_total",
		Help: "Total number of orders cancelled",
	},
)

// TradesExecuted counts successful matches, by symbol.
var TradesExecuted = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "spotmatch_trades_executed_total",
		Help: "Total number of trades executed by the matching engine",
	},
	[]string{"symbol"},
)

// MatchLatency records latency distribution for match attempts.
var MatchLatency = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "spotmatch_match_latency_seconds",
		Help:    "Latency in seconds of individual match attempts",
		Buckets: prometheus.DefBuckets,
	},
)

// Database connection pool metrics
var (
	DBOpenConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmatch_db_open_connections",
			Help: "Number of open connections in the DB pool",
		},
	)

	DBIdleConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmatch_db_idle_connections",
			Help: "Number of idle connections in the DB pool",
		},
	)

	DBInUseConns = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "spotmatch_db_in_use_connections",
			Help: "Number of in-use connections in the DB pool",
		},
	)
)

func init() {
	prometheus.MustRegister(OrdersCreated, OrdersCancelled, TradesExecuted, MatchLatency)
	prometheus.MustRegister(DBOpenConns, DBIdleConns, DBInUseConns)
}

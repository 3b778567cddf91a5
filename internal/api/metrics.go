package api

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics are the engine-level Prometheus counters.
type Metrics struct {
	registry *prometheus.Registry

	SessionsStarted prometheus.Counter
	Ticks           prometheus.Counter
	TradesClosed    prometheus.Counter
	Backtests       prometheus.Counter
}

// NewMetrics builds counters on a private registry so tests can run several
// servers in one process without duplicate registration panics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "simtrader_sessions_started_total",
			Help: "Trading sessions started.",
		}),
		Ticks: factory.NewCounter(prometheus.CounterOpts{
			Name: "simtrader_ticks_total",
			Help: "State machine advances served via status polling.",
		}),
		TradesClosed: factory.NewCounter(prometheus.CounterOpts{
			Name: "simtrader_trades_closed_total",
			Help: "Positions closed across all sessions.",
		}),
		Backtests: factory.NewCounter(prometheus.CounterOpts{
			Name: "simtrader_backtests_total",
			Help: "Backtest runs executed.",
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
	return gin.WrapH(h)
}

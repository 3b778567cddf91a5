// Package api exposes the engine over HTTP: session control, market data,
// backtesting, a websocket event stream and Prometheus metrics.
package api

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"simtrader/internal/application/engine/algo"
	"simtrader/internal/application/engine/backtest"
	"simtrader/internal/events"
	"simtrader/internal/market"
	"simtrader/internal/ports"
)

// Server wires HTTP endpoints around a single trading session. The session
// has one mutation path and no internal locking, so every handler touching it
// holds mu.
type Server struct {
	Router *gin.Engine

	mu         sync.Mutex
	session    *algo.Session
	engine     *backtest.Engine
	feed       *market.Feed
	gen        *market.Generator
	strategies ports.StrategyStore
	recorder   ports.TradeRecorder
	bus        *events.Bus
	metrics    *Metrics
}

// Deps are the collaborators a server needs. Strategies, Recorder, Bus and
// Metrics may be nil; the matching endpoints degrade gracefully.
type Deps struct {
	Session    *algo.Session
	Engine     *backtest.Engine
	Feed       *market.Feed
	Generator  *market.Generator
	Strategies ports.StrategyStore
	Recorder   ports.TradeRecorder
	Bus        *events.Bus
	Metrics    *Metrics
}

func NewServer(d Deps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		Router:     r,
		session:    d.Session,
		engine:     d.Engine,
		feed:       d.Feed,
		gen:        d.Generator,
		strategies: d.Strategies,
		recorder:   d.Recorder,
		bus:        d.Bus,
		metrics:    d.Metrics,
	}
	s.routes()

	if s.bus != nil && s.metrics != nil {
		ch, _ := s.bus.Subscribe(events.EventTradeClosed, 100)
		go func() {
			for range ch {
				s.metrics.TradesClosed.Inc()
			}
		}()
	}
	return s
}

func (s *Server) routes() {
	s.Router.GET("/ws", s.websocket)
	if s.metrics != nil {
		s.Router.GET("/metrics", s.metrics.Handler())
	}

	api := s.Router.Group("/api")
	{
		api.GET("/health", s.health)

		algoGroup := api.Group("/algo")
		{
			algoGroup.POST("/start", s.startAlgo)
			algoGroup.POST("/stop", s.stopAlgo)
			algoGroup.GET("/status", s.algoStatus)
			algoGroup.GET("/trades", s.algoTrades)
			algoGroup.GET("/stats", s.algoStats)
		}

		data := api.Group("/data")
		{
			data.GET("/symbols", s.listSymbols)
			data.GET("/price/:symbol", s.getPrice)
			data.POST("/candles", s.getCandles)
		}

		api.GET("/strategies", s.listStrategies)
		api.GET("/strategies/:id", s.getStrategy)

		api.POST("/backtest/run", s.runBacktest)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Start blocks serving HTTP on addr.
func (s *Server) Start(addr string) error {
	return s.Router.Run(addr)
}

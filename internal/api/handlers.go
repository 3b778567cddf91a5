package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"simtrader/internal/application/engine/algo"
	"simtrader/internal/domain"
	"simtrader/internal/market"
	"simtrader/internal/ports"
)

const (
	defaultCandleCount = 200
	maxCandleCount     = 2000
	maxBacktestBars    = 5000
)

func (s *Server) startAlgo(c *gin.Context) {
	var p algo.Params
	if err := c.ShouldBindJSON(&p); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	msg := s.session.Start(c.Request.Context(), p)
	status := s.session.Snapshot()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.SessionsStarted.Inc()
	}
	c.JSON(http.StatusOK, gin.H{"message": msg, "status": status})
}

func (s *Server) stopAlgo(c *gin.Context) {
	s.mu.Lock()
	msg := s.session.Stop(c.Request.Context())
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"message": msg})
}

// algoStatus drives the simulation: each poll advances the state machine at
// most one throttled step, then returns the fresh snapshot.
func (s *Server) algoStatus(c *gin.Context) {
	s.mu.Lock()
	s.session.Advance(c.Request.Context())
	status := s.session.Snapshot()
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Ticks.Inc()
	}
	c.JSON(http.StatusOK, status)
}

func (s *Server) algoTrades(c *gin.Context) {
	s.mu.Lock()
	trades := s.session.Trades()
	stats := s.session.Stats()
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"trades": trades, "stats": stats})
}

func (s *Server) algoStats(c *gin.Context) {
	s.mu.Lock()
	stats := s.session.Stats()
	s.mu.Unlock()

	c.JSON(http.StatusOK, stats)
}

func (s *Server) listSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": market.Symbols()})
}

func (s *Server) getPrice(c *gin.Context) {
	symbol := c.Param("symbol")

	s.mu.Lock()
	bid, ask := s.feed.Price(symbol)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "bid": bid, "ask": ask})
}

type candlesRequest struct {
	Symbol    string           `json:"symbol"`
	Timeframe domain.Timeframe `json:"timeframe"`
	Count     int              `json:"count"`
}

func (s *Server) getCandles(c *gin.Context) {
	var req candlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Symbol == "" {
		req.Symbol = "EURUSDm"
	}
	if !req.Timeframe.Valid() {
		req.Timeframe = domain.TimeframeH1
	}
	if req.Count <= 0 {
		req.Count = defaultCandleCount
	}
	if req.Count > maxCandleCount {
		req.Count = maxCandleCount
	}

	s.mu.Lock()
	candles := s.gen.Generate(req.Symbol, req.Timeframe, req.Count)
	s.mu.Unlock()

	c.JSON(http.StatusOK, gin.H{
		"symbol":    req.Symbol,
		"timeframe": req.Timeframe,
		"candles":   candles,
	})
}

func (s *Server) listStrategies(c *gin.Context) {
	if s.strategies == nil {
		c.JSON(http.StatusOK, gin.H{"strategies": []domain.Strategy{domain.DefaultStrategy()}})
		return
	}
	list, err := s.strategies.ListStrategies(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"strategies": list})
}

func (s *Server) getStrategy(c *gin.Context) {
	if s.strategies == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no strategy store configured"})
		return
	}
	st, err := s.strategies.GetStrategy(c.Request.Context(), c.Param("id"))
	if err == ports.ErrStrategyNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "strategy not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, st)
}

type backtestRequest struct {
	InitialBalance float64          `json:"initial_balance"`
	RiskPercent    float64          `json:"risk_percent"`
	Symbol         string           `json:"symbol"`
	Timeframe      domain.Timeframe `json:"timeframe"`
	Bars           int              `json:"bars"`
	StrategyID     string           `json:"strategy_id"`
}

// runBacktest executes a synthetic run, or a full strategy replay when the
// request names a stored strategy. Results are persisted best-effort.
func (s *Server) runBacktest(c *gin.Context) {
	var req backtestRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Bars > maxBacktestBars {
		req.Bars = maxBacktestBars
	}

	var strat domain.Strategy
	replay := false
	if req.StrategyID != "" && s.strategies != nil {
		st, err := s.strategies.GetStrategy(c.Request.Context(), req.StrategyID)
		if err == nil && len(st.Rules) > 0 {
			strat, replay = st, true
		} else if err != nil && err != ports.ErrStrategyNotFound {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	var result domain.BacktestResult
	s.mu.Lock()
	if replay {
		symbol := req.Symbol
		if symbol == "" {
			symbol = strat.Symbol
		}
		tf := req.Timeframe
		if !tf.Valid() {
			tf = strat.Rules[0].Timeframe
		}
		bars := req.Bars
		if bars < 100 {
			bars = 500
		}
		strat.Symbol = symbol
		candles := s.gen.Generate(symbol, tf, bars)
		result = s.engine.RunStrategy(strat, candles, req.InitialBalance, req.RiskPercent)
	} else {
		result = s.engine.Run(req.InitialBalance, req.RiskPercent, req.Symbol, req.Timeframe, req.Bars)
	}
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.Backtests.Inc()
	}
	if s.recorder != nil {
		if err := s.recorder.SaveBacktest(c.Request.Context(), result); err != nil {
			slog.Warn("api: error persisting backtest", "id", result.ID, "err", err)
		}
	}
	c.JSON(http.StatusOK, result)
}

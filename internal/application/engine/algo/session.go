package algo

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/time/rate"

	"simtrader/internal/domain"
	"simtrader/internal/events"
	"simtrader/internal/market"
	"simtrader/internal/ports"
)

// Phase is the session's lifecycle stage.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseChecking   Phase = "checking"
	PhaseInPosition Phase = "in_position"
)

const (
	defaultSymbol     = "EURUSDm"
	defaultVolume     = 0.01
	defaultInterval   = 800 * time.Millisecond
	defaultSignalCap  = 50
	defaultCommission = 0.07
	defaultSLMult     = 1.5
	defaultTPMult     = 2.5
	seedHistoryBars   = 120
	historyCap        = 240

	entryDelayMin = 8
	entryDelayMax = 20
	holdTicksMin  = 15
	holdTicksMax  = 40
)

// Config wires a session's collaborators. Feed, Generator, Rng are required;
// the rest default sensibly.
type Config struct {
	Feed       *market.Feed
	Generator  *market.Generator
	Strategies ports.StrategyStore // nil → always the default strategy
	Recorder   ports.TradeRecorder // nil → trades kept in memory only
	Bus        *events.Bus         // nil → no event publishing
	Rng        *rand.Rand
	Interval   time.Duration // advance throttle; 0 disables (tests)
	SignalCap  int
	Commission float64
	PnL        PnLFunc
	Policy     RulePolicy
}

// Params are the caller-supplied session parameters. Zero values default.
type Params struct {
	Symbol     string           `json:"symbol"`
	Timeframe  domain.Timeframe `json:"timeframe"`
	Volume     float64          `json:"volume"`
	StrategyID string           `json:"strategy_id"`
}

// Session is the live algo execution state machine. It advances one
// simulated tick at a time, throttled so that polling faster than the tick
// interval cannot corrupt time-based logic. Single mutation path, no internal
// locking; callers serialize access.
type Session struct {
	cfg     Config
	limiter *rate.Limiter
	rng     *rand.Rand

	running   bool
	phase     Phase
	symbol    string
	timeframe domain.Timeframe
	volume    float64
	strategy  domain.Strategy
	ruleIdx   int
	rule      domain.Rule
	direction domain.Direction

	entryConds []domain.Condition
	exitConds  []domain.Condition

	tickCount  int
	checkStart int // tick the current entry scan began at
	entryAt    int
	entryTick  int
	exitAt     int

	entryPrice float64
	stopLoss   float64
	takeProfit float64
	atrAtEntry float64
	slMult     float64
	tpMult     float64
	ticket     int
	barsHeld   int
	entryTime  time.Time
	entrySnap  map[string]float64
	unrealized float64

	closes []float64
	highs  []float64
	lows   []float64

	signals    []domain.Signal
	trades     []domain.Trade
	tradeCount int
}

// NewSession builds a stopped session. Start must be called before it does
// anything.
func NewSession(cfg Config) *Session {
	if cfg.SignalCap <= 0 {
		cfg.SignalCap = defaultSignalCap
	}
	if cfg.Commission == 0 {
		cfg.Commission = defaultCommission
	}
	if cfg.PnL == nil {
		cfg.PnL = FixedPipValue
	}
	if cfg.Policy == nil {
		cfg.Policy = FirstRule{}
	}
	if cfg.Rng == nil {
		cfg.Rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	s := &Session{cfg: cfg, rng: cfg.Rng, phase: PhaseIdle}
	if cfg.Interval > 0 {
		s.limiter = rate.NewLimiter(rate.Every(cfg.Interval), 1)
	}
	return s
}

// Start begins (or replaces) a live session with the given parameters and
// returns a human-readable confirmation. It cannot fail: missing fields are
// defaulted and an unknown strategy id falls back to the default strategy.
func (s *Session) Start(ctx context.Context, p Params) string {
	if p.Symbol == "" {
		p.Symbol = defaultSymbol
	}
	if !p.Timeframe.Valid() {
		p.Timeframe = domain.TimeframeM1
	}
	if p.Volume <= 0 {
		p.Volume = defaultVolume
	}

	s.symbol = p.Symbol
	s.timeframe = p.Timeframe
	s.volume = p.Volume
	s.strategy = s.resolveStrategy(ctx, p.StrategyID)
	s.ruleIdx = s.cfg.Policy.Select(s.strategy, -1)
	s.rule = s.strategy.Rules[s.ruleIdx]
	s.direction = s.rule.Direction
	if s.direction == "" {
		s.direction = domain.DirectionBuy
	}
	s.entryConds = domain.CloneConditions(s.rule.EntryConditions)
	s.exitConds = domain.CloneConditions(s.rule.ExitConditions)

	s.seedHistory()

	s.running = true
	s.phase = PhaseChecking
	s.tickCount = 0
	s.checkStart = 0
	s.entryAt = s.randRange(entryDelayMin, entryDelayMax)
	s.signals = nil
	s.trades = nil
	s.tradeCount = 0
	s.unrealized = 0

	msg := fmt.Sprintf("algo started: %s %s vol=%.2f strategy=%q rule=%q",
		s.symbol, s.timeframe, s.volume, s.strategy.Name, s.rule.Name)
	s.appendSignal(domain.SignalStarted, msg)
	slog.Info("algo: session started",
		"symbol", s.symbol, "timeframe", s.timeframe,
		"volume", s.volume, "strategy", s.strategy.Name)
	return msg
}

// Stop ends the session. An open position is force-closed at the current
// market price with reason algo_stopped. Stopping a stopped session is a
// no-op success.
func (s *Session) Stop(ctx context.Context) string {
	if !s.running {
		return "algo not running"
	}
	if s.phase == PhaseInPosition {
		bid, _ := s.cfg.Feed.Price(s.symbol)
		s.closePosition(ctx, bid, domain.ExitAlgoStopped)
	}
	s.running = false
	s.phase = PhaseIdle
	s.appendSignal(domain.SignalStopped, "algo stopped")
	slog.Info("algo: session stopped", "symbol", s.symbol, "trades", s.tradeCount)
	return "algo stopped"
}

// Trades returns the closed trade records of the current session.
func (s *Session) Trades() []domain.Trade {
	out := make([]domain.Trade, len(s.trades))
	copy(out, s.trades)
	return out
}

// Stats aggregates the session's closed trades.
func (s *Session) Stats() domain.TradeStats {
	return domain.ComputeTradeStats(s.trades)
}

// resolveStrategy looks the id up in the store, falling back to the default
// strategy on any miss. Availability beats strictness here.
func (s *Session) resolveStrategy(ctx context.Context, id string) domain.Strategy {
	if s.cfg.Strategies != nil && id != "" {
		st, err := s.cfg.Strategies.GetStrategy(ctx, id)
		if err == nil && len(st.Rules) > 0 {
			return st
		}
		if err != nil && err != ports.ErrStrategyNotFound {
			slog.Warn("algo: strategy lookup failed, using default", "id", id, "err", err)
		}
	}
	return domain.DefaultStrategy()
}

// seedHistory generates recent candles so live indicators have a warm
// window, and leaves the feed positioned at the final close.
func (s *Session) seedHistory() {
	s.closes = s.closes[:0]
	s.highs = s.highs[:0]
	s.lows = s.lows[:0]
	for _, c := range s.cfg.Generator.Generate(s.symbol, s.timeframe, seedHistoryBars) {
		s.closes = append(s.closes, c.Close)
		s.highs = append(s.highs, c.High)
		s.lows = append(s.lows, c.Low)
	}
}

func (s *Session) pushPrice(bid float64) {
	s.closes = append(s.closes, bid)
	s.highs = append(s.highs, bid)
	s.lows = append(s.lows, bid)
	if len(s.closes) > historyCap {
		s.closes = s.closes[len(s.closes)-historyCap:]
		s.highs = s.highs[len(s.highs)-historyCap:]
		s.lows = s.lows[len(s.lows)-historyCap:]
	}
}

func (s *Session) appendSignal(kind domain.SignalKind, msg string) {
	s.signals = append(s.signals, domain.Signal{
		Time:    time.Now().UTC(),
		Kind:    kind,
		Message: msg,
	})
	if len(s.signals) > s.cfg.SignalCap {
		s.signals = s.signals[len(s.signals)-s.cfg.SignalCap:]
	}
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(events.EventSignal, s.signals[len(s.signals)-1])
	}
}

// randRange returns a uniform int in [lo, hi].
func (s *Session) randRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.rng.Intn(hi-lo+1)
}

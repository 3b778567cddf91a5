package algo_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"simtrader/internal/application/engine/algo"
	"simtrader/internal/domain"
	"simtrader/internal/market"
)

// newSession builds a deterministic session with the advance throttle
// disabled so tests can step as fast as they like.
func newSession(seed int64) *algo.Session {
	rng := rand.New(rand.NewSource(seed))
	feed := market.NewFeed(rng)
	return algo.NewSession(algo.Config{
		Feed:      feed,
		Generator: market.NewGenerator(feed, rng),
		Rng:       rng,
		Interval:  0,
	})
}

func advance(s *algo.Session, n int) {
	ctx := context.Background()
	for i := 0; i < n; i++ {
		s.Advance(ctx)
	}
}

// advanceUntilOpen steps the session until a position is open, so tests do
// not race the randomized entry tick or an early stop-out.
func advanceUntilOpen(t *testing.T, s *algo.Session) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < 50; i++ {
		s.Advance(ctx)
		if s.Snapshot().Phase == algo.PhaseInPosition {
			return
		}
	}
	t.Fatal("session never opened a position")
}

func TestSession_IdleSnapshot(t *testing.T) {
	s := newSession(1)
	st := s.Snapshot()

	assert.False(t, st.Running)
	assert.False(t, st.InPosition)
	assert.Equal(t, algo.PhaseIdle, st.Phase)
	assert.Zero(t, st.TickCount)
	assert.Nil(t, st.TradeState)
}

func TestSession_StartDefaults(t *testing.T) {
	s := newSession(2)
	msg := s.Start(context.Background(), algo.Params{})

	assert.Contains(t, msg, "algo started")

	st := s.Snapshot()
	assert.True(t, st.Running)
	assert.Equal(t, algo.PhaseChecking, st.Phase)
	assert.Equal(t, "EURUSDm", st.Symbol)
	assert.Equal(t, domain.TimeframeM1, st.Timeframe)
	assert.InDelta(t, 0.01, st.Volume, 1e-9)
	assert.Equal(t, "EMA Cross + MACD Momentum", st.Strategy)
	assert.NotEmpty(t, st.EntryConditions)
	assert.NotEmpty(t, st.Indicators)
	require.NotEmpty(t, st.Signals)
	assert.Equal(t, domain.SignalStarted, st.Signals[0].Kind)
}

func TestSession_UnknownStrategyFallsBack(t *testing.T) {
	s := newSession(3)
	s.Start(context.Background(), algo.Params{StrategyID: "does-not-exist"})

	assert.Equal(t, "EMA Cross + MACD Momentum", s.Snapshot().Strategy)
}

func TestSession_OpensPositionAfterEntryDelay(t *testing.T) {
	s := newSession(4)
	s.Start(context.Background(), algo.Params{})

	advanceUntilOpen(t, s)

	st := s.Snapshot()
	require.Equal(t, algo.PhaseInPosition, st.Phase)
	require.NotNil(t, st.TradeState)
	assert.True(t, st.InPosition)

	for _, cond := range st.EntryConditions {
		assert.True(t, cond.Passed, "condition %q", cond.Description)
	}

	ts := st.TradeState
	assert.GreaterOrEqual(t, ts.Ticket, 100000)
	assert.Less(t, ts.Ticket, 1000000)
	assert.Greater(t, ts.ATRAtEntry, 0.0)

	switch ts.Direction {
	case domain.DirectionBuy:
		assert.Less(t, ts.StopLoss, ts.EntryPrice)
		assert.Greater(t, ts.TakeProfit, ts.EntryPrice)
	case domain.DirectionSell:
		assert.Greater(t, ts.StopLoss, ts.EntryPrice)
		assert.Less(t, ts.TakeProfit, ts.EntryPrice)
	}
}

func TestSession_EntryConditionsMatureInOrder(t *testing.T) {
	s := newSession(5)
	s.Start(context.Background(), algo.Params{})

	advance(s, 2)
	st := s.Snapshot()
	require.Equal(t, algo.PhaseChecking, st.Phase)

	// progress passes conditions front to back, never back to front
	seenFailed := false
	for _, cond := range st.EntryConditions {
		if !cond.Passed {
			seenFailed = true
		} else {
			assert.False(t, seenFailed, "passed condition after a failed one")
		}
	}
}

func TestSession_TradeClosesAndRecords(t *testing.T) {
	s := newSession(6)
	s.Start(context.Background(), algo.Params{})

	// worst case: entry at tick 20, hold up to 40 more
	advance(s, 80)

	trades := s.Trades()
	require.NotEmpty(t, trades)

	trade := trades[0]
	assert.NotEmpty(t, trade.ID)
	assert.Equal(t, "EURUSDm", trade.Symbol)
	assert.Contains(t, []domain.ExitReason{
		domain.ExitStrategy, domain.ExitStopLoss, domain.ExitTakeProfit,
	}, trade.ExitReason)
	assert.Greater(t, trade.BarsHeld, 0)
	assert.InDelta(t, 0.07, trade.Commission, 1e-9)
	assert.InDelta(t, trade.GrossProfit-trade.Commission, trade.NetProfit, 0.011)
	assert.NotEmpty(t, trade.EntryConditions)
	assert.NotEmpty(t, trade.IndicatorsAtEntry)
	assert.NotEmpty(t, trade.IndicatorsAtExit)
}

func TestSession_StopLossBeatsStrategyExit(t *testing.T) {
	rng := rand.New(rand.NewSource(16))
	feed := market.NewFeed(rng)
	s := algo.NewSession(algo.Config{
		Feed:      feed,
		Generator: market.NewGenerator(feed, rng),
		Rng:       rng,
		Interval:  0,
	})
	s.Start(context.Background(), algo.Params{})
	advanceUntilOpen(t, s)

	ts := s.Snapshot().TradeState
	require.NotNil(t, ts)

	// pin the price well past the stop; the next step must close on it
	pip := market.MetaFor("EURUSDm").PipSize
	if ts.Direction == domain.DirectionBuy {
		feed.SetPrice("EURUSDm", ts.StopLoss-20*pip)
	} else {
		feed.SetPrice("EURUSDm", ts.StopLoss+20*pip)
	}
	s.Advance(context.Background())

	trades := s.Trades()
	require.NotEmpty(t, trades)
	assert.Equal(t, domain.ExitStopLoss, trades[len(trades)-1].ExitReason)
}

func TestSession_ContinuesScanningAfterClose(t *testing.T) {
	s := newSession(7)
	s.Start(context.Background(), algo.Params{})

	advance(s, 200)

	st := s.Snapshot()
	assert.True(t, st.Running)
	assert.GreaterOrEqual(t, len(s.Trades()), 2)
	assert.Contains(t, []algo.Phase{algo.PhaseChecking, algo.PhaseInPosition}, st.Phase)
}

func TestSession_StopForceClosesPosition(t *testing.T) {
	s := newSession(8)
	s.Start(context.Background(), algo.Params{})
	advanceUntilOpen(t, s)

	msg := s.Stop(context.Background())
	assert.Equal(t, "algo stopped", msg)

	st := s.Snapshot()
	assert.False(t, st.Running)
	assert.Equal(t, algo.PhaseIdle, st.Phase)
	assert.Nil(t, st.TradeState)

	trades := s.Trades()
	require.NotEmpty(t, trades)
	assert.Equal(t, domain.ExitAlgoStopped, trades[len(trades)-1].ExitReason)
}

func TestSession_StopWhenIdle(t *testing.T) {
	s := newSession(9)
	assert.Equal(t, "algo not running", s.Stop(context.Background()))

	s.Start(context.Background(), algo.Params{})
	s.Stop(context.Background())
	assert.Equal(t, "algo not running", s.Stop(context.Background()))
}

func TestSession_ImmediateStopHasNoTrades(t *testing.T) {
	s := newSession(10)
	s.Start(context.Background(), algo.Params{})
	s.Stop(context.Background())

	assert.Empty(t, s.Trades())
	assert.Zero(t, s.Stats().TotalTrades)
}

func TestSession_AdvanceWhenStoppedIsNoop(t *testing.T) {
	s := newSession(11)
	advance(s, 10)
	assert.Zero(t, s.Snapshot().TickCount)
}

func TestSession_SignalCapEnforced(t *testing.T) {
	rng := rand.New(rand.NewSource(12))
	feed := market.NewFeed(rng)
	s := algo.NewSession(algo.Config{
		Feed:      feed,
		Generator: market.NewGenerator(feed, rng),
		Rng:       rng,
		Interval:  0,
		SignalCap: 5,
	})
	s.Start(context.Background(), algo.Params{})
	advance(s, 100)

	assert.LessOrEqual(t, len(s.Snapshot().Signals), 5)
}

func TestSession_ThrottleAbsorbsFastPolling(t *testing.T) {
	rng := rand.New(rand.NewSource(15))
	feed := market.NewFeed(rng)
	s := algo.NewSession(algo.Config{
		Feed:      feed,
		Generator: market.NewGenerator(feed, rng),
		Rng:       rng,
		Interval:  time.Hour,
	})
	s.Start(context.Background(), algo.Params{})

	// the limiter starts with one token; everything after is absorbed
	advance(s, 50)
	assert.Equal(t, 1, s.Snapshot().TickCount)
}

func TestSession_StatsConsistency(t *testing.T) {
	s := newSession(13)
	s.Start(context.Background(), algo.Params{Symbol: "GBPUSDm", Volume: 0.05})
	advance(s, 300)
	s.Stop(context.Background())

	stats := s.Stats()
	trades := s.Trades()
	require.Greater(t, stats.TotalTrades, 0)
	assert.Equal(t, len(trades), stats.TotalTrades)
	assert.Equal(t, stats.TotalTrades, stats.WinningTrades+stats.LosingTrades)

	total := 0.0
	for _, tr := range trades {
		total += tr.NetProfit
	}
	assert.InDelta(t, total, stats.TotalPnL, 0.02)
}

func TestSession_RestartResetsState(t *testing.T) {
	s := newSession(14)
	s.Start(context.Background(), algo.Params{})
	advance(s, 100)
	require.NotEmpty(t, s.Trades())

	s.Start(context.Background(), algo.Params{Symbol: "XAUUSDm"})

	st := s.Snapshot()
	assert.Empty(t, s.Trades())
	assert.Zero(t, st.TickCount)
	assert.Equal(t, "XAUUSDm", st.Symbol)
	assert.Equal(t, algo.PhaseChecking, st.Phase)
}

package algo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"simtrader/internal/domain"
	"simtrader/internal/events"
	"simtrader/internal/indicators"
)

// Advance runs at most one state transition. It is self-throttled: calls
// arriving faster than the configured interval are absorbed without touching
// session state, so callers may poll arbitrarily fast.
func (s *Session) Advance(ctx context.Context) {
	if !s.running {
		return
	}
	if s.limiter != nil && !s.limiter.Allow() {
		return
	}

	bid, ask := s.cfg.Feed.Tick(s.symbol)
	s.pushPrice(bid)
	s.tickCount++
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(events.EventPriceTick, map[string]any{
			"symbol": s.symbol, "bid": bid, "ask": ask,
		})
	}

	switch s.phase {
	case PhaseChecking:
		s.advanceChecking(bid, ask)
	case PhaseInPosition:
		s.advanceInPosition(ctx, bid)
	}
}

// advanceChecking matures entry conditions toward the randomized entry tick
// and opens a position once it is reached. Condition i of n passes once scan
// progress reaches (i+1)/n, simulating conditions completing in sequence.
func (s *Session) advanceChecking(bid, ask float64) {
	span := s.entryAt - s.checkStart
	if span <= 0 {
		span = 1
	}
	progress := float64(s.tickCount-s.checkStart) / float64(span)

	n := len(s.entryConds)
	passed := 0
	for i := range s.entryConds {
		s.entryConds[i].Passed = progress >= float64(i+1)/float64(n)
		if s.entryConds[i].Passed {
			passed++
		}
	}

	if s.tickCount%3 == 0 {
		s.appendSignal(domain.SignalCheck,
			fmt.Sprintf("entry scan: %d/%d conditions met", passed, n))
	}

	if s.tickCount >= s.entryAt {
		s.openPosition(bid, ask)
	}
}

func (s *Session) openPosition(bid, ask float64) {
	entry := ask
	if s.direction == domain.DirectionSell {
		entry = bid
	}

	atr := indicators.TrueATR(s.highs, s.lows, s.closes, indicators.ATRPeriod)
	if atr <= 0 {
		atr = s.cfg.Feed.Meta(s.symbol).ATRProxy()
	}

	s.slMult = s.rule.StopLossATR
	if s.slMult <= 0 {
		s.slMult = defaultSLMult
	}
	s.tpMult = s.rule.TakeProfitATR
	if s.tpMult <= 0 {
		s.tpMult = defaultTPMult
	}

	if s.direction == domain.DirectionBuy {
		s.stopLoss = entry - atr*s.slMult
		s.takeProfit = entry + atr*s.tpMult
	} else {
		s.stopLoss = entry + atr*s.slMult
		s.takeProfit = entry - atr*s.tpMult
	}

	s.entryPrice = entry
	s.atrAtEntry = atr
	s.ticket = 100000 + s.rng.Intn(900000)
	s.entryTick = s.tickCount
	s.exitAt = s.tickCount + s.randRange(holdTicksMin, holdTicksMax)
	s.barsHeld = 0
	s.entryTime = time.Now().UTC()
	s.entrySnap = s.indicatorSnapshot()
	s.unrealized = 0

	for i := range s.entryConds {
		s.entryConds[i].Passed = true
	}
	for i := range s.exitConds {
		s.exitConds[i].Passed = false
	}
	s.phase = PhaseInPosition

	s.appendSignal(domain.SignalOpened,
		fmt.Sprintf("%s %s %.2f lots @ %.5f (ticket #%d, SL %.5f, TP %.5f)",
			s.direction, s.symbol, s.volume, entry, s.ticket, s.stopLoss, s.takeProfit))
	slog.Info("algo: position opened",
		"symbol", s.symbol, "direction", s.direction,
		"entry", entry, "sl", s.stopLoss, "tp", s.takeProfit, "ticket", s.ticket)
}

// advanceInPosition matures exit conditions, tracks unrealized P&L and
// closes the position on the first trigger. Stop-loss and take-profit checks
// run before the timed strategy exit; risk levels always win.
func (s *Session) advanceInPosition(ctx context.Context, bid float64) {
	s.barsHeld++

	span := s.exitAt - s.entryTick
	if span <= 0 {
		span = 1
	}
	progress := float64(s.tickCount-s.entryTick) / float64(span)
	n := len(s.exitConds)
	for i := range s.exitConds {
		// 0.9 gate keeps the final condition from passing until the
		// position is nearly due to exit.
		s.exitConds[i].Passed = progress >= 0.9*float64(i+1)/float64(n)
	}

	s.unrealized = s.cfg.PnL(s.direction, s.entryPrice, bid, s.volume)

	var reason domain.ExitReason
	switch s.direction {
	case domain.DirectionBuy:
		if bid <= s.stopLoss {
			reason = domain.ExitStopLoss
		} else if bid >= s.takeProfit {
			reason = domain.ExitTakeProfit
		}
	case domain.DirectionSell:
		if bid >= s.stopLoss {
			reason = domain.ExitStopLoss
		} else if bid <= s.takeProfit {
			reason = domain.ExitTakeProfit
		}
	}
	if reason == "" && s.tickCount >= s.exitAt {
		reason = domain.ExitStrategy
	}

	if reason != "" {
		s.closePosition(ctx, bid, reason)
		return
	}

	if s.tickCount%2 == 0 {
		s.appendSignal(domain.SignalCheck,
			fmt.Sprintf("holding %s: bars=%d upnl=%.2f", s.symbol, s.barsHeld, s.unrealized))
	}
}

func (s *Session) closePosition(ctx context.Context, price float64, reason domain.ExitReason) {
	for i := range s.exitConds {
		s.exitConds[i].Passed = true
	}

	gross := domain.Round2(s.cfg.PnL(s.direction, s.entryPrice, price, s.volume))
	net := domain.Round2(gross - s.cfg.Commission)

	trade := domain.Trade{
		ID:                uuid.NewString(),
		Ticket:            s.ticket,
		Symbol:            s.symbol,
		Direction:         s.direction,
		Volume:            s.volume,
		EntryPrice:        s.entryPrice,
		ExitPrice:         price,
		EntryTime:         s.entryTime,
		ExitTime:          time.Now().UTC(),
		StopLoss:          s.stopLoss,
		TakeProfit:        s.takeProfit,
		ATRAtEntry:        s.atrAtEntry,
		SLATRMult:         s.slMult,
		TPATRMult:         s.tpMult,
		EntryConditions:   append([]domain.Condition(nil), s.entryConds...),
		IndicatorsAtEntry: s.entrySnap,
		IndicatorsAtExit:  s.indicatorSnapshot(),
		ExitReason:        reason,
		BarsHeld:          s.barsHeld,
		GrossProfit:       gross,
		Commission:        s.cfg.Commission,
		Swap:              0,
		NetProfit:         net,
	}
	s.trades = append(s.trades, trade)
	s.tradeCount++

	s.appendSignal(domain.SignalClosed,
		fmt.Sprintf("closed #%d %s: %s pnl=%.2f after %d bars",
			trade.Ticket, trade.Symbol, reason, net, trade.BarsHeld))
	slog.Info("algo: position closed",
		"ticket", trade.Ticket, "reason", reason, "pnl", net, "bars", trade.BarsHeld)

	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.SaveTrade(ctx, trade); err != nil {
			slog.Warn("algo: error persisting trade", "err", err)
		}
	}
	if s.cfg.Bus != nil {
		s.cfg.Bus.Publish(events.EventTradeClosed, trade)
	}

	// Back to scanning: next rule per policy, fresh conditions, new entry
	// target, occasional direction flip to keep cycles varied.
	s.ruleIdx = s.cfg.Policy.Select(s.strategy, s.ruleIdx)
	s.rule = s.strategy.Rules[s.ruleIdx]
	s.entryConds = domain.CloneConditions(s.rule.EntryConditions)
	s.exitConds = domain.CloneConditions(s.rule.ExitConditions)
	s.phase = PhaseChecking
	s.checkStart = s.tickCount
	s.entryAt = s.tickCount + s.randRange(entryDelayMin, entryDelayMax)
	s.unrealized = 0
	if s.rng.Float64() < 0.4 {
		if s.direction == domain.DirectionBuy {
			s.direction = domain.DirectionSell
		} else {
			s.direction = domain.DirectionBuy
		}
	}
}

func (s *Session) indicatorSnapshot() map[string]float64 {
	return indicators.Snapshot(s.closes, s.highs, s.lows, s.cfg.Feed.Meta(s.symbol).Decimals)
}

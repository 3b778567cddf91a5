package algo

import "simtrader/internal/domain"

// TradeState is the live view of an open position.
type TradeState struct {
	Ticket        int              `json:"ticket"`
	Direction     domain.Direction `json:"direction"`
	EntryPrice    float64          `json:"entry_price"`
	StopLoss      float64          `json:"stop_loss"`
	TakeProfit    float64          `json:"take_profit"`
	BarsHeld      int              `json:"bars_held"`
	ATRAtEntry    float64          `json:"atr_at_entry"`
	SLATRMult     float64          `json:"sl_atr_multiplier"`
	TPATRMult     float64          `json:"tp_atr_multiplier"`
	UnrealizedPnL float64          `json:"unrealized_pnl"`
}

// Status is the read-only session snapshot served to callers.
type Status struct {
	Running    bool             `json:"running"`
	InPosition bool             `json:"in_position"`
	Phase      Phase            `json:"phase"`
	Symbol     string           `json:"symbol,omitempty"`
	Timeframe  domain.Timeframe `json:"timeframe,omitempty"`
	Volume     float64          `json:"volume,omitempty"`
	Strategy   string           `json:"strategy,omitempty"`
	Rule       string           `json:"rule,omitempty"`
	Bid        float64          `json:"bid,omitempty"`
	Ask        float64          `json:"ask,omitempty"`
	TickCount  int              `json:"tick_count"`
	TradeCount int              `json:"trade_count"`

	Indicators      map[string]float64 `json:"indicators,omitempty"`
	EntryConditions []domain.Condition `json:"entry_conditions,omitempty"`
	ExitConditions  []domain.Condition `json:"exit_conditions,omitempty"`
	Signals         []domain.Signal    `json:"signals,omitempty"`
	TradeState      *TradeState        `json:"trade_state,omitempty"`
}

// Snapshot is a pure read: it never advances the session. A stopped session
// yields a well-formed idle snapshot rather than an error.
func (s *Session) Snapshot() Status {
	st := Status{
		Running:    s.running,
		InPosition: s.phase == PhaseInPosition,
		Phase:      s.phase,
		TickCount:  s.tickCount,
		TradeCount: s.tradeCount,
	}
	if s.phase == PhaseIdle && !s.running {
		st.Phase = PhaseIdle
	}
	if s.symbol == "" {
		return st
	}

	bid, ask := s.cfg.Feed.Price(s.symbol)
	st.Symbol = s.symbol
	st.Timeframe = s.timeframe
	st.Volume = s.volume
	st.Strategy = s.strategy.Name
	st.Rule = s.rule.Name
	st.Bid = bid
	st.Ask = ask
	st.Indicators = s.indicatorSnapshot()
	st.EntryConditions = append([]domain.Condition(nil), s.entryConds...)
	st.ExitConditions = append([]domain.Condition(nil), s.exitConds...)
	st.Signals = append([]domain.Signal(nil), s.signals...)

	if s.phase == PhaseInPosition {
		st.TradeState = &TradeState{
			Ticket:        s.ticket,
			Direction:     s.direction,
			EntryPrice:    s.entryPrice,
			StopLoss:      s.stopLoss,
			TakeProfit:    s.takeProfit,
			BarsHeld:      s.barsHeld,
			ATRAtEntry:    s.atrAtEntry,
			SLATRMult:     s.slMult,
			TPATRMult:     s.tpMult,
			UnrealizedPnL: domain.Round2(s.unrealized),
		}
	}
	return st
}

package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// Direction of a rule / position.
type Direction string

const (
	DirectionBuy  Direction = "buy"
	DirectionSell Direction = "sell"
)

// Operator compares an indicator value against a threshold or another indicator.
type Operator string

const (
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpEquals       Operator = "=="
	OpGreaterEq    Operator = ">="
	OpLessEq       Operator = "<="
	OpCrossesAbove Operator = "crosses_above"
	OpCrossesBelow Operator = "crosses_below"
)

// Condition is one boolean test of an indicator value.
// Target is either a numeric threshold (Value) or a reference to another
// indicator (Ref); exactly one is set. Passed is mutable evaluation state
// owned by a live session; on a stored strategy it is always false.
type Condition struct {
	Indicator   string   `json:"indicator"`
	Parameter   string   `json:"parameter"`
	Operator    Operator `json:"operator"`
	Value       float64  `json:"-"`
	Ref         string   `json:"-"`
	Passed      bool     `json:"passed"`
	Description string   `json:"description,omitempty"`
}

// conditionJSON mirrors the wire shape where "value" is number-or-string.
type conditionJSON struct {
	Indicator   string   `json:"indicator"`
	Parameter   string   `json:"parameter"`
	Operator    Operator `json:"operator"`
	Value       any      `json:"value"`
	Passed      bool     `json:"passed"`
	Description string   `json:"description,omitempty"`
}

func (c Condition) MarshalJSON() ([]byte, error) {
	out := conditionJSON{
		Indicator:   c.Indicator,
		Parameter:   c.Parameter,
		Operator:    c.Operator,
		Passed:      c.Passed,
		Description: c.Description,
	}
	if c.Ref != "" {
		out.Value = c.Ref
	} else {
		out.Value = c.Value
	}
	return json.Marshal(out)
}

func (c *Condition) UnmarshalJSON(data []byte) error {
	var in conditionJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	c.Indicator = in.Indicator
	c.Parameter = in.Parameter
	c.Operator = in.Operator
	c.Passed = in.Passed
	c.Description = in.Description
	c.Value = 0
	c.Ref = ""
	switch v := in.Value.(type) {
	case nil:
	case float64:
		c.Value = v
	case string:
		c.Ref = v
	default:
		return fmt.Errorf("domain.Condition: unsupported value type %T", in.Value)
	}
	return nil
}

// CloneConditions copies a condition template list with Passed reset to false.
func CloneConditions(src []Condition) []Condition {
	out := make([]Condition, len(src))
	for i, c := range src {
		c.Passed = false
		out[i] = c
	}
	return out
}

// Rule bundles entry/exit conditions with risk parameters for one direction.
// When both pip-based and ATR-based risk fields are set, ATR wins.
type Rule struct {
	Name            string      `json:"name"`
	Timeframe       Timeframe   `json:"timeframe"`
	Direction       Direction   `json:"direction"`
	EntryConditions []Condition `json:"entry_conditions"`
	ExitConditions  []Condition `json:"exit_conditions"`
	StopLossPips    float64     `json:"stop_loss_pips,omitempty"`
	TakeProfitPips  float64     `json:"take_profit_pips,omitempty"`
	StopLossATR     float64     `json:"stop_loss_atr_multiplier,omitempty"`
	TakeProfitATR   float64     `json:"take_profit_atr_multiplier,omitempty"`
	MinBarsInTrade  int         `json:"min_bars_in_trade,omitempty"`
	RiskPercent     float64     `json:"risk_percent,omitempty"`
	Description     string      `json:"description,omitempty"`
}

// Validate checks the invariants a stored rule must satisfy.
func (r Rule) Validate() error {
	if r.Direction != DirectionBuy && r.Direction != DirectionSell {
		return fmt.Errorf("domain.Rule: direction must be buy or sell, got %q", r.Direction)
	}
	if !r.Timeframe.Valid() {
		return fmt.Errorf("domain.Rule: unknown timeframe %q", r.Timeframe)
	}
	return nil
}

// Strategy is the immutable input to a trading session.
type Strategy struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Symbol         string    `json:"symbol"`
	Rules          []Rule    `json:"rules"`
	RawDescription string    `json:"raw_description,omitempty"`
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// DefaultStrategy is the built-in fallback used when a strategy id cannot be
// resolved: an EMA crossover scalper with MACD momentum confirmation and an
// RSI band filter.
func DefaultStrategy() Strategy {
	return Strategy{
		ID:     "default",
		Name:   "EMA Cross + MACD Momentum",
		Symbol: "EURUSDm",
		Rules: []Rule{
			{
				Name:      "EMA Cross + MACD Momentum",
				Timeframe: TimeframeM1,
				Direction: DirectionBuy,
				EntryConditions: []Condition{
					{Indicator: "EMA_20", Parameter: "value", Operator: OpGreater, Ref: "EMA_50",
						Description: "fast EMA above slow EMA (bullish crossover)"},
					{Indicator: "MACD", Parameter: "histogram", Operator: OpGreater, Value: 0,
						Description: "MACD histogram positive (bullish momentum)"},
					{Indicator: "RSI", Parameter: "value", Operator: OpGreater, Value: 30,
						Description: "RSI above 30 (not oversold)"},
					{Indicator: "RSI", Parameter: "value", Operator: OpLess, Value: 70,
						Description: "RSI below 70 (not overbought)"},
				},
				ExitConditions: []Condition{
					{Indicator: "MACD", Parameter: "histogram", Operator: OpLess, Value: 0,
						Description: "MACD histogram turns negative (momentum fading)"},
				},
				StopLossATR:    1.5,
				TakeProfitATR:  2.5,
				MinBarsInTrade: 3,
				RiskPercent:    1.0,
			},
		},
	}
}

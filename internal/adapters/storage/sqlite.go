// Package storage persists strategies, closed trades and backtest runs in
// SQLite (pure Go driver, no CGo). A fresh database is seeded with the stock
// strategy library so the engine is usable immediately.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"simtrader/internal/domain"
	"simtrader/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS strategies (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    symbol          TEXT NOT NULL,
    rules           TEXT NOT NULL,
    raw_description TEXT NOT NULL DEFAULT '',
    created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
    id           TEXT PRIMARY KEY,
    ticket       INTEGER NOT NULL DEFAULT 0,
    symbol       TEXT    NOT NULL,
    direction    TEXT    NOT NULL,
    volume       REAL    NOT NULL,
    entry_price  REAL    NOT NULL,
    exit_price   REAL    NOT NULL,
    entry_time   DATETIME NOT NULL,
    exit_time    DATETIME NOT NULL,
    exit_reason  TEXT    NOT NULL,
    bars_held    INTEGER NOT NULL DEFAULT 0,
    gross_profit REAL    NOT NULL DEFAULT 0,
    commission   REAL    NOT NULL DEFAULT 0,
    net_profit   REAL    NOT NULL DEFAULT 0,
    detail       TEXT    NOT NULL DEFAULT '{}'
);

CREATE TABLE IF NOT EXISTS backtests (
    id            TEXT PRIMARY KEY,
    symbol        TEXT NOT NULL,
    stats         TEXT NOT NULL,
    trades        TEXT NOT NULL,
    equity_curve  TEXT NOT NULL,
    created_at    DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit     ON trades(exit_time DESC);
CREATE INDEX IF NOT EXISTS idx_backtests_at    ON backtests(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_strategies_name ON strategies(name);
`

// Store implements ports.StrategyStore and ports.TradeRecorder over SQLite.
type Store struct {
	db *sql.DB
}

// interface conformance
var (
	_ ports.StrategyStore = (*Store)(nil)
	_ ports.TradeRecorder = (*Store)(nil)
)

// NewStore opens (or creates) the database at path, applies the schema and
// seeds the stock strategies when the strategies table is empty.
// Use ":memory:" for an ephemeral store.
func NewStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage.NewStore: open %q: %w", path, err)
	}
	db.SetMaxOpenConns(1) // SQLite is single-writer
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage.NewStore: apply schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.seedIfEmpty(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// GetStrategy loads one strategy by id.
func (s *Store) GetStrategy(ctx context.Context, id string) (domain.Strategy, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, symbol, rules, raw_description, created_at
		FROM strategies WHERE id = ?
	`, id)

	st, err := scanStrategy(row)
	if err == sql.ErrNoRows {
		return domain.Strategy{}, ports.ErrStrategyNotFound
	}
	if err != nil {
		return domain.Strategy{}, fmt.Errorf("storage.GetStrategy: %w", err)
	}
	return st, nil
}

// ListStrategies returns all stored strategies, newest first.
func (s *Store) ListStrategies(ctx context.Context) ([]domain.Strategy, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, symbol, rules, raw_description, created_at
		FROM strategies ORDER BY created_at DESC, name
	`)
	if err != nil {
		return nil, fmt.Errorf("storage.ListStrategies: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Strategy
	for rows.Next() {
		st, err := scanStrategy(rows)
		if err != nil {
			return nil, fmt.Errorf("storage.ListStrategies: scan: %w", err)
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// SaveStrategy inserts or replaces a strategy record.
func (s *Store) SaveStrategy(ctx context.Context, st domain.Strategy) error {
	rules, err := json.Marshal(st.Rules)
	if err != nil {
		return fmt.Errorf("storage.SaveStrategy: marshal rules: %w", err)
	}
	created := st.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}
	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO strategies (id, name, symbol, rules, raw_description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name            = excluded.name,
			symbol          = excluded.symbol,
			rules           = excluded.rules,
			raw_description = excluded.raw_description
	`, st.ID, st.Name, st.Symbol, string(rules), st.RawDescription, created); err != nil {
		return fmt.Errorf("storage.SaveStrategy: upsert %s: %w", st.ID, err)
	}
	return nil
}

// SaveTrade appends a closed trade. The long tail of per-trade context
// (conditions, indicator snapshots, risk levels) goes into a JSON detail
// column; the queryable columns stay relational.
func (s *Store) SaveTrade(ctx context.Context, t domain.Trade) error {
	detail, err := json.Marshal(tradeDetail{
		StopLoss:          t.StopLoss,
		TakeProfit:        t.TakeProfit,
		ATRAtEntry:        t.ATRAtEntry,
		SLATRMult:         t.SLATRMult,
		TPATRMult:         t.TPATRMult,
		EntryConditions:   t.EntryConditions,
		IndicatorsAtEntry: t.IndicatorsAtEntry,
		IndicatorsAtExit:  t.IndicatorsAtExit,
		PnLPips:           t.PnLPips,
		RuleIndex:         t.RuleIndex,
		Swap:              t.Swap,
	})
	if err != nil {
		return fmt.Errorf("storage.SaveTrade: marshal detail: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO trades
			(id, ticket, symbol, direction, volume, entry_price, exit_price,
			 entry_time, exit_time, exit_reason, bars_held,
			 gross_profit, commission, net_profit, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		t.ID, t.Ticket, t.Symbol, string(t.Direction), t.Volume,
		t.EntryPrice, t.ExitPrice, t.EntryTime.UTC(), t.ExitTime.UTC(),
		string(t.ExitReason), t.BarsHeld,
		t.GrossProfit, t.Commission, t.NetProfit, string(detail),
	); err != nil {
		return fmt.Errorf("storage.SaveTrade: insert %s: %w", t.ID, err)
	}
	return nil
}

// ListTrades returns the most recent closed trades, newest first.
func (s *Store) ListTrades(ctx context.Context, limit int) ([]domain.Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, ticket, symbol, direction, volume, entry_price, exit_price,
		       entry_time, exit_time, exit_reason, bars_held,
		       gross_profit, commission, net_profit, detail
		FROM trades ORDER BY exit_time DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListTrades: query: %w", err)
	}
	defer rows.Close()

	var out []domain.Trade
	for rows.Next() {
		var t domain.Trade
		var direction, reason, detail string
		if err := rows.Scan(
			&t.ID, &t.Ticket, &t.Symbol, &direction, &t.Volume,
			&t.EntryPrice, &t.ExitPrice, &t.EntryTime, &t.ExitTime,
			&reason, &t.BarsHeld,
			&t.GrossProfit, &t.Commission, &t.NetProfit, &detail,
		); err != nil {
			return nil, fmt.Errorf("storage.ListTrades: scan: %w", err)
		}
		t.Direction = domain.Direction(direction)
		t.ExitReason = domain.ExitReason(reason)

		var d tradeDetail
		if json.Unmarshal([]byte(detail), &d) == nil {
			t.StopLoss = d.StopLoss
			t.TakeProfit = d.TakeProfit
			t.ATRAtEntry = d.ATRAtEntry
			t.SLATRMult = d.SLATRMult
			t.TPATRMult = d.TPATRMult
			t.EntryConditions = d.EntryConditions
			t.IndicatorsAtEntry = d.IndicatorsAtEntry
			t.IndicatorsAtExit = d.IndicatorsAtExit
			t.PnLPips = d.PnLPips
			t.RuleIndex = d.RuleIndex
			t.Swap = d.Swap
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// SaveBacktest persists a backtest result. Candles are not stored; they are
// reproducible and dominate the payload size.
func (s *Store) SaveBacktest(ctx context.Context, r domain.BacktestResult) error {
	stats, err := json.Marshal(r.Stats)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal stats: %w", err)
	}
	trades, err := json.Marshal(r.Trades)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal trades: %w", err)
	}
	equity, err := json.Marshal(r.EquityCurve)
	if err != nil {
		return fmt.Errorf("storage.SaveBacktest: marshal equity: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO backtests (id, symbol, stats, trades, equity_curve, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.Symbol, string(stats), string(trades), string(equity), time.Now().UTC()); err != nil {
		return fmt.Errorf("storage.SaveBacktest: insert %s: %w", r.ID, err)
	}
	return nil
}

// ListBacktests returns recent backtest runs, newest first, without candles.
func (s *Store) ListBacktests(ctx context.Context, limit int) ([]domain.BacktestResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, symbol, stats, trades, equity_curve
		FROM backtests ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("storage.ListBacktests: query: %w", err)
	}
	defer rows.Close()

	var out []domain.BacktestResult
	for rows.Next() {
		var r domain.BacktestResult
		var stats, trades, equity string
		if err := rows.Scan(&r.ID, &r.Symbol, &stats, &trades, &equity); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: scan: %w", err)
		}
		if err := json.Unmarshal([]byte(stats), &r.Stats); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: stats %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(trades), &r.Trades); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: trades %s: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(equity), &r.EquityCurve); err != nil {
			return nil, fmt.Errorf("storage.ListBacktests: equity %s: %w", r.ID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// tradeDetail is the JSON sidecar stored next to the relational trade columns.
type tradeDetail struct {
	StopLoss          float64            `json:"stop_loss,omitempty"`
	TakeProfit        float64            `json:"take_profit,omitempty"`
	ATRAtEntry        float64            `json:"atr_at_entry,omitempty"`
	SLATRMult         float64            `json:"sl_atr_multiplier,omitempty"`
	TPATRMult         float64            `json:"tp_atr_multiplier,omitempty"`
	EntryConditions   []domain.Condition `json:"entry_conditions,omitempty"`
	IndicatorsAtEntry map[string]float64 `json:"indicators_at_entry,omitempty"`
	IndicatorsAtExit  map[string]float64 `json:"indicators_at_exit,omitempty"`
	PnLPips           float64            `json:"pnl_pips,omitempty"`
	RuleIndex         int                `json:"rule_index,omitempty"`
	Swap              float64            `json:"swap,omitempty"`
}

// scanner abstracts *sql.Row / *sql.Rows for scanStrategy.
type scanner interface {
	Scan(dest ...any) error
}

func scanStrategy(row scanner) (domain.Strategy, error) {
	var st domain.Strategy
	var rules string
	if err := row.Scan(&st.ID, &st.Name, &st.Symbol, &rules, &st.RawDescription, &st.CreatedAt); err != nil {
		return domain.Strategy{}, err
	}
	if err := json.Unmarshal([]byte(rules), &st.Rules); err != nil {
		return domain.Strategy{}, fmt.Errorf("decode rules for %s: %w", st.ID, err)
	}
	return st, nil
}

// seedIfEmpty populates an empty strategies table with the stock library.
func (s *Store) seedIfEmpty(ctx context.Context) error {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM strategies`).Scan(&n); err != nil {
		return fmt.Errorf("storage.seedIfEmpty: count: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, st := range StockStrategies() {
		if err := s.SaveStrategy(ctx, st); err != nil {
			return fmt.Errorf("storage.seedIfEmpty: seed %q: %w", st.Name, err)
		}
	}
	return nil
}

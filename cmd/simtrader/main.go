package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"simtrader/config"
	"simtrader/internal/adapters/notify"
	"simtrader/internal/adapters/storage"
	"simtrader/internal/api"
	"simtrader/internal/application/engine/algo"
	"simtrader/internal/application/engine/backtest"
	"simtrader/internal/domain"
	"simtrader/internal/events"
	"simtrader/internal/market"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	runBT := flag.Bool("backtest", false, "run one backtest, print the report and exit")
	btSymbol := flag.String("symbol", "EURUSDm", "backtest symbol")
	btStrategy := flag.String("strategy", "", "backtest strategy id (empty: synthetic run)")
	btBars := flag.Int("bars", 500, "backtest bar count")
	btBalance := flag.Float64("balance", 10000, "backtest initial balance")
	btRisk := flag.Float64("risk", 1.0, "backtest risk percent per trade")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Error("failed to load config", "err", err, "path", *configPath)
			os.Exit(1)
		}
		cfg = config.Default()
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	setupLogger(cfg.Log)

	slog.Info("simtrader starting",
		"config", *configPath,
		"addr", cfg.Server.Addr,
		"tick_interval", cfg.TickInterval(),
		"backtest", *runBT,
	)

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	feed := market.NewFeed(rng)
	gen := market.NewGenerator(feed, rng)
	engine := backtest.NewEngine(gen, rng)

	store, err := storage.NewStore(cfg.Storage.DSN)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "dsn", cfg.Storage.DSN)
		os.Exit(1)
	}
	defer store.Close()

	if *runBT {
		runBacktest(engine, gen, store, *btSymbol, *btStrategy, *btBars, *btBalance, *btRisk)
		return
	}

	bus := events.NewBus()
	session := algo.NewSession(algo.Config{
		Feed:       feed,
		Generator:  gen,
		Strategies: store,
		Recorder:   store,
		Bus:        bus,
		Rng:        rng,
		Interval:   cfg.TickInterval(),
		SignalCap:  cfg.Engine.SignalCap,
		Commission: cfg.Engine.Commission,
		Policy:     rulePolicy(cfg.Engine.RulePolicy),
	})

	server := api.NewServer(api.Deps{
		Session:    session,
		Engine:     engine,
		Feed:       feed,
		Generator:  gen,
		Strategies: store,
		Recorder:   store,
		Bus:        bus,
		Metrics:    api.NewMetrics(),
	})

	if err := server.Start(cfg.Server.Addr); err != nil {
		slog.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

// runBacktest executes a single run and prints the console report.
func runBacktest(engine *backtest.Engine, gen *market.Generator, store *storage.Store,
	symbol, strategyID string, bars int, balance, risk float64) {

	ctx := context.Background()
	console := notify.NewConsole()

	var result domain.BacktestResult
	if strategyID != "" {
		strat, err := store.GetStrategy(ctx, strategyID)
		if err != nil {
			slog.Error("failed to load strategy", "id", strategyID, "err", err)
			os.Exit(1)
		}
		tf := domain.TimeframeH1
		if len(strat.Rules) > 0 && strat.Rules[0].Timeframe.Valid() {
			tf = strat.Rules[0].Timeframe
		}
		strat.Symbol = symbol
		candles := gen.Generate(symbol, tf, bars)
		result = engine.RunStrategy(strat, candles, balance, risk)
	} else {
		result = engine.Run(balance, risk, symbol, domain.TimeframeH1, bars)
	}

	console.BacktestReport(result)

	if err := store.SaveBacktest(ctx, result); err != nil {
		slog.Warn("failed to persist backtest", "err", err)
	}
	slog.Info("backtest complete", "trades", result.Stats.TotalTrades,
		"final_balance", result.Stats.FinalBalance)
}

func rulePolicy(name string) algo.RulePolicy {
	if name == "round_robin" {
		return algo.RoundRobin{}
	}
	return algo.FirstRule{}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}

package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"smc-backtester/config"
	"smc-backtester/internal/backtest"
	"smc-backtester/internal/market"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to the JSON configuration file")
	htfPath := flag.String("htf", "", "CSV file with higher timeframe candles (e.g. 4h)")
	mtfPath := flag.String("mtf", "", "CSV file with middle timeframe candles (e.g. 1h)")
	ltfPath := flag.String("ltf", "", "CSV file with lower timeframe candles (e.g. 15m)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Logging)

	if *htfPath == "" || *mtfPath == "" || *ltfPath == "" {
		logger.Fatal().Msg("-htf, -mtf and -ltf CSV files are required")
	}

	specs := market.NewSpecRegistry()
	spec, err := specs.Spec(cfg.Backtest.Symbol)
	if err != nil {
		logger.Fatal().Err(err).Msg("no symbol specification registered")
	}

	htf, err := loadCandles(*htfPath, cfg.Backtest.Symbol, market.TF4h)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *htfPath).Msg("loading HTF candles")
	}
	mtf, err := loadCandles(*mtfPath, cfg.Backtest.Symbol, market.TF1h)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *mtfPath).Msg("loading MTF candles")
	}
	ltf, err := loadCandles(*ltfPath, cfg.Backtest.Symbol, market.TF15m)
	if err != nil {
		logger.Fatal().Err(err).Str("file", *ltfPath).Msg("loading LTF candles")
	}
	logger.Info().
		Int("htf", len(htf)).
		Int("mtf", len(mtf)).
		Int("ltf", len(ltf)).
		Msg("candles loaded")

	sim, err := backtest.NewSimulator(cfg.Backtest, spec, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("building simulator")
	}
	sim.SetProgress(func(phase string, pct float64, kpis backtest.RunningKPIs) {
		logger.Info().
			Str("phase", phase).
			Int("pct", int(pct*100)).
			Int("trades", kpis.Trades).
			Float64("balance", kpis.Balance).
			Msg("progress")
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := sim.Run(ctx, htf, mtf, ltf)
	if err != nil {
		if errors.Is(err, backtest.ErrCancelled) {
			logger.Warn().Msg("run cancelled, reporting partial result")
		} else {
			logger.Fatal().Err(err).Msg("backtest failed")
		}
	}

	printSummary(result)
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	var logger zerolog.Logger
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	} else {
		logger = zerolog.New(os.Stderr)
	}
	return logger.Level(level).With().Timestamp().Logger()
}

// loadCandles reads a CSV with columns time,open,high,low,close,volume.
// The time column accepts RFC3339 or unix seconds. A header row is
// skipped when the first field does not parse as a time.
func loadCandles(path, symbol string, tf market.Timeframe) ([]market.Candle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 6

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading csv: %w", err)
	}

	candles := make([]market.Candle, 0, len(records))
	for i, rec := range records {
		t, err := parseTime(rec[0])
		if err != nil {
			if i == 0 {
				continue // Header row
			}
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		var vals [5]float64
		for j := 1; j < 6; j++ {
			v, err := strconv.ParseFloat(rec[j], 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i+1, j+1, err)
			}
			vals[j-1] = v
		}
		candles = append(candles, market.Candle{
			Symbol:    symbol,
			Timeframe: tf,
			Time:      t,
			Open:      vals[0],
			High:      vals[1],
			Low:       vals[2],
			Close:     vals[3],
			Volume:    vals[4],
		})
	}
	sort.Slice(candles, func(a, b int) bool { return candles[a].Time.Before(candles[b].Time) })
	return candles, nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unparseable time %q", s)
}

func printSummary(r *backtest.Result) {
	m := r.Metrics
	fmt.Println("================ BACKTEST RESULT ================")
	fmt.Printf("Run ID:           %s\n", r.RunID)
	fmt.Printf("Symbol:           %s\n", r.Config.Symbol)
	fmt.Printf("Trades:           %d (%d wins / %d losses)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Printf("Win rate:         %.1f%%\n", m.WinRate)
	if math.IsInf(m.ProfitFactor, 1) {
		fmt.Println("Profit factor:    inf")
	} else {
		fmt.Printf("Profit factor:    %.2f\n", m.ProfitFactor)
	}
	fmt.Printf("Total P&L:        %.2f (%.2f%%)\n", m.TotalPnL, m.TotalPnLPercent)
	fmt.Printf("Final balance:    %.2f\n", m.FinalBalance)
	fmt.Printf("Max drawdown:     %.2f (%.2f%%)\n", m.MaxDrawdown, m.MaxDrawdownPercent)
	fmt.Printf("Sharpe ratio:     %.2f\n", m.SharpeRatio)
	fmt.Printf("Avg win / loss:   %.2f / %.2f\n", m.AverageWin, m.AverageLoss)
	fmt.Printf("Avg realized R:   %.2f\n", m.AverageRR)

	if len(m.StrategyStats) > 0 {
		fmt.Println("----------------- Strategies -------------------")
		names := make([]string, 0, len(m.StrategyStats))
		for name := range m.StrategyStats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			s := m.StrategyStats[name]
			fmt.Printf("%-28s trades=%-4d winrate=%5.1f%% pnl=%.2f\n", name, s.Trades, s.WinRate, s.NetPnL)
		}
	}
	fmt.Println("=================================================")
}

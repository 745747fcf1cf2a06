// Package config defines the backtest run configuration, loaded from a
// JSON file with environment-variable overrides and validated eagerly
// before a run starts.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Stop/target tie-break policies for a candle that touches both levels
const (
	StopFirst   = "STOP_FIRST"
	TargetFirst = "TARGET_FIRST"
	Directional = "DIRECTIONAL"
)

// Config is the full application configuration
type Config struct {
	Backtest BacktestConfig `json:"backtest"`
	Logging  LoggingConfig  `json:"logging"`
}

// LoggingConfig controls the zerolog setup
type LoggingConfig struct {
	Level  string `json:"level"`  // debug, info, warn, error
	Pretty bool   `json:"pretty"` // Console writer instead of JSON
}

// BacktestConfig is the immutable input to one simulation run
type BacktestConfig struct {
	Symbol         string    `json:"symbol"`
	Strategies     []string  `json:"strategies"` // Ordered; empty enables all
	StartDate      time.Time `json:"start_date"`
	EndDate        time.Time `json:"end_date"`
	InitialBalance float64   `json:"initial_balance"`
	RiskPercent    float64   `json:"risk_percent"`

	// Signal acceptance
	MinConfidence   float64 `json:"min_confidence"`   // Default 0.6
	MinRiskReward   float64 `json:"min_risk_reward"`  // Default 1.5
	SelectionPolicy string  `json:"selection_policy"` // BEST_CONFIDENCE or FIRST_MATCH

	// Optional entry filters
	UseKillZones           bool     `json:"use_kill_zones"`
	KillZones              []string `json:"kill_zones"` // Allowed zones when UseKillZones
	RequireOTE             bool     `json:"require_ote"`
	RequireLiquiditySweep  bool     `json:"require_liquidity_sweep"`
	RequirePremiumDiscount bool     `json:"require_premium_discount"`
	MinOBScore             float64  `json:"min_ob_score"` // 0 disables; else [50,100]
	MaxSLPips              float64  `json:"max_sl_pips"`  // 0 disables

	// Exit shaping
	RiskReward       float64 `json:"risk_reward"`        // 0 keeps strategy targets; else [1,5] fixed R
	StopTargetPolicy string  `json:"stop_target_policy"` // STOP_FIRST, TARGET_FIRST, DIRECTIONAL

	// Risk controls
	MaxDailyDrawdownPercent float64 `json:"max_daily_drawdown_percent"` // Default 6

	// Progress reporting cadence in candles
	ProgressBatch int `json:"progress_batch"` // Default 500
}

// ApplyDefaults fills zero values with production defaults
func (c *BacktestConfig) ApplyDefaults() {
	if c.MinConfidence == 0 {
		c.MinConfidence = 0.6
	}
	if c.MinRiskReward == 0 {
		c.MinRiskReward = 1.5
	}
	if c.SelectionPolicy == "" {
		c.SelectionPolicy = "BEST_CONFIDENCE"
	}
	if c.StopTargetPolicy == "" {
		c.StopTargetPolicy = StopFirst
	}
	if c.MaxDailyDrawdownPercent == 0 {
		c.MaxDailyDrawdownPercent = 6
	}
	if c.ProgressBatch == 0 {
		c.ProgressBatch = 500
	}
}

// Validate rejects invalid configuration before a run starts. Configuration
// errors are never discovered mid-simulation.
func (c *BacktestConfig) Validate() error {
	if c.Symbol == "" {
		return fmt.Errorf("symbol is required")
	}
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be positive, got %.2f", c.InitialBalance)
	}
	if c.RiskPercent <= 0 || c.RiskPercent > 10 {
		return fmt.Errorf("risk_percent must be in (0,10], got %.2f", c.RiskPercent)
	}
	if c.MinOBScore != 0 && (c.MinOBScore < 50 || c.MinOBScore > 100) {
		return fmt.Errorf("min_ob_score must be in [50,100], got %.2f", c.MinOBScore)
	}
	if c.RiskReward != 0 && (c.RiskReward < 1 || c.RiskReward > 5) {
		return fmt.Errorf("risk_reward must be in [1,5], got %.2f", c.RiskReward)
	}
	if c.MaxDailyDrawdownPercent <= 0 || c.MaxDailyDrawdownPercent >= 100 {
		return fmt.Errorf("max_daily_drawdown_percent must be in (0,100), got %.2f", c.MaxDailyDrawdownPercent)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("min_confidence must be in [0,1], got %.2f", c.MinConfidence)
	}
	if c.MinRiskReward < 0 {
		return fmt.Errorf("min_risk_reward must be non-negative, got %.2f", c.MinRiskReward)
	}
	if c.MaxSLPips < 0 {
		return fmt.Errorf("max_sl_pips must be non-negative, got %.2f", c.MaxSLPips)
	}
	switch c.SelectionPolicy {
	case "BEST_CONFIDENCE", "FIRST_MATCH":
	default:
		return fmt.Errorf("unknown selection_policy %q", c.SelectionPolicy)
	}
	switch c.StopTargetPolicy {
	case StopFirst, TargetFirst, Directional:
	default:
		return fmt.Errorf("unknown stop_target_policy %q", c.StopTargetPolicy)
	}
	if !c.EndDate.IsZero() && !c.StartDate.IsZero() && c.EndDate.Before(c.StartDate) {
		return fmt.Errorf("end_date %s before start_date %s", c.EndDate, c.StartDate)
	}
	return nil
}

// Load reads the config file, applies environment overrides, fills
// defaults and validates.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	cfg.Backtest.ApplyDefaults()
	if err := cfg.Backtest.Validate(); err != nil {
		return nil, fmt.Errorf("invalid backtest config: %w", err)
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides; these take
// precedence over file values.
func applyEnvOverrides(cfg *Config) {
	cfg.Logging.Level = getEnvOrDefault("LOG_LEVEL", defaultString(cfg.Logging.Level, "info"))
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		cfg.Logging.Pretty = v == "true"
	}

	cfg.Backtest.Symbol = getEnvOrDefault("BACKTEST_SYMBOL", cfg.Backtest.Symbol)
	cfg.Backtest.InitialBalance = getEnvFloatOrDefault("BACKTEST_BALANCE", cfg.Backtest.InitialBalance)
	cfg.Backtest.RiskPercent = getEnvFloatOrDefault("BACKTEST_RISK_PERCENT", cfg.Backtest.RiskPercent)
	cfg.Backtest.MaxDailyDrawdownPercent = getEnvFloatOrDefault("BACKTEST_MAX_DAILY_DD", cfg.Backtest.MaxDailyDrawdownPercent)
	if v := os.Getenv("BACKTEST_USE_KILL_ZONES"); v != "" {
		cfg.Backtest.UseKillZones = v == "true"
	}
}

func getEnvOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvFloatOrDefault(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func defaultString(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

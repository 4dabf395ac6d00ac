// Package config provides configuration management for the trading core.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"alphamind/internal/models"
)

// Config holds all application configuration. A loaded Config is treated
// as an immutable value: updates replace the whole value rather than
// mutating process-wide state.
type Config struct {
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Risk      RiskConfig      `mapstructure:"risk"`
	Bot       BotConfig       `mapstructure:"bot"`
	Data      DataConfig      `mapstructure:"data"`
	Portfolio PortfolioConfig `mapstructure:"portfolio"`
	Server    ServerConfig    `mapstructure:"server"`
}

// AnalysisConfig holds structure-analysis parameters.
type AnalysisConfig struct {
	MinBars      int `mapstructure:"min_bars"`      // minimum candles for analysis
	SwingWindow  int `mapstructure:"swing_window"`  // bars on each side for swing confirmation
	ATRPeriod    int `mapstructure:"atr_period"`    // ATR lookback
	ImpulseBars  int `mapstructure:"impulse_bars"`  // consecutive bars defining an impulse
}

// ModeConfig holds per-mode stop and target multipliers.
type ModeConfig struct {
	StopMultiplier   float64 `mapstructure:"stop_multiplier"`
	TargetMultiplier float64 `mapstructure:"target_multiplier"`
}

// RiskConfig holds risk-engine parameters.
type RiskConfig struct {
	MinRiskReward  float64                            `mapstructure:"min_risk_reward"`
	StopBufferATR  float64                            `mapstructure:"stop_buffer_atr"` // buffer beyond structure, in ATR units
	Modes          map[models.TradingMode]ModeConfig  `mapstructure:"modes"`
	TrendWeight    float64                            `mapstructure:"trend_weight"`
	RRWeight       float64                            `mapstructure:"rr_weight"`
	EntryWeight    float64                            `mapstructure:"entry_weight"`
}

// ModeFor returns the configuration for a trading mode, falling back to
// intraday for unknown modes.
func (r RiskConfig) ModeFor(mode models.TradingMode) ModeConfig {
	if mc, ok := r.Modes[mode]; ok {
		return mc
	}
	return r.Modes[models.ModeIntraday]
}

// BotConfig holds bot behavior configuration.
type BotConfig struct {
	AutoExecute          bool     `mapstructure:"auto_execute"`
	AutoExecuteThreshold float64  `mapstructure:"auto_execute_threshold"`
	MaxDailyTrades       int      `mapstructure:"max_daily_trades"`
	AllowedMarkets       []string `mapstructure:"allowed_markets"`
	RiskPerTrade         float64  `mapstructure:"risk_per_trade"`
}

// MarketAllowed reports whether a market type is enabled for trading.
func (b BotConfig) MarketAllowed(class models.InstrumentClass) bool {
	for _, m := range b.AllowedMarkets {
		if m == string(class) {
			return true
		}
	}
	return false
}

// DataConfig holds market-data collaborator configuration.
type DataConfig struct {
	PriceTimeoutMS   int `mapstructure:"price_timeout_ms"`
	FreshnessWindowS int `mapstructure:"freshness_window_s"`
	RateLimitPerSec  int `mapstructure:"rate_limit_per_sec"`
}

// PortfolioConfig holds account configuration.
type PortfolioConfig struct {
	InitialCapital float64 `mapstructure:"initial_capital"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Analysis: AnalysisConfig{
			MinBars:     30,
			SwingWindow: 3,
			ATRPeriod:   14,
			ImpulseBars: 3,
		},
		Risk: RiskConfig{
			MinRiskReward: 2.0,
			StopBufferATR: 0.1,
			Modes: map[models.TradingMode]ModeConfig{
				models.ModeScalping: {StopMultiplier: 0.5, TargetMultiplier: 1.0},
				models.ModeIntraday: {StopMultiplier: 1.0, TargetMultiplier: 1.0},
				models.ModeSwing:    {StopMultiplier: 1.5, TargetMultiplier: 1.2},
			},
			TrendWeight: 0.4,
			RRWeight:    0.3,
			EntryWeight: 0.3,
		},
		Bot: BotConfig{
			AutoExecute:          false,
			AutoExecuteThreshold: 80,
			MaxDailyTrades:       10,
			AllowedMarkets:       []string{"crypto", "forex", "indices", "metals", "futures"},
			RiskPerTrade:         0.02,
		},
		Data: DataConfig{
			PriceTimeoutMS:   5000,
			FreshnessWindowS: 30,
			RateLimitPerSec:  10,
		},
		Portfolio: PortfolioConfig{
			InitialCapital: 10000,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/alphamind"
	}
	return filepath.Join(home, ".config", "alphamind")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	cfg := Default()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if err := createTemplateConfig(configDir); err != nil {
				return nil, fmt.Errorf("creating config template: %w", err)
			}
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("loading config.toml: %w", err)
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config.toml: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ALPHAMIND_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("ALPHAMIND_AUTO_EXECUTE"); v == "true" {
		cfg.Bot.AutoExecute = true
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Analysis.MinBars < c.Analysis.SwingWindow*2+1 {
		return fmt.Errorf("min_bars must be at least %d", c.Analysis.SwingWindow*2+1)
	}
	if c.Analysis.ATRPeriod <= 0 {
		return fmt.Errorf("atr_period must be positive")
	}
	if c.Risk.MinRiskReward <= 0 {
		return fmt.Errorf("min_risk_reward must be positive")
	}

	// Stop multipliers must widen with holding horizon.
	sc := c.Risk.ModeFor(models.ModeScalping).StopMultiplier
	in := c.Risk.ModeFor(models.ModeIntraday).StopMultiplier
	sw := c.Risk.ModeFor(models.ModeSwing).StopMultiplier
	if !(sc < in && in < sw) {
		return fmt.Errorf("stop multipliers must satisfy scalping < intraday < swing, got %g/%g/%g", sc, in, sw)
	}

	if c.Bot.RiskPerTrade < 0 || c.Bot.RiskPerTrade > 1 {
		return fmt.Errorf("risk_per_trade must be between 0 and 1")
	}
	if c.Bot.AutoExecuteThreshold < 0 || c.Bot.AutoExecuteThreshold > 100 {
		return fmt.Errorf("auto_execute_threshold must be between 0 and 100")
	}
	if c.Portfolio.InitialCapital <= 0 {
		return fmt.Errorf("initial_capital must be positive")
	}
	return nil
}

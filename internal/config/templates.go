package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const configTemplate = `# AlphaMind Trading Core Configuration

[analysis]
# Minimum candles required for structure analysis
min_bars = 30
# Bars on each side of a candle for swing confirmation
swing_window = 3
# ATR lookback period
atr_period = 14
# Consecutive same-direction bars defining an impulse
impulse_bars = 3

[risk]
# Minimum risk-reward ratio for a signal
min_risk_reward = 2.0
# Stop buffer beyond the structure level, in ATR units
stop_buffer_atr = 0.1
# Confidence score weights (sum to 1.0)
trend_weight = 0.4
rr_weight = 0.3
entry_weight = 0.3

[risk.modes.scalping]
stop_multiplier = 0.5
target_multiplier = 1.0

[risk.modes.intraday]
stop_multiplier = 1.0
target_multiplier = 1.0

[risk.modes.swing]
stop_multiplier = 1.5
target_multiplier = 1.2

[bot]
# Execute signals without manual confirmation
auto_execute = false
# Minimum confidence for auto execution
auto_execute_threshold = 80.0
max_daily_trades = 10
allowed_markets = ["crypto", "forex", "indices", "metals", "futures"]
# Fraction of balance risked per trade
risk_per_trade = 0.02

[data]
# Live price lookup timeout in milliseconds
price_timeout_ms = 5000
# Maximum age of a cached price served as fallback, in seconds
freshness_window_s = 30
# Provider request rate limit
rate_limit_per_sec = 10

[portfolio]
initial_capital = 10000.0

[server]
addr = ":8080"
`

// createTemplateConfig writes a commented config template so users can
// discover the available settings.
func createTemplateConfig(configDir string) error {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	path := filepath.Join(configDir, "config.toml")
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	return os.WriteFile(path, []byte(configTemplate), 0644)
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, "{}\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "offline", cfg.Broker.Type, "the default broker must not be able to trade")
	assert.False(t, cfg.EnableLiveTrading)
	assert.Equal(t, []string{"USD_JPY"}, cfg.TargetSymbols)
	assert.Equal(t, 60, cfg.IntervalSeconds)
	assert.Equal(t, 1000.0, cfg.Sizing.MinOrderSize)
	assert.Equal(t, "trade_audit.jsonl", cfg.Audit.Path)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_ReadsValues(t *testing.T) {
	path := writeConfig(t, `
broker:
  type: gmo
enable_live_trading: true
target_symbols: [USD_JPY, EUR_JPY]
interval_seconds: 30
risk:
  max_leverage: 5
  kill_switch_margin_pct: 1.5
providers:
  swap_info_url: https://example.com/swap.json
  manual_swap:
    updated_at: "2026-08-30"
    points:
      USD_JPY: {long: 0.15, short: -0.20}
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gmo", cfg.Broker.Type)
	assert.True(t, cfg.EnableLiveTrading)
	assert.Equal(t, []string{"USD_JPY", "EUR_JPY"}, cfg.TargetSymbols)
	assert.Equal(t, 30, cfg.IntervalSeconds)
	assert.Equal(t, 5.0, cfg.Risk.MaxLeverage)
	assert.Equal(t, "https://example.com/swap.json", cfg.Providers.SwapInfoURL)
	assert.Equal(t, 0.15, cfg.Providers.ManualSwap.Points["USD_JPY"].Long)
}

func TestLoad_SecretsComeFromEnvironmentOnly(t *testing.T) {
	path := writeConfig(t, "broker:\n  type: gmo\n")

	t.Setenv("GMO_API_KEY", "key-from-env")
	t.Setenv("GMO_API_SECRET", "secret-from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "key-from-env", cfg.Broker.APIKey)
	assert.Equal(t, "secret-from-env", cfg.Broker.APISecret)
}

func TestLoad_MissingFileIsAnError(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package config

import (
	"fmt"
	"os"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration. Secrets come from the
// environment, never from the YAML file.
type Config struct {
	Broker struct {
		Type       string `yaml:"type"` // "gmo" or "offline"
		APIKey     string `yaml:"-"`
		APISecret  string `yaml:"-"`
		PublicURL  string `yaml:"public_url"`
		PrivateURL string `yaml:"private_url"`
		WSURL      string `yaml:"ws_url"`
	} `yaml:"broker"`

	// EnableLiveTrading is only half of the interlock; the
	// LIVE_TRADING_ARMED environment signal must agree before any real
	// order is sent.
	EnableLiveTrading bool     `yaml:"enable_live_trading"`
	TargetSymbols     []string `yaml:"target_symbols"`
	IntervalSeconds   int      `yaml:"interval_seconds"`

	Sizing struct {
		MinOrderSize float64 `yaml:"min_order_size"`
		SizeStep     float64 `yaml:"size_step"`
	} `yaml:"sizing"`

	Risk struct {
		MaxLeverage           float64 `yaml:"max_leverage"`
		KillSwitchMarginPct   float64 `yaml:"kill_switch_margin_pct"`
		MaxPositionsPerSymbol int     `yaml:"max_positions_per_symbol"`
		CooldownMinutes       int     `yaml:"cooldown_minutes"`
	} `yaml:"risk"`

	Strategy struct {
		VixThreshold            float64 `yaml:"vix_threshold"`
		DecisionIntervalMinutes int     `yaml:"decision_interval_minutes"`
		NewsLimit               int     `yaml:"news_limit"`
	} `yaml:"strategy"`

	Providers struct {
		SwapInfoURL   string  `yaml:"swap_info_url"`
		VixTTLMinutes int     `yaml:"vix_ttl_minutes"`
		VixFallback   float64 `yaml:"vix_fallback"`
		ManualSwap    struct {
			UpdatedAt string                       `yaml:"updated_at"`
			Points    map[string]domain.SwapPoints `yaml:"points"`
		} `yaml:"manual_swap"`
	} `yaml:"providers"`

	Audit struct {
		Path string `yaml:"path"`
	} `yaml:"audit"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// Load reads config from a YAML file, applies environment overrides for
// secrets, and fills conservative defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.Broker.APIKey = os.Getenv("GMO_API_KEY")
	cfg.Broker.APISecret = os.Getenv("GMO_API_SECRET")

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Broker.Type == "" {
		c.Broker.Type = "offline"
	}
	if len(c.TargetSymbols) == 0 {
		c.TargetSymbols = []string{"USD_JPY"}
	}
	if c.IntervalSeconds <= 0 {
		c.IntervalSeconds = 60
	}
	if c.Sizing.MinOrderSize <= 0 {
		c.Sizing.MinOrderSize = 1000
	}
	if c.Sizing.SizeStep <= 0 {
		c.Sizing.SizeStep = 1000
	}
	if c.Audit.Path == "" {
		c.Audit.Path = "trade_audit.jsonl"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "bot.db"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

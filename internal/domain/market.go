package domain

import "time"

type Side string

const (
	SideLong  Side = "LONG"
	SideShort Side = "SHORT"
)

// MarketSnapshot is the per-cycle view of one symbol. Swap and
// volatility fields may be overwritten by provider-chain results after
// the base quote is fetched.
type MarketSnapshot struct {
	Symbol          string    `json:"symbol"`
	Timestamp       time.Time `json:"timestamp"`
	Bid             float64   `json:"bid"`
	Ask             float64   `json:"ask"`
	SwapLongPerDay  float64   `json:"swap_long_per_day"`
	SwapShortPerDay float64   `json:"swap_short_per_day"`
	Volatility      float64   `json:"volatility,omitempty"`
}

// SymbolSpec carries the broker's order-size rules for one symbol.
type SymbolSpec struct {
	Symbol       string  `json:"symbol"`
	MinOrderSize float64 `json:"min_order_size"`
	SizeStep     float64 `json:"size_step"`
}

// AccountState is a read-only snapshot of margin account health.
type AccountState struct {
	Balance              float64 `json:"balance"`
	MarginUsed           float64 `json:"margin_used"`
	MaxLeverage          float64 `json:"max_leverage"`
	MarginMaintenancePct float64 `json:"margin_maintenance_pct"`
}

// PositionSummary is one open position as reported by the broker. The
// broker is the sole source of truth; summaries are never cached across
// cycles.
type PositionSummary struct {
	Symbol        string  `json:"symbol"`
	Side          Side    `json:"side"`
	Amount        float64 `json:"amount"`
	AvgEntryPrice float64 `json:"avg_entry_price"`
	CurrentPrice  float64 `json:"current_price"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Leverage      float64 `json:"leverage"`
}

// SwapPoints is the daily carry for holding a position overnight.
type SwapPoints struct {
	Long  float64 `json:"long"`
	Short float64 `json:"short"`
}

type NewsItem struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	PublishedAt time.Time `json:"published_at"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
}

// RiskEnvironment is the precomputed risk context handed to the
// decision generator.
type RiskEnvironment struct {
	VixIndex    float64 `json:"vix_index"`
	RiskOffFlag bool    `json:"risk_off_flag"`
}

// DecisionRequest is the payload sent to the external decision
// generator. The core treats the generator as opaque; any failure on
// its side degrades to HOLD.
type DecisionRequest struct {
	RequestID   string            `json:"request_id"`
	GeneratedAt time.Time         `json:"generated_at"`
	Market      *MarketSnapshot   `json:"market"`
	RiskEnv     RiskEnvironment   `json:"risk_env"`
	Positions   []PositionSummary `json:"positions"`
	News        []NewsItem        `json:"news"`
}

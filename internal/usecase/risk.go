package usecase

import (
	"fmt"
	"sync"
	"time"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultMaxLeverage      = 25.0
	defaultKillSwitchPct    = 1.0
	defaultCooldownDuration = time.Hour
)

// RiskConfig bounds what the risk manager lets through. Zero values
// resolve to the most conservative defaults, not to "unlimited".
type RiskConfig struct {
	MaxLeverage           float64
	KillSwitchMarginPct   float64
	MaxPositionsPerSymbol int
	CooldownDuration      time.Duration
}

// RiskManager gates every proposed action against account health and
// position limits. It can only make an action more conservative: force
// HOLD or cap leverage, never upgrade a HOLD or raise leverage. A
// critical margin level trips a timed kill switch; the cooldown is
// checked lazily on the next health query, not by a background timer.
type RiskManager struct {
	maxLeverage   float64
	killSwitchPct float64
	maxPositions  int
	cooldown      time.Duration
	log           *zap.Logger
	now           func() time.Time

	mu          sync.Mutex
	cooldownEnd time.Time
}

func NewRiskManager(cfg RiskConfig, log *zap.Logger) *RiskManager {
	if cfg.MaxLeverage <= 0 {
		cfg.MaxLeverage = defaultMaxLeverage
	}
	if cfg.KillSwitchMarginPct <= 0 {
		cfg.KillSwitchMarginPct = defaultKillSwitchPct
	}
	if cfg.MaxPositionsPerSymbol <= 0 {
		cfg.MaxPositionsPerSymbol = 1
	}
	if cfg.CooldownDuration <= 0 {
		cfg.CooldownDuration = defaultCooldownDuration
	}
	return &RiskManager{
		maxLeverage:   cfg.MaxLeverage,
		killSwitchPct: cfg.KillSwitchMarginPct,
		maxPositions:  cfg.MaxPositionsPerSymbol,
		cooldown:      cfg.CooldownDuration,
		log:           log,
		now:           time.Now,
	}
}

// CheckAccountHealth reports whether trading may proceed. An active
// cooldown wins over a recovered account.
func (r *RiskManager) CheckAccountHealth(state *domain.AccountState) (bool, string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if now.Before(r.cooldownEnd) {
		return false, fmt.Sprintf("COOLDOWN: active until %s", r.cooldownEnd.UTC().Format(time.RFC3339))
	}

	if state.MarginMaintenancePct < r.killSwitchPct {
		r.cooldownEnd = now.Add(r.cooldown)
		r.log.Error("KILL SWITCH TRIGGERED",
			zap.Float64("margin_maintenance_pct", state.MarginMaintenancePct),
			zap.Float64("threshold", r.killSwitchPct),
			zap.Duration("cooldown", r.cooldown))
		return false, fmt.Sprintf("CRITICAL: margin level too low (%.2f%%)", state.MarginMaintenancePct*100)
	}

	return true, "OK"
}

// Validate returns the action, possibly replaced by a more conservative
// copy. The input is never mutated; an override carries the original
// action type in its metadata.
func (r *RiskManager) Validate(action domain.TradeAction, positions []domain.PositionSummary) domain.TradeAction {
	if action.Action == domain.ActionExit || action.Action == domain.ActionHold {
		return action
	}

	onSymbol := 0
	for _, p := range positions {
		if p.Symbol == action.Symbol {
			onSymbol++
		}
	}
	if onSymbol >= r.maxPositions {
		r.log.Warn("risk override: max positions reached",
			zap.String("symbol", action.Symbol),
			zap.Int("open", onSymbol),
			zap.Int("limit", r.maxPositions))
		return r.overrideToHold(action, "Max positions reached")
	}

	if action.SuggestedLeverage > r.maxLeverage {
		r.log.Warn("risk override: leverage capped",
			zap.Float64("suggested", action.SuggestedLeverage),
			zap.Float64("cap", r.maxLeverage))
		action.SuggestedLeverage = r.maxLeverage
	}

	return action
}

func (r *RiskManager) overrideToHold(action domain.TradeAction, reason string) domain.TradeAction {
	overridden := action
	overridden.Action = domain.ActionHold
	overridden.Rationale = fmt.Sprintf("[RISK MANAGER OVERRIDE] %s. (Original: %s)", reason, action.Action)
	overridden.Override = &domain.RiskOverride{Reason: reason, Original: action.Action}
	return overridden
}

package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

const (
	defaultVixThreshold     = 20.0
	defaultDecisionInterval = time.Hour
	defaultNewsLimit        = 5
)

type StrategyConfig struct {
	VixThreshold     float64
	DecisionInterval time.Duration
	NewsLimit        int
}

// StrategyEngine owns the decision boundary: it assembles the payload
// for the external decision generator, throttles how often the
// generator is consulted, and degrades every generator failure to a
// HOLD action. The generator can never abort a cycle.
type StrategyEngine struct {
	market  *MarketService
	news    domain.NewsSource
	decider domain.DecisionClient
	risk    *RiskManager

	vixThreshold     float64
	decisionInterval time.Duration
	newsLimit        int

	log *zap.Logger
	now func() time.Time

	mu       sync.Mutex
	lastCall map[string]time.Time
}

func NewStrategyEngine(market *MarketService, news domain.NewsSource, decider domain.DecisionClient, risk *RiskManager, cfg StrategyConfig, log *zap.Logger) *StrategyEngine {
	if cfg.VixThreshold <= 0 {
		cfg.VixThreshold = defaultVixThreshold
	}
	if cfg.DecisionInterval <= 0 {
		cfg.DecisionInterval = defaultDecisionInterval
	}
	if cfg.NewsLimit <= 0 {
		cfg.NewsLimit = defaultNewsLimit
	}
	return &StrategyEngine{
		market:           market,
		news:             news,
		decider:          decider,
		risk:             risk,
		vixThreshold:     cfg.VixThreshold,
		decisionInterval: cfg.DecisionInterval,
		newsLimit:        cfg.NewsLimit,
		log:              log,
		now:              time.Now,
		lastCall:         make(map[string]time.Time),
	}
}

// NextAction runs one analysis cycle for a symbol and returns the
// risk-validated action to execute.
func (e *StrategyEngine) NextAction(ctx context.Context, symbol string) domain.TradeAction {
	e.log.Info("starting analysis cycle", zap.String("symbol", symbol))

	snapshot, err := e.market.Snapshot(ctx, symbol)
	if err != nil {
		return e.holdAction(symbol, fmt.Sprintf("market data unavailable: %v", err))
	}
	positions, err := e.market.Positions(ctx)
	if err != nil {
		return e.holdAction(symbol, fmt.Sprintf("positions unavailable: %v", err))
	}
	account, err := e.market.AccountState(ctx)
	if err != nil {
		return e.holdAction(symbol, fmt.Sprintf("account state unavailable: %v", err))
	}

	if healthy, reason := e.risk.CheckAccountHealth(account); !healthy {
		e.log.Error("account unhealthy, forcing exit",
			zap.String("symbol", symbol), zap.String("reason", reason))
		return domain.TradeAction{
			Action:    domain.ActionExit,
			Symbol:    symbol,
			RequestID: uuid.NewString(),
			RiskLevel: 10,
			Rationale: "EMERGENCY EXIT: " + reason,
		}
	}

	vix := e.market.Vix(ctx)
	snapshot.Volatility = vix
	riskOff := vix > e.vixThreshold

	// Decision calls cost money; outside a risk-off market they are
	// throttled to the configured interval per symbol.
	e.mu.Lock()
	last := e.lastCall[symbol]
	e.mu.Unlock()
	if !riskOff && e.now().Sub(last) < e.decisionInterval {
		e.log.Info("skipping decision call",
			zap.String("symbol", symbol),
			zap.Duration("since_last", e.now().Sub(last)),
			zap.Duration("interval", e.decisionInterval))
		return e.holdAction(symbol, "skipping decision call to save cost (time interval)")
	}

	news, err := e.news.RecentNews(ctx, symbol, e.newsLimit)
	if err != nil {
		e.log.Warn("news fetch failed, proceeding without", zap.Error(err))
		news = nil
	}

	req := &domain.DecisionRequest{
		RequestID:   uuid.NewString(),
		GeneratedAt: e.now().UTC(),
		Market:      snapshot,
		RiskEnv:     domain.RiskEnvironment{VixIndex: vix, RiskOffFlag: riskOff},
		Positions:   positions,
		News:        news,
	}

	var action domain.TradeAction
	decided, err := e.decider.Decide(ctx, req)
	if err != nil || decided == nil {
		e.log.Error("decision generator failed, falling back to HOLD", zap.Error(err))
		action = e.holdAction(symbol, fmt.Sprintf("decision generator failed: %v", err))
	} else {
		action = *decided
		e.mu.Lock()
		e.lastCall[symbol] = e.now()
		e.mu.Unlock()
	}

	if action.RequestID == "" {
		action.RequestID = req.RequestID
	}
	if action.Symbol == "" {
		action.Symbol = symbol
	}

	final := e.risk.Validate(action, positions)
	e.log.Info("final decision",
		zap.String("symbol", symbol),
		zap.String("action", string(final.Action)),
		zap.Bool("overridden", final.Override != nil))
	return final
}

func (e *StrategyEngine) holdAction(symbol, reason string) domain.TradeAction {
	return domain.TradeAction{
		Action:            domain.ActionHold,
		Symbol:            symbol,
		SuggestedLeverage: 1.0,
		RequestID:         uuid.NewString(),
		RiskLevel:         1,
		Rationale:         reason,
	}
}

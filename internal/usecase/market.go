package usecase

import (
	"context"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

// MarketService assembles the per-cycle market view: the broker quote
// enriched with provider-chain volatility and swap data. Enrichment
// failures degrade to conservative defaults and never abort a cycle.
type MarketService struct {
	broker domain.Broker
	vix    *VixChain
	swap   *SwapChain
	log    *zap.Logger
}

func NewMarketService(broker domain.Broker, vix *VixChain, swap *SwapChain, log *zap.Logger) *MarketService {
	return &MarketService{broker: broker, vix: vix, swap: swap, log: log}
}

// Snapshot fetches the base quote and overlays swap points from the
// chain when available. A missing swap result leaves the quote's zero
// values in place, which consumers read as "no data".
func (m *MarketService) Snapshot(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	snapshot, err := m.broker.Quote(ctx, symbol)
	if err != nil {
		return nil, err
	}

	if points := m.swap.Resolve(ctx, symbol); points != nil {
		snapshot.SwapLongPerDay = points.Long
		snapshot.SwapShortPerDay = points.Short
	}

	return snapshot, nil
}

// Vix resolves the volatility index through the chain; the chain's
// high-safety fallback applies when every source is down.
func (m *MarketService) Vix(ctx context.Context) float64 {
	return m.vix.Resolve(ctx)
}

func (m *MarketService) Positions(ctx context.Context) ([]domain.PositionSummary, error) {
	return m.broker.Positions(ctx)
}

func (m *MarketService) AccountState(ctx context.Context) (*domain.AccountState, error) {
	return m.broker.AccountState(ctx)
}

package broker

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

// OfflineBroker simulates trading in memory: instant fills, no network.
// It is the default broker so a misconfigured deployment cannot touch a
// real account.
type OfflineBroker struct {
	mu        sync.Mutex
	positions []domain.PositionSummary
	balance   float64
	log       *zap.Logger
}

func NewOfflineBroker(balance float64, log *zap.Logger) *OfflineBroker {
	if balance <= 0 {
		balance = 1_000_000.0
	}
	return &OfflineBroker{balance: balance, log: log}
}

func (b *OfflineBroker) Quote(ctx context.Context, symbol string) (*domain.MarketSnapshot, error) {
	return &domain.MarketSnapshot{
		Symbol:          symbol,
		Timestamp:       time.Now().UTC(),
		Bid:             150.00,
		Ask:             150.05,
		SwapLongPerDay:  0.15,
		SwapShortPerDay: -0.20,
		Volatility:      0.0035,
	}, nil
}

func (b *OfflineBroker) Positions(ctx context.Context) ([]domain.PositionSummary, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]domain.PositionSummary, len(b.positions))
	copy(out, b.positions)
	return out, nil
}

func (b *OfflineBroker) AccountState(ctx context.Context) (*domain.AccountState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var marginUsed float64
	for _, p := range b.positions {
		marginUsed += p.Amount * p.AvgEntryPrice / gmoFixedLeverage
	}
	maintenance := 9.99
	if marginUsed > 0 {
		maintenance = b.balance / marginUsed
	}

	return &domain.AccountState{
		Balance:              b.balance,
		MarginUsed:           marginUsed,
		MaxLeverage:          gmoFixedLeverage,
		MarginMaintenancePct: maintenance,
	}, nil
}

func (b *OfflineBroker) Place(ctx context.Context, action domain.TradeAction) (*domain.ExecutionOutcome, error) {
	if action.Units <= 0 {
		return domain.NewOutcome(domain.StatusHold, action.RequestID, map[string]any{
			"reason": "invalid units",
		}), nil
	}

	snapshot, _ := b.Quote(ctx, action.Symbol)
	price := snapshot.Bid
	side := domain.SideShort
	if action.Action == domain.ActionBuy {
		price = snapshot.Ask
		side = domain.SideLong
	}

	b.mu.Lock()
	b.positions = append(b.positions, domain.PositionSummary{
		Symbol:        action.Symbol,
		Side:          side,
		Amount:        action.Units,
		AvgEntryPrice: price,
		CurrentPrice:  price,
		Leverage:      action.SuggestedLeverage,
	})
	b.mu.Unlock()

	orderID := uuid.NewString()
	b.log.Info("offline order executed",
		zap.String("symbol", action.Symbol),
		zap.String("action", string(action.Action)),
		zap.Float64("units", action.Units),
		zap.Float64("price", price))

	return &domain.ExecutionOutcome{
		Status:    domain.StatusExecuted,
		OrderID:   orderID,
		RequestID: action.RequestID,
		Details:   map[string]any{"mock_price": price, "units": action.Units},
		Timestamp: time.Now().UTC(),
	}, nil
}

func (b *OfflineBroker) Close(ctx context.Context, symbol string, amount float64) (*domain.ExecutionOutcome, error) {
	b.mu.Lock()
	kept := b.positions[:0]
	closed := 0
	for _, p := range b.positions {
		if p.Symbol == symbol {
			closed++
			continue
		}
		kept = append(kept, p)
	}
	b.positions = kept
	b.mu.Unlock()

	if closed == 0 {
		return domain.NewOutcome(domain.StatusClosedAll, "", map[string]any{
			"msg": "no positions found",
		}), nil
	}

	return domain.NewOutcome(domain.StatusClosedAll, "", map[string]any{
		"closed_count": closed,
	}), nil
}

func (b *OfflineBroker) SymbolSpec(ctx context.Context, symbol string) (*domain.SymbolSpec, error) {
	return &domain.SymbolSpec{Symbol: symbol, MinOrderSize: 1000, SizeStep: 1000}, nil
}

package broker

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

func TestOfflineBroker_PlaceAndClose(t *testing.T) {
	b := NewOfflineBroker(0, zap.NewNop())
	ctx := context.Background()

	outcome, err := b.Place(ctx, domain.TradeAction{
		Action: domain.ActionBuy, Symbol: "USD_JPY", Units: 10000, RequestID: "req-1",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExecuted, outcome.Status)
	assert.NotEmpty(t, outcome.OrderID)

	positions, err := b.Positions(ctx)
	require.NoError(t, err)
	require.Len(t, positions, 1)
	assert.Equal(t, domain.SideLong, positions[0].Side)
	assert.Equal(t, 10000.0, positions[0].Amount)

	outcome, err = b.Close(ctx, "USD_JPY", 0)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosedAll, outcome.Status)

	positions, err = b.Positions(ctx)
	require.NoError(t, err)
	assert.Empty(t, positions)
}

func TestOfflineBroker_CloseOnlyTouchesSymbol(t *testing.T) {
	b := NewOfflineBroker(0, zap.NewNop())
	ctx := context.Background()

	b.Place(ctx, domain.TradeAction{Action: domain.ActionBuy, Symbol: "USD_JPY", Units: 10000})
	b.Place(ctx, domain.TradeAction{Action: domain.ActionSell, Symbol: "EUR_JPY", Units: 5000})

	_, err := b.Close(ctx, "USD_JPY", 0)
	require.NoError(t, err)

	positions, _ := b.Positions(ctx)
	require.Len(t, positions, 1)
	assert.Equal(t, "EUR_JPY", positions[0].Symbol)
}

func TestOfflineBroker_AccountReflectsOpenMargin(t *testing.T) {
	b := NewOfflineBroker(1000000, zap.NewNop())
	ctx := context.Background()

	state, err := b.AccountState(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1000000.0, state.Balance)
	assert.Zero(t, state.MarginUsed)

	b.Place(ctx, domain.TradeAction{Action: domain.ActionBuy, Symbol: "USD_JPY", Units: 10000})

	state, err = b.AccountState(ctx)
	require.NoError(t, err)
	assert.Greater(t, state.MarginUsed, 0.0)
	assert.Greater(t, state.MarginMaintenancePct, 1.0)
}

func TestOfflineBroker_ZeroUnitsIsHold(t *testing.T) {
	b := NewOfflineBroker(0, zap.NewNop())

	outcome, err := b.Place(context.Background(), domain.TradeAction{
		Action: domain.ActionBuy, Symbol: "USD_JPY",
	})

	require.NoError(t, err)
	assert.Equal(t, domain.StatusHold, outcome.Status)
}

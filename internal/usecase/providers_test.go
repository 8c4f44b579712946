package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"github.com/vitos/fx_margin_trader/internal/usecase"
	"go.uber.org/zap"
)

func TestVixChain_FirstUsableValueWins(t *testing.T) {
	chain := usecase.NewVixChain([]domain.VixSource{
		&fixedVix{name: "primary", err: domain.ErrUnavailable},
		&fixedVix{name: "secondary", value: 18.4},
		&fixedVix{name: "tertiary", value: 99.0},
	}, 0, zap.NewNop())

	assert.Equal(t, 18.4, chain.Resolve(context.Background()))
}

func TestVixChain_AllFailedFallsBackHigh(t *testing.T) {
	chain := usecase.NewVixChain([]domain.VixSource{
		&fixedVix{name: "primary", err: domain.ErrUnavailable},
		&fixedVix{name: "secondary", err: domain.ErrUnavailable},
	}, 0, zap.NewNop())

	// The fallback must read as risk-off, never as a calm market.
	value := chain.Resolve(context.Background())
	assert.Equal(t, usecase.DefaultVixFallback, value)
	assert.Greater(t, value, 20.0)
}

func TestVixChain_EmptyChainUsesFallback(t *testing.T) {
	chain := usecase.NewVixChain(nil, 30.0, zap.NewNop())
	assert.Equal(t, 30.0, chain.Resolve(context.Background()))
}

func TestSwapChain_FallsThroughToNextSource(t *testing.T) {
	want := &domain.SwapPoints{Long: 0.15, Short: -0.20}
	chain := usecase.NewSwapChain([]domain.SwapSource{
		&fixedSwap{name: "http", err: domain.ErrUnavailable},
		&fixedSwap{name: "manual", points: want},
	}, zap.NewNop())

	got := chain.Resolve(context.Background(), "USD_JPY")
	require.NotNil(t, got)
	assert.Equal(t, want.Long, got.Long)
	assert.Equal(t, want.Short, got.Short)
}

func TestSwapChain_AllFailedReturnsNil(t *testing.T) {
	chain := usecase.NewSwapChain([]domain.SwapSource{
		&fixedSwap{name: "http", err: domain.ErrUnavailable},
		&fixedSwap{name: "manual", err: domain.ErrUnavailable},
	}, zap.NewNop())

	// Unknown carry must surface as nil, not as zero-cost swap points.
	assert.Nil(t, chain.Resolve(context.Background(), "USD_JPY"))
}

package usecase

import (
	"context"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

// DefaultVixFallback is deliberately high: when every source fails, the
// system should assume a risk-off environment, never an optimistic one.
const DefaultVixFallback = 25.0

// VixChain resolves a volatility index from an ordered list of sources.
// The first usable value wins; if all sources fail, the configured
// high-safety fallback is returned.
type VixChain struct {
	sources  []domain.VixSource
	fallback float64
	log      *zap.Logger
}

func NewVixChain(sources []domain.VixSource, fallback float64, log *zap.Logger) *VixChain {
	if fallback <= 0 {
		fallback = DefaultVixFallback
	}
	return &VixChain{sources: sources, fallback: fallback, log: log}
}

func (c *VixChain) Resolve(ctx context.Context) float64 {
	for _, src := range c.sources {
		value, err := src.FetchVix(ctx)
		if err != nil {
			c.log.Warn("vix source unavailable",
				zap.String("source", src.Name()), zap.Error(err))
			continue
		}
		return value
	}
	c.log.Warn("all vix sources failed, using safety fallback",
		zap.Float64("fallback", c.fallback))
	return c.fallback
}

// SwapChain resolves daily swap points. When every source fails it
// returns nil, forcing the consumer to treat the carry as unknown
// rather than assuming zero cost.
type SwapChain struct {
	sources []domain.SwapSource
	log     *zap.Logger
}

func NewSwapChain(sources []domain.SwapSource, log *zap.Logger) *SwapChain {
	return &SwapChain{sources: sources, log: log}
}

func (c *SwapChain) Resolve(ctx context.Context, symbol string) *domain.SwapPoints {
	for _, src := range c.sources {
		points, err := src.SwapPoints(ctx, symbol)
		if err != nil {
			c.log.Warn("swap source unavailable",
				zap.String("source", src.Name()),
				zap.String("symbol", symbol),
				zap.Error(err))
			continue
		}
		return points
	}
	c.log.Warn("all swap sources failed, carry is unknown", zap.String("symbol", symbol))
	return nil
}

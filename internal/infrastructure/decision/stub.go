package decision

import (
	"context"

	"github.com/vitos/fx_margin_trader/internal/domain"
)

// StaticClient is a deterministic stand-in for the external decision
// generator: it always proposes HOLD. Real deployments plug a live
// generator in behind domain.DecisionClient; the execution layer does
// not care which.
type StaticClient struct{}

func NewStaticClient() *StaticClient { return &StaticClient{} }

func (c *StaticClient) Decide(ctx context.Context, req *domain.DecisionRequest) (*domain.TradeAction, error) {
	return &domain.TradeAction{
		Action:            domain.ActionHold,
		Symbol:            req.Market.Symbol,
		SuggestedLeverage: 1.0,
		RequestID:         req.RequestID,
		RiskLevel:         1,
		Rationale:         "static decision client: no generator configured",
	}, nil
}

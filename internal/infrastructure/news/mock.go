package news

import (
	"context"
	"time"

	"github.com/vitos/fx_margin_trader/internal/domain"
)

// MockSource returns a fixed headline. Used when no real news feed is
// configured so the decision payload keeps its shape.
type MockSource struct{}

func NewMockSource() *MockSource { return &MockSource{} }

func (s *MockSource) RecentNews(ctx context.Context, symbol string, limit int) ([]domain.NewsItem, error) {
	return []domain.NewsItem{
		{
			ID:          "mock_1",
			Source:      "MockWire",
			PublishedAt: time.Now().UTC(),
			Title:       symbol + " stable",
			Body:        "Market is waiting for the next central bank meeting.",
		},
	}, nil
}

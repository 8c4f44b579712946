package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

// FixedVixSource returns a constant. Used as the tail of the chain; the
// default leans high so a total outage biases downstream risk logic
// toward caution.
type FixedVixSource struct {
	Value float64
}

func (s *FixedVixSource) Name() string { return "fixed" }

func (s *FixedVixSource) FetchVix(ctx context.Context) (float64, error) {
	return s.Value, nil
}

const yahooVixURL = "https://query1.finance.yahoo.com/v8/finance/chart/%5EVIX?interval=1d&range=1d"

// YahooVixSource fetches the VIX close from the Yahoo Finance chart
// API, caching the value for a TTL so the chain can be consulted every
// cycle without hammering the endpoint.
type YahooVixSource struct {
	client *http.Client
	log    *zap.Logger
	ttl    time.Duration

	mu        sync.Mutex
	lastValue float64
	fetchedAt time.Time
}

func NewYahooVixSource(ttl time.Duration, log *zap.Logger) *YahooVixSource {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &YahooVixSource{
		client: &http.Client{Timeout: 30 * time.Second},
		log:    log,
		ttl:    ttl,
	}
}

func (s *YahooVixSource) Name() string { return "yahoo" }

func (s *YahooVixSource) FetchVix(ctx context.Context) (float64, error) {
	s.mu.Lock()
	if !s.fetchedAt.IsZero() && time.Since(s.fetchedAt) < s.ttl {
		v := s.lastValue
		s.mu.Unlock()
		return v, nil
	}
	s.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yahooVixURL, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("vix fetch failed", zap.Error(err))
		return 0, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: yahoo returned HTTP %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var chart struct {
		Chart struct {
			Result []struct {
				Meta struct {
					RegularMarketPrice float64 `json:"regularMarketPrice"`
				} `json:"meta"`
			} `json:"result"`
		} `json:"chart"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return 0, fmt.Errorf("%w: decode: %v", domain.ErrUnavailable, err)
	}
	if len(chart.Chart.Result) == 0 || chart.Chart.Result[0].Meta.RegularMarketPrice <= 0 {
		return 0, fmt.Errorf("%w: empty chart result", domain.ErrUnavailable)
	}

	value := chart.Chart.Result[0].Meta.RegularMarketPrice

	s.mu.Lock()
	s.lastValue = value
	s.fetchedAt = time.Now()
	s.mu.Unlock()

	return value, nil
}

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

const (
	manualSwapWarnAge  = 7 * 24 * time.Hour
	manualSwapStaleAge = 14 * 24 * time.Hour
)

// ManualSwapSource serves swap points from a static table maintained by
// hand. The table carries a last-updated date: past the warning age the
// data is still served but logged, past the stale age it is treated as
// unavailable.
type ManualSwapSource struct {
	table     map[string]domain.SwapPoints
	updatedAt time.Time
	parseErr  error
	log       *zap.Logger
	now       func() time.Time
}

func NewManualSwapSource(table map[string]domain.SwapPoints, updatedAt string, log *zap.Logger) *ManualSwapSource {
	s := &ManualSwapSource{table: table, log: log, now: time.Now}
	t, err := time.Parse("2006-01-02", updatedAt)
	if err != nil {
		s.parseErr = err
		log.Error("invalid date in manual swap settings", zap.String("updated_at", updatedAt))
		return s
	}
	s.updatedAt = t

	age := time.Since(t)
	switch {
	case age > manualSwapStaleAge:
		log.Error("manual swap settings are too old and will be ignored",
			zap.Duration("age", age))
	case age > manualSwapWarnAge:
		log.Warn("manual swap settings are getting old", zap.Duration("age", age))
	}
	return s
}

func (s *ManualSwapSource) Name() string { return "manual" }

func (s *ManualSwapSource) SwapPoints(ctx context.Context, symbol string) (*domain.SwapPoints, error) {
	if s.parseErr != nil {
		return nil, fmt.Errorf("%w: bad updated_at: %v", domain.ErrUnavailable, s.parseErr)
	}
	if s.now().Sub(s.updatedAt) > manualSwapStaleAge {
		return nil, fmt.Errorf("%w: manual swap table older than %s", domain.ErrUnavailable, manualSwapStaleAge)
	}
	points, ok := s.table[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no manual swap entry for %s", domain.ErrUnavailable, symbol)
	}
	return &points, nil
}

// swapFeed is the JSON document served by an external swap-points URL.
type swapFeed struct {
	Meta struct {
		TimestampUTC string `json:"timestamp_utc"`
		TTLSeconds   int    `json:"ttl_seconds"`
	} `json:"meta"`
	SwapPoints map[string]domain.SwapPoints `json:"swap_points"`
}

// HTTPSwapSource fetches swap points from a JSON URL. The document's
// own meta.timestamp_utc + meta.ttl_seconds decide staleness; a stale
// document is unavailable, not served.
type HTTPSwapSource struct {
	sourceURL string
	client    *http.Client
	log       *zap.Logger

	mu    sync.Mutex
	cache *swapFeed
}

func NewHTTPSwapSource(sourceURL string, log *zap.Logger) *HTTPSwapSource {
	return &HTTPSwapSource{
		sourceURL: sourceURL,
		client:    &http.Client{Timeout: 10 * time.Second},
		log:       log,
	}
}

func (s *HTTPSwapSource) Name() string { return "http" }

func (s *HTTPSwapSource) SwapPoints(ctx context.Context, symbol string) (*domain.SwapPoints, error) {
	if s.sourceURL == "" {
		return nil, fmt.Errorf("%w: no swap URL configured", domain.ErrUnavailable)
	}

	s.mu.Lock()
	cached := s.cache
	s.mu.Unlock()

	if cached != nil {
		if points, err := lookupFresh(cached, symbol, time.Now()); err == nil {
			return points, nil
		}
	}

	feed, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	points, err := lookupFresh(feed, symbol, time.Now())
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.cache = feed
	s.mu.Unlock()

	return points, nil
}

func (s *HTTPSwapSource) fetch(ctx context.Context) (*swapFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		s.log.Warn("swap feed fetch failed", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: swap feed returned HTTP %d", domain.ErrUnavailable, resp.StatusCode)
	}

	var feed swapFeed
	if err := json.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("%w: decode swap feed: %v", domain.ErrUnavailable, err)
	}
	if feed.Meta.TimestampUTC == "" || feed.Meta.TTLSeconds <= 0 {
		return nil, fmt.Errorf("%w: swap feed missing meta.timestamp_utc or meta.ttl_seconds", domain.ErrUnavailable)
	}
	return &feed, nil
}

func lookupFresh(feed *swapFeed, symbol string, now time.Time) (*domain.SwapPoints, error) {
	ts, err := time.Parse(time.RFC3339, feed.Meta.TimestampUTC)
	if err != nil {
		return nil, fmt.Errorf("%w: bad swap feed timestamp: %v", domain.ErrUnavailable, err)
	}
	if now.After(ts.Add(time.Duration(feed.Meta.TTLSeconds) * time.Second)) {
		return nil, fmt.Errorf("%w: swap feed is stale (timestamp %s, ttl %ds)",
			domain.ErrUnavailable, feed.Meta.TimestampUTC, feed.Meta.TTLSeconds)
	}
	points, ok := feed.SwapPoints[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: no swap entry for %s", domain.ErrUnavailable, symbol)
	}
	return &points, nil
}

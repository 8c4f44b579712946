package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/fx_margin_trader/internal/domain"
	"go.uber.org/zap"
)

var usdJpyPoints = map[string]domain.SwapPoints{
	"USD_JPY": {Long: 0.15, Short: -0.20},
}

func TestManualSwap_FreshTableIsServed(t *testing.T) {
	updated := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	src := NewManualSwapSource(usdJpyPoints, updated, zap.NewNop())

	points, err := src.SwapPoints(context.Background(), "USD_JPY")

	require.NoError(t, err)
	assert.Equal(t, 0.15, points.Long)
	assert.Equal(t, -0.20, points.Short)
}

func TestManualSwap_AgingTableIsStillServed(t *testing.T) {
	// Past the warning age but not yet stale: served with a log line.
	updated := time.Now().AddDate(0, 0, -10).Format("2006-01-02")
	src := NewManualSwapSource(usdJpyPoints, updated, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.NoError(t, err)
}

func TestManualSwap_StaleTableIsUnavailable(t *testing.T) {
	updated := time.Now().AddDate(0, 0, -30).Format("2006-01-02")
	src := NewManualSwapSource(usdJpyPoints, updated, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestManualSwap_BadDateIsUnavailable(t *testing.T) {
	src := NewManualSwapSource(usdJpyPoints, "not-a-date", zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestManualSwap_UnknownSymbolIsUnavailable(t *testing.T) {
	updated := time.Now().Format("2006-01-02")
	src := NewManualSwapSource(usdJpyPoints, updated, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "EUR_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func swapFeedBody(timestamp time.Time, ttlSeconds int) string {
	return fmt.Sprintf(`{
		"meta": {"timestamp_utc": %q, "ttl_seconds": %d},
		"swap_points": {"USD_JPY": {"long": 0.18, "short": -0.22}}
	}`, timestamp.UTC().Format(time.RFC3339), ttlSeconds)
}

func TestHTTPSwap_FreshFeedIsServedAndCached(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, swapFeedBody(time.Now(), 3600))
	}))
	defer server.Close()

	src := NewHTTPSwapSource(server.URL, zap.NewNop())

	for i := 0; i < 3; i++ {
		points, err := src.SwapPoints(context.Background(), "USD_JPY")
		require.NoError(t, err)
		assert.Equal(t, 0.18, points.Long)
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits), "fresh cache must not refetch")
}

func TestHTTPSwap_StaleFeedIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, swapFeedBody(time.Now().Add(-2*time.Hour), 3600))
	}))
	defer server.Close()

	src := NewHTTPSwapSource(server.URL, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable),
		"a document past its own ttl must not be served")
}

func TestHTTPSwap_MissingMetaIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"swap_points": {"USD_JPY": {"long": 0.1, "short": -0.1}}}`)
	}))
	defer server.Close()

	src := NewHTTPSwapSource(server.URL, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestHTTPSwap_NoURLConfigured(t *testing.T) {
	src := NewHTTPSwapSource("", zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestHTTPSwap_ServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := NewHTTPSwapSource(server.URL, zap.NewNop())

	_, err := src.SwapPoints(context.Background(), "USD_JPY")
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

package providers

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFixedVixSource(t *testing.T) {
	src := &FixedVixSource{Value: 25.0}

	value, err := src.FetchVix(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 25.0, value)
	assert.Equal(t, "fixed", src.Name())
}

func TestYahooVix_ServesCachedValueWithinTTL(t *testing.T) {
	src := NewYahooVixSource(time.Hour, zap.NewNop())
	src.lastValue = 17.3
	src.fetchedAt = time.Now()

	value, err := src.FetchVix(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 17.3, value, "a warm cache must not hit the network")
}

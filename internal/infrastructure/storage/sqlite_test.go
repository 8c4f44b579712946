package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitos/fx_margin_trader/internal/domain"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_SaveAndList(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Truncate(time.Second)
	for i, status := range []domain.OutcomeStatus{domain.StatusExecuted, domain.StatusHold, domain.StatusClosedAll} {
		err := store.SaveExecution(ctx, &domain.AuditRecord{
			Timestamp:      base.Add(time.Duration(i) * time.Second),
			RequestID:      "req-" + string(rune('a'+i)),
			OrderID:        "order-1",
			Symbol:         "USD_JPY",
			Action:         domain.ActionBuy,
			Status:         status,
			Units:          10000,
			LiveConfigured: true,
			Details:        map[string]any{"note": "test"},
		})
		require.NoError(t, err)
	}

	records, err := store.ListExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 3)

	// Newest first.
	assert.Equal(t, domain.StatusClosedAll, records[0].Status)
	assert.Equal(t, "req-c", records[0].RequestID)
	assert.True(t, records[0].LiveConfigured)
	assert.False(t, records[0].LiveArmed)
	assert.Equal(t, "test", records[0].Details["note"])
}

func TestSQLiteStore_ListHonorsLimit(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.SaveExecution(ctx, &domain.AuditRecord{
			Timestamp: time.Now().UTC(),
			RequestID: "req",
			Symbol:    "USD_JPY",
			Action:    domain.ActionHold,
			Status:    domain.StatusHold,
		}))
	}

	records, err := store.ListExecutions(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSQLiteStore_EmptyList(t *testing.T) {
	store := newTestStore(t)

	records, err := store.ListExecutions(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

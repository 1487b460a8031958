package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sibyl/internal/decision"
	"sibyl/internal/strategy"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "sibyl.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCheckpointFirstSaveKeepsPair(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCheckpoint(ctx, strategy.Checkpoint{
		Pair: "BTC/USDT", Strategy: "rsi",
		Status: "ACTIVE", StartedAt: time.Now(),
	}))

	active, err := store.ActiveCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	// the inserted row must carry the pair, not an empty key.
	assert.Equal(t, "BTC/USDT", active[0].Pair)
	assert.Equal(t, "rsi", active[0].Strategy)
}

func TestCheckpointUpsertAndRestore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveCheckpoint(ctx, strategy.Checkpoint{
		Pair: "BTC/USDT", Strategy: "rsi",
		Params: strategy.Params{"period": 14.0},
		Status: "ACTIVE", StartedAt: time.Now(),
	}))
	// same pair again: must replace, not duplicate.
	require.NoError(t, store.SaveCheckpoint(ctx, strategy.Checkpoint{
		Pair: "BTC/USDT", Strategy: "stochastic",
		Params: strategy.Params{"k_period": 21.0},
		Status: "ACTIVE", StartedAt: time.Now(),
	}))
	require.NoError(t, store.SaveCheckpoint(ctx, strategy.Checkpoint{
		Pair: "ETH/USDT", Strategy: "bollinger",
		Status: "STOPPED", StartedAt: time.Now(),
	}))

	active, err := store.ActiveCheckpoints(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "BTC/USDT", active[0].Pair)
	assert.Equal(t, "stochastic", active[0].Strategy)
	assert.Equal(t, 21.0, active[0].Params["k_period"])
}

func TestExecutionLogRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry := decision.Entry{
		Index: 0,
		Decision: &decision.Decision{
			Action: decision.ActionDirectOrder,
			Asset:  "BTC",
			Side:   decision.SideBuy,
		},
	}
	store.RecordExecution(ctx, "batch-a", entry, decision.ExecutionResult{
		Index: 0, Asset: "BTC", Action: decision.ActionDirectOrder,
		Accepted: true, OrderID: "oid-1",
	})
	store.RecordExecution(ctx, "batch-a", decision.Entry{Index: 1}, decision.ExecutionResult{
		Index: 1, Accepted: false, Reason: "INSUFFICIENT_FUNDS",
	})

	rows, err := store.RecentExecutions(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// newest first
	assert.Equal(t, "INSUFFICIENT_FUNDS", rows[0].Reason)
	assert.Equal(t, "oid-1", rows[1].OrderID)
	assert.Equal(t, "batch-a", rows[1].BatchID)
}

func TestDecisionRecordDuplicateBatchIgnored(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.SaveDecisionRecord(ctx, "batch-b", `[{"action":"HOLD"}]`, 1))
	err := store.SaveDecisionRecord(ctx, "batch-b", `[{"action":"HOLD"}]`, 1)
	assert.NoError(t, err)
}

func TestNewsDigestLatest(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	latest, err := store.LatestNewsDigest(ctx)
	require.NoError(t, err)
	assert.Empty(t, latest)

	require.NoError(t, store.SaveNewsDigest(ctx, "sonar", "old digest"))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.SaveNewsDigest(ctx, "sonar", "new digest"))

	latest, err = store.LatestNewsDigest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "new digest", latest)
}

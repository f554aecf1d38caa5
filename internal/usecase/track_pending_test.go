package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

const testChainID = 11155111

func TestTrackPendingStatuses_Lifecycle(t *testing.T) {
	ctx := context.Background()
	hash := monitoredHash

	t.Run("mined entries are removed", func(t *testing.T) {
		store := &memoryStore{}
		bus := events.NewBus(discardLogger())
		tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
		require.NoError(t, tracker.Start(ctx))
		defer tracker.Stop()

		bus.Publish(events.KindExecuting, events.Event{TxID: "tx-1"})
		assert.Equal(t, models.PendingEntry{
			ChainID: testChainID,
			TxID:    "tx-1",
			Status:  models.PendingStatusSubmitting,
		}, store.snapshot()["tx-1"])

		bus.Publish(events.KindMining, events.Event{TxID: "tx-1", TxHash: &hash})
		entry := store.snapshot()["tx-1"]
		assert.Equal(t, models.PendingStatusMining, entry.Status)
		assert.Equal(t, hash.Hex(), entry.TxHash)

		bus.Publish(events.KindMined, events.Event{TxID: "tx-1", TxHash: &hash})
		assert.Empty(t, store.snapshot())
		assert.Empty(t, tracker.Entries())
	})

	t.Run("failures and reverts are removed", func(t *testing.T) {
		for _, kind := range []events.Kind{events.KindReverted, events.KindFailed} {
			store := &memoryStore{}
			bus := events.NewBus(discardLogger())
			tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
			require.NoError(t, tracker.Start(ctx))

			bus.Publish(events.KindExecuting, events.Event{TxID: "tx-1"})
			bus.Publish(kind, events.Event{TxID: "tx-1"})

			_, ok := tracker.Entry("tx-1")
			assert.False(t, ok, kind)
			tracker.Stop()
		}
	})

	t.Run("indexing mode waits for the backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.TrackIndexing = true
		store := &memoryStore{}
		bus := events.NewBus(discardLogger())
		tracker := usecase.NewTrackPendingStatuses(cfg, store, bus, nil, discardLogger())
		require.NoError(t, tracker.Start(ctx))
		defer tracker.Stop()

		bus.Publish(events.KindExecuting, events.Event{TxID: "tx-1", BatchID: "b"})
		bus.Publish(events.KindMining, events.Event{TxID: "tx-1", TxHash: &hash, BatchID: "b"})
		bus.Publish(events.KindMined, events.Event{TxID: "tx-1", TxHash: &hash, BatchID: "b"})

		entry, ok := tracker.Entry("tx-1")
		require.True(t, ok)
		assert.Equal(t, models.PendingStatusIndexing, entry.Status)
		assert.Equal(t, "b", entry.BatchID)

		bus.Publish(events.KindSuccess, events.Event{TxID: "tx-1"})
		assert.Empty(t, store.snapshot())
	})

	t.Run("unrelated events do not persist", func(t *testing.T) {
		store := &memoryStore{}
		bus := events.NewBus(discardLogger())
		tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
		require.NoError(t, tracker.Start(ctx))
		defer tracker.Stop()

		bus.Publish(events.KindProposed, events.Event{TxID: "tx-1"})
		bus.Publish(events.KindMined, events.Event{TxID: "tx-2"})

		assert.Equal(t, 0, store.writes)
	})

	t.Run("stop detaches from the bus", func(t *testing.T) {
		store := &memoryStore{}
		bus := events.NewBus(discardLogger())
		tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
		require.NoError(t, tracker.Start(ctx))
		tracker.Stop()

		bus.Publish(events.KindExecuting, events.Event{TxID: "tx-1"})
		assert.Empty(t, tracker.Entries())
	})
}

func TestTrackPendingStatuses_WritesFollowEventOrder(t *testing.T) {
	ctx := context.Background()
	hash := monitoredHash

	hold := make(chan struct{})
	store := &memoryStore{hold: hold, holding: make(chan struct{})}
	bus := events.NewBus(discardLogger())
	tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
	require.NoError(t, tracker.Start(ctx))
	defer tracker.Stop()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		bus.Publish(events.KindExecuting, events.Event{TxID: "tx-1"})
	}()
	<-store.holding

	go func() {
		defer wg.Done()
		bus.Publish(events.KindMining, events.Event{TxID: "tx-1", TxHash: &hash})
	}()
	time.Sleep(20 * time.Millisecond)
	close(hold)
	wg.Wait()

	entry, ok := tracker.Entry("tx-1")
	require.True(t, ok)
	assert.Equal(t, models.PendingStatusMining, entry.Status)
	assert.Equal(t, entry, store.snapshot()["tx-1"])
	assert.Equal(t, 2, store.writes)
}

func TestTrackPendingStatuses_Resume(t *testing.T) {
	ctx := context.Background()
	hash := monitoredHash

	store := &memoryStore{pending: models.PendingTxs{
		"single":  {ChainID: testChainID, TxID: "single", Status: models.PendingStatusMining, TxHash: hash.Hex()},
		"batch-a": {ChainID: testChainID, TxID: "batch-a", Status: models.PendingStatusMining, TxHash: hash.Hex(), BatchID: "b1"},
		"batch-b": {ChainID: testChainID, TxID: "batch-b", Status: models.PendingStatusMining, TxHash: hash.Hex(), BatchID: "b1"},
		"no-hash": {ChainID: testChainID, TxID: "no-hash", Status: models.PendingStatusMining},
		"other":   {ChainID: 1, TxID: "other", Status: models.PendingStatusMining, TxHash: hash.Hex()},
		"sending": {ChainID: testChainID, TxID: "sending", Status: models.PendingStatusSubmitting},
	}}

	chain := newFakeChain()
	chain.setReceipt(hash, types.ReceiptStatusSuccessful)
	bus := events.NewBus(discardLogger())
	rec := record(bus)
	monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())
	tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, monitor, discardLogger())
	require.NoError(t, tracker.Start(ctx))
	defer tracker.Stop()

	resumed, err := tracker.Resume(ctx)
	require.NoError(t, err)
	monitor.Wait()

	assert.Equal(t, 3, resumed)
	assert.True(t, monitor.IsWatching("single"))
	assert.True(t, monitor.IsWatching("batch-a"))
	assert.False(t, monitor.IsWatching("other"))
	assert.False(t, monitor.IsWatching("no-hash"))

	event, ok := rec.last(events.KindMined)
	require.True(t, ok)
	assert.NotEmpty(t, event.TxID)

	remaining := tracker.Entries()
	assert.ElementsMatch(t, []string{"no-hash", "other", "sending"}, keys(remaining))
}

func keys(p models.PendingTxs) []string {
	out := make([]string, 0, len(p))
	for k := range p {
		out = append(out, k)
	}
	return out
}

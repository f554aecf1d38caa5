package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func TestSyncPending(t *testing.T) {
	ctx := context.Background()
	hash := monitoredHash

	setup := func(t *testing.T) (*memoryStore, *events.Bus, *usecase.TrackPendingStatuses) {
		store := &memoryStore{pending: models.PendingTxs{
			"indexed":   {ChainID: testChainID, TxID: "indexed", Status: models.PendingStatusIndexing, TxHash: hash.Hex()},
			"queued":    {ChainID: testChainID, TxID: "queued", Status: models.PendingStatusSubmitting},
			"gone":      {ChainID: testChainID, TxID: "gone", Status: models.PendingStatusSubmitting},
			"mining":    {ChainID: testChainID, TxID: "mining", Status: models.PendingStatusMining, TxHash: hash.Hex()},
			"elsewhere": {ChainID: 1, TxID: "elsewhere", Status: models.PendingStatusIndexing},
		}}
		bus := events.NewBus(discardLogger())
		tracker := usecase.NewTrackPendingStatuses(testConfig(), store, bus, nil, discardLogger())
		require.NoError(t, tracker.Start(ctx))
		t.Cleanup(tracker.Stop)
		return store, bus, tracker
	}

	details := func(status models.TxQueueStatus) *models.TxDetails {
		return &models.TxDetails{TxStatus: status, TxHash: &hash}
	}
	notFound := fmt.Errorf("transaction gone: %w", domain.ErrNotFound)

	t.Run("indexed executions clear their entries", func(t *testing.T) {
		_, bus, tracker := setup(t)
		rec := record(bus)

		queue := new(MockReviewQueue)
		queue.On("GetTransactionDetails", mock.Anything, "indexed").Return(details(models.TxQueueStatusSuccess), nil)
		queue.On("GetTransactionDetails", mock.Anything, "queued").Return(details(models.TxQueueStatusAwaitingExecution), nil)
		queue.On("GetTransactionDetails", mock.Anything, "gone").Return(nil, notFound)

		progress := &MockProgressSink{}
		uc := usecase.NewSyncPending(testConfig(), tracker, queue, bus, progress, discardLogger())
		result, err := uc.Sync(ctx, usecase.SyncOptions{})

		require.NoError(t, err)
		assert.Equal(t, 3, result.Checked)
		assert.Equal(t, 1, result.Indexed)
		assert.Equal(t, 0, result.Removed)
		assert.Len(t, result.Errors, 1)

		assert.Equal(t, []events.Kind{events.KindSuccess}, rec.kinds("indexed"))
		_, ok := tracker.Entry("indexed")
		assert.False(t, ok)
		_, ok = tracker.Entry("gone")
		assert.True(t, ok)
		assert.NotEmpty(t, progress.events)
		queue.AssertNotCalled(t, "GetTransactionDetails", mock.Anything, "mining")
		queue.AssertNotCalled(t, "GetTransactionDetails", mock.Anything, "elsewhere")
	})

	t.Run("clean removes unknown entries", func(t *testing.T) {
		store, bus, tracker := setup(t)

		queue := new(MockReviewQueue)
		queue.On("GetTransactionDetails", mock.Anything, "indexed").Return(nil, errors.New("timeout"))
		queue.On("GetTransactionDetails", mock.Anything, "queued").Return(details(models.TxQueueStatusAwaitingConfirmations), nil)
		queue.On("GetTransactionDetails", mock.Anything, "gone").Return(nil, notFound)

		uc := usecase.NewSyncPending(testConfig(), tracker, queue, bus, usecase.NopProgress{}, discardLogger())
		result, err := uc.Sync(ctx, usecase.SyncOptions{Clean: true})

		require.NoError(t, err)
		assert.Equal(t, 1, result.Removed)
		assert.Len(t, result.Errors, 1)
		_, ok := store.snapshot()["gone"]
		assert.False(t, ok)
		_, ok = store.snapshot()["indexed"]
		assert.True(t, ok)
	})
}

package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

func queueEntry(id string, nonce uint64, submitted, required int) models.QueueEntry {
	return models.QueueEntry{Transaction: &models.QueueItem{
		TxID:      id,
		Timestamp: time.Now(),
		TxStatus:  models.TxQueueStatusAwaitingExecution,
		Execution: models.QueueExecution{
			Type:                   models.ExecutionInfoMultisig,
			Nonce:                  nonce,
			ConfirmationsSubmitted: submitted,
			ConfirmationsRequired:  required,
		},
	}}
}

func TestListQueue(t *testing.T) {
	ctx := context.Background()
	snapshot := []models.QueueEntry{
		queueEntry("a", 5, 2, 2),
		queueEntry("b", 6, 2, 2),
		queueEntry("c", 8, 2, 2),
	}

	t.Run("nonce from chain", func(t *testing.T) {
		queue := new(MockReviewQueue)
		queue.On("GetQueue", mock.Anything, testSafe).Return(snapshot, nil)
		chain := new(MockChainClient)
		chain.On("SafeNonce", mock.Anything, testSafe).Return(uint64(5), nil)

		cfg := testConfig()
		uc := usecase.NewListQueue(cfg, usecase.NewSafeContext(cfg, queue), queue, chain, discardLogger())
		result, err := uc.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, uint64(5), result.CurrentNonce)
		assert.Len(t, result.Entries, 3)
		assert.True(t, result.IsBatchable("a"))
		assert.True(t, result.IsBatchable("b"))
		assert.False(t, result.IsBatchable("c"))
		queue.AssertNotCalled(t, "GetSafeInfo", mock.Anything, mock.Anything)
		chain.AssertExpectations(t)
	})

	t.Run("falls back to the backend nonce", func(t *testing.T) {
		queue := new(MockReviewQueue)
		queue.On("GetQueue", mock.Anything, testSafe).Return(snapshot, nil)
		queue.On("GetSafeInfo", mock.Anything, testSafe).Return(&models.SafeInfo{Nonce: 6, Threshold: 2}, nil)
		chain := new(MockChainClient)
		chain.On("SafeNonce", mock.Anything, testSafe).Return(uint64(0), errors.New("dial tcp"))

		cfg := testConfig()
		uc := usecase.NewListQueue(cfg, usecase.NewSafeContext(cfg, queue), queue, chain, discardLogger())
		result, err := uc.Run(ctx)

		require.NoError(t, err)
		assert.Equal(t, uint64(6), result.CurrentNonce)
		assert.Len(t, result.Batchable, 1)
		assert.Equal(t, "b", result.Batchable[0].TxID)
	})

	t.Run("batch limit", func(t *testing.T) {
		queue := new(MockReviewQueue)
		queue.On("GetQueue", mock.Anything, testSafe).Return(snapshot, nil)
		chain := new(MockChainClient)
		chain.On("SafeNonce", mock.Anything, testSafe).Return(uint64(5), nil)

		cfg := testConfig()
		cfg.BatchLimit = 1
		uc := usecase.NewListQueue(cfg, usecase.NewSafeContext(cfg, queue), queue, chain, discardLogger())
		result, err := uc.Run(ctx)

		require.NoError(t, err)
		assert.Len(t, result.Batchable, 1)
	})

	t.Run("queue failure", func(t *testing.T) {
		queue := new(MockReviewQueue)
		queue.On("GetQueue", mock.Anything, testSafe).Return(nil, errors.New("503"))

		cfg := testConfig()
		uc := usecase.NewListQueue(cfg, usecase.NewSafeContext(cfg, queue), queue, nil, discardLogger())
		_, err := uc.Run(ctx)

		assert.Error(t, err)
	})
}

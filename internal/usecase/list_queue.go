package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// ListQueue loads the review queue of the account and marks what can run as one batch
type ListQueue struct {
	cfg   *config.RuntimeConfig
	safe  *SafeContext
	queue ReviewQueue
	chain ChainClient
	log   *slog.Logger
}

// NewListQueue creates a new queue listing use case
func NewListQueue(cfg *config.RuntimeConfig, safeCtx *SafeContext, queue ReviewQueue, chain ChainClient, log *slog.Logger) *ListQueue {
	return &ListQueue{
		cfg:   cfg,
		safe:  safeCtx,
		queue: queue,
		chain: chain,
		log:   log.With("component", "queue"),
	}
}

// ListQueueResult is the queue snapshot with its batchable prefix
type ListQueueResult struct {
	Entries      []models.QueueEntry
	CurrentNonce uint64
	Batchable    []models.QueueItem
}

// IsBatchable reports whether txID belongs to the batchable prefix
func (r *ListQueueResult) IsBatchable(txID string) bool {
	for _, item := range r.Batchable {
		if item.TxID == txID {
			return true
		}
	}
	return false
}

// Run loads the snapshot. The on-chain nonce is preferred; the backend's is used
// when the chain cannot be reached.
func (l *ListQueue) Run(ctx context.Context) (*ListQueueResult, error) {
	address, err := l.safe.Address()
	if err != nil {
		return nil, err
	}

	entries, err := l.queue.GetQueue(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load queue: %w", err)
	}

	nonce, err := l.currentNonce(ctx)
	if err != nil {
		return nil, err
	}

	capacity := domain.BatchLimit
	if l.cfg != nil && l.cfg.BatchLimit > 0 {
		capacity = l.cfg.BatchLimit
	}

	return &ListQueueResult{
		Entries:      entries,
		CurrentNonce: nonce,
		Batchable:    domain.SelectBatchable(entries, nonce, capacity),
	}, nil
}

func (l *ListQueue) currentNonce(ctx context.Context) (uint64, error) {
	if l.chain != nil {
		address, err := l.safe.Address()
		if err != nil {
			return 0, err
		}
		nonce, err := l.chain.SafeNonce(ctx, address)
		if err == nil {
			return nonce, nil
		}
		l.log.Warn("could not read nonce on-chain, using backend", "error", err)
	}

	info, err := l.safe.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.Nonce, nil
}

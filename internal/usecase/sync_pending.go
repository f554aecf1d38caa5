package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

// SyncPending asks the review queue whether tracked transactions were indexed
// as executed and clears them when they were
type SyncPending struct {
	cfg      *config.RuntimeConfig
	tracker  *TrackPendingStatuses
	queue    ReviewQueue
	bus      *events.Bus
	progress ProgressSink
	log      *slog.Logger
}

// NewSyncPending creates a new sync use case
func NewSyncPending(
	cfg *config.RuntimeConfig,
	tracker *TrackPendingStatuses,
	queue ReviewQueue,
	bus *events.Bus,
	progress ProgressSink,
	log *slog.Logger,
) *SyncPending {
	return &SyncPending{
		cfg:      cfg,
		tracker:  tracker,
		queue:    queue,
		bus:      bus,
		progress: progress,
		log:      log.With("component", "sync"),
	}
}

// SyncOptions contains options for syncing
type SyncOptions struct {
	Clean bool // Remove entries the backend does not know
}

// SyncResult contains the result of syncing
type SyncResult struct {
	Checked int
	Indexed int
	Removed int
	Errors  []string
}

// Sync checks every SUBMITTING and INDEXING entry of the current chain
func (s *SyncPending) Sync(ctx context.Context, options SyncOptions) (*SyncResult, error) {
	result := &SyncResult{Errors: make([]string, 0)}

	var chainID uint64
	if s.cfg != nil && s.cfg.Network != nil {
		chainID = s.cfg.Network.ChainID
	}

	var candidates []models.PendingEntry
	for _, entry := range s.tracker.Entries() {
		if entry.ChainID != chainID {
			continue
		}
		if entry.Status == models.PendingStatusSubmitting || entry.Status == models.PendingStatusIndexing {
			candidates = append(candidates, entry)
		}
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].TxID < candidates[j].TxID })

	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "sync",
		Message: fmt.Sprintf("Checking %d pending transaction(s)", len(candidates)),
		Total:   len(candidates),
		Spinner: true,
	})

	for _, entry := range candidates {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Checked++

		details, err := s.queue.GetTransactionDetails(ctx, entry.TxID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) && options.Clean {
				s.tracker.Remove(entry.TxID)
				result.Removed++
				continue
			}
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", entry.TxID, err))
			continue
		}

		if !details.IsExecuted() {
			continue
		}

		event := events.Event{TxID: entry.TxID, TxHash: details.TxHash, BatchID: entry.BatchID}
		s.log.Debug("transaction indexed", "txId", entry.TxID, "status", details.TxStatus)
		s.bus.Publish(events.KindSuccess, event)
		result.Indexed++

		s.progress.OnProgress(ctx, ProgressEvent{
			Stage:   "sync",
			Current: result.Checked,
			Total:   len(candidates),
			Message: fmt.Sprintf("Indexed %s", entry.TxID),
		})
	}

	s.progress.OnProgress(ctx, ProgressEvent{
		Stage:   "sync",
		Message: "Sync completed",
		Spinner: false,
	})

	return result, nil
}

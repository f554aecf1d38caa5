package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

// TrackPendingStatuses keeps a durable coarse status for every transaction that
// still needs attention, driven by bus events
type TrackPendingStatuses struct {
	store    PendingStore
	bus      *events.Bus
	monitor  *MonitorTransaction
	log      *slog.Logger
	chainID  uint64
	indexing bool

	persistMu sync.Mutex
	mu        sync.Mutex
	entries   models.PendingTxs
	unsub     func()
}

// NewTrackPendingStatuses creates a new tracker
func NewTrackPendingStatuses(cfg *config.RuntimeConfig, store PendingStore, bus *events.Bus, monitor *MonitorTransaction, log *slog.Logger) *TrackPendingStatuses {
	t := &TrackPendingStatuses{
		store:   store,
		bus:     bus,
		monitor: monitor,
		log:     log.With("component", "pending"),
		entries: make(models.PendingTxs),
	}
	if cfg != nil {
		t.indexing = cfg.TrackIndexing
		if cfg.Network != nil {
			t.chainID = cfg.Network.ChainID
		}
	}
	return t
}

// Start loads the persisted entries and subscribes to every event kind
func (t *TrackPendingStatuses) Start(ctx context.Context) error {
	loaded, err := t.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}

	t.mu.Lock()
	if loaded != nil {
		t.entries = loaded
	}
	if t.unsub == nil {
		t.unsub = t.bus.SubscribeAll(t.handle)
	}
	t.mu.Unlock()
	return nil
}

// Stop unsubscribes from the bus
func (t *TrackPendingStatuses) Stop() {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

// Entries returns a snapshot of the tracked entries
func (t *TrackPendingStatuses) Entries() models.PendingTxs {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries.Clone()
}

// Entry returns the entry tracked for txID
func (t *TrackPendingStatuses) Entry(txID string) (models.PendingEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.entries[txID]
	return entry, ok
}

// Remove drops an entry without an event, used when the backend no longer knows it
func (t *TrackPendingStatuses) Remove(txID string) {
	t.update(func(entries models.PendingTxs) (pendingChange, bool) {
		if _, ok := entries[txID]; !ok {
			return pendingChange{}, false
		}
		delete(entries, txID)
		return pendingChange{txID: txID, removed: true}, true
	})
}

// Resume re-attaches every MINING entry of the current chain with a known hash
// to the monitor. Batch members are watched together.
func (t *TrackPendingStatuses) Resume(ctx context.Context) (int, error) {
	snapshot := t.Entries()

	mining := lo.Filter(lo.Values(snapshot), func(e models.PendingEntry, _ int) bool {
		return e.ChainID == t.chainID && e.Status == models.PendingStatusMining && e.TxHash != ""
	})
	sort.Slice(mining, func(i, j int) bool { return mining[i].TxID < mining[j].TxID })

	resumed := 0
	for key, group := range lo.GroupBy(mining, func(e models.PendingEntry) string {
		if e.BatchID == "" {
			return "tx:" + e.TxID
		}
		return "batch:" + e.BatchID + ":" + e.TxHash
	}) {
		ids := lo.Map(group, func(e models.PendingEntry, _ int) string { return e.TxID })
		hash := common.HexToHash(group[0].TxHash)

		var started bool
		if group[0].BatchID == "" {
			started = t.monitor.WaitForTx(ids[0], hash)
		} else {
			started = t.monitor.WaitForBatch(group[0].BatchID, ids, hash)
		}
		if started {
			resumed += len(ids)
			t.log.Debug("resumed monitoring", "key", key, "txHash", hash.Hex())
		}
	}

	return resumed, ctx.Err()
}

func (t *TrackPendingStatuses) handle(event events.Event) {
	t.update(func(entries models.PendingTxs) (pendingChange, bool) {
		return t.apply(entries, event)
	})
}

// pendingChange is the single entry write produced by one mutation
type pendingChange struct {
	txID    string
	entry   models.PendingEntry
	removed bool
}

func (t *TrackPendingStatuses) apply(entries models.PendingTxs, event events.Event) (pendingChange, bool) {
	upsert := func(status models.PendingStatus) (pendingChange, bool) {
		entry := entries[event.TxID]
		entry.ChainID = t.chainID
		entry.TxID = event.TxID
		entry.Status = status
		if event.TxHash != nil {
			entry.TxHash = event.TxHash.Hex()
		}
		if event.BatchID != "" {
			entry.BatchID = event.BatchID
		}
		entries[event.TxID] = entry
		return pendingChange{txID: event.TxID, entry: entry}, true
	}
	remove := func() (pendingChange, bool) {
		if _, ok := entries[event.TxID]; !ok {
			return pendingChange{}, false
		}
		delete(entries, event.TxID)
		return pendingChange{txID: event.TxID, removed: true}, true
	}

	switch event.Kind {
	case events.KindExecuting:
		return upsert(models.PendingStatusSubmitting)
	case events.KindMining:
		return upsert(models.PendingStatusMining)
	case events.KindMined:
		if t.indexing {
			return upsert(models.PendingStatusIndexing)
		}
		return remove()
	case events.KindReverted, events.KindFailed, events.KindSuccess:
		return remove()
	}
	return pendingChange{}, false
}

// update applies mutate to the in-memory map and writes only the touched entry.
// persistMu is held across both steps so writes reach the store in the order
// the mutations happened.
func (t *TrackPendingStatuses) update(mutate func(models.PendingTxs) (pendingChange, bool)) {
	t.persistMu.Lock()
	defer t.persistMu.Unlock()

	t.mu.Lock()
	change, ok := mutate(t.entries)
	t.mu.Unlock()
	if !ok {
		return
	}

	ctx := context.Background()
	var err error
	if change.removed {
		err = t.store.Delete(ctx, change.txID)
	} else {
		err = t.store.Upsert(ctx, change.entry)
	}
	if err != nil {
		t.log.Error("failed to persist pending transaction", "txId", change.txID, "error", err)
	}
}

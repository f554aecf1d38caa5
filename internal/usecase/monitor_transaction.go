package usecase

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

const (
	defaultPollInterval   = 2 * time.Second
	defaultMonitorTimeout = 30 * time.Minute
)

// MonitorTransaction waits for submitted calls to be included and publishes
// exactly one terminal event per transaction id
type MonitorTransaction struct {
	chain    ChainClient
	bus      *events.Bus
	log      *slog.Logger
	timeout  time.Duration
	interval time.Duration

	mu       sync.Mutex
	watching map[string]struct{}
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewMonitorTransaction creates a new monitor
func NewMonitorTransaction(cfg *config.RuntimeConfig, chain ChainClient, bus *events.Bus, log *slog.Logger) *MonitorTransaction {
	timeout := defaultMonitorTimeout
	interval := defaultPollInterval
	if cfg != nil {
		timeout = cfg.MonitorTimeout
		if cfg.PollInterval > 0 {
			interval = cfg.PollInterval
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &MonitorTransaction{
		chain:    chain,
		bus:      bus,
		log:      log.With("component", "monitor"),
		timeout:  timeout,
		interval: interval,
		watching: make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// WaitForTx starts watching txHash on behalf of txID. It reports false when
// txID is already watched.
func (m *MonitorTransaction) WaitForTx(txID string, txHash common.Hash) bool {
	return m.WaitForBatch("", []string{txID}, txHash)
}

// WaitForBatch watches one hash on behalf of every member of a batch. Members
// already watched are left out; it reports false when none remain.
func (m *MonitorTransaction) WaitForBatch(batchID string, txIDs []string, txHash common.Hash) bool {
	m.mu.Lock()
	if m.ctx.Err() != nil {
		m.mu.Unlock()
		return false
	}
	var ids []string
	for _, id := range txIDs {
		if _, ok := m.watching[id]; ok {
			continue
		}
		m.watching[id] = struct{}{}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		m.mu.Unlock()
		return false
	}
	m.wg.Add(1)
	m.mu.Unlock()

	m.log.Debug("watching transaction", "txHash", txHash.Hex(), "batchId", batchID, "members", len(ids))
	go m.watch(ids, batchID, txHash)
	return true
}

// IsWatching reports whether txID was handed to the monitor
func (m *MonitorTransaction) IsWatching(txID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.watching[txID]
	return ok
}

// Wait blocks until every watch finished
func (m *MonitorTransaction) Wait() {
	m.wg.Wait()
}

// Stop cancels every watch without publishing events and waits for them to return
func (m *MonitorTransaction) Stop() {
	m.mu.Lock()
	m.cancel()
	m.mu.Unlock()
	m.wg.Wait()
}

func (m *MonitorTransaction) watch(txIDs []string, batchID string, txHash common.Hash) {
	defer m.wg.Done()

	ctx := m.ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	started := time.Now()
	receipt, err := m.waitReceipt(ctx, txHash)
	if err != nil {
		if m.ctx.Err() != nil {
			m.log.Debug("watch stopped", "txHash", txHash.Hex())
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = domain.ErrMonitorTimeout
		}
		monitorErr := &domain.MonitorError{TxHash: txHash, Err: err}
		m.log.Error("monitoring failed", "txHash", txHash.Hex(), "error", err)
		m.publishAll(events.KindFailed, txIDs, events.Event{TxHash: &txHash, Err: monitorErr, BatchID: batchID})
		return
	}

	m.log.Debug("receipt received", "txHash", txHash.Hex(), "status", receipt.Status, "elapsed", time.Since(started))

	if receipt.Status == types.ReceiptStatusFailed {
		m.publishAll(events.KindReverted, txIDs, events.Event{
			TxHash:  &txHash,
			Receipt: receipt,
			Err:     &domain.RevertError{TxHash: txHash, Receipt: receipt},
			BatchID: batchID,
		})
		return
	}

	m.publishAll(events.KindMined, txIDs, events.Event{TxHash: &txHash, Receipt: receipt, BatchID: batchID})
}

func (m *MonitorTransaction) waitReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if m.chain == nil {
		return nil, &domain.UninitializedContextError{Component: "chain connection"}
	}

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		receipt, err := m.chain.TransactionReceipt(ctx, txHash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (m *MonitorTransaction) publishAll(kind events.Kind, txIDs []string, event events.Event) {
	for _, id := range txIDs {
		e := event
		e.TxID = id
		m.bus.Publish(kind, e)
	}
}

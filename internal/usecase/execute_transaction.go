package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

// ExecuteTransaction drives transactions through sign, propose, execute and monitor
type ExecuteTransaction struct {
	cfg      *config.RuntimeConfig
	safe     *SafeContext
	builder  *BuildTransaction
	proposer *ProposeTransaction
	monitor  *MonitorTransaction
	chain    ChainClient
	signer   TxSigner
	bus      *events.Bus
	log      *slog.Logger

	mu      sync.Mutex
	records map[string]*models.TxRecord
}

// NewExecuteTransaction creates the coordinator and subscribes it to terminal events
func NewExecuteTransaction(
	cfg *config.RuntimeConfig,
	safeCtx *SafeContext,
	builder *BuildTransaction,
	proposer *ProposeTransaction,
	monitor *MonitorTransaction,
	chain ChainClient,
	signer TxSigner,
	bus *events.Bus,
	log *slog.Logger,
) *ExecuteTransaction {
	e := &ExecuteTransaction{
		cfg:      cfg,
		safe:     safeCtx,
		builder:  builder,
		proposer: proposer,
		monitor:  monitor,
		chain:    chain,
		signer:   signer,
		bus:      bus,
		log:      log.With("component", "coordinator"),
		records:  make(map[string]*models.TxRecord),
	}

	bus.Subscribe(events.KindMined, e.onOutcome(models.TransactionStatusMined))
	bus.Subscribe(events.KindReverted, e.onOutcome(models.TransactionStatusReverted))
	bus.Subscribe(events.KindFailed, e.onOutcome(models.TransactionStatusFailed))

	return e
}

// RunResult is the outcome of Run
type RunResult struct {
	Record   *models.TxRecord
	Executed bool
	TxHash   *common.Hash
}

// Record returns the tracked record for id
func (e *ExecuteTransaction) Record(id string) (*models.TxRecord, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rec, ok := e.records[id]
	return rec, ok
}

// Records returns every tracked record
func (e *ExecuteTransaction) Records() []*models.TxRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return lo.Values(e.records)
}

// Abandon drops a record that never reached the review queue
func (e *ExecuteTransaction) Abandon(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if rec, ok := e.records[id]; ok && !rec.Queued {
		delete(e.records, id)
	}
}

func (e *ExecuteTransaction) track(rec *models.TxRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.records[rec.ID] = rec
}

func (e *ExecuteTransaction) transition(rec *models.TxRecord, next models.TransactionStatus) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rec.Transition(next)
}

func (e *ExecuteTransaction) canTransition(rec *models.TxRecord, next models.TransactionStatus) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return rec.Status.CanTransition(next)
}

// LoadExisting reconstructs a record from the review queue
func (e *ExecuteTransaction) LoadExisting(ctx context.Context, txID string) (*models.TxRecord, error) {
	if rec, ok := e.Record(txID); ok {
		return rec, nil
	}

	tx, details, err := e.builder.CreateExisting(ctx, txID, nil)
	if err != nil {
		return nil, err
	}

	rec := models.NewTxRecord(tx)
	rec.ID = details.TxID
	if rec.ID == "" {
		rec.ID = txID
	}
	rec.Status = models.TransactionStatusProposed
	rec.Queued = true
	if ms := details.Execution.Multisig; ms != nil {
		rec.ConfirmationsRequired = ms.ConfirmationsRequired
	}

	e.track(rec)
	return rec, nil
}

// Sign adds the configured owner's signature to the record
func (e *ExecuteTransaction) Sign(ctx context.Context, rec *models.TxRecord) error {
	if rec.ID == "" {
		id, _, err := e.safe.TxID(ctx, rec.Tx.Data)
		if err != nil {
			return err
		}
		rec.ID = id
	}
	e.track(rec)

	if err := e.transition(rec, models.TransactionStatusSigning); err != nil {
		return err
	}

	if err := e.sign(ctx, rec); err != nil {
		var signErr error = &domain.SigningError{TxID: rec.ID, Err: err}
		var uninitialized *domain.UninitializedContextError
		if errors.As(err, &uninitialized) {
			signErr = err
		}
		_ = e.transition(rec, models.TransactionStatusFailed)
		e.log.Error("signing failed", "txId", rec.ID, "error", err)
		e.bus.Publish(events.KindSignFailed, events.Event{TxID: rec.ID, Tx: rec.Tx, Err: signErr})
		return signErr
	}

	e.bus.Publish(events.KindSigned, events.Event{TxID: rec.ID, Tx: rec.Tx})
	return nil
}

func (e *ExecuteTransaction) sign(ctx context.Context, rec *models.TxRecord) error {
	if e.signer == nil {
		return &domain.UninitializedContextError{Component: "signer"}
	}

	hash, err := e.safe.Hash(ctx, rec.Tx.Data)
	if err != nil {
		return err
	}
	signature, err := e.signer.SignHash(ctx, hash)
	if err != nil {
		return err
	}

	if !rec.Tx.Signatures.Add(e.signer.Address(), signature) {
		e.log.Debug("owner already signed", "txId", rec.ID, "owner", e.signer.Address().Hex())
	}
	return nil
}

// Propose submits the record to the review queue on behalf of sender
func (e *ExecuteTransaction) Propose(ctx context.Context, rec *models.TxRecord, sender common.Address) error {
	existing := ""
	if rec.Queued {
		existing = rec.ID
	}

	proposed, err := e.proposer.Propose(ctx, rec.Tx, sender, existing)
	if err != nil {
		_ = e.transition(rec, models.TransactionStatusFailed)
		return err
	}

	if rec.ID == "" {
		rec.ID = proposed.ID
	}
	if proposed.ConfirmationsRequired > 0 {
		rec.ConfirmationsRequired = proposed.ConfirmationsRequired
	}
	rec.Queued = true
	e.track(rec)
	return e.transition(rec, models.TransactionStatusProposed)
}

// Execute submits a fully signed record on-chain. It returns once the call is
// accepted; the outcome is published by the monitor.
func (e *ExecuteTransaction) Execute(ctx context.Context, rec *models.TxRecord) (common.Hash, error) {
	if e.chain == nil {
		return common.Hash{}, &domain.UninitializedContextError{Component: "chain connection"}
	}
	address, err := e.safe.Address()
	if err != nil {
		return common.Hash{}, err
	}
	if err := e.ensureExecutable(ctx, rec); err != nil {
		return common.Hash{}, err
	}

	call, err := safe.EncodeExecTransaction(toTxParams(rec.Tx.Data), rec.Tx.Signatures.Serialize())
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode execTransaction: %w", err)
	}

	e.track(rec)
	if err := e.transition(rec, models.TransactionStatusExecuting); err != nil {
		return common.Hash{}, err
	}
	e.bus.Publish(events.KindExecuting, events.Event{TxID: rec.ID, Tx: rec.Tx})

	rec.Submitted = true
	hash, err := e.chain.SubmitTransaction(ctx, address, call)
	if err != nil {
		submitErr := &domain.SubmissionError{TxID: rec.ID, Err: err}
		e.log.Error("submission failed", "txId", rec.ID, "error", err)
		e.bus.Publish(events.KindFailed, events.Event{TxID: rec.ID, Tx: rec.Tx, Err: submitErr})
		return common.Hash{}, submitErr
	}

	rec.TxHash = &hash
	if err := e.transition(rec, models.TransactionStatusMining); err != nil {
		e.log.Warn("unexpected state after submission", "txId", rec.ID, "error", err)
	}
	e.bus.Publish(events.KindMining, events.Event{TxID: rec.ID, Tx: rec.Tx, TxHash: &hash})
	e.monitor.WaitForTx(rec.ID, hash)

	return hash, nil
}

// DispatchBatchExecution executes fully signed records with consecutive nonces in
// one multiSend call. Every member shares the batch id, the hash and the outcome.
func (e *ExecuteTransaction) DispatchBatchExecution(ctx context.Context, recs []*models.TxRecord) (common.Hash, string, error) {
	if len(recs) == 0 {
		return common.Hash{}, "", domain.ErrEmptyBatch
	}
	if e.chain == nil {
		return common.Hash{}, "", &domain.UninitializedContextError{Component: "chain connection"}
	}
	address, err := e.safe.Address()
	if err != nil {
		return common.Hash{}, "", err
	}

	members := make([]safe.MetaTx, 0, len(recs))
	for i, rec := range recs {
		if i > 0 && rec.Tx.Data.Nonce != recs[i-1].Tx.Data.Nonce+1 {
			return common.Hash{}, "", fmt.Errorf("batch nonces are not consecutive: %d follows %d",
				rec.Tx.Data.Nonce, recs[i-1].Tx.Data.Nonce)
		}
		if !e.canTransition(rec, models.TransactionStatusExecuting) {
			return common.Hash{}, "", fmt.Errorf("invalid transition for %s: %s -> %s",
				rec.ID, rec.Status, models.TransactionStatusExecuting)
		}
		if err := e.ensureExecutable(ctx, rec); err != nil {
			return common.Hash{}, "", err
		}
		call, err := safe.EncodeExecTransaction(toTxParams(rec.Tx.Data), rec.Tx.Signatures.Serialize())
		if err != nil {
			return common.Hash{}, "", fmt.Errorf("failed to encode execTransaction for %s: %w", rec.ID, err)
		}
		members = append(members, safe.MetaTx{To: address, Value: new(big.Int), Data: call})
	}

	payload, err := safe.EncodeMultiSendCall(members)
	if err != nil {
		return common.Hash{}, "", fmt.Errorf("failed to encode multiSend: %w", err)
	}
	batchID := uuid.NewSHA1(uuid.NameSpaceOID, safe.EncodeMultiSendData(members)).String()

	for _, rec := range recs {
		rec.BatchID = batchID
		e.track(rec)
		if err := e.transition(rec, models.TransactionStatusExecuting); err != nil {
			return common.Hash{}, "", err
		}
	}
	for _, rec := range recs {
		e.bus.Publish(events.KindExecuting, events.Event{TxID: rec.ID, Tx: rec.Tx, BatchID: batchID})
	}

	for _, rec := range recs {
		rec.Submitted = true
	}
	hash, err := e.chain.SubmitTransaction(ctx, e.multiSendAddress(), payload)
	if err != nil {
		submitErr := &domain.SubmissionError{BatchID: batchID, Err: err}
		e.log.Error("batch submission failed", "batchId", batchID, "error", err)
		for _, rec := range recs {
			e.bus.Publish(events.KindFailed, events.Event{TxID: rec.ID, Tx: rec.Tx, Err: submitErr, BatchID: batchID})
		}
		return common.Hash{}, batchID, submitErr
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		rec.TxHash = &hash
		if err := e.transition(rec, models.TransactionStatusMining); err != nil {
			e.log.Warn("unexpected state after submission", "txId", rec.ID, "error", err)
		}
		e.bus.Publish(events.KindMining, events.Event{TxID: rec.ID, Tx: rec.Tx, TxHash: &hash, BatchID: batchID})
		ids = append(ids, rec.ID)
	}
	e.monitor.WaitForBatch(batchID, ids, hash)

	return hash, batchID, nil
}

// Run signs and proposes rec, then executes it when execute is set and the
// collected signatures meet the threshold
func (e *ExecuteTransaction) Run(ctx context.Context, rec *models.TxRecord, sender common.Address, execute bool) (*RunResult, error) {
	result := &RunResult{Record: rec}

	if err := e.Sign(ctx, rec); err != nil {
		return result, err
	}
	if err := e.Propose(ctx, rec, sender); err != nil {
		return result, err
	}

	if !execute {
		return result, nil
	}
	if err := e.ensureExecutable(ctx, rec); err != nil {
		if !errors.Is(err, domain.ErrBelowThreshold) {
			return result, err
		}
		e.log.Info("not executing yet", "txId", rec.ID, "signatures", rec.Tx.Signatures.Len(), "required", rec.ConfirmationsRequired)
		return result, nil
	}

	hash, err := e.Execute(ctx, rec)
	if err != nil {
		return result, err
	}
	result.Executed = true
	result.TxHash = &hash
	return result, nil
}

func (e *ExecuteTransaction) ensureExecutable(ctx context.Context, rec *models.TxRecord) error {
	if rec.ConfirmationsRequired == 0 {
		threshold, err := e.safe.Threshold(ctx)
		if err != nil {
			return err
		}
		rec.ConfirmationsRequired = threshold
	}
	if !rec.IsExecutable() {
		return fmt.Errorf("%s has %d of %d signatures: %w",
			rec.ID, rec.Tx.Signatures.Len(), rec.ConfirmationsRequired, domain.ErrBelowThreshold)
	}
	return nil
}

func (e *ExecuteTransaction) multiSendAddress() common.Address {
	if e.cfg != nil && e.cfg.MultiSendCallOnly != (common.Address{}) {
		return e.cfg.MultiSendCallOnly
	}
	return safe.DefaultMultiSendCallOnly
}

func (e *ExecuteTransaction) onOutcome(status models.TransactionStatus) events.Handler {
	return func(event events.Event) {
		e.mu.Lock()
		defer e.mu.Unlock()

		rec, ok := e.records[event.TxID]
		if !ok {
			return
		}
		if err := rec.Transition(status); err != nil {
			e.log.Debug("ignoring outcome", "txId", event.TxID, "status", status, "error", err)
		}
		if rec.IsFinished() {
			delete(e.records, event.TxID)
		}
	}
}

package usecase

import (
	"context"
	"log/slog"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

// ProposeTransaction hands descriptors and signatures to the review queue
type ProposeTransaction struct {
	safe  *SafeContext
	queue ReviewQueue
	bus   *events.Bus
	log   *slog.Logger
}

// NewProposeTransaction creates a new proposal use case
func NewProposeTransaction(safeCtx *SafeContext, queue ReviewQueue, bus *events.Bus, log *slog.Logger) *ProposeTransaction {
	return &ProposeTransaction{
		safe:  safeCtx,
		queue: queue,
		bus:   bus,
		log:   log.With("component", "proposer"),
	}
}

// Propose submits tx signed by sender. With an empty existingTxID the transaction
// is new to the queue; otherwise only the sender's signature is added to it.
func (p *ProposeTransaction) Propose(ctx context.Context, tx *models.SafeTransaction, sender common.Address, existingTxID string) (*models.TxRecord, error) {
	address, err := p.safe.Address()
	if err != nil {
		return nil, err
	}
	txID, safeTxHash, err := p.safe.TxID(ctx, tx.Data)
	if err != nil {
		return nil, err
	}

	var signature []byte
	if sig, ok := tx.Signatures.Get(sender); ok {
		signature = sig.Data
	}

	if existingTxID == "" {
		err = p.queue.ProposeTransaction(ctx, Proposal{
			Safe:       address,
			Tx:         tx,
			SafeTxHash: safeTxHash,
			Sender:     sender,
			Signature:  signature,
		})
	} else {
		err = p.queue.ConfirmTransaction(ctx, safeTxHash, signature)
	}

	if err != nil {
		proposalErr := &domain.ProposalError{TxID: txID, Signature: existingTxID != "", Err: err}
		kind := events.KindProposeFailed
		if existingTxID != "" {
			kind = events.KindSignatureProposeFailed
		}
		p.log.Error("proposal failed", "txId", txID, "error", err)
		p.bus.Publish(kind, events.Event{TxID: txID, Tx: tx, Err: proposalErr})
		return nil, proposalErr
	}

	rec := models.NewTxRecord(tx)
	rec.ID = txID
	rec.Status = models.TransactionStatusProposed
	rec.Queued = true
	if threshold, err := p.safe.Threshold(ctx); err == nil {
		rec.ConfirmationsRequired = threshold
	} else {
		p.log.Warn("could not load threshold", "txId", txID, "error", err)
	}

	kind := events.KindProposed
	if existingTxID != "" {
		kind = events.KindSignatureProposed
	}
	p.log.Debug("proposed", "txId", txID, "sender", sender.Hex())
	p.bus.Publish(kind, events.Event{TxID: txID, Tx: tx})

	return rec, nil
}

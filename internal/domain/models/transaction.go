package models

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// TransactionStatus represents the lifecycle state of a tracked Safe transaction
type TransactionStatus string

const (
	TransactionStatusCreated   TransactionStatus = "CREATED"
	TransactionStatusSigning   TransactionStatus = "SIGNING"
	TransactionStatusProposed  TransactionStatus = "PROPOSED"
	TransactionStatusExecuting TransactionStatus = "EXECUTING"
	TransactionStatusMining    TransactionStatus = "MINING"
	TransactionStatusMined     TransactionStatus = "MINED"
	TransactionStatusReverted  TransactionStatus = "REVERTED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
)

var transitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCreated:   {TransactionStatusSigning},
	TransactionStatusSigning:   {TransactionStatusProposed, TransactionStatusFailed},
	TransactionStatusProposed:  {TransactionStatusSigning, TransactionStatusExecuting, TransactionStatusFailed},
	TransactionStatusExecuting: {TransactionStatusMining, TransactionStatusFailed},
	TransactionStatusMining:    {TransactionStatusMined, TransactionStatusReverted, TransactionStatusFailed},
}

// IsTerminal reports whether no further transition is possible
func (s TransactionStatus) IsTerminal() bool {
	switch s {
	case TransactionStatusMined, TransactionStatusReverted:
		return true
	}
	return false
}

// CanTransition reports whether the state machine allows moving from s to next
func (s TransactionStatus) CanTransition(next TransactionStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// TxRecord is the unit tracked through the sign → propose → execute → monitor pipeline
type TxRecord struct {
	ID                    string            `json:"id"`
	Tx                    *SafeTransaction  `json:"tx"`
	Status                TransactionStatus `json:"status"`
	ConfirmationsRequired int               `json:"confirmationsRequired"`
	TxHash                *common.Hash      `json:"txHash,omitempty"`
	BatchID               string            `json:"batchId,omitempty"`

	// Queued is set once the review queue knows the transaction
	Queued bool `json:"queued"`

	// Submitted is set once the call was handed to the chain; a record that
	// failed after that point can never be retried.
	Submitted bool `json:"submitted"`
}

// NewTxRecord creates a record in the CREATED state
func NewTxRecord(tx *SafeTransaction) *TxRecord {
	return &TxRecord{Tx: tx, Status: TransactionStatusCreated}
}

// Transition moves the record to next, rejecting moves the state machine does not allow.
// A FAILED record that never reached the chain may start signing again.
func (r *TxRecord) Transition(next TransactionStatus) error {
	if r.Status == TransactionStatusFailed && !r.Submitted && next == TransactionStatusSigning {
		r.Status = next
		return nil
	}
	if !r.Status.CanTransition(next) {
		return fmt.Errorf("invalid transition for %s: %s -> %s", r.ID, r.Status, next)
	}
	r.Status = next
	return nil
}

// IsFinished reports whether the record reached an outcome that ends local tracking
func (r *TxRecord) IsFinished() bool {
	return r.Status.IsTerminal() || (r.Status == TransactionStatusFailed && r.Submitted)
}

// IsExecutable reports whether enough signatures were collected
func (r *TxRecord) IsExecutable() bool {
	return r.Tx != nil && r.ConfirmationsRequired > 0 && r.Tx.Signatures.Len() >= r.ConfirmationsRequired
}

package models

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// QueueItem is one transaction of the review-queue snapshot
type QueueItem struct {
	TxID       string         `json:"txId"`
	SafeTxHash common.Hash    `json:"safeTxHash"`
	Timestamp  time.Time      `json:"timestamp"`
	TxStatus   TxQueueStatus  `json:"txStatus"`
	TxInfo     TxInfo         `json:"txInfo"`
	Execution  QueueExecution `json:"executionInfo"`
}

// QueueExecution summarizes how far a queued transaction is from execution
type QueueExecution struct {
	Type                   ExecutionInfoType `json:"type"`
	Nonce                  uint64            `json:"nonce,omitempty"`
	ConfirmationsSubmitted int               `json:"confirmationsSubmitted,omitempty"`
	ConfirmationsRequired  int               `json:"confirmationsRequired,omitempty"`
	MissingSigners         []common.Address  `json:"missingSigners,omitempty"`
}

// IsMultisig reports whether the item is governed by owner confirmations
func (e QueueExecution) IsMultisig() bool {
	return e.Type == ExecutionInfoMultisig
}

// IsFullyConfirmed reports whether the item collected enough confirmations
func (e QueueExecution) IsFullyConfirmed() bool {
	return e.IsMultisig() && e.ConfirmationsSubmitted >= e.ConfirmationsRequired
}

// QueueEntry is either a standalone transaction or a group of transactions
// competing for the same nonce. Exactly one of the fields is set.
type QueueEntry struct {
	Transaction *QueueItem  `json:"transaction,omitempty"`
	Group       []QueueItem `json:"group,omitempty"`
}

// Items returns the entry flattened into a group
func (e QueueEntry) Items() []QueueItem {
	if e.Transaction != nil {
		return []QueueItem{*e.Transaction}
	}
	return e.Group
}

package domain

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// RevertMessage is the error message carried by REVERTED events
const RevertMessage = "Transaction reverted by EVM"

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidAddress is returned when an Ethereum address is invalid
	ErrInvalidAddress = errors.New("invalid address")

	// ErrUnsupportedChain is returned when no transaction service is known for a chain
	ErrUnsupportedChain = errors.New("unsupported chain")

	// ErrBelowThreshold is returned when execution is attempted without enough signatures
	ErrBelowThreshold = errors.New("not enough signatures to meet the threshold")

	// ErrEmptyBatch is returned when a batch has no members
	ErrEmptyBatch = errors.New("batch is empty")

	// ErrMonitorTimeout is returned when a receipt did not arrive within the configured wait
	ErrMonitorTimeout = errors.New("timed out waiting for receipt")

	// ErrReverted is the cause wrapped by RevertError
	ErrReverted = errors.New(RevertMessage)
)

// EstimationError is returned when the backend could not recommend a nonce or estimate gas
type EstimationError struct {
	Safe common.Address
	Err  error
}

func (e *EstimationError) Error() string {
	return fmt.Sprintf("failed to estimate transaction for %s: %v", e.Safe.Hex(), e.Err)
}

func (e *EstimationError) Unwrap() error { return e.Err }

// UninitializedContextError is returned when an operation needs a signing or
// chain context that was never configured
type UninitializedContextError struct {
	Component string
}

func (e *UninitializedContextError) Error() string {
	return fmt.Sprintf("%s is not initialized", e.Component)
}

// ProposalError is returned when the review queue rejected or could not receive a
// proposal. Signature marks a confirmation added to an already queued transaction.
type ProposalError struct {
	TxID      string
	Signature bool
	Err       error
}

func (e *ProposalError) Error() string {
	if e.Signature {
		return fmt.Sprintf("failed to propose signature for %s: %v", e.TxID, e.Err)
	}
	return fmt.Sprintf("failed to propose transaction %s: %v", e.TxID, e.Err)
}

func (e *ProposalError) Unwrap() error { return e.Err }

// SigningError is returned when the signer rejected or failed to sign
type SigningError struct {
	TxID string
	Err  error
}

func (e *SigningError) Error() string {
	return fmt.Sprintf("failed to sign %s: %v", e.TxID, e.Err)
}

func (e *SigningError) Unwrap() error { return e.Err }

// SubmissionError is returned when the chain rejected a call before inclusion
type SubmissionError struct {
	TxID    string
	BatchID string
	Err     error
}

func (e *SubmissionError) Error() string {
	if e.BatchID != "" {
		return fmt.Sprintf("failed to submit batch %s: %v", e.BatchID, e.Err)
	}
	return fmt.Sprintf("failed to submit %s: %v", e.TxID, e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// RevertError is returned when a call was included but its execution reverted
type RevertError struct {
	TxHash  common.Hash
	Receipt *types.Receipt
}

func (e *RevertError) Error() string {
	return RevertMessage
}

func (e *RevertError) Unwrap() error { return ErrReverted }

// MonitorError is returned when waiting for a receipt failed
type MonitorError struct {
	TxHash common.Hash
	Err    error
}

func (e *MonitorError) Error() string {
	return fmt.Sprintf("failed to monitor %s: %v", e.TxHash.Hex(), e.Err)
}

func (e *MonitorError) Unwrap() error { return e.Err }

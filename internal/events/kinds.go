package events

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// Kind identifies a transaction lifecycle event
type Kind string

const (
	KindProposed               Kind = "PROPOSED"
	KindSignatureProposed      Kind = "SIGNATURE_PROPOSED"
	KindProposeFailed          Kind = "PROPOSE_FAILED"
	KindSignatureProposeFailed Kind = "SIGNATURE_PROPOSE_FAILED"
	KindSigned                 Kind = "SIGNED"
	KindSignFailed             Kind = "SIGN_FAILED"
	KindExecuting              Kind = "EXECUTING"
	KindMining                 Kind = "MINING"
	KindMined                  Kind = "MINED"
	KindReverted               Kind = "REVERTED"
	KindFailed                 Kind = "FAILED"

	// KindSuccess is published once the backend indexed an execution
	KindSuccess Kind = "SUCCESS"
)

// AllKinds lists every kind in lifecycle order
var AllKinds = []Kind{
	KindProposed,
	KindSignatureProposed,
	KindProposeFailed,
	KindSignatureProposeFailed,
	KindSigned,
	KindSignFailed,
	KindExecuting,
	KindMining,
	KindMined,
	KindReverted,
	KindFailed,
	KindSuccess,
}

// IsTerminal reports whether the kind ends the on-chain lifecycle of a transaction
func (k Kind) IsTerminal() bool {
	switch k {
	case KindMined, KindReverted, KindFailed:
		return true
	}
	return false
}

// Event is the payload published on the bus. Fields beyond TxID depend on the kind.
type Event struct {
	Kind    Kind
	TxID    string
	Tx      *models.SafeTransaction
	TxHash  *common.Hash
	Receipt *types.Receipt
	Err     error
	BatchID string
}

package usecase

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// Estimation is the backend recommendation for a new transaction
type Estimation struct {
	RecommendedNonce uint64
	SafeTxGas        *big.Int
}

// Proposal is what the review queue receives for a new transaction or signature
type Proposal struct {
	Safe       common.Address
	Tx         *models.SafeTransaction
	SafeTxHash common.Hash
	Sender     common.Address
	Signature  []byte
}

// ReviewQueue is the backend service queuing transactions for owner review
type ReviewQueue interface {
	GetSafeInfo(ctx context.Context, safe common.Address) (*models.SafeInfo, error)
	Estimate(ctx context.Context, safe common.Address, call models.MetaTransaction) (*Estimation, error)
	ProposeTransaction(ctx context.Context, proposal Proposal) error
	ConfirmTransaction(ctx context.Context, safeTxHash common.Hash, signature []byte) error
	GetTransactionDetails(ctx context.Context, txID string) (*models.TxDetails, error)
	GetQueue(ctx context.Context, safe common.Address) ([]models.QueueEntry, error)
}

// ChainClient is the connection used to submit calls and watch for their inclusion
type ChainClient interface {
	ChainID(ctx context.Context) (uint64, error)
	SubmitTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	SafeNonce(ctx context.Context, safe common.Address) (uint64, error)
}

// TxSigner produces owner signatures over safeTxHashes
type TxSigner interface {
	Address() common.Address
	SignHash(ctx context.Context, hash common.Hash) ([]byte, error)
}

// PendingStore persists the pending status map one entry at a time, so
// writers in separate processes only ever touch their own entries
type PendingStore interface {
	Load(ctx context.Context) (models.PendingTxs, error)
	Upsert(ctx context.Context, entry models.PendingEntry) error
	Delete(ctx context.Context, txID string) error
}

// Confirmer asks the user before an irrevocable action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// QueueSelector lets the user pick a queued transaction
type QueueSelector interface {
	SelectQueueItem(ctx context.Context, items []models.QueueItem, prompt string) (*models.QueueItem, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage    string
	Current  int
	Total    int
	Message  string
	Spinner  bool
	Metadata interface{}
}

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Error(string)                              {}

// LocalConfigStore persists the per-project local configuration
type LocalConfigStore interface {
	Exists() bool
	Load(ctx context.Context) (*config.LocalConfig, error)
	Save(ctx context.Context, cfg *config.LocalConfig) error
	GetPath() string
}

package usecase

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

// SafeContext resolves the account the pipeline acts on and caches its configuration
type SafeContext struct {
	cfg   *config.RuntimeConfig
	queue ReviewQueue

	mu   sync.Mutex
	info *models.SafeInfo
}

// NewSafeContext creates a new account context
func NewSafeContext(cfg *config.RuntimeConfig, queue ReviewQueue) *SafeContext {
	return &SafeContext{cfg: cfg, queue: queue}
}

// Address returns the configured account address
func (s *SafeContext) Address() (common.Address, error) {
	if s.cfg == nil || s.cfg.Safe == nil {
		return common.Address{}, &domain.UninitializedContextError{Component: "safe"}
	}
	return s.cfg.Safe.Address, nil
}

// ChainID returns the chain the account lives on
func (s *SafeContext) ChainID() (uint64, error) {
	if s.cfg == nil || s.cfg.Network == nil {
		return 0, &domain.UninitializedContextError{Component: "network"}
	}
	return s.cfg.Network.ChainID, nil
}

// Info returns the account configuration, fetching it once
func (s *SafeContext) Info(ctx context.Context) (*models.SafeInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.info != nil {
		return s.info, nil
	}

	address, err := s.Address()
	if err != nil {
		return nil, err
	}
	info, err := s.queue.GetSafeInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to load safe info: %w", err)
	}
	s.info = info
	return info, nil
}

// Invalidate drops the cached configuration
func (s *SafeContext) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = nil
}

// Version returns the account version used for hashing
func (s *SafeContext) Version(ctx context.Context) (string, error) {
	if s.cfg != nil && s.cfg.Safe != nil && s.cfg.Safe.Version != "" {
		return s.cfg.Safe.Version, nil
	}
	info, err := s.Info(ctx)
	if err != nil {
		return "", err
	}
	return info.Version, nil
}

// Threshold returns the number of confirmations required for execution
func (s *SafeContext) Threshold(ctx context.Context) (int, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return 0, err
	}
	return info.Threshold, nil
}

// Hash returns the safeTxHash of a descriptor
func (s *SafeContext) Hash(ctx context.Context, data models.SafeTransactionData) (common.Hash, error) {
	chainID, err := s.ChainID()
	if err != nil {
		return common.Hash{}, err
	}
	address, err := s.Address()
	if err != nil {
		return common.Hash{}, err
	}
	version, err := s.Version(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	return safe.TransactionHash(chainID, address, version, toTxParams(data))
}

// TxID returns the review-queue id and safeTxHash of a descriptor
func (s *SafeContext) TxID(ctx context.Context, data models.SafeTransactionData) (string, common.Hash, error) {
	hash, err := s.Hash(ctx, data)
	if err != nil {
		return "", common.Hash{}, err
	}
	address, _ := s.Address()
	return models.MultisigTxID(address, hash), hash, nil
}

func toTxParams(d models.SafeTransactionData) safe.TxParams {
	d = d.Normalize()
	return safe.TxParams{
		To:             d.To,
		Value:          d.Value,
		Data:           d.Data,
		Operation:      uint8(d.Operation),
		SafeTxGas:      d.SafeTxGas,
		BaseGas:        d.BaseGas,
		GasPrice:       d.GasPrice,
		GasToken:       d.GasToken,
		RefundReceiver: d.RefundReceiver,
		Nonce:          new(big.Int).SetUint64(d.Nonce),
	}
}

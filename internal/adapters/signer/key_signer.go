package signer

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// KeySigner signs with a raw private key taken from the configuration
type KeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewKeySigner parses the configured key. Without a key every signing call
// reports an uninitialized signer.
func NewKeySigner(cfg *config.RuntimeConfig) (*KeySigner, error) {
	if cfg.SignerKey == "" {
		return &KeySigner{}, nil
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.SignerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}
	return &KeySigner{key: key, address: crypto.PubkeyToAddress(key.PublicKey)}, nil
}

// Address returns the owner address of the key
func (s *KeySigner) Address() common.Address {
	return s.address
}

// SignHash signs a safeTxHash. The recovery id is shifted by 27 as the
// account contract expects for plain ECDSA signatures.
func (s *KeySigner) SignHash(ctx context.Context, hash common.Hash) ([]byte, error) {
	if s.key == nil {
		return nil, &domain.UninitializedContextError{Component: "signer"}
	}

	sig, err := crypto.Sign(hash.Bytes(), s.key)
	if err != nil {
		return nil, err
	}
	sig[crypto.RecoveryIDOffset] += 27
	return sig, nil
}

// SignTx signs a chain transaction sent from the owner address
func (s *KeySigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	if s.key == nil {
		return nil, &domain.UninitializedContextError{Component: "signer"}
	}
	return types.SignTx(tx, types.LatestSignerForChainID(chainID), s.key)
}

// Ensure the signer implements the interface
var _ usecase.TxSigner = (*KeySigner)(nil)

package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/trebuchet-org/treb-safe/internal/adapters/signer"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

// Backend is the part of ethclient.Client the adapter uses
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SuggestGasTipCap(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ClientAdapter is the chain connection. It dials lazily on first use and
// verifies the endpoint serves the configured chain.
type ClientAdapter struct {
	rpcURL  string
	chainID uint64
	signer  *signer.KeySigner

	mu      sync.Mutex
	backend Backend
}

// NewClientAdapter creates a new chain connection for the configured network
func NewClientAdapter(cfg *config.RuntimeConfig, keySigner *signer.KeySigner) *ClientAdapter {
	c := &ClientAdapter{signer: keySigner}
	if cfg.Network != nil {
		c.rpcURL = cfg.Network.RPCURL
		c.chainID = cfg.Network.ChainID
	}
	return c
}

// NewClientAdapterWithBackend wraps an already connected backend
func NewClientAdapterWithBackend(backend Backend, chainID uint64, keySigner *signer.KeySigner) *ClientAdapter {
	return &ClientAdapter{backend: backend, chainID: chainID, signer: keySigner}
}

func (c *ClientAdapter) connect(ctx context.Context) (Backend, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.backend != nil {
		return c.backend, nil
	}
	if c.rpcURL == "" {
		return nil, &domain.UninitializedContextError{Component: "chain connection"}
	}

	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC: %w", err)
	}

	networkChainID, err := client.ChainID(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to get chain ID: %w", err)
	}
	if c.chainID == 0 {
		c.chainID = networkChainID.Uint64()
	} else if networkChainID.Uint64() != c.chainID {
		client.Close()
		return nil, fmt.Errorf("chain ID mismatch: expected %d, got %d", c.chainID, networkChainID.Uint64())
	}

	c.backend = client
	return client, nil
}

// ChainID returns the id of the connected chain
func (c *ClientAdapter) ChainID(ctx context.Context) (uint64, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}
	id, err := backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return id.Uint64(), nil
}

// SubmitTransaction sends a dynamic-fee transaction calling to with data from
// the owner key. Fees follow the node's suggestion.
func (c *ClientAdapter) SubmitTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return common.Hash{}, err
	}
	if c.signer == nil {
		return common.Hash{}, &domain.UninitializedContextError{Component: "signer"}
	}
	from := c.signer.Address()

	nonce, err := backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get account nonce: %w", err)
	}
	gas, err := backend.EstimateGas(ctx, ethereum.CallMsg{From: from, To: &to, Data: data})
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to estimate gas: %w", err)
	}
	tip, err := backend.SuggestGasTipCap(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get gas tip: %w", err)
	}
	head, err := backend.HeaderByNumber(ctx, nil)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get latest header: %w", err)
	}

	feeCap := new(big.Int).Set(tip)
	if head.BaseFee != nil {
		feeCap.Add(feeCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	}

	chainID := new(big.Int).SetUint64(c.chainID)
	signed, err := c.signer.SignTx(types.NewTx(&types.DynamicFeeTx{
		ChainID:   chainID,
		Nonce:     nonce,
		GasTipCap: tip,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &to,
		Data:      data,
	}), chainID)
	if err != nil {
		return common.Hash{}, err
	}

	if err := backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return signed.Hash(), nil
}

// TransactionReceipt returns the receipt of hash or ethereum.NotFound while pending
func (c *ClientAdapter) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return nil, err
	}
	return backend.TransactionReceipt(ctx, hash)
}

// SafeNonce reads nonce() of the account
func (c *ClientAdapter) SafeNonce(ctx context.Context, address common.Address) (uint64, error) {
	backend, err := c.connect(ctx)
	if err != nil {
		return 0, err
	}

	input, err := safe.SafeABI.Pack("nonce")
	if err != nil {
		return 0, err
	}
	output, err := backend.CallContract(ctx, ethereum.CallMsg{To: &address, Data: input}, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to call nonce(): %w", err)
	}

	values, err := safe.SafeABI.Unpack("nonce", output)
	if err != nil {
		return 0, fmt.Errorf("failed to decode nonce(): %w", err)
	}
	nonce, ok := values[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected nonce() result %T", values[0])
	}
	return nonce.Uint64(), nil
}

// Ensure the adapter implements the interface
var _ usecase.ChainClient = (*ClientAdapter)(nil)

package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/jellydator/validation"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

var (
	addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
	decimalPattern = regexp.MustCompile(`^[0-9]+$`)
	hexDataPattern = regexp.MustCompile(`^0x([0-9a-fA-F]{2})*$`)
)

// RawTxParams are call parameters as entered by the user
type RawTxParams struct {
	To        string
	Value     string
	Data      string
	Operation int
}

// Validate checks the raw parameters before they reach any backend
func (p RawTxParams) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.To, validation.Required, validation.Match(addressPattern)),
		validation.Field(&p.Value, validation.Match(decimalPattern)),
		validation.Field(&p.Data, validation.Match(hexDataPattern)),
		validation.Field(&p.Operation, validation.In(int(models.OperationCall), int(models.OperationDelegateCall))),
	)
}

// MetaTransaction converts validated parameters into a call
func (p RawTxParams) MetaTransaction() (models.MetaTransaction, error) {
	if err := p.Validate(); err != nil {
		return models.MetaTransaction{}, err
	}

	value := new(big.Int)
	if p.Value != "" {
		value.SetString(p.Value, 10)
	}
	data := hexutil.Bytes{}
	if p.Data != "" {
		data = hexutil.MustDecode(p.Data)
	}

	return models.MetaTransaction{
		To:        common.HexToAddress(p.To),
		Value:     value,
		Data:      data,
		Operation: models.Operation(p.Operation),
	}, nil
}

// BuildTransaction constructs transaction descriptors ready for signing
type BuildTransaction struct {
	cfg   *config.RuntimeConfig
	safe  *SafeContext
	queue ReviewQueue
	log   *slog.Logger
}

// NewBuildTransaction creates a new builder use case
func NewBuildTransaction(cfg *config.RuntimeConfig, safeCtx *SafeContext, queue ReviewQueue, log *slog.Logger) *BuildTransaction {
	return &BuildTransaction{
		cfg:   cfg,
		safe:  safeCtx,
		queue: queue,
		log:   log.With("component", "builder"),
	}
}

// CreateFromParams validates raw parameters and creates a descriptor from them
func (b *BuildTransaction) CreateFromParams(ctx context.Context, params RawTxParams, nonce *uint64) (*models.SafeTransaction, error) {
	call, err := params.MetaTransaction()
	if err != nil {
		return nil, fmt.Errorf("invalid transaction parameters: %w", err)
	}
	return b.Create(ctx, call, nonce)
}

// Create builds a descriptor for call. Without an explicit nonce the backend
// recommends one and estimates safeTxGas.
func (b *BuildTransaction) Create(ctx context.Context, call models.MetaTransaction, nonce *uint64) (*models.SafeTransaction, error) {
	address, err := b.safe.Address()
	if err != nil {
		return nil, err
	}

	data := models.NewSafeTransactionData(call)
	if nonce != nil {
		data.Nonce = *nonce
		return models.NewSafeTransaction(data), nil
	}

	estimation, err := b.queue.Estimate(ctx, address, call)
	if err != nil {
		var estErr *domain.EstimationError
		if errors.As(err, &estErr) {
			return nil, err
		}
		return nil, &domain.EstimationError{Safe: address, Err: err}
	}

	data.Nonce = estimation.RecommendedNonce
	if estimation.SafeTxGas != nil {
		data.SafeTxGas = new(big.Int).Set(estimation.SafeTxGas)
	}

	b.log.Debug("estimated transaction", "nonce", data.Nonce, "safeTxGas", data.SafeTxGas)
	return models.NewSafeTransaction(data), nil
}

// CreateBatch bundles calls into one descriptor. A single call is not wrapped.
func (b *BuildTransaction) CreateBatch(ctx context.Context, calls []models.MetaTransaction, nonce *uint64) (*models.SafeTransaction, error) {
	switch len(calls) {
	case 0:
		return nil, domain.ErrEmptyBatch
	case 1:
		return b.Create(ctx, calls[0], nonce)
	}

	if lo.ContainsBy(calls, func(c models.MetaTransaction) bool { return c.Operation != models.OperationCall }) {
		return nil, fmt.Errorf("batched calls cannot use delegatecall")
	}

	payload, err := safe.EncodeMultiSendCall(lo.Map(calls, func(c models.MetaTransaction, _ int) safe.MetaTx {
		return safe.MetaTx{
			Operation: uint8(c.Operation),
			To:        c.To,
			Value:     c.Value,
			Data:      c.Data,
		}
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to encode multiSend: %w", err)
	}

	return b.Create(ctx, models.MetaTransaction{
		To:        b.multiSendAddress(),
		Value:     new(big.Int),
		Data:      payload,
		Operation: models.OperationDelegateCall,
	}, nonce)
}

// CreateRejection builds the no-op transaction that replaces whatever is queued at nonce
func (b *BuildTransaction) CreateRejection(ctx context.Context, nonce uint64) (*models.SafeTransaction, error) {
	address, err := b.safe.Address()
	if err != nil {
		return nil, err
	}
	return b.Create(ctx, models.MetaTransaction{
		To:    address,
		Value: new(big.Int),
		Data:  hexutil.Bytes{},
	}, &nonce)
}

// CreateTokenTransfer sends amount of token, or of the native coin when token is the zero address
func (b *BuildTransaction) CreateTokenTransfer(ctx context.Context, recipient common.Address, amount *big.Int, token common.Address, nonce *uint64) (*models.SafeTransaction, error) {
	if token == (common.Address{}) {
		return b.Create(ctx, models.MetaTransaction{To: recipient, Value: amount, Data: hexutil.Bytes{}}, nonce)
	}

	data, err := safe.EncodeERC20Transfer(recipient, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}
	return b.Create(ctx, models.MetaTransaction{To: token, Value: new(big.Int), Data: data}, nonce)
}

// CreateNFTTransfer sends tokenID of an ERC-721 collection held by the account
func (b *BuildTransaction) CreateNFTTransfer(ctx context.Context, recipient common.Address, tokenID *big.Int, token common.Address, nonce *uint64) (*models.SafeTransaction, error) {
	address, err := b.safe.Address()
	if err != nil {
		return nil, err
	}

	data, err := safe.EncodeERC721Transfer(address, recipient, tokenID)
	if err != nil {
		return nil, fmt.Errorf("failed to encode transfer: %w", err)
	}
	return b.Create(ctx, models.MetaTransaction{To: token, Value: new(big.Int), Data: data}, nonce)
}

// CreateAddOwner adds owner and sets the threshold
func (b *BuildTransaction) CreateAddOwner(ctx context.Context, owner common.Address, threshold uint64) (*models.SafeTransaction, error) {
	info, err := b.safe.Info(ctx)
	if err != nil {
		return nil, err
	}
	if info.IsOwner(owner) {
		return nil, fmt.Errorf("%s is already an owner", owner.Hex())
	}
	if err := checkThreshold(threshold, len(info.Owners)+1); err != nil {
		return nil, err
	}

	data, err := safe.EncodeAddOwner(owner, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to encode addOwnerWithThreshold: %w", err)
	}
	return b.createSettingsChange(ctx, data)
}

// CreateRemoveOwner removes owner and sets the threshold
func (b *BuildTransaction) CreateRemoveOwner(ctx context.Context, owner common.Address, threshold uint64) (*models.SafeTransaction, error) {
	info, err := b.safe.Info(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := safe.PrevOwner(info.Owners, owner)
	if err != nil {
		return nil, err
	}
	if err := checkThreshold(threshold, len(info.Owners)-1); err != nil {
		return nil, err
	}

	data, err := safe.EncodeRemoveOwner(prev, owner, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to encode removeOwner: %w", err)
	}
	return b.createSettingsChange(ctx, data)
}

// CreateSwapOwner replaces oldOwner by newOwner
func (b *BuildTransaction) CreateSwapOwner(ctx context.Context, oldOwner, newOwner common.Address) (*models.SafeTransaction, error) {
	info, err := b.safe.Info(ctx)
	if err != nil {
		return nil, err
	}
	prev, err := safe.PrevOwner(info.Owners, oldOwner)
	if err != nil {
		return nil, err
	}
	if info.IsOwner(newOwner) {
		return nil, fmt.Errorf("%s is already an owner", newOwner.Hex())
	}

	data, err := safe.EncodeSwapOwner(prev, oldOwner, newOwner)
	if err != nil {
		return nil, fmt.Errorf("failed to encode swapOwner: %w", err)
	}
	return b.createSettingsChange(ctx, data)
}

// CreateChangeThreshold sets the number of required confirmations
func (b *BuildTransaction) CreateChangeThreshold(ctx context.Context, threshold uint64) (*models.SafeTransaction, error) {
	info, err := b.safe.Info(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkThreshold(threshold, len(info.Owners)); err != nil {
		return nil, err
	}

	data, err := safe.EncodeChangeThreshold(threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to encode changeThreshold: %w", err)
	}
	return b.createSettingsChange(ctx, data)
}

// CreateExisting rebuilds the descriptor of a queued transaction, carrying over
// every confirmation the backend already holds. details is fetched when nil.
func (b *BuildTransaction) CreateExisting(ctx context.Context, txID string, details *models.TxDetails) (*models.SafeTransaction, *models.TxDetails, error) {
	address, err := b.safe.Address()
	if err != nil {
		return nil, nil, err
	}

	if details == nil {
		details, err = b.queue.GetTransactionDetails(ctx, txID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load transaction %s: %w", txID, err)
		}
	}

	params, confirmations, err := domain.ExtractTxParams(details, address)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to extract transaction %s: %w", txID, err)
	}

	tx := models.NewSafeTransaction(params)
	for _, c := range confirmations {
		tx.Signatures.AddPreApproved(c.Signer, c.Signature)
	}
	return tx, details, nil
}

func (b *BuildTransaction) createSettingsChange(ctx context.Context, data []byte) (*models.SafeTransaction, error) {
	address, err := b.safe.Address()
	if err != nil {
		return nil, err
	}
	return b.Create(ctx, models.MetaTransaction{To: address, Value: new(big.Int), Data: data}, nil)
}

func (b *BuildTransaction) multiSendAddress() common.Address {
	if b.cfg != nil && b.cfg.MultiSendCallOnly != (common.Address{}) {
		return b.cfg.MultiSendCallOnly
	}
	return safe.DefaultMultiSendCallOnly
}

func checkThreshold(threshold uint64, owners int) error {
	if threshold == 0 || threshold > uint64(owners) {
		return fmt.Errorf("threshold %d must be between 1 and %d", threshold, owners)
	}
	return nil
}

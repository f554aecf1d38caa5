package safe

import (
	"context"
	"fmt"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

const proposalOrigin = "treb-safe"

var settingsMethods = []string{
	"addOwnerWithThreshold",
	"removeOwner",
	"swapOwner",
	"changeThreshold",
	"enableModule",
	"disableModule",
	"setGuard",
	"setFallbackHandler",
	"changeMasterCopy",
}

// ClientAdapter exposes the Safe Transaction Service as the review queue
type ClientAdapter struct {
	client  *safe.Client
	chainID uint64
}

// NewClientAdapter creates the adapter for the configured network. The service
// URL is taken from the flags, then the network entry, then the public service.
func NewClientAdapter(cfg *config.RuntimeConfig) (*ClientAdapter, error) {
	if cfg.Network == nil {
		return &ClientAdapter{}, nil
	}

	serviceURL := cfg.ServiceURL
	if serviceURL == "" {
		serviceURL = cfg.Network.ServiceURL
	}

	var client *safe.Client
	if serviceURL != "" {
		client = safe.NewClientWithURL(serviceURL, nil)
	} else {
		var err error
		client, err = safe.NewClient(cfg.Network.ChainID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrUnsupportedChain, err)
		}
	}
	client.SetDebug(cfg.Debug)

	return &ClientAdapter{client: client, chainID: cfg.Network.ChainID}, nil
}

// NewClientAdapterWithClient wraps an existing service client
func NewClientAdapterWithClient(client *safe.Client, chainID uint64) *ClientAdapter {
	return &ClientAdapter{client: client, chainID: chainID}
}

func (c *ClientAdapter) service() (*safe.Client, error) {
	if c.client == nil {
		return nil, &domain.UninitializedContextError{Component: "network"}
	}
	return c.client, nil
}

// GetSafeInfo retrieves the account configuration
func (c *ClientAdapter) GetSafeInfo(ctx context.Context, address common.Address) (*models.SafeInfo, error) {
	client, err := c.service()
	if err != nil {
		return nil, err
	}

	info, err := client.GetSafeInfo(ctx, address)
	if err != nil {
		return nil, wrapNotFound(err, address.Hex())
	}

	return &models.SafeInfo{
		Address:   common.HexToAddress(info.Address),
		ChainID:   c.chainID,
		Version:   strings.TrimSuffix(info.Version, "+L2"),
		Nonce:     info.Nonce.Uint64(),
		Threshold: info.Threshold,
		Owners:    lo.Map(info.Owners, func(o string, _ int) common.Address { return common.HexToAddress(o) }),
	}, nil
}

// Estimate recommends a nonce following both the executed and the queued
// transactions, and estimates safeTxGas for call
func (c *ClientAdapter) Estimate(ctx context.Context, address common.Address, call models.MetaTransaction) (*usecase.Estimation, error) {
	client, err := c.service()
	if err != nil {
		return nil, err
	}

	info, err := client.GetSafeInfo(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get safe info: %w", err)
	}
	pending, err := client.GetPendingTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}

	nonce := info.Nonce.Uint64()
	for _, tx := range pending {
		if n := tx.Nonce.Uint64(); n+1 > nonce {
			nonce = n + 1
		}
	}

	data := hexutil.Encode(call.Data)
	resp, err := client.EstimateSafeTxGas(ctx, address, safe.EstimationRequest{
		To:        call.To.Hex(),
		Value:     safe.NewNumber(call.Value),
		Data:      &data,
		Operation: int(call.Operation),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to estimate safeTxGas: %w", err)
	}

	return &usecase.Estimation{
		RecommendedNonce: nonce,
		SafeTxGas:        resp.SafeTxGas.Big(),
	}, nil
}

// ProposeTransaction queues a new transaction with the sender's signature
func (c *ClientAdapter) ProposeTransaction(ctx context.Context, p usecase.Proposal) error {
	client, err := c.service()
	if err != nil {
		return err
	}

	d := p.Tx.Data.Normalize()
	data := hexutil.Encode(d.Data)
	req := safe.ProposalRequest{
		To:                      d.To.Hex(),
		Value:                   safe.NewNumber(d.Value),
		Data:                    &data,
		Operation:               int(d.Operation),
		SafeTxGas:               safe.NewNumber(d.SafeTxGas),
		BaseGas:                 safe.NewNumber(d.BaseGas),
		GasPrice:                safe.NewNumber(d.GasPrice),
		GasToken:                d.GasToken.Hex(),
		RefundReceiver:          d.RefundReceiver.Hex(),
		Nonce:                   safe.NewNumber(new(big.Int).SetUint64(d.Nonce)),
		ContractTransactionHash: p.SafeTxHash.Hex(),
		Sender:                  p.Sender.Hex(),
		Origin:                  proposalOrigin,
	}
	if len(p.Signature) > 0 {
		req.Signature = hexutil.Encode(p.Signature)
	}

	return client.ProposeTransaction(ctx, p.Safe, req)
}

// ConfirmTransaction adds a signature to a queued transaction
func (c *ClientAdapter) ConfirmTransaction(ctx context.Context, safeTxHash common.Hash, signature []byte) error {
	client, err := c.service()
	if err != nil {
		return err
	}
	return wrapNotFound(client.ConfirmTransaction(ctx, safeTxHash, signature), safeTxHash.Hex())
}

// GetTransactionDetails retrieves a transaction by review-queue id or bare safeTxHash
func (c *ClientAdapter) GetTransactionDetails(ctx context.Context, txID string) (*models.TxDetails, error) {
	client, err := c.service()
	if err != nil {
		return nil, err
	}

	_, hash, err := models.ParseTxID(txID)
	if err != nil {
		return nil, err
	}

	tx, err := client.GetTransaction(ctx, hash)
	if err != nil {
		return nil, wrapNotFound(err, txID)
	}
	return toTxDetails(tx)
}

// GetQueue returns the queued transactions at or above the current nonce in
// ascending nonce order. Transactions sharing a nonce form a group.
func (c *ClientAdapter) GetQueue(ctx context.Context, address common.Address) ([]models.QueueEntry, error) {
	client, err := c.service()
	if err != nil {
		return nil, err
	}

	info, err := client.GetSafeInfo(ctx, address)
	if err != nil {
		return nil, wrapNotFound(err, address.Hex())
	}
	pending, err := client.GetPendingTransactions(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transactions: %w", err)
	}

	owners := lo.Map(info.Owners, func(o string, _ int) common.Address { return common.HexToAddress(o) })
	current := info.Nonce.Uint64()

	byNonce := make(map[uint64][]models.QueueItem)
	for _, tx := range pending {
		if tx.Nonce.Uint64() < current {
			continue
		}
		item, err := toQueueItem(tx, owners)
		if err != nil {
			return nil, err
		}
		byNonce[item.Execution.Nonce] = append(byNonce[item.Execution.Nonce], *item)
	}

	nonces := lo.Keys(byNonce)
	sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })

	entries := make([]models.QueueEntry, 0, len(nonces))
	for _, n := range nonces {
		items := byNonce[n]
		if len(items) == 1 {
			entries = append(entries, models.QueueEntry{Transaction: &items[0]})
			continue
		}
		entries = append(entries, models.QueueEntry{Group: items})
	}
	return entries, nil
}

func toQueueItem(tx *safe.MultisigTransaction, owners []common.Address) (*models.QueueItem, error) {
	details, err := toTxDetails(tx)
	if err != nil {
		return nil, err
	}

	confirmed := lo.Map(tx.Confirmations, func(c safe.Confirmation, _ int) common.Address {
		return common.HexToAddress(c.Owner)
	})
	missing, _ := lo.Difference(owners, confirmed)

	return &models.QueueItem{
		TxID:       details.TxID,
		SafeTxHash: common.HexToHash(tx.SafeTxHash),
		Timestamp:  tx.SubmissionDate,
		TxStatus:   details.TxStatus,
		TxInfo:     details.TxInfo,
		Execution: models.QueueExecution{
			Type:                   models.ExecutionInfoMultisig,
			Nonce:                  tx.Nonce.Uint64(),
			ConfirmationsSubmitted: len(tx.Confirmations),
			ConfirmationsRequired:  tx.ConfirmationsRequired,
			MissingSigners:         missing,
		},
	}, nil
}

func toTxDetails(tx *safe.MultisigTransaction) (*models.TxDetails, error) {
	data, err := tx.DataBytes()
	if err != nil {
		return nil, fmt.Errorf("invalid call data for %s: %w", tx.SafeTxHash, err)
	}

	safeAddress := common.HexToAddress(tx.Safe)
	safeTxHash := common.HexToHash(tx.SafeTxHash)

	confirmations := make([]models.Confirmation, 0, len(tx.Confirmations))
	for _, c := range tx.Confirmations {
		sig := hexutil.Bytes{}
		if c.Signature != nil && *c.Signature != "" {
			decoded, err := hexutil.Decode(*c.Signature)
			if err != nil {
				return nil, fmt.Errorf("invalid signature of %s: %w", c.Owner, err)
			}
			sig = decoded
		}
		confirmations = append(confirmations, models.Confirmation{
			Signer:    common.HexToAddress(c.Owner),
			Signature: sig,
		})
	}

	details := &models.TxDetails{
		TxID:        models.MultisigTxID(safeAddress, safeTxHash),
		SafeAddress: safeAddress,
		TxStatus:    queueStatus(tx),
		TxInfo:      classify(tx, safeAddress, data),
		TxData: &models.TxData{
			To:        common.HexToAddress(tx.To),
			Value:     tx.Value.Big(),
			HexData:   data,
			Operation: models.Operation(tx.Operation),
		},
		Execution: models.ExecutionDetails{
			Type: models.ExecutionInfoMultisig,
			Multisig: &models.MultisigExecutionDetails{
				SubmittedAt:           tx.SubmissionDate,
				Nonce:                 tx.Nonce.Uint64(),
				SafeTxGas:             tx.SafeTxGas.Big(),
				BaseGas:               tx.BaseGas.Big(),
				GasPrice:              tx.GasPrice.Big(),
				GasToken:              common.HexToAddress(tx.GasToken),
				RefundReceiver:        common.HexToAddress(tx.RefundReceiver),
				SafeTxHash:            safeTxHash,
				ConfirmationsRequired: tx.ConfirmationsRequired,
				Confirmations:         confirmations,
			},
		},
		ExecutedAt: tx.ExecutionDate,
	}
	if tx.TransactionHash != nil && *tx.TransactionHash != "" {
		hash := common.HexToHash(*tx.TransactionHash)
		details.TxHash = &hash
	}
	return details, nil
}

func queueStatus(tx *safe.MultisigTransaction) models.TxQueueStatus {
	switch {
	case tx.IsExecuted && tx.IsSuccessful != nil && !*tx.IsSuccessful:
		return models.TxQueueStatusFailed
	case tx.IsExecuted:
		return models.TxQueueStatusSuccess
	case len(tx.Confirmations) >= tx.ConfirmationsRequired:
		return models.TxQueueStatusAwaitingExecution
	default:
		return models.TxQueueStatusAwaitingConfirmations
	}
}

// classify derives the TxInfo variant from the decoded call
func classify(tx *safe.MultisigTransaction, safeAddress common.Address, data []byte) models.TxInfo {
	to := common.HexToAddress(tx.To)
	value := tx.Value.Big()
	method := ""
	if tx.DataDecoded != nil {
		method = tx.DataDecoded.Method
	}

	switch {
	case to == safeAddress && lo.Contains(settingsMethods, method):
		info := &models.SettingsChangeInfo{Method: method}
		if module := tx.DataDecoded.Param("module"); module != "" {
			info.Module = common.HexToAddress(module)
		}
		return models.TxInfo{Type: models.TxInfoTypeSettingsChange, SettingsChange: info}

	case len(data) == 0 && value.Sign() > 0:
		return models.TxInfo{Type: models.TxInfoTypeTransfer, Transfer: &models.TransferInfo{
			Sender:    safeAddress,
			Recipient: to,
			TokenType: models.TokenTypeNative,
			Value:     value,
		}}

	case method == "transfer" && value.Sign() == 0:
		amount, _ := new(big.Int).SetString(tx.DataDecoded.Param("value"), 10)
		return models.TxInfo{Type: models.TxInfoTypeTransfer, Transfer: &models.TransferInfo{
			Sender:       safeAddress,
			Recipient:    common.HexToAddress(tx.DataDecoded.Param("to")),
			TokenType:    models.TokenTypeERC20,
			TokenAddress: to,
			Value:        amount,
		}}

	case (method == "safeTransferFrom" || method == "transferFrom") && tx.DataDecoded.Param("tokenId") != "":
		tokenID, _ := new(big.Int).SetString(tx.DataDecoded.Param("tokenId"), 10)
		return models.TxInfo{Type: models.TxInfoTypeTransfer, Transfer: &models.TransferInfo{
			Sender:       common.HexToAddress(tx.DataDecoded.Param("from")),
			Recipient:    common.HexToAddress(tx.DataDecoded.Param("to")),
			TokenType:    models.TokenTypeERC721,
			TokenAddress: to,
			TokenID:      tokenID,
		}}
	}

	return models.TxInfo{Type: models.TxInfoTypeCustom, Custom: &models.CustomInfo{
		To:          to,
		Value:       value,
		MethodName:  method,
		ActionCount: len(tx.DataDecoded.Actions()),
	}}
}

func wrapNotFound(err error, what string) error {
	if err == nil {
		return nil
	}
	if safe.IsNotFound(err) {
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	}
	return err
}

// Ensure the adapter implements the interface
var _ usecase.ReviewQueue = (*ClientAdapter)(nil)

package models

import (
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TxQueueStatus is the review-queue status of a backend transaction
type TxQueueStatus string

const (
	TxQueueStatusAwaitingConfirmations TxQueueStatus = "AWAITING_CONFIRMATIONS"
	TxQueueStatusAwaitingExecution     TxQueueStatus = "AWAITING_EXECUTION"
	TxQueueStatusSuccess               TxQueueStatus = "SUCCESS"
	TxQueueStatusFailed                TxQueueStatus = "FAILED"
	TxQueueStatusCancelled             TxQueueStatus = "CANCELLED"
)

// IsQueued reports whether the transaction still waits in the queue
func (s TxQueueStatus) IsQueued() bool {
	return s == TxQueueStatusAwaitingConfirmations || s == TxQueueStatusAwaitingExecution
}

// TxInfoType discriminates the TxInfo variants
type TxInfoType string

const (
	TxInfoTypeTransfer       TxInfoType = "Transfer"
	TxInfoTypeCustom         TxInfoType = "Custom"
	TxInfoTypeSettingsChange TxInfoType = "SettingsChange"
	TxInfoTypeCreation       TxInfoType = "Creation"
)

// TokenType discriminates the assets a Transfer moves
type TokenType string

const (
	TokenTypeNative TokenType = "NATIVE_COIN"
	TokenTypeERC20  TokenType = "ERC20"
	TokenTypeERC721 TokenType = "ERC721"
)

// TransferInfo describes a Transfer variant
type TransferInfo struct {
	Sender       common.Address `json:"sender"`
	Recipient    common.Address `json:"recipient"`
	TokenType    TokenType      `json:"tokenType"`
	TokenAddress common.Address `json:"tokenAddress,omitempty"`
	Value        *big.Int       `json:"value,omitempty"`
	TokenID      *big.Int       `json:"tokenId,omitempty"`
}

// CustomInfo describes an arbitrary contract interaction
type CustomInfo struct {
	To          common.Address `json:"to"`
	Value       *big.Int       `json:"value"`
	MethodName  string         `json:"methodName,omitempty"`
	ActionCount int            `json:"actionCount,omitempty"`
}

// IsMultiSend reports whether the interaction bundles several calls
func (c *CustomInfo) IsMultiSend() bool {
	return c.MethodName == "multiSend"
}

// SettingsChangeInfo describes a change to the account configuration
type SettingsChangeInfo struct {
	Method string         `json:"method"`
	Module common.Address `json:"module,omitempty"`
}

// CreationInfo describes the account creation
type CreationInfo struct {
	Creator         common.Address `json:"creator"`
	TransactionHash common.Hash    `json:"transactionHash"`
	Implementation  common.Address `json:"implementation,omitempty"`
	Factory         common.Address `json:"factory,omitempty"`
}

// TxInfo is a tagged union; exactly the field matching Type is set
type TxInfo struct {
	Type           TxInfoType          `json:"type"`
	Transfer       *TransferInfo       `json:"transfer,omitempty"`
	Custom         *CustomInfo         `json:"custom,omitempty"`
	SettingsChange *SettingsChangeInfo `json:"settingsChange,omitempty"`
	Creation       *CreationInfo       `json:"creation,omitempty"`
}

// Validate checks that the payload matching the discriminant is present
func (i TxInfo) Validate() error {
	var ok bool
	switch i.Type {
	case TxInfoTypeTransfer:
		ok = i.Transfer != nil
	case TxInfoTypeCustom:
		ok = i.Custom != nil
	case TxInfoTypeSettingsChange:
		ok = i.SettingsChange != nil
	case TxInfoTypeCreation:
		ok = i.Creation != nil
	default:
		return fmt.Errorf("unknown tx info type %q", i.Type)
	}
	if !ok {
		return fmt.Errorf("tx info %s is missing its payload", i.Type)
	}
	return nil
}

// Summary returns a one-line description of the transaction
func (i TxInfo) Summary() string {
	if err := i.Validate(); err != nil {
		return "Unknown"
	}
	switch i.Type {
	case TxInfoTypeTransfer:
		switch i.Transfer.TokenType {
		case TokenTypeERC721:
			return fmt.Sprintf("Send NFT #%s to %s", i.Transfer.TokenID, i.Transfer.Recipient.Hex())
		case TokenTypeERC20:
			return fmt.Sprintf("Send %s of %s to %s", i.Transfer.Value, i.Transfer.TokenAddress.Hex(), i.Transfer.Recipient.Hex())
		default:
			return fmt.Sprintf("Send %s wei to %s", i.Transfer.Value, i.Transfer.Recipient.Hex())
		}
	case TxInfoTypeCustom:
		if i.Custom.IsMultiSend() {
			suffix := "s"
			if i.Custom.ActionCount == 1 {
				suffix = ""
			}
			return fmt.Sprintf("%d action%s", i.Custom.ActionCount, suffix)
		}
		if i.Custom.MethodName != "" {
			return i.Custom.MethodName
		}
		return fmt.Sprintf("Call %s", i.Custom.To.Hex())
	case TxInfoTypeSettingsChange:
		return i.SettingsChange.Method
	case TxInfoTypeCreation:
		return fmt.Sprintf("Safe created by %s", i.Creation.Creator.Hex())
	}
	return "Unknown"
}

// TxData is the raw call data of a backend transaction
type TxData struct {
	To        common.Address `json:"to"`
	Value     *big.Int       `json:"value"`
	HexData   hexutil.Bytes  `json:"hexData"`
	Operation Operation      `json:"operation"`
}

// ExecutionInfoType discriminates how a transaction is authorized
type ExecutionInfoType string

const (
	ExecutionInfoMultisig ExecutionInfoType = "MULTISIG"
	ExecutionInfoModule   ExecutionInfoType = "MODULE"
)

// MultisigExecutionDetails carries the owner-governed parameters of a transaction
type MultisigExecutionDetails struct {
	SubmittedAt           time.Time        `json:"submittedAt"`
	Nonce                 uint64           `json:"nonce"`
	SafeTxGas             *big.Int         `json:"safeTxGas"`
	BaseGas               *big.Int         `json:"baseGas"`
	GasPrice              *big.Int         `json:"gasPrice"`
	GasToken              common.Address   `json:"gasToken"`
	RefundReceiver        common.Address   `json:"refundReceiver"`
	SafeTxHash            common.Hash      `json:"safeTxHash"`
	Signers               []common.Address `json:"signers,omitempty"`
	ConfirmationsRequired int              `json:"confirmationsRequired"`
	Confirmations         []Confirmation   `json:"confirmations"`
}

// MissingSigners returns the owners that have not confirmed yet
func (m *MultisigExecutionDetails) MissingSigners() []common.Address {
	var missing []common.Address
	for _, signer := range m.Signers {
		confirmed := false
		for _, c := range m.Confirmations {
			if c.Signer == signer {
				confirmed = true
				break
			}
		}
		if !confirmed {
			missing = append(missing, signer)
		}
	}
	return missing
}

// ModuleExecutionDetails identifies a module-triggered execution
type ModuleExecutionDetails struct {
	Address common.Address `json:"address"`
}

// ExecutionDetails is a tagged union over the authorization variants
type ExecutionDetails struct {
	Type     ExecutionInfoType         `json:"type"`
	Multisig *MultisigExecutionDetails `json:"multisig,omitempty"`
	Module   *ModuleExecutionDetails   `json:"module,omitempty"`
}

// TxDetails is the backend record of a queued or executed transaction
type TxDetails struct {
	TxID        string           `json:"txId"`
	SafeAddress common.Address   `json:"safeAddress"`
	TxStatus    TxQueueStatus    `json:"txStatus"`
	TxInfo      TxInfo           `json:"txInfo"`
	TxData      *TxData          `json:"txData,omitempty"`
	Execution   ExecutionDetails `json:"detailedExecutionInfo"`
	TxHash      *common.Hash     `json:"txHash,omitempty"`
	ExecutedAt  *time.Time       `json:"executedAt,omitempty"`
}

// IsExecuted reports whether the backend has indexed an execution
func (d *TxDetails) IsExecuted() bool {
	return d.TxStatus == TxQueueStatusSuccess || d.TxStatus == TxQueueStatusFailed
}

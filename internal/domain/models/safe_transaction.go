package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Operation is the call type the Safe performs for a transaction
type Operation uint8

const (
	OperationCall         Operation = 0
	OperationDelegateCall Operation = 1
)

func (o Operation) String() string {
	switch o {
	case OperationCall:
		return "call"
	case OperationDelegateCall:
		return "delegatecall"
	default:
		return "unknown"
	}
}

// MetaTransaction is a single call before it is wrapped into a Safe transaction
type MetaTransaction struct {
	To        common.Address `json:"to"`
	Value     *big.Int       `json:"value"`
	Data      hexutil.Bytes  `json:"data"`
	Operation Operation      `json:"operation"`
}

// SafeTransactionData is the canonical descriptor signed by the owners
type SafeTransactionData struct {
	To             common.Address `json:"to"`
	Value          *big.Int       `json:"value"`
	Data           hexutil.Bytes  `json:"data"`
	Operation      Operation      `json:"operation"`
	SafeTxGas      *big.Int       `json:"safeTxGas"`
	BaseGas        *big.Int       `json:"baseGas"`
	GasPrice       *big.Int       `json:"gasPrice"`
	GasToken       common.Address `json:"gasToken"`
	RefundReceiver common.Address `json:"refundReceiver"`
	Nonce          uint64         `json:"nonce"`
}

// NewSafeTransactionData builds a descriptor from a call with zeroed gas parameters
func NewSafeTransactionData(call MetaTransaction) SafeTransactionData {
	return SafeTransactionData{
		To:        call.To,
		Value:     bigOrZero(call.Value),
		Data:      call.Data,
		Operation: call.Operation,
		SafeTxGas: new(big.Int),
		BaseGas:   new(big.Int),
		GasPrice:  new(big.Int),
	}
}

// Call returns the call part of the descriptor
func (d SafeTransactionData) Call() MetaTransaction {
	return MetaTransaction{
		To:        d.To,
		Value:     bigOrZero(d.Value),
		Data:      d.Data,
		Operation: d.Operation,
	}
}

// Normalize replaces nil numeric fields with zero
func (d SafeTransactionData) Normalize() SafeTransactionData {
	d.Value = bigOrZero(d.Value)
	d.SafeTxGas = bigOrZero(d.SafeTxGas)
	d.BaseGas = bigOrZero(d.BaseGas)
	d.GasPrice = bigOrZero(d.GasPrice)
	if d.Data == nil {
		d.Data = hexutil.Bytes{}
	}
	return d
}

// SafeTransaction is a descriptor together with the signatures collected for it
type SafeTransaction struct {
	Data       SafeTransactionData `json:"data"`
	Signatures *SignatureSet       `json:"signatures"`
}

// NewSafeTransaction wraps a descriptor with an empty signature set
func NewSafeTransaction(data SafeTransactionData) *SafeTransaction {
	return &SafeTransaction{
		Data:       data.Normalize(),
		Signatures: NewSignatureSet(),
	}
}

// Confirmation represents an owner's confirmation on a Safe transaction
type Confirmation struct {
	Signer    common.Address `json:"signer"`
	Signature hexutil.Bytes  `json:"signature"`
}

func bigOrZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

package safe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// TransactionServiceURLs contains the Safe Transaction Service URLs for different networks
var TransactionServiceURLs = map[uint64]string{
	1:        "https://safe-transaction-mainnet.safe.global",
	10:       "https://safe-transaction-optimism.safe.global",
	56:       "https://safe-transaction-bsc.safe.global",
	100:      "https://safe-transaction-gnosis-chain.safe.global",
	137:      "https://safe-transaction-polygon.safe.global",
	324:      "https://safe-transaction-zksync.safe.global",
	8453:     "https://safe-transaction-base.safe.global",
	42161:    "https://safe-transaction-arbitrum.safe.global",
	42220:    "https://safe-transaction-celo.safe.global",
	43114:    "https://safe-transaction-avalanche.safe.global",
	11155111: "https://safe-transaction-sepolia.safe.global",
	11142220: "https://safe-transaction-celo-sepolia.safe.global", // Celo Sepolia testnet
}

// Number decodes integers the service sends either as JSON numbers or decimal strings
type Number struct {
	v *big.Int
}

// NewNumber wraps v; nil means zero
func NewNumber(v *big.Int) Number {
	if v == nil {
		return Number{v: new(big.Int)}
	}
	return Number{v: new(big.Int).Set(v)}
}

// Big returns a copy of the value
func (n Number) Big() *big.Int {
	if n.v == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(n.v)
}

// Uint64 returns the value truncated to 64 bits
func (n Number) Uint64() uint64 {
	return n.Big().Uint64()
}

func (n Number) String() string {
	return n.Big().String()
}

func (n Number) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(n.String())), nil
}

func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		n.v = new(big.Int)
		return nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("invalid number %s", data)
	}
	n.v = v
	return nil
}

// MultisigTransaction represents a Safe multisig transaction
type MultisigTransaction struct {
	Safe                  string         `json:"safe"`
	To                    string         `json:"to"`
	Value                 Number         `json:"value"`
	Data                  *string        `json:"data"`
	Operation             int            `json:"operation"`
	SafeTxGas             Number         `json:"safeTxGas"`
	BaseGas               Number         `json:"baseGas"`
	GasPrice              Number         `json:"gasPrice"`
	GasToken              string         `json:"gasToken"`
	RefundReceiver        string         `json:"refundReceiver"`
	Nonce                 Number         `json:"nonce"`
	ExecutionDate         *time.Time     `json:"executionDate"`
	SubmissionDate        time.Time      `json:"submissionDate"`
	Modified              time.Time      `json:"modified"`
	BlockNumber           *int64         `json:"blockNumber"`
	TransactionHash       *string        `json:"transactionHash"`
	SafeTxHash            string         `json:"safeTxHash"`
	Proposer              *string        `json:"proposer"`
	Executor              *string        `json:"executor"`
	IsExecuted            bool           `json:"isExecuted"`
	IsSuccessful          *bool          `json:"isSuccessful"`
	Origin                string         `json:"origin"`
	DataDecoded           *DataDecoded   `json:"dataDecoded"`
	ConfirmationsRequired int            `json:"confirmationsRequired"`
	Confirmations         []Confirmation `json:"confirmations"`
	Trusted               bool           `json:"trusted"`
	Signatures            *string        `json:"signatures"`
}

// DataBytes decodes the call data, treating a missing value as empty
func (t *MultisigTransaction) DataBytes() ([]byte, error) {
	if t.Data == nil || *t.Data == "" {
		return []byte{}, nil
	}
	return hexutil.Decode(*t.Data)
}

// Confirmation represents a confirmation on a Safe transaction
type Confirmation struct {
	Owner           string    `json:"owner"`
	SubmissionDate  time.Time `json:"submissionDate"`
	TransactionHash *string   `json:"transactionHash"`
	Signature       *string   `json:"signature"`
	SignatureType   string    `json:"signatureType"`
}

// DataDecoded is the service's decoding of the call data
type DataDecoded struct {
	Method     string      `json:"method"`
	Parameters []Parameter `json:"parameters"`
}

// Parameter is one decoded argument
type Parameter struct {
	Name         string          `json:"name"`
	Type         string          `json:"type"`
	Value        json.RawMessage `json:"value"`
	ValueDecoded json.RawMessage `json:"valueDecoded,omitempty"`
}

// StringValue returns the argument when the service rendered it as a string
func (p Parameter) StringValue() string {
	var s string
	if err := json.Unmarshal(p.Value, &s); err != nil {
		return ""
	}
	return s
}

// DecodedAction is one inner call of a decoded multiSend
type DecodedAction struct {
	Operation   int          `json:"operation"`
	To          string       `json:"to"`
	Value       Number       `json:"value"`
	Data        *string      `json:"data"`
	DataDecoded *DataDecoded `json:"dataDecoded"`
}

// Actions returns the inner calls of a decoded multiSend, or nil for any other method
func (d *DataDecoded) Actions() []DecodedAction {
	if d == nil || d.Method != "multiSend" || len(d.Parameters) == 0 {
		return nil
	}
	var actions []DecodedAction
	if err := json.Unmarshal(d.Parameters[0].ValueDecoded, &actions); err != nil {
		return nil
	}
	return actions
}

// Param returns the string value of the named argument
func (d *DataDecoded) Param(name string) string {
	if d == nil {
		return ""
	}
	for _, p := range d.Parameters {
		if p.Name == name {
			return p.StringValue()
		}
	}
	return ""
}

// SafeInfo is the service's view of an account
type SafeInfo struct {
	Address         string   `json:"address"`
	Nonce           Number   `json:"nonce"`
	Threshold       int      `json:"threshold"`
	Owners          []string `json:"owners"`
	MasterCopy      string   `json:"masterCopy"`
	Modules         []string `json:"modules"`
	FallbackHandler string   `json:"fallbackHandler"`
	Guard           string   `json:"guard"`
	Version         string   `json:"version"`
}

// EstimationRequest asks the service for a safeTxGas estimate
type EstimationRequest struct {
	To        string  `json:"to"`
	Value     Number  `json:"value"`
	Data      *string `json:"data"`
	Operation int     `json:"operation"`
}

// EstimationResponse carries the safeTxGas estimate
type EstimationResponse struct {
	SafeTxGas Number `json:"safeTxGas"`
}

// ProposalRequest is the body of a new multisig transaction
type ProposalRequest struct {
	To                      string  `json:"to"`
	Value                   Number  `json:"value"`
	Data                    *string `json:"data"`
	Operation               int     `json:"operation"`
	SafeTxGas               Number  `json:"safeTxGas"`
	BaseGas                 Number  `json:"baseGas"`
	GasPrice                Number  `json:"gasPrice"`
	GasToken                string  `json:"gasToken"`
	RefundReceiver          string  `json:"refundReceiver"`
	Nonce                   Number  `json:"nonce"`
	ContractTransactionHash string  `json:"contractTransactionHash"`
	Sender                  string  `json:"sender"`
	Signature               string  `json:"signature,omitempty"`
	Origin                  string  `json:"origin,omitempty"`
}

type confirmationRequest struct {
	Signature string `json:"signature"`
}

type paginated[T any] struct {
	Count   int     `json:"count"`
	Next    *string `json:"next"`
	Results []T     `json:"results"`
}

// IsNotFound reports whether err is a 404 answer from the service
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.IsNotFound()
}

// GetTransaction retrieves a Safe transaction by its hash
func (c *Client) GetTransaction(ctx context.Context, safeTxHash common.Hash) (*MultisigTransaction, error) {
	var tx MultisigTransaction
	path := fmt.Sprintf("/api/v1/multisig-transactions/%s/", safeTxHash.Hex())
	if err := c.do(ctx, http.MethodGet, path, nil, &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// IsTransactionExecuted checks if a Safe transaction has been executed
func (c *Client) IsTransactionExecuted(ctx context.Context, safeTxHash common.Hash) (bool, *common.Hash, error) {
	tx, err := c.GetTransaction(ctx, safeTxHash)
	if err != nil {
		return false, nil, err
	}

	if tx.IsExecuted && tx.TransactionHash != nil {
		ethTxHash := common.HexToHash(*tx.TransactionHash)
		return true, &ethTxHash, nil
	}

	return false, nil, nil
}

// GetPendingTransactions retrieves pending transactions for a Safe, highest nonce first
func (c *Client) GetPendingTransactions(ctx context.Context, safeAddress common.Address) ([]*MultisigTransaction, error) {
	var result paginated[*MultisigTransaction]
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/?executed=false&ordering=-nonce&limit=100",
		safeAddress.Hex())
	if err := c.do(ctx, http.MethodGet, path, nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetSafeInfo retrieves nonce, threshold, owners and version of a Safe
func (c *Client) GetSafeInfo(ctx context.Context, safeAddress common.Address) (*SafeInfo, error) {
	var info SafeInfo
	path := fmt.Sprintf("/api/v1/safes/%s/", safeAddress.Hex())
	if err := c.do(ctx, http.MethodGet, path, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// EstimateSafeTxGas asks the service for the safeTxGas of a call
func (c *Client) EstimateSafeTxGas(ctx context.Context, safeAddress common.Address, req EstimationRequest) (*EstimationResponse, error) {
	var resp EstimationResponse
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/estimations/", safeAddress.Hex())
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProposeTransaction adds a new transaction to the queue of a Safe
func (c *Client) ProposeTransaction(ctx context.Context, safeAddress common.Address, req ProposalRequest) error {
	path := fmt.Sprintf("/api/v1/safes/%s/multisig-transactions/", safeAddress.Hex())
	return c.do(ctx, http.MethodPost, path, req, nil)
}

// ConfirmTransaction adds an owner signature to a queued transaction
func (c *Client) ConfirmTransaction(ctx context.Context, safeTxHash common.Hash, signature []byte) error {
	path := fmt.Sprintf("/api/v1/multisig-transactions/%s/confirmations/", safeTxHash.Hex())
	return c.do(ctx, http.MethodPost, path, confirmationRequest{Signature: hexutil.Encode(signature)}, nil)
}

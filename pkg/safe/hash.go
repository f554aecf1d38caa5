package safe

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"golang.org/x/mod/semver"
)

var (
	domainTypeHash       = crypto.Keccak256Hash([]byte("EIP712Domain(uint256 chainId,address verifyingContract)"))
	legacyDomainTypeHash = crypto.Keccak256Hash([]byte("EIP712Domain(address verifyingContract)"))

	safeTxTypeHash = crypto.Keccak256Hash([]byte(
		"SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 baseGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)",
	))
	// accounts before 1.0.0 named baseGas dataGas
	legacySafeTxTypeHash = crypto.Keccak256Hash([]byte(
		"SafeTx(address to,uint256 value,bytes data,uint8 operation,uint256 safeTxGas,uint256 dataGas,uint256 gasPrice,address gasToken,address refundReceiver,uint256 nonce)",
	))
)

// TxParams are the fields of a SafeTx struct
type TxParams struct {
	To             common.Address
	Value          *big.Int
	Data           []byte
	Operation      uint8
	SafeTxGas      *big.Int
	BaseGas        *big.Int
	GasPrice       *big.Int
	GasToken       common.Address
	RefundReceiver common.Address
	Nonce          *big.Int
}

func canonicalVersion(version string) string {
	v := strings.TrimSpace(version)
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return ""
	}
	return v
}

// versionBelow reports whether version is older than target. Unknown versions count as current.
func versionBelow(version, target string) bool {
	v := canonicalVersion(version)
	if v == "" {
		return false
	}
	return semver.Compare(v, target) < 0
}

// DomainSeparator returns the EIP-712 domain separator of an account
func DomainSeparator(chainID uint64, safe common.Address, version string) (common.Hash, error) {
	bytes32, _ := abi.NewType("bytes32", "", nil)
	uint256, _ := abi.NewType("uint256", "", nil)
	address, _ := abi.NewType("address", "", nil)

	var (
		encoded []byte
		err     error
	)
	if versionBelow(version, "v1.3.0") {
		args := abi.Arguments{{Type: bytes32}, {Type: address}}
		encoded, err = args.Pack(legacyDomainTypeHash, safe)
	} else {
		args := abi.Arguments{{Type: bytes32}, {Type: uint256}, {Type: address}}
		encoded, err = args.Pack(domainTypeHash, new(big.Int).SetUint64(chainID), safe)
	}
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode domain: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// StructHash returns the EIP-712 struct hash of the SafeTx
func StructHash(version string, tx TxParams) (common.Hash, error) {
	bytes32, _ := abi.NewType("bytes32", "", nil)
	uint256, _ := abi.NewType("uint256", "", nil)
	uint8Type, _ := abi.NewType("uint8", "", nil)
	address, _ := abi.NewType("address", "", nil)

	typeHash := safeTxTypeHash
	if versionBelow(version, "v1.0.0") {
		typeHash = legacySafeTxTypeHash
	}

	args := abi.Arguments{
		{Type: bytes32},
		{Type: address},
		{Type: uint256},
		{Type: bytes32},
		{Type: uint8Type},
		{Type: uint256},
		{Type: uint256},
		{Type: uint256},
		{Type: address},
		{Type: address},
		{Type: uint256},
	}
	encoded, err := args.Pack(
		typeHash,
		tx.To,
		orZero(tx.Value),
		crypto.Keccak256Hash(tx.Data),
		tx.Operation,
		orZero(tx.SafeTxGas),
		orZero(tx.BaseGas),
		orZero(tx.GasPrice),
		tx.GasToken,
		tx.RefundReceiver,
		orZero(tx.Nonce),
	)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to encode SafeTx: %w", err)
	}
	return crypto.Keccak256Hash(encoded), nil
}

// TransactionHash returns the safeTxHash the owners sign
func TransactionHash(chainID uint64, safe common.Address, version string, tx TxParams) (common.Hash, error) {
	domain, err := DomainSeparator(chainID, safe, version)
	if err != nil {
		return common.Hash{}, err
	}
	structHash, err := StructHash(version, tx)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash([]byte{0x19, 0x01}, domain.Bytes(), structHash.Bytes()), nil
}

func orZero(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

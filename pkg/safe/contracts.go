package safe

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const safeABIJSON = `[
	{"type":"function","name":"execTransaction","stateMutability":"payable","inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"},{"name":"data","type":"bytes"},
		{"name":"operation","type":"uint8"},{"name":"safeTxGas","type":"uint256"},{"name":"baseGas","type":"uint256"},
		{"name":"gasPrice","type":"uint256"},{"name":"gasToken","type":"address"},{"name":"refundReceiver","type":"address"},
		{"name":"signatures","type":"bytes"}],"outputs":[{"name":"success","type":"bool"}]},
	{"type":"function","name":"nonce","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getThreshold","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
	{"type":"function","name":"getOwners","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
	{"type":"function","name":"VERSION","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
	{"type":"function","name":"addOwnerWithThreshold","stateMutability":"nonpayable","inputs":[
		{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"removeOwner","stateMutability":"nonpayable","inputs":[
		{"name":"prevOwner","type":"address"},{"name":"owner","type":"address"},{"name":"_threshold","type":"uint256"}],"outputs":[]},
	{"type":"function","name":"swapOwner","stateMutability":"nonpayable","inputs":[
		{"name":"prevOwner","type":"address"},{"name":"oldOwner","type":"address"},{"name":"newOwner","type":"address"}],"outputs":[]},
	{"type":"function","name":"changeThreshold","stateMutability":"nonpayable","inputs":[
		{"name":"_threshold","type":"uint256"}],"outputs":[]}
]`

const multiSendABIJSON = `[
	{"type":"function","name":"multiSend","stateMutability":"payable","inputs":[{"name":"transactions","type":"bytes"}],"outputs":[]}
]`

const tokenABIJSON = `[
	{"type":"function","name":"transfer","stateMutability":"nonpayable","inputs":[
		{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
	{"type":"function","name":"safeTransferFrom","stateMutability":"nonpayable","inputs":[
		{"name":"from","type":"address"},{"name":"to","type":"address"},{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

var (
	SafeABI      = mustParseABI(safeABIJSON)
	MultiSendABI = mustParseABI(multiSendABIJSON)
	TokenABI     = mustParseABI(tokenABIJSON)

	// SentinelOwners heads the linked list of owners kept by the account
	SentinelOwners = common.HexToAddress("0x0000000000000000000000000000000000000001")

	// DefaultMultiSendCallOnly is the canonical MultiSendCallOnly 1.3.0 deployment
	DefaultMultiSendCallOnly = common.HexToAddress("0x40A2aCCbd92BCA938b02010E17A5b8929b49130D")
)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}

// EncodeExecTransaction encodes an execTransaction call with the given signatures
func EncodeExecTransaction(tx TxParams, signatures []byte) ([]byte, error) {
	data := tx.Data
	if data == nil {
		data = []byte{}
	}
	if signatures == nil {
		signatures = []byte{}
	}
	return SafeABI.Pack("execTransaction",
		tx.To,
		orZero(tx.Value),
		data,
		tx.Operation,
		orZero(tx.SafeTxGas),
		orZero(tx.BaseGas),
		orZero(tx.GasPrice),
		tx.GasToken,
		tx.RefundReceiver,
		signatures,
	)
}

// EncodeAddOwner encodes addOwnerWithThreshold
func EncodeAddOwner(owner common.Address, threshold uint64) ([]byte, error) {
	return SafeABI.Pack("addOwnerWithThreshold", owner, new(big.Int).SetUint64(threshold))
}

// EncodeRemoveOwner encodes removeOwner; prevOwner is the owner preceding owner in the list
func EncodeRemoveOwner(prevOwner, owner common.Address, threshold uint64) ([]byte, error) {
	return SafeABI.Pack("removeOwner", prevOwner, owner, new(big.Int).SetUint64(threshold))
}

// EncodeSwapOwner encodes swapOwner
func EncodeSwapOwner(prevOwner, oldOwner, newOwner common.Address) ([]byte, error) {
	return SafeABI.Pack("swapOwner", prevOwner, oldOwner, newOwner)
}

// EncodeChangeThreshold encodes changeThreshold
func EncodeChangeThreshold(threshold uint64) ([]byte, error) {
	return SafeABI.Pack("changeThreshold", new(big.Int).SetUint64(threshold))
}

// EncodeERC20Transfer encodes transfer(address,uint256)
func EncodeERC20Transfer(to common.Address, amount *big.Int) ([]byte, error) {
	return TokenABI.Pack("transfer", to, orZero(amount))
}

// EncodeERC721Transfer encodes safeTransferFrom(address,address,uint256)
func EncodeERC721Transfer(from, to common.Address, tokenID *big.Int) ([]byte, error) {
	return TokenABI.Pack("safeTransferFrom", from, to, orZero(tokenID))
}

// PrevOwner returns the owner preceding owner in the linked list the account keeps,
// or SentinelOwners when owner is first
func PrevOwner(owners []common.Address, owner common.Address) (common.Address, error) {
	for i, o := range owners {
		if o == owner {
			if i == 0 {
				return SentinelOwners, nil
			}
			return owners[i-1], nil
		}
	}
	return common.Address{}, fmt.Errorf("%s is not an owner", owner.Hex())
}

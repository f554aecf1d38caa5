package models

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

const multisigTxIDPrefix = "multisig"

// MultisigTxID builds the id the review queue uses for a multisig transaction
func MultisigTxID(safe common.Address, safeTxHash common.Hash) string {
	return fmt.Sprintf("%s_%s_%s", multisigTxIDPrefix, safe.Hex(), safeTxHash.Hex())
}

// ParseTxID accepts either a full multisig id or a bare safeTxHash
func ParseTxID(id string) (common.Address, common.Hash, error) {
	if strings.HasPrefix(id, "0x") {
		if len(id) != 66 {
			return common.Address{}, common.Hash{}, fmt.Errorf("invalid transaction id %q", id)
		}
		return common.Address{}, common.HexToHash(id), nil
	}

	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != multisigTxIDPrefix {
		return common.Address{}, common.Hash{}, fmt.Errorf("invalid transaction id %q", id)
	}
	if !common.IsHexAddress(parts[1]) || len(parts[2]) != 66 {
		return common.Address{}, common.Hash{}, fmt.Errorf("invalid transaction id %q", id)
	}
	return common.HexToAddress(parts[1]), common.HexToHash(parts[2]), nil
}

package models

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/samber/lo"
)

// SafeInfo is the on-chain configuration of the account as reported by the backend
type SafeInfo struct {
	Address   common.Address   `json:"address"`
	ChainID   uint64           `json:"chainId"`
	Version   string           `json:"version"`
	Nonce     uint64           `json:"nonce"`
	Threshold int              `json:"threshold"`
	Owners    []common.Address `json:"owners"`
}

// IsOwner reports whether addr is one of the account owners
func (s *SafeInfo) IsOwner(addr common.Address) bool {
	return lo.Contains(s.Owners, addr)
}

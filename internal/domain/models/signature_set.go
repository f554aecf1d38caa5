package models

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/samber/lo"
)

// SignatureLength is the size of one static Safe signature (r, s, v)
const SignatureLength = 65

// OwnerSignature is one entry of a SignatureSet
type OwnerSignature struct {
	Signer      common.Address `json:"signer"`
	Data        hexutil.Bytes  `json:"data"`
	PreApproved bool           `json:"preApproved,omitempty"`
}

// SignatureSet collects owner signatures for one descriptor.
// Entries are never overwritten once added.
type SignatureSet struct {
	entries map[string]OwnerSignature
}

// NewSignatureSet creates an empty signature set
func NewSignatureSet() *SignatureSet {
	return &SignatureSet{entries: make(map[string]OwnerSignature)}
}

func signerKey(signer common.Address) string {
	return strings.ToLower(signer.Hex())
}

// Add inserts a signature for signer. It reports false when signer already has one.
func (s *SignatureSet) Add(signer common.Address, signature []byte) bool {
	return s.insert(OwnerSignature{Signer: signer, Data: common.CopyBytes(signature)})
}

// AddPreApproved inserts a signature sourced from a backend confirmation record.
// An empty static part marks an owner that approved the hash on-chain.
func (s *SignatureSet) AddPreApproved(signer common.Address, static []byte) bool {
	return s.insert(OwnerSignature{Signer: signer, Data: common.CopyBytes(static), PreApproved: true})
}

func (s *SignatureSet) insert(sig OwnerSignature) bool {
	if s.entries == nil {
		s.entries = make(map[string]OwnerSignature)
	}
	key := signerKey(sig.Signer)
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = sig
	return true
}

// Has reports whether signer already signed
func (s *SignatureSet) Has(signer common.Address) bool {
	if s == nil {
		return false
	}
	_, ok := s.entries[signerKey(signer)]
	return ok
}

// Get returns the signature recorded for signer
func (s *SignatureSet) Get(signer common.Address) (OwnerSignature, bool) {
	if s == nil {
		return OwnerSignature{}, false
	}
	sig, ok := s.entries[signerKey(signer)]
	return sig, ok
}

// Len returns the number of collected signatures
func (s *SignatureSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the signatures ordered ascending by signer address
func (s *SignatureSet) Entries() []OwnerSignature {
	if s == nil {
		return nil
	}
	keys := lo.Keys(s.entries)
	sort.Strings(keys)
	return lo.Map(keys, func(k string, _ int) OwnerSignature {
		return s.entries[k]
	})
}

// Signers returns the signer addresses in serialization order
func (s *SignatureSet) Signers() []common.Address {
	return lo.Map(s.Entries(), func(e OwnerSignature, _ int) common.Address {
		return e.Signer
	})
}

// Serialize concatenates the signatures sorted ascending by signer address,
// the order the Safe contract verifies them in.
func (s *SignatureSet) Serialize() []byte {
	var out []byte
	for _, entry := range s.Entries() {
		if len(entry.Data) == 0 {
			if !entry.PreApproved {
				continue
			}
			out = append(out, approvedHashSignature(entry.Signer)...)
			continue
		}
		out = append(out, entry.Data...)
	}
	return out
}

// Clone returns an independent copy of the set
func (s *SignatureSet) Clone() *SignatureSet {
	clone := NewSignatureSet()
	if s == nil {
		return clone
	}
	for k, v := range s.entries {
		v.Data = common.CopyBytes(v.Data)
		clone.entries[k] = v
	}
	return clone
}

// approvedHashSignature builds the pre-validated form: r = owner, s = 0, v = 1
func approvedHashSignature(owner common.Address) []byte {
	sig := make([]byte, SignatureLength)
	copy(sig[12:32], owner.Bytes())
	sig[64] = 1
	return sig
}

func (s *SignatureSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Entries())
}

func (s *SignatureSet) UnmarshalJSON(data []byte) error {
	var entries []OwnerSignature
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.entries = make(map[string]OwnerSignature, len(entries))
	for _, e := range entries {
		s.insert(e)
	}
	return nil
}

package models

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTxID(t *testing.T) {
	safe := common.HexToAddress("0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe")
	hash := common.HexToHash("0xabcdef")

	gotSafe, gotHash, err := ParseTxID(MultisigTxID(safe, hash))
	require.NoError(t, err)
	assert.Equal(t, safe, gotSafe)
	assert.Equal(t, hash, gotHash)

	_, gotHash, err = ParseTxID(hash.Hex())
	require.NoError(t, err)
	assert.Equal(t, hash, gotHash)

	for _, bad := range []string{"", "multisig_0x1_0x2", "module_" + safe.Hex() + "_" + hash.Hex(), safe.Hex()} {
		_, _, err := ParseTxID(bad)
		assert.Error(t, err, bad)
	}
}

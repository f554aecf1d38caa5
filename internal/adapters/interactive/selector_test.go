package interactive

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

func queueItem(nonce uint64, method string) models.QueueItem {
	return models.QueueItem{
		TxID:       "tx",
		SafeTxHash: common.HexToHash("0xabcdef0123"),
		TxInfo: models.TxInfo{
			Type:   models.TxInfoTypeCustom,
			Custom: &models.CustomInfo{MethodName: method},
		},
		Execution: models.QueueExecution{
			Type:                   models.ExecutionInfoMultisig,
			Nonce:                  nonce,
			ConfirmationsSubmitted: 1,
			ConfirmationsRequired:  2,
		},
	}
}

func TestFormatQueueOptions(t *testing.T) {
	color.NoColor = true
	items := []models.QueueItem{queueItem(4, "addOwnerWithThreshold")}

	options := formatQueueOptions(items)

	require.Len(t, options, 1)
	assert.Equal(t, "#4 addOwnerWithThreshold (1/2) 0x00000000", options[0])
}

func TestFuzzySearch(t *testing.T) {
	search := createFuzzySearchFunc([]string{"#4 addOwnerWithThreshold", "#5 changeThreshold"})

	assert.True(t, search("", 0))
	assert.True(t, search("ADDOWNER", 0))
	assert.True(t, search("chthr", 1))
	assert.False(t, search("xyz", 1))
}

func TestSelectQueueItem(t *testing.T) {
	ctx := context.Background()

	t.Run("single item needs no prompt", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
		item, err := s.SelectQueueItem(ctx, []models.QueueItem{queueItem(1, "a")}, "pick")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), item.Execution.Nonce)
	})

	t.Run("non-interactive with choices", func(t *testing.T) {
		s := NewSelectorAdapter(&config.RuntimeConfig{NonInteractive: true})
		_, err := s.SelectQueueItem(ctx, []models.QueueItem{queueItem(1, "a"), queueItem(1, "b")}, "pick")
		assert.Error(t, err)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := NewSelectorAdapter(&config.RuntimeConfig{}).SelectQueueItem(ctx, nil, "pick")
		assert.Error(t, err)
	})
}

func TestConfirmer_NonInteractive(t *testing.T) {
	ok, err := NewConfirmerAdapter(&config.RuntimeConfig{NonInteractive: true}).Confirm(context.Background(), "Execute?")
	require.NoError(t, err)
	assert.True(t, ok)
}

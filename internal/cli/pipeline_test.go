package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

func TestOutcomeCollector(t *testing.T) {
	bus := events.NewBus(nil)
	collector := collectOutcomes(bus)

	bus.Publish(events.KindMining, events.Event{TxID: "a"})
	bus.Publish(events.KindMined, events.Event{TxID: "b"})
	bus.Publish(events.KindReverted, events.Event{TxID: "a"})
	bus.Publish(events.KindFailed, events.Event{TxID: "b"})

	outcomes := collector.Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, "b", outcomes[0].TxID)
	assert.Equal(t, events.KindFailed, outcomes[0].Kind)
	assert.Equal(t, "a", outcomes[1].TxID)
	assert.Equal(t, events.KindReverted, outcomes[1].Kind)

	collector.Close()
	bus.Publish(events.KindMined, events.Event{TxID: "c"})
	assert.Len(t, collector.Outcomes(), 2)
}

func TestReadCalls(t *testing.T) {
	dir := t.TempDir()

	t.Run("valid", func(t *testing.T) {
		path := filepath.Join(dir, "calls.json")
		require.NoError(t, os.WriteFile(path, []byte(`[
  {"to": "0x1111111111111111111111111111111111111111", "value": "5"},
  {"to": "0x2222222222222222222222222222222222222222", "data": "0xdeadbeef", "operation": 1}
]`), 0644))

		calls, err := readCalls(path)
		require.NoError(t, err)
		require.Len(t, calls, 2)

		assert.Equal(t, common.HexToAddress("0x1111111111111111111111111111111111111111"), calls[0].To)
		assert.Equal(t, int64(5), calls[0].Value.Int64())
		assert.Empty(t, calls[0].Data)
		assert.Equal(t, models.OperationCall, calls[0].Operation)

		assert.Equal(t, int64(0), calls[1].Value.Int64())
		assert.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, []byte(calls[1].Data))
		assert.Equal(t, models.OperationDelegateCall, calls[1].Operation)
	})

	t.Run("invalid address", func(t *testing.T) {
		path := filepath.Join(dir, "bad.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"to": "nope"}]`), 0644))

		_, err := readCalls(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid call 0")
	})

	t.Run("not json", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.json")
		require.NoError(t, os.WriteFile(path, []byte(`{`), 0644))

		_, err := readCalls(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse calls")
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := readCalls(filepath.Join(dir, "missing.json"))
		require.Error(t, err)
	})
}

func TestNonceFlag(t *testing.T) {
	var nonce uint64
	cmd := &cobra.Command{Use: "test"}
	cmd.Flags().Uint64Var(&nonce, "nonce", 0, "")

	assert.Nil(t, nonceFlag(cmd, nonce))

	require.NoError(t, cmd.Flags().Set("nonce", "0"))
	got := nonceFlag(cmd, nonce)
	require.NotNil(t, got)
	assert.Equal(t, uint64(0), *got)
}

func TestParseArguments(t *testing.T) {
	_, err := parseAddress("owner", "0x123")
	assert.EqualError(t, err, `invalid owner address "0x123"`)

	address, err := parseAddress("owner", "0x3333333333333333333333333333333333333333")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0x3333333333333333333333333333333333333333"), address)

	_, err = parseAmount("amount", "-1")
	assert.Error(t, err)
	_, err = parseAmount("amount", "1.5")
	assert.Error(t, err)

	amount, err := parseAmount("amount", "1000000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000000", amount.String())
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCmd()

	groups := map[string][]string{}
	for _, cmd := range root.Commands() {
		groups[cmd.GroupID] = append(groups[cmd.GroupID], cmd.Name())
	}

	assert.ElementsMatch(t, []string{"propose", "reject", "confirm", "execute", "batch"}, groups["transactions"])
	assert.ElementsMatch(t, []string{"queue", "pending", "monitor", "sync"}, groups["tracking"])

	propose, _, err := root.Find([]string{"propose", "add-owner"})
	require.NoError(t, err)
	assert.Equal(t, "add-owner", propose.Name())
}

package usecase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

var monitoredHash = common.HexToHash("0x1234000000000000000000000000000000000000000000000000000000005678")

func TestMonitorTransaction(t *testing.T) {
	t.Run("single terminal event under double monitoring", func(t *testing.T) {
		chain := newFakeChain()
		chain.setReceipt(monitoredHash, types.ReceiptStatusSuccessful)
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())

		assert.True(t, monitor.WaitForTx("tx-1", monitoredHash))
		assert.False(t, monitor.WaitForTx("tx-1", monitoredHash))
		monitor.Wait()

		assert.Equal(t, []events.Kind{events.KindMined}, rec.kinds("tx-1"))
		event, _ := rec.last(events.KindMined)
		require.NotNil(t, event.Receipt)
		assert.Equal(t, monitoredHash, *event.TxHash)

		assert.False(t, monitor.WaitForTx("tx-1", monitoredHash))
		monitor.Wait()
		assert.Len(t, rec.kinds("tx-1"), 1)
	})

	t.Run("reverted receipt", func(t *testing.T) {
		chain := newFakeChain()
		chain.setReceipt(monitoredHash, types.ReceiptStatusFailed)
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())

		monitor.WaitForTx("tx-1", monitoredHash)
		monitor.Wait()

		event, ok := rec.last(events.KindReverted)
		require.True(t, ok)
		assert.Equal(t, "Transaction reverted by EVM", event.Err.Error())
		assert.ErrorIs(t, event.Err, domain.ErrReverted)
		var revertErr *domain.RevertError
		require.ErrorAs(t, event.Err, &revertErr)
		assert.Same(t, event.Receipt, revertErr.Receipt)
	})

	t.Run("keeps polling until the receipt shows up", func(t *testing.T) {
		chain := newFakeChain()
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())

		monitor.WaitForTx("tx-1", monitoredHash)
		time.Sleep(30 * time.Millisecond)
		chain.setReceipt(monitoredHash, types.ReceiptStatusSuccessful)
		monitor.Wait()

		assert.Equal(t, []events.Kind{events.KindMined}, rec.kinds("tx-1"))
		chain.mu.Lock()
		assert.Greater(t, chain.polls, 1)
		chain.mu.Unlock()
	})

	t.Run("connection error fails without retry", func(t *testing.T) {
		chain := newFakeChain()
		chain.err = errors.New("connection refused")
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())

		monitor.WaitForTx("tx-1", monitoredHash)
		monitor.Wait()

		event, ok := rec.last(events.KindFailed)
		require.True(t, ok)
		var monitorErr *domain.MonitorError
		require.ErrorAs(t, event.Err, &monitorErr)
		assert.ErrorIs(t, event.Err, chain.err)
		assert.Equal(t, 1, chain.polls)
	})

	t.Run("bounded wait", func(t *testing.T) {
		cfg := testConfig()
		cfg.MonitorTimeout = 30 * time.Millisecond
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(cfg, newFakeChain(), bus, discardLogger())

		monitor.WaitForTx("tx-1", monitoredHash)
		monitor.Wait()

		event, ok := rec.last(events.KindFailed)
		require.True(t, ok)
		assert.ErrorIs(t, event.Err, domain.ErrMonitorTimeout)
	})

	t.Run("stop emits nothing", func(t *testing.T) {
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), newFakeChain(), bus, discardLogger())

		monitor.WaitForTx("tx-1", monitoredHash)
		monitor.Stop()

		assert.Empty(t, rec.kinds(""))
		assert.True(t, monitor.IsWatching("tx-1"))
		assert.False(t, monitor.WaitForTx("tx-2", monitoredHash))
	})

	t.Run("batch members share the outcome", func(t *testing.T) {
		chain := newFakeChain()
		chain.setReceipt(monitoredHash, types.ReceiptStatusSuccessful)
		bus := events.NewBus(discardLogger())
		rec := record(bus)
		monitor := usecase.NewMonitorTransaction(testConfig(), chain, bus, discardLogger())

		assert.True(t, monitor.WaitForBatch("batch-1", []string{"a", "b"}, monitoredHash))
		monitor.Wait()

		assert.Equal(t, []events.Kind{events.KindMined}, rec.kinds("a"))
		assert.Equal(t, []events.Kind{events.KindMined}, rec.kinds("b"))
		event, _ := rec.last(events.KindMined)
		assert.Equal(t, "batch-1", event.BatchID)
		assert.Equal(t, 1, chain.polls)
	})
}

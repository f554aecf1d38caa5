package cli

import (
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/treb-safe/internal/app"
	"github.com/trebuchet-org/treb-safe/internal/cli/render"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
)

// outcomeCollector keeps the terminal event of every transaction seen on the bus
type outcomeCollector struct {
	mu     sync.Mutex
	order  []string
	events map[string]events.Event
	unsubs []func()
}

func collectOutcomes(bus *events.Bus) *outcomeCollector {
	c := &outcomeCollector{events: make(map[string]events.Event)}
	for _, kind := range []events.Kind{events.KindMined, events.KindReverted, events.KindFailed} {
		c.unsubs = append(c.unsubs, bus.Subscribe(kind, c.record))
	}
	return c
}

func (c *outcomeCollector) record(event events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, seen := c.events[event.TxID]; !seen {
		c.order = append(c.order, event.TxID)
	}
	c.events[event.TxID] = event
}

// Outcomes returns the collected events in arrival order
func (c *outcomeCollector) Outcomes() []events.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.Event, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.events[id])
	}
	return out
}

func (c *outcomeCollector) Close() {
	for _, unsub := range c.unsubs {
		unsub()
	}
}

// pipelineFlags are shared by every command that creates or confirms a transaction
type pipelineFlags struct {
	execute bool
	noWait  bool
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.execute, "execute", false, "Execute on-chain once enough signatures are collected")
	cmd.Flags().BoolVar(&f.noWait, "no-wait", false, "Return after submission without waiting for the receipt")
}

// runRecord signs, proposes and optionally executes rec, then renders the result
func runRecord(cmd *cobra.Command, a *app.App, rec *models.TxRecord, flags pipelineFlags) error {
	ctx := cmd.Context()

	execute := flags.execute
	if execute {
		ok, err := a.Confirmer.Confirm(ctx, fmt.Sprintf("Execute transaction #%d on-chain if the threshold is met", rec.Tx.Data.Nonce))
		if err != nil {
			return err
		}
		execute = ok
	}

	collector := collectOutcomes(a.Bus)
	defer collector.Close()

	result, err := a.Executor.Run(ctx, rec, a.Signer.Address(), execute)
	if err != nil {
		return err
	}

	renderer := newExecutionRenderer(cmd, a)
	_, safeTxHash, _ := models.ParseTxID(rec.ID)
	if err := renderer.RenderRun(result, safeTxHash); err != nil {
		return err
	}

	if result.Executed && !flags.noWait {
		a.Monitor.Wait()
		return renderer.RenderOutcomes(collector.Outcomes())
	}
	return nil
}

func newExecutionRenderer(cmd *cobra.Command, a *app.App) *render.ExecutionRenderer {
	explorer := ""
	if a.Config.Network != nil {
		explorer = a.Config.Network.ExplorerURL
	}
	return render.NewExecutionRenderer(cmd.OutOrStdout(), a.Config.JSON, explorer)
}

// nonceFlag returns nil unless --nonce was given
func nonceFlag(cmd *cobra.Command, value uint64) *uint64 {
	if !cmd.Flags().Changed("nonce") {
		return nil
	}
	return &value
}

func parseAddress(name, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("invalid %s address %q", name, value)
	}
	return common.HexToAddress(value), nil
}

func parseAmount(name, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("invalid %s %q", name, value)
	}
	return amount, nil
}

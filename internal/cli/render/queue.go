package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// QueueRenderer renders the review queue of an account
type QueueRenderer struct {
	out  io.Writer
	json bool
}

// NewQueueRenderer creates a new queue renderer
func NewQueueRenderer(out io.Writer, asJSON bool) *QueueRenderer {
	return &QueueRenderer{out: out, json: asJSON}
}

type queueJSON struct {
	CurrentNonce uint64              `json:"currentNonce"`
	Entries      []models.QueueEntry `json:"entries"`
	Batchable    []string            `json:"batchable"`
}

// RenderQueue renders the queue snapshot
func (r *QueueRenderer) RenderQueue(result *usecase.ListQueueResult) error {
	if r.json {
		batchable := make([]string, 0, len(result.Batchable))
		for _, item := range result.Batchable {
			batchable = append(batchable, item.TxID)
		}
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(queueJSON{
			CurrentNonce: result.CurrentNonce,
			Entries:      result.Entries,
			Batchable:    batchable,
		})
	}

	if len(result.Entries) == 0 {
		fmt.Fprintln(r.out, "No queued transactions")
		return nil
	}

	fmt.Fprintf(r.out, "Current nonce: %d\n\n", result.CurrentNonce)

	t := newTable(table.Row{"Nonce", "Safe Tx Hash", "Action", "Confirmations", "Status", ""})
	for _, entry := range result.Entries {
		items := entry.Items()
		for i, item := range items {
			nonce := fmt.Sprintf("#%d", item.Execution.Nonce)
			if i > 0 {
				nonce = "  └"
			}

			marks := ""
			if len(items) > 1 {
				marks = color.New(color.FgYellow).Sprint("conflict")
			}
			if result.IsBatchable(item.TxID) {
				marks = color.New(color.FgGreen).Sprint("batchable")
			}

			t.AppendRow(table.Row{
				nonce,
				shortHash(item.SafeTxHash.Hex()),
				item.TxInfo.Summary(),
				fmt.Sprintf("%d/%d", item.Execution.ConfirmationsSubmitted, item.Execution.ConfirmationsRequired),
				statusColor(string(item.TxStatus)).Sprint(FormatStatus(string(item.TxStatus))),
				marks,
			})
		}
	}
	fmt.Fprintln(r.out, t.Render())

	if n := len(result.Batchable); n > 0 {
		fmt.Fprintf(r.out, "\n%d transaction(s) can be executed together with 'treb-safe batch'\n", n)
	}
	return nil
}

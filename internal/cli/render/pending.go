package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"gopkg.in/yaml.v3"
)

// PendingFormat selects how pending entries are printed
type PendingFormat string

const (
	PendingFormatTable PendingFormat = "table"
	PendingFormatJSON  PendingFormat = "json"
	PendingFormatYAML  PendingFormat = "yaml"
)

// PendingRenderer renders tracked in-flight transactions
type PendingRenderer struct {
	out io.Writer
}

// NewPendingRenderer creates a new pending renderer
func NewPendingRenderer(out io.Writer) *PendingRenderer {
	return &PendingRenderer{out: out}
}

type pendingRow struct {
	TxID    string `json:"txId" yaml:"txId"`
	ChainID uint64 `json:"chainId" yaml:"chainId"`
	Status  string `json:"status" yaml:"status"`
	TxHash  string `json:"txHash,omitempty" yaml:"txHash,omitempty"`
	BatchID string `json:"batchId,omitempty" yaml:"batchId,omitempty"`
}

// Render prints entries sorted by chain and id
func (r *PendingRenderer) Render(entries models.PendingTxs, format PendingFormat) error {
	rows := make([]pendingRow, 0, len(entries))
	for _, entry := range entries {
		rows = append(rows, pendingRow{
			TxID:    entry.TxID,
			ChainID: entry.ChainID,
			Status:  string(entry.Status),
			TxHash:  entry.TxHash,
			BatchID: entry.BatchID,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ChainID != rows[j].ChainID {
			return rows[i].ChainID < rows[j].ChainID
		}
		return rows[i].TxID < rows[j].TxID
	})

	switch format {
	case PendingFormatJSON:
		encoder := json.NewEncoder(r.out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(rows)
	case PendingFormatYAML:
		encoder := yaml.NewEncoder(r.out)
		encoder.SetIndent(2)
		if err := encoder.Encode(rows); err != nil {
			return err
		}
		return encoder.Close()
	case PendingFormatTable, "":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	if len(rows) == 0 {
		fmt.Fprintln(r.out, "No pending transactions")
		return nil
	}

	t := newTable(table.Row{"Chain", "Transaction", "Status", "Tx Hash", "Batch"})
	for _, row := range rows {
		t.AppendRow(table.Row{
			row.ChainID,
			shortHash(row.TxID),
			statusColor(row.Status).Sprint(FormatStatus(row.Status)),
			shortHash(row.TxHash),
			row.BatchID,
		})
	}
	fmt.Fprintln(r.out, t.Render())
	return nil
}

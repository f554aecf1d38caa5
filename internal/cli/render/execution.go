package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/ethereum/go-ethereum/common"
	"github.com/fatih/color"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ExecutionRenderer renders pipeline results and final outcomes
type ExecutionRenderer struct {
	out         io.Writer
	json        bool
	explorerURL string
}

// NewExecutionRenderer creates a new execution renderer
func NewExecutionRenderer(out io.Writer, asJSON bool, explorerURL string) *ExecutionRenderer {
	return &ExecutionRenderer{out: out, json: asJSON, explorerURL: explorerURL}
}

type runJSON struct {
	TxID       string                   `json:"txId"`
	SafeTxHash common.Hash              `json:"safeTxHash"`
	Nonce      uint64                   `json:"nonce"`
	Signatures int                      `json:"signatures"`
	Required   int                      `json:"confirmationsRequired"`
	Executed   bool                     `json:"executed"`
	TxHash     *common.Hash             `json:"txHash,omitempty"`
	Status     models.TransactionStatus `json:"status"`
}

// RenderRun renders the outcome of signing, proposing and maybe executing
func (r *ExecutionRenderer) RenderRun(result *usecase.RunResult, safeTxHash common.Hash) error {
	rec := result.Record
	if r.json {
		return r.encode(runJSON{
			TxID:       rec.ID,
			SafeTxHash: safeTxHash,
			Nonce:      rec.Tx.Data.Nonce,
			Signatures: rec.Tx.Signatures.Len(),
			Required:   rec.ConfirmationsRequired,
			Executed:   result.Executed,
			TxHash:     result.TxHash,
			Status:     rec.Status,
		})
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Transaction #%d queued", rec.Tx.Data.Nonce)))
	fmt.Fprintf(r.out, "  Safe Tx Hash:  %s\n", safeTxHash.Hex())
	fmt.Fprintf(r.out, "  Signatures:    %d/%d\n", rec.Tx.Signatures.Len(), rec.ConfirmationsRequired)
	if result.Executed && result.TxHash != nil {
		fmt.Fprintf(r.out, "  Execution Tx:  %s\n", r.link(*result.TxHash))
	} else if rec.ConfirmationsRequired > rec.Tx.Signatures.Len() {
		missing := rec.ConfirmationsRequired - rec.Tx.Signatures.Len()
		fmt.Fprintln(r.out, color.New(color.FgYellow).Sprintf("  Waiting for %d more signature(s)", missing))
	}
	return nil
}

type batchJSON struct {
	BatchID string      `json:"batchId"`
	TxHash  common.Hash `json:"txHash"`
	Members []string    `json:"members"`
}

// RenderBatch renders a submitted batch
func (r *ExecutionRenderer) RenderBatch(hash common.Hash, batchID string, recs []*models.TxRecord) error {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	if r.json {
		return r.encode(batchJSON{BatchID: batchID, TxHash: hash, Members: ids})
	}

	fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("Submitted batch of %d transaction(s)", len(recs))))
	fmt.Fprintf(r.out, "  Batch:         %s\n", batchID)
	fmt.Fprintf(r.out, "  Execution Tx:  %s\n", r.link(hash))
	for _, rec := range recs {
		fmt.Fprintf(r.out, "  • #%d %s\n", rec.Tx.Data.Nonce, shortHash(rec.ID))
	}
	return nil
}

// RenderOutcomes renders the terminal event of every transaction waited for
func (r *ExecutionRenderer) RenderOutcomes(outcomes []events.Event) error {
	if r.json {
		type outcomeJSON struct {
			TxID   string       `json:"txId"`
			Kind   events.Kind  `json:"outcome"`
			TxHash *common.Hash `json:"txHash,omitempty"`
			Error  string       `json:"error,omitempty"`
		}
		rows := make([]outcomeJSON, 0, len(outcomes))
		for _, o := range outcomes {
			row := outcomeJSON{TxID: o.TxID, Kind: o.Kind, TxHash: o.TxHash}
			if o.Err != nil {
				row.Error = o.Err.Error()
			}
			rows = append(rows, row)
		}
		return r.encode(rows)
	}

	for _, o := range outcomes {
		switch o.Kind {
		case events.KindMined:
			fmt.Fprintln(r.out, FormatSuccess(fmt.Sprintf("%s executed", shortHash(o.TxID))))
		default:
			fmt.Fprintln(r.out, color.New(color.FgRed).Sprintf("❌ %s %s: %v", shortHash(o.TxID), FormatStatus(string(o.Kind)), o.Err))
		}
	}
	return nil
}

func (r *ExecutionRenderer) link(hash common.Hash) string {
	if r.explorerURL == "" {
		return hash.Hex()
	}
	return fmt.Sprintf("%s/tx/%s", r.explorerURL, hash.Hex())
}

func (r *ExecutionRenderer) encode(v any) error {
	encoder := json.NewEncoder(r.out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

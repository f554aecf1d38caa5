package models

// PendingStatus is the coarse status kept for transactions that need attention
type PendingStatus string

const (
	PendingStatusSubmitting PendingStatus = "SUBMITTING"
	PendingStatusMining     PendingStatus = "MINING"
	PendingStatusIndexing   PendingStatus = "INDEXING"
)

// PendingEntry is the durable tracking record of one in-flight transaction
type PendingEntry struct {
	ChainID uint64        `json:"chainId"`
	TxID    string        `json:"txId"`
	Status  PendingStatus `json:"status"`
	TxHash  string        `json:"txHash,omitempty"`
	BatchID string        `json:"batchId,omitempty"`
}

// PendingTxs is the persisted shape keyed by transaction id
type PendingTxs map[string]PendingEntry

// Clone returns a shallow copy safe to hand to another goroutine
func (p PendingTxs) Clone() PendingTxs {
	out := make(PendingTxs, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

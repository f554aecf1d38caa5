package domain

import (
	"sort"

	"github.com/trebuchet-org/treb-safe/internal/domain/models"
)

// BatchLimit is the maximum number of transactions executed in one batch
const BatchLimit = 20

// SelectBatchable picks the queued transactions that can be executed together:
// fully confirmed multisig transactions whose nonces continue currentNonce
// without gaps. Each entry is scanned newest first and the scan of an entry
// stops at its first ineligible transaction.
func SelectBatchable(snapshot []models.QueueEntry, currentNonce uint64, capacity int) []models.QueueItem {
	if capacity <= 0 {
		capacity = BatchLimit
	}

	selected := make([]models.QueueItem, 0, capacity)
	expected := currentNonce

	for _, entry := range snapshot {
		items := append([]models.QueueItem(nil), entry.Items()...)
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].Timestamp.After(items[j].Timestamp)
		})

		for _, item := range items {
			if !item.Execution.IsMultisig() {
				continue
			}
			if len(selected) >= capacity ||
				item.Execution.Nonce != expected ||
				!item.Execution.IsFullyConfirmed() {
				break
			}
			selected = append(selected, item)
			expected++
		}
	}

	return selected
}

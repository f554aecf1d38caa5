package progress

import (
	"context"
	"fmt"
	"sync"

	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// EventReporter forwards lifecycle events to a progress sink as human
// readable lines.
type EventReporter struct {
	sink usecase.ProgressSink

	mu    sync.Mutex
	unsub func()
}

// NewEventReporter creates a reporter writing to sink
func NewEventReporter(sink usecase.ProgressSink) *EventReporter {
	return &EventReporter{sink: sink}
}

// Attach starts reporting events published on bus
func (r *EventReporter) Attach(bus *events.Bus) {
	r.Detach()
	unsub := bus.SubscribeAll(r.report)
	r.mu.Lock()
	r.unsub = unsub
	r.mu.Unlock()
}

// Detach stops reporting
func (r *EventReporter) Detach() {
	r.mu.Lock()
	unsub := r.unsub
	r.unsub = nil
	r.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

func (r *EventReporter) report(event events.Event) {
	message, spinning := Describe(event)

	switch event.Kind {
	case events.KindProposeFailed, events.KindSignatureProposeFailed,
		events.KindSignFailed, events.KindReverted, events.KindFailed:
		r.sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: string(event.Kind), Message: message})
		r.sink.Error(message)
	case events.KindMining, events.KindExecuting:
		r.sink.OnProgress(context.Background(), usecase.ProgressEvent{
			Stage:   string(event.Kind),
			Message: message,
			Spinner: spinning,
		})
	default:
		r.sink.OnProgress(context.Background(), usecase.ProgressEvent{Stage: string(event.Kind), Message: message})
		r.sink.Info(message)
	}
}

// Describe renders an event as one line and reports whether it starts a wait
func Describe(event events.Event) (string, bool) {
	id := shortID(event.TxID)
	switch event.Kind {
	case events.KindProposed:
		return fmt.Sprintf("Proposed %s", id), false
	case events.KindSignatureProposed:
		return fmt.Sprintf("Added signature to %s", id), false
	case events.KindProposeFailed:
		return fmt.Sprintf("Failed to propose %s: %v", id, event.Err), false
	case events.KindSignatureProposeFailed:
		return fmt.Sprintf("Failed to add signature to %s: %v", id, event.Err), false
	case events.KindSigned:
		return fmt.Sprintf("Signed %s", id), false
	case events.KindSignFailed:
		return fmt.Sprintf("Failed to sign %s: %v", id, event.Err), false
	case events.KindExecuting:
		return fmt.Sprintf("Submitting %s", id), true
	case events.KindMining:
		if event.TxHash != nil {
			return fmt.Sprintf("Waiting for %s to be mined (%s)", id, event.TxHash.Hex()), true
		}
		return fmt.Sprintf("Waiting for %s to be mined", id), true
	case events.KindMined:
		if event.Receipt != nil && event.Receipt.BlockNumber != nil {
			return fmt.Sprintf("Mined %s in block %s", id, event.Receipt.BlockNumber), false
		}
		return fmt.Sprintf("Mined %s", id), false
	case events.KindReverted:
		return fmt.Sprintf("Reverted %s: %v", id, event.Err), false
	case events.KindFailed:
		return fmt.Sprintf("Failed %s: %v", id, event.Err), false
	case events.KindSuccess:
		return fmt.Sprintf("Indexed %s", id), false
	}
	return fmt.Sprintf("%s %s", event.Kind, id), false
}

// shortID keeps the hash part of a multisig id readable
func shortID(txID string) string {
	if len(txID) <= 20 {
		return txID
	}
	return txID[:10] + "…" + txID[len(txID)-8:]
}

package progress

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

type recordingSink struct {
	progress []usecase.ProgressEvent
	infos    []string
	errors   []string
}

func (s *recordingSink) OnProgress(_ context.Context, event usecase.ProgressEvent) {
	s.progress = append(s.progress, event)
}
func (s *recordingSink) Info(message string)  { s.infos = append(s.infos, message) }
func (s *recordingSink) Error(message string) { s.errors = append(s.errors, message) }

func TestDescribe(t *testing.T) {
	hash := common.HexToHash("0xbeef")
	tests := []struct {
		name     string
		event    events.Event
		want     string
		spinning bool
	}{
		{
			name:  "proposed",
			event: events.Event{Kind: events.KindProposed, TxID: "tx-1"},
			want:  "Proposed tx-1",
		},
		{
			name:     "mining",
			event:    events.Event{Kind: events.KindMining, TxID: "tx-1", TxHash: &hash},
			want:     "Waiting for tx-1 to be mined (" + hash.Hex() + ")",
			spinning: true,
		},
		{
			name:  "mined",
			event: events.Event{Kind: events.KindMined, TxID: "tx-1", Receipt: &types.Receipt{BlockNumber: big.NewInt(12)}},
			want:  "Mined tx-1 in block 12",
		},
		{
			name:  "reverted",
			event: events.Event{Kind: events.KindReverted, TxID: "tx-1", Err: errors.New("GS013")},
			want:  "Reverted tx-1: GS013",
		},
		{
			name:  "long id",
			event: events.Event{Kind: events.KindSigned, TxID: "multisig_0x5afe5afe5afe5afe5afe_0x0123456789abcdef"},
			want:  "Signed multisig_0…89abcdef",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, spinning := Describe(tt.event)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.spinning, spinning)
		})
	}
}

func TestEventReporter(t *testing.T) {
	bus := events.NewBus(slog.New(slog.NewTextHandler(io.Discard, nil)))
	sink := &recordingSink{}
	reporter := NewEventReporter(sink)
	reporter.Attach(bus)

	bus.Publish(events.KindProposed, events.Event{TxID: "a"})
	bus.Publish(events.KindExecuting, events.Event{TxID: "a"})
	bus.Publish(events.KindFailed, events.Event{TxID: "a", Err: errors.New("boom")})

	assert.Equal(t, []string{"Proposed a"}, sink.infos)
	assert.Equal(t, []string{"Failed a: boom"}, sink.errors)
	assert.Len(t, sink.progress, 3)
	assert.True(t, sink.progress[1].Spinner)
	assert.False(t, sink.progress[2].Spinner)

	reporter.Detach()
	bus.Publish(events.KindProposed, events.Event{TxID: "b"})
	assert.Len(t, sink.progress, 3)
}

func TestSpinnerProgressReporter_Messages(t *testing.T) {
	color.NoColor = true
	var out bytes.Buffer
	r := NewSpinnerProgressReporterWithWriter(&out)

	r.Info("hello")
	r.Error("oops")
	r.OnProgress(context.Background(), usecase.ProgressEvent{Message: "done"})

	assert.Equal(t, "hello\noops\n", out.String())
}

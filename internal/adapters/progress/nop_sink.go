package progress

import (
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// NewNopSink creates a progress sink that discards everything
func NewNopSink() usecase.ProgressSink {
	return usecase.NopProgress{}
}

package adapters

import (
	"fmt"

	"github.com/google/wire"
	"github.com/trebuchet-org/treb-safe/internal/adapters/blockchain"
	"github.com/trebuchet-org/treb-safe/internal/adapters/fs"
	"github.com/trebuchet-org/treb-safe/internal/adapters/interactive"
	"github.com/trebuchet-org/treb-safe/internal/adapters/metrics"
	"github.com/trebuchet-org/treb-safe/internal/adapters/progress"
	"github.com/trebuchet-org/treb-safe/internal/adapters/repository/pending"
	safeadapter "github.com/trebuchet-org/treb-safe/internal/adapters/safe"
	"github.com/trebuchet-org/treb-safe/internal/adapters/signer"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// ProvidePendingStore selects the persistence backend of pending entries
func ProvidePendingStore(cfg *config.RuntimeConfig) (usecase.PendingStore, error) {
	switch cfg.Store.Driver {
	case "", config.StoreDriverFile:
		return fs.NewPendingStoreAdapter(cfg), nil
	case config.StoreDriverPostgres:
		if cfg.Store.DSN == "" {
			return nil, fmt.Errorf("store driver %q requires a dsn", cfg.Store.Driver)
		}
		return pending.NewGormStore(cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

// ProvideProgressSink shows a spinner unless the output is meant for machines
func ProvideProgressSink(cfg *config.RuntimeConfig) usecase.ProgressSink {
	if cfg.NonInteractive || cfg.JSON {
		return progress.NewNopSink()
	}
	return progress.NewSpinnerProgressReporter()
}

// ServiceSet provides the review queue backend
var ServiceSet = wire.NewSet(
	safeadapter.NewClientAdapter,
	wire.Bind(new(usecase.ReviewQueue), new(*safeadapter.ClientAdapter)),
)

// ChainSet provides the chain connection and the owner key
var ChainSet = wire.NewSet(
	signer.NewKeySigner,
	wire.Bind(new(usecase.TxSigner), new(*signer.KeySigner)),

	blockchain.NewClientAdapter,
	wire.Bind(new(usecase.ChainClient), new(*blockchain.ClientAdapter)),
)

// StoreSet provides pending state persistence
var StoreSet = wire.NewSet(
	ProvidePendingStore,
)

// InteractiveSet provides interactive implementations
var InteractiveSet = wire.NewSet(
	interactive.NewSelectorAdapter,
	wire.Bind(new(usecase.QueueSelector), new(*interactive.SelectorAdapter)),

	interactive.NewConfirmerAdapter,
	wire.Bind(new(usecase.Confirmer), new(*interactive.ConfirmerAdapter)),
)

// ObservabilitySet provides progress output and metrics
var ObservabilitySet = wire.NewSet(
	ProvideProgressSink,
	progress.NewEventReporter,
	metrics.NewEventMetrics,
)

// AllAdapters includes all adapter sets
var AllAdapters = wire.NewSet(
	ServiceSet,
	ChainSet,
	StoreSet,
	InteractiveSet,
	ObservabilitySet,
)

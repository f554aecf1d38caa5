package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/trebuchet-org/treb-safe/internal/adapters/metrics"
	"github.com/trebuchet-org/treb-safe/internal/adapters/progress"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config *config.RuntimeConfig
	Log    *slog.Logger

	// Shared dependencies
	Bus       *events.Bus
	Queue     usecase.ReviewQueue
	Signer    usecase.TxSigner
	Selector  usecase.QueueSelector
	Confirmer usecase.Confirmer
	Progress  usecase.ProgressSink

	// Use cases
	Safe        *usecase.SafeContext
	Builder     *usecase.BuildTransaction
	Proposer    *usecase.ProposeTransaction
	Monitor     *usecase.MonitorTransaction
	Executor    *usecase.ExecuteTransaction
	Tracker     *usecase.TrackPendingStatuses
	ListQueue   *usecase.ListQueue
	SyncPending *usecase.SyncPending

	// Bus observers
	Reporter *progress.EventReporter
	Metrics  *metrics.EventMetrics
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	log *slog.Logger,
	bus *events.Bus,
	queue usecase.ReviewQueue,
	signer usecase.TxSigner,
	selector usecase.QueueSelector,
	confirmer usecase.Confirmer,
	sink usecase.ProgressSink,
	safeCtx *usecase.SafeContext,
	builder *usecase.BuildTransaction,
	proposer *usecase.ProposeTransaction,
	monitor *usecase.MonitorTransaction,
	executor *usecase.ExecuteTransaction,
	tracker *usecase.TrackPendingStatuses,
	listQueue *usecase.ListQueue,
	syncPending *usecase.SyncPending,
	reporter *progress.EventReporter,
	eventMetrics *metrics.EventMetrics,
) (*App, error) {
	return &App{
		Config:      cfg,
		Log:         log,
		Bus:         bus,
		Queue:       queue,
		Signer:      signer,
		Selector:    selector,
		Confirmer:   confirmer,
		Progress:    sink,
		Safe:        safeCtx,
		Builder:     builder,
		Proposer:    proposer,
		Monitor:     monitor,
		Executor:    executor,
		Tracker:     tracker,
		ListQueue:   listQueue,
		SyncPending: syncPending,
		Reporter:    reporter,
		Metrics:     eventMetrics,
	}, nil
}

// Start loads pending state and attaches the bus observers
func (a *App) Start(ctx context.Context) error {
	if err := a.Tracker.Start(ctx); err != nil {
		return fmt.Errorf("failed to load pending transactions: %w", err)
	}
	a.Reporter.Attach(a.Bus)
	a.Metrics.Attach(a.Bus)
	return nil
}

// Close stops watching and detaches observers. Pending entries stay persisted.
func (a *App) Close() {
	a.Monitor.Stop()
	a.Tracker.Stop()
	a.Reporter.Detach()
	a.Metrics.Detach()
	if stopper, ok := a.Progress.(interface{ Stop() }); ok {
		stopper.Stop()
	}
}

package usecase

import "github.com/google/wire"

// UseCaseSet provides every use case of the transaction pipeline
var UseCaseSet = wire.NewSet(
	NewSafeContext,
	NewBuildTransaction,
	NewProposeTransaction,
	NewMonitorTransaction,
	NewExecuteTransaction,
	NewTrackPendingStatuses,
	NewListQueue,
	NewSyncPending,
)

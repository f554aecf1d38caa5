package usecase_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-safe/internal/domain"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
	"github.com/trebuchet-org/treb-safe/pkg/safe"
)

type pipeline struct {
	coordinator *usecase.ExecuteTransaction
	monitor     *usecase.MonitorTransaction
	queue       *MockReviewQueue
	chain       *fakeChain
	signer      *keySigner
	events      *recorder
}

func newPipeline(t *testing.T, threshold int) *pipeline {
	t.Helper()
	cfg := testConfig()
	signer := newKeySigner()

	queue := new(MockReviewQueue)
	queue.On("GetSafeInfo", mock.Anything, testSafe).Return(&models.SafeInfo{
		Address:   testSafe,
		Threshold: threshold,
		Owners:    []common.Address{signer.Address()},
	}, nil)
	queue.On("ProposeTransaction", mock.Anything, mock.Anything).Return(nil).Maybe()

	chain := newFakeChain()
	chain.hash = monitoredHash

	bus := events.NewBus(discardLogger())
	rec := record(bus)
	log := discardLogger()

	safeCtx := usecase.NewSafeContext(cfg, queue)
	builder := usecase.NewBuildTransaction(cfg, safeCtx, queue, log)
	proposer := usecase.NewProposeTransaction(safeCtx, queue, bus, log)
	monitor := usecase.NewMonitorTransaction(cfg, chain, bus, log)
	coordinator := usecase.NewExecuteTransaction(cfg, safeCtx, builder, proposer, monitor, chain, signer, bus, log)
	t.Cleanup(monitor.Stop)

	return &pipeline{
		coordinator: coordinator,
		monitor:     monitor,
		queue:       queue,
		chain:       chain,
		signer:      signer,
		events:      rec,
	}
}

func newRecord(nonce uint64) *models.TxRecord {
	return models.NewTxRecord(models.NewSafeTransaction(models.SafeTransactionData{
		To:    testTarget,
		Nonce: nonce,
	}))
}

func TestExecuteTransaction_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("sign propose execute mined", func(t *testing.T) {
		p := newPipeline(t, 1)
		p.chain.setReceipt(monitoredHash, types.ReceiptStatusSuccessful)
		rec := newRecord(0)

		result, err := p.coordinator.Run(ctx, rec, p.signer.Address(), true)
		require.NoError(t, err)
		p.monitor.Wait()

		assert.True(t, result.Executed)
		assert.Equal(t, monitoredHash, *result.TxHash)
		assert.Equal(t, []events.Kind{
			events.KindSigned,
			events.KindProposed,
			events.KindExecuting,
			events.KindMining,
			events.KindMined,
		}, p.events.kinds(rec.ID))
		assert.Equal(t, models.TransactionStatusMined, rec.Status)
		assert.Equal(t, []common.Address{testSafe}, p.chain.submitTo)

		_, tracked := p.coordinator.Record(rec.ID)
		assert.False(t, tracked)
	})

	t.Run("below threshold stops after proposal", func(t *testing.T) {
		p := newPipeline(t, 2)
		rec := newRecord(0)

		result, err := p.coordinator.Run(ctx, rec, p.signer.Address(), true)

		require.NoError(t, err)
		assert.False(t, result.Executed)
		assert.Equal(t, models.TransactionStatusProposed, rec.Status)
		assert.Equal(t, []events.Kind{events.KindSigned, events.KindProposed}, p.events.kinds(rec.ID))
		assert.Empty(t, p.chain.submitted)
	})

	t.Run("reverted", func(t *testing.T) {
		p := newPipeline(t, 1)
		p.chain.setReceipt(monitoredHash, types.ReceiptStatusFailed)
		rec := newRecord(0)

		_, err := p.coordinator.Run(ctx, rec, p.signer.Address(), true)
		require.NoError(t, err)
		p.monitor.Wait()

		assert.Equal(t, models.TransactionStatusReverted, rec.Status)
		event, ok := p.events.last(events.KindReverted)
		require.True(t, ok)
		assert.Equal(t, domain.RevertMessage, event.Err.Error())
	})
}

func TestExecuteTransaction_Sign(t *testing.T) {
	ctx := context.Background()

	t.Run("adds the owner signature", func(t *testing.T) {
		p := newPipeline(t, 1)
		rec := newRecord(0)

		require.NoError(t, p.coordinator.Sign(ctx, rec))

		assert.True(t, rec.Tx.Signatures.Has(p.signer.Address()))
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, models.TransactionStatusSigning, rec.Status)
	})

	t.Run("signer failure", func(t *testing.T) {
		p := newPipeline(t, 1)
		cause := errors.New("device locked")
		p.signer.sign = func(common.Hash) ([]byte, error) { return nil, cause }
		rec := newRecord(0)

		err := p.coordinator.Sign(ctx, rec)

		var signErr *domain.SigningError
		require.ErrorAs(t, err, &signErr)
		assert.ErrorIs(t, err, cause)
		assert.Equal(t, models.TransactionStatusFailed, rec.Status)
		assert.Equal(t, []events.Kind{events.KindSignFailed}, p.events.kinds(rec.ID))

		// never submitted, so signing may start again
		p.signer.sign = newKeySigner().sign
		require.NoError(t, p.coordinator.Sign(ctx, rec))
		assert.Equal(t, models.TransactionStatusSigning, rec.Status)
	})
}

func TestExecuteTransaction_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("submission failure", func(t *testing.T) {
		p := newPipeline(t, 1)
		p.chain.submitErr = errors.New("insufficient funds")
		rec := newRecord(0)
		require.NoError(t, p.coordinator.Sign(ctx, rec))
		require.NoError(t, p.coordinator.Propose(ctx, rec, p.signer.Address()))

		_, err := p.coordinator.Execute(ctx, rec)

		var submitErr *domain.SubmissionError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, rec.ID, submitErr.TxID)
		assert.Equal(t, []events.Kind{
			events.KindSigned,
			events.KindProposed,
			events.KindExecuting,
			events.KindFailed,
		}, p.events.kinds(rec.ID))
		assert.Equal(t, models.TransactionStatusFailed, rec.Status)
		assert.False(t, p.monitor.IsWatching(rec.ID))

		_, tracked := p.coordinator.Record(rec.ID)
		assert.False(t, tracked)
	})

	t.Run("not enough signatures", func(t *testing.T) {
		p := newPipeline(t, 2)
		rec := newRecord(0)
		require.NoError(t, p.coordinator.Sign(ctx, rec))
		require.NoError(t, p.coordinator.Propose(ctx, rec, p.signer.Address()))

		_, err := p.coordinator.Execute(ctx, rec)

		assert.ErrorIs(t, err, domain.ErrBelowThreshold)
		assert.NotContains(t, p.events.kinds(rec.ID), events.KindExecuting)
	})

	t.Run("missing chain connection", func(t *testing.T) {
		cfg := testConfig()
		queue := new(MockReviewQueue)
		bus := events.NewBus(discardLogger())
		safeCtx := usecase.NewSafeContext(cfg, queue)
		coordinator := usecase.NewExecuteTransaction(cfg, safeCtx,
			usecase.NewBuildTransaction(cfg, safeCtx, queue, discardLogger()),
			usecase.NewProposeTransaction(safeCtx, queue, bus, discardLogger()),
			usecase.NewMonitorTransaction(cfg, nil, bus, discardLogger()),
			nil, nil, bus, discardLogger())

		_, err := coordinator.Execute(ctx, newRecord(0))

		var uninitialized *domain.UninitializedContextError
		assert.ErrorAs(t, err, &uninitialized)
	})
}

func TestExecuteTransaction_DispatchBatchExecution(t *testing.T) {
	ctx := context.Background()

	proposed := func(t *testing.T, p *pipeline, nonce uint64) *models.TxRecord {
		rec := newRecord(nonce)
		require.NoError(t, p.coordinator.Sign(ctx, rec))
		require.NoError(t, p.coordinator.Propose(ctx, rec, p.signer.Address()))
		return rec
	}

	t.Run("members share hash, batch id and outcome", func(t *testing.T) {
		p := newPipeline(t, 1)
		p.chain.setReceipt(monitoredHash, types.ReceiptStatusSuccessful)
		recs := []*models.TxRecord{proposed(t, p, 3), proposed(t, p, 4)}

		hash, batchID, err := p.coordinator.DispatchBatchExecution(ctx, recs)
		require.NoError(t, err)
		p.monitor.Wait()

		assert.Equal(t, monitoredHash, hash)
		_, err = uuid.Parse(batchID)
		assert.NoError(t, err)
		assert.Equal(t, []common.Address{safe.DefaultMultiSendCallOnly}, p.chain.submitTo)

		for _, rec := range recs {
			assert.Equal(t, []events.Kind{
				events.KindSigned,
				events.KindProposed,
				events.KindExecuting,
				events.KindMining,
				events.KindMined,
			}, p.events.kinds(rec.ID))
			assert.Equal(t, batchID, rec.BatchID)
			assert.Equal(t, models.TransactionStatusMined, rec.Status)
		}
	})

	t.Run("submission failure fails every member", func(t *testing.T) {
		p := newPipeline(t, 1)
		p.chain.submitErr = errors.New("nonce too low")
		recs := []*models.TxRecord{proposed(t, p, 3), proposed(t, p, 4)}

		_, batchID, err := p.coordinator.DispatchBatchExecution(ctx, recs)

		var submitErr *domain.SubmissionError
		require.ErrorAs(t, err, &submitErr)
		assert.Equal(t, batchID, submitErr.BatchID)
		for _, rec := range recs {
			assert.Equal(t, events.KindFailed, p.events.kinds(rec.ID)[3])
		}
	})

	t.Run("non consecutive nonces", func(t *testing.T) {
		p := newPipeline(t, 1)
		recs := []*models.TxRecord{proposed(t, p, 3), proposed(t, p, 5)}

		_, _, err := p.coordinator.DispatchBatchExecution(ctx, recs)

		assert.Error(t, err)
		assert.Empty(t, p.chain.submitted)
		for _, rec := range recs {
			assert.NotContains(t, p.events.kinds(rec.ID), events.KindExecuting)
		}
	})

	t.Run("member already in flight leaves the batch untouched", func(t *testing.T) {
		p := newPipeline(t, 1)
		first, second := proposed(t, p, 3), proposed(t, p, 4)
		second.Status = models.TransactionStatusMining

		_, _, err := p.coordinator.DispatchBatchExecution(ctx, []*models.TxRecord{first, second})

		require.Error(t, err)
		assert.Contains(t, err.Error(), "MINING -> EXECUTING")
		assert.Empty(t, p.chain.submitted)
		assert.Equal(t, models.TransactionStatusProposed, first.Status)
		assert.Empty(t, first.BatchID)
		for _, rec := range []*models.TxRecord{first, second} {
			assert.NotContains(t, p.events.kinds(rec.ID), events.KindExecuting)
		}
	})

	t.Run("empty", func(t *testing.T) {
		p := newPipeline(t, 1)
		_, _, err := p.coordinator.DispatchBatchExecution(ctx, nil)
		assert.ErrorIs(t, err, domain.ErrEmptyBatch)
	})
}

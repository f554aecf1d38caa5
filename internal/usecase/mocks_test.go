package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/treb-safe/internal/domain/config"
	"github.com/trebuchet-org/treb-safe/internal/domain/models"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

var (
	testSafe   = common.HexToAddress("0x5afe5afe5afe5afe5afe5afe5afe5afe5afe5afe")
	testTarget = common.HexToAddress("0x2222222222222222222222222222222222222222")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *config.RuntimeConfig {
	return &config.RuntimeConfig{
		Network:        &config.Network{ChainID: 11155111, Name: "sepolia"},
		Safe:           &config.SafeConfig{Address: testSafe, Version: "1.3.0"},
		BatchLimit:     20,
		MonitorTimeout: 5 * time.Second,
		PollInterval:   5 * time.Millisecond,
	}
}

// MockReviewQueue is a mock implementation of ReviewQueue
type MockReviewQueue struct {
	mock.Mock
}

func (m *MockReviewQueue) GetSafeInfo(ctx context.Context, safe common.Address) (*models.SafeInfo, error) {
	args := m.Called(ctx, safe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SafeInfo), args.Error(1)
}

func (m *MockReviewQueue) Estimate(ctx context.Context, safe common.Address, call models.MetaTransaction) (*usecase.Estimation, error) {
	args := m.Called(ctx, safe, call)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.Estimation), args.Error(1)
}

func (m *MockReviewQueue) ProposeTransaction(ctx context.Context, proposal usecase.Proposal) error {
	args := m.Called(ctx, proposal)
	return args.Error(0)
}

func (m *MockReviewQueue) ConfirmTransaction(ctx context.Context, safeTxHash common.Hash, signature []byte) error {
	args := m.Called(ctx, safeTxHash, signature)
	return args.Error(0)
}

func (m *MockReviewQueue) GetTransactionDetails(ctx context.Context, txID string) (*models.TxDetails, error) {
	args := m.Called(ctx, txID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TxDetails), args.Error(1)
}

func (m *MockReviewQueue) GetQueue(ctx context.Context, safe common.Address) ([]models.QueueEntry, error) {
	args := m.Called(ctx, safe)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.QueueEntry), args.Error(1)
}

// MockChainClient is a mock implementation of ChainClient
type MockChainClient struct {
	mock.Mock
}

func (m *MockChainClient) ChainID(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockChainClient) SubmitTransaction(ctx context.Context, to common.Address, data []byte) (common.Hash, error) {
	args := m.Called(ctx, to, data)
	return args.Get(0).(common.Hash), args.Error(1)
}

func (m *MockChainClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.Receipt), args.Error(1)
}

func (m *MockChainClient) SafeNonce(ctx context.Context, safe common.Address) (uint64, error) {
	args := m.Called(ctx, safe)
	return args.Get(0).(uint64), args.Error(1)
}

// fakeChain answers receipts from a map and counts polls
type fakeChain struct {
	mu        sync.Mutex
	receipts  map[common.Hash]*types.Receipt
	err       error
	polls     int
	submitted [][]byte
	submitTo  []common.Address
	submitErr error
	hash      common.Hash
}

func newFakeChain() *fakeChain {
	return &fakeChain{receipts: make(map[common.Hash]*types.Receipt)}
}

func (f *fakeChain) setReceipt(hash common.Hash, status uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receipts[hash] = &types.Receipt{TxHash: hash, Status: status}
}

func (f *fakeChain) ChainID(context.Context) (uint64, error) { return 11155111, nil }

func (f *fakeChain) SubmitTransaction(_ context.Context, to common.Address, data []byte) (common.Hash, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return common.Hash{}, f.submitErr
	}
	f.submitTo = append(f.submitTo, to)
	f.submitted = append(f.submitted, data)
	return f.hash, nil
}

func (f *fakeChain) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.polls++
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.receipts[hash]; ok {
		return r, nil
	}
	return nil, ethereum.NotFound
}

func (f *fakeChain) SafeNonce(context.Context, common.Address) (uint64, error) { return 0, nil }

// keySigner signs with a fixed private key
type keySigner struct {
	address common.Address
	sign    func(hash common.Hash) ([]byte, error)
}

func newKeySigner() *keySigner {
	key, _ := crypto.HexToECDSA("4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318")
	return &keySigner{
		address: crypto.PubkeyToAddress(key.PublicKey),
		sign: func(hash common.Hash) ([]byte, error) {
			sig, err := crypto.Sign(hash.Bytes(), key)
			if err != nil {
				return nil, err
			}
			sig[64] += 27
			return sig, nil
		},
	}
}

func (s *keySigner) Address() common.Address { return s.address }

func (s *keySigner) SignHash(_ context.Context, hash common.Hash) ([]byte, error) {
	return s.sign(hash)
}

// memoryStore is an in-memory PendingStore. When hold is set the first write
// closes holding and then waits for hold to be closed.
type memoryStore struct {
	mu      sync.Mutex
	pending models.PendingTxs
	writes  int
	hold    chan struct{}
	holding chan struct{}
}

func (s *memoryStore) Load(context.Context) (models.PendingTxs, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		return models.PendingTxs{}, nil
	}
	return s.pending.Clone(), nil
}

func (s *memoryStore) Upsert(_ context.Context, entry models.PendingEntry) error {
	s.write(func(p models.PendingTxs) { p[entry.TxID] = entry })
	return nil
}

func (s *memoryStore) Delete(_ context.Context, txID string) error {
	s.write(func(p models.PendingTxs) { delete(p, txID) })
	return nil
}

func (s *memoryStore) write(change func(models.PendingTxs)) {
	s.mu.Lock()
	hold := s.hold
	s.hold = nil
	s.mu.Unlock()
	if hold != nil {
		close(s.holding)
		<-hold
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = models.PendingTxs{}
	}
	change(s.pending)
	s.writes++
}

func (s *memoryStore) snapshot() models.PendingTxs {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending.Clone()
}

// recorder collects every published event
type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func record(bus *events.Bus) *recorder {
	r := &recorder{}
	bus.SubscribeAll(func(e events.Event) {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.events = append(r.events, e)
	})
	return r
}

func (r *recorder) kinds(txID string) []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []events.Kind
	for _, e := range r.events {
		if txID == "" || e.TxID == txID {
			out = append(out, e.Kind)
		}
	}
	return out
}

func (r *recorder) last(kind events.Kind) (events.Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Kind == kind {
			return r.events[i], true
		}
	}
	return events.Event{}, false
}

// MockProgressSink records progress events
type MockProgressSink struct {
	events []usecase.ProgressEvent
}

func (m *MockProgressSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	m.events = append(m.events, event)
}

func (m *MockProgressSink) Info(string)  {}
func (m *MockProgressSink) Error(string) {}

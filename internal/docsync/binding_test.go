package docsync

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/LBIT2016/trading-gamers/internal/model"
	"github.com/LBIT2016/trading-gamers/internal/storage/memory"
	"github.com/LBIT2016/trading-gamers/internal/testutil"
)

type fakeReducer struct {
	mu       sync.Mutex
	state    []byte
	replaced int
}

func newFakeReducer(state string) *fakeReducer {
	return &fakeReducer{state: []byte(state)}
}

func (r *fakeReducer) Snapshot() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]byte(nil), r.state...), nil
}

func (r *fakeReducer) Replace(data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = append([]byte(nil), data...)
	r.replaced++
	return nil
}

func (r *fakeReducer) set(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = []byte(state)
}

func (r *fakeReducer) get() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return string(r.state)
}

// blockingStore never answers until the context is done
type blockingStore struct {
	*memory.Storage
}

func (s blockingStore) Load(ctx context.Context, docID string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

type BindingSuite struct {
	suite.Suite
	store *memory.Storage
	ctx   context.Context
}

func TestBindingSuite(t *testing.T) {
	suite.Run(t, new(BindingSuite))
}

func (s *BindingSuite) SetupTest() {
	s.store = memory.New()
	s.ctx = context.Background()
}

func (s *BindingSuite) bind(reducer Reducer, origin string) *Binding {
	b := Bind(s.store, reducer, Options{
		DocumentID:  "doc",
		InitTimeout: time.Second,
		Origin:      origin,
		Logger:      testutil.NopLogger(),
	})
	s.T().Cleanup(b.Close)
	return b
}

func (s *BindingSuite) TestStartSeedsMissingDocument() {
	reducer := newFakeReducer(`{"n":1}`)
	b := s.bind(reducer, "a")

	s.Require().NoError(b.Start(s.ctx))
	s.True(b.Ready())

	data, err := s.store.Load(s.ctx, "doc")
	s.Require().NoError(err)
	s.JSONEq(`{"origin":"a","state":{"n":1}}`, string(data))
}

func (s *BindingSuite) TestStartReplacesFromExistingDocument() {
	s.Require().NoError(s.store.Save(s.ctx, "doc", []byte(`{"origin":"other","state":{"n":7}}`)))

	reducer := newFakeReducer(`{"n":1}`)
	b := s.bind(reducer, "a")
	s.Require().NoError(b.Start(s.ctx))

	s.JSONEq(`{"n":7}`, reducer.get())
	s.Equal(1, reducer.replaced)
}

func (s *BindingSuite) TestStartCallsOnInit() {
	called := false
	b := Bind(s.store, newFakeReducer(`{}`), Options{
		DocumentID: "doc",
		OnInit:     func() { called = true },
	})
	defer b.Close()

	s.Require().NoError(b.Start(s.ctx))
	s.True(called)
}

func (s *BindingSuite) TestStartIsIdempotent() {
	b := s.bind(newFakeReducer(`{}`), "a")
	s.Require().NoError(b.Start(s.ctx))
	s.Require().NoError(b.Start(s.ctx))
	s.Equal(1, s.store.SubscriberCount("doc"))
}

func (s *BindingSuite) TestInitTimeoutReportsSyncInitFailed() {
	var initErr error
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)

	b := Bind(blockingStore{s.store}, newFakeReducer(`{"n":1}`), Options{
		DocumentID:  "doc",
		InitTimeout: 20 * time.Millisecond,
		OnInitError: func(err error) { initErr = err },
		Metrics:     metrics,
	})
	defer b.Close()

	err := b.Start(s.ctx)
	s.Require().Error(err)
	s.ErrorIs(err, model.ErrSyncInitFailed)
	s.ErrorIs(initErr, model.ErrSyncInitFailed)
	s.False(b.Ready())
	s.ErrorIs(b.WaitReady(time.Second), model.ErrSyncInitFailed)
	s.Equal(1.0, promtest.ToFloat64(metrics.initFailures.WithLabelValues("doc")))
}

func (s *BindingSuite) TestUndecodableDocumentFailsInit() {
	s.Require().NoError(s.store.Save(s.ctx, "doc", []byte(`not json`)))

	reducer := newFakeReducer(`{"n":1}`)
	b := s.bind(reducer, "a")

	err := b.Start(s.ctx)
	s.ErrorIs(err, model.ErrSyncInitFailed)
	s.JSONEq(`{"n":1}`, reducer.get())
}

func (s *BindingSuite) TestEmitBeforeReadyIsNotPushed() {
	reducer := newFakeReducer(`{"n":1}`)
	b := s.bind(reducer, "a")

	s.Require().NoError(b.Emit(s.ctx))

	_, err := s.store.Load(s.ctx, "doc")
	s.ErrorIs(err, model.ErrDocumentNotFound)
}

func (s *BindingSuite) TestRemoteUpdatesPropagate() {
	first := newFakeReducer(`{"n":1}`)
	second := newFakeReducer(`{"n":0}`)

	a := s.bind(first, "a")
	b := s.bind(second, "b")
	s.Require().NoError(a.Start(s.ctx))
	s.Require().NoError(b.Start(s.ctx))
	s.JSONEq(`{"n":1}`, second.get())

	first.set(`{"n":2}`)
	s.Require().NoError(a.Emit(s.ctx))

	s.Eventually(func() bool {
		return second.get() == `{"n":2}`
	}, time.Second, 5*time.Millisecond)
}

func (s *BindingSuite) TestOwnUpdatesAreIgnored() {
	reducer := newFakeReducer(`{"n":1}`)
	b := s.bind(reducer, "a")
	s.Require().NoError(b.Start(s.ctx))

	reducer.set(`{"n":2}`)
	s.Require().NoError(b.Emit(s.ctx))

	// Another client's save after ours proves our own echo was skipped
	s.Require().NoError(s.store.Save(s.ctx, "doc", []byte(`{"origin":"z","state":{"n":3}}`)))
	s.Eventually(func() bool {
		return reducer.get() == `{"n":3}`
	}, time.Second, 5*time.Millisecond)

	reducer.mu.Lock()
	defer reducer.mu.Unlock()
	s.Equal(1, reducer.replaced)
}

func (s *BindingSuite) TestEmitCountsMetrics() {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	b := Bind(s.store, newFakeReducer(`{}`), Options{DocumentID: "doc", Metrics: metrics})
	defer b.Close()

	s.Require().NoError(b.Start(s.ctx))
	s.Require().NoError(b.Emit(s.ctx))
	s.Require().NoError(b.Emit(s.ctx))

	s.Equal(2.0, promtest.ToFloat64(metrics.emits.WithLabelValues("doc")))
}

func (s *BindingSuite) TestWaitReadyTimesOutBeforeStart() {
	b := s.bind(newFakeReducer(`{}`), "a")
	err := b.WaitReady(10 * time.Millisecond)
	s.True(errors.Is(err, model.ErrSyncInitFailed))
}

func (s *BindingSuite) TestCloseStopsListening() {
	b := s.bind(newFakeReducer(`{}`), "a")
	s.Require().NoError(b.Start(s.ctx))
	s.Equal(1, s.store.SubscriberCount("doc"))

	b.Close()
	s.Eventually(func() bool {
		return s.store.SubscriberCount("doc") == 0
	}, time.Second, 5*time.Millisecond)
}

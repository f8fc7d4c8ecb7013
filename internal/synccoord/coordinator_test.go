package synccoord

//go:generate mockgen -source=ports.go -destination=mocks/mocks.go -package=mocks

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/remote"
	"bloodbridge/internal/synccoord/mocks"
	"bloodbridge/pkg/platform/sentinel"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) record(e Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, e)
}

func (l *eventLog) types() []EventType {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]EventType, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Type)
	}
	return out
}

func (l *eventLog) last() Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events[len(l.events)-1]
}

type CoordinatorSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	queue      *mocks.MockQueue
	dispatcher *mocks.MockDispatcher
	metrics    *Metrics
	events     *eventLog
	coord      *Coordinator
	ctx        context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.queue = mocks.NewMockQueue(s.ctrl)
	s.dispatcher = mocks.NewMockDispatcher(s.ctrl)
	s.metrics = NewMetrics(prometheus.NewRegistry())
	s.events = &eventLog{}
	s.ctx = context.Background()

	var err error
	s.coord, err = New(s.queue, s.dispatcher,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.coord.Subscribe(s.events.record)
}

func (s *CoordinatorSuite) TearDownTest() {
	s.ctrl.Finish()
}

func item(id int64, kind models.MutationKind, minute int) models.SyncQueueItem {
	return models.SyncQueueItem{
		ID:             id,
		Kind:           kind,
		Data:           json.RawMessage(`{"n":` + string(rune('0'+id)) + `}`),
		Timestamp:      time.Date(2026, 2, 1, 10, minute, 0, 0, time.UTC),
		Status:         models.SyncStatusPending,
		IdempotencyKey: "key-" + string(rune('0'+id)),
	}
}

func (s *CoordinatorSuite) TestNew() {
	s.Run("queue required", func() {
		_, err := New(nil, s.dispatcher)
		s.Error(err)
	})
	s.Run("dispatcher required", func() {
		_, err := New(s.queue, nil)
		s.Error(err)
	})
}

func (s *CoordinatorSuite) TestDrainReplaysInInsertionOrder() {
	items := []models.SyncQueueItem{
		item(1, models.MutationDonation, 1),
		item(2, models.MutationProfileUpdate, 2),
		item(3, models.MutationEmergencyResponse, 3),
	}
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(items, nil)
	gomock.InOrder(
		s.dispatcher.EXPECT().CreateDonation(gomock.Any(), remote.Request{Data: items[0].Data, IdempotencyKey: "key-1"}).Return(nil),
		s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(1)).Return(nil),
		s.dispatcher.EXPECT().UpdateProfile(gomock.Any(), remote.Request{Data: items[1].Data, IdempotencyKey: "key-2"}).Return(nil),
		s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(2)).Return(nil),
		s.dispatcher.EXPECT().RespondToEmergency(gomock.Any(), remote.Request{Data: items[2].Data, IdempotencyKey: "key-3"}).Return(nil),
		s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(3)).Return(nil),
	)

	res, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(Result{Attempted: 3, Succeeded: 3}, res)
	s.Equal([]EventType{EventSyncStart, EventItemSynced, EventItemSynced, EventItemSynced, EventSyncComplete}, s.events.types())
	s.Equal(3, s.events.last().SuccessCount)
	s.Equal(0, s.events.last().FailCount)
	s.False(s.coord.IsSyncing())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Drains.WithLabelValues(drainCompleted)))
}

func (s *CoordinatorSuite) TestFailedItemDoesNotBlockTheRest() {
	items := []models.SyncQueueItem{
		item(1, models.MutationDonation, 1),
		item(2, models.MutationDonationCompletion, 2),
		item(3, models.MutationProfileUpdate, 3),
	}
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(items, nil)
	gomock.InOrder(
		s.dispatcher.EXPECT().CreateDonation(gomock.Any(), gomock.Any()).Return(nil),
		s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(1)).Return(nil),
		s.dispatcher.EXPECT().CompleteDonation(gomock.Any(), gomock.Any()).Return(sentinel.ErrNetworkFailure),
		s.dispatcher.EXPECT().UpdateProfile(gomock.Any(), gomock.Any()).Return(nil),
		s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(3)).Return(nil),
	)

	res, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(Result{Attempted: 3, Succeeded: 2, Failed: 1}, res)

	var flags []bool
	for _, e := range s.events.events {
		if e.Type == EventItemSynced {
			flags = append(flags, e.Success)
			if !e.Success {
				s.Equal(int64(2), e.Item.ID)
				s.ErrorIs(e.Err, sentinel.ErrQueueReplay)
				s.ErrorIs(e.Err, sentinel.ErrNetworkFailure)
			}
		}
	}
	s.Equal([]bool{true, false, true}, flags)
	s.Equal(2, s.events.last().SuccessCount)
	s.Equal(1, s.events.last().FailCount)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.ItemsFailed.WithLabelValues(string(models.MutationDonationCompletion))))
}

func (s *CoordinatorSuite) TestCompletionFailureLeavesItemPending() {
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return([]models.SyncQueueItem{item(1, models.MutationDonation, 1)}, nil)
	s.dispatcher.EXPECT().CreateDonation(gomock.Any(), gomock.Any()).Return(nil)
	s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(1)).Return(sentinel.ErrStorageUnavailable)

	res, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, res.Failed)
	s.ErrorIs(s.events.events[1].Err, sentinel.ErrStorageUnavailable)
}

func (s *CoordinatorSuite) TestQueueReadFailureEmitsSyncError() {
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, sentinel.ErrStorageUnavailable)

	_, err := s.coord.SyncPending(s.ctx)
	s.ErrorIs(err, sentinel.ErrCoordinator)
	s.ErrorIs(err, sentinel.ErrStorageUnavailable)
	s.Equal([]EventType{EventSyncStart, EventSyncError}, s.events.types())
	s.ErrorIs(s.events.last().Err, sentinel.ErrCoordinator)
	s.False(s.coord.IsSyncing())
}

func (s *CoordinatorSuite) TestEmptyQueueCompletesWithZeroCounts() {
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil)

	res, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Equal(Result{}, res)
	s.Equal([]EventType{EventSyncStart, EventSyncComplete}, s.events.types())
}

func (s *CoordinatorSuite) TestNoReentrantDrain() {
	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return([]models.SyncQueueItem{item(1, models.MutationDonation, 1)}, nil).Times(1)
	s.dispatcher.EXPECT().CreateDonation(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, remote.Request) error {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return nil
	}).Times(1)
	s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(1)).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := s.coord.SyncPending(s.ctx)
		done <- err
	}()
	<-entered
	s.True(s.coord.IsSyncing())

	for range 3 {
		_, err := s.coord.SyncPending(s.ctx)
		s.ErrorIs(err, sentinel.ErrSyncInProgress)
	}

	close(release)
	s.NoError(<-done)
	mu.Lock()
	s.Equal(1, calls)
	mu.Unlock()
	s.Equal(3.0, testutil.ToFloat64(s.metrics.Drains.WithLabelValues(drainSkipped)))
}

func (s *CoordinatorSuite) TestUnsubscribe() {
	extra := &eventLog{}
	unsubscribe := s.coord.Subscribe(extra.record)

	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil).Times(2)
	_, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Len(extra.types(), 2)

	unsubscribe()
	unsubscribe()
	_, err = s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Len(extra.types(), 2)
	s.Len(s.events.types(), 4)
}

func (s *CoordinatorSuite) TestPanickingListenerDoesNotStopDelivery() {
	s.coord.Subscribe(func(Event) { panic("listener bug") })
	after := &eventLog{}
	s.coord.Subscribe(after.record)

	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil)
	_, err := s.coord.SyncPending(s.ctx)
	s.Require().NoError(err)
	s.Equal([]EventType{EventSyncStart, EventSyncComplete}, after.types())
}

func (s *CoordinatorSuite) TestHasPendingSync() {
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return([]models.SyncQueueItem{item(1, models.MutationDonation, 1)}, nil)
	pending, err := s.coord.HasPendingSync(s.ctx)
	s.Require().NoError(err)
	s.True(pending)

	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil)
	pending, err = s.coord.HasPendingSync(s.ctx)
	s.Require().NoError(err)
	s.False(pending)
	s.Empty(s.events.types())
}

func (s *CoordinatorSuite) TestLeaseHeldElsewhereSkipsDrain() {
	lease := mocks.NewMockLease(s.ctrl)
	coord, err := New(s.queue, s.dispatcher, WithLease(lease))
	s.Require().NoError(err)

	lease.EXPECT().TryAcquire(gomock.Any()).Return(false, nil)
	_, err = coord.SyncPending(s.ctx)
	s.ErrorIs(err, sentinel.ErrSyncInProgress)
	s.False(coord.IsSyncing())
}

func (s *CoordinatorSuite) TestLeaseIsReleasedAfterDrain() {
	lease := mocks.NewMockLease(s.ctrl)
	coord, err := New(s.queue, s.dispatcher, WithLease(lease))
	s.Require().NoError(err)

	gomock.InOrder(
		lease.EXPECT().TryAcquire(gomock.Any()).Return(true, nil),
		s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil),
		lease.EXPECT().Release(gomock.Any()).Return(nil),
	)
	_, err = coord.SyncPending(s.ctx)
	s.NoError(err)
}

func (s *CoordinatorSuite) TestLeaseErrorIsCoordinatorFailure() {
	lease := mocks.NewMockLease(s.ctrl)
	coord, err := New(s.queue, s.dispatcher, WithLease(lease))
	s.Require().NoError(err)
	events := &eventLog{}
	coord.Subscribe(events.record)

	lease.EXPECT().TryAcquire(gomock.Any()).Return(false, sentinel.ErrStorageUnavailable)
	_, err = coord.SyncPending(s.ctx)
	s.ErrorIs(err, sentinel.ErrCoordinator)
	s.Equal([]EventType{EventSyncError}, events.types())
}

func (l *eventLog) count(t EventType) int {
	n := 0
	for _, got := range l.types() {
		if got == t {
			n++
		}
	}
	return n
}

func (s *CoordinatorSuite) TestRunDrainsOnEverySignal() {
	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return(nil, nil).Times(3)

	signals := make(chan struct{})
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.coord.Run(ctx, signals) }()

	idleAfter := func(drains int) func() bool {
		return func() bool {
			return s.events.count(EventSyncComplete) == drains && !s.coord.IsSyncing()
		}
	}
	s.Require().Eventually(idleAfter(1), time.Second, 5*time.Millisecond)
	signals <- struct{}{}
	s.Require().Eventually(idleAfter(2), time.Second, 5*time.Millisecond)
	signals <- struct{}{}
	s.Require().Eventually(idleAfter(3), time.Second, 5*time.Millisecond)
	close(signals)
	s.NoError(<-done)
	s.Len(s.events.types(), 6)
}

func (s *CoordinatorSuite) TestRunDropsSignalsDuringDrain() {
	entered := make(chan struct{})
	release := make(chan struct{})

	s.queue.EXPECT().GetSyncQueue(gomock.Any()).Return([]models.SyncQueueItem{item(1, models.MutationDonation, 1)}, nil).Times(1)
	s.dispatcher.EXPECT().CreateDonation(gomock.Any(), gomock.Any()).DoAndReturn(func(context.Context, remote.Request) error {
		close(entered)
		<-release
		return nil
	}).Times(1)
	s.queue.EXPECT().CompleteSyncItem(gomock.Any(), int64(1)).Return(nil)

	signals := make(chan struct{}, 1)
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- s.coord.Run(ctx, signals) }()

	<-entered
	signals <- struct{}{}
	signals <- struct{}{}
	s.Require().Eventually(func() bool {
		return testutil.ToFloat64(s.metrics.Drains.WithLabelValues(drainSkipped)) == 2
	}, time.Second, 5*time.Millisecond)

	close(release)
	s.Require().Eventually(func() bool {
		return s.events.count(EventSyncComplete) == 1 && !s.coord.IsSyncing()
	}, time.Second, 5*time.Millisecond)
	close(signals)
	s.NoError(<-done)
	s.Equal(1, s.events.count(EventSyncStart))
}

// recordingDispatcher notes which method served each request.
type recordingDispatcher struct {
	called []string
}

func (d *recordingDispatcher) CreateDonation(context.Context, remote.Request) error {
	d.called = append(d.called, "CreateDonation")
	return nil
}

func (d *recordingDispatcher) UpdateProfile(context.Context, remote.Request) error {
	d.called = append(d.called, "UpdateProfile")
	return nil
}

func (d *recordingDispatcher) RespondToEmergency(context.Context, remote.Request) error {
	d.called = append(d.called, "RespondToEmergency")
	return nil
}

func (d *recordingDispatcher) CompleteDonation(context.Context, remote.Request) error {
	d.called = append(d.called, "CompleteDonation")
	return nil
}

func TestEveryMutationKindHasADispatchTarget(t *testing.T) {
	d := &recordingDispatcher{}
	c, err := New(stubQueue{}, d)
	if err != nil {
		t.Fatal(err)
	}
	for _, kind := range models.MutationKinds {
		if err := c.dispatch(context.Background(), models.SyncQueueItem{Kind: kind}); err != nil {
			t.Fatalf("kind %s: %v", kind, err)
		}
	}
	want := []string{"CreateDonation", "UpdateProfile", "RespondToEmergency", "CompleteDonation"}
	if len(d.called) != len(want) {
		t.Fatalf("got %v, want %v", d.called, want)
	}
	for i := range want {
		if d.called[i] != want[i] {
			t.Fatalf("got %v, want %v", d.called, want)
		}
	}

	err = c.dispatch(context.Background(), models.SyncQueueItem{Kind: "teleport"})
	if !errors.Is(err, sentinel.ErrInvalidState) {
		t.Fatalf("unknown kind: got %v", err)
	}
}

type stubQueue struct{}

func (stubQueue) GetSyncQueue(context.Context) ([]models.SyncQueueItem, error) { return nil, nil }
func (stubQueue) CompleteSyncItem(context.Context, int64) error               { return nil }

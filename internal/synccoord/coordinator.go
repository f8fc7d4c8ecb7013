// Package synccoord replays queued offline mutations against the remote
// system once connectivity returns.
//
// A drain takes one snapshot of the pending queue and walks it in insertion
// order. Each item is dispatched by kind; success removes it from the queue,
// failure leaves it pending for the next drain. At most one drain runs at a
// time: triggers that arrive mid-drain are dropped, not queued.
package synccoord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/remote"
	"bloodbridge/pkg/platform/sentinel"
)

// Result summarizes one drain.
type Result struct {
	Attempted int
	Succeeded int
	Failed    int
}

type Coordinator struct {
	queue      Queue
	dispatcher Dispatcher
	lease      Lease
	clock      func() time.Time
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer

	syncing     atomic.Bool
	subscribers subscribers
}

type Option func(*Coordinator)

// WithLease adds a cross-process guard on top of the in-process one.
func WithLease(l Lease) Option {
	return func(c *Coordinator) {
		c.lease = l
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Coordinator) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func New(queue Queue, dispatcher Dispatcher, opts ...Option) (*Coordinator, error) {
	if queue == nil {
		return nil, errors.New("sync queue is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	c := &Coordinator{
		queue:      queue,
		dispatcher: dispatcher,
		clock:      time.Now,
		logger:     slog.Default(),
		tracer:     otel.Tracer("bloodbridge/synccoord"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Subscribe registers l and returns a function that removes it.
func (c *Coordinator) Subscribe(l Listener) (unsubscribe func()) {
	if l == nil {
		return func() {}
	}
	return c.subscribers.add(l)
}

// IsSyncing reports whether a drain is running in this process.
func (c *Coordinator) IsSyncing() bool {
	return c.syncing.Load()
}

// HasPendingSync reports whether any item is waiting for replay.
func (c *Coordinator) HasPendingSync(ctx context.Context) (bool, error) {
	items, err := c.queue.GetSyncQueue(ctx)
	if err != nil {
		return false, err
	}
	return len(items) > 0, nil
}

// Run drains once at start and again on every signal until ctx ends. Drains
// run off the receive loop so signals keep being consumed; one that arrives
// while a drain is in flight is dropped, not queued for later.
func (c *Coordinator) Run(ctx context.Context, signals <-chan struct{}) error {
	var inflight sync.WaitGroup
	defer inflight.Wait()

	start := func() {
		inflight.Add(1)
		go func() {
			defer inflight.Done()
			c.trigger(ctx)
		}()
	}

	start()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-signals:
			if !ok {
				return nil
			}
			if c.IsSyncing() {
				c.metrics.drain(drainSkipped)
				c.logger.DebugContext(ctx, "sync already running, dropping signal")
				continue
			}
			start()
		}
	}
}

func (c *Coordinator) trigger(ctx context.Context) {
	if _, err := c.SyncPending(ctx); err != nil && !errors.Is(err, sentinel.ErrSyncInProgress) {
		c.logger.ErrorContext(ctx, "sync drain failed", "error", err)
	}
}

// SyncPending drains the current queue snapshot. It returns
// sentinel.ErrSyncInProgress without side effects when a drain is already
// running here or, with a lease, in another process.
func (c *Coordinator) SyncPending(ctx context.Context) (Result, error) {
	if !c.syncing.CompareAndSwap(false, true) {
		c.metrics.drain(drainSkipped)
		return Result{}, sentinel.ErrSyncInProgress
	}
	defer c.syncing.Store(false)

	if c.lease != nil {
		ok, err := c.lease.TryAcquire(ctx)
		if err != nil {
			c.metrics.drain(drainFailed)
			err = fmt.Errorf("%w: %w", sentinel.ErrCoordinator, err)
			c.emit(Event{Type: EventSyncError, Err: err})
			return Result{}, err
		}
		if !ok {
			c.metrics.drain(drainSkipped)
			c.logger.DebugContext(ctx, "sync lease held elsewhere, skipping drain")
			return Result{}, sentinel.ErrSyncInProgress
		}
		defer func() {
			if err := c.lease.Release(context.WithoutCancel(ctx)); err != nil {
				c.logger.WarnContext(ctx, "failed to release sync lease", "error", err)
			}
		}()
	}

	return c.drain(ctx)
}

func (c *Coordinator) drain(ctx context.Context) (Result, error) {
	start := c.clock()
	ctx, span := c.tracer.Start(ctx, "synccoord.drain")
	defer span.End()

	c.emit(Event{Type: EventSyncStart})

	items, err := c.queue.GetSyncQueue(ctx)
	if err != nil {
		err = fmt.Errorf("read sync queue: %w: %w", sentinel.ErrCoordinator, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "queue read failed")
		c.metrics.drain(drainFailed)
		c.logger.ErrorContext(ctx, "sync drain aborted", "error", err)
		c.emit(Event{Type: EventSyncError, Err: err})
		return Result{}, err
	}

	res := Result{Attempted: len(items)}
	for i := range items {
		item := items[i]
		if err := c.replay(ctx, item); err != nil {
			res.Failed++
			c.metrics.itemFailed(string(item.Kind))
			c.logger.WarnContext(ctx, "queued mutation replay failed",
				"item_id", item.ID,
				"kind", item.Kind,
				"error", err,
			)
			c.emit(Event{Type: EventItemSynced, Item: &item, Success: false, Err: err})
			continue
		}
		res.Succeeded++
		c.metrics.itemSynced(string(item.Kind))
		c.emit(Event{Type: EventItemSynced, Item: &item, Success: true})
	}

	span.SetAttributes(
		attribute.Int("sync.attempted", res.Attempted),
		attribute.Int("sync.succeeded", res.Succeeded),
		attribute.Int("sync.failed", res.Failed),
	)
	c.metrics.drain(drainCompleted)
	c.metrics.observeDrain(c.clock().Sub(start))
	c.logger.InfoContext(ctx, "sync drain complete",
		"attempted", res.Attempted,
		"succeeded", res.Succeeded,
		"failed", res.Failed,
	)
	c.emit(Event{Type: EventSyncComplete, SuccessCount: res.Succeeded, FailCount: res.Failed})
	return res, nil
}

// replay sends one item upstream and removes it from the queue on success.
func (c *Coordinator) replay(ctx context.Context, item models.SyncQueueItem) error {
	if err := c.dispatch(ctx, item); err != nil {
		return fmt.Errorf("%w: item %d: %w", sentinel.ErrQueueReplay, item.ID, err)
	}
	if err := c.queue.CompleteSyncItem(ctx, item.ID); err != nil {
		return fmt.Errorf("%w: complete item %d: %w", sentinel.ErrQueueReplay, item.ID, err)
	}
	return nil
}

func (c *Coordinator) dispatch(ctx context.Context, item models.SyncQueueItem) error {
	return Dispatch(ctx, c.dispatcher, item.Kind, remote.Request{Data: item.Data, IdempotencyKey: item.IdempotencyKey})
}

// Dispatch routes req to the Dispatcher method for kind. It is the only place
// mutation kinds map onto remote operations.
func Dispatch(ctx context.Context, d Dispatcher, kind models.MutationKind, req remote.Request) error {
	switch kind {
	case models.MutationDonation:
		return d.CreateDonation(ctx, req)
	case models.MutationProfileUpdate:
		return d.UpdateProfile(ctx, req)
	case models.MutationEmergencyResponse:
		return d.RespondToEmergency(ctx, req)
	case models.MutationDonationCompletion:
		return d.CompleteDonation(ctx, req)
	}
	return fmt.Errorf("no dispatch target for kind %q: %w", kind, sentinel.ErrInvalidState)
}

func (c *Coordinator) emit(e Event) {
	if e.At.IsZero() {
		e.At = c.clock()
	}
	for _, l := range c.subscribers.snapshot() {
		c.deliver(l, e)
	}
}

func (c *Coordinator) deliver(l Listener, e Event) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("sync event listener panicked", "event", e.Type, "panic", r)
		}
	}()
	l(e)
}

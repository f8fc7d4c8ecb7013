// Package connectivity tracks whether the remote side is reachable and signals
// each offline to online transition.
package connectivity

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Monitor probes a health URL on an interval. It starts optimistic (online)
// so that a process booting with connectivity does not wait one interval
// before draining.
type Monitor struct {
	healthURL string
	client    *http.Client
	interval  time.Duration
	timeout   time.Duration
	clock     func() time.Time
	logger    *slog.Logger

	mu        sync.RWMutex
	online    bool
	changedAt time.Time

	restored chan struct{}
}

type Option func(*Monitor)

func WithHTTPClient(c *http.Client) Option {
	return func(m *Monitor) {
		if c != nil {
			m.client = c
		}
	}
}

func WithInterval(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.interval = d
		}
	}
}

// WithProbeTimeout bounds a single probe.
func WithProbeTimeout(d time.Duration) Option {
	return func(m *Monitor) {
		if d > 0 {
			m.timeout = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(m *Monitor) {
		if clock != nil {
			m.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithInitialState overrides the optimistic start.
func WithInitialState(online bool) Option {
	return func(m *Monitor) {
		m.online = online
	}
}

func New(healthURL string, opts ...Option) *Monitor {
	m := &Monitor{
		healthURL: healthURL,
		client:    http.DefaultClient,
		interval:  15 * time.Second,
		timeout:   5 * time.Second,
		clock:     time.Now,
		logger:    slog.Default(),
		online:    true,
		restored:  make(chan struct{}, 1),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	m.changedAt = m.clock()
	return m
}

// Online reports the last known state.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Since returns when the current state was entered.
func (m *Monitor) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.changedAt
}

// Restored delivers one value per offline to online transition. Transitions
// that happen while a previous signal is still unread are coalesced.
func (m *Monitor) Restored() <-chan struct{} {
	return m.restored
}

// SetOnline overrides the probed state, e.g. for a user-triggered retry.
func (m *Monitor) SetOnline(online bool) {
	m.set(context.Background(), online, "manual")
}

// Probe performs one health check and records the result. Any HTTP answer
// below 500 counts as reachable.
func (m *Monitor) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	online := false
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.healthURL, nil)
	if err == nil {
		resp, derr := m.client.Do(req)
		if derr == nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<10))
			_ = resp.Body.Close()
			online = resp.StatusCode < http.StatusInternalServerError
		} else {
			err = derr
		}
	}
	if err != nil {
		m.logger.DebugContext(ctx, "connectivity probe failed", "url", m.healthURL, "error", err)
	}
	m.set(ctx, online, "probe")
	return online
}

// Run probes until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.Probe(ctx)
		}
	}
}

func (m *Monitor) set(ctx context.Context, online bool, source string) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	m.changedAt = m.clock()
	m.mu.Unlock()

	if !online {
		m.logger.WarnContext(ctx, "connectivity lost", "source", source)
		return
	}
	m.logger.InfoContext(ctx, "connectivity restored", "source", source)
	select {
	case m.restored <- struct{}{}:
	default:
	}
}

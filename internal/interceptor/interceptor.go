// Package interceptor sits at the client's network boundary. Every outbound
// request is classified and served by one of three caching strategies
// (stale-while-revalidate, network-first, cache-first) or passed through.
//
// Responses that fail validation are never persisted and never served from
// cache as good data. Only GET requests are cached.
package interceptor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"bloodbridge/internal/freshness"
	"bloodbridge/pkg/platform/sentinel"
)

// Interceptor is an http.RoundTripper applying the caching strategies.
type Interceptor struct {
	next              http.RoundTripper
	cache             *ResponseCache
	rules             Rules
	ttl               time.Duration
	revalidateTimeout time.Duration
	clock             func() time.Time
	logger            *slog.Logger
	metrics           *Metrics
	tracer            trace.Tracer

	revalidations singleflight.Group
	background    sync.WaitGroup
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithTransport sets the transport used for real network calls.
func WithTransport(rt http.RoundTripper) Option {
	return func(i *Interceptor) {
		if rt != nil {
			i.next = rt
		}
	}
}

func WithRules(r Rules) Option {
	return func(i *Interceptor) {
		i.rules = r
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(i *Interceptor) {
		if ttl > 0 {
			i.ttl = ttl
		}
	}
}

// WithRevalidateTimeout bounds background refreshes, which run detached from
// the request that triggered them.
func WithRevalidateTimeout(d time.Duration) Option {
	return func(i *Interceptor) {
		if d > 0 {
			i.revalidateTimeout = d
		}
	}
}

func WithClock(clock func() time.Time) Option {
	return func(i *Interceptor) {
		if clock != nil {
			i.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(i *Interceptor) {
		if logger != nil {
			i.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(i *Interceptor) {
		i.metrics = m
	}
}

func New(cache *ResponseCache, opts ...Option) *Interceptor {
	i := &Interceptor{
		next:              http.DefaultTransport,
		cache:             cache,
		rules:             DefaultRules(),
		ttl:               freshness.DefaultTTL,
		revalidateTimeout: 30 * time.Second,
		clock:             time.Now,
		logger:            slog.Default(),
		tracer:            otel.Tracer("bloodbridge/interceptor"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(i)
		}
	}
	return i
}

// Classify exposes the routing decision for req.
func (i *Interceptor) Classify(req *http.Request) Classification {
	return i.rules.Classify(req)
}

// Wait blocks until in-flight background revalidations finish.
func (i *Interceptor) Wait() {
	i.background.Wait()
}

// RoundTrip implements http.RoundTripper.
func (i *Interceptor) RoundTrip(req *http.Request) (*http.Response, error) {
	class := i.rules.Classify(req)
	ctx, span := i.tracer.Start(req.Context(), "interceptor.round_trip",
		trace.WithAttributes(
			attribute.String("http.method", req.Method),
			attribute.String("cache.strategy", class.Strategy.String()),
			attribute.String("cache.name", class.CacheName),
		),
	)
	defer span.End()
	req = req.WithContext(ctx)

	switch class.Strategy {
	case StaleWhileRevalidate:
		return i.staleWhileRevalidate(req, class)
	case NetworkFirst:
		return i.networkFirst(req, class)
	case CacheFirst:
		return i.cacheFirst(req, class)
	default:
		i.metrics.observe(Passthrough, outcomePassthrough)
		return i.next.RoundTrip(req)
	}
}

func (i *Interceptor) staleWhileRevalidate(req *http.Request, class Classification) (*http.Response, error) {
	ctx := req.Context()
	if cacheable(req) {
		if cached, ok := i.lookup(ctx, class, req); ok && cached.fresh(i.ttl) {
			i.revalidate(req, class)
			i.metrics.observe(class.Strategy, outcomeHit)
			return cached.toResponse(req), nil
		}
	}

	resp, err := i.fetch(req)
	if err != nil {
		return nil, err
	}
	return i.validateAndStore(req, class, resp)
}

func (i *Interceptor) networkFirst(req *http.Request, class Classification) (*http.Response, error) {
	ctx := req.Context()
	resp, err := i.fetch(req)
	if err == nil && !i.fallbackOnInvalid(req, resp) {
		return i.validateAndStore(req, class, resp)
	}
	if err == nil {
		err = invalidResponseError(resp)
	}

	if cacheable(req) {
		// any age is acceptable here
		if cached, ok := i.lookup(ctx, class, req); ok {
			discard(resp)
			i.logger.WarnContext(ctx, "network unavailable, serving cached response",
				"cache", class.CacheName,
				"url", req.URL.String(),
				"age", cached.age,
				"error", err,
			)
			i.metrics.observe(class.Strategy, outcomeStaleFallback)
			return cached.toResponse(req), nil
		}
	}
	if resp != nil {
		return i.validateAndStore(req, class, resp)
	}
	i.logger.WarnContext(ctx, "network unavailable and nothing cached, returning offline response",
		"url", req.URL.String(),
		"error", err,
	)
	i.metrics.observe(class.Strategy, outcomeOffline)
	return offlineResponse(req), nil
}

func (i *Interceptor) cacheFirst(req *http.Request, class Classification) (*http.Response, error) {
	ctx := req.Context()
	var cached cachedResponse
	var haveCached bool
	if cacheable(req) {
		cached, haveCached = i.lookup(ctx, class, req)
		if haveCached && cached.fresh(i.ttl) {
			i.metrics.observe(class.Strategy, outcomeHit)
			return cached.toResponse(req), nil
		}
	}

	resp, err := i.fetch(req)
	if err == nil && !(haveCached && i.fallbackOnInvalid(req, resp)) {
		return i.validateAndStore(req, class, resp)
	}
	if err == nil {
		err = invalidResponseError(resp)
	}
	if haveCached {
		discard(resp)
		i.logger.WarnContext(ctx, "degraded fallback: serving expired cached response",
			"cache", class.CacheName,
			"url", req.URL.String(),
			"age", cached.age,
			"error", err,
		)
		i.metrics.observe(class.Strategy, outcomeStaleFallback)
		return cached.toResponse(req), nil
	}
	i.metrics.observe(class.Strategy, outcomeNetworkError)
	return networkErrorResponse(req), nil
}

// fallbackOnInvalid reports whether a response that reached us should be
// handled like a failed fetch. Only cacheable requests have a cache to fall
// back to.
func (i *Interceptor) fallbackOnInvalid(req *http.Request, resp *http.Response) bool {
	return cacheable(req) && !freshness.Cacheable(resp)
}

func invalidResponseError(resp *http.Response) error {
	return fmt.Errorf("upstream status %d: %w", resp.StatusCode, sentinel.ErrInvalidResponse)
}

func discard(resp *http.Response) {
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
}

// revalidate refreshes a cached entry in the background. Concurrent refreshes
// of the same key share one network call. Failures keep the old entry.
func (i *Interceptor) revalidate(req *http.Request, class Classification) {
	key := responseKey(class.CacheName, req)
	bgReq := req.Clone(context.WithoutCancel(req.Context()))

	i.background.Add(1)
	go func() {
		defer i.background.Done()
		_, _, _ = i.revalidations.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(bgReq.Context(), i.revalidateTimeout)
			defer cancel()
			r := bgReq.WithContext(ctx)

			resp, err := i.fetch(r)
			if err != nil {
				i.logger.DebugContext(ctx, "background revalidation failed, keeping cached entry",
					"url", r.URL.String(), "error", err)
				i.metrics.observe(class.Strategy, outcomeRevalidateFailed)
				return nil, err
			}
			defer resp.Body.Close()
			if !freshness.Cacheable(resp) {
				i.logger.DebugContext(ctx, "background revalidation returned invalid response, keeping cached entry",
					"url", r.URL.String(), "status", resp.StatusCode)
				i.metrics.observe(class.Strategy, outcomeRevalidateFailed)
				return nil, nil
			}
			body, err := io.ReadAll(resp.Body)
			if err != nil {
				i.metrics.observe(class.Strategy, outcomeRevalidateFailed)
				return nil, err
			}
			i.store(ctx, class, r, resp, body)
			i.metrics.observe(class.Strategy, outcomeRevalidated)
			return nil, nil
		})
	}()
}

// validateAndStore persists a valid GET response and hands back a readable
// copy. Invalid responses are returned untouched and never stored.
func (i *Interceptor) validateAndStore(req *http.Request, class Classification, resp *http.Response) (*http.Response, error) {
	ctx := req.Context()
	resp.Header.Del(freshness.TimestampHeader)
	if !freshness.Cacheable(resp) {
		if resp.Body == nil {
			resp.Body = http.NoBody
		}
		i.logger.DebugContext(ctx, "response failed validation, not caching",
			"url", req.URL.String(),
			"status", resp.StatusCode,
			"error", sentinel.ErrInvalidResponse,
		)
		i.metrics.observe(class.Strategy, outcomeInvalid)
		return resp, nil
	}
	i.metrics.observe(class.Strategy, outcomeNetwork)
	if !cacheable(req) {
		return resp, nil
	}

	body, err := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read response body: %w: %w", sentinel.ErrNetworkFailure, err)
	}
	i.store(ctx, class, req, resp, body)
	resp.Body = io.NopCloser(bytes.NewReader(body))
	resp.ContentLength = int64(len(body))
	return resp, nil
}

func (i *Interceptor) store(ctx context.Context, class Classification, req *http.Request, resp *http.Response, body []byte) {
	if err := i.cache.Put(ctx, class.CacheName, req, resp, body, i.clock()); err != nil {
		i.logger.WarnContext(ctx, "failed to persist response", "cache", class.CacheName, "error", err)
		return
	}
	i.metrics.wrote(class.CacheName)
}

func (i *Interceptor) lookup(ctx context.Context, class Classification, req *http.Request) (cachedResponse, bool) {
	cached, ok, err := i.cache.Lookup(ctx, class.CacheName, req, i.clock())
	if err != nil {
		i.logger.WarnContext(ctx, "response cache read failed", "cache", class.CacheName, "error", err)
		return cachedResponse{}, false
	}
	return cached, ok
}

func (i *Interceptor) fetch(req *http.Request) (*http.Response, error) {
	resp, err := i.next.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", req.Method, req.URL.Redacted(), sentinel.ErrNetworkFailure, err)
	}
	return resp, nil
}

func cacheable(req *http.Request) bool {
	return req.Method == http.MethodGet
}

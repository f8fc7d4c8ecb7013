// Package resourcecache keeps time-stamped snapshots of read-mostly reference
// collections (medical resources, blood banks, emergency alerts) on top of the
// kv primitive.
//
// A snapshot is either valid or absent. Callers get found=false for a missing,
// expired or schema-mismatched snapshot and must not confuse that with an empty
// result.
package resourcecache

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"bloodbridge/internal/freshness"
	"bloodbridge/internal/kv"
)

const (
	keyPrefix = "rc:collection:"

	// VersionMarkerKey survives every version wipe.
	VersionMarkerKey = "__schema_version__"

	// SchemaVersion is bumped whenever a cached shape changes.
	SchemaVersion = 1
)

// Cache is the ResourceCache. Construct one per process and share it.
type Cache struct {
	store         kv.Store
	ttl           time.Duration
	schemaVersion int
	clock         func() time.Time
	logger        *slog.Logger

	initMu      sync.Mutex
	initialized bool
}

// Option configures a Cache.
type Option func(*Cache)

func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithSchemaVersion(v int) Option {
	return func(c *Cache) {
		c.schemaVersion = v
	}
}

func WithClock(clock func() time.Time) Option {
	return func(c *Cache) {
		if clock != nil {
			c.clock = clock
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(store kv.Store, opts ...Option) *Cache {
	c := &Cache{
		store:         store,
		ttl:           freshness.DefaultTTL,
		schemaVersion: SchemaVersion,
		clock:         time.Now,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// TTL is the default maximum snapshot age.
func (c *Cache) TTL() time.Duration { return c.ttl }

// SchemaVersion is the version entries are written and validated under.
func (c *Cache) SchemaVersion() int { return c.schemaVersion }

// Init compares the persisted version marker with the current schema version.
// On mismatch every key except the marker is deleted, including other
// namespaces sharing the kv store, and the marker is rewritten. Init runs once
// per Cache; a failed attempt is retried on the next call.
func (c *Cache) Init(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()
	if c.initialized {
		return nil
	}

	current := strconv.Itoa(c.schemaVersion)
	marker, found, err := c.store.Get(ctx, VersionMarkerKey)
	if err != nil {
		return fmt.Errorf("read version marker: %w", err)
	}
	if found && string(marker) == current {
		c.initialized = true
		return nil
	}

	keys, err := c.store.Keys(ctx, "")
	if err != nil {
		return fmt.Errorf("list keys for version wipe: %w", err)
	}
	stale := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != VersionMarkerKey {
			stale = append(stale, k)
		}
	}
	if err := c.store.Delete(ctx, stale...); err != nil {
		return fmt.Errorf("wipe stale cache: %w", err)
	}
	if err := c.store.Set(ctx, VersionMarkerKey, []byte(current)); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}
	c.logger.InfoContext(ctx, "cache schema version changed, wiped cached data",
		"previous", string(marker),
		"current", current,
		"keys_removed", len(stale),
	)
	c.initialized = true
	return nil
}

func (c *Cache) ensureInit(ctx context.Context) {
	if err := c.Init(ctx); err != nil {
		c.logger.WarnContext(ctx, "cache version check failed", "error", err)
	}
}

// Put overwrites the snapshot for collection with items.
func Put[T any](ctx context.Context, c *Cache, collection Collection, items []T) error {
	c.ensureInit(ctx)
	if items == nil {
		items = []T{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode %s snapshot: %w", collection, err)
	}
	raw, err := json.Marshal(freshness.NewEntry(payload, c.clock(), c.schemaVersion))
	if err != nil {
		return fmt.Errorf("encode %s entry: %w", collection, err)
	}
	if err := c.store.Set(ctx, key(collection), raw); err != nil {
		return fmt.Errorf("store %s snapshot: %w", collection, err)
	}
	return nil
}

// Get returns the snapshot items when present and no older than maxAge. A zero
// maxAge means the cache TTL. Storage errors are logged and reported as absent.
func Get[T any](ctx context.Context, c *Cache, collection Collection, maxAge time.Duration) ([]T, bool) {
	entry, ok := c.validEntry(ctx, collection, maxAge)
	if !ok {
		return nil, false
	}
	var items []T
	if err := json.Unmarshal(entry.Payload, &items); err != nil {
		c.logger.WarnContext(ctx, "discarding undecodable snapshot", "collection", collection, "error", err)
		return nil, false
	}
	if items == nil {
		items = []T{}
	}
	return items, true
}

// Search filters the current valid snapshot with match. A valid snapshot with
// no matching rows yields an empty, found result.
func Search[T any](ctx context.Context, c *Cache, collection Collection, match func(T) bool) ([]T, bool) {
	items, ok := Get[T](ctx, c, collection, 0)
	if !ok {
		return nil, false
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if match(item) {
			out = append(out, item)
		}
	}
	return out, true
}

// IsValid reports whether a snapshot exists and is no older than maxAge.
func (c *Cache) IsValid(ctx context.Context, collection Collection, maxAge time.Duration) bool {
	_, ok := c.validEntry(ctx, collection, maxAge)
	return ok
}

// Clear drops one collection's snapshot.
func (c *Cache) Clear(ctx context.Context, collection Collection) error {
	if err := c.store.Delete(ctx, key(collection)); err != nil {
		return fmt.Errorf("clear %s: %w", collection, err)
	}
	return nil
}

// ClearAll drops every reference snapshot. The version marker and other
// namespaces are untouched.
func (c *Cache) ClearAll(ctx context.Context) error {
	keys, err := c.store.Keys(ctx, keyPrefix)
	if err != nil {
		return fmt.Errorf("list snapshots: %w", err)
	}
	if err := c.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear snapshots: %w", err)
	}
	return nil
}

// CollectionStats describes one snapshot for diagnostics.
type CollectionStats struct {
	Present bool  `json:"present"`
	Valid   bool  `json:"valid"`
	Count   int   `json:"count"`
	AgeMs   int64 `json:"ageMs"`
}

// Stats maps each known collection to its snapshot state.
type Stats map[Collection]CollectionStats

func (c *Cache) Stats(ctx context.Context) (Stats, error) {
	c.ensureInit(ctx)
	now := c.clock()
	out := make(Stats, len(Collections))
	for _, coll := range Collections {
		entry, found, err := c.readEntry(ctx, coll)
		if err != nil {
			return nil, err
		}
		if !found {
			out[coll] = CollectionStats{}
			continue
		}
		var items []json.RawMessage
		_ = json.Unmarshal(entry.Payload, &items)
		out[coll] = CollectionStats{
			Present: true,
			Valid:   entry.Valid(now, c.ttl, c.schemaVersion),
			Count:   len(items),
			AgeMs:   entry.Age(now).Milliseconds(),
		}
	}
	return out, nil
}

func (c *Cache) validEntry(ctx context.Context, collection Collection, maxAge time.Duration) (freshness.Entry, bool) {
	c.ensureInit(ctx)
	if maxAge <= 0 {
		maxAge = c.ttl
	}
	entry, found, err := c.readEntry(ctx, collection)
	if err != nil {
		c.logger.WarnContext(ctx, "resource cache read failed", "collection", collection, "error", err)
		return freshness.Entry{}, false
	}
	if !found || !entry.Valid(c.clock(), maxAge, c.schemaVersion) {
		return freshness.Entry{}, false
	}
	return entry, true
}

func (c *Cache) readEntry(ctx context.Context, collection Collection) (freshness.Entry, bool, error) {
	raw, found, err := c.store.Get(ctx, key(collection))
	if err != nil {
		return freshness.Entry{}, false, fmt.Errorf("read %s: %w", collection, err)
	}
	if !found {
		return freshness.Entry{}, false, nil
	}
	var entry freshness.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WarnContext(ctx, "discarding corrupt cache entry", "collection", collection, "error", err)
		return freshness.Entry{}, false, nil
	}
	return entry, true, nil
}

func key(collection Collection) string {
	return keyPrefix + string(collection)
}

// Package freshness holds the validity rules shared by the resource cache and the
// request interceptor: when a cache entry is still usable and when an upstream
// response may be persisted at all.
package freshness

import (
	"net/http"
	"strconv"
	"time"
)

// DefaultTTL is the lifetime of reference snapshots and cached responses.
const DefaultTTL = 24 * time.Hour

// TimestampHeader carries the epoch-millisecond write time of a persisted response.
// It is bookkeeping only and is stripped before a response leaves the interceptor.
const TimestampHeader = "X-Bloodbridge-Cached-At"

// Entry is the envelope stored for every cached value.
type Entry struct {
	Payload          []byte `json:"payload"`
	WrittenAtEpochMs int64  `json:"writtenAtEpochMs"`
	SchemaVersion    int    `json:"schemaVersion"`
}

// NewEntry stamps payload with the write time and schema version.
func NewEntry(payload []byte, now time.Time, schemaVersion int) Entry {
	return Entry{
		Payload:          payload,
		WrittenAtEpochMs: now.UnixMilli(),
		SchemaVersion:    schemaVersion,
	}
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return time.Duration(now.UnixMilli()-e.WrittenAtEpochMs) * time.Millisecond
}

// Valid reports whether the entry is fresh for ttl and written under schemaVersion.
// The boundary is inclusive: an entry exactly ttl old is still valid.
func (e Entry) Valid(now time.Time, ttl time.Duration, schemaVersion int) bool {
	if e.SchemaVersion != schemaVersion {
		return false
	}
	return IsFresh(e.WrittenAtEpochMs, now, ttl)
}

// IsFresh applies now - writtenAt <= ttl in millisecond precision.
func IsFresh(writtenAtEpochMs int64, now time.Time, ttl time.Duration) bool {
	return now.UnixMilli()-writtenAtEpochMs <= ttl.Milliseconds()
}

// Cacheable reports whether resp may be served as good data or persisted.
// A status of 0 marks an opaque response whose contents cannot be inspected.
func Cacheable(resp *http.Response) bool {
	if resp == nil {
		return false
	}
	if resp.StatusCode == 0 {
		return false
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false
	}
	if resp.Body == nil || resp.Body == http.NoBody {
		return false
	}
	return true
}

// StampHeader writes the cache timestamp header onto h.
func StampHeader(h http.Header, now time.Time) {
	h.Set(TimestampHeader, strconv.FormatInt(now.UnixMilli(), 10))
}

// HeaderAge reads the cache timestamp header. ok is false when the header is
// missing or malformed, in which case the response must be treated as expired.
func HeaderAge(h http.Header, now time.Time) (age time.Duration, ok bool) {
	raw := h.Get(TimestampHeader)
	if raw == "" {
		return 0, false
	}
	writtenAt, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return time.Duration(now.UnixMilli()-writtenAt) * time.Millisecond, true
}

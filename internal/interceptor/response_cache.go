package interceptor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"bloodbridge/internal/freshness"
	"bloodbridge/internal/kv"
)

const responseKeyPrefix = "rq:"

// storedResponse is the serialized form of a cached response.
type storedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// ResponseCache persists validated responses in named caches on the kv store.
type ResponseCache struct {
	store         kv.Store
	schemaVersion int
}

func NewResponseCache(store kv.Store, schemaVersion int) *ResponseCache {
	return &ResponseCache{store: store, schemaVersion: schemaVersion}
}

// cachedResponse is a lookup hit, fresh or not.
type cachedResponse struct {
	stored storedResponse
	age    time.Duration
	dated  bool
}

// fresh applies the timestamp-header age rule; an undated entry is never fresh.
func (c cachedResponse) fresh(ttl time.Duration) bool {
	return c.dated && c.age <= ttl
}

// toResponse rebuilds an *http.Response for req with the bookkeeping header removed.
func (c cachedResponse) toResponse(req *http.Request) *http.Response {
	header := c.stored.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Del(freshness.TimestampHeader)
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", c.stored.Status, http.StatusText(c.stored.Status)),
		StatusCode:    c.stored.Status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(c.stored.Body)),
		ContentLength: int64(len(c.stored.Body)),
		Request:       req,
	}
}

// Lookup returns the entry for req regardless of age. Entries written under
// another schema version are treated as absent.
func (c *ResponseCache) Lookup(ctx context.Context, cacheName string, req *http.Request, now time.Time) (cachedResponse, bool, error) {
	raw, found, err := c.store.Get(ctx, responseKey(cacheName, req))
	if err != nil || !found {
		return cachedResponse{}, false, err
	}
	var entry freshness.Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return cachedResponse{}, false, nil
	}
	if entry.SchemaVersion != c.schemaVersion {
		return cachedResponse{}, false, nil
	}
	var stored storedResponse
	if err := json.Unmarshal(entry.Payload, &stored); err != nil {
		return cachedResponse{}, false, nil
	}
	age, dated := freshness.HeaderAge(stored.Header, now)
	return cachedResponse{stored: stored, age: age, dated: dated}, true, nil
}

// Put stamps and stores a validated response body.
func (c *ResponseCache) Put(ctx context.Context, cacheName string, req *http.Request, resp *http.Response, body []byte, now time.Time) error {
	header := resp.Header.Clone()
	if header == nil {
		header = http.Header{}
	}
	freshness.StampHeader(header, now)
	payload, err := json.Marshal(storedResponse{Status: resp.StatusCode, Header: header, Body: body})
	if err != nil {
		return fmt.Errorf("encode response: %w", err)
	}
	raw, err := json.Marshal(freshness.NewEntry(payload, now, c.schemaVersion))
	if err != nil {
		return fmt.Errorf("encode entry: %w", err)
	}
	return c.store.Set(ctx, responseKey(cacheName, req), raw)
}

// Stats counts stored responses per named cache.
func (c *ResponseCache) Stats(ctx context.Context) (map[string]int, error) {
	out := make(map[string]int, len(CacheNames))
	for _, name := range CacheNames {
		keys, err := c.store.Keys(ctx, responseKeyPrefix+name+":")
		if err != nil {
			return nil, err
		}
		out[name] = len(keys)
	}
	return out, nil
}

// Clear removes every entry of one named cache.
func (c *ResponseCache) Clear(ctx context.Context, cacheName string) error {
	keys, err := c.store.Keys(ctx, responseKeyPrefix+cacheName+":")
	if err != nil {
		return err
	}
	return c.store.Delete(ctx, keys...)
}

func responseKey(cacheName string, req *http.Request) string {
	return responseKeyPrefix + cacheName + ":" + req.Method + " " + req.URL.String()
}

// offlineBody is returned verbatim when network-first has nothing to fall back to.
const offlineBody = `{"error":"Offline","message":"No internet connection. Some data may be outdated."}`

func offlineResponse(req *http.Request) *http.Response {
	return syntheticResponse(req, http.StatusServiceUnavailable, "application/json", offlineBody)
}

// networkErrorResponse is the minimal cache-first terminal failure.
func networkErrorResponse(req *http.Request) *http.Response {
	return syntheticResponse(req, http.StatusGatewayTimeout, "text/plain; charset=utf-8", "Network error")
}

func syntheticResponse(req *http.Request, status int, contentType, body string) *http.Response {
	header := http.Header{}
	header.Set("Content-Type", contentType)
	header.Set("Content-Length", strconv.Itoa(len(body)))
	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader([]byte(body))),
		ContentLength: int64(len(body)),
		Request:       req,
	}
}

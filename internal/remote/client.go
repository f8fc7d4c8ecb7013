package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bloodbridge/pkg/platform/circuit"
	"bloodbridge/pkg/platform/sentinel"
)

// IdempotencyHeader carries the queue item's idempotency key.
const IdempotencyHeader = "Idempotency-Key"

const (
	pathDonations          = "/donations"
	pathProfile            = "/profile"
	pathEmergencyResponses = "/emergency-responses"
	pathDonationCompletion = "/donations/complete"
	pathCollections        = "/collections/"
	pathUsers              = "/users/"
	pathEmergencies        = "/emergencies"

	maxErrorBody = 4 << 10
)

// Client is the HTTP JSON implementation of Writer and Reader.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuit.Breaker
	timeout time.Duration
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds each call, independent of the caller's deadline.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(cl *Client) {
		if b != nil {
			cl.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) {
		if logger != nil {
			cl.logger = logger
		}
	}
}

func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		breaker: circuit.New("remote"),
		timeout: 10 * time.Second,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

func (c *Client) CreateDonation(ctx context.Context, req Request) error {
	_, err := c.do(ctx, "create donation", http.MethodPost, pathDonations, req)
	return err
}

func (c *Client) UpdateProfile(ctx context.Context, req Request) error {
	_, err := c.do(ctx, "update profile", http.MethodPatch, pathProfile, req)
	return err
}

func (c *Client) RespondToEmergency(ctx context.Context, req Request) error {
	_, err := c.do(ctx, "respond to emergency", http.MethodPost, pathEmergencyResponses, req)
	return err
}

func (c *Client) CompleteDonation(ctx context.Context, req Request) error {
	_, err := c.do(ctx, "complete donation", http.MethodPost, pathDonationCompletion, req)
	return err
}

// FetchCollection returns the raw JSON array of a reference collection.
func (c *Client) FetchCollection(ctx context.Context, name string) (json.RawMessage, error) {
	return c.fetch(ctx, "fetch "+name, pathCollections+url.PathEscape(name))
}

func (c *Client) FetchProfile(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.fetch(ctx, "fetch profile", pathUsers+url.PathEscape(userID)+"/profile")
}

func (c *Client) FetchDonations(ctx context.Context, userID string) (json.RawMessage, error) {
	return c.fetch(ctx, "fetch donations", pathUsers+url.PathEscape(userID)+"/donations")
}

func (c *Client) FetchEmergencies(ctx context.Context) (json.RawMessage, error) {
	return c.fetch(ctx, "fetch emergencies", pathEmergencies)
}

func (c *Client) fetch(ctx context.Context, op, path string) (json.RawMessage, error) {
	body, err := c.do(ctx, op, http.MethodGet, path, Request{})
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("remote %s: malformed body: %w", op, sentinel.ErrInvalidResponse)
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, r Request) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, fmt.Errorf("remote %s: circuit %s open: %w", op, c.breaker.Name(), sentinel.ErrNetworkFailure)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var body io.Reader
	if r.Data != nil {
		body = bytes.NewReader(r.Data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("remote %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.Data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.IdempotencyKey != "" {
		req.Header.Set(IdempotencyHeader, r.IdempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.failure(ctx, op)
		return nil, fmt.Errorf("remote %s: %w: %w", op, sentinel.ErrNetworkFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		rerr := newResponseError(op, resp.StatusCode, data)
		if rerr.Retryable {
			c.failure(ctx, op)
		} else {
			c.success(ctx)
		}
		return nil, rerr
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.failure(ctx, op)
		return nil, fmt.Errorf("remote %s: read body: %w: %w", op, sentinel.ErrNetworkFailure, err)
	}
	c.success(ctx)
	return data, nil
}

func (c *Client) failure(ctx context.Context, op string) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "remote circuit opened", "breaker", c.breaker.Name(), "operation", op)
	}
}

func (c *Client) success(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "remote circuit closed", "breaker", c.breaker.Name())
	}
}

// IsRetryable reports whether err is a transient failure worth replaying later.
func IsRetryable(err error) bool {
	if errors.Is(err, sentinel.ErrNetworkFailure) {
		return true
	}
	var rerr *ResponseError
	if errors.As(err, &rerr) {
		return rerr.Retryable
	}
	return false
}

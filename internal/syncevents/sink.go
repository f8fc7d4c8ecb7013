// Package syncevents forwards sync coordinator notifications to Kafka so
// operators can follow replay progress across every edge client.
package syncevents

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"bloodbridge/internal/synccoord"
)

// Publisher is satisfied by the platform Kafka producer.
type Publisher interface {
	Publish(ctx context.Context, key, value []byte)
}

// Record is the JSON document written per event.
type Record struct {
	Source       string    `json:"source"`
	Type         string    `json:"type"`
	At           time.Time `json:"at"`
	ItemID       *int64    `json:"itemId,omitempty"`
	Kind         string    `json:"kind,omitempty"`
	Success      *bool     `json:"success,omitempty"`
	SuccessCount *int      `json:"successCount,omitempty"`
	FailCount    *int      `json:"failCount,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type Sink struct {
	publisher Publisher
	source    string
	logger    *slog.Logger
}

type Option func(*Sink)

// WithSource tags every record with the emitting client, and keys the Kafka
// partition by it so one client's events stay ordered.
func WithSource(source string) Option {
	return func(s *Sink) {
		if source != "" {
			s.source = source
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Sink) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewSink(p Publisher, opts ...Option) *Sink {
	s := &Sink{publisher: p, source: "bloodbridge", logger: slog.Default()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Attach subscribes the sink to c and returns the unsubscribe handle.
func (s *Sink) Attach(c *synccoord.Coordinator) func() {
	return c.Subscribe(s.Handle)
}

// Handle is a synccoord.Listener.
func (s *Sink) Handle(e synccoord.Event) {
	value, err := json.Marshal(s.toRecord(e))
	if err != nil {
		s.logger.Warn("encode sync event", "type", e.Type, "error", err)
		return
	}
	s.publisher.Publish(context.Background(), []byte(s.source), value)
}

func (s *Sink) toRecord(e synccoord.Event) Record {
	rec := Record{Source: s.source, Type: string(e.Type), At: e.At.UTC()}
	switch e.Type {
	case synccoord.EventItemSynced:
		success := e.Success
		rec.Success = &success
		if e.Item != nil {
			id := e.Item.ID
			rec.ItemID = &id
			rec.Kind = string(e.Item.Kind)
		}
	case synccoord.EventSyncComplete:
		ok, failed := e.SuccessCount, e.FailCount
		rec.SuccessCount = &ok
		rec.FailCount = &failed
	}
	if e.Err != nil {
		rec.Error = e.Err.Error()
	}
	return rec
}

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/pkg/platform/sentinel"
)

// InMemoryStore implements localstore.Store with maps guarded by one lock.
// Nothing survives a restart; use PostgresStore when the queue must be durable.
type InMemoryStore struct {
	mu          sync.RWMutex
	closed      bool
	clock       func() time.Time
	profiles    map[string]models.ProfileRecord
	donations   map[string]models.DonationRecord
	emergencies map[string]models.EmergencyRecord
	queue       []models.SyncQueueItem
	nextID      int64
}

// Option configures an InMemoryStore.
type Option func(*InMemoryStore)

// WithClock sets the time source used for cachedAt and queue timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *InMemoryStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewInMemoryStore(opts ...Option) *InMemoryStore {
	s := &InMemoryStore{
		clock:       time.Now,
		profiles:    make(map[string]models.ProfileRecord),
		donations:   make(map[string]models.DonationRecord),
		emergencies: make(map[string]models.EmergencyRecord),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Close makes every further operation fail with ErrStorageUnavailable.
func (s *InMemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *InMemoryStore) SaveProfile(_ context.Context, userID string, data json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	s.profiles[userID] = models.ProfileRecord{
		UserID:   userID,
		Data:     cloneRaw(payloadOrEmpty(data)),
		CachedAt: s.clock(),
	}
	return nil
}

func (s *InMemoryStore) GetProfile(_ context.Context, userID string) (models.ProfileRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.available(); err != nil {
		return models.ProfileRecord{}, false, err
	}
	rec, ok := s.profiles[userID]
	if !ok {
		return models.ProfileRecord{}, false, nil
	}
	rec.Data = cloneRaw(rec.Data)
	return rec, true, nil
}

func (s *InMemoryStore) SaveDonations(_ context.Context, userID string, records []models.DonationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	now := s.clock()
	for _, r := range records {
		r.UserID = userID
		r.Data = cloneRaw(payloadOrEmpty(r.Data))
		r.CachedAt = now
		s.donations[r.ID] = r
	}
	return nil
}

func (s *InMemoryStore) GetDonations(_ context.Context, userID string) ([]models.DonationRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.available(); err != nil {
		return nil, err
	}
	out := make([]models.DonationRecord, 0)
	for _, r := range s.donations {
		if r.UserID == userID {
			r.Data = cloneRaw(r.Data)
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) SaveEmergencies(_ context.Context, records []models.EmergencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	now := s.clock()
	for _, r := range records {
		r.Data = cloneRaw(payloadOrEmpty(r.Data))
		r.CachedAt = now
		s.emergencies[r.ID] = r
	}
	return nil
}

func (s *InMemoryStore) GetEmergencies(_ context.Context) ([]models.EmergencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.available(); err != nil {
		return nil, err
	}
	out := make([]models.EmergencyRecord, 0, len(s.emergencies))
	for _, r := range s.emergencies {
		r.Data = cloneRaw(r.Data)
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *InMemoryStore) AddToSyncQueue(_ context.Context, kind models.MutationKind, payload json.RawMessage) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("enqueue %q: %w", kind, sentinel.ErrInvalidState)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return 0, err
	}
	s.nextID++
	s.queue = append(s.queue, models.SyncQueueItem{
		ID:             s.nextID,
		Kind:           kind,
		Data:           cloneRaw(payloadOrEmpty(payload)),
		Timestamp:      s.clock().UTC(),
		Status:         models.SyncStatusPending,
		IdempotencyKey: uuid.NewString(),
	})
	return s.nextID, nil
}

func (s *InMemoryStore) GetSyncQueue(_ context.Context) ([]models.SyncQueueItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.available(); err != nil {
		return nil, err
	}
	out := make([]models.SyncQueueItem, 0, len(s.queue))
	for _, item := range s.queue {
		if item.Status != models.SyncStatusPending {
			continue
		}
		item.Data = cloneRaw(item.Data)
		out = append(out, item)
	}
	return out, nil
}

func (s *InMemoryStore) CompleteSyncItem(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	for i, item := range s.queue {
		if item.ID == id {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *InMemoryStore) ClearSyncQueue(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	s.queue = nil
	return nil
}

func (s *InMemoryStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.available(); err != nil {
		return err
	}
	s.profiles = make(map[string]models.ProfileRecord)
	s.donations = make(map[string]models.DonationRecord)
	s.emergencies = make(map[string]models.EmergencyRecord)
	s.queue = nil
	return nil
}

func (s *InMemoryStore) GetStats(_ context.Context) (models.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.available(); err != nil {
		return models.Stats{}, err
	}
	return models.Stats{
		Profiles:    len(s.profiles),
		Donations:   len(s.donations),
		Emergencies: len(s.emergencies),
		SyncQueue:   len(s.queue),
	}, nil
}

// available must be called while holding s.mu.
func (s *InMemoryStore) available() error {
	if s.closed {
		return fmt.Errorf("local store closed: %w", sentinel.ErrStorageUnavailable)
	}
	return nil
}

// payloadOrEmpty stores an absent payload as an empty JSON object so both
// implementations hold valid JSON for every record.
func payloadOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 {
		return json.RawMessage(`{}`)
	}
	return raw
}

func cloneRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage(nil), raw...)
}

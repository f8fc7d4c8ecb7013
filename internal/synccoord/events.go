package synccoord

import (
	"sync"
	"time"

	"bloodbridge/internal/localstore/models"
)

// EventType names a coordinator notification.
type EventType string

const (
	EventSyncStart    EventType = "sync_start"
	EventItemSynced   EventType = "item_synced"
	EventSyncComplete EventType = "sync_complete"
	EventSyncError    EventType = "sync_error"
)

// Event is delivered to every subscriber in emission order.
// Item and Success are set for item_synced; the counts for sync_complete;
// Err for sync_error and for a failed item_synced.
type Event struct {
	Type         EventType
	At           time.Time
	Item         *models.SyncQueueItem
	Success      bool
	SuccessCount int
	FailCount    int
	Err          error
}

type Listener func(Event)

type subscribers struct {
	mu     sync.RWMutex
	nextID uint64
	order  []uint64
	byID   map[uint64]Listener
}

func (s *subscribers) add(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byID == nil {
		s.byID = make(map[uint64]Listener)
	}
	s.nextID++
	id := s.nextID
	s.byID[id] = l
	s.order = append(s.order, id)

	var once sync.Once
	return func() {
		once.Do(func() { s.remove(id) })
	}
}

func (s *subscribers) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *subscribers) snapshot() []Listener {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out
}

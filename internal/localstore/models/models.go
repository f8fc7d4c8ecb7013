package models

import (
	"encoding/json"
	"fmt"
	"time"

	"bloodbridge/pkg/platform/sentinel"
)

// MutationKind tags a queued mutation. The set is closed; every kind must have a
// dispatch target in the sync coordinator.
type MutationKind string

const (
	MutationDonation           MutationKind = "donation"
	MutationProfileUpdate      MutationKind = "profile_update"
	MutationEmergencyResponse  MutationKind = "emergency_response"
	MutationDonationCompletion MutationKind = "donation_completion"
)

// MutationKinds lists every valid kind in declaration order.
var MutationKinds = []MutationKind{
	MutationDonation,
	MutationProfileUpdate,
	MutationEmergencyResponse,
	MutationDonationCompletion,
}

func (k MutationKind) Valid() bool {
	switch k {
	case MutationDonation, MutationProfileUpdate, MutationEmergencyResponse, MutationDonationCompletion:
		return true
	}
	return false
}

// ParseMutationKind validates a wire tag.
func ParseMutationKind(s string) (MutationKind, error) {
	k := MutationKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown mutation kind %q: %w", s, sentinel.ErrInvalidState)
	}
	return k, nil
}

// SyncStatus is always pending while an item exists; removal is the only transition.
type SyncStatus string

const SyncStatusPending SyncStatus = "pending"

// SyncQueueItem is one mutation not yet applied to the remote system.
type SyncQueueItem struct {
	ID             int64           `json:"id"`
	Kind           MutationKind    `json:"type"`
	Data           json.RawMessage `json:"data"`
	Timestamp      time.Time       `json:"timestamp"`
	Status         SyncStatus      `json:"status"`
	IdempotencyKey string          `json:"idempotencyKey"`
}

// ProfileRecord is the cached snapshot of one user's profile.
type ProfileRecord struct {
	UserID   string          `json:"userId"`
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cachedAt"`
}

// DonationRecord is a cached donation belonging to UserID.
type DonationRecord struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId"`
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cachedAt"`
}

// EmergencyRecord is a cached emergency request; emergencies are global.
type EmergencyRecord struct {
	ID       string          `json:"id"`
	Data     json.RawMessage `json:"data"`
	CachedAt time.Time       `json:"cachedAt"`
}

// Stats holds per-collection counts for diagnostics.
type Stats struct {
	Profiles    int `json:"profile"`
	Donations   int `json:"donations"`
	Emergencies int `json:"emergencies"`
	SyncQueue   int `json:"syncQueue"`
}

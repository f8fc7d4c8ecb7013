// Package localstore defines the offline store for profile, donation and
// emergency records plus the durable queue of mutations awaiting replay.
//
// Two implementations live in store/: an in-memory one for tests and ephemeral
// runs, and a PostgreSQL one that survives restarts. Every operation is atomic on
// a single collection; callers must not assume atomicity across collections.
package localstore

import (
	"context"
	"encoding/json"

	"bloodbridge/internal/localstore/models"
)

// Store is the LocalStore contract.
type Store interface {
	// SaveProfile overwrites the user's profile snapshot wholesale.
	SaveProfile(ctx context.Context, userID string, data json.RawMessage) error
	// GetProfile reports found=false for a missing user rather than an error.
	GetProfile(ctx context.Context, userID string) (models.ProfileRecord, bool, error)

	SaveDonations(ctx context.Context, userID string, records []models.DonationRecord) error
	GetDonations(ctx context.Context, userID string) ([]models.DonationRecord, error)
	SaveEmergencies(ctx context.Context, records []models.EmergencyRecord) error
	GetEmergencies(ctx context.Context) ([]models.EmergencyRecord, error)

	// AddToSyncQueue appends a pending item and returns its id once the item is durable.
	AddToSyncQueue(ctx context.Context, kind models.MutationKind, payload json.RawMessage) (int64, error)
	// GetSyncQueue returns pending items in insertion order.
	GetSyncQueue(ctx context.Context) ([]models.SyncQueueItem, error)
	// CompleteSyncItem removes the item; an absent id is not an error.
	CompleteSyncItem(ctx context.Context, id int64) error
	ClearSyncQueue(ctx context.Context) error

	ClearAll(ctx context.Context) error
	GetStats(ctx context.Context) (models.Stats, error)
}

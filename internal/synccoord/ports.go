package synccoord

import (
	"context"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/remote"
)

// Queue is the part of the local store the coordinator drains.
type Queue interface {
	GetSyncQueue(ctx context.Context) ([]models.SyncQueueItem, error)
	CompleteSyncItem(ctx context.Context, id int64) error
}

// Dispatcher applies one mutation kind upstream per method.
type Dispatcher = remote.Writer

// Lease serializes drains across processes sharing one queue.
type Lease interface {
	// TryAcquire reports false without error when another holder has the lease.
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

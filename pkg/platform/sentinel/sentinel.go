package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores, caches and the network boundary
// return these (optionally wrapped) so callers can branch with errors.Is:
// - ErrNotFound: record does not exist in a store
// - ErrStorageUnavailable: the persistent store cannot be opened or written
// - ErrNetworkFailure: transient transport failure (timeout, refused, breaker open)
// - ErrInvalidResponse: non-2xx, opaque or body-less upstream response
// - ErrQueueReplay: a single queued mutation failed against the remote system
// - ErrCoordinator: a drain failed before it could iterate the queue
// - ErrSyncInProgress: a drain is already running here or in another process
// - ErrInvalidState: entity in wrong state for requested operation
var (
	ErrNotFound           = errors.New("not found")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrNetworkFailure     = errors.New("network failure")
	ErrInvalidResponse    = errors.New("invalid response")
	ErrQueueReplay        = errors.New("queue replay failed")
	ErrCoordinator        = errors.New("sync coordinator failure")
	ErrSyncInProgress     = errors.New("sync already in progress")
	ErrInvalidState       = errors.New("invalid state")
)

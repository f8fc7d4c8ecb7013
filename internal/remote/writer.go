// Package remote talks to the remote document API. Writes carry an
// idempotency key so a replayed queue item is applied at most once upstream.
package remote

import (
	"context"
	"encoding/json"
)

// Request is one mutation sent upstream.
type Request struct {
	Data           json.RawMessage
	IdempotencyKey string
}

// Writer applies mutations on the remote system. One method per mutation kind.
type Writer interface {
	CreateDonation(ctx context.Context, req Request) error
	UpdateProfile(ctx context.Context, req Request) error
	RespondToEmergency(ctx context.Context, req Request) error
	CompleteDonation(ctx context.Context, req Request) error
}

// Reader fetches the data kept locally for offline use: reference collections
// plus one user's profile, donation history and the open emergencies.
type Reader interface {
	FetchCollection(ctx context.Context, name string) (json.RawMessage, error)
	// FetchProfile returns the user's profile document.
	FetchProfile(ctx context.Context, userID string) (json.RawMessage, error)
	// FetchDonations returns a JSON array of donation documents, each with an "id".
	FetchDonations(ctx context.Context, userID string) (json.RawMessage, error)
	// FetchEmergencies returns a JSON array of emergency documents, each with an "id".
	FetchEmergencies(ctx context.Context) (json.RawMessage, error)
}

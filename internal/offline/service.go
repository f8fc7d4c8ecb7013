// Package offline is the application-facing surface of the offline layer: it
// submits mutations (queueing them when the remote side is unreachable),
// reports offline and cache diagnostics, searches cached reference data and
// resets everything on logout.
package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"bloodbridge/internal/interceptor"
	"bloodbridge/internal/localstore"
	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/remote"
	"bloodbridge/internal/resourcecache"
	"bloodbridge/internal/synccoord"
	"bloodbridge/pkg/platform/sentinel"
)

// Connectivity is the last known reachability of the remote side.
type Connectivity interface {
	Online() bool
}

// Syncer is the part of the coordinator the facade reports on and triggers.
type Syncer interface {
	SyncPending(ctx context.Context) (synccoord.Result, error)
	IsSyncing() bool
}

type Service struct {
	store     localstore.Store
	cache     *resourcecache.Cache
	writer    remote.Writer
	reader    remote.Reader
	responses *interceptor.ResponseCache
	syncer    Syncer
	conn      Connectivity
	logger    *slog.Logger
	metrics   *Metrics
}

type Option func(*Service)

// WithReader enables HydrateReferenceData and HydrateUserData.
func WithReader(r remote.Reader) Option {
	return func(s *Service) {
		s.reader = r
	}
}

// WithResponseCache includes the interceptor's named caches in stats and logout.
func WithResponseCache(rc *interceptor.ResponseCache) Option {
	return func(s *Service) {
		s.responses = rc
	}
}

func WithSyncer(sy Syncer) Option {
	return func(s *Service) {
		s.syncer = sy
	}
}

func WithConnectivity(c Connectivity) Option {
	return func(s *Service) {
		s.conn = c
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store localstore.Store, cache *resourcecache.Cache, writer remote.Writer, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("local store is required")
	}
	if cache == nil {
		return nil, errors.New("resource cache is required")
	}
	if writer == nil {
		return nil, errors.New("remote writer is required")
	}
	s := &Service{
		store:  store,
		cache:  cache,
		writer: writer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

// SubmitResult tells the caller whether a mutation reached the remote side or
// was parked in the sync queue.
type SubmitResult struct {
	Applied bool  `json:"applied"`
	Queued  bool  `json:"queued"`
	QueueID int64 `json:"queueId,omitempty"`
}

// SubmitOrQueue applies a mutation remotely when online and queues it when
// offline or when the attempt fails transiently. A rejection by the remote
// side (4xx) is returned to the caller and not queued.
func (s *Service) SubmitOrQueue(ctx context.Context, kind models.MutationKind, payload json.RawMessage) (SubmitResult, error) {
	if !kind.Valid() {
		return SubmitResult{}, fmt.Errorf("unknown mutation kind %q: %w", kind, sentinel.ErrInvalidState)
	}
	if !json.Valid(payload) {
		return SubmitResult{}, fmt.Errorf("mutation payload is not valid JSON: %w", sentinel.ErrInvalidState)
	}

	if s.online() {
		req := remote.Request{Data: payload, IdempotencyKey: uuid.NewString()}
		err := synccoord.Dispatch(ctx, s.writer, kind, req)
		if err == nil {
			s.metrics.submitted(outcomeApplied)
			return SubmitResult{Applied: true}, nil
		}
		if !remote.IsRetryable(err) {
			s.metrics.submitted(outcomeRejected)
			return SubmitResult{}, err
		}
		s.logger.InfoContext(ctx, "remote write failed, queueing for later sync", "kind", kind, "error", err)
	}

	id, err := s.store.AddToSyncQueue(ctx, kind, payload)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("queue %s: %w", kind, err)
	}
	s.metrics.submitted(outcomeQueued)
	return SubmitResult{Queued: true, QueueID: id}, nil
}

// SyncNow triggers a drain, e.g. from a user's manual retry.
func (s *Service) SyncNow(ctx context.Context) (synccoord.Result, error) {
	if s.syncer == nil {
		return synccoord.Result{}, fmt.Errorf("sync coordinator not configured: %w", sentinel.ErrInvalidState)
	}
	return s.syncer.SyncPending(ctx)
}

// PendingSync lists the queued mutations in replay order.
func (s *Service) PendingSync(ctx context.Context) ([]models.SyncQueueItem, error) {
	return s.store.GetSyncQueue(ctx)
}

// OfflineStats feeds the offline banner.
type OfflineStats struct {
	Online      bool         `json:"online"`
	Syncing     bool         `json:"syncing"`
	HasPending  bool         `json:"hasPendingSync"`
	Collections models.Stats `json:"collections"`
}

func (s *Service) OfflineStats(ctx context.Context) (OfflineStats, error) {
	stats, err := s.store.GetStats(ctx)
	if err != nil {
		return OfflineStats{}, err
	}
	return OfflineStats{
		Online:      s.online(),
		Syncing:     s.syncer != nil && s.syncer.IsSyncing(),
		HasPending:  stats.SyncQueue > 0,
		Collections: stats,
	}, nil
}

// CacheStats describes reference snapshots and, when wired, response caches.
type CacheStats struct {
	TTLMs         int64               `json:"ttlMs"`
	SchemaVersion int                 `json:"schemaVersion"`
	Collections   resourcecache.Stats `json:"collections"`
	Responses     map[string]int      `json:"responses,omitempty"`
}

func (s *Service) CacheStats(ctx context.Context) (CacheStats, error) {
	collections, err := s.cache.Stats(ctx)
	if err != nil {
		return CacheStats{}, err
	}
	out := CacheStats{
		TTLMs:         s.cache.TTL().Milliseconds(),
		SchemaVersion: s.cache.SchemaVersion(),
		Collections:   collections,
	}
	if s.responses != nil {
		if out.Responses, err = s.responses.Stats(ctx); err != nil {
			return CacheStats{}, err
		}
	}
	return out, nil
}

// The SearchCached* functions return found=false when the snapshot is missing
// or expired, which callers must distinguish from an empty match list.

func (s *Service) SearchCachedBloodBanks(ctx context.Context, query string) ([]resourcecache.BloodBank, bool) {
	return resourcecache.Search(ctx, s.cache, resourcecache.BloodBanks, resourcecache.MatchText[resourcecache.BloodBank](query))
}

func (s *Service) SearchCachedMedicalResources(ctx context.Context, query string) ([]resourcecache.MedicalResource, bool) {
	return resourcecache.Search(ctx, s.cache, resourcecache.MedicalResources, resourcecache.MatchText[resourcecache.MedicalResource](query))
}

func (s *Service) SearchCachedEmergencyAlerts(ctx context.Context, query string) ([]resourcecache.EmergencyAlert, bool) {
	return resourcecache.Search(ctx, s.cache, resourcecache.EmergencyAlerts, resourcecache.MatchText[resourcecache.EmergencyAlert](query))
}

// HydrateResult lists which collections were refreshed.
type HydrateResult struct {
	Refreshed []resourcecache.Collection `json:"refreshed"`
	Skipped   []resourcecache.Collection `json:"skipped"`
}

// HydrateReferenceData fetches every reference collection and stores fresh
// snapshots. Collections still valid are skipped unless force is set. A failed
// collection does not stop the others; the errors are joined.
func (s *Service) HydrateReferenceData(ctx context.Context, force bool) (HydrateResult, error) {
	if s.reader == nil {
		return HydrateResult{}, fmt.Errorf("reference reader not configured: %w", sentinel.ErrInvalidState)
	}
	if !s.online() {
		return HydrateResult{}, fmt.Errorf("hydrate reference data: offline: %w", sentinel.ErrNetworkFailure)
	}

	var res HydrateResult
	var todo []resourcecache.Collection
	for _, coll := range resourcecache.Collections {
		if !force && s.cache.IsValid(ctx, coll, 0) {
			res.Skipped = append(res.Skipped, coll)
			continue
		}
		todo = append(todo, coll)
	}

	errs := make([]error, len(todo))
	var g errgroup.Group
	for i, coll := range todo {
		g.Go(func() error {
			errs[i] = s.hydrate(ctx, coll)
			return nil
		})
	}
	_ = g.Wait()

	for i, coll := range todo {
		if errs[i] == nil {
			res.Refreshed = append(res.Refreshed, coll)
		}
	}
	return res, errors.Join(errs...)
}

func (s *Service) hydrate(ctx context.Context, coll resourcecache.Collection) error {
	raw, err := s.reader.FetchCollection(ctx, string(coll))
	if err != nil {
		return fmt.Errorf("fetch %s: %w", coll, err)
	}
	switch coll {
	case resourcecache.MedicalResources:
		return putDecoded[resourcecache.MedicalResource](ctx, s.cache, coll, raw)
	case resourcecache.BloodBanks:
		return putDecoded[resourcecache.BloodBank](ctx, s.cache, coll, raw)
	case resourcecache.EmergencyAlerts:
		return putDecoded[resourcecache.EmergencyAlert](ctx, s.cache, coll, raw)
	}
	return fmt.Errorf("unknown collection %q: %w", coll, sentinel.ErrInvalidState)
}

func putDecoded[T any](ctx context.Context, c *resourcecache.Cache, coll resourcecache.Collection, raw json.RawMessage) error {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		return fmt.Errorf("decode %s: %w: %w", coll, sentinel.ErrInvalidResponse, err)
	}
	return resourcecache.Put(ctx, c, coll, items)
}

// UserDataResult counts what HydrateUserData stored.
type UserDataResult struct {
	Profile     bool `json:"profile"`
	Donations   int  `json:"donations"`
	Emergencies int  `json:"emergencies"`
}

// HydrateUserData copies the user's profile, donation history and the open
// emergencies into the local store so they can be read while offline. The
// three fetches run in parallel; whatever arrived is saved even when another
// part failed, and the errors are joined.
func (s *Service) HydrateUserData(ctx context.Context, userID string) (UserDataResult, error) {
	if userID == "" {
		return UserDataResult{}, fmt.Errorf("user id is required: %w", sentinel.ErrInvalidState)
	}
	if s.reader == nil {
		return UserDataResult{}, fmt.Errorf("remote reader not configured: %w", sentinel.ErrInvalidState)
	}
	if !s.online() {
		return UserDataResult{}, fmt.Errorf("hydrate user data: offline: %w", sentinel.ErrNetworkFailure)
	}

	var res UserDataResult
	var profileErr, donationsErr, emergenciesErr error
	var g errgroup.Group
	g.Go(func() error {
		profileErr = s.hydrateProfile(ctx, userID)
		res.Profile = profileErr == nil
		return nil
	})
	g.Go(func() error {
		res.Donations, donationsErr = s.hydrateDonations(ctx, userID)
		return nil
	})
	g.Go(func() error {
		res.Emergencies, emergenciesErr = s.hydrateEmergencies(ctx)
		return nil
	})
	_ = g.Wait()

	err := errors.Join(profileErr, donationsErr, emergenciesErr)
	if err != nil {
		s.logger.WarnContext(ctx, "user data hydration incomplete", "user_id", userID, "error", err)
	}
	return res, err
}

func (s *Service) hydrateProfile(ctx context.Context, userID string) error {
	raw, err := s.reader.FetchProfile(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch profile: %w", err)
	}
	return s.store.SaveProfile(ctx, userID, raw)
}

func (s *Service) hydrateDonations(ctx context.Context, userID string) (int, error) {
	raw, err := s.reader.FetchDonations(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("fetch donations: %w", err)
	}
	docs, err := decodeDocuments(raw)
	if err != nil {
		return 0, fmt.Errorf("decode donations: %w", err)
	}
	records := make([]models.DonationRecord, len(docs))
	for i, d := range docs {
		records[i] = models.DonationRecord{ID: d.id, UserID: userID, Data: d.data}
	}
	if err := s.store.SaveDonations(ctx, userID, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

func (s *Service) hydrateEmergencies(ctx context.Context) (int, error) {
	raw, err := s.reader.FetchEmergencies(ctx)
	if err != nil {
		return 0, fmt.Errorf("fetch emergencies: %w", err)
	}
	docs, err := decodeDocuments(raw)
	if err != nil {
		return 0, fmt.Errorf("decode emergencies: %w", err)
	}
	records := make([]models.EmergencyRecord, len(docs))
	for i, d := range docs {
		records[i] = models.EmergencyRecord{ID: d.id, Data: d.data}
	}
	if err := s.store.SaveEmergencies(ctx, records); err != nil {
		return 0, err
	}
	return len(records), nil
}

type document struct {
	id   string
	data json.RawMessage
}

// decodeDocuments splits a JSON array into documents keyed by their "id".
func decodeDocuments(raw json.RawMessage) ([]document, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %w", sentinel.ErrInvalidResponse, err)
	}
	out := make([]document, 0, len(items))
	for i, item := range items {
		var head struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(item, &head); err != nil || head.ID == "" {
			return nil, fmt.Errorf("document %d has no id: %w", i, sentinel.ErrInvalidResponse)
		}
		out = append(out, document{id: head.ID, data: item})
	}
	return out, nil
}

// CachedProfile reads the locally held profile. found is false when nothing
// was hydrated for the user.
func (s *Service) CachedProfile(ctx context.Context, userID string) (models.ProfileRecord, bool, error) {
	return s.store.GetProfile(ctx, userID)
}

func (s *Service) CachedDonations(ctx context.Context, userID string) ([]models.DonationRecord, error) {
	return s.store.GetDonations(ctx, userID)
}

func (s *Service) CachedEmergencies(ctx context.Context) ([]models.EmergencyRecord, error) {
	return s.store.GetEmergencies(ctx)
}

// Logout wipes every locally held record, queued mutation and cached response.
func (s *Service) Logout(ctx context.Context) error {
	var errs []error
	if err := s.store.ClearAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear local store: %w", err))
	}
	if err := s.cache.ClearAll(ctx); err != nil {
		errs = append(errs, fmt.Errorf("clear resource cache: %w", err))
	}
	if s.responses != nil {
		for _, name := range interceptor.CacheNames {
			if err := s.responses.Clear(ctx, name); err != nil {
				errs = append(errs, fmt.Errorf("clear %s responses: %w", name, err))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "offline data cleared")
	return nil
}

func (s *Service) online() bool {
	return s.conn == nil || s.conn.Online()
}

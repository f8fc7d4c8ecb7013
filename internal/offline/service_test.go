package offline

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"bloodbridge/internal/interceptor"
	"bloodbridge/internal/kv"
	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/localstore/store"
	"bloodbridge/internal/remote"
	"bloodbridge/internal/resourcecache"
	"bloodbridge/internal/synccoord"
	"bloodbridge/pkg/platform/sentinel"
)

// fakeRemote implements remote.Writer and remote.Reader.
type fakeRemote struct {
	mu          sync.Mutex
	writeErr    error
	writes      []string
	keys        []string
	collections map[string]string
	profiles    map[string]string
	donations   map[string]string
	emergencies string
	fetchErr    map[string]error
}

func (f *fakeRemote) record(op string, req remote.Request) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes = append(f.writes, op)
	f.keys = append(f.keys, req.IdempotencyKey)
	return f.writeErr
}

func (f *fakeRemote) CreateDonation(_ context.Context, r remote.Request) error {
	return f.record("donation", r)
}

func (f *fakeRemote) UpdateProfile(_ context.Context, r remote.Request) error {
	return f.record("profile", r)
}

func (f *fakeRemote) RespondToEmergency(_ context.Context, r remote.Request) error {
	return f.record("emergency", r)
}

func (f *fakeRemote) CompleteDonation(_ context.Context, r remote.Request) error {
	return f.record("completion", r)
}

func (f *fakeRemote) FetchCollection(_ context.Context, name string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[name]; err != nil {
		return nil, err
	}
	return json.RawMessage(f.collections[name]), nil
}

func (f *fakeRemote) fetch(key, body string) (json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fetchErr[key]; err != nil {
		return nil, err
	}
	return json.RawMessage(body), nil
}

func (f *fakeRemote) FetchProfile(_ context.Context, userID string) (json.RawMessage, error) {
	return f.fetch("profile", f.profiles[userID])
}

func (f *fakeRemote) FetchDonations(_ context.Context, userID string) (json.RawMessage, error) {
	return f.fetch("donations", f.donations[userID])
}

func (f *fakeRemote) FetchEmergencies(context.Context) (json.RawMessage, error) {
	return f.fetch("emergencies", f.emergencies)
}

type switchConn struct{ online bool }

func (c *switchConn) Online() bool { return c.online }

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	kv        *kv.InMemoryStore
	cache     *resourcecache.Cache
	responses *interceptor.ResponseCache
	remote    *fakeRemote
	conn      *switchConn
	metrics   *Metrics
	now       time.Time
	svc       *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }
	s.store = store.NewInMemoryStore(store.WithClock(clock))
	s.kv = kv.NewInMemoryStore()
	s.cache = resourcecache.New(s.kv, resourcecache.WithClock(clock))
	s.responses = interceptor.NewResponseCache(s.kv, resourcecache.SchemaVersion)
	s.remote = &fakeRemote{
		collections: map[string]string{
			"blood_banks":       `[{"id":"bb-1","name":"Central Blood Bank","city":"Nairobi","bloodTypes":["O-","A+"]},{"id":"bb-2","name":"Coast Donor Centre","city":"Mombasa"}]`,
			"medical_resources": `[{"id":"mr-1","title":"Iron rich diet","category":"nutrition"}]`,
			"emergency_alerts":  `[]`,
		},
		profiles:    map[string]string{"user-1": `{"name":"Amina","bloodType":"O-"}`},
		donations:   map[string]string{"user-1": `[{"id":"don-2","units":1},{"id":"don-1","units":2}]`},
		emergencies: `[{"id":"em-1","bloodType":"AB+","hospital":"Kenyatta"}]`,
	}
	s.conn = &switchConn{online: true}
	s.metrics = NewMetrics(prometheus.NewRegistry())

	var err error
	s.svc, err = New(s.store, s.cache, s.remote,
		WithReader(s.remote),
		WithResponseCache(s.responses),
		WithConnectivity(s.conn),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestNew() {
	_, err := New(nil, s.cache, s.remote)
	s.Error(err)
	_, err = New(s.store, nil, s.remote)
	s.Error(err)
	_, err = New(s.store, s.cache, nil)
	s.Error(err)
}

func (s *ServiceSuite) TestSubmitOrQueue() {
	payload := json.RawMessage(`{"units":1}`)

	s.Run("online write is applied directly with an idempotency key", func() {
		res, err := s.svc.SubmitOrQueue(s.ctx, models.MutationDonation, payload)
		s.Require().NoError(err)
		s.Equal(SubmitResult{Applied: true}, res)
		s.Equal([]string{"donation"}, s.remote.writes)
		s.NotEmpty(s.remote.keys[0])
	})

	s.Run("offline write is queued without a remote call", func() {
		s.conn.online = false
		res, err := s.svc.SubmitOrQueue(s.ctx, models.MutationProfileUpdate, payload)
		s.Require().NoError(err)
		s.True(res.Queued)
		s.Len(s.remote.writes, 1)

		pending, err := s.svc.PendingSync(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(pending, 1)
		s.Equal(res.QueueID, pending[0].ID)
		s.Equal(models.MutationProfileUpdate, pending[0].Kind)
	})

	s.Run("transient failure while online is queued", func() {
		s.conn.online = true
		s.remote.writeErr = sentinel.ErrNetworkFailure
		res, err := s.svc.SubmitOrQueue(s.ctx, models.MutationEmergencyResponse, payload)
		s.Require().NoError(err)
		s.True(res.Queued)
	})

	s.Run("rejection is returned and not queued", func() {
		s.remote.writeErr = &remote.ResponseError{Operation: "complete donation", StatusCode: http.StatusUnprocessableEntity}
		_, err := s.svc.SubmitOrQueue(s.ctx, models.MutationDonationCompletion, payload)
		s.ErrorIs(err, sentinel.ErrInvalidResponse)

		pending, err := s.svc.PendingSync(s.ctx)
		s.Require().NoError(err)
		s.Len(pending, 2)
	})

	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(outcomeApplied)))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(outcomeQueued)))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Submissions.WithLabelValues(outcomeRejected)))
}

func (s *ServiceSuite) TestSubmitOrQueueValidation() {
	_, err := s.svc.SubmitOrQueue(s.ctx, "blood_transfusion", json.RawMessage(`{}`))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	_, err = s.svc.SubmitOrQueue(s.ctx, models.MutationDonation, json.RawMessage(`{units`))
	s.ErrorIs(err, sentinel.ErrInvalidState)
	s.Empty(s.remote.writes)
}

func (s *ServiceSuite) TestQueuedItemsReplayThroughCoordinator() {
	s.conn.online = false
	_, err := s.svc.SubmitOrQueue(s.ctx, models.MutationDonation, json.RawMessage(`{"n":1}`))
	s.Require().NoError(err)
	_, err = s.svc.SubmitOrQueue(s.ctx, models.MutationDonationCompletion, json.RawMessage(`{"n":2}`))
	s.Require().NoError(err)

	coord, err := synccoord.New(s.store, s.remote)
	s.Require().NoError(err)
	s.svc.syncer = coord

	s.conn.online = true
	res, err := s.svc.SyncNow(s.ctx)
	s.Require().NoError(err)
	s.Equal(2, res.Succeeded)
	s.Equal([]string{"donation", "completion"}, s.remote.writes)

	stats, err := s.svc.OfflineStats(s.ctx)
	s.Require().NoError(err)
	s.False(stats.HasPending)
	s.False(stats.Syncing)
}

func (s *ServiceSuite) TestSyncNowWithoutCoordinator() {
	_, err := s.svc.SyncNow(s.ctx)
	s.ErrorIs(err, sentinel.ErrInvalidState)
}

func (s *ServiceSuite) TestOfflineStats() {
	s.Require().NoError(s.store.SaveProfile(s.ctx, "u1", json.RawMessage(`{"name":"Amina"}`)))
	s.Require().NoError(s.store.SaveDonations(s.ctx, "u1", []models.DonationRecord{{ID: "d1", Data: json.RawMessage(`{}`)}}))
	s.conn.online = false
	_, err := s.svc.SubmitOrQueue(s.ctx, models.MutationDonation, json.RawMessage(`{}`))
	s.Require().NoError(err)

	stats, err := s.svc.OfflineStats(s.ctx)
	s.Require().NoError(err)
	s.False(stats.Online)
	s.True(stats.HasPending)
	s.Equal(models.Stats{Profiles: 1, Donations: 1, SyncQueue: 1}, stats.Collections)
}

func (s *ServiceSuite) TestHydrateAndSearch() {
	s.Run("search before hydration reports absent", func() {
		banks, found := s.svc.SearchCachedBloodBanks(s.ctx, "central")
		s.False(found)
		s.Nil(banks)
	})

	s.Run("hydration stores every collection", func() {
		res, err := s.svc.HydrateReferenceData(s.ctx, false)
		s.Require().NoError(err)
		s.ElementsMatch(resourcecache.Collections, res.Refreshed)
		s.Empty(res.Skipped)
	})

	s.Run("search matches case-insensitively", func() {
		banks, found := s.svc.SearchCachedBloodBanks(s.ctx, "CENTRAL")
		s.True(found)
		s.Require().Len(banks, 1)
		s.Equal("bb-1", banks[0].ID)

		banks, found = s.svc.SearchCachedBloodBanks(s.ctx, "o-")
		s.True(found)
		s.Len(banks, 1)
	})

	s.Run("empty snapshot is found with no matches", func() {
		alerts, found := s.svc.SearchCachedEmergencyAlerts(s.ctx, "")
		s.True(found)
		s.Empty(alerts)
	})

	s.Run("valid snapshots are skipped unless forced", func() {
		res, err := s.svc.HydrateReferenceData(s.ctx, false)
		s.Require().NoError(err)
		s.Empty(res.Refreshed)
		s.Len(res.Skipped, len(resourcecache.Collections))

		res, err = s.svc.HydrateReferenceData(s.ctx, true)
		s.Require().NoError(err)
		s.Len(res.Refreshed, len(resourcecache.Collections))
	})

	s.Run("expired snapshot is absent", func() {
		s.now = s.now.Add(25 * time.Hour)
		_, found := s.svc.SearchCachedMedicalResources(s.ctx, "iron")
		s.False(found)
	})
}

func (s *ServiceSuite) TestHydratePartialFailure() {
	s.remote.fetchErr = map[string]error{"emergency_alerts": sentinel.ErrNetworkFailure}
	s.remote.collections["medical_resources"] = `{"not":"an array"}`

	res, err := s.svc.HydrateReferenceData(s.ctx, false)
	s.ErrorIs(err, sentinel.ErrNetworkFailure)
	s.ErrorIs(err, sentinel.ErrInvalidResponse)
	s.Equal([]resourcecache.Collection{resourcecache.BloodBanks}, res.Refreshed)
}

func (s *ServiceSuite) TestHydrateOffline() {
	s.conn.online = false
	_, err := s.svc.HydrateReferenceData(s.ctx, true)
	s.ErrorIs(err, sentinel.ErrNetworkFailure)
}

func (s *ServiceSuite) TestHydrateUserDataThenReadOffline() {
	res, err := s.svc.HydrateUserData(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(UserDataResult{Profile: true, Donations: 2, Emergencies: 1}, res)

	s.conn.online = false

	profile, found, err := s.svc.CachedProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.True(found)
	s.JSONEq(`{"name":"Amina","bloodType":"O-"}`, string(profile.Data))
	s.Equal(s.now, profile.CachedAt)

	donations, err := s.svc.CachedDonations(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(donations, 2)
	s.Equal("don-1", donations[0].ID)
	s.Equal("user-1", donations[0].UserID)
	s.JSONEq(`{"id":"don-1","units":2}`, string(donations[0].Data))

	emergencies, err := s.svc.CachedEmergencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(emergencies, 1)
	s.Equal("em-1", emergencies[0].ID)

	_, found, err = s.svc.CachedProfile(s.ctx, "user-2")
	s.Require().NoError(err)
	s.False(found)

	stats, err := s.svc.OfflineStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Stats{Profiles: 1, Donations: 2, Emergencies: 1}, stats.Collections)
}

func (s *ServiceSuite) TestHydrateUserDataPartialFailure() {
	s.remote.fetchErr = map[string]error{"donations": sentinel.ErrNetworkFailure}
	s.remote.emergencies = `[{"bloodType":"AB+"}]`

	res, err := s.svc.HydrateUserData(s.ctx, "user-1")
	s.ErrorIs(err, sentinel.ErrNetworkFailure)
	s.ErrorIs(err, sentinel.ErrInvalidResponse)
	s.Equal(UserDataResult{Profile: true}, res)

	_, found, err := s.svc.CachedProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.True(found)
	emergencies, err := s.svc.CachedEmergencies(s.ctx)
	s.Require().NoError(err)
	s.Empty(emergencies)
}

func (s *ServiceSuite) TestHydrateUserDataPreconditions() {
	_, err := s.svc.HydrateUserData(s.ctx, "")
	s.ErrorIs(err, sentinel.ErrInvalidState)

	s.conn.online = false
	_, err = s.svc.HydrateUserData(s.ctx, "user-1")
	s.ErrorIs(err, sentinel.ErrNetworkFailure)
}

func (s *ServiceSuite) TestCacheStats() {
	_, err := s.svc.HydrateReferenceData(s.ctx, false)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "https://api.example/v1/blood-banks", nil)
	resp := &http.Response{StatusCode: http.StatusOK, Header: http.Header{}}
	s.Require().NoError(s.responses.Put(s.ctx, interceptor.CacheDefault, req, resp, []byte(`[]`), s.now))

	stats, err := s.svc.CacheStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(int64(24*time.Hour/time.Millisecond), stats.TTLMs)
	s.Equal(2, stats.Collections[resourcecache.BloodBanks].Count)
	s.True(stats.Collections[resourcecache.BloodBanks].Valid)
	s.Equal(1, stats.Responses[interceptor.CacheDefault])
}

func (s *ServiceSuite) TestLogoutClearsEverything() {
	_, err := s.svc.HydrateReferenceData(s.ctx, false)
	s.Require().NoError(err)
	s.Require().NoError(s.store.SaveProfile(s.ctx, "u1", json.RawMessage(`{}`)))
	s.conn.online = false
	_, err = s.svc.SubmitOrQueue(s.ctx, models.MutationDonation, json.RawMessage(`{}`))
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodGet, "https://firestore.googleapis.com/v1/users/u1", nil)
	s.Require().NoError(s.responses.Put(s.ctx, interceptor.CacheRemoteDB, req, &http.Response{StatusCode: http.StatusOK}, []byte(`{}`), s.now))

	s.Require().NoError(s.svc.Logout(s.ctx))

	stats, err := s.svc.OfflineStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Stats{}, stats.Collections)

	cache, err := s.svc.CacheStats(s.ctx)
	s.Require().NoError(err)
	for _, coll := range resourcecache.Collections {
		s.False(cache.Collections[coll].Present)
	}
	for _, n := range cache.Responses {
		s.Zero(n)
	}
}

func (s *ServiceSuite) TestLogoutReportsStorageFailure() {
	s.Require().NoError(s.store.Close())
	err := s.svc.Logout(s.ctx)
	s.True(errors.Is(err, sentinel.ErrStorageUnavailable))
}

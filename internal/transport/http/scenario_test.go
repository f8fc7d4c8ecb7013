package httptransport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bloodbridge/internal/connectivity"
	"bloodbridge/internal/kv"
	"bloodbridge/internal/localstore/models"
	"bloodbridge/internal/localstore/store"
	"bloodbridge/internal/offline"
	"bloodbridge/internal/remote"
	"bloodbridge/internal/resourcecache"
	"bloodbridge/internal/synccoord"
	"bloodbridge/pkg/testutil"
)

// remoteAPI records writes received by a fake remote document API.
type remoteAPI struct {
	mu     sync.Mutex
	writes []string
	keys   []string
}

func (a *remoteAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/collections/blood_banks":
		_, _ = w.Write([]byte(`[{"id":"bb-1","name":"Central Blood Bank","city":"Nairobi"}]`))
	case r.Method == http.MethodGet && r.URL.Path == "/users/d-1/profile":
		_, _ = w.Write([]byte(`{"name":"Amina","bloodType":"O-"}`))
	case r.Method == http.MethodGet && r.URL.Path == "/users/d-1/donations":
		_, _ = w.Write([]byte(`[{"id":"don-1","units":1}]`))
	case r.Method == http.MethodGet && r.URL.Path == "/emergencies":
		_, _ = w.Write([]byte(`[{"id":"em-1","bloodType":"O-"}]`))
	case r.Method == http.MethodGet:
		_, _ = w.Write([]byte(`[]`))
	default:
		a.mu.Lock()
		a.writes = append(a.writes, r.Method+" "+r.URL.Path)
		a.keys = append(a.keys, r.Header.Get(remote.IdempotencyHeader))
		a.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
	}
}

func TestOfflineRoundTrip(t *testing.T) {
	testutil.Given(t, "an edge client whose remote API is reachable but reported offline", func(t *testing.T) {
		api := &remoteAPI{}
		upstream := httptest.NewServer(api)
		defer upstream.Close()

		st := store.NewInMemoryStore()
		client := remote.NewClient(upstream.URL)
		monitor := connectivity.New(upstream.URL+"/healthz",
			connectivity.WithInitialState(false),
			connectivity.WithLogger(quietLogger()),
		)
		coord, err := synccoord.New(st, client, synccoord.WithLogger(quietLogger()))
		require.NoError(t, err)
		svc, err := offline.New(st, resourcecache.New(kv.NewInMemoryStore()), client,
			offline.WithReader(client),
			offline.WithSyncer(coord),
			offline.WithConnectivity(monitor),
			offline.WithLogger(quietLogger()),
		)
		require.NoError(t, err)
		router := NewRouter(RouterConfig{Handler: NewHandler(svc, monitor, quietLogger()), Logger: quietLogger()})

		testutil.When(t, "a donation and a completion are submitted", func(t *testing.T) {
			for _, kind := range []models.MutationKind{models.MutationDonation, models.MutationDonationCompletion} {
				rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/queue", map[string]any{
					"type": kind,
					"data": map[string]any{"donorId": "d-1"},
				}))
				require.Equal(t, http.StatusAccepted, rr.Code)
			}

			testutil.Then(t, "both wait in the queue and nothing reached the remote", func(t *testing.T) {
				stats := testutil.UnmarshalResponse[offline.OfflineStats](t,
					testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/offline/stats", nil)))
				assert.False(t, stats.Online)
				assert.True(t, stats.HasPending)
				assert.Equal(t, 2, stats.Collections.SyncQueue)
				assert.Empty(t, api.writes)
			})
		})

		testutil.When(t, "hydration is attempted while offline", func(t *testing.T) {
			rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/cache/hydrate", nil))

			testutil.Then(t, "it is refused as offline", func(t *testing.T) {
				testutil.AssertStatusAndError(t, rr, http.StatusServiceUnavailable, "offline")
			})
		})

		testutil.When(t, "connectivity is restored and a sync is requested", func(t *testing.T) {
			rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/connectivity", map[string]bool{"online": true}))
			require.Equal(t, http.StatusOK, rr.Code)

			rr = testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/sync", nil))
			require.Equal(t, http.StatusOK, rr.Code)
			res := testutil.UnmarshalResponse[map[string]int](t, rr)

			testutil.Then(t, "the queue replays in order with idempotency keys", func(t *testing.T) {
				assert.Equal(t, 2, res["succeeded"])
				assert.Equal(t, []string{"POST /donations", "POST /donations/complete"}, api.writes)
				for _, k := range api.keys {
					assert.NotEmpty(t, k)
				}
			})
			testutil.And(t, "nothing is left pending", func(t *testing.T) {
				pending := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/sync/pending", nil))
				assert.JSONEq(t, `[]`, pending.Body.String())
			})
		})

		testutil.When(t, "reference data is hydrated and searched", func(t *testing.T) {
			rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/cache/hydrate", nil))
			require.Equal(t, http.StatusOK, rr.Code)

			rr = testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/cache/blood_banks/search?q=nairobi", nil))

			testutil.Then(t, "the cached snapshot answers the search", func(t *testing.T) {
				var body struct {
					Found bool              `json:"found"`
					Items []json.RawMessage `json:"items"`
				}
				require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
				assert.True(t, body.Found)
				assert.Len(t, body.Items, 1)
			})
		})

		testutil.When(t, "the donor's records are hydrated and the network drops", func(t *testing.T) {
			rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodPost, "/offline/users/d-1/hydrate", nil))
			require.Equal(t, http.StatusOK, rr.Code)
			rr = testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/connectivity", map[string]bool{"online": false}))
			require.Equal(t, http.StatusOK, rr.Code)

			testutil.Then(t, "profile, donations and emergencies are served from the local store", func(t *testing.T) {
				profile := testutil.UnmarshalResponse[models.ProfileRecord](t,
					testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/offline/profile/d-1", nil)))
				assert.JSONEq(t, `{"name":"Amina","bloodType":"O-"}`, string(profile.Data))

				donations := testutil.UnmarshalResponse[[]models.DonationRecord](t,
					testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/offline/donations/d-1", nil)))
				require.Len(t, donations, 1)
				assert.Equal(t, "don-1", donations[0].ID)

				emergencies := testutil.UnmarshalResponse[[]models.EmergencyRecord](t,
					testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/offline/emergencies", nil)))
				require.Len(t, emergencies, 1)
				assert.Equal(t, "em-1", emergencies[0].ID)
			})
		})

		testutil.When(t, "the user logs out", func(t *testing.T) {
			rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodDelete, "/offline", nil))
			require.Equal(t, http.StatusNoContent, rr.Code)

			testutil.Then(t, "cached reference data is gone", func(t *testing.T) {
				rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/cache/blood_banks/search", nil))
				assert.JSONEq(t, `{"found":false,"items":[]}`, rr.Body.String())
			})
			testutil.And(t, "so are the donor's records", func(t *testing.T) {
				rr := testutil.DoRequest(router, httptest.NewRequest(http.MethodGet, "/offline/profile/d-1", nil))
				assert.Equal(t, http.StatusNotFound, rr.Code)
			})
		})
	})
}

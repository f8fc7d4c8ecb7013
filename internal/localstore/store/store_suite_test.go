package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/suite"

	"bloodbridge/internal/localstore"
	"bloodbridge/internal/localstore/models"
)

// storeSuite runs the LocalStore contract against any implementation.
type storeSuite struct {
	suite.Suite
	ctx      context.Context
	newStore func() localstore.Store
	store    localstore.Store
}

func (s *storeSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = s.newStore()
}

func (s *storeSuite) TestProfile() {
	s.Run("missing profile is not an error", func() {
		_, found, err := s.store.GetProfile(s.ctx, "user-unknown")
		s.Require().NoError(err)
		s.False(found)
	})

	s.Run("save overwrites wholesale", func() {
		s.Require().NoError(s.store.SaveProfile(s.ctx, "user-1", json.RawMessage(`{"bloodType":"O-","city":"Lyon"}`)))
		s.Require().NoError(s.store.SaveProfile(s.ctx, "user-1", json.RawMessage(`{"bloodType":"O-"}`)))

		rec, found, err := s.store.GetProfile(s.ctx, "user-1")
		s.Require().NoError(err)
		s.True(found)
		s.Equal("user-1", rec.UserID)
		s.JSONEq(`{"bloodType":"O-"}`, string(rec.Data))
		s.False(rec.CachedAt.IsZero())
	})
}

func (s *storeSuite) TestDonationsIndexedByUser() {
	s.Require().NoError(s.store.SaveDonations(s.ctx, "user-1", []models.DonationRecord{
		{ID: "don-2", Data: json.RawMessage(`{"units":1}`)},
		{ID: "don-1", Data: json.RawMessage(`{"units":2}`)},
	}))
	s.Require().NoError(s.store.SaveDonations(s.ctx, "user-2", []models.DonationRecord{
		{ID: "don-3", Data: json.RawMessage(`{"units":1}`)},
	}))
	// upsert replaces an existing record
	s.Require().NoError(s.store.SaveDonations(s.ctx, "user-1", []models.DonationRecord{
		{ID: "don-2", Data: json.RawMessage(`{"units":3}`)},
	}))

	got, err := s.store.GetDonations(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("don-1", got[0].ID)
	s.Equal("don-2", got[1].ID)
	s.JSONEq(`{"units":3}`, string(got[1].Data))

	none, err := s.store.GetDonations(s.ctx, "user-9")
	s.Require().NoError(err)
	s.NotNil(none)
	s.Empty(none)
}

func (s *storeSuite) TestEmergencies() {
	s.Require().NoError(s.store.SaveEmergencies(s.ctx, []models.EmergencyRecord{
		{ID: "em-1", Data: json.RawMessage(`{"bloodType":"AB+"}`)},
		{ID: "em-2", Data: json.RawMessage(`{"bloodType":"O-"}`)},
	}))

	got, err := s.store.GetEmergencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal("em-1", got[0].ID)
}

func (s *storeSuite) TestSyncQueueFIFO() {
	first, err := s.store.AddToSyncQueue(s.ctx, models.MutationDonation, json.RawMessage(`{"n":1}`))
	s.Require().NoError(err)
	second, err := s.store.AddToSyncQueue(s.ctx, models.MutationProfileUpdate, json.RawMessage(`{"n":2}`))
	s.Require().NoError(err)
	third, err := s.store.AddToSyncQueue(s.ctx, models.MutationEmergencyResponse, json.RawMessage(`{"n":3}`))
	s.Require().NoError(err)
	s.Less(first, second)
	s.Less(second, third)

	items, err := s.store.GetSyncQueue(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 3)
	s.Equal([]int64{first, second, third}, []int64{items[0].ID, items[1].ID, items[2].ID})
	s.Equal(models.MutationProfileUpdate, items[1].Kind)
	s.Equal(models.SyncStatusPending, items[1].Status)
	s.NotEmpty(items[1].IdempotencyKey)
	s.False(items[2].Timestamp.Before(items[0].Timestamp))
	s.JSONEq(`{"n":2}`, string(items[1].Data))
}

func (s *storeSuite) TestSyncQueueRejectsUnknownKind() {
	_, err := s.store.AddToSyncQueue(s.ctx, models.MutationKind("badge_unlock"), json.RawMessage(`{}`))
	s.Error(err)
}

func (s *storeSuite) TestCompleteSyncItemIsIdempotent() {
	id, err := s.store.AddToSyncQueue(s.ctx, models.MutationDonation, json.RawMessage(`{}`))
	s.Require().NoError(err)
	_, err = s.store.AddToSyncQueue(s.ctx, models.MutationDonation, json.RawMessage(`{}`))
	s.Require().NoError(err)

	s.Require().NoError(s.store.CompleteSyncItem(s.ctx, id))
	items, err := s.store.GetSyncQueue(s.ctx)
	s.Require().NoError(err)
	s.Len(items, 1)

	s.Require().NoError(s.store.CompleteSyncItem(s.ctx, id))
	items, err = s.store.GetSyncQueue(s.ctx)
	s.Require().NoError(err)
	s.Len(items, 1)
}

func (s *storeSuite) TestClearAndStats() {
	s.Require().NoError(s.store.SaveProfile(s.ctx, "user-1", json.RawMessage(`{}`)))
	s.Require().NoError(s.store.SaveDonations(s.ctx, "user-1", []models.DonationRecord{{ID: "don-1", Data: json.RawMessage(`{}`)}}))
	s.Require().NoError(s.store.SaveEmergencies(s.ctx, []models.EmergencyRecord{{ID: "em-1", Data: json.RawMessage(`{}`)}}))
	_, err := s.store.AddToSyncQueue(s.ctx, models.MutationDonationCompletion, json.RawMessage(`{}`))
	s.Require().NoError(err)

	stats, err := s.store.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Stats{Profiles: 1, Donations: 1, Emergencies: 1, SyncQueue: 1}, stats)

	s.Require().NoError(s.store.ClearSyncQueue(s.ctx))
	stats, err = s.store.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(0, stats.SyncQueue)
	s.Equal(1, stats.Profiles)

	s.Require().NoError(s.store.ClearAll(s.ctx))
	stats, err = s.store.GetStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(models.Stats{}, stats)
}

func (s *storeSuite) TestMissingPayloadStoredAsEmptyObject() {
	s.Require().NoError(s.store.SaveProfile(s.ctx, "user-1", nil))
	s.Require().NoError(s.store.SaveDonations(s.ctx, "user-1", []models.DonationRecord{{ID: "don-1"}}))
	s.Require().NoError(s.store.SaveEmergencies(s.ctx, []models.EmergencyRecord{{ID: "em-1"}}))
	_, err := s.store.AddToSyncQueue(s.ctx, models.MutationDonation, nil)
	s.Require().NoError(err)

	profile, found, err := s.store.GetProfile(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().True(found)
	s.JSONEq(`{}`, string(profile.Data))

	donations, err := s.store.GetDonations(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Require().Len(donations, 1)
	s.JSONEq(`{}`, string(donations[0].Data))

	emergencies, err := s.store.GetEmergencies(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(emergencies, 1)
	s.JSONEq(`{}`, string(emergencies[0].Data))

	items, err := s.store.GetSyncQueue(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.JSONEq(`{}`, string(items[0].Data))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

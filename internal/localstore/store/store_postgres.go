package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"bloodbridge/internal/localstore/models"
	"bloodbridge/pkg/platform/sentinel"
	"bloodbridge/pkg/platform/tx"
)

// PostgresStore persists the local store in PostgreSQL. Run Migrate before use.
type PostgresStore struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a PostgresStore.
type PostgresOption func(*PostgresStore)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *PostgresStore) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *PostgresStore {
	s := &PostgresStore{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

func (s *PostgresStore) SaveProfile(ctx context.Context, userID string, data json.RawMessage) error {
	query := `
		INSERT INTO profiles (user_id, data, cached_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET
			data = EXCLUDED.data,
			cached_at = EXCLUDED.cached_at
	`
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, userID, []byte(payloadOrEmpty(data)), s.clock()); err != nil {
		return unavailable("save profile", err)
	}
	return nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (models.ProfileRecord, bool, error) {
	rec := models.ProfileRecord{UserID: userID}
	var data []byte
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx,
		`SELECT data, cached_at FROM profiles WHERE user_id = $1`, userID,
	).Scan(&data, &rec.CachedAt)
	if err == sql.ErrNoRows {
		return models.ProfileRecord{}, false, nil
	}
	if err != nil {
		return models.ProfileRecord{}, false, unavailable("get profile", err)
	}
	rec.Data = data
	return rec, true, nil
}

// SaveDonations upserts the batch with one statement using unnest.
func (s *PostgresStore) SaveDonations(ctx context.Context, userID string, records []models.DonationRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids, payloads := make([]string, len(records)), make([]string, len(records))
	for i, r := range records {
		ids[i], payloads[i] = r.ID, string(payloadOrEmpty(r.Data))
	}
	query := `
		INSERT INTO donations (id, user_id, data, cached_at)
		SELECT d.id, $1, d.data::jsonb, $4
		FROM unnest($2::text[], $3::text[]) AS d(id, data)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id,
			data = EXCLUDED.data,
			cached_at = EXCLUDED.cached_at
	`
	_, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, userID, pq.Array(ids), pq.Array(payloads), s.clock())
	if err != nil {
		return unavailable("save donations", err)
	}
	return nil
}

func (s *PostgresStore) GetDonations(ctx context.Context, userID string) ([]models.DonationRecord, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT id, user_id, data, cached_at FROM donations WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, unavailable("get donations", err)
	}
	defer rows.Close()

	out := make([]models.DonationRecord, 0)
	for rows.Next() {
		var r models.DonationRecord
		var data []byte
		if err := rows.Scan(&r.ID, &r.UserID, &data, &r.CachedAt); err != nil {
			return nil, unavailable("scan donation", err)
		}
		r.Data = data
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate donations", err)
	}
	return out, nil
}

func (s *PostgresStore) SaveEmergencies(ctx context.Context, records []models.EmergencyRecord) error {
	if len(records) == 0 {
		return nil
	}
	ids, payloads := make([]string, len(records)), make([]string, len(records))
	for i, r := range records {
		ids[i], payloads[i] = r.ID, string(payloadOrEmpty(r.Data))
	}
	query := `
		INSERT INTO emergencies (id, data, cached_at)
		SELECT e.id, e.data::jsonb, $3
		FROM unnest($1::text[], $2::text[]) AS e(id, data)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			cached_at = EXCLUDED.cached_at
	`
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, query, pq.Array(ids), pq.Array(payloads), s.clock()); err != nil {
		return unavailable("save emergencies", err)
	}
	return nil
}

func (s *PostgresStore) GetEmergencies(ctx context.Context) ([]models.EmergencyRecord, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx,
		`SELECT id, data, cached_at FROM emergencies ORDER BY id`)
	if err != nil {
		return nil, unavailable("get emergencies", err)
	}
	defer rows.Close()

	out := make([]models.EmergencyRecord, 0)
	for rows.Next() {
		var r models.EmergencyRecord
		var data []byte
		if err := rows.Scan(&r.ID, &data, &r.CachedAt); err != nil {
			return nil, unavailable("scan emergency", err)
		}
		r.Data = data
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate emergencies", err)
	}
	return out, nil
}

// AddToSyncQueue returns only after the INSERT has committed.
func (s *PostgresStore) AddToSyncQueue(ctx context.Context, kind models.MutationKind, payload json.RawMessage) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("enqueue %q: %w", kind, sentinel.ErrInvalidState)
	}
	var id int64
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO sync_queue (kind, data, created_at, status, idempotency_key)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, string(kind), []byte(payloadOrEmpty(payload)), s.clock().UTC(), string(models.SyncStatusPending), uuid.NewString()).Scan(&id)
	if err != nil {
		return 0, unavailable("enqueue sync item", err)
	}
	return id, nil
}

func (s *PostgresStore) GetSyncQueue(ctx context.Context) ([]models.SyncQueueItem, error) {
	rows, err := tx.Exec(ctx, s.db).QueryContext(ctx, `
		SELECT id, kind, data, created_at, status, idempotency_key
		FROM sync_queue
		WHERE status = $1
		ORDER BY id
	`, string(models.SyncStatusPending))
	if err != nil {
		return nil, unavailable("get sync queue", err)
	}
	defer rows.Close()

	out := make([]models.SyncQueueItem, 0)
	for rows.Next() {
		var item models.SyncQueueItem
		var kind, status string
		var data []byte
		if err := rows.Scan(&item.ID, &kind, &data, &item.Timestamp, &status, &item.IdempotencyKey); err != nil {
			return nil, unavailable("scan sync item", err)
		}
		item.Kind = models.MutationKind(kind)
		item.Status = models.SyncStatus(status)
		item.Data = data
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("iterate sync queue", err)
	}
	return out, nil
}

func (s *PostgresStore) CompleteSyncItem(ctx context.Context, id int64) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM sync_queue WHERE id = $1`, id); err != nil {
		return unavailable("complete sync item", err)
	}
	return nil
}

func (s *PostgresStore) ClearSyncQueue(ctx context.Context) error {
	if _, err := tx.Exec(ctx, s.db).ExecContext(ctx, `DELETE FROM sync_queue`); err != nil {
		return unavailable("clear sync queue", err)
	}
	return nil
}

// ClearAll empties every collection in one transaction.
func (s *PostgresStore) ClearAll(ctx context.Context) error {
	return tx.Run(ctx, s.db, func(ctx context.Context) error {
		exec := tx.Exec(ctx, s.db)
		for _, table := range []string{"profiles", "donations", "emergencies", "sync_queue"} {
			if _, err := exec.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return unavailable("clear "+table, err)
			}
		}
		return nil
	})
}

func (s *PostgresStore) GetStats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	err := tx.Exec(ctx, s.db).QueryRowContext(ctx, `
		SELECT
			(SELECT count(*) FROM profiles),
			(SELECT count(*) FROM donations),
			(SELECT count(*) FROM emergencies),
			(SELECT count(*) FROM sync_queue WHERE status = 'pending')
	`).Scan(&st.Profiles, &st.Donations, &st.Emergencies, &st.SyncQueue)
	if err != nil {
		return models.Stats{}, unavailable("get stats", err)
	}
	return st, nil
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, sentinel.ErrStorageUnavailable, err)
}

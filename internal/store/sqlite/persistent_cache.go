package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"reelsense/models"
	"reelsense/services/scheduler"
)

var _ scheduler.PersistentCache = (*CacheRepository)(nil)

// CacheRepository implements scheduler.PersistentCache against the
// scheduled_cache table, point-keyed by cacheKey with a secondary index on
// (content_id, content_type) per §6.
type CacheRepository struct {
	db *sql.DB
}

// NewCacheRepository builds a CacheRepository over conn.
func NewCacheRepository(conn *sql.DB) *CacheRepository {
	return &CacheRepository{db: conn}
}

// Put writes a single item, upserting on cacheKey.
func (r *CacheRepository) Put(ctx context.Context, item models.ScheduledCacheItem) error {
	payload, err := json.Marshal(item.Candidate)
	if err != nil {
		return fmt.Errorf("encode candidate: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO scheduled_cache (cache_key, content_id, content_type, category, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`,
		item.CacheKey, item.ContentID, string(item.ContentType), item.Category, string(payload),
		item.FetchedAt.Unix(), item.ExpiresAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert scheduled cache item: %w", err)
	}
	return nil
}

// PutBatch writes up to 25 items in a single transaction (§6: "batch writes
// up to 25 items"). Callers are expected to have already chunked the slice;
// this still enforces the cap defensively.
func (r *CacheRepository) PutBatch(ctx context.Context, items []models.ScheduledCacheItem) error {
	const maxBatch = 25
	if len(items) > maxBatch {
		items = items[:maxBatch]
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO scheduled_cache (cache_key, content_id, content_type, category, payload, fetched_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(cache_key) DO UPDATE SET
			payload = excluded.payload, fetched_at = excluded.fetched_at, expires_at = excluded.expires_at`)
	if err != nil {
		return fmt.Errorf("prepare batch insert: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		payload, err := json.Marshal(item.Candidate)
		if err != nil {
			return fmt.Errorf("encode candidate %s: %w", item.CacheKey, err)
		}
		if _, err := stmt.ExecContext(ctx, item.CacheKey, item.ContentID, string(item.ContentType), item.Category,
			string(payload), item.FetchedAt.Unix(), item.ExpiresAt.Unix()); err != nil {
			return fmt.Errorf("insert %s: %w", item.CacheKey, err)
		}
	}

	return tx.Commit()
}

// Get reads a single item by its point key, nil if absent or expired.
func (r *CacheRepository) Get(ctx context.Context, cacheKey string) (*models.ScheduledCacheItem, error) {
	return r.scanOne(ctx, `SELECT cache_key, content_id, content_type, category, payload, fetched_at, expires_at
		FROM scheduled_cache WHERE cache_key = ?`, cacheKey)
}

// GetByContentID is the secondary access path named in §6: point lookup by
// (contentId, contentType), most-recently-fetched row first.
func (r *CacheRepository) GetByContentID(ctx context.Context, contentType, contentID string) (*models.ScheduledCacheItem, error) {
	return r.scanOne(ctx, `SELECT cache_key, content_id, content_type, category, payload, fetched_at, expires_at
		FROM scheduled_cache WHERE content_id = ? AND content_type = ? ORDER BY fetched_at DESC LIMIT 1`,
		contentID, contentType)
}

func (r *CacheRepository) scanOne(ctx context.Context, query string, args ...any) (*models.ScheduledCacheItem, error) {
	var (
		item           models.ScheduledCacheItem
		contentType    string
		payload        string
		fetchedAtEpoch int64
		expiresAtEpoch int64
	)
	row := r.db.QueryRowContext(ctx, query, args...)
	err := row.Scan(&item.CacheKey, &item.ContentID, &contentType, &item.Category, &payload, &fetchedAtEpoch, &expiresAtEpoch)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan scheduled cache item: %w", err)
	}
	if err := json.Unmarshal([]byte(payload), &item.Candidate); err != nil {
		return nil, fmt.Errorf("decode candidate: %w", err)
	}
	item.ContentType = models.MediaType(contentType)
	item.FetchedAt = time.Unix(fetchedAtEpoch, 0).UTC()
	item.ExpiresAt = time.Unix(expiresAtEpoch, 0).UTC()

	if time.Now().After(item.ExpiresAt) {
		return nil, nil
	}
	return &item, nil
}

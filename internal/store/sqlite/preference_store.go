package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"reelsense/models"
	"reelsense/services/preferences"
)

var _ preferences.PreferenceStore = (*PreferenceRepository)(nil)

// PreferenceRepository implements preferences.PreferenceStore against the
// sqlite schema: one JSON payload column per user per table.
type PreferenceRepository struct {
	db *sql.DB
}

// NewPreferenceRepository builds a PreferenceRepository over conn.
func NewPreferenceRepository(conn *sql.DB) *PreferenceRepository {
	return &PreferenceRepository{db: conn}
}

// GetPreferences returns the zero value, not an error, when no row exists —
// matching §4.4's "never returns an error for the adapter" caller contract
// at the one layer where a store failure still must distinguish
// "nothing saved yet" from "the query failed".
func (r *PreferenceRepository) GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM preferences WHERE user_id = ?`, userID).Scan(&payload)
	if err == sql.ErrNoRows {
		return models.UserPreferences{}, nil
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("query preferences: %w", err)
	}
	var prefs models.UserPreferences
	if err := json.Unmarshal([]byte(payload), &prefs); err != nil {
		return models.UserPreferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return prefs, nil
}

// PutPreferences upserts a user's preference record.
func (r *PreferenceRepository) PutPreferences(ctx context.Context, userID string, prefs models.UserPreferences) error {
	payload, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO preferences (user_id, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		userID, string(payload), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("upsert preferences: %w", err)
	}
	return nil
}

func (r *PreferenceRepository) GetFavorites(ctx context.Context, userID string) ([]models.FavoriteItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM favorites WHERE user_id = ? ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query favorites: %w", err)
	}
	defer rows.Close()

	var out []models.FavoriteItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan favorite: %w", err)
		}
		var item models.FavoriteItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode favorite: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PreferenceRepository) PutFavorite(ctx context.Context, userID string, item models.FavoriteItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode favorite: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO favorites (user_id, media_id, media_type, payload, added_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, media_id, media_type) DO UPDATE SET payload = excluded.payload`,
		userID, item.MediaID, string(item.MediaType), string(payload), item.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert favorite: %w", err)
	}
	return nil
}

func (r *PreferenceRepository) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT payload FROM watchlist WHERE user_id = ? ORDER BY added_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("query watchlist: %w", err)
	}
	defer rows.Close()

	var out []models.WatchlistItem
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan watchlist item: %w", err)
		}
		var item models.WatchlistItem
		if err := json.Unmarshal([]byte(payload), &item); err != nil {
			return nil, fmt.Errorf("decode watchlist item: %w", err)
		}
		out = append(out, item)
	}
	return out, rows.Err()
}

func (r *PreferenceRepository) PutWatchlistItem(ctx context.Context, userID string, item models.WatchlistItem) error {
	payload, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode watchlist item: %w", err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO watchlist (user_id, media_id, media_type, payload, added_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, media_id, media_type) DO UPDATE SET payload = excluded.payload`,
		userID, item.MediaID, string(item.MediaType), string(payload), item.AddedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert watchlist item: %w", err)
	}
	return nil
}

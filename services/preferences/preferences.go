// Package preferences implements the read-only Preference Store Adapter
// (§4.4): a parallel-read bundle of a user's preferences, favorites, and
// watchlist, degrading to partial results on individual store failures.
package preferences

import (
	"context"
	"log"
	"sync"

	"reelsense/models"
)

// PreferenceStore is the read-only external collaborator this adapter
// wraps. Each method is a point read; the store is out of scope (spec.md
// §1), so this interface is the entirety of the contract this module owns.
type PreferenceStore interface {
	GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error)
	GetFavorites(ctx context.Context, userID string) ([]models.FavoriteItem, error)
	GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error)
}

// Adapter issues the three PreferenceStore reads in parallel and assembles
// a PreferenceBundle, substituting empty collections for any read that fails.
type Adapter struct {
	store PreferenceStore
}

// NewAdapter builds an Adapter over the given store.
func NewAdapter(store PreferenceStore) *Adapter {
	return &Adapter{store: store}
}

// LoadUserBundle loads preferences, favorites, and watchlist for userID
// (§4.4). It never returns an error: a failing individual read is logged
// at warning level and contributes its zero value instead.
func (a *Adapter) LoadUserBundle(ctx context.Context, userID string) models.PreferenceBundle {
	var (
		wg        sync.WaitGroup
		bundle    models.PreferenceBundle
	)
	wg.Add(3)

	go func() {
		defer wg.Done()
		prefs, err := a.store.GetPreferences(ctx, userID)
		if err != nil {
			log.Printf("[preferences] WARNING: GetPreferences(%s) failed: %v", userID, err)
			return
		}
		bundle.Preferences = prefs
	}()

	go func() {
		defer wg.Done()
		favs, err := a.store.GetFavorites(ctx, userID)
		if err != nil {
			log.Printf("[preferences] WARNING: GetFavorites(%s) failed: %v", userID, err)
			return
		}
		bundle.Favorites = favs
	}()

	go func() {
		defer wg.Done()
		wl, err := a.store.GetWatchlist(ctx, userID)
		if err != nil {
			log.Printf("[preferences] WARNING: GetWatchlist(%s) failed: %v", userID, err)
			return
		}
		bundle.Watchlist = wl
	}()

	wg.Wait()
	return bundle
}

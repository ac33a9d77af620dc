package preferences

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"reelsense/models"
)

type fakeStore struct {
	prefs    models.UserPreferences
	prefsErr error
	favs     []models.FavoriteItem
	favsErr  error
	wl       []models.WatchlistItem
	wlErr    error
}

func (f fakeStore) GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error) {
	return f.prefs, f.prefsErr
}
func (f fakeStore) GetFavorites(ctx context.Context, userID string) ([]models.FavoriteItem, error) {
	return f.favs, f.favsErr
}
func (f fakeStore) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return f.wl, f.wlErr
}

func TestLoadUserBundleHappyPath(t *testing.T) {
	store := fakeStore{
		prefs: models.UserPreferences{UserID: "u1"},
		favs:  []models.FavoriteItem{{MediaID: "1"}},
		wl:    []models.WatchlistItem{{MediaID: "2"}},
	}
	b := NewAdapter(store).LoadUserBundle(context.Background(), "u1")
	require.Equal(t, "u1", b.Preferences.UserID)
	require.Len(t, b.Favorites, 1)
	require.Len(t, b.Watchlist, 1)
}

func TestLoadUserBundlePartialFailure(t *testing.T) {
	store := fakeStore{
		prefs:   models.UserPreferences{UserID: "u1"},
		favsErr: errors.New("store unavailable"),
		wl:      []models.WatchlistItem{{MediaID: "2"}},
	}
	b := NewAdapter(store).LoadUserBundle(context.Background(), "u1")
	require.Equal(t, "u1", b.Preferences.UserID)
	require.Empty(t, b.Favorites, "a failing read should degrade to an empty collection, not abort the bundle")
	require.Len(t, b.Watchlist, 1)
}

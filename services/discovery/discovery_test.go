package discovery

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"reelsense/models"
)

type fakeSource struct {
	popular func(mediaType string, page int) []models.Candidate
}

func (f fakeSource) Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	if f.popular != nil {
		return f.popular(mediaType, page), nil
	}
	return nil, nil
}
func (f fakeSource) Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (f fakeSource) DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error) {
	return []models.Candidate{{ID: fmt.Sprintf("genre-%d-%s-%d", genreID, mediaType, page), MediaType: models.MediaType(mediaType)}}, nil
}
func (f fakeSource) DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (f fakeSource) DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (f fakeSource) SearchFirst(ctx context.Context, mediaType, query string) (models.Candidate, bool, error) {
	return models.Candidate{}, false, nil
}
func (f fakeSource) Similar(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	return nil, nil
}
func (f fakeSource) Recommendations(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	return nil, nil
}

func TestDiscoverPopularFallbackAlways(t *testing.T) {
	calls := 0
	src := fakeSource{popular: func(mediaType string, page int) []models.Candidate {
		calls++
		return []models.Candidate{{ID: fmt.Sprintf("%s-%d", mediaType, page), MediaType: models.MediaType(mediaType)}}
	}}
	got := NewDiscoverer(src).Discover(context.Background(), "movie", models.UserPreferences{}, nil, nil)
	require.NotEmpty(t, got)
	require.Greater(t, calls, 0)
}

func TestDiscoverDeduplicatesByID(t *testing.T) {
	src := fakeSource{popular: func(mediaType string, page int) []models.Candidate {
		return []models.Candidate{{ID: "dup", MediaType: models.MediaType(mediaType)}}
	}}
	got := NewDiscoverer(src).Discover(context.Background(), "movie", models.UserPreferences{}, nil, nil)
	count := 0
	for _, c := range got {
		if c.ID == "dup" {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestDiscoverExcludesIDsBeforeInsertion(t *testing.T) {
	src := fakeSource{popular: func(mediaType string, page int) []models.Candidate {
		return []models.Candidate{{ID: "excluded"}, {ID: "kept"}}
	}}
	got := NewDiscoverer(src).Discover(context.Background(), "movie", models.UserPreferences{}, nil, map[string]bool{"excluded": true})
	for _, c := range got {
		require.NotEqual(t, "excluded", c.ID)
	}
}

func TestDiscoverGenreStrategyTriggersOnRatings(t *testing.T) {
	src := fakeSource{}
	prefs := models.UserPreferences{GenreRatings: map[int]int{28: 9, 18: 5}}
	got := NewDiscoverer(src).Discover(context.Background(), "movie", prefs, nil, nil)
	found := false
	for _, c := range got {
		if c.ID == "genre-28-movie-1" {
			found = true
		}
	}
	require.True(t, found, "top rated genre 28 should have been queried")
}

func TestDiscoverBothExpandsMediaTypes(t *testing.T) {
	seen := map[string]bool{}
	src := fakeSource{popular: func(mediaType string, page int) []models.Candidate {
		return []models.Candidate{{ID: mediaType + "-item", MediaType: models.MediaType(mediaType)}}
	}}
	got := NewDiscoverer(src).Discover(context.Background(), "both", models.UserPreferences{}, nil, nil)
	for _, c := range got {
		seen[string(c.MediaType)] = true
	}
	require.True(t, seen["movie"])
	require.True(t, seen["tv"])
}

func TestParseExcludeIDsCanonicalizesNumericStrings(t *testing.T) {
	set := ParseExcludeIDs([]string{"27205", "abc", ""})
	require.True(t, set["27205"])
	require.True(t, set["abc"])
	require.False(t, set[""])
	require.Len(t, set, 2)
}

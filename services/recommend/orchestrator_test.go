package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"reelsense/models"
	"reelsense/services/discovery"
	"reelsense/services/dna"
	"reelsense/services/enrichment"
	"reelsense/services/preferences"
	"reelsense/services/scoring"
	"reelsense/services/semantic"
)

type fakeStore struct{}

func (fakeStore) GetPreferences(ctx context.Context, userID string) (models.UserPreferences, error) {
	return models.UserPreferences{}, nil
}
func (fakeStore) GetFavorites(ctx context.Context, userID string) ([]models.FavoriteItem, error) {
	return nil, nil
}
func (fakeStore) GetWatchlist(ctx context.Context, userID string) ([]models.WatchlistItem, error) {
	return nil, nil
}

type fakeSource struct{}

func (fakeSource) Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	if page > 1 {
		return nil, nil
	}
	return []models.Candidate{
		{ID: "1", MediaType: models.MediaType(mediaType), Title: "One", VoteAverage: 7, VoteCount: 100, Genres: []int{28}},
		{ID: "2", MediaType: models.MediaType(mediaType), Title: "Two", VoteAverage: 8, VoteCount: 200, Genres: []int{18}},
		{ID: "3", MediaType: models.MediaType(mediaType), Title: "Three", VoteAverage: 6, VoteCount: 50, Genres: []int{35}},
	}, nil
}
func (fakeSource) Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (fakeSource) DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (fakeSource) DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (fakeSource) DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return nil, nil
}
func (fakeSource) SearchFirst(ctx context.Context, mediaType, query string) (models.Candidate, bool, error) {
	return models.Candidate{}, false, nil
}
func (fakeSource) Similar(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	return nil, nil
}
func (fakeSource) Recommendations(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	return nil, nil
}

func newTestOrchestrator() *Orchestrator {
	prefsAdapter := preferences.NewAdapter(fakeStore{})
	source := fakeSource{}
	discoverer := discovery.NewDiscoverer(source)
	enricher := enrichment.NewEnricher(fakeDetailer{})
	dnaAnalyzer := dna.NewAnalyzer(fakeDetailer{})
	scorer := scoring.NewEngine(semantic.NewTokenOverlapScorer())
	return NewOrchestrator(prefsAdapter, dnaAnalyzer, discoverer, enricher, scorer)
}

type fakeDetailer struct{}

func (fakeDetailer) Detail(ctx context.Context, mediaType, id string) (models.Candidate, error) {
	return models.Candidate{}, context.DeadlineExceeded
}

func TestRecommendHonorsExclusion(t *testing.T) {
	o := newTestOrchestrator()
	resp := o.Recommend(context.Background(), Request{UserID: "u1", MediaType: "movie", Limit: 3, ExcludeIDs: []string{"1"}})
	for _, item := range resp.Items {
		require.NotEqual(t, "1", item.MediaID)
	}
}

func TestRecommendBoundsItemsToLimit(t *testing.T) {
	o := newTestOrchestrator()
	resp := o.Recommend(context.Background(), Request{UserID: "u1", MediaType: "movie", Limit: 2})
	require.LessOrEqual(t, len(resp.Items), 2)
}

func TestRecommendFallsBackToPopularWithEmptyPreferences(t *testing.T) {
	o := newTestOrchestrator()
	resp := o.Recommend(context.Background(), Request{UserID: "u1", MediaType: "movie", Limit: 3})
	require.NotEmpty(t, resp.Items)
	require.Equal(t, models.SourcePersonalizedLambda, resp.Source)
}

func TestRecommendUsesPostSourceForInlinePreferences(t *testing.T) {
	o := newTestOrchestrator()
	prefs := models.UserPreferences{GenreRatings: map[int]int{28: 9}}
	resp := o.Recommend(context.Background(), Request{UserID: "u1", MediaType: "movie", Limit: 3, InlinePreferences: &prefs})
	require.Equal(t, models.SourcePersonalizedLambdaPost, resp.Source)
}

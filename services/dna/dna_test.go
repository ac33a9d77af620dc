package dna

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"reelsense/models"
)

type fakeDetailer struct {
	result models.Candidate
	err    error
}

func (f fakeDetailer) Detail(ctx context.Context, mediaType, id string) (models.Candidate, error) {
	return f.result, f.err
}

func TestAnalyzeEmptyFavoritesYieldsEmptyDNA(t *testing.T) {
	got := NewAnalyzer(fakeDetailer{}).Analyze(context.Background(), nil)
	require.Empty(t, got.PreferredActors)
	require.Empty(t, got.PreferredDirectors)
	require.Empty(t, got.GenreDistribution)
	require.Empty(t, got.DecadePreferences)
}

func TestAnalyzeEnrichesAndWeightsByAge(t *testing.T) {
	addedAt := time.Now().Add(-7 * 24 * time.Hour)
	va := 8.5
	favorites := []models.FavoriteItem{
		{MediaID: "1", MediaType: models.MediaMovie, AddedAt: addedAt, VoteAverage: &va,
			Cast: []models.Person{{Name: "Actor X"}}, Genres: []int{28}, ReleaseDate: "1999-10-15"},
	}

	dna := NewAnalyzer(fakeDetailer{}).Analyze(context.Background(), favorites)

	require.Len(t, dna.PreferredActors, 1)
	require.Equal(t, "Actor X", dna.PreferredActors[0].Name)
	// exp(-7/60) ~= 0.8913
	require.InDelta(t, 0.89, dna.PreferredActors[0].Frequency, 0.01)
	require.InDelta(t, 0.89, dna.GenreDistribution[28], 0.01)
	require.InDelta(t, 0.89, dna.DecadePreferences[1990], 0.01)
	require.Equal(t, 1, dna.RatingPatterns.Count)
	require.Equal(t, 8.5, dna.RatingPatterns.Average)
}

func TestAnalyzeEnrichesMissingFavorites(t *testing.T) {
	favorites := []models.FavoriteItem{
		{MediaID: "2", MediaType: models.MediaMovie, AddedAt: time.Now()},
	}
	detailer := fakeDetailer{result: models.Candidate{
		Genres:      []int{18},
		Cast:        []models.Person{{Name: "Someone"}},
		Crew:        []models.Person{{Name: "A Director", Job: "Director"}},
		VoteAverage: 7.0,
		ReleaseDate: "2005-01-01",
	}}
	dna := NewAnalyzer(detailer).Analyze(context.Background(), favorites)
	require.NotEmpty(t, dna.PreferredActors)
	require.NotEmpty(t, dna.PreferredDirectors)
	require.NotZero(t, dna.GenreDistribution[18])
	require.NotZero(t, dna.DecadePreferences[2000])
}

func TestAnalyzeRanksByDescendingFrequencyLimitedTo10(t *testing.T) {
	var favorites []models.FavoriteItem
	for i := 0; i < 12; i++ {
		favorites = append(favorites, models.FavoriteItem{
			MediaID: string(rune('a' + i)), MediaType: models.MediaMovie, AddedAt: time.Now(),
			Cast: []models.Person{{Name: string(rune('A' + i))}}, Genres: []int{18},
		})
	}
	dna := NewAnalyzer(fakeDetailer{}).Analyze(context.Background(), favorites)
	require.Len(t, dna.PreferredActors, 10)
}

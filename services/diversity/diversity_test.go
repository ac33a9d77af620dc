package diversity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"reelsense/models"
)

func candidate(id string, genre int, score float64) models.ScoredCandidate {
	return models.ScoredCandidate{
		Candidate: models.Candidate{ID: id, Genres: []int{genre}, ReleaseDate: "2020-01-01"},
		Score:     score,
	}
}

func TestSelectPreservesScoreOrder(t *testing.T) {
	in := []models.ScoredCandidate{
		candidate("1", 28, 90),
		candidate("2", 18, 80),
		candidate("3", 35, 70),
	}
	out := Select(in, 3)
	require.Equal(t, []string{"1", "2", "3"}, idsOf(out))
}

func TestSelectSpreadsPrimaryGenreAcrossFirstSlots(t *testing.T) {
	in := []models.ScoredCandidate{
		candidate("1", 28, 95),
		candidate("2", 28, 94),
		candidate("3", 28, 93),
		candidate("4", 28, 92),
		candidate("5", 28, 91),
		candidate("6", 18, 90),
		candidate("7", 35, 89),
		candidate("8", 35, 88),
	}
	out := Select(in, 6)
	require.Len(t, out, 6)

	genres := map[int]bool{}
	for _, c := range out[:4] {
		genres[c.Genres[0]] = true
	}
	require.GreaterOrEqual(t, len(genres), 2)
}

func TestSelectFillsRemainingSlotsByScoreWhenDiversityExhausted(t *testing.T) {
	in := []models.ScoredCandidate{
		candidate("1", 28, 90),
		candidate("2", 18, 80),
		candidate("3", 35, 70),
	}
	out := Select(in, 3)
	require.Len(t, out, 3)
}

func TestSelectReturnsEmptyForZeroLimit(t *testing.T) {
	require.Empty(t, Select([]models.ScoredCandidate{candidate("1", 28, 10)}, 0))
}

func idsOf(cs []models.ScoredCandidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

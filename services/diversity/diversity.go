// Package diversity implements the Diversity Selector (§4.9): a greedy pass
// over score-sorted candidates that spreads primary genre and release-decade
// coverage before filling remaining slots by score alone.
package diversity

import "reelsense/models"

const earlyPassFraction = 0.7

// Select picks limit items from candidates, which must already be sorted by
// descending score (ties broken by discovery insertion order). Output
// preserves that sorted order.
func Select(candidates []models.ScoredCandidate, limit int) []models.ScoredCandidate {
	if limit <= 0 || len(candidates) == 0 {
		return nil
	}

	usedGenres := map[int]bool{}
	usedDecades := map[int]bool{}
	selected := map[int]bool{} // index into candidates

	early := int(float64(limit) * earlyPassFraction)

	for i, c := range candidates {
		if len(selected) >= limit {
			break
		}
		genre, hasGenre := primaryGenre(c)
		decade := c.ReleaseYear() / 10 * 10

		novel := len(selected) < early || (hasGenre && !usedGenres[genre]) || !usedDecades[decade]
		if !novel {
			continue
		}

		selected[i] = true
		if hasGenre {
			usedGenres[genre] = true
		}
		usedDecades[decade] = true
	}

	for i := range candidates {
		if len(selected) >= limit {
			break
		}
		if !selected[i] {
			selected[i] = true
		}
	}

	out := make([]models.ScoredCandidate, 0, limit)
	for i, c := range candidates {
		if selected[i] {
			out = append(out, c)
		}
		if len(out) >= limit {
			break
		}
	}
	return out
}

func primaryGenre(c models.ScoredCandidate) (int, bool) {
	if len(c.Genres) == 0 {
		return 0, false
	}
	return c.Genres[0], true
}

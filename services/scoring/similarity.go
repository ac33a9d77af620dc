package scoring

import "reelsense/models"

// facets is the reduced shape used for pairwise content-similarity (§4.8):
// genre set, cast name set, and director name set.
type facets struct {
	genres    map[int]bool
	cast      map[string]bool
	directors map[string]bool
}

func candidateFacets(c models.Candidate) facets {
	return facets{
		genres:    toGenreSet(c.Genres),
		cast:      toCastSet(c.Cast),
		directors: toDirectorSet(c.Crew),
	}
}

func favoriteFacets(f models.FavoriteItem) facets {
	return facets{
		genres:    toGenreSet(f.Genres),
		cast:      toCastSet(f.Cast),
		directors: toDirectorSet(f.Crew),
	}
}

func watchlistFacets(w models.WatchlistItem) facets {
	return facets{
		genres:    toGenreSet(w.Genres),
		cast:      toCastSet(w.Cast),
		directors: toDirectorSet(w.Crew),
	}
}

func toGenreSet(genres []int) map[int]bool {
	set := make(map[int]bool, len(genres))
	for _, g := range genres {
		set[g] = true
	}
	return set
}

func toCastSet(cast []models.Person) map[string]bool {
	set := make(map[string]bool, len(cast))
	for _, p := range cast {
		set[p.Name] = true
	}
	return set
}

func toDirectorSet(crew []models.Person) map[string]bool {
	set := map[string]bool{}
	for _, p := range crew {
		if p.Job == "Director" {
			set[p.Name] = true
		}
	}
	return set
}

// contentSimilarity is the pairwise formula shared by the similarity and
// watchlist-influence bonuses (§4.8): 0.4 genre Jaccard + 0.3 cast overlap +
// 0.3 flag for any shared director.
func contentSimilarity(a, b facets) float64 {
	genreJaccard := jaccardInt(a.genres, b.genres)
	castOverlap := overlapRatio(a.cast, b.cast)
	sharedDirector := 0.0
	if intersects(a.directors, b.directors) {
		sharedDirector = 1.0
	}
	return 0.4*genreJaccard + 0.3*castOverlap + 0.3*sharedDirector
}

func jaccardInt(a, b map[int]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	inter := 0
	for g := range a {
		if b[g] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

func overlapRatio(a, b map[string]bool) float64 {
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 0
	}
	inter := 0
	for name := range a {
		if b[name] {
			inter++
		}
	}
	return float64(inter) / float64(longest)
}

func intersects(a, b map[string]bool) bool {
	for name := range a {
		if b[name] {
			return true
		}
	}
	return false
}

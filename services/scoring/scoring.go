// Package scoring implements the Scoring Engine (§4.8): a seven-factor
// weighted score with a deal-breaker veto and recommendation-reason
// generation. Score is a pure function of (candidate, preferences, dna,
// favorites, watchlist, semantic backend), per §9's remapping of the original engine
// class into component composition.
package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/dustin/go-humanize"

	"reelsense/models"
	"reelsense/services/semantic"
)

const (
	weightGenre      = 0.35
	weightSemantic   = 0.20
	weightSimilarity = 0.20
	weightContext    = 0.10
	weightDiscovery  = 0.10
	weightQuality    = 0.05

	dealBreakerVeto = -1000.0

	defaultGenreScore  = 50.0
	defaultSemanticVal = 50.0

	qualityBaseline     = 6.0
	qualityShrinkageK   = 25.0
)

// Engine computes scores for candidates. Profanity is proxied by `adult`
// (no upstream content-rating field is consulted); this is a known, open
// proxy per spec design notes, not a bug.
type Engine struct {
	scorer semantic.Scorer
}

// NewEngine builds an Engine around the given semantic similarity backend.
func NewEngine(scorer semantic.Scorer) *Engine {
	return &Engine{scorer: scorer}
}

// Score computes the per-factor breakdown for a single enriched candidate
// (§4.8); Total turns that breakdown into the weighted score. A vetoed
// candidate's breakdown carries only the DealBreaker sentinel. favorites should be the enriched,
// temporally-ordered favorites list (top 10 are used for direct-similarity);
// watchlist should be pre-enriched via dna.Analyzer.EnrichWatchlist.
func (e *Engine) Score(c models.Candidate, prefs models.UserPreferences, dna models.ContentDNA, favorites []models.FavoriteItem, watchlist []models.WatchlistItem) models.ScoreBreakdown {
	if veto := dealBreakerScore(c, prefs); veto != 0 {
		return models.ScoreBreakdown{DealBreaker: veto}
	}

	genreScore := genreFactor(c, prefs)
	semanticScore := e.semanticFactor(c, prefs)
	similarityScore := similarityFactor(c, prefs, dna, favorites, watchlist)
	contextScore := contextFactor(c, prefs)
	discoveryScore := discoveryFactor(c, prefs)
	qualityScore := qualityFactor(c.VoteAverage, c.VoteCount)

	return models.ScoreBreakdown{
		Genre:       genreScore,
		DealBreaker: 0,
		Semantic:    semanticScore,
		Similarity:  similarityScore,
		Context:     contextScore,
		Discovery:   discoveryScore,
		Quality:     qualityScore,
	}
}

// Total combines a breakdown into the final weighted score, applying the
// deal-breaker veto sentinel unconditionally.
func Total(b models.ScoreBreakdown) float64 {
	if b.DealBreaker == dealBreakerVeto {
		return dealBreakerVeto
	}
	return b.Genre*weightGenre + b.Semantic*weightSemantic + b.Similarity*weightSimilarity +
		b.Context*weightContext + b.Discovery*weightDiscovery + b.Quality*weightQuality
}

func dealBreakerScore(c models.Candidate, prefs models.UserPreferences) float64 {
	for _, tag := range prefs.DealBreakers {
		switch tag {
		case models.DealBreakerViolence:
			if hasAnyGenre(c, violenceGenres) && c.VoteAverage > 7 {
				return dealBreakerVeto
			}
		case models.DealBreakerSexualContent, models.DealBreakerProfanity:
			if c.Adult {
				return dealBreakerVeto
			}
		case models.DealBreakerSlowPace:
			if hasAnyGenre(c, slowPaceGenres) && c.Runtime > 150 {
				return dealBreakerVeto
			}
		case models.DealBreakerSubtitles:
			if c.OriginalLanguage != "" && c.OriginalLanguage != "en" {
				return dealBreakerVeto
			}
		}
	}
	return 0
}

func hasAnyGenre(c models.Candidate, set map[int]bool) bool {
	for _, g := range c.Genres {
		if set[g] {
			return true
		}
	}
	return false
}

func genreFactor(c models.Candidate, prefs models.UserPreferences) float64 {
	if len(prefs.GenreRatings) == 0 || len(c.Genres) == 0 {
		return defaultGenreScore
	}
	sum, n := 0.0, 0
	for _, g := range c.Genres {
		if rating, ok := prefs.GenreRatings[g]; ok {
			sum += float64(rating) * 10
			n++
		}
	}
	if n == 0 {
		return defaultGenreScore
	}
	return sum / float64(n)
}

func (e *Engine) semanticFactor(c models.Candidate, prefs models.UserPreferences) float64 {
	userText := semantic.ExtractUserPreferenceText(prefs)
	movieText := semantic.ExtractMovieText(c, GenreName)
	if len(userText) < 10 || len(movieText) < 10 {
		return defaultSemanticVal
	}
	return 100 * e.scorer.Similarity(userText, movieText)
}

func similarityFactor(c models.Candidate, prefs models.UserPreferences, dna models.ContentDNA, favorites []models.FavoriteItem, watchlist []models.WatchlistItem) float64 {
	total := 0.0

	if name, freq, ok := firstMatchingActor(dna.PreferredActors, c); ok {
		_ = name
		total += math.Min(freq*15, 25)
	}
	if name, freq, ok := firstMatchingDirector(dna.PreferredDirectors, c); ok {
		_ = name
		total += math.Min(freq*20, 35)
	}

	if len(c.Genres) > 0 {
		sum := 0.0
		for _, g := range c.Genres {
			sum += dna.GenreDistribution[g] * 10
		}
		total += math.Min(sum/float64(len(c.Genres)), 20)
	}

	candFacets := candidateFacets(c)
	maxSim := 0.0
	top := favorites
	if len(top) > 10 {
		top = top[:10]
	}
	for _, f := range top {
		sim := contentSimilarity(candFacets, favoriteFacets(f))
		if sim > maxSim {
			maxSim = sim
		}
	}
	total += maxSim * 25

	if legacyActorMatch(prefs.FavoritePeople.Actors, c) {
		total += 20
	}
	if legacyDirectorMatch(prefs.FavoritePeople.Directors, c) {
		total += 25
	}

	watchlistContribution := 0.0
	for _, w := range watchlist {
		sim := contentSimilarity(candFacets, watchlistFacets(w))
		if sim > 0.6 {
			watchlistContribution += sim * 20 * models.TemporalWeight(w.AddedAt)
		}
	}
	total += math.Min(watchlistContribution, 50)

	return clamp(total, 0, 100)
}

func firstMatchingActor(ranked []models.PersonFrequency, c models.Candidate) (string, float64, bool) {
	for _, pf := range ranked {
		for _, p := range c.Cast {
			if p.Name == pf.Name {
				return pf.Name, pf.Frequency, true
			}
		}
	}
	return "", 0, false
}

func firstMatchingDirector(ranked []models.PersonFrequency, c models.Candidate) (string, float64, bool) {
	for _, pf := range ranked {
		for _, p := range c.Crew {
			if p.Job == "Director" && p.Name == pf.Name {
				return pf.Name, pf.Frequency, true
			}
		}
	}
	return "", 0, false
}

func legacyActorMatch(actors []string, c models.Candidate) bool {
	for _, name := range actors {
		for _, p := range c.Cast {
			if p.Name == name {
				return true
			}
		}
	}
	return false
}

func legacyDirectorMatch(directors []string, c models.Candidate) bool {
	for _, name := range directors {
		for _, p := range c.Crew {
			if p.Job == "Director" && p.Name == name {
				return true
			}
		}
	}
	return false
}

func contextFactor(c models.Candidate, prefs models.UserPreferences) float64 {
	score := 0.0
	if c.Runtime > 0 {
		switch prefs.RuntimePreference {
		case models.RuntimeShort:
			if c.Runtime < 90 {
				score += 20
			}
		case models.RuntimeMedium:
			if c.Runtime >= 90 && c.Runtime <= 120 {
				score += 20
			}
		case models.RuntimeLong:
			if c.Runtime > 120 {
				score += 20
			}
		}
	}

	english := c.OriginalLanguage == "en"
	suppressEnglishBoost := prefs.HasDiscoveryPreference(models.DiscoveryHiddenGems) || prefs.HasDiscoveryPreference(models.DiscoveryAwardWinning)
	switch prefs.InternationalContentPreference {
	case models.InternationalEnglishPreferred:
		if english && !suppressEnglishBoost {
			score += 15
		}
	case models.InternationalVeryOpen:
		if !english {
			score += 15
		}
	}
	return clamp(score, 0, 100)
}

func discoveryFactor(c models.Candidate, prefs models.UserPreferences) float64 {
	score := 0.0
	if prefs.HasDiscoveryPreference(models.DiscoveryTrending) && c.Popularity > 50 {
		score += 20
	}
	if prefs.HasDiscoveryPreference(models.DiscoveryHiddenGems) && c.VoteCount < 500 && c.VoteAverage > 7 {
		score += 25
	}
	if prefs.HasDiscoveryPreference(models.DiscoveryAwardWinning) && c.VoteAverage > 8 && c.VoteCount > 1000 {
		score += 30
	}
	return clamp(score, 0, 100)
}

func qualityFactor(voteAverage float64, voteCount int) float64 {
	n := float64(voteCount)
	weighted := (n/(n+qualityShrinkageK))*voteAverage + (qualityShrinkageK/(n+qualityShrinkageK))*qualityBaseline
	return clamp(weighted*10, 0, 100)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reason assembles the recommendation-reason string from the breakdown (§4.8).
func Reason(c models.Candidate, prefs models.UserPreferences, b models.ScoreBreakdown) string {
	var facets []string

	if b.Genre > 70 {
		var names []string
		for _, g := range c.Genres {
			if _, ok := prefs.GenreRatings[g]; ok {
				if name := GenreName(g); name != "" {
					names = append(names, name)
				}
			}
		}
		if len(names) > 0 {
			facets = append(facets, strings.Join(names, ", "))
		}
	}

	switch {
	case b.Semantic > 70:
		facets = append(facets, "Matches your content preferences perfectly")
	case b.Semantic > 60:
		facets = append(facets, "Aligns well with your interests")
	}

	if b.Similarity > 70 {
		facets = append(facets, "Similar to your favorites")
	}

	if b.Quality > 80 {
		facets = append(facets, fmt.Sprintf("Highly rated (%.1f/10)", c.VoteAverage))
	}

	if prefs.HasDiscoveryPreference(models.DiscoveryTrending) && c.Popularity > 50 {
		facets = append(facets, "Currently trending")
	}
	if prefs.HasDiscoveryPreference(models.DiscoveryHiddenGems) && c.VoteCount < 500 && c.VoteAverage > 7 {
		facets = append(facets, fmt.Sprintf("Hidden gem you might love (only %s ratings so far)", humanize.Comma(int64(c.VoteCount))))
	}

	if len(facets) == 0 {
		return "Personalized for you"
	}
	return strings.Join(facets, " • ")
}

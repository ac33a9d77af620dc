// Package dna implements the Favorites-DNA Analyzer (§4.5): enrichment of
// raw favorites followed by temporally-weighted aggregation of actor,
// director, genre, and decade preferences.
package dna

import (
	"context"
	"log"
	"math"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"reelsense/models"
)

// Detailer is the subset of the metadata client this analyzer needs: a
// single detail fetch with credits, used to enrich favorites missing
// cast/crew/genre data.
type Detailer interface {
	Detail(ctx context.Context, mediaType, id string) (models.Candidate, error)
}

// Analyzer computes ContentDNA from a user's favorites.
type Analyzer struct {
	detailer Detailer
}

// NewAnalyzer builds an Analyzer backed by the given Detailer.
func NewAnalyzer(detailer Detailer) *Analyzer {
	return &Analyzer{detailer: detailer}
}

// Analyze implements §4.5. Empty input yields an all-empty DNA.
func (a *Analyzer) Analyze(ctx context.Context, favorites []models.FavoriteItem) models.ContentDNA {
	if len(favorites) == 0 {
		return models.EmptyContentDNA()
	}

	enriched := a.enrich(ctx, favorites)

	actorFreq := map[string]float64{}
	directorFreq := map[string]float64{}
	genreFreq := map[int]float64{}
	decadeFreq := map[int]float64{}
	var ratings []float64

	for _, f := range enriched {
		w := models.TemporalWeight(f.AddedAt)

		for i, p := range f.Cast {
			if i >= 5 {
				break
			}
			actorFreq[p.Name] += w
		}
		for _, p := range f.Crew {
			if p.Job == "Director" {
				directorFreq[p.Name] += w
			}
		}
		for _, g := range f.Genres {
			genreFreq[g] += w
		}
		if year := yearFromDate(f.ReleaseDate); year > 0 {
			decadeFreq[(year/10)*10] += w
		}
		if f.VoteAverage != nil {
			ratings = append(ratings, *f.VoteAverage)
		}
	}

	return models.ContentDNA{
		PreferredActors:    rankFrequencies(actorFreq, 10),
		PreferredDirectors: rankFrequencies(directorFreq, 10),
		GenreDistribution:  genreFreq,
		DecadePreferences:  decadeFreq,
		RatingPatterns:     ratingPatterns(ratings),
	}
}

// enrich fetches detail for any favorite missing cast/crew/genre data,
// in bounded parallel. Per-item failures keep the un-enriched record.
func (a *Analyzer) enrich(ctx context.Context, favorites []models.FavoriteItem) []models.FavoriteItem {
	out := make([]models.FavoriteItem, len(favorites))
	copy(out, favorites)

	p := pool.New().WithMaxGoroutines(5)
	for i := range out {
		if out[i].Enriched || (len(out[i].Cast) > 0 && len(out[i].Genres) > 0) {
			continue
		}
		i := i
		p.Go(func() {
			res, err := a.detailer.Detail(ctx, string(out[i].MediaType), out[i].MediaID)
			if err != nil {
				log.Printf("[dna] WARNING: enrich favorite %s failed: %v", out[i].MediaID, err)
				return
			}
			out[i].Genres = res.Genres
			out[i].Cast = res.Cast
			out[i].Crew = res.Crew
			if res.VoteAverage != 0 {
				v := res.VoteAverage
				out[i].VoteAverage = &v
			}
			if res.ReleaseDate != "" {
				out[i].ReleaseDate = res.ReleaseDate
			}
			out[i].Enriched = true
		})
	}
	p.Wait()
	return out
}

// EnrichWatchlist fetches detail for watchlist items missing cast/genre
// data, the same bounded-parallel shape as the favorites enrichment step,
// so the scoring engine's watchlist-influence bonus (§4.8) can compute
// content-similarity against a fully populated record.
func (a *Analyzer) EnrichWatchlist(ctx context.Context, watchlist []models.WatchlistItem) []models.WatchlistItem {
	out := make([]models.WatchlistItem, len(watchlist))
	copy(out, watchlist)

	p := pool.New().WithMaxGoroutines(5)
	for i := range out {
		if out[i].Enriched || (len(out[i].Cast) > 0 && len(out[i].Genres) > 0) {
			continue
		}
		i := i
		p.Go(func() {
			res, err := a.detailer.Detail(ctx, string(out[i].MediaType), out[i].MediaID)
			if err != nil {
				log.Printf("[dna] WARNING: enrich watchlist item %s failed: %v", out[i].MediaID, err)
				return
			}
			out[i].Genres = res.Genres
			out[i].Cast = res.Cast
			out[i].Crew = res.Crew
			out[i].Enriched = true
		})
	}
	p.Wait()
	return out
}

func rankFrequencies(freq map[string]float64, limit int) []models.PersonFrequency {
	out := make([]models.PersonFrequency, 0, len(freq))
	for name, f := range freq {
		out = append(out, models.PersonFrequency{Name: name, Frequency: round2(f)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func ratingPatterns(ratings []float64) models.RatingPatterns {
	if len(ratings) == 0 {
		return models.RatingPatterns{}
	}
	sum, min, max := 0.0, ratings[0], ratings[0]
	for _, r := range ratings {
		sum += r
		if r < min {
			min = r
		}
		if r > max {
			max = r
		}
	}
	return models.RatingPatterns{
		Average: round2(sum / float64(len(ratings))),
		Count:   len(ratings),
		Min:     min,
		Max:     max,
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func yearFromDate(date string) int {
	if len(date) < 4 {
		return 0
	}
	year := 0
	for i := 0; i < 4; i++ {
		ch := date[i]
		if ch < '0' || ch > '9' {
			return 0
		}
		year = year*10 + int(ch-'0')
	}
	return year
}

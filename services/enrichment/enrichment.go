// Package enrichment implements the Candidate Enricher (§4.7): a pre-filter
// applied before a batched, bounded-parallel detail fetch.
package enrichment

import (
	"context"
	"log"

	"github.com/sourcegraph/conc/pool"

	"reelsense/models"
)

const (
	maxEnrichCandidates = 30
	batchSize           = 10
	minVoteAverage      = 4.0
)

// Detailer is the subset of the metadata client the enricher needs.
type Detailer interface {
	Detail(ctx context.Context, mediaType, id string) (models.Candidate, error)
}

// Enricher applies the §4.7 pre-filter then fetches full detail for the
// surviving candidates, in batches of batchSize run in parallel.
type Enricher struct {
	detailer Detailer
}

// NewEnricher builds an Enricher backed by the given Detailer.
func NewEnricher(detailer Detailer) *Enricher {
	return &Enricher{detailer: detailer}
}

// PreFilter drops candidates per §4.7, applied before enrichment to bound cost.
func PreFilter(candidates []models.Candidate, prefs models.UserPreferences) []models.Candidate {
	out := candidates[:0:0]
	for _, c := range candidates {
		if prefs.HasDealBreaker(models.DealBreakerSexualContent) && c.Adult {
			continue
		}
		if prefs.InternationalContentPreference == models.InternationalEnglishPreferred && c.OriginalLanguage != "" && c.OriginalLanguage != "en" {
			continue
		}
		if c.VoteAverage < minVoteAverage {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Enrich fetches detail for up to maxEnrichCandidates candidates (the
// caller is expected to have already applied PreFilter and any earlier
// truncation), in batches of batchSize run in parallel. A per-candidate
// failure retains the original un-enriched candidate (§4.7).
func (e *Enricher) Enrich(ctx context.Context, candidates []models.Candidate) []models.Candidate {
	if len(candidates) > maxEnrichCandidates {
		candidates = candidates[:maxEnrichCandidates]
	}
	out := make([]models.Candidate, len(candidates))
	copy(out, candidates)

	for start := 0; start < len(out); start += batchSize {
		end := start + batchSize
		if end > len(out) {
			end = len(out)
		}
		p := pool.New().WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			p.Go(func(ctx context.Context) error {
				detailed, err := e.detailer.Detail(ctx, string(out[i].MediaType), out[i].ID)
				if err != nil {
					log.Printf("[enrichment] WARNING: detail fetch for %s failed: %v", out[i].ID, err)
					return nil
				}
				out[i] = detailed
				return nil
			})
		}
		_ = p.Wait()
	}
	return out
}

// Package recommend implements the Pipeline Orchestrator (§4.10): the six
// numbered stages that turn a user id and request parameters into a shaped
// recommendation response, failing soft at every stage but the first.
package recommend

import (
	"context"
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"reelsense/models"
	"reelsense/services/discovery"
	"reelsense/services/diversity"
	"reelsense/services/dna"
	"reelsense/services/enrichment"
	"reelsense/services/preferences"
	"reelsense/services/scoring"
)

const scoreDropThreshold = -500

// Request is the normalized, already-validated input to Recommend. Request
// parsing and InvalidRequest rejection (§7) happen one layer up, in the
// HTTP handler; by the time a Request reaches here, limit is clamped to
// [1,9] and excludeIDs are well-formed strings.
type Request struct {
	UserID            string
	MediaType         string
	ExcludeIDs        []string
	Limit             int
	InlinePreferences *models.UserPreferences
}

// Orchestrator wires the component chain together.
type Orchestrator struct {
	prefs      *preferences.Adapter
	dnaAnalyzer *dna.Analyzer
	discoverer *discovery.Discoverer
	enricher   *enrichment.Enricher
	scorer     *scoring.Engine
}

// NewOrchestrator builds an Orchestrator from its component collaborators.
func NewOrchestrator(prefs *preferences.Adapter, dnaAnalyzer *dna.Analyzer, discoverer *discovery.Discoverer, enricher *enrichment.Enricher, scorer *scoring.Engine) *Orchestrator {
	return &Orchestrator{
		prefs:       prefs,
		dnaAnalyzer: dnaAnalyzer,
		discoverer:  discoverer,
		enricher:    enricher,
		scorer:      scorer,
	}
}

// Recommend runs the six-stage pipeline (§4.10). It never returns an error;
// any stage that yields nothing simply produces an empty response.
func (o *Orchestrator) Recommend(ctx context.Context, req Request) models.RecommendationResponse {
	start := time.Now()

	// Stage 1: load user bundle.
	bundle := o.prefs.LoadUserBundle(ctx, req.UserID)
	prefs := bundle.Preferences
	source := models.SourcePersonalizedLambda
	if req.InlinePreferences != nil && !req.InlinePreferences.IsEmpty() {
		prefs = *req.InlinePreferences
		source = models.SourcePersonalizedLambdaPost
	}

	// Stage 2: discover candidates.
	excludeSet := discovery.ParseExcludeIDs(req.ExcludeIDs)
	stage2Start := time.Now()
	candidates := o.discoverer.Discover(ctx, req.MediaType, prefs, bundle.Favorites, excludeSet)
	log.Printf("[recommend] user=%s stage=discover elapsed=%s candidates=%d", req.UserID, time.Since(stage2Start), len(candidates))

	// Stage 3: pre-filter then enrich.
	stage3Start := time.Now()
	filtered := enrichment.PreFilter(candidates, prefs)
	enriched := o.enricher.Enrich(ctx, filtered)
	log.Printf("[recommend] user=%s stage=enrich elapsed=%s survivors=%d", req.UserID, time.Since(stage3Start), len(enriched))

	if len(enriched) == 0 {
		return emptyResponse(source, prefs)
	}

	// Stage 4: score.
	stage4Start := time.Now()
	contentDNA := o.dnaAnalyzer.Analyze(ctx, bundle.Favorites)
	enrichedWatchlist := o.dnaAnalyzer.EnrichWatchlist(ctx, bundle.Watchlist)
	scored := make([]models.ScoredCandidate, len(enriched))
	for i, c := range enriched {
		breakdown := o.scorer.Score(c, prefs, contentDNA, bundle.Favorites, enrichedWatchlist)
		scored[i] = models.ScoredCandidate{
			Candidate:            c,
			Score:                scoring.Total(breakdown),
			Breakdown:            breakdown,
			RecommendationReason: scoring.Reason(c, prefs, breakdown),
			DiscoveryOrder:       i,
		}
	}
	log.Printf("[recommend] user=%s stage=score elapsed=%s", req.UserID, time.Since(stage4Start))

	// Stage 5: drop vetoed/low-score candidates, sort descending.
	survivors := scored[:0:0]
	for _, s := range scored {
		if s.Score > scoreDropThreshold {
			survivors = append(survivors, s)
		}
	}
	sort.SliceStable(survivors, func(i, j int) bool {
		if survivors[i].Score != survivors[j].Score {
			return survivors[i].Score > survivors[j].Score
		}
		return survivors[i].DiscoveryOrder < survivors[j].DiscoveryOrder
	})

	if len(survivors) == 0 {
		return emptyResponse(source, prefs)
	}

	// Stage 6: diversity selection, response shaping.
	limit := req.Limit
	if limit <= 0 || limit > 9 {
		limit = 9
	}
	final := diversity.Select(survivors, limit)

	elapsed := time.Since(start).Milliseconds()
	items := make([]models.RecommendationItem, len(final))
	for i, s := range final {
		items[i] = toRecommendationItem(s, elapsed)
	}

	return models.RecommendationResponse{
		Items:           items,
		Source:          source,
		UserPreferences: prefs,
	}
}

func emptyResponse(source string, prefs models.UserPreferences) models.RecommendationResponse {
	return models.RecommendationResponse{
		Items:           []models.RecommendationItem{},
		Source:          source,
		UserPreferences: prefs,
	}
}

func toRecommendationItem(s models.ScoredCandidate, elapsedMillis int64) models.RecommendationItem {
	return models.RecommendationItem{
		MediaID:              s.ID,
		ID:                   s.ID,
		Title:                s.Title,
		Overview:             s.Overview,
		PosterPath:           s.PosterPath,
		BackdropPath:         s.BackdropPath,
		VoteAverage:          s.VoteAverage,
		ReleaseDate:          s.ReleaseDate,
		Popularity:           s.Popularity,
		MediaType:            s.MediaType,
		Genres:               genreList(s.Genres),
		Score:                s.Score,
		RecommendationReason: s.RecommendationReason,
		ProcessingTimeMillis: elapsedMillis,
	}
}

func genreList(ids []int) string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name := scoring.GenreName(id); name != "" {
			names = append(names, name)
			continue
		}
		names = append(names, strconv.Itoa(id))
	}
	return strings.Join(names, "|")
}

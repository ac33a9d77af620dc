// Package discovery implements the Candidate Discoverer (§4.6): parallel
// fan-out across six discovery strategies, deduplicated and capped.
package discovery

import (
	"context"
	"log"
	"sort"
	"strconv"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"reelsense/models"
)

const maxCandidates = 80

// topGenres is the number of top-rated genres used by the genre strategy.
const topGenres = 5

// MetadataSource is the subset of the metadata client the discoverer needs.
// Every method takes the normalized media type ("movie" or "tv").
type MetadataSource interface {
	Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
	Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error)
	DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error)
	DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
	DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
	SearchFirst(ctx context.Context, mediaType, query string) (models.Candidate, bool, error)
	Similar(ctx context.Context, mediaType, id string) ([]models.Candidate, error)
	Recommendations(ctx context.Context, mediaType, id string) ([]models.Candidate, error)
}

// Discoverer fans out across the strategies in §4.6's table.
type Discoverer struct {
	source MetadataSource
}

// NewDiscoverer builds a Discoverer over the given MetadataSource.
func NewDiscoverer(source MetadataSource) *Discoverer {
	return &Discoverer{source: source}
}

// Discover implements §4.6. mediaType is "movie", "tv", or "both"; excludeIds
// is checked before insertion, and the 80-candidate cap is enforced in
// insertion order (first strategy result to claim a slot wins it).
func (d *Discoverer) Discover(ctx context.Context, mediaType string, prefs models.UserPreferences, favorites []models.FavoriteItem, excludeIDs map[string]bool) []models.Candidate {
	types := mediaTypesFor(mediaType)

	collector := &safeCollector{seen: map[string]bool{}, exclude: excludeIDs}

	p := pool.New().WithContext(ctx)

	for _, mt := range types {
		mt := mt
		if len(prefs.GenreRatings) > 0 {
			for _, g := range topRatedGenres(prefs.GenreRatings, topGenres) {
				g := g
				p.Go(func(ctx context.Context) error {
					items, err := d.source.DiscoverByGenre(ctx, mt, g, 1)
					if err != nil {
						log.Printf("[discovery] WARNING: genre strategy (%s, genre %d) failed: %v", mt, g, err)
						return nil
					}
					collector.add(items)
					return nil
				})
			}
		}

		if len(prefs.FavoriteContent) > 0 {
			n := len(prefs.FavoriteContent)
			if n > 3 {
				n = 3
			}
			for i := 0; i < n; i++ {
				query := prefs.FavoriteContent[i]
				p.Go(func(ctx context.Context) error {
					d.similarToFavorite(ctx, mt, query, collector)
					return nil
				})
			}
		}

		if prefs.HasDiscoveryPreference(models.DiscoveryTrending) {
			p.Go(func(ctx context.Context) error {
				for page := 1; page <= 2; page++ {
					items, err := d.source.Trending(ctx, mt, page)
					if err != nil {
						log.Printf("[discovery] WARNING: trending strategy (%s) failed: %v", mt, err)
						continue
					}
					collector.add(items)
				}
				return nil
			})
		}

		if prefs.HasDiscoveryPreference(models.DiscoveryHiddenGems) {
			p.Go(func(ctx context.Context) error {
				for page := 1; page <= 2; page++ {
					items, err := d.source.DiscoverHiddenGems(ctx, mt, page)
					if err != nil {
						log.Printf("[discovery] WARNING: hidden-gems strategy (%s) failed: %v", mt, err)
						continue
					}
					collector.add(items)
				}
				return nil
			})
		}

		if prefs.HasDiscoveryPreference(models.DiscoveryAwardWinning) {
			p.Go(func(ctx context.Context) error {
				for page := 1; page <= 2; page++ {
					items, err := d.source.DiscoverAwardWinning(ctx, mt, page)
					if err != nil {
						log.Printf("[discovery] WARNING: award-winning strategy (%s) failed: %v", mt, err)
						continue
					}
					collector.add(items)
				}
				return nil
			})
		}

		p.Go(func(ctx context.Context) error {
			for page := 1; page <= 3; page++ {
				items, err := d.source.Popular(ctx, mt, page)
				if err != nil {
					log.Printf("[discovery] WARNING: popular fallback (%s) failed: %v", mt, err)
					continue
				}
				collector.add(items)
			}
			return nil
		})
	}

	_ = p.Wait()
	return collector.snapshot()
}

func (d *Discoverer) similarToFavorite(ctx context.Context, mediaType, query string, collector *safeCollector) {
	hit, found, err := d.source.SearchFirst(ctx, mediaType, query)
	if err != nil || !found {
		if err != nil {
			log.Printf("[discovery] WARNING: similar-to-favorite search %q failed: %v", query, err)
		}
		return
	}
	if similar, err := d.source.Similar(ctx, mediaType, hit.ID); err == nil {
		collector.add(capped(similar, 10))
	}
	if recs, err := d.source.Recommendations(ctx, mediaType, hit.ID); err == nil {
		collector.add(capped(recs, 10))
	}
}

func capped(items []models.Candidate, n int) []models.Candidate {
	if len(items) > n {
		return items[:n]
	}
	return items
}

// safeCollector deduplicates by id, drops excluded ids, and stops accepting
// once maxCandidates is reached, first-writer-wins on the cap.
type safeCollector struct {
	mu      sync.Mutex
	seen    map[string]bool
	exclude map[string]bool
	items   []models.Candidate
}

func (c *safeCollector) add(items []models.Candidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, it := range items {
		if len(c.items) >= maxCandidates {
			return
		}
		if c.exclude[it.ID] || c.seen[it.ID] {
			continue
		}
		c.seen[it.ID] = true
		c.items = append(c.items, it)
	}
}

func (c *safeCollector) snapshot() []models.Candidate {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]models.Candidate, len(c.items))
	copy(out, c.items)
	return out
}

func mediaTypesFor(mediaType string) []string {
	if mediaType == string(models.MediaBoth) || mediaType == "" {
		return []string{string(models.MediaMovie), string(models.MediaTV)}
	}
	return []string{mediaType}
}

// topRatedGenres returns up to limit genre ids sorted by descending rating.
func topRatedGenres(ratings map[int]int, limit int) []int {
	type pair struct {
		genre  int
		rating int
	}
	pairs := make([]pair, 0, len(ratings))
	for g, r := range ratings {
		pairs = append(pairs, pair{g, r})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].rating != pairs[j].rating {
			return pairs[i].rating > pairs[j].rating
		}
		return pairs[i].genre < pairs[j].genre
	})
	if len(pairs) > limit {
		pairs = pairs[:limit]
	}
	out := make([]int, len(pairs))
	for i, p := range pairs {
		out[i] = p.genre
	}
	return out
}

// ParseExcludeIDs canonicalizes the caller-supplied exclude list (§9: the
// core MUST canonicalize to one representation before comparisons).
func ParseExcludeIDs(raw []string) map[string]bool {
	out := make(map[string]bool, len(raw))
	for _, r := range raw {
		if r == "" {
			continue
		}
		if n, err := strconv.ParseInt(r, 10, 64); err == nil {
			out[strconv.FormatInt(n, 10)] = true
			continue
		}
		out[r] = true
	}
	return out
}

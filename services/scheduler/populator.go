// Package scheduler implements the Scheduled Cache Populator (§4.11): a
// background job that pre-warms the persistent cache on daily and weekly
// schedules using the populator's own rate-limited metadata client.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/hashicorp/go-multierror"

	"reelsense/models"
)

// MetadataSource is the subset of the metadata client the populator needs.
type MetadataSource interface {
	Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
	Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error)
	DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error)
	DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
	DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error)
}

// PersistentCache is the external store the populator writes into. Batch
// writes are capped at 25 items per §6's persistent-cache layout.
type PersistentCache interface {
	PutBatch(ctx context.Context, items []models.ScheduledCacheItem) error
	Put(ctx context.Context, item models.ScheduledCacheItem) error
}

// Mode selects which schedules a single run sweeps.
type Mode string

const (
	ModeDaily  Mode = "daily"
	ModeWeekly Mode = "weekly"
	ModeFull   Mode = "full"
)

const (
	persistentCacheTTL = 7 * 24 * time.Hour
	batchWriteLimit    = 25
	topGenreCount      = 5
)

// Service drives the populator's background loop. Its lifecycle (Start/Stop
// with a ticker-bound goroutine and a sync.WaitGroup) follows the same
// pattern the core's scheduled-task runner uses. Daily and weekly strategies
// are driven off two independent tickers (§4.11: "driven by two external
// schedules") so the weekly cadence doesn't collapse into the daily one.
type Service struct {
	source MetadataSource
	cache  PersistentCache
	topGenres []int

	dailyInterval  time.Duration
	weeklyInterval time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewService builds a populator Service. topGenres feeds the weekly genre
// strategy (§4.11); pass the site-wide top-5 popular genre ids. dailyInterval
// and weeklyInterval drive their respective sweeps independently.
func NewService(source MetadataSource, cache PersistentCache, dailyInterval, weeklyInterval time.Duration, topGenres []int) *Service {
	if len(topGenres) > topGenreCount {
		topGenres = topGenres[:topGenreCount]
	}
	return &Service{source: source, cache: cache, dailyInterval: dailyInterval, weeklyInterval: weeklyInterval, topGenres: topGenres}
}

// Start begins the background sweep loop, running a full sweep immediately.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(1)
	go s.loop(runCtx)

	log.Println("[scheduler] cache populator started")
	return nil
}

// Stop cancels the loop and waits (bounded by ctx) for in-flight sweeps.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.cancel()
	s.running = false
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Println("[scheduler] cache populator stopped gracefully")
	case <-ctx.Done():
		log.Println("[scheduler] cache populator stopped (timeout)")
	}
	return nil
}

func (s *Service) loop(ctx context.Context) {
	defer s.wg.Done()

	dailyTicker := time.NewTicker(s.dailyInterval)
	defer dailyTicker.Stop()
	weeklyTicker := time.NewTicker(s.weeklyInterval)
	defer weeklyTicker.Stop()

	s.sweep(ctx, ModeFull)

	for {
		select {
		case <-ctx.Done():
			return
		case <-dailyTicker.C:
			s.sweep(ctx, ModeDaily)
		case <-weeklyTicker.C:
			s.sweep(ctx, ModeWeekly)
		}
	}
}

// sweep runs the strategies for the given mode and writes results to the
// persistent cache, retrying per-item on batch failure.
func (s *Service) sweep(ctx context.Context, mode Mode) {
	start := time.Now()
	var items []models.ScheduledCacheItem
	var errs *multierror.Error

	if mode == ModeDaily || mode == ModeFull {
		daily, err := s.dailyItems(ctx)
		items = append(items, daily...)
		errs = multierror.Append(errs, err)
	}
	if mode == ModeWeekly || mode == ModeFull {
		weekly, err := s.weeklyItems(ctx)
		items = append(items, weekly...)
		errs = multierror.Append(errs, err)
	}

	s.writeBatches(ctx, items)
	if errs.ErrorOrNil() != nil {
		log.Printf("[scheduler] sweep mode=%s items=%d elapsed=%s errors=%q", mode, len(items), time.Since(start), errs)
		return
	}
	log.Printf("[scheduler] sweep mode=%s items=%d elapsed=%s", mode, len(items), time.Since(start))
}

// dailyItems runs the daily strategies, collecting any per-call failures
// into a single aggregated error rather than aborting the sweep.
func (s *Service) dailyItems(ctx context.Context) ([]models.ScheduledCacheItem, error) {
	var items []models.ScheduledCacheItem
	var errs *multierror.Error

	for _, mt := range []string{"movie", "tv"} {
		for page := 1; page <= 2; page++ {
			results, err := s.source.Popular(ctx, mt, page)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("daily popular(%s, page %d): %w", mt, page, err))
				continue
			}
			items = append(items, toScheduledItems(mt, "popular", results)...)
		}
	}

	for _, scope := range []string{"movie", "tv", "all"} {
		results, err := s.source.Trending(ctx, scope, 1)
		if err != nil {
			errs = multierror.Append(errs, fmt.Errorf("daily trending(%s): %w", scope, err))
			continue
		}
		items = append(items, toScheduledItems(trendingMediaType(scope), "trending", results)...)
	}

	return items, errs.ErrorOrNil()
}

func (s *Service) weeklyItems(ctx context.Context) ([]models.ScheduledCacheItem, error) {
	var items []models.ScheduledCacheItem
	var errs *multierror.Error

	for _, mt := range []string{"movie", "tv"} {
		for _, genre := range s.topGenres {
			results, err := s.source.DiscoverByGenre(ctx, mt, genre, 1)
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("weekly genre(%s, %d): %w", mt, genre, err))
				continue
			}
			items = append(items, toScheduledItems(mt, "genre", results)...)
		}

		if results, err := s.source.DiscoverHiddenGems(ctx, mt, 1); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("weekly hiddenGems(%s): %w", mt, err))
		} else {
			items = append(items, toScheduledItems(mt, "hiddenGems", results)...)
		}

		if results, err := s.source.DiscoverAwardWinning(ctx, mt, 1); err != nil {
			errs = multierror.Append(errs, fmt.Errorf("weekly awardWinning(%s): %w", mt, err))
		} else {
			items = append(items, toScheduledItems(mt, "awardWinning", results)...)
		}
	}

	return items, errs.ErrorOrNil()
}

func trendingMediaType(scope string) string {
	if scope == "all" {
		return "movie"
	}
	return scope
}

func toScheduledItems(mediaType, category string, candidates []models.Candidate) []models.ScheduledCacheItem {
	now := time.Now()
	out := make([]models.ScheduledCacheItem, len(candidates))
	for i, c := range candidates {
		out[i] = models.ScheduledCacheItem{
			CacheKey:    category + "#" + mediaType + "#" + c.ID,
			ContentID:   c.ID,
			ContentType: models.MediaType(mediaType),
			Category:    category,
			Candidate:   c,
			FetchedAt:   now,
			ExpiresAt:   now.Add(persistentCacheTTL),
			Source:      category,
		}
	}
	return out
}

// writeBatches writes items in groups of batchWriteLimit; a batch failure
// falls back to per-item writes with retry (§4.11).
func (s *Service) writeBatches(ctx context.Context, items []models.ScheduledCacheItem) {
	for start := 0; start < len(items); start += batchWriteLimit {
		end := start + batchWriteLimit
		if end > len(items) {
			end = len(items)
		}
		batch := items[start:end]

		if err := s.cache.PutBatch(ctx, batch); err != nil {
			log.Printf("[scheduler] WARNING: batch write failed, falling back to per-item: %v", err)
			s.writeItemsWithRetry(ctx, batch)
		}
	}
}

func (s *Service) writeItemsWithRetry(ctx context.Context, items []models.ScheduledCacheItem) {
	for _, item := range items {
		item := item
		err := retry.Do(
			func() error { return s.cache.Put(ctx, item) },
			retry.Context(ctx),
			retry.Attempts(uint(3)),
			retry.Delay(200*time.Millisecond),
		)
		if err != nil {
			log.Printf("[scheduler] WARNING: per-item write failed for %s after retries: %v", item.CacheKey, err)
		}
	}
}

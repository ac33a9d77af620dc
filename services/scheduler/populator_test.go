package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"reelsense/models"
)

type fakeSource struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeSource) Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return []models.Candidate{{ID: mediaType + "-" + string(rune('0'+page)), MediaType: models.MediaType(mediaType)}}, nil
}
func (f *fakeSource) Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error) {
	return []models.Candidate{{ID: "trend-" + scope}}, nil
}
func (f *fakeSource) DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error) {
	return []models.Candidate{{ID: "genre"}}, nil
}
func (f *fakeSource) DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return []models.Candidate{{ID: "gem"}}, nil
}
func (f *fakeSource) DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	return []models.Candidate{{ID: "award"}}, nil
}

type fakeCache struct {
	mu         sync.Mutex
	batches    [][]models.ScheduledCacheItem
	puts       []models.ScheduledCacheItem
	failBatch  bool
	failPutFor map[string]int
}

func (f *fakeCache) PutBatch(ctx context.Context, items []models.ScheduledCacheItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failBatch {
		return errors.New("batch write failed")
	}
	f.batches = append(f.batches, items)
	return nil
}

func (f *fakeCache) Put(ctx context.Context, item models.ScheduledCacheItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPutFor[item.CacheKey] > 0 {
		f.failPutFor[item.CacheKey]--
		return errors.New("transient failure")
	}
	f.puts = append(f.puts, item)
	return nil
}

func TestSweepDailyWritesBatches(t *testing.T) {
	source := &fakeSource{}
	cache := &fakeCache{}
	svc := NewService(source, cache, time.Hour, 7*24*time.Hour, []int{28, 18})

	svc.sweep(context.Background(), ModeDaily)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.NotEmpty(t, cache.batches)
}

func TestSweepFallsBackToPerItemOnBatchFailure(t *testing.T) {
	source := &fakeSource{}
	cache := &fakeCache{failBatch: true, failPutFor: map[string]int{}}
	svc := NewService(source, cache, time.Hour, 7*24*time.Hour, []int{28})

	svc.sweep(context.Background(), ModeDaily)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.Empty(t, cache.batches)
	require.NotEmpty(t, cache.puts)
}

func TestPerItemWriteRetriesBeforeSucceeding(t *testing.T) {
	source := &fakeSource{}
	cache := &fakeCache{failBatch: true, failPutFor: map[string]int{}}
	svc := NewService(source, cache, time.Hour, 7*24*time.Hour, nil)

	items := []models.ScheduledCacheItem{{CacheKey: "k1"}}
	cache.failPutFor["k1"] = 2

	svc.writeItemsWithRetry(context.Background(), items)

	cache.mu.Lock()
	defer cache.mu.Unlock()
	require.Len(t, cache.puts, 1)
}

func TestStartStopLifecycle(t *testing.T) {
	source := &fakeSource{}
	cache := &fakeCache{}
	svc := NewService(source, cache, 50*time.Millisecond, time.Hour, nil)

	require.NoError(t, svc.Start(context.Background()))
	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Stop(stopCtx))
}

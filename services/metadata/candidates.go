package metadata

import (
	"context"

	"reelsense/models"
)

// The methods below give Client the exact method set the discovery and dna
// packages depend on (discovery.MetadataSource, dna.Detailer), so Client is
// the single concrete implementation of both in this module.

func (c *Client) toCandidates(mediaType string, items []RawItem) []models.Candidate {
	out := make([]models.Candidate, len(items))
	for i, it := range items {
		out[i] = it.ToCandidate(models.MediaType(mediaType))
	}
	return out
}

// Popular satisfies discovery.MetadataSource.
func (c *Client) Popular(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	items, err := c.popularRaw(ctx, mediaType, page)
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// Trending satisfies discovery.MetadataSource.
func (c *Client) Trending(ctx context.Context, scope string, page int) ([]models.Candidate, error) {
	items, err := c.trendingRaw(ctx, scope, page)
	if err != nil {
		return nil, err
	}
	return c.toCandidates(scope, items), nil
}

// DiscoverByGenre satisfies discovery.MetadataSource.
func (c *Client) DiscoverByGenre(ctx context.Context, mediaType string, genreID, page int) ([]models.Candidate, error) {
	items, err := c.discoverRaw(ctx, mediaType, DiscoverParams{WithGenres: []int{genreID}, Page: page, SortBy: "popularity.desc"})
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// DiscoverHiddenGems satisfies discovery.MetadataSource (§4.6's hidden-gems strategy).
func (c *Client) DiscoverHiddenGems(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	items, err := c.discoverRaw(ctx, mediaType, DiscoverParams{Page: page, SortBy: "vote_average.desc", VoteCountGte: 50, VoteCountLte: 500})
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// DiscoverAwardWinning satisfies discovery.MetadataSource (§4.6's award-winning strategy).
func (c *Client) DiscoverAwardWinning(ctx context.Context, mediaType string, page int) ([]models.Candidate, error) {
	items, err := c.discoverRaw(ctx, mediaType, DiscoverParams{Page: page, SortBy: "vote_average.desc", VoteCountGte: 1000})
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// SearchFirst satisfies discovery.MetadataSource.
func (c *Client) SearchFirst(ctx context.Context, mediaType, query string) (models.Candidate, bool, error) {
	items, err := c.searchRaw(ctx, mediaType, query)
	if err != nil {
		return models.Candidate{}, false, err
	}
	if len(items) == 0 {
		return models.Candidate{}, false, nil
	}
	return items[0].ToCandidate(models.MediaType(mediaType)), true, nil
}

// Similar satisfies discovery.MetadataSource.
func (c *Client) Similar(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	items, err := c.similarRaw(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// Recommendations satisfies discovery.MetadataSource.
func (c *Client) Recommendations(ctx context.Context, mediaType, id string) ([]models.Candidate, error) {
	items, err := c.recommendationsRaw(ctx, mediaType, id)
	if err != nil {
		return nil, err
	}
	return c.toCandidates(mediaType, items), nil
}

// Detail satisfies both dna.Detailer and enrichment.Detailer: a single
// fully-enriched models.Candidate (credits, keywords, runtime included).
func (c *Client) Detail(ctx context.Context, mediaType, id string) (models.Candidate, error) {
	d, err := c.fetchDetail(ctx, mediaType, id)
	if err != nil {
		return models.Candidate{}, err
	}
	cand := d.RawItem.ToCandidate(models.MediaType(mediaType))
	cand.Runtime = d.Runtime
	cand.Cast = d.Cast
	cand.Crew = d.Crew
	cand.Keywords = d.Keywords
	cand.Enriched = true
	return cand, nil
}

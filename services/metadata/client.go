// Package metadata wraps the upstream movie-metadata API with rate
// limiting, timeouts, and a request-scoped cache (§4.1-4.2).
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelsense/models"
)

const callTimeout = 20 * time.Second

// RawItem is a single entry as returned by list endpoints (popular,
// trending, discover, search, similar, recommendations).
type RawItem struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type,omitempty"`
	Title            string  `json:"title,omitempty"`
	Name             string  `json:"name,omitempty"` // tv uses "name" instead of "title"
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	BackdropPath     string  `json:"backdrop_path"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	ReleaseDate      string  `json:"release_date,omitempty"`
	FirstAirDate     string  `json:"first_air_date,omitempty"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids"`
}

type rawListResponse struct {
	Results []RawItem `json:"results"`
}

type creditsResponse struct {
	Cast []struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	} `json:"cast"`
	Crew []struct {
		Name string `json:"name"`
		Job  string `json:"job"`
	} `json:"crew"`
}

type keywordsResponse struct {
	Keywords []struct {
		Name string `json:"name"`
	} `json:"keywords"`
	Results []struct {
		Name string `json:"name"`
	} `json:"results"` // tv keywords endpoint uses "results" instead of "keywords"
}

type detailResponse struct {
	RawItem
	Runtime         int              `json:"runtime"`
	Credits         creditsResponse  `json:"credits"`
	Keywords        keywordsResponse `json:"keywords"`
}

// displayTitle returns the movie title or tv name, whichever is populated.
func (r RawItem) displayTitle() string {
	if r.Title != "" {
		return r.Title
	}
	return r.Name
}

func (r RawItem) displayDate() string {
	if r.ReleaseDate != "" {
		return r.ReleaseDate
	}
	return r.FirstAirDate
}

// ToCandidate normalizes a RawItem into a models.Candidate for the given
// media type (the upstream response does not always echo it back).
func (r RawItem) ToCandidate(mediaType models.MediaType) models.Candidate {
	return models.Candidate{
		ID:               strconv.FormatInt(r.ID, 10),
		MediaType:        mediaType,
		Title:            r.displayTitle(),
		Overview:         r.Overview,
		PosterPath:       r.PosterPath,
		BackdropPath:     r.BackdropPath,
		VoteAverage:      r.VoteAverage,
		VoteCount:        r.VoteCount,
		Popularity:       r.Popularity,
		ReleaseDate:      r.displayDate(),
		OriginalLanguage: r.OriginalLanguage,
		Adult:            r.Adult,
		Genres:           append([]int(nil), r.GenreIDs...),
	}
}

// DiscoverParams controls the /discover/{type} query (§4.1).
type DiscoverParams struct {
	WithGenres   []int
	Page         int
	SortBy       string
	VoteCountGte int
	VoteCountLte int
}

// Client is the External Metadata Client (§4.1): a rate-limited,
// cache-backed wrapper over the upstream movie-metadata HTTP API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
	cache      *requestCache
	limiter    *Limiter
}

// NewClient builds a Client. limiter is injected so the caller can use a
// distinct limiter for the request path (concurrency 5) vs. the scheduled
// populator (concurrency 8, min gap 250ms), per §4.1 and §9's remapping of
// the limiter into an explicit injected value.
func NewClient(baseURL, apiKey, language string, cacheTTL time.Duration, cacheCapacity int, limiter *Limiter) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: callTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		language:   normalizeLanguage(language),
		cache:      newRequestCache(cacheTTL, cacheCapacity),
		limiter:    limiter,
	}
}

// popularRaw fetches a page of popular titles for mediaType ("movie" or "tv").
func (c *Client) popularRaw(ctx context.Context, mediaType string, page int) ([]RawItem, error) {
	return c.fetchList(ctx, "popular", fmt.Sprintf("%s/%s/popular", c.baseURL, mediaType), url.Values{"page": {strconv.Itoa(page)}})
}

// trendingRaw fetches a page of trending titles; scope is "movie", "tv", or "all".
func (c *Client) trendingRaw(ctx context.Context, scope string, page int) ([]RawItem, error) {
	return c.fetchList(ctx, "trending", fmt.Sprintf("%s/trending/%s/week", c.baseURL, scope), url.Values{"page": {strconv.Itoa(page)}})
}

// discoverRaw runs /discover/{type} with the given filter/sort parameters.
func (c *Client) discoverRaw(ctx context.Context, mediaType string, p DiscoverParams) ([]RawItem, error) {
	q := url.Values{"page": {strconv.Itoa(p.Page)}}
	if p.SortBy != "" {
		q.Set("sort_by", p.SortBy)
	}
	if p.VoteCountGte > 0 {
		q.Set("vote_count.gte", strconv.Itoa(p.VoteCountGte))
	}
	if p.VoteCountLte > 0 {
		q.Set("vote_count.lte", strconv.Itoa(p.VoteCountLte))
	}
	for _, g := range p.WithGenres {
		q.Add("with_genres", strconv.Itoa(g))
	}
	return c.fetchList(ctx, "discover", fmt.Sprintf("%s/discover/%s", c.baseURL, mediaType), q)
}

// searchRaw returns the results for a free-text query against mediaType.
func (c *Client) searchRaw(ctx context.Context, mediaType, query string) ([]RawItem, error) {
	return c.fetchList(ctx, "search", fmt.Sprintf("%s/search/%s", c.baseURL, mediaType), url.Values{"query": {query}})
}

// similarRaw returns titles similar to (mediaType, id).
func (c *Client) similarRaw(ctx context.Context, mediaType, id string) ([]RawItem, error) {
	return c.fetchList(ctx, "similar", fmt.Sprintf("%s/%s/%s/similar", c.baseURL, mediaType, id), nil)
}

// recommendationsRaw returns upstream recommendations for (mediaType, id).
func (c *Client) recommendationsRaw(ctx context.Context, mediaType, id string) ([]RawItem, error) {
	return c.fetchList(ctx, "recommendations", fmt.Sprintf("%s/%s/%s/recommendations", c.baseURL, mediaType, id), nil)
}

// DetailedItem is the result of Detail: a RawItem plus runtime, credits, and keywords.
type DetailedItem struct {
	RawItem
	Runtime  int
	Cast     []models.Person
	Crew     []models.Person
	Keywords []string
}

// fetchDetail fetches full detail (with credits and keywords appended) for a single title.
func (c *Client) fetchDetail(ctx context.Context, mediaType, id string) (DetailedItem, error) {
	q := url.Values{"append_to_response": {"credits,keywords"}}
	body, err := c.cachedGet(ctx, "detail", fmt.Sprintf("%s/%s/%s", c.baseURL, mediaType, id), q)
	if err != nil {
		return DetailedItem{}, err
	}
	var d detailResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return DetailedItem{}, newUpstreamError("detail", KindUnknown, 0, fmt.Errorf("decode: %w", err))
	}
	out := DetailedItem{RawItem: d.RawItem, Runtime: d.Runtime}
	for i, cm := range d.Credits.Cast {
		if i >= 10 {
			break
		}
		out.Cast = append(out.Cast, models.Person{Name: cm.Name})
	}
	for i, cm := range d.Credits.Crew {
		if i >= 10 {
			break
		}
		out.Crew = append(out.Crew, models.Person{Name: cm.Name, Job: cm.Job})
	}
	kws := d.Keywords.Keywords
	if len(kws) == 0 {
		kws = d.Keywords.Results
	}
	for _, k := range kws {
		out.Keywords = append(out.Keywords, k.Name)
	}
	return out, nil
}

func (c *Client) fetchList(ctx context.Context, op, rawURL string, q url.Values) ([]RawItem, error) {
	body, err := c.cachedGet(ctx, op, rawURL, q)
	if err != nil {
		return nil, err
	}
	var resp rawListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newUpstreamError(op, KindUnknown, 0, fmt.Errorf("decode: %w", err))
	}
	return resp.Results, nil
}

// cachedGet is the cachedGet helper from §4.1: consult the request-scoped
// cache first, then dispatch through the rate limiter on miss.
func (c *Client) cachedGet(ctx context.Context, op, rawURL string, q url.Values) ([]byte, error) {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	full := rawURL + "?" + q.Encode()

	key := scrubbedURLKey(full)
	if cached, ok := c.cache.get(key); ok {
		return cached, nil
	}

	release, err := c.limiter.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, newUpstreamError(op, KindCanceled, 0, err)
		}
		return nil, newUpstreamError(op, KindUnknown, 0, err)
	}
	defer release()

	body, err := c.doGet(ctx, op, full)
	if err != nil {
		return nil, err
	}
	c.cache.set(key, body)
	return body, nil
}

func (c *Client) doGet(ctx context.Context, op, fullURL string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, callTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, newUpstreamError(op, KindUnknown, 0, fmt.Errorf("build request: %w", err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Printf("[metadata] %s timed out: %v", op, err)
			return nil, newUpstreamError(op, KindTimeout, 0, err)
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, newUpstreamError(op, KindCanceled, 0, err)
		}
		return nil, newUpstreamError(op, KindNetwork, 0, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, newUpstreamError(op, KindNetwork, 0, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Printf("[metadata] %s rate limited", op)
		return nil, newUpstreamError(op, KindRateLimited, resp.StatusCode, errors.New("rate limited"))
	case resp.StatusCode >= 500:
		return nil, newUpstreamError(op, KindUpstreamStatus, resp.StatusCode, errors.New("upstream error"))
	case resp.StatusCode >= 400:
		return nil, newUpstreamError(op, KindUpstreamStatus, resp.StatusCode, errors.New("client error"))
	}
	return body, nil
}

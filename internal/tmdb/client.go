// Package tmdb is a typed client for The Movie Database v3 API.
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/metrics"
	"github.com/cinescope/apiserver/types"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://api.themoviedb.org/3"
	breakerName    = "tmdb"
	maxBodyBytes   = 8 << 20
)

// Client calls TMDB through a rate limiter and a circuit breaker.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	language    string
	http        *http.Client
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
}

// New builds a client from config. The access token, when set, is sent as a
// bearer token; otherwise the api key goes in the query string.
func New(cfg config.TMDBConfig) (*Client, error) {
	if !cfg.Enabled() {
		return nil, ErrDisabled
	}

	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	limit := rate.Inf
	burst := 1
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
		burst = max(1, int(cfg.RateLimit))
	}

	c := &Client{
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		accessToken: cfg.AccessToken,
		language:    cfg.Language,
		http:        &http.Client{Timeout: timeout},
		limiter:     rate.NewLimiter(limit, burst),
		breaker:     newBreaker(),
	}
	return c, nil
}

func newBreaker() *gobreaker.CircuitBreaker[[]byte] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)
	return gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return !transient(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// DiscoverParams narrows a discover call.
type DiscoverParams struct {
	Page    int
	GenreID int
	SortBy  string
}

// Trending lists trending content for window "day" or "week".
func (c *Client) Trending(ctx context.Context, ct types.ContentType, window string, page int) (types.MediaPage, error) {
	if window != "day" {
		window = "week"
	}
	var out types.MediaPage
	err := c.get(ctx, "trending", fmt.Sprintf("/trending/%s/%s", ct, window), pageParams(page), &out)
	return out, err
}

func (c *Client) Popular(ctx context.Context, ct types.ContentType, page int) (types.MediaPage, error) {
	var out types.MediaPage
	err := c.get(ctx, "popular", fmt.Sprintf("/%s/popular", ct), pageParams(page), &out)
	return out, err
}

func (c *Client) TopRated(ctx context.Context, ct types.ContentType, page int) (types.MediaPage, error) {
	var out types.MediaPage
	err := c.get(ctx, "top_rated", fmt.Sprintf("/%s/top_rated", ct), pageParams(page), &out)
	return out, err
}

// Upcoming lists movies about to be released.
func (c *Client) Upcoming(ctx context.Context, page int) (types.MediaPage, error) {
	var out types.MediaPage
	err := c.get(ctx, "upcoming", "/movie/upcoming", pageParams(page), &out)
	return out, err
}

func (c *Client) Discover(ctx context.Context, ct types.ContentType, p DiscoverParams) (types.MediaPage, error) {
	params := pageParams(p.Page)
	if p.GenreID > 0 {
		params.Set("with_genres", strconv.Itoa(p.GenreID))
	}
	sortBy := p.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params.Set("sort_by", sortBy)

	var out types.MediaPage
	err := c.get(ctx, "discover", fmt.Sprintf("/discover/%s", ct), params, &out)
	return out, err
}

// Search queries kind "multi", "movie" or "tv".
func (c *Client) Search(ctx context.Context, kind, query string, page int) (types.MediaPage, error) {
	switch kind {
	case "movie", "tv":
	default:
		kind = "multi"
	}
	params := pageParams(page)
	params.Set("query", query)
	params.Set("include_adult", "false")

	var out types.MediaPage
	err := c.get(ctx, "search", "/search/"+kind, params, &out)
	return out, err
}

func (c *Client) MovieDetails(ctx context.Context, id int64) (types.MovieDetails, error) {
	var out types.MovieDetails
	err := c.get(ctx, "details", fmt.Sprintf("/movie/%d", id), nil, &out)
	return out, err
}

func (c *Client) TVShowDetails(ctx context.Context, id int64) (types.TVShowDetails, error) {
	var out types.TVShowDetails
	err := c.get(ctx, "details", fmt.Sprintf("/tv/%d", id), nil, &out)
	return out, err
}

func (c *Client) Credits(ctx context.Context, ct types.ContentType, id int64) (types.Credits, error) {
	var out types.Credits
	err := c.get(ctx, "credits", fmt.Sprintf("/%s/%d/credits", ct, id), nil, &out)
	return out, err
}

func (c *Client) Videos(ctx context.Context, ct types.ContentType, id int64) (types.Videos, error) {
	var out types.Videos
	err := c.get(ctx, "videos", fmt.Sprintf("/%s/%d/videos", ct, id), nil, &out)
	return out, err
}

func (c *Client) Reviews(ctx context.Context, ct types.ContentType, id int64, page int) (types.ExternalReviewsPage, error) {
	var out types.ExternalReviewsPage
	err := c.get(ctx, "reviews", fmt.Sprintf("/%s/%d/reviews", ct, id), pageParams(page), &out)
	return out, err
}

func (c *Client) Similar(ctx context.Context, ct types.ContentType, id int64, page int) (types.MediaPage, error) {
	var out types.MediaPage
	err := c.get(ctx, "similar", fmt.Sprintf("/%s/%d/similar", ct, id), pageParams(page), &out)
	return out, err
}

// Genres lists the genre ids TMDB knows for ct.
func (c *Client) Genres(ctx context.Context, ct types.ContentType) (types.GenreList, error) {
	var out types.GenreList
	err := c.get(ctx, "genres", fmt.Sprintf("/genre/%s/list", ct), nil, &out)
	return out, err
}

func pageParams(page int) url.Values {
	if page < 1 {
		page = 1
	}
	return url.Values{"page": {strconv.Itoa(page)}}
}

// get issues one GET, decoding a 2xx body into dest.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, dest any) error {
	start := time.Now()
	err := c.fetch(ctx, endpoint, path, params, dest)
	metrics.TMDBDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
	metrics.TMDBRequests.WithLabelValues(endpoint, outcome(err)).Inc()
	if err != nil {
		logging.Ctx(ctx).Debug().Err(err).Str("endpoint", endpoint).Str("path", path).Msg("tmdb request failed")
	}
	return err
}

func (c *Client) fetch(ctx context.Context, endpoint, path string, params url.Values, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, path, params)
	})
	if err != nil {
		return err
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("tmdb decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, path string, params url.Values) ([]byte, error) {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	if c.language != "" {
		query.Set("language", c.language)
	}
	if c.accessToken == "" {
		query.Set("api_key", c.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("tmdb request build: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tmdb request %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("tmdb read %s: %w", path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{}
		_ = json.Unmarshal(body, apiErr)
		apiErr.StatusCode = resp.StatusCode
		return nil, apiErr
	}
	return body, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

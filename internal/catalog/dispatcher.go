// Package catalog selects the TMDB listing behind a content row and
// accumulates its pages.
package catalog

import (
	"context"

	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/metrics"
	"github.com/cinescope/apiserver/internal/tmdb"
	"github.com/cinescope/apiserver/types"
)

// MaxPage is the last page TMDB serves for any listing.
const MaxPage = 500

// Source is the subset of the TMDB client the dispatcher needs.
type Source interface {
	Trending(ctx context.Context, ct types.ContentType, window string, page int) (types.MediaPage, error)
	TopRated(ctx context.Context, ct types.ContentType, page int) (types.MediaPage, error)
	Popular(ctx context.Context, ct types.ContentType, page int) (types.MediaPage, error)
	Discover(ctx context.Context, ct types.ContentType, p tmdb.DiscoverParams) (types.MediaPage, error)
	Upcoming(ctx context.Context, page int) (types.MediaPage, error)
}

// Criteria identifies a row: what content, which listing, and an optional genre.
type Criteria struct {
	ContentType types.ContentType
	FetchType   types.FetchType
	GenreID     int
}

func (c Criteria) key() string {
	return string(c.ContentType) + "_" + string(c.FetchType)
}

type strategy func(ctx context.Context, src Source, c Criteria, page int) (types.MediaPage, error)

func trending(ctx context.Context, src Source, c Criteria, page int) (types.MediaPage, error) {
	return src.Trending(ctx, c.ContentType, "week", page)
}

func topRated(ctx context.Context, src Source, c Criteria, page int) (types.MediaPage, error) {
	return src.TopRated(ctx, c.ContentType, page)
}

func popular(ctx context.Context, src Source, c Criteria, page int) (types.MediaPage, error) {
	return src.Popular(ctx, c.ContentType, page)
}

func byGenre(ctx context.Context, src Source, c Criteria, page int) (types.MediaPage, error) {
	return src.Discover(ctx, c.ContentType, tmdb.DiscoverParams{Page: page, GenreID: c.GenreID})
}

func upcoming(ctx context.Context, src Source, _ Criteria, page int) (types.MediaPage, error) {
	return src.Upcoming(ctx, page)
}

var strategies = map[string]strategy{
	"movie_trending": trending,
	"movie_topRated": topRated,
	"movie_popular":  popular,
	"movie_genre":    byGenre,
	"movie_upcoming": upcoming,
	"tv_trending":    trending,
	"tv_topRated":    topRated,
	"tv_popular":     popular,
	"tv_genre":       byGenre,
}

// Supported reports whether c maps to a listing.
func Supported(c Criteria) bool {
	_, ok := strategies[c.key()]
	return ok
}

// Dispatcher routes criteria to the matching TMDB listing.
type Dispatcher struct {
	src Source
}

func NewDispatcher(src Source) *Dispatcher {
	return &Dispatcher{src: src}
}

// Fetch returns one page for c. Pages past MaxPage and unknown criteria yield
// an empty page without an upstream call.
func (d *Dispatcher) Fetch(ctx context.Context, c Criteria, page int) (types.MediaPage, error) {
	if page < 1 {
		page = 1
	}
	if page > MaxPage {
		metrics.DispatchFallbacks.WithLabelValues("page_limit").Inc()
		return types.EmptyMediaPage(), nil
	}

	fetch, ok := strategies[c.key()]
	if !ok {
		metrics.DispatchFallbacks.WithLabelValues("unsupported").Inc()
		logging.Ctx(ctx).Warn().
			Str("content_type", string(c.ContentType)).
			Str("fetch_type", string(c.FetchType)).
			Msg("no listing for content row")
		return types.EmptyMediaPage(), nil
	}

	result, err := fetch(ctx, d.src, c, page)
	if err != nil {
		return types.MediaPage{}, err
	}
	if result.Results == nil {
		result.Results = []types.MediaItem{}
	}
	return result, nil
}

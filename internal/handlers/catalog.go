package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/cinescope/apiserver/internal/catalog"
	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/tmdb"
	"github.com/cinescope/apiserver/types"
	"github.com/go-chi/chi/v5"
	gobreaker "github.com/sony/gobreaker/v2"
)

// MediaSource is the part of the TMDB client served directly by /catalog.
type MediaSource interface {
	Search(ctx context.Context, kind, query string, page int) (types.MediaPage, error)
	MovieDetails(ctx context.Context, id int64) (types.MovieDetails, error)
	TVShowDetails(ctx context.Context, id int64) (types.TVShowDetails, error)
	Credits(ctx context.Context, ct types.ContentType, id int64) (types.Credits, error)
	Videos(ctx context.Context, ct types.ContentType, id int64) (types.Videos, error)
	Reviews(ctx context.Context, ct types.ContentType, id int64, page int) (types.ExternalReviewsPage, error)
	Similar(ctx context.Context, ct types.ContentType, id int64, page int) (types.MediaPage, error)
	Genres(ctx context.Context, ct types.ContentType) (types.GenreList, error)
}

// CatalogHandler proxies TMDB listings and lookups.
type CatalogHandler struct {
	dispatcher *catalog.Dispatcher
	source     MediaSource
}

func NewCatalogHandler(dispatcher *catalog.Dispatcher, source MediaSource) *CatalogHandler {
	return &CatalogHandler{dispatcher: dispatcher, source: source}
}

// CatalogRouter registers catalog routes. The second path segment is a
// listing name, or a numeric id for detail lookups.
func CatalogRouter(r chi.Router, dispatcher *catalog.Dispatcher, source MediaSource) {
	handler := NewCatalogHandler(dispatcher, source)

	r.Get("/search", handler.Search)
	r.Get("/genres/{contentType}", handler.Genres)
	r.Get("/{contentType}/{segment}", handler.ListingOrDetails)
	r.Get("/{contentType}/{segment}/credits", handler.Credits)
	r.Get("/{contentType}/{segment}/videos", handler.Videos)
	r.Get("/{contentType}/{segment}/reviews", handler.Reviews)
	r.Get("/{contentType}/{segment}/similar", handler.Similar)
}

func (h *CatalogHandler) ListingOrDetails(w http.ResponseWriter, r *http.Request) {
	ct, ok := contentTypeParam(w, r)
	if !ok {
		return
	}
	segment := chi.URLParam(r, "segment")
	if id, ok := parsePositiveInt64(segment); ok {
		h.details(w, r, ct, id)
		return
	}

	criteria := catalog.Criteria{ContentType: ct, FetchType: types.FetchType(segment)}
	if raw := strings.TrimSpace(r.URL.Query().Get("genre")); raw != "" {
		genre, err := strconv.Atoi(raw)
		if err != nil || genre < 1 {
			writeError(w, http.StatusBadRequest, "genre must be a positive integer")
			return
		}
		criteria.GenreID = genre
	}

	page, err := h.dispatcher.Fetch(r.Context(), criteria, parsePage(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) details(w http.ResponseWriter, r *http.Request, ct types.ContentType, id int64) {
	var (
		result any
		err    error
	)
	if ct == types.ContentTypeMovie {
		result, err = h.source.MovieDetails(r.Context(), id)
	} else {
		result, err = h.source.TVShowDetails(r.Context(), id)
	}
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *CatalogHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		writeError(w, http.StatusBadRequest, "query should not be empty")
		return
	}
	kind := r.URL.Query().Get("type")
	switch kind {
	case "", "multi", "movie", "tv":
	default:
		writeError(w, http.StatusBadRequest, "type must be one of: multi, movie, tv")
		return
	}

	page, err := h.source.Search(r.Context(), kind, query, parsePage(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *CatalogHandler) Genres(w http.ResponseWriter, r *http.Request) {
	ct, ok := contentTypeParam(w, r)
	if !ok {
		return
	}
	genres, err := h.source.Genres(r.Context(), ct)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, genres)
}

func (h *CatalogHandler) Credits(w http.ResponseWriter, r *http.Request) {
	ct, id, ok := contentRef(w, r)
	if !ok {
		return
	}
	credits, err := h.source.Credits(r.Context(), ct, id)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, credits)
}

func (h *CatalogHandler) Videos(w http.ResponseWriter, r *http.Request) {
	ct, id, ok := contentRef(w, r)
	if !ok {
		return
	}
	videos, err := h.source.Videos(r.Context(), ct, id)
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, videos)
}

func (h *CatalogHandler) Reviews(w http.ResponseWriter, r *http.Request) {
	ct, id, ok := contentRef(w, r)
	if !ok {
		return
	}
	reviews, err := h.source.Reviews(r.Context(), ct, id, parsePage(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *CatalogHandler) Similar(w http.ResponseWriter, r *http.Request) {
	ct, id, ok := contentRef(w, r)
	if !ok {
		return
	}
	similar, err := h.source.Similar(r.Context(), ct, id, parsePage(r))
	if err != nil {
		writeUpstreamError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, similar)
}

func contentTypeParam(w http.ResponseWriter, r *http.Request) (types.ContentType, bool) {
	ct := types.ContentType(chi.URLParam(r, "contentType"))
	if !ct.Valid() {
		writeError(w, http.StatusBadRequest, "contentType must be one of: movie, tv")
		return "", false
	}
	return ct, true
}

func contentRef(w http.ResponseWriter, r *http.Request) (types.ContentType, int64, bool) {
	ct, ok := contentTypeParam(w, r)
	if !ok {
		return "", 0, false
	}
	id, ok := parsePositiveInt64(chi.URLParam(r, "segment"))
	if !ok {
		writeError(w, http.StatusBadRequest, "id must be a positive integer")
		return "", 0, false
	}
	return ct, id, true
}

func writeUpstreamError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *tmdb.APIError
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		writeError(w, http.StatusNotFound, "Resource not found")
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		writeError(w, http.StatusServiceUnavailable, "Catalog is temporarily unavailable")
	case errors.Is(err, context.Canceled):
		writeError(w, http.StatusServiceUnavailable, "Request cancelled")
	case errors.As(err, &apiErr):
		logging.Ctx(r.Context()).Warn().Err(err).Msg("tmdb rejected request")
		writeError(w, http.StatusBadGateway, "Upstream catalog error")
	default:
		logging.Ctx(r.Context()).Error().Err(err).Msg("tmdb request failed")
		writeError(w, http.StatusBadGateway, "Upstream catalog error")
	}
}

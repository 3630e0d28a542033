package handlers

import (
	"net/http"

	"github.com/cinescope/apiserver/internal/services"
	"github.com/cinescope/apiserver/types"
	"github.com/go-chi/chi/v5"
)

// ReviewHandler serves user-submitted reviews.
type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// ReviewRouter registers review routes. They do not require authentication.
func ReviewRouter(r chi.Router, reviewService *services.ReviewService) {
	handler := NewReviewHandler(reviewService)

	r.Post("/", handler.CreateReview)
	r.Get("/", handler.ListReviews)
	r.Get("/movie/{movieID}", handler.ListMovieReviews)
	r.Delete("/{reviewID}", handler.DeleteReview)
}

func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req types.CreateReviewRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	review, err := h.reviewService.Create(r.Context(), req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) ListMovieReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.reviewService.ListByMovie(r.Context(), chi.URLParam(r, "movieID"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	if err := h.reviewService.Delete(r.Context(), chi.URLParam(r, "reviewID")); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

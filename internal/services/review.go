package services

import (
	"context"
	"errors"
	"strings"

	"github.com/cinescope/apiserver/internal/store"
	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
)

// ReviewAuthorRepository persists review authors keyed by username.
type ReviewAuthorRepository interface {
	Upsert(ctx context.Context, author types.ReviewAuthor) (types.ReviewAuthor, error)
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	Get(ctx context.Context, id string) (types.Review, error)
	List(ctx context.Context) ([]types.Review, error)
	ListByMovie(ctx context.Context, movieID string) ([]types.Review, error)
	Create(ctx context.Context, review types.Review) (types.Review, error)
	Delete(ctx context.Context, id string) error
}

// ReviewService encapsulates review use-cases.
type ReviewService struct {
	authors ReviewAuthorRepository
	reviews ReviewRepository
	events  EventPublisher
}

func NewReviewService(authors ReviewAuthorRepository, reviews ReviewRepository, events EventPublisher) *ReviewService {
	return &ReviewService{authors: authors, reviews: reviews, events: events}
}

// Create resolves the author by username, creating or refreshing it, and
// stores the review linked to that author.
func (s *ReviewService) Create(ctx context.Context, req types.CreateReviewRequest) (types.ReviewResponse, error) {
	author, err := s.authors.Upsert(ctx, types.ReviewAuthor{
		Name:       strings.TrimSpace(req.AuthorDetails.Name),
		Username:   strings.TrimSpace(req.AuthorDetails.Username),
		AvatarPath: req.AuthorDetails.ProfileImage,
		Rating:     req.AuthorDetails.Rating,
	})
	if err != nil {
		return types.ReviewResponse{}, err
	}

	review, err := s.reviews.Create(ctx, types.Review{
		Author:        req.Author,
		MovieID:       strings.TrimSpace(req.MovieID),
		AuthorDetails: author,
		Content:       req.Content,
		URL:           req.URL,
	})
	if err != nil {
		return types.ReviewResponse{}, err
	}

	resp := review.Response()
	publish(ctx, s.events, EventReviewCreated, resp)
	return resp, nil
}

// List returns every review, oldest first.
func (s *ReviewService) List(ctx context.Context) ([]types.ReviewResponse, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, err
	}
	return responses(reviews), nil
}

// ListByMovie returns the reviews of one movie, newest first.
func (s *ReviewService) ListByMovie(ctx context.Context, movieID string) ([]types.ReviewResponse, error) {
	reviews, err := s.reviews.ListByMovie(ctx, strings.TrimSpace(movieID))
	if err != nil {
		return nil, err
	}
	return responses(reviews), nil
}

// Delete removes a review by id.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidReviewID
	}
	review, err := s.reviews.Get(ctx, id)
	if err == nil {
		err = s.reviews.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(ErrNotFound, "Review with id %s not found", id)
		}
		return err
	}
	publish(ctx, s.events, EventReviewDeleted, map[string]string{"id": id, "movie_id": review.MovieID})
	return nil
}

func responses(reviews []types.Review) []types.ReviewResponse {
	out := make([]types.ReviewResponse, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, r.Response())
	}
	return out
}

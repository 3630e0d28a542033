package types

import "time"

// ReviewAuthor is the identity record backing a review's displayed author.
// Authors are keyed by username and upserted on every review submission.
type ReviewAuthor struct {
	// ID is the unique identifier of the author (UUID).
	ID string `json:"id" db:"id"`

	// Name is the display name of the author.
	Name string `json:"name" db:"name"`

	// Username is unique among authors and is the join key for upserts.
	Username string `json:"username" db:"username"`

	// AvatarPath is an optional image path or URL.
	AvatarPath *string `json:"avatar_path" db:"avatar_path"`

	// Rating is the optional score the author attached to their latest review.
	Rating *float64 `json:"rating" db:"rating"`
}

// Review is a user-submitted review for a movie.
type Review struct {
	// ID is the unique identifier of the review (UUID).
	ID string `json:"id" db:"id"`

	// Author is the display name captured at submission time.
	Author string `json:"author" db:"author"`

	// MovieID is the TMDB id of the reviewed content, stored as text.
	MovieID string `json:"movie_id" db:"movie_id"`

	// AuthorDetails is the resolved author row linked by author_id.
	AuthorDetails ReviewAuthor `json:"author_details" db:"-"`

	// Content is the free-text body of the review.
	Content string `json:"content" db:"content"`

	// URL optionally links to an external copy of the review.
	URL *string `json:"url" db:"url"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ReviewAuthorDetails is the author block of a review as exchanged with clients.
type ReviewAuthorDetails struct {
	Name         string   `json:"name" validate:"notblank,max=100"`
	Username     string   `json:"username" validate:"notblank,max=50"`
	ProfileImage *string  `json:"profile_image" validate:"omitempty,max=255"`
	Rating       *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
}

// CreateReviewRequest is the payload accepted when submitting a review.
type CreateReviewRequest struct {
	MovieID       string              `json:"movie_id" validate:"notblank,max=50"`
	Author        string              `json:"author" validate:"notblank,max=100"`
	AuthorDetails ReviewAuthorDetails `json:"author_details"`
	Content       string              `json:"content" validate:"notblank"`
	URL           *string             `json:"url" validate:"omitempty,url"`
}

// ReviewResponse is the stable response shape for reviews.
type ReviewResponse struct {
	ID            string              `json:"id"`
	Author        string              `json:"author"`
	AuthorDetails ReviewAuthorDetails `json:"author_details"`
	Content       string              `json:"content"`
	CreatedAt     string              `json:"created_at"`
	UpdatedAt     string              `json:"updated_at"`
	URL           *string             `json:"url"`
}

// Response maps a persisted review into its response shape.
func (r Review) Response() ReviewResponse {
	return ReviewResponse{
		ID:     r.ID,
		Author: r.Author,
		AuthorDetails: ReviewAuthorDetails{
			Name:         r.AuthorDetails.Name,
			Username:     r.AuthorDetails.Username,
			ProfileImage: r.AuthorDetails.AvatarPath,
			Rating:       r.AuthorDetails.Rating,
		},
		Content:   r.Content,
		CreatedAt: r.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: r.UpdatedAt.UTC().Format(time.RFC3339Nano),
		URL:       r.URL,
	}
}

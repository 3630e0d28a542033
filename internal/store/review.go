package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
)

// ReviewAuthorRepository handles persistence for review authors.
type ReviewAuthorRepository struct {
	db *sql.DB
}

func NewReviewAuthorRepository(db *sql.DB) *ReviewAuthorRepository {
	return &ReviewAuthorRepository{db: db}
}

// Upsert inserts the author or, when the username already exists, overwrites
// its name, avatar and rating. The persisted row is returned.
func (r *ReviewAuthorRepository) Upsert(ctx context.Context, author types.ReviewAuthor) (types.ReviewAuthor, error) {
	if author.ID == "" {
		author.ID = uuid.NewString()
	}

	const query = `
		INSERT INTO review_authors (id, name, username, avatar_path, rating)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE
		SET name = EXCLUDED.name,
			avatar_path = EXCLUDED.avatar_path,
			rating = EXCLUDED.rating
		RETURNING id, name, username, avatar_path, rating`
	saved, err := scanAuthor(r.db.QueryRowContext(
		ctx,
		query,
		author.ID,
		author.Name,
		author.Username,
		author.AvatarPath,
		author.Rating,
	))
	if err != nil {
		return types.ReviewAuthor{}, err
	}
	return saved, nil
}

// ReviewRepository handles persistence for reviews.
type ReviewRepository struct {
	db *sql.DB
}

func NewReviewRepository(db *sql.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewSelect = `
		SELECT r.id, r.author, r.movie_id, r.content, r.url, r.created_at, r.updated_at,
		       a.id, a.name, a.username, a.avatar_path, a.rating
		FROM reviews r
		JOIN review_authors a ON a.id = r.author_id`

func (r *ReviewRepository) Get(ctx context.Context, id string) (types.Review, error) {
	if _, err := uuid.Parse(id); err != nil {
		return types.Review{}, ErrNotFound
	}
	review, err := scanReview(r.db.QueryRowContext(ctx, reviewSelect+` WHERE r.id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Review{}, ErrNotFound
		}
		return types.Review{}, err
	}
	return review, nil
}

func (r *ReviewRepository) List(ctx context.Context) ([]types.Review, error) {
	return r.list(ctx, reviewSelect+` ORDER BY r.created_at ASC, r.id ASC`)
}

// ListByMovie returns the reviews of one movie, newest first.
func (r *ReviewRepository) ListByMovie(ctx context.Context, movieID string) ([]types.Review, error) {
	return r.list(ctx, reviewSelect+` WHERE r.movie_id = $1 ORDER BY r.created_at DESC, r.id DESC`, movieID)
}

func (r *ReviewRepository) list(ctx context.Context, query string, args ...any) ([]types.Review, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reviews := make([]types.Review, 0)
	for rows.Next() {
		review, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reviews, nil
}

// Create persists a review linked to review.AuthorDetails.ID, which must
// already exist.
func (r *ReviewRepository) Create(ctx context.Context, review types.Review) (types.Review, error) {
	now := time.Now().UTC()
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	review.CreatedAt = now
	review.UpdatedAt = now

	const query = `
		INSERT INTO reviews (id, author, movie_id, author_id, content, url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		review.ID,
		review.Author,
		review.MovieID,
		review.AuthorDetails.ID,
		review.Content,
		review.URL,
		review.CreatedAt,
		review.UpdatedAt,
	); err != nil {
		return types.Review{}, translate(err)
	}
	return review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `DELETE FROM reviews WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAuthor(row rowScanner) (types.ReviewAuthor, error) {
	var author types.ReviewAuthor
	var avatar sql.NullString
	var rating sql.NullFloat64
	if err := row.Scan(&author.ID, &author.Name, &author.Username, &avatar, &rating); err != nil {
		return types.ReviewAuthor{}, err
	}
	if avatar.Valid {
		author.AvatarPath = &avatar.String
	}
	if rating.Valid {
		author.Rating = &rating.Float64
	}
	return author, nil
}

func scanReview(row rowScanner) (types.Review, error) {
	var review types.Review
	var url, avatar sql.NullString
	var rating sql.NullFloat64
	if err := row.Scan(
		&review.ID,
		&review.Author,
		&review.MovieID,
		&review.Content,
		&url,
		&review.CreatedAt,
		&review.UpdatedAt,
		&review.AuthorDetails.ID,
		&review.AuthorDetails.Name,
		&review.AuthorDetails.Username,
		&avatar,
		&rating,
	); err != nil {
		return types.Review{}, err
	}
	if url.Valid {
		review.URL = &url.String
	}
	if avatar.Valid {
		review.AuthorDetails.AvatarPath = &avatar.String
	}
	if rating.Valid {
		review.AuthorDetails.Rating = &rating.Float64
	}
	return review, nil
}

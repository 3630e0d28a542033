package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

const userColumns = `id, email, username, password_hash, is_active, profile_picture,
		favorite_movies, favorite_tv_shows, created_at, updated_at`

// UserRepository handles persistence for users.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	if _, err := uuid.Parse(id); err != nil {
		return types.User{}, ErrNotFound
	}
	return r.getOne(ctx, query, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return r.getOne(ctx, query, email)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.getOne(ctx, query, username)
}

func (r *UserRepository) getOne(ctx context.Context, query string, arg any) (types.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	now := time.Now().UTC()
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []int64{}
	}
	if user.FavoriteTVShows == nil {
		user.FavoriteTVShows = []int64{}
	}

	const query = `
		INSERT INTO users (id, email, username, password_hash, is_active, profile_picture,
			favorite_movies, favorite_tv_shows, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.ProfilePicture,
		pq.Array(user.FavoriteMovies),
		pq.Array(user.FavoriteTVShows),
		user.CreatedAt,
		user.UpdatedAt,
	); err != nil {
		return types.User{}, translate(err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, user types.User) (types.User, error) {
	user.UpdatedAt = time.Now().UTC()
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []int64{}
	}
	if user.FavoriteTVShows == nil {
		user.FavoriteTVShows = []int64{}
	}

	const query = `
		UPDATE users
		SET email = $1,
			username = $2,
			password_hash = $3,
			is_active = $4,
			profile_picture = $5,
			favorite_movies = $6,
			favorite_tv_shows = $7,
			updated_at = $8
		WHERE id = $9`
	result, err := r.db.ExecContext(
		ctx,
		query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.IsActive,
		user.ProfilePicture,
		pq.Array(user.FavoriteMovies),
		pq.Array(user.FavoriteTVShows),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		return types.User{}, translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.User{}, err
	}
	if affected == 0 {
		return types.User{}, ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrNotFound
	}
	const query = `DELETE FROM users WHERE id = $1`
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (types.User, error) {
	var user types.User
	var picture sql.NullString
	var movies, shows pq.Int64Array
	if err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.IsActive,
		&picture,
		&movies,
		&shows,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return types.User{}, err
	}
	if picture.Valid {
		user.ProfilePicture = &picture.String
	}
	user.FavoriteMovies = []int64(movies)
	user.FavoriteTVShows = []int64(shows)
	if user.FavoriteMovies == nil {
		user.FavoriteMovies = []int64{}
	}
	if user.FavoriteTVShows == nil {
		user.FavoriteTVShows = []int64{}
	}
	return user, nil
}

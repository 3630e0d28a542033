package types

import "time"

// ContentType distinguishes movies from TV shows.
type ContentType string

const (
	ContentTypeMovie ContentType = "movie"
	ContentTypeTV    ContentType = "tv"
)

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	return c == ContentTypeMovie || c == ContentTypeTV
}

// User represents an account in the system.
// It contains identity, profile, favorites, and audit metadata.
type User struct {
	// ID is the unique identifier of the user (UUID).
	ID string `json:"id" db:"id"`

	// Email is the user's email address. Unique among users.
	Email string `json:"email" db:"email"`

	// Username is the unique public handle chosen by the user.
	Username string `json:"username" db:"username"`

	// PasswordHash stores the bcrypt representation of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// IsActive is false for disabled accounts, which may not log in.
	IsActive bool `json:"isActive" db:"is_active"`

	// ProfilePicture is an optional URL or object key for the avatar image.
	ProfilePicture *string `json:"profilePicture,omitempty" db:"profile_picture"`

	// FavoriteMovies holds TMDB ids of favorited movies.
	FavoriteMovies []int64 `json:"favoriteMovies" db:"favorite_movies"`

	// FavoriteTVShows holds TMDB ids of favorited TV shows.
	FavoriteTVShows []int64 `json:"favoriteTvShows" db:"favorite_tv_shows"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// PublicUser is the subset of user fields embedded in auth responses and tokens.
type PublicUser struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
}

// Public returns the public identity of the user.
func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Email: u.Email, Username: u.Username}
}

// Favorites lists the favorited content ids of a user.
type Favorites struct {
	Movies  []int64 `json:"movies"`
	TVShows []int64 `json:"tvShows"`
}

package types

import "github.com/golang-jwt/jwt/v5"

// Claims is the signed token payload shared between the backend and its clients.
// Subject carries the user id.
type Claims struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// User returns the identity encoded in the claims.
func (c Claims) User() PublicUser {
	return PublicUser{ID: c.Subject, Email: c.Email, Username: c.Username}
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	AccessToken string     `json:"access_token"`
	User        PublicUser `json:"user"`
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,username"`
	Password string `json:"password" validate:"required,password"`
}

// LoginRequest is the payload for credential login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest carries optional profile changes.
type UpdateProfileRequest struct {
	Username       *string `json:"username" validate:"omitempty,username"`
	ProfilePicture *string `json:"profilePicture" validate:"omitempty,max=2048"`
}

// UpdatePasswordRequest carries a password change.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,password"`
}

// ToggleFavoriteResponse reports the favorite state after a toggle.
type ToggleFavoriteResponse struct {
	IsFavorite bool `json:"isFavorite"`
}

// ToggleFavoriteRequest adds or removes a content id from a user's favorites.
type ToggleFavoriteRequest struct {
	ContentID   int64       `json:"contentId" validate:"required,gt=0"`
	ContentType ContentType `json:"contentType" validate:"required,oneof=movie tv"`
}

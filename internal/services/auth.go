package services

import (
	"context"
	"errors"
	"strings"

	"github.com/cinescope/apiserver/internal/store"
	"github.com/cinescope/apiserver/types"
	"golang.org/x/crypto/bcrypt"
)

// passwordCost is lowered by tests.
var passwordCost = bcrypt.DefaultCost

// TokenSigner issues and verifies session tokens.
type TokenSigner interface {
	Issue(user types.PublicUser) (string, error)
	Verify(token string) (types.Claims, error)
}

// AuthService encapsulates registration, login and token checks.
type AuthService struct {
	users  UserRepository
	tokens TokenSigner
	events EventPublisher
}

func NewAuthService(users UserRepository, tokens TokenSigner, events EventPublisher) *AuthService {
	return &AuthService{users: users, tokens: tokens, events: events}
}

// Register creates an account when neither the email nor the username is taken.
func (s *AuthService) Register(ctx context.Context, req types.RegisterRequest) (types.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	username := strings.TrimSpace(req.Username)

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return types.AuthResponse{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.AuthResponse{}, err
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return types.AuthResponse{}, ErrUsernameTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.AuthResponse{}, err
	}

	hashed, err := hashPassword(req.Password)
	if err != nil {
		return types.AuthResponse{}, err
	}

	user, err := s.users.Create(ctx, types.User{
		Email:        email,
		Username:     username,
		PasswordHash: hashed,
		IsActive:     true,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.AuthResponse{}, newError(ErrConflict, "Email or username already exists")
		}
		return types.AuthResponse{}, err
	}

	publish(ctx, s.events, EventUserRegistered, user.Public())
	return s.respond(user)
}

// Login verifies credentials and returns a fresh token.
func (s *AuthService) Login(ctx context.Context, req types.LoginRequest) (types.AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.AuthResponse{}, ErrInvalidCredentials
		}
		return types.AuthResponse{}, err
	}

	if !checkPassword(user.PasswordHash, req.Password) {
		return types.AuthResponse{}, ErrInvalidCredentials
	}
	if !user.IsActive {
		return types.AuthResponse{}, ErrInactiveAccount
	}

	return s.respond(user)
}

// ValidateToken returns the claims of a valid token.
func (s *AuthService) ValidateToken(token string) (types.Claims, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return types.Claims{}, ErrInvalidToken
	}
	return claims, nil
}

// UsernameAvailable reports whether no user holds username.
func (s *AuthService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.users.GetByUsername(ctx, strings.TrimSpace(username))
	if err == nil {
		return false, nil
	}
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	return false, err
}

func (s *AuthService) respond(user types.User) (types.AuthResponse, error) {
	token, err := s.tokens.Issue(user.Public())
	if err != nil {
		return types.AuthResponse{}, err
	}
	return types.AuthResponse{AccessToken: token, User: user.Public()}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), passwordCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

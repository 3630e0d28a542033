package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/cinescope/apiserver/types"
	"github.com/golang-jwt/jwt/v5"
)

func TestSignerRoundTrip(t *testing.T) {
	signer, err := NewSigner("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}

	user := types.PublicUser{ID: "5f0c8f7e-1111-4c1e-9a3e-0c4c1f3f2a10", Email: "ada@example.com", Username: "ada"}
	token, err := signer.Issue(user)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := signer.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.User() != user {
		t.Fatalf("unexpected identity: %+v", claims.User())
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatalf("expected iat and exp to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Fatalf("unexpected ttl: %s", got)
	}
}

func TestSignerRejectsExpired(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Minute)
	issuedAt := time.Now().Add(-time.Hour)
	signer.now = func() time.Time { return issuedAt }

	token, err := signer.Issue(types.PublicUser{ID: "u1", Email: "a@b.c", Username: "abc"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	signer.now = time.Now
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignerRejectsForeignSecret(t *testing.T) {
	issuer, _ := NewSigner("secret-a", time.Hour)
	verifier, _ := NewSigner("secret-b", time.Hour)

	token, _ := issuer.Issue(types.PublicUser{ID: "u1"})
	if _, err := verifier.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignerRejectsNoneAlgorithm(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)
	claims := jwt.RegisteredClaims{
		Subject:   "u1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestSignerRequiresSubject(t *testing.T) {
	signer, _ := NewSigner("test-secret", time.Hour)
	token, _ := signer.Issue(types.PublicUser{})
	if _, err := signer.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestNewSignerRequiresSecret(t *testing.T) {
	if _, err := NewSigner("  ", time.Hour); err == nil {
		t.Fatalf("expected error for empty secret")
	}
}

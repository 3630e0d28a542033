//go:build e2e

package e2e

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/cinescope/apiserver/config"
	"github.com/cinescope/apiserver/internal/apiclient"
	"github.com/cinescope/apiserver/internal/db"
	"github.com/cinescope/apiserver/internal/session"
	"github.com/cinescope/apiserver/types"
)

func newClient() (*apiclient.Client, *session.Store) {
	store := session.NewStore("")
	return apiclient.New(baseURL, store, session.NewErrorState()), store
}

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	client, store := newClient()
	username := fmt.Sprintf("viewer_%d", time.Now().UnixNano()%1_000_000_000)
	email := username + "@Example.com"

	available, err := client.UsernameAvailable(ctx, username)
	if err != nil || !available {
		t.Fatalf("expected username available, got %v %v", available, err)
	}

	if _, err := client.Register(ctx, types.RegisterRequest{Email: email, Username: username, Password: "Secret123!"}); err != nil {
		t.Fatalf("register: %v", err)
	}
	if !store.IsAuthenticated() {
		t.Fatalf("expected session after register")
	}

	_, err = client.Register(ctx, types.RegisterRequest{Email: email, Username: username + "x", Password: "Secret123!"})
	var httpErr *session.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusConflict {
		t.Fatalf("expected conflict on duplicate email, got %v", err)
	}

	if err := client.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	resp, err := client.Login(ctx, types.LoginRequest{Email: email, Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.User.Email != strings.ToLower(email) {
		t.Fatalf("expected lowercased email, got %q", resp.User.Email)
	}

	if added, err := client.ToggleFavorite(ctx, types.ContentTypeMovie, 550); err != nil || !added {
		t.Fatalf("toggle: %v %v", added, err)
	}
	favorite, err := client.IsFavorite(ctx, types.ContentTypeMovie, 550)
	if err != nil || !favorite {
		t.Fatalf("expected favorite, got %v %v", favorite, err)
	}
	if cur, _ := store.Current(); len(cur.User.FavoriteMovies) != 1 || cur.User.FavoriteMovies[0] != 550 {
		t.Fatalf("session not refreshed: %+v", cur.User)
	}

	if err := client.UpdatePassword(ctx, types.UpdatePasswordRequest{CurrentPassword: "Secret123!", NewPassword: "Secret456!"}); err != nil {
		t.Fatalf("update password: %v", err)
	}
	if _, err := client.Login(ctx, types.LoginRequest{Email: email, Password: "Secret123!"}); err == nil {
		t.Fatalf("old password should be rejected")
	}
}

func TestReviewLifecycle(t *testing.T) {
	ctx := context.Background()
	client, _ := newClient()
	movieID := fmt.Sprintf("%d", time.Now().UnixNano()%1_000_000)
	rating := 8.5

	created, err := client.CreateReview(ctx, types.CreateReviewRequest{
		MovieID: movieID,
		Author:  "Critic",
		AuthorDetails: types.ReviewAuthorDetails{
			Name:     "Critic",
			Username: "critic_e2e",
			Rating:   &rating,
		},
		Content: "Holds up on a rewatch.",
	})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}
	if created.ID == "" || created.AuthorDetails.Rating == nil || *created.AuthorDetails.Rating != rating {
		t.Fatalf("unexpected review: %+v", created)
	}

	revised := 6.0
	second, err := client.CreateReview(ctx, types.CreateReviewRequest{
		MovieID: movieID,
		Author:  "Critic",
		AuthorDetails: types.ReviewAuthorDetails{
			Name:     "Second Thoughts",
			Username: "critic_e2e",
			Rating:   &revised,
		},
		Content: "Less so on a third.",
	})
	if err != nil {
		t.Fatalf("second review: %v", err)
	}
	if second.AuthorDetails.Name != "Second Thoughts" || second.AuthorDetails.Rating == nil || *second.AuthorDetails.Rating != revised {
		t.Fatalf("author not updated: %+v", second.AuthorDetails)
	}

	conn, err := db.Open(ctx, config.LoadConfig().Database)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer conn.Close()
	var authors int
	var name string
	if err := conn.QueryRowContext(ctx, `SELECT COUNT(*), MAX(name) FROM review_authors WHERE username = $1`, "critic_e2e").Scan(&authors, &name); err != nil {
		t.Fatalf("count authors: %v", err)
	}
	if authors != 1 || name != "Second Thoughts" {
		t.Fatalf("expected one updated author row, got %d %q", authors, name)
	}

	reviews, err := client.MovieReviews(ctx, movieID)
	if err != nil {
		t.Fatalf("list reviews: %v", err)
	}
	if len(reviews) != 2 || reviews[0].ID != second.ID || reviews[1].ID != created.ID {
		t.Fatalf("unexpected reviews: %+v", reviews)
	}
	if reviews[1].AuthorDetails.Name != "Second Thoughts" {
		t.Fatalf("earlier review should show the updated author: %+v", reviews[1].AuthorDetails)
	}

	if err := client.DeleteReview(ctx, created.ID); err != nil {
		t.Fatalf("delete review: %v", err)
	}
	err = client.DeleteReview(ctx, created.ID)
	var httpErr *session.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Status != http.StatusNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

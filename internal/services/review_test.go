package services

import (
	"context"
	"errors"
	"testing"

	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
)

func reviewRequest(movieID, username, content string) types.CreateReviewRequest {
	rating := 8.5
	return types.CreateReviewRequest{
		MovieID: movieID,
		Author:  "Jane Doe",
		AuthorDetails: types.ReviewAuthorDetails{
			Name:     "Jane Doe",
			Username: username,
			Rating:   &rating,
		},
		Content: content,
	}
}

func TestCreateReviewReusesAuthor(t *testing.T) {
	authors := &memAuthors{}
	reviews := &memReviews{}
	events := &memEvents{}
	svc := NewReviewService(authors, reviews, events)
	ctx := context.Background()

	first, err := svc.Create(ctx, reviewRequest("550", "jane", "Great"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	again := reviewRequest("551", "jane", "Fine")
	rating := 6.0
	again.AuthorDetails.Name = "Jane D."
	again.AuthorDetails.Rating = &rating
	second, err := svc.Create(ctx, again)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if len(authors.authors) != 1 {
		t.Fatalf("expected one author, got %d", len(authors.authors))
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct review ids")
	}
	if second.AuthorDetails.Username != "jane" || second.AuthorDetails.Name != "Jane D." || second.AuthorDetails.Rating == nil || *second.AuthorDetails.Rating != 6 {
		t.Fatalf("unexpected author details: %+v", second.AuthorDetails)
	}
	if authors.authors["jane"].Name != "Jane D." {
		t.Fatalf("author row not updated: %+v", authors.authors["jane"])
	}
	if got := events.names(); len(got) != 2 || got[0] != EventReviewCreated {
		t.Fatalf("unexpected events: %v", got)
	}
}

func TestListReviewsOrdering(t *testing.T) {
	svc := NewReviewService(&memAuthors{}, &memReviews{}, nil)
	ctx := context.Background()

	for _, content := range []string{"one", "two", "three"} {
		if _, err := svc.Create(ctx, reviewRequest("550", "jane", content)); err != nil {
			t.Fatalf("create: %v", err)
		}
	}
	if _, err := svc.Create(ctx, reviewRequest("13", "bob", "other")); err != nil {
		t.Fatalf("create: %v", err)
	}

	all, err := svc.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 || all[0].Content != "one" {
		t.Fatalf("unexpected list: %+v", all)
	}

	byMovie, err := svc.ListByMovie(ctx, "550")
	if err != nil {
		t.Fatalf("list by movie: %v", err)
	}
	if len(byMovie) != 3 || byMovie[0].Content != "three" || byMovie[2].Content != "one" {
		t.Fatalf("unexpected order: %+v", byMovie)
	}

	none, err := svc.ListByMovie(ctx, "999")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v %v", none, err)
	}
}

func TestDeleteReview(t *testing.T) {
	events := &memEvents{}
	svc := NewReviewService(&memAuthors{}, &memReviews{}, events)
	ctx := context.Background()

	created, err := svc.Create(ctx, reviewRequest("550", "jane", "Great"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	last := events.events[len(events.events)-1]
	payload, _ := last.payload.(map[string]string)
	if last.name != EventReviewDeleted || payload["id"] != created.ID || payload["movie_id"] != "550" {
		t.Fatalf("unexpected delete event: %+v", last)
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, "not-a-uuid"); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
}

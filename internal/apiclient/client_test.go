package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cinescope/apiserver/internal/catalog"
	"github.com/cinescope/apiserver/internal/session"
	"github.com/cinescope/apiserver/types"
	"github.com/goccy/go-json"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *session.Store, *session.ErrorState) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	store := session.NewStore(filepath.Join(t.TempDir(), "session.json"))
	errs := session.NewErrorState()
	return New(srv.URL+"/", store, errs), store, errs
}

func TestLoginStoresSession(t *testing.T) {
	client, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.Email != "ada@example.com" {
			t.Errorf("unexpected email %q", req.Email)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(types.AuthResponse{
			AccessToken: "tok-1",
			User:        types.PublicUser{ID: "u1", Email: req.Email, Username: "ada"},
		})
	})

	resp, err := client.Login(context.Background(), types.LoginRequest{Email: "ada@example.com", Password: "Secret123!"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken != "tok-1" {
		t.Fatalf("unexpected token %q", resp.AccessToken)
	}
	if store.Token() != "tok-1" {
		t.Fatalf("session token not stored: %q", store.Token())
	}
	if cur, ok := store.Current(); !ok || cur.User.Username != "ada" {
		t.Fatalf("unexpected session user: %+v", cur)
	}
}

func TestRequestsCarryStoredToken(t *testing.T) {
	client, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer tok-2" {
			t.Errorf("unexpected authorization %q", got)
		}
		_ = json.NewEncoder(w).Encode(types.User{ID: "u1", Username: "ada", FavoriteMovies: []int64{7}})
	})
	if err := store.Save("tok-2", types.User{ID: "u1", Username: "old"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	user, err := client.Profile(context.Background())
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if user.Username != "ada" {
		t.Fatalf("unexpected user %+v", user)
	}
	if cur, _ := store.Current(); cur.User.Username != "ada" || len(cur.User.FavoriteMovies) != 1 {
		t.Fatalf("stored user not refreshed: %+v", cur.User)
	}
}

func TestErrorResponseBecomesHTTPError(t *testing.T) {
	client, _, errs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"statusCode":409,"message":"Email already exists","error":"Conflict"}`))
	})

	_, err := client.Register(context.Background(), types.RegisterRequest{Email: "a@b.co", Username: "ada", Password: "Secret123!"})
	var httpErr *session.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %v", err)
	}
	if httpErr.Status != http.StatusConflict || httpErr.Message != "Email already exists" {
		t.Fatalf("unexpected error %+v", httpErr)
	}
	if got, _ := errs.Get(session.GlobalKey); got != "Email already exists" {
		t.Fatalf("error state not recorded: %q", got)
	}
}

func TestUnauthorizedClearsSession(t *testing.T) {
	client, store, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	if err := store.Save("stale", types.User{ID: "u1"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	if _, err := client.Favorites(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
	if store.IsAuthenticated() {
		t.Fatalf("expected session to be cleared")
	}
}

func TestFetchBuildsCatalogPath(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/catalog/tv/genre" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "3" || r.URL.Query().Get("genre") != "18" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(types.MediaPage{
			Page:       3,
			Results:    []types.MediaItem{{ID: 1, Name: "Show"}},
			TotalPages: 4,
		})
	})

	var fetcher catalog.Fetcher = client
	page, err := fetcher.Fetch(context.Background(), catalog.Criteria{
		ContentType: types.ContentTypeTV,
		FetchType:   types.FetchGenre,
		GenreID:     18,
	}, 3)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if page.Page != 3 || len(page.Results) != 1 || page.Results[0].DisplayTitle() != "Show" {
		t.Fatalf("unexpected page %+v", page)
	}
}

func TestSearchAndGenres(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/catalog/search":
			q := r.URL.Query()
			if q.Get("query") != "the wire" || q.Get("type") != "tv" || q.Get("page") != "2" {
				t.Errorf("unexpected query %s", r.URL.RawQuery)
			}
			_ = json.NewEncoder(w).Encode(types.MediaPage{Page: 2, Results: []types.MediaItem{{ID: 1438, Name: "The Wire"}}})
		case "/catalog/genres/movie":
			_ = json.NewEncoder(w).Encode(types.GenreList{Genres: []types.Genre{{ID: 28, Name: "Action"}}})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	})
	ctx := context.Background()

	page, err := client.Search(ctx, "tv", "the wire", 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if page.Page != 2 || len(page.Results) != 1 || page.Results[0].ID != 1438 {
		t.Fatalf("unexpected page %+v", page)
	}

	genres, err := client.Genres(ctx, types.ContentTypeMovie)
	if err != nil {
		t.Fatalf("genres: %v", err)
	}
	if len(genres.Genres) != 1 || genres.Genres[0].Name != "Action" {
		t.Fatalf("unexpected genres %+v", genres)
	}
}

func TestDeleteReviewNoContent(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || !strings.HasPrefix(r.URL.Path, "/reviews/") {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	if err := client.DeleteReview(context.Background(), "2b1a2e1c-0f52-4d7e-9a47-1c1f4bbd5b10"); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestUploadProfilePictureSendsMultipart(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		file, header, err := r.FormFile("picture")
		if err != nil {
			t.Errorf("form file: %v", err)
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		defer file.Close()
		if header.Header.Get("Content-Type") != "image/png" || header.Filename != "me.png" {
			t.Errorf("unexpected part header %+v", header.Header)
		}
		pic := "profile-pictures/u1/x.png"
		_ = json.NewEncoder(w).Encode(types.User{ID: "u1", ProfilePicture: &pic})
	})

	user, err := client.UploadProfilePicture(context.Background(), "me.png", "image/png", strings.NewReader("\x89PNG"))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if user.ProfilePicture == nil {
		t.Fatalf("expected picture on user")
	}
}

package server

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/cinescope/apiserver/internal/storage"
	"github.com/cinescope/apiserver/internal/store"
	"github.com/cinescope/apiserver/internal/tmdb"
	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]types.User
}

func (m *memUsers) GetByID(_ context.Context, id string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) GetByUsername(_ context.Context, username string) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (m *memUsers) Create(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.users == nil {
		m.users = map[string]types.User{}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) Update(_ context.Context, user types.User) (types.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return types.User{}, store.ErrNotFound
	}
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

type memAuthors struct {
	mu      sync.Mutex
	authors map[string]types.ReviewAuthor
}

func (m *memAuthors) Upsert(_ context.Context, author types.ReviewAuthor) (types.ReviewAuthor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.authors == nil {
		m.authors = map[string]types.ReviewAuthor{}
	}
	author.ID = uuid.NewString()
	if existing, ok := m.authors[author.Username]; ok {
		author.ID = existing.ID
	}
	m.authors[author.Username] = author
	return author, nil
}

type memReviews struct {
	mu      sync.Mutex
	reviews []types.Review
}

func (m *memReviews) Get(_ context.Context, id string) (types.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.reviews {
		if r.ID == id {
			return r, nil
		}
	}
	return types.Review{}, store.ErrNotFound
}

func (m *memReviews) List(_ context.Context) ([]types.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.reviews), nil
}

func (m *memReviews) ListByMovie(_ context.Context, movieID string) ([]types.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []types.Review
	for i := len(m.reviews) - 1; i >= 0; i-- {
		if m.reviews[i].MovieID == movieID {
			out = append(out, m.reviews[i])
		}
	}
	return out, nil
}

func (m *memReviews) Create(_ context.Context, review types.Review) (types.Review, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	review.ID = uuid.NewString()
	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt
	m.reviews = append(m.reviews, review)
	return review, nil
}

func (m *memReviews) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.reviews {
		if r.ID == id {
			m.reviews = slices.Delete(m.reviews, i, i+1)
			return nil
		}
	}
	return store.ErrNotFound
}

type memObjects struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects == nil {
		m.objects = map[string][]byte{}
	}
	m.objects[key] = data
	return nil
}

func (m *memObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, storage.ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memObjects) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

// fakeCatalog answers every listing with three pages of two items.
type fakeCatalog struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeCatalog) record(call string, page int) types.MediaPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("%s:%d", call, page))
	return types.MediaPage{
		Page:         page,
		TotalPages:   3,
		TotalResults: 6,
		Results:      []types.MediaItem{{ID: int64(page * 10)}, {ID: int64(page*10 + 1)}},
	}
}

func (f *fakeCatalog) Trending(_ context.Context, ct types.ContentType, _ string, page int) (types.MediaPage, error) {
	return f.record("trending/"+string(ct), page), nil
}

func (f *fakeCatalog) TopRated(_ context.Context, ct types.ContentType, page int) (types.MediaPage, error) {
	return f.record("topRated/"+string(ct), page), nil
}

func (f *fakeCatalog) Upcoming(_ context.Context, page int) (types.MediaPage, error) {
	return f.record("upcoming/movie", page), nil
}

func (f *fakeCatalog) Popular(_ context.Context, ct types.ContentType, page int) (types.MediaPage, error) {
	return f.record("popular/"+string(ct), page), nil
}

func (f *fakeCatalog) Discover(_ context.Context, ct types.ContentType, p tmdb.DiscoverParams) (types.MediaPage, error) {
	return f.record(fmt.Sprintf("discover/%s/%d", ct, p.GenreID), p.Page), nil
}

func (f *fakeCatalog) Search(_ context.Context, kind, query string, page int) (types.MediaPage, error) {
	return f.record("search/"+kind+"/"+query, page), nil
}

func (f *fakeCatalog) MovieDetails(_ context.Context, id int64) (types.MovieDetails, error) {
	if id == 404 {
		return types.MovieDetails{}, &tmdb.APIError{StatusCode: 404}
	}
	return types.MovieDetails{MediaItem: types.MediaItem{ID: id, Title: "Heat"}, Runtime: 170}, nil
}

func (f *fakeCatalog) TVShowDetails(_ context.Context, id int64) (types.TVShowDetails, error) {
	return types.TVShowDetails{MediaItem: types.MediaItem{ID: id, Name: "The Wire"}, NumberOfSeasons: 5}, nil
}

func (f *fakeCatalog) Credits(_ context.Context, _ types.ContentType, id int64) (types.Credits, error) {
	return types.Credits{ID: id, Cast: []types.CastMember{{Name: "Al Pacino"}}}, nil
}

func (f *fakeCatalog) Videos(_ context.Context, _ types.ContentType, id int64) (types.Videos, error) {
	return types.Videos{ID: id, Results: []types.Video{{Key: "abc", Site: "YouTube"}}}, nil
}

func (f *fakeCatalog) Reviews(_ context.Context, _ types.ContentType, id int64, page int) (types.ExternalReviewsPage, error) {
	return types.ExternalReviewsPage{ID: id, Page: page, TotalPages: 1}, nil
}

func (f *fakeCatalog) Similar(_ context.Context, ct types.ContentType, id int64, page int) (types.MediaPage, error) {
	return f.record(fmt.Sprintf("similar/%s/%d", ct, id), page), nil
}

func (f *fakeCatalog) Genres(_ context.Context, _ types.ContentType) (types.GenreList, error) {
	return types.GenreList{Genres: []types.Genre{{ID: 28, Name: "Action"}}}, nil
}

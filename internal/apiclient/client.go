// Package apiclient is a typed client for the cinescope HTTP API.
package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cinescope/apiserver/internal/catalog"
	"github.com/cinescope/apiserver/internal/session"
	"github.com/cinescope/apiserver/types"
	"github.com/goccy/go-json"
)

// Client calls the API through a session.Transport, so every request carries
// the stored token and every failure lands in the error state.
type Client struct {
	baseURL string
	http    *http.Client
	session *session.Store
}

func New(baseURL string, store *session.Store, errs *session.ErrorState) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: &session.Transport{Session: store, Errors: errs},
		},
		session: store,
	}
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, req types.RegisterRequest) (types.AuthResponse, error) {
	var out types.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", req, &out); err != nil {
		return out, err
	}
	return out, c.storeAuth(out)
}

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, req types.LoginRequest) (types.AuthResponse, error) {
	var out types.AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", req, &out); err != nil {
		return out, err
	}
	return out, c.storeAuth(out)
}

// Logout forgets the stored session.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) Verify(ctx context.Context) (types.PublicUser, error) {
	var out struct {
		Valid bool             `json:"valid"`
		User  types.PublicUser `json:"user"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/verify", nil, &out)
	return out.User, err
}

func (c *Client) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	err := c.do(ctx, http.MethodGet, "/auth/usernames-available/"+url.PathEscape(username), nil, &out)
	return out.Available, err
}

// Profile fetches the current user and refreshes the stored copy.
func (c *Client) Profile(ctx context.Context) (types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodGet, "/users/profile", nil, &out); err != nil {
		return out, err
	}
	return out, c.session.UpdateUser(out)
}

func (c *Client) UpdateProfile(ctx context.Context, req types.UpdateProfileRequest) (types.User, error) {
	var out types.User
	if err := c.do(ctx, http.MethodPut, "/users/profile", req, &out); err != nil {
		return out, err
	}
	return out, c.session.UpdateUser(out)
}

// UploadProfilePicture sends an image as the multipart field "picture".
func (c *Client) UploadProfilePicture(ctx context.Context, filename, contentType string, r io.Reader) (types.User, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	header := textproto.MIMEHeader{}
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="picture"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return types.User{}, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return types.User{}, err
	}
	if err := mw.Close(); err != nil {
		return types.User{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+"/users/profile/picture", &buf)
	if err != nil {
		return types.User{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out types.User
	if err := c.send(req, &out); err != nil {
		return out, err
	}
	return out, c.session.UpdateUser(out)
}

func (c *Client) UpdatePassword(ctx context.Context, req types.UpdatePasswordRequest) error {
	return c.do(ctx, http.MethodPut, "/users/password", req, nil)
}

// ToggleFavorite flips a favorite, refreshes the stored profile and reports
// whether the content is now a favorite.
func (c *Client) ToggleFavorite(ctx context.Context, ct types.ContentType, id int64) (bool, error) {
	var out types.ToggleFavoriteResponse
	req := types.ToggleFavoriteRequest{ContentID: id, ContentType: ct}
	if err := c.do(ctx, http.MethodPost, "/users/favorites/toggle", req, &out); err != nil {
		return false, err
	}
	_, err := c.Profile(ctx)
	return out.IsFavorite, err
}

func (c *Client) Favorites(ctx context.Context) (types.Favorites, error) {
	var out types.Favorites
	err := c.do(ctx, http.MethodGet, "/users/favorites", nil, &out)
	return out, err
}

func (c *Client) IsFavorite(ctx context.Context, ct types.ContentType, id int64) (bool, error) {
	var out struct {
		IsFavorite bool `json:"isFavorite"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/users/favorites/%s/%d", ct, id), nil, &out)
	return out.IsFavorite, err
}

func (c *Client) CreateReview(ctx context.Context, req types.CreateReviewRequest) (types.ReviewResponse, error) {
	var out types.ReviewResponse
	err := c.do(ctx, http.MethodPost, "/reviews", req, &out)
	return out, err
}

func (c *Client) Reviews(ctx context.Context) ([]types.ReviewResponse, error) {
	var out []types.ReviewResponse
	err := c.do(ctx, http.MethodGet, "/reviews", nil, &out)
	return out, err
}

func (c *Client) MovieReviews(ctx context.Context, movieID string) ([]types.ReviewResponse, error) {
	var out []types.ReviewResponse
	err := c.do(ctx, http.MethodGet, "/reviews/movie/"+url.PathEscape(movieID), nil, &out)
	return out, err
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/reviews/"+url.PathEscape(id), nil, nil)
}

// Fetch loads one catalog page, so a Client can back a catalog.Row.
func (c *Client) Fetch(ctx context.Context, criteria catalog.Criteria, page int) (types.MediaPage, error) {
	q := url.Values{"page": {strconv.Itoa(page)}}
	if criteria.GenreID > 0 {
		q.Set("genre", strconv.Itoa(criteria.GenreID))
	}
	path := fmt.Sprintf("/catalog/%s/%s?%s", url.PathEscape(string(criteria.ContentType)), url.PathEscape(string(criteria.FetchType)), q.Encode())

	var out types.MediaPage
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) Search(ctx context.Context, kind, query string, page int) (types.MediaPage, error) {
	q := url.Values{"query": {query}, "page": {strconv.Itoa(page)}}
	if kind != "" {
		q.Set("type", kind)
	}
	var out types.MediaPage
	err := c.do(ctx, http.MethodGet, "/catalog/search?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) Genres(ctx context.Context, ct types.ContentType) (types.GenreList, error) {
	var out types.GenreList
	err := c.do(ctx, http.MethodGet, "/catalog/genres/"+string(ct), nil, &out)
	return out, err
}

func (c *Client) storeAuth(resp types.AuthResponse) error {
	return c.session.Save(resp.AccessToken, types.User{
		ID:       resp.User.ID,
		Email:    resp.User.Email,
		Username: resp.User.Username,
	})
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	return c.send(req, out)
}

// send performs req and decodes a 2xx body into out. Failures come back as
// *session.HTTPError carrying the same message the error state received.
func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &session.HTTPError{Status: resp.StatusCode, Message: session.Describe(resp.StatusCode, body)}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", req.Method, req.URL.Path, err)
	}
	return nil
}

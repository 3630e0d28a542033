package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"slices"
	"strings"

	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/storage"
	"github.com/cinescope/apiserver/internal/store"
	"github.com/cinescope/apiserver/types"
	"github.com/google/uuid"
)

// MaxPictureSize bounds profile picture uploads.
const MaxPictureSize = 5 << 20

const picturePrefix = "profile-pictures/"

var pictureExtensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
	Update(ctx context.Context, user types.User) (types.User, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds uploaded profile pictures.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// PictureUpload is a profile picture received from a client.
type PictureUpload struct {
	ContentType string
	Size        int64
	Body        io.Reader
}

// UserService encapsulates user use-cases.
type UserService struct {
	repo    UserRepository
	objects ObjectStore
}

// NewUserService builds a UserService. objects may be nil, in which case
// picture uploads are rejected.
func NewUserService(repo UserRepository, objects ObjectStore) *UserService {
	return &UserService{repo: repo, objects: objects}
}

// Profile returns the user identified by id.
func (s *UserService) Profile(ctx context.Context, id string) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, userError(err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of req.
func (s *UserService) UpdateProfile(ctx context.Context, id string, req types.UpdateProfileRequest) (types.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, userError(err)
	}

	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username != user.Username {
			existing, err := s.repo.GetByUsername(ctx, username)
			switch {
			case err == nil && existing.ID != user.ID:
				return types.User{}, ErrUsernameTaken
			case err != nil && !errors.Is(err, store.ErrNotFound):
				return types.User{}, err
			}
			user.Username = username
		}
	}
	if req.ProfilePicture != nil {
		picture := strings.TrimSpace(*req.ProfilePicture)
		if picture == "" {
			user.ProfilePicture = nil
		} else {
			user.ProfilePicture = &picture
		}
	}

	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.User{}, ErrUsernameTaken
		}
		return types.User{}, userError(err)
	}
	return updated, nil
}

// UploadProfilePicture stores the image and points the profile at it.
// A previously uploaded picture is removed once the profile is updated.
func (s *UserService) UploadProfilePicture(ctx context.Context, id string, upload PictureUpload) (types.User, error) {
	if s.objects == nil {
		return types.User{}, ErrUploadsDisabled
	}
	ext, ok := pictureExtensions[upload.ContentType]
	if !ok {
		return types.User{}, ErrUnsupportedImage
	}
	if upload.Size <= 0 || upload.Size > MaxPictureSize {
		return types.User{}, ErrImageTooLarge
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.User{}, userError(err)
	}

	key := path.Join(picturePrefix, user.ID, uuid.NewString()+ext)
	if err := s.objects.Put(ctx, key, upload.Body, upload.Size, upload.ContentType); err != nil {
		return types.User{}, fmt.Errorf("store profile picture: %w", err)
	}

	previous := user.ProfilePicture
	user.ProfilePicture = &key
	updated, err := s.repo.Update(ctx, user)
	if err != nil {
		_ = s.objects.Delete(ctx, key)
		return types.User{}, userError(err)
	}

	if previous != nil && strings.HasPrefix(*previous, picturePrefix) {
		if err := s.objects.Delete(ctx, *previous); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", *previous).Msg("remove old profile picture")
		}
	}
	return updated, nil
}

// OpenProfilePicture streams an uploaded picture. A picture set as an
// external URL is reported as not found.
func (s *UserService) OpenProfilePicture(ctx context.Context, id string) (io.ReadCloser, string, error) {
	if s.objects == nil {
		return nil, "", ErrUploadsDisabled
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, "", userError(err)
	}
	if user.ProfilePicture == nil || !strings.HasPrefix(*user.ProfilePicture, picturePrefix) {
		return nil, "", errNoPicture
	}

	body, err := s.objects.Get(ctx, *user.ProfilePicture)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, "", errNoPicture
		}
		return nil, "", fmt.Errorf("open profile picture: %w", err)
	}
	return body, contentTypeFor(*user.ProfilePicture), nil
}

// UpdatePassword replaces the password after checking the current one.
func (s *UserService) UpdatePassword(ctx context.Context, id string, req types.UpdatePasswordRequest) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return userError(err)
	}
	if !checkPassword(user.PasswordHash, req.CurrentPassword) {
		return ErrWrongPassword
	}
	if req.CurrentPassword == req.NewPassword {
		return ErrSamePassword
	}

	hashed, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hashed
	if _, err := s.repo.Update(ctx, user); err != nil {
		return userError(err)
	}
	return nil
}

// ToggleFavorite adds the content id to the matching favorites list, or
// removes it when already present. It reports whether the id is now a favorite.
func (s *UserService) ToggleFavorite(ctx context.Context, id string, req types.ToggleFavoriteRequest) (bool, error) {
	if !req.ContentType.Valid() {
		return false, ErrInvalidContentType
	}
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, userError(err)
	}

	var added bool
	switch req.ContentType {
	case types.ContentTypeMovie:
		user.FavoriteMovies, added = toggle(user.FavoriteMovies, req.ContentID)
	case types.ContentTypeTV:
		user.FavoriteTVShows, added = toggle(user.FavoriteTVShows, req.ContentID)
	}

	if _, err := s.repo.Update(ctx, user); err != nil {
		return false, userError(err)
	}
	return added, nil
}

// Favorites returns both favorites lists.
func (s *UserService) Favorites(ctx context.Context, id string) (types.Favorites, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Favorites{}, userError(err)
	}
	return favoritesOf(user), nil
}

// IsFavorite reports whether contentID is in the user's list for contentType.
// A missing user has no favorites.
func (s *UserService) IsFavorite(ctx context.Context, id string, contentType types.ContentType, contentID int64) (bool, error) {
	if !contentType.Valid() {
		return false, ErrInvalidContentType
	}
	user, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if contentType == types.ContentTypeMovie {
		return slices.Contains(user.FavoriteMovies, contentID), nil
	}
	return slices.Contains(user.FavoriteTVShows, contentID), nil
}

// Delete removes the account along with its uploaded picture.
func (s *UserService) Delete(ctx context.Context, id string) error {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return userError(err)
	}
	return s.delete(ctx, user)
}

// DeleteByUsername removes the account holding username.
func (s *UserService) DeleteByUsername(ctx context.Context, username string) error {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return userError(err)
	}
	return s.delete(ctx, user)
}

func (s *UserService) delete(ctx context.Context, user types.User) error {
	if err := s.repo.Delete(ctx, user.ID); err != nil {
		return userError(err)
	}
	if s.objects != nil && user.ProfilePicture != nil && strings.HasPrefix(*user.ProfilePicture, picturePrefix) {
		if err := s.objects.Delete(ctx, *user.ProfilePicture); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("key", *user.ProfilePicture).Msg("remove profile picture")
		}
	}
	return nil
}

func contentTypeFor(key string) string {
	ext := path.Ext(key)
	for contentType, e := range pictureExtensions {
		if e == ext {
			return contentType
		}
	}
	return "application/octet-stream"
}

// toggle returns ids with id removed when present, or appended otherwise,
// and whether it was appended.
func toggle(ids []int64, id int64) ([]int64, bool) {
	if i := slices.Index(ids, id); i >= 0 {
		return slices.Delete(slices.Clone(ids), i, i+1), false
	}
	return append(slices.Clone(ids), id), true
}

func favoritesOf(user types.User) types.Favorites {
	fav := types.Favorites{Movies: user.FavoriteMovies, TVShows: user.FavoriteTVShows}
	if fav.Movies == nil {
		fav.Movies = []int64{}
	}
	if fav.TVShows == nil {
		fav.TVShows = []int64{}
	}
	return fav
}

func userError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	return err
}

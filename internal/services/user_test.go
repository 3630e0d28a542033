package services

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"testing"

	"github.com/cinescope/apiserver/types"
)

func seedUser(t *testing.T, users *memUsers) types.User {
	t.Helper()
	hashed, err := hashPassword("Secret1!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	user, err := users.Create(context.Background(), types.User{
		Email:        "a@x.io",
		Username:     "alpha",
		PasswordHash: hashed,
		IsActive:     true,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return user
}

func TestToggleFavorite(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	svc := NewUserService(users, nil)
	ctx := context.Background()

	added, err := svc.ToggleFavorite(ctx, user.ID, types.ToggleFavoriteRequest{ContentID: 550, ContentType: types.ContentTypeMovie})
	if err != nil || !added {
		t.Fatalf("toggle: %v %v", added, err)
	}
	fav, err := svc.Favorites(ctx, user.ID)
	if err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if !slices.Equal(fav.Movies, []int64{550}) || len(fav.TVShows) != 0 {
		t.Fatalf("unexpected favorites: %+v", fav)
	}

	ok, err := svc.IsFavorite(ctx, user.ID, types.ContentTypeMovie, 550)
	if err != nil || !ok {
		t.Fatalf("expected favorite, got %v %v", ok, err)
	}
	ok, _ = svc.IsFavorite(ctx, user.ID, types.ContentTypeTV, 550)
	if ok {
		t.Fatalf("tv list should not contain movie id")
	}

	added, err = svc.ToggleFavorite(ctx, user.ID, types.ToggleFavoriteRequest{ContentID: 550, ContentType: types.ContentTypeMovie})
	if err != nil || added {
		t.Fatalf("toggle: %v %v", added, err)
	}
	fav, _ = svc.Favorites(ctx, user.ID)
	if len(fav.Movies) != 0 || fav.Movies == nil {
		t.Fatalf("expected empty movies, got %v", fav.Movies)
	}

	if _, err := svc.ToggleFavorite(ctx, user.ID, types.ToggleFavoriteRequest{ContentID: 1, ContentType: "anime"}); !errors.Is(err, ErrBadRequest) {
		t.Fatalf("expected bad request, got %v", err)
	}
	if _, err := svc.Favorites(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if ok, err := svc.IsFavorite(ctx, "missing", types.ContentTypeMovie, 550); ok || err != nil {
		t.Fatalf("missing user should have no favorites, got %v %v", ok, err)
	}
}

func TestUpdatePassword(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	svc := NewUserService(users, nil)
	ctx := context.Background()

	err := svc.UpdatePassword(ctx, user.ID, types.UpdatePasswordRequest{CurrentPassword: "Wrong1!!", NewPassword: "Better2@"})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected wrong password, got %v", err)
	}
	err = svc.UpdatePassword(ctx, user.ID, types.UpdatePasswordRequest{CurrentPassword: "Secret1!", NewPassword: "Secret1!"})
	if !errors.Is(err, ErrSamePassword) {
		t.Fatalf("expected same password, got %v", err)
	}
	if err := svc.UpdatePassword(ctx, user.ID, types.UpdatePasswordRequest{CurrentPassword: "Secret1!", NewPassword: "Better2@"}); err != nil {
		t.Fatalf("update password: %v", err)
	}

	stored, _ := users.GetByID(ctx, user.ID)
	if !checkPassword(stored.PasswordHash, "Better2@") {
		t.Fatalf("new password not stored")
	}
}

func TestUpdateProfile(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	if _, err := users.Create(context.Background(), types.User{Email: "b@x.io", Username: "beta"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc := NewUserService(users, nil)
	ctx := context.Background()

	taken := "beta"
	if _, err := svc.UpdateProfile(ctx, user.ID, types.UpdateProfileRequest{Username: &taken}); !errors.Is(err, ErrUsernameTaken) {
		t.Fatalf("expected username taken, got %v", err)
	}

	name := "gamma"
	pic := "https://img.test/a.png"
	updated, err := svc.UpdateProfile(ctx, user.ID, types.UpdateProfileRequest{Username: &name, ProfilePicture: &pic})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Username != "gamma" || updated.ProfilePicture == nil || *updated.ProfilePicture != pic {
		t.Fatalf("unexpected profile: %+v", updated)
	}
}

func TestUploadProfilePicture(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	ctx := context.Background()

	if _, err := NewUserService(users, nil).UploadProfilePicture(ctx, user.ID, picture("image/png", []byte("x"))); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}

	objects := &memObjects{}
	svc := NewUserService(users, objects)
	if _, err := svc.UploadProfilePicture(ctx, user.ID, picture("text/plain", []byte("x"))); !errors.Is(err, ErrUnsupportedImage) {
		t.Fatalf("expected unsupported image, got %v", err)
	}

	first, err := svc.UploadProfilePicture(ctx, user.ID, picture("image/png", []byte("first")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if first.ProfilePicture == nil || !strings.HasPrefix(*first.ProfilePicture, "profile-pictures/"+user.ID+"/") {
		t.Fatalf("unexpected key: %v", first.ProfilePicture)
	}

	second, err := svc.UploadProfilePicture(ctx, user.ID, picture("image/jpeg", []byte("second")))
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasSuffix(*second.ProfilePicture, ".jpg") {
		t.Fatalf("unexpected key: %s", *second.ProfilePicture)
	}
	if len(objects.objects) != 1 {
		t.Fatalf("expected old picture removed, have %d objects", len(objects.objects))
	}
	if string(objects.objects[*second.ProfilePicture]) != "second" {
		t.Fatalf("unexpected stored object")
	}

	body, contentType, err := svc.OpenProfilePicture(ctx, user.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer body.Close()
	data, _ := io.ReadAll(body)
	if string(data) != "second" || contentType != "image/jpeg" {
		t.Fatalf("unexpected picture %q %s", data, contentType)
	}
}

func TestOpenExternalProfilePicture(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	svc := NewUserService(users, &memObjects{})
	ctx := context.Background()

	external := "https://img.test/a.png"
	if _, err := svc.UpdateProfile(ctx, user.ID, types.UpdateProfileRequest{ProfilePicture: &external}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, _, err := svc.OpenProfilePicture(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteByUsername(t *testing.T) {
	users := newMemUsers()
	seedUser(t, users)
	svc := NewUserService(users, nil)

	if err := svc.DeleteByUsername(context.Background(), "alpha"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := svc.DeleteByUsername(context.Background(), "alpha"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestDeleteRemovesUploadedPicture(t *testing.T) {
	users := newMemUsers()
	user := seedUser(t, users)
	objects := &memObjects{}
	svc := NewUserService(users, objects)
	ctx := context.Background()

	if _, err := svc.UploadProfilePicture(ctx, user.ID, picture("image/png", []byte("x"))); err != nil {
		t.Fatalf("upload: %v", err)
	}
	if err := svc.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected picture removed, have %d objects", len(objects.objects))
	}
	if _, err := svc.Profile(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/cinescope/apiserver/internal/logging"
	"github.com/cinescope/apiserver/internal/services"
	"github.com/cinescope/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const formFieldPicture = "picture"

// UserHandler serves the authenticated user's own resources.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// UserRouter registers user routes. Every route requires a bearer token.
func UserRouter(r chi.Router, userService *services.UserService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewUserHandler(userService)

	r.Use(authMiddleware)
	r.Get("/profile", handler.GetProfile)
	r.Put("/profile", handler.UpdateProfile)
	r.Get("/profile/picture", handler.GetPicture)
	r.Put("/profile/picture", handler.UploadPicture)
	r.Put("/password", handler.UpdatePassword)
	r.Post("/favorites/toggle", handler.ToggleFavorite)
	r.Get("/favorites", handler.ListFavorites)
	r.Get("/favorites/{contentType}/{contentID}", handler.CheckFavorite)
}

func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	user, err := h.userService.Profile(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	var req types.UpdateProfileRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(r.Context(), claims.Subject, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UploadPicture accepts a multipart form with the image in field "picture".
func (h *UserHandler) UploadPicture(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, services.MaxPictureSize+(1<<20))
	file, header, err := r.FormFile(formFieldPicture)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeServiceError(w, r, services.ErrImageTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, "picture file is required")
		return
	}
	defer file.Close()

	user, err := h.userService.UploadProfilePicture(r.Context(), claims.Subject, services.PictureUpload{
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Body:        file,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// GetPicture streams the uploaded profile picture.
func (h *UserHandler) GetPicture(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	body, contentType, err := h.userService.OpenProfilePicture(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=300")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("stream profile picture")
	}
}

func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	var req types.UpdatePasswordRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePassword(r.Context(), claims.Subject, req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	var req types.ToggleFavoriteRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	favorite, err := h.userService.ToggleFavorite(r.Context(), claims.Subject, req)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, types.ToggleFavoriteResponse{IsFavorite: favorite})
}

func (h *UserHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	favorites, err := h.userService.Favorites(r.Context(), claims.Subject)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favorites)
}

func (h *UserHandler) CheckFavorite(w http.ResponseWriter, r *http.Request) {
	claims, _ := claimsFromContext(r.Context())
	contentType := types.ContentType(chi.URLParam(r, "contentType"))
	contentID, ok := parsePositiveInt64(chi.URLParam(r, "contentID"))
	if !ok {
		writeError(w, http.StatusBadRequest, "contentId must be a positive integer")
		return
	}

	favorite, err := h.userService.IsFavorite(r.Context(), claims.Subject, contentType, contentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, FavoriteStatusResponse{
		ContentID:   contentID,
		ContentType: contentType,
		IsFavorite:  favorite,
	})
}

type FavoriteStatusResponse struct {
	ContentID   int64             `json:"contentId"`
	ContentType types.ContentType `json:"contentType"`
	IsFavorite  bool              `json:"isFavorite"`
}

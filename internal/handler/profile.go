package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// ProfileHandler serves public profiles and the follow/unfollow toggles.
type ProfileHandler struct {
	profiles *service.ProfileService
	logger   *slog.Logger
}

func NewProfileHandler(profiles *service.ProfileService, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, logger: logger}
}

// profileEnvelope wraps every profile response body.
type profileEnvelope struct {
	Profile model.Profile `json:"profile"`
}

// HandleGet returns the profile for a username. Works anonymously; a
// logged-in viewer additionally gets the following flag.
//
// HTTP: GET /api/profiles/{username}
func (h *ProfileHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")
	viewerID, _ := auth.UserIDFromContext(r.Context())

	profile, err := h.profiles.Get(r.Context(), username, viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

// HandleFollow makes the authenticated user follow {username}.
//
// HTTP: POST /api/profiles/{username}/follow (authenticated)
func (h *ProfileHandler) HandleFollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	profile, err := h.profiles.Follow(r.Context(), userID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

// HandleUnfollow removes the authenticated user's follow of {username}.
//
// HTTP: DELETE /api/profiles/{username}/follow (authenticated)
func (h *ProfileHandler) HandleUnfollow(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	profile, err := h.profiles.Unfollow(r.Context(), userID, chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, profileEnvelope{Profile: *profile})
}

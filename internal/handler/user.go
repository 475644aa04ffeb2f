package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// UserHandler serves registration, login, and the current-user endpoints.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// userPayload is the wire shape of a user. The token rides inside the user
// object, and the stored hash never leaves the server.
type userPayload struct {
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
	Bio      string `json:"bio"`
	Image    string `json:"image"`
}

// userEnvelope wraps every user request and response body.
type userEnvelope struct {
	User userPayload `json:"user"`
}

func userResponse(u *model.User, token string) userEnvelope {
	return userEnvelope{User: userPayload{
		Email:    u.Email,
		Token:    token,
		Username: u.Username,
		Bio:      u.Bio,
		Image:    u.Image,
	}}
}

// HandleRegister creates an account.
//
// HTTP: POST /api/users
// Body: {"user": {"username": ..., "email": ..., "password": ...}}
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Username string `json:"username"`
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.users.Register(r.Context(), req.User.Username, req.User.Email, req.User.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, userResponse(user, token))
}

// HandleLogin exchanges credentials for a token.
//
// HTTP: POST /api/users/login
// Body: {"user": {"email": ..., "password": ...}}
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		User struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		} `json:"user"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.users.Login(r.Context(), req.User.Email, req.User.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user, token))
}

// HandleCurrent returns the authenticated user, echoing back the presented
// token.
//
// HTTP: GET /api/user (authenticated)
func (h *UserHandler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user, tokenFromHeader(r)))
}

// HandleUpdate patches the authenticated user. Absent fields stay untouched.
//
// HTTP: PUT /api/user (authenticated)
// Body: {"user": {"email": ..., "bio": ..., ...}} — all fields optional
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req struct {
		User service.UserPatch `json:"user"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, token, err := h.users.Update(r.Context(), userID, req.User)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, userResponse(user, token))
}

// tokenFromHeader returns the raw JWT from the Authorization header so the
// current-user response can echo the token the client presented.
func tokenFromHeader(r *http.Request) string {
	parts := strings.Fields(r.Header.Get("Authorization"))
	if len(parts) == 2 {
		return parts[1]
	}
	return ""
}

package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/todo-service/internal/auth"
	"github.com/sakif/todo-service/internal/model"
	"github.com/sakif/todo-service/internal/service"
)

// UserHandler manages registration, login and the caller's own profile.
type UserHandler struct {
	users  *service.UserService
	logger *slog.Logger
}

func NewUserHandler(users *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// TokenResponse is the body of a successful login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// HandleRegister: POST /users → 201 with the new user (no password hash).
func (h *UserHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var input model.UserInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.Register(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

// HandleGet: GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	user, err := h.users.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// HandleDelete: DELETE /users/{id} → 204
//
// 409 while the user still owns todos. When auth is enabled the route sits
// behind RequireAuth and the service checks the caller may delete id.
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	var caller *auth.Identity
	if ident, ok := auth.IdentityFromContext(r.Context()); ok {
		caller = &ident
	}

	if err := h.users.Delete(r.Context(), caller, id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleLogin checks credentials and issues a JWT.
//
// HTTP: POST /auth/login
// REQUEST BODY: {"username":"...","password":"..."}
//
// The token is returned in the body for API clients and also set as an
// HttpOnly cookie so browsers send it automatically.
func (h *UserHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var input model.LoginInput
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, err)
		return
	}

	res, err := h.users.Login(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    res.Token,
		Path:     "/",
		MaxAge:   int(auth.DefaultTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, TokenResponse{AccessToken: res.Token, TokenType: "bearer"})
}

// HandleLogout clears the token cookie.
//
// HTTP: POST /auth/logout
//
// Tokens are stateless, so the JWT stays valid until it expires; without
// the cookie the browser just stops sending it.
func (h *UserHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.TokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

// HandleMe returns the authenticated caller's profile.
//
// HTTP: GET /api/me (behind RequireAuth)
func (h *UserHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	ident, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{
			Error:  "unauthorized",
			Detail: "Could not validate credentials.",
		})
		return
	}

	user, err := h.users.GetByID(r.Context(), ident.UserID)
	if err != nil {
		h.logger.Warn("token for missing user", slog.Int64("user_id", ident.UserID))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

package handlers

import (
	"net/http"

	"eventmarket/internal/models"
	"eventmarket/internal/services"
)

type UserHandler struct {
	Service *services.UserService
	Cookies *CookieHelper
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.Service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	sess, user, err := h.Service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.Cookies.SetSession(w, sess.Token, sess.ExpiresAt); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SignInResponse{User: user, ExpiresAt: sess.ExpiresAt})
}

// Logout ends the session if there is one and always clears the cookie.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := sessionTokenFromContext(r.Context())
	if token == "" {
		token = h.Cookies.SessionToken(r)
	}
	if err := h.Service.Logout(r.Context(), token); err != nil {
		writeError(w, r, err)
		return
	}
	h.Cookies.ClearSession(w)
	w.WriteHeader(http.StatusNoContent)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := currentUser(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

package http

import (
	"encoding/json"
	"log"
	"net/http"

	"libras-quiz-service/internal/auth"
)

// AuthHandler exposes the identity provider operations over HTTP.
type AuthHandler struct {
	provider auth.Provider
	store    *auth.SessionStore
}

func NewAuthHandler(provider auth.Provider, store *auth.SessionStore) *AuthHandler {
	return &AuthHandler{provider: provider, store: store}
}

type credentialsPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name,omitempty"`
}

// Login signs the user in. Failures collapse to one generic message; callers
// cannot tell a wrong password from a missing account.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.provider.SignIn(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials, check and try again")
		return
	}
	h.store.Login(session.Identity)
	writeJSON(w, http.StatusOK, session)
}

// Register creates the account (and its zero-score profile) and signs it in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	session, err := h.provider.SignUp(r.Context(), payload.Email, payload.Password, payload.Name)
	if err != nil {
		log.Printf("auth: sign up: %v", err)
		writeError(w, http.StatusBadRequest, "registration failed, check the data and try again")
		return
	}
	h.store.Login(session.Identity)
	writeJSON(w, http.StatusCreated, session)
}

// Logout clears the session optimistically; it does not wait for the provider.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout()
	w.WriteHeader(http.StatusNoContent)
}

// Session reports the store's current snapshot.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	identity, resolving := h.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"identity":  identity,
		"resolving": resolving,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

package http

import (
	"errors"
	"log"
	"net/http"

	"libras-quiz-service/internal/app"
	"libras-quiz-service/internal/auth"
	"libras-quiz-service/internal/domain"
)

// APIHandler serves the catalog and profile reads.
type APIHandler struct {
	catalog  *app.CatalogService
	profiles *app.ProfileService
}

func NewAPIHandler(catalog *app.CatalogService, profiles *app.ProfileService) *APIHandler {
	return &APIHandler{catalog: catalog, profiles: profiles}
}

// ListChallenges returns the catalog with lock state for the caller. A failed
// profile read is logged and the viewer treated as zero-score, so only
// zero-threshold challenges show unlocked.
func (h *APIHandler) ListChallenges(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	profile, err := h.profiles.Get(r.Context(), identity)
	if err != nil {
		log.Printf("catalog: load profile %s: %v", identity.ID, err)
		profile = domain.Profile{ID: identity.ID}
	}

	views, err := h.catalog.List(r.Context(), profile)
	if err != nil {
		log.Printf("catalog: list challenges: %v", err)
		views = []app.ChallengeView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// Profile returns the caller's profile row.
func (h *APIHandler) Profile(w http.ResponseWriter, r *http.Request) {
	identity, _ := auth.IdentityFrom(r.Context())

	profile, err := h.profiles.Get(r.Context(), identity)
	if errors.Is(err, domain.ErrProfileNotFound) {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		log.Printf("profile: load %s: %v", identity.ID, err)
		writeError(w, http.StatusInternalServerError, "profile unavailable")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

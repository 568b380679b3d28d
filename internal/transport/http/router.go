package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"libras-quiz-service/internal/auth"
)

// NewRouter wires the public auth surface and the gated catalog, profile, and
// challenge-session routes.
func NewRouter(authHandler *AuthHandler, apiHandler *APIHandler, wsHandler *WSHandler, verifier auth.TokenVerifier) *chi.Mux {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/register", authHandler.Register)
		r.Post("/logout", authHandler.Logout)
		r.Get("/session", authHandler.Session)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(verifier))
		r.Get("/api/challenges", apiHandler.ListChallenges)
		r.Get("/api/profile", apiHandler.Profile)
		r.Get("/ws/challenge", wsHandler.ServeWS)
	})

	return r
}

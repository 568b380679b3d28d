package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"libras-quiz-service/internal/app"
	"libras-quiz-service/internal/auth"
	"libras-quiz-service/internal/domain"
	"libras-quiz-service/internal/infra/memory"
)

type testEnv struct {
	server *httptest.Server
	store  *memory.Store
	tokens *auth.TokenManager
}

// newTestEnv stands up the full router against the in-memory store, with a
// feedback window short enough for tests to ride out.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	store.Seed(
		[]domain.Challenge{
			{ID: "letra-a", Title: "Letra A", RequiredScore: 0},
			{ID: "letra-b", Title: "Letra B", RequiredScore: 100},
			{ID: "em-breve", Title: "Em Breve", RequiredScore: 0},
		},
		map[string][]domain.Question{
			"letra-a": {
				{ID: "q1", ChallengeID: "letra-a", Word: "A", Options: []string{"/letra-a/a.png", "/letra-b/b.png"}},
				{ID: "q2", ChallengeID: "letra-a", Word: "A", Options: []string{"/letra-a/a.png", "/letra-b/b.png"}},
			},
			"letra-b": {
				{ID: "q3", ChallengeID: "letra-b", Word: "B", Options: []string{"/letra-a/a.png", "/letra-b/b.png"}},
			},
		},
	)
	store.SeedProfile(domain.Profile{ID: "u1", Name: "Ana"})

	tokens := auth.NewTokenManager("test-secret", time.Hour)
	provider := auth.NewLocalProvider(store, store, auth.NewPasswordHasher(), tokens)
	sessionStore := auth.NewSessionStore(provider)
	t.Cleanup(sessionStore.Close)

	quiz := app.NewQuizService(store, store, store, store, app.WithFeedbackWindow(5*time.Millisecond))
	catalog := app.NewCatalogService(store)
	profiles := app.NewProfileService(store)

	router := NewRouter(
		NewAuthHandler(provider, sessionStore),
		NewAPIHandler(catalog, profiles),
		NewWSHandler(quiz, catalog, profiles),
		provider,
	)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store, tokens: tokens}
}

func (e *testEnv) tokenFor(t *testing.T, userID string) string {
	t.Helper()
	token, _, err := e.tokens.Generate(userID)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"libras-quiz-service/internal/app"
	"libras-quiz-service/internal/auth"
	"libras-quiz-service/internal/domain"
)

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	encoded, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("encode body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(encoded))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func getWithToken(t *testing.T, url, token string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("get %s: %v", url, err)
	}
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	defer resp.Body.Close()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestRegisterThenBrowseCatalog(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/auth/register", map[string]string{
		"email":    "ana@example.com",
		"password": "s3cret",
		"name":     "Ana",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status = %d, want 201", resp.StatusCode)
	}
	session := decodeBody[auth.Session](t, resp)
	if session.Token == "" || session.Identity.Email != "ana@example.com" {
		t.Fatalf("incomplete session %+v", session)
	}

	resp = getWithToken(t, env.server.URL+"/api/challenges", session.Token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("challenges status = %d, want 200", resp.StatusCode)
	}
	views := decodeBody[[]app.ChallengeView](t, resp)
	if len(views) != 3 {
		t.Fatalf("got %d challenges, want 3", len(views))
	}
	for _, v := range views {
		if v.ID == "letra-b" && v.Unlocked {
			t.Fatal("a fresh account must not unlock the 100-point challenge")
		}
	}
}

func TestRegisterRejectsTakenEmail(t *testing.T) {
	env := newTestEnv(t)
	payload := map[string]string{"email": "ana@example.com", "password": "s3cret"}

	resp := postJSON(t, env.server.URL+"/api/auth/register", payload)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first register status = %d, want 201", resp.StatusCode)
	}

	resp = postJSON(t, env.server.URL+"/api/auth/register", payload)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("duplicate register status = %d, want 400", resp.StatusCode)
	}
}

func TestLoginFailureIsGeneric(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/auth/register", map[string]string{
		"email": "ana@example.com", "password": "s3cret",
	})
	resp.Body.Close()

	resp = postJSON(t, env.server.URL+"/api/auth/login", map[string]string{
		"email": "ana@example.com", "password": "wrong",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", resp.StatusCode)
	}
	body := decodeBody[map[string]string](t, resp)
	if body["error"] != "invalid credentials, check and try again" {
		t.Fatalf("error message = %q", body["error"])
	}

	// Unknown account yields the very same response.
	resp = postJSON(t, env.server.URL+"/api/auth/login", map[string]string{
		"email": "nobody@example.com", "password": "s3cret",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("login status = %d, want 401", resp.StatusCode)
	}
	body = decodeBody[map[string]string](t, resp)
	if body["error"] != "invalid credentials, check and try again" {
		t.Fatalf("error message = %q", body["error"])
	}
}

func TestSessionReflectsLoginAndLogout(t *testing.T) {
	env := newTestEnv(t)

	resp := postJSON(t, env.server.URL+"/api/auth/register", map[string]string{
		"email": "ana@example.com", "password": "s3cret",
	})
	resp.Body.Close()

	resp, err := http.Get(env.server.URL + "/api/auth/session")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	snapshot := decodeBody[struct {
		Identity *domain.Identity `json:"identity"`
	}](t, resp)
	if snapshot.Identity == nil || snapshot.Identity.Email != "ana@example.com" {
		t.Fatalf("session identity = %+v", snapshot.Identity)
	}

	resp = postJSON(t, env.server.URL+"/api/auth/logout", map[string]string{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", resp.StatusCode)
	}

	resp, err = http.Get(env.server.URL + "/api/auth/session")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	snapshot = decodeBody[struct {
		Identity *domain.Identity `json:"identity"`
	}](t, resp)
	if snapshot.Identity != nil {
		t.Fatalf("identity survived logout: %+v", snapshot.Identity)
	}
}

func TestProfileEndpoint(t *testing.T) {
	env := newTestEnv(t)
	token := env.tokenFor(t, "u1")

	resp := getWithToken(t, env.server.URL+"/api/profile", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("profile status = %d, want 200", resp.StatusCode)
	}
	profile := decodeBody[domain.Profile](t, resp)
	if profile.Name != "Ana" || profile.TotalScore != 0 {
		t.Fatalf("unexpected profile %+v", profile)
	}

	resp = getWithToken(t, env.server.URL+"/api/profile", "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("unauthenticated profile status = %d, want 401", resp.StatusCode)
	}

	resp = getWithToken(t, env.server.URL+"/api/profile", env.tokenFor(t, "ghost"))
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown profile status = %d, want 404", resp.StatusCode)
	}
}

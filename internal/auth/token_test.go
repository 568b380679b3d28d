package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	tokens := NewTokenManager("secret", time.Hour)

	signed, expiresAt, err := tokens.Generate("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) < 59*time.Minute {
		t.Fatalf("expiry %v is too soon", expiresAt)
	}

	userID, err := tokens.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if userID != "u1" {
		t.Fatalf("verify returned %q, want u1", userID)
	}
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	signed, _, err := NewTokenManager("secret-a", time.Hour).Generate("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := NewTokenManager("secret-b", time.Hour).Verify(signed); err == nil {
		t.Fatal("token signed with another secret must not verify")
	}
}

func TestTokenRejectsExpired(t *testing.T) {
	tokens := NewTokenManager("secret", -time.Minute)
	signed, _, err := tokens.Generate("u1")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := tokens.Verify(signed); err == nil {
		t.Fatal("expired token must not verify")
	}
}

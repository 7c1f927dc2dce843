package auth

import (
	"testing"
	"time"
)

func testManager() *Manager {
	return NewManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, err := m.GenerateAccessToken(42, "staffer", "staff")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := m.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.UserID != 42 || claims.Username != "staffer" || claims.Role != "staff" {
		t.Fatalf("claims = %+v", claims)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	m := testManager()
	refresh, err := m.GenerateRefreshToken(1, "u", "admin")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}
	if _, err := m.ParseAccessToken(refresh); err == nil {
		t.Fatal("a refresh token must not pass as an access token")
	}
	access, err := m.GenerateAccessToken(1, "u", "admin")
	if err != nil {
		t.Fatalf("generate access: %v", err)
	}
	if _, err := m.ParseRefreshToken(access); err == nil {
		t.Fatal("an access token must not pass as a refresh token")
	}
}

func TestExpiredToken(t *testing.T) {
	m := NewManager("a", "r", -time.Minute, time.Hour)
	token, err := m.GenerateAccessToken(7, "u", "staff")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if _, err := m.ParseAccessToken(token); err != ErrTokenExpired {
		t.Fatalf("err = %v, want ErrTokenExpired", err)
	}
}

func TestTamperedToken(t *testing.T) {
	m := testManager()
	token, err := m.GenerateAccessToken(7, "u", "staff")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	other := NewManager("different-secret", "r", time.Minute, time.Hour)
	if _, err := other.ParseAccessToken(token); err != ErrTokenInvalid {
		t.Fatalf("err = %v, want ErrTokenInvalid", err)
	}
}

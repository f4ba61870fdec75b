package main

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/playothello/othello-api"
)

func TestGenerateAndParseToken(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	user := createTestUser(t, db, "alice")

	token, err := generateToken(cfg, user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	claims, err := parseToken(cfg, token)
	if err != nil {
		t.Fatalf("Failed to parse token: %v", err)
	}

	if claims.UserID != user.ID {
		t.Errorf("Expected userId %s, got %s", user.ID, claims.UserID)
	}
	if claims.Issuer != cfg.JWTIssuer {
		t.Errorf("Expected issuer %s, got %s", cfg.JWTIssuer, claims.Issuer)
	}
	if claims.ID == "" {
		t.Error("Expected a token id")
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 || ttl > tokenTTL {
		t.Errorf("Unexpected token lifetime: %v", ttl)
	}
}

func TestParseTokenRejections(t *testing.T) {
	db := setupTestDB(t)
	cfg := testConfig()
	user := createTestUser(t, db, "alice")

	sign := func(claims JWTClaims, secret string) string {
		t.Helper()
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("Failed to sign test token: %v", err)
		}
		return s
	}

	base := JWTClaims{
		UserID: user.ID,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Audience:  jwt.ClaimStrings{cfg.JWTAudience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	expired := base
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Second))

	wrongIssuer := base
	wrongIssuer.Issuer = "someone-else"

	wrongAudience := base
	wrongAudience.Audience = jwt.ClaimStrings{"other-clients"}

	noExpiry := base
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name  string
		token string
	}{
		{"expired", sign(expired, cfg.JWTSecret)},
		{"wrong issuer", sign(wrongIssuer, cfg.JWTSecret)},
		{"wrong audience", sign(wrongAudience, cfg.JWTSecret)},
		{"missing expiry", sign(noExpiry, cfg.JWTSecret)},
		{"wrong secret", sign(base, "other-secret-other-secret-other-secret")},
		{"garbage", "not.a.token"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := parseToken(cfg, tc.token); othello.KindOf(err) != othello.KindAuth {
				t.Errorf("Expected auth error, got %v", err)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	db = setupTestDB(t)
	cfg = testConfig()
	user := createTestUser(t, db, "alice")

	token, err := generateToken(cfg, user)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	var seen *User
	handler := authMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = getMustUserFromContext(r)
		w.WriteHeader(http.StatusOK)
	}))

	// Valid token
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	if seen == nil || seen.ID != user.ID {
		t.Error("Expected authenticated user in context")
	}

	// Missing header
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 without token, got %d", rec.Code)
	}

	// Deleted account
	if err := deleteUserCascade(db, user.ID); err != nil {
		t.Fatalf("Failed to delete user: %v", err)
	}
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("Expected 401 for deleted account, got %d", rec.Code)
	}
}

func TestRequireAdmin(t *testing.T) {
	db = setupTestDB(t)
	cfg = testConfig()
	player := createTestUser(t, db, "alice")
	admin := createTestUser(t, db, "boss")
	if err := assignRole(db, "boss@example.com", othello.RoleAdmin); err != nil {
		t.Fatalf("Failed to assign admin role: %v", err)
	}

	handler := authMiddleware(requireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	call := func(u *User) int {
		t.Helper()
		token, err := generateToken(cfg, u)
		if err != nil {
			t.Fatalf("Failed to generate token: %v", err)
		}
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := call(player); code != http.StatusForbidden {
		t.Errorf("Expected 403 for player, got %d", code)
	}
	if code := call(admin); code != http.StatusOK {
		t.Errorf("Expected 200 for admin, got %d", code)
	}
}

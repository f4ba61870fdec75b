package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/playothello/othello-api"
)

// Define context key type to avoid collisions
type contextKey string

const userContextKey contextKey = "user"

// tokenTTL is how long an issued bearer token stays valid.
const tokenTTL = 2 * time.Hour

// JWTClaims is the claim set carried by every issued token.
type JWTClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// generateToken signs a bearer token for user with the configured issuer and
// audience.
func generateToken(cfg *Config, user *User) (string, error) {
	now := time.Now()
	claims := JWTClaims{
		UserID:   user.ID,
		Username: user.UserName,
		Email:    user.Email,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.JWTIssuer,
			Subject:   user.ID,
			Audience:  jwt.ClaimStrings{cfg.JWTAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenTTL)),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        newID(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.JWTSecret))
}

// parseToken validates signature, issuer, audience and expiry with zero
// clock-skew tolerance and returns the claims.
func parseToken(cfg *Config, tokenString string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(cfg.JWTIssuer),
		jwt.WithAudience(cfg.JWTAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, othello.Authf("invalid or expired token")
	}
	return claims, nil
}

// currentUser resolves the bearer token on r to its account.
func currentUser(r *http.Request) (*User, error) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return nil, othello.Authf("missing or invalid authorization header")
	}

	claims, err := parseToken(cfg, strings.TrimPrefix(authHeader, "Bearer "))
	if err != nil {
		return nil, err
	}

	var user User
	if err := db.First(&user, "id = ?", claims.UserID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, othello.Authf("account no longer exists")
		}
		return nil, othello.Internal("could not load account", err)
	}

	return &user, nil
}

// authMiddleware rejects requests without a valid bearer token and stores
// the authenticated user in the request context.
func authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := currentUser(r)
		if err != nil {
			log.Warnw("authentication failed", "path", r.URL.Path, zap.Error(err))
			respondError(w, r, err)
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin gates a route on the Admin role. Must run after
// authMiddleware.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := getMustUserFromContext(r)
		if user.Role != othello.RoleAdmin {
			respondError(w, r, othello.Forbiddenf("admin role required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to get user from request context
func getUserFromContext(r *http.Request) *User {
	if user, ok := r.Context().Value(userContextKey).(*User); ok && user != nil {
		return user
	}
	return nil
}

// Helper to get user from request context with panic on nil (for protected routes)
func getMustUserFromContext(r *http.Request) *User {
	user := getUserFromContext(r)
	if user == nil {
		panic("user is nil in protected route - auth middleware failed")
	}
	return user
}

package web

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// ===== Bearer-token identity =====

// AuthManager parses the platform's HS256 bearer tokens. Authentication is
// optional on every job route: anonymous submissions are allowed, and
// ownership is enforced per job when polling.
type AuthManager struct {
	secret []byte
}

func NewAuthManager(secret string) *AuthManager {
	return &AuthManager{secret: []byte(secret)}
}

type callerKey struct{}

// CallerID returns the authenticated user id, or "" for anonymous callers.
func CallerID(ctx context.Context) string {
	id, _ := ctx.Value(callerKey{}).(string)
	return id
}

// Middleware resolves the caller's identity. A missing token means
// anonymous; a present but invalid token is rejected with 401.
func (a *AuthManager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hdr := r.Header.Get("Authorization")
		if hdr == "" {
			next.ServeHTTP(w, r)
			return
		}
		if !strings.HasPrefix(strings.ToLower(hdr), "bearer ") {
			writeError(w, http.StatusUnauthorized, "Malformed authorization header", nil)
			return
		}
		subject, err := a.parse(strings.TrimSpace(hdr[7:]))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Invalid token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), callerKey{}, subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (a *AuthManager) parse(tok string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(tok, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" {
		return "", errors.New("invalid token")
	}
	return claims.Subject, nil
}

// Mint signs a token for user id; used by tests and dev tooling.
func (a *AuthManager) Mint(userID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: userID})
	return token.SignedString(a.secret)
}

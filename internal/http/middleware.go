package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/chouseangly/my-app/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const RoleAdmin = "admin"

type contextKey string

const shopperKey contextKey = "shopper"

// Claims is the bearer token payload issued by the storefront auth service.
type Claims struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Authenticator verifies HS256 bearer tokens.
type Authenticator struct {
	secret []byte
}

func NewAuthenticator(secret []byte) *Authenticator {
	return &Authenticator{secret: secret}
}

// GenerateToken signs claims for userID. Used by tests and local tooling;
// production tokens come from the auth service.
func (a *Authenticator) GenerateToken(userID, name, role string, ttl time.Duration) (string, error) {
	claims := &Claims{
		UserID: userID,
		Name:   name,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func (a *Authenticator) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.UserID == "" {
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, errors.New("token has no user id")
	}
	return claims, nil
}

// Middleware rejects requests without a valid bearer token and stores the
// shopper in the request context. The raw token is kept so it can be
// forwarded to the remote API.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		if auth == "" {
			respondError(w, http.StatusUnauthorized, "unauthorized", "missing authorization header")
			return
		}
		parts := strings.Fields(auth)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid authorization header")
			return
		}

		claims, err := a.parse(parts[1])
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthorized", "invalid or expired token")
			return
		}

		shopper := domain.Shopper{UserID: claims.UserID, Name: claims.Name, Role: claims.Role, Token: parts[1]}
		next.ServeHTTP(w, r.WithContext(withShopper(r.Context(), shopper)))
	})
}

// AdminOnly requires the admin role; it must run after Middleware.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		shopper, ok := shopperFromContext(r.Context())
		if !ok || shopper.Role != RoleAdmin {
			respondError(w, http.StatusForbidden, "forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withShopper(ctx context.Context, s domain.Shopper) context.Context {
	return context.WithValue(ctx, shopperKey, s)
}

func shopperFromContext(ctx context.Context) (domain.Shopper, bool) {
	s, ok := ctx.Value(shopperKey).(domain.Shopper)
	return s, ok && s.UserID != ""
}

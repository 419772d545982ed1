package handler

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/dmaia-dev/reelpick/internal/service"
)

type contextKey string

const userContextKey contextKey = "user"

// UserFromContext extracts the authenticated user from the request context.
// Returns nil if no user is authenticated.
func UserFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userContextKey).(*domain.User)
	return user
}

// RequireAuth protects routes requiring authentication. It extracts the
// bearer credential, validates it, and resolves it against the store, so
// credentials for deleted or deactivated accounts are rejected even before
// they expire. The resolved user is injected into the request context.
func RequireAuth(accounts *service.AccountService, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := authenticateRequest(r, accounts)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated.")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func authenticateRequest(r *http.Request, accounts *service.AccountService) (*domain.User, error) {
	credential, err := bearerCredential(r)
	if err != nil {
		return nil, err
	}

	userID, err := accounts.ValidateCredential(credential)
	if err != nil {
		return nil, err
	}

	user, err := accounts.GetUserByID(r.Context(), userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, domain.ErrUnauthorized
	}

	return user, nil
}

// bearerCredential reads the credential from the Authorization header,
// falling back to the cookie the browser client uses.
func bearerCredential(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
			return "", domain.ErrUnauthorized
		}
		return token, nil
	}

	cookie, err := r.Cookie("auth_token")
	if err != nil {
		return "", domain.ErrUnauthorized
	}
	return cookie.Value, nil
}

// RateLimit rejects requests exceeding the per-client budget with 429.
// Keyed by remote IP.
func RateLimit(limiter *service.RateLimiter, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		host, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			host = r.RemoteAddr
		}
		if !limiter.Allow(host) {
			writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SecurityHeaders sets baseline security headers on every response.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

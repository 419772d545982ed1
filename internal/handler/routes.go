package handler

import (
	"net/http"

	"github.com/dmaia-dev/reelpick/internal/catalog"
	"github.com/dmaia-dev/reelpick/internal/service"
)

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, accounts *service.AccountService, movies *catalog.Client, limiter *service.RateLimiter, cookieSecure bool) {
	auth := NewAuthHandler(accounts, cookieSecure)
	account := NewAccountHandler(accounts, cookieSecure)
	suggest := NewCatalogHandler(movies)

	mux.HandleFunc("GET /healthz", HandleHealthz)

	// The credential-guessing surface sits behind the rate limiter.
	mux.Handle("POST /api/auth/register", RateLimit(limiter, http.HandlerFunc(auth.HandleRegister)))
	mux.Handle("POST /api/auth/login", RateLimit(limiter, http.HandlerFunc(auth.HandleLogin)))
	mux.Handle("POST /api/auth/resend", RateLimit(limiter, http.HandlerFunc(auth.HandleResendConfirmation)))
	mux.HandleFunc("GET /api/auth/activate/{token}", auth.HandleActivate)
	mux.HandleFunc("POST /api/auth/logout", auth.HandleLogout)
	mux.Handle("GET /api/auth/me", RequireAuth(accounts, http.HandlerFunc(auth.HandleMe)))

	mux.Handle("PATCH /api/account/name", RequireAuth(accounts, http.HandlerFunc(account.HandleUpdateName)))
	mux.Handle("PUT /api/account/password", RequireAuth(accounts, http.HandlerFunc(account.HandleUpdatePassword)))
	mux.Handle("DELETE /api/account", RequireAuth(accounts, http.HandlerFunc(account.HandleDeleteAccount)))

	mux.Handle("GET /api/movies/suggest", RequireAuth(accounts, http.HandlerFunc(suggest.HandleSuggest)))
}

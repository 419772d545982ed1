package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dmaia-dev/reelpick/internal/domain"
	"github.com/dmaia-dev/reelpick/internal/service"
)

// AccountHandler handles profile mutations for the authenticated user.
type AccountHandler struct {
	accounts     *service.AccountService
	cookieSecure bool
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accounts *service.AccountService, cookieSecure bool) *AccountHandler {
	return &AccountHandler{accounts: accounts, cookieSecure: cookieSecure}
}

// HandleUpdateName changes the display name of the authenticated user.
// PATCH /api/account/name
// Request:  {"username":"..."}
// Response: {"user": {...}}
func (h *AccountHandler) HandleUpdateName(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		Username string `json:"username"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	updated, err := h.accounts.UpdateName(r.Context(), user.ID, req.Username)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account no longer exists.")
		case errors.Is(err, domain.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		default:
			slog.Error("update name", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": toUserDTO(updated),
	})
}

// HandleUpdatePassword changes the password of the authenticated user. The
// new password is supplied twice; the equality check lives here at the edge,
// a mismatch never reaches the service.
// PUT /api/account/password
// Request: {"currentPassword":"...","newPassword":"...","confirmPassword":"..."}
// Response: 204 No Content
func (h *AccountHandler) HandleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
		ConfirmPassword string `json:"confirmPassword"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	if req.NewPassword != req.ConfirmPassword {
		writeError(w, http.StatusUnprocessableEntity, "Passwords do not match.")
		return
	}

	err := h.accounts.UpdatePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			writeError(w, http.StatusUnauthorized, "Current password is incorrect.")
		case errors.Is(err, domain.ErrInvalidInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account no longer exists.")
		case errors.Is(err, domain.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		default:
			slog.Error("update password", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleDeleteAccount permanently removes the authenticated user's account
// and clears the session cookie. Any other outstanding credential for the id
// is rejected from here on, since the guard resolves credentials against the
// store.
// DELETE /api/account
// Response: 204 No Content
func (h *AccountHandler) HandleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())

	if err := h.accounts.DeleteAccount(r.Context(), user.ID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			writeError(w, http.StatusNotFound, "Account no longer exists.")
		case errors.Is(err, domain.ErrStoreUnavailable):
			writeError(w, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.")
		default:
			slog.Error("delete account", "error", err)
			writeError(w, http.StatusInternalServerError, "An unexpected error occurred. Please try again.")
		}
		return
	}

	clearAuthCookie(w, h.cookieSecure)
	w.WriteHeader(http.StatusNoContent)
}

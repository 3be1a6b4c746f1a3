package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
	"github.com/atinyakov/ContactKeeper/internal/models"
	"github.com/atinyakov/ContactKeeper/internal/service"
)

// ShareService defines the share operations required by the ShareHandler.
type ShareService interface {
	Issue(ctx context.Context, accountID, contactID string) (*models.ShareCode, error)
	Redeem(ctx context.Context, code string) (*models.SharedContact, error)
	Revoke(ctx context.Context, accountID, code string) error
}

// ShareHandler handles issuing, redeeming and revoking share codes.
type ShareHandler struct {
	ShareService ShareService
	Log          *zap.Logger
}

// Issue handles POST /api/contacts/{id}/share.
func (h *ShareHandler) Issue(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	contactID := chi.URLParam(r, "id")

	code, err := h.ShareService.Issue(r.Context(), userID, contactID)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("issue share failed", zap.Error(err))
		http.Error(w, "failed to create share", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, code)
}

// Redeem handles GET /api/share/{code}. No authentication is required:
// holding the code is the capability.
func (h *ShareHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	shared, err := h.ShareService.Redeem(r.Context(), code)
	switch {
	case errors.Is(err, service.ErrShareNotFound):
		http.Error(w, "share not found", http.StatusNotFound)
		return
	case errors.Is(err, service.ErrShareExpired):
		http.Error(w, "share expired", http.StatusGone)
		return
	case errors.Is(err, service.ErrShareUnreadable):
		http.Error(w, "could not decrypt shared contact", http.StatusInternalServerError)
		return
	case err != nil:
		h.Log.Error("redeem share failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, shared)
}

// Revoke handles DELETE /api/shares/{code}.
func (h *ShareHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	code := chi.URLParam(r, "code")

	err := h.ShareService.Revoke(r.Context(), userID, code)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "share not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.Log.Error("revoke share failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

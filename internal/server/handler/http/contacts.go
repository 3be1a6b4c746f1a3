package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/atinyakov/ContactKeeper/internal/middleware"
	"github.com/atinyakov/ContactKeeper/internal/models"
)

// ContactService defines the contact operations required by the ContactHandler.
type ContactService interface {
	List(ctx context.Context, accountID string) ([]models.Contact, error)
	Create(ctx context.Context, accountID string, data models.ContactData) (*models.Contact, error)
	Update(ctx context.Context, accountID, id string, data models.ContactData) (*models.Contact, error)
	Delete(ctx context.Context, accountID, id string) error
	Export(ctx context.Context, accountID string) ([]models.ContactData, error)
	Import(ctx context.Context, accountID string, entries []models.ContactData) (int, error)
}

// ContactHandler handles HTTP requests for the caller's contacts.
type ContactHandler struct {
	ContactService ContactService
	Log            *zap.Logger
}

// ImportRequest is the body of POST /api/contacts/import.
type ImportRequest struct {
	Contacts []models.ContactData `json:"contacts"`
}

// List handles GET /api/contacts.
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	contacts, err := h.ContactService.List(r.Context(), userID)
	if err != nil {
		h.internalError(w, "list contacts", err)
		return
	}
	writeJSON(w, http.StatusOK, contacts)
}

// Create handles POST /api/contacts.
func (h *ContactHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var data models.ContactData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	contact, err := h.ContactService.Create(r.Context(), userID, data)
	if errors.Is(err, models.ErrValidation) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.internalError(w, "create contact", err)
		return
	}
	writeJSON(w, http.StatusCreated, contact)
}

// Update handles PUT /api/contacts/{id}.
func (h *ContactHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var data models.ContactData
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	contact, err := h.ContactService.Update(r.Context(), userID, id, data)
	switch {
	case errors.Is(err, models.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, models.ErrNotFound):
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	case err != nil:
		h.internalError(w, "update contact", err)
		return
	}
	writeJSON(w, http.StatusOK, contact)
}

// Delete handles DELETE /api/contacts/{id}.
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())
	id := chi.URLParam(r, "id")

	err := h.ContactService.Delete(r.Context(), userID, id)
	if errors.Is(err, models.ErrNotFound) {
		http.Error(w, "contact not found", http.StatusNotFound)
		return
	}
	if err != nil {
		h.internalError(w, "delete contact", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /api/contacts/export.
func (h *ContactHandler) Export(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	contacts, err := h.ContactService.Export(r.Context(), userID)
	if err != nil {
		h.internalError(w, "export contacts", err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="contacts.json"`)
	writeJSON(w, http.StatusOK, contacts)
}

// Import handles POST /api/contacts/import.
func (h *ContactHandler) Import(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserIDFromContext(r.Context())

	var req ImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Contacts == nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	n, err := h.ContactService.Import(r.Context(), userID, req.Contacts)
	if err != nil {
		h.internalError(w, "import contacts", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"imported": n})
}

func (h *ContactHandler) internalError(w http.ResponseWriter, op string, err error) {
	h.Log.Error(op+" failed", zap.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// AdminHandler provides the counsellor-management endpoints.
type AdminHandler struct {
	accounts *services.AccountService
}

func NewAdminHandler(accounts *services.AccountService) *AdminHandler {
	return &AdminHandler{accounts: accounts}
}

// AdminRouter registers admin routes on the given router. The caller
// supplies the auth and admin middlewares.
func AdminRouter(r chi.Router, handler *AdminHandler, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Use(authMiddleware, adminMiddleware)
	r.Get("/counsellors", handler.ListCounsellors)
	r.Patch("/counsellors/{accountID}", handler.SetStatus)
}

// ListCounsellors returns all counsellor accounts. Password hashes are
// never serialized.
func (h *AdminHandler) ListCounsellors(w http.ResponseWriter, r *http.Request) {
	counsellors, err := h.accounts.ListCounsellors(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list counsellors")
		return
	}
	writeJSON(w, http.StatusOK, counsellors)
}

// SetStatus moves a counsellor account between pending, approved and
// blocked. Admin accounts are not valid targets.
func (h *AdminHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "accountID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req SetStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	if !req.Status.Valid() {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	target, err := h.accounts.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load account")
		return
	}
	if target.Role != types.RoleCounsellor {
		writeError(w, http.StatusBadRequest, "target is not a counsellor")
		return
	}

	updated, err := h.accounts.SetStatus(r.Context(), id, req.Status)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

type SetStatusRequest struct {
	Status types.AccountStatus `json:"status"`
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// SessionHandler provides direct access to the session ledger, outside
// of the request workflow. Sessions are append-only: there is no update
// or delete endpoint.
type SessionHandler struct {
	sessions *services.SessionService
}

func NewSessionHandler(sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// SessionRouter registers session routes on the given router. All
// routes require an approved counsellor or an admin.
func SessionRouter(r chi.Router, handler *SessionHandler, staff func(http.Handler) http.Handler) {
	r.Use(staff)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
}

// List returns sessions, optionally filtered by the student_id query
// parameter.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	studentID := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("student_id")); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id < 1 {
			writeError(w, http.StatusBadRequest, "invalid student_id")
			return
		}
		studentID = id
	}

	sessions, err := h.sessions.List(r.Context(), studentID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// Create appends a session for an existing student.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Topic = strings.TrimSpace(req.Topic)
	if req.StudentID < 1 || req.Topic == "" {
		writeError(w, http.StatusBadRequest, "student_id and topic are required")
		return
	}

	created, err := h.sessions.Create(r.Context(), types.Session{
		StudentID:     req.StudentID,
		Topic:         req.Topic,
		Problems:      req.Problems,
		Feedback:      req.Feedback,
		PrivateNote:   req.PrivateNote,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

type CreateSessionRequest struct {
	StudentID     int    `json:"student_id"`
	Topic         string `json:"topic"`
	Problems      string `json:"problems"`
	Feedback      string `json:"feedback"`
	PrivateNote   string `json:"private_note"`
	AttachmentKey string `json:"attachment_key"`
}

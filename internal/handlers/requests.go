package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samvaad/apiserver/internal/notify"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// RequestHandler provides the public intake endpoint and the
// counsellor-facing request lifecycle endpoints.
type RequestHandler struct {
	requests *services.RequestService
	workflow *services.WorkflowService
	notifier *notify.Publisher
}

// NewRequestHandler constructs a handler. notifier may be nil when the
// notification channel is not configured.
func NewRequestHandler(requests *services.RequestService, workflow *services.WorkflowService, notifier *notify.Publisher) *RequestHandler {
	return &RequestHandler{
		requests: requests,
		workflow: workflow,
		notifier: notifier,
	}
}

// RequestRouter registers request routes on the given router. Intake
// is public (rate-limited); everything else requires an approved
// counsellor or an admin.
func RequestRouter(r chi.Router, handler *RequestHandler, public, staff func(http.Handler) http.Handler) {
	if public != nil {
		r.With(public).Post("/", handler.Submit)
	} else {
		r.Post("/", handler.Submit)
	}
	r.Group(func(r chi.Router) {
		r.Use(staff)
		r.Get("/", handler.List)
		r.Get("/{requestID}", handler.Get)
		r.Patch("/{requestID}", handler.UpdateStatus)
		r.Post("/{requestID}/sessions", handler.LogSession)
	})
}

// Submit records a public help request. The notification publish is
// best-effort: a broker failure is logged and never fails intake.
func (h *RequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	if req.Phone == "" {
		writeError(w, http.StatusBadRequest, "phone is required")
		return
	}

	created, err := h.requests.Submit(r.Context(), types.Request{
		StudentPhone: req.Phone,
		StudentName:  strings.TrimSpace(req.Name),
		Department:   strings.TrimSpace(req.Department),
		Gender:       strings.TrimSpace(req.Gender),
		Issue:        strings.TrimSpace(req.Issue),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to submit request")
		return
	}

	if h.notifier != nil {
		if err := h.notifier.Publish(r.Context(), notify.Message{
			Phone: created.StudentPhone,
			Name:  created.StudentName,
			Text:  created.Issue,
		}); err != nil {
			log.Printf("requests: notification publish failed for request %d: %v", created.ID, err)
		}
	}

	writeJSON(w, http.StatusCreated, created)
}

func (h *RequestHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	request, err := h.requests.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "request not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch request")
		return
	}
	writeJSON(w, http.StatusOK, request)
}

func (h *RequestHandler) List(w http.ResponseWriter, r *http.Request) {
	requests, err := h.requests.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list requests")
		return
	}
	writeJSON(w, http.StatusOK, requests)
}

// UpdateStatus moves a request along the lifecycle state machine.
func (h *RequestHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req UpdateRequestStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	updated, err := h.workflow.Transition(r.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidStatus):
			writeError(w, http.StatusBadRequest, "invalid status")
		case errors.Is(err, services.ErrIllegalTransition):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to update request")
		}
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// LogSession logs a session against a scheduled or in-progress
// request: the student is resolved (created if needed), the session is
// appended and the request is archived.
func (h *RequestHandler) LogSession(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "requestID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req LogSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}
	req.Topic = strings.TrimSpace(req.Topic)
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	session, err := h.workflow.LogSession(r.Context(), id, services.SessionInput{
		Topic:         req.Topic,
		Problems:      req.Problems,
		Feedback:      req.Feedback,
		PrivateNote:   req.PrivateNote,
		AttachmentKey: req.AttachmentKey,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrIllegalTransition):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, services.ErrArchiveFailed):
			writeError(w, http.StatusInternalServerError, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "request not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to log session")
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

type SubmitRequestRequest struct {
	Phone      string `json:"phone"`
	Name       string `json:"name"`
	Department string `json:"department"`
	Gender     string `json:"gender"`
	Issue      string `json:"issue"`
}

type UpdateRequestStatusRequest struct {
	Status types.RequestStatus `json:"status"`
}

type LogSessionRequest struct {
	Topic         string `json:"topic"`
	Problems      string `json:"problems"`
	Feedback      string `json:"feedback"`
	PrivateNote   string `json:"private_note"`
	AttachmentKey string `json:"attachment_key"`
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/samvaad/apiserver/internal/services"
	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// StudentHandler provides the student registry endpoints.
type StudentHandler struct {
	students *services.StudentService
}

func NewStudentHandler(students *services.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// StudentRouter registers student routes on the given router. All
// routes require an approved counsellor or an admin.
func StudentRouter(r chi.Router, handler *StudentHandler, staff func(http.Handler) http.Handler) {
	r.Use(staff)
	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Route("/{studentID}", func(r chi.Router) {
		r.Get("/", handler.Get)
		r.Delete("/", handler.Delete)
	})
}

func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.students.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list students")
		return
	}
	writeJSON(w, http.StatusOK, students)
}

func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to fetch student")
		return
	}
	writeJSON(w, http.StatusOK, student)
}

// Create adds a student record. Mobile numbers are unique: a duplicate
// is reported as a conflict, never merged silently.
func (h *StudentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateStudentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.FullName = strings.TrimSpace(req.FullName)
	req.Mobile = strings.TrimSpace(req.Mobile)
	if req.FullName == "" || req.Mobile == "" {
		writeError(w, http.StatusBadRequest, "full_name and mobile are required")
		return
	}

	created, err := h.students.Create(r.Context(), types.Student{
		FullName:           req.FullName,
		Branch:             strings.TrimSpace(req.Branch),
		Mobile:             req.Mobile,
		Email:              strings.TrimSpace(req.Email),
		GuardianName:       strings.TrimSpace(req.GuardianName),
		GuardianMobile:     strings.TrimSpace(req.GuardianMobile),
		GuardianOccupation: strings.TrimSpace(req.GuardianOccupation),
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			writeError(w, http.StatusConflict, "student with this mobile already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create student")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// Delete removes a student and all of the student's sessions.
func (h *StudentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseIDParam(r, "studentID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "student not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to delete student")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type CreateStudentRequest struct {
	FullName           string `json:"full_name"`
	Branch             string `json:"branch"`
	Mobile             string `json:"mobile"`
	Email              string `json:"email"`
	GuardianName       string `json:"guardian_name"`
	GuardianMobile     string `json:"guardian_mobile"`
	GuardianOccupation string `json:"guardian_occupation"`
}

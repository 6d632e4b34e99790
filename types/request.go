package types

import "time"

// RequestStatus is the lifecycle state of a help request.
type RequestStatus string

// Supported request statuses.
const (
	// RequestNew is the state of a freshly submitted request.
	RequestNew RequestStatus = "new"

	// RequestScheduled means a counsellor has booked a session.
	RequestScheduled RequestStatus = "scheduled"

	// RequestInProgress means the session has started.
	RequestInProgress RequestStatus = "in_progress"

	// RequestArchived is terminal: dismissed, or completed by
	// logging a session.
	RequestArchived RequestStatus = "archived"
)

// Valid reports whether the status is one of the supported values.
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestNew, RequestScheduled, RequestInProgress, RequestArchived:
		return true
	}
	return false
}

// Request represents a single help-seeking contact event submitted
// through the public intake form.
type Request struct {
	// ID is the unique identifier of the request.
	ID int `json:"id" db:"id"`

	// StudentPhone is the contact number and the correlation key
	// used to resolve the request to a student record.
	StudentPhone string `json:"student_phone" db:"student_phone"`

	// StudentName is optional; anonymous submissions leave it empty.
	StudentName string `json:"student_name,omitempty" db:"student_name"`

	// Department is the student's department, if given.
	Department string `json:"department,omitempty" db:"department"`

	// Gender is free-form optional metadata.
	Gender string `json:"gender,omitempty" db:"gender"`

	// Issue is the free-text description of the concern.
	Issue string `json:"issue,omitempty" db:"issue"`

	// Status is the request's lifecycle state.
	Status RequestStatus `json:"status" db:"status"`

	// StudentID references the student this request was resolved to.
	// It is set when a session is logged against the request.
	StudentID *int `json:"student_id,omitempty" db:"student_id"`

	// CreatedAt is the timestamp of submission.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

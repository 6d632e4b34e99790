package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/samvaad/apiserver/internal/store"
	"github.com/samvaad/apiserver/types"
)

// ErrInvalidStatus is returned when a target status is not one of the
// enumerated request statuses.
var ErrInvalidStatus = errors.New("invalid request status")

// ErrIllegalTransition is returned when the target status is a valid
// value but not reachable from the request's current status.
var ErrIllegalTransition = errors.New("illegal status transition")

// ErrArchiveFailed wraps a failure to archive a request after its
// session was already stored. The session exists; the archive is
// retryable through the plain transition operation.
var ErrArchiveFailed = errors.New("session stored but request not archived")

// fallbackStudentName is used when an anonymous request is converted
// into a student record.
const fallbackStudentName = "Anonymous Student"

// transitions is the legal edge set of the request lifecycle,
// enforced at the service layer so every caller is held to the same
// graph. "archived" is terminal.
var transitions = map[types.RequestStatus][]types.RequestStatus{
	types.RequestNew:        {types.RequestScheduled, types.RequestArchived},
	types.RequestScheduled:  {types.RequestNew, types.RequestInProgress, types.RequestArchived},
	types.RequestInProgress: {types.RequestScheduled, types.RequestArchived},
	types.RequestArchived:   {},
}

func canTransition(from, to types.RequestStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// SessionInput carries the counsellor-entered fields when logging a
// session against a request.
type SessionInput struct {
	Topic         string
	Problems      string
	Feedback      string
	PrivateNote   string
	AttachmentKey string
}

// WorkflowService owns the request lifecycle: status transitions and
// the log-session operation that resolves a request into a student,
// appends a session and archives the request.
type WorkflowService struct {
	requests RequestRepository
	students StudentRepository
	sessions SessionRepository
}

func NewWorkflowService(requests RequestRepository, students StudentRepository, sessions SessionRepository) *WorkflowService {
	return &WorkflowService{
		requests: requests,
		students: students,
		sessions: sessions,
	}
}

// Transition moves a request to the target status. The target must be
// a valid status value and reachable from the current status; nothing
// but the status field changes.
func (s *WorkflowService) Transition(ctx context.Context, requestID int, target types.RequestStatus) (types.Request, error) {
	if !target.Valid() {
		return types.Request{}, ErrInvalidStatus
	}

	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return types.Request{}, err
	}
	if !canTransition(request.Status, target) {
		return types.Request{}, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, request.Status, target)
	}

	if err := s.requests.UpdateStatus(ctx, requestID, target); err != nil {
		return types.Request{}, err
	}
	request.Status = target
	return request, nil
}

// LogSession completes a scheduled or in-progress request: it resolves
// the request's phone number to a student (creating one if needed),
// appends a session for that student and archives the request.
//
// The session is stored before the request is touched, so a session
// store failure leaves the request unchanged. An archive failure after
// the session was stored is reported via ErrArchiveFailed; the caller
// may retry the archive as a plain transition.
func (s *WorkflowService) LogSession(ctx context.Context, requestID int, input SessionInput) (types.Session, error) {
	request, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return types.Session{}, err
	}
	if request.Status != types.RequestScheduled && request.Status != types.RequestInProgress {
		return types.Session{}, fmt.Errorf("%w: cannot log a session on a %s request", ErrIllegalTransition, request.Status)
	}

	student, err := s.resolveStudent(ctx, request)
	if err != nil {
		return types.Session{}, err
	}

	session, err := s.sessions.Create(ctx, types.Session{
		StudentID:     student.ID,
		Topic:         input.Topic,
		Problems:      input.Problems,
		Feedback:      input.Feedback,
		PrivateNote:   input.PrivateNote,
		AttachmentKey: input.AttachmentKey,
	})
	if err != nil {
		return types.Session{}, err
	}

	if err := s.requests.LinkStudent(ctx, requestID, student.ID); err != nil {
		return session, fmt.Errorf("%w: %v", ErrArchiveFailed, err)
	}
	if err := s.requests.UpdateStatus(ctx, requestID, types.RequestArchived); err != nil {
		return session, fmt.Errorf("%w: %v", ErrArchiveFailed, err)
	}
	return session, nil
}

// resolveStudent finds the student matching the request's phone number
// or creates one from the request's metadata. A concurrent create that
// loses the race on the mobile unique index is resolved by re-fetching.
func (s *WorkflowService) resolveStudent(ctx context.Context, request types.Request) (types.Student, error) {
	student, err := s.students.GetByMobile(ctx, request.StudentPhone)
	if err == nil {
		return student, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return types.Student{}, err
	}

	name := request.StudentName
	if name == "" {
		name = fallbackStudentName
	}
	student, err = s.students.Create(ctx, types.Student{
		FullName: name,
		Branch:   request.Department,
		Mobile:   request.StudentPhone,
	})
	if err == nil {
		return student, nil
	}
	if errors.Is(err, store.ErrDuplicate) {
		// Lost the race: another writer provisioned this mobile
		// between the lookup and the insert.
		return s.students.GetByMobile(ctx, request.StudentPhone)
	}
	return types.Student{}, err
}

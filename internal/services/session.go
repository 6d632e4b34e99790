package services

import (
	"context"

	"github.com/samvaad/apiserver/types"
)

// SessionRepository defines persistence operations for sessions.
// Sessions are immutable once created, so there is no update.
type SessionRepository interface {
	Create(ctx context.Context, session types.Session) (types.Session, error)
	List(ctx context.Context, studentID int) ([]types.Session, error)
}

// SessionService encapsulates the session ledger use-cases.
type SessionService struct {
	repo     SessionRepository
	students StudentRepository
}

func NewSessionService(repo SessionRepository, students StudentRepository) *SessionService {
	return &SessionService{repo: repo, students: students}
}

// Create appends a session after verifying the owning student exists.
// The check is explicit rather than relying on the store's foreign key
// so both store drivers report store.ErrNotFound consistently.
func (s *SessionService) Create(ctx context.Context, session types.Session) (types.Session, error) {
	if _, err := s.students.GetByID(ctx, session.StudentID); err != nil {
		return types.Session{}, err
	}
	return s.repo.Create(ctx, session)
}

// List returns sessions, newest first. A studentID of 0 lists all.
func (s *SessionService) List(ctx context.Context, studentID int) ([]types.Session, error) {
	return s.repo.List(ctx, studentID)
}

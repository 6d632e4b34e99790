package services

import (
	"context"

	"github.com/samvaad/apiserver/types"
)

// RequestRepository defines persistence operations for help requests.
type RequestRepository interface {
	GetByID(ctx context.Context, id int) (types.Request, error)
	Create(ctx context.Context, request types.Request) (types.Request, error)
	UpdateStatus(ctx context.Context, id int, status types.RequestStatus) error
	LinkStudent(ctx context.Context, id, studentID int) error
	List(ctx context.Context) ([]types.Request, error)
}

// RequestService encapsulates intake and listing of help requests.
// Lifecycle transitions live in WorkflowService.
type RequestService struct {
	repo RequestRepository
}

func NewRequestService(repo RequestRepository) *RequestService {
	return &RequestService{repo: repo}
}

// Submit records a new public intake. Requests always start as "new"
// regardless of what the caller sent.
func (s *RequestService) Submit(ctx context.Context, request types.Request) (types.Request, error) {
	request.Status = types.RequestNew
	request.StudentID = nil
	return s.repo.Create(ctx, request)
}

func (s *RequestService) Get(ctx context.Context, id int) (types.Request, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RequestService) List(ctx context.Context) ([]types.Request, error) {
	return s.repo.List(ctx)
}

package services

import (
	"context"

	"github.com/samvaad/apiserver/types"
)

// StudentRepository defines persistence operations for students.
type StudentRepository interface {
	GetByID(ctx context.Context, id int) (types.Student, error)
	GetByMobile(ctx context.Context, mobile string) (types.Student, error)
	Create(ctx context.Context, student types.Student) (types.Student, error)
	Delete(ctx context.Context, id int) error
	List(ctx context.Context) ([]types.Student, error)
}

// StudentService encapsulates the student registry use-cases.
type StudentService struct {
	repo StudentRepository
}

func NewStudentService(repo StudentRepository) *StudentService {
	return &StudentService{repo: repo}
}

func (s *StudentService) Get(ctx context.Context, id int) (types.Student, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *StudentService) Create(ctx context.Context, student types.Student) (types.Student, error) {
	return s.repo.Create(ctx, student)
}

// Delete removes a student and, through the store's cascade, all of
// the student's sessions.
func (s *StudentService) Delete(ctx context.Context, id int) error {
	return s.repo.Delete(ctx, id)
}

func (s *StudentService) List(ctx context.Context) ([]types.Student, error) {
	return s.repo.List(ctx)
}

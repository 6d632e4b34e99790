package services

import (
	"context"

	"github.com/samvaad/apiserver/types"
)

// AccountRepository defines persistence operations for accounts.
type AccountRepository interface {
	GetByID(ctx context.Context, id int) (types.Account, error)
	GetByEmail(ctx context.Context, email string) (types.Account, error)
	Create(ctx context.Context, account types.Account) (types.Account, error)
	UpdateStatus(ctx context.Context, id int, status types.AccountStatus) (types.Account, error)
	ListByRole(ctx context.Context, role types.Role) ([]types.Account, error)
}

// AccountService encapsulates the account directory use-cases.
type AccountService struct {
	repo AccountRepository
}

func NewAccountService(repo AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) GetByID(ctx context.Context, id int) (types.Account, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *AccountService) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *AccountService) Create(ctx context.Context, account types.Account) (types.Account, error) {
	return s.repo.Create(ctx, account)
}

func (s *AccountService) SetStatus(ctx context.Context, id int, status types.AccountStatus) (types.Account, error) {
	return s.repo.UpdateStatus(ctx, id, status)
}

func (s *AccountService) ListCounsellors(ctx context.Context) ([]types.Account, error) {
	return s.repo.ListByRole(ctx, types.RoleCounsellor)
}

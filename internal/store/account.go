package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/samvaad/apiserver/types"
)

// AccountRepository handles persistence for operator accounts.
type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (types.Account, error) {
	const query = `
		SELECT id, email, name, role, status, password_hash, created_at, updated_at
		FROM accounts
		WHERE id = $1`
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.Role,
		&account.Status,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (types.Account, error) {
	const query = `
		SELECT id, email, name, role, status, password_hash, created_at, updated_at
		FROM accounts
		WHERE LOWER(email) = LOWER($1)`
	var account types.Account
	err := r.db.QueryRowContext(ctx, query, strings.TrimSpace(email)).Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.Role,
		&account.Status,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Account{}, ErrNotFound
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) Create(ctx context.Context, account types.Account) (types.Account, error) {
	now := time.Now()
	account.CreatedAt = now
	account.UpdatedAt = now
	account.Email = strings.ToLower(strings.TrimSpace(account.Email))

	const query = `
		INSERT INTO accounts (email, name, role, status, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		account.Email,
		account.Name,
		account.Role,
		account.Status,
		account.PasswordHash,
		account.CreatedAt,
		account.UpdatedAt,
	).Scan(&account.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Account{}, ErrDuplicate
		}
		return types.Account{}, err
	}
	return account, nil
}

func (r *AccountRepository) UpdateStatus(ctx context.Context, id int, status types.AccountStatus) (types.Account, error) {
	const query = `
		UPDATE accounts
		SET status = $1,
			updated_at = $2
		WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	if err != nil {
		return types.Account{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Account{}, err
	}
	if affected == 0 {
		return types.Account{}, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// ListByRole returns accounts with the given role, newest first.
func (r *AccountRepository) ListByRole(ctx context.Context, role types.Role) ([]types.Account, error) {
	const query = `
		SELECT id, email, name, role, status, password_hash, created_at, updated_at
		FROM accounts
		WHERE role = $1
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := make([]types.Account, 0)
	for rows.Next() {
		var account types.Account
		if err := rows.Scan(
			&account.ID,
			&account.Email,
			&account.Name,
			&account.Role,
			&account.Status,
			&account.PasswordHash,
			&account.CreatedAt,
			&account.UpdatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samvaad/apiserver/types"
)

// RequestRepository handles persistence for help requests.
type RequestRepository struct {
	db *sql.DB
}

func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

func (r *RequestRepository) GetByID(ctx context.Context, id int) (types.Request, error) {
	const query = `
		SELECT id, student_phone, student_name, department, gender, issue,
		       status, student_id, created_at
		FROM requests
		WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *RequestRepository) Create(ctx context.Context, request types.Request) (types.Request, error) {
	request.CreatedAt = time.Now()
	if request.Status == "" {
		request.Status = types.RequestNew
	}

	const query = `
		INSERT INTO requests (student_phone, student_name, department, gender, issue, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		request.StudentPhone,
		request.StudentName,
		request.Department,
		request.Gender,
		request.Issue,
		request.Status,
		request.CreatedAt,
	).Scan(&request.ID); err != nil {
		return types.Request{}, err
	}
	return request, nil
}

func (r *RequestRepository) UpdateStatus(ctx context.Context, id int, status types.RequestStatus) error {
	const query = `UPDATE requests SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// LinkStudent records which student the request resolved to.
func (r *RequestRepository) LinkStudent(ctx context.Context, id, studentID int) error {
	const query = `UPDATE requests SET student_id = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, studentID, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all requests, newest first.
func (r *RequestRepository) List(ctx context.Context) ([]types.Request, error) {
	const query = `
		SELECT id, student_phone, student_name, department, gender, issue,
		       status, student_id, created_at
		FROM requests
		ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]types.Request, 0)
	for rows.Next() {
		request, err := r.scanRow(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, request)
	}
	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *RequestRepository) scanOne(row *sql.Row) (types.Request, error) {
	request, err := r.scanRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Request{}, ErrNotFound
		}
		return types.Request{}, err
	}
	return request, nil
}

func (r *RequestRepository) scanRow(row rowScanner) (types.Request, error) {
	var request types.Request
	var studentID sql.NullInt64
	if err := row.Scan(
		&request.ID,
		&request.StudentPhone,
		&request.StudentName,
		&request.Department,
		&request.Gender,
		&request.Issue,
		&request.Status,
		&studentID,
		&request.CreatedAt,
	); err != nil {
		return types.Request{}, err
	}
	if studentID.Valid {
		id := int(studentID.Int64)
		request.StudentID = &id
	}
	return request, nil
}

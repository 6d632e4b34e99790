package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/samvaad/apiserver/types"
)

// StudentRepository handles persistence for student records.
type StudentRepository struct {
	db *sql.DB
}

func NewStudentRepository(db *sql.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

func (r *StudentRepository) GetByID(ctx context.Context, id int) (types.Student, error) {
	const query = `
		SELECT id, full_name, branch, mobile, email,
		       guardian_name, guardian_mobile, guardian_occupation, joined_at
		FROM students
		WHERE id = $1`
	return scanStudent(r.db.QueryRowContext(ctx, query, id))
}

func (r *StudentRepository) GetByMobile(ctx context.Context, mobile string) (types.Student, error) {
	const query = `
		SELECT id, full_name, branch, mobile, email,
		       guardian_name, guardian_mobile, guardian_occupation, joined_at
		FROM students
		WHERE mobile = $1`
	return scanStudent(r.db.QueryRowContext(ctx, query, mobile))
}

func (r *StudentRepository) Create(ctx context.Context, student types.Student) (types.Student, error) {
	student.JoinedAt = time.Now()

	const query = `
		INSERT INTO students (full_name, branch, mobile, email,
			guardian_name, guardian_mobile, guardian_occupation, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		student.FullName,
		student.Branch,
		student.Mobile,
		student.Email,
		student.GuardianName,
		student.GuardianMobile,
		student.GuardianOccupation,
		student.JoinedAt,
	).Scan(&student.ID); err != nil {
		if isUniqueViolation(err) {
			return types.Student{}, ErrDuplicate
		}
		return types.Student{}, err
	}
	return student, nil
}

// Delete removes a student. Sessions cascade at the schema level.
func (r *StudentRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
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

// List returns all students, newest first.
func (r *StudentRepository) List(ctx context.Context) ([]types.Student, error) {
	const query = `
		SELECT id, full_name, branch, mobile, email,
		       guardian_name, guardian_mobile, guardian_occupation, joined_at
		FROM students
		ORDER BY joined_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(
			&student.ID,
			&student.FullName,
			&student.Branch,
			&student.Mobile,
			&student.Email,
			&student.GuardianName,
			&student.GuardianMobile,
			&student.GuardianOccupation,
			&student.JoinedAt,
		); err != nil {
			return nil, err
		}
		students = append(students, student)
	}
	return students, rows.Err()
}

func scanStudent(row *sql.Row) (types.Student, error) {
	var student types.Student
	err := row.Scan(
		&student.ID,
		&student.FullName,
		&student.Branch,
		&student.Mobile,
		&student.Email,
		&student.GuardianName,
		&student.GuardianMobile,
		&student.GuardianOccupation,
		&student.JoinedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, ErrNotFound
		}
		return types.Student{}, err
	}
	return student, nil
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/samvaad/apiserver/types"
)

// SessionRepository handles persistence for session log entries.
// Sessions are append-only: there is no update operation.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Create(ctx context.Context, session types.Session) (types.Session, error) {
	session.OccurredAt = time.Now()

	const query = `
		INSERT INTO sessions (student_id, topic, problems, feedback,
			private_note, attachment_key, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		session.StudentID,
		session.Topic,
		session.Problems,
		session.Feedback,
		session.PrivateNote,
		session.AttachmentKey,
		session.OccurredAt,
	).Scan(&session.ID); err != nil {
		return types.Session{}, err
	}
	return session, nil
}

// List returns sessions, newest first, optionally filtered by student.
// A studentID of 0 means no filter.
func (r *SessionRepository) List(ctx context.Context, studentID int) ([]types.Session, error) {
	const query = `
		SELECT id, student_id, topic, problems, feedback,
		       private_note, attachment_key, occurred_at
		FROM sessions
		WHERE $1 = 0 OR student_id = $1
		ORDER BY occurred_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sessions := make([]types.Session, 0)
	for rows.Next() {
		var session types.Session
		if err := rows.Scan(
			&session.ID,
			&session.StudentID,
			&session.Topic,
			&session.Problems,
			&session.Feedback,
			&session.PrivateNote,
			&session.AttachmentKey,
			&session.OccurredAt,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// CountByStudent reports how many sessions a student has.
func (r *SessionRepository) CountByStudent(ctx context.Context, studentID int) (int, error) {
	const query = `SELECT COUNT(*) FROM sessions WHERE student_id = $1`
	var count int
	if err := r.db.QueryRowContext(ctx, query, studentID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

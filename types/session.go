package types

import "time"

// Session is one logged counselling encounter. Sessions are immutable
// once created and are removed only when their student is deleted.
type Session struct {
	// ID is the unique identifier of the session.
	ID int `json:"id" db:"id"`

	// StudentID identifies the student this session belongs to.
	StudentID int `json:"student_id" db:"student_id"`

	// Topic is the category of the encounter (e.g. "Exam Stress").
	Topic string `json:"topic" db:"topic"`

	// Problems is the free-text problem description.
	Problems string `json:"problems" db:"problems"`

	// Feedback holds feedback and agreed next steps.
	Feedback string `json:"feedback" db:"feedback"`

	// PrivateNote is visible to counsellors only.
	PrivateNote string `json:"private_note,omitempty" db:"private_note"`

	// AttachmentKey references an uploaded object in attachment
	// storage, if any.
	AttachmentKey string `json:"attachment_key,omitempty" db:"attachment_key"`

	// OccurredAt is the timestamp of the encounter.
	OccurredAt time.Time `json:"occurred_at" db:"occurred_at"`
}

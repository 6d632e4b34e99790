package types

import "time"

// Student is a durable subject record, deduplicated by mobile number.
type Student struct {
	// ID is the unique identifier of the student.
	ID int `json:"id" db:"id"`

	// FullName is the student's name. Auto-provisioned records use
	// a placeholder when the originating request was anonymous.
	FullName string `json:"full_name" db:"full_name"`

	// Branch is the student's branch or class.
	Branch string `json:"branch" db:"branch"`

	// Mobile is the student's phone number. It is unique across all
	// students and acts as the natural key for deduplication.
	Mobile string `json:"mobile" db:"mobile"`

	// Email is optional contact information.
	Email string `json:"email,omitempty" db:"email"`

	// GuardianName is the name of the student's guardian.
	GuardianName string `json:"guardian_name" db:"guardian_name"`

	// GuardianMobile is the guardian's phone number.
	GuardianMobile string `json:"guardian_mobile" db:"guardian_mobile"`

	// GuardianOccupation is the guardian's occupation.
	GuardianOccupation string `json:"guardian_occupation" db:"guardian_occupation"`

	// JoinedAt is the timestamp when the record was created.
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

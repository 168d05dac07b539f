package job

import "time"

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

type Type string

const (
	TypeFullTime   Type = "full_time"
	TypePartTime   Type = "part_time"
	TypeInternship Type = "internship"
)

// ValidType reports whether t is a known job category.
func ValidType(t Type) bool {
	switch t {
	case TypeFullTime, TypePartTime, TypeInternship:
		return true
	default:
		return false
	}
}

// Job mirrors the jobs table. Optional descriptive fields are plain strings
// that default to empty rather than nil so the entity is always total.
type Job struct {
	ID                string
	CompanyID         string
	Title             string
	Description       string
	Requirements      string
	JobType           Type
	EducationRequired string
	Location          string
	Salary            string
	Email             string
	Phone             string
	Status            Status
	CompanyName       string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// CreateParams contains the caller-supplied fields for a new posting. The id,
// status, company linkage, and timestamps are assigned by the service and the
// store, never by the caller.
type CreateParams struct {
	Title             string
	Description       string
	Requirements      string
	JobType           Type
	EducationRequired string
	Location          string
	Salary            string
	Email             string
	Phone             string
}

// ModerationEvent is an immutable audit record appended alongside every
// lifecycle mutation. Events have no foreign key to jobs so history survives
// deletion.
type ModerationEvent struct {
	ID        int64
	JobID     string
	Action    string
	ActorID   *string
	Payload   []byte
	CreatedAt time.Time
}

const (
	EventJobCreated  = "JOB_CREATED"
	EventJobApproved = "JOB_APPROVED"
	EventJobRejected = "JOB_REJECTED"
	EventJobDeleted  = "JOB_DELETED"
)

//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

// ApplicationStatus values. Every application starts pending.
const (
	ApplicationPending     ApplicationStatus = "pending"
	ApplicationShortlisted ApplicationStatus = "shortlisted"
	ApplicationRejected    ApplicationStatus = "rejected"
	ApplicationAccepted    ApplicationStatus = "accepted"
	ApplicationCompleted   ApplicationStatus = "completed"
	ApplicationWithdrawn   ApplicationStatus = "withdrawn"
)

// ApplicationStatuses lists every known status.
var ApplicationStatuses = []ApplicationStatus{
	ApplicationPending,
	ApplicationShortlisted,
	ApplicationRejected,
	ApplicationAccepted,
	ApplicationCompleted,
	ApplicationWithdrawn,
}

// Valid reports whether s is one of the known statuses.
func (s ApplicationStatus) Valid() bool {
	for _, known := range ApplicationStatuses {
		if s == known {
			return true
		}
	}
	return false
}

func applicationStatusNames() string {
	names := make([]string, len(ApplicationStatuses))
	for i, s := range ApplicationStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Application records a candidate applying to an opportunity.
type Application struct {
	ID            uuid.UUID         `json:"id"`
	CandidateID   string            `json:"candidate_id"`
	OpportunityID string            `json:"opportunity_id"`
	Status        ApplicationStatus `json:"status"`
	Feedback      string            `json:"feedback,omitempty"`
	InterviewDate *time.Time        `json:"interview_date,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// ApplicationUpdate is an employer's review decision on an application.
type ApplicationUpdate struct {
	Status        ApplicationStatus `json:"status" validate:"required,application_status"`
	Feedback      string            `json:"feedback,omitempty"`
	InterviewDate *time.Time        `json:"interview_date,omitempty"`
}

// Validate checks the status is known.
func (u *ApplicationUpdate) Validate() error {
	if u == nil {
		return &ValidationError{Subject: "application update", Errors: []FieldError{{Field: "(root)", Message: "update is required"}}}
	}
	return validateStruct("application update", u).orNil()
}

// InterviewScheduled reports whether the update shortlists with an interview date.
func (u *ApplicationUpdate) InterviewScheduled() bool {
	return u.Status == ApplicationShortlisted && u.InterviewDate != nil
}

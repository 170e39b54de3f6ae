// Package notify publishes user-facing events to a message broker.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType classifies an event.
type EventType string

// Event types
const (
	EventRecommendationsGenerated EventType = "recommendations_generated"
	EventApplicationSubmitted     EventType = "application_submitted"
	EventNewInternship            EventType = "new_internship"
	EventNewApplication           EventType = "new_application"
	EventApplicationUpdate        EventType = "application_update"
	EventInterviewScheduled       EventType = "interview_scheduled"
)

// StudentAudience is the routing target for events addressed to every student.
const StudentAudience = "role.student"

// Event is a notification addressed to one user (a candidate or an employer) or,
// with an empty UserID, to all students.
type Event struct {
	ID          string            `json:"id"`
	Type        EventType         `json:"type"`
	Title       string            `json:"title"`
	Message     string            `json:"message"`
	UserID      string            `json:"user_id,omitempty"`
	Data        map[string]string `json:"data,omitempty"`
	OccurredAt  time.Time         `json:"occurred_at"`
}

// RoutingKey is "user.<user id>" for addressed events, StudentAudience otherwise.
func (e Event) RoutingKey() string {
	if e.UserID == "" {
		return StudentAudience
	}
	return "user." + e.UserID
}

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// RecommendationsGenerated builds the event sent after new recommendations are stored.
func RecommendationsGenerated(candidateID string, count int, now time.Time) Event {
	noun := "recommendations"
	if count == 1 {
		noun = "recommendation"
	}
	return newEvent(EventRecommendationsGenerated, candidateID,
		"New Internship Recommendations",
		fmt.Sprintf("You have %d new internship %s", count, noun),
		map[string]string{"count": fmt.Sprint(count)},
		now,
	)
}

// ApplicationSubmitted builds the event sent when a candidate applies.
func ApplicationSubmitted(candidateID, opportunityID, title string, now time.Time) Event {
	if title == "" {
		title = opportunityID
	}
	return newEvent(EventApplicationSubmitted, candidateID,
		"Application Submitted",
		"Your application for "+title+" has been submitted",
		map[string]string{"opportunity_id": opportunityID},
		now,
	)
}

// NewApplication builds the event sent to an employer when a candidate applies
// to one of their listings.
func NewApplication(employerID, candidateID, opportunityID, title string, now time.Time) Event {
	if title == "" {
		title = opportunityID
	}
	return newEvent(EventNewApplication, employerID,
		"New Application",
		"A new application was received for "+title,
		map[string]string{"opportunity_id": opportunityID, "candidate_id": candidateID},
		now,
	)
}

// ApplicationUpdate builds the event sent to a candidate when an employer changes
// the status of their application.
func ApplicationUpdate(candidateID, applicationID, opportunityID, title, status string, now time.Time) Event {
	if title == "" {
		title = opportunityID
	}
	return newEvent(EventApplicationUpdate, candidateID,
		"Application Status Updated",
		fmt.Sprintf("Your application for %s is now %s", title, status),
		map[string]string{"application_id": applicationID, "opportunity_id": opportunityID, "status": status},
		now,
	)
}

// InterviewScheduled builds the event sent to a shortlisted candidate with an interview date.
func InterviewScheduled(candidateID, applicationID, opportunityID, title string, at, now time.Time) Event {
	if title == "" {
		title = opportunityID
	}
	date := at.UTC().Format(time.RFC3339)
	return newEvent(EventInterviewScheduled, candidateID,
		"Interview Scheduled",
		fmt.Sprintf("Your interview for %s is scheduled for %s", title, at.UTC().Format("2 Jan 2006 15:04 MST")),
		map[string]string{"application_id": applicationID, "opportunity_id": opportunityID, "interview_date": date},
		now,
	)
}

// NewInternship builds the broadcast event for a newly posted listing.
func NewInternship(opportunityID, title, sector, region string, now time.Time) Event {
	return newEvent(EventNewInternship, "",
		"New Internship Posted",
		fmt.Sprintf("New %s internship available in %s: %s", sector, region, title),
		map[string]string{"opportunity_id": opportunityID, "sector": sector, "region": region},
		now,
	)
}

func newEvent(t EventType, userID, title, message string, data map[string]string, now time.Time) Event {
	return Event{
		ID:          uuid.NewString(),
		Type:        t,
		Title:       title,
		Message:     message,
		UserID:      userID,
		Data:        data,
		OccurredAt:  now.UTC(),
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close implements Publisher.
func (NopPublisher) Close() error { return nil }

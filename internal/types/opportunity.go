//nolint:revive // types is a standard Go package name pattern
package types

import (
	"strconv"
	"time"
)

// Opportunity is a posted internship listing.
type Opportunity struct {
	ID            string         `json:"id" validate:"required"`
	Title         string         `json:"title,omitempty"`
	Sector        Sector         `json:"sector" validate:"required,sector"`
	Location      string         `json:"location,omitempty"`
	Region        string         `json:"region" validate:"required"`
	Type          EngagementType `json:"type" validate:"required,engagement_type"`
	DurationWeeks int            `json:"duration_weeks" validate:"gt=0"`
	Stipend       *float64       `json:"stipend,omitempty" validate:"omitempty,gte=0"`
	Skills        []string       `json:"skills,omitempty" validate:"dive,required"`
	Requirements  string         `json:"requirements,omitempty"`
	EmployerID    string         `json:"employer_id,omitempty"`
	Active        bool           `json:"active"`
	Deadline      *time.Time     `json:"deadline,omitempty"`
}

// Paid reports whether the opportunity carries a stipend.
func (o *Opportunity) Paid() bool {
	return o.Stipend != nil
}

// Open reports whether the opportunity is active and its deadline has not passed at now.
func (o *Opportunity) Open(now time.Time) bool {
	if !o.Active {
		return false
	}
	return o.Deadline == nil || !o.Deadline.Before(now)
}

// Validate checks the opportunity's required fields and ranges.
func (o *Opportunity) Validate() error {
	if o == nil {
		return &ValidationError{Subject: "opportunity", Errors: []FieldError{{Field: "(root)", Message: "opportunity is required"}}}
	}
	return validateStruct("opportunity", o).orNil()
}

// ValidateOpportunities validates every opportunity and rejects duplicate ids.
// All problems are collected into a single ValidationError.
func ValidateOpportunities(opportunities []Opportunity) error {
	verr := &ValidationError{Subject: "opportunities"}
	seen := make(map[string]int, len(opportunities))
	for i := range opportunities {
		opp := &opportunities[i]
		if err := validateStruct("opportunity", opp); len(err.Errors) > 0 {
			for _, fe := range err.Errors {
				verr = verr.add(fieldPath("opportunities", i, fe.Field), fe.Message)
			}
		}
		if opp.ID == "" {
			continue
		}
		if first, dup := seen[opp.ID]; dup {
			verr = verr.add(fieldPath("opportunities", i, "id"), "duplicate of opportunity at index "+strconv.Itoa(first))
			continue
		}
		seen[opp.ID] = i
	}
	return verr.orNil()
}

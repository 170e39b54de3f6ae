package service

import "fmt"

// NotFoundError reports a missing candidate or opportunity.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// ClosedOpportunityError reports an application to a listing that is inactive or past its deadline.
type ClosedOpportunityError struct {
	OpportunityID string
}

func (e *ClosedOpportunityError) Error() string {
	return fmt.Sprintf("opportunity %s is no longer accepting applications", e.OpportunityID)
}

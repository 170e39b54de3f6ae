//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplicationStatus_Valid(t *testing.T) {
	for _, s := range ApplicationStatuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, ApplicationStatus("hired").Valid())
	assert.False(t, ApplicationStatus("").Valid())
}

func TestApplicationUpdate_Validate(t *testing.T) {
	require.NoError(t, (&ApplicationUpdate{Status: ApplicationWithdrawn}).Validate())

	err := (&ApplicationUpdate{Status: "hired"}).Validate()
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "status", ve.Errors[0].Field)
	assert.Contains(t, ve.Errors[0].Message, "shortlisted")

	err = (&ApplicationUpdate{}).Validate()
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "is required", ve.Errors[0].Message)

	var nilUpdate *ApplicationUpdate
	assert.True(t, IsValidationError(nilUpdate.Validate()))
}

func TestApplicationUpdate_InterviewScheduled(t *testing.T) {
	at := time.Date(2026, 7, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, (&ApplicationUpdate{Status: ApplicationShortlisted, InterviewDate: &at}).InterviewScheduled())
	assert.False(t, (&ApplicationUpdate{Status: ApplicationShortlisted}).InterviewScheduled())
	assert.False(t, (&ApplicationUpdate{Status: ApplicationAccepted, InterviewDate: &at}).InterviewScheduled())
}

package db

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-matcher/internal/types"
)

func TestMigrationFiles(t *testing.T) {
	names, err := MigrationFiles()
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "00001_init.sql", names[0])

	for _, name := range names {
		content, err := migrationFiles.ReadFile(migrationsDir + "/" + name)
		require.NoError(t, err)
		assert.Contains(t, string(content), "-- +goose Up", name)
		assert.Contains(t, string(content), "-- +goose Down", name)
	}
}

func TestInitMigration_Tables(t *testing.T) {
	content, err := migrationFiles.ReadFile("migrations/00001_init.sql")
	require.NoError(t, err)
	sql := string(content)

	for _, table := range []string{"candidates", "opportunities", "recommendations", "applications"} {
		assert.Contains(t, sql, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.Equal(t, 2, strings.Count(sql, "UNIQUE (candidate_id, opportunity_id)"))
}

func TestApplicationReviewMigration_StatusCheck(t *testing.T) {
	content, err := migrationFiles.ReadFile("migrations/00002_application_review.sql")
	require.NoError(t, err)
	sql := string(content)

	for _, status := range types.ApplicationStatuses {
		assert.Contains(t, sql, "'"+string(status)+"'")
	}
	for _, column := range []string{"feedback", "interview_date", "updated_at"} {
		assert.Contains(t, sql, "ADD COLUMN IF NOT EXISTS "+column)
	}
}

func TestRecommendationArgs(t *testing.T) {
	created := time.Date(2026, 2, 3, 4, 5, 6, 0, time.FixedZone("IST", 19800))
	rec := &types.Recommendation{
		CandidateID:   "cand_1",
		OpportunityID: "opp_1",
		Score:         120,
		ScoredBy:      types.ScoredByHeuristic,
		CreatedAt:     created,
	}

	args, err := recommendationArgs(rec)
	require.NoError(t, err)
	require.Len(t, args, 7)

	assert.NotEqual(t, uuid.Nil, args[0])
	assert.Equal(t, "cand_1", args[1])
	assert.Equal(t, "opp_1", args[2])
	assert.Equal(t, 100.0, args[3])
	assert.JSONEq(t, `[]`, string(args[4].([]byte)))
	assert.Equal(t, types.ScoredByHeuristic, args[5])
	assert.Equal(t, created.UTC(), args[6])
}

func TestRecommendationArgs_DefaultsCreatedAt(t *testing.T) {
	args, err := recommendationArgs(&types.Recommendation{CandidateID: "c", OpportunityID: "o", Score: 40, Reasons: []string{"x"}})
	require.NoError(t, err)

	assert.WithinDuration(t, time.Now(), args[6].(time.Time), time.Minute)
	assert.JSONEq(t, `["x"]`, string(args[4].([]byte)))
}

func TestDecodeReasons(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		want    []string
		wantErr bool
	}{
		{"empty", "", []string{}, false},
		{"null", "null", []string{}, false},
		{"values", `["a","b"]`, []string{"a", "b"}, false},
		{"invalid", `{`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeReasons([]byte(tt.doc))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeOpportunity(t *testing.T) {
	opp, err := decodeOpportunity("opp_9", []byte(`{"id": "stale", "sector": "finance", "region": "Goa", "type": "remote", "duration_weeks": 8, "active": true}`))
	require.NoError(t, err)

	assert.Equal(t, "opp_9", opp.ID)
	assert.Equal(t, types.SectorFinance, opp.Sector)
	assert.Equal(t, types.EngagementRemote, opp.Type)
	assert.True(t, opp.Active)

	_, err = decodeOpportunity("bad", []byte(`not json`))
	assert.Error(t, err)
}

// fakeRow fills Scan destinations from fixed values.
type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *uuid.UUID:
			*p = r.values[i].(uuid.UUID)
		case *string:
			*p = r.values[i].(string)
		case *types.ApplicationStatus:
			*p = r.values[i].(types.ApplicationStatus)
		case **time.Time:
			*p = r.values[i].(*time.Time)
		case *time.Time:
			*p = r.values[i].(time.Time)
		}
	}
	return nil
}

func TestScanApplication(t *testing.T) {
	ist := time.FixedZone("IST", 19800)
	id := uuid.New()
	interview := time.Date(2026, 7, 1, 15, 30, 0, 0, ist)
	created := time.Date(2026, 6, 1, 9, 0, 0, 0, ist)

	app, err := scanApplication(fakeRow{values: []any{
		id, "cand_1", "opp_1", types.ApplicationShortlisted, "Good fit", &interview, created, created,
	}})
	require.NoError(t, err)

	assert.Equal(t, id, app.ID)
	assert.Equal(t, types.ApplicationShortlisted, app.Status)
	assert.Equal(t, "Good fit", app.Feedback)
	assert.Equal(t, time.UTC, app.CreatedAt.Location())
	require.NotNil(t, app.InterviewDate)
	assert.Equal(t, time.UTC, app.InterviewDate.Location())
	assert.True(t, interview.Equal(*app.InterviewDate))

	noDate, err := scanApplication(fakeRow{values: []any{
		id, "cand_1", "opp_1", types.ApplicationPending, "", (*time.Time)(nil), created, created,
	}})
	require.NoError(t, err)
	assert.Nil(t, noDate.InterviewDate)

	_, err = scanApplication(fakeRow{err: errors.New("no rows")})
	assert.Error(t, err)
}

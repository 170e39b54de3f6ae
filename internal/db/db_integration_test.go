//go:build integration

package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-matcher/internal/types"
)

func getTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	db, err := Connect(ctx, dsn)
	require.NoError(t, err, "failed to connect to test database")

	_, err = db.Migrate(ctx)
	require.NoError(t, err)
	return db
}

// seed stores a candidate and opportunities under ids unique to this test.
func seed(t *testing.T, db *DB, opps ...types.Opportunity) *types.CandidateProfile {
	t.Helper()
	ctx := context.Background()

	candidate := &types.CandidateProfile{
		ID:     "itest-cand-" + uuid.NewString(),
		Skills: []types.Skill{{Name: "Python", Level: 3}},
		Region: "Karnataka",
	}
	require.NoError(t, db.UpsertCandidate(ctx, candidate))
	for i := range opps {
		require.NoError(t, db.UpsertOpportunity(ctx, &opps[i]))
	}

	t.Cleanup(func() {
		_, _ = db.pool.Exec(context.Background(), "DELETE FROM candidates WHERE id = $1", candidate.ID)
		for _, o := range opps {
			_, _ = db.pool.Exec(context.Background(), "DELETE FROM opportunities WHERE id = $1", o.ID)
		}
	})
	return candidate
}

func testListing(active bool, deadline *time.Time) types.Opportunity {
	return types.Opportunity{
		ID:            "itest-opp-" + uuid.NewString(),
		Title:         "Data Intern",
		Sector:        types.SectorTechnology,
		Region:        "Karnataka",
		Type:          types.EngagementFullTime,
		DurationWeeks: 12,
		Skills:        []string{"Python"},
		Active:        active,
		Deadline:      deadline,
	}
}

func TestIntegration_Migrate_Idempotent(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	applied, err := db.Migrate(ctx)
	require.NoError(t, err)
	assert.Empty(t, applied)

	version, err := db.MigrationVersion(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, version, int64(1))
}

func TestIntegration_Candidate_RoundTrip(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	candidate := seed(t, db)

	got, err := db.GetCandidate(ctx, candidate.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, candidate.Skills, got.Skills)

	missing, err := db.GetCandidate(ctx, "itest-missing-"+uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIntegration_ListActiveOpportunities(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	open := testListing(true, nil)
	openFuture := testListing(true, &future)
	expired := testListing(true, &past)
	inactive := testListing(false, nil)
	seed(t, db, open, openFuture, expired, inactive)

	opps, err := db.ListActiveOpportunities(ctx, now)
	require.NoError(t, err)

	ids := make(map[string]bool)
	for _, o := range opps {
		ids[o.ID] = true
	}
	assert.True(t, ids[open.ID])
	assert.True(t, ids[openFuture.ID])
	assert.False(t, ids[expired.ID])
	assert.False(t, ids[inactive.ID])
}

func TestIntegration_Recommendations(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	a, b := testListing(true, nil), testListing(true, nil)
	candidate := seed(t, db, a, b)

	recs := []types.Recommendation{
		{CandidateID: candidate.ID, OpportunityID: a.ID, Score: 60, Reasons: []string{"a"}, ScoredBy: types.ScoredByHeuristic},
		{CandidateID: candidate.ID, OpportunityID: b.ID, Score: 80, Reasons: []string{"b"}, ScoredBy: types.ScoredByHeuristic},
	}
	require.NoError(t, db.UpsertRecommendations(ctx, recs))

	t.Run("upsert replaces score and reasons", func(t *testing.T) {
		require.NoError(t, db.UpsertRecommendations(ctx, []types.Recommendation{
			{CandidateID: candidate.ID, OpportunityID: a.ID, Score: 70, Reasons: []string{"updated"}, ScoredBy: types.ScoredByExternal},
		}))

		stored, err := db.ListRecommendations(ctx, candidate.ID, 10)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, b.ID, stored[0].OpportunityID)
		assert.Equal(t, a.ID, stored[1].OpportunityID)
		assert.Equal(t, 70.0, stored[1].Score)
		assert.Equal(t, []string{"updated"}, stored[1].Reasons)
		assert.Equal(t, types.ScoredByExternal, stored[1].ScoredBy)
	})

	t.Run("recommended ids", func(t *testing.T) {
		ids, err := db.ListRecommendedOpportunityIDs(ctx, candidate.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{a.ID, b.ID}, ids)
	})
}

func TestIntegration_ApplyAndBoost(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	recommended, plain := testListing(true, nil), testListing(true, nil)
	candidate := seed(t, db, recommended, plain)
	require.NoError(t, db.UpsertRecommendations(ctx, []types.Recommendation{
		{CandidateID: candidate.ID, OpportunityID: recommended.ID, Score: 97, Reasons: []string{"a"}, ScoredBy: types.ScoredByHeuristic},
	}))

	first, created, boosted, err := db.ApplyAndBoost(ctx, candidate.ID, recommended.ID, 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, boosted)
	assert.Equal(t, types.ApplicationPending, first.Status)
	assert.Nil(t, first.InterviewDate)

	stored, err := db.ListRecommendations(ctx, candidate.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, 100.0, stored[0].Score, "boost is capped at 100")

	second, created, boosted, err := db.ApplyAndBoost(ctx, candidate.ID, recommended.ID, 5)
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, boosted)
	assert.Equal(t, first.ID, second.ID)

	_, created, boosted, err = db.ApplyAndBoost(ctx, candidate.ID, plain.ID, 5)
	require.NoError(t, err)
	assert.True(t, created)
	assert.False(t, boosted, "nothing to boost without a recommendation")
}

func TestIntegration_ApplyAndBoost_RollsBack(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	opp := testListing(true, nil)
	candidate := seed(t, db, opp)

	_, _, _, err := db.ApplyAndBoost(ctx, candidate.ID, "itest-missing-"+uuid.NewString(), 5)
	require.Error(t, err, "foreign key violation aborts the transaction")

	var count int
	require.NoError(t, db.pool.QueryRow(ctx, `SELECT COUNT(*) FROM applications WHERE candidate_id = $1`, candidate.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestIntegration_UpdateApplicationStatus(t *testing.T) {
	db := getTestDB(t)
	defer db.Close()
	ctx := context.Background()

	opp := testListing(true, nil)
	candidate := seed(t, db, opp)
	app, _, _, err := db.ApplyAndBoost(ctx, candidate.ID, opp.ID, 5)
	require.NoError(t, err)

	interview := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Second)
	updated, err := db.UpdateApplicationStatus(ctx, app.ID, &types.ApplicationUpdate{
		Status: types.ApplicationShortlisted, Feedback: "Strong SQL", InterviewDate: &interview,
	})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, types.ApplicationShortlisted, updated.Status)
	assert.Equal(t, "Strong SQL", updated.Feedback)
	require.NotNil(t, updated.InterviewDate)
	assert.True(t, interview.Equal(*updated.InterviewDate))

	updated, err = db.UpdateApplicationStatus(ctx, app.ID, &types.ApplicationUpdate{Status: types.ApplicationAccepted})
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationAccepted, updated.Status)
	assert.Equal(t, "Strong SQL", updated.Feedback, "empty feedback keeps the previous value")
	assert.NotNil(t, updated.InterviewDate)

	got, err := db.GetApplication(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, types.ApplicationAccepted, got.Status)

	missing, err := db.UpdateApplicationStatus(ctx, uuid.New(), &types.ApplicationUpdate{Status: types.ApplicationRejected})
	require.NoError(t, err)
	assert.Nil(t, missing)

	got, err = db.GetApplication(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, got)
}

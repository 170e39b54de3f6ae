package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/internship-matcher/internal/ranking"
	"github.com/jonathan/internship-matcher/internal/server/ratelimit"
	"github.com/jonathan/internship-matcher/internal/service"
	"github.com/jonathan/internship-matcher/internal/types"
)

// mockService implements RecommendationService with function fields.
type mockService struct {
	GenerateFunc        func(ctx context.Context, candidateID string) (*types.Recommendations, error)
	ListFunc            func(ctx context.Context, candidateID string, limit int) (*types.Recommendations, error)
	ApplyFunc           func(ctx context.Context, candidateID, opportunityID string) (*service.ApplyResult, error)
	SaveCandidateFunc   func(ctx context.Context, profile *types.CandidateProfile) error
	SaveOpportunityFunc func(ctx context.Context, opp *types.Opportunity) (bool, error)
	GetApplicationFunc  func(ctx context.Context, applicationID string) (*types.Application, error)
	UpdateStatusFunc    func(ctx context.Context, applicationID string, update *types.ApplicationUpdate) (*types.Application, error)
}

func (m *mockService) Generate(ctx context.Context, candidateID string) (*types.Recommendations, error) {
	return m.GenerateFunc(ctx, candidateID)
}

func (m *mockService) List(ctx context.Context, candidateID string, limit int) (*types.Recommendations, error) {
	return m.ListFunc(ctx, candidateID, limit)
}

func (m *mockService) Apply(ctx context.Context, candidateID, opportunityID string) (*service.ApplyResult, error) {
	return m.ApplyFunc(ctx, candidateID, opportunityID)
}

func (m *mockService) SaveCandidate(ctx context.Context, profile *types.CandidateProfile) error {
	return m.SaveCandidateFunc(ctx, profile)
}

func (m *mockService) SaveOpportunity(ctx context.Context, opp *types.Opportunity) (bool, error) {
	return m.SaveOpportunityFunc(ctx, opp)
}

func (m *mockService) GetApplication(ctx context.Context, applicationID string) (*types.Application, error) {
	return m.GetApplicationFunc(ctx, applicationID)
}

func (m *mockService) UpdateApplicationStatus(ctx context.Context, applicationID string, update *types.ApplicationUpdate) (*types.Application, error) {
	return m.UpdateStatusFunc(ctx, applicationID, update)
}

func disabledLimiter() *ratelimit.Limiter {
	return ratelimit.NewLimiter(&ratelimit.Config{Enabled: false})
}

func newTestServer(t *testing.T, svc *mockService) http.Handler {
	t.Helper()
	if svc == nil {
		svc = &mockService{}
	}
	s := New(Config{Port: 0}, svc, ranking.NewMatcher(), disabledLimiter(), nil)
	return s.Handler()
}

func doRequest(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Buffer
	if body == "" {
		reader = &bytes.Buffer{}
	} else {
		reader = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Equal(t, "ok", resp["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestRequestIDPropagated(t *testing.T) {
	h := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodOptions, "/candidates/c1", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PUT")
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "PATCH")
}

const recommendBody = `{
	"candidate": {"id": "cand_001", "skills": [{"name": "Python", "level": 4}, {"name": "SQL", "level": 3}], "experience_years": 1},
	"opportunities": [
		{"id": "opp_plain", "sector": "retail", "region": "Goa", "type": "part_time", "duration_weeks": 8, "active": true},
		{"id": "opp_data", "sector": "technology", "region": "Karnataka", "type": "full_time", "duration_weeks": 12, "skills": ["python", "SQL"], "active": true}
	]%s
}`

func TestRecommendEndpoint(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodPost, "/recommend", fmtBody(""))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.Recommendations](t, w)
	assert.Equal(t, "cand_001", resp.CandidateID)
	require.Len(t, resp.Recommendations, 2)
	assert.Equal(t, "opp_data", resp.Recommendations[0].OpportunityID)
	assert.Greater(t, resp.Recommendations[0].Score, resp.Recommendations[1].Score)
	for _, rec := range resp.Recommendations {
		assert.NotEmpty(t, rec.Reasons)
		assert.LessOrEqual(t, len(rec.Reasons), 3)
		assert.Equal(t, types.ScoredByHeuristic, rec.ScoredBy)
	}
}

func TestRecommendEndpoint_ExcludeAndLimit(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodPost, "/recommend", fmtBody(`, "exclude_ids": ["opp_data"], "limit": 1`))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.Recommendations](t, w)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, "opp_plain", resp.Recommendations[0].OpportunityID)
}

func TestRecommendEndpoint_Errors(t *testing.T) {
	h := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed JSON", body: `{"candidate":`},
		{name: "missing candidate", body: `{"opportunities": []}`},
		{name: "invalid candidate", body: `{"candidate": {"skills": []}, "opportunities": []}`},
		{name: "negative limit", body: fmtBody(`, "limit": -1`)},
		{name: "invalid opportunity", body: `{"candidate": {"id": "c"}, "opportunities": [{"id": "o", "sector": "space"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, h, http.MethodPost, "/recommend", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			resp := decode[map[string]any](t, w)
			assert.NotEmpty(t, resp["error"])
		})
	}
}

func TestRecommendEndpoint_BodyTooLarge(t *testing.T) {
	h := newTestServer(t, nil)
	body := `{"candidate": {"id": "c", "bio": "` + strings.Repeat("x", maxBodyBytes) + `"}, "opportunities": []}`

	w := doRequest(t, h, http.MethodPost, "/recommend", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	resp := decode[map[string]string](t, w)
	assert.Contains(t, resp["error"], "Request body too large")
}

func TestRecommendEndpoint_ValidationDetails(t *testing.T) {
	h := newTestServer(t, nil)

	w := doRequest(t, h, http.MethodPost, "/recommend", `{"candidate": {"skills": []}, "opportunities": []}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp struct {
		Error   string             `json:"error"`
		Details []types.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Details)
	assert.Equal(t, "id", resp.Details[0].Field)
}

func TestGenerateEndpoint(t *testing.T) {
	var gotID string
	svc := &mockService{
		GenerateFunc: func(_ context.Context, candidateID string) (*types.Recommendations, error) {
			gotID = candidateID
			return &types.Recommendations{
				CandidateID: candidateID,
				Source:      service.SourceGenerated,
				Recommendations: []types.Recommendation{
					{CandidateID: candidateID, OpportunityID: "o1", Score: 80, Reasons: []string{"a"}},
				},
			}, nil
		},
	}
	h := newTestServer(t, svc)

	w := doRequest(t, h, http.MethodPost, "/candidates/cand_42/recommendations", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "cand_42", gotID)
	resp := decode[types.Recommendations](t, w)
	assert.Equal(t, service.SourceGenerated, resp.Source)
	require.Len(t, resp.Recommendations, 1)
	assert.Equal(t, 80.0, resp.Recommendations[0].Score)
}

func TestGenerateEndpoint_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{
			name:       "not found",
			err:        &service.NotFoundError{Kind: "candidate", ID: "cand_42"},
			wantStatus: http.StatusNotFound,
			wantError:  "candidate not found: cand_42",
		},
		{
			name:       "internal",
			err:        errors.New("pool closed"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{
				GenerateFunc: func(context.Context, string) (*types.Recommendations, error) {
					return nil, tt.err
				},
			}
			h := newTestServer(t, svc)

			w := doRequest(t, h, http.MethodPost, "/candidates/cand_42/recommendations", "")

			assert.Equal(t, tt.wantStatus, w.Code)
			resp := decode[map[string]any](t, w)
			assert.Equal(t, tt.wantError, resp["error"])
		})
	}
}

func TestListEndpoint(t *testing.T) {
	var gotLimit int
	svc := &mockService{
		ListFunc: func(_ context.Context, candidateID string, limit int) (*types.Recommendations, error) {
			gotLimit = limit
			return &types.Recommendations{CandidateID: candidateID, Source: service.SourceStored, Recommendations: []types.Recommendation{}}, nil
		},
	}
	h := newTestServer(t, svc)

	w := doRequest(t, h, http.MethodGet, "/candidates/c1/recommendations?limit=3", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, gotLimit)

	w = doRequest(t, h, http.MethodGet, "/candidates/c1/recommendations", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, gotLimit)
	resp := decode[types.Recommendations](t, w)
	assert.NotNil(t, resp.Recommendations)

	w = doRequest(t, h, http.MethodGet, "/candidates/c1/recommendations?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplyEndpoint(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	tests := []struct {
		name       string
		created    bool
		err        error
		wantStatus int
	}{
		{name: "first application", created: true, wantStatus: http.StatusCreated},
		{name: "repeat application", created: false, wantStatus: http.StatusOK},
		{name: "closed listing", err: &service.ClosedOpportunityError{OpportunityID: "o1"}, wantStatus: http.StatusConflict},
		{name: "unknown listing", err: &service.NotFoundError{Kind: "opportunity", ID: "o1"}, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCandidate, gotOpp string
			svc := &mockService{
				ApplyFunc: func(_ context.Context, candidateID, opportunityID string) (*service.ApplyResult, error) {
					gotCandidate, gotOpp = candidateID, opportunityID
					if tt.err != nil {
						return nil, tt.err
					}
					return &service.ApplyResult{
						Application: &types.Application{
							ID:            uuid.New(),
							CandidateID:   candidateID,
							OpportunityID: opportunityID,
							Status:        types.ApplicationPending,
							CreatedAt:     now,
						},
						Created: tt.created,
						Boosted: tt.created,
					}, nil
				},
			}
			h := newTestServer(t, svc)

			w := doRequest(t, h, http.MethodPost, "/candidates/c1/applications", `{"opportunity_id": "o1"}`)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, "c1", gotCandidate)
			assert.Equal(t, "o1", gotOpp)
		})
	}
}

func TestUpdateApplicationEndpoint(t *testing.T) {
	appID := uuid.New()
	interview := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)
	var gotID string
	var gotUpdate *types.ApplicationUpdate
	svc := &mockService{
		UpdateStatusFunc: func(_ context.Context, applicationID string, update *types.ApplicationUpdate) (*types.Application, error) {
			gotID, gotUpdate = applicationID, update
			if err := update.Validate(); err != nil {
				return nil, err
			}
			return &types.Application{ID: appID, CandidateID: "c1", OpportunityID: "o1", Status: update.Status, Feedback: update.Feedback, InterviewDate: update.InterviewDate}, nil
		},
	}
	h := newTestServer(t, svc)

	w := doRequest(t, h, http.MethodPatch, "/applications/"+appID.String(),
		`{"status": "shortlisted", "feedback": "Strong SQL", "interview_date": "2026-04-02T10:00:00Z"}`)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, appID.String(), gotID)
	require.NotNil(t, gotUpdate.InterviewDate)
	assert.True(t, interview.Equal(*gotUpdate.InterviewDate))
	resp := decode[types.Application](t, w)
	assert.Equal(t, types.ApplicationShortlisted, resp.Status)
	assert.Equal(t, "Strong SQL", resp.Feedback)

	w = doRequest(t, h, http.MethodPatch, "/applications/"+appID.String(), `{"status": "hired"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	var bad struct {
		Details []types.FieldError `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &bad))
	require.NotEmpty(t, bad.Details)
	assert.Equal(t, "status", bad.Details[0].Field)

	w = doRequest(t, h, http.MethodPatch, "/applications/"+appID.String(), `{"status":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestApplicationEndpoints_NotFound(t *testing.T) {
	notFound := &service.NotFoundError{Kind: "application", ID: "a1"}
	svc := &mockService{
		GetApplicationFunc: func(_ context.Context, _ string) (*types.Application, error) {
			return nil, notFound
		},
		UpdateStatusFunc: func(_ context.Context, _ string, _ *types.ApplicationUpdate) (*types.Application, error) {
			return nil, notFound
		},
	}
	h := newTestServer(t, svc)

	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodGet, "/applications/a1", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(t, h, http.MethodPatch, "/applications/a1", `{"status": "accepted"}`).Code)
}

func TestGetApplicationEndpoint(t *testing.T) {
	appID := uuid.New()
	svc := &mockService{
		GetApplicationFunc: func(_ context.Context, _ string) (*types.Application, error) {
			return &types.Application{ID: appID, CandidateID: "c1", OpportunityID: "o1", Status: types.ApplicationAccepted}, nil
		},
	}
	h := newTestServer(t, svc)

	w := doRequest(t, h, http.MethodGet, "/applications/"+appID.String(), "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[types.Application](t, w)
	assert.Equal(t, appID, resp.ID)
	assert.Equal(t, types.ApplicationAccepted, resp.Status)
}

func TestPutCandidateEndpoint(t *testing.T) {
	var saved *types.CandidateProfile
	svc := &mockService{
		SaveCandidateFunc: func(_ context.Context, profile *types.CandidateProfile) error {
			saved = profile
			return profile.Validate()
		},
	}
	h := newTestServer(t, svc)

	w := doRequest(t, h, http.MethodPut, "/candidates/c9", `{"skills": [{"name": "Go", "level": 3}]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NotNil(t, saved)
	assert.Equal(t, "c9", saved.ID)

	saved = nil
	w = doRequest(t, h, http.MethodPut, "/candidates/c9", `{"id": "other"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, saved)

	w = doRequest(t, h, http.MethodPut, "/candidates/c9", `{"skills": [{"name": "Go", "level": 9}]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPutOpportunityEndpoint(t *testing.T) {
	created := true
	svc := &mockService{
		SaveOpportunityFunc: func(_ context.Context, opp *types.Opportunity) (bool, error) {
			if err := opp.Validate(); err != nil {
				return false, err
			}
			return created, nil
		},
	}
	h := newTestServer(t, svc)
	body := `{"sector": "finance", "region": "Delhi", "type": "remote", "duration_weeks": 6, "active": true}`

	w := doRequest(t, h, http.MethodPut, "/opportunities/o7", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	resp := decode[SaveOpportunityResponse](t, w)
	assert.True(t, resp.Created)
	assert.Equal(t, "o7", resp.Opportunity.ID)

	created = false
	w = doRequest(t, h, http.MethodPut, "/opportunities/o7", body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	limiter := ratelimit.NewLimiter(&ratelimit.Config{
		Enabled:       true,
		DefaultLimit:  2,
		DefaultWindow: time.Minute,
	})
	defer limiter.Stop()
	svc := &mockService{
		ListFunc: func(_ context.Context, candidateID string, _ int) (*types.Recommendations, error) {
			return &types.Recommendations{CandidateID: candidateID, Recommendations: []types.Recommendation{}}, nil
		},
	}
	h := New(Config{}, svc, ranking.NewMatcher(), limiter, nil).Handler()

	for i := 0; i < 2; i++ {
		w := doRequest(t, h, http.MethodGet, "/candidates/c1/recommendations", "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
	}

	w := doRequest(t, h, http.MethodGet, "/candidates/c1/recommendations", "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
	resp := decode[map[string]any](t, w)
	assert.Equal(t, "rate_limit_exceeded", resp["error"])

	// Health checks are never limited.
	w = doRequest(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestExtractClientID(t *testing.T) {
	s := &Server{}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.RemoteAddr = "192.0.2.10:5123"
	assert.Equal(t, "192.0.2.10", s.extractClientID(req))

	req.RemoteAddr = "not-an-addr"
	assert.Equal(t, "not-an-addr", s.extractClientID(req))
}

func TestMatchPathID(t *testing.T) {
	id := ""
	require.NoError(t, matchPathID("c1", &id))
	assert.Equal(t, "c1", id)

	id = "c1"
	require.NoError(t, matchPathID("c1", &id))

	id = "c2"
	err := matchPathID("c1", &id)
	assert.True(t, types.IsValidationError(err))
}

func fmtBody(extra string) string {
	return fmt.Sprintf(recommendBody, extra)
}

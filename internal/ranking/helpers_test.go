package ranking

import (
	"context"

	"github.com/jonathan/internship-matcher/internal/llm"
	"github.com/jonathan/internship-matcher/internal/types"
)

// MockLLMClient implements llm.Client for testing
type MockLLMClient struct {
	GenerateContentFunc func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GenerateJSONFunc    func(ctx context.Context, prompt string, tier llm.ModelTier) (string, error)
	GetModelFunc        func(tier llm.ModelTier) string
	CloseFunc           func() error

	calls int
}

func (m *MockLLMClient) GenerateContent(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	if m.GenerateContentFunc != nil {
		return m.GenerateContentFunc(ctx, prompt, tier)
	}
	return "", nil
}

func (m *MockLLMClient) GenerateJSON(ctx context.Context, prompt string, tier llm.ModelTier) (string, error) {
	m.calls++
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, prompt, tier)
	}
	return `[]`, nil
}

func (m *MockLLMClient) GetModel(tier llm.ModelTier) string {
	if m.GetModelFunc != nil {
		return m.GetModelFunc(tier)
	}
	return "mock-model"
}

func (m *MockLLMClient) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

func respondWith(body string) *MockLLMClient {
	return &MockLLMClient{
		GenerateJSONFunc: func(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
			return body, nil
		},
	}
}

func ptr[T any](v T) *T { return &v }

func testCandidate() *types.CandidateProfile {
	return &types.CandidateProfile{
		ID:              "cand_001",
		Skills:          []types.Skill{{Name: "Python", Level: 4}, {Name: "SQL", Level: 3}},
		ExperienceYears: 1,
		Region:          "Karnataka",
	}
}

func testOpportunity(id string) types.Opportunity {
	return types.Opportunity{
		ID:            id,
		Title:         "Data Intern",
		Sector:        types.SectorTechnology,
		Region:        "Karnataka",
		Type:          types.EngagementFullTime,
		DurationWeeks: 12,
		Skills:        []string{"Python", "Java"},
		Active:        true,
	}
}

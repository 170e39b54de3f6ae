package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/internship-matcher/internal/llm"
	"github.com/jonathan/internship-matcher/internal/logger"
	"github.com/jonathan/internship-matcher/internal/schemas"
	"github.com/jonathan/internship-matcher/internal/types"
)

// DefaultExternalTimeout bounds a single external scoring request.
const DefaultExternalTimeout = 20 * time.Second

// Stages at which external scoring can fail.
const (
	StagePrompt   = "prompt"
	StageRequest  = "request"
	StageSchema   = "schema"
	StageDecode   = "decode"
	StageResponse = "response"
)

// ExternalScorerError reports a failed external scoring attempt.
type ExternalScorerError struct {
	Stage string
	Cause error
}

func (e *ExternalScorerError) Error() string {
	return fmt.Sprintf("external scorer %s failed: %v", e.Stage, e.Cause)
}

func (e *ExternalScorerError) Unwrap() error {
	return e.Cause
}

// ExternalScorer scores a batch with one LLM request. Responses are schema-checked
// and every returned id must belong to the batch.
type ExternalScorer struct {
	client  llm.Client
	tier    llm.ModelTier
	timeout time.Duration
	logger  *zap.Logger
}

// ExternalOption configures an ExternalScorer.
type ExternalOption func(*ExternalScorer)

// WithTier selects the model tier used for scoring.
func WithTier(tier llm.ModelTier) ExternalOption {
	return func(s *ExternalScorer) { s.tier = tier }
}

// WithTimeout sets the per-request timeout. Zero disables it.
func WithTimeout(d time.Duration) ExternalOption {
	return func(s *ExternalScorer) { s.timeout = d }
}

// WithScorerLogger sets the logger for request diagnostics.
func WithScorerLogger(l *zap.Logger) ExternalOption {
	return func(s *ExternalScorer) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewExternalScorer wraps an LLM client as a Scorer.
func NewExternalScorer(client llm.Client, opts ...ExternalOption) *ExternalScorer {
	s := &ExternalScorer{
		client:  client,
		tier:    llm.TierStandard,
		timeout: DefaultExternalTimeout,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name identifies the scorer on recommendations.
func (s *ExternalScorer) Name() string { return types.ScoredByExternal }

// ScoreBatch makes exactly one request for the whole batch.
func (s *ExternalScorer) ScoreBatch(ctx context.Context, candidate *types.CandidateProfile, opportunities []types.Opportunity) ([]Scored, error) {
	prompt, err := BuildScoringPrompt(candidate, opportunities)
	if err != nil {
		return nil, &ExternalScorerError{Stage: StagePrompt, Cause: err}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	s.logger.Debug("requesting external scores",
		zap.String("candidate_id", candidate.ID),
		zap.Int("opportunities", len(opportunities)),
		zap.String("model", s.client.GetModel(s.tier)),
	)

	raw, err := s.client.GenerateJSON(ctx, prompt, s.tier)
	if err != nil {
		return nil, &ExternalScorerError{Stage: StageRequest, Cause: err}
	}

	scored, err := ParseScorerResponse(raw, opportunities)
	if err != nil {
		s.logger.Debug("rejected external response", zap.String("response", logger.TruncateForLog(raw, 500)))
		return nil, err
	}
	return scored, nil
}

type scorerEntry struct {
	OpportunityID string   `json:"opportunityId"`
	Score         float64  `json:"score"`
	Reasons       []string `json:"reasons"`
}

// ParseScorerResponse validates a raw provider response against the batch it was asked to score.
func ParseScorerResponse(raw string, opportunities []types.Opportunity) ([]Scored, error) {
	cleaned := llm.CleanJSONBlock(raw)
	if err := schemas.Validate(schemas.ScorerResponse, cleaned); err != nil {
		return nil, &ExternalScorerError{Stage: StageSchema, Cause: err}
	}

	var entries []scorerEntry
	if err := json.Unmarshal([]byte(cleaned), &entries); err != nil {
		return nil, &ExternalScorerError{Stage: StageDecode, Cause: err}
	}

	known := make(map[string]bool, len(opportunities))
	for i := range opportunities {
		known[opportunities[i].ID] = true
	}

	seen := make(map[string]bool, len(entries))
	out := make([]Scored, 0, len(entries))
	for i, e := range entries {
		id := strings.TrimSpace(e.OpportunityID)
		if !known[id] {
			return nil, &ExternalScorerError{Stage: StageResponse, Cause: fmt.Errorf("entry %d: unknown opportunity id %q", i, id)}
		}
		if seen[id] {
			return nil, &ExternalScorerError{Stage: StageResponse, Cause: fmt.Errorf("entry %d: duplicate opportunity id %q", i, id)}
		}
		seen[id] = true

		reasons := make([]string, 0, len(e.Reasons))
		for _, r := range e.Reasons {
			if r = strings.TrimSpace(r); r != "" {
				reasons = append(reasons, r)
			}
		}
		if len(reasons) == 0 {
			return nil, &ExternalScorerError{Stage: StageResponse, Cause: fmt.Errorf("entry %d: no usable reasons", i)}
		}

		out = append(out, Scored{OpportunityID: id, Score: types.ClampScore(e.Score), Reasons: reasons})
	}
	return out, nil
}

package ranking

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/internship-matcher/internal/types"
)

// DefaultLimit is the number of recommendations returned when the caller has no preference.
const DefaultLimit = 5

// maxReasons caps the reasons kept per recommendation.
const maxReasons = 3

// Matcher ranks opportunities for a candidate.
type Matcher struct {
	external  Scorer
	heuristic HeuristicScorer
	logger    *zap.Logger
	now       func() time.Time
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithExternalScorer sets the preferred scorer. A nil scorer disables external scoring.
func WithExternalScorer(s Scorer) Option {
	return func(m *Matcher) { m.external = s }
}

// WithLogger sets the matcher's logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Matcher) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock overrides the time source used for CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Matcher) {
		if now != nil {
			m.now = now
		}
	}
}

// NewMatcher creates a matcher. Without WithExternalScorer it scores heuristically.
func NewMatcher(opts ...Option) *Matcher {
	m := &Matcher{
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Recommend scores the opportunities not listed in excludeIDs and returns at most limit
// recommendations, best first. Equal scores keep input order. Opportunities are not
// filtered for activity or deadlines here.
func (m *Matcher) Recommend(ctx context.Context, candidate *types.CandidateProfile, opportunities []types.Opportunity, excludeIDs []string, limit int) ([]types.Recommendation, error) {
	if limit < 1 {
		return nil, &types.ValidationError{
			Subject: "request",
			Errors:  []types.FieldError{{Field: "limit", Message: "must be at least 1"}},
		}
	}
	if err := candidate.Validate(); err != nil {
		return nil, err
	}
	if err := types.ValidateOpportunities(opportunities); err != nil {
		return nil, err
	}

	eligible := excludeOpportunities(opportunities, excludeIDs)
	if len(eligible) == 0 {
		return []types.Recommendation{}, nil
	}

	scored, scoredBy := m.score(ctx, candidate, eligible)
	ranked := m.rank(candidate, eligible, scored)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	createdAt := m.now().UTC()
	recs := make([]types.Recommendation, 0, len(ranked))
	for _, s := range ranked {
		recs = append(recs, types.Recommendation{
			CandidateID:   candidate.ID,
			OpportunityID: s.OpportunityID,
			Score:         s.Score,
			Reasons:       s.Reasons,
			ScoredBy:      scoredBy,
			CreatedAt:     createdAt,
		})
	}

	m.logger.Debug("ranked opportunities",
		zap.String("candidate_id", candidate.ID),
		zap.Int("eligible", len(eligible)),
		zap.Int("returned", len(recs)),
		zap.String("scored_by", scoredBy),
	)
	return recs, nil
}

// score runs the external scorer when configured and falls back to the heuristic
// for the whole batch on any failure.
func (m *Matcher) score(ctx context.Context, candidate *types.CandidateProfile, eligible []types.Opportunity) ([]Scored, string) {
	if m.external != nil {
		scored, err := m.external.ScoreBatch(ctx, candidate, eligible)
		if err == nil {
			return scored, m.external.Name()
		}
		m.logger.Warn("external scoring failed, using heuristic",
			zap.String("candidate_id", candidate.ID),
			zap.Int("opportunities", len(eligible)),
			zap.Error(err),
		)
	}
	scored, _ := m.heuristic.ScoreBatch(ctx, candidate, eligible)
	return scored, m.heuristic.Name()
}

// rank puts scored entries in input order, normalizes them, then stable-sorts by score.
// Opportunities missing from scored are dropped.
func (m *Matcher) rank(candidate *types.CandidateProfile, eligible []types.Opportunity, scored []Scored) []Scored {
	byID := make(map[string]Scored, len(scored))
	for _, s := range scored {
		byID[s.OpportunityID] = s
	}

	ranked := make([]Scored, 0, len(byID))
	for i := range eligible {
		s, ok := byID[eligible[i].ID]
		if !ok {
			continue
		}
		s.Score = types.ClampScore(s.Score)
		if len(s.Reasons) == 0 {
			s.Reasons = m.heuristic.Score(candidate, &eligible[i]).Reasons
		}
		if len(s.Reasons) > maxReasons {
			s.Reasons = s.Reasons[:maxReasons]
		}
		ranked = append(ranked, s)
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func excludeOpportunities(opportunities []types.Opportunity, excludeIDs []string) []types.Opportunity {
	if len(excludeIDs) == 0 {
		return opportunities
	}
	excluded := make(map[string]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	eligible := make([]types.Opportunity, 0, len(opportunities))
	for _, opp := range opportunities {
		if !excluded[opp.ID] {
			eligible = append(eligible, opp)
		}
	}
	return eligible
}

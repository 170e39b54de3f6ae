// Package ranking scores and ranks internship opportunities for a candidate.
//
// A Matcher prefers an injected external Scorer and falls back to the
// deterministic HeuristicScorer for the whole batch whenever the external
// scorer is missing or fails.
package ranking

import (
	"context"

	"github.com/jonathan/internship-matcher/internal/types"
)

// Scored is one opportunity's score and the reasons behind it.
type Scored struct {
	OpportunityID string
	Score         float64
	Reasons       []string
}

// Scorer scores a batch of opportunities for one candidate.
// Implementations may return fewer entries than opportunities, never unknown ids.
type Scorer interface {
	Name() string
	ScoreBatch(ctx context.Context, candidate *types.CandidateProfile, opportunities []types.Opportunity) ([]Scored, error)
}

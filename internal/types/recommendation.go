//nolint:revive // types is a standard Go package name pattern
package types

import "time"

// Scorer names recorded on recommendations.
const (
	ScoredByHeuristic = "heuristic"
	ScoredByExternal  = "external"
)

// Recommendation is a scored (candidate, opportunity) pairing with explanatory reasons.
// There is at most one per pair; re-scoring replaces score, reasons and CreatedAt.
type Recommendation struct {
	CandidateID   string    `json:"candidate_id"`
	OpportunityID string    `json:"opportunity_id"`
	Score         float64   `json:"score"`
	Reasons       []string  `json:"reasons"`
	ScoredBy      string    `json:"scored_by,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// Recommendations is the envelope written by the CLI and returned by the API.
type Recommendations struct {
	CandidateID     string           `json:"candidate_id"`
	Source          string           `json:"source,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// ClampScore limits a score to the closed range [0, 100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

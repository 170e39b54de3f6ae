package ranking

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/internship-matcher/internal/types"
)

// Heuristic point values
const (
	baseScore       = 50.0
	skillMatchBonus = 10.0 // per matched skill, uncapped before the final clamp
	locationBonus   = 15.0
	sectorBonus     = 15.0
	typeBonus       = 10.0
	stipendBonus    = 10.0
)

// Breakdown records which heuristic bonuses apply to a (candidate, opportunity) pair.
type Breakdown struct {
	MatchedSkills []string
	LocationMatch bool
	SectorMatch   bool
	TypeMatch     bool
	StipendMatch  bool
}

// Points converts the breakdown into a score clamped to [0, 100].
func (b Breakdown) Points() float64 {
	score := baseScore + skillMatchBonus*float64(len(b.MatchedSkills))
	if b.LocationMatch {
		score += locationBonus
	}
	if b.SectorMatch {
		score += sectorBonus
	}
	if b.TypeMatch {
		score += typeBonus
	}
	if b.StipendMatch {
		score += stipendBonus
	}
	return types.ClampScore(score)
}

// HeuristicScorer is the deterministic, local fallback scorer. It is a pure function
// of its inputs and safe for concurrent use.
type HeuristicScorer struct{}

// Name identifies the scorer on recommendations.
func (HeuristicScorer) Name() string { return types.ScoredByHeuristic }

// ScoreBatch scores every opportunity. It never returns an error.
func (h HeuristicScorer) ScoreBatch(_ context.Context, candidate *types.CandidateProfile, opportunities []types.Opportunity) ([]Scored, error) {
	out := make([]Scored, len(opportunities))
	for i := range opportunities {
		out[i] = h.Score(candidate, &opportunities[i])
	}
	return out, nil
}

// Score scores a single opportunity.
func (HeuristicScorer) Score(candidate *types.CandidateProfile, opp *types.Opportunity) Scored {
	b := Explain(candidate, opp)
	return Scored{
		OpportunityID: opp.ID,
		Score:         b.Points(),
		Reasons:       heuristicReasons(b, opp),
	}
}

// Explain computes which bonuses apply. Preferences that are empty never match.
func Explain(candidate *types.CandidateProfile, opp *types.Opportunity) Breakdown {
	prefs := candidate.Preferences
	b := Breakdown{
		MatchedSkills: matchSkills(candidate.Skills, opp.Skills),
		LocationMatch: containsFold(prefs.PreferredLocations, opp.Region),
		SectorMatch:   containsFold(prefs.PreferredSectors, string(opp.Sector)),
	}
	for _, t := range prefs.PreferredTypes {
		if t == opp.Type {
			b.TypeMatch = true
			break
		}
	}
	if prefs.MinStipend != nil && opp.Paid() {
		b.StipendMatch = *opp.Stipend >= *prefs.MinStipend
	}
	return b
}

// matchSkills returns candidate skills present in required, compared case-insensitively.
// Each distinct candidate skill counts once; names keep the candidate's spelling.
func matchSkills(skills []types.Skill, required []string) []string {
	if len(skills) == 0 || len(required) == 0 {
		return nil
	}
	requiredSet := make(map[string]bool, len(required))
	for _, r := range required {
		requiredSet[normalizeSkill(r)] = true
	}

	var matched []string
	counted := make(map[string]bool, len(skills))
	for _, s := range skills {
		key := normalizeSkill(s.Name)
		if key == "" || counted[key] {
			continue
		}
		counted[key] = true
		if requiredSet[key] {
			matched = append(matched, strings.TrimSpace(s.Name))
		}
	}
	return matched
}

func normalizeSkill(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func containsFold(values []string, target string) bool {
	target = strings.TrimSpace(target)
	if target == "" {
		return false
	}
	for _, v := range values {
		if strings.EqualFold(strings.TrimSpace(v), target) {
			return true
		}
	}
	return false
}

// heuristicReasons always yields three reasons in fixed order: skills, location, sector.
// Location and sector wording only claims a preference match when the bonus applied.
func heuristicReasons(b Breakdown, opp *types.Opportunity) []string {
	reasons := make([]string, 0, 3)

	switch n := len(b.MatchedSkills); n {
	case 0:
		reasons = append(reasons, "Opportunity to learn new skills")
	case 1:
		reasons = append(reasons, fmt.Sprintf("1 skill matches your profile (%s)", b.MatchedSkills[0]))
	default:
		reasons = append(reasons, fmt.Sprintf("%d skills match your profile (%s)", n, strings.Join(b.MatchedSkills, ", ")))
	}

	if b.LocationMatch {
		reasons = append(reasons, "In your preferred location: "+locationLabel(opp))
	} else {
		reasons = append(reasons, "Located in "+locationLabel(opp))
	}

	if b.SectorMatch {
		reasons = append(reasons, "Matches your preferred sector: "+string(opp.Sector))
	} else {
		reasons = append(reasons, fmt.Sprintf("%s sector opportunity", opp.Sector))
	}

	return reasons
}

func locationLabel(opp *types.Opportunity) string {
	loc := strings.TrimSpace(opp.Location)
	if loc == "" || strings.EqualFold(loc, opp.Region) {
		return opp.Region
	}
	return loc + ", " + opp.Region
}

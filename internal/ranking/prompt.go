package ranking

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/internship-matcher/internal/prompts"
	"github.com/jonathan/internship-matcher/internal/types"
)

const (
	promptFile = "matching.json"
	promptKey  = "score-opportunities"
)

// BuildScoringPrompt renders the batch scoring prompt for one candidate.
// Each opportunity is listed with its id in brackets so the response can reference it.
func BuildScoringPrompt(candidate *types.CandidateProfile, opportunities []types.Opportunity) (string, error) {
	p, err := prompts.Get(promptFile, promptKey)
	if err != nil {
		return "", fmt.Errorf("failed to load scoring prompt: %w", err)
	}

	prefs := candidate.Preferences
	preferredTypes := make([]string, 0, len(prefs.PreferredTypes))
	for _, t := range prefs.PreferredTypes {
		preferredTypes = append(preferredTypes, string(t))
	}

	minStipend := "Flexible"
	if prefs.MinStipend != nil {
		minStipend = formatAmount(*prefs.MinStipend)
	}

	return p.Render(map[string]string{
		"Skills":             formatSkills(candidate.Skills),
		"Education":          formatEducation(candidate.Education),
		"Experience":         strconv.Itoa(candidate.ExperienceYears),
		"Region":             orDefault(candidate.Region, "Not specified"),
		"PreferredSectors":   joinOrAny(prefs.PreferredSectors),
		"PreferredLocations": joinOrAny(prefs.PreferredLocations),
		"PreferredTypes":     joinOrAny(preferredTypes),
		"MinStipend":         minStipend,
		"Bio":                orDefault(strings.TrimSpace(candidate.Bio), "Not provided"),
		"Opportunities":      formatOpportunities(opportunities),
		"Sectors":            types.SectorNames(", "),
	})
}

func formatSkills(skills []types.Skill) string {
	if len(skills) == 0 {
		return "None listed"
	}
	parts := make([]string, 0, len(skills))
	for _, s := range skills {
		parts = append(parts, fmt.Sprintf("%s (level %d/5)", s.Name, s.Level))
	}
	return strings.Join(parts, ", ")
}

func formatEducation(education []types.Education) string {
	if len(education) == 0 {
		return "Not provided"
	}
	parts := make([]string, 0, len(education))
	for _, e := range education {
		end := "present"
		if e.EndYear != nil {
			end = strconv.Itoa(*e.EndYear)
		}
		parts = append(parts, fmt.Sprintf("%s in %s from %s (%d-%s)", e.Degree, e.Field, e.Institution, e.StartYear, end))
	}
	return strings.Join(parts, "; ")
}

func formatOpportunities(opportunities []types.Opportunity) string {
	var sb strings.Builder
	for i := range opportunities {
		opp := &opportunities[i]
		title := orDefault(strings.TrimSpace(opp.Title), "Untitled internship")
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, opp.ID, title)
		fmt.Fprintf(&sb, "   - Sector: %s\n", opp.Sector)
		fmt.Fprintf(&sb, "   - Location: %s\n", locationLabel(opp))
		fmt.Fprintf(&sb, "   - Type: %s\n", opp.Type)
		fmt.Fprintf(&sb, "   - Duration: %d weeks\n", opp.DurationWeeks)
		if opp.Paid() {
			fmt.Fprintf(&sb, "   - Stipend: %s\n", formatAmount(*opp.Stipend))
		} else {
			sb.WriteString("   - Stipend: Unpaid\n")
		}
		fmt.Fprintf(&sb, "   - Skills required: %s\n", joinOrAny(opp.Skills))
		if req := strings.TrimSpace(opp.Requirements); req != "" {
			fmt.Fprintf(&sb, "   - Requirements: %s\n", req)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func joinOrAny(values []string) string {
	if len(values) == 0 {
		return "Any"
	}
	return strings.Join(values, ", ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

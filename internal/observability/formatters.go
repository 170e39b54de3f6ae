// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/internship-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // verbose output; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}

// PrintCandidate outputs a short summary of the candidate being matched.
func (p *Printer) PrintCandidate(profile *types.CandidateProfile) {
	if profile == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Candidate:  %s\n", profile.ID))
	if profile.Region != "" {
		sb.WriteString(fmt.Sprintf("Region:     %s\n", profile.Region))
	}
	sb.WriteString(fmt.Sprintf("Experience: %d years\n", profile.ExperienceYears))

	if len(profile.Skills) > 0 {
		sb.WriteString("\nSkills:\n")
		count := min(len(profile.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			s := profile.Skills[i]
			sb.WriteString(fmt.Sprintf("  • %s (level %d/5)\n", s.Name, s.Level))
		}
		if len(profile.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(profile.Skills)-maxItemsToShow))
		}
	}

	prefs := profile.Preferences
	if len(prefs.PreferredSectors) > 0 {
		sb.WriteString(fmt.Sprintf("\nSectors:    %s\n", strings.Join(prefs.PreferredSectors, ", ")))
	}
	if len(prefs.PreferredLocations) > 0 {
		sb.WriteString(fmt.Sprintf("Locations:  %s\n", strings.Join(prefs.PreferredLocations, ", ")))
	}

	p.printBox("CANDIDATE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintRecommendations outputs the top recommendations with scores and reasons.
// titles maps opportunity ids to display titles; missing entries show the id alone.
func (p *Printer) PrintRecommendations(recs []types.Recommendation, titles map[string]string) {
	if len(recs) == 0 {
		p.printBox("RECOMMENDATIONS", "No opportunities to recommend")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total recommendations: %d\n\n", len(recs)))

	count := min(len(recs), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := recs[i]
		label := rec.OpportunityID
		if title := titles[rec.OpportunityID]; title != "" {
			label = fmt.Sprintf("%s  %s", rec.OpportunityID, title)
		}
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, label))
		sb.WriteString(fmt.Sprintf("    Score: %.1f", rec.Score))
		if rec.ScoredBy != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", rec.ScoredBy))
		}
		sb.WriteString("\n")
		for _, reason := range rec.Reasons {
			sb.WriteString(fmt.Sprintf("    - %s\n", reason))
		}
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(recs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more recommendations", len(recs)-maxItemsToShow))
	}

	p.printBox("TOP RECOMMENDATIONS", strings.TrimSuffix(sb.String(), "\n"))
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jonathan/internship-matcher/internal/observability"
	"github.com/jonathan/internship-matcher/internal/ranking"
	"github.com/jonathan/internship-matcher/internal/schemas"
	"github.com/jonathan/internship-matcher/internal/types"
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Rank opportunities for a candidate",
	Long:  "Scores every opportunity in a JSON file against a candidate profile and writes the top recommendations as JSON, sorted by score. Uses the external scorer with --use-llm and falls back to the built-in heuristic when it is unavailable.",
	RunE:  runRecommend,
}

var (
	recommendCandidate     string
	recommendOpportunities string
	recommendExclude       []string
	recommendLimit         int
	recommendUseLLM        bool
	recommendOutput        string
	recommendVerbose       bool
)

func init() {
	recommendCmd.Flags().StringVarP(&recommendCandidate, "candidate", "c", "", "Path to input CandidateProfile JSON file (required)")
	recommendCmd.Flags().StringVarP(&recommendOpportunities, "opportunities", "p", "", "Path to input JSON array of opportunities (required)")
	recommendCmd.Flags().StringSliceVarP(&recommendExclude, "exclude", "x", nil, "Opportunity ids to skip (repeatable or comma-separated)")
	recommendCmd.Flags().IntVarP(&recommendLimit, "limit", "n", 0, "Maximum recommendations (defaults to matching.limit)")
	recommendCmd.Flags().BoolVar(&recommendUseLLM, "use-llm", false, "Score with the configured LLM provider")
	recommendCmd.Flags().StringVarP(&recommendOutput, "out", "o", "", "Path to output Recommendations JSON file (default stdout)")
	recommendCmd.Flags().BoolVarP(&recommendVerbose, "verbose", "v", false, "Print a readable summary to stderr")

	if err := recommendCmd.MarkFlagRequired("candidate"); err != nil {
		panic(fmt.Sprintf("failed to mark candidate flag as required: %v", err))
	}
	if err := recommendCmd.MarkFlagRequired("opportunities"); err != nil {
		panic(fmt.Sprintf("failed to mark opportunities flag as required: %v", err))
	}

	rootCmd.AddCommand(recommendCmd)
}

func runRecommend(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if recommendUseLLM {
		cfg.LLM.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	limit := recommendLimit
	if !cmd.Flags().Changed("limit") {
		limit = cfg.Matching.Limit
	}

	ctx := cmd.Context()
	matcher, closeLLM, err := buildMatcher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLLM()

	inputs, err := loadRecommendInputs(recommendCandidate, recommendOpportunities)
	if err != nil {
		return err
	}
	result, err := inputs.rank(ctx, matcher, recommendExclude, limit)
	if err != nil {
		return err
	}

	if recommendVerbose {
		printer := observability.NewPrinter(cmd.ErrOrStderr())
		printer.PrintCandidate(&inputs.candidate)
		printer.PrintRecommendations(result.Recommendations, inputs.titles())
	}

	if err := writeRecommendations(result, recommendOutput, cmd.OutOrStdout(), cmd.ErrOrStderr()); err != nil {
		return err
	}
	if recommendOutput != "" {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Successfully ranked %d recommendations to %s\n", len(result.Recommendations), recommendOutput)
	}
	return nil
}

// recommendInputs holds the candidate and listings read from disk.
type recommendInputs struct {
	candidate     types.CandidateProfile
	opportunities []types.Opportunity
}

func loadRecommendInputs(candidatePath, opportunitiesPath string) (*recommendInputs, error) {
	in := &recommendInputs{}
	if err := readJSONFile(candidatePath, &in.candidate); err != nil {
		return nil, fmt.Errorf("failed to load candidate: %w", err)
	}
	if err := readJSONFile(opportunitiesPath, &in.opportunities); err != nil {
		return nil, fmt.Errorf("failed to load opportunities: %w", err)
	}
	return in, nil
}

func (in *recommendInputs) rank(ctx context.Context, matcher *ranking.Matcher, exclude []string, limit int) (*types.Recommendations, error) {
	recs, err := matcher.Recommend(ctx, &in.candidate, in.opportunities, exclude, limit)
	if err != nil {
		return nil, err
	}
	return &types.Recommendations{CandidateID: in.candidate.ID, Recommendations: recs}, nil
}

// titles maps opportunity ids to their titles for verbose output.
func (in *recommendInputs) titles() map[string]string {
	titles := make(map[string]string, len(in.opportunities))
	for _, opp := range in.opportunities {
		titles[opp.ID] = opp.Title
	}
	return titles
}

func readJSONFile(path string, dst any) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(content, dst); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", path, err)
	}
	return nil
}

// writeRecommendations writes indented JSON to path, or to stdout when path is empty.
// The output is checked against the recommendations schema; a mismatch is only a warning.
func writeRecommendations(result *types.Recommendations, path string, stdout, stderr io.Writer) error {
	jsonOutput, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal recommendations to JSON: %w", err)
	}

	if err := schemas.Validate(schemas.Recommendations, string(jsonOutput)); err != nil {
		_, _ = fmt.Fprintf(stderr, "Warning: Output validation failed: %v\n", err)
	}

	if path == "" {
		_, err := fmt.Fprintln(stdout, string(jsonOutput))
		return err
	}

	outputDir := filepath.Dir(path)
	if outputDir != "" && outputDir != "." {
		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory %s: %w", outputDir, err)
		}
	}
	if err := os.WriteFile(path, jsonOutput, 0644); err != nil {
		return fmt.Errorf("failed to write recommendations to output file %s: %w", path, err)
	}
	return nil
}

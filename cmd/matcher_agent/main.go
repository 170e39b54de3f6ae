// Package main provides the matcher_agent CLI: offline ranking, the HTTP API and migrations.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/internship-matcher/internal/config"
	"github.com/jonathan/internship-matcher/internal/llm"
	"github.com/jonathan/internship-matcher/internal/logger"
	"github.com/jonathan/internship-matcher/internal/ranking"
)

var (
	configPath string
	logJSON    bool
	logDebug   bool
)

var rootCmd = &cobra.Command{
	Use:           "matcher_agent",
	Short:         "Internship recommendation engine",
	Long:          "matcher_agent scores and ranks internship opportunities for student profiles, either offline from JSON files or through a REST API backed by PostgreSQL.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "json", false, "Emit JSON logs")
	rootCmd.PersistentFlags().BoolVar(&logDebug, "debug", false, "Enable debug logging")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and environment; --json/--debug override the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("json") {
		cfg.Log.JSON = logJSON
	}
	if cmd.Flags().Changed("debug") {
		cfg.Log.Debug = logDebug
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, nil
}

// buildMatcher returns a Matcher that uses the external scorer when the LLM is enabled.
// The returned close function releases the LLM client and is never nil.
func buildMatcher(ctx context.Context, cfg *config.Config, log *zap.Logger) (*ranking.Matcher, func(), error) {
	opts := []ranking.Option{ranking.WithLogger(log)}
	closeFn := func() {}

	if cfg.LLM.Enabled {
		llmConfig, err := cfg.LLMClientConfig()
		if err != nil {
			return nil, closeFn, err
		}
		client, err := llm.NewClient(ctx, llmConfig, cfg.LLM.APIKey)
		if err != nil {
			return nil, closeFn, fmt.Errorf("failed to create LLM client: %w", err)
		}
		closeFn = func() {
			if err := client.Close(); err != nil {
				log.Warn("failed to close LLM client", zap.Error(err))
			}
		}

		scorerOpts := []ranking.ExternalOption{ranking.WithScorerLogger(log)}
		if cfg.LLM.Timeout > 0 {
			scorerOpts = append(scorerOpts, ranking.WithTimeout(cfg.LLM.Timeout))
		}
		opts = append(opts, ranking.WithExternalScorer(ranking.NewExternalScorer(client, scorerOpts...)))
		log.Info("external scorer enabled", logger.LLMFields(string(llmConfig.Provider), client.GetModel(llm.TierStandard))...)
	}

	return ranking.NewMatcher(opts...), closeFn, nil
}

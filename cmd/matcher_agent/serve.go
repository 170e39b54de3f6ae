package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/internship-matcher/internal/config"
	"github.com/jonathan/internship-matcher/internal/db"
	"github.com/jonathan/internship-matcher/internal/notify"
	"github.com/jonathan/internship-matcher/internal/server"
	"github.com/jonathan/internship-matcher/internal/server/ratelimit"
	"github.com/jonathan/internship-matcher/internal/service"
)

var (
	servePort    int
	serveMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes REST endpoints for ranking opportunities and managing stored recommendations.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides server.port)")
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "Apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if servePort != 0 {
		cfg.Server.Port = servePort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("config error: 'database_url' (or DATABASE_URL) is required")
	}

	log, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	if serveMigrate {
		applied, err := database.Migrate(ctx)
		if err != nil {
			return err
		}
		log.Info("migrations applied", zap.Int("count", len(applied)))
	}

	matcher, closeLLM, err := buildMatcher(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeLLM()

	publisher, err := buildPublisher(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("failed to close publisher", zap.Error(err))
		}
	}()

	svc := service.New(database, matcher, service.Config{
		Limit:       cfg.Matching.Limit,
		StoredLimit: cfg.Matching.StoredLimit,
		ApplyBoost:  cfg.Matching.ApplyBoost,
	}, service.WithPublisher(publisher), service.WithLogger(log))

	limiter := ratelimit.NewLimiter(rateLimitConfig(cfg.RateLimit))

	srv := server.New(server.Config{
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	}, svc, matcher, limiter, log)

	return srv.Start(ctx)
}

// buildPublisher dials the broker when one is configured.
func buildPublisher(cfg *config.Config, log *zap.Logger) (notify.Publisher, error) {
	if cfg.Broker.URL == "" {
		log.Info("no broker configured, notifications disabled")
		return notify.NopPublisher{}, nil
	}
	publisher, err := notify.DialAMQP(cfg.Broker.URL, cfg.Broker.Exchange)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	log.Info("publishing notifications", zap.String("exchange", cfg.Broker.Exchange))
	return publisher, nil
}

func rateLimitConfig(rl config.RateLimitConfig) *ratelimit.Config {
	return &ratelimit.Config{
		Enabled:         rl.Enabled,
		DefaultLimit:    rl.DefaultLimit,
		DefaultWindow:   rl.DefaultWindow,
		CleanupInterval: rl.CleanupInterval,
		Whitelist:       ratelimit.IPSet(rl.Whitelist),
		Blacklist:       ratelimit.IPSet(rl.Blacklist),
		EndpointConfigs: ratelimit.DefaultEndpointConfigs(),
	}
}

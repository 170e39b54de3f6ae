// Package service runs recommendation generation against the store: it loads
// candidates and open listings, ranks unseen listings, persists the results and
// notifies the candidate.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/internship-matcher/internal/notify"
	"github.com/jonathan/internship-matcher/internal/types"
)

// Recommendation sources
const (
	SourceGenerated = "generated"
	SourceStored    = "stored"
)

// Store is the persistence the service needs. *db.DB implements it.
type Store interface {
	GetCandidate(ctx context.Context, id string) (*types.CandidateProfile, error)
	UpsertCandidate(ctx context.Context, profile *types.CandidateProfile) error
	GetOpportunity(ctx context.Context, id string) (*types.Opportunity, error)
	UpsertOpportunity(ctx context.Context, opp *types.Opportunity) error
	ListActiveOpportunities(ctx context.Context, now time.Time) ([]types.Opportunity, error)
	ListRecommendedOpportunityIDs(ctx context.Context, candidateID string) ([]string, error)
	UpsertRecommendations(ctx context.Context, recs []types.Recommendation) error
	ListRecommendations(ctx context.Context, candidateID string, limit int) ([]types.Recommendation, error)
	ApplyAndBoost(ctx context.Context, candidateID, opportunityID string, boost float64) (app *types.Application, created, boosted bool, err error)
	GetApplication(ctx context.Context, id uuid.UUID) (*types.Application, error)
	UpdateApplicationStatus(ctx context.Context, id uuid.UUID, update *types.ApplicationUpdate) (*types.Application, error)
}

// Ranker ranks opportunities for a candidate. *ranking.Matcher implements it.
type Ranker interface {
	Recommend(ctx context.Context, candidate *types.CandidateProfile, opportunities []types.Opportunity, excludeIDs []string, limit int) ([]types.Recommendation, error)
}

// Config holds service limits.
type Config struct {
	Limit       int
	StoredLimit int
	ApplyBoost  float64
}

// Service coordinates the store, ranker and publisher.
type Service struct {
	store     Store
	ranker    Ranker
	publisher notify.Publisher
	logger    *zap.Logger
	cfg       Config
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the event publisher. Defaults to notify.NopPublisher.
func WithPublisher(p notify.Publisher) Option {
	return func(s *Service) {
		if p != nil {
			s.publisher = p
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Service.
func New(store Store, ranker Ranker, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:     store,
		ranker:    ranker,
		publisher: notify.NopPublisher{},
		logger:    zap.NewNop(),
		cfg:       cfg,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate ranks the open listings the candidate has not been recommended yet and
// stores the results. When every open listing was already recommended it returns the
// stored recommendations instead.
func (s *Service) Generate(ctx context.Context, candidateID string) (*types.Recommendations, error) {
	if err := requireID("candidate_id", candidateID); err != nil {
		return nil, err
	}

	var (
		candidate     *types.CandidateProfile
		opportunities []types.Opportunity
		seenIDs       []string
	)
	now := s.now()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidate, err = s.store.GetCandidate(gctx, candidateID)
		return err
	})
	g.Go(func() error {
		var err error
		opportunities, err = s.store.ListActiveOpportunities(gctx, now)
		return err
	})
	g.Go(func() error {
		var err error
		seenIDs, err = s.store.ListRecommendedOpportunityIDs(gctx, candidateID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load recommendation inputs: %w", err)
	}
	if candidate == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: candidateID}
	}

	if countUnseen(opportunities, seenIDs) == 0 {
		stored, err := s.store.ListRecommendations(ctx, candidateID, s.cfg.StoredLimit)
		if err != nil {
			return nil, err
		}
		s.logger.Info("no new opportunities, returning stored recommendations",
			zap.String("candidate_id", candidateID),
			zap.Int("count", len(stored)),
		)
		return &types.Recommendations{CandidateID: candidateID, Source: SourceStored, Recommendations: stored}, nil
	}

	recs, err := s.ranker.Recommend(ctx, candidate, opportunities, seenIDs, s.cfg.Limit)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpsertRecommendations(ctx, recs); err != nil {
		return nil, err
	}

	s.logger.Info("generated recommendations",
		zap.String("candidate_id", candidateID),
		zap.Int("open", len(opportunities)),
		zap.Int("already_recommended", len(seenIDs)),
		zap.Int("count", len(recs)),
	)
	if len(recs) > 0 {
		s.publish(ctx, notify.RecommendationsGenerated(candidateID, len(recs), now))
	}

	return &types.Recommendations{CandidateID: candidateID, Source: SourceGenerated, Recommendations: recs}, nil
}

// List returns stored recommendations, best first. A limit of 0 uses the configured default.
func (s *Service) List(ctx context.Context, candidateID string, limit int) (*types.Recommendations, error) {
	if err := requireID("candidate_id", candidateID); err != nil {
		return nil, err
	}
	if limit < 0 {
		return nil, &types.ValidationError{Subject: "request", Errors: []types.FieldError{{Field: "limit", Message: "must be at least 1"}}}
	}
	if limit == 0 {
		limit = s.cfg.StoredLimit
	}

	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return nil, err
	}
	if candidate == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: candidateID}
	}

	recs, err := s.store.ListRecommendations(ctx, candidateID, limit)
	if err != nil {
		return nil, err
	}
	return &types.Recommendations{CandidateID: candidateID, Source: SourceStored, Recommendations: recs}, nil
}

// ApplyResult describes a recorded application.
type ApplyResult struct {
	Application *types.Application `json:"application"`
	Created     bool               `json:"created"`
	Boosted     bool               `json:"boosted"`
}

// Apply records the candidate's application and raises the matching recommendation's
// score in one store transaction. Repeating an application changes nothing. The
// candidate and, when the listing names one, the employer are notified.
func (s *Service) Apply(ctx context.Context, candidateID, opportunityID string) (*ApplyResult, error) {
	if err := requireID("candidate_id", candidateID); err != nil {
		return nil, err
	}
	if err := requireID("opportunity_id", opportunityID); err != nil {
		return nil, err
	}

	var (
		candidate *types.CandidateProfile
		opp       *types.Opportunity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		candidate, err = s.store.GetCandidate(gctx, candidateID)
		return err
	})
	g.Go(func() error {
		var err error
		opp, err = s.store.GetOpportunity(gctx, opportunityID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load application inputs: %w", err)
	}
	if candidate == nil {
		return nil, &NotFoundError{Kind: "candidate", ID: candidateID}
	}
	if opp == nil {
		return nil, &NotFoundError{Kind: "opportunity", ID: opportunityID}
	}

	now := s.now()
	if !opp.Open(now) {
		return nil, &ClosedOpportunityError{OpportunityID: opportunityID}
	}

	app, created, boosted, err := s.store.ApplyAndBoost(ctx, candidateID, opportunityID, s.cfg.ApplyBoost)
	if err != nil {
		return nil, err
	}
	result := &ApplyResult{Application: app, Created: created, Boosted: boosted}
	if !created {
		return result, nil
	}

	s.logger.Info("application submitted",
		zap.String("candidate_id", candidateID),
		zap.String("opportunity_id", opportunityID),
		zap.Bool("boosted", result.Boosted),
	)
	s.publish(ctx, notify.ApplicationSubmitted(candidateID, opportunityID, opp.Title, now))
	if opp.EmployerID != "" {
		s.publish(ctx, notify.NewApplication(opp.EmployerID, candidateID, opportunityID, opp.Title, now))
	}
	return result, nil
}

// GetApplication returns a stored application.
func (s *Service) GetApplication(ctx context.Context, applicationID string) (*types.Application, error) {
	id, err := parseApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, &NotFoundError{Kind: "application", ID: applicationID}
	}
	return app, nil
}

// UpdateApplicationStatus records an employer's review decision and tells the
// candidate. Shortlisting with an interview date also announces the interview.
func (s *Service) UpdateApplicationStatus(ctx context.Context, applicationID string, update *types.ApplicationUpdate) (*types.Application, error) {
	id, err := parseApplicationID(applicationID)
	if err != nil {
		return nil, err
	}
	if err := update.Validate(); err != nil {
		return nil, err
	}

	app, err := s.store.UpdateApplicationStatus(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, &NotFoundError{Kind: "application", ID: applicationID}
	}

	title := s.opportunityTitle(ctx, app.OpportunityID)
	now := s.now()
	s.logger.Info("application status updated",
		zap.String("application_id", app.ID.String()),
		zap.String("candidate_id", app.CandidateID),
		zap.String("status", string(app.Status)),
	)
	s.publish(ctx, notify.ApplicationUpdate(app.CandidateID, app.ID.String(), app.OpportunityID, title, string(app.Status), now))
	if update.InterviewScheduled() {
		s.publish(ctx, notify.InterviewScheduled(app.CandidateID, app.ID.String(), app.OpportunityID, title, *update.InterviewDate, now))
	}
	return app, nil
}

// opportunityTitle looks up a listing title for a notification. Lookup failures
// are logged and yield an empty title.
func (s *Service) opportunityTitle(ctx context.Context, opportunityID string) string {
	opp, err := s.store.GetOpportunity(ctx, opportunityID)
	if err != nil {
		s.logger.Warn("failed to load opportunity for notification",
			zap.String("opportunity_id", opportunityID),
			zap.Error(err),
		)
		return ""
	}
	if opp == nil {
		return ""
	}
	return opp.Title
}

// SaveCandidate validates and stores a candidate profile.
func (s *Service) SaveCandidate(ctx context.Context, profile *types.CandidateProfile) error {
	if err := profile.Validate(); err != nil {
		return err
	}
	return s.store.UpsertCandidate(ctx, profile)
}

// SaveOpportunity validates and stores a listing. A newly created open listing is
// announced to all students.
func (s *Service) SaveOpportunity(ctx context.Context, opp *types.Opportunity) (created bool, err error) {
	if err := opp.Validate(); err != nil {
		return false, err
	}
	existing, err := s.store.GetOpportunity(ctx, opp.ID)
	if err != nil {
		return false, err
	}
	if err := s.store.UpsertOpportunity(ctx, opp); err != nil {
		return false, err
	}

	now := s.now()
	if existing == nil && opp.Open(now) {
		s.publish(ctx, notify.NewInternship(opp.ID, opp.Title, string(opp.Sector), opp.Region, now))
	}
	return existing == nil, nil
}

// publish delivers an event; failures are logged and never fail the caller.
func (s *Service) publish(ctx context.Context, event notify.Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			zap.String("type", string(event.Type)),
			zap.String("routing_key", event.RoutingKey()),
			zap.Error(err),
		)
	}
}

func countUnseen(opportunities []types.Opportunity, seenIDs []string) int {
	seen := make(map[string]bool, len(seenIDs))
	for _, id := range seenIDs {
		seen[id] = true
	}
	n := 0
	for _, opp := range opportunities {
		if !seen[opp.ID] {
			n++
		}
	}
	return n
}

func parseApplicationID(raw string) (uuid.UUID, error) {
	if err := requireID("application_id", raw); err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &types.ValidationError{Subject: "request", Errors: []types.FieldError{{Field: "application_id", Message: "must be a valid UUID"}}}
	}
	return id, nil
}

func requireID(field, id string) error {
	if id == "" {
		return &types.ValidationError{Subject: "request", Errors: []types.FieldError{{Field: field, Message: "is required"}}}
	}
	return nil
}

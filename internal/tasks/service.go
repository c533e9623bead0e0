package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/OscarCarPu/life-manager/internal/logging"
)

// Repository is the data-access collaborator that supplies the engine's
// snapshot in three batched reads.
type Repository interface {
	// InProgressProjects returns every project in the in_progress state.
	InProgressProjects(ctx context.Context) ([]Project, error)
	// CandidateTasks returns tasks of the given projects in the given states,
	// in a stable retrieval order.
	CandidateTasks(ctx context.Context, projectIDs []int64, states []TaskState) ([]Task, error)
	// Plannings returns plannings of the given tasks dated on or after from.
	Plannings(ctx context.Context, taskIDs []int64, from time.Time) ([]Planning, error)
}

// Cache stores ranked results between requests
type Cache interface {
	Get(ctx context.Context, key string) ([]Recommendation, bool, error)
	Set(ctx context.Context, key string, recs []Recommendation) error
}

// ServiceConfig represents configuration for the recommendation service
type ServiceConfig struct {
	// DefaultLimit is applied by callers that do not ask for a limit.
	// Zero returns the full ranking.
	DefaultLimit int `json:"default_limit"`
	// Location determines which calendar day "today" is.
	Location *time.Location `json:"-"`
}

// DefaultServiceConfig returns default service configuration
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		DefaultLimit: 0,
		Location:     time.UTC,
	}
}

// Service orchestrates fetch, score and cache for recommendations
type Service struct {
	repository Repository
	engine     *Engine
	cache      Cache
	logger     logging.Logger
	config     ServiceConfig
	now        func() time.Time
}

// ServiceOption customizes a Service
type ServiceOption func(*Service)

// WithCache enables result caching
func WithCache(cache Cache) ServiceOption {
	return func(s *Service) {
		s.cache = cache
	}
}

// WithLogger sets the service logger
func WithLogger(logger logging.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger.WithComponent("recommendations")
	}
}

// WithClock overrides the wall clock used by Today
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new recommendation service
func NewService(repo Repository, engine *Engine, config ServiceConfig, opts ...ServiceOption) *Service {
	if config.Location == nil {
		config.Location = time.UTC
	}
	s := &Service{
		repository: repo,
		engine:     engine,
		logger:     logging.NewNoOpLogger(),
		config:     config,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the service configuration
func (s *Service) Config() ServiceConfig {
	return s.config
}

// Engine returns the underlying engine
func (s *Service) Engine() *Engine {
	return s.engine
}

// Weights returns the engine's effective weights
func (s *Service) Weights() Weights {
	return s.engine.Weights()
}

// Today returns the current calendar day in the configured location
func (s *Service) Today() time.Time {
	return DateOf(s.now().In(s.config.Location))
}

// Recommend returns the ranked candidate tasks for the given day
func (s *Service) Recommend(ctx context.Context, today time.Time, limit int, forPlanning bool) ([]Recommendation, error) {
	if limit < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidLimit, limit)
	}
	today = DateOf(today)

	key := CacheKey(today, limit, forPlanning, s.engine.Weights())
	if s.cache != nil {
		recs, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.WarnContext(ctx, "recommendation cache read failed", "key", key, "error", err.Error())
		case ok:
			s.logger.DebugContext(ctx, "recommendation cache hit", "key", key)
			return recs, nil
		}
	}

	snap, err := s.Snapshot(ctx, today)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	recs := s.engine.Recommend(snap, Options{
		Today:       today,
		Limit:       limit,
		ForPlanning: forPlanning,
	})
	s.logger.DebugContext(ctx, "ranked candidate tasks",
		"candidates", len(snap.Tasks),
		"returned", len(recs),
		"for_planning", forPlanning,
		"duration", time.Since(start).String())

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, recs); err != nil {
			s.logger.WarnContext(ctx, "recommendation cache write failed", "key", key, "error", err.Error())
		}
	}

	return recs, nil
}

// Snapshot loads the engine input for the given day
func (s *Service) Snapshot(ctx context.Context, today time.Time) (Snapshot, error) {
	projects, err := s.repository.InProgressProjects(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load in-progress projects: %w", err)
	}

	projectIDs := make([]int64, 0, len(projects))
	for _, p := range projects {
		projectIDs = append(projectIDs, p.ID)
	}

	tasks, err := s.repository.CandidateTasks(ctx, projectIDs, CandidateStates)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load candidate tasks: %w", err)
	}

	taskIDs := make([]int64, 0, len(tasks))
	for _, t := range tasks {
		taskIDs = append(taskIDs, t.ID)
	}

	plannings, err := s.repository.Plannings(ctx, taskIDs, DateOf(today))
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load plannings: %w", err)
	}

	return Snapshot{
		Tasks:     tasks,
		Projects:  projects,
		Plannings: plannings,
	}, nil
}

// Warm computes and caches both rankings for the given day using the
// default limit.
func (s *Service) Warm(ctx context.Context, today time.Time) error {
	if s.cache == nil {
		return nil
	}
	for _, forPlanning := range []bool{false, true} {
		if _, err := s.Recommend(ctx, today, s.config.DefaultLimit, forPlanning); err != nil {
			return fmt.Errorf("failed to warm recommendations (for_planning=%t): %w", forPlanning, err)
		}
	}
	return nil
}

// CacheKey identifies a ranking by its inputs
func CacheKey(today time.Time, limit int, forPlanning bool, weights Weights) string {
	mode := "next"
	if forPlanning {
		mode = "planning"
	}
	return fmt.Sprintf("%s:%s:%d:%s", DateOf(today).Format(time.DateOnly), mode, limit, weights.Fingerprint())
}

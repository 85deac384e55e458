// Package service assembles the engagement engine and implements the
// dependencies required by the HTTP API.
package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/okian/raidline/internal/adapters/chat"
	"github.com/okian/raidline/internal/adapters/http/api"
	"github.com/okian/raidline/internal/adapters/repository"
	"github.com/okian/raidline/internal/adapters/xapi"
	"github.com/okian/raidline/internal/domain/model"
	"github.com/okian/raidline/internal/domain/scheduler"
	"github.com/okian/raidline/internal/domain/scoring"
	"github.com/okian/raidline/internal/domain/session"
	"github.com/okian/raidline/pkg/logger"
	"github.com/okian/raidline/pkg/metrics"
)

const registryFile = "registry.db"

// Service owns the component graph: persistent registry, external gateway
// client, session state, scoring engine and the window scheduler.
type Service struct {
	mu sync.RWMutex

	// Core components, built in Start.
	store     *repository.SQLiteStore
	registry  *repository.Registry
	client    *xapi.Client
	session   *session.State
	engine    *scoring.Engine
	scheduler *scheduler.Scheduler
	gateway   chat.Gateway

	// Configuration
	dataDir          string
	apiHost          string
	apiKey           string
	openTimes        []scheduler.OpenTime
	duration         time.Duration
	tick             time.Duration
	chunkLimit       int
	singleSubmission bool

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithGateway sets the chat gateway. Defaults to the log gateway.
func WithGateway(g chat.Gateway) Option {
	return func(s *Service) {
		if g != nil {
			s.gateway = g
		}
	}
}

// WithDataDir sets the directory holding the registry database.
func WithDataDir(dir string) Option {
	return func(s *Service) {
		if dir != "" {
			s.dataDir = dir
		}
	}
}

// WithAPI sets the external gateway host and credential.
func WithAPI(host, key string) Option {
	return func(s *Service) {
		s.apiHost = host
		s.apiKey = key
	}
}

// WithOpenTimes sets the daily automatic open instants.
func WithOpenTimes(times []scheduler.OpenTime) Option {
	return func(s *Service) {
		s.openTimes = times
	}
}

// WithSessionDuration sets how long a window stays open.
func WithSessionDuration(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.duration = d
		}
	}
}

// WithSchedulerTick sets the polling granularity of the automatic-open check.
func WithSchedulerTick(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.tick = d
		}
	}
}

// WithSingleSubmission limits each member to one link per window.
func WithSingleSubmission(enabled bool) Option {
	return func(s *Service) {
		s.singleSubmission = enabled
	}
}

// WithChunkLimit sets the report message size limit.
func WithChunkLimit(limit int) Option {
	return func(s *Service) {
		if limit > 0 {
			s.chunkLimit = limit
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		dataDir: "./data",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start builds the component graph and launches the scheduler loop. The loop
// stops when ctx is canceled.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting engagement service...")

	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return err
	}
	store, err := repository.NewSQLiteStore(ctx, filepath.Join(s.dataDir, registryFile))
	if err != nil {
		return err
	}
	s.store = store

	s.client = xapi.New(s.apiHost, s.apiKey, xapi.WithLogger(s.logger))
	s.registry = repository.NewRegistry(s.store, s.client, repository.WithLogger(s.logger))
	if err := s.registry.Load(ctx); err != nil {
		_ = s.store.Close()
		return err
	}
	metrics.UpdateRegistryMembers(s.registry.Size())

	var sessionOpts []session.Option
	if s.singleSubmission {
		sessionOpts = append(sessionOpts, session.WithSingleSubmission())
	}
	s.session = session.New(sessionOpts...)
	s.engine = scoring.New(s.registry, s.client, scoring.WithLogger(s.logger))

	if s.gateway == nil {
		s.gateway = chat.NewLogGateway(s.logger)
	}

	s.scheduler = scheduler.New(s.session, s.engine, s.gateway,
		scheduler.WithOpenTimes(s.openTimes),
		scheduler.WithDuration(s.duration),
		scheduler.WithTick(s.tick),
		scheduler.WithChunkLimit(s.chunkLimit),
		scheduler.WithLogger(s.logger),
	)
	go s.scheduler.Run(ctx)

	s.started = true
	s.logger.Info(ctx, "engagement service started",
		logger.Int("registry_members", s.registry.Size()),
		logger.Int("open_times", len(s.openTimes)),
	)
	return nil
}

// Stop releases persistent resources. The scheduler loop exits with the
// context passed to Start.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(context.Background(), "failed to close registry store", logger.Error(err))
		}
	}
	s.started = false
	s.logger.Info(context.Background(), "engagement service stopped")
}

// Submit routes raw message text into the current session.
func (s *Service) Submit(ctx context.Context, member model.MemberID, text string) (model.TargetID, bool) {
	return s.scheduler.Submit(ctx, member, text)
}

// Register links a member to an external handle.
func (s *Service) Register(ctx context.Context, member model.MemberID, handle string) error {
	if err := s.registry.Register(ctx, member, handle); err != nil {
		return err
	}
	metrics.UpdateRegistryMembers(s.registry.Size())
	return nil
}

// RegistryEntry returns a member's registration, if any.
func (s *Service) RegistryEntry(ctx context.Context, member model.MemberID) (model.RegistryEntry, bool) {
	return s.registry.Get(ctx, member)
}

// OpenSession opens a window on demand.
func (s *Service) OpenSession(ctx context.Context) error {
	return s.scheduler.OpenWindow(ctx)
}

// CloseSession closes the open window on demand, scoring it to completion.
func (s *Service) CloseSession(ctx context.Context) error {
	return s.scheduler.CloseWindow(ctx)
}

// SchedulerStatus exposes the state machine for observability.
func (s *Service) SchedulerStatus() scheduler.Status {
	return s.scheduler.Status()
}

// Diagnose runs a live resolve-and-fetch for a handle, bypassing the registry
// cache. Useful for checking a member's account before a session.
func (s *Service) Diagnose(ctx context.Context, handle string) (api.Diagnosis, error) {
	id, err := s.client.ResolveHandle(ctx, handle)
	if err != nil {
		return api.Diagnosis{}, err
	}
	replies, err := s.client.ReplyTargets(ctx, id, 0)
	if err != nil {
		return api.Diagnosis{}, err
	}
	return api.Diagnosis{NumericID: string(id), Replies: len(replies)}, nil
}

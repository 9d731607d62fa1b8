package content

import (
	"context"
	"fmt"
	"log/slog"
)

type programService struct {
	repo   ProgramRepository
	syncer ReleaseSyncer
	logger *slog.Logger
}

// ProgramServiceOption configures the program service
type ProgramServiceOption func(*programService)

// WithReleaseSyncer enables ?syncGithub=true on program reads.
// Without a syncer the flag is ignored.
func WithReleaseSyncer(syncer ReleaseSyncer) ProgramServiceOption {
	return func(s *programService) {
		s.syncer = syncer
	}
}

// WithProgramLogger sets the logger
func WithProgramLogger(logger *slog.Logger) ProgramServiceOption {
	return func(s *programService) {
		s.logger = logger
	}
}

// NewProgramService creates a new program service
func NewProgramService(repo ProgramRepository, opts ...ProgramServiceOption) ProgramService {
	s := &programService{
		repo:   repo,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns all programs. With syncGitHub every program that references a
// repository is refreshed first and the list is re-read afterwards. Sync
// failures are logged and never fail the read.
func (s *programService) List(ctx context.Context, syncGitHub bool) ([]*Program, error) {
	programs, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}

	if !syncGitHub || s.syncer == nil {
		return programs, nil
	}

	for _, p := range programs {
		if p.GitHubRepo == "" {
			continue
		}
		s.syncOne(ctx, p.GitHubRepo)
	}

	programs, err = s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	return programs, nil
}

// Get returns one program. With syncGitHub its repository is refreshed first
// and the program is re-read only when fresh release data was fetched.
func (s *programService) Get(ctx context.Context, documentID string, syncGitHub bool) (*Program, error) {
	documentID, err := normalizeID(documentID)
	if err != nil {
		return nil, err
	}

	program, err := s.repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}

	if !syncGitHub || s.syncer == nil || program.GitHubRepo == "" {
		return program, nil
	}

	if !s.syncOne(ctx, program.GitHubRepo) {
		return program, nil
	}

	refreshed, err := s.repo.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return refreshed, nil
}

func (s *programService) syncOne(ctx context.Context, repo string) bool {
	fresh, err := s.syncer.SyncRelease(ctx, repo)
	if err != nil {
		s.logger.Warn("[PROGRAMS] failed to sync GitHub release",
			"repo", repo,
			"error", err,
		)
		return false
	}
	return fresh
}

package content

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"Pfrastro/internal/metrics"
)

type counterService struct {
	programs  ProgramRepository
	posts     PostRepository
	portfolio PortfolioRepository
	logger    *slog.Logger
}

// NewCounterService creates a new counter service
func NewCounterService(programs ProgramRepository, posts PostRepository, portfolio PortfolioRepository, logger *slog.Logger) CounterService {
	if logger == nil {
		logger = slog.Default()
	}
	return &counterService{
		programs:  programs,
		posts:     posts,
		portfolio: portfolio,
		logger:    logger,
	}
}

func (s *counterService) IncrementPostView(ctx context.Context, documentID string) (*CounterResult, error) {
	documentID, err := normalizeID(documentID)
	if err != nil {
		return nil, err
	}

	post, err := s.posts.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load post: %w", err)
	}

	previous := post.Views
	updated, err := s.posts.SetViews(ctx, documentID, previous+1)
	if err != nil {
		return nil, fmt.Errorf("failed to update post views: %w", err)
	}

	return s.recordIncrement(CounterPostView, CounterRecord{
		ID:         updated.ID,
		DocumentID: updated.DocumentID,
		Label:      updated.Title,
		Count:      updated.Views,
	}, previous), nil
}

func (s *counterService) IncrementPortfolioView(ctx context.Context, documentID string) (*CounterResult, error) {
	documentID, err := normalizeID(documentID)
	if err != nil {
		return nil, err
	}

	entry, err := s.portfolio.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load portfolio entry: %w", err)
	}

	previous := entry.Views
	updated, err := s.portfolio.SetViews(ctx, documentID, previous+1)
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio entry views: %w", err)
	}

	return s.recordIncrement(CounterPortfolioView, CounterRecord{
		ID:         updated.ID,
		DocumentID: updated.DocumentID,
		Label:      updated.Title,
		Count:      updated.Views,
	}, previous), nil
}

func (s *counterService) IncrementProgramDownload(ctx context.Context, documentID string) (*CounterResult, error) {
	documentID, err := normalizeID(documentID)
	if err != nil {
		return nil, err
	}

	program, err := s.programs.GetByDocumentID(ctx, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load program: %w", err)
	}

	previous := program.Downloads
	updated, err := s.programs.SetDownloads(ctx, documentID, previous+1)
	if err != nil {
		return nil, fmt.Errorf("failed to update program downloads: %w", err)
	}

	return s.recordIncrement(CounterProgramDownload, CounterRecord{
		ID:         updated.ID,
		DocumentID: updated.DocumentID,
		Label:      updated.Name,
		Count:      updated.Downloads,
	}, previous), nil
}

func (s *counterService) recordIncrement(kind CounterKind, record CounterRecord, previous int64) *CounterResult {
	metrics.CounterIncrements.WithLabelValues(string(kind)).Inc()

	s.logger.Info("[COUNTERS] counter incremented",
		"kind", kind,
		"document_id", record.DocumentID,
		"label", record.Label,
		"previous", previous,
		"new", record.Count,
	)

	return &CounterResult{
		Record:        record,
		PreviousCount: previous,
		NewCount:      record.Count,
	}
}

func normalizeID(documentID string) (string, error) {
	documentID = strings.TrimSpace(documentID)
	if documentID == "" {
		return "", ErrInvalidID
	}
	return documentID, nil
}

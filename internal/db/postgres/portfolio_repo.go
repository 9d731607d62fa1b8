package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"Pfrastro/internal/core/content"
)

type postgresPortfolioRepo struct {
	db *sql.DB
}

// NewPortfolioRepository creates a new PostgreSQL portfolio entry repository
func NewPortfolioRepository(db *sql.DB) content.PortfolioRepository {
	return &postgresPortfolioRepo{db: db}
}

// Create inserts a portfolio entry, generating a document ID when empty
func (r *postgresPortfolioRepo) Create(ctx context.Context, e *content.PortfolioEntry) error {
	if e.DocumentID == "" {
		e.DocumentID = uuid.NewString()
	}

	query := `
		INSERT INTO portfolio_entries (document_id, title, slug, image_key, views)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, updated_at
	`
	err := r.db.QueryRowContext(ctx, query,
		e.DocumentID, e.Title, e.Slug, nullString(e.ImageKey), e.Views,
	).Scan(&e.ID, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert portfolio entry: %w", err)
	}
	return nil
}

func scanPortfolioEntry(row rowScanner) (*content.PortfolioEntry, error) {
	var (
		e        content.PortfolioEntry
		imageKey sql.NullString
	)
	if err := row.Scan(&e.ID, &e.DocumentID, &e.Title, &e.Slug, &imageKey, &e.Views, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.ImageKey = imageKey.String
	return &e, nil
}

// GetByDocumentID retrieves a portfolio entry by its document ID
func (r *postgresPortfolioRepo) GetByDocumentID(ctx context.Context, documentID string) (*content.PortfolioEntry, error) {
	query := `
		SELECT id, document_id, title, slug, image_key, views, updated_at
		FROM portfolio_entries WHERE document_id = $1
	`

	e, err := scanPortfolioEntry(r.db.QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get portfolio entry: %w", err)
	}
	return e, nil
}

// SetViews overwrites the view counter
func (r *postgresPortfolioRepo) SetViews(ctx context.Context, documentID string, views int64) (*content.PortfolioEntry, error) {
	query := `
		UPDATE portfolio_entries SET views = $2, updated_at = NOW()
		WHERE document_id = $1
		RETURNING id, document_id, title, slug, image_key, views, updated_at
	`

	e, err := scanPortfolioEntry(r.db.QueryRowContext(ctx, query, documentID, views))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update portfolio entry views: %w", err)
	}
	return e, nil
}

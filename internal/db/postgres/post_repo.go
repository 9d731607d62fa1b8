package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"Pfrastro/internal/core/content"
)

type postgresPostRepo struct {
	db *sql.DB
}

// NewPostRepository creates a new PostgreSQL post repository
func NewPostRepository(db *sql.DB) content.PostRepository {
	return &postgresPostRepo{db: db}
}

// Create inserts a post, generating a document ID when empty
func (r *postgresPostRepo) Create(ctx context.Context, p *content.Post) error {
	if p.DocumentID == "" {
		p.DocumentID = uuid.NewString()
	}

	query := `
		INSERT INTO posts (document_id, title, slug, views)
		VALUES ($1, $2, $3, $4)
		RETURNING id, updated_at
	`
	if err := r.db.QueryRowContext(ctx, query, p.DocumentID, p.Title, p.Slug, p.Views).Scan(&p.ID, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// GetByDocumentID retrieves a post by its document ID
func (r *postgresPostRepo) GetByDocumentID(ctx context.Context, documentID string) (*content.Post, error) {
	query := `SELECT id, document_id, title, slug, views, updated_at FROM posts WHERE document_id = $1`

	var p content.Post
	err := r.db.QueryRowContext(ctx, query, documentID).Scan(
		&p.ID, &p.DocumentID, &p.Title, &p.Slug, &p.Views, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &p, nil
}

// SetViews overwrites the view counter
func (r *postgresPostRepo) SetViews(ctx context.Context, documentID string, views int64) (*content.Post, error) {
	query := `
		UPDATE posts SET views = $2, updated_at = NOW()
		WHERE document_id = $1
		RETURNING id, document_id, title, slug, views, updated_at
	`

	var p content.Post
	err := r.db.QueryRowContext(ctx, query, documentID, views).Scan(
		&p.ID, &p.DocumentID, &p.Title, &p.Slug, &p.Views, &p.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update post views: %w", err)
	}
	return &p, nil
}

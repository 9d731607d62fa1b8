package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"Pfrastro/internal/core/content"
)

type postgresProgramRepo struct {
	db *sql.DB
}

// NewProgramRepository creates a new PostgreSQL program repository
func NewProgramRepository(db *sql.DB) content.ProgramRepository {
	return &postgresProgramRepo{db: db}
}

const programColumns = `
	id, document_id, name, slug, description,
	github_repo, latest_version, download_link,
	downloads, updated_at
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProgram(row rowScanner) (*content.Program, error) {
	var p content.Program
	var githubRepo, latestVersion, downloadURL sql.NullString

	err := row.Scan(
		&p.ID, &p.DocumentID, &p.Name, &p.Slug, &p.Description,
		&githubRepo, &latestVersion, &downloadURL,
		&p.Downloads, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	p.GitHubRepo = githubRepo.String
	p.LatestVersion = latestVersion.String
	p.DownloadLink = downloadURL.String
	return &p, nil
}

// Create inserts a program, generating a document ID when empty
func (r *postgresProgramRepo) Create(ctx context.Context, p *content.Program) error {
	if p.DocumentID == "" {
		p.DocumentID = uuid.NewString()
	}

	query := `
		INSERT INTO programs (
			document_id, name, slug, description,
			github_repo, latest_version, download_link, downloads
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		p.DocumentID, p.Name, p.Slug, p.Description,
		nullString(p.GitHubRepo), nullString(p.LatestVersion), nullString(p.DownloadLink), p.Downloads,
	).Scan(&p.ID, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert program: %w", err)
	}
	return nil
}

// List returns every program ordered by name
func (r *postgresProgramRepo) List(ctx context.Context) ([]*content.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs ORDER BY name ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list programs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var programs []*content.Program
	for rows.Next() {
		p, err := scanProgram(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan program: %w", err)
		}
		programs = append(programs, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating programs: %w", err)
	}

	return programs, nil
}

// GetByDocumentID retrieves a program by its document ID
func (r *postgresProgramRepo) GetByDocumentID(ctx context.Context, documentID string) (*content.Program, error) {
	query := `SELECT ` + programColumns + ` FROM programs WHERE document_id = $1`

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, documentID))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get program: %w", err)
	}
	return p, nil
}

// FindByGitHubRepo matches github_repo case-insensitively. With several
// matches the oldest program wins.
func (r *postgresProgramRepo) FindByGitHubRepo(ctx context.Context, repo string) (*content.Program, error) {
	query := `SELECT ` + programColumns + `
		FROM programs
		WHERE github_repo IS NOT NULL AND LOWER(github_repo) = LOWER($1)
		ORDER BY id ASC
		LIMIT 1`

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, repo))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find program by repository: %w", err)
	}
	return p, nil
}

// UpdateRelease writes latest_version and download_link only
func (r *postgresProgramRepo) UpdateRelease(ctx context.Context, documentID, version, downloadLink string) (*content.Program, error) {
	query := `
		UPDATE programs
		SET latest_version = $2, download_link = $3, updated_at = NOW()
		WHERE document_id = $1
		RETURNING ` + programColumns

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, documentID, nullString(version), nullString(downloadLink)))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update program release: %w", err)
	}
	return p, nil
}

// SetDownloads overwrites the download counter
func (r *postgresProgramRepo) SetDownloads(ctx context.Context, documentID string, downloads int64) (*content.Program, error) {
	query := `
		UPDATE programs
		SET downloads = $2, updated_at = NOW()
		WHERE document_id = $1
		RETURNING ` + programColumns

	p, err := scanProgram(r.db.QueryRowContext(ctx, query, documentID, downloads))
	if err == sql.ErrNoRows {
		return nil, content.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update program downloads: %w", err)
	}
	return p, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

package content

import "context"

// ProgramRepository defines data access for programs
type ProgramRepository interface {
	// Create inserts a program, generating a document ID when empty
	Create(ctx context.Context, program *Program) error

	// List returns every program ordered by name
	List(ctx context.Context) ([]*Program, error)

	// GetByDocumentID returns ErrNotFound when no program has the document ID
	GetByDocumentID(ctx context.Context, documentID string) (*Program, error)

	// FindByGitHubRepo matches github_repo case-insensitively.
	// Returns ErrNotFound when no program references the repository.
	FindByGitHubRepo(ctx context.Context, repo string) (*Program, error)

	// UpdateRelease writes latest_version and download_link only.
	// An empty downloadLink is stored as NULL.
	UpdateRelease(ctx context.Context, documentID, version, downloadLink string) (*Program, error)

	// SetDownloads overwrites the download counter and returns the updated record
	SetDownloads(ctx context.Context, documentID string, downloads int64) (*Program, error)
}

// PostRepository defines data access for posts
type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	GetByDocumentID(ctx context.Context, documentID string) (*Post, error)
	SetViews(ctx context.Context, documentID string, views int64) (*Post, error)
}

// PortfolioRepository defines data access for portfolio entries
type PortfolioRepository interface {
	Create(ctx context.Context, entry *PortfolioEntry) error
	GetByDocumentID(ctx context.Context, documentID string) (*PortfolioEntry, error)
	SetViews(ctx context.Context, documentID string, views int64) (*PortfolioEntry, error)
}

// CounterService increments view and download counters.
//
// Increments are a plain read-modify-write against the repository with no
// locking: two concurrent increments of the same record can both read N and
// both write N+1.
type CounterService interface {
	IncrementPostView(ctx context.Context, documentID string) (*CounterResult, error)
	IncrementPortfolioView(ctx context.Context, documentID string) (*CounterResult, error)
	IncrementProgramDownload(ctx context.Context, documentID string) (*CounterResult, error)
}

// ReleaseSyncer refreshes the release data of a GitHub repository and
// propagates it into the matching program when the data was freshly fetched.
// Reports whether a fresh fetch happened.
type ReleaseSyncer interface {
	SyncRelease(ctx context.Context, repo string) (fresh bool, err error)
}

// ProgramService reads programs, optionally refreshing GitHub release data first
type ProgramService interface {
	List(ctx context.Context, syncGitHub bool) ([]*Program, error)
	Get(ctx context.Context, documentID string, syncGitHub bool) (*Program, error)
}

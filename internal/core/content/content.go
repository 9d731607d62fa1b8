// Package content holds the site's content records (programs, posts and
// portfolio entries) and the operations that mutate them outside the admin UI:
// view and download counters, and optional GitHub release sync on program reads.
package content

import "time"

// Program is a downloadable piece of software listed on the site.
// A program with a GitHubRepo is kept in step with that repository's latest release.
type Program struct {
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
	DocumentID    string    `json:"documentId" db:"document_id"`
	Name          string    `json:"name" db:"name"`
	Slug          string    `json:"slug" db:"slug"`
	Description   string    `json:"description" db:"description"`
	GitHubRepo    string    `json:"githubRepo,omitempty" db:"github_repo"`
	LatestVersion string    `json:"latestVersion,omitempty" db:"latest_version"`
	DownloadLink  string    `json:"downloadLink,omitempty" db:"download_link"` // empty means NULL
	ID            int64     `json:"id" db:"id"`
	Downloads     int64     `json:"downloads" db:"downloads"`
}

// Post is a blog post
type Post struct {
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	DocumentID string    `json:"documentId" db:"document_id"`
	Title      string    `json:"title" db:"title"`
	Slug       string    `json:"slug" db:"slug"`
	ID         int64     `json:"id" db:"id"`
	Views      int64     `json:"views" db:"views"`
}

// PortfolioEntry is an astrophotography portfolio item
type PortfolioEntry struct {
	UpdatedAt  time.Time `json:"updatedAt" db:"updated_at"`
	DocumentID string    `json:"documentId" db:"document_id"`
	Title      string    `json:"title" db:"title"`
	Slug       string    `json:"slug" db:"slug"`
	ImageKey   string    `json:"imageKey,omitempty" db:"image_key"`
	ID         int64     `json:"id" db:"id"`
	Views      int64     `json:"views" db:"views"`
}

// CounterKind names the counter being incremented
type CounterKind string

const (
	CounterPostView        CounterKind = "post_view"
	CounterPortfolioView   CounterKind = "portfolio_view"
	CounterProgramDownload CounterKind = "program_download"
)

// CounterRecord is the trimmed record view returned by an increment
type CounterRecord struct {
	DocumentID string
	Label      string // post/portfolio title or program name
	ID         int64
	Count      int64
}

// CounterResult is the outcome of a single increment
type CounterResult struct {
	Record        CounterRecord
	PreviousCount int64
	NewCount      int64
}

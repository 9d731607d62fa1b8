package content

import (
	"context"
	"sync"
)

// memStore is an in-memory implementation of all three repositories
type memStore struct {
	programs  map[string]Program
	posts     map[string]Post
	portfolio map[string]PortfolioEntry
	// afterRead, when set, runs after a post is read. Used to force
	// interleavings between concurrent increments.
	afterRead func()
	writes      int
	mu          sync.Mutex
}

func newMemStore() *memStore {
	return &memStore{
		programs:  make(map[string]Program),
		posts:     make(map[string]Post),
		portfolio: make(map[string]PortfolioEntry),
	}
}

func (m *memStore) Create(_ context.Context, p *Program) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = int64(len(m.programs) + 1)
	m.programs[p.DocumentID] = *p
	return nil
}

func (m *memStore) List(_ context.Context) ([]*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Program, 0, len(m.programs))
	for _, p := range m.programs {
		p := p
		out = append(out, &p)
	}
	return out, nil
}

func (m *memStore) GetByDocumentID(_ context.Context, documentID string) (*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *memStore) FindByGitHubRepo(_ context.Context, repo string) (*Program, error) {
	return nil, ErrNotFound
}

func (m *memStore) UpdateRelease(_ context.Context, documentID, version, downloadLink string) (*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	p.LatestVersion = version
	p.DownloadLink = downloadLink
	m.programs[documentID] = p
	m.writes++
	return &p, nil
}

func (m *memStore) SetDownloads(_ context.Context, documentID string, downloads int64) (*Program, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.programs[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	p.Downloads = downloads
	m.programs[documentID] = p
	m.writes++
	return &p, nil
}

// memPosts adapts memStore to PostRepository
type memPosts struct{ *memStore }

func (m memPosts) Create(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts[p.DocumentID] = *p
	return nil
}

func (m memPosts) GetByDocumentID(_ context.Context, documentID string) (*Post, error) {
	m.mu.Lock()
	p, ok := m.posts[documentID]
	hook := m.afterRead
	m.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}
	if hook != nil {
		hook()
	}
	return &p, nil
}

func (m memPosts) SetViews(_ context.Context, documentID string, views int64) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	p.Views = views
	m.posts[documentID] = p
	m.writes++
	return &p, nil
}

// memPortfolio adapts memStore to PortfolioRepository
type memPortfolio struct{ *memStore }

func (m memPortfolio) Create(_ context.Context, e *PortfolioEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.portfolio[e.DocumentID] = *e
	return nil
}

func (m memPortfolio) GetByDocumentID(_ context.Context, documentID string) (*PortfolioEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.portfolio[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m memPortfolio) SetViews(_ context.Context, documentID string, views int64) (*PortfolioEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.portfolio[documentID]
	if !ok {
		return nil, ErrNotFound
	}
	e.Views = views
	m.portfolio[documentID] = e
	m.writes++
	return &e, nil
}

package releases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"Pfrastro/internal/core/content"
)

type mockProgramRepository struct {
	mock.Mock
}

func (m *mockProgramRepository) Create(ctx context.Context, program *content.Program) error {
	args := m.Called(ctx, program)
	return args.Error(0)
}

func (m *mockProgramRepository) List(ctx context.Context) ([]*content.Program, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*content.Program), args.Error(1)
}

func (m *mockProgramRepository) GetByDocumentID(ctx context.Context, documentID string) (*content.Program, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Program), args.Error(1)
}

func (m *mockProgramRepository) FindByGitHubRepo(ctx context.Context, repo string) (*content.Program, error) {
	args := m.Called(ctx, repo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Program), args.Error(1)
}

func (m *mockProgramRepository) UpdateRelease(ctx context.Context, documentID, version, downloadLink string) (*content.Program, error) {
	args := m.Called(ctx, documentID, version, downloadLink)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Program), args.Error(1)
}

func (m *mockProgramRepository) SetDownloads(ctx context.Context, documentID string, downloads int64) (*content.Program, error) {
	args := m.Called(ctx, documentID, downloads)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*content.Program), args.Error(1)
}

func TestProgramSyncer_NoMatchingProgram(t *testing.T) {
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "Unknown").Return(nil, content.ErrNotFound)

	syncer := NewProgramSyncer(repo, "", nil)
	outcome, err := syncer.Sync(context.Background(), "Unknown", testRelease("v1"))
	require.NoError(t, err)
	assert.Equal(t, SyncOutcome{}, outcome)
	repo.AssertNotCalled(t, "UpdateRelease", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProgramSyncer_UpToDateIsNoOp(t *testing.T) {
	rel := testRelease("v1")
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "AstroStack").Return(&content.Program{
		DocumentID:    "doc-1",
		Name:          "AstroStack",
		LatestVersion: "v1",
		DownloadLink:  "https://dl/v1/app.exe",
		Downloads:     12,
	}, nil)

	syncer := NewProgramSyncer(repo, ".exe", nil)
	outcome, err := syncer.Sync(context.Background(), "AstroStack", rel)
	require.NoError(t, err)
	assert.Equal(t, SyncOutcome{Matched: true}, outcome)
	repo.AssertNotCalled(t, "UpdateRelease", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestProgramSyncer_UpdatesVersionAndDownloadLinkOnly(t *testing.T) {
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "astrostack").Return(&content.Program{
		DocumentID:    "doc-1",
		Name:          "AstroStack",
		GitHubRepo:    "AstroStack",
		LatestVersion: "v1",
		DownloadLink:  "https://dl/v1/app.exe",
		Downloads:     12,
	}, nil)
	repo.On("UpdateRelease", mock.Anything, "doc-1", "v2", "https://dl/v2/app.exe").
		Return(&content.Program{DocumentID: "doc-1", LatestVersion: "v2"}, nil).Once()

	syncer := NewProgramSyncer(repo, ".exe", nil)
	outcome, err := syncer.Sync(context.Background(), "astrostack", testRelease("v2"))
	require.NoError(t, err)
	assert.Equal(t, SyncOutcome{Matched: true, Updated: true}, outcome)

	repo.AssertExpectations(t)
	repo.AssertNotCalled(t, "SetDownloads", mock.Anything, mock.Anything, mock.Anything)
}

func TestProgramSyncer_DownloadLinkChangeAlone(t *testing.T) {
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "r").Return(&content.Program{
		DocumentID:    "doc-1",
		LatestVersion: "v1",
		DownloadLink:  "https://old/link",
	}, nil)
	repo.On("UpdateRelease", mock.Anything, "doc-1", "v1", "https://dl/v1/app.exe").
		Return(&content.Program{}, nil).Once()

	syncer := NewProgramSyncer(repo, ".exe", nil)
	outcome, err := syncer.Sync(context.Background(), "r", testRelease("v1"))
	require.NoError(t, err)
	assert.True(t, outcome.Updated)
	repo.AssertExpectations(t)
}

func TestProgramSyncer_NoAssetsClearsDownloadLink(t *testing.T) {
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "r").Return(&content.Program{
		DocumentID:    "doc-1",
		LatestVersion: "v1",
		DownloadLink:  "https://dl/v1/app.exe",
	}, nil)
	repo.On("UpdateRelease", mock.Anything, "doc-1", "v2", "").Return(&content.Program{}, nil).Once()

	syncer := NewProgramSyncer(repo, ".exe", nil)
	_, err := syncer.Sync(context.Background(), "r", &Release{TagName: "v2", Assets: []Asset{}})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestProgramSyncer_Errors(t *testing.T) {
	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "lookup-fails").Return(nil, errors.New("connection refused"))
	repo.On("FindByGitHubRepo", mock.Anything, "update-fails").Return(&content.Program{DocumentID: "doc-2"}, nil)
	repo.On("UpdateRelease", mock.Anything, "doc-2", mock.Anything, mock.Anything).Return(nil, errors.New("deadlock"))

	syncer := NewProgramSyncer(repo, ".exe", nil)

	_, err := syncer.Sync(context.Background(), "lookup-fails", testRelease("v1"))
	assert.ErrorContains(t, err, "connection refused")

	outcome, err := syncer.Sync(context.Background(), "update-fails", testRelease("v1"))
	assert.ErrorContains(t, err, "deadlock")
	assert.True(t, outcome.Matched)
	assert.False(t, outcome.Updated)
}

func TestService_SecondCycleWithinTTLWritesNothing(t *testing.T) {
	fetcher := &scriptedFetcher{}
	fetcher.push(testRelease("v3"), nil)

	repo := &mockProgramRepository{}
	repo.On("FindByGitHubRepo", mock.Anything, "AstroStack").Return(&content.Program{
		DocumentID:    "doc-1",
		LatestVersion: "v2",
		DownloadLink:  "https://dl/v2/app.exe",
	}, nil)
	repo.On("UpdateRelease", mock.Anything, "doc-1", "v3", "https://dl/v3/app.exe").
		Return(&content.Program{}, nil)

	svc, clock := newTestService(t, fetcher, WithProgramSyncer(NewProgramSyncer(repo, ".exe", nil)))
	ctx := context.Background()

	first, err := svc.Latest(ctx, "AstroStack")
	require.NoError(t, err)
	assert.True(t, first.Sync.Updated)

	clock.Advance(59 * time.Minute)

	second, err := svc.Latest(ctx, "AstroStack")
	require.NoError(t, err)
	assert.True(t, second.FromCache)

	repo.AssertNumberOfCalls(t, "FindByGitHubRepo", 1)
	repo.AssertNumberOfCalls(t, "UpdateRelease", 1)
}

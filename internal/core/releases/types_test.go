package releases

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeRepo(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AstroStack", "AstroStack"},
		{"astro-stack_v2.0", "astro-stack_v2.0"},
		{"../../etc/passwd", "....etcpasswd"},
		{"repo name", "reponame"},
		{"repo?x=1#frag", "repox1frag"},
		{"日本", ""},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeRepo(tt.in), "input %q", tt.in)
	}
}

func TestPrimaryAsset(t *testing.T) {
	assets := []Asset{
		{Name: "source.zip", BrowserDownloadURL: "https://dl/source.zip"},
		{Name: "setup.exe", BrowserDownloadURL: "https://dl/setup.exe"},
		{Name: "portable.exe", BrowserDownloadURL: "https://dl/portable.exe"},
	}

	a := PrimaryAsset(assets, ".exe")
	require.NotNil(t, a)
	assert.Equal(t, "setup.exe", a.Name, "first matching asset wins")

	a = PrimaryAsset(assets[:1], ".exe")
	require.NotNil(t, a)
	assert.Equal(t, "source.zip", a.Name, "falls back to the first asset")

	a = PrimaryAsset(assets, ".dmg")
	require.NotNil(t, a)
	assert.Equal(t, "source.zip", a.Name)

	assert.Nil(t, PrimaryAsset(nil, ".exe"))

	r := &Release{}
	assert.Equal(t, "", r.PrimaryDownloadURL(".exe"))
}

func TestGithubRelease_ToRelease(t *testing.T) {
	g := &githubRelease{
		Name:        "v1.2.0",
		TagName:     "v1.2.0",
		Body:        "notes",
		HTMLURL:     "https://github.com/o/r/releases/v1.2.0",
		PublishedAt: "2026-01-01T00:00:00Z",
		Author:      &githubUser{Login: "englishfox90", AvatarURL: "https://a/1", HTMLURL: "https://github.com/englishfox90"},
		Assets: []githubAsset{
			{Name: "a.exe", Size: 100, DownloadCount: 7, BrowserDownloadURL: "https://dl/a.exe"},
			{Name: "b.zip", Size: 200, DownloadCount: 3, BrowserDownloadURL: "https://dl/b.zip"},
		},
		Prerelease: true,
	}

	r := g.toRelease()
	assert.Equal(t, int64(10), r.TotalDownloads)
	require.NotNil(t, r.Author)
	assert.Equal(t, "englishfox90", r.Author.Login)
	assert.Equal(t, []Asset{
		{Name: "a.exe", Size: 100, DownloadCount: 7, BrowserDownloadURL: "https://dl/a.exe"},
		{Name: "b.zip", Size: 200, DownloadCount: 3, BrowserDownloadURL: "https://dl/b.zip"},
	}, r.Assets)
	assert.True(t, r.Prerelease)
	assert.False(t, r.Draft)
}

func TestGithubRelease_ToReleaseWithoutAuthorOrAssets(t *testing.T) {
	r := (&githubRelease{TagName: "v0.1"}).toRelease()
	assert.Nil(t, r.Author)
	assert.NotNil(t, r.Assets)
	assert.Empty(t, r.Assets)
	assert.Zero(t, r.TotalDownloads)
}

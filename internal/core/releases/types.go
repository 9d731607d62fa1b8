package releases

import (
	"regexp"
	"strings"
)

// Release is the trimmed view of a GitHub release served to the site
type Release struct {
	Author         *Author `json:"author"`
	Name           string  `json:"name"`
	TagName        string  `json:"tagName"`
	Body           string  `json:"body"`
	HTMLURL        string  `json:"htmlUrl"`
	PublishedAt    string  `json:"publishedAt"`
	Assets         []Asset `json:"assets"`
	TotalDownloads int64   `json:"totalDownloads"`
	Prerelease     bool    `json:"prerelease"`
	Draft          bool    `json:"draft"`
}

// Author is the GitHub user who published a release
type Author struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatarUrl"`
	HTMLURL   string `json:"htmlUrl"`
}

// Asset is a downloadable file attached to a release
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browserDownloadUrl"`
	Size               int64  `json:"size"`
	DownloadCount      int64  `json:"downloadCount"`
}

// PrimaryAsset returns the first asset whose name ends in ext, else the first
// asset, else nil. The comparison is case-sensitive.
func PrimaryAsset(assets []Asset, ext string) *Asset {
	if ext != "" {
		for i := range assets {
			if strings.HasSuffix(assets[i].Name, ext) {
				return &assets[i]
			}
		}
	}
	if len(assets) > 0 {
		return &assets[0]
	}
	return nil
}

// PrimaryDownloadURL returns the browser download URL of the primary asset or "".
func (r *Release) PrimaryDownloadURL(ext string) string {
	if a := PrimaryAsset(r.Assets, ext); a != nil {
		return a.BrowserDownloadURL
	}
	return ""
}

var repoDisallowed = regexp.MustCompile(`[^a-zA-Z0-9_.-]`)

// SanitizeRepo drops every character that cannot appear in a repository name.
func SanitizeRepo(repo string) string {
	return repoDisallowed.ReplaceAllString(repo, "")
}

// githubRelease is the subset of the GitHub REST release payload we read
type githubRelease struct {
	Author      *githubUser   `json:"author"`
	Name        string        `json:"name"`
	TagName     string        `json:"tag_name"`
	Body        string        `json:"body"`
	HTMLURL     string        `json:"html_url"`
	PublishedAt string        `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
	Prerelease  bool          `json:"prerelease"`
	Draft       bool          `json:"draft"`
}

type githubUser struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
	DownloadCount      int64  `json:"download_count"`
}

func (g *githubRelease) toRelease() *Release {
	r := &Release{
		Name:        g.Name,
		TagName:     g.TagName,
		Body:        g.Body,
		HTMLURL:     g.HTMLURL,
		PublishedAt: g.PublishedAt,
		Prerelease:  g.Prerelease,
		Draft:       g.Draft,
		Assets:      make([]Asset, 0, len(g.Assets)),
	}

	if g.Author != nil {
		r.Author = &Author{
			Login:     g.Author.Login,
			AvatarURL: g.Author.AvatarURL,
			HTMLURL:   g.Author.HTMLURL,
		}
	}

	for _, a := range g.Assets {
		r.Assets = append(r.Assets, Asset{
			Name:               a.Name,
			Size:               a.Size,
			DownloadCount:      a.DownloadCount,
			BrowserDownloadURL: a.BrowserDownloadURL,
		})
		r.TotalDownloads += a.DownloadCount
	}

	return r
}

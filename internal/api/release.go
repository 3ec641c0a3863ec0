package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prodiplan/essaygrader/internal/selfupdate"
)

// ReleaseAsset is one downloadable client build.
type ReleaseAsset struct {
	OS     string `json:"os"`
	Arch   string `json:"arch"`
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
	Format string `json:"format"`
}

// ReleaseData is the body of GET /v1/client/release.
type ReleaseData struct {
	Version      string         `json:"version"`
	MinSupported string         `json:"min_supported,omitempty"`
	NotesURL     string         `json:"notes_url,omitempty"`
	PublishedAt  time.Time      `json:"published_at"`
	Assets       []ReleaseAsset `json:"assets"`
}

// ReleaseDataFrom converts a release into its wire form.
func ReleaseDataFrom(r *selfupdate.Release) ReleaseData {
	d := ReleaseData{
		Version:      r.Version,
		MinSupported: r.MinSupported,
		NotesURL:     r.NotesURL,
		PublishedAt:  r.PublishedAt,
		Assets:       make([]ReleaseAsset, 0, len(r.Assets)),
	}
	for _, a := range r.Assets {
		d.Assets = append(d.Assets, ReleaseAsset{
			OS: a.OS, Arch: a.Arch, URL: a.URL, SHA256: a.SHA256, Format: string(a.Format),
		})
	}
	return d
}

// Release converts the wire form back into a release.
func (d ReleaseData) Release() *selfupdate.Release {
	r := &selfupdate.Release{
		Version:      d.Version,
		MinSupported: d.MinSupported,
		NotesURL:     d.NotesURL,
		PublishedAt:  d.PublishedAt,
	}
	for _, a := range d.Assets {
		r.Assets = append(r.Assets, selfupdate.Asset{
			OS: a.OS, Arch: a.Arch, URL: a.URL, SHA256: a.SHA256, Format: selfupdate.Format(a.Format),
		})
	}
	return r
}

// LatestRelease fetches the client release manifest. It satisfies
// selfupdate.Source and needs no token.
func (c *Client) LatestRelease(ctx context.Context) (*selfupdate.Release, error) {
	var d ReleaseData
	if err := c.Do(ctx, http.MethodGet, PathClientRelease, "", nil, &d); err != nil {
		return nil, err
	}
	return d.Release(), nil
}

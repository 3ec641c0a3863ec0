// Package selfupdate keeps the prodiplan terminal client at the release the
// backend advertises. The backend also names the oldest client it still
// accepts, so a too-old client can tell the student to update before an
// assessment is lost to a rejected submission.
package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DevVersion is the version string of binaries built without ldflags.
const DevVersion = "(devel)"

var (
	ErrDevBuild   = errors.New("cannot update a development build")
	ErrUpToDate   = errors.New("already running the latest release")
	ErrNoAsset    = errors.New("no download for this platform")
	ErrChecksum   = errors.New("checksum mismatch")
	ErrBadVersion = errors.New("not a semantic version")
)

// Format is how an asset is packaged.
type Format string

const (
	FormatBinary Format = "binary"
	FormatTarGz  Format = "tar.gz"
	FormatZip    Format = "zip"
)

// Asset is one downloadable build.
type Asset struct {
	OS     string
	Arch   string
	URL    string
	SHA256 string
	Format Format
}

// Release is the client release the backend currently advertises.
type Release struct {
	Version string
	// MinSupported is the oldest client version the backend accepts
	// submissions from. Empty means every version.
	MinSupported string
	NotesURL     string
	PublishedAt  time.Time
	Assets       []Asset
}

// AssetFor picks the build for goos/goarch.
func (r *Release) AssetFor(goos, goarch string) (*Asset, error) {
	for i := range r.Assets {
		a := &r.Assets[i]
		if strings.EqualFold(a.OS, goos) && strings.EqualFold(a.Arch, goarch) {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %s/%s in %s", ErrNoAsset, goos, goarch, r.Version)
}

// Source looks up the advertised release.
type Source interface {
	LatestRelease(ctx context.Context) (*Release, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context) (*Release, error)

func (f SourceFunc) LatestRelease(ctx context.Context) (*Release, error) { return f(ctx) }

// Status compares the running client with a release.
type Status struct {
	Current string
	Release *Release
	// Available is set when the release is newer than Current.
	Available bool
	// Required is set when Current is older than the release's
	// MinSupported version.
	Required bool
}

// Evaluate compares current with rel. Development builds never report an
// update.
func Evaluate(current string, rel *Release) (*Status, error) {
	latest := canonical(rel.Version)
	if !semver.IsValid(latest) {
		return nil, fmt.Errorf("release %q: %w", rel.Version, ErrBadVersion)
	}
	st := &Status{Current: current, Release: rel}
	if current == DevVersion {
		return st, nil
	}

	cur := canonical(current)
	if !semver.IsValid(cur) {
		// Unknown builds are treated as outdated so they can be replaced.
		st.Available = true
		st.Required = rel.MinSupported != ""
		return st, nil
	}
	st.Available = semver.Compare(latest, cur) > 0
	if floor := canonical(rel.MinSupported); semver.IsValid(floor) {
		st.Required = semver.Compare(cur, floor) < 0
	}
	return st, nil
}

// canonical adds the "v" prefix semver expects.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v != "" && !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return v
}

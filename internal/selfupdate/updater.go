package selfupdate

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"time"
)

// Stage names an Install step reported to the progress callback.
type Stage string

const (
	StageCheck    Stage = "check"
	StageDownload Stage = "download"
	StageVerify   Stage = "verify"
	StageUnpack   Stage = "unpack"
	StageReplace  Stage = "replace"
	StageDone     Stage = "done"
)

// Progress is one step of Install.
type Progress struct {
	Stage   Stage
	Message string
}

// Updater checks the advertised release and installs it over the running
// executable.
type Updater struct {
	source   Source
	client   *http.Client
	goos     string
	goarch   string
	execPath func() (string, error)
}

type Option func(*Updater)

// WithHTTPClient sets the client used for asset downloads.
func WithHTTPClient(c *http.Client) Option {
	return func(u *Updater) { u.client = c }
}

// WithPlatform overrides runtime.GOOS and runtime.GOARCH.
func WithPlatform(goos, goarch string) Option {
	return func(u *Updater) {
		u.goos = goos
		u.goarch = goarch
	}
}

func withExecPath(fn func() (string, error)) Option {
	return func(u *Updater) { u.execPath = fn }
}

func New(src Source, opts ...Option) *Updater {
	u := &Updater{
		source:   src,
		client:   &http.Client{Timeout: 5 * time.Minute},
		goos:     runtime.GOOS,
		goarch:   runtime.GOARCH,
		execPath: os.Executable,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Check fetches the advertised release and compares it with current.
func (u *Updater) Check(ctx context.Context, current string) (*Status, error) {
	rel, err := u.source.LatestRelease(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch release: %w", err)
	}
	return Evaluate(current, rel)
}

// Install replaces the running executable with the advertised release.
// progress may be nil.
func (u *Updater) Install(ctx context.Context, current string, progress func(Progress)) (*Status, error) {
	report := func(stage Stage, format string, args ...any) {
		if progress != nil {
			progress(Progress{Stage: stage, Message: fmt.Sprintf(format, args...)})
		}
	}

	if current == DevVersion {
		return nil, ErrDevBuild
	}

	report(StageCheck, "Memeriksa versi terbaru...")
	st, err := u.Check(ctx, current)
	if err != nil {
		return nil, err
	}
	if !st.Available {
		return st, ErrUpToDate
	}
	asset, err := st.Release.AssetFor(u.goos, u.goarch)
	if err != nil {
		return st, err
	}

	target, err := u.execPath()
	if err != nil {
		return st, fmt.Errorf("resolve executable path: %w", err)
	}

	staging, err := newStaging(target)
	if err != nil {
		return st, err
	}
	defer staging.cleanup()

	report(StageDownload, "Mengunduh %s...", st.Release.Version)
	archive, sum, err := u.download(ctx, asset.URL, staging)
	if err != nil {
		return st, fmt.Errorf("download %s: %w", asset.URL, err)
	}

	report(StageVerify, "Memverifikasi checksum...")
	if err := verify(sum, asset.SHA256); err != nil {
		return st, err
	}

	report(StageUnpack, "Membuka paket %s...", asset.Format)
	binary, err := unpack(archive, asset.Format, staging)
	if err != nil {
		return st, fmt.Errorf("unpack: %w", err)
	}

	report(StageReplace, "Memasang pembaruan...")
	if err := replace(binary, target); err != nil {
		return st, fmt.Errorf("replace executable: %w", err)
	}

	report(StageDone, "Berhasil diperbarui ke %s", st.Release.Version)
	return st, nil
}

package selfupdate

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// maxAssetSize caps downloads and extracted binaries.
const maxAssetSize = 256 << 20

// staging is a scratch directory next to the executable, so the final
// rename never crosses filesystems.
type staging struct {
	dir string
}

func newStaging(target string) (*staging, error) {
	dir, err := os.MkdirTemp(filepath.Dir(target), ".prodiplan-update-*")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &staging{dir: dir}, nil
}

func (s *staging) path(name string) string { return filepath.Join(s.dir, name) }

func (s *staging) cleanup() { _ = os.RemoveAll(s.dir) }

// download streams url into the staging dir and returns the file path and
// its hex SHA-256.
func (u *Updater) download(ctx context.Context, url string, st *staging) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	resp, err := u.client.Do(req)
	if err != nil {
		return "", "", err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	path := st.path("download")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", "", err
	}
	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(f, h), io.LimitReader(resp.Body, maxAssetSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", "", err
	}
	if n > maxAssetSize {
		return "", "", fmt.Errorf("asset larger than %d bytes", maxAssetSize)
	}
	return path, hex.EncodeToString(h.Sum(nil)), nil
}

func verify(got, want string) error {
	if !strings.EqualFold(got, strings.TrimSpace(want)) {
		return fmt.Errorf("%w: want %s, got %s", ErrChecksum, want, got)
	}
	return nil
}

// executableNames are the file names accepted inside archives.
var executableNames = []string{"prodiplan", "prodiplan.exe"}

func isExecutableName(name string) bool {
	base := filepath.Base(name)
	for _, n := range executableNames {
		if base == n {
			return true
		}
	}
	return false
}

// unpack returns the path of the executable inside the downloaded file.
func unpack(path string, format Format, st *staging) (string, error) {
	switch format {
	case FormatBinary, "":
		return path, nil
	case FormatTarGz:
		return unpackTarGz(path, st.path("prodiplan-new"))
	case FormatZip:
		return unpackZip(path, st.path("prodiplan-new"))
	default:
		return "", fmt.Errorf("unknown asset format %q", format)
	}
}

func unpackTarGz(src, dst string) (string, error) {
	f, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer func() { _ = f.Close() }()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return "", fmt.Errorf("open gzip: %w", err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return "", errors.New("no prodiplan executable in archive")
		}
		if err != nil {
			return "", fmt.Errorf("read tar: %w", err)
		}
		if hdr.Typeflag == tar.TypeReg && isExecutableName(hdr.Name) {
			return dst, writeLimited(dst, tr)
		}
	}
}

func unpackZip(src, dst string) (string, error) {
	zr, err := zip.OpenReader(src)
	if err != nil {
		return "", fmt.Errorf("open zip: %w", err)
	}
	defer func() { _ = zr.Close() }()

	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() || !isExecutableName(zf.Name) {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return "", err
		}
		err = writeLimited(dst, rc)
		_ = rc.Close()
		return dst, err
	}
	return "", errors.New("no prodiplan executable in archive")
}

func writeLimited(dst string, r io.Reader) error {
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	n, err := io.Copy(f, io.LimitReader(r, maxAssetSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	if n > maxAssetSize {
		return fmt.Errorf("executable larger than %d bytes", maxAssetSize)
	}
	return nil
}

// replace moves binary over target, keeping target's permissions.
func replace(binary, target string) error {
	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	if err := os.Chmod(binary, info.Mode().Perm()); err != nil {
		return err
	}
	return os.Rename(binary, target)
}

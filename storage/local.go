package storage

import (
	"context"
	"fmt"
	"hash/adler32"
	"io"
	"os"
	pathlib "path"
	"path/filepath"
	"strings"

	"github.com/hepkit/hepkit/util/fsutil"
)

// Local provides access to a local-disk storage system.
type Local struct{}

// NewLocal returns a Local instance.
func NewLocal() *Local {
	return &Local{}
}

// List lists the files under the directory at url.
func (local *Local) List(ctx context.Context, url string) ([]*Object, error) {
	files, err := fsutil.WalkFiles(getPath(url), nil)
	if err != nil {
		return nil, err
	}

	var objects []*Object
	for _, f := range files {
		u, err := local.Join(url, f.Rel)
		if err != nil {
			return nil, err
		}
		sum, err := LocalAdler32(f.Abs)
		if err != nil {
			return nil, err
		}
		objects = append(objects, &Object{
			URL:          u,
			Rel:          f.Rel,
			Size:         f.Size,
			Checksum:     sum,
			LastModified: f.LastModified,
		})
	}
	return objects, nil
}

// Checksum returns the adler32 checksum of the file at url.
func (local *Local) Checksum(ctx context.Context, url string) (string, error) {
	return LocalAdler32(getPath(url))
}

// Get copies a file from storage into the given path.
func (local *Local) Get(ctx context.Context, url, path string) error {
	return fsutil.CopyFile(ctx, getPath(url), path)
}

// Join joins the given URL with the given subpath.
func (local *Local) Join(url, path string) (string, error) {
	if strings.HasPrefix(url, "file://") {
		return "file://" + pathlib.Join(strings.TrimPrefix(url, "file://"), path), nil
	}
	return filepath.Join(url, path), nil
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for the given URL.
func (local *Local) UnsupportedOperations(url string) UnsupportedOperations {
	if !strings.HasPrefix(url, "/") && !strings.HasPrefix(url, "file://") {
		return AllUnsupported(&ErrUnsupportedProtocol{"localStorage"})
	}
	return AllSupported()
}

func getPath(rawurl string) string {
	return strings.TrimPrefix(rawurl, "file://")
}

// LocalAdler32 returns the adler32 checksum of a local file as 8 lowercase
// hex digits, the format xrdadler32 and xrootd servers report.
func LocalAdler32(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := adler32.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("computing adler32 of %s: %w", path, err)
	}
	return fmt.Sprintf("%08x", h.Sum32()), nil
}

func adler32String(content string) string {
	return fmt.Sprintf("%08x", adler32.Checksum([]byte(content)))
}

// Package fsutil contains small filesystem helpers shared by the
// storage, job bundling and launcher packages.
package fsutil

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Hostfile returns information about a file found by WalkFiles.
type Hostfile struct {
	// The path relative to the "root" given to WalkFiles(), slash separated.
	Rel string
	// The absolute path of the file on the host.
	Abs string
	// Size in bytes.
	Size int64
	// LastModified time
	LastModified time.Time
	Mode         fs.FileMode
}

// SkipFunc reports whether a path (relative to the walk root) should be
// skipped. Returning true for a directory skips its contents.
type SkipFunc func(rel string, d fs.DirEntry) bool

// WalkFiles recursively walks a directory, returning a list of regular
// files and symlinks sorted by relative path.
func WalkFiles(root string, skip SkipFunc) ([]Hostfile, error) {
	var files []Hostfile

	if dinfo, err := os.Stat(root); err != nil || !dinfo.IsDir() {
		return nil, fmt.Errorf("%s does not exist or is not a directory", root)
	}

	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if skip != nil && skip(rel, d) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files = append(files, Hostfile{
			Rel:          rel,
			Abs:          p,
			Size:         info.Size(),
			LastModified: info.ModTime(),
			Mode:         info.Mode(),
		})
		return nil
	})
	return files, err
}

// FileSize returns the file size in bytes, or 0 if os.Stat() fails.
func FileSize(path string) int64 {
	st, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return st.Size()
}

// Exists reports whether a file or directory exists at path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsEmptyDir reports whether dir has no entries.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	return len(entries) == 0, nil
}

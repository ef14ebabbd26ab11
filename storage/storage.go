// Package storage lists, checksums and downloads files from the storage
// systems analysis outputs end up on: XRootD servers (EOS), S3 compatible
// object stores and local disk.
package storage

// NOTE!
// Storage instances should be immutable once built, a Mux is shared by
// every worker of a transfer.

import (
	"context"
	"sort"
	"time"
)

// Object represents a file in a storage system.
type Object struct {
	// The storage URL of the object.
	URL string
	// Rel is the path of the object relative to the listed directory.
	Rel string
	// Size in bytes.
	Size int64
	// Checksum is the adler32 checksum as 8 lowercase hex digits.
	// Empty when the storage system does not provide one.
	Checksum     string
	LastModified time.Time
}

// Storage provides an interface for a storage backend.
// New storage backends must support this interface.
type Storage interface {
	// List recursively lists the files under the directory at url.
	List(ctx context.Context, url string) ([]*Object, error)
	// Checksum returns the adler32 checksum of the file at url, or
	// ErrNoChecksum.
	Checksum(ctx context.Context, url string) (string, error)
	// Get copies the file at url to the local path.
	Get(ctx context.Context, url, path string) error
	// Join a directory URL with a relative path.
	Join(url, rel string) (string, error)
	// UnsupportedOperations describes which operations are not supported
	// by the storage system for the given URL.
	UnsupportedOperations(url string) UnsupportedOperations
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for a given URL. A nil field means the operation is supported.
type UnsupportedOperations struct {
	List     error
	Checksum error
	Get      error
	Join     error
}

// AllUnsupported returns UnsupportedOperations with every field set to err.
func AllUnsupported(err error) UnsupportedOperations {
	return UnsupportedOperations{
		List:     err,
		Checksum: err,
		Get:      err,
		Join:     err,
	}
}

// AllSupported returns UnsupportedOperations with nil errors.
func AllSupported() UnsupportedOperations {
	return UnsupportedOperations{}
}

func sortObjects(objects []*Object) {
	sort.Slice(objects, func(i, j int) bool { return objects[i].Rel < objects[j].Rel })
}

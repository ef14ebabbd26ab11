package storage

import (
	"errors"
	"fmt"
)

// ErrNoChecksum is returned by Checksum when the storage system cannot
// provide an adler32 checksum.
var ErrNoChecksum = errors.New("checksum not available")

// ErrUnsupportedProtocol is returned by UnsupportedOperations when a url's
// protocol is unsupported by that backend
type ErrUnsupportedProtocol struct {
	backend string
}

func (e *ErrUnsupportedProtocol) Error() string {
	return fmt.Sprintf("%s: unsupported protocol", e.backend)
}

// ErrInvalidURL is returned by UnsupportedOperations when a url's
// format is invalid.
type ErrInvalidURL struct {
	backend string
	url     string
}

func (e *ErrInvalidURL) Error() string {
	return fmt.Sprintf("%s: invalid url: %s", e.backend, e.url)
}

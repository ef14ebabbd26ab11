package storage

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/hepkit/hepkit/util/fsutil"
)

// Fake is an in-memory storage system serving "fake://" URLs.
// This is a testing utility.
type Fake struct {
	// Files maps URL to content.
	Files map[string]string
	// NoChecksum makes Checksum return ErrNoChecksum, like object stores.
	NoChecksum bool
	// Corrupt, when set, is written instead of the real content by Get.
	Corrupt map[string]string

	mtx  sync.Mutex
	gets []string
}

// List lists the files under url.
func (f *Fake) List(ctx context.Context, url string) ([]*Object, error) {
	prefix := strings.TrimSuffix(url, "/") + "/"
	var objects []*Object
	for u, content := range f.Files {
		if !strings.HasPrefix(u, prefix) {
			continue
		}
		obj := &Object{URL: u, Rel: strings.TrimPrefix(u, prefix), Size: int64(len(content))}
		if !f.NoChecksum {
			obj.Checksum = adler32String(content)
		}
		objects = append(objects, obj)
	}
	sortObjects(objects)
	return objects, nil
}

// Checksum returns the adler32 checksum of the content at url.
func (f *Fake) Checksum(ctx context.Context, url string) (string, error) {
	if f.NoChecksum {
		return "", ErrNoChecksum
	}
	content, ok := f.Files[url]
	if !ok {
		return "", fmt.Errorf("fake: no such file: %s", url)
	}
	return adler32String(content), nil
}

// Get writes the content at url to path.
func (f *Fake) Get(ctx context.Context, url, path string) error {
	content, ok := f.Files[url]
	if !ok {
		return fmt.Errorf("fake: no such file: %s", url)
	}
	if c, ok := f.Corrupt[url]; ok {
		content = c
	}
	f.mtx.Lock()
	f.gets = append(f.gets, url)
	f.mtx.Unlock()
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0644)
}

// Gets returns the URLs downloaded so far.
func (f *Fake) Gets() []string {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return append([]string(nil), f.gets...)
}

// Join joins the given URL with the given subpath.
func (f *Fake) Join(url, path string) (string, error) {
	return strings.TrimSuffix(url, "/") + "/" + path, nil
}

// UnsupportedOperations describes which operations are supported by the storage system
// for the given URL.
func (f *Fake) UnsupportedOperations(url string) UnsupportedOperations {
	if !strings.HasPrefix(url, "fake://") {
		return AllUnsupported(&ErrUnsupportedProtocol{"fake"})
	}
	return AllSupported()
}

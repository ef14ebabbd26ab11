// Package transfer clones remote directories to local disk, copying only
// files that are missing or whose checksum differs.
package transfer

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/alecthomas/units"
	"github.com/gammazero/workerpool"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/metrics"
	"github.com/hepkit/hepkit/progress"
	"github.com/hepkit/hepkit/storage"
	"github.com/hepkit/hepkit/util/fsutil"
)

var log = logger.NewSubLogger("transfer")

// Options control Clone.
type Options struct {
	// Workers is the number of concurrent copies. Defaults to 1.
	Workers int
	Verbose bool
	// Progress receives the progress bar. Nil disables it.
	Progress io.Writer
}

// Summary describes the outcome of a clone.
type Summary struct {
	Copied  int
	Skipped int
	Bytes   int64
}

func (s Summary) String() string {
	return fmt.Sprintf("copied %d files (%s), skipped %d up to date files",
		s.Copied, units.Base2Bytes(s.Bytes), s.Skipped)
}

// Clone copies the files under srcURL into dstDir, keeping their relative
// paths. Files already present with a matching checksum are skipped; when
// the storage system provides no checksum, sizes are compared instead.
// The first error stops the remaining copies.
func Clone(ctx context.Context, store storage.Storage, srcURL, dstDir string, opts Options) (*Summary, error) {
	if err := fsutil.EnsureDir(dstDir); err != nil {
		return nil, err
	}
	objects, err := store.List(ctx, srcURL)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", srcURL, err)
	}
	log.Info("Cloning", "src", srcURL, "dst", dstDir, "files", len(objects))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var bar *progress.Bar
	if opts.Progress != nil {
		bar = progress.New(len(objects), opts.Progress)
		bar.Start()
	}
	refresh := len(objects) / 100
	if refresh < 1 {
		refresh = 1
	}

	var (
		mtx      sync.Mutex
		summary  Summary
		firstErr error
		done     int
	)
	finish := func(obj *storage.Object, copied bool, err error) {
		mtx.Lock()
		defer mtx.Unlock()
		switch {
		case err != nil:
			metrics.TransferFile("failed", 0)
			if firstErr == nil {
				firstErr = err
				cancel()
			}
			return
		case copied:
			metrics.TransferFile("copied", obj.Size)
			summary.Copied++
			summary.Bytes += obj.Size
		default:
			metrics.TransferFile("skipped", 0)
			summary.Skipped++
		}
		done++
		if bar != nil && (done%refresh == 0 || done == len(objects)) {
			bar.Update(float64(done)/float64(len(objects)), done)
		}
	}

	pool := workerpool.New(workers)
	for _, obj := range objects {
		obj := obj
		pool.Submit(func() {
			if ctx.Err() != nil {
				return
			}
			copied, err := cloneFile(ctx, store, obj, dstDir, opts.Verbose)
			finish(obj, copied, err)
		})
	}
	pool.StopWait()
	if bar != nil {
		bar.Finish()
	}

	if firstErr != nil {
		return &summary, firstErr
	}
	if err := ctx.Err(); err != nil {
		return &summary, err
	}
	log.Info("Clone finished", "summary", summary.String())
	return &summary, nil
}

func cloneFile(ctx context.Context, store storage.Storage, obj *storage.Object, dstDir string, verbose bool) (bool, error) {
	local := filepath.Join(dstDir, filepath.FromSlash(obj.Rel))

	ok, err := upToDate(local, obj)
	if err != nil {
		return false, err
	}
	if ok {
		if verbose {
			log.Info("File already exists and has the right checksum. Skipping!", "path", local)
		}
		return false, nil
	}
	if verbose {
		log.Info("File does not exist or has the wrong checksum. Copying...", "path", local)
	}

	if err := store.Get(ctx, obj.URL, local); err != nil {
		return false, fmt.Errorf("copying %s: %w", obj.Rel, err)
	}
	ok, err = upToDate(local, obj)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, fmt.Errorf("checksums do not match after copying file with relative path: %s", obj.Rel)
	}
	return true, nil
}

// upToDate reports whether the local file matches the remote object.
func upToDate(local string, obj *storage.Object) (bool, error) {
	st, err := os.Stat(local)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if st.IsDir() {
		return false, fmt.Errorf("%s is a directory", local)
	}
	if obj.Checksum == "" {
		return st.Size() == obj.Size, nil
	}
	sum, err := storage.LocalAdler32(local)
	if err != nil {
		return false, err
	}
	return sum == obj.Checksum, nil
}

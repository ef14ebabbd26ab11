package fsutil

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureDir ensures a directory exists.
func EnsureDir(p string) error {
	s, err := os.Stat(p)
	if os.IsNotExist(err) {
		return os.MkdirAll(p, 0775)
	}
	if err != nil {
		return err
	}
	if !s.IsDir() {
		return fmt.Errorf("%s exists and is not a directory", p)
	}
	return nil
}

// EnsurePath ensures the parent directory of a file path exists.
func EnsurePath(p string) error {
	return EnsureDir(filepath.Dir(p))
}

// Reader wraps an io.Reader with one that checks ctx.Err() on each Read call.
func Reader(ctx context.Context, r io.Reader) io.Reader {
	return reader{ctx, r}
}

type reader struct {
	ctx context.Context
	r   io.Reader
}

func (r reader) Read(p []byte) (n int, err error) {
	if err = r.ctx.Err(); err != nil {
		return
	}
	if n, err = r.r.Read(p); err != nil {
		return
	}
	err = r.ctx.Err()
	return
}

// CopyFile copies src to dst, creating parent directories and keeping the
// permission bits of src. An existing dst is replaced.
func CopyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	st, err := in.Stat()
	if err != nil {
		return err
	}
	if st.IsDir() {
		return fmt.Errorf("%s is a directory", src)
	}

	if err := EnsurePath(dst); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, st.Mode().Perm())
	if err != nil {
		return err
	}

	_, err = io.Copy(out, Reader(ctx, in))
	cerr := out.Close()
	if err != nil {
		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}
	if cerr != nil {
		return cerr
	}
	// O_CREATE honours the umask, set the mode explicitly.
	return os.Chmod(dst, st.Mode().Perm())
}

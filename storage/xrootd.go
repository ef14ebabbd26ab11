package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/util/fsutil"
)

const xrootdProtocol = "root://"

// XRootD provides access to an xrootd server (e.g. EOS) through the
// xrdfs and xrdcp command line tools.
type XRootD struct {
	runner  command.Runner
	xrdfs   string
	xrdcp   string
	streams int
}

// NewXRootD returns an XRootD backend configured from conf.
func NewXRootD(r command.Runner, conf config.XRootD) *XRootD {
	streams := conf.Streams
	if streams < 1 {
		streams = 1
	}
	return &XRootD{runner: r, xrdfs: conf.Xrdfs, xrdcp: conf.Xrdcp, streams: streams}
}

type xrootdURL struct {
	// server, e.g. root://cmseos.fnal.gov
	server string
	// path on the server, always starting with a single "/"
	path string
}

func (x *XRootD) parse(rawurl string) (*xrootdURL, error) {
	if !strings.HasPrefix(rawurl, xrootdProtocol) {
		return nil, &ErrUnsupportedProtocol{"xrootd"}
	}
	rest := strings.TrimPrefix(rawurl, xrootdProtocol)
	i := strings.Index(rest, "/")
	if i <= 0 {
		return nil, &ErrInvalidURL{"xrootd", rawurl}
	}
	p := "/" + strings.TrimLeft(rest[i:], "/")
	return &xrootdURL{server: xrootdProtocol + rest[:i], path: p}, nil
}

func (u *xrootdURL) String() string {
	return u.server + "/" + u.path
}

// List lists the files under the directory at url, with their checksums.
func (x *XRootD) List(ctx context.Context, url string) ([]*Object, error) {
	u, err := x.parse(url)
	if err != nil {
		return nil, err
	}
	dir := strings.TrimSuffix(u.path, "/")
	if dir == "" {
		dir = "/"
	}

	out, err := command.Output(ctx, x.runner, x.xrdfs, u.server, "ls", "-l", "-R", dir)
	if err != nil {
		return nil, err
	}

	prefix := dir
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}

	var objects []*Object
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, err := parseLsLine(line)
		if err != nil {
			return nil, err
		}
		if entry.dir {
			continue
		}
		if !strings.HasPrefix(entry.path, prefix) {
			return nil, fmt.Errorf("xrdfs ls output path %s does not start with expected directory: %s", entry.path, dir)
		}
		rel := strings.TrimLeft(strings.TrimPrefix(entry.path, prefix), "/")

		obj := &Object{
			URL:          (&xrootdURL{server: u.server, path: entry.path}).String(),
			Rel:          rel,
			Size:         entry.size,
			LastModified: entry.modified,
		}
		obj.Checksum, err = x.checksum(ctx, u.server, entry.path)
		if err != nil {
			return nil, err
		}
		objects = append(objects, obj)
	}
	return objects, nil
}

type lsEntry struct {
	dir      bool
	size     int64
	modified time.Time
	path     string
}

// parseLsLine parses a line of "xrdfs ls -l", e.g.
// "-rw- 2023-03-12 10:01:02 1048576 /store/user/file.root"
func parseLsLine(line string) (*lsEntry, error) {
	fields := strings.Fields(line)
	if len(fields) != 5 {
		return nil, fmt.Errorf("unable to parse xrdfs line: %s", line)
	}
	size, err := strconv.ParseInt(fields[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("unable to parse size in xrdfs line: %s", line)
	}
	// an unparsable time is not fatal, it is informational only
	modified, _ := time.Parse("2006-01-02 15:04:05", fields[1]+" "+fields[2])
	return &lsEntry{
		dir:      fields[0][0] == 'd',
		size:     size,
		modified: modified,
		path:     fields[4],
	}, nil
}

// Checksum returns the adler32 checksum of the file at url.
func (x *XRootD) Checksum(ctx context.Context, url string) (string, error) {
	u, err := x.parse(url)
	if err != nil {
		return "", err
	}
	return x.checksum(ctx, u.server, u.path)
}

func (x *XRootD) checksum(ctx context.Context, server, path string) (string, error) {
	out, err := command.Output(ctx, x.runner, x.xrdfs, server, "query", "checksum", path)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(out)
	if len(fields) != 2 {
		return "", fmt.Errorf("unable to parse xrdfs checksum output: %s", strings.TrimSpace(out))
	}
	if fields[0] != "adler32" {
		return "", fmt.Errorf("xrdfs returned a checksum in an unexpected format: %s", fields[0])
	}
	return strings.ToLower(fields[1]), nil
}

// Get copies the file at url to path, creating parent directories.
func (x *XRootD) Get(ctx context.Context, url, path string) error {
	u, err := x.parse(url)
	if err != nil {
		return err
	}
	if err := fsutil.EnsurePath(path); err != nil {
		return err
	}
	_, err = x.runner.Run(ctx, command.Cmd{
		Name: x.xrdcp,
		Args: []string{
			"--silent", "--nopbar", "--force", "--path",
			"--streams", strconv.Itoa(x.streams),
			u.String(), path,
		},
	})
	return err
}

// Join joins the given URL with the given subpath.
func (x *XRootD) Join(url, rel string) (string, error) {
	return strings.TrimSuffix(url, "/") + "/" + strings.TrimPrefix(rel, "/"), nil
}

// UnsupportedOperations describes which operations (Get, List, etc) are not
// supported for the given URL.
func (x *XRootD) UnsupportedOperations(url string) UnsupportedOperations {
	if _, err := x.parse(url); err != nil {
		return AllUnsupported(err)
	}
	return AllSupported()
}

// Package eos lists ROOT files stored on EOS.
package eos

import (
	"context"
	"fmt"
	"strings"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
)

var log = logger.NewSubLogger("eos")

// Client runs the eos command line tool.
type Client struct {
	Runner command.Runner
	// Path to the eos executable.
	Path string
	// Prefix is the MGM url, e.g. root://cmseos.fnal.gov
	Prefix string
}

// NewClient returns a client configured from conf.
func NewClient(r command.Runner, conf config.EOS) *Client {
	return &Client{Runner: r, Path: conf.Path, Prefix: conf.Prefix}
}

// ListOptions control ListROOTFiles.
type ListOptions struct {
	// AppendPrefix prepends the MGM prefix to the returned paths.
	AppendPrefix bool
	// Veto drops paths containing this substring, when set.
	Veto string
}

// ListROOTFiles recursively lists the .root files under path.
func (c *Client) ListROOTFiles(ctx context.Context, path string, opts ListOptions) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("eos path cannot be empty")
	}
	if c.Prefix == "" {
		return nil, fmt.Errorf("eos prefix is not configured, set EOS.Prefix or EOSPREFIX")
	}
	var files []string
	err := c.walk(ctx, strings.TrimSuffix(path, "/"), opts, func(f string) {
		files = append(files, f)
	})
	return files, err
}

func (c *Client) walk(ctx context.Context, dir string, opts ListOptions, emit func(string)) error {
	log.Debug("Listing", "dir", dir)
	out, err := command.Output(ctx, c.Runner, c.Path, c.Prefix, "ls", "-a", "-lh", dir)
	if err != nil {
		return fmt.Errorf("listing %s: %w", dir, err)
	}
	for _, line := range command.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[len(fields)-1]
		if name == "." || name == ".." {
			continue
		}
		switch fields[0][0] {
		case 'd':
			if err := c.walk(ctx, dir+"/"+name, opts, emit); err != nil {
				return err
			}
		case '-':
			if !strings.HasSuffix(name, ".root") {
				continue
			}
			full := dir + "/" + name
			if opts.AppendPrefix {
				full = c.Prefix + full
			}
			if opts.Veto != "" && strings.Contains(full, opts.Veto) {
				continue
			}
			emit(full)
		}
	}
	return nil
}

package condor

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/config"
)

// Submitter runs condor_submit and condor_rm.
type Submitter struct {
	Runner    command.Runner
	SubmitCmd string
	RmCmd     string
}

// NewSubmitter returns a Submitter using the configured commands.
func NewSubmitter(conf config.Condor, r command.Runner) *Submitter {
	return &Submitter{Runner: r, SubmitCmd: conf.SubmitCmd, RmCmd: conf.RmCmd}
}

// Submit submits the job description at jdlPath from its own directory,
// so relative paths inside it resolve as condor expects, and returns the
// cluster id.
func (s *Submitter) Submit(ctx context.Context, jdlPath string) (string, error) {
	res, err := s.Runner.Run(ctx, command.Cmd{
		Name: s.SubmitCmd,
		Args: []string{filepath.Base(jdlPath)},
		Dir:  filepath.Dir(jdlPath),
	})
	if err != nil {
		return "", fmt.Errorf("submitting %s: %w", jdlPath, err)
	}
	id, err := ExtractID(string(res.Stdout))
	if err != nil {
		return "", fmt.Errorf("submitting %s: %w", jdlPath, err)
	}
	log.Info("Submitted job", "jdl", jdlPath, "cluster", id)
	return id, nil
}

// Remove removes all jobs of a cluster.
func (s *Submitter) Remove(ctx context.Context, clusterID string) error {
	_, err := s.Runner.Run(ctx, command.Cmd{Name: s.RmCmd, Args: []string{clusterID}})
	return err
}

var clusterRE = regexp.MustCompile(`(?m)^\s*([0-9]+) job\(s\) submitted to cluster ([0-9]+)\.`)

// ExtractID extracts the cluster id from condor_submit output:
//
//	Submitting job(s).
//	1 job(s) submitted to cluster 1234.
func ExtractID(out string) (string, error) {
	m := clusterRE.FindStringSubmatch(out)
	if m == nil {
		return "", fmt.Errorf("no cluster id in condor_submit output: %q", strings.TrimSpace(out))
	}
	return m[2], nil
}

// ParseJDL parses "key = value" lines. Keys are lower-cased, comments
// and lines without "=" are skipped.
func ParseJDL(r io.Reader) (map[string]string, error) {
	out := map[string]string{}
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		if key == "" {
			continue
		}
		out[key] = strings.TrimSpace(parts[1])
	}
	return out, sc.Err()
}

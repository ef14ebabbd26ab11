// Package das wraps dasgoclient, the command line client of the CMS Data
// Aggregation System, and reformats its output.
package das

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/hepkit/hepkit/command"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util"
)

var log = logger.NewSubLogger("das")

// Client runs dasgoclient queries.
type Client struct {
	Runner command.Runner
	// Path to the dasgoclient executable.
	Path    string
	Retrier *util.Retrier
	// Cache is optional.
	Cache *Cache
}

// Query runs a query and returns the raw output.
func (c *Client) Query(ctx context.Context, query string, jsonOutput bool) (string, error) {
	key := query
	args := []string{"-query", query}
	if jsonOutput {
		key += " -json"
		args = append(args, "-json")
	}
	if out, ok := c.Cache.Get(key); ok {
		log.Debug("Using cached query result", "query", query)
		return out, nil
	}

	var out string
	err := c.Retrier.Retry(ctx, func() error {
		res, err := c.Runner.Run(ctx, command.Cmd{Name: c.Path, Args: args})
		if err != nil {
			return err
		}
		out = string(res.Stdout)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("das query %q: %w", query, err)
	}
	if err := c.Cache.Put(key, out); err != nil {
		log.Warn("Failed to cache query result", "query", query, "error", err)
	}
	return out, nil
}

// ListDatasets returns the datasets matching a pattern,
// e.g. /JetHT/Run2018*-UL2018*/MINIAOD.
func (c *Client) ListDatasets(ctx context.Context, pattern string) ([]string, error) {
	out, err := c.Query(ctx, "dataset dataset="+pattern, false)
	if err != nil {
		return nil, err
	}
	return command.Lines(out), nil
}

// NumberOfEvents returns the total number of events in a dataset.
func (c *Client) NumberOfEvents(ctx context.Context, dataset string) (int64, error) {
	out, err := c.Query(ctx, fmt.Sprintf("file dataset=%s | grep file.nevents", dataset), false)
	if err != nil {
		return 0, err
	}
	var total int64
	for _, l := range command.Lines(out) {
		n, err := strconv.ParseInt(l, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("unexpected number of events %q for %s", l, dataset)
		}
		total += n
	}
	return total, nil
}

// DatasetEvents pairs a dataset with its number of events.
type DatasetEvents struct {
	Dataset string `json:"dataset"`
	Events  int64  `json:"events"`
}

// DatasetsWithEvents lists the datasets matching pattern with their number of events.
func (c *Client) DatasetsWithEvents(ctx context.Context, pattern string) ([]DatasetEvents, error) {
	datasets, err := c.ListDatasets(ctx, pattern)
	if err != nil {
		return nil, err
	}
	out := make([]DatasetEvents, 0, len(datasets))
	for _, d := range datasets {
		n, err := c.NumberOfEvents(ctx, d)
		if err != nil {
			return nil, err
		}
		out = append(out, DatasetEvents{Dataset: d, Events: n})
	}
	return out, nil
}

// MCMPrepID returns the McM prep id of a dataset. The query must match
// exactly one prep id.
func (c *Client) MCMPrepID(ctx context.Context, dataset string) (string, error) {
	out, err := c.Query(ctx, "mcm dataset="+dataset, false)
	if err != nil {
		return "", err
	}
	lines := command.Lines(out)
	switch len(lines) {
	case 0:
		return "", fmt.Errorf("no prepID for pattern: %s", dataset)
	case 1:
		return lines[0], nil
	}
	return "", fmt.Errorf("multiple prepIDs for pattern: %s", dataset)
}

// Files returns the files of a dataset.
func (c *Client) Files(ctx context.Context, dataset string) ([]string, error) {
	out, err := c.Query(ctx, "file dataset="+dataset, false)
	if err != nil {
		return nil, err
	}
	return command.Lines(out), nil
}

type fileLumiRecord struct {
	File []struct {
		Name string `json:"name"`
	} `json:"file"`
	Lumi []struct {
		Number lumiNumbers `json:"number"`
	} `json:"lumi"`
}

// lumiNumbers accepts a single lumisection number or a list.
type lumiNumbers []int64

func (l *lumiNumbers) UnmarshalJSON(b []byte) error {
	var list []int64
	if err := json.Unmarshal(b, &list); err == nil {
		*l = list
		return nil
	}
	var n int64
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("invalid lumisection number %s", string(b))
	}
	*l = lumiNumbers{n}
	return nil
}

// FilesForRun returns the files of a dataset containing a run, sorted by
// the first lumisection they contain. When two files start at the same
// lumisection, the one listed last wins.
func (c *Client) FilesForRun(ctx context.Context, dataset string, run int) ([]string, error) {
	out, err := c.Query(ctx, fmt.Sprintf("file, lumi dataset=%s run=%d", dataset, run), true)
	if err != nil {
		return nil, err
	}
	return parseFilesForRun(out)
}

func parseFilesForRun(out string) ([]string, error) {
	var records []fileLumiRecord
	if err := json.Unmarshal([]byte(out), &records); err != nil {
		return nil, fmt.Errorf("parsing dasgoclient json output: %w", err)
	}

	byFirstLumi := map[int64]string{}
	for i, r := range records {
		if len(r.File) == 0 || len(r.Lumi) == 0 || len(r.Lumi[0].Number) == 0 {
			return nil, fmt.Errorf("record %d has no file or lumi information", i)
		}
		first := r.Lumi[0].Number[0]
		for _, n := range r.Lumi[0].Number {
			if n < first {
				first = n
			}
		}
		byFirstLumi[first] = r.File[0].Name
	}

	lumis := make([]int64, 0, len(byFirstLumi))
	for l := range byFirstLumi {
		lumis = append(lumis, l)
	}
	sort.Slice(lumis, func(i, j int) bool { return lumis[i] < lumis[j] })

	files := make([]string, 0, len(lumis))
	for _, l := range lumis {
		files = append(files, byFirstLumi[l])
	}
	return files, nil
}

// FormatDatasetEvents formats datasets with their number of events, one per line.
func FormatDatasetEvents(ds []DatasetEvents) string {
	var b strings.Builder
	for _, d := range ds {
		fmt.Fprintf(&b, "%s: %d\n", d.Dataset, d.Events)
	}
	return b.String()
}

// Package bib builds BibTeX files from DOI and arXiv identifiers using the
// INSPIRE-HEP REST API.
package bib

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util"
	"golang.org/x/time/rate"
)

var log = logger.NewSubLogger("bib")

// Schemes accepted in references.
const (
	Arxiv = "arxiv"
	DOI   = "doi"
)

// Reference is a record to fetch.
type Reference struct {
	Title  string
	Scheme string
	ID     string
}

// ParseReferences parses {"references": [{"<title>": "<scheme>:<id>"}, ...]}.
// Every colon after the scheme is dropped from the identifier.
func ParseReferences(r io.Reader) ([]Reference, error) {
	var in struct {
		References []map[string]string `json:"references"`
	}
	if err := json.NewDecoder(r).Decode(&in); err != nil {
		return nil, fmt.Errorf("parsing references: %w", err)
	}
	refs := make([]Reference, 0, len(in.References))
	for _, m := range in.References {
		if len(m) != 1 {
			return nil, fmt.Errorf("json input in unexpected format, check this reference: %v", m)
		}
		for title, raw := range m {
			parts := strings.Split(raw, ":")
			scheme := parts[0]
			if scheme != Arxiv && scheme != DOI {
				return nil, fmt.Errorf("reference %q: unknown scheme %q, expected %q or %q", title, scheme, Arxiv, DOI)
			}
			refs = append(refs, Reference{
				Title:  title,
				Scheme: scheme,
				ID:     strings.Join(parts[1:], ""),
			})
		}
	}
	return refs, nil
}

// LoadReferences reads references from a JSON file.
func LoadReferences(path string) ([]Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseReferences(f)
}

// Client queries INSPIRE.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	Limiter *rate.Limiter
	Retrier *util.Retrier
}

// NewClient returns a client configured by conf, retrying server errors
// with the settings of retry.
func NewClient(conf config.Inspire, retry config.Retry) *Client {
	r := util.NewRetrier()
	if retry.MaxTries > 0 {
		r.MaxTries = retry.MaxTries
	}
	if retry.InitialInterval > 0 {
		r.InitialInterval = time.Duration(retry.InitialInterval)
	}
	if retry.MaxInterval > 0 {
		r.MaxInterval = time.Duration(retry.MaxInterval)
	}
	r.Notify = func(err error, d time.Duration) {
		log.Warn("Retrying INSPIRE query", "error", err, "sleep", d)
	}

	limit := rate.Inf
	if conf.RateLimit > 0 {
		limit = rate.Limit(conf.RateLimit)
	}
	return &Client{
		HTTP:    &http.Client{Timeout: time.Duration(conf.Timeout)},
		BaseURL: strings.TrimSuffix(conf.URL, "/"),
		Limiter: rate.NewLimiter(limit, 1),
		Retrier: r,
	}
}

// StatusError is returned for responses other than 200 OK.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("query failed, are you sure this record exists? query: %s, status: %d", e.URL, e.StatusCode)
}

// Fetch returns the BibTeX record of the given identifier.
// Client errors (4xx) are not retried.
func (c *Client) Fetch(ctx context.Context, scheme, id string) (string, error) {
	u := fmt.Sprintf("%s/%s/%s?format=bibtex", c.BaseURL, scheme, id)
	var body string
	err := c.Retrier.Retry(ctx, func() error {
		if c.Limiter != nil {
			if err := c.Limiter.Wait(ctx); err != nil {
				return util.Permanent(err)
			}
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return util.Permanent(err)
		}
		resp, err := c.HTTP.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			serr := &StatusError{URL: u, StatusCode: resp.StatusCode}
			if resp.StatusCode < 500 {
				return util.Permanent(serr)
			}
			return serr
		}
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		body = string(b)
		return nil
	})
	return body, err
}

// Convert copies header, when not nil, to out and then appends the BibTeX
// record of every reference in order.
func (c *Client) Convert(ctx context.Context, refs []Reference, header io.Reader, out io.Writer) error {
	if header != nil {
		if _, err := io.Copy(out, header); err != nil {
			return fmt.Errorf("copying bib header: %w", err)
		}
	}
	log.Info("Found references", "count", len(refs))
	for _, ref := range refs {
		log.Info("Fetching record", "scheme", ref.Scheme, "id", ref.ID, "title", ref.Title)
		rec, err := c.Fetch(ctx, ref.Scheme, ref.ID)
		if err != nil {
			return fmt.Errorf("reference %q: %w", ref.Title, err)
		}
		if _, err := io.WriteString(out, rec); err != nil {
			return err
		}
	}
	return nil
}

package bib

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hepkit/hepkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseReferences(t *testing.T) {
	refs, err := ParseReferences(strings.NewReader(`{"references": [
	  {"Higgs discovery": "doi:10.1016/j.physletb.2012.08.021"},
	  {"Stealth SUSY": "arxiv:1105.5135"},
	  {"Odd": "arxiv:hep-ph:0001001"}
	]}`))
	require.NoError(t, err)
	assert.Equal(t, []Reference{
		{"Higgs discovery", DOI, "10.1016/j.physletb.2012.08.021"},
		{"Stealth SUSY", Arxiv, "1105.5135"},
		{"Odd", Arxiv, "hep-ph0001001"},
	}, refs)

	_, err = ParseReferences(strings.NewReader(`{"references": [{"a": "doi:1", "b": "doi:2"}]}`))
	assert.ErrorContains(t, err, "json input in unexpected format")

	_, err = ParseReferences(strings.NewReader(`{"references": [{"a": "isbn:1"}]}`))
	assert.ErrorContains(t, err, `unknown scheme "isbn"`)
}

func testClient(url string) *Client {
	c := NewClient(config.Inspire{URL: url + "/", Timeout: config.Duration(time.Second)}, config.Retry{
		MaxTries:        3,
		InitialInterval: config.Duration(time.Millisecond),
		MaxInterval:     config.Duration(time.Millisecond),
	})
	return c
}

func TestConvert(t *testing.T) {
	var fails int32 = 1
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bibtex", r.URL.Query().Get("format"))
		switch r.URL.Path {
		case "/arxiv/1105.5135":
			// one transient failure before success
			if atomic.AddInt32(&fails, -1) >= 0 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			fmt.Fprint(w, "@article{Fan:2011yu}\n")
		case "/doi/10.1/x":
			fmt.Fprint(w, "@article{Doi:2012}\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	refs := []Reference{
		{"stealth", Arxiv, "1105.5135"},
		{"doi", DOI, "10.1/x"},
	}
	var out bytes.Buffer
	err := testClient(ts.URL).Convert(context.Background(), refs, strings.NewReader("@misc{header}\n"), &out)
	require.NoError(t, err)
	assert.Equal(t, "@misc{header}\n@article{Fan:2011yu}\n@article{Doi:2012}\n", out.String())
}

func TestFetchNotFound(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := testClient(ts.URL).Fetch(context.Background(), Arxiv, "0000.0000")
	var serr *StatusError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusNotFound, serr.StatusCode)
	assert.Contains(t, err.Error(), "query failed, are you sure this record exists?")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

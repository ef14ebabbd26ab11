package bib

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	cmdutil "github.com/hepkit/hepkit/cmd/util"
	"github.com/hepkit/hepkit/examples"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBib(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/doi/10.1016/j.physletb.2012.08.021":
			fmt.Fprint(w, "@article{Aad:2012tfa}\n")
		case "/arxiv/1105.5135":
			fmt.Fprint(w, "@article{Fan:2011yu}\n")
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	s := cmdutil.NewSetup()
	s.Conf.Inspire.URL = ts.URL
	s.Conf.Inspire.RateLimit = 0

	dir := t.TempDir()
	input := filepath.Join(dir, "refs.json")
	header := filepath.Join(dir, "header.bib")
	output := filepath.Join(dir, "out", "refs.bib")
	require.NoError(t, os.WriteFile(input, []byte(examples.Examples()["references"]), 0644))
	require.NoError(t, os.WriteFile(header, []byte("@misc{ours}\n"), 0644))

	cmd := NewCommand(s)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"-i", input, "--bib-header", header, "-o", output})
	require.NoError(t, cmd.Execute())

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "@misc{ours}\n@article{Aad:2012tfa}\n@article{Fan:2011yu}\n", string(b))
}

func TestBibMissingRecord(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	s := cmdutil.NewSetup()
	s.Conf.Inspire.URL = ts.URL

	input := filepath.Join(t.TempDir(), "refs.json")
	require.NoError(t, os.WriteFile(input, []byte(examples.Examples()["references"]), 0644))

	cmd := NewCommand(s)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"-i", input})
	assert.ErrorContains(t, cmd.Execute(), "status: 404")
	assert.Empty(t, out.String())
}

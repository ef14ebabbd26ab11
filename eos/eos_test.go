package eos

import (
	"context"
	"testing"

	"github.com/hepkit/hepkit/command"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const prefix = "root://cmseos.fnal.gov"

func fakeEOS() *command.FakeRunner {
	r := command.NewFakeRunner()
	r.Set(`drwxr-xr-x   1 user  zh       4.0k Mar 12 10:01 .
drwxr-xr-x   1 user  zh       4.0k Mar 12 10:01 ..
drwxr-xr-x   1 user  zh       4.0k Mar 12 10:01 mediumfake
-rw-r--r--   2 user  zh     100.2M Mar 12 10:01 signal.root
-rw-r--r--   2 user  zh       1.1k Mar 12 10:01 notes.txt
`, "eos", prefix, "ls", "-a", "-lh", "/store/user/sel")
	r.Set(`drwxr-xr-x   1 user  zh       4.0k Mar 12 10:01 .
drwxr-xr-x   1 user  zh       4.0k Mar 12 10:01 ..
-rw-r--r--   2 user  zh      12.0M Mar 12 10:01 control.root
`, "eos", prefix, "ls", "-a", "-lh", "/store/user/sel/mediumfake")
	return r
}

func TestListROOTFiles(t *testing.T) {
	c := &Client{Runner: fakeEOS(), Path: "eos", Prefix: prefix}

	files, err := c.ListROOTFiles(context.Background(), "/store/user/sel/", ListOptions{AppendPrefix: true})
	require.NoError(t, err)
	assert.Equal(t, []string{
		prefix + "/store/user/sel/mediumfake/control.root",
		prefix + "/store/user/sel/signal.root",
	}, files)

	files, err = c.ListROOTFiles(context.Background(), "/store/user/sel", ListOptions{Veto: "mediumfake"})
	require.NoError(t, err)
	assert.Equal(t, []string{"/store/user/sel/signal.root"}, files)
}

func TestListROOTFilesErrors(t *testing.T) {
	c := &Client{Runner: command.NewFakeRunner(), Path: "eos", Prefix: prefix}
	_, err := c.ListROOTFiles(context.Background(), "", ListOptions{})
	assert.Error(t, err)

	_, err = c.ListROOTFiles(context.Background(), "/missing", ListOptions{})
	assert.ErrorContains(t, err, "listing /missing")

	c.Prefix = ""
	_, err = c.ListROOTFiles(context.Background(), "/store", ListOptions{})
	assert.ErrorContains(t, err, "prefix is not configured")
}

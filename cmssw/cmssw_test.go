package cmssw

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/andreyvit/diff"
	"github.com/hepkit/hepkit/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeRelease(t *testing.T) Env {
	base := filepath.Join(t.TempDir(), "CMSSW_13_0_0")
	for name, content := range map[string]string{
		"src/Analysis/plugins/Ana.cc": "// analyzer",
		"src/Analysis/.git/HEAD":      "ref: refs/heads/main",
		"src/Analysis/.gitignore":     "*.o",
		"config/toolbox":              "tools",
	} {
		p := filepath.Join(base, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	require.NoError(t, os.Symlink("../config", filepath.Join(base, "src", "cfg")))
	return Env{Base: base, ScramArch: "el8_amd64_gcc11"}
}

func TestBundle(t *testing.T) {
	env := fakeRelease(t)
	dest := filepath.Join(t.TempDir(), "condor_files")

	out, err := Bundle(context.Background(), env, "test", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "CMSSWBundle_test.tar.gz"), out)
	assert.NoFileExists(t, out+".partial")

	f, err := os.Open(out)
	require.NoError(t, err)
	defer f.Close()
	gz, err := gzip.NewReader(f)
	require.NoError(t, err)
	tr := tar.NewReader(gz)

	var names []string
	links := map[string]string{}
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		names = append(names, hdr.Name)
		if hdr.Typeflag == tar.TypeSymlink {
			links[hdr.Name] = hdr.Linkname
		}
	}
	sort.Strings(names)
	assert.Equal(t, []string{
		"CMSSW_13_0_0/config/toolbox",
		"CMSSW_13_0_0/src/Analysis/plugins/Ana.cc",
		"CMSSW_13_0_0/src/cfg",
	}, names)
	assert.Equal(t, "../config", links["CMSSW_13_0_0/src/cfg"])
}

func TestBundleRequiresBase(t *testing.T) {
	_, err := Bundle(context.Background(), Env{}, "x", t.TempDir())
	assert.ErrorContains(t, err, "CMSSW_BASE not set")

	_, err = EnvFromConfig(config.CMSSW{})
	assert.Error(t, err)
}

func TestWrapperScript(t *testing.T) {
	env := Env{Base: "/home/user/CMSSW_13_0_0/", ScramArch: "el8_amd64_gcc11"}
	s := NewWrapperScript(env, "test", "runTheMatrix.py -l ${1} -i all --ibeos")
	s.ReturnDir = "/work"
	s.ReturnGlob = "${1}*"

	expect := "#!/bin/bash\n" +
		"\n" +
		"echo \"Sourcing CMSSW environment...\"\n" +
		"source /cvmfs/cms.cern.ch/cmsset_default.sh\n" +
		"tar -xf CMSSWBundle_test.tar.gz && rm -f CMSSWBundle_test.tar.gz\n" +
		"export SCRAM_ARCH=el8_amd64_gcc11\n" +
		"cd CMSSW_13_0_0/src && scramv1 b ProjectRename && eval `scramv1 runtime -sh` && scram b clean && scram b && cd ../..\n" +
		"\n" +
		"runTheMatrix.py -l ${1} -i all --ibeos\n" +
		"mv -v ${1}* /work/\n" +
		"rm -r CMSSW_13_0_0\n"

	out, err := s.Render()
	require.NoError(t, err)
	if out != expect {
		t.Errorf("unexpected script:\n%v", diff.LineDiff(expect, out))
	}

	s.ReturnDir = ""
	out, err = s.Render()
	require.NoError(t, err)
	assert.Contains(t, out, "--ibeos\nrm -r CMSSW_13_0_0\n")
}

func TestWriteScriptExecutable(t *testing.T) {
	p := filepath.Join(t.TempDir(), "condor_files", "run.sh")
	s := NewWrapperScript(Env{Base: "/x/CMSSW_1"}, "id", "echo hi")
	require.NoError(t, s.WriteScript(p))
	st, err := os.Stat(p)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), st.Mode().Perm())
}

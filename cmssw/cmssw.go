// Package cmssw packages a CMSSW release area for batch jobs and writes the
// wrapper script that unpacks and rebuilds it on the worker node.
package cmssw

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/hepkit/hepkit/config"
	"github.com/hepkit/hepkit/logger"
	"github.com/hepkit/hepkit/util/fsutil"
)

var log = logger.NewSubLogger("cmssw")

// Env describes a CMSSW release area.
type Env struct {
	Base         string
	ScramArch    string
	CmsSetScript string
}

// EnvFromConfig returns the configured release area.
func EnvFromConfig(conf config.CMSSW) (Env, error) {
	if conf.Base == "" {
		return Env{}, fmt.Errorf("CMSSW_BASE not set")
	}
	return Env{Base: conf.Base, ScramArch: conf.ScramArch, CmsSetScript: conf.CmsSetScript}, nil
}

// FolderName returns the name of the release directory, e.g. CMSSW_13_0_0.
func (e Env) FolderName() string {
	return filepath.Base(filepath.Clean(e.Base))
}

// BundleName returns the tarball name for an identifier.
func BundleName(identifier string) string {
	return fmt.Sprintf("CMSSWBundle_%s.tar.gz", identifier)
}

var vcsDirs = map[string]bool{
	".git": true, ".svn": true, ".hg": true, ".bzr": true, "CVS": true,
	".gitignore": true, ".gitattributes": true, ".gitmodules": true, ".cvsignore": true, ".hgignore": true,
}

func skipVCS(rel string, d fs.DirEntry) bool {
	return vcsDirs[d.Name()]
}

// Bundle writes a gzipped tarball of the release area to
// destDir/CMSSWBundle_<identifier>.tar.gz. Entries are rooted at the
// release folder name and version control files are excluded.
func Bundle(ctx context.Context, env Env, identifier, destDir string) (string, error) {
	if env.Base == "" {
		return "", fmt.Errorf("CMSSW_BASE not set")
	}
	files, err := fsutil.WalkFiles(env.Base, skipVCS)
	if err != nil {
		return "", err
	}
	if err := fsutil.EnsureDir(destDir); err != nil {
		return "", err
	}

	out := filepath.Join(destDir, BundleName(identifier))
	tmp := out + ".partial"
	f, err := os.Create(tmp)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp)

	log.Info("Packaging CMSSW", "base", env.Base, "files", len(files), "output", out)
	if err := writeTarball(ctx, f, env.FolderName(), files); err != nil {
		f.Close()
		return "", fmt.Errorf("packaging %s: %w", env.Base, err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, out); err != nil {
		return "", err
	}
	return out, nil
}

func writeTarball(ctx context.Context, w io.Writer, root string, files []fsutil.Hostfile) error {
	gz := gzip.NewWriter(w)
	tw := tar.NewWriter(gz)

	for _, hf := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := os.Lstat(hf.Abs)
		if err != nil {
			return err
		}
		link := ""
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(hf.Abs); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = path.Join(root, hf.Rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			continue
		}
		if err := copyInto(ctx, tw, hf.Abs); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return err
	}
	return gz.Close()
}

func copyInto(ctx context.Context, w io.Writer, p string) error {
	f, err := os.Open(p)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(w, fsutil.Reader(ctx, f))
	return err
}

// WrapperScript is the job executable: it sets up CMSSW from the bundle,
// runs Commands and cleans up.
type WrapperScript struct {
	Identifier   string
	FolderName   string
	ScramArch    string
	CmsSetScript string
	Commands     []string
	// ReturnDir, when set, receives outputs matching ReturnGlob.
	ReturnDir  string
	ReturnGlob string
}

// NewWrapperScript returns a wrapper for the release area.
func NewWrapperScript(env Env, identifier string, commands ...string) *WrapperScript {
	return &WrapperScript{
		Identifier:   identifier,
		FolderName:   env.FolderName(),
		ScramArch:    env.ScramArch,
		CmsSetScript: env.CmsSetScript,
		Commands:     commands,
	}
}

var wrapperTemplate = template.Must(template.New("wrapper").Parse(`#!/bin/bash

echo "Sourcing CMSSW environment..."
source {{.CmsSetScript}}
tar -xf {{.Bundle}} && rm -f {{.Bundle}}
export SCRAM_ARCH={{.ScramArch}}
cd {{.FolderName}}/src && scramv1 b ProjectRename && eval ` + "`scramv1 runtime -sh`" + ` && scram b clean && scram b && cd ../..

{{range .Commands}}{{.}}
{{end}}
{{- if .ReturnDir}}mv -v {{.ReturnGlob}} {{.ReturnDir}}/
{{end -}}
rm -r {{.FolderName}}
`))

// Render returns the script text.
func (s *WrapperScript) Render() (string, error) {
	if s.FolderName == "" {
		return "", fmt.Errorf("release folder name is required")
	}
	setup := s.CmsSetScript
	if setup == "" {
		setup = config.DefaultConfig().CMSSW.CmsSetScript
	}
	glob := s.ReturnGlob
	if glob == "" {
		glob = "*"
	}
	var b bytes.Buffer
	err := wrapperTemplate.Execute(&b, map[string]interface{}{
		"CmsSetScript": setup,
		"Bundle":       BundleName(s.Identifier),
		"ScramArch":    s.ScramArch,
		"FolderName":   s.FolderName,
		"Commands":     s.Commands,
		"ReturnDir":    s.ReturnDir,
		"ReturnGlob":   glob,
	})
	return b.String(), err
}

// WriteScript writes the executable script to p.
func (s *WrapperScript) WriteScript(p string) error {
	text, err := s.Render()
	if err != nil {
		return err
	}
	if err := fsutil.EnsurePath(p); err != nil {
		return err
	}
	if err := os.WriteFile(p, []byte(text), 0755); err != nil {
		return err
	}
	// WriteFile doesn't change the mode of an existing file.
	return os.Chmod(p, 0755)
}

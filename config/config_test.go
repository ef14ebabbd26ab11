package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestParseOverridesDefaults(t *testing.T) {
	yaml := `
DAS:
  Client: /opt/bin/dasgoclient
  CacheTTL: 30m
XRootD:
  Streams: 4
Launcher:
  MonitorRate: 2s
`
	conf := DefaultConfig()
	if err := Parse([]byte(yaml), &conf); err != nil {
		t.Fatal(err)
	}

	if conf.DAS.Client != "/opt/bin/dasgoclient" {
		t.Fatal("unexpected das client", conf.DAS.Client)
	}
	if time.Duration(conf.DAS.CacheTTL) != 30*time.Minute {
		t.Fatal("unexpected cache ttl", conf.DAS.CacheTTL)
	}
	if conf.XRootD.Streams != 4 {
		t.Fatal("unexpected streams")
	}
	if time.Duration(conf.Launcher.MonitorRate) != 2*time.Second {
		t.Fatal("unexpected monitor rate")
	}
	// untouched sections keep their defaults
	if conf.Condor.SubmitCmd != "condor_submit" {
		t.Fatal("unexpected submit command", conf.Condor.SubmitCmd)
	}
}

func TestParseInvalidHabitat(t *testing.T) {
	conf := DefaultConfig()
	err := Parse([]byte("Condor:\n  Habitat: cern\n"), &conf)
	if err == nil {
		t.Fatal("expected error for unknown habitat")
	}
}

func TestYamlRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hepkit.yaml")

	conf := DefaultConfig()
	conf.EOS.Prefix = "root://cmseos.fnal.gov/"
	conf.Inspire.Timeout = Duration(time.Second * 5)
	if err := ToYamlFile(conf, path); err != nil {
		t.Fatal(err)
	}

	loaded := Config{}
	if err := ParseFile(path, &loaded); err != nil {
		t.Fatal(err)
	}
	if loaded.EOS.Prefix != conf.EOS.Prefix {
		t.Fatal("unexpected prefix", loaded.EOS.Prefix)
	}
	if loaded.Inspire.Timeout != conf.Inspire.Timeout {
		t.Fatal("unexpected timeout", loaded.Inspire.Timeout)
	}
	if loaded.Condor.Template != CondorTemplate {
		t.Fatal("template did not survive round trip")
	}
}

func TestParseFileMissing(t *testing.T) {
	conf := Config{}
	if err := ParseFile("", &conf); err != nil {
		t.Fatal("empty path should be a no-op", err)
	}
	err := ParseFile(filepath.Join(os.TempDir(), "does-not-exist.yaml"), &conf)
	if err == nil {
		t.Fatal("expected error")
	}
}

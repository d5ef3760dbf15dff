package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vanderheijden86/navplus/internal/app"
	"github.com/vanderheijden86/navplus/pkg/config"
	"github.com/vanderheijden86/navplus/pkg/loader"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/testutil"
)

// sampleRoot writes the sample site and isolates configuration and state
// in temporary directories.
func sampleRoot(t *testing.T) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_STATE_HOME", t.TempDir())
	t.Setenv(loader.DocRootEnvVar, "")
	t.Setenv(config.StoreEnvVar, filepath.Join(t.TempDir(), "store.db"))
	return testutil.TempSite(t, testutil.SampleSite())
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	ctx := app.ContextWithEnv(context.Background())
	err := newApp(&out).Run(ctx, append([]string{"navplus"}, args...))
	return out.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := run(t, args...)
	if err != nil {
		t.Fatalf("navplus %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestNamespace(t *testing.T) {
	dir := sampleRoot(t)
	out := mustRun(t, "--root", dir, "namespace")
	if want := store.Namespace(app.URLRoot(dir)) + "\n"; out != want {
		t.Errorf("namespace = %q, want %q", out, want)
	}
}

func TestBuild_CachesAcrossRuns(t *testing.T) {
	dir := sampleRoot(t)

	out := mustRun(t, "--root", dir, "build")
	if !strings.Contains(out, "sections:  Namespaces, Globals, Concepts, Classes, Class Members, Files") {
		t.Errorf("build output:\n%s", out)
	}
	if !strings.Contains(out, "cached:    false") {
		t.Errorf("first build cached:\n%s", out)
	}

	if out := mustRun(t, "--root", dir, "build"); !strings.Contains(out, "cached:    true") {
		t.Errorf("second build not cached:\n%s", out)
	}

	mustRun(t, "--root", dir, "reset")
	if out := mustRun(t, "--root", dir, "build"); !strings.Contains(out, "cached:    false") {
		t.Errorf("build after reset cached:\n%s", out)
	}
}

func TestBuild_NoDocumentation(t *testing.T) {
	sampleRoot(t)
	if _, err := run(t, "--root", t.TempDir(), "build"); err == nil {
		t.Fatal("build succeeded without documentation")
	}
}

func TestDump(t *testing.T) {
	dir := sampleRoot(t)

	if out := mustRun(t, "--root", dir, "dump"); !strings.Contains(out, "Classes → annotated.html → Kids: 5") {
		t.Errorf("group dump:\n%s", out)
	}

	out := mustRun(t, "--root", dir, "dump", "--format", "json")
	got, err := navtree.Decode([]byte(strings.TrimSpace(out)))
	if err != nil {
		t.Fatalf("decoding json dump: %v", err)
	}
	testutil.AssertNodesEqual(t, testutil.SampleForest(), got)

	if out := mustRun(t, "--root", dir, "dump", "--default", "--format", "table"); !strings.Contains(out, "Main Page") {
		t.Errorf("default table dump:\n%s", out)
	}

	if _, err := run(t, "--root", dir, "dump", "--format", "xml"); err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Errorf("xml format err = %v", err)
	}
}

func TestMissed(t *testing.T) {
	dir := sampleRoot(t)
	out := mustRun(t, "--root", dir, "missed")
	if !strings.Contains(out, "index.html") {
		t.Errorf("missed output lacks the main page:\n%s", out)
	}
	if strings.Contains(out, "d3/d00/classgeo_1_1Mesh.html") {
		t.Errorf("missed lists a linked page:\n%s", out)
	}
}

func TestPurge(t *testing.T) {
	dir := sampleRoot(t)
	if out := mustRun(t, "--root", dir, "purge"); out != "removed 0 expired entries\n" {
		t.Errorf("purge output = %q", out)
	}
}

func TestDumpConfig(t *testing.T) {
	sampleRoot(t)
	if out := mustRun(t, "dumpconfig", "--default"); !strings.Contains(out, "dual_nav: true") {
		t.Errorf("default config:\n%s", out)
	}

	path := filepath.Join(t.TempDir(), "config.yaml")
	mustRun(t, "dumpconfig", path)
	cfg, err := config.LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.UI.PriWidth != 250 {
		t.Errorf("written pri_width = %d", cfg.UI.PriWidth)
	}
}

func TestShouldSuppressTTYQueries(t *testing.T) {
	tests := []struct {
		args []string
		tty  bool
		want bool
	}{
		{[]string{"browse"}, true, false},
		{[]string{"--root", "docs", "browse"}, true, false},
		{[]string{"browse"}, false, true},
		{[]string{"dump"}, true, true},
		{[]string{"--help", "browse"}, true, true},
		{nil, true, true},
	}
	for _, tc := range tests {
		if got := shouldSuppressTTYQueries(tc.args, tc.tty); got != tc.want {
			t.Errorf("shouldSuppressTTYQueries(%v, %v) = %v, want %v", tc.args, tc.tty, got, tc.want)
		}
	}
}

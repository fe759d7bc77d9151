package main

import (
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/verte-zerg/bguard/internal/config"
	"github.com/verte-zerg/bguard/internal/guard"
)

var commentedKey = regexp.MustCompile(`^# ([a-z-]+ = )`)

func TestDefaultConfigTemplateKeysAreKnown(t *testing.T) {
	lines := strings.Split(defaultConfigTemplate(), "\n")
	for i, line := range lines {
		lines[i] = commentedKey.ReplaceAllString(line, "$1")
	}
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		t.Fatalf("uncommented template does not load: %v", err)
	}
	resolved, err := cfg.Guard.Options().Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved != guard.DefaultConfig() {
		t.Fatalf("template values differ from defaults: %+v", resolved)
	}
	if cfg.UI.Report == nil || *cfg.UI.Report != defaultReport {
		t.Fatalf("unexpected report default")
	}
}

func TestSimulateCommandPrintsReport(t *testing.T) {
	script := filepath.Join(t.TempDir(), "session.yaml")
	body := `
options:
  track-idle-time: false
events:
  - {at: 1s, kind: blur}
  - {at: 2s, kind: paste}
until: 5s
`
	if err := os.WriteFile(script, []byte(body), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "missing.toml"),
		"simulate", script,
		"--report", "json",
		"--start", "2026-01-05T09:00:00Z",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, out.String())
	}
	for _, want := range []string{`"riskScore": 30`, `"tabSwitches": 1`, `"copyPasteCount": 1`, `"duration": "5s"`} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("expected %s in output:\n%s", want, out.String())
		}
	}
}

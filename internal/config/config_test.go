package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.Guard.IdleTimeoutMs != nil {
		t.Fatalf("expected unset idle timeout")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestLoadConfigDecodesSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[guard]
track-copy-paste = false
idle-timeout-ms = 10000
penalty-tab-switch = 25

[ui]
clipboard-poll-ms = 250
report = "yaml"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Guard.TrackCopyPaste == nil || *cfg.Guard.TrackCopyPaste {
		t.Fatalf("expected track-copy-paste=false")
	}
	if cfg.Guard.TrackTabSwitch != nil {
		t.Fatalf("unset key should stay nil")
	}
	if cfg.Guard.IdleTimeoutMs == nil || *cfg.Guard.IdleTimeoutMs != 10000 {
		t.Fatalf("unexpected idle timeout: %v", cfg.Guard.IdleTimeoutMs)
	}
	if cfg.UI.ClipboardPollMs == nil || *cfg.UI.ClipboardPollMs != 250 {
		t.Fatalf("unexpected clipboard poll")
	}
	if cfg.UI.Report == nil || *cfg.UI.Report != "yaml" {
		t.Fatalf("unexpected report format")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected log level")
	}

	resolved, err := cfg.Guard.Options().Resolve()
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if resolved.TrackCopyPaste || !resolved.TrackTabSwitch {
		t.Fatalf("unexpected tracking flags: %+v", resolved)
	}
	if resolved.PenaltyTabSwitch != 25 || resolved.PenaltyWindowBlur != 10 {
		t.Fatalf("unexpected penalties: %+v", resolved)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[guard]\nidle-timeout = 5\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "idle-timeout") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	env := map[string]string{
		"BGUARD_TRACK_IDLE_TIME":    "false",
		"BGUARD_IDLE_TIMEOUT_MS":    " 5000 ",
		"BGUARD_PENALTY_IDLE":       "0",
		"BGUARD_CLIPBOARD_POLL_MS":  "100",
		"BGUARD_LOG_FILE":           "/tmp/bguard.log",
		"BGUARD_PENALTY_COPY_PASTE": "",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
	seven := 7
	cfg := FileConfig{}
	cfg.Guard.PenaltyCopyPaste = &seven
	if err := ApplyEnv(&cfg, lookup); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if cfg.Guard.TrackIdleTime == nil || *cfg.Guard.TrackIdleTime {
		t.Fatalf("expected idle tracking disabled")
	}
	if *cfg.Guard.IdleTimeoutMs != 5000 || *cfg.Guard.PenaltyIdle != 0 {
		t.Fatalf("unexpected ints: %d %d", *cfg.Guard.IdleTimeoutMs, *cfg.Guard.PenaltyIdle)
	}
	if *cfg.Guard.PenaltyCopyPaste != 7 {
		t.Fatalf("empty variable should not override file value")
	}
	if *cfg.UI.ClipboardPollMs != 100 || *cfg.Log.File != "/tmp/bguard.log" {
		t.Fatalf("unexpected ui/log overrides")
	}
}

func TestApplyEnvRejectsMalformedValue(t *testing.T) {
	lookup := func(key string) (string, bool) {
		if key == "BGUARD_PENALTY_TAB_SWITCH" {
			return "lots", true
		}
		return "", false
	}
	err := ApplyEnv(&FileConfig{}, lookup)
	if err == nil || !strings.Contains(err.Error(), "BGUARD_PENALTY_TAB_SWITCH") {
		t.Fatalf("expected error naming variable, got %v", err)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("BGUARD_TEST_DOTENV_MARKER=loaded\n"), 0o644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	t.Cleanup(func() {
		_ = os.Unsetenv("BGUARD_TEST_DOTENV_MARKER")
	})
	loaded, err := LoadDotEnv(filepath.Join(dir, "missing.env"), path)
	if err != nil {
		t.Fatalf("load dotenv: %v", err)
	}
	if loaded != path {
		t.Fatalf("expected %s, got %q", path, loaded)
	}
	if got := os.Getenv("BGUARD_TEST_DOTENV_MARKER"); got != "loaded" {
		t.Fatalf("expected marker in env, got %q", got)
	}
}

func TestLoadDotEnvNoFiles(t *testing.T) {
	loaded, err := LoadDotEnv(filepath.Join(t.TempDir(), ".env"))
	if err != nil || loaded != "" {
		t.Fatalf("expected no file loaded, got %q %v", loaded, err)
	}
}

func TestDefaultConfigPathUsesXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/xdg")
	if got := DefaultConfigPath(); got != filepath.Join("/tmp/xdg", "bguard", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
}

func TestGuardConfigMerge(t *testing.T) {
	off := false
	base := GuardConfig{TrackCopyPaste: &off, IdleTimeoutMs: intValue(5000)}
	over := GuardConfig{IdleTimeoutMs: intValue(1000), PenaltyIdle: intValue(3)}

	merged := base.Merge(over)
	if merged.TrackCopyPaste == nil || *merged.TrackCopyPaste {
		t.Fatalf("unset override must keep the base value")
	}
	if *merged.IdleTimeoutMs != 1000 || *merged.PenaltyIdle != 3 {
		t.Fatalf("overrides not applied: %+v", merged)
	}
	if *base.IdleTimeoutMs != 5000 {
		t.Fatalf("merge modified the base")
	}
}

func intValue(v int) *int {
	return &v
}

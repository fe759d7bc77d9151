package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BGUARD_"

// LookupFunc resolves an environment variable.
type LookupFunc func(key string) (string, bool)

// LoadDotEnv loads the first existing file among paths into the process
// environment without overriding variables that are already set. It returns
// the loaded path, or "" when none exists.
func LoadDotEnv(paths ...string) (string, error) {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if err := godotenv.Load(path); err != nil {
			return "", fmt.Errorf("failed to load %s: %w", path, err)
		}
		return path, nil
	}
	return "", nil
}

// ApplyEnv overlays BGUARD_* variables onto cfg. A variable that is set but
// malformed is an error naming it.
func ApplyEnv(cfg *FileConfig, lookup LookupFunc) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	g := &cfg.Guard
	bools := []struct {
		key    string
		target **bool
	}{
		{"TRACK_TAB_SWITCH", &g.TrackTabSwitch},
		{"TRACK_MOUSE_ACTIVITY", &g.TrackMouseActivity},
		{"TRACK_COPY_PASTE", &g.TrackCopyPaste},
		{"TRACK_RAPID_CLICK", &g.TrackRapidClick},
		{"TRACK_IDLE_TIME", &g.TrackIdleTime},
		{"IDLE_REPEAT", &g.IdleRepeat},
	}
	for _, b := range bools {
		raw, ok := lookupTrimmed(lookup, b.key)
		if !ok {
			continue
		}
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, b.key, err)
		}
		*b.target = &v
	}

	ints := []struct {
		key    string
		target **int
	}{
		{"IDLE_TIMEOUT_MS", &g.IdleTimeoutMs},
		{"PENALTY_TAB_SWITCH", &g.PenaltyTabSwitch},
		{"PENALTY_WINDOW_BLUR", &g.PenaltyWindowBlur},
		{"PENALTY_COPY_PASTE", &g.PenaltyCopyPaste},
		{"PENALTY_RAPID_CLICK", &g.PenaltyRapidClick},
		{"PENALTY_IDLE", &g.PenaltyIdle},
		{"PENALTY_MOUSE_LEAVE", &g.PenaltyMouseLeave},
		{"CLIPBOARD_POLL_MS", &cfg.UI.ClipboardPollMs},
	}
	for _, i := range ints {
		raw, ok := lookupTrimmed(lookup, i.key)
		if !ok {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, i.key, err)
		}
		*i.target = &v
	}

	strs := []struct {
		key    string
		target **string
	}{
		{"REPORT", &cfg.UI.Report},
		{"QUESTION", &cfg.UI.Question},
		{"LOG_LEVEL", &cfg.Log.Level},
		{"LOG_FORMAT", &cfg.Log.Format},
		{"LOG_FILE", &cfg.Log.File},
	}
	for _, s := range strs {
		raw, ok := lookupTrimmed(lookup, s.key)
		if !ok {
			continue
		}
		v := raw
		*s.target = &v
	}
	return nil
}

func lookupTrimmed(lookup LookupFunc, key string) (string, bool) {
	raw, ok := lookup(EnvPrefix + key)
	if !ok {
		return "", false
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false
	}
	return raw, true
}

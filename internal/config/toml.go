// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/verte-zerg/bguard/internal/guard"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Guard GuardConfig `toml:"guard"`
	UI    UIConfig    `toml:"ui"`
	Log   LogConfig   `toml:"log"`
}

// GuardConfig maps the tracking options. Nil means unset.
type GuardConfig struct {
	TrackTabSwitch     *bool `toml:"track-tab-switch" yaml:"track-tab-switch"`
	TrackMouseActivity *bool `toml:"track-mouse-activity" yaml:"track-mouse-activity"`
	TrackCopyPaste     *bool `toml:"track-copy-paste" yaml:"track-copy-paste"`
	TrackRapidClick    *bool `toml:"track-rapid-click" yaml:"track-rapid-click"`
	TrackIdleTime      *bool `toml:"track-idle-time" yaml:"track-idle-time"`
	IdleTimeoutMs      *int  `toml:"idle-timeout-ms" yaml:"idle-timeout-ms"`
	IdleRepeat         *bool `toml:"idle-repeat" yaml:"idle-repeat"`
	PenaltyTabSwitch   *int  `toml:"penalty-tab-switch" yaml:"penalty-tab-switch"`
	PenaltyWindowBlur  *int  `toml:"penalty-window-blur" yaml:"penalty-window-blur"`
	PenaltyCopyPaste   *int  `toml:"penalty-copy-paste" yaml:"penalty-copy-paste"`
	PenaltyRapidClick  *int  `toml:"penalty-rapid-click" yaml:"penalty-rapid-click"`
	PenaltyIdle        *int  `toml:"penalty-idle" yaml:"penalty-idle"`
	PenaltyMouseLeave  *int  `toml:"penalty-mouse-leave" yaml:"penalty-mouse-leave"`
}

// UIConfig maps terminal dashboard settings.
type UIConfig struct {
	ClipboardPollMs *int    `toml:"clipboard-poll-ms"`
	Report          *string `toml:"report"`
	Question        *string `toml:"question"`
}

// LogConfig maps logger settings.
type LogConfig struct {
	Level  *string `toml:"level"`
	Format *string `toml:"format"`
	File   *string `toml:"file"`
}

// Options converts the guard section into activation options.
func (g GuardConfig) Options() guard.Options {
	return guard.Options{
		TrackTabSwitch:     g.TrackTabSwitch,
		TrackMouseActivity: g.TrackMouseActivity,
		TrackCopyPaste:     g.TrackCopyPaste,
		TrackRapidClick:    g.TrackRapidClick,
		TrackIdleTime:      g.TrackIdleTime,
		IdleTimeoutMs:      g.IdleTimeoutMs,
		IdleRepeat:         g.IdleRepeat,
		PenaltyTabSwitch:   g.PenaltyTabSwitch,
		PenaltyWindowBlur:  g.PenaltyWindowBlur,
		PenaltyCopyPaste:   g.PenaltyCopyPaste,
		PenaltyRapidClick:  g.PenaltyRapidClick,
		PenaltyIdle:        g.PenaltyIdle,
		PenaltyMouseLeave:  g.PenaltyMouseLeave,
	}
}

// Merge returns g with every option set in over replacing its value.
func (g GuardConfig) Merge(over GuardConfig) GuardConfig {
	merged := g
	mergeBool(&merged.TrackTabSwitch, over.TrackTabSwitch)
	mergeBool(&merged.TrackMouseActivity, over.TrackMouseActivity)
	mergeBool(&merged.TrackCopyPaste, over.TrackCopyPaste)
	mergeBool(&merged.TrackRapidClick, over.TrackRapidClick)
	mergeBool(&merged.TrackIdleTime, over.TrackIdleTime)
	mergeBool(&merged.IdleRepeat, over.IdleRepeat)
	mergeInt(&merged.IdleTimeoutMs, over.IdleTimeoutMs)
	mergeInt(&merged.PenaltyTabSwitch, over.PenaltyTabSwitch)
	mergeInt(&merged.PenaltyWindowBlur, over.PenaltyWindowBlur)
	mergeInt(&merged.PenaltyCopyPaste, over.PenaltyCopyPaste)
	mergeInt(&merged.PenaltyRapidClick, over.PenaltyRapidClick)
	mergeInt(&merged.PenaltyIdle, over.PenaltyIdle)
	mergeInt(&merged.PenaltyMouseLeave, over.PenaltyMouseLeave)
	return merged
}

func mergeBool(target **bool, value *bool) {
	if value != nil {
		*target = value
	}
}

func mergeInt(target **int, value *int) {
	if value != nil {
		*target = value
	}
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

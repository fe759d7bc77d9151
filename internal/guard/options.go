package guard

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/verte-zerg/bguard/internal/model"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid guard configuration")

// Default option values.
const (
	DefaultIdleTimeoutMs     = 30000
	DefaultPenaltyTabSwitch  = 15
	DefaultPenaltyWindowBlur = 10
	DefaultPenaltyCopyPaste  = 20
	DefaultPenaltyRapidClick = 5
	DefaultPenaltyIdle       = 10
	DefaultPenaltyMouseLeave = 0
)

// MaxIdleTimeoutMs is the largest idle timeout representable as a time.Duration.
const MaxIdleTimeoutMs = math.MaxInt64 / int64(time.Millisecond)

// Options holds the activation options. Nil fields take their default.
type Options struct {
	TrackTabSwitch     *bool
	TrackMouseActivity *bool
	TrackCopyPaste     *bool
	TrackRapidClick    *bool
	TrackIdleTime      *bool

	IdleTimeoutMs *int
	// IdleRepeat makes the idle timer rearm itself after firing.
	IdleRepeat *bool

	PenaltyTabSwitch  *int
	PenaltyWindowBlur *int
	PenaltyCopyPaste  *int
	PenaltyRapidClick *int
	PenaltyIdle       *int
	PenaltyMouseLeave *int
}

// DefaultConfig returns the configuration used for an empty Options.
func DefaultConfig() model.Config {
	return model.Config{
		TrackTabSwitch:     true,
		TrackMouseActivity: true,
		TrackCopyPaste:     true,
		TrackRapidClick:    true,
		TrackIdleTime:      true,
		IdleTimeoutMs:      DefaultIdleTimeoutMs,
		IdleRepeat:         true,
		PenaltyTabSwitch:   DefaultPenaltyTabSwitch,
		PenaltyWindowBlur:  DefaultPenaltyWindowBlur,
		PenaltyCopyPaste:   DefaultPenaltyCopyPaste,
		PenaltyRapidClick:  DefaultPenaltyRapidClick,
		PenaltyIdle:        DefaultPenaltyIdle,
		PenaltyMouseLeave:  DefaultPenaltyMouseLeave,
	}
}

// Resolve overlays the set options on DefaultConfig and validates the result.
func (o Options) Resolve() (model.Config, error) {
	cfg := DefaultConfig()
	applyBool(&cfg.TrackTabSwitch, o.TrackTabSwitch)
	applyBool(&cfg.TrackMouseActivity, o.TrackMouseActivity)
	applyBool(&cfg.TrackCopyPaste, o.TrackCopyPaste)
	applyBool(&cfg.TrackRapidClick, o.TrackRapidClick)
	applyBool(&cfg.TrackIdleTime, o.TrackIdleTime)
	applyBool(&cfg.IdleRepeat, o.IdleRepeat)
	applyInt(&cfg.IdleTimeoutMs, o.IdleTimeoutMs)
	applyInt(&cfg.PenaltyTabSwitch, o.PenaltyTabSwitch)
	applyInt(&cfg.PenaltyWindowBlur, o.PenaltyWindowBlur)
	applyInt(&cfg.PenaltyCopyPaste, o.PenaltyCopyPaste)
	applyInt(&cfg.PenaltyRapidClick, o.PenaltyRapidClick)
	applyInt(&cfg.PenaltyIdle, o.PenaltyIdle)
	applyInt(&cfg.PenaltyMouseLeave, o.PenaltyMouseLeave)
	if err := Validate(cfg); err != nil {
		return model.Config{}, err
	}
	return cfg, nil
}

// Validate checks the constraints on a resolved configuration.
func Validate(cfg model.Config) error {
	if cfg.IdleTimeoutMs <= 0 {
		return fmt.Errorf("%w: idleTimeoutMs must be > 0, got %d", ErrInvalidConfig, cfg.IdleTimeoutMs)
	}
	if int64(cfg.IdleTimeoutMs) > MaxIdleTimeoutMs {
		return fmt.Errorf("%w: idleTimeoutMs must be <= %d, got %d", ErrInvalidConfig, MaxIdleTimeoutMs, cfg.IdleTimeoutMs)
	}
	penalties := []struct {
		name  string
		value int
	}{
		{"penaltyTabSwitch", cfg.PenaltyTabSwitch},
		{"penaltyWindowBlur", cfg.PenaltyWindowBlur},
		{"penaltyCopyPaste", cfg.PenaltyCopyPaste},
		{"penaltyRapidClick", cfg.PenaltyRapidClick},
		{"penaltyIdle", cfg.PenaltyIdle},
		{"penaltyMouseLeave", cfg.PenaltyMouseLeave},
	}
	for _, p := range penalties {
		if p.value < 0 {
			return fmt.Errorf("%w: %s must be >= 0, got %d", ErrInvalidConfig, p.name, p.value)
		}
	}
	return nil
}

func applyBool(target *bool, value *bool) {
	if value == nil {
		return
	}
	*target = *value
}

func applyInt(target *int, value *int) {
	if value == nil {
		return
	}
	*target = *value
}

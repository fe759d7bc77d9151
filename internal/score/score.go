// Package score maps incident penalties onto a bounded risk score.
package score

// Max is the saturation point of the risk score.
const Max = 100

// Risk level thresholds.
const (
	suspiciousFrom = 30
	highRiskFrom   = 70
)

// Level classifies a risk score for presentation.
type Level string

// Risk levels, lowest first.
const (
	LevelNormal     Level = "normal"
	LevelSuspicious Level = "suspicious"
	LevelHighRisk   Level = "high risk"
)

// Calculate adds penalty to current and saturates at Max.
// Penalties must be non-negative; the result is kept within [0, Max].
func Calculate(current, penalty int) int {
	current = clamp(current)
	if penalty >= Max-current {
		return Max
	}
	// current is within [0, Max], so the sum cannot overflow here.
	return clamp(current + penalty)
}

func clamp(v int) int {
	if v > Max {
		return Max
	}
	if v < 0 {
		return 0
	}
	return v
}

// LevelFor bands a score into a Level.
func LevelFor(score int) Level {
	switch {
	case score >= highRiskFrom:
		return LevelHighRisk
	case score >= suspiciousFrom:
		return LevelSuspicious
	default:
		return LevelNormal
	}
}

package appeal

// Gap-percent thresholds separating the strength tiers.
const (
	strongGapPercent = 15.0
	mediumGapPercent = 5.0
)

// Score classifies how large the assessed-vs-reference gap is. Pure and
// total over positive inputs; callers must validate positivity upstream.
// A reference at or above the assessed value scores weak.
func Score(assessedValue, referenceValue float64) Strength {
	gapPercent := (assessedValue - referenceValue) / assessedValue * 100
	switch {
	case gapPercent >= strongGapPercent:
		return StrengthStrong
	case gapPercent >= mediumGapPercent:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}

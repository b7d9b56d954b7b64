package plants

// Moisture thresholds in percent. Each band is lower-bound inclusive.
const (
	DryThreshold     = 30.0
	HealthyThreshold = 60.0
)

// Display labels returned by Classify, one per moisture band.
const (
	LabelNeedsWater  = "Needs water!"
	LabelModerate    = "Moderate"
	LabelWellWatered = "Well watered"
)

// NeedsWater reports whether moisture falls below the dry threshold.
func NeedsWater(moisture float64) bool {
	return moisture < DryThreshold
}

// IsHealthy reports whether moisture is at or above the healthy threshold.
func IsHealthy(moisture float64) bool {
	return moisture >= HealthyThreshold
}

// Classify maps a moisture percentage to exactly one status.
// NaN compares false against both thresholds and lands in the Moderate band.
func Classify(moisture float64) Status {
	switch {
	case NeedsWater(moisture):
		return Status{Label: LabelNeedsWater, Severity: SeverityError}
	case IsHealthy(moisture):
		return Status{Label: LabelWellWatered, Severity: SeveritySuccess}
	default:
		return Status{Label: LabelModerate, Severity: SeverityWarning}
	}
}

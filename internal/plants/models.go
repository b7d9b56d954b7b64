package plants

// Severity is the three-tier moisture status used for presentation.
type Severity string

// Severities, from worst to best.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeveritySuccess Severity = "success"
)

// SensorReading is one raw sample as served by the backend.
// Moisture is nominally a percentage in [0, 100] but is not clamped.
type SensorReading struct {
	PlantID   int     `json:"plantId"`
	Moisture  float64 `json:"moisture"`
	Timestamp string  `json:"timestamp"`

	// Optional fields emitted by the reference backend.
	RawValue        *int   `json:"rawValue,omitempty"`
	ServerTimestamp string `json:"serverTimestamp,omitempty"`
}

// SampledAt returns the timestamp string the reading should be rendered from.
// The backend stamps serverTimestamp; older payloads only carry timestamp.
func (r SensorReading) SampledAt() string {
	if r.Timestamp != "" {
		return r.Timestamp
	}
	return r.ServerTimestamp
}

// DisplayReading is a SensorReading enriched with the display fields
// computed once at normalization time. Values are never mutated after
// the Normalizer returns them.
type DisplayReading struct {
	PlantID       int     `json:"plantId"`
	Moisture      float64 `json:"moisture"`
	Timestamp     string  `json:"timestamp"`
	RawValue      *int    `json:"rawValue,omitempty"`
	FormattedTime string  `json:"formattedTime"`
	FormattedDate string  `json:"formattedDate"`
}

// Status is the classification of a single moisture value.
type Status struct {
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// Metrics summarises a snapshot. NeedsWater+Healthy never exceeds Total;
// the remainder is implicitly Moderate.
type Metrics struct {
	Average    float64 `json:"average"`
	NeedsWater int     `json:"needsWater"`
	Healthy    int     `json:"healthy"`
	Total      int     `json:"total"`
}

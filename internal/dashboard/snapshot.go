package dashboard

import (
	"slices"
	"time"

	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

// Snapshot is the controller-owned dashboard state. Readings is replaced
// wholesale on each successful refresh and never mutated in place.
type Snapshot struct {
	Readings    []plants.DisplayReading
	LastUpdated time.Time
	Loading     bool
	LastError   error
}

// View is the read-only projection handed to presentation. Its Readings
// slice is a copy, so writes to it never reach the controller.
// LastUpdated is nil until the first successful refresh.
type View struct {
	Readings    []plants.DisplayReading `json:"readings"`
	LastUpdated *time.Time              `json:"lastUpdated"`
	Loading     bool                    `json:"loading"`
	LastError   string                  `json:"lastError,omitempty"`
}

// Metrics derives the aggregate from the view's readings on every call.
func (v View) Metrics() plants.Metrics {
	return plants.Aggregate(v.Readings)
}

func (s Snapshot) view() View {
	v := View{
		Readings: slices.Clone(s.Readings),
		Loading:  s.Loading,
	}
	if !s.LastUpdated.IsZero() {
		t := s.LastUpdated
		v.LastUpdated = &t
	}
	if s.LastError != nil {
		v.LastError = s.LastError.Error()
	}
	return v
}

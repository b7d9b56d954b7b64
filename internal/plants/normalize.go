package plants

import (
	"sort"

	"github.com/rs/zerolog"
)

// Normalizer turns an unordered batch of raw readings into an ordered,
// display-ready snapshot.
type Normalizer struct {
	format *Formatter
	logger zerolog.Logger
}

// NewNormalizer creates a Normalizer rendering timestamps with f.
func NewNormalizer(f *Formatter, logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		format: f,
		logger: logger.With().Str("component", "normalizer").Logger(),
	}
}

// Normalize returns a new slice sorted ascending by plant id. The input is
// left untouched. If the batch repeats a plant id the last occurrence wins
// and the duplicate is logged. Readings with unparseable timestamps are kept
// with UnknownTimestamp display fields.
func (n *Normalizer) Normalize(raw []SensorReading) []DisplayReading {
	sorted := make([]SensorReading, len(raw))
	copy(sorted, raw)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].PlantID < sorted[j].PlantID
	})

	out := make([]DisplayReading, 0, len(sorted))
	for i, r := range sorted {
		if i+1 < len(sorted) && sorted[i+1].PlantID == r.PlantID {
			n.logger.Warn().
				Int("plant_id", r.PlantID).
				Float64("dropped_moisture", r.Moisture).
				Msg("duplicate plant id in batch; keeping last reading")
			continue
		}

		ts := r.SampledAt()
		formattedTime, formattedDate, ok := n.format.Format(ts)
		if !ok {
			n.logger.Warn().
				Int("plant_id", r.PlantID).
				Str("timestamp", ts).
				Msg("unparseable timestamp")
		}

		out = append(out, DisplayReading{
			PlantID:       r.PlantID,
			Moisture:      r.Moisture,
			Timestamp:     ts,
			RawValue:      copyInt(r.RawValue),
			FormattedTime: formattedTime,
			FormattedDate: formattedDate,
		})
	}

	return out
}

// Reading converts a DisplayReading back to its raw form.
func (d DisplayReading) Reading() SensorReading {
	return SensorReading{
		PlantID:   d.PlantID,
		Moisture:  d.Moisture,
		Timestamp: d.Timestamp,
		RawValue:  copyInt(d.RawValue),
	}
}

func copyInt(v *int) *int {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

package plants

// Aggregate reduces a snapshot to summary statistics.
// It is recomputed from scratch on every call; the empty snapshot yields
// the zero Metrics (average 0, not NaN).
func Aggregate(readings []DisplayReading) Metrics {
	if len(readings) == 0 {
		return Metrics{}
	}

	var (
		sum        float64
		needsWater int
		healthy    int
	)

	for _, r := range readings {
		sum += r.Moisture

		if NeedsWater(r.Moisture) {
			needsWater++
		}
		if IsHealthy(r.Moisture) {
			healthy++
		}
	}

	return Metrics{
		Average:    sum / float64(len(readings)),
		NeedsWater: needsWater,
		Healthy:    healthy,
		Total:      len(readings),
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

// Namespace prefixes every collector.
const Namespace = "plant_dashboard"

// Poll results.
const (
	ResultSuccess   = "success"
	ResultError     = "error"
	ResultStale     = "stale"
	ResultCoalesced = "coalesced"
)

var (
	PollsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name:      "polls_total",
		Namespace: Namespace,
		Help:      "The total number of refresh attempts by result.",
	}, []string{"result"})

	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:      "poll_duration_seconds",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
		Help:      "The latency of the readings retrieval call in seconds.",
	})

	MoistureAverage = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "moisture_average_percent",
		Namespace: Namespace,
		Help:      "Mean moisture across the current snapshot.",
	})

	PlantsNeedingWater = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "plants_needing_water",
		Namespace: Namespace,
		Help:      "Plants below the dry threshold in the current snapshot.",
	})

	PlantsHealthy = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "plants_healthy",
		Namespace: Namespace,
		Help:      "Plants at or above the healthy threshold in the current snapshot.",
	})

	PlantsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name:      "plants_total",
		Namespace: Namespace,
		Help:      "Plants in the current snapshot.",
	})

	ReadingsIngestedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name:      "readings_ingested_total",
		Namespace: Namespace,
		Help:      "The total number of sensor readings accepted by the backend.",
	})
)

// RecordPoll counts one refresh attempt and, for completed fetches, its latency.
func RecordPoll(result string, started time.Time) {
	PollsTotal.WithLabelValues(result).Inc()
	if result == ResultSuccess || result == ResultError {
		PollDurationSeconds.Observe(time.Since(started).Seconds())
	}
}

// SetSnapshot publishes the aggregate of the current snapshot.
func SetSnapshot(m plants.Metrics) {
	MoistureAverage.Set(m.Average)
	PlantsNeedingWater.Set(float64(m.NeedsWater))
	PlantsHealthy.Set(float64(m.Healthy))
	PlantsTotal.Set(float64(m.Total))
}

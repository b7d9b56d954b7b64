package plants

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Metrics{}, Aggregate(nil))
	assert.Equal(t, Metrics{}, Aggregate([]DisplayReading{}))
}

func TestAggregateScenario(t *testing.T) {
	readings := []DisplayReading{
		{PlantID: 1, Moisture: 25},
		{PlantID: 2, Moisture: 75},
	}

	got := Aggregate(readings)
	assert.Equal(t, Metrics{Average: 50, NeedsWater: 1, Healthy: 1, Total: 2}, got)
}

func TestAggregateBoundaryCounts(t *testing.T) {
	readings := []DisplayReading{
		{PlantID: 1, Moisture: 30},
		{PlantID: 2, Moisture: 60},
		{PlantID: 3, Moisture: 29.99},
		{PlantID: 4, Moisture: 59.99},
	}

	got := Aggregate(readings)
	assert.Equal(t, 1, got.NeedsWater)
	assert.Equal(t, 1, got.Healthy)
	assert.InDelta(t, 44.995, got.Average, 1e-9)
}

func TestAggregateInvariantsRandom(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 200; round++ {
		n := rng.Intn(40) + 1
		readings := make([]DisplayReading, n)
		var sum float64
		var dry, wet int
		for i := range readings {
			m := rng.Float64()*140 - 20
			readings[i] = DisplayReading{PlantID: i, Moisture: m}
			sum += m
			if m < 30 {
				dry++
			}
			if m >= 60 {
				wet++
			}
		}

		got := Aggregate(readings)
		require.InDelta(t, sum/float64(n), got.Average, 1e-9)
		require.Equal(t, dry, got.NeedsWater)
		require.Equal(t, wet, got.Healthy)
		require.LessOrEqual(t, got.NeedsWater+got.Healthy, got.Total)
		require.Equal(t, n, got.Total)
	}
}

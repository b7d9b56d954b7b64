package plants

import (
	"context"
)

// Source abstracts the backend endpoint serving the current readings.
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]SensorReading, error)
}

// Store is the contract the backend's reading store must satisfy.
// It keeps only the latest reading per plant.
type Store interface {
	Save(reading SensorReading)
	Latest() []SensorReading
}

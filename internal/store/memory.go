package store

import (
	"sort"
	"sync"

	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

var _ plants.Store = (*MemoryStore)(nil)

// MemoryStore is a concurrency-safe in-memory store holding the latest
// reading per plant. A later Save for the same plant replaces the earlier one.
type MemoryStore struct {
	mu sync.RWMutex

	// key: plant id
	data map[int]plants.SensorReading
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[int]plants.SensorReading),
	}
}

// Save records reading as the latest for its plant.
func (s *MemoryStore) Save(reading plants.SensorReading) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[reading.PlantID] = reading
}

// Latest returns the latest reading of every plant, ordered by plant id.
// The result is never nil.
func (s *MemoryStore) Latest() []plants.SensorReading {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]plants.SensorReading, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PlantID < result[j].PlantID
	})

	return result
}

// Len returns the number of plants with a reading.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

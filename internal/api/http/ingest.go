package httpapi

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/i474232898/plant-moisture-dashboard/internal/metrics"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

const greeting = "Hello from Raspberry Pi!"

// ingestRequest is the body posted by a sensor node.
type ingestRequest struct {
	PlantID  *int     `json:"plantId" validate:"required"`
	Moisture *float64 `json:"moisture" validate:"required"`
	RawValue *int     `json:"rawValue"`
}

// RegisterBackendRoutes wires the sensor ingest and readings endpoints
// polled by the dashboard.
func RegisterBackendRoutes(app *fiber.App, store plants.Store, log zerolog.Logger, now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	log = log.With().Str("component", "ingest").Logger()

	hello := func(c *fiber.Ctx) error {
		return c.SendString(greeting)
	}
	app.Get("/", hello)
	app.Get("/hello", hello)

	app.Post("/api/soil-moisture-reading", func(c *fiber.Ctx) error {
		var req ingestRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			log.Warn().Err(err).Msg("error parsing reading JSON")
			return fiber.NewError(fiber.StatusBadRequest, "Invalid JSON format")
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		stamp := now().UTC().Format(time.RFC3339Nano)
		reading := plants.SensorReading{
			PlantID:         *req.PlantID,
			Moisture:        *req.Moisture,
			RawValue:        req.RawValue,
			Timestamp:       stamp,
			ServerTimestamp: stamp,
		}
		store.Save(reading)
		metrics.ReadingsIngestedTotal.Inc()

		ev := log.Info().Int("plant_id", reading.PlantID).Float64("moisture", reading.Moisture)
		if reading.RawValue != nil {
			ev = ev.Int("raw", *reading.RawValue)
		}
		ev.Msg("received moisture reading")

		return c.SendStatus(fiber.StatusCreated)
	})
	app.All("/api/soil-moisture-reading", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusMethodNotAllowed, "Method not allowed")
	})

	app.Get("/api/readings", func(c *fiber.Ctx) error {
		return c.JSON(store.Latest())
	})
}

package httpapi

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/plant-moisture-dashboard/internal/dashboard"
	"github.com/i474232898/plant-moisture-dashboard/internal/plants"
)

var validate = validator.New()

// Dashboard is the controller surface the viewer API needs.
type Dashboard interface {
	View() dashboard.View
	RefreshNow(ctx context.Context) (dashboard.View, error)
}

// RegisterDashboardRoutes wires the read-only dashboard view and the manual
// refresh trigger into the Fiber app.
func RegisterDashboardRoutes(app *fiber.App, d Dashboard) {
	v1 := app.Group("/api/v1")

	v1.Get("/dashboard", func(c *fiber.Ctx) error {
		return c.JSON(newDashboardResponse(d.View()))
	})

	v1.Get("/readings", func(c *fiber.Ctx) error {
		return c.JSON(d.View().Readings)
	})

	v1.Post("/refresh", func(c *fiber.Ctx) error {
		view, err := d.RefreshNow(c.UserContext())
		resp := newDashboardResponse(view)

		switch {
		case err == nil:
			return c.JSON(resp)
		case errors.Is(err, dashboard.ErrRefreshInFlight):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{
				"error":     true,
				"message":   "refresh already in progress",
				"dashboard": resp,
			})
		case errors.Is(err, dashboard.ErrClosed):
			return fiber.NewError(fiber.StatusServiceUnavailable, "dashboard is shutting down")
		default:
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error":     true,
				"message":   "failed to refresh readings",
				"dashboard": resp,
			})
		}
	})

	v1.Get("/status", func(c *fiber.Ctx) error {
		q, err := parseStatusQuery(c)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return c.JSON(plants.Classify(q))
	})
}

// readingResponse is a display reading with its classification attached.
type readingResponse struct {
	plants.DisplayReading
	Status plants.Status `json:"status"`
}

type dashboardResponse struct {
	Readings    []readingResponse `json:"readings"`
	LastUpdated *time.Time        `json:"lastUpdated"`
	Loading     bool              `json:"loading"`
	LastError   string            `json:"lastError,omitempty"`
	Metrics     plants.Metrics    `json:"metrics"`
}

func newDashboardResponse(v dashboard.View) dashboardResponse {
	readings := make([]readingResponse, 0, len(v.Readings))
	for _, r := range v.Readings {
		readings = append(readings, readingResponse{
			DisplayReading: r,
			Status:         plants.Classify(r.Moisture),
		})
	}

	return dashboardResponse{
		Readings:    readings,
		LastUpdated: v.LastUpdated,
		Loading:     v.Loading,
		LastError:   v.LastError,
		Metrics:     v.Metrics(),
	}
}

// statusQuery holds query parameters for the classification endpoint.
type statusQuery struct {
	Moisture string `validate:"required,numeric"`
}

func parseStatusQuery(c *fiber.Ctx) (float64, error) {
	q := statusQuery{Moisture: c.Query("moisture")}
	if err := validate.Struct(q); err != nil {
		return 0, err
	}
	return strconv.ParseFloat(q.Moisture, 64)
}

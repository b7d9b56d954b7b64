package dashboard

import (
	"github.com/i474232898/plant-moisture-dashboard/internal/metrics"
)

// ExportMetrics keeps the snapshot gauges in step with the controller until
// the returned stop func is called or the controller is torn down.
func ExportMetrics(c *Controller) (stop func()) {
	views, cancel := c.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for v := range views {
			metrics.SetSnapshot(v.Metrics())
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

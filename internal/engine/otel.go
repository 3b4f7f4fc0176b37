package engine

import (
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/nizalia829/roller-coaster-builder/internal/engine"

type metrics struct {
	rebuilds metric.Int64Counter
	rides    metric.Int64Counter
	ticks    metric.Int64Counter
	laps     metric.Int64Counter
}

// newMetrics uses the global meter provider, which is a no-op until one is
// installed.
func newMetrics() (*metrics, error) {
	m := otel.Meter(instrumentationName)
	var (
		out metrics
		err error
	)

	out.rebuilds, err = m.Int64Counter(
		"coaster.track.rebuilds",
		metric.WithDescription("Track rebuilds triggered by path edits"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating rebuild counter: %w", err)
	}

	out.rides, err = m.Int64Counter(
		"coaster.rides.started",
		metric.WithDescription("Rides started"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ride counter: %w", err)
	}

	out.ticks, err = m.Int64Counter(
		"coaster.ride.ticks",
		metric.WithDescription("Simulation ticks advanced"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tick counter: %w", err)
	}

	out.laps, err = m.Int64Counter(
		"coaster.ride.laps",
		metric.WithDescription("Laps completed on closed tracks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating lap counter: %w", err)
	}

	return &out, nil
}

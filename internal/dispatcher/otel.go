package dispatcher

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/nizalia829/roller-coaster-builder/internal/dispatcher"

type instruments struct {
	depth   metric.Int64ObservableGauge
	handled metric.Int64Counter
	dropped metric.Int64Counter
	latency metric.Float64Histogram
}

func newInstruments(d *Dispatcher) (instruments, error) {
	m := otel.Meter(instrumentationName)
	var (
		in  instruments
		err error
	)

	if in.depth, err = m.Int64ObservableGauge("dispatcher.queue.depth",
		metric.WithDescription("Events waiting in a buffered handler's queue"),
	); err != nil {
		return in, fmt.Errorf("creating queue depth gauge: %w", err)
	}
	if _, err = m.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		d.mu.RLock()
		defer d.mu.RUnlock()
		for cmd, r := range d.routes {
			if r.queue != nil {
				o.ObserveInt64(in.depth, int64(len(r.queue)),
					metric.WithAttributes(attribute.String("command", cmd)))
			}
		}
		return nil
	}, in.depth); err != nil {
		return in, fmt.Errorf("registering queue depth callback: %w", err)
	}

	if in.handled, err = m.Int64Counter("dispatcher.events.handled",
		metric.WithDescription("Events run by a handler"),
	); err != nil {
		return in, fmt.Errorf("creating handled counter: %w", err)
	}
	if in.dropped, err = m.Int64Counter("dispatcher.events.dropped",
		metric.WithDescription("Events rejected by a full queue"),
	); err != nil {
		return in, fmt.Errorf("creating dropped counter: %w", err)
	}
	if in.latency, err = m.Float64Histogram("dispatcher.handler.duration",
		metric.WithDescription("Handler run time"),
		metric.WithUnit("ms"),
	); err != nil {
		return in, fmt.Errorf("creating duration histogram: %w", err)
	}
	return in, nil
}

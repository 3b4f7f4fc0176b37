// Package dispatcher routes textual commands from the editor host (or a
// replayed track file) and in-process events such as ride telemetry to
// their handlers.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Queued is the result of an event accepted by a buffered handler.
const Queued = "queued"

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrClosed         = errors.New("dispatcher closed")
	ErrQueueFull      = errors.New("queue full")
)

// Event is a command from the host editor, a replayed track file or the
// engine itself. Args carry textual parameters; Payload carries typed data
// for in-process events such as telemetry.
type Event struct {
	Command   string
	Args      []string
	Payload   any
	Timestamp time.Time // set by Dispatch when zero
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*options)

type options struct {
	bufferSize int
	blocking   bool
	logged     bool
}

// Buffered runs the handler on its own goroutine behind a queue of the given
// size. Dispatch returns Queued once the event is accepted.
func Buffered(size int) Option {
	return func(o *options) { o.bufferSize = size }
}

// Blocking makes a buffered handler wait for queue space instead of
// dropping the event.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged adds debug logging around each call.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

type route struct {
	handle HandlerFunc
	queue  chan Event // nil for synchronous handlers
}

// Dispatcher routes events to registered handlers. All methods are safe for
// concurrent use.
type Dispatcher struct {
	logger  Logger
	metrics instruments

	mu      sync.RWMutex
	routes  map[string]*route
	closed  bool
	workers sync.WaitGroup
}

// New creates a Dispatcher. Metrics go to the global OTel meter, which is a
// no-op until a provider is installed.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger: logger,
		routes: make(map[string]*route),
	}
	m, err := newInstruments(d)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

// Register installs h for command, replacing any previous handler.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	r := &route{handle: d.measured(command, h)}
	d.mu.Lock()
	if o.bufferSize > 0 {
		r.queue = make(chan Event, o.bufferSize)
		d.startWorker(command, r.queue, r.handle)
		if d.closed {
			close(r.queue)
		}
		r.handle = d.enqueue(command, r.queue, o.blocking)
	}
	if o.logged {
		r.handle = d.logged(command, r.handle)
	}
	d.routes[command] = r
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	r, ok := d.routes[e.Command]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, e.Command)
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	return r.handle(e)
}

// HasHandler returns true if a handler is registered for the command.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.routes[command]
	return ok
}

// Pending returns the number of queued events for a buffered command.
func (d *Dispatcher) Pending(command string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if r, ok := d.routes[command]; ok && r.queue != nil {
		return len(r.queue)
	}
	return 0
}

// Close stops accepting buffered events and waits until every queued event
// has been handled. Synchronous handlers keep working. Close is idempotent.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, r := range d.routes {
		if r.queue != nil {
			close(r.queue)
		}
	}
	d.mu.Unlock()
	d.workers.Wait()
}

// startWorker must be called with d.mu held.
func (d *Dispatcher) startWorker(command string, queue <-chan Event, h HandlerFunc) {
	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range queue {
			if _, err := h(e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "error", err)
			}
		}
	}()
}

func (d *Dispatcher) enqueue(command string, queue chan<- Event, blocking bool) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, fmt.Errorf("%w: %s", ErrClosed, command)
		}
		if blocking {
			queue <- e
			return Queued, nil
		}
		select {
		case queue <- e:
			return Queued, nil
		default:
			d.metrics.dropped.Add(context.Background(), 1, cmdAttr)
			return nil, fmt.Errorf("%w: %s", ErrQueueFull, command)
		}
	}
}

// measured counts each call and records how long the handler ran.
func (d *Dispatcher) measured(command string, h HandlerFunc) HandlerFunc {
	cmdAttr := metric.WithAttributes(attribute.String("command", command))
	return func(e Event) (any, error) {
		start := time.Now()
		result, err := h(e)
		ctx := context.Background()
		d.metrics.handled.Add(ctx, 1, cmdAttr)
		d.metrics.latency.Record(ctx, float64(time.Since(start).Microseconds())/1000, cmdAttr)
		return result, err
	}
}

func (d *Dispatcher) logged(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", e.Args)

		result, err := h(e)

		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start), "result", result)
		}
		return result, err
	}
}

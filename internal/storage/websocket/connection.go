package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/gorilla/websocket"

	"github.com/nizalia829/roller-coaster-builder/pkg/streaming"
)

const (
	outboxSize  = 4096
	ackBuffer   = 16
	redialLimit = 10
	maxBackoff  = 30 * time.Second
	writeWait   = 10 * time.Second
	ackTimeout  = 10 * time.Second
)

// link is one dialed socket. broken closes on the first read or write
// failure.
type link struct {
	conn   *ws.Conn
	broken chan struct{}
	once   sync.Once
}

func newLink(conn *ws.Conn) *link {
	return &link{conn: conn, broken: make(chan struct{})}
}

func (l *link) fail() {
	l.once.Do(func() { close(l.broken) })
}

// connection keeps a socket to the viewer alive. A supervisor goroutine owns
// all writes and replaces broken links; readers only deliver acks.
type connection struct {
	target string
	logger *slog.Logger

	outbox chan []byte
	acks   chan streaming.AckMessage
	stop   chan struct{}

	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	current *link
	replay  []byte // start message of the open session

	dropped atomic.Uint64
}

func newConnection(logger *slog.Logger) *connection {
	return &connection{
		logger: logger,
		outbox: make(chan []byte, outboxSize),
		acks:   make(chan streaming.AckMessage, ackBuffer),
		stop:   make(chan struct{}),
	}
}

func (c *connection) dial(rawURL, secret string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid websocket URL: %w", err)
	}
	if secret != "" {
		q := u.Query()
		q.Set("secret", secret)
		u.RawQuery = q.Encode()
	}
	c.target = u.String()

	conn, err := c.open()
	if err != nil {
		return err
	}
	l := newLink(conn)
	c.mu.Lock()
	c.current = l
	c.mu.Unlock()

	c.wg.Add(1)
	go c.supervise(l)
	return nil
}

func (c *connection) open() (*ws.Conn, error) {
	conn, _, err := ws.DefaultDialer.Dial(c.target, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}
	return conn, nil
}

func (c *connection) supervise(l *link) {
	defer c.wg.Done()
	for l != nil {
		c.wg.Add(1)
		go c.read(l)

		live := c.pump(l)
		_ = l.conn.Close()
		if !live {
			return
		}
		l = c.redial()
	}
}

// pump writes queued messages to l until it breaks (true) or the
// connection stops (false).
func (c *connection) pump(l *link) bool {
	for {
		select {
		case <-c.stop:
			return false
		case <-l.broken:
			return true
		case data := <-c.outbox:
			if err := write(l.conn, data); err != nil {
				c.logger.Warn("Telemetry stream write failed", "error", err)
				l.fail()
				return true
			}
		}
	}
}

func (c *connection) read(l *link) {
	defer c.wg.Done()
	for {
		_, message, err := l.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.stop:
			default:
				c.logger.Warn("Telemetry stream read failed", "error", err)
			}
			l.fail()
			return
		}

		var ack streaming.AckMessage
		if err := json.Unmarshal(message, &ack); err != nil || ack.Type != streaming.TypeAck {
			c.logger.Debug("Ignoring viewer message", "raw", string(message))
			continue
		}
		select {
		case c.acks <- ack:
		default:
			c.logger.Debug("Ack buffer full, dropping", "for", ack.For)
		}
	}
}

func write(conn *ws.Conn, data []byte) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteMessage(ws.TextMessage, data)
}

// redial returns a fresh link with the open session's start message already
// replayed, or nil once stopped or out of attempts.
func (c *connection) redial() *link {
	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()

	backoff := time.Second
	for attempt := 1; attempt <= redialLimit; attempt++ {
		select {
		case <-c.stop:
			return nil
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)

		conn, err := c.open()
		if err != nil {
			c.logger.Warn("Telemetry stream redial failed", "attempt", attempt, "error", err)
			continue
		}

		c.mu.Lock()
		replay := c.replay
		c.mu.Unlock()
		if replay != nil {
			if err := write(conn, replay); err != nil {
				c.logger.Warn("Failed to replay session start", "error", err)
				_ = conn.Close()
				continue
			}
		}

		l := newLink(conn)
		c.mu.Lock()
		c.current = l
		c.mu.Unlock()
		c.logger.Info("Telemetry stream reconnected", "attempt", attempt)
		return l
	}

	c.logger.Error("Telemetry stream reconnect gave up", "attempts", redialLimit)
	return nil
}

// send queues data without blocking. A full outbox drops the message.
func (c *connection) send(data []byte) {
	select {
	case c.outbox <- data:
	default:
		c.dropped.Add(1)
	}
}

// sendAndWait queues data and waits for the viewer to ack ackFor.
func (c *connection) sendAndWait(data []byte, ackFor string, timeout time.Duration) error {
	c.send(data)

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case ack := <-c.acks:
			if ack.For == ackFor {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timeout waiting for ack of %q", ackFor)
		case <-c.stop:
			return fmt.Errorf("connection closed while waiting for ack of %q", ackFor)
		}
	}
}

func (c *connection) setReplay(data []byte) {
	c.mu.Lock()
	c.replay = data
	c.mu.Unlock()
}

// close stops the supervisor, sends a close frame on the live socket and
// waits for every goroutine to exit.
func (c *connection) close() error {
	var err error
	c.stopOnce.Do(func() {
		close(c.stop)

		c.mu.Lock()
		l := c.current
		c.current = nil
		c.mu.Unlock()

		if l != nil {
			_ = l.conn.WriteControl(
				ws.CloseMessage,
				ws.FormatCloseMessage(ws.CloseNormalClosure, ""),
				time.Now().Add(time.Second),
			)
			err = l.conn.Close()
		}
		c.wg.Wait()

		if n := c.dropped.Load(); n > 0 {
			c.logger.Warn("Telemetry stream dropped messages", "count", n)
		}
	})
	return err
}

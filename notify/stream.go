package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/dani-agudelo/conexion-campesina-go/core"
)

// State is the connection state of the stream consumer.
type State int

const (
	// StateDisconnected means the consumer is not running.
	StateDisconnected State = iota
	// StateConnecting means the first connection attempt is in flight.
	StateConnecting
	// StateConnected means a live stream is being read.
	StateConnected
	// StateReconnecting means the stream dropped and the consumer is
	// waiting out the reconnect delay.
	StateReconnecting
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// producerRole is the only role the notification stream serves.
const producerRole = "PRODUCER"

// streamEvent is the wire shape of one SSE data frame.
type streamEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Consumer maintains the server-sent-events connection that feeds a
// notification Store.
//
// The lifecycle is an explicit state machine: Disconnected until
// Start, then Connecting, Connected while a stream is live,
// Reconnecting during the fixed backoff after a drop, and back to
// Disconnected when the context is cancelled or Stop is called.
// Reconnection uses a fixed delay with no backoff growth; the server
// keeps idle streams alive with ping frames.
type Consumer struct {
	api            *core.APIClient
	store          *Store
	path           string
	reconnectDelay time.Duration
	clock          core.Clock
	logger         core.Logger

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	stateSubs []func(State)
}

// ConsumerOption configures a Consumer.
type ConsumerOption func(*Consumer)

// WithStreamPath overrides the stream path
func WithStreamPath(path string) ConsumerOption {
	return func(c *Consumer) {
		if path != "" {
			c.path = path
		}
	}
}

// WithReconnectDelay overrides the fixed reconnect delay
func WithReconnectDelay(delay time.Duration) ConsumerOption {
	return func(c *Consumer) {
		if delay > 0 {
			c.reconnectDelay = delay
		}
	}
}

// WithConsumerClock overrides the clock, mainly for tests
func WithConsumerClock(clock core.Clock) ConsumerOption {
	return func(c *Consumer) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithConsumerLogger sets the logger for the consumer
func WithConsumerLogger(logger core.Logger) ConsumerOption {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConsumer creates a stream consumer feeding the given store. The
// stream path and reconnect delay come from the client configuration
// unless overridden.
func NewConsumer(api *core.APIClient, store *Store, opts ...ConsumerOption) *Consumer {
	c := &Consumer{
		api:            api,
		store:          store,
		path:           "notifications/stream",
		reconnectDelay: 5 * time.Second,
		clock:          core.RealClock{},
		logger:         &core.NoOpLogger{},
		state:          StateDisconnected,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current connection state.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// OnStateChange registers a callback invoked on every state
// transition.
func (c *Consumer) OnStateChange(fn func(State)) {
	if fn == nil {
		return
	}
	c.mu.Lock()
	c.stateSubs = append(c.stateSubs, fn)
	c.mu.Unlock()
}

// Start begins consuming the stream in a background goroutine.
//
// The stream only carries producer events, so Start refuses to run
// without a token or for a non-producer session. It returns
// core.ErrAlreadyStarted if the consumer is already running.
func (c *Consumer) Start(ctx context.Context) error {
	tokens := c.api.Tokens()
	if tokens == nil || tokens.Token() == "" {
		return core.NewError("notify.Consumer.Start", "notify", core.ErrTokenMissing)
	}
	if tokens.Role() != producerRole {
		return core.NewError("notify.Consumer.Start", "notify", core.ErrNotAuthenticated)
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.mu.Unlock()
		return core.NewError("notify.Consumer.Start", "notify", core.ErrAlreadyStarted)
	}
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})
	done := c.done
	c.mu.Unlock()

	go func() {
		defer close(done)
		c.run(runCtx)
	}()
	return nil
}

// Stop cancels the stream and waits for the consumer goroutine to
// exit. Stopping a consumer that never started is a no-op.
func (c *Consumer) Stop() {
	c.mu.Lock()
	cancel := c.cancel
	done := c.done
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (c *Consumer) run(ctx context.Context) {
	defer func() {
		c.store.setConnected(false)
		c.setState(StateDisconnected)
	}()

	c.setState(StateConnecting)

	for {
		if ctx.Err() != nil {
			return
		}

		body, err := c.api.OpenStream(ctx, c.path)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("Failed to open notification stream", map[string]interface{}{
				"error":       err.Error(),
				"retry_after": c.reconnectDelay.String(),
			})
			if !c.waitReconnect(ctx) {
				return
			}
			continue
		}

		c.store.setConnected(true)
		c.setState(StateConnected)
		c.logger.Info("Notification stream connected", map[string]interface{}{
			"path": c.path,
		})

		readErr := c.readLoop(ctx, body)
		body.Close()
		c.store.setConnected(false)

		if ctx.Err() != nil {
			return
		}
		c.logger.Warn("Notification stream dropped", map[string]interface{}{
			"error":       readErr.Error(),
			"retry_after": c.reconnectDelay.String(),
		})
		if !c.waitReconnect(ctx) {
			return
		}
	}
}

func (c *Consumer) setState(state State) {
	c.mu.Lock()
	if c.state == state {
		c.mu.Unlock()
		return
	}
	old := c.state
	c.state = state
	subs := make([]func(State), len(c.stateSubs))
	copy(subs, c.stateSubs)
	c.mu.Unlock()

	c.logger.Debug("Stream state changed", map[string]interface{}{
		"from": old.String(),
		"to":   state.String(),
	})
	for _, sub := range subs {
		sub(state)
	}
}

// waitReconnect sleeps out the fixed reconnect delay. It returns
// false when the context was cancelled during the wait.
func (c *Consumer) waitReconnect(ctx context.Context) bool {
	c.setState(StateReconnecting)
	select {
	case <-ctx.Done():
		return false
	case <-c.clock.After(c.reconnectDelay):
		return true
	}
}

// readLoop reads SSE frames until the stream ends or the context is
// cancelled. It always returns a non-nil error describing why reading
// stopped.
func (c *Consumer) readLoop(ctx context.Context, body io.Reader) error {
	reader := bufio.NewReader(body)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return core.ErrStreamClosed
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, ":") {
			// Blank frame separators and SSE comments.
			continue
		}
		if !strings.HasPrefix(line, "data: ") {
			continue
		}

		c.handleFrame(strings.TrimPrefix(line, "data: "))
	}
}

// handleFrame parses one data frame and routes it to the store. A
// malformed frame is logged and skipped so a single bad event cannot
// take the stream down.
func (c *Consumer) handleFrame(data string) {
	var event streamEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		c.logger.Warn("Skipping malformed stream frame", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	switch event.Type {
	case "ping":
		// Keepalive, not a notification.
	case string(TypeNewOrder), string(TypeLowStock):
		c.store.Add(Notification{
			ID:      event.ID,
			Type:    Type(event.Type),
			Payload: json.RawMessage(data),
		})
	default:
		c.logger.Debug("Ignoring unknown stream event", map[string]interface{}{
			"type": event.Type,
		})
	}
}

package ws

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 64 // buffered to avoid dead-locks on slow clients

var (
	ErrChannelClosed = errors.New("channel is closed")
	ErrChannelFull   = errors.New("channel send buffer is full")
)

// Conn is the subset of *websocket.Conn the client needs; tests substitute
// their own.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteJSON(v any) error
	Close() error
}

// Client is one live channel to one connected peer. The connection handler
// that created it owns its lifecycle; the registry only holds a reference.
//
// While a history replay is in progress, live frames are parked in a pending
// buffer and flushed after the replay, skipping any message already replayed.
// That keeps the replay-then-live boundary gapless and duplicate-free without
// holding the registry lock across the store read.
type Client struct {
	conn Conn
	send chan *Frame
	done chan struct{}

	ID     string
	UserID string
	Key    RoutingKey

	mu        sync.Mutex
	replaying bool
	replayed  map[string]struct{}
	pending   []*Frame

	closeOnce sync.Once
}

func NewClient(conn Conn, id, userID string, key RoutingKey) *Client {
	return &Client{
		conn:   conn,
		send:   make(chan *Frame, sendBufferSize),
		done:   make(chan struct{}),
		ID:     id,
		UserID: userID,
		Key:    key,
	}
}

// Send queues a frame for delivery. It never blocks: a full buffer or a
// closed client yields an error the caller may ignore, slow peers only hurt
// themselves.
func (c *Client) Send(frame *Frame) error {
	c.mu.Lock()
	if c.replaying {
		c.pending = append(c.pending, frame)
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	return c.enqueue(frame)
}

func (c *Client) enqueue(frame *Frame) error {
	select {
	case <-c.done:
		return ErrChannelClosed
	default:
	}

	select {
	case c.send <- frame:
		framesDelivered.WithLabelValues(frame.Type).Inc()
		return nil
	case <-c.done:
		return ErrChannelClosed
	default:
		framesDropped.Inc()
		return ErrChannelFull
	}
}

// BeginReplay switches the client into replay mode. Live frames arriving
// until EndReplay are buffered instead of delivered.
func (c *Client) BeginReplay() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.replaying = true
	c.replayed = make(map[string]struct{})
}

// Replay writes one history frame and records its message ID for the
// end-of-replay de-duplication.
func (c *Client) Replay(frame *Frame) error {
	c.mu.Lock()
	if frame.ref != "" {
		c.replayed[frame.ref] = struct{}{}
	}
	c.mu.Unlock()

	return c.enqueue(frame)
}

// EndReplay flushes buffered live frames, dropping those whose message was
// already part of the replayed history.
func (c *Client) EndReplay() {
	c.mu.Lock()
	pending := c.pending
	replayed := c.replayed
	c.pending = nil
	c.replayed = nil
	c.replaying = false
	c.mu.Unlock()

	for _, frame := range pending {
		if frame.ref != "" {
			if _, seen := replayed[frame.ref]; seen {
				continue
			}
		}
		_ = c.enqueue(frame)
	}
}

// ReadLoop pumps inbound frames into the engine until the transport closes.
// It guarantees registry cleanup on every exit path.
func (c *Client) ReadLoop(registry *Registry, engine *Engine) {
	defer func() {
		registry.Unregister(c.Key, c)
		c.Close()
		_ = c.conn.Close()
	}()

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			return
		}

		// Per-user connections send no application frames.
		if c.Key.Scope() != ChatScope {
			continue
		}

		if _, err := engine.DeliverMessage(context.Background(), c.Key.ID(), c.UserID, string(raw)); err != nil {
			// Surfaced to this sender only; other subscribers are unaffected.
			_ = c.Send(NewErrorFrame(c.Key.ID(), "DELIVERY_FAILED", "message could not be delivered"))
		}
	}
}

// WriteLoop drains the send buffer onto the wire until the client closes or
// a write fails.
func (c *Client) WriteLoop() {
	defer func() {
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame := <-c.send:
			if err := c.conn.WriteJSON(frame); err != nil {
				log.Printf("ws write error (client %s): %v", c.ID, err)
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}

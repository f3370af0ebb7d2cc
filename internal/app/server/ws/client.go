package ws

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

const pingPeriod = (pongWait * 9) / 10

// RuntimeClient is one live connection: a buffered outbound queue drained
// by a single write goroutine, so broadcasts never block on a slow peer
// beyond the queue depth.
type RuntimeClient struct {
	ctx    context.Context
	cancel context.CancelFunc
	ws     *WebSocket
	id     string
	userID uuid.UUID
	out    chan []byte
	once   sync.Once
}

func NewClient(parent context.Context, ws *WebSocket, userID uuid.UUID) *RuntimeClient {
	ctx, cancel := context.WithCancel(parent)
	c := &RuntimeClient{
		ctx:    ctx,
		cancel: cancel,
		ws:     ws,
		id:     uuid.NewString(),
		userID: userID,
		out:    make(chan []byte, 256),
	}
	go c.writeLoop()
	return c
}

func (c *RuntimeClient) ID() string        { return c.id }
func (c *RuntimeClient) UserID() uuid.UUID { return c.userID }

// Send queues data for the write loop. It fails instead of blocking when
// the client is closed or its queue is full; a full queue means the peer
// has stopped reading and teardown is imminent.
func (c *RuntimeClient) Send(ctx context.Context, data []byte) error {
	select {
	case c.out <- data:
		return nil
	case <-c.ctx.Done():
		return errors.New("client closed")
	default:
		return errors.New("client queue full")
	}
}

// Close is idempotent. The out channel is left open so a concurrent Send
// can never panic; the write loop exits via context cancellation.
func (c *RuntimeClient) Close() {
	c.once.Do(func() {
		c.cancel()
		c.ws.Close()
	})
}

func (c *RuntimeClient) writeLoop() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()
	for {
		select {
		case <-c.ctx.Done():
			return
		case data := <-c.out:
			if err := c.ws.WriteMessage(data); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.ws.Ping(); err != nil {
				return
			}
		}
	}
}

package youdao

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// Message is one frame received from the translation service, always
// valid JSON ready to forward to a client. Frames that fail to parse
// are wrapped as {"raw": "<original frame>"} instead of being dropped.
type Message []byte

// StreamClient owns one connection to the streaming translation
// endpoint for the lifetime of one relay session.
type StreamClient struct {
	conn   *websocket.Conn
	logger *log.Logger

	mu     sync.Mutex // guards writes and the closed flag
	closed bool

	endOnce   sync.Once
	closeOnce sync.Once
}

// Dial opens a signed WebSocket connection to the translation service.
// The caller owns the returned client and must Close it on every exit
// path.
func Dial(ctx context.Context, url string, logger *log.Logger) (*StreamClient, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial translation service: %w", err)
	}
	return &StreamClient{conn: conn, logger: logger}, nil
}

// SendAudio forwards one binary audio chunk. Writing to a connection
// that has already closed is an expected race near the end of a
// session, so failures are logged and swallowed rather than returned.
func (c *StreamClient) SendAudio(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
		c.logger.Debug("send audio", "error", err)
	}
}

var endFrame = []byte(`{"end":"true"}`)

// SendEnd signals end-of-audio. The service expects the end frame at
// most once per session; repeated calls are no-ops, as are calls after
// the connection has closed.
func (c *StreamClient) SendEnd() {
	c.endOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if c.closed {
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, endFrame); err != nil {
			c.logger.Debug("send end frame", "error", err)
		}
	})
}

// Receive reads translation results until the service closes the
// connection or a read fails. The returned channel is closed when the
// stream ends, normally or not.
func (c *StreamClient) Receive() <-chan Message {
	out := make(chan Message)
	go func() {
		defer close(out)
		for {
			_, frame, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.logger.Error("translation stream closed", "error", err)
				}
				return
			}
			out <- decodeFrame(frame)
		}
	}()
	return out
}

func decodeFrame(frame []byte) Message {
	if json.Valid(frame) {
		return Message(frame)
	}
	wrapped, _ := json.Marshal(map[string]string{"raw": string(frame)})
	return Message(wrapped)
}

// Close is idempotent; close failures are swallowed.
func (c *StreamClient) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("close translation connection", "error", err)
		}
	})
}

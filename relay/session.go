package relay

import (
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"babel.town/youdao"
)

// endSignal is the text frame a client sends to mark end-of-audio.
const endSignal = "END"

// upstream is the slice of youdao.StreamClient the session depends on,
// narrowed so tests can substitute a scripted implementation.
type upstream interface {
	SendAudio(chunk []byte)
	SendEnd()
	Receive() <-chan youdao.Message
	Close()
}

// clientConn is the subset of *websocket.Conn the session uses.
type clientConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Session relays one client's audio to one upstream connection and the
// translation results back. The two pump directions run concurrently
// and fail independently; the session is done once both have exited,
// whichever side terminated first.
type Session struct {
	client   clientConn
	upstream upstream
	logger   *log.Logger

	clientClosed   atomic.Bool
	upstreamClosed atomic.Bool
}

func NewSession(client clientConn, up upstream, logger *log.Logger) *Session {
	return &Session{client: client, upstream: up, logger: logger}
}

// Run drives both directions to completion and releases the upstream
// connection. The caller remains responsible for the client socket.
func (s *Session) Run() {
	defer s.upstream.Close()

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		s.pumpClientToUpstream()
	}()
	go func() {
		defer wg.Done()
		s.pumpUpstreamToClient()
	}()
	wg.Wait()

	s.logger.Info("session finished")
}

// pumpClientToUpstream forwards binary audio frames until the client
// sends the end signal or drops. Either way the upstream receives
// exactly one end-of-audio frame and no audio after it.
func (s *Session) pumpClientToUpstream() {
	defer s.upstream.SendEnd()

	for {
		kind, frame, err := s.client.ReadMessage()
		if err != nil {
			s.clientClosed.Store(true)
			if !s.upstreamClosed.Load() {
				s.logger.Debug("client read", "error", err)
			}
			return
		}
		switch kind {
		case websocket.BinaryMessage:
			s.upstream.SendAudio(frame)
		case websocket.TextMessage:
			if string(frame) == endSignal {
				return
			}
		}
	}
}

// pumpUpstreamToClient forwards translation results until the upstream
// stream ends. Once the client leg is gone the remaining results are
// drained and discarded rather than written to a dead socket.
func (s *Session) pumpUpstreamToClient() {
	for msg := range s.upstream.Receive() {
		if s.clientClosed.Load() {
			continue
		}
		if err := s.client.WriteMessage(websocket.TextMessage, msg); err != nil {
			s.clientClosed.Store(true)
			s.logger.Debug("client write", "error", err)
		}
	}
	s.upstreamClosed.Store(true)

	// The other direction may be parked in ReadMessage with nothing
	// left to relay; closing the client socket releases it.
	if !s.clientClosed.Load() {
		_ = s.client.Close()
	}
}

package youdao

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

var testUpgrader = websocket.Upgrader{}

// startUpstream runs handle as a fake translation endpoint and returns
// a StreamClient dialed into it.
func startUpstream(t *testing.T, handle func(conn *websocket.Conn)) *StreamClient {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		handle(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := Dial(context.Background(), url, log.New(io.Discard))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(client.Close)

	return client
}

// collect drains ch until it closes, failing the test on a hang.
func collect(t *testing.T, ch <-chan Message) []string {
	t.Helper()

	var out []string
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, string(msg))
		case <-timeout:
			t.Fatal("timed out waiting for the stream to end")
		}
	}
}

func TestReceiveWrapsUnparseableFrames(t *testing.T) {
	client := startUpstream(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"result":"hello"}`))
		conn.WriteMessage(websocket.TextMessage, []byte("not json"))
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		)
		conn.Close()
	})

	got := collect(t, client.Receive())
	want := []string{`{"result":"hello"}`, `{"raw":"not json"}`}
	if len(got) != len(want) {
		t.Fatalf("received %d messages, want %d: %v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("message %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSendEndOnlyOnce(t *testing.T) {
	received := make(chan string, 8)
	client := startUpstream(t, func(conn *websocket.Conn) {
		defer close(received)
		for {
			_, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			received <- string(frame)
		}
	})

	client.SendEnd()
	client.SendEnd()
	client.Close()

	ends := 0
	for frame := range received {
		if frame == `{"end":"true"}` {
			ends++
		}
	}
	if ends != 1 {
		t.Errorf("upstream received %d end frames, want 1", ends)
	}
}

func TestAudioArrivesInOrder(t *testing.T) {
	received := make(chan string, 8)
	client := startUpstream(t, func(conn *websocket.Conn) {
		defer close(received)
		for {
			kind, frame, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if kind == websocket.BinaryMessage {
				received <- string(frame)
			}
		}
	})

	chunks := []string{"one", "two", "three"}
	for _, c := range chunks {
		client.SendAudio([]byte(c))
	}
	client.Close()

	var got []string
	for frame := range received {
		got = append(got, frame)
	}
	if len(got) != len(chunks) {
		t.Fatalf("upstream received %d chunks, want %d", len(got), len(chunks))
	}
	for i := range chunks {
		if got[i] != chunks[i] {
			t.Errorf("chunk %d = %q, want %q", i, got[i], chunks[i])
		}
	}
}

func TestSendAfterCloseIsNoop(t *testing.T) {
	client := startUpstream(t, func(conn *websocket.Conn) {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	client.Close()
	client.SendAudio([]byte("late"))
	client.SendEnd()
	client.Close()
}

func TestDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no", http.StatusBadRequest)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	if _, err := Dial(context.Background(), url, log.New(io.Discard)); err == nil {
		t.Fatal("Dial succeeded against a non-WebSocket endpoint")
	}
}

package statefeed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/geom"
)

func dial(t *testing.T, f *Feed) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(f.Handler())
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + Path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		t.Fatalf("failed to open websocket connection: %v", err)
	}
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		if resp != nil {
			resp.Body.Close()
		}
	})
	return conn
}

func read(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read state: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	return msg
}

func TestInitialStateOnConnect(t *testing.T) {
	f := New(nil)
	conn := dial(t, f)

	msg := read(t, conn)
	if msg.Type != "state" || msg.State != animation.Idle || msg.Label != "Ready" {
		t.Errorf("unexpected initial state %+v", msg)
	}
	if len(msg.Classes) != 1 || msg.Classes[0] != "dog-character" {
		t.Errorf("unexpected classes %v", msg.Classes)
	}
}

func TestTransitionsArePushed(t *testing.T) {
	f := New(nil)
	conn := dial(t, f)
	read(t, conn)

	f.ApplyState(animation.Snapshot{State: animation.Thinking, Label: "Thinking", Facing: geom.Direction{X: -1, Y: 1}})
	msg := read(t, conn)
	if msg.State != animation.Thinking || msg.Label != "Thinking" {
		t.Errorf("unexpected state %+v", msg)
	}
	if msg.Facing.X != -1 {
		t.Errorf("expected facing left, got %+v", msg.Facing)
	}
	if len(msg.Classes) != 2 || msg.Classes[1] != "thinking" {
		t.Errorf("unexpected classes %v", msg.Classes)
	}
}

func TestLateSubscriberSeesLastState(t *testing.T) {
	f := New(nil)
	f.ApplyState(animation.Snapshot{State: animation.Happy, Label: "Happy"})

	conn := dial(t, f)
	if msg := read(t, conn); msg.State != animation.Happy {
		t.Errorf("expected the last state on connect, got %+v", msg)
	}
	if f.Clients() != 1 {
		t.Errorf("expected one subscriber, got %d", f.Clients())
	}
}

func TestCloseDisconnects(t *testing.T) {
	f := New(nil)
	conn := dial(t, f)
	read(t, conn)

	f.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected the connection to close")
	}
	if f.Clients() != 0 {
		t.Errorf("expected no subscribers, got %d", f.Clients())
	}
}

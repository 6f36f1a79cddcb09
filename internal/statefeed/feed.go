// Package statefeed pushes the character's animation state to websocket
// subscribers, so an external renderer can follow the state machine.
package statefeed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Rorical/RoriBuddy/internal/animation"
	"github.com/Rorical/RoriBuddy/internal/geom"
	"github.com/Rorical/RoriBuddy/internal/render"
)

const (
	Path = "/state"

	writeWait  = 5 * time.Second
	sendBuffer = 16
)

// Message is the payload sent on connect and on every transition.
type Message struct {
	Type    string          `json:"type"`
	State   animation.State `json:"state"`
	Label   string          `json:"label"`
	Classes []string        `json:"classes"`
	Facing  geom.Direction  `json:"facing"`
}

func messageFor(s animation.Snapshot) Message {
	return Message{
		Type:    "state",
		State:   s.State,
		Label:   s.Label,
		Classes: render.Classes(s.State),
		Facing:  s.Facing,
	}
}

type client struct {
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() { close(c.send) })
}

// Feed is an animation.Observer that fans snapshots out to websocket clients.
// ApplyState never blocks: a client that falls behind is dropped.
type Feed struct {
	mu       sync.Mutex
	last     []byte
	clients  map[*client]struct{}
	upgrader websocket.Upgrader
	logger   *slog.Logger
}

func New(logger *slog.Logger) *Feed {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Feed{
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		logger: logger,
	}
	f.last, _ = json.Marshal(messageFor(animation.Snapshot{
		State:  animation.Idle,
		Label:  animation.Idle.Label(),
		Facing: geom.DiagonalDown,
	}))
	return f
}

func (f *Feed) ApplyState(s animation.Snapshot) {
	data, err := json.Marshal(messageFor(s))
	if err != nil {
		f.logger.Warn("failed to marshal state", "err", err)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = data
	for c := range f.clients {
		select {
		case c.send <- data:
		default:
			f.logger.Debug("dropping slow state subscriber", "remote", c.conn.RemoteAddr())
			delete(f.clients, c)
			c.close()
		}
	}
}

// Clients returns the number of connected subscribers.
func (f *Feed) Clients() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

// Handler serves the feed at Path.
func (f *Feed) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, f.Handle)
	return mux
}

func (f *Feed) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		f.logger.Debug("state feed upgrade failed", "err", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	f.mu.Lock()
	c.send <- f.last
	f.clients[c] = struct{}{}
	f.mu.Unlock()
	f.logger.Debug("state subscriber connected", "remote", conn.RemoteAddr())

	go f.writePump(c)

	// Subscribers only listen; reading detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	f.remove(c)
}

func (f *Feed) writePump(c *client) {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.remove(c)
			return
		}
	}
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (f *Feed) remove(c *client) {
	f.mu.Lock()
	delete(f.clients, c)
	f.mu.Unlock()
	c.close()
}

// Close disconnects every subscriber.
func (f *Feed) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for c := range f.clients {
		delete(f.clients, c)
		c.close()
	}
}

// Serve listens on addr until ctx is done.
func (f *Feed) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{Handler: f.Handler(), ReadHeaderTimeout: 5 * time.Second}
	f.logger.Info("state feed listening", "addr", ln.Addr().String(), "path", Path)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		f.Close()
	}()

	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

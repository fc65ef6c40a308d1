// Package stream carries orchestrator progress to clients over WebSocket
// connections, one request in flight per connection.
package stream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/mtlprog/finagent/internal/agent"
	"github.com/mtlprog/finagent/internal/llm"
	"github.com/mtlprog/finagent/internal/logger"
	"github.com/mtlprog/finagent/internal/orchestrator"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Conn is the JSON message transport of one client. *websocket.Conn satisfies it.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

// Feed receives a copy of every outbound event. Failures are logged only.
type Feed interface {
	PublishEvent(ctx context.Context, connectionID string, event any) error
}

// Adapter serves the chat protocol.
type Adapter struct {
	providers *llm.Registry
	agents    *agent.Registry
	conns     *ConnectionRegistry
	feed      Feed
	upgrader  websocket.Upgrader
}

// NewAdapter creates an Adapter. feed may be nil.
func NewAdapter(providers *llm.Registry, agents *agent.Registry, conns *ConnectionRegistry, feed Feed) *Adapter {
	return &Adapter{
		providers: providers,
		agents:    agents,
		conns:     conns,
		feed:      feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (a *Adapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}

	ws.SetReadLimit(64 << 10)
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(ws, done)

	a.Serve(r.Context(), &deadlineConn{Conn: ws})
}

// Serve runs the protocol on conn until the client leaves or a terminal error
// occurs. conn is closed on return.
func (a *Adapter) Serve(ctx context.Context, conn Conn) {
	id := uuid.NewString()
	log := logger.FromContext(ctx).With("connection_id", id)
	ctx = logger.WithContext(ctx, log)

	a.conns.Register(id, conn)
	defer func() {
		a.conns.Deregister(id)
		_ = conn.Close()
		log.Info("connection deregistered")
	}()
	log.Info("connection registered")

	for {
		var in Inbound
		if err := conn.ReadJSON(&in); err != nil {
			if isMalformed(err) {
				log.Warn("malformed inbound message", "error", err)
				_ = a.send(ctx, id, conn, Event{Type: TypeError, Content: "invalid message: " + err.Error()})
				return
			}
			if !isClosed(err) {
				log.Warn("read failed", "error", err)
			}
			return
		}

		switch in.Type {
		case TypePing:
			if err := a.send(ctx, id, conn, Event{Type: TypePong}); err != nil {
				log.Warn("write failed", "error", err)
				return
			}
		case TypeMessage:
			if err := a.handleMessage(ctx, id, conn, in); err != nil {
				log.Warn("request ended the connection", "error", err)
				return
			}
		default:
			log.Debug("ignoring inbound message", "type", in.Type)
		}
	}
}

// handleMessage runs one request. A returned error ends the connection: it is
// either a transport failure or a panic below the orchestrator, which is
// reported to the client first.
func (a *Adapter) handleMessage(ctx context.Context, id string, conn Conn, in Inbound) (err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error("request processing panicked", "panic", r)
			_ = a.send(ctx, id, conn, Event{Type: TypeError, Content: "internal error while processing the message"})
			err = fmt.Errorf("request processing panicked: %v", r)
		}
	}()

	provider, err := a.providers.Get(in.Provider)
	if err != nil {
		return a.send(ctx, id, conn, Event{Type: TypeError, Content: err.Error()})
	}

	o := orchestrator.New(provider, a.agents)
	for raw := range o.Process(ctx, in.Content) {
		event, ok := EventFromLine(raw)
		if !ok {
			continue
		}
		if err := a.send(ctx, id, conn, event); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) send(ctx context.Context, id string, conn Conn, event Event) error {
	if err := conn.WriteJSON(event); err != nil {
		return err
	}
	if a.feed != nil {
		if err := a.feed.PublishEvent(ctx, id, event); err != nil {
			logger.FromContext(ctx).Warn("activity feed publish failed", "error", err)
		}
	}
	return nil
}

// deadlineConn bounds every write.
type deadlineConn struct {
	*websocket.Conn
}

func (c *deadlineConn) WriteJSON(v any) error {
	_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.Conn.WriteJSON(v)
}

func (c *deadlineConn) ReadJSON(v any) error {
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	return c.Conn.ReadJSON(v)
}

func keepAlive(ws *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func isMalformed(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr) || errors.Is(err, io.ErrUnexpectedEOF)
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) ||
		errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed)
}

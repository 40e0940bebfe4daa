package webchat

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/wolfman30/connectcom-support/internal/chat"
)

// InboundMessage is what the widget sends.
type InboundMessage struct {
	Type string `json:"type"` // "message", "option", "reset", "dismiss", "ping"
	Text string `json:"text,omitempty"`
	Key  string `json:"key,omitempty"`
}

// OutboundMessage is what we send to the widget.
type OutboundMessage struct {
	Type      string         `json:"type"` // "session", "snapshot", "typing", "redirect", "error", "pong"
	SessionID string         `json:"session_id,omitempty"`
	Snapshot  *chat.Snapshot `json:"snapshot,omitempty"`
	Text      string         `json:"text,omitempty"`
	Redirect  string         `json:"redirect,omitempty"`
}

// wsConn serializes writes; exchanges finish on their own goroutines.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) send(msg OutboundMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = websocket.JSON.Send(c.conn, msg)
}

func (c *wsConn) sendSnapshot(ctrl *chat.Controller) {
	snap := ctrl.Snapshot()
	c.send(OutboundMessage{Type: "snapshot", Snapshot: &snap})
}

// HandleWebSocket attaches a socket to the session named by the "session"
// query parameter, creating a session when it is absent or unknown.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(func(conn *websocket.Conn) {
		h.serveWS(r.Context(), conn, r.URL.Query().Get("session"))
	}).ServeHTTP(w, r)
}

func (h *Handler) serveWS(ctx context.Context, conn *websocket.Conn, sessionID string) {
	ctrl, err := h.sessions.Get(sessionID)
	if err != nil {
		sessionID, ctrl = h.sessions.Create()
	}

	wsc := &wsConn{conn: conn}
	wsc.send(OutboundMessage{Type: "session", SessionID: sessionID})
	wsc.sendSnapshot(ctrl)

	h.logger.Info("webchat: connection opened", "session_id", sessionID)

	var inflight sync.WaitGroup
	defer inflight.Wait()

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("webchat: connection closed", "session_id", sessionID, "error", err)
			return
		}

		switch msg.Type {
		case "ping":
			wsc.send(OutboundMessage{Type: "pong"})
		case "reset":
			ctrl.Reset()
			wsc.sendSnapshot(ctrl)
		case "dismiss":
			ctrl.DismissError()
			wsc.sendSnapshot(ctrl)
		case "message", "option":
			submit := func(ctx context.Context) error { return ctrl.Submit(ctx, msg.Text) }
			if msg.Type == "option" {
				key := msg.Key
				submit = func(ctx context.Context) error { return ctrl.SelectKey(ctx, key) }
			}
			inflight.Add(1)
			go func() {
				defer inflight.Done()
				h.exchange(ctx, wsc, ctrl, submit)
			}()
		}
	}
}

func (h *Handler) exchange(ctx context.Context, wsc *wsConn, ctrl *chat.Controller, submit func(context.Context) error) {
	ctx = chat.WithAccepted(exchangeContext(ctx), func() {
		wsc.send(OutboundMessage{Type: "typing"})
	})
	err := submit(ctx)
	switch {
	case err == nil:
		wsc.sendSnapshot(ctrl)
	case errors.Is(err, chat.ErrAuthenticationRequired):
		wsc.send(OutboundMessage{Type: "redirect", Redirect: LoginPath, Text: err.Error()})
	default:
		wsc.send(OutboundMessage{Type: "error", Text: err.Error()})
		wsc.sendSnapshot(ctrl)
	}
}

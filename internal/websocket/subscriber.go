package websocket

import (
	"context"
	"net/http"
	"time"

	ws "github.com/coder/websocket"
)

const (
	queueSize    = 16
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Subscriber is one WebSocket connection on the change feed.
type Subscriber struct {
	hub  *Hub
	conn *ws.Conn
	send chan []byte
}

func NewSubscriber(hub *Hub, conn *ws.Conn) *Subscriber {
	return &Subscriber{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, queueSize),
	}
}

// Run registers the subscriber and blocks until the connection closes or the
// hub drops it.
func (s *Subscriber) Run(ctx context.Context) {
	s.hub.Register(s)
	defer s.hub.Unregister(s)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The feed is one-way; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx = s.conn.CloseRead(ctx)
	s.writeLoop(ctx)
}

func (s *Subscriber) writeLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				s.conn.Close(ws.StatusGoingAway, "server shutting down")
				return
			}
			if err := s.write(ctx, msg); err != nil {
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func (s *Subscriber) write(ctx context.Context, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return s.conn.Write(ctx, ws.MessageText, msg)
}

// Handler upgrades requests to WebSocket subscribers. originPatterns lists
// the cross-origin hosts allowed to connect; same-origin is always allowed.
func Handler(hub *Hub, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: originPatterns})
		if err != nil {
			hub.logger.Warn("websocket accept", "error", err)
			return
		}
		NewSubscriber(hub, conn).Run(r.Context())
	}
}

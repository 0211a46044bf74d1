package push

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

const writeTimeout = 5 * time.Second

type Handler struct {
	hub     *Hub
	logger  *slog.Logger
	origins []string
}

// NewHandler serves the hub over WebSocket. origins are extra accepted
// Origin patterns; same-origin requests are always accepted.
func NewHandler(hub *Hub, logger *slog.Logger, origins []string) *Handler {
	return &Handler{hub: hub, logger: logger, origins: origins}
}

func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.serve)
	return r
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.origins,
	})
	if err != nil {
		h.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	c := &client{id: uuid.NewString(), send: make(chan []byte, sendBuffer)}
	if !h.hub.post(connected{c: c}) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.hub.post(disconnected{id: c.id})

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()
	go h.write(ctx, conn, c)

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			h.logger.Debug("websocket read ended", "conn", c.id, "error", err)
			return
		}
		if !h.hub.post(received{id: c.id, data: data}) {
			return
		}
	}
}

// write drains the client's queue until the hub closes it, then closes the
// socket so the reader in serve returns.
func (h *Handler) write(ctx context.Context, conn *websocket.Conn, c *client) {
	for data := range c.send {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := conn.Write(wctx, websocket.MessageText, data)
		cancel()
		if err != nil {
			h.logger.Debug("websocket write failed", "error", err)
			conn.CloseNow()
			return
		}
	}
	if c.dropped {
		conn.Close(websocket.StatusPolicyViolation, "client too slow")
		return
	}
	conn.Close(websocket.StatusGoingAway, "server shutting down")
}

// Package push is the stateful transport: live WebSocket connections served
// by one event loop per process, with real per-session round timers.
package push

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/protocol"
	"github.com/derk-ster/StudyHatch-sub000/internal/session"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

const sendBuffer = 16

type event interface{ hubEvent() }

type connected struct{ c *client }

type disconnected struct{ id string }

type received struct {
	id   string
	data []byte
}

type timerFired struct {
	code string
	gen  uint64
}

// inspect reports the hub's bookkeeping. Tests use it to observe the loop
// without racing it.
type inspect struct{ reply chan Stats }

func (connected) hubEvent()    {}
func (disconnected) hubEvent() {}
func (received) hubEvent()     {}
func (timerFired) hubEvent()   {}
func (inspect) hubEvent()      {}

// Stats is a snapshot of the hub's tables.
type Stats struct {
	Conns  int
	Timers int
}

// client is one socket. code and playerID are empty until the socket sends
// create_session or join_session.
type client struct {
	id       string
	code     string
	playerID string
	send     chan []byte
	closed   bool
	// dropped is set before send is closed when the client fell behind.
	// The writer reads it only after draining send.
	dropped bool
}

type roundTimer struct {
	t   *time.Timer
	gen uint64
}

// Hub owns every live connection and round timer. All mutations happen on
// the goroutine running Run, so none of its maps need locking.
type Hub struct {
	mgr    *session.Manager
	logger *slog.Logger
	inbox  chan event
	done   chan struct{}

	conns  map[string]*client
	timers map[string]*roundTimer
	gen    uint64
}

func NewHub(mgr *session.Manager, logger *slog.Logger) *Hub {
	return &Hub{
		mgr:    mgr,
		logger: logger,
		inbox:  make(chan event, 64),
		done:   make(chan struct{}),
		conns:  make(map[string]*client),
		timers: make(map[string]*roundTimer),
	}
}

// Run rehydrates stored sessions, then processes events until ctx ends.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	defer h.shutdown()

	live, err := h.mgr.Rehydrate(ctx)
	if err != nil {
		h.logger.Error("rehydrating sessions", "error", err)
	}
	for _, s := range live {
		h.arm(ctx, s)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev := <-h.inbox:
			h.handle(ctx, ev)
		}
	}
}

// post hands ev to the loop. It gives up once the hub has stopped.
func (h *Hub) post(ev event) bool {
	select {
	case h.inbox <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Stats asks the loop for a snapshot of its tables.
func (h *Hub) Stats() (Stats, bool) {
	reply := make(chan Stats, 1)
	if !h.post(inspect{reply: reply}) {
		return Stats{}, false
	}
	select {
	case s := <-reply:
		return s, true
	case <-h.done:
		return Stats{}, false
	}
}

func (h *Hub) handle(ctx context.Context, ev event) {
	switch ev := ev.(type) {
	case connected:
		h.conns[ev.c.id] = ev.c

	case disconnected:
		h.release(ctx, ev.id)

	case received:
		c, ok := h.conns[ev.id]
		if !ok {
			return
		}
		h.dispatch(ctx, c, ev.data)

	case timerFired:
		rt, ok := h.timers[ev.code]
		if !ok || rt.gen != ev.gen {
			return
		}
		delete(h.timers, ev.code)
		s, err := h.mgr.State(ctx, ev.code)
		if errors.Is(err, store.ErrNotFound) {
			h.logger.Debug("round timer for a removed session", "code", ev.code)
			return
		}
		if err != nil {
			h.logger.Error("round timer", "code", ev.code, "error", err)
			return
		}
		h.broadcast(s, "")
		h.arm(ctx, s)

	case inspect:
		ev.reply <- Stats{Conns: len(h.conns), Timers: len(h.timers)}
	}
}

func (h *Hub) dispatch(ctx context.Context, c *client, data []byte) {
	msg, err := protocol.Decode(data)
	if err == nil {
		var res protocol.Result
		res, err = protocol.Apply(ctx, h.mgr, msg, false)
		if err == nil {
			if res.Joined {
				c.code, c.playerID = res.Session.Code, res.PlayerID
			}
			h.reply(c, res.Reply(h.mgr.Now()))
			h.broadcast(res.Session, c.id)
			h.arm(ctx, res.Session)
			return
		}
	}
	h.logger.Debug("message rejected", "conn", c.id, "error", err)
	h.reply(c, protocol.Error(protocol.Describe(err)))
}

// release forgets a connection and marks its player offline unless another
// socket still speaks for the same player.
func (h *Hub) release(ctx context.Context, id string) {
	c, ok := h.conns[id]
	if !ok {
		return
	}
	delete(h.conns, id)
	h.close(c)
	if c.code == "" {
		return
	}
	for _, other := range h.conns {
		if other.code == c.code && other.playerID == c.playerID {
			return
		}
	}
	s, err := h.mgr.Disconnect(ctx, c.code, c.playerID)
	if err != nil {
		h.logger.Debug("disconnect", "code", c.code, "player", c.playerID, "error", err)
		return
	}
	h.broadcast(s, "")
	h.arm(ctx, s)
}

// arm replaces the session's timer with one for its next deadline. Every
// arm bumps the generation so a timer that already fired is ignored.
func (h *Hub) arm(ctx context.Context, s *game.Session) {
	if rt, ok := h.timers[s.Code]; ok {
		rt.t.Stop()
		delete(h.timers, s.Code)
	}
	deadline, ok := session.NextDeadline(s)
	if !ok {
		return
	}
	h.gen++
	gen, code := h.gen, s.Code
	wait := max(0, deadline.Sub(h.mgr.Now()))
	h.timers[code] = &roundTimer{
		gen: gen,
		t: time.AfterFunc(wait, func() {
			if ctx.Err() == nil {
				h.post(timerFired{code: code, gen: gen})
			}
		}),
	}
}

// broadcast sends the session state to every socket bound to s except skip.
func (h *Hub) broadcast(s *game.Session, skip string) {
	data, err := protocol.State(protocol.View(s, h.mgr.Now())).Encode()
	if err != nil {
		h.logger.Error("encoding session", "code", s.Code, "error", err)
		return
	}
	for id, c := range h.conns {
		if id != skip && c.code == s.Code {
			h.deliver(c, data)
		}
	}
}

func (h *Hub) reply(c *client, out protocol.Outbound) {
	data, err := out.Encode()
	if err != nil {
		h.logger.Error("encoding reply", "conn", c.id, "error", err)
		return
	}
	h.deliver(c, data)
}

// deliver never blocks the loop. A client whose buffer is full is cut off;
// its reader reports the disconnect once the socket closes.
func (h *Hub) deliver(c *client, data []byte) {
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		h.logger.Debug("dropping slow client", "conn", c.id)
		c.dropped = true
		h.close(c)
	}
}

func (h *Hub) close(c *client) {
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (h *Hub) shutdown() {
	for _, rt := range h.timers {
		rt.t.Stop()
	}
	for _, c := range h.conns {
		h.close(c)
	}
}

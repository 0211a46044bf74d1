package protocol

import (
	"context"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/session"
)

// Result is the outcome of one applied inbound message. Joined is set for
// create_session and join_session, which bind the sender to PlayerID.
type Result struct {
	Session  *game.Session
	PlayerID string
	HostKey  string
	Joined   bool
}

// Reply is the message sent back to the client that sent the request.
func (r Result) Reply(now time.Time) Outbound {
	v := View(r.Session, now)
	if r.Joined {
		return Joined(r.Session.Code, r.PlayerID, r.HostKey, v)
	}
	return State(v)
}

// Apply routes in to the matching manager operation. polling is true for
// request/response callers, whose players are never marked connected.
func Apply(ctx context.Context, m *session.Manager, in Inbound, polling bool) (Result, error) {
	switch msg := in.(type) {
	case CreateSession:
		c, err := m.Create(ctx, session.CreateParams{
			Deck:     msg.Deck,
			Mode:     msg.Mode,
			Settings: msg.Settings,
			Host:     session.Host{Name: msg.Host.Name, UserID: msg.Host.UserID},
			Polling:  polling,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Session: c.Session, PlayerID: c.PlayerID, HostKey: c.HostKey, Joined: true}, nil

	case JoinSession:
		j, err := m.Join(ctx, session.JoinParams{
			Code:     msg.Code,
			Name:     msg.Name,
			UserID:   msg.UserID,
			HostKey:  msg.HostKey,
			PlayerID: msg.PlayerID,
			Polling:  polling,
		})
		if err != nil {
			return Result{}, err
		}
		return Result{Session: j.Session, PlayerID: j.PlayerID, HostKey: j.HostKey, Joined: true}, nil

	case StartGame:
		return state(m.Start(ctx, msg.Code, msg.PlayerID))
	case PauseGame:
		return state(m.Pause(ctx, msg.Code, msg.PlayerID))
	case ResumeGame:
		return state(m.Resume(ctx, msg.Code, msg.PlayerID))
	case EndGame:
		return state(m.End(ctx, msg.Code, msg.PlayerID))
	case SubmitAnswer:
		return state(m.Answer(ctx, msg.Code, msg.PlayerID, msg.Answer))
	case WordHeistChoice:
		return state(m.Choose(ctx, msg.Code, msg.PlayerID, msg.Choice))
	case WordHeistSteal:
		return state(m.Steal(ctx, msg.Code, msg.PlayerID, msg.TargetID))
	case RequestState:
		return state(m.State(ctx, msg.Code))
	}
	return Result{}, invalid("unsupported message %T", in)
}

func state(s *game.Session, err error) (Result, error) {
	if err != nil {
		return Result{}, err
	}
	return Result{Session: s}, nil
}

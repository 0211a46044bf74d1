package protocol

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/session"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

// SessionView is the session as clients see it. It never carries the host
// key or its hash.
type SessionView struct {
	Code        string                  `json:"code"`
	Status      game.Status             `json:"status"`
	Mode        game.Mode               `json:"mode"`
	Settings    game.Settings           `json:"settings"`
	Deck        game.Deck               `json:"deck"`
	Players     map[string]*game.Player `json:"players"`
	PlayerOrder []string                `json:"playerOrder"`
	State       game.ModeState          `json:"modeState"`
	HostID      string                  `json:"hostId"`
	CreatedAt   time.Time               `json:"createdAt"`
	StartedAt   *time.Time              `json:"startedAt,omitempty"`
	EndedAt     *time.Time              `json:"endedAt,omitempty"`
	ServerTime  time.Time               `json:"serverTime"`
}

// View projects s for clients. now lets them correct for clock skew when
// rendering round deadlines.
func View(s *game.Session, now time.Time) SessionView {
	return SessionView{
		Code:        s.Code,
		Status:      s.Status,
		Mode:        s.Mode,
		Settings:    s.Settings,
		Deck:        s.Deck,
		Players:     s.Players,
		PlayerOrder: s.PlayerOrder,
		State:       s.State,
		HostID:      s.HostID,
		CreatedAt:   s.CreatedAt,
		StartedAt:   s.StartedAt,
		EndedAt:     s.EndedAt,
		ServerTime:  now,
	}
}

type SessionJoined struct {
	Code     string      `json:"code"`
	PlayerID string      `json:"playerId"`
	HostKey  string      `json:"hostKey,omitempty"`
	Session  SessionView `json:"session"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// Outbound is a server-to-client message.
type Outbound struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

func Joined(code, playerID, hostKey string, v SessionView) Outbound {
	return Outbound{Type: TypeSessionJoined, Payload: SessionJoined{
		Code: code, PlayerID: playerID, HostKey: hostKey, Session: v,
	}}
}

func State(v SessionView) Outbound {
	return Outbound{Type: TypeSessionState, Payload: v}
}

func Error(msg string) Outbound {
	return Outbound{Type: TypeError, Payload: ErrorPayload{Message: msg}}
}

func (o Outbound) Encode() ([]byte, error) {
	return json.Marshal(o)
}

// Describe turns err into the message shown to the client. Only validation
// failures and scrubbed storage errors reveal detail.
func Describe(err error) string {
	var (
		ve session.ValidationError
		ue *store.UnavailableError
	)
	switch {
	case errors.Is(err, ErrInvalid):
		return err.Error()
	case errors.As(err, &ve):
		return ve.Error()
	case errors.Is(err, store.ErrNotFound):
		return "session not found"
	case errors.As(err, &ue):
		return ue.Message()
	case errors.Is(err, store.ErrUnavailable):
		return store.ErrUnavailable.Error()
	default:
		return "internal error"
	}
}

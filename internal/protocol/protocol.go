// Package protocol is the message taxonomy shared by the push and stateless
// transports. Inbound payloads are decoded into one concrete type per
// message and validated here, before they reach the session manager.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/derk-ster/StudyHatch-sub000/internal/engine"
	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

// ErrInvalid marks a malformed inbound message.
var ErrInvalid = errors.New("invalid message")

// Envelope is the wire frame of every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	TypeCreateSession   = "create_session"
	TypeJoinSession     = "join_session"
	TypeStartGame       = "start_game"
	TypePauseGame       = "pause_game"
	TypeResumeGame      = "resume_game"
	TypeEndGame         = "end_game"
	TypeSubmitAnswer    = "submit_answer"
	TypeWordHeistChoice = "word_heist_choice"
	TypeWordHeistSteal  = "word_heist_steal"
	TypeRequestState    = "request_state"

	TypeSessionJoined = "session_joined"
	TypeSessionState  = "session_state"
	TypeError         = "error"
)

// Inbound is implemented by every client-to-server message.
type Inbound interface{ inbound() }

type HostInfo struct {
	Name   string `json:"name"`
	UserID string `json:"userId"`
}

type CreateSession struct {
	Deck     game.Deck     `json:"deck"`
	Mode     game.Mode     `json:"mode"`
	Settings game.Settings `json:"settings"`
	Host     HostInfo      `json:"host"`
}

type JoinSession struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	UserID   string `json:"userId,omitempty"`
	HostKey  string `json:"hostKey,omitempty"`
	PlayerID string `json:"playerId,omitempty"`
}

// Ref addresses one player of one session.
type Ref struct {
	Code     string `json:"code"`
	PlayerID string `json:"playerId"`
}

type StartGame struct{ Ref }
type PauseGame struct{ Ref }
type ResumeGame struct{ Ref }
type EndGame struct{ Ref }

type SubmitAnswer struct {
	Ref
	Answer string `json:"answer"`
}

type WordHeistChoice struct {
	Ref
	Choice engine.Choice `json:"choice"`
}

type WordHeistSteal struct {
	Ref
	TargetID string `json:"targetId"`
}

type RequestState struct {
	Code string `json:"code"`
}

func (CreateSession) inbound()   {}
func (JoinSession) inbound()     {}
func (StartGame) inbound()       {}
func (PauseGame) inbound()       {}
func (ResumeGame) inbound()      {}
func (EndGame) inbound()         {}
func (SubmitAnswer) inbound()    {}
func (WordHeistChoice) inbound() {}
func (WordHeistSteal) inbound()  {}
func (RequestState) inbound()    {}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// Decode parses one envelope into its concrete message type.
func Decode(data []byte) (Inbound, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, invalid("malformed json")
	}
	return DecodeEnvelope(env)
}

// DecodeEnvelope validates env's payload against its type.
func DecodeEnvelope(env Envelope) (Inbound, error) {
	var (
		msg Inbound
		err error
	)
	switch env.Type {
	case TypeCreateSession:
		msg, err = decodeAs[CreateSession](env.Payload)
	case TypeJoinSession:
		msg, err = decodeAs[JoinSession](env.Payload)
	case TypeStartGame:
		msg, err = decodeAs[StartGame](env.Payload)
	case TypePauseGame:
		msg, err = decodeAs[PauseGame](env.Payload)
	case TypeResumeGame:
		msg, err = decodeAs[ResumeGame](env.Payload)
	case TypeEndGame:
		msg, err = decodeAs[EndGame](env.Payload)
	case TypeSubmitAnswer:
		msg, err = decodeAs[SubmitAnswer](env.Payload)
	case TypeWordHeistChoice:
		msg, err = decodeAs[WordHeistChoice](env.Payload)
	case TypeWordHeistSteal:
		msg, err = decodeAs[WordHeistSteal](env.Payload)
	case TypeRequestState:
		msg, err = decodeAs[RequestState](env.Payload)
	case "":
		return nil, invalid("type is required")
	default:
		return nil, invalid("unknown type %q", env.Type)
	}
	if err != nil {
		return nil, err
	}
	return msg, nil
}

type validator interface {
	normalize() error
}

func decodeAs[T any, P interface {
	*T
	validator
}](payload json.RawMessage) (Inbound, error) {
	var v T
	if len(payload) == 0 {
		return nil, invalid("payload is required")
	}
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, invalid("malformed payload")
	}
	if err := P(&v).normalize(); err != nil {
		return nil, err
	}
	return any(v).(Inbound), nil
}

// NormalizeCode upper-cases and trims a user-typed join code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// checkCode normalizes code in place. A code GenerateCode could never have
// drawn names no session, so it fails as not found rather than invalid.
func checkCode(code *string) error {
	*code = NormalizeCode(*code)
	if *code == "" {
		return invalid("code is required")
	}
	if !game.ValidCode(*code) {
		return fmt.Errorf("code %q: %w", *code, store.ErrNotFound)
	}
	return nil
}

func (m *CreateSession) normalize() error {
	if !m.Mode.Valid() {
		return invalid("unknown mode %q", m.Mode)
	}
	return nil
}

func (m *JoinSession) normalize() error {
	if err := checkCode(&m.Code); err != nil {
		return err
	}
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" && m.HostKey == "" && m.PlayerID == "" && m.UserID == "" {
		return invalid("name is required")
	}
	return nil
}

func (r *Ref) normalize() error {
	if err := checkCode(&r.Code); err != nil {
		return err
	}
	if r.PlayerID == "" {
		return invalid("playerId is required")
	}
	return nil
}

func (m *WordHeistChoice) normalize() error {
	if err := m.Ref.normalize(); err != nil {
		return err
	}
	if m.Choice != engine.ChoiceBank && m.Choice != engine.ChoiceRisk {
		return invalid("choice must be bank or risk")
	}
	return nil
}

func (m *WordHeistSteal) normalize() error {
	if err := m.Ref.normalize(); err != nil {
		return err
	}
	if m.TargetID == "" {
		return invalid("targetId is required")
	}
	return nil
}

func (m *RequestState) normalize() error {
	return checkCode(&m.Code)
}

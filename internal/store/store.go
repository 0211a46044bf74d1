// Package store persists one serialized session per join code.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrExists      = errors.New("session code already in use")
	ErrUnavailable = errors.New("storage unavailable")
)

// Store is the persistence contract of the lifecycle manager. Every Get
// returns a private copy; callers mutate it and write it back with Put.
type Store interface {
	Get(ctx context.Context, code string) (*game.Session, error)
	// Insert stores a new session and fails with ErrExists if the code is live.
	Insert(ctx context.Context, s *game.Session) error
	Put(ctx context.Context, s *game.Session) error
	Delete(ctx context.Context, code string) error
}

// Lister is implemented by stores that can enumerate their sessions.
type Lister interface {
	List(ctx context.Context) ([]*game.Session, error)
}

// UnavailableError reports a backend that could not be reached. Target is
// the connection string with credentials removed and is safe to show users.
type UnavailableError struct {
	Target string
	Err    error
}

func (e *UnavailableError) Error() string {
	if e.Err == nil {
		return e.Message()
	}
	return fmt.Sprintf("%s: %v", e.Message(), e.Err)
}

// Message is the client-facing description.
func (e *UnavailableError) Message() string {
	if e.Target == "" {
		return ErrUnavailable.Error()
	}
	return fmt.Sprintf("%s: %s", ErrUnavailable, e.Target)
}

func (e *UnavailableError) Is(target error) bool { return target == ErrUnavailable }

func (e *UnavailableError) Unwrap() error { return e.Err }

// Scrub strips user info from a connection URL. Unparseable input is
// replaced entirely since it may embed a password.
func Scrub(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "[redacted]"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}

func encode(s *game.Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding session %s: %w", s.Code, err)
	}
	return data, nil
}

func decode(data []byte) (*game.Session, error) {
	var s game.Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if s.Players == nil {
		s.Players = make(map[string]*game.Player)
	}
	if s.State.Answered == nil {
		s.State.Answered = make(map[string]bool)
	}
	return &s, nil
}

// Unavailable is the backend used when a deployment requires a shared store
// and none is configured. Every operation fails with ErrUnavailable.
type Unavailable struct {
	Reason string
}

func (u Unavailable) err() error {
	return &UnavailableError{Target: u.Reason}
}

func (u Unavailable) Get(context.Context, string) (*game.Session, error) { return nil, u.err() }
func (u Unavailable) Insert(context.Context, *game.Session) error        { return u.err() }
func (u Unavailable) Put(context.Context, *game.Session) error           { return u.err() }
func (u Unavailable) Delete(context.Context, string) error               { return u.err() }

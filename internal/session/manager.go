// Package session runs the game lifecycle on top of a store. Every operation
// is one read, tick, mutate, write cycle, so the push and stateless
// transports share the exact same semantics.
package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/derk-ster/StudyHatch-sub000/internal/engine"
	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

// ValidationError is a client mistake the caller may correct and retry.
type ValidationError string

func (e ValidationError) Error() string { return string(e) }

const (
	errEmptyDeck     = ValidationError("deck has no cards")
	errHostAnonymous = ValidationError("host must be signed in")
	errBadMode       = ValidationError("unknown game mode")
	errBadDirection  = ValidationError("unknown answer direction")
	errBadSettings   = ValidationError("settings must not be negative")
	errNameRequired  = ValidationError("name is required")
	errFull          = ValidationError("session is full")
	errNotOnRoster   = ValidationError("you are not on the classroom roster for this game")
	errEnded         = ValidationError("game has already ended")
	errHostOnly      = ValidationError("only the host can do that")
	errUnknownPlayer = ValidationError("player is not in this session")
	errBadHostKey    = ValidationError("invalid host key")
	errHostKeyNeeded = ValidationError("host key required to rejoin as host")
	errBadChoice     = ValidationError("choice must be bank or risk")
)

const maxCodeAttempts = 16

// Options tune a Manager. Zero values select production defaults.
type Options struct {
	Now      func() time.Time
	Rand     engine.Rand
	TTL      time.Duration
	Code     func() (string, error)
	HashCost int
}

type Manager struct {
	store    store.Store
	logger   *slog.Logger
	now      func() time.Time
	heist    engine.WordHeist
	ttl      time.Duration
	code     func() (string, error)
	hashCost int
}

func New(st store.Store, logger *slog.Logger, opts Options) *Manager {
	m := &Manager{
		store:    st,
		logger:   logger,
		now:      opts.Now,
		heist:    engine.WordHeist{Rand: opts.Rand},
		ttl:      opts.TTL,
		code:     opts.Code,
		hashCost: opts.HashCost,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.ttl <= 0 {
		m.ttl = game.DefaultTTL
	}
	if m.code == nil {
		m.code = game.GenerateCode
	}
	if m.hashCost == 0 {
		m.hashCost = bcrypt.DefaultCost
	}
	return m
}

// Now returns the manager's clock reading.
func (m *Manager) Now() time.Time { return m.now() }

// mutation applies one action to a freshly ticked session. It reports
// whether the session changed.
type mutation func(s *game.Session, now time.Time) (bool, error)

// update is the read, tick, mutate, write cycle. The session is written back
// when either the tick or the mutation changed it, even if the mutation
// returned an error.
func (m *Manager) update(ctx context.Context, code string, fn mutation) (*game.Session, error) {
	s, err := m.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	now := m.now()
	ticked := m.tick(s, now)
	changed, actErr := fn(s, now)
	if ticked || changed {
		s.UpdatedAt = now
		if err := m.store.Put(ctx, s); err != nil {
			m.logger.Error("saving session", "code", code, "error", err)
			return nil, err
		}
	}
	if actErr != nil {
		return nil, actErr
	}
	return s, nil
}

// Host identifies the authenticated user creating a session.
type Host struct {
	Name   string
	UserID string
}

type CreateParams struct {
	Deck     game.Deck
	Mode     game.Mode
	Settings game.Settings
	Host     Host
	// Polling is set by request/response callers. They hold no connection,
	// so the host record starts disconnected and the sweep can reclaim it.
	Polling bool
}

// Created is the result of a successful Create. HostKey is only ever
// returned here; the store keeps its bcrypt hash.
type Created struct {
	Code     string
	HostKey  string
	PlayerID string
	Session  *game.Session
}

// Create validates p, snapshots the deck and stores a new lobby under a
// fresh join code.
func (m *Manager) Create(ctx context.Context, p CreateParams) (Created, error) {
	if len(p.Deck.Cards) == 0 {
		return Created{}, errEmptyDeck
	}
	if p.Host.UserID == "" {
		return Created{}, errHostAnonymous
	}
	if !p.Mode.Valid() {
		return Created{}, errBadMode
	}
	settings, err := normalizeSettings(p.Settings)
	if err != nil {
		return Created{}, err
	}

	key, err := newHostKey()
	if err != nil {
		return Created{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), m.hashCost)
	if err != nil {
		return Created{}, fmt.Errorf("hashing host key: %w", err)
	}

	now := m.now()
	name := p.Host.Name
	if name == "" {
		name = "Host"
	}
	host := &game.Player{
		ID:        uuid.NewString(),
		Name:      name,
		UserID:    p.Host.UserID,
		IsHost:    true,
		Connected: !p.Polling,
		JoinedAt:  now,
	}
	host.Reset()

	s := &game.Session{
		Status:      game.StatusLobby,
		Mode:        p.Mode,
		Settings:    settings,
		Deck:        p.Deck.Snapshot(),
		State:       game.ModeState{Answered: make(map[string]bool)},
		HostID:      host.ID,
		HostKeyHash: string(hash),
		CreatedAt:   now,
		UpdatedAt:   now,
		TTL:         game.Duration(m.ttl),
	}
	s.AddPlayer(host)

	for range maxCodeAttempts {
		code, err := m.code()
		if err != nil {
			return Created{}, err
		}
		s.Code = code
		err = m.store.Insert(ctx, s)
		if errors.Is(err, store.ErrExists) {
			continue
		}
		if err != nil {
			return Created{}, err
		}
		m.logger.Info("session created", "code", code, "mode", s.Mode, "cards", len(s.Deck.Cards))
		return Created{Code: code, HostKey: key, PlayerID: host.ID, Session: s}, nil
	}
	return Created{}, fmt.Errorf("no free join code after %d attempts", maxCodeAttempts)
}

func normalizeSettings(st game.Settings) (game.Settings, error) {
	switch st.Direction {
	case "":
		st.Direction = game.DirectionPromptToAnswer
	case game.DirectionPromptToAnswer, game.DirectionAnswerToPrompt:
	default:
		return st, errBadDirection
	}
	if st.MaxPlayers < 0 || st.GameDurationMinutes < 0 || st.TimePerQuestion < 0 {
		return st, errBadSettings
	}
	if st.TimePerQuestion == 0 {
		st.TimePerQuestion = game.DefaultTimePerQuestion
	}
	return st, nil
}

func newHostKey() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating host key: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// State returns the ticked session, persisting any round advance the tick
// made. The push transport also calls it when a round timer fires.
func (m *Manager) State(ctx context.Context, code string) (*game.Session, error) {
	return m.update(ctx, code, func(*game.Session, time.Time) (bool, error) {
		return false, nil
	})
}

package session

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/derk-ster/StudyHatch-sub000/internal/engine"
	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

type JoinParams struct {
	Code     string
	Name     string
	UserID   string
	HostKey  string
	PlayerID string
	// Polling leaves the connected flag alone; see CreateParams.
	Polling bool
}

// Joined names the player record a join bound to. HostKey is echoed back
// only when the caller proved host ownership with it.
type Joined struct {
	PlayerID string
	HostKey  string
	Session  *game.Session
}

// Join adds a player or reattaches a returning one. A returning player is
// matched, in order, by host key, by player id, then by external user id.
func (m *Manager) Join(ctx context.Context, p JoinParams) (Joined, error) {
	var out Joined
	s, err := m.update(ctx, p.Code, func(s *game.Session, now time.Time) (bool, error) {
		if !s.Live() {
			return false, errEnded
		}
		player, err := rejoin(s, p)
		if err != nil {
			return false, err
		}
		if player == nil {
			if player, err = admit(s, p, now); err != nil {
				return false, err
			}
			m.logger.Info("player joined", "code", s.Code, "player", player.ID)
		}
		if !p.Polling {
			player.Connected = true
		}
		out.PlayerID = player.ID
		if player.IsHost {
			out.HostKey = p.HostKey
		}
		return true, nil
	})
	if err != nil {
		return Joined{}, err
	}
	out.Session = s
	return out, nil
}

// rejoin returns the existing record p reclaims, or nil for a new player.
func rejoin(s *game.Session, p JoinParams) (*game.Player, error) {
	if p.HostKey != "" {
		if bcrypt.CompareHashAndPassword([]byte(s.HostKeyHash), []byte(p.HostKey)) != nil {
			return nil, errBadHostKey
		}
		return s.Host(), nil
	}
	if existing, ok := s.Players[p.PlayerID]; ok {
		if existing.IsHost {
			return nil, errHostKeyNeeded
		}
		return existing, nil
	}
	if existing := s.PlayerByUserID(p.UserID); existing != nil {
		if existing.IsHost {
			return nil, errHostKeyNeeded
		}
		return existing, nil
	}
	return nil, nil
}

func admit(s *game.Session, p JoinParams, now time.Time) (*game.Player, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, errNameRequired
	}
	if limit := s.Settings.MaxPlayers; limit > 0 && len(s.Players)-1 >= limit {
		return nil, errFull
	}
	if s.Settings.ClassroomOnly && (p.UserID == "" || !slices.Contains(s.Settings.AllowedUserIDs, p.UserID)) {
		return nil, errNotOnRoster
	}
	player := &game.Player{
		ID:       uuid.NewString(),
		Name:     name,
		UserID:   p.UserID,
		JoinedAt: now,
	}
	player.Reset()
	s.AddPlayer(player)
	return player, nil
}

// hostAction runs fn for the host of code. Anyone else gets errHostOnly.
func (m *Manager) hostAction(ctx context.Context, code, playerID string, fn mutation) (*game.Session, error) {
	return m.update(ctx, code, func(s *game.Session, now time.Time) (bool, error) {
		if _, ok := s.Players[playerID]; !ok {
			return false, errUnknownPlayer
		}
		if playerID != s.HostID {
			return false, errHostOnly
		}
		return fn(s, now)
	})
}

// Start moves a lobby to playing, resetting every player to mode defaults and
// arming the first round in timed modes.
func (m *Manager) Start(ctx context.Context, code, playerID string) (*game.Session, error) {
	return m.hostAction(ctx, code, playerID, func(s *game.Session, now time.Time) (bool, error) {
		if s.Status != game.StatusLobby {
			m.logger.Debug("start ignored", "code", s.Code, "status", s.Status)
			return false, nil
		}
		engine.Reset(s)
		s.Status = game.StatusPlaying
		s.StartedAt = &now
		if s.Mode.Timed() {
			scheduleRound(s, now)
		}
		m.logger.Info("game started", "code", s.Code, "mode", s.Mode, "players", len(s.Players))
		return true, nil
	})
}

// Pause freezes a playing game, keeping whatever is left of the current round.
func (m *Manager) Pause(ctx context.Context, code, playerID string) (*game.Session, error) {
	return m.hostAction(ctx, code, playerID, func(s *game.Session, now time.Time) (bool, error) {
		return m.pause(s, now), nil
	})
}

func (m *Manager) pause(s *game.Session, now time.Time) bool {
	if s.Status != game.StatusPlaying {
		return false
	}
	s.Status = game.StatusPaused
	freezeRound(s, now)
	m.logger.Info("game paused", "code", s.Code, "remaining_ms", s.State.RemainingMs)
	return true
}

// Resume restarts a paused game with the round time it had left.
func (m *Manager) Resume(ctx context.Context, code, playerID string) (*game.Session, error) {
	return m.hostAction(ctx, code, playerID, func(s *game.Session, now time.Time) (bool, error) {
		if s.Status != game.StatusPaused {
			return false, nil
		}
		s.Status = game.StatusPlaying
		if s.Mode.Timed() {
			scheduleRound(s, now)
		}
		m.logger.Info("game resumed", "code", s.Code)
		return true, nil
	})
}

// End terminates the game immediately. Ending an ended game is a no-op.
func (m *Manager) End(ctx context.Context, code, playerID string) (*game.Session, error) {
	return m.hostAction(ctx, code, playerID, func(s *game.Session, now time.Time) (bool, error) {
		if !s.Live() {
			return false, nil
		}
		s.End(now)
		m.logger.Info("game ended", "code", s.Code, "reason", "host")
		return true, nil
	})
}

// Disconnect marks a player offline. Losing the host pauses a running game.
func (m *Manager) Disconnect(ctx context.Context, code, playerID string) (*game.Session, error) {
	return m.update(ctx, code, func(s *game.Session, now time.Time) (bool, error) {
		p, ok := s.Players[playerID]
		if !ok || !p.Connected {
			return false, nil
		}
		p.Connected = false
		if p.IsHost {
			m.pause(s, now)
		}
		return true, nil
	})
}

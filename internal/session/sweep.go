package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
	"github.com/derk-ster/StudyHatch-sub000/internal/store"
)

// Sweep deletes sessions whose last write is older than their TTL, once
// every player is disconnected or the game has ended. Stores that cannot list their sessions
// rely on native key expiry instead, and Sweep is a no-op for them.
func (m *Manager) Sweep(ctx context.Context) (int, error) {
	lister, ok := m.store.(store.Lister)
	if !ok {
		return 0, nil
	}
	sessions, err := lister.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing sessions: %w", err)
	}

	now := m.now()
	removed := 0
	for _, s := range sessions {
		if !s.Expired(now) || (s.Live() && s.AnyConnected()) {
			continue
		}
		err := m.store.Delete(ctx, s.Code)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return removed, fmt.Errorf("deleting session %s: %w", s.Code, err)
		}
		removed++
	}
	if removed > 0 {
		m.logger.Info("swept sessions", "count", removed)
	}
	return removed, nil
}

// Rehydrate prepares stored sessions after a push server restart. No socket
// survives a restart, so every player is marked disconnected; round
// deadlines are absolute and stay as stored. It returns the live sessions
// so the caller can re-arm their timers.
func (m *Manager) Rehydrate(ctx context.Context) ([]*game.Session, error) {
	lister, ok := m.store.(store.Lister)
	if !ok {
		return nil, nil
	}
	sessions, err := lister.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	now := m.now()
	var live []*game.Session
	for _, s := range sessions {
		if s.Expired(now) {
			continue
		}
		changed := m.tick(s, now)
		for _, p := range s.Players {
			if p.Connected {
				p.Connected = false
				changed = true
			}
		}
		if changed {
			s.UpdatedAt = now
			if err := m.store.Put(ctx, s); err != nil {
				return nil, fmt.Errorf("saving session %s: %w", s.Code, err)
			}
		}
		if s.Live() {
			live = append(live, s)
		}
	}
	m.logger.Info("rehydrated sessions", "live", len(live))
	return live, nil
}

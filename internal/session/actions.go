package session

import (
	"context"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/answer"
	"github.com/derk-ster/StudyHatch-sub000/internal/engine"
	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// playerAction runs fn for a known player of a playing game. Actions against
// a game that is not playing are ignored.
func (m *Manager) playerAction(ctx context.Context, code, playerID string, fn func(*game.Session, *game.Player, time.Time) bool) (*game.Session, error) {
	return m.update(ctx, code, func(s *game.Session, now time.Time) (bool, error) {
		p, ok := s.Players[playerID]
		if !ok {
			return false, errUnknownPlayer
		}
		if s.Status != game.StatusPlaying {
			m.logger.Debug("action ignored", "code", s.Code, "player", playerID, "status", s.Status)
			return false, nil
		}
		changed := fn(s, p, now)
		if !changed {
			m.logger.Debug("action ignored", "code", s.Code, "player", playerID)
		}
		if changed && !s.Live() {
			m.logger.Info("game ended", "code", s.Code, "reason", "mode rule")
		}
		return changed, nil
	})
}

// Answer scores a free-text answer against the player's current card.
func (m *Manager) Answer(ctx context.Context, code, playerID, text string) (*game.Session, error) {
	return m.playerAction(ctx, code, playerID, func(s *game.Session, p *game.Player, now time.Time) bool {
		if s.Mode == game.ModeWordHeist {
			card, ok := s.CardFor(p)
			if !ok {
				return false
			}
			return m.heist.Answer(s, p, answer.FuzzyMatch(text, s.Settings.Expected(card)), now)
		}

		rules := engine.ForMode(s.Mode)
		card, ok := s.CurrentRoundCard()
		if rules == nil || !ok || !rules.Eligible(p) {
			return false
		}
		if !rules.Answer(s, p, answer.FuzzyMatch(text, s.Settings.Expected(card)), now) {
			return false
		}
		m.completeRound(s, rules, now)
		return true
	})
}

// Choose resolves a Word Heist pending decision by banking or risking.
func (m *Manager) Choose(ctx context.Context, code, playerID string, choice engine.Choice) (*game.Session, error) {
	if choice != engine.ChoiceBank && choice != engine.ChoiceRisk {
		return nil, errBadChoice
	}
	return m.heistAction(ctx, code, playerID, func(s *game.Session, p *game.Player, now time.Time) bool {
		if choice == engine.ChoiceBank {
			return m.heist.Bank(s, p, now)
		}
		_, ok := m.heist.Risk(s, p, now)
		return ok
	})
}

// Steal resolves a Word Heist pending decision by targeting another
// player's banked keys.
func (m *Manager) Steal(ctx context.Context, code, playerID, targetID string) (*game.Session, error) {
	return m.heistAction(ctx, code, playerID, func(s *game.Session, p *game.Player, now time.Time) bool {
		return m.heist.Steal(s, p, targetID, now)
	})
}

func (m *Manager) heistAction(ctx context.Context, code, playerID string, fn func(*game.Session, *game.Player, time.Time) bool) (*game.Session, error) {
	return m.playerAction(ctx, code, playerID, func(s *game.Session, p *game.Player, now time.Time) bool {
		if s.Mode != game.ModeWordHeist {
			return false
		}
		return fn(s, p, now)
	})
}

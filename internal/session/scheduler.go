package session

import (
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/engine"
	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// tick brings s up to date with the wall clock: it enforces the total game
// duration and advances every round whose deadline has passed. It is the
// only place rounds advance on a deadline, so ticking the same stored
// snapshot twice at the same instant yields the same session.
func (m *Manager) tick(s *game.Session, now time.Time) bool {
	if !s.Live() || s.Status == game.StatusLobby {
		return false
	}
	if durationElapsed(s, now) {
		s.End(now)
		m.logger.Info("game ended", "code", s.Code, "reason", "duration elapsed")
		return true
	}
	if s.Status != game.StatusPlaying || !s.Mode.Timed() {
		return false
	}

	changed := false
	for s.Live() && s.State.RoundEndAt != nil && !now.Before(*s.State.RoundEndAt) {
		// The next deadline chains from the one that passed, not from now,
		// so slow polling skips rounds instead of stretching them.
		m.advanceRound(s, *s.State.RoundEndAt, now)
		changed = true
	}
	return changed
}

// advanceRound moves a timed session to its next card. from is the instant
// the next round starts; now stamps the end of the game.
func (m *Manager) advanceRound(s *game.Session, from, now time.Time) {
	clear(s.State.Answered)
	s.State.RoundIndex++
	if s.State.RoundIndex >= len(s.Deck.Cards) {
		s.End(now)
		m.logger.Info("game ended", "code", s.Code, "reason", "deck exhausted")
		return
	}
	scheduleRound(s, from)
	m.logger.Info("round advanced", "code", s.Code, "round", s.State.RoundIndex)
}

// scheduleRound arms the current round's deadline, honoring time captured
// by a pause.
func scheduleRound(s *game.Session, now time.Time) {
	full := s.Settings.RoundDuration()
	left := full
	if s.State.RemainingMs > 0 {
		left = time.Duration(s.State.RemainingMs) * time.Millisecond
		s.State.RemainingMs = 0
	}
	end := now.Add(left)
	s.State.RoundEndAt = &end
	s.State.RoundDurationMs = full.Milliseconds()
}

// freezeRound captures the time left in the current round and disarms it.
func freezeRound(s *game.Session, now time.Time) {
	if s.State.RoundEndAt == nil {
		return
	}
	s.State.RemainingMs = max(1, s.State.RoundEndAt.Sub(now).Milliseconds())
	s.State.RoundEndAt = nil
}

// completeRound advances a timed round early once every eligible player
// has answered it.
func (m *Manager) completeRound(s *game.Session, rules engine.Timed, now time.Time) {
	if s.Status == game.StatusPlaying && engine.RoundComplete(s, rules) {
		m.advanceRound(s, now, now)
	}
}

func gameDeadline(s *game.Session) (time.Time, bool) {
	if s.Settings.GameDurationMinutes <= 0 || s.StartedAt == nil {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(s.Settings.GameDurationMinutes) * time.Minute), true
}

func durationElapsed(s *game.Session, now time.Time) bool {
	end, ok := gameDeadline(s)
	return ok && !now.Before(end)
}

// NextDeadline is the next instant at which a tick would change s: the
// current round deadline or the end of the total game duration, whichever
// comes first.
func NextDeadline(s *game.Session) (time.Time, bool) {
	if s.Status != game.StatusPlaying && s.Status != game.StatusPaused {
		return time.Time{}, false
	}
	next, ok := gameDeadline(s)
	if s.Status == game.StatusPlaying && s.State.RoundEndAt != nil {
		if !ok || s.State.RoundEndAt.Before(next) {
			next, ok = *s.State.RoundEndAt, true
		}
	}
	return next, ok
}

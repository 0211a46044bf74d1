// Package engine holds the scoring rules of each game mode. Every rule is a
// function of (session, acting player, action) that mutates the session in
// place and reports whether anything changed.
package engine

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// Rand is the source of chance for risk draws, victim picks and coin flips.
type Rand interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// DefaultRand draws from math/rand/v2's global source.
var DefaultRand Rand = globalRand{}

// SpeedBonus maps the time left in a round to an integer in [0, MaxSpeedBonus].
func SpeedBonus(left, total time.Duration) int {
	if total <= 0 || left <= 0 {
		return 0
	}
	frac := math.Min(1, float64(left)/float64(total))
	return int(math.Round(frac * game.MaxSpeedBonus))
}

// Reset puts every player back to mode defaults and clears round state.
func Reset(s *game.Session) {
	for _, p := range s.Players {
		p.Reset()
	}
	s.State = game.ModeState{Answered: make(map[string]bool)}
}

// Timed is a rule engine for modes that share a round deadline.
type Timed interface {
	// Answer scores p's one answer for the current round.
	Answer(s *game.Session, p *game.Player, correct bool, now time.Time) bool
	// Eligible reports whether p still takes part in rounds.
	Eligible(p *game.Player) bool
}

// ForMode returns the timed rule engine for m, or nil for untimed modes.
func ForMode(m game.Mode) Timed {
	switch m {
	case game.ModeLightningLadder:
		return Ladder{}
	case game.ModeSurvivalSprint:
		return Survival{}
	}
	return nil
}

// RoundComplete reports whether every eligible player answered this round.
func RoundComplete(s *game.Session, rules Timed) bool {
	eligible := 0
	for _, p := range s.Players {
		if !rules.Eligible(p) {
			continue
		}
		eligible++
		if !s.State.Answered[p.ID] {
			return false
		}
	}
	return eligible > 0
}

// roundTime returns the time left and the full length of the current round.
func roundTime(s *game.Session, now time.Time) (left, total time.Duration, ok bool) {
	if s.State.RoundEndAt == nil {
		return 0, 0, false
	}
	total = time.Duration(s.State.RoundDurationMs) * time.Millisecond
	if total <= 0 {
		total = s.Settings.RoundDuration()
	}
	return s.State.RoundEndAt.Sub(now), total, true
}

// markAnswered records p's answer for the round; false if p already answered.
func markAnswered(s *game.Session, p *game.Player) bool {
	if s.State.Answered == nil {
		s.State.Answered = make(map[string]bool)
	}
	if s.State.Answered[p.ID] {
		return false
	}
	s.State.Answered[p.ID] = true
	return true
}

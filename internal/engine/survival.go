package engine

import (
	"fmt"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// Survival implements Survival Sprint: points for correct answers, a lost
// heart for each miss, last player standing ends the game.
type Survival struct{}

func (Survival) Eligible(p *game.Player) bool { return p.Hearts > 0 }

func (r Survival) Answer(s *game.Session, p *game.Player, correct bool, now time.Time) bool {
	if !r.Eligible(p) {
		return false
	}
	left, total, ok := roundTime(s, now)
	if !ok || !markAnswered(s, p) {
		return false
	}

	if correct {
		bonus := SpeedBonus(left, total)
		gain := 10 + bonus*5
		p.Correct++
		p.Score += gain
		p.Notify(game.TonePositive, fmt.Sprintf("Correct! +%d points.", gain))
	} else {
		p.Incorrect++
		p.Hearts = max(0, p.Hearts-1)
		if p.Hearts == 0 {
			p.Notify(game.ToneNegative, "Out of hearts. You're eliminated.")
		} else {
			p.Notify(game.ToneNegative, fmt.Sprintf("Wrong! %d hearts left.", p.Hearts))
		}
	}

	if lastStanding(s) {
		s.End(now)
	}
	return true
}

// lastStanding applies the elimination rule: with two or more players the
// game ends once at most one still has hearts; a solo game ends at zero.
func lastStanding(s *game.Session) bool {
	alive := 0
	for _, p := range s.Players {
		if p.Hearts > 0 {
			alive++
		}
	}
	if len(s.Players) < 2 {
		return alive == 0
	}
	return alive <= 1
}

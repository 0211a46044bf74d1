package engine

import (
	"fmt"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

// Ladder implements Lightning Ladder: climb 1 rung plus the speed bonus on a
// correct answer, slip one rung on a miss. The first player to the top wins.
type Ladder struct{}

func (Ladder) Eligible(*game.Player) bool { return true }

func (Ladder) Answer(s *game.Session, p *game.Player, correct bool, now time.Time) bool {
	left, total, ok := roundTime(s, now)
	if !ok || !markAnswered(s, p) {
		return false
	}

	if !correct {
		p.Incorrect++
		p.Ladder = max(0, p.Ladder-1)
		p.Notify(game.ToneNegative, "Wrong! You slipped down a rung.")
		return true
	}

	bonus := SpeedBonus(left, total)
	p.Correct++
	p.Ladder = min(game.LadderTop, p.Ladder+1+bonus)
	p.Score = p.Ladder
	if bonus > 0 {
		p.Notify(game.TonePositive, fmt.Sprintf("Correct! +%d rungs (speed bonus %d).", 1+bonus, bonus))
	} else {
		p.Notify(game.TonePositive, "Correct! +1 rung.")
	}

	if p.Ladder >= game.LadderTop {
		p.Notify(game.TonePositive, "You reached the top of the ladder!")
		s.End(now)
	}
	return true
}

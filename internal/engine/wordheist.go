package engine

import (
	"fmt"
	"time"

	"github.com/derk-ster/StudyHatch-sub000/internal/game"
)

type Choice string

const (
	ChoiceBank Choice = "bank"
	ChoiceRisk Choice = "risk"
)

type RiskOutcome string

const (
	OutcomeSteal    RiskOutcome = "steal"
	OutcomeDouble   RiskOutcome = "double"
	OutcomeLoseHalf RiskOutcome = "lose-half"
	OutcomeShield   RiskOutcome = "shield"
)

// RiskOutcomes is the order risk draws index into.
var RiskOutcomes = []RiskOutcome{OutcomeSteal, OutcomeDouble, OutcomeLoseHalf, OutcomeShield}

// WordHeist implements the untimed, turn-paced key heist. Each player works
// through the deck at their own pace and must bank or risk after every
// correct answer.
type WordHeist struct {
	Rand Rand
}

func (w WordHeist) rand() Rand {
	if w.Rand == nil {
		return DefaultRand
	}
	return w.Rand
}

// Answer scores p's answer to their current card.
func (w WordHeist) Answer(s *game.Session, p *game.Player, correct bool, now time.Time) bool {
	if p.PendingDecision || p.CurrentIndex >= len(s.Deck.Cards) {
		return false
	}
	if correct {
		p.Correct++
		p.Unbanked++
		p.PendingDecision = true
		p.Notify(game.TonePositive, "Correct! Bank your keys or risk them.")
		return true
	}
	p.Incorrect++
	p.PendingDecision = false
	p.CurrentIndex++
	p.Notify(game.ToneNegative, "Wrong answer. On to the next word.")
	w.finish(s, now)
	return true
}

// Bank moves every unbanked key into the vault.
func (w WordHeist) Bank(s *game.Session, p *game.Player, now time.Time) bool {
	if !p.PendingDecision {
		return false
	}
	banked := p.Unbanked
	p.Banked += banked
	p.Unbanked = 0
	p.PendingDecision = false
	p.CurrentIndex++
	p.Score = p.Banked
	p.Notify(game.TonePositive, fmt.Sprintf("Banked %d keys.", banked))
	w.finish(s, now)
	return true
}

// Risk draws one outcome uniformly from RiskOutcomes and applies it.
func (w WordHeist) Risk(s *game.Session, p *game.Player, now time.Time) (RiskOutcome, bool) {
	if !p.PendingDecision {
		return "", false
	}
	p.PendingDecision = false
	p.CurrentIndex++

	outcome := RiskOutcomes[w.rand().IntN(len(RiskOutcomes))]
	switch outcome {
	case OutcomeSteal:
		w.riskSteal(s, p)
	case OutcomeDouble:
		p.Unbanked = max(1, p.Unbanked) * 2
		p.Notify(game.TonePositive, fmt.Sprintf("Jackpot! Your keys doubled to %d.", p.Unbanked))
	case OutcomeLoseHalf:
		p.Unbanked /= 2
		p.Notify(game.ToneNegative, fmt.Sprintf("Ouch! You dropped half your keys. %d left.", p.Unbanked))
	case OutcomeShield:
		p.Shielded = true
		p.Notify(game.TonePositive, "Shield up! The next heist against you will fail.")
	}
	w.finish(s, now)
	return outcome, true
}

func (w WordHeist) riskSteal(s *game.Session, p *game.Player) {
	var victims []*game.Player
	for _, other := range s.Roster() {
		if other.ID != p.ID && other.Unbanked > 0 {
			victims = append(victims, other)
		}
	}
	if len(victims) == 0 {
		p.Notify(game.ToneNegative, "Heist failed. Nobody had keys to steal.")
		return
	}

	victim := victims[w.rand().IntN(len(victims))]
	if victim.Shielded {
		victim.Shielded = false
		p.Notify(game.ToneNegative, fmt.Sprintf("Heist blocked by %s's shield.", victim.Name))
		victim.Notify(game.TonePositive, fmt.Sprintf("Your shield blocked a heist from %s.", p.Name))
		return
	}

	stolen := max(1, min(2, victim.Unbanked))
	victim.Unbanked -= stolen
	p.Unbanked += stolen
	p.Notify(game.TonePositive, fmt.Sprintf("You stole %d keys from %s.", stolen, victim.Name))
	victim.Notify(game.ToneNegative, fmt.Sprintf("%s stole %d of your keys.", p.Name, stolen))
}

// Steal targets one player's banked keys on a coin flip.
func (w WordHeist) Steal(s *game.Session, p *game.Player, targetID string, now time.Time) bool {
	if !p.PendingDecision {
		return false
	}
	p.PendingDecision = false
	p.CurrentIndex++
	defer w.finish(s, now)

	target, ok := s.Players[targetID]
	if !ok || target.ID == p.ID {
		p.Notify(game.ToneNegative, "Steal failed. Pick another player.")
		return true
	}
	if target.Shielded {
		target.Shielded = false
		p.Notify(game.ToneNegative, fmt.Sprintf("Steal blocked by %s's shield.", target.Name))
		target.Notify(game.TonePositive, fmt.Sprintf("Your shield blocked a steal from %s.", p.Name))
		return true
	}
	if w.rand().IntN(2) != 0 {
		p.Notify(game.ToneNegative, fmt.Sprintf("Steal from %s failed.", target.Name))
		return true
	}
	if target.Banked == 0 {
		p.Notify(game.ToneNegative, fmt.Sprintf("%s has nothing banked to steal.", target.Name))
		return true
	}

	target.Banked--
	target.Score = target.Banked
	p.Banked++
	p.Score = p.Banked
	p.Notify(game.TonePositive, fmt.Sprintf("You stole a banked key from %s.", target.Name))
	target.Notify(game.ToneNegative, fmt.Sprintf("%s stole one of your banked keys.", p.Name))
	return true
}

// Finished reports whether every player has worked through the whole deck.
func Finished(s *game.Session) bool {
	if len(s.Players) == 0 {
		return false
	}
	for _, p := range s.Players {
		if p.CurrentIndex < len(s.Deck.Cards) {
			return false
		}
	}
	return true
}

func (w WordHeist) finish(s *game.Session, now time.Time) {
	if Finished(s) {
		s.End(now)
	}
}

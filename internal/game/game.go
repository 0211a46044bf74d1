// Package game defines the core domain types of a live quiz session.
// It has no external dependencies.
package game

import (
	"slices"
	"time"
)

type Status string

const (
	StatusLobby   Status = "lobby"
	StatusPlaying Status = "playing"
	StatusPaused  Status = "paused"
	StatusEnded   Status = "ended"
)

type Mode string

const (
	ModeWordHeist       Mode = "word-heist"
	ModeLightningLadder Mode = "lightning-ladder"
	ModeSurvivalSprint  Mode = "survival-sprint"
)

// Valid reports whether m is one of the supported game modes.
func (m Mode) Valid() bool {
	switch m {
	case ModeWordHeist, ModeLightningLadder, ModeSurvivalSprint:
		return true
	}
	return false
}

// Timed reports whether the mode runs on shared round deadlines.
func (m Mode) Timed() bool {
	return m == ModeLightningLadder || m == ModeSurvivalSprint
}

type Direction string

const (
	DirectionPromptToAnswer Direction = "prompt-to-answer"
	DirectionAnswerToPrompt Direction = "answer-to-prompt"
)

type Tone string

const (
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneNeutral  Tone = "neutral"
)

// Event is the last thing that happened to a player, shown in their UI.
type Event struct {
	Message string `json:"message"`
	Tone    Tone   `json:"tone"`
}

type Card struct {
	ID     string `json:"id"`
	Prompt string `json:"prompt"`
	Answer string `json:"answer"`
}

// Deck is an immutable snapshot of the source deck taken at session creation.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// Snapshot returns a deep copy so later edits to the source cannot leak in.
func (d Deck) Snapshot() Deck {
	cp := d
	cp.Cards = slices.Clone(d.Cards)
	return cp
}

type Settings struct {
	Direction           Direction `json:"direction"`
	TimePerQuestion     int       `json:"timePerQuestion"`
	MaxPlayers          int       `json:"maxPlayers,omitempty"`
	GameDurationMinutes int       `json:"gameDurationMinutes,omitempty"`
	ClassroomOnly       bool      `json:"classroomOnly,omitempty"`
	AllowedUserIDs      []string  `json:"allowedUserIds,omitempty"`
}

// Expected returns the side of the card the player has to type.
func (s Settings) Expected(c Card) string {
	if s.Direction == DirectionAnswerToPrompt {
		return c.Prompt
	}
	return c.Answer
}

// Shown returns the side of the card presented as the question.
func (s Settings) Shown(c Card) string {
	if s.Direction == DirectionAnswerToPrompt {
		return c.Answer
	}
	return c.Prompt
}

// RoundDuration is the full length of one timed round.
func (s Settings) RoundDuration() time.Duration {
	return time.Duration(s.TimePerQuestion) * time.Second
}

type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserID    string    `json:"userId,omitempty"`
	IsHost    bool      `json:"isHost"`
	Connected bool      `json:"connected"`
	JoinedAt  time.Time `json:"joinedAt"`

	Correct         int    `json:"correct"`
	Incorrect       int    `json:"incorrect"`
	Banked          int    `json:"banked"`
	Unbanked        int    `json:"unbanked"`
	Shielded        bool   `json:"shielded"`
	Ladder          int    `json:"ladder"`
	Hearts          int    `json:"hearts"`
	Score           int    `json:"score"`
	CurrentIndex    int    `json:"currentIndex"`
	PendingDecision bool   `json:"pendingDecision"`
	LastEvent       *Event `json:"lastEvent,omitempty"`
}

// Reset puts every per-mode field back to its starting value.
func (p *Player) Reset() {
	p.Correct = 0
	p.Incorrect = 0
	p.Banked = 0
	p.Unbanked = 0
	p.Shielded = false
	p.Ladder = 0
	p.Hearts = StartingHearts
	p.Score = 0
	p.CurrentIndex = 0
	p.PendingDecision = false
	p.LastEvent = nil
}

// Notify records the player's most recent event.
func (p *Player) Notify(tone Tone, msg string) {
	p.LastEvent = &Event{Message: msg, Tone: tone}
}

// ModeState is the per-round bookkeeping shared by all players.
type ModeState struct {
	RoundIndex      int             `json:"roundIndex"`
	RoundEndAt      *time.Time      `json:"roundEndAt,omitempty"`
	RoundDurationMs int64           `json:"roundDurationMs,omitempty"`
	RemainingMs     int64           `json:"remainingMs,omitempty"`
	Answered        map[string]bool `json:"answered"`
}

type Session struct {
	Code        string             `json:"code"`
	Status      Status             `json:"status"`
	Mode        Mode               `json:"mode"`
	Settings    Settings           `json:"settings"`
	Deck        Deck               `json:"deck"`
	Players     map[string]*Player `json:"players"`
	PlayerOrder []string           `json:"playerOrder"`
	State       ModeState          `json:"modeState"`
	HostID      string             `json:"hostId"`
	HostKeyHash string             `json:"hostKeyHash"`

	CreatedAt time.Time  `json:"createdAt"`
	StartedAt *time.Time `json:"startedAt,omitempty"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	UpdatedAt time.Time  `json:"updatedAt"`
	TTL       Duration   `json:"ttl"`
}

// Roster returns the players in join order.
func (s *Session) Roster() []*Player {
	out := make([]*Player, 0, len(s.PlayerOrder))
	for _, id := range s.PlayerOrder {
		if p, ok := s.Players[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

// AddPlayer appends p to the roster.
func (s *Session) AddPlayer(p *Player) {
	if s.Players == nil {
		s.Players = make(map[string]*Player)
	}
	s.Players[p.ID] = p
	s.PlayerOrder = append(s.PlayerOrder, p.ID)
}

// PlayerByUserID finds the player record for an authenticated user.
func (s *Session) PlayerByUserID(userID string) *Player {
	if userID == "" {
		return nil
	}
	for _, p := range s.Roster() {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// Host returns the host player, or nil for a malformed session.
func (s *Session) Host() *Player {
	return s.Players[s.HostID]
}

// Live reports whether the session can still change.
func (s *Session) Live() bool {
	return s.Status != StatusEnded
}

// AnyConnected reports whether at least one player holds a live connection.
func (s *Session) AnyConnected() bool {
	for _, p := range s.Players {
		if p.Connected {
			return true
		}
	}
	return false
}

// Expired reports whether the session's TTL has elapsed since its last write.
func (s *Session) Expired(now time.Time) bool {
	return s.TTL > 0 && now.Sub(s.UpdatedAt) >= time.Duration(s.TTL)
}

// CurrentRoundCard returns the card of the shared round in timed modes.
func (s *Session) CurrentRoundCard() (Card, bool) {
	if s.State.RoundIndex < 0 || s.State.RoundIndex >= len(s.Deck.Cards) {
		return Card{}, false
	}
	return s.Deck.Cards[s.State.RoundIndex], true
}

// CardFor returns the card a Word Heist player is working on.
func (s *Session) CardFor(p *Player) (Card, bool) {
	if p.CurrentIndex < 0 || p.CurrentIndex >= len(s.Deck.Cards) {
		return Card{}, false
	}
	return s.Deck.Cards[p.CurrentIndex], true
}

// End moves the session to its terminal state. Calling it twice is harmless.
func (s *Session) End(now time.Time) {
	if s.Status == StatusEnded {
		return
	}
	s.Status = StatusEnded
	s.EndedAt = &now
	s.State.RoundEndAt = nil
	s.State.RemainingMs = 0
	for _, p := range s.Players {
		p.PendingDecision = false
	}
}

package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by a DB when the requested excuse does not exist.
var ErrNotFound = errors.New("not found")

// A Tone is the register requested for a generated excuse.
type Tone string

const (
	ToneFunny      Tone = "funny"
	ToneBelievable Tone = "believable"
	ToneDramatic   Tone = "dramatic"
)

// Tones lists every valid tone in display order.
var Tones = []Tone{ToneFunny, ToneBelievable, ToneDramatic}

var toneDescriptions = map[Tone]string{
	ToneFunny:      "over-the-top hilarious, absurdly creative, and laugh-out-loud worthy",
	ToneBelievable: "realistic, professional, and convincingly plausible",
	ToneDramatic:   "theatrical, emotionally intense, and cinema-worthy",
}

// ParseTone returns the tone named by s.
func ParseTone(s string) (Tone, error) {
	t := Tone(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid tone %q", s)
	}
	return t, nil
}

// Valid reports whether t is one of the known tones.
func (t Tone) Valid() bool {
	_, ok := toneDescriptions[t]
	return ok
}

// Description returns the prompt wording for the tone.
func (t Tone) Description() string {
	return toneDescriptions[t]
}

// A Counter names one of the reaction counters stored on an excuse.
type Counter string

const (
	CounterLikes  Counter = "likes_count"
	CounterShares Counter = "shares_count"
	CounterCopies Counter = "copies_count"
)

// Valid reports whether c is a known counter column.
func (c Counter) Valid() bool {
	switch c {
	case CounterLikes, CounterShares, CounterCopies:
		return true
	}
	return false
}

// An InteractionType is the kind of reaction recorded in the interaction log.
type InteractionType string

const (
	InteractionLike  InteractionType = "like"
	InteractionShare InteractionType = "share"
	InteractionCopy  InteractionType = "copy"
)

// Counter returns the excuse counter an interaction of this type adjusts.
func (t InteractionType) Counter() Counter {
	switch t {
	case InteractionShare:
		return CounterShares
	case InteractionCopy:
		return CounterCopies
	default:
		return CounterLikes
	}
}

// An Excuse represents a persisted generated excuse.
type Excuse struct {
	ID          string    `json:"id"`
	Tone        Tone      `json:"tone"`
	Text        string    `json:"excuse_text"`
	Tips        string    `json:"excuse_tips,omitempty"`
	LikesCount  int       `json:"likes_count"`
	SharesCount int       `json:"shares_count"`
	CopiesCount int       `json:"copies_count"`
	UserID      string    `json:"user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// An Interaction is an append-only record of a user reacting to an excuse.
type Interaction struct {
	ID        string          `json:"id"`
	ExcuseID  string          `json:"excuse_id"`
	UserID    string          `json:"user_id,omitempty"`
	Type      InteractionType `json:"interaction_type"`
	CreatedAt time.Time       `json:"created_at"`
}

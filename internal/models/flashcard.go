package models

import (
	"math"
	"time"
)

const (
	// DefaultEaseFactor is the ease assigned to cards that have never been reviewed.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor no review may push ease below.
	MinEaseFactor = 1.3
)

// ReviewState is the scheduling state carried by every card.
type ReviewState struct {
	Box             int       `json:"box"`
	NextReviewAt    time.Time `json:"next_review_at"`
	IntervalMinutes float64   `json:"interval_minutes"`
	EaseFactor      float64   `json:"ease_factor"`
}

// NewReviewState returns the state of a freshly created card: due immediately.
func NewReviewState() ReviewState {
	return ReviewState{
		Box:          0,
		NextReviewAt: time.UnixMilli(0),
		EaseFactor:   DefaultEaseFactor,
	}
}

// Normalized returns s with out-of-range fields pulled back into range: a
// missing or NaN ease becomes the default, a low ease is raised to the floor,
// and a negative box or interval becomes zero.
func (s ReviewState) Normalized() ReviewState {
	switch {
	case s.EaseFactor == 0 || math.IsNaN(s.EaseFactor):
		s.EaseFactor = DefaultEaseFactor
	case s.EaseFactor < MinEaseFactor:
		s.EaseFactor = MinEaseFactor
	}
	if s.Box < 0 {
		s.Box = 0
	}
	if s.IntervalMinutes < 0 || math.IsNaN(s.IntervalMinutes) {
		s.IntervalMinutes = 0
	}
	return s
}

// IsDue reports whether the card should be shown at now.
func (s ReviewState) IsDue(now time.Time) bool {
	return !s.NextReviewAt.After(now)
}

type Card struct {
	ID        string      `json:"id"`
	DeckID    string      `json:"deck_id"`
	Front     string      `json:"front"`
	Back      string      `json:"back"`
	CreatedAt time.Time   `json:"created_at"`
	Review    ReviewState `json:"review"`
}

type Deck struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Color       string    `json:"color"`
	CreatedAt   time.Time `json:"created_at"`
	Cards       []Card    `json:"cards,omitempty"`
}

type ReviewHistory struct {
	ID              int64     `json:"id"`
	CardID          string    `json:"card_id"`
	Grade           Grade     `json:"grade"`
	Box             int       `json:"box"`
	IntervalMinutes float64   `json:"interval_minutes"`
	EaseFactor      float64   `json:"ease_factor"`
	ReviewedAt      time.Time `json:"reviewed_at"`
}

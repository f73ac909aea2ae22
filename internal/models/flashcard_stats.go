package models

import "time"

// DeckStats summarises the review state of a deck at a point in time.
type DeckStats struct {
	Total          int        `json:"total"`
	Ready          int        `json:"ready"`
	Learning       int        `json:"learning"`
	Review         int        `json:"review"`
	NextReviewTime *time.Time `json:"next_review_time"`
}

type DeckWithStats struct {
	Deck
	Stats DeckStats `json:"stats"`
}

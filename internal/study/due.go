package study

import (
	"math/rand"
	"time"

	"github.com/vytor/flashmind/internal/models"
)

// DueCards returns every card due at now in a fresh random order.
func DueCards(cards []models.Card, now time.Time, rng *rand.Rand) []models.Card {
	due := make([]models.Card, 0, len(cards))
	for _, c := range cards {
		if c.Review.IsDue(now) {
			due = append(due, c)
		}
	}
	shuffle(due, rng)
	return due
}

// NextDueAt returns the earliest review time strictly after now. The second
// result is false when the deck is empty or nothing is scheduled ahead.
func NextDueAt(cards []models.Card, now time.Time) (time.Time, bool) {
	var next time.Time
	found := false
	for _, c := range cards {
		at := c.Review.NextReviewAt
		if !at.After(now) {
			continue
		}
		if !found || at.Before(next) {
			next = at
			found = true
		}
	}
	return next, found
}

// Stats counts ready, learning and review cards in a deck.
func Stats(cards []models.Card, now time.Time) models.DeckStats {
	stats := models.DeckStats{Total: len(cards)}
	for _, c := range cards {
		if c.Review.IsDue(now) {
			stats.Ready++
		}
		if c.Review.Box == 0 {
			stats.Learning++
		} else {
			stats.Review++
		}
	}
	if next, ok := NextDueAt(cards, now); ok {
		stats.NextReviewTime = &next
	}
	return stats
}

func shuffle(cards []models.Card, rng *rand.Rand) {
	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if rng == nil {
		rand.Shuffle(len(cards), swap)
		return
	}
	rng.Shuffle(len(cards), swap)
}

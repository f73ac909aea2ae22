package study_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/study"
)

var errStoreDown = errors.New("store unavailable")

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock { return &fakeClock{now: t} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memStore is an in-memory deck with write-through commits.
type memStore struct {
	mu         sync.Mutex
	order      []string
	cards      map[string]models.Card
	commits    []string
	failCommit bool
	failRead   bool
}

func newMemStore(cards ...models.Card) *memStore {
	s := &memStore{cards: make(map[string]models.Card)}
	for _, c := range cards {
		s.add(c)
	}
	return s
}

func (s *memStore) add(c models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = append(s.order, c.ID)
	s.cards[c.ID] = c
}

func (s *memStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cards, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *memStore) get(id string) models.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cards[id]
}

func (s *memStore) DeckCards(_ context.Context, _ string) ([]models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRead {
		return nil, errStoreDown
	}
	out := make([]models.Card, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.cards[id])
	}
	return out, nil
}

func (s *memStore) CommitReview(_ context.Context, cardID string, state models.ReviewState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCommit {
		return errStoreDown
	}
	c, ok := s.cards[cardID]
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, study.ErrCardGone)
	}
	c.Review = state
	s.cards[cardID] = c
	s.commits = append(s.commits, cardID)
	return nil
}

func dueCard(id string, at time.Time) models.Card {
	return models.Card{
		ID:     id,
		DeckID: "deck",
		Front:  "front " + id,
		Back:   "back " + id,
		Review: models.ReviewState{NextReviewAt: at, EaseFactor: models.DefaultEaseFactor},
	}
}

func ids(cards []models.Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.ID)
	}
	return out
}

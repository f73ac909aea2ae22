package study

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/vytor/flashmind/internal/flashcard"
	"github.com/vytor/flashmind/internal/models"
)

// DeckSource returns a snapshot of a deck's cards.
type DeckSource interface {
	DeckCards(ctx context.Context, deckID string) ([]models.Card, error)
}

// CommitSink persists a card's new review state. A later DeckCards call
// must observe the write. A missing card is reported by wrapping ErrCardGone.
type CommitSink interface {
	CommitReview(ctx context.Context, cardID string, state models.ReviewState) error
}

// Store is the collaborator a session reads from and writes to.
type Store interface {
	DeckSource
	CommitSink
}

// Option configures a Session.
type Option func(*Session)

// WithClock replaces the wall clock.
func WithClock(c Clock) Option {
	return func(s *Session) {
		s.clock = c
	}
}

// WithRand sets the random source used to shuffle the due set.
func WithRand(r *rand.Rand) Option {
	return func(s *Session) {
		s.rng = r
	}
}

// Session is one learner's pass over a deck. It is safe for concurrent use.
type Session struct {
	mu    sync.Mutex
	store Store
	clock Clock
	rng   *rand.Rand

	deckID string
	cfg    models.SchedulingConfig

	state      State
	queue      []models.Card
	current    *models.Card
	revealed   bool
	nextDue    time.Time
	hasNextDue bool
	pending    int
	reviewed   int
	correct    int
	ended      bool
	lastActive time.Time
}

// View is a point-in-time copy of a session's observable state.
type View struct {
	DeckID    string
	State     State
	Current   *models.Card
	Revealed  bool
	Remaining int
	Pending   int
	Reviewed  int
	Correct   int

	// NextDueAt is set only while waiting. TimeUntilDue drops to zero once
	// it has passed and DueReached then tells the caller to Refresh.
	NextDueAt    *time.Time
	TimeUntilDue time.Duration
	DueReached   bool
}

// Start loads the deck, shuffles its due cards and shows the first one.
func Start(ctx context.Context, deckID string, cfg models.SchedulingConfig, store Store, opts ...Option) (*Session, error) {
	s := &Session{
		store:  store,
		clock:  SystemClock{},
		deckID: deckID,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if err := s.reload(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// DeckID returns the deck this session studies.
func (s *Session) DeckID() string { return s.deckID }

// Config returns the scheduling settings captured at start.
func (s *Session) Config() models.SchedulingConfig { return s.cfg }

// LastActive returns the last time a caller acted on the session.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// View returns the current observable state.
func (s *Session) View() (View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return View{}, ErrSessionEnded
	}

	now := s.clock.Now()
	v := View{
		DeckID:    s.deckID,
		State:     s.state,
		Revealed:  s.revealed,
		Remaining: len(s.queue),
		Pending:   s.pending,
		Reviewed:  s.reviewed,
		Correct:   s.correct,
	}
	if s.current != nil {
		c := *s.current
		v.Current = &c
	}
	if s.state == StateWaiting && s.hasNextDue {
		next := s.nextDue
		v.NextDueAt = &next
		if remaining := next.Sub(now); remaining > 0 {
			v.TimeUntilDue = remaining
		} else {
			v.DueReached = true
		}
	}
	return v, nil
}

// Reveal exposes the back of the current card.
func (s *Session) Reveal() (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return models.Card{}, ErrSessionEnded
	}
	if s.current == nil {
		return models.Card{}, ErrNoCurrentCard
	}
	s.revealed = true
	s.lastActive = s.clock.Now()
	return *s.current, nil
}

// Rate grades the revealed card, commits its new review state and moves on.
// Cards graded again go to the back of the queue for this pass. If the
// commit fails the session is left as it was. The rated card is returned
// with its new review state.
//
// A card deleted from the deck while shown is skipped: the grade is dropped,
// the session advances and the returned card is the zero value.
func (s *Session) Rate(ctx context.Context, grade models.Grade) (models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return models.Card{}, ErrSessionEnded
	}
	if !grade.IsValid() {
		return models.Card{}, fmt.Errorf("%w: %q", ErrInvalidGrade, string(grade))
	}
	if s.current == nil {
		return models.Card{}, ErrNoCurrentCard
	}
	if !s.revealed {
		return models.Card{}, ErrNotRevealed
	}

	now := s.clock.Now()
	updated := flashcard.Schedule(s.current.Review, grade, s.cfg, now)
	if err := s.store.CommitReview(ctx, s.current.ID, updated); err != nil {
		if errors.Is(err, ErrCardGone) {
			return models.Card{}, s.skipCurrent(ctx, now)
		}
		return models.Card{}, fmt.Errorf("commit review for card %s: %w", s.current.ID, err)
	}

	card := *s.current
	card.Review = updated
	s.reviewed++
	if grade == models.GradeAgain {
		s.queue = append(s.queue, card)
	} else {
		s.correct++
	}
	s.current = nil
	s.revealed = false
	s.lastActive = now

	if len(s.queue) > 0 {
		s.promote()
		return card, nil
	}

	return card, s.advance(ctx, now)
}

// skipCurrent drops a card that vanished from the deck and moves on.
func (s *Session) skipCurrent(ctx context.Context, now time.Time) error {
	s.current = nil
	s.revealed = false
	s.lastActive = now
	if len(s.queue) > 0 {
		s.promote()
		return nil
	}
	return s.advance(ctx, now)
}

// advance settles the session after the queue ran dry.
func (s *Session) advance(ctx context.Context, now time.Time) error {
	cards, err := s.store.DeckCards(ctx, s.deckID)
	if err != nil {
		// A Refresh resolves the resting state.
		s.state = StateWaiting
		s.hasNextDue = false
		return fmt.Errorf("reload deck %s: %w", s.deckID, err)
	}
	s.settle(cards, now)
	return nil
}

// PollDue counts cards that became due and are neither queued nor shown.
// The count is advisory and does not touch the queue.
func (s *Session) PollDue(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return 0, ErrSessionEnded
	}

	cards, err := s.store.DeckCards(ctx, s.deckID)
	if err != nil {
		return 0, fmt.Errorf("load deck %s: %w", s.deckID, err)
	}
	seen := make(map[string]struct{}, len(s.queue)+1)
	for _, c := range s.queue {
		seen[c.ID] = struct{}{}
	}
	if s.current != nil {
		seen[s.current.ID] = struct{}{}
	}

	now := s.clock.Now()
	count := 0
	for _, c := range cards {
		if _, ok := seen[c.ID]; ok {
			continue
		}
		if c.Review.IsDue(now) {
			count++
		}
	}
	s.pending = count
	return count, nil
}

// Refresh recomputes the due set and replaces the queue with it. The card
// being shown, if any, stays in place unless it was removed from the deck.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	s.lastActive = s.clock.Now()
	return s.reload(ctx)
}

// End closes the session. Every later call fails with ErrSessionEnded.
func (s *Session) End() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return ErrSessionEnded
	}
	s.ended = true
	s.queue = nil
	s.current = nil
	return nil
}

func (s *Session) reload(ctx context.Context) error {
	cards, err := s.store.DeckCards(ctx, s.deckID)
	if err != nil {
		return fmt.Errorf("load deck %s: %w", s.deckID, err)
	}
	now := s.clock.Now()
	if s.lastActive.IsZero() {
		s.lastActive = now
	}

	if s.current != nil {
		s.current = findCard(cards, s.current.ID)
		if s.current == nil {
			s.revealed = false
		}
	}

	due := DueCards(cards, now, s.rng)
	if s.current != nil {
		kept := due[:0]
		for _, c := range due {
			if c.ID != s.current.ID {
				kept = append(kept, c)
			}
		}
		due = kept
	}
	s.queue = due
	s.pending = 0

	if s.current != nil || len(s.queue) > 0 {
		s.promote()
		return nil
	}
	s.settle(cards, now)
	return nil
}

func findCard(cards []models.Card, id string) *models.Card {
	for _, c := range cards {
		if c.ID == id {
			return &c
		}
	}
	return nil
}

// promote makes the queue head current when nothing is being shown.
func (s *Session) promote() {
	if s.current == nil && len(s.queue) > 0 {
		head := s.queue[0]
		s.queue = s.queue[1:]
		s.current = &head
		s.revealed = false
	}
	s.state = StateActive
	s.hasNextDue = false
}

// settle picks the resting state once nothing is left to show.
func (s *Session) settle(cards []models.Card, now time.Time) {
	if len(cards) == 0 {
		s.state = StateEmpty
		s.hasNextDue = false
		return
	}
	s.nextDue, s.hasNextDue = NextDueAt(cards, now)
	if s.hasNextDue {
		s.state = StateWaiting
		return
	}
	s.state = StateCompleted
}

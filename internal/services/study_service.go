package services

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashmind/internal/errors"
	"github.com/vytor/flashmind/internal/flashcard"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
	"github.com/vytor/flashmind/internal/study"
)

// CardView is the card as shown to the learner. Back stays empty until the
// card is revealed.
type CardView struct {
	ID    string `json:"id"`
	Front string `json:"front"`
	Back  string `json:"back,omitempty"`
	Box   int    `json:"box"`
}

// GradePreview is what one grade button would schedule.
type GradePreview struct {
	IntervalMinutes float64   `json:"interval_minutes"`
	NextReviewAt    time.Time `json:"next_review_at"`
}

// SessionView is the JSON shape of a study session.
type SessionView struct {
	ID        string                        `json:"id"`
	DeckID    string                        `json:"deck_id"`
	State     study.State                   `json:"state"`
	Card      *CardView                     `json:"card,omitempty"`
	Revealed  bool                          `json:"revealed"`
	Previews  map[models.Grade]GradePreview `json:"previews,omitempty"`
	Remaining int                           `json:"remaining"`
	Pending   int                           `json:"pending"`
	Reviewed  int                           `json:"reviewed"`
	Correct   int                           `json:"correct"`

	NextDueAt        *time.Time `json:"next_due_at,omitempty"`
	TimeUntilDueMS   int64      `json:"time_until_due_ms"`
	DueReached       bool       `json:"due_reached"`
	CountdownEveryMS int64      `json:"countdown_every_ms"`
}

// StudyService owns the live study sessions.
type StudyService interface {
	Start(ctx context.Context, deckID string) (*SessionView, error)
	View(ctx context.Context, sessionID string) (*SessionView, error)
	Reveal(ctx context.Context, sessionID string) (*SessionView, error)
	Rate(ctx context.Context, sessionID string, grade string) (*SessionView, error)
	Refresh(ctx context.Context, sessionID string) (*SessionView, error)
	End(ctx context.Context, sessionID string) error
	// PollAll runs the advisory due poll on every live session and returns
	// how many were polled.
	PollAll(ctx context.Context) int
	// SweepExpired ends sessions idle longer than the TTL and returns how
	// many were removed.
	SweepExpired(ctx context.Context) int
	Count() int
}

// StudyOptions tunes a StudyService.
type StudyOptions struct {
	SessionTTL        time.Duration
	CountdownInterval time.Duration
	Clock             study.Clock
}

type studyService struct {
	decks    repository.DeckRepository
	cards    repository.CardRepository
	settings repository.SettingsRepository
	history  repository.ReviewHistoryRepository
	opts     StudyOptions

	mu       sync.Mutex
	sessions map[string]*study.Session
}

// NewStudyService creates a new StudyService
func NewStudyService(
	decks repository.DeckRepository,
	cards repository.CardRepository,
	settings repository.SettingsRepository,
	history repository.ReviewHistoryRepository,
	opts StudyOptions,
) StudyService {
	if opts.Clock == nil {
		opts.Clock = study.SystemClock{}
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 2 * time.Hour
	}
	if opts.CountdownInterval <= 0 {
		opts.CountdownInterval = time.Second
	}
	return &studyService{
		decks:    decks,
		cards:    cards,
		settings: settings,
		history:  history,
		opts:     opts,
		sessions: make(map[string]*study.Session),
	}
}

// deckStore reads and commits through the card repository.
type deckStore struct {
	cards repository.CardRepository
}

func (d deckStore) DeckCards(ctx context.Context, deckID string) ([]models.Card, error) {
	return d.cards.ListByDeck(ctx, deckID)
}

func (d deckStore) CommitReview(ctx context.Context, cardID string, state models.ReviewState) error {
	err := d.cards.CommitReview(ctx, cardID, state)
	if stderrors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("card %s: %w", cardID, study.ErrCardGone)
	}
	return err
}

func (s *studyService) Start(ctx context.Context, deckID string) (*SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("study_service")

	deck, err := s.decks.Get(ctx, deckID)
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", deckID)
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		log.Error("failed to load settings: %v", err)
		return nil, errors.NewInternalError(err)
	}

	sess, err := study.Start(ctx, deckID, cfg, deckStore{cards: s.cards}, study.WithClock(s.opts.Clock))
	if err != nil {
		log.Error("failed to start session: %v", err)
		return nil, errors.NewInternalError(err)
	}

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	log.WithFields(map[string]any{"session_id": id, "deck_id": deckID}).Info("study session started")
	return s.view(id, sess)
}

func (s *studyService) View(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.view(sessionID, sess)
}

func (s *studyService) Reveal(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := sess.Reveal(); err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return s.view(sessionID, sess)
}

func (s *studyService) Rate(ctx context.Context, sessionID string, raw string) (*SessionView, error) {
	log := logger.FromContext(ctx).WithPrefix("study_service").WithField("session_id", sessionID)

	grade, err := models.ParseGrade(raw)
	if err != nil {
		return nil, errors.NewValidationError("grade", "must be one of again, hard, good, easy")
	}
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	rated, err := sess.Rate(ctx, grade)
	switch {
	case rated.ID != "":
		// Review history is best-effort; the rating itself is committed.
		s.recordHistory(ctx, rated, grade)
		log.Debug("rated card %s %s: box=%d interval=%.1fm", rated.ID, grade, rated.Review.Box, rated.Review.IntervalMinutes)
	case err == nil:
		log.Info("skipped rating a card removed from the deck")
	}
	if err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return s.view(sessionID, sess)
}

func (s *studyService) Refresh(ctx context.Context, sessionID string) (*SessionView, error) {
	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Refresh(ctx); err != nil {
		return nil, s.sessionError(ctx, err)
	}
	return s.view(sessionID, sess)
}

func (s *studyService) End(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	sess, ok := s.sessions[sessionID]
	delete(s.sessions, sessionID)
	s.mu.Unlock()
	if !ok {
		return errors.NewNotFoundError("session", sessionID)
	}
	if err := sess.End(); err != nil {
		return s.sessionError(ctx, err)
	}
	logger.FromContext(ctx).WithPrefix("study_service").Info("study session ended: id=%s", sessionID)
	return nil
}

func (s *studyService) PollAll(ctx context.Context) int {
	log := logger.FromContext(ctx).WithPrefix("study_service")

	polled := 0
	for id, sess := range s.snapshot() {
		if ctx.Err() != nil {
			break
		}
		n, err := sess.PollDue(ctx)
		if err != nil {
			if !stderrors.Is(err, study.ErrSessionEnded) {
				log.Warn("due poll failed for session %s: %v", id, err)
			}
			continue
		}
		if n > 0 {
			log.Debug("session %s has %d newly due cards", id, n)
		}
		polled++
	}
	return polled
}

func (s *studyService) SweepExpired(ctx context.Context) int {
	cutoff := s.opts.Clock.Now().Add(-s.opts.SessionTTL)

	s.mu.Lock()
	var expired []*study.Session
	for id, sess := range s.sessions {
		if sess.LastActive().Before(cutoff) {
			expired = append(expired, sess)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, sess := range expired {
		_ = sess.End()
	}
	if len(expired) > 0 {
		logger.FromContext(ctx).WithPrefix("study_service").Info("swept %d idle sessions", len(expired))
	}
	return len(expired)
}

func (s *studyService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *studyService) snapshot() map[string]*study.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*study.Session, len(s.sessions))
	for id, sess := range s.sessions {
		out[id] = sess
	}
	return out
}

func (s *studyService) lookup(id string) (*study.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError("session", id)
	}
	return sess, nil
}

func (s *studyService) recordHistory(ctx context.Context, card models.Card, grade models.Grade) {
	_, err := s.history.Insert(ctx, models.ReviewHistory{
		CardID:          card.ID,
		Grade:           grade,
		Box:             card.Review.Box,
		IntervalMinutes: card.Review.IntervalMinutes,
		EaseFactor:      card.Review.EaseFactor,
		ReviewedAt:      s.opts.Clock.Now(),
	})
	if err != nil {
		logger.FromContext(ctx).WithPrefix("study_service").Warn("failed to store review history: %v", err)
	}
}

func (s *studyService) view(id string, sess *study.Session) (*SessionView, error) {
	v, err := sess.View()
	if err != nil {
		return nil, errors.NewConflictError(err)
	}
	out := &SessionView{
		ID:               id,
		DeckID:           v.DeckID,
		State:            v.State,
		Revealed:         v.Revealed,
		Remaining:        v.Remaining,
		Pending:          v.Pending,
		Reviewed:         v.Reviewed,
		Correct:          v.Correct,
		NextDueAt:        v.NextDueAt,
		TimeUntilDueMS:   v.TimeUntilDue.Milliseconds(),
		DueReached:       v.DueReached,
		CountdownEveryMS: s.opts.CountdownInterval.Milliseconds(),
	}
	if c := v.Current; c != nil {
		out.Card = &CardView{ID: c.ID, Front: c.Front, Box: c.Review.Box}
		if v.Revealed {
			out.Card.Back = c.Back
			out.Previews = previews(c.Review, sess.Config(), s.opts.Clock.Now())
		}
	}
	return out, nil
}

func previews(state models.ReviewState, cfg models.SchedulingConfig, now time.Time) map[models.Grade]GradePreview {
	out := make(map[models.Grade]GradePreview, len(models.Grades))
	for g, next := range flashcard.Preview(state, cfg, now) {
		out[g] = GradePreview{IntervalMinutes: next.IntervalMinutes, NextReviewAt: next.NextReviewAt}
	}
	return out
}

// sessionError translates study errors into application errors.
func (s *studyService) sessionError(ctx context.Context, err error) error {
	switch {
	case stderrors.Is(err, study.ErrSessionEnded),
		stderrors.Is(err, study.ErrNoCurrentCard),
		stderrors.Is(err, study.ErrNotRevealed):
		return errors.NewConflictError(err)
	case stderrors.Is(err, study.ErrInvalidGrade):
		return errors.NewValidationError("grade", err.Error())
	case stderrors.Is(err, repository.ErrNotFound):
		return errors.NewNotFoundError("card", "under review")
	}
	logger.FromContext(ctx).WithPrefix("study_service").Error("session operation failed: %v", err)
	return errors.NewInternalError(err)
}

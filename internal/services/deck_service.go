package services

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashmind/internal/errors"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
	"github.com/vytor/flashmind/internal/study"
)

// DefaultDeckColor is applied to decks created without a color.
const DefaultDeckColor = "bg-linear-to-r from-blue-500 to-cyan-500"

// DeckInput is the editable part of a deck. Cards with an ID that already
// belongs to the deck keep their review state; every other card starts new.
type DeckInput struct {
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Color       string      `json:"color"`
	Cards       []CardInput `json:"cards"`
}

type CardInput struct {
	ID    string `json:"id,omitempty"`
	Front string `json:"front"`
	Back  string `json:"back"`
}

// DeckService handles deck-related business logic
type DeckService interface {
	List(ctx context.Context) ([]models.DeckWithStats, error)
	Get(ctx context.Context, id string) (*models.DeckWithStats, error)
	Create(ctx context.Context, in DeckInput) (*models.Deck, error)
	Update(ctx context.Context, id string, in DeckInput) (*models.Deck, error)
	Delete(ctx context.Context, id string) error
	ImportCards(ctx context.Context, deckID string, data []byte) (int, error)
}

type deckService struct {
	decks repository.DeckRepository
	cards repository.CardRepository
	now   func() time.Time
}

// NewDeckService creates a new DeckService
func NewDeckService(decks repository.DeckRepository, cards repository.CardRepository) DeckService {
	return &deckService{decks: decks, cards: cards, now: time.Now}
}

func (s *deckService) List(ctx context.Context) ([]models.DeckWithStats, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	decks, err := s.decks.List(ctx)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, errors.NewInternalError(err)
	}
	cards, err := s.cards.ListAll(ctx)
	if err != nil {
		log.Error("failed to list cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	byDeck := make(map[string][]models.Card, len(decks))
	for _, c := range cards {
		byDeck[c.DeckID] = append(byDeck[c.DeckID], c)
	}

	now := s.now()
	out := make([]models.DeckWithStats, 0, len(decks))
	for _, d := range decks {
		out = append(out, models.DeckWithStats{Deck: d, Stats: study.Stats(byDeck[d.ID], now)})
	}
	log.Debug("listed %d decks", len(out))
	return out, nil
}

func (s *deckService) Get(ctx context.Context, id string) (*models.DeckWithStats, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	deck, err := s.loadDeck(ctx, id)
	if err != nil {
		return nil, err
	}
	cards, err := s.cards.ListByDeck(ctx, id)
	if err != nil {
		log.Error("failed to list deck cards: %v", err)
		return nil, errors.NewInternalError(err)
	}
	deck.Cards = cards
	return &models.DeckWithStats{Deck: *deck, Stats: study.Stats(cards, s.now())}, nil
}

func (s *deckService) Create(ctx context.Context, in DeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.NewValidationError("title", "is required")
	}

	now := s.now()
	deck := models.Deck{
		ID:          uuid.NewString(),
		Title:       title,
		Description: in.Description,
		Color:       in.Color,
		CreatedAt:   now,
	}
	if deck.Color == "" {
		deck.Color = DefaultDeckColor
	}
	deck.Cards = buildCards(deck.ID, in.Cards, nil, now)

	if err := s.decks.Insert(ctx, deck); err != nil {
		log.Error("failed to insert deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	log.Info("created deck: id=%s, cards=%d", deck.ID, len(deck.Cards))
	return &deck, nil
}

func (s *deckService) Update(ctx context.Context, id string, in DeckInput) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, errors.NewValidationError("title", "is required")
	}

	deck, err := s.loadDeck(ctx, id)
	if err != nil {
		return nil, err
	}
	existing, err := s.cards.ListByDeck(ctx, id)
	if err != nil {
		log.Error("failed to list deck cards: %v", err)
		return nil, errors.NewInternalError(err)
	}

	deck.Title = title
	deck.Description = in.Description
	if in.Color != "" {
		deck.Color = in.Color
	}
	known := make(map[string]models.Card, len(existing))
	for _, c := range existing {
		known[c.ID] = c
	}
	deck.Cards = buildCards(id, in.Cards, known, s.now())
	if err := s.decks.Update(ctx, *deck); err != nil {
		return nil, s.writeError(ctx, "deck", id, err)
	}
	log.Info("updated deck: id=%s, cards=%d", id, len(deck.Cards))
	return deck, nil
}

func (s *deckService) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	if err := s.decks.Delete(ctx, id); err != nil {
		return s.writeError(ctx, "deck", id, err)
	}
	log.Info("deleted deck: id=%s", id)
	return nil
}

// importedCard accepts both front/back and question/answer field names.
type importedCard struct {
	Front    string `json:"front"`
	Back     string `json:"back"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ImportCards appends the cards of a JSON array to a deck and returns how
// many were added. Entries missing either side are skipped.
func (s *deckService) ImportCards(ctx context.Context, deckID string, data []byte) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_service")

	var raw []importedCard
	if err := json.Unmarshal(data, &raw); err != nil {
		log.Debug("rejecting import: %v", err)
		return 0, errors.NewBadRequestError("import must be a JSON array of objects")
	}
	inputs := make([]CardInput, 0, len(raw))
	for _, r := range raw {
		front, back := r.Front, r.Back
		if front == "" {
			front = r.Question
		}
		if back == "" {
			back = r.Answer
		}
		inputs = append(inputs, CardInput{Front: front, Back: back})
	}

	if _, err := s.loadDeck(ctx, deckID); err != nil {
		return 0, err
	}
	cards := buildCards(deckID, inputs, nil, s.now())
	if len(cards) == 0 {
		return 0, errors.NewValidationError("cards", "no entry has both a front and a back")
	}
	if err := s.cards.InsertBatch(ctx, cards); err != nil {
		log.Error("failed to insert imported cards: %v", err)
		return 0, errors.NewInternalError(err)
	}
	log.Info("imported %d cards into deck %s (%d skipped)", len(cards), deckID, len(raw)-len(cards))
	return len(cards), nil
}

func (s *deckService) loadDeck(ctx context.Context, id string) (*models.Deck, error) {
	deck, err := s.decks.Get(ctx, id)
	if err != nil {
		logger.FromContext(ctx).Error("failed to get deck: %v", err)
		return nil, errors.NewInternalError(err)
	}
	if deck == nil {
		return nil, errors.NewNotFoundError("deck", id)
	}
	return deck, nil
}

func (s *deckService) writeError(ctx context.Context, resource, id string, err error) error {
	if stderrors.Is(err, repository.ErrNotFound) {
		return errors.NewNotFoundError(resource, id)
	}
	logger.FromContext(ctx).Error("failed to write %s %s: %v", resource, id, err)
	return errors.NewInternalError(err)
}

// buildCards turns inputs into cards of deckID, dropping entries without a
// front or back. Inputs whose ID is in known keep that card's review state;
// matched entries are removed from known.
func buildCards(deckID string, in []CardInput, known map[string]models.Card, now time.Time) []models.Card {
	cards := make([]models.Card, 0, len(in))
	for _, ci := range in {
		front, back := strings.TrimSpace(ci.Front), strings.TrimSpace(ci.Back)
		if front == "" || back == "" {
			continue
		}
		if prev, ok := known[ci.ID]; ok {
			prev.Front, prev.Back = front, back
			cards = append(cards, prev)
			delete(known, ci.ID)
			continue
		}
		cards = append(cards, models.Card{
			ID:        uuid.NewString(),
			DeckID:    deckID,
			Front:     front,
			Back:      back,
			CreatedAt: now,
			Review:    models.NewReviewState(),
		})
	}
	return cards
}

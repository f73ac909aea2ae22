package repository

import (
	"context"

	"github.com/vytor/flashmind/internal/models"
)

// DeckRepository handles deck data access
type DeckRepository interface {
	Get(ctx context.Context, id string) (*models.Deck, error)
	List(ctx context.Context) ([]models.Deck, error)
	Insert(ctx context.Context, deck models.Deck) error
	// Update writes the deck's fields and makes its card set equal to
	// deck.Cards in one transaction. Existing cards keep their review state.
	Update(ctx context.Context, deck models.Deck) error
	Delete(ctx context.Context, id string) error
	// ReplaceAll swaps every deck and card for the given set and stores cfg
	// as the scheduling settings, all in one transaction.
	ReplaceAll(ctx context.Context, decks []models.Deck, cfg models.SchedulingConfig) error
}

// CardRepository handles card data access
type CardRepository interface {
	Get(ctx context.Context, id string) (*models.Card, error)
	ListByDeck(ctx context.Context, deckID string) ([]models.Card, error)
	ListAll(ctx context.Context) ([]models.Card, error)
	InsertBatch(ctx context.Context, cards []models.Card) error
	Delete(ctx context.Context, id string) error
	CommitReview(ctx context.Context, cardID string, state models.ReviewState) error
}

// SettingsRepository stores the single scheduling configuration row
type SettingsRepository interface {
	Get(ctx context.Context) (models.SchedulingConfig, error)
	Save(ctx context.Context, cfg models.SchedulingConfig) error
}

// ReviewHistoryRepository records every grade submitted
type ReviewHistoryRepository interface {
	Insert(ctx context.Context, h models.ReviewHistory) (int64, error)
	ListByCard(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error)
}

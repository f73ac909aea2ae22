package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
)

type cardRepository struct {
	db *sql.DB
}

// NewCardRepository creates a new CardRepository implementation
func NewCardRepository(db *sql.DB) repository.CardRepository {
	return &cardRepository{db: db}
}

func (r *cardRepository) Get(ctx context.Context, id string) (*models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("getting card: id=%s", id)

	query, args, err := sqlBuilder.Select(cardColumns...).From("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	c, err := scanCard(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("card not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get card: %v", err)
		return nil, err
	}
	return &c, nil
}

func (r *cardRepository) ListByDeck(ctx context.Context, deckID string) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing cards: deck_id=%s", deckID)

	return r.list(ctx, sqlBuilder.Select(cardColumns...).
		From("cards").
		Where(squirrel.Eq{"deck_id": deckID}).
		OrderBy("position ASC", "created_at ASC"))
}

func (r *cardRepository) ListAll(ctx context.Context) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("listing all cards")

	return r.list(ctx, sqlBuilder.Select(cardColumns...).
		From("cards").
		OrderBy("deck_id ASC", "position ASC", "created_at ASC"))
}

func (r *cardRepository) list(ctx context.Context, q squirrel.SelectBuilder) ([]models.Card, error) {
	log := logger.FromContext(ctx).WithPrefix("card_repo")

	query, args, err := q.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query cards: %v", err)
		return nil, err
	}
	cards, err := scanCards(rows)
	if err != nil {
		log.Error("failed to scan card rows: %v", err)
		return nil, err
	}
	log.Debug("found %d cards", len(cards))
	return cards, nil
}

func (r *cardRepository) InsertBatch(ctx context.Context, cards []models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("batch inserting %d cards", len(cards))

	if len(cards) == 0 {
		return nil
	}
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		return insertCards(ctx, tx, cards)
	})
	if err != nil {
		log.Error("failed to insert cards: %v", err)
	}
	return err
}

func (r *cardRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("deleting card: id=%s", id)

	query, args, err := sqlBuilder.Delete("cards").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete card: %v", err)
		return err
	}
	return requireAffected(res)
}

// CommitReview writes a card's new review state.
func (r *cardRepository) CommitReview(ctx context.Context, cardID string, state models.ReviewState) error {
	log := logger.FromContext(ctx).WithPrefix("card_repo")
	log.Debug("committing review: id=%s, box=%d, interval=%.2fm, ease=%.2f",
		cardID, state.Box, state.IntervalMinutes, state.EaseFactor)

	query, args, err := sqlBuilder.Update("cards").
		Set("box", state.Box).
		Set("next_review_at", toMillis(state.NextReviewAt)).
		Set("interval_minutes", state.IntervalMinutes).
		Set("ease_factor", state.EaseFactor).
		Where(squirrel.Eq{"id": cardID}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to commit review: %v", err)
		return err
	}
	return requireAffected(res)
}

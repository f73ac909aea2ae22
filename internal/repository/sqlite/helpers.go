package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var cardColumns = []string{
	"id", "deck_id", "front", "back", "created_at",
	"box", "next_review_at", "interval_minutes", "ease_factor",
}

// Helper functions shared across repository implementations

func tx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) error {
	log := logger.FromContext(ctx).WithPrefix("repo")
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("failed to begin transaction: %v", err)
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		log.Debug("transaction rolled back due to error: %v", err)
		return err
	}
	if err := tx.Commit(); err != nil {
		log.Error("failed to commit transaction: %v", err)
		return err
	}
	log.Debug("transaction committed")
	return nil
}

// Instants are stored as Unix milliseconds.
func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms) }

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCard(row rowScanner) (models.Card, error) {
	var c models.Card
	var createdAt, nextReview int64
	err := row.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &createdAt,
		&c.Review.Box, &nextReview, &c.Review.IntervalMinutes, &c.Review.EaseFactor)
	if err != nil {
		return models.Card{}, err
	}
	c.CreatedAt = fromMillis(createdAt)
	c.Review.NextReviewAt = fromMillis(nextReview)
	return c, nil
}

func scanCards(rows *sql.Rows) ([]models.Card, error) {
	defer rows.Close()
	var cards []models.Card
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, err
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// insertCards appends cards after any cards their deck already holds.
func insertCards(ctx context.Context, tx *sql.Tx, cards []models.Card) error {
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO cards (id, deck_id, front, back, position, created_at, box, next_review_at, interval_minutes, ease_factor)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	next := make(map[string]int)
	for _, c := range cards {
		pos, ok := next[c.DeckID]
		if !ok {
			if err := tx.QueryRowContext(ctx,
				`SELECT COALESCE(MAX(position), -1) + 1 FROM cards WHERE deck_id = ?`, c.DeckID).Scan(&pos); err != nil {
				return err
			}
		}
		next[c.DeckID] = pos + 1

		if _, err := stmt.ExecContext(ctx, c.ID, c.DeckID, c.Front, c.Back, pos, toMillis(c.CreatedAt),
			c.Review.Box, toMillis(c.Review.NextReviewAt), c.Review.IntervalMinutes, c.Review.EaseFactor); err != nil {
			return err
		}
	}
	return nil
}

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

type deckRepository struct {
	db *sql.DB
}

// NewDeckRepository creates a new DeckRepository implementation
func NewDeckRepository(db *sql.DB) repository.DeckRepository {
	return &deckRepository{db: db}
}

func (r *deckRepository) Get(ctx context.Context, id string) (*models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("getting deck: id=%s", id)

	query, args, err := sqlBuilder.Select("id", "title", "description", "color", "created_at").
		From("decks").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	var d models.Deck
	var createdAt int64
	err = r.db.QueryRowContext(ctx, query, args...).Scan(&d.ID, &d.Title, &d.Description, &d.Color, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("deck not found: id=%s", id)
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get deck: %v", err)
		return nil, err
	}
	d.CreatedAt = fromMillis(createdAt)
	return &d, nil
}

func (r *deckRepository) List(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("listing decks")

	query, args, err := sqlBuilder.Select("id", "title", "description", "color", "created_at").
		From("decks").
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to list decks: %v", err)
		return nil, err
	}
	defer rows.Close()

	var decks []models.Deck
	for rows.Next() {
		var d models.Deck
		var createdAt int64
		if err := rows.Scan(&d.ID, &d.Title, &d.Description, &d.Color, &createdAt); err != nil {
			log.Error("failed to scan deck row: %v", err)
			return nil, err
		}
		d.CreatedAt = fromMillis(createdAt)
		decks = append(decks, d)
	}
	log.Debug("found %d decks", len(decks))
	return decks, rows.Err()
}

func (r *deckRepository) Insert(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("inserting deck: id=%s, cards=%d", d.ID, len(d.Cards))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if err := insertDeck(ctx, tx, d); err != nil {
			log.Error("failed to insert deck: %v", err)
			return err
		}
		if err := insertCards(ctx, tx, d.Cards); err != nil {
			log.Error("failed to insert deck cards: %v", err)
			return err
		}
		return nil
	})
}

func (r *deckRepository) Update(ctx context.Context, d models.Deck) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("updating deck: id=%s, cards=%d", d.ID, len(d.Cards))

	query, args, err := sqlBuilder.Update("decks").
		Set("title", d.Title).
		Set("description", d.Description).
		Set("color", d.Color).
		Where(squirrel.Eq{"id": d.ID}).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	return tx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			log.Error("failed to update deck: %v", err)
			return err
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		return syncCards(ctx, tx, d.ID, d.Cards)
	})
}

func (r *deckRepository) Delete(ctx context.Context, id string) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Debug("deleting deck: id=%s", id)

	query, args, err := sqlBuilder.Delete("decks").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete deck: %v", err)
		return err
	}
	return requireAffected(res)
}

func (r *deckRepository) ReplaceAll(ctx context.Context, decks []models.Deck, cfg models.SchedulingConfig) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")
	log.Info("replacing all decks: count=%d", len(decks))

	return tx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM cards`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM decks`); err != nil {
			return err
		}
		for _, d := range decks {
			if err := insertDeck(ctx, tx, d); err != nil {
				log.Error("failed to insert deck id=%s: %v", d.ID, err)
				return err
			}
			if err := insertCards(ctx, tx, d.Cards); err != nil {
				log.Error("failed to insert cards for deck id=%s: %v", d.ID, err)
				return err
			}
		}
		if err := upsertSettings(ctx, tx, cfg); err != nil {
			log.Error("failed to save settings: %v", err)
			return err
		}
		return nil
	})
}

// syncCards makes the deck's card set equal to cards. Cards that already
// exist keep their review state; only text and position are rewritten.
func syncCards(ctx context.Context, tx *sql.Tx, deckID string, cards []models.Card) error {
	log := logger.FromContext(ctx).WithPrefix("deck_repo")

	existing := make(map[string]bool)
	rows, err := tx.QueryContext(ctx, `SELECT id FROM cards WHERE deck_id = ?`, deckID)
	if err != nil {
		return err
	}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return err
		}
		existing[id] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	keep := make([]string, 0, len(cards))
	var added []models.Card
	for i, c := range cards {
		keep = append(keep, c.ID)
		if !existing[c.ID] {
			c.DeckID = deckID
			added = append(added, c)
			continue
		}
		query, args, err := sqlBuilder.Update("cards").
			Set("front", c.Front).
			Set("back", c.Back).
			Set("position", i).
			Where(squirrel.Eq{"id": c.ID, "deck_id": deckID}).
			ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			log.Error("failed to update card id=%s: %v", c.ID, err)
			return err
		}
	}

	del := sqlBuilder.Delete("cards").Where(squirrel.Eq{"deck_id": deckID})
	if len(keep) > 0 {
		del = del.Where(squirrel.NotEq{"id": keep})
	}
	query, args, err := del.ToSql()
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to delete removed cards: %v", err)
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		log.Debug("removed %d cards from deck", n)
	}

	return insertCards(ctx, tx, added)
}

func insertDeck(ctx context.Context, tx *sql.Tx, d models.Deck) error {
	query, args, err := sqlBuilder.Insert("decks").
		Columns("id", "title", "description", "color", "created_at").
		Values(d.ID, d.Title, d.Description, d.Color, toMillis(d.CreatedAt)).
		ToSql()
	if err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

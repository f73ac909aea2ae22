package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
)

type reviewHistoryRepository struct {
	db *sql.DB
}

// NewReviewHistoryRepository creates a new ReviewHistoryRepository implementation
func NewReviewHistoryRepository(db *sql.DB) repository.ReviewHistoryRepository {
	return &reviewHistoryRepository{db: db}
}

func (r *reviewHistoryRepository) Insert(ctx context.Context, h models.ReviewHistory) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("inserting review history: card_id=%s, grade=%s", h.CardID, h.Grade)

	query, args, err := sqlBuilder.Insert("review_history").
		Columns("card_id", "grade", "box", "interval_minutes", "ease_factor", "reviewed_at").
		Values(h.CardID, string(h.Grade), h.Box, h.IntervalMinutes, h.EaseFactor, toMillis(h.ReviewedAt)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert review history: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

func (r *reviewHistoryRepository) ListByCard(ctx context.Context, cardID string, limit int) ([]models.ReviewHistory, error) {
	log := logger.FromContext(ctx).WithPrefix("history_repo")
	log.Debug("listing review history: card_id=%s, limit=%d", cardID, limit)

	if limit <= 0 {
		limit = 50
	}
	query, args, err := sqlBuilder.Select("id", "card_id", "grade", "box", "interval_minutes", "ease_factor", "reviewed_at").
		From("review_history").
		Where(squirrel.Eq{"card_id": cardID}).
		OrderBy("reviewed_at DESC", "id DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query review history: %v", err)
		return nil, err
	}
	defer rows.Close()

	var out []models.ReviewHistory
	for rows.Next() {
		var h models.ReviewHistory
		var grade string
		var reviewedAt int64
		if err := rows.Scan(&h.ID, &h.CardID, &grade, &h.Box, &h.IntervalMinutes, &h.EaseFactor, &reviewedAt); err != nil {
			log.Error("failed to scan review history row: %v", err)
			return nil, err
		}
		h.Grade = models.Grade(grade)
		h.ReviewedAt = fromMillis(reviewedAt)
		out = append(out, h)
	}
	return out, rows.Err()
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
)

type settingsRepository struct {
	db *sql.DB
}

// NewSettingsRepository creates a new SettingsRepository implementation
func NewSettingsRepository(db *sql.DB) repository.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context) (models.SchedulingConfig, error) {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")

	var cfg models.SchedulingConfig
	err := r.db.QueryRowContext(ctx, `
SELECT again_minutes, hard_minutes, good_minutes, easy_days
FROM settings
WHERE id = 1
`).Scan(&cfg.AgainMinutes, &cfg.HardMinutes, &cfg.GoodMinutes, &cfg.EasyDays)
	if errors.Is(err, sql.ErrNoRows) {
		log.Debug("no settings row, using defaults")
		return models.DefaultSchedulingConfig(), nil
	}
	if err != nil {
		log.Error("failed to load settings: %v", err)
		return models.SchedulingConfig{}, err
	}
	return cfg, nil
}

func (r *settingsRepository) Save(ctx context.Context, cfg models.SchedulingConfig) error {
	log := logger.FromContext(ctx).WithPrefix("settings_repo")
	log.Debug("saving settings: again=%.2f, hard=%.2f, good=%.2f, easy_days=%.2f",
		cfg.AgainMinutes, cfg.HardMinutes, cfg.GoodMinutes, cfg.EasyDays)

	if err := upsertSettings(ctx, r.db, cfg); err != nil {
		log.Error("failed to save settings: %v", err)
		return err
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSettings(ctx context.Context, db execer, cfg models.SchedulingConfig) error {
	query, args, err := sqlBuilder.Insert("settings").
		Columns("id", "again_minutes", "hard_minutes", "good_minutes", "easy_days").
		Values(1, cfg.AgainMinutes, cfg.HardMinutes, cfg.GoodMinutes, cfg.EasyDays).
		Suffix(`ON CONFLICT(id) DO UPDATE SET
    again_minutes = excluded.again_minutes,
    hard_minutes = excluded.hard_minutes,
    good_minutes = excluded.good_minutes,
    easy_days = excluded.easy_days`).
		ToSql()
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, query, args...)
	return err
}

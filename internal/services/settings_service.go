package services

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/vytor/flashmind/internal/errors"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
)

// SettingsService handles the scheduling configuration
type SettingsService interface {
	Get(ctx context.Context) (models.SchedulingConfig, error)
	Save(ctx context.Context, cfg models.SchedulingConfig) error
	Validate(cfg models.SchedulingConfig) error
}

type settingsService struct {
	repo     repository.SettingsRepository
	validate *validator.Validate
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(repo repository.SettingsRepository) SettingsService {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(jsonFieldName)
	return &settingsService{repo: repo, validate: v}
}

func (s *settingsService) Get(ctx context.Context) (models.SchedulingConfig, error) {
	cfg, err := s.repo.Get(ctx)
	if err != nil {
		logger.FromContext(ctx).WithPrefix("settings_service").Error("failed to load settings: %v", err)
		return models.SchedulingConfig{}, errors.NewInternalError(err)
	}
	return cfg, nil
}

func (s *settingsService) Save(ctx context.Context, cfg models.SchedulingConfig) error {
	log := logger.FromContext(ctx).WithPrefix("settings_service")

	if err := s.Validate(cfg); err != nil {
		return err
	}
	if err := s.repo.Save(ctx, cfg); err != nil {
		log.Error("failed to save settings: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("saved settings: again=%gm hard=%gm good=%gm easy=%gd",
		cfg.AgainMinutes, cfg.HardMinutes, cfg.GoodMinutes, cfg.EasyDays)
	return nil
}

// Validate requires every interval to be positive. The first failing field
// is reported.
func (s *settingsService) Validate(cfg models.SchedulingConfig) error {
	err := s.validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return errors.NewValidationError(fe.Field(), fmt.Sprintf("must be greater than %s (got %v)", fe.Param(), fe.Value()))
	}
	return errors.NewBadRequestError(err.Error())
}

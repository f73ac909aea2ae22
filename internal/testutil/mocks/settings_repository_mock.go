package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/vytor/flashmind/internal/models"
)

// MockSettingsRepository is a mock implementation of repository.SettingsRepository
type MockSettingsRepository struct {
	mock.Mock
}

func (m *MockSettingsRepository) Get(ctx context.Context) (models.SchedulingConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).(models.SchedulingConfig), args.Error(1)
}

func (m *MockSettingsRepository) Save(ctx context.Context, cfg models.SchedulingConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

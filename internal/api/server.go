package api

import (
	"context"
	"time"

	"github.com/vytor/flashmind/internal/services"
)

// Pinger reports database reachability for the readiness probe.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Server struct {
	DB              Pinger
	DeckService     services.DeckService
	SettingsService services.SettingsService
	StudyService    services.StudyService
	BackupService   services.BackupService
	RequestTimeout  time.Duration
}

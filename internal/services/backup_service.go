package services

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/vytor/flashmind/internal/errors"
	"github.com/vytor/flashmind/internal/logger"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
)

// Backup is the portable export format. Instants are Unix milliseconds.
type Backup struct {
	Decks    []BackupDeck             `json:"decks"`
	Settings *models.SchedulingConfig `json:"settings"`
}

type BackupDeck struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Color       string       `json:"color"`
	Cards       []BackupCard `json:"cards"`
}

type BackupCard struct {
	ID        string    `json:"id"`
	Front     string    `json:"front"`
	Back      string    `json:"back"`
	CreatedAt int64     `json:"createdAt"`
	SRS       BackupSRS `json:"srs"`
}

type BackupSRS struct {
	Box        int     `json:"box"`
	NextReview int64   `json:"nextReview"`
	Interval   float64 `json:"interval"`
	EaseFactor float64 `json:"easeFactor"`
}

// CSVHeader is the first row of a CSV export.
var CSVHeader = []string{"Deck", "Question", "Answer", "Next Review", "Status"}

// BackupService exports and restores the whole collection
type BackupService interface {
	Export(ctx context.Context) (*Backup, error)
	ExportCSV(ctx context.Context, w io.Writer) error
	Restore(ctx context.Context, r io.Reader) error
}

type backupService struct {
	decks    repository.DeckRepository
	cards    repository.CardRepository
	settings SettingsService
}

// NewBackupService creates a new BackupService
func NewBackupService(decks repository.DeckRepository, cards repository.CardRepository, settings SettingsService) BackupService {
	return &backupService{decks: decks, cards: cards, settings: settings}
}

func (s *backupService) Export(ctx context.Context) (*Backup, error) {
	log := logger.FromContext(ctx).WithPrefix("backup_service")

	decks, err := s.collection(ctx)
	if err != nil {
		return nil, err
	}
	cfg, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}

	b := &Backup{Decks: make([]BackupDeck, 0, len(decks)), Settings: &cfg}
	for _, d := range decks {
		bd := BackupDeck{
			ID:          d.ID,
			Title:       d.Title,
			Description: d.Description,
			Color:       d.Color,
			Cards:       make([]BackupCard, 0, len(d.Cards)),
		}
		for _, c := range d.Cards {
			bd.Cards = append(bd.Cards, BackupCard{
				ID:        c.ID,
				Front:     c.Front,
				Back:      c.Back,
				CreatedAt: c.CreatedAt.UnixMilli(),
				SRS: BackupSRS{
					Box:        c.Review.Box,
					NextReview: c.Review.NextReviewAt.UnixMilli(),
					Interval:   c.Review.IntervalMinutes,
					EaseFactor: c.Review.EaseFactor,
				},
			})
		}
		b.Decks = append(b.Decks, bd)
	}
	log.Info("exported %d decks", len(b.Decks))
	return b, nil
}

func (s *backupService) ExportCSV(ctx context.Context, w io.Writer) error {
	decks, err := s.collection(ctx)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return errors.NewInternalError(err)
	}
	for _, d := range decks {
		for _, c := range d.Cards {
			status := "Review"
			if c.Review.Box == 0 {
				status = "Learning"
			}
			row := []string{d.Title, c.Front, c.Back, c.Review.NextReviewAt.UTC().Format(time.RFC3339), status}
			if err := cw.Write(row); err != nil {
				return errors.NewInternalError(err)
			}
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.NewInternalError(err)
	}
	return nil
}

// Restore replaces every deck and the settings with the contents of a
// backup. Nothing is written unless the whole file is valid.
func (s *backupService) Restore(ctx context.Context, r io.Reader) error {
	log := logger.FromContext(ctx).WithPrefix("backup_service")

	var b Backup
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		log.Debug("rejecting backup: %v", err)
		return errors.NewBadRequestError("backup is not valid JSON")
	}
	if b.Decks == nil || b.Settings == nil {
		return errors.NewBadRequestError("backup must contain decks and settings")
	}
	if err := s.settings.Validate(*b.Settings); err != nil {
		return err
	}

	decks := make([]models.Deck, 0, len(b.Decks))
	for _, bd := range b.Decks {
		d := models.Deck{
			ID:          bd.ID,
			Title:       bd.Title,
			Description: bd.Description,
			Color:       bd.Color,
			CreatedAt:   time.Now(),
		}
		if d.ID == "" {
			d.ID = uuid.NewString()
		}
		for _, bc := range bd.Cards {
			c := models.Card{
				ID:        bc.ID,
				DeckID:    d.ID,
				Front:     bc.Front,
				Back:      bc.Back,
				CreatedAt: time.UnixMilli(bc.CreatedAt),
				Review: models.ReviewState{
					Box:             bc.SRS.Box,
					NextReviewAt:    time.UnixMilli(bc.SRS.NextReview),
					IntervalMinutes: bc.SRS.Interval,
					EaseFactor:      bc.SRS.EaseFactor,
				}.Normalized(),
			}
			if c.ID == "" {
				c.ID = uuid.NewString()
			}
			d.Cards = append(d.Cards, c)
		}
		decks = append(decks, d)
	}

	if err := s.decks.ReplaceAll(ctx, decks, *b.Settings); err != nil {
		log.Error("failed to replace decks: %v", err)
		return errors.NewInternalError(err)
	}
	log.Info("restored %d decks", len(decks))
	return nil
}

// collection loads every deck with its cards.
func (s *backupService) collection(ctx context.Context) ([]models.Deck, error) {
	log := logger.FromContext(ctx).WithPrefix("backup_service")

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
	idx := make(map[string]int, len(decks))
	for i, d := range decks {
		idx[d.ID] = i
	}
	for _, c := range cards {
		if i, ok := idx[c.DeckID]; ok {
			decks[i].Cards = append(decks[i].Cards, c)
		}
	}
	return decks, nil
}

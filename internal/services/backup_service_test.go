package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/vytor/flashmind/internal/errors"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/repository"
	"github.com/vytor/flashmind/internal/repository/sqlite"
	"github.com/vytor/flashmind/internal/testutil"
)

type backupFixture struct {
	svc   BackupService
	decks repository.DeckRepository
	cards repository.CardRepository
}

func newBackupFixture(t *testing.T) *backupFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	t.Cleanup(func() { testutil.MustClose(t, db) })

	f := &backupFixture{decks: sqlite.NewDeckRepository(db), cards: sqlite.NewCardRepository(db)}
	f.svc = NewBackupService(f.decks, f.cards, NewSettingsService(sqlite.NewSettingsRepository(db)))
	return f
}

func (f *backupFixture) seed(t *testing.T) {
	t.Helper()
	reviewed := models.Card{
		ID: "c2", DeckID: "d1", Front: `say "hi"`, Back: "hola, amigo", CreatedAt: fixedNow,
		Review: models.ReviewState{Box: 2, IntervalMinutes: 25, EaseFactor: 2.35, NextReviewAt: fixedNow.Add(25 * time.Minute)},
	}
	fresh := models.Card{ID: "c1", DeckID: "d1", Front: "gato", Back: "cat", CreatedAt: fixedNow, Review: models.NewReviewState()}
	require.NoError(t, f.decks.Insert(context.Background(), models.Deck{
		ID: "d1", Title: "Spanish", Color: DefaultDeckColor, CreatedAt: fixedNow,
		Cards: []models.Card{fresh, reviewed},
	}))
}

func TestBackupService_ExportLayout(t *testing.T) {
	f := newBackupFixture(t)
	f.seed(t)

	b, err := f.svc.Export(context.Background())
	require.NoError(t, err)

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	var generic map[string]any
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "decks")
	assert.Contains(t, generic, "settings")

	require.Len(t, b.Decks, 1)
	require.Len(t, b.Decks[0].Cards, 2)
	srs := b.Decks[0].Cards[1].SRS
	assert.Equal(t, 2, srs.Box)
	assert.Equal(t, fixedNow.Add(25*time.Minute).UnixMilli(), srs.NextReview)
	assert.Equal(t, 25.0, srs.Interval)
	assert.Equal(t, 2.35, srs.EaseFactor)
	assert.Equal(t, int64(0), b.Decks[0].Cards[0].SRS.NextReview)
	assert.Equal(t, models.DefaultSchedulingConfig(), *b.Settings)
}

func TestBackupService_RestoreReplacesEverything(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t)
	f.seed(t)

	payload := `{
		"decks": [{
			"id": "d9", "title": "German", "description": "", "color": "green",
			"cards": [{"id": "g1", "front": "Hund", "back": "dog", "createdAt": 1700000000000,
				"srs": {"box": 1, "nextReview": 1700000600000, "interval": 10, "easeFactor": 2.5}}]
		}],
		"settings": {"againMinutes": 2, "hardMinutes": 6, "goodMinutes": 12, "easyDays": 5}
	}`
	require.NoError(t, f.svc.Restore(ctx, strings.NewReader(payload)))

	decks, err := f.decks.List(ctx)
	require.NoError(t, err)
	require.Len(t, decks, 1)
	assert.Equal(t, "German", decks[0].Title)

	card, err := f.cards.Get(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, card)
	assert.Equal(t, int64(1700000600000), card.Review.NextReviewAt.UnixMilli())
	assert.Equal(t, 1, card.Review.Box)

	b, err := f.svc.Export(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.SchedulingConfig{AgainMinutes: 2, HardMinutes: 6, GoodMinutes: 12, EasyDays: 5}, *b.Settings)
}

func TestBackupService_RestoreNormalizesReviewState(t *testing.T) {
	ctx := context.Background()
	f := newBackupFixture(t)

	payload := `{
		"decks": [{
			"id": "d1", "title": "Odd", "cards": [
				{"id": "low", "front": "q", "back": "a", "srs": {"box": -2, "interval": -5, "easeFactor": 0.5}},
				{"id": "missing", "front": "q", "back": "a", "srs": {"box": 1, "interval": 10}}
			]
		}],
		"settings": {"againMinutes": 1, "hardMinutes": 5, "goodMinutes": 10, "easyDays": 4}
	}`
	require.NoError(t, f.svc.Restore(ctx, strings.NewReader(payload)))

	low, err := f.cards.Get(ctx, "low")
	require.NoError(t, err)
	require.NotNil(t, low)
	assert.Equal(t, 0, low.Review.Box)
	assert.Equal(t, 0.0, low.Review.IntervalMinutes)
	assert.Equal(t, models.MinEaseFactor, low.Review.EaseFactor)

	missing, err := f.cards.Get(ctx, "missing")
	require.NoError(t, err)
	require.NotNil(t, missing)
	assert.Equal(t, models.DefaultEaseFactor, missing.Review.EaseFactor)
}

func TestBackupService_RestoreRejectsIncompleteFiles(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		code    string
	}{
		{"not json", `decks`, apperrors.ErrCodeBadRequest},
		{"missing settings", `{"decks": []}`, apperrors.ErrCodeBadRequest},
		{"missing decks", `{"settings": {"againMinutes": 1, "hardMinutes": 5, "goodMinutes": 10, "easyDays": 4}}`, apperrors.ErrCodeBadRequest},
		{"invalid settings", `{"decks": [], "settings": {"againMinutes": 0, "hardMinutes": 5, "goodMinutes": 10, "easyDays": 4}}`, apperrors.ErrCodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBackupFixture(t)
			f.seed(t)

			err := f.svc.Restore(context.Background(), strings.NewReader(tt.payload))
			requireAppError(t, err, tt.code)

			decks, err := f.decks.List(context.Background())
			require.NoError(t, err)
			assert.Len(t, decks, 1, "a rejected backup must not touch stored data")
		})
	}
}

func TestBackupService_ExportCSV(t *testing.T) {
	f := newBackupFixture(t)
	f.seed(t)

	var buf bytes.Buffer
	require.NoError(t, f.svc.ExportCSV(context.Background(), &buf))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{"Spanish", "gato", "cat", "1970-01-01T00:00:00Z", "Learning"}, rows[1])
	assert.Equal(t, `say "hi"`, rows[2][1])
	assert.Equal(t, "hola, amigo", rows[2][2])
	assert.Equal(t, "Review", rows[2][4])
}

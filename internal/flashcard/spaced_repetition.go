package flashcard

import (
	"math"
	"time"

	"github.com/vytor/flashmind/internal/models"
)

const (
	minEase          = models.MinEaseFactor
	minutesPerDay    = 24 * 60
	hardMultiplier   = 1.2
	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
	easyEaseBonus    = 0.15
)

// Schedule computes the review state that follows grading a card at now.
// It never fails: the input state is normalized first, and the config is
// trusted as given.
func Schedule(state models.ReviewState, grade models.Grade, cfg models.SchedulingConfig, now time.Time) models.ReviewState {
	state = state.Normalized()
	ease := state.EaseFactor
	interval := state.IntervalMinutes
	box := state.Box

	nextInterval := 0.0
	nextEase := ease
	nextBox := box

	switch grade {
	case models.GradeAgain:
		nextInterval = cfg.AgainMinutes
		nextEase = math.Max(minEase, ease-againEasePenalty)
		nextBox = 0
	case models.GradeHard:
		if interval == 0 {
			nextInterval = cfg.HardMinutes
		} else {
			nextInterval = interval * hardMultiplier
		}
		nextEase = math.Max(minEase, ease-hardEasePenalty)
		nextBox = max(0, box-1)
	case models.GradeGood:
		if interval == 0 {
			nextInterval = cfg.GoodMinutes
		} else {
			nextInterval = interval * ease
		}
		nextBox = box + 1
	case models.GradeEasy:
		nextInterval = cfg.EasyDays * minutesPerDay
		nextEase = ease + easyEaseBonus
		nextBox = box + 2
	}

	return models.ReviewState{
		Box:             nextBox,
		NextReviewAt:    now.Add(minutes(nextInterval)),
		IntervalMinutes: nextInterval,
		EaseFactor:      nextEase,
	}
}

// Preview returns the state each grade would produce, keyed by grade.
func Preview(state models.ReviewState, cfg models.SchedulingConfig, now time.Time) map[models.Grade]models.ReviewState {
	out := make(map[models.Grade]models.ReviewState, len(models.Grades))
	for _, g := range models.Grades {
		out[g] = Schedule(state, g, cfg, now)
	}
	return out
}

// maxMillis keeps the millisecond count convertible to a Duration.
const maxMillis = math.MaxInt64 / int64(time.Millisecond)

// minutes converts to a Duration at millisecond precision, saturating
// instead of wrapping for intervals beyond the Duration range.
func minutes(m float64) time.Duration {
	ms := math.Round(m * 60_000)
	if ms >= float64(maxMillis) {
		return time.Duration(maxMillis) * time.Millisecond
	}
	if ms <= 0 || math.IsNaN(ms) {
		return 0
	}
	return time.Duration(ms) * time.Millisecond
}

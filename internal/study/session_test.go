package study_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vytor/flashmind/internal/models"
	"github.com/vytor/flashmind/internal/study"
)

var sessionCfg = models.SchedulingConfig{AgainMinutes: 1, HardMinutes: 5, GoodMinutes: 10, EasyDays: 4}

func startSession(t *testing.T, store *memStore, clock *fakeClock) *study.Session {
	t.Helper()
	s, err := study.Start(context.Background(), "deck", sessionCfg, store,
		study.WithClock(clock),
		study.WithRand(rand.New(rand.NewSource(99))),
	)
	require.NoError(t, err)
	return s
}

func TestStart_EmptyDeck(t *testing.T) {
	clock := newFakeClock(baseTime)
	s := startSession(t, newMemStore(), clock)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateEmpty, v.State)
	assert.Nil(t, v.Current)
	assert.Nil(t, v.NextDueAt)

	_, err = s.Reveal()
	assert.ErrorIs(t, err, study.ErrNoCurrentCard)
}

func TestStart_WaitingWhenNothingDue(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(
		dueCard("a", baseTime.Add(20*time.Minute)),
		dueCard("b", baseTime.Add(5*time.Minute)),
	)
	s := startSession(t, store, clock)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateWaiting, v.State)
	require.NotNil(t, v.NextDueAt)
	assert.Equal(t, baseTime.Add(5*time.Minute), *v.NextDueAt)
	assert.Equal(t, 5*time.Minute, v.TimeUntilDue)
	assert.False(t, v.DueReached)
}

func TestRate_AgainRequeuesAtTail(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(
		dueCard("a", baseTime),
		dueCard("b", baseTime.Add(-time.Minute)),
		dueCard("c", time.UnixMilli(0)),
	)
	s := startSession(t, store, clock)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateActive, v.State)
	require.NotNil(t, v.Current)
	assert.Equal(t, 2, v.Remaining)
	first := v.Current.ID

	_, err = s.Reveal()
	require.NoError(t, err)
	rated, err := s.Rate(context.Background(), models.GradeAgain)
	require.NoError(t, err)
	assert.Equal(t, first, rated.ID)
	assert.Equal(t, baseTime.Add(60000*time.Millisecond), rated.Review.NextReviewAt)

	queue := s.QueueSnapshot()
	require.Len(t, queue, 2, "one card popped into current, one appended")
	tail := queue[len(queue)-1]
	assert.Equal(t, first, tail.ID)
	assert.Equal(t, baseTime.Add(time.Minute), tail.Review.NextReviewAt)
	assert.Equal(t, 0, tail.Review.Box)

	v, err = s.View()
	require.NoError(t, err)
	require.NotNil(t, v.Current)
	assert.NotEqual(t, first, v.Current.ID)
	assert.False(t, v.Revealed)
	assert.Equal(t, 1, v.Reviewed)
	assert.Equal(t, 0, v.Correct)

	assert.Equal(t, baseTime.Add(time.Minute), store.get(first).Review.NextReviewAt, "commit must reach the store")
}

func TestRate_GoodOnLastCardWaits(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("only", baseTime))
	s := startSession(t, store, clock)

	_, err := s.Reveal()
	require.NoError(t, err)
	_, err = s.Rate(context.Background(), models.GradeGood)
	require.NoError(t, err)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateWaiting, v.State)
	assert.Nil(t, v.Current)
	assert.Equal(t, 0, v.Remaining)
	require.NotNil(t, v.NextDueAt)
	assert.Equal(t, baseTime.Add(10*time.Minute), *v.NextDueAt)
	assert.Equal(t, 1, v.Correct)
}

func TestRate_RequiresReveal(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime))
	s := startSession(t, store, clock)

	_, err := s.Rate(context.Background(), models.GradeGood)
	assert.ErrorIs(t, err, study.ErrNotRevealed)
	assert.Empty(t, store.commits)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateActive, v.State)
	require.NotNil(t, v.Current)
	assert.Equal(t, 0, v.Reviewed)
}

func TestRate_InvalidGrade(t *testing.T) {
	clock := newFakeClock(baseTime)
	s := startSession(t, newMemStore(dueCard("a", baseTime)), clock)
	_, err := s.Reveal()
	require.NoError(t, err)

	_, err = s.Rate(context.Background(), models.Grade("meh"))
	assert.ErrorIs(t, err, study.ErrInvalidGrade)
}

func TestRate_CommitFailureLeavesSessionUntouched(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime), dueCard("b", baseTime))
	s := startSession(t, store, clock)
	before, err := s.View()
	require.NoError(t, err)
	_, err = s.Reveal()
	require.NoError(t, err)

	store.failCommit = true
	_, err = s.Rate(context.Background(), models.GradeEasy)
	assert.ErrorIs(t, err, errStoreDown)

	after, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, before.Current.ID, after.Current.ID)
	assert.True(t, after.Revealed)
	assert.Equal(t, before.Remaining, after.Remaining)
	assert.Equal(t, 0, after.Reviewed)
}

func TestRate_ClearsDeckToCompleted(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime), dueCard("b", baseTime))

	// Zero intervals leave every card due, so nothing lies in the future.
	s, err := study.Start(context.Background(), "deck", models.SchedulingConfig{}, store,
		study.WithClock(clock),
		study.WithRand(rand.New(rand.NewSource(1))),
	)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err := s.Reveal()
		require.NoError(t, err)
		_, err = s.Rate(context.Background(), models.GradeGood)
		require.NoError(t, err)
	}

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateCompleted, v.State)
	assert.Nil(t, v.NextDueAt)
	assert.Equal(t, 2, v.Reviewed)
}

func TestPollDue_CountsOnlyNewlyDueCards(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(
		dueCard("a", baseTime),
		dueCard("b", baseTime),
		dueCard("later", baseTime.Add(3*time.Minute)),
	)
	s := startSession(t, store, clock)

	n, err := s.PollDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, n, "queued and current cards are not pending")

	clock.Advance(5 * time.Minute)
	n, err = s.PollDue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, 1, v.Pending)
	assert.Equal(t, 1, v.Remaining, "poll must not alter the queue")
}

func TestRefresh_KeepsCurrentCard(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(
		dueCard("a", baseTime),
		dueCard("later", baseTime.Add(3*time.Minute)),
	)
	s := startSession(t, store, clock)
	_, err := s.Reveal()
	require.NoError(t, err)

	clock.Advance(5 * time.Minute)
	_, err = s.PollDue(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Refresh(context.Background()))

	v, err := s.View()
	require.NoError(t, err)
	require.NotNil(t, v.Current)
	assert.Equal(t, "a", v.Current.ID)
	assert.True(t, v.Revealed)
	assert.Equal(t, 1, v.Remaining)
	assert.Equal(t, 0, v.Pending)
	assert.Equal(t, []string{"later"}, ids(s.QueueSnapshot()))
}

func TestRefresh_DropsDeletedCurrentCard(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime), dueCard("b", baseTime))
	s := startSession(t, store, clock)
	first, err := s.Reveal()
	require.NoError(t, err)

	store.remove(first.ID)
	require.NoError(t, s.Refresh(context.Background()))

	v, err := s.View()
	require.NoError(t, err)
	require.NotNil(t, v.Current)
	assert.NotEqual(t, first.ID, v.Current.ID)
	assert.False(t, v.Revealed, "the replacement card starts hidden")
	assert.Equal(t, 0, v.Remaining)

	_, err = s.Reveal()
	require.NoError(t, err)
	_, err = s.Rate(context.Background(), models.GradeGood)
	require.NoError(t, err)

	v, err = s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateWaiting, v.State)
	assert.Equal(t, 1, v.Reviewed)
}

func TestRate_SkipsCardDeletedWhileShown(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime), dueCard("b", baseTime))
	s := startSession(t, store, clock)
	first, err := s.Reveal()
	require.NoError(t, err)

	store.remove(first.ID)
	rated, err := s.Rate(context.Background(), models.GradeGood)
	require.NoError(t, err)
	assert.Empty(t, rated.ID, "nothing was rated")

	v, err := s.View()
	require.NoError(t, err)
	require.NotNil(t, v.Current)
	assert.NotEqual(t, first.ID, v.Current.ID)
	assert.Equal(t, 0, v.Reviewed)

	// The last card vanishing as well settles the session.
	store.remove(v.Current.ID)
	_, err = s.Reveal()
	require.NoError(t, err)
	_, err = s.Rate(context.Background(), models.GradeGood)
	require.NoError(t, err)

	v, err = s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateEmpty, v.State)
	assert.Nil(t, v.Current)
	assert.Empty(t, store.commits)
}

func TestCountdown_RequiresExplicitRefresh(t *testing.T) {
	clock := newFakeClock(baseTime)
	store := newMemStore(dueCard("a", baseTime.Add(2*time.Second)))
	s := startSession(t, store, clock)

	clock.Advance(time.Second)
	v, err := s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateWaiting, v.State)
	assert.Equal(t, time.Second, v.TimeUntilDue)

	clock.Advance(2 * time.Second)
	v, err = s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateWaiting, v.State, "no automatic transition")
	assert.True(t, v.DueReached)
	assert.Equal(t, time.Duration(0), v.TimeUntilDue)

	require.NoError(t, s.Refresh(context.Background()))
	v, err = s.View()
	require.NoError(t, err)
	assert.Equal(t, study.StateActive, v.State)
	require.NotNil(t, v.Current)
	assert.Equal(t, "a", v.Current.ID)
}

func TestEnd_RejectsFurtherUse(t *testing.T) {
	clock := newFakeClock(baseTime)
	s := startSession(t, newMemStore(dueCard("a", baseTime)), clock)

	require.NoError(t, s.End())

	_, err := s.View()
	assert.ErrorIs(t, err, study.ErrSessionEnded)
	_, err = s.Reveal()
	assert.ErrorIs(t, err, study.ErrSessionEnded)
	_, err = s.Rate(context.Background(), models.GradeGood)
	assert.ErrorIs(t, err, study.ErrSessionEnded)
	_, err = s.PollDue(context.Background())
	assert.ErrorIs(t, err, study.ErrSessionEnded)
	assert.ErrorIs(t, s.Refresh(context.Background()), study.ErrSessionEnded)
	assert.ErrorIs(t, s.End(), study.ErrSessionEnded)
}

func TestStart_ReadFailure(t *testing.T) {
	store := newMemStore()
	store.failRead = true

	_, err := study.Start(context.Background(), "deck", sessionCfg, store)
	assert.ErrorIs(t, err, errStoreDown)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "empty", study.StateEmpty.String())
	assert.Equal(t, "waiting", study.StateWaiting.String())
	assert.Equal(t, "active", study.StateActive.String())
	assert.Equal(t, "completed", study.StateCompleted.String())
	assert.Equal(t, "State(9)", study.State(9).String())
}

func TestState_TextRoundTrip(t *testing.T) {
	var s study.State
	require.NoError(t, s.UnmarshalText([]byte("waiting")))
	assert.Equal(t, study.StateWaiting, s)
	assert.Error(t, s.UnmarshalText([]byte("paused")))
}

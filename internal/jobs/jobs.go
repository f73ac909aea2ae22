package jobs

import (
	"context"

	"github.com/vytor/flashmind/internal/logger"
)

const (
	duePollJobName = "due_poll"
	sweepJobName   = "sweep_sessions"
)

// SessionRunner is the part of the study service the background jobs drive.
type SessionRunner interface {
	PollAll(ctx context.Context) int
	SweepExpired(ctx context.Context) int
}

// DuePollJob refreshes the pending due count of every live session.
type DuePollJob struct {
	Sessions SessionRunner
}

func (j *DuePollJob) Name() string { return duePollJobName }

func (j *DuePollJob) Run(ctx context.Context) error {
	n := j.Sessions.PollAll(ctx)
	logger.FromContext(ctx).Debug("polled %d sessions", n)
	return ctx.Err()
}

// SweepSessionsJob drops sessions that have been idle too long.
type SweepSessionsJob struct {
	Sessions SessionRunner
}

func (j *SweepSessionsJob) Name() string { return sweepJobName }

func (j *SweepSessionsJob) Run(ctx context.Context) error {
	j.Sessions.SweepExpired(ctx)
	return ctx.Err()
}

package study

import "errors"

// Precondition violations. A call that returns one of these leaves the
// session untouched.
var (
	ErrSessionEnded  = errors.New("study: session has ended")
	ErrNoCurrentCard = errors.New("study: no card is being shown")
	ErrNotRevealed   = errors.New("study: card must be revealed before rating")
	ErrInvalidGrade  = errors.New("study: invalid grade")
)

// ErrCardGone is wrapped by a CommitSink when the card being committed no
// longer exists, typically because its deck was edited mid-session.
var ErrCardGone = errors.New("study: card no longer exists")

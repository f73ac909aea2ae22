package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidGrade is returned when a grade outside the closed set is parsed.
var ErrInvalidGrade = errors.New("invalid grade")

// Grade is the learner's self-reported recall difficulty.
type Grade string

const (
	GradeAgain Grade = "again"
	GradeHard  Grade = "hard"
	GradeGood  Grade = "good"
	GradeEasy  Grade = "easy"
)

// Grades lists every grade in button order.
var Grades = []Grade{GradeAgain, GradeHard, GradeGood, GradeEasy}

func (g Grade) String() string { return string(g) }

// IsValid reports whether g is one of again, hard, good or easy.
func (g Grade) IsValid() bool {
	switch g {
	case GradeAgain, GradeHard, GradeGood, GradeEasy:
		return true
	}
	return false
}

// ParseGrade accepts a grade name in any case.
func ParseGrade(s string) (Grade, error) {
	g := Grade(strings.ToLower(strings.TrimSpace(s)))
	if !g.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidGrade, s)
	}
	return g, nil
}

// MarshalText implements encoding.TextMarshaler.
func (g Grade) MarshalText() ([]byte, error) {
	if !g.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGrade, string(g))
	}
	return []byte(g), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (g *Grade) UnmarshalText(text []byte) error {
	v, err := ParseGrade(string(text))
	if err != nil {
		return err
	}
	*g = v
	return nil
}

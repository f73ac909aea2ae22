// Package study serves a deck's due cards to a learner one at a time.
//
// A Session moves between four states. It is Empty when the deck has no
// cards, Active while a card is being shown, Waiting when nothing is due but
// a future review time exists, and Completed when the deck was cleared and
// nothing is scheduled ahead. Sessions never change state on their own when
// time passes; callers poll PollDue and Countdown and ask for Refresh.
package study

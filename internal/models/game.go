package models

import (
	"time"

	"github.com/google/uuid"
)

type QuestionState string

const (
	StateNotAnswered QuestionState = "not_answered"
	StateAnswered    QuestionState = "answered"
	StateTimedOut    QuestionState = "timed_out"
	StateSkipped     QuestionState = "skipped"
	StateReported    QuestionState = "reported"
)

// Terminal reports whether the question has received its one terminal
// transition (guess, skip, timeout or report).
func (s QuestionState) Terminal() bool {
	return s != StateNotAnswered
}

type Game struct {
	ID         uuid.UUID `json:"id"`
	PlayerName string    `json:"player_name"`
	QuizLength int       `json:"quiz_length"`
	Tag        *string   `json:"tag"`
	CreatedAt  time.Time `json:"created_at"`
}

type Question struct {
	ID            uuid.UUID     `json:"id"`
	GameID        uuid.UUID     `json:"game_id"`
	Position      int           `json:"position"`
	TrackID       uuid.UUID     `json:"track_id"`
	State         QuestionState `json:"state"`
	GivenAnswerID *uuid.UUID    `json:"given_answer_id"`
	RemainingTime *float64      `json:"remaining_time"`
	Points        *float64      `json:"points"`
	CreatedAt     time.Time     `json:"created_at"`
}

// AnsweredCorrectly reports whether the player picked the correct track
// in time. A timed-out question is never correct, even if a stale given
// answer happens to match the correct one.
func (q *Question) AnsweredCorrectly() bool {
	if q.State == StateTimedOut {
		return false
	}
	return q.State == StateAnswered && q.GivenAnswerID != nil && *q.GivenAnswerID == q.TrackID
}

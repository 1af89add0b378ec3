package models

import (
	"time"

	"github.com/google/uuid"
)

type CreateGameRequest struct {
	PlayerName string `json:"player_name"`
	QuizLength int    `json:"quiz_length"`
	Tag        string `json:"tag"`
}

type GuessRequest struct {
	AnswerID      *uuid.UUID `json:"answer_id"`
	RemainingTime float64    `json:"remaining_time"`
	TimedOut      bool       `json:"timed_out"`
}

type TrackRequest struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
	Tag    string `json:"tag"`
	// YoutubeURL lets an admin paste a full video url; the code is
	// extracted server-side.
	YoutubeURL string `json:"youtube_url"`
}

type ChoiceItem struct {
	ID    uuid.UUID `json:"id"`
	Label string    `json:"label"`
}

type LeaderboardEntry struct {
	GameID         uuid.UUID `json:"game_id"`
	PlayerName     string    `json:"player_name"`
	TotalScore     float64   `json:"total_score"`
	CorrectAnswers int       `json:"correct_answers"`
	QuizLength     int       `json:"quiz_length"`
	CreatedAt      time.Time `json:"created_at"`
}

// WSMessage is the envelope pushed to websocket clients via redis pub/sub.
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// EnrichmentJob is the unit of work queued for the background workers.
type EnrichmentJob struct {
	ID      uuid.UUID `json:"id"`
	Type    string    `json:"type"`
	TrackID uuid.UUID `json:"track_id,omitempty"`
	Tag     string    `json:"tag,omitempty"`
	Limit   int       `json:"limit,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

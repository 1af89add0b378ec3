package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Track struct {
	ID              uuid.UUID `json:"id"`
	Artist          string    `json:"artist"`
	Title           string    `json:"title"`
	Tag             *string   `json:"tag"`
	YoutubeCode     *string   `json:"youtube_code"`
	YoutubeDuration *int      `json:"youtube_duration"`
	CreatedAt       time.Time `json:"created_at"`
}

// Playable reports whether the track carries a complete media reference.
// Only playable tracks may be served as quiz questions.
func (t *Track) Playable() bool {
	return t.YoutubeCode != nil && *t.YoutubeCode != "" && t.YoutubeDuration != nil && *t.YoutubeDuration > 0
}

// Label is the display name shown to players in answer choices.
func (t *Track) Label() string {
	return fmt.Sprintf("%s – %s", t.Artist, t.Title)
}

// TrackSimilarity is one direction of the symmetric similarity relation.
// Rows are always written in pairs, one per direction.
type TrackSimilarity struct {
	FirstID  uuid.UUID `json:"first_id"`
	SecondID uuid.UUID `json:"second_id"`
	Match    *float64  `json:"match"`
}

type SimilarTrack struct {
	Track
	Match *float64 `json:"match"`
}

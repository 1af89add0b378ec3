package services

import (
	"context"
	"errors"
	"log"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/repository"
)

// TrackEnricher resolves missing media references on demand. It
// implements quiz.Enricher: a lookup failure is not an error, the track
// just stays non-playable and drops out of the question pool.
type TrackEnricher struct {
	youtube *YouTubeService
	tracks  *repository.TrackRepo
}

func NewTrackEnricher(youtube *YouTubeService, tracks *repository.TrackRepo) *TrackEnricher {
	return &TrackEnricher{youtube: youtube, tracks: tracks}
}

func (e *TrackEnricher) Enrich(ctx context.Context, track *models.Track) error {
	if track.Playable() {
		return nil
	}

	code, duration, err := e.youtube.FindVideo(ctx, track.Artist, track.Title)
	if err != nil {
		if !errors.Is(err, ErrVideoNotFound) {
			log.Printf("Enrichment lookup failed for %s: %v", track.Label(), err)
		}
		return nil
	}

	if err := e.tracks.UpdateMedia(ctx, track.ID, code, duration); err != nil {
		return err
	}
	track.YoutubeCode = &code
	track.YoutubeDuration = &duration
	return nil
}

package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
)

// TrackCatalog is the slice of the track repository the library service
// needs; split out so tests can substitute it.
type TrackCatalog interface {
	GetOrCreate(ctx context.Context, artist, title string) (*models.Track, bool, error)
	CreateSimilarity(ctx context.Context, first, second uuid.UUID, match float64) error
	Update(ctx context.Context, t *models.Track) error
	CountPlayable(ctx context.Context, tag string) (int, error)
}

// LibraryService grows the track pool from the similarity collaborator:
// similar-track import for choice building and tag charts for tag-based
// games.
type LibraryService struct {
	lastfm *LastFMService
	tracks TrackCatalog
}

func NewLibraryService(lastfm *LastFMService, tracks TrackCatalog) *LibraryService {
	return &LibraryService{lastfm: lastfm, tracks: tracks}
}

// FetchSimilar imports tracks similar to the given one and records the
// symmetric similarity relation for each. Returns how many similarities
// were newly added; already-known pairs are skipped.
func (s *LibraryService) FetchSimilar(ctx context.Context, track *models.Track, limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("limit must not be negative: %w", quiz.ErrInvalidArgument)
	}

	results, err := s.lastfm.GetSimilarTracks(ctx, track.Artist, track.Title, limit)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, r := range results {
		other, _, err := s.tracks.GetOrCreate(ctx, r.Artist, r.Title)
		if err != nil {
			return added, err
		}
		err = s.tracks.CreateSimilarity(ctx, track.ID, other.ID, r.Match)
		if errors.Is(err, repository.ErrSimilarityExists) || errors.Is(err, quiz.ErrInvalidArgument) {
			continue
		}
		if err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// PopulateTag imports the tag's top tracks so that a tag game has a
// large enough pool. Returns the number of tracks created or newly
// tagged.
func (s *LibraryService) PopulateTag(ctx context.Context, tag string, limit int) (int, error) {
	if tag == "" || limit < 0 {
		return 0, fmt.Errorf("tag and limit are required: %w", quiz.ErrInvalidArgument)
	}

	refs, err := s.lastfm.GetTagTopTracks(ctx, tag, limit)
	if err != nil {
		return 0, err
	}

	added := 0
	for _, ref := range refs {
		track, _, err := s.tracks.GetOrCreate(ctx, ref.Artist, ref.Title)
		if err != nil {
			return added, err
		}
		// Never retag a track that already belongs to another chart.
		if track.Tag == nil || *track.Tag == "" {
			track.Tag = &tag
			if err := s.tracks.Update(ctx, track); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

// HasPoolFor reports whether enough playable tagged tracks exist to
// run a quiz of the given length.
func (s *LibraryService) HasPoolFor(ctx context.Context, tag string, quizLength int) (bool, error) {
	count, err := s.tracks.CountPlayable(ctx, tag)
	if err != nil {
		return false, err
	}
	return count >= quizLength, nil
}

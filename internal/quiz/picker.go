package quiz

import (
	"context"
	"math/rand"

	"github.com/google/uuid"

	"musicquiz-backend/internal/models"
)

// TrackSource is the slice of the persistence layer the quiz core needs.
type TrackSource interface {
	// ListCandidates returns all tracks whose id is not in exclude,
	// restricted to the given tag when tag is non-empty.
	ListCandidates(ctx context.Context, exclude []uuid.UUID, tag string) ([]models.Track, error)
	// GetTrack returns an error wrapping ErrNoTrack when no track has
	// the given id.
	GetTrack(ctx context.Context, id uuid.UUID) (*models.Track, error)
}

// Enricher fills in a missing media reference for a track and persists
// the result. A track left non-playable after enrichment simply drops
// out of the candidate pool; Enrich must not fail on "not found".
type Enricher interface {
	Enrich(ctx context.Context, track *models.Track) error
}

// Picker selects random playable tracks from the track pool.
type Picker struct {
	tracks   TrackSource
	enricher Enricher
	rnd      *rand.Rand
}

func NewPicker(tracks TrackSource, enricher Enricher, rnd *rand.Rand) *Picker {
	return &Picker{tracks: tracks, enricher: enricher, rnd: rnd}
}

// PickRandom returns a uniformly chosen track outside exclude that has a
// complete media reference, enriching lazily when the reference is
// missing. Tracks that stay non-playable after enrichment are dropped
// from the pool and the draw repeats on what remains, so the loop is
// bounded by the candidate count. Returns ErrNoTrack once the pool is
// exhausted.
func (p *Picker) PickRandom(ctx context.Context, exclude []uuid.UUID, tag string) (*models.Track, error) {
	candidates, err := p.tracks.ListCandidates(ctx, exclude, tag)
	if err != nil {
		return nil, err
	}

	for len(candidates) > 0 {
		i := p.rnd.Intn(len(candidates))
		track := candidates[i]

		if !track.Playable() && p.enricher != nil {
			if err := p.enricher.Enrich(ctx, &track); err != nil {
				return nil, err
			}
		}
		if track.Playable() {
			return &track, nil
		}

		candidates[i] = candidates[len(candidates)-1]
		candidates = candidates[:len(candidates)-1]
	}
	return nil, ErrNoTrack
}

package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
)

type fakeCatalog struct {
	tracks       map[string]*models.Track
	similarities map[[2]uuid.UUID]bool
	playable     int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		tracks:       make(map[string]*models.Track),
		similarities: make(map[[2]uuid.UUID]bool),
	}
}

func (f *fakeCatalog) GetOrCreate(_ context.Context, artist, title string) (*models.Track, bool, error) {
	key := artist + "\x00" + title
	if t, ok := f.tracks[key]; ok {
		return t, false, nil
	}
	t := &models.Track{ID: uuid.New(), Artist: artist, Title: title}
	f.tracks[key] = t
	return t, true, nil
}

func (f *fakeCatalog) CreateSimilarity(_ context.Context, first, second uuid.UUID, _ float64) error {
	if first == second {
		return quiz.ErrInvalidArgument
	}
	if f.similarities[[2]uuid.UUID{first, second}] {
		return repository.ErrSimilarityExists
	}
	f.similarities[[2]uuid.UUID{first, second}] = true
	f.similarities[[2]uuid.UUID{second, first}] = true
	return nil
}

func (f *fakeCatalog) Update(_ context.Context, t *models.Track) error {
	for _, existing := range f.tracks {
		if existing.ID == t.ID {
			*existing = *t
			return nil
		}
	}
	return errors.New("track not found")
}

func (f *fakeCatalog) CountPlayable(_ context.Context, _ string) (int, error) {
	return f.playable, nil
}

func TestFetchSimilar(t *testing.T) {
	srv := fixtureServer(t)
	catalog := newFakeCatalog()
	library := NewLibraryService(NewLastFMService("test-key", srv.URL), catalog)
	ctx := context.Background()

	source, _, _ := catalog.GetOrCreate(ctx, "Faithless", "Insomnia")

	added, err := library.FetchSimilar(ctx, source, 10)
	if err != nil {
		t.Fatalf("fetch similar: %v", err)
	}
	if added != 2 {
		t.Fatalf("expected 2 new similarities, got %d", added)
	}

	// A second run finds every pair already recorded.
	added, err = library.FetchSimilar(ctx, source, 10)
	if err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if added != 0 {
		t.Errorf("expected 0 new similarities on repeat, got %d", added)
	}
}

func TestFetchSimilarNegativeLimit(t *testing.T) {
	library := NewLibraryService(NewLastFMService("k", "http://unused"), newFakeCatalog())
	track := &models.Track{ID: uuid.New(), Artist: "a", Title: "a"}

	if _, err := library.FetchSimilar(context.Background(), track, -1); !errors.Is(err, quiz.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPopulateTag(t *testing.T) {
	srv := fixtureServer(t)
	catalog := newFakeCatalog()
	library := NewLibraryService(NewLastFMService("test-key", srv.URL), catalog)
	ctx := context.Background()

	// One of the chart tracks already exists with its own tag.
	existing, _, _ := catalog.GetOrCreate(ctx, "Kraftwerk", "The Model")
	krautrock := "krautrock"
	existing.Tag = &krautrock

	added, err := library.PopulateTag(ctx, "electronic", 50)
	if err != nil {
		t.Fatalf("populate tag: %v", err)
	}
	if added != 1 {
		t.Fatalf("expected 1 newly tagged track, got %d", added)
	}
	if *existing.Tag != "krautrock" {
		t.Errorf("existing tag must not be overwritten, got %q", *existing.Tag)
	}
}

func TestHasPoolFor(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.playable = 5
	library := NewLibraryService(nil, catalog)

	ok, err := library.HasPoolFor(context.Background(), "electronic", 5)
	if err != nil || !ok {
		t.Fatalf("expected pool of 5 to satisfy quiz length 5, got ok=%v err=%v", ok, err)
	}
	ok, _ = library.HasPoolFor(context.Background(), "electronic", 6)
	if ok {
		t.Errorf("expected pool of 5 to be insufficient for quiz length 6")
	}
}

package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"musicquiz-backend/internal/quiz"
)

func TestCreateSimilarityRejectsSelfPair(t *testing.T) {
	// The guard fires before any pool access, so no database is needed.
	repo := NewTrackRepo(nil)
	id := uuid.New()

	err := repo.CreateSimilarity(context.Background(), id, id, 1.0)
	if !errors.Is(err, quiz.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for a self pair, got %v", err)
	}
}

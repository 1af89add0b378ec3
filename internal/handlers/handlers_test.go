package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
)

// ─── Error Mapping Tests ───

func TestHandleQuizError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"pool exhausted", quiz.ErrNoTrack, http.StatusNotFound, "POOL_EXHAUSTED"},
		{"not started", quiz.ErrNotStarted, http.StatusNotFound, "NOT_STARTED"},
		{"already finished", quiz.ErrAlreadyFinished, http.StatusConflict, "GAME_FINISHED"},
		{"quiz exhausted", quiz.ErrQuizExhausted, http.StatusConflict, "QUIZ_EXHAUSTED"},
		{"unknown answer", quiz.ErrUnknownAnswer, http.StatusBadRequest, "UNKNOWN_ANSWER"},
		{"already answered", quiz.ErrAlreadyAnswered, http.StatusConflict, "ALREADY_ANSWERED"},
		{"invalid argument", quiz.ErrInvalidArgument, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"insufficient pool", quiz.ErrInsufficientPool, http.StatusConflict, "INSUFFICIENT_POOL"},
		{"game not found", repository.ErrGameNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"wrapped sentinel", errors.New("outer: " + quiz.ErrNoTrack.Error()), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/api/v1/games/current", nil)
			req.Header.Set("X-Request-ID", "req-123")

			handleQuizError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
			if resp.Error.RequestID != "req-123" {
				t.Errorf("Expected request_id 'req-123', got %q", resp.Error.RequestID)
			}
		})
	}
}

func TestHandleQuizError_WrappedErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/games", nil)

	wrapped := fmt.Errorf("loading track: %w", quiz.ErrNoTrack)
	handleQuizError(rr, req, wrapped)

	if rr.Code != http.StatusNotFound {
		t.Errorf("Expected wrapped sentinel to map to 404, got %d", rr.Code)
	}
}

// ─── JSON Response Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "created"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "created" {
		t.Errorf("Expected message 'created', got %q", result["message"])
	}
}

// ─── Request Parsing Tests ───

func TestCreateGameRequestParsing(t *testing.T) {
	body := []byte(`{"player_name": "Ada", "quiz_length": 5, "tag": "krautrock"}`)

	var req models.CreateGameRequest
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&req); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}

	if req.PlayerName != "Ada" {
		t.Errorf("Expected player_name 'Ada', got %q", req.PlayerName)
	}
	if req.QuizLength != 5 {
		t.Errorf("Expected quiz_length 5, got %d", req.QuizLength)
	}
	if req.Tag != "krautrock" {
		t.Errorf("Expected tag 'krautrock', got %q", req.Tag)
	}
}

func TestGuessRequestParsing(t *testing.T) {
	id := uuid.New()

	tests := []struct {
		name         string
		body         string
		wantAnswer   *uuid.UUID
		wantTimedOut bool
	}{
		{"with answer", `{"answer_id": "` + id.String() + `", "remaining_time": 12.5}`, &id, false},
		{"timeout without answer", `{"timed_out": true}`, nil, true},
		{"empty body fields", `{}`, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var req models.GuessRequest
			if err := json.Unmarshal([]byte(tc.body), &req); err != nil {
				t.Fatalf("Failed to parse request body: %v", err)
			}
			if (req.AnswerID == nil) != (tc.wantAnswer == nil) {
				t.Errorf("Answer presence mismatch: got %v", req.AnswerID)
			}
			if tc.wantAnswer != nil && *req.AnswerID != *tc.wantAnswer {
				t.Errorf("Expected answer %s, got %s", tc.wantAnswer, req.AnswerID)
			}
			if req.TimedOut != tc.wantTimedOut {
				t.Errorf("Expected timed_out=%v, got %v", tc.wantTimedOut, req.TimedOut)
			}
		})
	}
}

// ─── Leaderboard Ranking Tests ───

// finishedGame builds a completed game whose questions score the given
// points: positive points become correct in-time answers, zeros become
// skips.
func finishedGame(name string, createdAt time.Time, points ...float64) repository.GameWithQuestions {
	g := repository.GameWithQuestions{
		Game: models.Game{
			ID:         uuid.New(),
			PlayerName: name,
			QuizLength: len(points),
			CreatedAt:  createdAt,
		},
	}
	for i, p := range points {
		q := models.Question{
			ID:       uuid.New(),
			GameID:   g.Game.ID,
			Position: i + 1,
			TrackID:  uuid.New(),
		}
		if p > 0 {
			answer := q.TrackID
			remaining := p
			q.State = models.StateAnswered
			q.GivenAnswerID = &answer
			q.RemainingTime = &remaining
		} else {
			q.State = models.StateSkipped
		}
		pts := p
		q.Points = &pts
		g.Questions = append(g.Questions, q)
	}
	return g
}

func TestRankGames(t *testing.T) {
	now := time.Now()
	games := []repository.GameWithQuestions{
		finishedGame("low", now.Add(-3*time.Hour), 1.0, 2.0),
		finishedGame("high", now.Add(-2*time.Hour), 10.0, 5.0),
		finishedGame("mid", now.Add(-1*time.Hour), 4.0, 4.0),
	}

	entries := rankGames(games)

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].PlayerName != "high" || entries[1].PlayerName != "mid" || entries[2].PlayerName != "low" {
		t.Errorf("Unexpected order: %s, %s, %s", entries[0].PlayerName, entries[1].PlayerName, entries[2].PlayerName)
	}
	if entries[0].TotalScore != 15.0 {
		t.Errorf("Expected top score 15.0, got %v", entries[0].TotalScore)
	}
}

func TestRankGamesSkipsUnfinished(t *testing.T) {
	now := time.Now()
	unfinished := finishedGame("partial", now, 5.0, 5.0)
	unfinished.Game.QuizLength = 3 // One question still to go

	games := []repository.GameWithQuestions{
		unfinished,
		finishedGame("done", now, 1.0),
	}

	entries := rankGames(games)
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].PlayerName != "done" {
		t.Errorf("Expected only the finished game, got %q", entries[0].PlayerName)
	}
}

func TestRankGamesKeepsOldHighScorer(t *testing.T) {
	// The repository returns games newest-first; an old record holder
	// must still rank above every newer game.
	now := time.Now()
	games := []repository.GameWithQuestions{}
	for i := 0; i < 50; i++ {
		games = append(games, finishedGame(fmt.Sprintf("player-%d", i), now.Add(-time.Duration(i)*time.Minute), 2.0))
	}
	games = append(games, finishedGame("record-holder", now.Add(-365*24*time.Hour), 20.0))

	entries := rankGames(games)
	if len(entries) != 51 {
		t.Fatalf("Expected all 51 finished games ranked, got %d", len(entries))
	}
	if entries[0].PlayerName != "record-holder" {
		t.Errorf("Expected the year-old record holder first, got %q", entries[0].PlayerName)
	}
}

func TestRankGamesTieGoesToNewer(t *testing.T) {
	now := time.Now()
	games := []repository.GameWithQuestions{
		finishedGame("older", now.Add(-2*time.Hour), 8.0),
		finishedGame("newer", now.Add(-1*time.Hour), 8.0),
	}

	entries := rankGames(games)
	if entries[0].PlayerName != "newer" {
		t.Errorf("Expected the newer game first on a tie, got %q", entries[0].PlayerName)
	}
}

func TestRankGamesCountsCorrectAnswers(t *testing.T) {
	now := time.Now()
	game := finishedGame("mixed", now, 5.0, 0.0, 3.0)

	entries := rankGames([]repository.GameWithQuestions{game})
	if entries[0].CorrectAnswers != 2 {
		t.Errorf("Expected 2 correct answers, got %d", entries[0].CorrectAnswers)
	}
	if entries[0].TotalScore != 8.0 {
		t.Errorf("Expected total score 8.0, got %v", entries[0].TotalScore)
	}
}

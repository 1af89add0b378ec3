package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get("X-Request-ID"),
		},
	}
}

// handleQuizError translates core errors into API responses. The core
// never retries; every failure leaves the game in its last persisted
// state, so a plain status code is enough.
func handleQuizError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, quiz.ErrNoTrack):
		writeJSON(w, http.StatusNotFound, errorResp("POOL_EXHAUSTED", "No eligible track left to ask about", r))
	case errors.Is(err, quiz.ErrNotStarted):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_STARTED", "The game has no questions yet", r))
	case errors.Is(err, quiz.ErrAlreadyFinished):
		writeJSON(w, http.StatusConflict, errorResp("GAME_FINISHED", "The game is already finished", r))
	case errors.Is(err, quiz.ErrQuizExhausted):
		writeJSON(w, http.StatusConflict, errorResp("QUIZ_EXHAUSTED", "The game already has its full question count", r))
	case errors.Is(err, quiz.ErrUnknownAnswer):
		writeJSON(w, http.StatusBadRequest, errorResp("UNKNOWN_ANSWER", "The answer does not match any track", r))
	case errors.Is(err, quiz.ErrAlreadyAnswered):
		writeJSON(w, http.StatusConflict, errorResp("ALREADY_ANSWERED", "The question already has an answer", r))
	case errors.Is(err, quiz.ErrInvalidArgument):
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
	case errors.Is(err, quiz.ErrInsufficientPool):
		writeJSON(w, http.StatusConflict, errorResp("INSUFFICIENT_POOL", "Not enough tracks to build answer choices", r))
	case errors.Is(err, repository.ErrGameNotFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Game or question not found", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Something went wrong", r))
	}
}

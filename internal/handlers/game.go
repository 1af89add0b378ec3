package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"musicquiz-backend/internal/middleware"
	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
	"musicquiz-backend/internal/repository"
	"musicquiz-backend/internal/services"
)

const (
	// QueueTagPopulation carries jobs that enlarge a tag's track pool.
	QueueTagPopulation = "queue:tag-population"
	// UpdatesChannel is the redis pub/sub channel the websocket hub
	// relays to clients.
	UpdatesChannel = "musicquiz:updates"
)

type GameHandler struct {
	games       *repository.GameRepo
	tracks      *repository.TrackRepo
	engine      *quiz.Engine
	library     *services.LibraryService
	sessions    *middleware.SessionManager
	redis       *redis.Client
	quizLength  int
	choiceCount int
}

func NewGameHandler(
	games *repository.GameRepo,
	tracks *repository.TrackRepo,
	engine *quiz.Engine,
	library *services.LibraryService,
	sessions *middleware.SessionManager,
	redisClient *redis.Client,
	quizLength, choiceCount int,
) *GameHandler {
	return &GameHandler{
		games:       games,
		tracks:      tracks,
		engine:      engine,
		library:     library,
		sessions:    sessions,
		redis:       redisClient,
		quizLength:  quizLength,
		choiceCount: choiceCount,
	}
}

func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.PlayerName == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "player_name is required", r))
		return
	}
	if req.QuizLength <= 0 {
		req.QuizLength = h.quizLength
	}

	game := &models.Game{PlayerName: req.PlayerName, QuizLength: req.QuizLength}
	if req.Tag != "" {
		ok, err := h.library.HasPoolFor(r.Context(), req.Tag, req.QuizLength)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check tag pool", r))
			return
		}
		if !ok {
			// Enlarging the pool is the collaborator's job; queue it
			// and let the player retry once the workers caught up.
			h.enqueue(r, models.EnrichmentJob{
				Type:  "tag-population",
				Tag:   req.Tag,
				Limit: req.QuizLength * 5,
			})
			writeJSON(w, http.StatusConflict, errorResp("POOL_TOO_SMALL",
				"Not enough playable tracks for this tag yet. Try again shortly.", r))
			return
		}
		game.Tag = &req.Tag
	}

	if err := h.games.Create(r.Context(), game); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create game", r))
		return
	}
	if err := h.sessions.BindGame(w, r, game.ID, game.PlayerName); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to bind session", r))
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	game, questions, err := h.sessionGame(w, r)
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"game":            game,
		"status":          quiz.Status(game, questions),
		"questions_asked": len(questions),
		"total_score":     quiz.TotalScore(questions),
		"correct_answers": quiz.CorrectAnswers(questions),
	})
}

func (h *GameHandler) NextQuestion(w http.ResponseWriter, r *http.Request) {
	game, _, err := h.sessionGame(w, r)
	if err != nil {
		return
	}

	question, err := h.engine.NextQuestion(r.Context(), game)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}
	h.writeQuestion(w, r, game, question)
}

func (h *GameHandler) CurrentQuestion(w http.ResponseWriter, r *http.Request) {
	game, _, err := h.sessionGame(w, r)
	if err != nil {
		return
	}

	question, err := h.engine.CurrentQuestion(r.Context(), game)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}
	h.writeQuestion(w, r, game, question)
}

// writeQuestion serves a question without giving the answer away: the
// client gets the media reference to play plus shuffled labeled
// choices, never the correct track id on its own.
func (h *GameHandler) writeQuestion(w http.ResponseWriter, r *http.Request, game *models.Game, question *models.Question) {
	choices, err := h.engine.CreateChoices(r.Context(), game, question, h.choiceCount)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	track, err := h.tracks.GetByID(r.Context(), question.TrackID)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	items := make([]models.ChoiceItem, 0, len(choices))
	for _, c := range choices {
		items = append(items, models.ChoiceItem{ID: c.ID, Label: c.Label()})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"question_id": question.ID,
		"position":    question.Position,
		"quiz_length": game.QuizLength,
		"state":       question.State,
		"choices":     items,
		"media": map[string]interface{}{
			"youtube_code":     track.YoutubeCode,
			"youtube_duration": track.YoutubeDuration,
		},
	})
}

func (h *GameHandler) Guess(w http.ResponseWriter, r *http.Request) {
	game, question, ok := h.sessionQuestion(w, r)
	if !ok {
		return
	}

	var req models.GuessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	guess := quiz.Guess{AnswerID: req.AnswerID, RemainingTime: req.RemainingTime, TimedOut: req.TimedOut}
	if err := h.engine.MakeGuess(r.Context(), question, guess); err != nil {
		handleQuizError(w, r, err)
		return
	}

	correct, err := h.tracks.GetByID(r.Context(), question.TrackID)
	if err != nil {
		handleQuizError(w, r, err)
		return
	}

	h.publishIfFinished(r, game)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":   question.State,
		"correct": question.AnsweredCorrectly(),
		"points":  question.Points,
		"correct_answer": models.ChoiceItem{
			ID:    correct.ID,
			Label: correct.Label(),
		},
	})
}

func (h *GameHandler) Skip(w http.ResponseWriter, r *http.Request) {
	h.finishQuestion(w, r, h.engine.SkipQuestion)
}

func (h *GameHandler) Report(w http.ResponseWriter, r *http.Request) {
	h.finishQuestion(w, r, h.engine.ReportQuestion)
}

func (h *GameHandler) finishQuestion(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, q *models.Question) error) {
	game, question, ok := h.sessionQuestion(w, r)
	if !ok {
		return
	}
	if err := op(r.Context(), question); err != nil {
		handleQuizError(w, r, err)
		return
	}
	h.publishIfFinished(r, game)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":  question.State,
		"points": question.Points,
	})
}

func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	loaded, err := h.games.ListFinishedGames(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load games", r))
		return
	}

	entries := rankGames(loaded)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"leaderboard": entries})
}

// rankGames recomputes every finished game's score and orders them by
// score, ties going to the newer game so an old tie cannot hold the
// top spot forever.
func rankGames(games []repository.GameWithQuestions) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(games))
	for _, g := range games {
		if !quiz.IsFinished(&g.Game, g.Questions) {
			continue
		}
		entries = append(entries, models.LeaderboardEntry{
			GameID:         g.Game.ID,
			PlayerName:     g.Game.PlayerName,
			TotalScore:     quiz.TotalScore(g.Questions),
			CorrectAnswers: quiz.CorrectAnswers(g.Questions),
			QuizLength:     g.Game.QuizLength,
			CreatedAt:      g.Game.CreatedAt,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalScore != entries[j].TotalScore {
			return entries[i].TotalScore > entries[j].TotalScore
		}
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries
}

// sessionGame loads the game bound to the request's session. On failure
// the response has already been written.
func (h *GameHandler) sessionGame(w http.ResponseWriter, r *http.Request) (*models.Game, []models.Question, error) {
	gameID := middleware.GetGameID(r.Context())
	game, err := h.games.GetByID(r.Context(), gameID)
	if err != nil {
		handleQuizError(w, r, err)
		return nil, nil, err
	}
	questions, err := h.games.Questions(r.Context(), gameID)
	if err != nil {
		handleQuizError(w, r, err)
		return nil, nil, err
	}
	return game, questions, nil
}

// sessionQuestion resolves the {id} route parameter and checks the
// question belongs to the session's game.
func (h *GameHandler) sessionQuestion(w http.ResponseWriter, r *http.Request) (*models.Game, *models.Question, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return nil, nil, false
	}

	question, err := h.games.GetQuestion(r.Context(), id)
	if err != nil {
		handleQuizError(w, r, err)
		return nil, nil, false
	}

	gameID := middleware.GetGameID(r.Context())
	if question.GameID != gameID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Question belongs to another game", r))
		return nil, nil, false
	}

	game, err := h.games.GetByID(r.Context(), gameID)
	if err != nil {
		handleQuizError(w, r, err)
		return nil, nil, false
	}
	return game, question, true
}

// publishIfFinished pushes a leaderboard refresh to websocket clients
// once a game reaches its terminal state.
func (h *GameHandler) publishIfFinished(r *http.Request, game *models.Game) {
	if h.redis == nil {
		return
	}
	questions, err := h.games.Questions(r.Context(), game.ID)
	if err != nil || !quiz.IsFinished(game, questions) {
		return
	}
	msg, _ := json.Marshal(models.WSMessage{
		Type: "game_finished",
		Payload: models.LeaderboardEntry{
			GameID:         game.ID,
			PlayerName:     game.PlayerName,
			TotalScore:     quiz.TotalScore(questions),
			CorrectAnswers: quiz.CorrectAnswers(questions),
			QuizLength:     game.QuizLength,
			CreatedAt:      game.CreatedAt,
		},
	})
	h.redis.Publish(r.Context(), UpdatesChannel, string(msg))
}

func (h *GameHandler) enqueue(r *http.Request, job models.EnrichmentJob) {
	if h.redis == nil {
		return
	}
	job.ID = uuid.New()
	payload, _ := json.Marshal(job)
	h.redis.LPush(r.Context(), QueueTagPopulation, string(payload))
}

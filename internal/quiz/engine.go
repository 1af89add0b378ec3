package quiz

import (
	"context"
	"errors"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"musicquiz-backend/internal/models"
)

const (
	// WrongAnswerPenalty is the fixed deduction for a wrong answer
	// given before the timer ran out.
	WrongAnswerPenalty = -10.0

	// timeoutEpsilon guards the legacy near-zero-remaining-time timeout
	// convention. Clients should send an explicit timed_out flag; the
	// epsilon check stays so that a remaining time of exactly zero is
	// never scored as an answer.
	timeoutEpsilon = 1e-9
)

type GameStatus string

const (
	StatusNotStarted GameStatus = "not_started"
	StatusInProgress GameStatus = "in_progress"
	StatusFinished   GameStatus = "finished"
)

// QuestionStore persists the question sequence of a game.
type QuestionStore interface {
	// Questions returns the game's questions ordered by position.
	Questions(ctx context.Context, gameID uuid.UUID) ([]models.Question, error)
	CreateQuestion(ctx context.Context, q *models.Question) error
	UpdateQuestion(ctx context.Context, q *models.Question) error
}

// Guess is a player's response to a question.
type Guess struct {
	AnswerID      *uuid.UUID
	RemainingTime float64
	TimedOut      bool
}

// Engine drives one game through its question sequence: it issues
// questions, records guesses and computes scores. It assumes at most
// one in-flight state change per game, which the session layer
// guarantees.
type Engine struct {
	questions QuestionStore
	tracks    TrackSource
	picker    *Picker
	rnd       *rand.Rand
}

func NewEngine(questions QuestionStore, tracks TrackSource, picker *Picker, rnd *rand.Rand) *Engine {
	return &Engine{questions: questions, tracks: tracks, picker: picker, rnd: rnd}
}

// Status derives the game state from its question sequence.
func Status(game *models.Game, questions []models.Question) GameStatus {
	if len(questions) == 0 {
		return StatusNotStarted
	}
	if IsFinished(game, questions) {
		return StatusFinished
	}
	return StatusInProgress
}

// IsFinished reports whether the game has its full question count and
// the last question has reached a terminal state.
func IsFinished(game *models.Game, questions []models.Question) bool {
	if len(questions) != game.QuizLength {
		return false
	}
	return questions[len(questions)-1].State.Terminal()
}

// CurrentQuestion returns the question with the highest position.
func (e *Engine) CurrentQuestion(ctx context.Context, game *models.Game) (*models.Question, error) {
	questions, err := e.questions.Questions(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, ErrNotStarted
	}
	if IsFinished(game, questions) {
		return nil, ErrAlreadyFinished
	}
	return &questions[len(questions)-1], nil
}

// NextQuestion draws an unseen playable track and appends a new
// question for it. The accessor's ErrNoTrack propagates unchanged.
func (e *Engine) NextQuestion(ctx context.Context, game *models.Game) (*models.Question, error) {
	questions, err := e.questions.Questions(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if IsFinished(game, questions) {
		return nil, ErrAlreadyFinished
	}
	if len(questions) >= game.QuizLength {
		return nil, ErrQuizExhausted
	}

	seen := make([]uuid.UUID, 0, len(questions))
	for _, q := range questions {
		seen = append(seen, q.TrackID)
	}

	tag := ""
	if game.Tag != nil {
		tag = *game.Tag
	}
	track, err := e.picker.PickRandom(ctx, seen, tag)
	if err != nil {
		return nil, err
	}

	question := &models.Question{
		GameID:   game.ID,
		Position: len(questions) + 1,
		TrackID:  track.ID,
		State:    models.StateNotAnswered,
	}
	if err := e.questions.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// MakeGuess applies the single terminal transition for a question. The
// explicit TimedOut flag wins; a near-zero remaining time also counts
// as a timeout.
func (e *Engine) MakeGuess(ctx context.Context, question *models.Question, guess Guess) error {
	if question.State.Terminal() {
		return ErrAlreadyAnswered
	}

	remaining := guess.RemainingTime
	question.RemainingTime = &remaining

	if guess.AnswerID != nil {
		if _, err := e.tracks.GetTrack(ctx, *guess.AnswerID); err != nil {
			question.RemainingTime = nil
			if errors.Is(err, ErrNoTrack) {
				return ErrUnknownAnswer
			}
			return err
		}
		answer := *guess.AnswerID
		question.GivenAnswerID = &answer
	}

	if guess.TimedOut || math.Abs(remaining) <= timeoutEpsilon {
		question.State = models.StateTimedOut
	} else {
		question.State = models.StateAnswered
	}

	points := CalculatePoints(question)
	question.Points = &points
	return e.questions.UpdateQuestion(ctx, question)
}

// SkipQuestion is a terminal transition worth zero points.
func (e *Engine) SkipQuestion(ctx context.Context, question *models.Question) error {
	return e.finishWithoutAnswer(ctx, question, models.StateSkipped)
}

// ReportQuestion marks a question as broken (dead video, wrong track).
// Scored like a skip.
func (e *Engine) ReportQuestion(ctx context.Context, question *models.Question) error {
	return e.finishWithoutAnswer(ctx, question, models.StateReported)
}

func (e *Engine) finishWithoutAnswer(ctx context.Context, question *models.Question, state models.QuestionState) error {
	if question.State.Terminal() {
		return ErrAlreadyAnswered
	}
	question.GivenAnswerID = nil
	question.RemainingTime = nil
	question.State = state
	points := CalculatePoints(question)
	question.Points = &points
	return e.questions.UpdateQuestion(ctx, question)
}

// CalculatePoints scores a question from its terminal state alone:
// correct answers earn the remaining time, wrong in-time answers cost a
// fixed penalty, everything else is worth nothing.
func CalculatePoints(question *models.Question) float64 {
	if question.AnsweredCorrectly() {
		if question.RemainingTime == nil {
			return 0
		}
		return *question.RemainingTime
	}
	if question.State == models.StateAnswered {
		return WrongAnswerPenalty
	}
	return 0
}

// TotalScore recomputes the game score from the questions' current
// states. It is never read from a cache.
func TotalScore(questions []models.Question) float64 {
	total := 0.0
	for i := range questions {
		total += CalculatePoints(&questions[i])
	}
	return total
}

// CorrectAnswers counts the questions answered correctly in time.
func CorrectAnswers(questions []models.Question) int {
	count := 0
	for i := range questions {
		if questions[i].AnsweredCorrectly() {
			count++
		}
	}
	return count
}

// CreateChoices builds the answer set shown for a question: the correct
// track plus count-1 distinct fillers. Tag games prefer tracks sharing
// the game's tag for up to (count+1)/2 of the fillers before falling
// back to the full pool. The result is shuffled.
func (e *Engine) CreateChoices(ctx context.Context, game *models.Game, question *models.Question, count int) ([]models.Track, error) {
	if count < 1 {
		return nil, ErrInvalidArgument
	}

	correct, err := e.tracks.GetTrack(ctx, question.TrackID)
	if err != nil {
		return nil, err
	}

	choices := []models.Track{*correct}
	chosen := []uuid.UUID{correct.ID}

	if game.Tag != nil && len(choices) < count {
		tagged, err := e.tracks.ListCandidates(ctx, chosen, *game.Tag)
		if err != nil {
			return nil, err
		}
		limit := (count + 1) / 2
		if limit > count-len(choices) {
			limit = count - len(choices)
		}
		picked := e.sample(tagged, limit)
		for _, t := range picked {
			choices = append(choices, t)
			chosen = append(chosen, t.ID)
		}
	}

	if len(choices) < count {
		pool, err := e.tracks.ListCandidates(ctx, chosen, "")
		if err != nil {
			return nil, err
		}
		if len(pool) < count-len(choices) {
			return nil, ErrInsufficientPool
		}
		choices = append(choices, e.sample(pool, count-len(choices))...)
	}

	e.rnd.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return choices, nil
}

// sample draws up to n tracks uniformly without replacement.
func (e *Engine) sample(pool []models.Track, n int) []models.Track {
	if n > len(pool) {
		n = len(pool)
	}
	picked := make([]models.Track, 0, n)
	for _, i := range e.rnd.Perm(len(pool))[:n] {
		picked = append(picked, pool[i])
	}
	return picked
}

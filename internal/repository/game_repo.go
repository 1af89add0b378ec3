package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"musicquiz-backend/internal/models"
)

// ErrGameNotFound is returned when a game or question id resolves to
// nothing.
var ErrGameNotFound = errors.New("game not found")

type GameRepo struct {
	pool *pgxpool.Pool
}

func NewGameRepo(pool *pgxpool.Pool) *GameRepo {
	return &GameRepo{pool: pool}
}

func (r *GameRepo) Create(ctx context.Context, g *models.Game) error {
	g.ID = uuid.New()
	query := `INSERT INTO games (id, player_name, quiz_length, tag)
		VALUES ($1, $2, $3, $4) RETURNING created_at`
	return r.pool.QueryRow(ctx, query, g.ID, g.PlayerName, g.QuizLength, g.Tag).Scan(&g.CreatedAt)
}

func (r *GameRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Game, error) {
	g := &models.Game{}
	query := `SELECT id, player_name, quiz_length, tag, created_at FROM games WHERE id = $1`
	err := r.pool.QueryRow(ctx, query, id).Scan(&g.ID, &g.PlayerName, &g.QuizLength, &g.Tag, &g.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("game %s: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

const questionColumns = `id, game_id, position, track_id, state, given_answer_id, remaining_time, points, created_at`

const qualifiedQuestionColumns = `q.id, q.game_id, q.position, q.track_id, q.state, q.given_answer_id, q.remaining_time, q.points, q.created_at`

func scanQuestion(row pgx.Row, q *models.Question) error {
	return row.Scan(&q.ID, &q.GameID, &q.Position, &q.TrackID, &q.State,
		&q.GivenAnswerID, &q.RemainingTime, &q.Points, &q.CreatedAt)
}

// Questions implements quiz.QuestionStore, ordered by position.
func (r *GameRepo) Questions(ctx context.Context, gameID uuid.UUID) ([]models.Question, error) {
	query := `SELECT ` + questionColumns + ` FROM questions WHERE game_id = $1 ORDER BY position`
	rows, err := r.pool.Query(ctx, query, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var q models.Question
		if err := scanQuestion(rows, &q); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (r *GameRepo) CreateQuestion(ctx context.Context, q *models.Question) error {
	q.ID = uuid.New()
	query := `INSERT INTO questions (id, game_id, position, track_id, state)
		VALUES ($1, $2, $3, $4, $5) RETURNING created_at`
	return r.pool.QueryRow(ctx, query, q.ID, q.GameID, q.Position, q.TrackID, q.State).Scan(&q.CreatedAt)
}

func (r *GameRepo) UpdateQuestion(ctx context.Context, q *models.Question) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE questions SET state = $1, given_answer_id = $2, remaining_time = $3, points = $4 WHERE id = $5`,
		q.State, q.GivenAnswerID, q.RemainingTime, q.Points, q.ID,
	)
	return err
}

func (r *GameRepo) GetQuestion(ctx context.Context, id uuid.UUID) (*models.Question, error) {
	q := &models.Question{}
	query := `SELECT ` + questionColumns + ` FROM questions WHERE id = $1`
	err := scanQuestion(r.pool.QueryRow(ctx, query, id), q)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("question %s: %w", id, ErrGameNotFound)
	}
	if err != nil {
		return nil, err
	}
	return q, nil
}

// GameWithQuestions is the unit the leaderboard recomputes scores from.
type GameWithQuestions struct {
	Game      models.Game
	Questions []models.Question
}

// ListFinishedGames loads every finished game together with its full
// question sequence in a single query. A game is finished when it has
// its full question count and none of them is still open. Scores are
// not stored per game; callers recompute them from question state.
func (r *GameRepo) ListFinishedGames(ctx context.Context) ([]GameWithQuestions, error) {
	query := `SELECT g.id, g.player_name, g.quiz_length, g.tag, g.created_at,
		` + qualifiedQuestionColumns + `
		FROM games g
		JOIN questions q ON q.game_id = g.id
		WHERE NOT EXISTS (
			SELECT 1 FROM questions o WHERE o.game_id = g.id AND o.state = 'not_answered'
		)
		AND (SELECT COUNT(*) FROM questions c WHERE c.game_id = g.id) = g.quiz_length
		ORDER BY g.created_at DESC, q.position`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameWithQuestions
	index := make(map[uuid.UUID]int)
	for rows.Next() {
		var g models.Game
		var q models.Question
		err := rows.Scan(&g.ID, &g.PlayerName, &g.QuizLength, &g.Tag, &g.CreatedAt,
			&q.ID, &q.GameID, &q.Position, &q.TrackID, &q.State,
			&q.GivenAnswerID, &q.RemainingTime, &q.Points, &q.CreatedAt)
		if err != nil {
			return nil, err
		}

		i, ok := index[g.ID]
		if !ok {
			out = append(out, GameWithQuestions{Game: g})
			i = len(out) - 1
			index[g.ID] = i
		}
		out[i].Questions = append(out[i].Questions, q)
	}
	return out, rows.Err()
}

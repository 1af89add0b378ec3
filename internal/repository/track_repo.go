package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/quiz"
)

// ErrSimilarityExists is returned when a similarity pair is already
// recorded; callers bulk-importing similar tracks skip over it.
var ErrSimilarityExists = errors.New("similarity already exists")

// ErrNotSimilar is returned when removing a similarity that was never
// created.
var ErrNotSimilar = errors.New("tracks are not similar")

type TrackRepo struct {
	pool *pgxpool.Pool
}

func NewTrackRepo(pool *pgxpool.Pool) *TrackRepo {
	return &TrackRepo{pool: pool}
}

const trackColumns = `id, artist, title, tag, youtube_code, youtube_duration, created_at`

func scanTrack(row pgx.Row, t *models.Track) error {
	return row.Scan(&t.ID, &t.Artist, &t.Title, &t.Tag, &t.YoutubeCode, &t.YoutubeDuration, &t.CreatedAt)
}

func (r *TrackRepo) Create(ctx context.Context, t *models.Track) error {
	t.ID = uuid.New()
	query := `INSERT INTO tracks (id, artist, title, tag, youtube_code, youtube_duration)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING created_at`
	return r.pool.QueryRow(ctx, query,
		t.ID, t.Artist, t.Title, t.Tag, t.YoutubeCode, t.YoutubeDuration,
	).Scan(&t.CreatedAt)
}

// GetOrCreate looks a track up by its (artist, title) identity and
// creates it when missing. The second return value reports whether a
// new row was inserted.
func (r *TrackRepo) GetOrCreate(ctx context.Context, artist, title string) (*models.Track, bool, error) {
	t := &models.Track{}
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE artist = $1 AND title = $2`
	err := scanTrack(r.pool.QueryRow(ctx, query, artist, title), t)
	if err == nil {
		return t, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, err
	}

	t = &models.Track{Artist: artist, Title: title}
	if err := r.Create(ctx, t); err != nil {
		return nil, false, err
	}
	return t, true, nil
}

func (r *TrackRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Track, error) {
	t := &models.Track{}
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE id = $1`
	err := scanTrack(r.pool.QueryRow(ctx, query, id), t)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("track %s: %w", id, quiz.ErrNoTrack)
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetTrack implements quiz.TrackSource.
func (r *TrackRepo) GetTrack(ctx context.Context, id uuid.UUID) (*models.Track, error) {
	return r.GetByID(ctx, id)
}

func (r *TrackRepo) List(ctx context.Context, limit, offset int) ([]models.Track, error) {
	query := `SELECT ` + trackColumns + ` FROM tracks ORDER BY artist, title LIMIT $1 OFFSET $2`
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// ListCandidates implements quiz.TrackSource: every track outside the
// exclusion set, optionally restricted to a tag.
func (r *TrackRepo) ListCandidates(ctx context.Context, exclude []uuid.UUID, tag string) ([]models.Track, error) {
	if exclude == nil {
		exclude = []uuid.UUID{}
	}
	query := `SELECT ` + trackColumns + ` FROM tracks WHERE NOT (id = ANY($1))`
	args := []interface{}{exclude}
	if tag != "" {
		query += ` AND tag = $2`
		args = append(args, tag)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTracks(rows)
}

// CountPlayable reports the size of the playable pool, optionally per
// tag. Tag games use this to decide whether the pool needs enlarging
// before the quiz starts.
func (r *TrackRepo) CountPlayable(ctx context.Context, tag string) (int, error) {
	query := `SELECT COUNT(*) FROM tracks WHERE youtube_code IS NOT NULL AND youtube_code <> '' AND youtube_duration > 0`
	args := []interface{}{}
	if tag != "" {
		query += ` AND tag = $1`
		args = append(args, tag)
	}
	var count int
	err := r.pool.QueryRow(ctx, query, args...).Scan(&count)
	return count, err
}

func (r *TrackRepo) Update(ctx context.Context, t *models.Track) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tracks SET artist = $1, title = $2, tag = $3, youtube_code = $4, youtube_duration = $5 WHERE id = $6`,
		t.Artist, t.Title, t.Tag, t.YoutubeCode, t.YoutubeDuration, t.ID,
	)
	return err
}

// UpdateMedia persists the media reference found by enrichment.
func (r *TrackRepo) UpdateMedia(ctx context.Context, id uuid.UUID, code string, duration int) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE tracks SET youtube_code = $1, youtube_duration = $2 WHERE id = $3`,
		code, duration, id,
	)
	return err
}

func (r *TrackRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	return err
}

// CreateSimilarity records both directions of the similarity relation
// in one transaction so that the relation stays symmetric. A track can
// never be similar to itself.
func (r *TrackRepo) CreateSimilarity(ctx context.Context, first, second uuid.UUID, match float64) error {
	if first == second {
		return fmt.Errorf("track cannot be similar to itself: %w", quiz.ErrInvalidArgument)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, pair := range [][2]uuid.UUID{{first, second}, {second, first}} {
		_, err := tx.Exec(ctx,
			`INSERT INTO track_similarities (first_id, second_id, match) VALUES ($1, $2, $3)`,
			pair[0], pair[1], match,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrSimilarityExists
			}
			return err
		}
	}
	return tx.Commit(ctx)
}

// RemoveSimilarity deletes both directions of the relation.
func (r *TrackRepo) RemoveSimilarity(ctx context.Context, first, second uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM track_similarities
		 WHERE (first_id = $1 AND second_id = $2) OR (first_id = $2 AND second_id = $1)`,
		first, second,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotSimilar
	}
	return nil
}

// ListSimilar returns the tracks similar to the given one together
// with their match strength, strongest first.
func (r *TrackRepo) ListSimilar(ctx context.Context, id uuid.UUID) ([]models.SimilarTrack, error) {
	query := `SELECT t.id, t.artist, t.title, t.tag, t.youtube_code, t.youtube_duration, t.created_at, s.match
		FROM track_similarities s
		JOIN tracks t ON t.id = s.second_id
		WHERE s.first_id = $1
		ORDER BY s.match DESC NULLS LAST`
	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var similar []models.SimilarTrack
	for rows.Next() {
		var st models.SimilarTrack
		err := rows.Scan(&st.ID, &st.Artist, &st.Title, &st.Tag, &st.YoutubeCode, &st.YoutubeDuration, &st.CreatedAt, &st.Match)
		if err != nil {
			return nil, err
		}
		similar = append(similar, st)
	}
	return similar, rows.Err()
}

func collectTracks(rows pgx.Rows) ([]models.Track, error) {
	var tracks []models.Track
	for rows.Next() {
		var t models.Track
		if err := scanTrack(rows, &t); err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, rows.Err()
}

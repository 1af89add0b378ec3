package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"musicquiz-backend/internal/handlers"
	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/repository"
	"musicquiz-backend/internal/services"
)

// Pool runs the enrichment jobs the request path does not wait for:
// media lookups for freshly added tracks, similar-track imports, and
// tag pool population.
type Pool struct {
	redis       *redis.Client
	tracks      *repository.TrackRepo
	enricher    *services.TrackEnricher
	library     *services.LibraryService
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	tracks *repository.TrackRepo,
	enricher *services.TrackEnricher,
	library *services.LibraryService,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		tracks:      tracks,
		enricher:    enricher,
		library:     library,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	queues := []string{
		handlers.QueueTrackEnrichment,
		handlers.QueueSimilarFetch,
		handlers.QueueTagPopulation,
	}

	for i := 0; i < p.workerCount; i++ {
		go p.worker(i, queues)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int, queues []string) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, queues...).Result()
		if err != nil {
			continue // Timeout or error, retry
		}
		if len(result) < 2 {
			continue
		}

		var job models.EnrichmentJob
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		var processErr error
		switch job.Type {
		case "track-enrichment":
			processErr = p.processEnrichment(ctx, &job)
		case "similar-fetch":
			processErr = p.processSimilarFetch(ctx, &job)
		case "tag-population":
			processErr = p.processTagPopulation(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			log.Printf("Worker %d: job %s failed: %v", id, job.ID, processErr)
		}

		p.redis.Del(ctx, lockKey)
	}
}

func (p *Pool) processEnrichment(ctx context.Context, job *models.EnrichmentJob) error {
	track, err := p.tracks.GetByID(ctx, job.TrackID)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}
	if err := p.enricher.Enrich(ctx, track); err != nil {
		return err
	}
	if track.Playable() {
		p.publish(ctx, "track_enriched", track)
	}
	return nil
}

func (p *Pool) processSimilarFetch(ctx context.Context, job *models.EnrichmentJob) error {
	track, err := p.tracks.GetByID(ctx, job.TrackID)
	if err != nil {
		return fmt.Errorf("failed to load track: %w", err)
	}

	limit := job.Limit
	if limit <= 0 {
		limit = 10
	}
	added, err := p.library.FetchSimilar(ctx, track, limit)
	if err != nil {
		return err
	}
	log.Printf("Imported %d similar tracks for %s", added, track.Label())
	return nil
}

func (p *Pool) processTagPopulation(ctx context.Context, job *models.EnrichmentJob) error {
	if job.Tag == "" {
		return fmt.Errorf("tag-population job without a tag")
	}

	limit := job.Limit
	if limit <= 0 {
		limit = 50
	}
	added, err := p.library.PopulateTag(ctx, job.Tag, limit)
	if err != nil {
		return err
	}
	log.Printf("Tag %q: imported %d tracks", job.Tag, added)

	// New chart entries arrive without a media reference; enrich them
	// now so the pool-size check counts them as playable.
	candidates, err := p.tracks.ListCandidates(ctx, nil, job.Tag)
	if err != nil {
		return err
	}
	for i := range candidates {
		if candidates[i].Playable() {
			continue
		}
		if err := p.enricher.Enrich(ctx, &candidates[i]); err != nil {
			log.Printf("Enrichment failed for %s: %v", candidates[i].Label(), err)
		}
	}

	p.publish(ctx, "tag_populated", map[string]interface{}{"tag": job.Tag, "added": added})
	return nil
}

func (p *Pool) publish(ctx context.Context, msgType string, payload interface{}) {
	msg, _ := json.Marshal(models.WSMessage{Type: msgType, Payload: payload})
	p.redis.Publish(ctx, handlers.UpdatesChannel, string(msg))
}

package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"musicquiz-backend/internal/middleware"
	"musicquiz-backend/internal/models"
	"musicquiz-backend/internal/repository"
	"musicquiz-backend/internal/services"
)

const (
	QueueTrackEnrichment = "queue:track-enrichment"
	QueueSimilarFetch    = "queue:similar-fetch"
)

// AdminHandler manages the track library: CRUD plus manual triggers
// for the background enrichment jobs.
type AdminHandler struct {
	tracks   *repository.TrackRepo
	sessions *middleware.SessionManager
	redis    *redis.Client
}

func NewAdminHandler(tracks *repository.TrackRepo, sessions *middleware.SessionManager, redisClient *redis.Client) *AdminHandler {
	return &AdminHandler{tracks: tracks, sessions: sessions, redis: redisClient}
}

func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if !h.sessions.LoginAdmin(w, r, req.Password) {
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", "Wrong password", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged in"})
}

func (h *AdminHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.LogoutAdmin(w, r)
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

func (h *AdminHandler) ListTracks(w http.ResponseWriter, r *http.Request) {
	limit, offset := 50, 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n >= 0 {
			offset = n
		}
	}

	tracks, err := h.tracks.List(r.Context(), limit, offset)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to list tracks", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"tracks": tracks})
}

func (h *AdminHandler) CreateTrack(w http.ResponseWriter, r *http.Request) {
	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Artist == "" || req.Title == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "artist and title are required", r))
		return
	}

	track := &models.Track{Artist: req.Artist, Title: req.Title}
	if req.Tag != "" {
		track.Tag = &req.Tag
	}
	if err := h.tracks.Create(r.Context(), track); err != nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Track already exists", r))
		return
	}
	writeJSON(w, http.StatusCreated, track)
}

func (h *AdminHandler) GetTrack(w http.ResponseWriter, r *http.Request) {
	track, ok := h.trackFromPath(w, r)
	if !ok {
		return
	}
	similar, err := h.tracks.ListSimilar(r.Context(), track.ID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load similar tracks", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"track":   track,
		"similar": similar,
	})
}

func (h *AdminHandler) UpdateTrack(w http.ResponseWriter, r *http.Request) {
	track, ok := h.trackFromPath(w, r)
	if !ok {
		return
	}

	var req models.TrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}
	if req.Artist != "" {
		track.Artist = req.Artist
	}
	if req.Title != "" {
		track.Title = req.Title
	}
	if req.Tag != "" {
		track.Tag = &req.Tag
	}
	if req.YoutubeURL != "" {
		code, err := services.ExtractVideoCode(req.YoutubeURL)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Unrecognized youtube url", r))
			return
		}
		track.YoutubeCode = &code
	}

	if err := h.tracks.Update(r.Context(), track); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update track", r))
		return
	}
	writeJSON(w, http.StatusOK, track)
}

func (h *AdminHandler) DeleteTrack(w http.ResponseWriter, r *http.Request) {
	track, ok := h.trackFromPath(w, r)
	if !ok {
		return
	}
	if err := h.tracks.Delete(r.Context(), track.ID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete track", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Track deleted"})
}

// RemoveSimilar deletes a similarity pair in both directions.
func (h *AdminHandler) RemoveSimilar(w http.ResponseWriter, r *http.Request) {
	track, ok := h.trackFromPath(w, r)
	if !ok {
		return
	}
	other, err := uuid.Parse(chi.URLParam(r, "other"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid track ID", r))
		return
	}

	switch err := h.tracks.RemoveSimilarity(r.Context(), track.ID, other); {
	case err == nil:
		writeJSON(w, http.StatusOK, map[string]string{"message": "Similarity removed"})
	case errors.Is(err, repository.ErrNotSimilar):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Tracks are not similar", r))
	default:
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to remove similarity", r))
	}
}

// EnrichTrack queues a media lookup for a track missing its reference.
func (h *AdminHandler) EnrichTrack(w http.ResponseWriter, r *http.Request) {
	h.queueTrackJob(w, r, "track-enrichment", QueueTrackEnrichment, 0)
}

// FetchSimilar queues a similar-track import for a track.
func (h *AdminHandler) FetchSimilar(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	h.queueTrackJob(w, r, "similar-fetch", QueueSimilarFetch, limit)
}

func (h *AdminHandler) queueTrackJob(w http.ResponseWriter, r *http.Request, jobType, queue string, limit int) {
	track, ok := h.trackFromPath(w, r)
	if !ok {
		return
	}

	job := models.EnrichmentJob{ID: uuid.New(), Type: jobType, TrackID: track.ID, Limit: limit}
	payload, _ := json.Marshal(job)
	if err := h.redis.LPush(r.Context(), queue, string(payload)).Err(); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to queue job", r))
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{"job_id": job.ID})
}

func (h *AdminHandler) trackFromPath(w http.ResponseWriter, r *http.Request) (*models.Track, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid track ID", r))
		return nil, false
	}
	track, err := h.tracks.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Track not found", r))
		return nil, false
	}
	return track, true
}

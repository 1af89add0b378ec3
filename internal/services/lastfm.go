package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	urlpkg "net/url"
	"strconv"
	"time"
)

const defaultLastFMBaseURL = "https://ws.audioscrobbler.com/2.0/"

// LastFMService talks to the last.fm web API for track similarity and
// tag charts.
type LastFMService struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
}

func NewLastFMService(apiKey, baseURL string) *LastFMService {
	if baseURL == "" {
		baseURL = defaultLastFMBaseURL
	}
	return &LastFMService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
	}
}

// SimilarResult is one entry of a track.getSimilar response.
type SimilarResult struct {
	Artist string
	Title  string
	Match  float64
}

// TrackRef identifies a track by name only, as returned by the tag
// chart endpoints.
type TrackRef struct {
	Artist string
	Title  string
}

// flexFloat tolerates last.fm returning match values as either JSON
// numbers or strings.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' {
		s = s[1 : len(s)-1]
	}
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

type lastfmError struct {
	Code    int    `json:"error"`
	Message string `json:"message"`
}

// GetSimilarTracks fetches tracks similar to the given one, strongest
// match first, capped at limit.
func (s *LastFMService) GetSimilarTracks(ctx context.Context, artist, title string, limit int) ([]SimilarResult, error) {
	params := urlpkg.Values{
		"method": {"track.getSimilar"},
		"artist": {artist},
		"track":  {title},
		"limit":  {strconv.Itoa(limit)},
	}

	var payload struct {
		lastfmError
		SimilarTracks struct {
			Track []struct {
				Name   string    `json:"name"`
				Match  flexFloat `json:"match"`
				Artist struct {
					Name string `json:"name"`
				} `json:"artist"`
			} `json:"track"`
		} `json:"similartracks"`
	}
	if err := s.call(ctx, params, &payload); err != nil {
		return nil, err
	}
	if payload.Code != 0 {
		return nil, fmt.Errorf("last.fm error %d: %s", payload.Code, payload.Message)
	}

	results := make([]SimilarResult, 0, len(payload.SimilarTracks.Track))
	for _, t := range payload.SimilarTracks.Track {
		results = append(results, SimilarResult{
			Artist: t.Artist.Name,
			Title:  t.Name,
			Match:  float64(t.Match),
		})
	}
	return results, nil
}

// GetTagTopTracks fetches the most popular tracks carrying a tag.
func (s *LastFMService) GetTagTopTracks(ctx context.Context, tag string, limit int) ([]TrackRef, error) {
	params := urlpkg.Values{
		"method": {"tag.getTopTracks"},
		"tag":    {tag},
		"limit":  {strconv.Itoa(limit)},
	}

	var payload struct {
		lastfmError
		Tracks struct {
			Track []struct {
				Name   string `json:"name"`
				Artist struct {
					Name string `json:"name"`
				} `json:"artist"`
			} `json:"track"`
		} `json:"tracks"`
	}
	if err := s.call(ctx, params, &payload); err != nil {
		return nil, err
	}
	if payload.Code != 0 {
		return nil, fmt.Errorf("last.fm error %d: %s", payload.Code, payload.Message)
	}

	refs := make([]TrackRef, 0, len(payload.Tracks.Track))
	for _, t := range payload.Tracks.Track {
		refs = append(refs, TrackRef{Artist: t.Artist.Name, Title: t.Name})
	}
	return refs, nil
}

func (s *LastFMService) call(ctx context.Context, params urlpkg.Values, out interface{}) error {
	params.Set("api_key", s.apiKey)
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("last.fm request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode last.fm response: %w", err)
	}
	return nil
}

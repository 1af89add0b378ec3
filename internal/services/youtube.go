package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"regexp"
	"strings"
	"time"

	yt "github.com/kkdai/youtube/v2"
)

// ErrVideoNotFound means no video could be found for a track; the track
// simply stays non-playable.
var ErrVideoNotFound = errors.New("no video found")

var (
	videoIDRe       = regexp.MustCompile(`"videoId"\s*:\s*"([A-Za-z0-9_-]{11})"`)
	lengthSecondsRe = regexp.MustCompile(`"lengthSeconds":"(\d+)"`)
)

type YouTubeService struct {
	httpClient *http.Client
	ytClient   *yt.Client
	baseURL    string
}

func NewYouTubeService() *YouTubeService {
	return &YouTubeService{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		ytClient:   &yt.Client{},
		baseURL:    "https://www.youtube.com",
	}
}

// FindVideo searches youtube for "artist title" and returns the first
// result's video code together with its duration in seconds.
func (s *YouTubeService) FindVideo(ctx context.Context, artist, title string) (string, int, error) {
	query := urlpkg.QueryEscape(fmt.Sprintf("%s %s", artist, title))
	searchURL := fmt.Sprintf("%s/results?search_query=%s", s.baseURL, query)

	body, err := s.fetchPage(ctx, searchURL)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch search results: %w", err)
	}

	m := videoIDRe.FindSubmatch(body)
	if len(m) < 2 {
		return "", 0, ErrVideoNotFound
	}
	code := string(m[1])

	duration, err := s.videoDuration(ctx, code)
	if err != nil {
		return "", 0, err
	}
	return code, duration, nil
}

func (s *YouTubeService) videoDuration(ctx context.Context, code string) (int, error) {
	// Prefer the metadata client; scrape the watch page when it fails.
	if video, err := s.ytClient.GetVideoContext(ctx, code); err == nil && video.Duration > 0 {
		return int(video.Duration / time.Second), nil
	}

	body, err := s.fetchPage(ctx, fmt.Sprintf("%s/watch?v=%s", s.baseURL, code))
	if err != nil {
		return 0, fmt.Errorf("failed to fetch watch page: %w", err)
	}

	if m := lengthSecondsRe.FindSubmatch(body); len(m) > 1 {
		duration := 0
		fmt.Sscanf(string(m[1]), "%d", &duration)
		if duration > 0 {
			return duration, nil
		}
	}
	return 0, ErrVideoNotFound
}

func (s *YouTubeService) fetchPage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// ExtractVideoCode pulls the video code (e.g. EjAoBKagWQA) out of a
// youtube url. Both /watch?v=<code> and /v/<code> shapes are accepted.
func ExtractVideoCode(rawURL string) (string, error) {
	parsed, err := urlpkg.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("cannot extract code: %w", err)
	}
	if parsed.Path == "/watch" {
		if v := parsed.Query().Get("v"); v != "" {
			return v, nil
		}
	} else if strings.HasPrefix(parsed.Path, "/v/") {
		if code := strings.TrimPrefix(parsed.Path, "/v/"); code != "" {
			return code, nil
		}
	}
	return "", errors.New("cannot extract code (wrong url?)")
}

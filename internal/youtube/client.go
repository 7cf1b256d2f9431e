// Package youtube wraps yt-dlp for searching, inspecting and downloading
// YouTube videos as song sources.
package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/library"
)

const (
	DefaultSearchLimit = 10
	MaxSearchLimit     = 50

	musicSearchURL = "https://music.youtube.com/search?q=%s#songs"
)

// ProgressFunc receives download progress in percent (0..100).
type ProgressFunc func(percent float64)

// Executor runs yt-dlp. DumpJSON prints the info JSON of target without
// downloading; flat lists playlist/search entries without resolving them.
type Executor interface {
	DumpJSON(ctx context.Context, target string, flat bool, limit int) ([]byte, error)
	DownloadAudio(ctx context.Context, target, outputTemplate string, progress ProgressFunc) error
}

// SearchResult is one entry of a flat search listing.
type SearchResult struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	URL          string  `json:"url"`
	Channel      string  `json:"channel"`
	Uploader     string  `json:"uploader,omitempty"`
	Artist       string  `json:"artist,omitempty"`
	Album        string  `json:"album,omitempty"`
	Duration     float64 `json:"duration"`
	ThumbnailURL string  `json:"thumbnail"`
	ViewCount    int64   `json:"view_count,omitempty"`
}

// DownloadResult lists the files yt-dlp left in the target directory.
type DownloadResult struct {
	AudioPath     string
	ThumbnailPath string
	Info          *VideoInfo
}

type ClientInterface interface {
	Search(ctx context.Context, query string, limit int) ([]SearchResult, error)
	SearchMusic(ctx context.Context, query string, limit int) ([]SearchResult, error)
	Info(ctx context.Context, videoURL string) (*VideoInfo, error)
	Download(ctx context.Context, videoURL, dir string, progress ProgressFunc) (*DownloadResult, error)
}

type Client struct {
	exec Executor
}

func NewClient(exec Executor) *Client {
	return &Client{exec: exec}
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultSearchLimit
	}
	if limit > MaxSearchLimit {
		return MaxSearchLimit
	}
	return limit
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	limit = clampLimit(limit)
	return c.flatSearch(ctx, fmt.Sprintf("ytsearch%d:%s", limit, query), limit)
}

// SearchMusic searches the songs shelf of YouTube Music.
func (c *Client) SearchMusic(ctx context.Context, query string, limit int) ([]SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []SearchResult{}, nil
	}
	limit = clampLimit(limit)
	return c.flatSearch(ctx, fmt.Sprintf(musicSearchURL, url.QueryEscape(query)), limit)
}

func (c *Client) flatSearch(ctx context.Context, target string, limit int) ([]SearchResult, error) {
	out, err := c.exec.DumpJSON(ctx, target, true, limit)
	if err != nil {
		return nil, fmt.Errorf("youtube search failed: %w", err)
	}

	var listing struct {
		Entries []VideoInfo `json:"entries"`
	}
	if err := json.Unmarshal(out, &listing); err != nil {
		return nil, fmt.Errorf("failed to parse search results: %w", err)
	}

	results := make([]SearchResult, 0, len(listing.Entries))
	for i := range listing.Entries {
		e := &listing.Entries[i]
		if e.ID == "" {
			continue
		}
		link := e.URL
		if !strings.HasPrefix(link, "http") {
			link = WatchURL(e.ID)
		}
		results = append(results, SearchResult{
			ID:           e.ID,
			Title:        e.Title,
			URL:          link,
			Channel:      firstNonEmpty(e.Channel, e.Uploader),
			Uploader:     e.Uploader,
			Artist:       e.Artist,
			Album:        e.Album,
			Duration:     e.Duration,
			ThumbnailURL: e.BestThumbnail(),
			ViewCount:    e.ViewCount,
		})
		if len(results) == limit {
			break
		}
	}
	return results, nil
}

func (c *Client) Info(ctx context.Context, videoURL string) (*VideoInfo, error) {
	if !ValidateURL(videoURL) {
		return nil, fmt.Errorf("invalid YouTube URL: %s", videoURL)
	}
	out, err := c.exec.DumpJSON(ctx, videoURL, false, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch video info: %w", err)
	}
	info := &VideoInfo{}
	if err := json.Unmarshal(out, info); err != nil {
		return nil, fmt.Errorf("failed to parse video info: %w", err)
	}
	if info.ID == "" {
		return nil, fmt.Errorf("video info for %s has no id", videoURL)
	}
	return info, nil
}

// Download extracts the audio of videoURL as dir/original.mp3 and keeps the
// thumbnail next to it.
func (c *Client) Download(ctx context.Context, videoURL, dir string, progress ProgressFunc) (*DownloadResult, error) {
	if !ValidateURL(videoURL) {
		return nil, fmt.Errorf("invalid YouTube URL: %s", videoURL)
	}
	if err := library.EnsureDir(dir); err != nil {
		return nil, err
	}

	template := filepath.Join(dir, "original.%(ext)s")
	if err := c.exec.DownloadAudio(ctx, videoURL, template, progress); err != nil {
		return nil, fmt.Errorf("yt-dlp download failed: %w", err)
	}

	audio := filepath.Join(dir, "original.mp3")
	if _, err := os.Stat(audio); err != nil {
		return nil, fmt.Errorf("downloaded audio not found: %w", err)
	}

	res := &DownloadResult{AudioPath: audio}
	for _, ext := range []string{".jpg", ".webp", ".png", ".jpeg"} {
		p := filepath.Join(dir, "original"+ext)
		if _, err := os.Stat(p); err == nil {
			res.ThumbnailPath = p
			break
		}
	}
	return res, nil
}

// Package lyrics talks to LRClib and parses LRC formatted lyrics.
package lyrics

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/httpclient"
)

type Query struct {
	Track    string `form:"track_name"`
	Artist   string `form:"artist_name"`
	Album    string `form:"album_name"`
	Q        string `form:"q"`
	Duration int    `form:"duration"` // seconds
}

type ClientInterface interface {
	Get(ctx context.Context, q Query) (*domain.LyricsResult, error)
	Search(ctx context.Context, q Query) ([]domain.LyricsResult, error)
}

type Client struct {
	http    *httpclient.Client
	baseURL string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultLRCLibURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(nil, 100*time.Millisecond),
	}
}

func (c *Client) WithHTTPClient(h *httpclient.Client) *Client {
	c.http = h
	return c
}

type record struct {
	ID           int64   `json:"id"`
	TrackName    string  `json:"trackName"`
	ArtistName   string  `json:"artistName"`
	AlbumName    string  `json:"albumName"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plainLyrics"`
	SyncedLyrics string  `json:"syncedLyrics"`
}

func (r record) result() domain.LyricsResult {
	return domain.LyricsResult{
		ID:           r.ID,
		Title:        r.TrackName,
		Artist:       r.ArtistName,
		Album:        r.AlbumName,
		Duration:     r.Duration,
		Instrumental: r.Instrumental,
		PlainLyrics:  r.PlainLyrics,
		SyncedLyrics: r.SyncedLyrics,
	}
}

// Get fetches the best exact match. It returns nil, nil when LRClib has none.
func (c *Client) Get(ctx context.Context, q Query) (*domain.LyricsResult, error) {
	if strings.TrimSpace(q.Track) == "" || strings.TrimSpace(q.Artist) == "" {
		return nil, domain.NewValidationError("track and artist are required", map[string]string{
			"track_name":  "required",
			"artist_name": "required",
		})
	}

	v := url.Values{}
	v.Set("track_name", q.Track)
	v.Set("artist_name", q.Artist)
	if q.Album != "" {
		v.Set("album_name", q.Album)
	}
	if q.Duration > 0 {
		v.Set("duration", strconv.Itoa(q.Duration))
	}

	var rec record
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/get?"+v.Encode(), &rec); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("lrclib get: %w", err)
	}
	res := rec.result()
	return &res, nil
}

// Search lists candidates for a free text or field query.
func (c *Client) Search(ctx context.Context, q Query) ([]domain.LyricsResult, error) {
	v := url.Values{}
	if s := strings.TrimSpace(q.Q); s != "" {
		v.Set("q", s)
	}
	if s := strings.TrimSpace(q.Track); s != "" {
		v.Set("track_name", s)
	}
	if s := strings.TrimSpace(q.Artist); s != "" {
		v.Set("artist_name", s)
	}
	if s := strings.TrimSpace(q.Album); s != "" {
		v.Set("album_name", s)
	}
	if len(v) == 0 {
		return []domain.LyricsResult{}, nil
	}

	var recs []record
	if err := c.http.GetJSON(ctx, c.baseURL+"/api/search?"+v.Encode(), &recs); err != nil {
		return nil, fmt.Errorf("lrclib search: %w", err)
	}

	out := make([]domain.LyricsResult, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.result())
	}
	if q.Duration > 0 {
		sortByDuration(out, float64(q.Duration))
	}
	return out, nil
}

// sortByDuration orders results by distance from the wanted duration, stable on ties.
func sortByDuration(results []domain.LyricsResult, want float64) {
	sort.SliceStable(results, func(i, j int) bool {
		return math.Abs(results[i].Duration-want) < math.Abs(results[j].Duration-want)
	})
}

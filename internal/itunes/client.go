// Package itunes queries the iTunes Search API for song metadata.
package itunes

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/httpclient"
)

const (
	maxLimit       = 200
	artworkSize    = "600x600bb"
	defaultArtSize = "100x100bb"
)

type SearchParams struct {
	Artist string
	Title  string
	Album  string
	Limit  int
}

// Term joins the non-empty parts into a search term.
func (p SearchParams) Term() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Artist, p.Title, p.Album} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Result is a normalized iTunes track.
type Result struct {
	TrackID        int64  `json:"track_id"`
	ArtistID       int64  `json:"artist_id"`
	CollectionID   int64  `json:"collection_id"`
	TrackName      string `json:"track_name"`
	ArtistName     string `json:"artist_name"`
	CollectionName string `json:"collection_name"`
	Genre          string `json:"genre"`
	ReleaseDate    string `json:"release_date"`
	DurationMs     int64  `json:"duration_ms"`
	Explicit       bool   `json:"explicit"`
	PreviewURL     string `json:"preview_url"`
	ArtworkURL     string `json:"artwork_url"`
}

// Year returns the release year or 0.
func (r Result) Year() int {
	if len(r.ReleaseDate) < 4 {
		return 0
	}
	y, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return y
}

type ClientInterface interface {
	Search(ctx context.Context, params SearchParams) ([]Result, error)
}

type Client struct {
	baseURL string
	http    *httpclient.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultITunesURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewClient(nil, 200*time.Millisecond),
	}
}

// NewClientWithHTTP is used by tests to inject a client.
func NewClientWithHTTP(baseURL string, c *httpclient.Client) *Client {
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: c}
}

type searchResponse struct {
	ResultCount int         `json:"resultCount"`
	Results     []rawResult `json:"results"`
}

type rawResult struct {
	WrapperType       string  `json:"wrapperType"`
	Kind              string  `json:"kind"`
	TrackID           int64   `json:"trackId"`
	ArtistID          int64   `json:"artistId"`
	CollectionID      int64   `json:"collectionId"`
	TrackName         string  `json:"trackName"`
	ArtistName        string  `json:"artistName"`
	CollectionName    string  `json:"collectionName"`
	PrimaryGenreName  string  `json:"primaryGenreName"`
	ReleaseDate       string  `json:"releaseDate"`
	TrackTimeMillis   float64 `json:"trackTimeMillis"`
	TrackExplicitness string  `json:"trackExplicitness"`
	PreviewURL        string  `json:"previewUrl"`
	ArtworkURL100     string  `json:"artworkUrl100"`
}

func (c *Client) Search(ctx context.Context, params SearchParams) ([]Result, error) {
	term := params.Term()
	if term == "" {
		return []Result{}, nil
	}
	limit := params.Limit
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	q := url.Values{}
	q.Set("term", term)
	q.Set("media", "music")
	q.Set("entity", "song")
	q.Set("limit", strconv.Itoa(limit))

	var resp searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/search?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("itunes search: %w", err)
	}

	results := make([]Result, 0, len(resp.Results))
	for _, r := range resp.Results {
		if r.TrackID == 0 || r.TrackName == "" {
			continue
		}
		if r.Kind != "" && r.Kind != "song" {
			continue
		}
		results = append(results, r.normalize())
	}
	return results, nil
}

func (r rawResult) normalize() Result {
	release := r.ReleaseDate
	if len(release) >= 10 {
		release = release[:10]
	}
	return Result{
		TrackID:        r.TrackID,
		ArtistID:       r.ArtistID,
		CollectionID:   r.CollectionID,
		TrackName:      r.TrackName,
		ArtistName:     r.ArtistName,
		CollectionName: r.CollectionName,
		Genre:          r.PrimaryGenreName,
		ReleaseDate:    release,
		DurationMs:     int64(r.TrackTimeMillis),
		Explicit:       r.TrackExplicitness == "explicit",
		PreviewURL:     r.PreviewURL,
		ArtworkURL:     UpscaleArtwork(r.ArtworkURL100),
	}
}

// UpscaleArtwork rewrites the 100px artwork URL to the 600px variant.
func UpscaleArtwork(u string) string {
	if u == "" {
		return ""
	}
	return strings.Replace(u, defaultArtSize, artworkSize, 1)
}

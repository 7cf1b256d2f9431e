package dto

import (
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

// SongListQuery is the query string of GET /api/songs.
type SongListQuery struct {
	SortBy    string `form:"sort_by"`
	Direction string `form:"direction"`
	Favorite  *bool  `form:"favorite"`
	Limit     int    `form:"limit"`
	Offset    int    `form:"offset"`
}

func (q *SongListQuery) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateSortBy(q.SortBy)...)
	errs = append(errs, validateDirection(q.Direction)...)
	errs = append(errs, validateRange("limit", q.Limit, 0, constants.MaxPageSize)...)
	if q.Offset < 0 {
		errs = append(errs, ValidationError{Field: "offset", Message: "must not be negative"})
	}
	return errs
}

func (q *SongListQuery) Options() store.ListOptions {
	return store.ListOptions{
		SortBy:    q.SortBy,
		Direction: q.Direction,
		Favorite:  q.Favorite,
		Limit:     q.Limit,
		Offset:    q.Offset,
	}
}

type SongListResponse struct {
	Songs      []*domain.Song `json:"songs"`
	Pagination *Pagination    `json:"pagination"`
}

func NewSongListResponse(page *app.SongPage) SongListResponse {
	return SongListResponse{
		Songs:      page.Songs,
		Pagination: NewPagination(page.Limit, page.Offset, page.Total),
	}
}

// SearchQuery is a free-text search with an optional limit.
type SearchQuery struct {
	Q     string `form:"q"`
	Limit int    `form:"limit"`
}

func (q *SearchQuery) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("q", q.Q)...)
	errs = append(errs, validateRange("limit", q.Limit, 0, constants.MaxPageSize)...)
	return errs
}

// SongCreateRequest is the body of POST /api/songs.
type SongCreateRequest struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Artist       string `json:"artist"`
	Album        string `json:"album"`
	Genre        string `json:"genre"`
	Language     string `json:"language"`
	ReleaseDate  string `json:"release_date"`
	Source       string `json:"source"`
	SourceURL    string `json:"source_url"`
	VideoID      string `json:"video_id"`
	Lyrics       string `json:"lyrics"`
	SyncedLyrics string `json:"synced_lyrics"`
	DurationMs   int64  `json:"duration_ms"`
	Year         int    `json:"year"`
	Favorite     bool   `json:"favorite"`
}

func (r *SongCreateRequest) Validate() []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateRequired("title", r.Title)...)
	errs = append(errs, validateRequired("artist", r.Artist)...)
	errs = append(errs, validateReleaseDate(r.ReleaseDate)...)
	errs = append(errs, validateYear(r.Year)...)
	errs = append(errs, validateURL("source_url", r.SourceURL)...)
	switch r.Source {
	case "", constants.SourceUpload, constants.SourceYouTube:
	default:
		errs = append(errs, ValidationError{Field: "source", Message: "must be 'upload' or 'youtube'"})
	}
	if r.DurationMs < 0 {
		errs = append(errs, ValidationError{Field: "duration_ms", Message: "must not be negative"})
	}
	return errs
}

func (r *SongCreateRequest) ToSong() *domain.Song {
	return &domain.Song{
		ID:           strings.TrimSpace(r.ID),
		Title:        r.Title,
		Artist:       r.Artist,
		Album:        r.Album,
		Genre:        r.Genre,
		Language:     r.Language,
		ReleaseDate:  r.ReleaseDate,
		Source:       r.Source,
		SourceURL:    r.SourceURL,
		VideoID:      r.VideoID,
		Lyrics:       r.Lyrics,
		SyncedLyrics: r.SyncedLyrics,
		DurationMs:   r.DurationMs,
		Year:         r.Year,
		Favorite:     r.Favorite,
	}
}

// LyricsRequest is the body of PUT /api/songs/{id}/lyrics.
type LyricsRequest struct {
	Lyrics       string `json:"lyrics"`
	SyncedLyrics string `json:"synced_lyrics"`
}

// SongJobResponse answers requests that create a song and queue work for it.
type SongJobResponse struct {
	Song *domain.Song `json:"song"`
	Job  *domain.Job  `json:"job"`
}

// JobListQuery is the query string of GET /api/jobs.
type JobListQuery struct {
	IncludeDismissed bool `form:"include_dismissed"`
}

// MusicBrainzQuery is the query string of GET /api/musicbrainz/search.
type MusicBrainzQuery struct {
	Artist string `form:"artist"`
	Title  string `form:"title"`
	Limit  int    `form:"limit"`
}

// VideoQuery is the query string of GET /api/youtube/info.
type VideoQuery struct {
	URL string `form:"url"`
}

package domain

import (
	"strings"
	"time"
)

type JobType string

const (
	JobTypeDownload   JobType = "download"
	JobTypeSeparation JobType = "separation"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transition is allowed from s.
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a job may move from s to next.
func (s JobStatus) CanTransition(next JobStatus) bool {
	switch s {
	case JobStatusPending:
		return next == JobStatusProcessing || next == JobStatusCancelled || next == JobStatusFailed
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed || next == JobStatusCancelled
	}
	return false
}

// Job mirrors one unit of background work (download or separation).
type Job struct {
	CreatedAt     time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at" db:"updated_at"`
	StartedAt     *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Error         *string    `json:"error,omitempty" db:"error"`
	ID            string     `json:"id" db:"id"`
	Type          JobType    `json:"type" db:"type"`
	Status        JobStatus  `json:"status" db:"status"`
	Filename      string     `json:"filename" db:"filename"`
	SongID        string     `json:"song_id" db:"song_id"`
	Title         string     `json:"title" db:"title"`
	Artist        string     `json:"artist" db:"artist"`
	StatusMessage string     `json:"status_message" db:"status_message"`
	TaskID        string     `json:"task_id" db:"task_id"`
	Progress      float64    `json:"progress" db:"progress"`
	Dismissed     bool       `json:"dismissed" db:"dismissed"`
}

// ErrorMessage returns the error text or an empty string.
func (j *Job) ErrorMessage() string {
	if j.Error == nil {
		return ""
	}
	return *j.Error
}

type SongStatus string

const (
	SongStatusProcessing SongStatus = "processing"
	SongStatusProcessed  SongStatus = "processed"
	SongStatusFailed     SongStatus = "failed"
)

// Song is a library entry with its stems and merged metadata.
type Song struct { //nolint:govet // field ordering prioritizes readability over memory alignment
	ID         string     `json:"id" db:"id"`
	Title      string     `json:"title" db:"title"`
	Artist     string     `json:"artist" db:"artist"`
	Album      string     `json:"album" db:"album"`
	DurationMs int64      `json:"duration_ms" db:"duration_ms"`
	Favorite   bool       `json:"favorite" db:"favorite"`
	Status     SongStatus `json:"status" db:"status"`
	DateAdded  time.Time  `json:"date_added" db:"date_added"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`

	// Paths are relative to the library root
	VocalsPath       string `json:"vocals_path" db:"vocals_path"`
	InstrumentalPath string `json:"instrumental_path" db:"instrumental_path"`
	OriginalPath     string `json:"original_path" db:"original_path"`
	ThumbnailPath    string `json:"thumbnail_path" db:"thumbnail_path"`
	CoverArtPath     string `json:"cover_art_path" db:"cover_art_path"`

	Source      string `json:"source" db:"source"`
	SourceURL   string `json:"source_url" db:"source_url"`
	VideoID     string `json:"video_id" db:"video_id"`
	Genre       string `json:"genre" db:"genre"`
	Language    string `json:"language" db:"language"`
	ReleaseDate string `json:"release_date" db:"release_date"`
	Year        int    `json:"year" db:"year"`
	Explicit    bool   `json:"explicit" db:"explicit"`

	ITunesTrackID      int64  `json:"itunes_track_id" db:"itunes_track_id"`
	ITunesArtistID     int64  `json:"itunes_artist_id" db:"itunes_artist_id"`
	ITunesCollectionID int64  `json:"itunes_collection_id" db:"itunes_collection_id"`
	ITunesPreviewURL   string `json:"itunes_preview_url" db:"itunes_preview_url"`
	ITunesArtworkURL   string `json:"itunes_artwork_url" db:"itunes_artwork_url"`
	MusicBrainzID      string `json:"musicbrainz_id" db:"musicbrainz_id"`

	Channel     string      `json:"channel" db:"channel"`
	ChannelID   string      `json:"channel_id" db:"channel_id"`
	Uploader    string      `json:"uploader" db:"uploader"`
	YouTubeTags StringSlice `json:"youtube_tags" db:"youtube_tags"`
	YouTubeRaw  RawJSON     `json:"-" db:"youtube_raw"`

	Lyrics       string `json:"lyrics" db:"lyrics"`
	SyncedLyrics string `json:"synced_lyrics" db:"synced_lyrics"`
}

// Normalize trims user-facing strings and applies display defaults.
func (s *Song) Normalize() {
	s.Title = strings.TrimSpace(s.Title)
	s.Artist = strings.TrimSpace(s.Artist)
	s.Album = strings.TrimSpace(s.Album)
	if s.Title == "" {
		s.Title = UnknownTitle
	}
	if s.Artist == "" {
		s.Artist = UnknownArtist
	}
	if s.Status == "" {
		s.Status = SongStatusProcessing
	}
	if s.YouTubeTags == nil {
		s.YouTubeTags = StringSlice{}
	}
	if s.Year == 0 && len(s.ReleaseDate) >= 4 {
		year := 0
		for _, r := range s.ReleaseDate[:4] {
			if r < '0' || r > '9' {
				return
			}
			year = year*10 + int(r-'0')
		}
		s.Year = year
	}
}

// HasStems reports whether both separated tracks are present.
func (s *Song) HasStems() bool {
	return s.VocalsPath != "" && s.InstrumentalPath != ""
}

const (
	UnknownTitle  = "Unknown Title"
	UnknownArtist = "Unknown Artist"
)

// TrackKind names one of the downloadable audio files of a song.
type TrackKind string

const (
	TrackVocals       TrackKind = "vocals"
	TrackInstrumental TrackKind = "instrumental"
	TrackOriginal     TrackKind = "original"
)

// Path returns the stored relative path for kind, or "" when unknown.
func (s *Song) Path(kind TrackKind) string {
	switch kind {
	case TrackVocals:
		return s.VocalsPath
	case TrackInstrumental:
		return s.InstrumentalPath
	case TrackOriginal:
		return s.OriginalPath
	}
	return ""
}

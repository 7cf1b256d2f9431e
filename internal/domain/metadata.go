package domain

// MetadataResult is a normalized candidate from an external catalog.
type MetadataResult struct {
	Title              string  `json:"title"`
	Artist             string  `json:"artist"`
	Album              string  `json:"album"`
	DurationMs         int64   `json:"duration_ms"`
	ReleaseDate        string  `json:"release_date,omitempty"`
	Year               int     `json:"year,omitempty"`
	Genre              string  `json:"genre,omitempty"`
	CoverURL           string  `json:"cover_url,omitempty"`
	PreviewURL         string  `json:"preview_url,omitempty"`
	Source             string  `json:"source"`
	ITunesTrackID      int64   `json:"itunes_track_id,omitempty"`
	ITunesArtistID     int64   `json:"itunes_artist_id,omitempty"`
	ITunesCollectionID int64   `json:"itunes_collection_id,omitempty"`
	MusicBrainzID      string  `json:"musicbrainz_id,omitempty"`
	Explicit           bool    `json:"explicit"`
	Score              float64 `json:"score"`
}

// MetadataQuery describes a catalog lookup.
type MetadataQuery struct {
	Artist string `form:"artist"`
	Title  string `form:"title"`
	Album  string `form:"album"`
	Query  string `form:"q"`
	Limit  int    `form:"limit"`
}

// Empty reports whether the query carries no search terms.
func (q MetadataQuery) Empty() bool {
	return q.Artist == "" && q.Title == "" && q.Album == "" && q.Query == ""
}

// LyricsResult is one lyrics candidate.
type LyricsResult struct {
	ID           int64   `json:"id"`
	Title        string  `json:"title"`
	Artist       string  `json:"artist"`
	Album        string  `json:"album"`
	Duration     float64 `json:"duration"`
	Instrumental bool    `json:"instrumental"`
	PlainLyrics  string  `json:"plain_lyrics"`
	SyncedLyrics string  `json:"synced_lyrics"`
}

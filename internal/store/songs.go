package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cesargomez89/openkaraoke/internal/domain"
)

const songColumns = `id, title, artist, album, duration_ms, favorite, status, date_added, updated_at,
	vocals_path, instrumental_path, original_path, thumbnail_path, cover_art_path,
	source, source_url, video_id, genre, language, release_date, year, explicit,
	itunes_track_id, itunes_artist_id, itunes_collection_id, itunes_preview_url, itunes_artwork_url, musicbrainz_id,
	channel, channel_id, uploader, youtube_tags, youtube_raw,
	lyrics, synced_lyrics`

// SortColumns maps API sort keys to columns.
var SortColumns = map[string]string{
	"title":       "title COLLATE NOCASE",
	"artist":      "artist COLLATE NOCASE",
	"album":       "album COLLATE NOCASE",
	"date_added":  "date_added",
	"duration":    "duration_ms",
	"duration_ms": "duration_ms",
}

// ListOptions controls paging and ordering of song listings.
type ListOptions struct {
	SortBy    string
	Direction string
	Favorite  *bool
	Limit     int
	Offset    int
}

func (db *DB) CreateSong(song *domain.Song) error {
	song.Normalize()
	now := time.Now()
	if song.DateAdded.IsZero() {
		song.DateAdded = now
	}
	song.UpdatedAt = now

	query := `INSERT INTO songs (` + songColumns + `) VALUES (
		:id, :title, :artist, :album, :duration_ms, :favorite, :status, :date_added, :updated_at,
		:vocals_path, :instrumental_path, :original_path, :thumbnail_path, :cover_art_path,
		:source, :source_url, :video_id, :genre, :language, :release_date, :year, :explicit,
		:itunes_track_id, :itunes_artist_id, :itunes_collection_id, :itunes_preview_url, :itunes_artwork_url, :musicbrainz_id,
		:channel, :channel_id, :uploader, :youtube_tags, :youtube_raw,
		:lyrics, :synced_lyrics
	)`

	if _, err := db.NamedExec(query, song); err != nil {
		return fmt.Errorf("failed to create song: %w", err)
	}
	return nil
}

func (db *DB) GetSong(id string) (*domain.Song, error) {
	var song domain.Song
	err := db.Get(&song, `SELECT `+songColumns+` FROM songs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.NewNotFoundError("song", id)
	}
	if err != nil {
		return nil, err
	}
	return &song, nil
}

// UpdateSongPartial applies a column → value map restricted to editable columns.
func (db *DB) UpdateSongPartial(id string, updates map[string]interface{}) error {
	if len(updates) == 0 {
		return nil
	}

	allowedColumns := map[string]bool{
		"title":          true,
		"artist":         true,
		"album":          true,
		"genre":          true,
		"language":       true,
		"release_date":   true,
		"year":           true,
		"explicit":       true,
		"favorite":       true,
		"duration_ms":    true,
		"lyrics":         true,
		"synced_lyrics":  true,
		"musicbrainz_id": true,
	}

	cols := make([]string, 0, len(updates))
	for col := range updates {
		if !allowedColumns[col] {
			return fmt.Errorf("invalid column name: %s", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClauses := make([]string, 0, len(cols))
	args := make([]interface{}, 0, len(cols)+2)
	for _, col := range cols {
		setClauses = append(setClauses, col+" = ?")
		args = append(args, updates[col])
	}
	args = append(args, time.Now(), id)

	query := fmt.Sprintf("UPDATE songs SET %s, updated_at = ? WHERE id = ?", strings.Join(setClauses, ", "))

	result, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to update song: %w", err)
	}
	return requireRow(result, "song", id)
}

// ColumnFill is a compare-and-set pair for FillSongColumns.
type ColumnFill struct {
	Old interface{}
	New interface{}
}

var fillableColumns = map[string]bool{
	"artist":               true,
	"album":                true,
	"genre":                true,
	"release_date":         true,
	"year":                 true,
	"explicit":             true,
	"duration_ms":          true,
	"lyrics":               true,
	"synced_lyrics":        true,
	"cover_art_path":       true,
	"musicbrainz_id":       true,
	"itunes_track_id":      true,
	"itunes_artist_id":     true,
	"itunes_collection_id": true,
	"itunes_preview_url":   true,
	"itunes_artwork_url":   true,
}

// FillSongColumns sets each column to New only while it still holds Old.
// Columns changed by someone else since Old was read keep their value.
func (db *DB) FillSongColumns(id string, fills map[string]ColumnFill) error {
	if len(fills) == 0 {
		return nil
	}

	cols := make([]string, 0, len(fills))
	for col := range fills {
		if !fillableColumns[col] {
			return fmt.Errorf("invalid column name: %s", col)
		}
		cols = append(cols, col)
	}
	sort.Strings(cols)

	setClauses := make([]string, 0, len(cols))
	args := make([]interface{}, 0, 2*len(cols)+2)
	for _, col := range cols {
		setClauses = append(setClauses, fmt.Sprintf("%s = CASE WHEN %s = ? THEN ? ELSE %s END", col, col, col))
		args = append(args, fills[col].Old, fills[col].New)
	}
	args = append(args, time.Now(), id)

	query := fmt.Sprintf("UPDATE songs SET %s, updated_at = ? WHERE id = ?", strings.Join(setClauses, ", "))
	result, err := db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to fill song: %w", err)
	}
	return requireRow(result, "song", id)
}

// SongPaths carries the file columns updated by processing steps; empty fields are left unchanged.
type SongPaths struct {
	Vocals       string
	Instrumental string
	Original     string
	Thumbnail    string
	CoverArt     string
}

func (db *DB) UpdateSongPaths(id string, p SongPaths) error {
	query := `UPDATE songs SET
		vocals_path = COALESCE(NULLIF(?, ''), vocals_path),
		instrumental_path = COALESCE(NULLIF(?, ''), instrumental_path),
		original_path = COALESCE(NULLIF(?, ''), original_path),
		thumbnail_path = COALESCE(NULLIF(?, ''), thumbnail_path),
		cover_art_path = COALESCE(NULLIF(?, ''), cover_art_path),
		updated_at = ?
	WHERE id = ?`
	result, err := db.Exec(query, p.Vocals, p.Instrumental, p.Original, p.Thumbnail, p.CoverArt, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, "song", id)
}

func (db *DB) UpdateSongStatus(id string, status domain.SongStatus) error {
	result, err := db.Exec(`UPDATE songs SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, "song", id)
}

func (db *DB) SetFavorite(id string, favorite bool) error {
	result, err := db.Exec(`UPDATE songs SET favorite = ?, updated_at = ? WHERE id = ?`, favorite, time.Now(), id)
	if err != nil {
		return err
	}
	return requireRow(result, "song", id)
}

func (db *DB) DeleteSong(id string) error {
	result, err := db.Exec("DELETE FROM songs WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireRow(result, "song", id)
}

func (db *DB) ListSongs(opts ListOptions) ([]*domain.Song, error) {
	orderCol, ok := SortColumns[opts.SortBy]
	if !ok {
		orderCol = SortColumns["date_added"]
	}
	dir := "DESC"
	if strings.EqualFold(opts.Direction, "asc") {
		dir = "ASC"
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = -1
	}

	where, args := "", []interface{}{}
	if opts.Favorite != nil {
		where = " WHERE favorite = ?"
		args = append(args, *opts.Favorite)
	}
	args = append(args, limit, opts.Offset)

	query := fmt.Sprintf(`SELECT %s FROM songs%s ORDER BY %s %s, id ASC LIMIT ? OFFSET ?`, songColumns, where, orderCol, dir)
	return selectSongs(db, query, args...)
}

func (db *DB) CountSongs(favorite *bool) (int, error) {
	var count int
	var err error
	if favorite != nil {
		err = db.Get(&count, "SELECT COUNT(*) FROM songs WHERE favorite = ?", *favorite)
	} else {
		err = db.Get(&count, "SELECT COUNT(*) FROM songs")
	}
	return count, err
}

// SearchSongs ranks exact title matches first, then title prefixes, then
// artist matches, then any substring match on title, artist or album.
// Matching is case-insensitive for ASCII letters only.
func (db *DB) SearchSongs(q string, limit int) ([]*domain.Song, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []*domain.Song{}, nil
	}
	if limit <= 0 {
		limit = 50
	}

	lower := asciiLower(q)
	contains := "%" + escapeLike(lower) + "%"
	prefix := escapeLike(lower) + "%"

	query := `SELECT ` + songColumns + ` FROM songs
		WHERE lower(title) LIKE ? ESCAPE '\' OR lower(artist) LIKE ? ESCAPE '\' OR lower(album) LIKE ? ESCAPE '\'
		ORDER BY
			CASE
				WHEN lower(title) = ? THEN 0
				WHEN lower(title) LIKE ? ESCAPE '\' THEN 1
				WHEN lower(artist) = ? THEN 2
				WHEN lower(artist) LIKE ? ESCAPE '\' THEN 3
				WHEN lower(title) LIKE ? ESCAPE '\' THEN 4
				ELSE 5
			END,
			title COLLATE NOCASE ASC
		LIMIT ?`

	return selectSongs(db, query, contains, contains, contains, lower, prefix, lower, prefix, contains, limit)
}

// ListSongsMissingMetadata returns songs with no iTunes match or no lyrics.
func (db *DB) ListSongsMissingMetadata(limit int) ([]*domain.Song, error) {
	query := `SELECT ` + songColumns + ` FROM songs
		WHERE itunes_track_id = 0 OR lyrics = '' OR cover_art_path = ''
		ORDER BY date_added DESC LIMIT ?`
	return selectSongs(db, query, limit)
}

func (db *DB) ListSongIDs() ([]string, error) {
	var ids []string
	err := db.Select(&ids, "SELECT id FROM songs")
	return ids, err
}

func selectSongs(q sqlx.Queryer, query string, args ...interface{}) ([]*domain.Song, error) {
	songs := []*domain.Song{}
	err := sqlx.Select(q, &songs, query, args...)
	return songs, err
}

func requireRow(result sql.Result, resource, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFoundError(resource, id)
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// asciiLower folds only ASCII letters, matching SQLite's lower().
func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + ('a' - 'A')
		}
		return r
	}, s)
}

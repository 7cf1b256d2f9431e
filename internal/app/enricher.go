package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/itunes"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/lyrics"
	"github.com/cesargomez89/openkaraoke/internal/musicbrainz"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

// minMatchScore is the lowest score an iTunes match needs to be merged
// into a song without user confirmation: at least a partial title match.
const minMatchScore = 2

// Enhancer fills missing song metadata from iTunes, MusicBrainz and LRClib.
// Existing values are never overwritten.
type Enhancer struct {
	itunes  itunes.ClientInterface
	mb      musicbrainz.ClientInterface
	lyrics  lyrics.ClientInterface
	images  ImageFetcher
	repo    *store.DB
	library *library.Library
	logger  *logger.Logger
}

func NewEnhancer(
	it itunes.ClientInterface,
	mb musicbrainz.ClientInterface,
	lc lyrics.ClientInterface,
	images ImageFetcher,
	repo *store.DB,
	lib *library.Library,
	log *logger.Logger,
) *Enhancer {
	return &Enhancer{
		itunes:  it,
		mb:      mb,
		lyrics:  lc,
		images:  images,
		repo:    repo,
		library: lib,
		logger:  log.WithComponent("enhancer"),
	}
}

// Enhance loads a song, merges external metadata into it and persists the
// filled fields. The returned song is re-read after saving.
func (e *Enhancer) Enhance(ctx context.Context, songID string) (*domain.Song, error) {
	song, err := e.repo.GetSong(songID)
	if err != nil {
		return nil, err
	}
	before := *song

	log := e.logger.WithSong(song.ID, song.Title).Logger
	if !e.EnhanceSong(ctx, song, log) {
		log.Debug("No new metadata found")
		return song, nil
	}
	if err := e.save(&before, song); err != nil {
		return nil, fmt.Errorf("failed to save enhanced song: %w", err)
	}
	log.Info("Song metadata enhanced")
	return e.repo.GetSong(songID)
}

// save writes only the columns the enhancer changed, and only where the
// row still holds the value read before the lookups.
func (e *Enhancer) save(before, after *domain.Song) error {
	fills := make(map[string]store.ColumnFill)
	add := func(col string, old, val interface{}) {
		if old != val {
			fills[col] = store.ColumnFill{Old: old, New: val}
		}
	}
	add("artist", before.Artist, after.Artist)
	add("album", before.Album, after.Album)
	add("genre", before.Genre, after.Genre)
	add("release_date", before.ReleaseDate, after.ReleaseDate)
	add("year", before.Year, after.Year)
	add("explicit", before.Explicit, after.Explicit)
	add("duration_ms", before.DurationMs, after.DurationMs)
	add("lyrics", before.Lyrics, after.Lyrics)
	add("synced_lyrics", before.SyncedLyrics, after.SyncedLyrics)
	add("cover_art_path", before.CoverArtPath, after.CoverArtPath)
	add("musicbrainz_id", before.MusicBrainzID, after.MusicBrainzID)
	add("itunes_track_id", before.ITunesTrackID, after.ITunesTrackID)
	add("itunes_artist_id", before.ITunesArtistID, after.ITunesArtistID)
	add("itunes_collection_id", before.ITunesCollectionID, after.ITunesCollectionID)
	add("itunes_preview_url", before.ITunesPreviewURL, after.ITunesPreviewURL)
	add("itunes_artwork_url", before.ITunesArtworkURL, after.ITunesArtworkURL)
	return e.repo.FillSongColumns(after.ID, fills)
}

// EnhanceMissing enhances up to limit songs that still lack metadata and
// returns how many changed.
func (e *Enhancer) EnhanceMissing(ctx context.Context, limit int) (int, error) {
	songs, err := e.repo.ListSongsMissingMetadata(limit)
	if err != nil {
		return 0, err
	}
	changed := 0
	for _, song := range songs {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		before := *song
		log := e.logger.WithSong(song.ID, song.Title).Logger
		if !e.EnhanceSong(ctx, song, log) {
			continue
		}
		if err := e.save(&before, song); err != nil {
			log.Warn("Failed to save enhanced song", "error", err)
			continue
		}
		changed++
	}
	return changed, nil
}

// EnhanceSong merges metadata into song in memory, saving cover art and
// lyrics files along the way. It reports whether anything changed.
func (e *Enhancer) EnhanceSong(ctx context.Context, song *domain.Song, log *slog.Logger) bool {
	changed := e.ApplyITunes(ctx, song, log)
	if e.applyMusicBrainz(ctx, song, log) {
		changed = true
	}
	if e.applyLyrics(ctx, song, log) {
		changed = true
	}
	if e.applyCover(ctx, song, log) {
		changed = true
	}
	return changed
}

// ApplyITunes merges the best iTunes match into song.
func (e *Enhancer) ApplyITunes(ctx context.Context, song *domain.Song, log *slog.Logger) bool {
	if e.itunes == nil || song.ITunesTrackID != 0 {
		return false
	}
	q := domain.MetadataQuery{Title: knownOrEmpty(song.Title, domain.UnknownTitle), Artist: knownOrEmpty(song.Artist, domain.UnknownArtist)}
	if q.Title == "" {
		return false
	}

	results, err := e.itunes.Search(ctx, itunes.SearchParams{Artist: q.Artist, Title: q.Title, Limit: 25})
	if err != nil {
		log.Warn("iTunes lookup failed", "error", err)
		return false
	}
	ranked := rankResults(results, q, song.DurationMs, 1)
	if len(ranked) == 0 || ranked[0].Score < minMatchScore {
		return false
	}
	best := ranked[0]

	song.ITunesTrackID = best.ITunesTrackID
	song.ITunesArtistID = best.ITunesArtistID
	song.ITunesCollectionID = best.ITunesCollectionID
	fillString(&song.ITunesPreviewURL, best.PreviewURL)
	fillString(&song.ITunesArtworkURL, best.CoverURL)
	fillString(&song.Album, best.Album)
	fillString(&song.Genre, best.Genre)
	fillString(&song.ReleaseDate, best.ReleaseDate)
	if song.Year == 0 {
		song.Year = best.Year
	}
	if song.DurationMs == 0 {
		song.DurationMs = best.DurationMs
	}
	if best.Explicit {
		song.Explicit = true
	}
	if song.Artist == domain.UnknownArtist && best.Artist != "" {
		song.Artist = best.Artist
	}
	log.Debug("Applied iTunes match", "itunes_track_id", best.ITunesTrackID, "score", best.Score)
	return true
}

func (e *Enhancer) applyMusicBrainz(ctx context.Context, song *domain.Song, log *slog.Logger) bool {
	if e.mb == nil {
		return false
	}

	var rec *musicbrainz.Recording
	switch {
	case song.MusicBrainzID != "" && song.Genre == "":
		r, err := e.mb.GetRecording(ctx, song.MusicBrainzID)
		if err != nil {
			log.Warn("MusicBrainz lookup failed", "mbid", song.MusicBrainzID, "error", err)
			return false
		}
		rec = r
	case song.MusicBrainzID == "":
		title := knownOrEmpty(song.Title, domain.UnknownTitle)
		artist := knownOrEmpty(song.Artist, domain.UnknownArtist)
		if title == "" || artist == "" {
			return false
		}
		recs, err := e.mb.SearchRecordings(ctx, artist, title, 1)
		if err != nil {
			log.Warn("MusicBrainz search failed", "error", err)
			return false
		}
		if len(recs) > 0 && matchScore(recs[0].Title, title, 1, 1) > 0 {
			rec = &recs[0]
		}
	}
	if rec == nil {
		return false
	}

	before := *song
	fillString(&song.MusicBrainzID, rec.ID)
	fillString(&song.Album, rec.Album)
	fillString(&song.ReleaseDate, rec.ReleaseDate)
	if song.Genre == "" && rec.Genre != "" {
		song.Genre = rec.Genre
		if rec.SubGenre != "" {
			song.Genre = rec.Genre + "; " + rec.SubGenre
		}
	}
	if song.Year == 0 {
		song.Year = rec.Year
	}
	if song.DurationMs == 0 {
		song.DurationMs = rec.DurationMs
	}
	return song.MusicBrainzID != before.MusicBrainzID || song.Genre != before.Genre ||
		song.Album != before.Album || song.ReleaseDate != before.ReleaseDate ||
		song.Year != before.Year || song.DurationMs != before.DurationMs
}

func (e *Enhancer) applyLyrics(ctx context.Context, song *domain.Song, log *slog.Logger) bool {
	if e.lyrics == nil || song.Lyrics != "" || song.SyncedLyrics != "" {
		return false
	}
	q := lyrics.Query{
		Track:    knownOrEmpty(song.Title, domain.UnknownTitle),
		Artist:   knownOrEmpty(song.Artist, domain.UnknownArtist),
		Album:    song.Album,
		Duration: int(song.DurationMs / 1000),
	}
	if q.Track == "" || q.Artist == "" {
		return false
	}

	res, err := e.lyrics.Get(ctx, q)
	if err != nil {
		log.Debug("LRClib get failed, falling back to search", "error", err)
	}
	if res == nil || (res.PlainLyrics == "" && res.SyncedLyrics == "") {
		res = nil
		found, err := e.lyrics.Search(ctx, q)
		if err != nil {
			log.Warn("LRClib search failed", "error", err)
			return false
		}
		for i := range found {
			if !found[i].Instrumental && (found[i].PlainLyrics != "" || found[i].SyncedLyrics != "") {
				res = &found[i]
				break
			}
		}
	}
	if res == nil {
		return false
	}

	song.SyncedLyrics = res.SyncedLyrics
	song.Lyrics = res.PlainLyrics
	if song.Lyrics == "" && song.SyncedLyrics != "" {
		song.Lyrics = lyrics.PlainText(song.SyncedLyrics)
	}
	e.writeLyricsFiles(song, log)
	return true
}

func (e *Enhancer) writeLyricsFiles(song *domain.Song, log *slog.Logger) {
	if e.library == nil {
		return
	}
	if song.Lyrics != "" {
		if _, err := e.library.SaveText(song.ID, constants.PlainLyricsFile, song.Lyrics); err != nil {
			log.Warn("Failed to write lyrics file", "error", err)
		}
	}
	if song.SyncedLyrics != "" {
		if _, err := e.library.SaveText(song.ID, constants.SyncedLyricsFile, song.SyncedLyrics); err != nil {
			log.Warn("Failed to write LRC file", "error", err)
		}
	}
}

func (e *Enhancer) applyCover(ctx context.Context, song *domain.Song, log *slog.Logger) bool {
	if e.images == nil || e.library == nil || song.CoverArtPath != "" || song.ITunesArtworkURL == "" {
		return false
	}
	data, err := e.images.Fetch(ctx, song.ITunesArtworkURL)
	if err != nil {
		log.Warn("Failed to download cover art", "url", song.ITunesArtworkURL, "error", err)
		return false
	}
	rel, err := e.library.SaveImage(song.ID, constants.CoverBase, data)
	if err != nil {
		log.Warn("Failed to save cover art", "error", err)
		return false
	}
	song.CoverArtPath = rel
	return true
}

// SearchMetadata queries iTunes and returns deduplicated candidates sorted
// by relevance. Lookup failures yield an empty list.
func (e *Enhancer) SearchMetadata(ctx context.Context, q domain.MetadataQuery) ([]domain.MetadataResult, error) {
	if q.Empty() {
		return nil, domain.NewValidationError("search requires title, artist, album or q", nil)
	}
	limit := clamp(q.Limit, constants.DefaultSearchLimit, constants.MaxSearchResults)
	if e.itunes == nil {
		return []domain.MetadataResult{}, nil
	}

	params := itunes.SearchParams{Artist: q.Artist, Title: q.Title, Album: q.Album, Limit: limit * 3}
	if params.Title == "" && params.Artist == "" && params.Album == "" {
		params.Title = q.Query
	}
	results, err := e.itunes.Search(ctx, params)
	if err != nil {
		e.logger.Warn("iTunes search failed", "error", err)
		return []domain.MetadataResult{}, nil
	}
	return rankResults(results, q, 0, limit), nil
}

// SearchMusicBrainz returns recording candidates; failures yield an empty list.
func (e *Enhancer) SearchMusicBrainz(ctx context.Context, artist, title string, limit int) ([]musicbrainz.Recording, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(artist) == "" {
		return nil, domain.NewValidationError("search requires title or artist", nil)
	}
	if e.mb == nil {
		return []musicbrainz.Recording{}, nil
	}
	recs, err := e.mb.SearchRecordings(ctx, artist, title, clamp(limit, 10, constants.MaxSearchResults))
	if err != nil {
		e.logger.Warn("MusicBrainz search failed", "error", err)
		return []musicbrainz.Recording{}, nil
	}
	return recs, nil
}

// SearchLyrics proxies LRClib search; failures yield an empty list.
func (e *Enhancer) SearchLyrics(ctx context.Context, q lyrics.Query) ([]domain.LyricsResult, error) {
	if q.Q == "" && q.Track == "" {
		return nil, domain.NewValidationError("search requires q or track_name", nil)
	}
	if e.lyrics == nil {
		return []domain.LyricsResult{}, nil
	}
	res, err := e.lyrics.Search(ctx, q)
	if err != nil {
		e.logger.Warn("LRClib search failed", "error", err)
		return []domain.LyricsResult{}, nil
	}
	return res, nil
}

// GetLyrics fetches the exact LRClib match; nil means none was found.
func (e *Enhancer) GetLyrics(ctx context.Context, q lyrics.Query) (*domain.LyricsResult, error) {
	if e.lyrics == nil {
		return nil, nil
	}
	res, err := e.lyrics.Get(ctx, q)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			return nil, err
		}
		e.logger.Warn("LRClib get failed", "error", err)
		return nil, nil
	}
	return res, nil
}

func fillString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

// knownOrEmpty treats placeholder values as missing.
func knownOrEmpty(v, placeholder string) string {
	if v == placeholder {
		return ""
	}
	return strings.TrimSpace(v)
}

func clamp(v, def, max int) int {
	if v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

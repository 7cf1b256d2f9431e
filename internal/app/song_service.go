package app

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/lyrics"
	"github.com/cesargomez89/openkaraoke/internal/store"
	"github.com/cesargomez89/openkaraoke/internal/tagging"
)

const maxFieldLength = 500

type SongService struct {
	Repo    *store.DB
	Library *library.Library
	Jobs    *JobService
	Logger  *logger.Logger
}

func NewSongService(repo *store.DB, lib *library.Library, jobs *JobService, log *logger.Logger) *SongService {
	return &SongService{Repo: repo, Library: lib, Jobs: jobs, Logger: log.WithComponent("songs")}
}

// SongUpdate carries the editable fields of a PATCH; nil fields are left as they are.
type SongUpdate struct {
	Title         *string `json:"title"`
	Artist        *string `json:"artist"`
	Album         *string `json:"album"`
	Genre         *string `json:"genre"`
	Language      *string `json:"language"`
	ReleaseDate   *string `json:"release_date"`
	Lyrics        *string `json:"lyrics"`
	SyncedLyrics  *string `json:"synced_lyrics"`
	MusicBrainzID *string `json:"musicbrainz_id"`
	Year          *int    `json:"year"`
	DurationMs    *int64  `json:"duration_ms"`
	Explicit      *bool   `json:"explicit"`
	Favorite      *bool   `json:"favorite"`
}

// Columns validates the update and returns it as a column map.
func (u SongUpdate) Columns() (map[string]interface{}, error) {
	fields := map[string]string{}
	cols := map[string]interface{}{}

	strs := []struct {
		col      string
		v        *string
		required bool
	}{
		{"title", u.Title, true},
		{"artist", u.Artist, true},
		{"album", u.Album, false},
		{"genre", u.Genre, false},
		{"language", u.Language, false},
		{"release_date", u.ReleaseDate, false},
		{"musicbrainz_id", u.MusicBrainzID, false},
	}
	for _, f := range strs {
		if f.v == nil {
			continue
		}
		v := strings.TrimSpace(*f.v)
		switch {
		case f.required && v == "":
			fields[f.col] = "cannot be empty"
		case utf8.RuneCountInString(v) > maxFieldLength:
			fields[f.col] = fmt.Sprintf("must be at most %d characters", maxFieldLength)
		default:
			cols[f.col] = v
		}
	}
	if u.Lyrics != nil {
		cols["lyrics"] = *u.Lyrics
	}
	if u.SyncedLyrics != nil {
		cols["synced_lyrics"] = *u.SyncedLyrics
	}
	if u.Year != nil {
		if *u.Year < 0 || *u.Year > 9999 {
			fields["year"] = "must be between 0 and 9999"
		} else {
			cols["year"] = *u.Year
		}
	}
	if u.DurationMs != nil {
		if *u.DurationMs < 0 {
			fields["duration_ms"] = "cannot be negative"
		} else {
			cols["duration_ms"] = *u.DurationMs
		}
	}
	if u.Explicit != nil {
		cols["explicit"] = *u.Explicit
	}
	if u.Favorite != nil {
		cols["favorite"] = *u.Favorite
	}

	if len(fields) > 0 {
		return nil, domain.NewValidationError("invalid song update", fields)
	}
	return cols, nil
}

// SongPage is one page of the library listing.
type SongPage struct {
	Songs  []*domain.Song `json:"songs"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

func (s *SongService) List(opts store.ListOptions) (*SongPage, error) {
	opts.Limit = clamp(opts.Limit, constants.DefaultPageSize, constants.MaxPageSize)
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	songs, err := s.Repo.ListSongs(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list songs: %w", err)
	}
	total, err := s.Repo.CountSongs(opts.Favorite)
	if err != nil {
		return nil, fmt.Errorf("failed to count songs: %w", err)
	}
	return &SongPage{Songs: songs, Total: total, Limit: opts.Limit, Offset: opts.Offset}, nil
}

func (s *SongService) Search(q string, limit int) ([]*domain.Song, error) {
	return s.Repo.SearchSongs(q, clamp(limit, constants.DefaultPageSize, constants.MaxPageSize))
}

func (s *SongService) Get(id string) (*domain.Song, error) {
	return s.Repo.GetSong(id)
}

// Create registers a song from client-provided metadata.
func (s *SongService) Create(song *domain.Song) (*domain.Song, error) {
	if song.ID == "" {
		song.ID = uuid.New().String()
	} else if _, err := s.Repo.GetSong(song.ID); err == nil {
		return nil, &domain.ConflictError{Message: fmt.Sprintf("song %s already exists", song.ID)}
	}
	if song.Source == "" {
		song.Source = constants.SourceUpload
	}
	if err := s.Repo.CreateSong(song); err != nil {
		return nil, err
	}
	return s.Repo.GetSong(song.ID)
}

func (s *SongService) Update(id string, u SongUpdate) (*domain.Song, error) {
	cols, err := u.Columns()
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateSongPartial(id, cols); err != nil {
		return nil, err
	}
	song, err := s.Repo.GetSong(id)
	if err != nil {
		return nil, err
	}
	if u.Lyrics != nil || u.SyncedLyrics != nil {
		s.writeLyrics(song)
	}
	return song, nil
}

func (s *SongService) SetFavorite(id string, favorite bool) (*domain.Song, error) {
	if err := s.Repo.SetFavorite(id, favorite); err != nil {
		return nil, err
	}
	return s.Repo.GetSong(id)
}

// Delete cancels the song's active jobs and removes its row and directory.
func (s *SongService) Delete(id string) error {
	if _, err := s.Repo.GetSong(id); err != nil {
		return err
	}
	for _, jt := range []domain.JobType{domain.JobTypeDownload, domain.JobTypeSeparation} {
		job, err := s.Repo.GetActiveJobForSong(id, jt)
		if err != nil {
			return err
		}
		if job != nil {
			if _, err := s.Jobs.Cancel(job.ID); err != nil && !errors.Is(err, domain.ErrJobTerminal) {
				return fmt.Errorf("failed to cancel job %s: %w", job.ID, err)
			}
		}
	}
	if err := s.Repo.DeleteSong(id); err != nil {
		return err
	}
	if err := s.Library.DeleteSongDir(id); err != nil {
		s.Logger.Warn("Failed to remove song directory", "song_id", id, "error", err)
	}
	s.Logger.Info("Song deleted", "song_id", id)
	return nil
}

// Upload stores an audio file as a new song and queues its separation.
func (s *SongService) Upload(filename string, r io.Reader) (*domain.Song, *domain.Job, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !library.IsAudioFile(filename) {
		return nil, nil, domain.NewValidationError("unsupported audio format", map[string]string{
			"file": fmt.Sprintf("%q is not one of mp3, wav, flac, m4a, ogg", ext),
		})
	}

	song := &domain.Song{
		ID:     uuid.New().String(),
		Title:  strings.TrimSpace(strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))),
		Source: constants.SourceUpload,
		Status: domain.SongStatusProcessing,
	}
	log := s.Logger.WithSong(song.ID, song.Title)

	rel, err := s.Library.SaveOriginal(song.ID, ext, r)
	if err != nil {
		_ = s.Library.DeleteSongDir(song.ID)
		return nil, nil, domain.NewServiceError("save upload", err)
	}
	song.OriginalPath = rel
	s.applyEmbeddedTags(song, log.Logger)

	if err := s.Repo.CreateSong(song); err != nil {
		_ = s.Library.DeleteSongDir(song.ID)
		return nil, nil, fmt.Errorf("failed to create song: %w", err)
	}
	s.writeLyrics(song)

	job, err := s.Jobs.Enqueue(domain.JobTypeSeparation, song, filepath.Base(filename))
	if err != nil {
		return song, nil, err
	}
	attrs := []any{"job_id", job.ID}
	if abs, err := s.Library.Resolve(rel); err == nil {
		if sum, err := library.HashFile(abs); err == nil {
			attrs = append(attrs, "sha256", sum)
		}
	}
	log.Info("Upload stored", attrs...)
	return song, job, nil
}

// applyEmbeddedTags fills song fields from the uploaded file's tags.
func (s *SongService) applyEmbeddedTags(song *domain.Song, log *slog.Logger) {
	abs, err := s.Library.Resolve(song.OriginalPath)
	if err != nil {
		return
	}

	if d, err := tagging.Duration(abs); err == nil {
		song.DurationMs = d.Milliseconds()
	} else if !errors.Is(err, tagging.ErrUnsupportedDuration) {
		log.Debug("Duration not measured", "error", err)
	}

	info, err := tagging.Read(abs)
	if err != nil {
		log.Debug("No embedded tags", "error", err)
		return
	}
	if info.Title != "" {
		song.Title = info.Title
	}
	fillString(&song.Artist, info.Artist)
	fillString(&song.Album, info.Album)
	fillString(&song.Genre, info.Genre)
	fillString(&song.Lyrics, info.Lyrics)
	if song.Year == 0 {
		song.Year = info.Year
	}
	if len(info.Picture) > 0 {
		if rel, err := s.Library.SaveImage(song.ID, constants.CoverBase, info.Picture); err == nil {
			song.CoverArtPath = rel
		} else {
			log.Warn("Embedded picture not saved", "error", err)
		}
	}
}

// FilePath resolves the absolute path of one of a song's audio tracks.
func (s *SongService) FilePath(id string, kind domain.TrackKind) (string, error) {
	switch kind {
	case domain.TrackVocals, domain.TrackInstrumental, domain.TrackOriginal:
	default:
		return "", domain.NewValidationError("invalid track", map[string]string{"track": "must be vocals, instrumental or original"})
	}
	song, err := s.Repo.GetSong(id)
	if err != nil {
		return "", err
	}
	return s.resolve(song.Path(kind), string(kind), id)
}

// ImagePath resolves the thumbnail or cover image of a song.
func (s *SongService) ImagePath(id, base string) (string, error) {
	song, err := s.Repo.GetSong(id)
	if err != nil {
		return "", err
	}
	rel := song.ThumbnailPath
	if base == constants.CoverBase {
		rel = song.CoverArtPath
	}
	if rel == "" {
		rel = s.Library.FindFile(id, base, library.ImageExts...)
	}
	return s.resolve(rel, base, id)
}

func (s *SongService) resolve(rel, what, id string) (string, error) {
	if rel == "" {
		return "", domain.NewNotFoundError(what, id)
	}
	abs, err := s.Library.Resolve(rel)
	if err != nil {
		return "", domain.NewNotFoundError(what, id)
	}
	return abs, nil
}

// SongLyrics is the lyrics view of a song.
type SongLyrics struct {
	SongID   string        `json:"song_id"`
	Lyrics   string        `json:"lyrics"`
	Synced   string        `json:"synced_lyrics"`
	Lines    []lyrics.Line `json:"lines"`
	IsSynced bool          `json:"is_synced"`
}

func newSongLyrics(song *domain.Song) *SongLyrics {
	lines := lyrics.ParseLRC(song.SyncedLyrics)
	if lines == nil {
		lines = []lyrics.Line{}
	}
	return &SongLyrics{
		SongID:   song.ID,
		Lyrics:   song.Lyrics,
		Synced:   song.SyncedLyrics,
		Lines:    lines,
		IsSynced: len(lines) > 0,
	}
}

func (s *SongService) Lyrics(id string) (*SongLyrics, error) {
	song, err := s.Repo.GetSong(id)
	if err != nil {
		return nil, err
	}
	return newSongLyrics(song), nil
}

// SaveLyrics replaces a song's lyrics. Synced text that is not LRC is
// rejected; plain lyrics are derived from it when missing.
func (s *SongService) SaveLyrics(id, plain, synced string) (*SongLyrics, error) {
	if synced != "" && !lyrics.IsSynced(synced) {
		return nil, domain.NewValidationError("invalid lyrics", map[string]string{"synced_lyrics": "must be in LRC format"})
	}
	if plain == "" && synced != "" {
		plain = lyrics.PlainText(synced)
	}
	err := s.Repo.UpdateSongPartial(id, map[string]interface{}{"lyrics": plain, "synced_lyrics": synced})
	if err != nil {
		return nil, err
	}
	song, err := s.Repo.GetSong(id)
	if err != nil {
		return nil, err
	}
	s.writeLyrics(song)
	return newSongLyrics(song), nil
}

// writeLyrics mirrors the lyrics columns into lyrics.txt and lyrics.lrc.
func (s *SongService) writeLyrics(song *domain.Song) {
	files := []struct {
		name, content string
	}{
		{constants.PlainLyricsFile, song.Lyrics},
		{constants.SyncedLyricsFile, song.SyncedLyrics},
	}
	for _, f := range files {
		var err error
		if f.content == "" {
			err = library.RemoveFile(filepath.Join(s.Library.SongDir(song.ID), f.name))
		} else {
			_, err = s.Library.SaveText(song.ID, f.name, f.content)
		}
		if err != nil {
			s.Logger.Warn("Failed to write lyrics file", "song_id", song.ID, "file", f.name, "error", err)
		}
	}
}

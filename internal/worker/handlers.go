package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/separation"
	"github.com/cesargomez89/openkaraoke/internal/store"
	"github.com/cesargomez89/openkaraoke/internal/tagging"
	"github.com/cesargomez89/openkaraoke/internal/youtube"
)

// Separator splits an audio file into vocal and instrumental stems.
type Separator interface {
	Separate(ctx context.Context, input, outDir string, progress separation.ProgressFunc, stop *separation.StopFlag) (*separation.Result, error)
}

// DownloadHandler fetches the audio of a YouTube song and queues its separation.
type DownloadHandler struct {
	YouTube youtube.ClientInterface
	Repo    *store.DB
	Library *library.Library
	Jobs    *app.JobService
}

func (h *DownloadHandler) Handle(ctx context.Context, task *Task) error {
	song, err := h.Repo.GetSong(task.Job.SongID)
	if err != nil {
		return err
	}

	source := song.SourceURL
	if source == "" && song.VideoID != "" {
		source = youtube.WatchURL(song.VideoID)
	}
	if source == "" {
		return fmt.Errorf("song %s has no source url", song.ID)
	}

	dir, err := h.Library.EnsureSongDir(song.ID)
	if err != nil {
		return err
	}

	task.Progress(0, "Downloading audio")
	res, err := h.YouTube.Download(ctx, source, dir, func(p float64) {
		task.Progress(p, "Downloading audio")
	})
	if err != nil {
		if ctx.Err() != nil {
			return domain.ErrStopProcessing
		}
		return err
	}

	original, err := h.Library.Rel(res.AudioPath)
	if err != nil {
		return err
	}
	paths := store.SongPaths{Original: original}
	if res.ThumbnailPath != "" {
		paths.Thumbnail = h.storeThumbnail(song.ID, res.ThumbnailPath, task.Logger)
	}
	if err := h.Repo.UpdateSongPaths(song.ID, paths); err != nil {
		return fmt.Errorf("failed to save song paths: %w", err)
	}

	if song.DurationMs == 0 {
		if d, dErr := tagging.MP3Duration(res.AudioPath); dErr == nil && d > 0 {
			_ = h.Repo.UpdateSongPartial(song.ID, map[string]interface{}{"duration_ms": d.Milliseconds()})
		}
	}

	task.Progress(100, "Download complete")

	if task.Stop.Stopped() || !h.Jobs.CanComplete(task.Job.ID) {
		return domain.ErrStopProcessing
	}

	song.OriginalPath = original
	if _, err := h.Jobs.EnqueueSeparation(song, filepath.Base(res.AudioPath)); err != nil {
		return fmt.Errorf("failed to queue separation: %w", err)
	}
	return nil
}

// storeThumbnail renames the thumbnail yt-dlp wrote into thumbnail.<ext>,
// picking the extension from the image bytes.
func (h *DownloadHandler) storeThumbnail(songID, path string, log *slog.Logger) string {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("Failed to read thumbnail", "error", err)
		return ""
	}
	rel, err := h.Library.SaveImage(songID, constants.ThumbnailBase, data)
	if err != nil {
		log.Warn("Failed to store thumbnail", "error", err)
		return ""
	}
	_ = library.RemoveFile(path)
	return rel
}

// SeparationHandler splits a song's original audio into stems, fills in
// missing metadata and tags the stems and the original.
type SeparationHandler struct {
	Separator Separator
	Repo      *store.DB
	Library   *library.Library
	Enhancer  *app.Enhancer
}

func (h *SeparationHandler) Handle(ctx context.Context, task *Task) error {
	song, err := h.Repo.GetSong(task.Job.SongID)
	if err != nil {
		return err
	}
	if song.OriginalPath == "" {
		return fmt.Errorf("song %s has no original audio", song.ID)
	}
	input, err := h.Library.Resolve(song.OriginalPath)
	if err != nil {
		return err
	}

	res, err := h.Separator.Separate(ctx, input, h.Library.SongDir(song.ID), task.Progress, task.Stop)
	if err != nil {
		return err
	}

	vocals, err := h.Library.Rel(res.VocalsPath)
	if err != nil {
		return err
	}
	instrumental, err := h.Library.Rel(res.InstrumentalPath)
	if err != nil {
		return err
	}
	if err := h.Repo.UpdateSongPaths(song.ID, store.SongPaths{Vocals: vocals, Instrumental: instrumental}); err != nil {
		return fmt.Errorf("failed to save stem paths: %w", err)
	}
	if song.DurationMs == 0 && res.DurationMs > 0 {
		_ = h.Repo.UpdateSongPartial(song.ID, map[string]interface{}{"duration_ms": res.DurationMs})
	}
	if err := h.Repo.UpdateSongStatus(song.ID, domain.SongStatusProcessed); err != nil {
		return err
	}

	if h.Enhancer != nil {
		if _, err := h.Enhancer.Enhance(ctx, song.ID); err != nil {
			task.Logger.Warn("Metadata enhancement failed", "error", err)
		}
	}

	h.tagStems(song.ID, res, task.Logger)
	return nil
}

func (h *SeparationHandler) tagStems(songID string, res *separation.Result, log *slog.Logger) {
	song, err := h.Repo.GetSong(songID)
	if err != nil {
		log.Warn("Failed to reload song for tagging", "error", err)
		return
	}

	var cover []byte
	for _, rel := range []string{song.CoverArtPath, song.ThumbnailPath} {
		if rel == "" {
			continue
		}
		if p, err := h.Library.Resolve(rel); err == nil {
			if data, err := os.ReadFile(p); err == nil {
				cover = data
				break
			}
		}
	}

	stems := map[string]string{
		res.VocalsPath:       tagging.StemVocals,
		res.InstrumentalPath: tagging.StemInstrumental,
	}
	for path, stem := range stems {
		if err := tagging.TagStem(path, song, cover, stem); err != nil {
			log.Warn("Failed to tag stem", "stem", stem, "error", err)
		}
	}

	original, err := h.Library.Resolve(song.OriginalPath)
	if err != nil || !tagging.Taggable(original) {
		return
	}
	if err := tagging.TagFile(original, song, cover); err != nil {
		log.Warn("Failed to tag original", "error", err)
	}
}

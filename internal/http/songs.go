package httpapp

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/http/dto"
)

func (h *Handler) ListSongs(w http.ResponseWriter, r *http.Request) {
	var q dto.SongListQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	if errs := q.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	page, err := h.Songs.List(q.Options())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.NewSongListResponse(page))
}

func (h *Handler) SearchSongs(w http.ResponseWriter, r *http.Request) {
	var q dto.SearchQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	if errs := q.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	songs, err := h.Songs.Search(q.Q, q.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if songs == nil {
		songs = []*domain.Song{}
	}
	writeJSON(w, http.StatusOK, songs)
}

func (h *Handler) CreateSong(w http.ResponseWriter, r *http.Request) {
	var req dto.SongCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if errs := req.Validate(); len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	song, err := h.Songs.Create(req.ToSong())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, song)
}

func (h *Handler) GetSong(w http.ResponseWriter, r *http.Request) {
	song, err := h.Songs.Get(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *Handler) UpdateSong(w http.ResponseWriter, r *http.Request) {
	var u app.SongUpdate
	if err := decodeJSON(r, &u); err != nil {
		h.fail(w, r, err)
		return
	}
	song, err := h.Songs.Update(chi.URLParam(r, "id"), u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

func (h *Handler) DeleteSong(w http.ResponseWriter, r *http.Request) {
	if err := h.Songs.Delete(chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, true)
}

func (h *Handler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	h.setFavorite(w, r, false)
}

func (h *Handler) setFavorite(w http.ResponseWriter, r *http.Request, favorite bool) {
	song, err := h.Songs.SetFavorite(chi.URLParam(r, "id"), favorite)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// DownloadTrack streams one of the song's audio files as an attachment.
func (h *Handler) DownloadTrack(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	track := domain.TrackKind(chi.URLParam(r, "track"))

	path, err := h.Songs.FilePath(id, track)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+string(track)+filepath.Ext(path)+`"`)
	http.ServeFile(w, r, path)
}

func (h *Handler) Thumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, constants.ThumbnailBase)
}

func (h *Handler) Cover(w http.ResponseWriter, r *http.Request) {
	h.serveImage(w, r, constants.CoverBase)
}

func (h *Handler) serveImage(w http.ResponseWriter, r *http.Request, base string) {
	path, err := h.Songs.ImagePath(chi.URLParam(r, "id"), base)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", "public, max-age=86400")
	http.ServeFile(w, r, path)
}

func (h *Handler) GetSongLyrics(w http.ResponseWriter, r *http.Request) {
	ly, err := h.Songs.Lyrics(chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ly)
}

func (h *Handler) PutSongLyrics(w http.ResponseWriter, r *http.Request) {
	var req dto.LyricsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ly, err := h.Songs.SaveLyrics(chi.URLParam(r, "id"), req.Lyrics, req.SyncedLyrics)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ly)
}

func (h *Handler) EnhanceSong(w http.ResponseWriter, r *http.Request) {
	song, err := h.Enhancer.Enhance(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, song)
}

// Process accepts a multipart audio upload in the "file" field, stores it
// as a new song and queues its separation.
func (h *Handler) Process(w http.ResponseWriter, r *http.Request) {
	if h.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, kindTooLarge, "file exceeds the upload limit", nil)
		case errors.Is(err, http.ErrMissingFile):
			writeError(w, http.StatusBadRequest, kindValidation, "no file part in request", map[string]string{"file": "is required"})
		default:
			writeError(w, http.StatusBadRequest, kindValidation, "invalid multipart upload", nil)
		}
		return
	}
	defer func() { _ = file.Close() }()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, kindValidation, "no file selected", map[string]string{"file": "is required"})
		return
	}

	song, job, err := h.Songs.Upload(header.Filename, file)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.SongJobResponse{Song: song, Job: job})
}

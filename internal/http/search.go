package httpapp

import (
	"net/http"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/http/dto"
	"github.com/cesargomez89/openkaraoke/internal/lyrics"
)

func (h *Handler) SearchLyrics(w http.ResponseWriter, r *http.Request) {
	var q lyrics.Query
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Enhancer.SearchLyrics(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetLyrics answers 404 when LRClib has no exact match.
func (h *Handler) GetLyrics(w http.ResponseWriter, r *http.Request) {
	var q lyrics.Query
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Enhancer.GetLyrics(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, kindNotFound, "lyrics not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SearchMetadata(w http.ResponseWriter, r *http.Request) {
	var q domain.MetadataQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Enhancer.SearchMetadata(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SearchMusicBrainz(w http.ResponseWriter, r *http.Request) {
	var q dto.MusicBrainzQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.Enhancer.SearchMusicBrainz(r.Context(), q.Artist, q.Title, q.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SearchYouTube(w http.ResponseWriter, r *http.Request) {
	var q dto.SearchQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.YouTube.Search(r.Context(), q.Q, q.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) SearchYouTubeMusic(w http.ResponseWriter, r *http.Request) {
	var q dto.SearchQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.YouTube.SearchMusic(r.Context(), q.Q, q.Limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) YouTubeInfo(w http.ResponseWriter, r *http.Request) {
	var q dto.VideoQuery
	if err := h.decodeQuery(r, &q); err != nil {
		h.fail(w, r, err)
		return
	}
	details, err := h.YouTube.Info(r.Context(), q.URL)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (h *Handler) DownloadYouTube(w http.ResponseWriter, r *http.Request) {
	var req app.DownloadRequest
	if err := decodeJSON(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	song, job, err := h.YouTube.DownloadVideo(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, dto.SongJobResponse{Song: song, Job: job})
}

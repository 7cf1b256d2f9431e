package httpapp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cesargomez89/openkaraoke/internal/app"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/store"
	"github.com/cesargomez89/openkaraoke/internal/youtube"
)

type fakeYouTube struct {
	results []youtube.SearchResult
	info    *youtube.VideoInfo
}

func (f *fakeYouTube) Search(context.Context, string, int) ([]youtube.SearchResult, error) {
	return f.results, nil
}

func (f *fakeYouTube) SearchMusic(context.Context, string, int) ([]youtube.SearchResult, error) {
	return f.results, nil
}

func (f *fakeYouTube) Info(context.Context, string) (*youtube.VideoInfo, error) {
	return f.info, nil
}

func (f *fakeYouTube) Download(context.Context, string, string, youtube.ProgressFunc) (*youtube.DownloadResult, error) {
	return nil, os.ErrNotExist
}

type testServer struct {
	db  *store.DB
	lib *library.Library
	h   *Handler
	srv http.Handler
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	dir := t.TempDir()
	db, err := store.NewSQLiteDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	lib, err := library.New(filepath.Join(dir, "library"))
	if err != nil {
		t.Fatalf("Failed to create library: %v", err)
	}

	log := logger.Discard()
	jobs := app.NewJobService(db, log)
	songs := app.NewSongService(db, lib, jobs, log)
	enhancer := app.NewEnhancer(nil, nil, nil, nil, db, lib, log)
	yt := &fakeYouTube{
		results: []youtube.SearchResult{{ID: "dQw4w9WgXcQ", Title: "Never Gonna Give You Up"}},
		info:    &youtube.VideoInfo{ID: "dQw4w9WgXcQ", Title: "Rick Astley - Never Gonna Give You Up (Official Video)", Channel: "Rick Astley", Duration: 213},
	}
	ytSvc := app.NewYouTubeService(yt, db, jobs, enhancer, log)

	h := NewHandler(db, songs, jobs, enhancer, ytSvc, nil, log)
	h.MaxUploadBytes = 1 << 20
	h.MetricsEnabled = true
	return &testServer{db: db, lib: lib, h: h, srv: h.Router()}
}

func (s *testServer) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.srv.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) doJSON(t *testing.T, method, path string, v interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if v != nil {
		raw, err := json.Marshal(v)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(raw)
	}
	return s.do(t, method, path, body, "application/json")
}

func (s *testServer) createSong(t *testing.T, id, title, artist string) *domain.Song {
	t.Helper()
	song := &domain.Song{ID: id, Title: title, Artist: artist, Source: "upload"}
	if err := s.db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	return song
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("bad JSON %q: %v", rec.Body.String(), err)
	}
}

func TestHealth(t *testing.T) {
	s := setupServer(t)
	song := s.createSong(t, "s1", "Song", "Artist")
	if _, err := s.h.Jobs.Enqueue(domain.JobTypeSeparation, song, "f.mp3"); err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, http.MethodGet, "/health", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp healthResponse
	decode(t, rec, &resp)
	if resp.Status != "ok" || resp.Database != "ok" || resp.Pending != 1 || resp.Running != 0 {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodGet, "/metrics", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics output missing default collectors")
	}
}

func TestCORSPreflight(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodOptions, "/api/songs", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("missing CORS header: %v", rec.Header())
	}
}

func TestSongs_CRUD(t *testing.T) {
	s := setupServer(t)

	rec := s.doJSON(t, http.MethodPost, "/api/songs", map[string]interface{}{
		"id": "s1", "title": "Bohemian Rhapsody", "artist": "Queen", "release_date": "1975-10-31",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/songs", map[string]interface{}{"id": "s1", "title": "Again", "artist": "Queen"})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate create status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/songs/s1", nil, "")
	var song domain.Song
	decode(t, rec, &song)
	if song.Title != "Bohemian Rhapsody" || song.Year != 1975 {
		t.Errorf("song = %+v", song)
	}

	rec = s.doJSON(t, http.MethodPatch, "/api/songs/s1", map[string]interface{}{"album": "A Night at the Opera"})
	if rec.Code != http.StatusOK {
		t.Fatalf("patch status = %d: %s", rec.Code, rec.Body)
	}
	decode(t, rec, &song)
	if song.Album != "A Night at the Opera" || song.Title != "Bohemian Rhapsody" {
		t.Errorf("patched song = %+v", song)
	}

	rec = s.do(t, http.MethodPost, "/api/songs/s1/favorite", nil, "")
	decode(t, rec, &song)
	if !song.Favorite {
		t.Error("favorite not set")
	}
	rec = s.do(t, http.MethodDelete, "/api/songs/s1/favorite", nil, "")
	decode(t, rec, &song)
	if song.Favorite {
		t.Error("favorite not cleared")
	}

	rec = s.do(t, http.MethodDelete, "/api/songs/s1", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}
	rec = s.do(t, http.MethodGet, "/api/songs/s1", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d, want 404", rec.Code)
	}
}

func TestSongs_CreateValidation(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"missing fields", `{}`, http.StatusBadRequest},
		{"bad json", `{"title":`, http.StatusBadRequest},
		{"empty body", ``, http.StatusBadRequest},
		{"bad date", `{"title":"t","artist":"a","release_date":"31/10/1975"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/api/songs", strings.NewReader(tt.body), "application/json")
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if resp.Error == "" || resp.Code != kindValidation {
				t.Errorf("error body = %+v", resp)
			}
		})
	}
}

func TestFail_ErrorKinds(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name    string
		err     error
		status  int
		kind    string
		message string
	}{
		{"validation", domain.NewValidationError("bad input", map[string]string{"title": "is required"}), http.StatusBadRequest, kindValidation, "bad input"},
		{"not found", fmt.Errorf("load: %w", domain.NewNotFoundError("song", "s1")), http.StatusNotFound, kindNotFound, "load: song s1 not found"},
		{"conflict", &domain.ConflictError{Message: "job is finished"}, http.StatusConflict, kindConflict, "job is finished"},
		{"service", domain.NewServiceError("save song", errors.New("disk full")), http.StatusInternalServerError, kindService, "save song failed"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, kindInternal, "internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.h.fail(rec, httptest.NewRequest(http.MethodGet, "/api/songs/s1", nil), tt.err)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d", rec.Code, tt.status)
			}
			var resp errorResponse
			decode(t, rec, &resp)
			if resp.Code != tt.kind || resp.Error != tt.message {
				t.Errorf("body = %+v, want code %q error %q", resp, tt.kind, tt.message)
			}
		})
	}
}

func TestSongs_ListAndSearch(t *testing.T) {
	s := setupServer(t)
	s.createSong(t, "a", "Zombie", "The Cranberries")
	s.createSong(t, "b", "Africa", "Toto")
	s.createSong(t, "c", "Hold the Line", "Toto")

	rec := s.do(t, http.MethodGet, "/api/songs?sort_by=title&direction=asc&limit=2", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var page struct {
		Songs      []domain.Song `json:"songs"`
		Pagination struct {
			Total   int  `json:"total"`
			HasNext bool `json:"has_next"`
		} `json:"pagination"`
	}
	decode(t, rec, &page)
	if len(page.Songs) != 2 || page.Songs[0].Title != "Africa" {
		t.Errorf("songs = %+v", page.Songs)
	}
	if page.Pagination.Total != 3 || !page.Pagination.HasNext {
		t.Errorf("pagination = %+v", page.Pagination)
	}

	rec = s.do(t, http.MethodGet, "/api/songs?sort_by=rating", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad sort status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/songs/search?q=toto", nil, "")
	var found []domain.Song
	decode(t, rec, &found)
	if len(found) != 2 {
		t.Errorf("search found %d songs, want 2", len(found))
	}

	rec = s.do(t, http.MethodGet, "/api/songs/search", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty search status = %d", rec.Code)
	}
}

func TestSongs_Lyrics(t *testing.T) {
	s := setupServer(t)
	s.createSong(t, "s1", "Song", "Artist")

	rec := s.doJSON(t, http.MethodPut, "/api/songs/s1/lyrics", map[string]string{
		"synced_lyrics": "[00:01.00]Hello\n[00:03.50]World",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var ly app.SongLyrics
	decode(t, rec, &ly)
	if !ly.IsSynced || len(ly.Lines) != 2 || ly.Lyrics == "" {
		t.Errorf("lyrics = %+v", ly)
	}

	rec = s.doJSON(t, http.MethodPut, "/api/songs/s1/lyrics", map[string]string{"synced_lyrics": "not lrc"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("invalid lrc status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/songs/s1/lyrics", nil, "")
	decode(t, rec, &ly)
	if len(ly.Lines) != 2 {
		t.Errorf("stored lyrics = %+v", ly)
	}
}

func TestSongs_DownloadTrack(t *testing.T) {
	s := setupServer(t)
	s.createSong(t, "s1", "Song", "Artist")

	rec := s.do(t, http.MethodGet, "/api/songs/s1/download/vocals", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing stem status = %d, want 404", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/songs/s1/download/drums", nil, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad track status = %d, want 400", rec.Code)
	}

	rel, err := s.lib.SaveOriginal("s1", ".mp3", strings.NewReader("audio-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.db.UpdateSongPaths("s1", store.SongPaths{Original: rel}); err != nil {
		t.Fatal(err)
	}
	rec = s.do(t, http.MethodGet, "/api/songs/s1/download/original", nil, "")
	if rec.Code != http.StatusOK || rec.Body.String() != "audio-bytes" {
		t.Fatalf("download = %d %q", rec.Code, rec.Body)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, `filename="original.mp3"`) {
		t.Errorf("Content-Disposition = %q", cd)
	}
}

func TestSongs_Thumbnail(t *testing.T) {
	s := setupServer(t)
	s.createSong(t, "s1", "Song", "Artist")

	rec := s.do(t, http.MethodGet, "/api/songs/s1/thumbnail", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing thumbnail status = %d", rec.Code)
	}

	png := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}
	if _, err := s.lib.SaveImage("s1", "thumbnail", png); err != nil {
		t.Fatal(err)
	}
	rec = s.do(t, http.MethodGet, "/api/songs/s1/thumbnail", nil, "")
	if rec.Code != http.StatusOK || !bytes.Equal(rec.Body.Bytes(), png) {
		t.Errorf("thumbnail = %d, %d bytes", rec.Code, rec.Body.Len())
	}
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestProcess_Upload(t *testing.T) {
	s := setupServer(t)

	body, ct := multipartBody(t, "file", "My Song.mp3", []byte("not really mp3"))
	rec := s.do(t, http.MethodPost, "/api/process", body, ct)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Song domain.Song `json:"song"`
		Job  domain.Job  `json:"job"`
	}
	decode(t, rec, &resp)
	if resp.Song.Title != "My Song" || resp.Job.Type != domain.JobTypeSeparation || resp.Job.Status != domain.JobStatusPending {
		t.Errorf("resp = %+v", resp)
	}

	rec = s.do(t, http.MethodGet, "/api/jobs/"+resp.Job.ID, nil, "")
	if rec.Code != http.StatusOK {
		t.Errorf("get job status = %d", rec.Code)
	}
}

func TestProcess_Rejects(t *testing.T) {
	s := setupServer(t)

	body, ct := multipartBody(t, "file", "notes.txt", []byte("hello"))
	rec := s.do(t, http.MethodPost, "/api/process", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("txt upload status = %d", rec.Code)
	}

	body, ct = multipartBody(t, "other", "a.mp3", []byte("x"))
	rec = s.do(t, http.MethodPost, "/api/process", body, ct)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing file part status = %d", rec.Code)
	}

	s.h.MaxUploadBytes = 64
	body, ct = multipartBody(t, "file", "big.mp3", bytes.Repeat([]byte("a"), 4096))
	rec = s.do(t, http.MethodPost, "/api/process", body, ct)
	if rec.Code != http.StatusRequestEntityTooLarge && rec.Code != http.StatusBadRequest {
		t.Errorf("oversized upload status = %d", rec.Code)
	}
}

func TestJobs_Lifecycle(t *testing.T) {
	s := setupServer(t)
	song := s.createSong(t, "s1", "Song", "Artist")
	job, err := s.h.Jobs.Enqueue(domain.JobTypeSeparation, song, "f.mp3")
	if err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/dismiss", nil, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("dismiss pending status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", rec.Code, rec.Body)
	}
	var cancelled domain.Job
	decode(t, rec, &cancelled)
	if cancelled.Status != domain.JobStatusCancelled {
		t.Errorf("status = %s", cancelled.Status)
	}

	rec = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/cancel", nil, "")
	if rec.Code != http.StatusConflict {
		t.Errorf("second cancel status = %d, want 409", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/jobs/stats", nil, "")
	var stats store.JobStats
	decode(t, rec, &stats)
	if stats.Total != 1 || stats.Cancelled != 1 {
		t.Errorf("stats = %+v", stats)
	}

	rec = s.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/dismiss", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Errorf("dismiss status = %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/api/jobs", nil, "")
	var jobs []domain.Job
	decode(t, rec, &jobs)
	if len(jobs) != 0 {
		t.Errorf("dismissed job still listed: %+v", jobs)
	}
	rec = s.do(t, http.MethodGet, "/api/jobs?include_dismissed=true", nil, "")
	decode(t, rec, &jobs)
	if len(jobs) != 1 {
		t.Errorf("include_dismissed listed %d jobs", len(jobs))
	}

	rec = s.do(t, http.MethodGet, "/api/jobs/missing", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job status = %d", rec.Code)
	}
}

func TestJobs_ClearDismissesFinished(t *testing.T) {
	s := setupServer(t)
	done, _ := s.h.Jobs.Enqueue(domain.JobTypeSeparation, s.createSong(t, "s1", "One", "Artist"), "1.mp3")
	active, _ := s.h.Jobs.Enqueue(domain.JobTypeSeparation, s.createSong(t, "s2", "Two", "Artist"), "2.mp3")
	if _, err := s.h.Jobs.Cancel(done.ID); err != nil {
		t.Fatal(err)
	}

	rec := s.do(t, http.MethodPost, "/api/jobs/clear", nil, "")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("clear status = %d: %s", rec.Code, rec.Body)
	}

	var jobs []domain.Job
	decode(t, s.do(t, http.MethodGet, "/api/jobs", nil, ""), &jobs)
	if len(jobs) != 1 || jobs[0].ID != active.ID {
		t.Errorf("visible jobs = %+v, want only the active one", jobs)
	}
	decode(t, s.do(t, http.MethodGet, "/api/jobs?include_dismissed=true", nil, ""), &jobs)
	if len(jobs) != 2 {
		t.Errorf("include_dismissed listed %d jobs, want 2", len(jobs))
	}
	if rec := s.do(t, http.MethodGet, "/api/jobs/"+done.ID, nil, ""); rec.Code != http.StatusOK {
		t.Errorf("dismissed job lookup status = %d, want 200", rec.Code)
	}
}

func TestSearch_Endpoints(t *testing.T) {
	s := setupServer(t)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"metadata", "/api/metadata/search?title=Africa&artist=Toto", http.StatusOK},
		{"metadata empty", "/api/metadata/search", http.StatusBadRequest},
		{"musicbrainz", "/api/musicbrainz/search?artist=Toto&title=Africa", http.StatusOK},
		{"musicbrainz empty", "/api/musicbrainz/search", http.StatusBadRequest},
		{"lyrics search", "/api/lyrics/search?q=africa", http.StatusOK},
		{"lyrics search empty", "/api/lyrics/search", http.StatusBadRequest},
		{"lyrics get none", "/api/lyrics/get?track_name=Africa&artist_name=Toto", http.StatusNotFound},
		{"youtube", "/api/youtube/search?q=rick", http.StatusOK},
		{"youtube empty", "/api/youtube/search", http.StatusBadRequest},
		{"youtube music", "/api/youtube-music/search?q=rick", http.StatusOK},
		{"youtube info", "/api/youtube/info?url=https://www.youtube.com/watch?v=dQw4w9WgXcQ", http.StatusOK},
		{"youtube info bad url", "/api/youtube/info?url=https://example.com", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, http.MethodGet, tt.path, nil, "")
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body)
			}
		})
	}
}

func TestYouTube_Download(t *testing.T) {
	s := setupServer(t)

	rec := s.doJSON(t, http.MethodPost, "/api/youtube/download", map[string]interface{}{
		"url": "https://youtu.be/dQw4w9WgXcQ",
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body)
	}
	var resp struct {
		Song domain.Song `json:"song"`
		Job  domain.Job  `json:"job"`
	}
	decode(t, rec, &resp)
	if resp.Song.VideoID != "dQw4w9WgXcQ" || resp.Song.Source != "youtube" {
		t.Errorf("song = %+v", resp.Song)
	}
	if resp.Job.Type != domain.JobTypeDownload {
		t.Errorf("job = %+v", resp.Job)
	}

	rec = s.doJSON(t, http.MethodPost, "/api/youtube/download", map[string]interface{}{"url": "https://example.com/video"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad url status = %d", rec.Code)
	}
}

func TestWebSocketWithoutHub(t *testing.T) {
	s := setupServer(t)
	rec := s.do(t, http.MethodGet, "/ws", nil, "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

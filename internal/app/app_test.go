package app

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
	"github.com/cesargomez89/openkaraoke/internal/logger"
	"github.com/cesargomez89/openkaraoke/internal/store"
)

type testEnv struct {
	db   *store.DB
	lib  *library.Library
	log  *logger.Logger
	jobs *JobService
	rec  *recordingEvents
}

func setupEnv(t *testing.T) *testEnv {
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
	rec := &recordingEvents{}
	jobs := NewJobService(db, log)
	jobs.SetEvents(rec)
	return &testEnv{db: db, lib: lib, log: log, jobs: jobs, rec: rec}
}

func (e *testEnv) createSong(t *testing.T, id, title, artist string) *domain.Song {
	t.Helper()
	song := &domain.Song{ID: id, Title: title, Artist: artist, Source: "upload"}
	if err := e.db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}
	return song
}

type recordingEvents struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingEvents) PublishJob(event string, _ *domain.Job) {
	r.mu.Lock()
	r.events = append(r.events, event)
	r.mu.Unlock()
}

func (r *recordingEvents) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func storeSongPaths(id string) store.SongPaths {
	return store.SongPaths{
		Vocals:       library.SongFile(id, "vocals.mp3"),
		Instrumental: library.SongFile(id, "instrumental.mp3"),
	}
}

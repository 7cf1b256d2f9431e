package store

import (
	"errors"
	"testing"
	"time"

	"github.com/cesargomez89/openkaraoke/internal/domain"
)

func newSong(id, title, artist string) *domain.Song {
	return &domain.Song{
		ID:     id,
		Title:  title,
		Artist: artist,
		Source: "upload",
	}
}

func TestDB_SongCRUD(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	song := newSong("song-1", "Bohemian Rhapsody", "Queen")
	song.Album = "A Night at the Opera"
	song.DurationMs = 354000
	song.YouTubeTags = domain.StringSlice{"rock", "classic"}
	song.YouTubeRaw = domain.RawJSON(`{"id":"fJ9rUzIMcZQ"}`)

	if err := db.CreateSong(song); err != nil {
		t.Fatalf("CreateSong failed: %v", err)
	}

	fetched, err := db.GetSong("song-1")
	if err != nil {
		t.Fatalf("GetSong failed: %v", err)
	}
	if fetched.Title != "Bohemian Rhapsody" || fetched.Artist != "Queen" {
		t.Errorf("unexpected song: %+v", fetched)
	}
	if fetched.DurationMs != 354000 {
		t.Errorf("DurationMs = %d, want 354000", fetched.DurationMs)
	}
	if len(fetched.YouTubeTags) != 2 || fetched.YouTubeTags[0] != "rock" {
		t.Errorf("YouTubeTags = %v", fetched.YouTubeTags)
	}
	if string(fetched.YouTubeRaw) != `{"id":"fJ9rUzIMcZQ"}` {
		t.Errorf("YouTubeRaw = %s", fetched.YouTubeRaw)
	}
	if fetched.Status != domain.SongStatusProcessing {
		t.Errorf("Status = %s, want processing", fetched.Status)
	}
	if fetched.DateAdded.IsZero() {
		t.Error("DateAdded should be set")
	}

	if err := db.UpdateSongPartial("song-1", map[string]interface{}{"album": "Greatest Hits", "lyrics": "Is this the real life?"}); err != nil {
		t.Fatalf("UpdateSongPartial failed: %v", err)
	}
	again, _ := db.GetSong("song-1")
	if again.Album != "Greatest Hits" || again.Lyrics != "Is this the real life?" {
		t.Errorf("update not persisted: %+v", again)
	}

	if err := db.DeleteSong("song-1"); err != nil {
		t.Fatalf("DeleteSong failed: %v", err)
	}
	_, err = db.GetSong("song-1")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("GetSong after delete error = %v, want not found", err)
	}
	if err := db.DeleteSong("song-1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("second DeleteSong error = %v, want not found", err)
	}
}

func TestDB_UpdateSongPartial(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_ = db.CreateSong(newSong("s1", "Old", "Artist"))

	err := db.UpdateSongPartial("s1", map[string]interface{}{"title": "New", "year": 2001})
	if err != nil {
		t.Fatalf("UpdateSongPartial failed: %v", err)
	}
	s, _ := db.GetSong("s1")
	if s.Title != "New" || s.Year != 2001 {
		t.Errorf("partial update not applied: %+v", s)
	}

	if err := db.UpdateSongPartial("s1", map[string]interface{}{"vocals_path": "x"}); err == nil {
		t.Error("expected error for non-editable column")
	}
	if err := db.UpdateSongPartial("nope", map[string]interface{}{"title": "x"}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
	if err := db.UpdateSongPartial("s1", nil); err != nil {
		t.Errorf("empty update should be a no-op, got %v", err)
	}
}

func TestDB_FillSongColumns(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	song := newSong("s1", "Song", "Artist")
	if err := db.CreateSong(song); err != nil {
		t.Fatal(err)
	}
	// album changes after the caller read the row
	if err := db.UpdateSongPartial("s1", map[string]interface{}{"album": "User Album"}); err != nil {
		t.Fatal(err)
	}

	err := db.FillSongColumns("s1", map[string]ColumnFill{
		"album":           {Old: "", New: "Fetched Album"},
		"genre":           {Old: "", New: "Rock"},
		"year":            {Old: 0, New: 1999},
		"explicit":        {Old: false, New: true},
		"itunes_track_id": {Old: int64(0), New: int64(42)},
	})
	if err != nil {
		t.Fatalf("FillSongColumns failed: %v", err)
	}

	got, _ := db.GetSong("s1")
	if got.Album != "User Album" {
		t.Errorf("Album = %q, concurrent value should win", got.Album)
	}
	if got.Genre != "Rock" || got.Year != 1999 || !got.Explicit || got.ITunesTrackID != 42 {
		t.Errorf("fills not applied: %+v", got)
	}

	if err := db.FillSongColumns("s1", map[string]ColumnFill{"status": {Old: "processing", New: "processed"}}); err == nil {
		t.Error("expected error for non-fillable column")
	}
	if err := db.FillSongColumns("missing", map[string]ColumnFill{"genre": {Old: "", New: "Pop"}}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing song error = %v, want not found", err)
	}
}

func TestDB_UpdateSongPaths(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	song := newSong("s1", "T", "A")
	song.OriginalPath = "s1/original.mp3"
	_ = db.CreateSong(song)

	err := db.UpdateSongPaths("s1", SongPaths{Vocals: "s1/vocals.mp3", Instrumental: "s1/instrumental.mp3"})
	if err != nil {
		t.Fatalf("UpdateSongPaths failed: %v", err)
	}
	s, _ := db.GetSong("s1")
	if s.VocalsPath != "s1/vocals.mp3" || s.InstrumentalPath != "s1/instrumental.mp3" {
		t.Errorf("paths not set: %+v", s)
	}
	if s.OriginalPath != "s1/original.mp3" {
		t.Errorf("empty field overwrote original path: %q", s.OriginalPath)
	}
}

func TestDB_ListSongs_PaginationAndSorting(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	base := time.Now().Add(-time.Hour)
	fixtures := []struct {
		id, title, artist string
		duration          int64
	}{
		{"a", "Charlie", "Zed", 300},
		{"b", "alpha", "Young", 100},
		{"c", "Bravo", "Xavier", 200},
	}
	for i, f := range fixtures {
		s := newSong(f.id, f.title, f.artist)
		s.DurationMs = f.duration
		s.DateAdded = base.Add(time.Duration(i) * time.Minute)
		if err := db.CreateSong(s); err != nil {
			t.Fatalf("CreateSong failed: %v", err)
		}
	}

	tests := []struct {
		name string
		opts ListOptions
		want []string
	}{
		{"default newest first", ListOptions{}, []string{"c", "b", "a"}},
		{"title asc is case-insensitive", ListOptions{SortBy: "title", Direction: "asc"}, []string{"b", "c", "a"}},
		{"artist desc", ListOptions{SortBy: "artist", Direction: "desc"}, []string{"a", "b", "c"}},
		{"duration asc", ListOptions{SortBy: "duration", Direction: "asc"}, []string{"b", "c", "a"}},
		{"unknown sort falls back", ListOptions{SortBy: "id; DROP TABLE songs"}, []string{"c", "b", "a"}},
		{"limit", ListOptions{SortBy: "title", Direction: "asc", Limit: 2}, []string{"b", "c"}},
		{"limit and offset", ListOptions{SortBy: "title", Direction: "asc", Limit: 2, Offset: 2}, []string{"a"}},
		{"offset past end", ListOptions{Limit: 2, Offset: 10}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			songs, err := db.ListSongs(tt.opts)
			if err != nil {
				t.Fatalf("ListSongs failed: %v", err)
			}
			got := make([]string, len(songs))
			for i, s := range songs {
				got[i] = s.ID
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}

	total, err := db.CountSongs(nil)
	if err != nil || total != 3 {
		t.Errorf("CountSongs = %d, %v; want 3", total, err)
	}
}

func TestDB_Favorites(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_ = db.CreateSong(newSong("s1", "One", "A"))
	_ = db.CreateSong(newSong("s2", "Two", "B"))

	if err := db.SetFavorite("s2", true); err != nil {
		t.Fatalf("SetFavorite failed: %v", err)
	}

	fav := true
	songs, err := db.ListSongs(ListOptions{Favorite: &fav})
	if err != nil {
		t.Fatalf("ListSongs failed: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != "s2" {
		t.Errorf("favorites = %v", songs)
	}
	n, _ := db.CountSongs(&fav)
	if n != 1 {
		t.Errorf("CountSongs(fav) = %d, want 1", n)
	}
	if err := db.SetFavorite("missing", true); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("SetFavorite(missing) = %v, want not found", err)
	}
}

func TestDB_SearchSongs_Relevance(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_ = db.CreateSong(newSong("contains", "My Love Song", "Someone"))
	_ = db.CreateSong(newSong("prefix", "Love Story", "Taylor Swift"))
	_ = db.CreateSong(newSong("exact", "Love", "Another"))
	_ = db.CreateSong(newSong("artist", "Ballad", "Love"))
	_ = db.CreateSong(newSong("album-only", "Track", "Band"))
	_ = db.CreateSong(newSong("nomatch", "Yesterday", "The Beatles"))

	_ = db.UpdateSongPartial("album-only", map[string]interface{}{"album": "Lovely Album"})

	songs, err := db.SearchSongs("love", 10)
	if err != nil {
		t.Fatalf("SearchSongs failed: %v", err)
	}

	want := []string{"exact", "prefix", "artist", "contains", "album-only"}
	if len(songs) != len(want) {
		t.Fatalf("got %d results, want %d", len(songs), len(want))
	}
	for i, id := range want {
		if songs[i].ID != id {
			t.Errorf("result[%d] = %s, want %s", i, songs[i].ID, id)
		}
	}
}

func TestDB_SearchSongs_EdgeCases(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_ = db.CreateSong(newSong("s1", "100% Pure", "Ünïcödé Artist"))
	_ = db.CreateSong(newSong("s2", "1000 Pure", "Other"))

	songs, err := db.SearchSongs("   ", 10)
	if err != nil || len(songs) != 0 {
		t.Errorf("blank query = %v, %v", songs, err)
	}

	songs, _ = db.SearchSongs("100%", 10)
	if len(songs) != 1 || songs[0].ID != "s1" {
		t.Errorf("LIKE wildcard not escaped: %v", songs)
	}

	songs, _ = db.SearchSongs("Ünïcödé", 10)
	if len(songs) != 1 {
		t.Errorf("unicode search returned %d results", len(songs))
	}
}

// Case folding follows SQLite's lower(), which only folds ASCII letters.
func TestDB_SearchSongs_ASCIICaseFolding(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	_ = db.CreateSong(newSong("s1", "Édith", "ELVIS"))

	tests := []struct {
		q    string
		want int
	}{
		{"elvis", 1},
		{"ELVIS", 1},
		{"Édith", 1},
		{"DITH", 1},
		{"édith", 0},
	}
	for _, tt := range tests {
		t.Run(tt.q, func(t *testing.T) {
			songs, err := db.SearchSongs(tt.q, 10)
			if err != nil {
				t.Fatalf("SearchSongs failed: %v", err)
			}
			if len(songs) != tt.want {
				t.Errorf("SearchSongs(%q) = %d results, want %d", tt.q, len(songs), tt.want)
			}
		})
	}
}

func TestDB_ListSongsMissingMetadata(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	complete := newSong("done", "Done", "A")
	complete.ITunesTrackID = 42
	complete.Lyrics = "la la"
	complete.CoverArtPath = "done/cover.jpg"
	_ = db.CreateSong(complete)
	_ = db.CreateSong(newSong("bare", "Bare", "B"))

	songs, err := db.ListSongsMissingMetadata(10)
	if err != nil {
		t.Fatalf("ListSongsMissingMetadata failed: %v", err)
	}
	if len(songs) != 1 || songs[0].ID != "bare" {
		t.Errorf("got %v, want only bare", songs)
	}
}

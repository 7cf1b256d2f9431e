// Package library manages the on-disk layout of the karaoke library.
//
// Every song owns one directory named after its id:
//
//	<root>/<song_id>/original.<ext>
//	<root>/<song_id>/vocals.mp3
//	<root>/<song_id>/instrumental.mp3
//	<root>/<song_id>/thumbnail.<ext>
//	<root>/<song_id>/cover.<ext>
//	<root>/<song_id>/lyrics.lrc
//	<root>/<song_id>/lyrics.txt
//
// Paths stored in the database are relative to the root.
package library

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/constants"
)

var ErrOutsideLibrary = errors.New("path escapes library root")

type Library struct {
	root string
}

func New(root string) (*Library, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve library root: %w", err)
	}
	if err := EnsureDir(abs); err != nil {
		return nil, fmt.Errorf("create library root: %w", err)
	}
	return &Library{root: abs}, nil
}

func (l *Library) Root() string { return l.root }

// SongDir returns the absolute directory of a song.
func (l *Library) SongDir(songID string) string {
	return filepath.Join(l.root, Sanitize(songID))
}

// EnsureSongDir creates the song directory and returns its absolute path.
func (l *Library) EnsureSongDir(songID string) (string, error) {
	dir := l.SongDir(songID)
	if err := EnsureDir(dir); err != nil {
		return "", err
	}
	return dir, nil
}

// Rel converts an absolute path inside the library into a stored relative path.
func (l *Library) Rel(abs string) (string, error) {
	rel, err := filepath.Rel(l.root, abs)
	if err != nil {
		return "", err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", ErrOutsideLibrary
	}
	return filepath.ToSlash(rel), nil
}

// Resolve turns a stored relative path into an absolute one, refusing
// anything that would land outside the root.
func (l *Library) Resolve(rel string) (string, error) {
	if rel == "" {
		return "", os.ErrNotExist
	}
	if filepath.IsAbs(rel) {
		return "", ErrOutsideLibrary
	}
	full := filepath.Join(l.root, filepath.FromSlash(rel))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", ErrOutsideLibrary
	}
	return full, nil
}

// SongFile returns the relative path of a fixed-name file in a song directory.
func SongFile(songID, name string) string {
	return Sanitize(songID) + "/" + name
}

// SaveOriginal copies r into original<ext> and returns the relative path.
func (l *Library) SaveOriginal(songID, ext string, r io.Reader) (string, error) {
	dir, err := l.EnsureSongDir(songID)
	if err != nil {
		return "", err
	}
	ext = strings.ToLower(ext)
	name := constants.OriginalBase + ext
	f, err := CreateFile(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return SongFile(songID, name), nil
}

// SaveImage stores image bytes as <base>.<sniffed ext> and returns the relative path.
func (l *Library) SaveImage(songID, base string, data []byte) (string, error) {
	format := DetectImageFormat(data)
	if format == ImageUnknown {
		return "", fmt.Errorf("unrecognized image format")
	}
	dir, err := l.EnsureSongDir(songID)
	if err != nil {
		return "", err
	}
	// drop any previous image with a different extension
	for _, ext := range ImageExts {
		if ext != format.Ext() {
			_ = RemoveFile(filepath.Join(dir, base+ext))
		}
	}
	name := base + format.Ext()
	if err := WriteFile(filepath.Join(dir, name), data); err != nil {
		return "", err
	}
	return SongFile(songID, name), nil
}

// SaveText writes a text file into the song directory.
func (l *Library) SaveText(songID, name, content string) (string, error) {
	dir, err := l.EnsureSongDir(songID)
	if err != nil {
		return "", err
	}
	if err := WriteFile(filepath.Join(dir, name), []byte(content)); err != nil {
		return "", err
	}
	return SongFile(songID, name), nil
}

// DeleteSongDir removes a song directory and everything in it.
func (l *Library) DeleteSongDir(songID string) error {
	if Sanitize(songID) == "" {
		return fmt.Errorf("empty song id")
	}
	return os.RemoveAll(l.SongDir(songID))
}

// Orphans returns directory names under the root that are not in known.
func (l *Library) Orphans(known []string) ([]string, error) {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(known))
	for _, id := range known {
		set[Sanitize(id)] = true
	}
	var orphans []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if !set[e.Name()] {
			orphans = append(orphans, e.Name())
		}
	}
	return orphans, nil
}

// FindFile returns the relative path of the first <base>.<ext> present in the song directory.
func (l *Library) FindFile(songID, base string, exts ...string) string {
	dir := l.SongDir(songID)
	for _, ext := range exts {
		if _, err := os.Stat(filepath.Join(dir, base+ext)); err == nil {
			return SongFile(songID, base+ext)
		}
	}
	return ""
}

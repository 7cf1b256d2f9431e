package tagging

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dhowden/tag"
	"github.com/go-audio/wav"
	"github.com/tcolgate/mp3"
)

// ErrUnsupportedDuration is returned by Duration for formats it cannot measure.
var ErrUnsupportedDuration = errors.New("duration not supported for this format")

// Info is what can be learned from an uploaded file's embedded tags.
type Info struct {
	Title   string
	Artist  string
	Album   string
	Genre   string
	Lyrics  string
	Year    int
	Picture []byte
}

// Read extracts embedded tags from the file at path.
func Read(path string) (*Info, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadFrom(f)
}

// ReadFrom extracts embedded tags from r. Files without recognizable tags
// return an error; callers fall back to the file name.
func ReadFrom(r io.ReadSeeker) (*Info, error) {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("read tags: %w", err)
	}
	info := &Info{
		Title:  strings.TrimSpace(m.Title()),
		Artist: strings.TrimSpace(m.Artist()),
		Album:  strings.TrimSpace(m.Album()),
		Genre:  strings.TrimSpace(m.Genre()),
		Lyrics: m.Lyrics(),
		Year:   m.Year(),
	}
	if info.Artist == "" {
		info.Artist = strings.TrimSpace(m.AlbumArtist())
	}
	if p := m.Picture(); p != nil {
		info.Picture = p.Data
	}
	return info, nil
}

// MP3Duration sums the duration of every MPEG frame in the file.
func MP3Duration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := mp3.NewDecoder(f)
	var (
		frame   mp3.Frame
		skipped int
		total   time.Duration
	)
	for {
		if err := d.Decode(&frame, &skipped); err != nil {
			if err == io.EOF {
				break
			}
			return 0, err
		}
		total += frame.Duration()
	}
	return total, nil
}

// WAVDuration reads the duration from the RIFF header.
func WAVDuration(path string) (time.Duration, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, fmt.Errorf("invalid wav file: %s", filepath.Base(path))
	}
	return d.Duration()
}

// Duration measures mp3 and wav files by extension.
func Duration(path string) (time.Duration, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".mp3":
		return MP3Duration(path)
	case ".wav":
		return WAVDuration(path)
	}
	return 0, ErrUnsupportedDuration
}

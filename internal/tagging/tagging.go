package tagging

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/library"
)

var ErrUnsupportedFormat = errors.New("unsupported file format")

// Stem descriptions written into the comment frame of separated tracks.
const (
	StemVocals       = "Vocals"
	StemInstrumental = "Instrumental"
)

// Taggable reports whether TagFile can write into the file at path.
func Taggable(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case constants.ExtFLAC, constants.ExtMP3:
		return true
	}
	return false
}

// TagFile writes song metadata and optional cover art into the audio file at filePath.
func TagFile(filePath string, song *domain.Song, coverArt []byte) error {
	return TagStem(filePath, song, coverArt, "")
}

// TagStem is TagFile with a stem label appended to the title comment.
func TagStem(filePath string, song *domain.Song, coverArt []byte, stem string) error {
	ext := strings.ToLower(filepath.Ext(filePath))

	switch ext {
	case constants.ExtFLAC:
		return tagFLAC(filePath, song, coverArt, stem)
	case constants.ExtMP3:
		return tagMP3(filePath, song, coverArt, stem)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func tagFLAC(filePath string, song *domain.Song, coverArt []byte, stem string) error {
	f, err := flac.ParseFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to open FLAC file: %w", err)
	}

	kept := make([]*flac.MetaDataBlock, 0, len(f.Meta))
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			kept = append(kept, block)
		}
	}
	f.Meta = kept

	comment := newVorbisComment(song, stem)
	commentBlock := comment.Marshal()
	f.Meta = append(f.Meta, &commentBlock)

	if len(coverArt) > 0 {
		format := library.DetectImageFormat(coverArt)
		picture, picErr := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front Cover", coverArt, format.MimeType())
		if picErr == nil {
			pictureBlock := picture.Marshal()
			f.Meta = append(f.Meta, &pictureBlock)
		}
	}

	if err := f.Save(filePath); err != nil {
		return fmt.Errorf("failed to save FLAC file with metadata: %w", err)
	}
	return nil
}

func newVorbisComment(song *domain.Song, stem string) *flacvorbis.MetaDataBlockVorbisComment {
	comment := flacvorbis.New()
	add := func(field, value string) {
		if value != "" {
			_ = comment.Add(field, value)
		}
	}

	add(flacvorbis.FIELD_TITLE, song.Title)
	add(flacvorbis.FIELD_ARTIST, song.Artist)
	add(flacvorbis.FIELD_ALBUM, song.Album)
	add(flacvorbis.FIELD_GENRE, song.Genre)
	if song.ReleaseDate != "" {
		add(flacvorbis.FIELD_DATE, song.ReleaseDate)
	} else if song.Year > 0 {
		add(flacvorbis.FIELD_DATE, strconv.Itoa(song.Year))
	}
	add("LANGUAGE", song.Language)
	add("MUSICBRAINZ_TRACKID", song.MusicBrainzID)
	add("LYRICS", song.Lyrics)
	if song.SyncedLyrics != "" {
		add("SYNCEDLYRICS", formatToLRC(song.SyncedLyrics))
	}
	add("KARAOKE_STEM", stem)
	if song.SourceURL != "" {
		add("WEBSITE", song.SourceURL)
	}
	return comment
}

// formatToLRC drops blank lines and trims each timestamped line.
func formatToLRC(subtitles string) string {
	var b strings.Builder
	for _, line := range strings.Split(subtitles, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func tagMP3(filePath string, song *domain.Song, coverArt []byte, stem string) error {
	tag, err := id3v2.Open(filePath, id3v2.Options{Parse: true})
	if err != nil {
		return fmt.Errorf("failed to open MP3 file: %w", err)
	}
	defer tag.Close()

	tag.SetVersion(4)

	if song.Title != "" {
		tag.SetTitle(song.Title)
	}
	if song.Artist != "" {
		tag.SetArtist(song.Artist)
	}
	if song.Album != "" {
		tag.SetAlbum(song.Album)
	}
	if song.Year > 0 {
		tag.SetYear(strconv.Itoa(song.Year))
	}
	if song.Genre != "" {
		tag.SetGenre(song.Genre)
	}
	if song.ReleaseDate != "" {
		tag.AddTextFrame(tag.CommonID("Release time"), tag.DefaultEncoding(), song.ReleaseDate)
	}
	if song.Language != "" {
		tag.AddTextFrame(tag.CommonID("Language"), tag.DefaultEncoding(), song.Language)
	}
	if song.Lyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "",
			Lyrics:            song.Lyrics,
		})
	}
	if song.SyncedLyrics != "" {
		tag.AddUnsynchronisedLyricsFrame(id3v2.UnsynchronisedLyricsFrame{
			Encoding:          id3v2.EncodingUTF8,
			Language:          "eng",
			ContentDescriptor: "LRC",
			Lyrics:            formatToLRC(song.SyncedLyrics),
		})
	}
	if song.MusicBrainzID != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "MusicBrainz Track Id",
			Value:       song.MusicBrainzID,
		})
	}
	if stem != "" {
		tag.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
			Encoding:    id3v2.EncodingUTF8,
			Description: "KARAOKE_STEM",
			Value:       stem,
		})
	}
	if song.SourceURL != "" {
		tag.AddTextFrame(tag.CommonID("WWWAudioSource"), tag.DefaultEncoding(), song.SourceURL)
	}

	if len(coverArt) > 0 {
		format := library.DetectImageFormat(coverArt)
		if format != library.ImageUnknown {
			tag.AddAttachedPicture(id3v2.PictureFrame{
				Encoding:    id3v2.EncodingUTF8,
				MimeType:    format.MimeType(),
				PictureType: id3v2.PTFrontCover,
				Description: "Front Cover",
				Picture:     coverArt,
			})
		}
	}

	return tag.Save()
}

package youtube

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/domain"
)

// VideoInfo is the subset of yt-dlp's info JSON used by the library.
type VideoInfo struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	FullTitle   string      `json:"fulltitle"`
	Track       string      `json:"track"`
	Artist      string      `json:"artist"`
	Creator     string      `json:"creator"`
	Album       string      `json:"album"`
	Uploader    string      `json:"uploader"`
	UploaderID  string      `json:"uploader_id"`
	Channel     string      `json:"channel"`
	ChannelID   string      `json:"channel_id"`
	Description string      `json:"description"`
	Thumbnail   string      `json:"thumbnail"`
	Thumbnails  []Thumbnail `json:"thumbnails"`
	Tags        []string    `json:"tags"`
	WebpageURL  string      `json:"webpage_url"`
	URL         string      `json:"url"`
	UploadDate  string      `json:"upload_date"`
	ReleaseYear int         `json:"release_year"`
	Duration    float64     `json:"duration"`
	ViewCount   int64       `json:"view_count"`
}

type Thumbnail struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// BestThumbnail returns the explicit thumbnail or the widest listed one.
func (v *VideoInfo) BestThumbnail() string {
	if v.Thumbnail != "" {
		return v.Thumbnail
	}
	best, width := "", -1
	for _, t := range v.Thumbnails {
		if t.URL != "" && t.Width > width {
			best, width = t.URL, t.Width
		}
	}
	return best
}

// Metadata is what a downloaded video contributes to a song.
type Metadata struct {
	VideoID      string   `json:"video_id"`
	Title        string   `json:"title"`
	Artist       string   `json:"artist"`
	Album        string   `json:"album"`
	ThumbnailURL string   `json:"thumbnail_url"`
	SourceURL    string   `json:"source_url"`
	Channel      string   `json:"channel"`
	ChannelID    string   `json:"channel_id"`
	Uploader     string   `json:"uploader"`
	Tags         []string `json:"tags"`
	Year         int      `json:"year"`
	DurationMs   int64    `json:"duration_ms"`
}

var (
	noiseRe = regexp.MustCompile(`(?i)\s*[\(\[][^\)\]]*\b(official|video|audio|lyrics?|hd|hq|4k|mv|visuali[sz]er|remaster(ed)?)\b[^\)\]]*[\)\]]`)
	spaceRe = regexp.MustCompile(`\s{2,}`)
)

// CleanTitle strips decorations such as "(Official Video)" or "[Lyrics]".
func CleanTitle(title string) string {
	title = noiseRe.ReplaceAllString(title, "")
	title = spaceRe.ReplaceAllString(title, " ")
	return strings.Trim(title, " -|")
}

// SplitArtistTitle splits "Artist - Title" style video titles.
func SplitArtistTitle(title string) (artist, song string, ok bool) {
	for _, sep := range []string{" - ", " – ", " — ", " | "} {
		if i := strings.Index(title, sep); i > 0 {
			artist = strings.TrimSpace(title[:i])
			song = strings.TrimSpace(title[i+len(sep):])
			if artist != "" && song != "" {
				return artist, song, true
			}
		}
	}
	return "", "", false
}

// cleanChannel drops the auto-generated suffixes YouTube adds to artist channels.
func cleanChannel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, " - Topic")
	if strings.HasSuffix(s, "VEVO") && len(s) > 4 {
		s = strings.TrimSpace(strings.TrimSuffix(s, "VEVO"))
	}
	return s
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ExtractMetadata maps yt-dlp info onto song fields with fallbacks for
// anything missing.
func ExtractMetadata(info *VideoInfo) Metadata {
	if info == nil {
		return Metadata{Title: domain.UnknownTitle, Artist: domain.UnknownArtist, Tags: []string{}}
	}

	rawTitle := firstNonEmpty(info.Title, info.FullTitle)
	cleaned := CleanTitle(rawTitle)
	splitArtist, splitTitle, split := SplitArtistTitle(cleaned)

	title := strings.TrimSpace(info.Track)
	if title == "" {
		if split {
			title = splitTitle
		} else {
			title = cleaned
		}
	}
	if title == "" {
		title = domain.UnknownTitle
	}

	artist := firstNonEmpty(info.Artist, info.Creator)
	if artist == "" && split {
		artist = splitArtist
	}
	if artist == "" {
		artist = firstNonEmpty(cleanChannel(info.Uploader), cleanChannel(info.Channel))
	}
	if artist == "" {
		artist = domain.UnknownArtist
	}

	source := info.WebpageURL
	if source == "" && info.ID != "" {
		source = WatchURL(info.ID)
	}

	year := info.ReleaseYear
	if year == 0 && len(info.UploadDate) >= 4 {
		year, _ = strconv.Atoi(info.UploadDate[:4])
	}

	tags := info.Tags
	if tags == nil {
		tags = []string{}
	}

	return Metadata{
		VideoID:      info.ID,
		Title:        title,
		Artist:       artist,
		Album:        strings.TrimSpace(info.Album),
		DurationMs:   int64(info.Duration * 1000),
		ThumbnailURL: info.BestThumbnail(),
		SourceURL:    source,
		Channel:      info.Channel,
		ChannelID:    info.ChannelID,
		Uploader:     info.Uploader,
		Tags:         tags,
		Year:         year,
	}
}

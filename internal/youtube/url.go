package youtube

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	urlRe = regexp.MustCompile(`^(?:https?://)?(?:(?:www|m|music)\.)?` +
		`(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|shorts/|embed/|live/|v/)|youtu\.be/)` +
		`([A-Za-z0-9_-]{11})(?:[?&#/].*)?$`)
	videoIDRe = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
)

// ValidateURL reports whether s is a single-video YouTube or YouTube Music URL.
func ValidateURL(s string) bool {
	return urlRe.MatchString(strings.TrimSpace(s))
}

// ExtractVideoID returns the 11 character video id of a YouTube URL. A bare
// id is accepted as-is.
func ExtractVideoID(s string) (string, error) {
	s = strings.TrimSpace(s)
	if videoIDRe.MatchString(s) {
		return s, nil
	}
	m := urlRe.FindStringSubmatch(s)
	if m == nil {
		return "", fmt.Errorf("unable to extract video ID from URL: %s", s)
	}
	return m[1], nil
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

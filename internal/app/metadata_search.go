package app

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/cesargomez89/openkaraoke/internal/domain"
	"github.com/cesargomez89/openkaraoke/internal/itunes"
)

const (
	SourceITunes      = "itunes"
	SourceMusicBrainz = "musicbrainz"
)

var variantRe = regexp.MustCompile(`(?i)\b(karaoke|instrumental|cover|live|tribute|made famous|in the style of|backing track)\b`)

// isVariant reports whether a catalog entry is a karaoke, instrumental,
// cover or live version the user did not ask for.
func isVariant(r itunes.Result, query string) bool {
	for _, field := range []string{r.TrackName, r.CollectionName, r.ArtistName} {
		for _, m := range variantRe.FindAllString(field, -1) {
			if !strings.Contains(strings.ToLower(query), strings.ToLower(m)) {
				return true
			}
		}
	}
	return false
}

// normalize lowercases s and drops everything but letters and digits.
func normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func matchScore(got, want string, exact, partial float64) float64 {
	g, w := normalize(got), normalize(want)
	switch {
	case w == "" || g == "":
		return 0
	case g == w:
		return exact
	case strings.Contains(g, w) || strings.Contains(w, g):
		return partial
	}
	return 0
}

// scoreResult rates how well r matches the query. Title weighs most, then
// artist, album and duration.
func scoreResult(r itunes.Result, q domain.MetadataQuery, durationMs int64) float64 {
	title := q.Title
	if title == "" {
		title = q.Query
	}
	score := matchScore(r.TrackName, title, 4, 2)
	score += matchScore(r.ArtistName, q.Artist, 3, 1.5)
	score += matchScore(r.CollectionName, q.Album, 1, 0.5)
	if q.Title == "" && q.Artist == "" && q.Query != "" {
		score += matchScore(r.ArtistName, q.Query, 1, 1)
	}
	if durationMs > 0 && r.DurationMs > 0 {
		diff := r.DurationMs - durationMs
		if diff < 0 {
			diff = -diff
		}
		switch {
		case diff <= 3000:
			score += 1
		case diff <= 10000:
			score += 0.5
		}
	}
	return score
}

func toMetadataResult(r itunes.Result, score float64) domain.MetadataResult {
	return domain.MetadataResult{
		Title:              r.TrackName,
		Artist:             r.ArtistName,
		Album:              r.CollectionName,
		DurationMs:         r.DurationMs,
		ReleaseDate:        r.ReleaseDate,
		Year:               r.Year(),
		Genre:              r.Genre,
		CoverURL:           r.ArtworkURL,
		PreviewURL:         r.PreviewURL,
		Source:             SourceITunes,
		ITunesTrackID:      r.TrackID,
		ITunesArtistID:     r.ArtistID,
		ITunesCollectionID: r.CollectionID,
		Explicit:           r.Explicit,
		Score:              score,
	}
}

// rankResults drops variants, scores, sorts by score and removes duplicates
// of the same title/artist/album.
func rankResults(results []itunes.Result, q domain.MetadataQuery, durationMs int64, limit int) []domain.MetadataResult {
	queryText := strings.Join([]string{q.Title, q.Artist, q.Album, q.Query}, " ")

	ranked := make([]domain.MetadataResult, 0, len(results))
	for _, r := range results {
		if isVariant(r, queryText) {
			continue
		}
		ranked = append(ranked, toMetadataResult(r, scoreResult(r, q, durationMs)))
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	seen := make(map[string]bool, len(ranked))
	out := make([]domain.MetadataResult, 0, len(ranked))
	for _, r := range ranked {
		key := normalize(r.Title) + "|" + normalize(r.Artist) + "|" + normalize(r.Album)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

package musicbrainz

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/constants"
	"github.com/cesargomez89/openkaraoke/internal/httpclient"
)

// MusicBrainz asks clients to stay at or below one request per second.
const minRequestInterval = constants.MusicBrainzRateLimit

var DefaultGenreMap = map[string]string{
	"rock":              "Rock",
	"alternative rock":  "Rock",
	"indie rock":        "Rock",
	"hard rock":         "Rock",
	"punk":              "Rock",
	"punk rock":         "Rock",
	"grunge":            "Rock",
	"soft rock":         "Rock",
	"metal":             "Metal",
	"heavy metal":       "Metal",
	"nu metal":          "Metal",
	"alternative metal": "Metal",
	"pop":               "Pop",
	"indie pop":         "Pop",
	"synthpop":          "Pop",
	"synth-pop":         "Pop",
	"dance pop":         "Pop",
	"dance-pop":         "Pop",
	"electropop":        "Pop",
	"latin pop":         "Pop",
	"k-pop":             "Pop",
	"j-pop":             "Pop",
	"hip hop":           "Hip-Hop",
	"rap":               "Hip-Hop",
	"trap":              "Hip-Hop",
	"r&b":               "R&B",
	"rnb":               "R&B",
	"contemporary r&b":  "R&B",
	"soul":              "R&B",
	"funk":              "R&B",
	"electronic":        "Electronic",
	"edm":               "Electronic",
	"house":             "Electronic",
	"techno":            "Electronic",
	"disco":             "Electronic",
	"latin":             "Latin",
	"reggaeton":         "Latin",
	"salsa":             "Latin",
	"bachata":           "Latin",
	"cumbia":            "Latin",
	"regional mexican":  "Regional Mexican",
	"mariachi":          "Regional Mexican",
	"ranchera":          "Regional Mexican",
	"country":           "Country",
	"americana":         "Country",
	"jazz":              "Jazz",
	"swing":             "Jazz",
	"classical":         "Classical",
	"opera":             "Classical",
	"musical":           "Show Tunes",
	"show tunes":        "Show Tunes",
	"folk":              "Folk",
	"acoustic":          "Folk",
	"reggae":            "Reggae",
	"ska":               "Reggae",
	"blues":             "Blues",
	"soundtrack":        "Soundtrack",
	"film score":        "Soundtrack",
}

// Recording is a normalized MusicBrainz recording.
type Recording struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	ArtistID    string   `json:"artist_id"`
	Album       string   `json:"album"`
	ReleaseID   string   `json:"release_id"`
	ReleaseDate string   `json:"release_date"`
	Genre       string   `json:"genre"`
	SubGenre    string   `json:"sub_genre"`
	ISRC        string   `json:"isrc"`
	Tags        []string `json:"tags"`
	Year        int      `json:"year"`
	DurationMs  int64    `json:"duration_ms"`
	Score       int      `json:"score"`
}

type ClientInterface interface {
	SearchRecordings(ctx context.Context, artist, title string, limit int) ([]Recording, error)
	GetRecording(ctx context.Context, mbid string) (*Recording, error)
}

var _ ClientInterface = (*Client)(nil)

type Client struct {
	http     *httpclient.Client
	genreMap map[string]string
	baseURL  string
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = constants.DefaultMusicBrainzURL
	}
	return &Client{
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		http:     httpclient.NewClient(nil, minRequestInterval),
		genreMap: DefaultGenreMap,
	}
}

// WithHTTPClient swaps the transport, mainly for tests.
func (c *Client) WithHTTPClient(h *httpclient.Client) *Client {
	c.http = h
	return c
}

// SearchRecordings runs a Lucene recording search on artist and title.
func (c *Client) SearchRecordings(ctx context.Context, artist, title string, limit int) ([]Recording, error) {
	query := buildQuery(artist, title)
	if query == "" {
		return []Recording{}, nil
	}
	if limit <= 0 {
		limit = constants.DefaultSearchLimit
	}
	if limit > 100 {
		limit = 100
	}

	q := url.Values{}
	q.Set("query", query)
	q.Set("fmt", "json")
	q.Set("limit", strconv.Itoa(limit))

	var result searchResponse
	if err := c.http.GetJSON(ctx, c.baseURL+"/recording?"+q.Encode(), &result); err != nil {
		return nil, fmt.Errorf("musicbrainz search: %w", err)
	}

	out := make([]Recording, 0, len(result.Recordings))
	for _, rec := range result.Recordings {
		if rec.ID == "" {
			continue
		}
		out = append(out, c.toRecording(rec, ""))
	}
	return out, nil
}

// GetRecording looks up one recording by MBID. A missing recording yields nil, nil.
func (c *Client) GetRecording(ctx context.Context, mbid string) (*Recording, error) {
	if mbid == "" {
		return nil, nil
	}

	u := fmt.Sprintf("%s/recording/%s?inc=artists+releases+release-groups+tags+isrcs&fmt=json", c.baseURL, url.PathEscape(mbid))

	var rec recording
	if err := c.http.GetJSON(ctx, u, &rec); err != nil {
		if httpclient.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("musicbrainz recording %s: %w", mbid, err)
	}
	out := c.toRecording(rec, "")
	return &out, nil
}

func (c *Client) toRecording(rec recording, albumName string) Recording {
	mainGenre, subGenre := extractMainGenre([]recording{rec}, c.genreMap)
	out := Recording{
		ID:         rec.ID,
		Title:      rec.Title,
		DurationMs: int64(rec.Length),
		Genre:      mainGenre,
		SubGenre:   subGenre,
		Tags:       extractTags([]recording{rec}),
		Score:      rec.Score,
	}
	if len(rec.ISRCs) > 0 {
		out.ISRC = rec.ISRCs[0]
	}
	if len(rec.ArtistCredit) > 0 {
		out.Artist = joinArtistCredit(rec.ArtistCredit)
		out.ArtistID = rec.ArtistCredit[0].Artist.ID
	}

	rel := selectBestRelease(rec.Releases, albumName)
	if rel == nil {
		return out
	}
	out.Album = rel.Title
	out.ReleaseID = rel.ID
	out.ReleaseDate = rel.Date
	if len(rel.Date) >= 4 {
		out.Year, _ = strconv.Atoi(rel.Date[:4])
	}
	return out
}

func joinArtistCredit(credits []artistCredit) string {
	var b strings.Builder
	for _, ac := range credits {
		name := ac.Name
		if name == "" {
			name = ac.Artist.Name
		}
		b.WriteString(name)
		b.WriteString(ac.JoinPhrase)
	}
	return strings.TrimSpace(b.String())
}

func buildQuery(artist, title string) string {
	artist = strings.TrimSpace(artist)
	title = strings.TrimSpace(title)
	var parts []string
	if title != "" {
		parts = append(parts, fmt.Sprintf(`recording:"%s"`, escapeLucene(title)))
	}
	if artist != "" {
		parts = append(parts, fmt.Sprintf(`artist:"%s"`, escapeLucene(artist)))
	}
	return strings.Join(parts, " AND ")
}

func escapeLucene(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return r.Replace(s)
}

// selectBestRelease prefers an official album release whose title matches albumName.
func selectBestRelease(releases []release, albumName string) *release {
	if len(releases) == 0 {
		return nil
	}

	normalize := func(s string) string {
		s = strings.ToLower(s)
		r := strings.NewReplacer(" ", "", "-", "", "_", "", ",", "", "(", "", ")", "")
		return r.Replace(s)
	}

	albumNorm := normalize(albumName)
	if albumNorm != "" {
		for i := range releases {
			r := &releases[i]
			releaseNorm := normalize(r.Title)
			if releaseNorm != "" && (strings.Contains(releaseNorm, albumNorm) || strings.Contains(albumNorm, releaseNorm)) {
				return r
			}
		}
	}

	for i := range releases {
		r := &releases[i]
		if r.Status == "Official" && r.ReleaseGroup.PrimaryType == "Album" {
			return r
		}
	}
	return &releases[0]
}

func extractMainGenre(recordings []recording, genreMap map[string]string) (mainGenre string, subGenre string) {
	genreCounts := make(map[string]int)
	var highestOriginalTag string
	var highestOriginalCount int

	for _, rec := range recordings {
		for _, t := range rec.Tags {
			if t.Count <= 0 {
				continue
			}

			normalized := strings.ToLower(strings.TrimSpace(t.Name))
			if normalized == "" {
				continue
			}

			if mapped, ok := genreMap[normalized]; ok {
				genreCounts[mapped] += t.Count
			} else {
				genreCounts[t.Name] += t.Count
			}

			if t.Count > highestOriginalCount {
				highestOriginalCount = t.Count
				highestOriginalTag = t.Name
			}
		}
	}

	if len(genreCounts) == 0 {
		return "", ""
	}

	var maxGenre string
	var maxCount int
	for genre, count := range genreCounts {
		// ties break alphabetically so results are stable
		if count > maxCount || (count == maxCount && genre < maxGenre) {
			maxCount = count
			maxGenre = genre
		}
	}

	if highestOriginalTag != "" && !strings.EqualFold(highestOriginalTag, maxGenre) {
		return maxGenre, highestOriginalTag
	}
	return maxGenre, ""
}

func extractTags(recordings []recording) []string {
	seen := make(map[string]struct{})
	var tags []string
	for _, rec := range recordings {
		for _, t := range rec.Tags {
			name := strings.TrimSpace(t.Name)
			if t.Count <= 0 || name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			tags = append(tags, name)
		}
	}
	return tags
}

type searchResponse struct {
	Recordings []recording `json:"recordings"`
}

type recording struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Tags         []tag          `json:"tags"`
	Releases     []release      `json:"releases"`
	ArtistCredit []artistCredit `json:"artist-credit"`
	ISRCs        []string       `json:"isrcs"`
	Length       int            `json:"length"`
	Score        int            `json:"score"`
}

type release struct {
	ID           string       `json:"id"`
	Title        string       `json:"title"`
	Status       string       `json:"status"`
	Date         string       `json:"date"`
	ReleaseGroup releaseGroup `json:"release-group"`
}

type artistCredit struct {
	Name       string `json:"name"`
	Artist     artist `json:"artist"`
	JoinPhrase string `json:"joinphrase"`
}

type releaseGroup struct {
	ID          string `json:"id"`
	PrimaryType string `json:"primary-type"`
}

type artist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type tag struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

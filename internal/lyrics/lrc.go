package lyrics

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Line is one timed lyric line.
type Line struct {
	Time   time.Duration `json:"-"`
	TimeMs int64         `json:"time_ms"`
	Text   string        `json:"text"`
}

var timestampRe = regexp.MustCompile(`\[(\d{1,3}):(\d{1,2})(?:[.:](\d{1,3}))?\]`)

// ParseLRC parses LRC text into lines sorted by time. A line with several
// timestamps is emitted once per timestamp; metadata tags such as [ar:...]
// are skipped.
func ParseLRC(text string) []Line {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimSpace(raw)
		matches := timestampRe.FindAllStringSubmatchIndex(raw, -1)
		if len(matches) == 0 {
			continue
		}

		// timestamps must be a prefix run
		end := 0
		var stamps []time.Duration
		for _, m := range matches {
			if m[0] != end {
				break
			}
			stamps = append(stamps, parseStamp(raw, m))
			end = m[1]
		}
		if len(stamps) == 0 {
			continue
		}

		lyric := strings.TrimSpace(raw[end:])
		for _, ts := range stamps {
			lines = append(lines, Line{Time: ts, TimeMs: ts.Milliseconds(), Text: lyric})
		}
	}

	sort.SliceStable(lines, func(i, j int) bool { return lines[i].Time < lines[j].Time })
	return lines
}

func parseStamp(s string, m []int) time.Duration {
	minutes, _ := strconv.Atoi(s[m[2]:m[3]])
	seconds, _ := strconv.Atoi(s[m[4]:m[5]])
	d := time.Duration(minutes)*time.Minute + time.Duration(seconds)*time.Second
	if m[6] >= 0 {
		frac := s[m[6]:m[7]]
		n, _ := strconv.Atoi(frac)
		switch len(frac) {
		case 1:
			d += time.Duration(n) * 100 * time.Millisecond
		case 2:
			d += time.Duration(n) * 10 * time.Millisecond
		default:
			d += time.Duration(n) * time.Millisecond
		}
	}
	return d
}

// IsSynced reports whether text contains at least one timed line.
func IsSynced(text string) bool {
	return len(ParseLRC(text)) > 0
}

// PlainText strips timestamps from LRC text.
func PlainText(text string) string {
	lines := ParseLRC(text)
	if len(lines) == 0 {
		return strings.TrimSpace(text)
	}
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		out = append(out, l.Text)
	}
	return strings.Join(out, "\n")
}

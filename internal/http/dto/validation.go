package dto

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/cesargomez89/openkaraoke/internal/store"
)

var releaseDateRe = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) ToMap() map[string]string {
	return map[string]string{e.Field: e.Message}
}

func ToMap(errs []ValidationError) map[string]string {
	result := make(map[string]string)
	for _, e := range errs {
		result[e.Field] = e.Message
	}
	return result
}

func ToResponse(errs []ValidationError) string {
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	return strings.Join(msgs, "; ")
}

func validateRequired(field string, v string) []ValidationError {
	if strings.TrimSpace(v) == "" {
		return []ValidationError{{Field: field, Message: "is required"}}
	}
	return nil
}

func validateReleaseDate(releaseDate string) []ValidationError {
	if releaseDate != "" && !releaseDateRe.MatchString(releaseDate) {
		return []ValidationError{{Field: "release_date", Message: "invalid date format (expected: YYYY or YYYY-MM or YYYY-MM-DD)"}}
	}
	return nil
}

func validateURL(field, urlVal string) []ValidationError {
	if urlVal == "" {
		return nil
	}
	u, err := url.ParseRequestURI(urlVal)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return []ValidationError{{Field: field, Message: "invalid URL format"}}
	}
	return nil
}

func validateYear(year int) []ValidationError {
	if year != 0 && (year < 1000 || year > 9999) {
		return []ValidationError{{Field: "year", Message: "must be a four digit year"}}
	}
	return nil
}

func validateRange(field string, v, min, max int) []ValidationError {
	if v < min || v > max {
		return []ValidationError{{Field: field, Message: fmt.Sprintf("must be between %d and %d", min, max)}}
	}
	return nil
}

func validateSortBy(sortBy string) []ValidationError {
	if sortBy == "" {
		return nil
	}
	if _, ok := store.SortColumns[sortBy]; !ok {
		return []ValidationError{{Field: "sort_by", Message: "must be one of title, artist, album, date_added, duration_ms"}}
	}
	return nil
}

func validateDirection(direction string) []ValidationError {
	switch strings.ToLower(direction) {
	case "", "asc", "desc":
		return nil
	}
	return []ValidationError{{Field: "direction", Message: "must be 'asc' or 'desc'"}}
}

package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"
)

var (
	htmlTagRegex    = regexp.MustCompile("<[^>]*>")
	slugInvalid     = regexp.MustCompile(`[^a-z0-9 -]`)
	slugSpaces      = regexp.MustCompile(`\s+`)
	slugDashes      = regexp.MustCompile(`-+`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

const (
	wordsPerMinute   = 200
	maxSlugSuffix    = 50
	fallbackSlugStem = "article"
)

// Sanitize strips HTML tags and flattens line breaks.
func Sanitize(text string) string {
	clean := htmlTagRegex.ReplaceAllString(text, "")
	clean = strings.ReplaceAll(clean, "\n", " ")
	clean = strings.ReplaceAll(clean, "\r", " ")
	clean = whitespaceRegex.ReplaceAllString(clean, " ")
	return strings.TrimSpace(clean)
}

// Truncate shortens text to at most maxWidth terminal cells, ending in "..." when cut.
func Truncate(text string, maxWidth int) string {
	if runewidth.StringWidth(text) <= maxWidth {
		return text
	}
	if maxWidth <= 3 {
		return runewidth.Truncate(text, maxWidth, "")
	}
	return runewidth.Truncate(text, maxWidth, "...")
}

// Slugify lowercases the title and keeps only [a-z0-9-].
func Slugify(title string) string {
	s := strings.ToLower(title)
	s = slugInvalid.ReplaceAllString(s, "")
	s = slugSpaces.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

func shortID() string {
	return uuid.NewString()[:8]
}

// UniqueSlug returns base, or base-2, base-3 ... until taken reports a free slug.
// An empty base becomes "article-<8 hex>". Past maxSlugSuffix attempts a random suffix is used.
func UniqueSlug(base string, taken func(slug string) (bool, error)) (string, error) {
	if base == "" {
		base = fallbackSlugStem + "-" + shortID()
	}
	candidate := base
	for n := 2; n <= maxSlugSuffix; n++ {
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
	return base + "-" + shortID(), nil
}

// ParseTags splits a comma-separated editor field into trimmed, non-empty tags.
func ParseTags(raw string) []string {
	tags := []string{}
	for _, t := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(t); trimmed != "" {
			tags = append(tags, trimmed)
		}
	}
	return tags
}

// ReadTime estimates reading time of (possibly HTML) content.
func ReadTime(content string) string {
	words := len(strings.Fields(Sanitize(content)))
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		minutes = 1
	}
	return fmt.Sprintf("%d min read", minutes)
}

// ParseTimeString tries the timestamp layouts seen in news feeds and APIs.
func ParseTimeString(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	layouts := []string{
		time.RFC3339,
		time.RFC3339Nano,
		time.RFC1123Z,
		time.RFC1123,
		time.RFC850,
		"2006-01-02T15:04:05.999999",
		"2006-01-02 15:04:05",
		"Mon, 2 Jan 2006 15:04:05 -0700",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
	}
	return nil
}

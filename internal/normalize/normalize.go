// Package normalize provides utilities for normalizing user-supplied names.
package normalize

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Matches runs of whitespace.
var whitespaceRun = regexp.MustCompile(`\s+`)

// TagName canonicalizes a tag name for storage and lookup.
// "  Go Lang " -> "go lang", "Café" keeps its accent but is NFC-composed
// so that visually identical names compare equal.
//
// Tag uniqueness is (user, TagName(name)), so two spellings that
// normalize to the same string are the same tag.
func TagName(raw string) string {
	s := sanitizeString(raw)
	s = norm.NFC.String(s)
	s = strings.ToLower(strings.TrimSpace(s))
	s = whitespaceRun.ReplaceAllString(s, " ")
	return s
}

// Email canonicalizes an email address for index lookups.
// Emails are matched case-insensitively across the whole address.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(sanitizeString(raw)))
}

// CollectionName trims a collection name. Unlike tags, collection names
// keep their case; uniqueness is on the trimmed form.
func CollectionName(raw string) string {
	s := sanitizeString(raw)
	s = norm.NFC.String(s)
	s = strings.TrimSpace(s)
	return whitespaceRun.ReplaceAllString(s, " ")
}

// sanitizeString removes null bytes from strings, which can cause
// issues in databases and JSON parsing. Scraped page metadata
// occasionally includes null terminators in strings.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 { // null byte
			return -1 // drop it
		}
		return r
	}, s)
}

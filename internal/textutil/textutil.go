package textutil

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// CollapseWhitespace replaces runs of whitespace (including newlines and form
// feeds) with single spaces and trims the result.
func CollapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Normalize lowercases and whitespace-collapses text for use as a lookup or
// cache key.
func Normalize(value string) string {
	return strings.ToLower(CollapseWhitespace(value))
}

// Slug converts a display name to the lowercase hyphenated form PokeAPI
// resources use. Letters are lowercased, digits and hyphens kept, spaces
// become hyphens, everything else is dropped.
func Slug(value string) string {
	value = strings.TrimSpace(value)
	var b strings.Builder
	lastHyphen := false
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
			lastHyphen = false
		case r == ' ' || r == '-' || r == '_':
			if !lastHyphen && b.Len() > 0 {
				b.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}

// TitleCase renders a slug or raw name for display: hyphens and underscores
// become spaces and each word is title-cased.
func TitleCase(value string) string {
	value = strings.NewReplacer("-", " ", "_", " ").Replace(value)
	value = CollapseWhitespace(value)
	if value == "" {
		return ""
	}
	return cases.Title(language.English).String(value)
}

// JoinNames renders a list of slugs as a comma-separated display string,
// falling back to the provided placeholder when the list is empty.
func JoinNames(names []string, empty string) string {
	if len(names) == 0 {
		return empty
	}
	titled := make([]string, 0, len(names))
	for _, name := range names {
		titled = append(titled, TitleCase(name))
	}
	return strings.Join(titled, ", ")
}

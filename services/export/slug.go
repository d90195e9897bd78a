package export

import (
	"strings"

	"github.com/mozillazg/go-unidecode"
)

// Slugify lowercases a title and replaces every character outside [a-z0-9]
// with an underscore. Accented letters are transliterated first so "Amélie"
// becomes "amelie".
func Slugify(title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return "untitled"
	}
	ascii := strings.ToLower(unidecode.Unidecode(title))
	var b strings.Builder
	b.Grow(len(ascii))
	for _, r := range ascii {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String()
}

// Filename is the download name for a card export.
func Filename(title string) string {
	return "review-" + Slugify(title) + ".png"
}

package media

import (
	"regexp"
	"strings"
)

// maxSlugLength bounds generated file name fragments.
const maxSlugLength = 60

var slugRe = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Slug converts a title into a filesystem-safe file name fragment.
// Runs of disallowed characters collapse to a single underscore.
func Slug(s string) string {
	out := slugRe.ReplaceAllString(s, "_")
	out = strings.Trim(out, "_")
	if len(out) > maxSlugLength {
		out = out[:maxSlugLength]
	}
	if out == "" {
		return "output"
	}
	return out
}

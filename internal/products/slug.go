package product

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	slugStripRe = regexp.MustCompile(`[^a-z0-9 -]+`)
	slugSpaceRe = regexp.MustCompile(`\s+`)
	slugDashRe  = regexp.MustCompile(`-{2,}`)
)

// Slugify lowercases the name, drops everything but letters, digits, spaces and
// hyphens, and joins words with hyphens.
func Slugify(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = slugStripRe.ReplaceAllString(s, "")
	s = slugSpaceRe.ReplaceAllString(strings.TrimSpace(s), "-")
	s = slugDashRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// NewSlug returns the creation-time slug: the slugified name suffixed with the unix milliseconds.
func NewSlug(name string, at time.Time) string {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	return fmt.Sprintf("%s-%d", base, at.UnixMilli())
}

package store

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	reTrailingSlashes = regexp.MustCompile(`/+$`)
	reProtocol        = regexp.MustCompile(`(?i)^[a-z]+://`)
	reCredentials     = regexp.MustCompile(`^[^/@]+@`)
	reWindowsDrive    = regexp.MustCompile(`^([A-Za-z]):`)
	rePathSeparators  = regexp.MustCompile(`[/\\]+`)
)

// Namespace derives the key namespace of a documentation deployment from its
// root location, e.g.
//
//	"https://user@example.com/docs/proj/" -> "example-com-docs-proj"
//	"file:///F:/Doxy/Test5/html/"         -> "f-doxy-test5-html"
func Namespace(docRoot string) string {
	raw := reTrailingSlashes.ReplaceAllString(docRoot, "")
	raw = reProtocol.ReplaceAllString(raw, "")
	raw = reCredentials.ReplaceAllString(raw, "")
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = reWindowsDrive.ReplaceAllString(raw, "$1")

	var parts []string
	for _, seg := range rePathSeparators.Split(raw, -1) {
		if seg == "" {
			continue
		}
		if s := slug.Make(seg); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "-")
}

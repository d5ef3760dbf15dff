package navtree

import (
	"regexp"
	"strings"
)

var (
	pageSuffix     = regexp.MustCompile(`(?i)\.(?:xhtml|html)$`)
	pageAnchorTail = regexp.MustCompile(`(\.html)#.*$`)
)

// AnchorMarker separates a page from an in-page target.
const AnchorMarker = "#"

// IsPage reports whether ref ends in an accepted page-file suffix
// (.html or .xhtml, case-insensitive). A ref with a fragment is not a page.
func IsPage(ref string) bool {
	return pageSuffix.MatchString(ref)
}

// LastSegment returns the part of ref after the final "/".
func LastSegment(ref string) string {
	if i := strings.LastIndexByte(ref, '/'); i >= 0 {
		return ref[i+1:]
	}
	return ref
}

// IsPlainPage reports whether the final path segment of ref is a page with no
// in-page anchor marker.
func IsPlainPage(ref string) bool {
	seg := LastSegment(ref)
	return !strings.Contains(seg, AnchorMarker) && IsPage(seg)
}

// StripFragment drops everything from the first "#".
func StripFragment(url string) string {
	if i := strings.Index(url, AnchorMarker); i >= 0 {
		return url[:i]
	}
	return url
}

// Fragment returns the "#..." part of url, or "".
func Fragment(url string) string {
	if i := strings.Index(url, AnchorMarker); i >= 0 {
		return url[i:]
	}
	return ""
}

// PageOf strips an on-page fragment that trails an .html page, leaving other
// refs untouched: "a/b.html#x" -> "a/b.html".
func PageOf(ref string) string {
	return pageAnchorTail.ReplaceAllString(ref, "$1")
}

// HTMLName returns the lowercased page name without extension, used to key
// per-page state: "proj/class_foo.html#abc" -> "class_foo".
func HTMLName(path string) string {
	name := strings.ToLower(LastSegment(StripFragment(path)))
	if i := strings.IndexByte(name, '.'); i >= 0 {
		name = name[:i]
	}
	return name
}

// IsClassOrStructPage reports whether the page carries member declarations
// worth a secondary tree.
func IsClassOrStructPage(path string) bool {
	seg := strings.ToLower(LastSegment(StripFragment(path)))
	return strings.HasPrefix(seg, "class") || strings.HasPrefix(seg, "struct")
}

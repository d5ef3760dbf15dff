package navtree_test

import (
	"testing"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

func TestIsPlainPage(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"class_foo.html", true},
		{"d3/d0a/namespacefoo.HTML", true},
		{"page.xhtml", true},
		{"x.html#a", false},
		{"dir.html/x.htm", false},
		{"a#b/c.html", true}, // only the final segment is checked
		{"index", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := navtree.IsPlainPage(tt.ref); got != tt.want {
			t.Errorf("IsPlainPage(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}

func TestPageHelpers(t *testing.T) {
	if got := navtree.StripFragment("https://h/p/a.html#x"); got != "https://h/p/a.html" {
		t.Errorf("StripFragment = %q", got)
	}
	if got := navtree.Fragment("a.html#x"); got != "#x" {
		t.Errorf("Fragment = %q", got)
	}
	if got := navtree.Fragment("a.html"); got != "" {
		t.Errorf("Fragment without anchor = %q", got)
	}
	if got := navtree.PageOf("d1/a.html#sec"); got != "d1/a.html" {
		t.Errorf("PageOf = %q", got)
	}
	if got := navtree.HTMLName("/proj/Class_Foo.html#abc"); got != "class_foo" {
		t.Errorf("HTMLName = %q", got)
	}
	if !navtree.IsClassOrStructPage("/docs/d9/structbar.html") {
		t.Error("struct page not detected")
	}
	if navtree.IsClassOrStructPage("/docs/files.html") {
		t.Error("files page detected as class page")
	}
}

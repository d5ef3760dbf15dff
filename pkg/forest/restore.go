package forest

import (
	"strings"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// NavType classifies how the current page was reached.
type NavType uint8

const (
	NavNavigate NavType = iota
	NavReload
	NavBackForward
)

// Visit describes the page load a restore decision is made for.
type Visit struct {
	// Fresh is true for the first load of a session.
	Fresh bool
	Type  NavType
	// Path is the path of the current location.
	Path string
	// StoredURL is the previously saved location, if any.
	StoredURL string
	DocRoot   string
}

// ShouldRestore reports whether a fresh landing on the documentation index
// should continue at the previously visited location. It requires a fresh
// session, a plain navigation, a stored URL inside docRoot, a landing path
// ending in "/" or "/index.html", and a forest page contained in the stored
// URL.
func ShouldRestore(forest []*navtree.Node, v Visit) bool {
	if !v.Fresh || len(forest) == 0 || v.Type != NavNavigate {
		return false
	}
	if v.StoredURL == "" || !strings.HasPrefix(v.StoredURL, v.DocRoot) {
		return false
	}
	if !strings.HasSuffix(v.Path, "/") && !strings.HasSuffix(v.Path, "/index.html") {
		return false
	}

	stack := append([]*navtree.Node(nil), forest...)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == nil {
			continue
		}
		if n.HasRef() && navtree.IsPage(*n.Ref) && strings.Contains(v.StoredURL, *n.Ref) {
			return true
		}
		stack = append(stack, n.Children.Nodes()...)
	}
	return false
}

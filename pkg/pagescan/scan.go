// Package pagescan derives the secondary navigation tree of a class or
// struct page from its member declaration tables.
package pagescan

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"golang.org/x/net/html"

	"github.com/vanderheijden86/navplus/pkg/metrics"
	"github.com/vanderheijden86/navplus/pkg/navtree"
)

const (
	// SectionsGroup is the label of the group listing the page's headers.
	SectionsGroup = "Page Sections"
	// TopAnchor is the ref of the page sections group.
	TopAnchor = "#dp-container-top"
	// AnchorPrefix starts every generated header anchor.
	AnchorPrefix = "dp-"

	maxSlug = 80
)

// Remarks explaining an empty or successful scan.
const (
	RemarkNotMemberPage = "not a class or struct page"
	RemarkNoContents    = "no contents container"
	RemarkNoTables      = "no member declaration tables"
	RemarkNoMembers     = "no member signature found"
	RemarkOK            = "generated member signatures"
)

// Anchor is a generated anchor id to be placed before a group header.
type Anchor struct {
	ID    string
	Label string
}

// Result is the secondary tree of one page.
type Result struct {
	Tree    []*navtree.Node
	Anchors []Anchor
	Remarks string
}

// Scan parses a generated page and returns its secondary tree: a "Page
// Sections" group of the page's group headers, followed by one group per
// member declaration table. pagePath decides whether the page is in scope.
func Scan(r io.Reader, pagePath string) (Result, error) {
	defer metrics.Timer(metrics.PageScan)()

	if !navtree.IsClassOrStructPage(pagePath) {
		return Result{Tree: []*navtree.Node{}, Remarks: RemarkNotMemberPage}, nil
	}
	doc, err := html.Parse(r)
	if err != nil {
		return Result{}, fmt.Errorf("parse html: %w", err)
	}
	return ScanDocument(doc), nil
}

// ScanDocument is Scan over an already parsed page.
func ScanDocument(doc *html.Node) Result {
	res := Result{Tree: []*navtree.Node{}}

	contents := findFirst(doc, func(n *html.Node) bool {
		return (isElement(n, "div") && (hasClass(n, "contents") || hasClass(n, "content"))) || isElement(n, "main")
	})
	if contents == nil {
		res.Remarks = RemarkNoContents
		return res
	}
	tables := findAll(contents, func(n *html.Node) bool { return isElement(n, "table") && hasClass(n, "memberdecls") })
	if len(tables) == 0 {
		res.Remarks = RemarkNoTables
		return res
	}
	headers := findAll(contents, func(n *html.Node) bool { return isElement(n, "h2") && hasClass(n, "groupheader") })

	if sections, anchors := pageSections(doc, headers); len(sections) > 0 {
		res.Tree = append(res.Tree, navtree.New(SectionsGroup, navtree.Ref(TopAnchor), navtree.List(sections...)))
		res.Anchors = anchors
	}
	for i, table := range tables {
		var header *html.Node
		if i < len(headers) {
			header = headers[i]
		}
		if group := memberGroup(table, header, i); group != nil {
			res.Tree = append(res.Tree, group)
		}
	}

	if len(res.Tree) > 0 {
		res.Remarks = RemarkOK
	} else {
		res.Remarks = RemarkNoMembers
	}
	return res
}

func memberGroup(table, header *html.Node, idx int) *navtree.Node {
	name := ""
	var ref *string
	if header != nil {
		name = collapse(textContent(header))
		if a := findFirst(header, func(n *html.Node) bool {
			return isElement(n, "a") && (attr(n, "id") != "" || attr(n, "name") != "")
		}); a != nil {
			id := attr(a, "id")
			if id == "" {
				id = attr(a, "name")
			}
			ref = navtree.Ref("#" + id)
		}
	}
	if name == "" {
		name = "Members " + strconv.Itoa(idx+1)
	}

	seenHref := map[string]bool{}
	seenName := map[string]bool{}
	entries := []*navtree.Node{}
	links := findAll(table, func(n *html.Node) bool {
		return isElement(n, "a") && strings.HasPrefix(attr(n, "href"), "#")
	})
	for _, a := range links {
		if closest(a, nil, func(n *html.Node) bool {
			return (isElement(n, "div") && hasClass(n, "memdoc")) || (isElement(n, "td") && hasClass(n, "mdescRight"))
		}) != nil {
			continue
		}
		href := attr(a, "href")
		if seenHref[href] {
			continue
		}
		row := closest(a, nil, func(n *html.Node) bool { return isElement(n, "tr") })
		if row == nil {
			continue
		}
		tds := findAll(row, func(n *html.Node) bool { return isElement(n, "td") })
		if len(tds) < 2 {
			continue
		}

		label := FormatSignature(trimSpace(collapse(textContent(tds[0])) + " " + collapse(textContent(tds[1]))))
		if strings.HasPrefix(label, "enum") {
			label = stripEnumBody(label)
		}
		if seenName[label] {
			continue
		}
		seenHref[href] = true
		seenName[label] = true
		entries = append(entries, navtree.Entry(label, href))
	}
	if len(entries) == 0 {
		return nil
	}
	return navtree.New(name, ref, navtree.List(entries...))
}

// pageSections lists every non-empty group header under a fresh anchor id
// that collides with no "dp-" id already in the document.
func pageSections(doc *html.Node, headers []*html.Node) ([]*navtree.Node, []Anchor) {
	used := map[string]bool{}
	for _, n := range findAll(doc, func(n *html.Node) bool {
		return n.Type == html.ElementNode && strings.HasPrefix(attr(n, "id"), AnchorPrefix)
	}) {
		used[attr(n, "id")] = true
	}

	var (
		sections []*navtree.Node
		anchors  []Anchor
	)
	for _, h := range headers {
		label := collapse(textContent(h))
		if label == "" {
			continue
		}
		id := uniqueID(AnchorPrefix+Slugify(label), used)
		sections = append(sections, navtree.Entry(label, "#"+id))
		anchors = append(anchors, Anchor{ID: id, Label: label})
	}
	return sections, anchors
}

// Slugify turns a header label into an anchor-safe token of at most 80
// characters, or "section" when nothing usable remains.
func Slugify(label string) string {
	s := slug.Make(label)
	if len(s) > maxSlug {
		s = strings.TrimRight(s[:maxSlug], "-")
	}
	if s == "" {
		return "section"
	}
	return s
}

func uniqueID(base string, used map[string]bool) string {
	id := base
	for n := 2; used[id]; n++ {
		id = base + "-" + strconv.Itoa(n)
	}
	used[id] = true
	return id
}

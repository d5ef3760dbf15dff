package forest

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/maruel/natural"

	"github.com/vanderheijden86/navplus/pkg/navtree"
)

// PathSep joins nested labels in audit and dump output.
const PathSep = " → "

// Row is one line of a tabular tree listing. Kids is -1 for nodes without a
// non-empty child list.
type Row struct {
	Name string
	Link string
	Kids int
}

// MissedPages lists the pages of the default tree that no forest entry links
// to. Fragments after ".html" are stripped before comparing. Rows are unique
// by link and in walk order unless sorted is set, in which case they are
// ordered naturally by name.
func MissedPages(forest, defaultTree []*navtree.Node, sorted bool) []Row {
	seen := map[string]bool{}
	navtree.Walk(forest, func(n *navtree.Node, _ int) {
		if n.HasRef() && navtree.IsPage(*n.Ref) {
			seen[*n.Ref] = true
		}
	})

	rows := []Row{}
	var collect func(level []*navtree.Node, parent string)
	collect = func(level []*navtree.Node, parent string) {
		for _, n := range level {
			if n == nil {
				continue
			}
			name := join(parent, n.Label)
			if n.HasRef() {
				link := navtree.PageOf(*n.Ref)
				if navtree.IsPage(link) && !seen[link] {
					seen[link] = true
					rows = append(rows, Row{Name: name, Link: link, Kids: -1})
				}
			}
			collect(n.Children.Nodes(), name)
		}
	}
	collect(defaultTree, "")

	if sorted {
		sort.SliceStable(rows, func(i, j int) bool { return natural.Less(rows[i].Name, rows[j].Name) })
	}
	return rows
}

// TableRows flattens a tree into rows, parents before their children.
func TableRows(tree []*navtree.Node) []Row {
	rows := []Row{}
	var flatten func(level []*navtree.Node, parent string)
	flatten = func(level []*navtree.Node, parent string) {
		for _, n := range level {
			if n == nil {
				continue
			}
			name := join(parent, n.Label)
			if kids := n.Children.Nodes(); len(kids) > 0 {
				rows = append(rows, Row{Name: name, Link: showRef(n), Kids: len(kids)})
				flatten(kids, name)
				continue
			}
			rows = append(rows, Row{Name: name, Link: showRef(n), Kids: -1})
		}
	}
	flatten(tree, "")
	return rows
}

// DumpTable writes rows as a bordered table.
func DumpTable(w io.Writer, rows []Row) error {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("Name", "Link", "Kids")
	for _, r := range rows {
		kids := "null"
		if r.Kids >= 0 {
			kids = strconv.Itoa(r.Kids)
		}
		t.Row(r.Name, r.Link, kids)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

// DumpGroup writes tree as nested groups, one node per line:
// "name → ref → Kids: N" for lists and "name → ref → null" for leaves.
func DumpGroup(w io.Writer, tree []*navtree.Node) error {
	var b strings.Builder
	var group func(level []*navtree.Node, indent string)
	group = func(level []*navtree.Node, indent string) {
		for _, n := range level {
			if n == nil {
				continue
			}
			b.WriteString(indent + n.Label + PathSep + showRef(n) + PathSep)
			switch n.Children.Kind() {
			case navtree.KindList:
				kids := n.Children.Nodes()
				b.WriteString("Kids: " + strconv.Itoa(len(kids)) + "\n")
				group(kids, indent+"  ")
			case navtree.KindDeferred:
				b.WriteString(n.Children.Token() + "\n")
			case navtree.KindLeaf:
				b.WriteString("null\n")
			}
		}
	}
	group(tree, "")
	_, err := io.WriteString(w, b.String())
	return err
}

func showRef(n *navtree.Node) string {
	if !n.HasRef() {
		return "null"
	}
	return *n.Ref
}

func join(parent, label string) string {
	if parent == "" {
		return label
	}
	return parent + PathSep + label
}

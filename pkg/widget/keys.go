package widget

// Key is a navigation key understood by HandleKey.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
)

func (k Key) String() string {
	switch k {
	case KeyUp:
		return "up"
	case KeyDown:
		return "down"
	case KeyLeft:
		return "left"
	case KeyRight:
		return "right"
	case KeyHome:
		return "home"
	case KeyEnd:
		return "end"
	default:
		return "none"
	}
}

// Result tells the caller what a key did.
type Result struct {
	// Handled is set when the caller must not apply its own handling, such
	// as scrolling the pane.
	Handled bool
	// Navigate is the target to go to, if any.
	Navigate string
}

// HandleKey moves through the focusable rows of a secondary tree. Nothing
// happens, and the key is left to the caller, unless at least two rows are
// focusable and one of them is current. Up and Down stop at the ends.
func (e *Engine) HandleKey(k Key) Result {
	if e.kind != KindSecondary {
		return Result{}
	}
	items := e.VisibleItems()
	if len(items) < 2 || e.current == nil {
		return Result{}
	}
	idx := -1
	for i, it := range items {
		if it == e.current {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Result{}
	}
	cur := items[idx]

	switch k {
	case KeyDown:
		if idx+1 < len(items) {
			return e.activate(items[idx+1])
		}
	case KeyUp:
		if idx > 0 {
			return e.activate(items[idx-1])
		}
	case KeyHome:
		return e.activate(items[0])
	case KeyEnd:
		return e.activate(items[len(items)-1])
	case KeyRight:
		if cur.HasChildren() && !cur.Expanded {
			e.setExpanded(cur, true)
			e.scheduleSave()
		}
	case KeyLeft:
		return e.collapseOrParent(cur)
	default:
		return Result{}
	}
	return Result{Handled: true}
}

// activate behaves like following the item's link: it becomes visited and,
// once the location changes, current.
func (e *Engine) activate(it *Item) Result {
	it.Visited = true
	e.MarkCurrent(it.Href)
	return Result{Handled: true, Navigate: it.Href}
}

func (e *Engine) collapseOrParent(cur *Item) Result {
	if cur.HasChildren() && cur.Expanded {
		e.setExpanded(cur, false)
		e.scheduleSave()
		return Result{Handled: true}
	}
	p := cur.Parent
	if p == nil || !p.HasChildren() || !p.Expanded {
		return Result{Handled: true}
	}
	e.setExpanded(p, false)
	e.scheduleSave()
	if !p.HasHref() {
		return Result{Handled: true}
	}
	e.MarkCurrent(p.Href)
	return Result{Handled: true, Navigate: p.Href}
}

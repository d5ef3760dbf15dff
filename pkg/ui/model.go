// Package ui is the terminal browser for a documentation set: the primary
// navigation tree beside the member tree of the open page.
package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/vanderheijden86/navplus/pkg/forest"
	"github.com/vanderheijden86/navplus/pkg/navtree"
	"github.com/vanderheijden86/navplus/pkg/store"
	"github.com/vanderheijden86/navplus/pkg/widget"
)

// resizeStep is how many columns one resize key press moves a pane edge.
const resizeStep = 5

// PageSource returns the member tree of a page, or nil when it has none.
type PageSource func(ctx context.Context, page string) ([]*navtree.Node, error)

// ReloadMsg delivers a rebuilt forest to a running browser. Indented is the
// builder's decision whether leaf rows need room for an expand marker.
type ReloadMsg struct {
	Forest   navtree.Forest
	Indented bool
}

type pane int

const (
	panePrimary pane = iota
	paneSecondary
)

// Option configures a Model.
type Option func(*Model)

// WithTheme sets the styles.
func WithTheme(t Theme) Option { return func(m *Model) { m.theme = t } }

// WithLayout sets the pane width rules.
func WithLayout(l Layout) Option { return func(m *Model) { m.layout = l } }

// WithKeyMap replaces the key bindings.
func WithKeyMap(k KeyMap) Option { return func(m *Model) { m.keys = k } }

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(m *Model) {
		if log != nil {
			m.log = log
		}
	}
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(m *Model) { m.copy = write }
}

// WithDocRoot sets the prefix of primary hrefs.
func WithDocRoot(root string) Option { return func(m *Model) { m.docRoot = root } }

// WithSaveDebounce sets the debounce of the member trees' state saves.
func WithSaveDebounce(d time.Duration) Option { return func(m *Model) { m.debounce = d } }

// WithIndented sets whether the primary tree reserves marker room on leaf
// rows. It defaults to true.
func WithIndented(indented bool) Option { return func(m *Model) { m.priIndented = indented } }

// WithPaneDefaults sets the pane state used when none is stored.
func WithPaneDefaults(dual bool, pri, sec int) Option {
	return func(m *Model) { m.dual, m.priW, m.secW = dual, pri, sec }
}

// Model is the bubbletea model of the browser.
type Model struct {
	ctx     context.Context
	project *store.Project
	pri     *widget.Engine
	sec     *widget.Engine
	pages   PageSource

	theme    Theme
	layout   Layout
	keys     KeyMap
	log      *zap.Logger
	copy     func(string) error
	docRoot  string
	debounce time.Duration

	width, height int
	priW, secW    int
	dual          bool
	focus         pane
	cursor        int // index into the primary rows
	offset        int // first primary row shown
	priIndented   bool
	secIndented   bool

	page     string
	location string
	status   string
}

// NewModel returns a browser over an already rendered primary engine. Pane
// preferences are read from project.
func NewModel(ctx context.Context, project *store.Project, primary *widget.Engine, pages PageSource, opts ...Option) *Model {
	m := &Model{
		ctx:      ctx,
		project:  project,
		pri:      primary,
		pages:    pages,
		theme:    DefaultTheme(lipgloss.DefaultRenderer()),
		layout:   DefaultLayout(),
		keys:     DefaultKeyMap(),
		log:      zap.NewNop(),
		copy:     clipboard.WriteAll,
		debounce: widget.DefaultSaveDebounce,
		dual:     true,
		priW:     250,
		secW:     250,

		priIndented: true,
	}
	for _, opt := range opts {
		opt(m)
	}
	if project != nil {
		m.dual = project.LoadBool(ctx, store.KeyDualNav, m.dual)
		m.priW = project.LoadInt(ctx, store.KeyPriWidth, m.priW)
		m.secW = project.LoadInt(ctx, store.KeySecWidth, m.secW)
	}
	m.save(store.KeyDualNav, m.dual)
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd { return nil }

// Location returns the href of the open location.
func (m *Model) Location() string { return m.location }

// Open navigates to href: the primary entry for its page becomes current,
// the page's member tree is loaded and the location is remembered.
func (m *Model) Open(href string) error {
	page := strings.TrimPrefix(navtree.StripFragment(href), m.docRoot)
	m.pri.MarkCurrent(href)
	m.syncCursor()

	var err error
	if m.sec == nil || page != m.page {
		err = m.loadSecondary(page)
	}
	if m.sec != nil {
		m.sec.MarkCurrent(href)
	}
	m.setLocation(href)
	m.relayout()
	return err
}

func (m *Model) loadSecondary(page string) error {
	if m.sec != nil {
		if err := m.sec.Flush(m.ctx); err != nil {
			m.log.Warn("saving member tree state", zap.String("page", m.page), zap.Error(err))
		}
		m.sec = nil
	}
	m.page = page
	if m.pages == nil || page == "" {
		return nil
	}
	tree, err := m.pages(m.ctx, page)
	if err != nil {
		return fmt.Errorf("reading %s: %w", page, err)
	}
	if len(tree) == 0 {
		return nil
	}
	sec := widget.New(widget.KindSecondary, m.project,
		widget.WithPageName(page),
		widget.WithDebounce(m.debounce),
		widget.WithLogger(m.log),
		widget.WithViewportHeight(m.treeHeight()))
	if err := sec.Render(m.ctx, tree); err != nil {
		return err
	}
	m.sec = sec
	m.secIndented = forest.NeedsIndentation(tree)
	return nil
}

func (m *Model) setLocation(href string) {
	m.location = href
	m.save(store.KeyPrevURL, href)
}

func (m *Model) save(name string, v any) {
	if m.project == nil {
		return
	}
	if err := m.project.Save(m.ctx, name, v); err != nil {
		m.log.Warn("saving preference", zap.String("key", name), zap.Error(err))
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.relayout()
		return m, nil

	case ReloadMsg:
		if err := m.pri.Render(m.ctx, msg.Forest); err != nil {
			m.status = err.Error()
			return m, nil
		}
		m.priIndented = msg.Indented
		m.pri.MarkCurrent(m.location)
		m.syncCursor()
		m.relayout()
		m.status = "navigation rebuilt"
		return m, nil

	case tea.KeyMsg:
		m.status = ""
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit

	case key.Matches(msg, m.keys.Focus):
		if m.focus == panePrimary && m.secondaryShown() {
			m.focus = paneSecondary
		} else {
			m.focus = panePrimary
		}

	case key.Matches(msg, m.keys.Dual):
		m.dual = !m.dual
		m.save(store.KeyDualNav, m.dual)
		m.relayout()

	case key.Matches(msg, m.keys.Wider):
		m.resize(resizeStep)

	case key.Matches(msg, m.keys.Narrower):
		m.resize(-resizeStep)

	case key.Matches(msg, m.keys.Copy):
		m.copyLink()

	case key.Matches(msg, m.keys.Open):
		m.openSelected()

	case key.Matches(msg, m.keys.Toggle):
		m.toggleSelected()

	default:
		k := m.keys.treeKey(msg)
		if k == widget.KeyNone {
			return nil
		}
		if m.focus == paneSecondary {
			m.moveSecondary(k)
		} else {
			m.movePrimary(k)
		}
	}
	return nil
}

func (m *Model) selected() *widget.Item {
	rows := m.pri.Rows()
	if m.cursor >= 0 && m.cursor < len(rows) {
		return rows[m.cursor]
	}
	return nil
}

func (m *Model) movePrimary(k widget.Key) {
	rows := m.pri.Rows()
	if len(rows) == 0 {
		return
	}
	it := m.selected()
	switch k {
	case widget.KeyUp:
		m.cursor--
	case widget.KeyDown:
		m.cursor++
	case widget.KeyHome:
		m.cursor = 0
	case widget.KeyEnd:
		m.cursor = len(rows) - 1
	case widget.KeyRight:
		if it != nil && it.HasChildren() && !it.Expanded {
			m.toggle(m.pri, it)
		}
	case widget.KeyLeft:
		switch {
		case it == nil:
		case it.HasChildren() && it.Expanded:
			m.toggle(m.pri, it)
		case it.Parent != nil:
			m.cursor = indexOf(m.pri.Rows(), it.Parent)
		}
	}
	m.cursor = max(0, min(m.cursor, len(m.pri.Rows())-1))
	m.ensureVisible()
}

// moveSecondary passes the key to the member tree. Keys it leaves alone
// start navigation at the first entry when nothing is current yet.
func (m *Model) moveSecondary(k widget.Key) {
	r := m.sec.HandleKey(k)
	if !r.Handled && m.sec.Current() == nil && (k == widget.KeyDown || k == widget.KeyHome) {
		if items := m.sec.VisibleItems(); len(items) > 0 {
			m.sec.MarkCurrent(items[0].Href)
			r.Navigate = items[0].Href
		}
	}
	if r.Navigate != "" {
		m.setLocation(m.docRoot + m.page + navtree.Fragment(r.Navigate))
	}
}

func (m *Model) openSelected() {
	if m.focus == paneSecondary {
		if cur := m.sec.Current(); cur != nil {
			href, err := m.sec.ClickLink(cur.ID)
			if err != nil {
				m.report("opening member", cur, err)
				return
			}
			m.setLocation(m.docRoot + m.page + href)
		}
		return
	}
	it := m.selected()
	if it == nil {
		return
	}
	href, err := m.pri.ClickLink(it.ID)
	if err != nil {
		m.report("opening entry", it, err)
		return
	}
	if href == "" {
		m.toggle(m.pri, it)
		m.ensureVisible()
		return
	}
	if err := m.Open(href); err != nil {
		m.status = err.Error()
	}
}

func (m *Model) toggleSelected() {
	var it *widget.Item
	eng := m.pri
	if m.focus == paneSecondary {
		eng, it = m.sec, m.sec.Current()
	} else {
		it = m.selected()
	}
	if it != nil {
		m.toggle(eng, it)
	}
	m.ensureVisible()
}

// toggle flips it through its expand marker.
func (m *Model) toggle(eng *widget.Engine, it *widget.Item) {
	if err := eng.ClickAffordance(it.ID); err != nil {
		m.report("toggling entry", it, err)
	}
}

// report logs a failed tree action and shows it on the status line.
func (m *Model) report(action string, it *widget.Item, err error) {
	m.log.Warn(action, zap.String("id", it.ID), zap.Error(err))
	m.status = action + ": " + err.Error()
}

func (m *Model) copyLink() {
	href := m.location
	if m.focus == panePrimary {
		if it := m.selected(); it != nil {
			href = it.Href
		}
	}
	if href == "" {
		m.status = "nothing to copy"
		return
	}
	if err := m.copy(href); err != nil {
		m.status = "copy failed: " + err.Error()
		return
	}
	m.status = "copied " + href
}

func (m *Model) resize(delta int) {
	if !m.layout.wide(m.width) {
		m.status = fmt.Sprintf("pane widths are fixed below %d columns", m.layout.Breakpoint+1)
		return
	}
	var p, s int
	if m.focus == paneSecondary {
		p, s = m.layout.ResizeSecondary(m.width, m.priW, m.secW, m.secW+delta)
	} else {
		p, s = m.layout.ResizePrimary(m.width, m.priW, m.secW, m.priW+delta, m.secondaryShown())
	}
	m.setWidths(p, s)
}

func (m *Model) setWidths(p, s int) {
	if p != m.priW {
		m.priW = p
		m.save(store.KeyPriWidth, p)
	}
	if s != m.secW {
		m.secW = s
		m.save(store.KeySecWidth, s)
	}
}

func (m *Model) secondaryShown() bool {
	return m.dual && m.sec != nil && len(m.sec.Items()) > 0
}

func (m *Model) relayout() {
	shown := m.secondaryShown()
	if !shown {
		m.focus = panePrimary
	}
	if m.width <= 0 {
		return
	}
	if m.layout.wide(m.width) {
		m.setWidths(m.layout.Clamp(m.width, m.priW, m.secW, shown))
	}
	h := m.treeHeight()
	m.pri.SetViewportHeight(h)
	if m.sec != nil {
		m.sec.SetViewportHeight(h)
	}
	m.ensureVisible()
}

// paneWidths returns the columns given to each pane, zero for a hidden one.
func (m *Model) paneWidths() (int, int) {
	wide := m.layout.wide(m.width)
	if !m.secondaryShown() {
		if wide {
			return min(m.priW, m.width), 0
		}
		return m.width, 0
	}
	if wide {
		return m.priW, m.secW
	}
	return m.layout.Split(m.width, m.priW, m.secW)
}

// treeHeight is the number of rows left for the trees after the header,
// status and help lines.
func (m *Model) treeHeight() int {
	return max(m.height-3, 1)
}

func (m *Model) syncCursor() {
	if cur := m.pri.Current(); cur != nil {
		if i := indexOf(m.pri.Rows(), cur); i >= 0 {
			m.cursor = i
		}
	}
	m.ensureVisible()
}

// ensureVisible scrolls the primary pane just enough to show the cursor.
func (m *Model) ensureVisible() {
	rows := len(m.pri.Rows())
	h := m.treeHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(0, min(m.offset, max(rows-h, 0)))
}

func indexOf(rows []*widget.Item, it *widget.Item) int {
	for i, r := range rows {
		if r == it {
			return i
		}
	}
	return -1
}

// Close stores tree state still waiting for its debounce.
func (m *Model) Close(ctx context.Context) error {
	err := m.pri.Flush(ctx)
	if m.sec != nil {
		err = multierr.Append(err, m.sec.Flush(ctx))
	}
	return err
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width <= 0 {
		return "Loading..."
	}

	title := "navplus"
	if m.page != "" {
		title += " · " + m.page
	}
	header := m.theme.Header.Render(fit(title, max(m.width-2, 0)))

	h := m.treeHeight()
	pw, sw := m.paneWidths()
	panes := []string{m.renderPane(m.pri, pw, h, m.offset, m.focus == panePrimary, true, m.priIndented)}
	if sw > 0 {
		panes = append(panes, m.renderPane(m.sec, sw, h, m.sec.ViewportOffset(), m.focus == paneSecondary, false, m.secIndented))
	}
	if rest := m.width - pw - sw; rest > 1 && m.layout.wide(m.width) {
		panes = append(panes, m.renderContent(rest, h))
	}
	body := lipgloss.JoinHorizontal(lipgloss.Top, panes...)

	status := m.status
	if status == "" {
		status = m.location
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		body,
		m.theme.Status.Render(fit(status, m.width)),
		m.keys.helpLine(m.theme))
}

func (m *Model) renderPane(e *widget.Engine, width, height, offset int, focused, primary, indented bool) string {
	inner := max(width-1, 1)
	rows := e.Rows()
	end := min(offset+height, len(rows))

	lines := make([]string, 0, height)
	for i := offset; i < end; i++ {
		lines = append(lines, m.renderRow(rows[i], inner, primary && focused && i == m.cursor, indented))
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", inner))
	}

	style := m.theme.Pane
	if focused {
		style = m.theme.Focused
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderRow draws one entry. Leaf rows of an indented tree keep the width of
// an expand marker so their labels line up with branch labels.
func (m *Model) renderRow(it *widget.Item, width int, selected, indented bool) string {
	var marker string
	switch {
	case it.HasChildren():
		marker = "▸ "
		if it.Expanded {
			marker = "▾ "
		}
	case indented:
		marker = "  "
	}
	text := fit(strings.Repeat("  ", it.Depth)+marker+it.Label, width)

	style := m.theme.Base
	switch {
	case it.Current:
		style = m.theme.Current
	case !it.HasHref():
		style = m.theme.NoLink
	case it.Visited:
		style = m.theme.Visited
	}
	if selected {
		style = m.theme.Cursor.Inherit(style)
	}
	return style.Render(text)
}

func (m *Model) renderContent(width, height int) string {
	lines := []string{fit(" "+m.page, width)}
	if m.sec != nil {
		if cur := m.sec.Current(); cur != nil {
			lines = append(lines, fit(" "+cur.Label, width))
		}
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return m.theme.NoLink.Render(strings.Join(lines[:height], "\n"))
}

package ui

// Layout holds the dual-pane width rules. Pane widths only adapt on screens
// wider than Breakpoint; narrower screens keep the stored widths untouched.
type Layout struct {
	MinWidth   int
	Gutter     int
	Breakpoint int
}

// DefaultLayout returns the stock limits.
func DefaultLayout() Layout {
	return Layout{MinWidth: 25, Gutter: 100, Breakpoint: 767}
}

func (l Layout) wide(total int) bool { return total > l.Breakpoint }

// Clamp fits the pane widths into total minus the gutter. With both panes
// shown an oversized pair is scaled proportionally, each keeping at least
// MinWidth; a lone primary pane is capped.
func (l Layout) Clamp(total, pri, sec int, dual bool) (int, int) {
	if !l.wide(total) {
		return pri, sec
	}
	maxTotal := total - l.Gutter

	if !dual {
		return min(pri, maxTotal), sec
	}
	if sum := pri + sec; sum > maxTotal && sum > 0 {
		nPri := maxTotal * pri / sum
		nSec := maxTotal - nPri
		if nPri < l.MinWidth {
			nPri = l.MinWidth
			nSec = maxTotal - nPri
		}
		if nSec < l.MinWidth {
			nSec = l.MinWidth
			nPri = maxTotal - nSec
		}
		return nPri, nSec
	}
	return pri, sec
}

// ResizePrimary drags the primary pane to width w. With both panes shown the
// secondary pane gives or takes the difference.
func (l Layout) ResizePrimary(total, pri, sec, w int, dual bool) (int, int) {
	if !l.wide(total) {
		return pri, sec
	}
	maxTotal := total - l.Gutter

	if !dual {
		w = max(l.MinWidth, min(maxTotal, w))
		return l.Clamp(total, w, sec, false)
	}
	w = max(l.MinWidth, min(maxTotal-l.MinWidth, w))
	if w == pri {
		return pri, sec
	}
	nSec := sec
	switch {
	case w < pri:
		nSec = sec + (pri - w)
	case w+sec > maxTotal:
		nSec = maxTotal - w
	case sec > l.MinWidth:
		nSec = max(l.MinWidth, sec-(w-pri))
	}
	return l.Clamp(total, w, nSec, true)
}

// ResizeSecondary drags the secondary pane to width w. Shrinking below
// MinWidth takes the overflow from the primary pane.
func (l Layout) ResizeSecondary(total, pri, sec, w int) (int, int) {
	if !l.wide(total) {
		return pri, sec
	}
	maxTotal := total - l.Gutter

	if w < l.MinWidth {
		over := l.MinWidth - w
		return l.Clamp(total, max(l.MinWidth, pri-over), l.MinWidth, true)
	}
	w = min(w, maxTotal-pri)
	return l.Clamp(total, pri, w, true)
}

// Split divides a narrow screen between the panes in proportion to their
// stored widths, leaving one column for the divider.
func (l Layout) Split(total, pri, sec int) (int, int) {
	avail := total - 1
	if avail <= 0 || pri+sec <= 0 {
		return max(total, 0), 0
	}
	nPri := avail * pri / (pri + sec)
	if avail >= 2*l.MinWidth {
		nPri = max(l.MinWidth, min(avail-l.MinWidth, nPri))
	}
	return nPri, avail - nPri
}

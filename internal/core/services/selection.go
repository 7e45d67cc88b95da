package services

import (
	"math"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/custodia-labs/rewind/internal/core/domain"
	"github.com/custodia-labs/rewind/internal/core/ports/driving"
)

// Ensure SelectionEngine implements the interface.
var _ driving.SelectionService = (*SelectionEngine)(nil)

// sameLineTolerance is the vertical distance, in normalised units, within
// which two nodes are considered to sit on the same visual line.
const sameLineTolerance = 0.02

// SelectionEngine tracks a text selection over the OCR nodes of one frame.
// Endpoints are stored in the order they were set; ranges are normalised
// by reading order when read.
type SelectionEngine struct {
	mu      sync.Mutex
	frameID domain.FrameID
	nodes   []domain.OCRNode
	order   map[string]int
	state   domain.SelectionState
	start   domain.TextPosition
	end     domain.TextPosition
	zoom    *domain.Rect
}

// NewSelectionEngine creates an engine with no nodes.
func NewSelectionEngine() *SelectionEngine {
	return &SelectionEngine{state: domain.SelectionEmpty, order: map[string]int{}}
}

// SetNodes installs the nodes of a newly current frame and clears the
// selection. The zoom region is kept.
func (e *SelectionEngine) SetNodes(frameID domain.FrameID, nodes []domain.OCRNode) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frameID = frameID
	e.nodes = readingOrder(nodes)
	e.order = make(map[string]int, len(e.nodes))
	for i, n := range e.nodes {
		e.order[n.ID] = i
	}
	e.resetLocked()
}

// FrameID returns the frame whose nodes are installed.
func (e *SelectionEngine) FrameID() domain.FrameID {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frameID
}

// Nodes returns the nodes in reading order.
func (e *SelectionEngine) Nodes() []domain.OCRNode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]domain.OCRNode(nil), e.nodes...)
}

// State returns the selection state.
func (e *SelectionEngine) State() domain.SelectionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Endpoints returns the raw selection endpoints in the order they were set.
func (e *SelectionEngine) Endpoints() (domain.TextPosition, domain.TextPosition) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.start, e.end
}

// Reset clears the selection.
func (e *SelectionEngine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.resetLocked()
}

func (e *SelectionEngine) resetLocked() {
	e.state = domain.SelectionEmpty
	e.start = domain.TextPosition{}
	e.end = domain.TextPosition{}
}

// SetZoomRegion restricts selection to nodes intersecting r. A nil region
// removes the restriction. Either way the selection is cleared.
func (e *SelectionEngine) SetZoomRegion(r *domain.Rect) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if r == nil {
		e.zoom = nil
	} else {
		z := *r
		e.zoom = &z
	}
	e.resetLocked()
}

// ZoomRegion returns the active zoom region, if any.
func (e *SelectionEngine) ZoomRegion() (domain.Rect, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.zoom == nil {
		return domain.Rect{}, false
	}
	return *e.zoom, true
}

// HitTest returns the text position under p: the first node in reading
// order containing p, else the node with the nearest centre. The second
// result is false only when there are no nodes.
func (e *SelectionEngine) HitTest(p domain.Point) (domain.TextPosition, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.hitLocked(p)
}

func (e *SelectionEngine) hitLocked(p domain.Point) (domain.TextPosition, bool) {
	if len(e.nodes) == 0 {
		return domain.TextPosition{}, false
	}
	idx := -1
	for i, n := range e.nodes {
		if n.Box.Contains(p) {
			idx = i
			break
		}
	}
	if idx < 0 {
		best := math.Inf(1)
		for i, n := range e.nodes {
			if d := n.Box.Center().Distance(p); d < best {
				idx, best = i, d
			}
		}
	}
	n := e.nodes[idx]
	return domain.TextPosition{NodeID: n.ID, Char: charIndexAt(n, p)}, true
}

func charIndexAt(n domain.OCRNode, p domain.Point) int {
	length := n.RuneLen()
	if n.Box.W <= 0 {
		return 0
	}
	rel := (p.X - n.Box.X) / n.Box.W
	c := int(math.Round(rel * float64(length)))
	return min(max(c, 0), length)
}

// StartDrag begins a drag selection at p.
func (e *SelectionEngine) StartDrag(p domain.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.hitLocked(p)
	if !ok {
		return
	}
	e.start, e.end = pos, pos
	e.state = domain.SelectionDragging
}

// UpdateDrag moves the drag end to p.
func (e *SelectionEngine) UpdateDrag(p domain.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state != domain.SelectionDragging {
		return
	}
	if pos, ok := e.hitLocked(p); ok {
		e.end = pos
	}
}

// EndDrag commits the drag selection.
func (e *SelectionEngine) EndDrag() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state == domain.SelectionDragging {
		e.state = domain.SelectionCommitted
	}
}

// SelectWordAt selects the word under p. A hit on a character that cannot
// start a word selects just that character.
func (e *SelectionEngine) SelectWordAt(p domain.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.hitLocked(p)
	if !ok {
		return
	}
	runes := []rune(e.nodes[e.order[pos.NodeID]].Text)
	if len(runes) == 0 {
		return
	}
	c := min(pos.Char, len(runes)-1)
	from, to := c, c+1
	if isWordStart(runes[c]) {
		for from > 0 && isWordRune(runes[from-1]) {
			from--
		}
		for to < len(runes) && isWordRune(runes[to]) {
			to++
		}
	}
	e.start = domain.TextPosition{NodeID: pos.NodeID, Char: from}
	e.end = domain.TextPosition{NodeID: pos.NodeID, Char: to}
	e.state = domain.SelectionCommitted
}

func isWordStart(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_'
}

func isWordRune(r rune) bool {
	return isWordStart(r) || r == '-'
}

// SelectNodeAt selects the whole text of the node under p.
func (e *SelectionEngine) SelectNodeAt(p domain.Point) {
	e.mu.Lock()
	defer e.mu.Unlock()
	pos, ok := e.hitLocked(p)
	if !ok {
		return
	}
	n := e.nodes[e.order[pos.NodeID]]
	e.start = domain.TextPosition{NodeID: n.ID, Char: 0}
	e.end = domain.TextPosition{NodeID: n.ID, Char: n.RuneLen()}
	e.state = domain.SelectionCommitted
}

// SelectAll selects from the first to the last node in reading order,
// considering only nodes that intersect the zoom region when one is set.
func (e *SelectionEngine) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	var first, last *domain.OCRNode
	for i := range e.nodes {
		n := &e.nodes[i]
		if e.zoom != nil && !n.Box.Intersects(*e.zoom) {
			continue
		}
		if first == nil {
			first = n
		}
		last = n
	}
	if first == nil {
		e.resetLocked()
		return
	}
	e.start = domain.TextPosition{NodeID: first.ID, Char: 0}
	e.end = domain.TextPosition{NodeID: last.ID, Char: last.RuneLen()}
	e.state = domain.SelectionAllSelected
}

// SelectionRange returns the selected character range within a node.
func (e *SelectionEngine) SelectionRange(nodeID string) (domain.CharRange, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rangeLocked(nodeID)
}

func (e *SelectionEngine) rangeLocked(nodeID string) (domain.CharRange, bool) {
	if !e.state.HasRange() {
		return domain.CharRange{}, false
	}
	i, ok := e.order[nodeID]
	if !ok {
		return domain.CharRange{}, false
	}
	si, sok := e.order[e.start.NodeID]
	ei, eok := e.order[e.end.NodeID]
	if !sok || !eok {
		return domain.CharRange{}, false
	}
	s, t := e.start, e.end
	if si > ei || (si == ei && s.Char > t.Char) {
		si, ei = ei, si
		s, t = t, s
	}
	if i < si || i > ei {
		return domain.CharRange{}, false
	}

	n := e.nodes[i]
	r := domain.CharRange{Start: 0, End: n.RuneLen()}
	if i == si {
		r.Start = s.Char
	}
	if i == ei {
		r.End = t.Char
	}
	r = r.Intersect(domain.CharRange{Start: 0, End: n.RuneLen()})
	if e.zoom != nil {
		r = r.Intersect(visibleRange(n, *e.zoom))
	}
	if r.IsEmpty() {
		return domain.CharRange{}, false
	}
	return r, true
}

// visibleRange returns the characters of n whose horizontal extent falls
// inside the zoom region.
func visibleRange(n domain.OCRNode, zoom domain.Rect) domain.CharRange {
	if !n.Box.Intersects(zoom) {
		return domain.CharRange{}
	}
	length := n.RuneLen()
	if n.Box.W <= 0 {
		return domain.CharRange{Start: 0, End: length}
	}
	left := (max(n.Box.X, zoom.X) - n.Box.X) / n.Box.W
	right := (min(n.Box.MaxX(), zoom.MaxX()) - n.Box.X) / n.Box.W
	return domain.CharRange{
		Start: int(math.Floor(left * float64(length))),
		End:   int(math.Ceil(right * float64(length))),
	}
}

// SelectedText returns the selected substrings in reading order, joined by
// spaces.
func (e *SelectionEngine) SelectedText() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var parts []string
	for _, n := range e.nodes {
		r, ok := e.rangeLocked(n.ID)
		if !ok {
			continue
		}
		parts = append(parts, string([]rune(n.Text)[r.Start:r.End]))
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// readingOrder returns nodes sorted top-to-bottom, then left-to-right
// within each visual line.
func readingOrder(nodes []domain.OCRNode) []domain.OCRNode {
	var out []domain.OCRNode
	for _, line := range readingLines(nodes) {
		out = append(out, line...)
	}
	return out
}

// readingLines groups nodes into visual lines. A node joins the current
// line when its top is within sameLineTolerance of the line's first node.
func readingLines(nodes []domain.OCRNode) [][]domain.OCRNode {
	sorted := append([]domain.OCRNode(nil), nodes...)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Box.Y != b.Box.Y {
			return a.Box.Y < b.Box.Y
		}
		if a.Box.X != b.Box.X {
			return a.Box.X < b.Box.X
		}
		return a.ID < b.ID
	})

	var lines [][]domain.OCRNode
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i < len(sorted) && sorted[i].Box.Y-sorted[start].Box.Y <= sameLineTolerance {
			continue
		}
		line := sorted[start:i]
		sort.SliceStable(line, func(a, b int) bool {
			if line[a].Box.X != line[b].Box.X {
				return line[a].Box.X < line[b].Box.X
			}
			return line[a].ID < line[b].ID
		})
		lines = append(lines, line)
		start = i
	}
	return lines
}

// FormatLines renders nodes as text: one line per visual line, nodes on a
// line separated by spaces.
func FormatLines(nodes []domain.OCRNode) string {
	lines := readingLines(nodes)
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		words := make([]string, 0, len(line))
		for _, n := range line {
			words = append(words, n.Text)
		}
		out = append(out, strings.Join(words, " "))
	}
	return strings.Join(out, "\n")
}

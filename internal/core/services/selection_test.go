package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/rewind/internal/core/domain"
)

func node(id, text string, x, y, w, h float64) domain.OCRNode {
	return domain.OCRNode{ID: id, FrameID: "f", Text: text, Box: domain.Rect{X: x, Y: y, W: w, H: h}}
}

// charPoint returns a point over character c of n, slightly right of its
// left edge.
func charPoint(n domain.OCRNode, c float64) domain.Point {
	return domain.Point{
		X: n.Box.X + n.Box.W*(c+0.2)/float64(n.RuneLen()),
		Y: n.Box.Y + n.Box.H/2,
	}
}

// twoLines is a page with "alpha beta" on one line and "gamma" below.
func twoLines() []domain.OCRNode {
	return []domain.OCRNode{
		node("c", "gamma", 0.1, 0.30, 0.25, 0.05),
		node("b", "beta", 0.4, 0.105, 0.2, 0.05),
		node("a", "alpha", 0.1, 0.10, 0.25, 0.05),
	}
}

func nodeIDs(nodes []domain.OCRNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestReadingOrder(t *testing.T) {
	tests := []struct {
		name  string
		nodes []domain.OCRNode
		want  []string
	}{
		{
			name:  "lines top to bottom",
			nodes: twoLines(),
			want:  []string{"a", "b", "c"},
		},
		{
			name: "same line sorted by x despite lower top",
			nodes: []domain.OCRNode{
				node("left", "x", 0.1, 0.215, 0.1, 0.05),
				node("right", "y", 0.5, 0.20, 0.1, 0.05),
			},
			want: []string{"left", "right"},
		},
		{
			name: "outside tolerance starts a new line",
			nodes: []domain.OCRNode{
				node("low", "x", 0.1, 0.25, 0.1, 0.05),
				node("high", "y", 0.5, 0.20, 0.1, 0.05),
			},
			want: []string{"high", "low"},
		},
		{
			name:  "empty",
			nodes: nil,
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, nodeIDs(readingOrder(tt.nodes)))
		})
	}
}

func TestSelectionEngine_HitTest_IndependentOfInputOrder(t *testing.T) {
	// overlapping boxes: the first in reading order wins
	overlap := []domain.OCRNode{
		node("under", "bbbb", 0.2, 0.1, 0.4, 0.1),
		node("over", "aaaa", 0.1, 0.1, 0.4, 0.1),
	}
	p := domain.Point{X: 0.3, Y: 0.15}

	e1 := NewSelectionEngine()
	e1.SetNodes("f", overlap)
	e2 := NewSelectionEngine()
	e2.SetNodes("f", []domain.OCRNode{overlap[1], overlap[0]})

	pos1, ok1 := e1.HitTest(p)
	pos2, ok2 := e2.HitTest(p)

	require.True(t, ok1)
	require.True(t, ok2)
	assert.Equal(t, pos1, pos2)
	assert.Equal(t, "over", pos1.NodeID)
}

func TestSelectionEngine_HitTest_NearestFallback(t *testing.T) {
	e := NewSelectionEngine()
	e.SetNodes("f", twoLines())

	pos, ok := e.HitTest(domain.Point{X: 0.2, Y: 0.45})

	require.True(t, ok)
	assert.Equal(t, "c", pos.NodeID)
}

func TestSelectionEngine_HitTest_NoNodes(t *testing.T) {
	e := NewSelectionEngine()

	_, ok := e.HitTest(domain.Point{X: 0.5, Y: 0.5})
	assert.False(t, ok)
}

func TestSelectionEngine_DragAcrossNodes(t *testing.T) {
	nodes := twoLines()
	e := NewSelectionEngine()
	e.SetNodes("f", nodes)
	a, c := nodes[2], nodes[0]

	e.StartDrag(charPoint(a, 2))
	assert.Equal(t, domain.SelectionDragging, e.State())
	e.UpdateDrag(charPoint(c, 3))
	e.EndDrag()

	assert.Equal(t, domain.SelectionCommitted, e.State())
	assert.Equal(t, "pha beta gam", e.SelectedText())

	r, ok := e.SelectionRange("b")
	require.True(t, ok)
	assert.Equal(t, domain.CharRange{Start: 0, End: 4}, r)
}

func TestSelectionEngine_DragBackwardsNormalises(t *testing.T) {
	nodes := twoLines()
	e := NewSelectionEngine()
	e.SetNodes("f", nodes)
	a, c := nodes[2], nodes[0]

	e.StartDrag(charPoint(c, 3))
	e.UpdateDrag(charPoint(a, 2))
	e.EndDrag()

	assert.Equal(t, "pha beta gam", e.SelectedText())
	start, end := e.Endpoints()
	assert.Equal(t, "c", start.NodeID, "endpoints keep their raw order")
	assert.Equal(t, "a", end.NodeID)
}

func TestSelectionEngine_DragWithinNodeBackwards(t *testing.T) {
	n := node("n", "abcdef", 0.1, 0.1, 0.6, 0.05)
	e := NewSelectionEngine()
	e.SetNodes("f", []domain.OCRNode{n})

	e.StartDrag(charPoint(n, 4))
	e.UpdateDrag(charPoint(n, 1))
	e.EndDrag()

	r, ok := e.SelectionRange("n")
	require.True(t, ok)
	assert.Equal(t, domain.CharRange{Start: 1, End: 4}, r)
	assert.Equal(t, "bcd", e.SelectedText())
}

func TestSelectionEngine_SelectWordAt_Hyphen(t *testing.T) {
	n := node("n", "hello-world", 0.1, 0.1, 0.55, 0.05)
	e := NewSelectionEngine()
	e.SetNodes("f", []domain.OCRNode{n})

	e.SelectWordAt(charPoint(n, 5))

	r, ok := e.SelectionRange("n")
	require.True(t, ok)
	assert.Equal(t, domain.CharRange{Start: 5, End: 6}, r)
	assert.Equal(t, "-", e.SelectedText())
	assert.Equal(t, domain.SelectionCommitted, e.State())
}

func TestSelectionEngine_SelectWordAt_Expands(t *testing.T) {
	tests := []struct {
		name string
		text string
		char float64
		want string
	}{
		{"hyphenated word", "hello-world", 1, "hello-world"},
		{"underscore joins", "foo bar_baz qux", 5, "bar_baz"},
		{"digits", "v2 build 1234", 10, "1234"},
		{"space selects itself", "foo bar", 3, " "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := node("n", tt.text, 0.0, 0.1, float64(len(tt.text))*0.05, 0.05)
			e := NewSelectionEngine()
			e.SetNodes("f", []domain.OCRNode{n})

			e.SelectWordAt(charPoint(n, tt.char))

			r, ok := e.SelectionRange("n")
			require.True(t, ok)
			assert.Equal(t, tt.want, tt.text[r.Start:r.End])
		})
	}
}

func TestSelectionEngine_SelectNodeAt(t *testing.T) {
	nodes := twoLines()
	e := NewSelectionEngine()
	e.SetNodes("f", nodes)

	e.SelectNodeAt(charPoint(nodes[1], 1))

	assert.Equal(t, "beta", e.SelectedText())
	_, ok := e.SelectionRange("a")
	assert.False(t, ok)
}

func TestSelectionEngine_SelectAll_ConcatenatesAllText(t *testing.T) {
	nodes := []domain.OCRNode{
		node("n3", "third line", 0.1, 0.5, 0.5, 0.05),
		node("n1", "first", 0.1, 0.1, 0.3, 0.05),
		node("n2", "second", 0.5, 0.11, 0.3, 0.05),
		node("n4", "", 0.7, 0.5, 0.1, 0.05),
	}
	e := NewSelectionEngine()
	e.SetNodes("f", nodes)

	e.SelectAll()

	assert.Equal(t, domain.SelectionAllSelected, e.State())
	var got, want strings.Builder
	for _, n := range e.Nodes() {
		want.WriteString(n.Text)
		if r, ok := e.SelectionRange(n.ID); ok {
			got.WriteString(n.Text[r.Start:r.End])
		}
	}
	assert.Equal(t, want.String(), got.String())
	assert.Equal(t, "first second third line", e.SelectedText())
}

func TestSelectionEngine_SelectAll_NoNodes(t *testing.T) {
	e := NewSelectionEngine()

	e.SelectAll()

	assert.Equal(t, domain.SelectionEmpty, e.State())
	assert.Empty(t, e.SelectedText())
}

func TestSelectionEngine_ZoomRegion(t *testing.T) {
	nodes := []domain.OCRNode{
		node("a", "abcdefghij", 0.0, 0.1, 0.5, 0.05),
		node("b", "outside", 0.0, 0.8, 0.5, 0.05),
	}
	e := NewSelectionEngine()
	e.SetNodes("f", nodes)
	e.SelectAll()
	require.Equal(t, domain.SelectionAllSelected, e.State())

	zoom := domain.Rect{X: 0.11, Y: 0.0, W: 0.13, H: 0.3}
	e.SetZoomRegion(&zoom)
	assert.Equal(t, domain.SelectionEmpty, e.State(), "toggling zoom clears the selection")

	e.SelectAll()

	r, ok := e.SelectionRange("a")
	require.True(t, ok)
	assert.Equal(t, domain.CharRange{Start: 2, End: 5}, r)
	_, ok = e.SelectionRange("b")
	assert.False(t, ok)
	assert.Equal(t, "cde", e.SelectedText())

	got, ok := e.ZoomRegion()
	require.True(t, ok)
	assert.Equal(t, zoom, got)

	e.SetZoomRegion(nil)
	_, ok = e.ZoomRegion()
	assert.False(t, ok)
}

func TestSelectionEngine_StateMachine(t *testing.T) {
	nodes := twoLines()
	e := NewSelectionEngine()
	e.SetNodes("f1", nodes)
	assert.Equal(t, domain.SelectionEmpty, e.State())

	// update and end are ignored unless dragging
	e.UpdateDrag(charPoint(nodes[0], 1))
	e.EndDrag()
	assert.Equal(t, domain.SelectionEmpty, e.State())

	e.SelectAll()
	assert.Equal(t, domain.SelectionAllSelected, e.State())

	e.StartDrag(charPoint(nodes[2], 0))
	assert.Equal(t, domain.SelectionDragging, e.State())
	e.EndDrag()
	assert.Equal(t, domain.SelectionCommitted, e.State())

	e.SetNodes("f2", nodes)
	assert.Equal(t, domain.SelectionEmpty, e.State())
	assert.Equal(t, domain.FrameID("f2"), e.FrameID())

	e.SelectAll()
	e.Reset()
	assert.Equal(t, domain.SelectionEmpty, e.State())
	_, ok := e.SelectionRange("a")
	assert.False(t, ok)
}

func TestSelectionEngine_SetNodesKeepsZoom(t *testing.T) {
	e := NewSelectionEngine()
	zoom := domain.Rect{X: 0, Y: 0, W: 0.5, H: 0.5}
	e.SetZoomRegion(&zoom)

	e.SetNodes("f", twoLines())

	_, ok := e.ZoomRegion()
	assert.True(t, ok)
}

func TestFormatLines(t *testing.T) {
	assert.Equal(t, "alpha beta\ngamma", FormatLines(twoLines()))
	assert.Empty(t, FormatLines(nil))
}

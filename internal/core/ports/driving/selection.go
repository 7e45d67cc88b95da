package driving

import "github.com/custodia-labs/rewind/internal/core/domain"

// SelectionService selects text over the OCR nodes of the current frame.
// Points are in normalised frame coordinates.
type SelectionService interface {
	// HitTest returns the node and character under p.
	// Returns false only when the frame has no nodes.
	HitTest(p domain.Point) (domain.TextPosition, bool)

	// StartDrag, UpdateDrag and EndDrag define a drag selection.
	StartDrag(p domain.Point)
	UpdateDrag(p domain.Point)
	EndDrag()

	// SelectWordAt selects the word under p.
	SelectWordAt(p domain.Point)

	// SelectNodeAt selects the whole node under p.
	SelectNodeAt(p domain.Point)

	// SelectAll selects every node, restricted to the zoom region if set.
	SelectAll()

	// SetZoomRegion sets or clears (nil) the zoom region and clears the selection.
	SetZoomRegion(r *domain.Rect)

	// Reset clears the selection.
	Reset()

	// SelectionRange returns the selected characters of a node.
	SelectionRange(nodeID string) (domain.CharRange, bool)

	// SelectedText returns the selected text in reading order.
	SelectedText() string

	// State returns the selection state.
	State() domain.SelectionState

	// Nodes returns the current frame's nodes in reading order.
	Nodes() []domain.OCRNode
}

package domain

// TextPosition addresses a character boundary inside an OCR node.
type TextPosition struct {
	NodeID string
	Char   int
}

// CharRange is a half-open character range [Start, End).
type CharRange struct {
	Start int
	End   int
}

// IsEmpty reports whether the range selects nothing.
func (r CharRange) IsEmpty() bool {
	return r.End <= r.Start
}

// Intersect returns the overlap of two ranges.
func (r CharRange) Intersect(o CharRange) CharRange {
	out := CharRange{Start: max(r.Start, o.Start), End: min(r.End, o.End)}
	if out.End < out.Start {
		out.End = out.Start
	}
	return out
}

// SelectionState is the state of the selection engine.
type SelectionState string

// Selection states.
const (
	SelectionEmpty       SelectionState = "empty"
	SelectionDragging    SelectionState = "dragging"
	SelectionCommitted   SelectionState = "committed"
	SelectionAllSelected SelectionState = "all_selected"
)

// HasRange reports whether the state carries selection endpoints.
func (s SelectionState) HasRange() bool {
	return s != SelectionEmpty
}

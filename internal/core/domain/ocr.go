package domain

import "math"

// Point is a position in normalised frame coordinates ([0,1] on both axes,
// origin top-left).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned box in normalised frame coordinates.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// MaxX returns the right edge.
func (r Rect) MaxX() float64 { return r.X + r.W }

// MaxY returns the bottom edge.
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Center returns the centre point of the box.
func (r Rect) Center() Point {
	return Point{X: r.X + r.W/2, Y: r.Y + r.H/2}
}

// Contains reports whether p lies inside the box, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

// Intersects reports whether two boxes overlap with positive area.
func (r Rect) Intersects(o Rect) bool {
	return r.X < o.MaxX() && o.X < r.MaxX() && r.Y < o.MaxY() && o.Y < r.MaxY()
}

// IsEmpty reports whether the box has no area.
func (r Rect) IsEmpty() bool {
	return r.W <= 0 || r.H <= 0
}

// Distance returns the Euclidean distance between two points.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// OCRNode is one text region extracted from a frame by the OCR step.
type OCRNode struct {
	// ID is the unique identifier for the node.
	ID string `json:"id"`

	// FrameID links the node to its frame.
	FrameID FrameID `json:"frame_id"`

	// Box is the normalised bounding box.
	Box Rect `json:"box"`

	// Text is the recognised string.
	Text string `json:"text"`
}

// RuneLen returns the text length in characters.
func (n OCRNode) RuneLen() int {
	return len([]rune(n.Text))
}

package geometry

import "math"

// Rect is an axis-aligned bounding box in page coordinates. Y grows downwards.
type Rect struct {
	X0 float64 `json:"x0"`
	Y0 float64 `json:"y0"`
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
}

// NewRect builds a Rect and normalizes inverted corners.
func NewRect(x0, y0, x1, y1 float64) Rect {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return Rect{X0: x0, Y0: y0, X1: x1, Y1: y1}
}

func (r Rect) Width() float64   { return r.X1 - r.X0 }
func (r Rect) Height() float64  { return r.Y1 - r.Y0 }
func (r Rect) CenterX() float64 { return (r.X0 + r.X1) / 2 }
func (r Rect) CenterY() float64 { return (r.Y0 + r.Y1) / 2 }

// IsZero reports whether the rectangle was never set.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Union returns the smallest rectangle covering both r and o.
func (r Rect) Union(o Rect) Rect {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	return Rect{
		X0: math.Min(r.X0, o.X0),
		Y0: math.Min(r.Y0, o.Y0),
		X1: math.Max(r.X1, o.X1),
		Y1: math.Max(r.Y1, o.Y1),
	}
}

// Contains reports whether o lies entirely inside r.
func (r Rect) Contains(o Rect) bool {
	return o.X0 >= r.X0 && o.X1 <= r.X1 && o.Y0 >= r.Y0 && o.Y1 <= r.Y1
}

// HorizontalOverlap returns the length of the intersection of [r.X0, r.X1]
// with [minX, maxX]. Disjoint spans yield 0.
func (r Rect) HorizontalOverlap(minX, maxX float64) float64 {
	return SpanOverlap(r.X0, r.X1, minX, maxX)
}

// OverlapRatio is the share of r's width that falls inside [minX, maxX].
// A zero-width rectangle counts as fully overlapping when its x lies inside the span.
func (r Rect) OverlapRatio(minX, maxX float64) float64 {
	w := r.Width()
	if w <= 0 {
		if r.X0 >= minX && r.X0 <= maxX {
			return 1
		}
		return 0
	}
	return r.HorizontalOverlap(minX, maxX) / w
}

// SpanOverlap returns the overlap length of two closed 1-D intervals.
func SpanOverlap(a0, a1, b0, b1 float64) float64 {
	lo := math.Max(a0, b0)
	hi := math.Min(a1, b1)
	if hi <= lo {
		return 0
	}
	return hi - lo
}

package frame

import "math"

// Number is an absolute frame number. Sequences are not necessarily zero
// based or contiguous.
type Number = int64

// Index is a zero-based position within a sequence.
type Index = int64

const (
	// Invalid marks the absence of a frame number.
	Invalid Number = math.MinInt64

	// InvalidIndex marks the absence of a sequence position.
	InvalidIndex Index = -1
)

// Range is an inclusive span of frame numbers with Min <= Max.
type Range struct {
	Min Number
	Max Number
}

// NewRange creates a range, ordering the arguments
func NewRange(a, b Number) Range {
	if a > b {
		a, b = b, a
	}
	return Range{Min: a, Max: b}
}

// SingleRange creates a range holding one frame
func SingleRange(n Number) Range {
	return Range{Min: n, Max: n}
}

// Size returns the number of frames in the range
func (r Range) Size() int64 {
	return r.Max - r.Min + 1
}

// Contains returns true if n lies inside the range
func (r Range) Contains(n Number) bool {
	return n >= r.Min && n <= r.Max
}

// Intersects returns true if the two ranges share at least one frame
func (r Range) Intersects(o Range) bool {
	return r.Min <= o.Max && o.Min <= r.Max
}

// Adjacent returns true if the ranges touch without overlapping
func (r Range) Adjacent(o Range) bool {
	return r.Min == o.Max+1 || r.Max == o.Min-1
}

// Expand returns the smallest range covering both ranges
func (r Range) Expand(o Range) Range {
	return Range{Min: min(r.Min, o.Min), Max: max(r.Max, o.Max)}
}

// Less orders ranges by Min, then Max
func (r Range) Less(o Range) bool {
	if r.Min != o.Min {
		return r.Min < o.Min
	}
	return r.Max < o.Max
}

// String formats the range as "min-max" (or "min" for a single frame)
// using pad digits of zero padding.
func (r Range) String(pad int) string {
	if r.Min == r.Max {
		return FormatNumber(r.Min, pad)
	}
	return FormatNumber(r.Min, pad) + "-" + FormatNumber(r.Max, pad)
}

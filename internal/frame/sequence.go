package frame

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Sequence is a set of frame numbers stored as sorted, non-overlapping,
// non-adjacent ranges plus the zero padding used to format them.
//
// The zero value is an empty, valid-to-use sequence.
type Sequence struct {
	ranges []Range
	pad    int
}

// NewSequence creates a sequence from the given ranges
func NewSequence(pad int, ranges ...Range) Sequence {
	s := Sequence{pad: max(pad, 0)}
	for _, r := range ranges {
		s.Add(r)
	}
	return s
}

// Add merges r into the sequence. Any existing range that overlaps or abuts
// r is folded into it, then the result is inserted at its sorted position.
// The ranges are rebuilt into a new slice, so copies of s are unaffected.
func (s *Sequence) Add(r Range) {
	r = NewRange(r.Min, r.Max)
	out := make([]Range, 0, len(s.ranges)+1)
	for _, e := range s.ranges {
		if r.Intersects(e) || r.Adjacent(e) {
			r = r.Expand(e)
			continue
		}
		out = append(out, e)
	}
	i := 0
	for i < len(out) && out[i].Less(r) {
		i++
	}
	s.ranges = slices.Insert(out, i, r)
}

// Ranges returns a copy of the ranges in ascending order
func (s Sequence) Ranges() []Range {
	return slices.Clone(s.ranges)
}

// Pad returns the zero padding width
func (s Sequence) Pad() int { return s.pad }

// SetPad sets the zero padding width
func (s *Sequence) SetPad(pad int) { s.pad = max(pad, 0) }

// IsValid returns true if the sequence holds at least one frame
func (s Sequence) IsValid() bool {
	return len(s.ranges) > 0
}

// Contains returns true if n is part of the sequence
func (s Sequence) Contains(n Number) bool {
	for _, r := range s.ranges {
		if r.Contains(n) {
			return true
		}
	}
	return false
}

// FrameCount returns the total number of frames
func (s Sequence) FrameCount() int64 {
	var out int64
	for _, r := range s.ranges {
		out += r.Size()
	}
	return out
}

// Frame maps a zero-based index to a frame number. It returns Invalid when
// the index is outside the sequence.
func (s Sequence) Frame(i Index) Number {
	if i < 0 {
		return Invalid
	}
	for _, r := range s.ranges {
		size := r.Size()
		if i < size {
			return r.Min + i
		}
		i -= size
	}
	return Invalid
}

// Index maps a frame number to its zero-based index. It returns
// InvalidIndex when the frame is not in the sequence.
func (s Sequence) Index(n Number) Index {
	var offset Index
	for _, r := range s.ranges {
		if r.Contains(n) {
			return offset + n - r.Min
		}
		offset += r.Size()
	}
	return InvalidIndex
}

// LastIndex returns the index of the last frame, or InvalidIndex when the
// sequence is empty.
func (s Sequence) LastIndex() Index {
	if len(s.ranges) == 0 {
		return InvalidIndex
	}
	return s.FrameCount() - 1
}

// First returns the first frame number, or Invalid when empty
func (s Sequence) First() Number {
	if len(s.ranges) == 0 {
		return Invalid
	}
	return s.ranges[0].Min
}

// Last returns the last frame number, or Invalid when empty
func (s Sequence) Last() Number {
	if len(s.ranges) == 0 {
		return Invalid
	}
	return s.ranges[len(s.ranges)-1].Max
}

// Equal compares ranges and padding
func (s Sequence) Equal(o Sequence) bool {
	return s.pad == o.pad && slices.Equal(s.ranges, o.ranges)
}

// Frames expands the sequence into a list of frame numbers
func (s Sequence) Frames() []Number {
	out := make([]Number, 0, s.FrameCount())
	for _, r := range s.ranges {
		for n := r.Min; n <= r.Max; n++ {
			out = append(out, n)
		}
	}
	return out
}

// FromFrames builds a sequence from a list of frame numbers. Consecutive
// numbers are collapsed into ranges.
func FromFrames(frames []Number) Sequence {
	var s Sequence
	if len(frames) == 0 {
		return s
	}
	start, prev := frames[0], frames[0]
	for _, n := range frames[1:] {
		if n != prev+1 {
			s.Add(NewRange(start, prev))
			start = n
		}
		prev = n
	}
	s.Add(NewRange(start, prev))
	return s
}

// String formats the sequence as comma separated ranges, e.g. "0001-0010,0020"
func (s Sequence) String() string {
	parts := make([]string, len(s.ranges))
	for i, r := range s.ranges {
		parts[i] = r.String(s.pad)
	}
	return strings.Join(parts, ",")
}

// Parse reads the String form. The padding is the widest zero padded
// number found.
func Parse(value string) (Sequence, error) {
	var s Sequence
	value = strings.TrimSpace(value)
	if value == "" {
		return s, nil
	}
	for _, piece := range strings.Split(value, ",") {
		r, pad, err := parseRange(piece)
		if err != nil {
			return Sequence{}, fmt.Errorf("parse sequence %q: %w", value, err)
		}
		s.Add(r)
		s.pad = max(s.pad, pad)
	}
	return s, nil
}

// parseRange reads "a", "a-b", "-a--b" and friends.
func parseRange(piece string) (Range, int, error) {
	piece = strings.TrimSpace(piece)
	minText, rest, err := cutNumber(piece)
	if err != nil {
		return Range{}, 0, err
	}
	pad := padOf(minText)
	lo, err := strconv.ParseInt(minText, 10, 64)
	if err != nil {
		return Range{}, 0, err
	}
	if rest == "" {
		return SingleRange(lo), pad, nil
	}
	if rest[0] != '-' {
		return Range{}, 0, fmt.Errorf("unexpected %q", rest)
	}
	maxText, tail, err := cutNumber(rest[1:])
	if err != nil {
		return Range{}, 0, err
	}
	if tail != "" {
		return Range{}, 0, fmt.Errorf("unexpected %q", tail)
	}
	hi, err := strconv.ParseInt(maxText, 10, 64)
	if err != nil {
		return Range{}, 0, err
	}
	return NewRange(lo, hi), max(pad, padOf(maxText)), nil
}

func cutNumber(s string) (string, string, error) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return "", "", fmt.Errorf("missing number in %q", s)
	}
	return s[:i], s[i:], nil
}

func padOf(text string) int {
	digits := strings.TrimPrefix(text, "-")
	if len(digits) >= 2 && digits[0] == '0' {
		return len(digits)
	}
	return 0
}

// FormatNumber formats n with at least pad digits
func FormatNumber(n Number, pad int) string {
	if n == Invalid {
		return ""
	}
	neg := n < 0
	digits := strconv.FormatUint(absNumber(n), 10)
	if len(digits) < pad {
		digits = strings.Repeat("0", pad-len(digits)) + digits
	}
	if neg {
		return "-" + digits
	}
	return digits
}

func absNumber(n Number) uint64 {
	if n < 0 {
		return uint64(-(n + 1)) + 1
	}
	return uint64(n)
}

// MarshalJSON stores the sequence in its string form
func (s Sequence) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON reads the string form
func (s *Sequence) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err != nil {
		return err
	}
	parsed, err := Parse(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

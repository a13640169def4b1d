package frame

import (
	"encoding/json"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequenceAddMergesAndSorts(t *testing.T) {
	var s Sequence
	s.Add(SingleRange(5))
	s.Add(NewRange(6, 10))
	s.Add(NewRange(1, 3))

	assert.Equal(t, []Range{{1, 3}, {5, 10}}, s.Ranges())
	assert.Equal(t, int64(8), s.FrameCount())
}

func TestSequenceCopiesAreIndependent(t *testing.T) {
	s := NewSequence(0, NewRange(1, 3), NewRange(5, 10))
	c := s
	c.Add(SingleRange(4))

	assert.Equal(t, []Range{{1, 3}, {5, 10}}, s.Ranges())
	assert.Equal(t, []Range{{1, 10}}, c.Ranges())

	c = s
	c.Add(NewRange(20, 30))
	assert.Equal(t, []Range{{1, 3}, {5, 10}}, s.Ranges())
	assert.Equal(t, int64(25), c.FrameCount())
}

func TestSequenceAddBridgesRanges(t *testing.T) {
	s := NewSequence(0, NewRange(1, 3), NewRange(7, 9))
	s.Add(NewRange(4, 6))
	assert.Equal(t, []Range{{1, 9}}, s.Ranges())

	s.Add(NewRange(20, 15))
	assert.Equal(t, []Range{{1, 9}, {15, 20}}, s.Ranges())
}

func TestSequenceRandomAddsStayNormalized(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for round := 0; round < 200; round++ {
		var s Sequence
		want := map[Number]bool{}
		for i := 0; i < 20; i++ {
			a := Number(rng.Intn(100) - 20)
			b := a + Number(rng.Intn(6))
			s.Add(NewRange(a, b))
			for n := a; n <= b; n++ {
				want[n] = true
			}
		}

		ranges := s.Ranges()
		for i := 1; i < len(ranges); i++ {
			prev, cur := ranges[i-1], ranges[i]
			require.LessOrEqual(t, prev.Min, prev.Max)
			require.Less(t, prev.Max+1, cur.Min, "ranges %v and %v touch or overlap", prev, cur)
		}
		require.Equal(t, int64(len(want)), s.FrameCount())

		seen := map[Number]bool{}
		for i := Index(0); i <= s.LastIndex(); i++ {
			n := s.Frame(i)
			require.True(t, want[n])
			require.Equal(t, i, s.Index(n))
			seen[n] = true
		}
		require.Len(t, seen, len(want))
	}
}

func TestSequenceFrameIndexRoundTrip(t *testing.T) {
	s := NewSequence(4, NewRange(-3, 2), NewRange(10, 12), SingleRange(100))
	for _, n := range s.Frames() {
		assert.Equal(t, n, s.Frame(s.Index(n)))
	}
	assert.Equal(t, Invalid, s.Frame(s.FrameCount()))
	assert.Equal(t, Invalid, s.Frame(-1))
	assert.Equal(t, InvalidIndex, s.Index(50))
}

func TestSequenceEmptyAndSingle(t *testing.T) {
	var empty Sequence
	assert.False(t, empty.IsValid())
	assert.Zero(t, empty.FrameCount())
	assert.Equal(t, InvalidIndex, empty.LastIndex())
	assert.Equal(t, Invalid, empty.First())

	single := NewSequence(0, SingleRange(7))
	assert.True(t, single.IsValid())
	assert.Equal(t, Index(0), single.LastIndex())
	assert.Equal(t, Number(7), single.Frame(0))
}

func TestSequenceEqualityIncludesPad(t *testing.T) {
	a := NewSequence(4, NewRange(1, 10))
	b := NewSequence(3, NewRange(1, 10))
	c := NewSequence(4, NewRange(1, 10))

	assert.False(t, a.Equal(b))
	assert.True(t, a.Equal(c))
}

func TestSequenceStringAndParse(t *testing.T) {
	s := NewSequence(4, NewRange(1, 10), SingleRange(20))
	assert.Equal(t, "0001-0010,0020", s.String())

	parsed, err := Parse("0001-0010,0020")
	require.NoError(t, err)
	assert.True(t, s.Equal(parsed))

	neg, err := Parse("-5--2,3")
	require.NoError(t, err)
	assert.Equal(t, []Range{{-5, -2}, {3, 3}}, neg.Ranges())

	_, err = Parse("1-x")
	assert.Error(t, err)
}

func TestFromFrames(t *testing.T) {
	s := FromFrames([]Number{1, 2, 3, 5, 7, 8})
	assert.Equal(t, []Range{{1, 3}, {5, 5}, {7, 8}}, s.Ranges())
	assert.Equal(t, []Number{1, 2, 3, 5, 7, 8}, s.Frames())
	assert.False(t, FromFrames(nil).IsValid())
}

func TestSequenceJSON(t *testing.T) {
	s := NewSequence(3, NewRange(1, 24))
	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"001-024"`, string(data))

	var out Sequence
	require.NoError(t, json.Unmarshal(data, &out))
	assert.True(t, s.Equal(out))
}

func TestFormatNumber(t *testing.T) {
	assert.Equal(t, "0042", FormatNumber(42, 4))
	assert.Equal(t, "-0042", FormatNumber(-42, 4))
	assert.Equal(t, "12345", FormatNumber(12345, 3))
}

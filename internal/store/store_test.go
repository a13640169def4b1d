package store

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

func testInfo() domain.Info {
	return domain.Info{
		FileName: "/shots/a/render.0001.exr",
		Pixel:    domain.PixelInfo{Width: 1920, Height: 1080, Type: domain.PixelRGBA16},
		Sequence: frame.NewSequence(4, frame.NewRange(1, 100)),
		Speed:    domain.Speed2997,
	}
}

func TestInfoStorePersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "djv.db")
	s, err := NewInfoStore(path)
	require.NoError(t, err)

	require.NoError(t, s.SaveInfo("/shots/a/render.0001-0100.exr", testInfo(), 42))
	require.NoError(t, s.SavePosition("/shots/a/render.0001-0100.exr", 57))
	require.NoError(t, s.Close())

	s, err = NewInfoStore(path)
	require.NoError(t, err)
	defer s.Close()

	info, ok := s.GetInfo("/shots/a/render.0001-0100.exr")
	require.True(t, ok)
	assert.Equal(t, 1920, info.Pixel.Width)
	assert.True(t, info.Sequence.Equal(testInfo().Sequence))
	assert.Equal(t, domain.Speed2997, info.Speed)

	n, ok := s.GetPosition("/shots/a/render.0001-0100.exr")
	require.True(t, ok)
	assert.Equal(t, frame.Number(57), n)

	assert.True(t, s.IsValid("/shots/a/render.0001-0100.exr", 42))
	assert.False(t, s.IsValid("/shots/a/render.0001-0100.exr", 43))
	assert.False(t, s.IsValid("/missing", 0))
}

func TestInfoStoreRecent(t *testing.T) {
	s, err := NewInfoStore("")
	require.NoError(t, err)

	for i := 0; i < MaxRecent+3; i++ {
		require.NoError(t, s.AddRecent(fmt.Sprintf("/clip%d", i)))
	}
	require.NoError(t, s.AddRecent("/clip5"))

	recent := s.Recent()
	require.Len(t, recent, MaxRecent)
	assert.Equal(t, "/clip5", recent[0])
	assert.Equal(t, "/clip12", recent[1])
	assert.NotContains(t, recent, "/clip0")
}

func TestInfoStoreInvalidate(t *testing.T) {
	s, err := NewInfoStore(filepath.Join(t.TempDir(), "djv.db"))
	require.NoError(t, err)
	defer s.Close()

	for _, p := range []string{"/a/one.png", "/a/two.png", "/ab/three.png", "/b/four.png"} {
		require.NoError(t, s.SaveInfo(p, testInfo(), 1))
		require.NoError(t, s.SavePosition(p, 1))
	}

	s.InvalidatePath("/b/four.png")
	_, ok := s.GetInfo("/b/four.png")
	assert.False(t, ok)

	s.InvalidateDir("/a/")
	_, ok = s.GetInfo("/a/one.png")
	assert.False(t, ok)
	_, ok = s.GetPosition("/a/two.png")
	assert.False(t, ok)
	_, ok = s.GetInfo("/ab/three.png")
	assert.True(t, ok)

	require.NoError(t, s.AddRecent("/ab/three.png"))
	s.InvalidateAll()
	_, ok = s.GetInfo("/ab/three.png")
	assert.False(t, ok)
	assert.Empty(t, s.Recent())

	// buckets are usable after a wipe
	require.NoError(t, s.SavePosition("/c.png", 3))
}

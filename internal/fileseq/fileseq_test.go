package fileseq

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		path                    string
		dir, base, number, ext string
	}{
		{"/shots/render.0001.exr", "/shots/", "render.", "0001", ".exr"},
		{"render.1-10.exr", "", "render.", "1-10", ".exr"},
		{"render.-001.exr", "", "render.", "-001", ".exr"},
		{"shot-0001.png", "", "shot-", "0001", ".png"},
		{"render.0042", "", "render.", "0042", ""},
		{"image.png", "", "image", "", ".png"},
		{"file-.png", "", "file-", "", ".png"},
		{"a/b.1,3.tif", "a/", "b.", "1,3", ".tif"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dir, base, number, ext := Split(tt.path)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.number, number)
			assert.Equal(t, tt.ext, ext)
		})
	}
}

func TestNewSequencePath(t *testing.T) {
	fi := New("/shots/render.0001-0003.exr")
	require.True(t, fi.IsSequence())
	assert.Equal(t, int64(3), fi.Sequence().FrameCount())
	assert.Equal(t, 4, fi.Sequence().Pad())
	assert.Equal(t, "/shots/render.0002.exr", fi.FileName(2))
	assert.Equal(t, "/shots/render.0001.exr", fi.FileName(frame.Invalid))
	assert.Equal(t, "/shots/render.0001-0003.exr", fi.Path())
	assert.Equal(t, "render.0001-0003.exr", fi.Name())
}

func TestNewSingleFile(t *testing.T) {
	fi := New("/shots/render.0007.exr")
	assert.False(t, fi.IsSequence())
	assert.Equal(t, TypeFile, fi.Type())
	// frame number is ignored for single files
	assert.Equal(t, "/shots/render.0007.exr", fi.FileName(99))
}

func TestAddToSequence(t *testing.T) {
	fi := New("render.0998.exr")
	require.True(t, fi.AddToSequence(New("render.0999.exr")))
	require.True(t, fi.AddToSequence(New("render.1000.exr")))
	require.True(t, fi.AddToSequence(New("render.1002.exr")))
	assert.False(t, fi.AddToSequence(New("other.1003.exr")))
	assert.False(t, fi.AddToSequence(New("render.1003.png")))

	assert.True(t, fi.IsSequence())
	assert.Equal(t, "0998-1000,1002", fi.Sequence().String())
	assert.Equal(t, "render.1001.exr", fi.FileName(1001))
}

func newTestFs(t *testing.T, names ...string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	for _, n := range names {
		require.NoError(t, afero.WriteFile(fs, filepath.Join("/clips", n), []byte("x"), 0o644))
	}
	require.NoError(t, fs.MkdirAll("/clips/sub.0001", 0o755))
	return fs
}

func TestListGroupsSequences(t *testing.T) {
	fs := newTestFs(t,
		"render.0001.exr", "render.0002.exr", "render.0003.exr", "render.0005.exr",
		"comp.01.png", "notes.txt", ".hidden.0001.exr", "still.tif",
	)
	l := NewLister(fs)

	files, err := l.List("/clips", ListOptions{Sequences: true})
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"comp.01.png", "notes.txt", "render.0001-0003,0005.exr", "still.tif"}, names)

	render := files[2]
	assert.True(t, render.IsSequence())
	assert.Equal(t, int64(4), render.Size)
	assert.False(t, files[0].IsSequence())
}

func TestListWithoutSequencesAndFilter(t *testing.T) {
	fs := newTestFs(t, "render.0001.exr", "render.0002.exr", "still.TIF", "notes.txt")
	l := NewLister(fs)

	files, err := l.List("/clips", ListOptions{Extensions: []string{".exr", ".tif"}})
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		assert.False(t, f.IsSequence())
	}

	_, err = l.List("/missing", ListOptions{})
	assert.Error(t, err)
}

func TestExpand(t *testing.T) {
	fs := newTestFs(t, "render.0001.exr", "render.0002.exr", "render.0003.exr", "single.0001.png")
	l := NewLister(fs)

	fi, err := l.Expand("/clips/render.0002.exr")
	require.NoError(t, err)
	require.True(t, fi.IsSequence())
	assert.Equal(t, "/clips/render.0001-0003.exr", fi.Path())

	fi, err = l.Expand("/clips/single.0001.png")
	require.NoError(t, err)
	assert.False(t, fi.IsSequence())

	_, err = l.Expand("/clips/render.0009.exr")
	assert.Error(t, err)

	fi, err = l.Expand("/clips/render.1-2.exr")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fi.Sequence().FrameCount())
}

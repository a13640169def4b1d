package codec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/fileseq"
)

func writePNG(t *testing.T, fs afero.Fs, name string, img image.Image) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	require.NoError(t, afero.WriteFile(fs, name, buf.Bytes(), 0o644))
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry(afero.NewMemMapFs())

	for _, name := range []string{"a.png", "b.JPG", "c.tif", "d.bmp", "e.gif"} {
		assert.True(t, r.Supports(name), name)
	}
	_, err := r.Decoder("clip.exr")
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
	assert.Contains(t, r.Extensions(), ".tiff")

	r.Register(Format{Name: "Custom", Extensions: []string{"exr"}, New: func(fs afero.Fs) domain.Decoder { return NewStillDecoder(fs) }})
	assert.True(t, r.Supports("clip.exr"))
}

func TestStillDecoderReadsSequence(t *testing.T) {
	fs := afero.NewMemMapFs()
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	writePNG(t, fs, "/clips/shot.0001.png", solid(4, 2, red))
	writePNG(t, fs, "/clips/shot.0002.png", solid(4, 2, blue))

	src := fileseq.New("/clips/shot.0001-0002.png")
	dec, err := NewRegistry(fs).Decoder(src.FileName(1))
	require.NoError(t, err)
	defer dec.Close()

	ctx := context.Background()
	info, err := dec.Open(ctx, src)
	require.NoError(t, err)
	assert.Equal(t, domain.PixelInfo{Width: 4, Height: 2, Type: domain.PixelRGBA8}, info.Pixel)
	assert.Equal(t, int64(2), info.FrameCount())
	assert.Equal(t, domain.DefaultSpeed, info.Speed)

	img, err := dec.Read(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, uint64(4*2*4), img.ByteCount())
	r, g, b, a := img.RGBA(3, 1)
	assert.Equal(t, [4]uint8{0, 0, 255, 255}, [4]uint8{r, g, b, a})

	_, err = dec.Read(ctx, 3)
	assert.ErrorIs(t, err, domain.ErrDecode)
}

func TestStillDecoderGray(t *testing.T) {
	fs := afero.NewMemMapFs()
	gray := image.NewGray(image.Rect(0, 0, 3, 3))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	writePNG(t, fs, "/g.png", gray)

	dec := NewStillDecoder(fs)
	info, err := dec.Open(context.Background(), fileseq.New("/g.png"))
	require.NoError(t, err)
	assert.Equal(t, domain.PixelL8, info.Pixel.Type)

	img, err := dec.Read(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), img.ByteCount())
	r, _, _, a := img.RGBA(1, 1)
	assert.Equal(t, uint8(200), r)
	assert.Equal(t, uint8(255), a)
}

func TestStillDecoderErrors(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/bad.png", []byte("not a png"), 0o644))

	dec := NewStillDecoder(fs)
	_, err := dec.Open(context.Background(), fileseq.New("/missing.png"))
	assert.ErrorIs(t, err, domain.ErrOpen)

	_, err = dec.Open(context.Background(), fileseq.New("/bad.png"))
	assert.ErrorIs(t, err, domain.ErrOpen)

	_, err = dec.Read(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrDecode)

	writePNG(t, fs, "/ok.png", solid(1, 1, color.NRGBA{A: 255}))
	_, err = dec.Open(context.Background(), fileseq.New("/ok.png"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = dec.Read(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)

	require.NoError(t, dec.Close())
	_, err = dec.Read(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrClosed)
}

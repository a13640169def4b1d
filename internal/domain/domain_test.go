package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPixelInfoByteCount(t *testing.T) {
	assert.Equal(t, uint64(1920*1080*4), PixelInfo{1920, 1080, PixelRGBA8}.ByteCount())
	assert.Equal(t, uint64(10*10*4*2), PixelInfo{10, 10, PixelRGBA16}.ByteCount())
	assert.Zero(t, PixelInfo{0, 10, PixelRGB8}.ByteCount())
	assert.Equal(t, "64x32 RGB U8", PixelInfo{64, 32, PixelRGB8}.String())
}

func TestImageRGBA(t *testing.T) {
	img := NewImage(PixelInfo{2, 1, PixelRGB8})
	copy(img.Data, []byte{1, 2, 3, 4, 5, 6})

	r, g, b, a := img.RGBA(1, 0)
	assert.Equal(t, [4]uint8{4, 5, 6, 255}, [4]uint8{r, g, b, a})

	r, g, b, a = img.RGBA(5, 5)
	assert.Equal(t, [4]uint8{0, 0, 0, 0}, [4]uint8{r, g, b, a})
}

func TestSpeed(t *testing.T) {
	assert.Equal(t, Speed23976, SpeedFromFPS(23.976))
	assert.Equal(t, Speed24, SpeedFromFPS(24))
	assert.Equal(t, DefaultSpeed, SpeedFromFPS(0))
	assert.Equal(t, Speed{Num: 7500, Den: 1000}, SpeedFromFPS(7.5))

	assert.Equal(t, 40*time.Millisecond, Speed25.FrameDuration())
	assert.Equal(t, "24", Speed24.String())
	assert.Equal(t, "29.97", Speed2997.String())
}

func TestInfoFrameCount(t *testing.T) {
	assert.Equal(t, int64(1), Info{}.FrameCount())
}

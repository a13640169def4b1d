package domain

import "fmt"

// PixelType describes the channel layout and bit depth of image data
type PixelType int

const (
	PixelNone PixelType = iota
	PixelL8
	PixelLA8
	PixelRGB8
	PixelRGBA8
	PixelL16
	PixelRGBA16
)

// Channels returns the number of channels per pixel
func (p PixelType) Channels() int {
	switch p {
	case PixelL8, PixelL16:
		return 1
	case PixelLA8:
		return 2
	case PixelRGB8:
		return 3
	case PixelRGBA8, PixelRGBA16:
		return 4
	default:
		return 0
	}
}

// BytesPerChannel returns the storage size of one channel
func (p PixelType) BytesPerChannel() int {
	switch p {
	case PixelL16, PixelRGBA16:
		return 2
	case PixelNone:
		return 0
	default:
		return 1
	}
}

// String returns a short name for the pixel type
func (p PixelType) String() string {
	switch p {
	case PixelL8:
		return "L U8"
	case PixelLA8:
		return "LA U8"
	case PixelRGB8:
		return "RGB U8"
	case PixelRGBA8:
		return "RGBA U8"
	case PixelL16:
		return "L U16"
	case PixelRGBA16:
		return "RGBA U16"
	default:
		return "None"
	}
}

// PixelInfo describes the dimensions and layout of decoded pixels
type PixelInfo struct {
	Width  int
	Height int
	Type   PixelType
}

// IsValid returns true if the info describes a non-empty image
func (p PixelInfo) IsValid() bool {
	return p.Width > 0 && p.Height > 0 && p.Type != PixelNone
}

// Stride returns the number of bytes in one scanline
func (p PixelInfo) Stride() int {
	return p.Width * p.Type.Channels() * p.Type.BytesPerChannel()
}

// ByteCount returns the number of bytes needed for the pixel data
func (p PixelInfo) ByteCount() uint64 {
	if !p.IsValid() {
		return 0
	}
	return uint64(p.Stride()) * uint64(p.Height)
}

// String formats the info as "1920x1080 RGBA U8"
func (p PixelInfo) String() string {
	return fmt.Sprintf("%dx%d %s", p.Width, p.Height, p.Type)
}

// Image is a decoded frame. Data is written once by the decoder and must be
// treated as read-only after the image is published to a cache.
type Image struct {
	Info PixelInfo
	Data []byte
}

// NewImage allocates an image with zeroed pixel data
func NewImage(info PixelInfo) *Image {
	return &Image{Info: info, Data: make([]byte, info.ByteCount())}
}

// ByteCount returns the size of the pixel data in bytes
func (i *Image) ByteCount() uint64 {
	if i == nil {
		return 0
	}
	return uint64(len(i.Data))
}

// RGBA returns the 8-bit color of pixel (x, y). 16-bit types are reduced
// to their high byte. Out of range coordinates return zero.
func (i *Image) RGBA(x, y int) (r, g, b, a uint8) {
	info := i.Info
	if x < 0 || y < 0 || x >= info.Width || y >= info.Height {
		return 0, 0, 0, 0
	}
	bpc := info.Type.BytesPerChannel()
	off := y*info.Stride() + x*info.Type.Channels()*bpc
	ch := func(c int) uint8 {
		// high byte first for 16-bit data
		return i.Data[off+c*bpc]
	}
	switch info.Type.Channels() {
	case 1:
		v := ch(0)
		return v, v, v, 255
	case 2:
		v := ch(0)
		return v, v, v, ch(1)
	case 3:
		return ch(0), ch(1), ch(2), 255
	case 4:
		return ch(0), ch(1), ch(2), ch(3)
	}
	return 0, 0, 0, 0
}

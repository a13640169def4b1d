package codec

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/spf13/afero"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"

	"github.com/darbyjohnston/DJV-sub020/internal/domain"
	"github.com/darbyjohnston/DJV-sub020/internal/frame"
)

func builtinFormats() []Format {
	still := func(fs afero.Fs) domain.Decoder { return NewStillDecoder(fs) }
	return []Format{
		{Name: "PNG", Extensions: []string{".png"}, New: still},
		{Name: "JPEG", Extensions: []string{".jpg", ".jpeg", ".jfif"}, New: still},
		{Name: "GIF", Extensions: []string{".gif"}, New: still},
		{Name: "TIFF", Extensions: []string{".tif", ".tiff"}, New: still},
		{Name: "BMP", Extensions: []string{".bmp"}, New: still},
	}
}

// StillDecoder reads single images, or sequences with one image per file,
// through the image package decoders.
type StillDecoder struct {
	fs     afero.Fs
	src    domain.Source
	info   domain.Info
	closed bool
}

// NewStillDecoder creates a decoder reading files from fs
func NewStillDecoder(fs afero.Fs) *StillDecoder {
	return &StillDecoder{fs: fs}
}

// Open reads the header of the first frame
func (d *StillDecoder) Open(ctx context.Context, src domain.Source) (domain.Info, error) {
	if d.closed {
		return domain.Info{}, domain.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return domain.Info{}, err
	}

	seq := src.Sequence()
	first := frame.Invalid
	if seq.IsValid() {
		first = seq.First()
	}
	name := src.FileName(first)

	f, err := d.fs.Open(name)
	if err != nil {
		return domain.Info{}, fmt.Errorf("%s: %w: %v", name, domain.ErrOpen, err)
	}
	defer f.Close()

	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		return domain.Info{}, fmt.Errorf("%s: %w: %v", name, domain.ErrOpen, err)
	}

	d.src = src
	d.info = domain.Info{
		FileName: name,
		Pixel: domain.PixelInfo{
			Width:  cfg.Width,
			Height: cfg.Height,
			Type:   pixelTypeOf(cfg.ColorModel),
		},
		Sequence: seq,
		Speed:    domain.DefaultSpeed,
	}
	return d.info, nil
}

// Read decodes frame n
func (d *StillDecoder) Read(ctx context.Context, n frame.Number) (*domain.Image, error) {
	if d.closed {
		return nil, domain.ErrClosed
	}
	if d.src == nil {
		return nil, fmt.Errorf("read before open: %w", domain.ErrDecode)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := d.src.FileName(n)
	f, err := d.fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, domain.ErrDecode, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, domain.ErrDecode, err)
	}
	// The caller may have moved on while we were decoding
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return convert(img), nil
}

// Close marks the decoder closed
func (d *StillDecoder) Close() error {
	d.closed = true
	return nil
}

func pixelTypeOf(m color.Model) domain.PixelType {
	switch m {
	case color.GrayModel:
		return domain.PixelL8
	case color.Gray16Model:
		return domain.PixelL16
	case color.RGBA64Model, color.NRGBA64Model:
		return domain.PixelRGBA16
	default:
		return domain.PixelRGBA8
	}
}

// convert copies decoded pixels into a domain.Image. Gray images keep one
// channel; everything else becomes straight alpha RGBA.
func convert(img image.Image) *domain.Image {
	b := img.Bounds()
	switch src := img.(type) {
	case *image.Gray:
		out := domain.NewImage(domain.PixelInfo{Width: b.Dx(), Height: b.Dy(), Type: domain.PixelL8})
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()]
			copy(out.Data[y*out.Info.Stride():], row)
		}
		return out
	case *image.Gray16:
		out := domain.NewImage(domain.PixelInfo{Width: b.Dx(), Height: b.Dy(), Type: domain.PixelL16})
		for y := 0; y < b.Dy(); y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*2]
			copy(out.Data[y*out.Info.Stride():], row)
		}
		return out
	case *image.NRGBA64, *image.RGBA64:
		out := domain.NewImage(domain.PixelInfo{Width: b.Dx(), Height: b.Dy(), Type: domain.PixelRGBA16})
		for y := 0; y < b.Dy(); y++ {
			for x := 0; x < b.Dx(); x++ {
				c := color.NRGBA64Model.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA64)
				off := y*out.Info.Stride() + x*8
				putU16(out.Data[off:], c.R)
				putU16(out.Data[off+2:], c.G)
				putU16(out.Data[off+4:], c.B)
				putU16(out.Data[off+6:], c.A)
			}
		}
		return out
	}

	nrgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(nrgba, nrgba.Bounds(), img, b.Min, draw.Src)
	out := domain.NewImage(domain.PixelInfo{Width: b.Dx(), Height: b.Dy(), Type: domain.PixelRGBA8})
	copy(out.Data, nrgba.Pix)
	return out
}

// putU16 writes big endian, matching the high-byte-first layout of Image
func putU16(b []byte, v uint16) {
	b[0] = byte(v >> 8)
	b[1] = byte(v)
}

package texblend

import (
	"fmt"
	"image"
	"image/color"
)

// PixelBuffer is an RGB raster with 8 bits per channel.
// Pix holds interleaved triplets, row-major, Width*3 bytes per row.
type PixelBuffer struct {
	Width  int
	Height int
	Pix    []uint8
}

// NewPixelBuffer allocates a zeroed buffer.
func NewPixelBuffer(width, height int) (*PixelBuffer, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	return &PixelBuffer{
		Width:  width,
		Height: height,
		Pix:    make([]uint8, width*height*channels),
	}, nil
}

// Validate checks dimensions and pixel data length.
func (b *PixelBuffer) Validate() error {
	if b == nil {
		return ErrNilBuffer
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, b.Width, b.Height)
	}
	if len(b.Pix) != b.Width*b.Height*channels {
		return fmt.Errorf("%w: got %d bytes, want %d", ErrBufferSize, len(b.Pix), b.Width*b.Height*channels)
	}
	return nil
}

// Stride returns bytes per row.
func (b *PixelBuffer) Stride() int {
	return b.Width * channels
}

// At returns the pixel at x, y.
func (b *PixelBuffer) At(x, y int) (r, g, bl uint8) {
	i := y*b.Stride() + x*channels
	return b.Pix[i], b.Pix[i+1], b.Pix[i+2]
}

// Set stores the pixel at x, y.
func (b *PixelBuffer) Set(x, y int, r, g, bl uint8) {
	i := y*b.Stride() + x*channels
	b.Pix[i] = r
	b.Pix[i+1] = g
	b.Pix[i+2] = bl
}

// Fill sets every pixel to the same color.
func (b *PixelBuffer) Fill(r, g, bl uint8) {
	for i := 0; i+2 < len(b.Pix); i += channels {
		b.Pix[i] = r
		b.Pix[i+1] = g
		b.Pix[i+2] = bl
	}
}

// Clone returns a deep copy.
func (b *PixelBuffer) Clone() *PixelBuffer {
	return &PixelBuffer{
		Width:  b.Width,
		Height: b.Height,
		Pix:    append([]uint8(nil), b.Pix...),
	}
}

// SameSize reports whether both buffers have equal dimensions.
func (b *PixelBuffer) SameSize(o *PixelBuffer) bool {
	return b.Width == o.Width && b.Height == o.Height
}

// FromImage converts a decoded image to an RGB buffer, alpha is dropped.
func FromImage(img image.Image) *PixelBuffer {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	out := &PixelBuffer{Width: w, Height: h, Pix: make([]uint8, w*h*channels)}

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				out.Set(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.RGBA:
		// Premultiplied values are kept as is, opaque images are unaffected.
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				out.Set(x, y, row[x*4], row[x*4+1], row[x*4+2])
			}
		}
	case *image.Gray:
		for y := 0; y < h; y++ {
			row := src.Pix[y*src.Stride:]
			for x := 0; x < w; x++ {
				v := row[x]
				out.Set(x, y, v, v, v)
			}
		}
	default:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				out.Set(x, y, c.R, c.G, c.B)
			}
		}
	}
	return out
}

// Image returns an opaque NRGBA copy of the buffer.
func (b *PixelBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	for y := 0; y < b.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < b.Width; x++ {
			r, g, bl := b.At(x, y)
			row[x*4] = r
			row[x*4+1] = g
			row[x*4+2] = bl
			row[x*4+3] = 0xFF
		}
	}
	return img
}

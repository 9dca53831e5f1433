// Package imageio decodes files into texblend buffers and encodes results back.
package imageio

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/vearutop/texblend"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Format is an image container format.
type Format string

// Supported formats.
const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	TIFF Format = "tiff"
	BMP  Format = "bmp"
)

// DefaultJPEGQuality is used when quality is not positive.
const DefaultJPEGQuality = 95

var (
	// ErrUnsupportedFormat is returned for unknown file extensions or format names.
	ErrUnsupportedFormat = errors.New("imageio: unsupported format")
	// ErrEmptyData is returned when image data is empty.
	ErrEmptyData = errors.New("imageio: empty data")
)

// FormatFromPath resolves a format by file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return PNG, nil
	case ".jpg", ".jpeg":
		return JPEG, nil
	case ".tif", ".tiff":
		return TIFF, nil
	case ".bmp":
		return BMP, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// Ext returns the canonical file extension for the format.
func (f Format) Ext() string {
	switch f {
	case JPEG:
		return ".jpg"
	case TIFF:
		return ".tif"
	default:
		return "." + string(f)
	}
}

// Decode reads an image and converts it to an RGB buffer.
// PNG, JPEG, TIFF and BMP are recognized by content.
func Decode(r io.Reader) (*texblend.PixelBuffer, Format, error) {
	img, name, err := image.Decode(r)
	if err != nil {
		return nil, "", fmt.Errorf("imageio: decode: %w", err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, "", fmt.Errorf("imageio: decode: %w", texblend.ErrInvalidDimensions)
	}
	return texblend.FromImage(img), Format(name), nil
}

// DecodeBytes decodes an in-memory image.
func DecodeBytes(data []byte) (*texblend.PixelBuffer, Format, error) {
	if len(data) == 0 {
		return nil, "", ErrEmptyData
	}
	return Decode(bytes.NewReader(data))
}

// Load reads and decodes an image file.
func Load(path string) (*texblend.PixelBuffer, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("imageio: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	buf, _, err := Decode(bufio.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return buf, nil
}

// Encode writes buf in the given format, quality only applies to JPEG.
func Encode(w io.Writer, buf *texblend.PixelBuffer, format Format, quality int) error {
	if err := buf.Validate(); err != nil {
		return err
	}
	img := buf.Image()
	switch format {
	case PNG:
		return png.Encode(w, img)
	case JPEG:
		if quality <= 0 {
			quality = DefaultJPEGQuality
		}
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	case TIFF:
		return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
	case BMP:
		return bmp.Encode(w, img)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

// Save encodes buf to path, the format is chosen by extension.
func Save(path string, buf *texblend.PixelBuffer, quality int) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := Encode(&out, buf, format, quality); err != nil {
		return fmt.Errorf("imageio: encode %s: %w", format, err)
	}
	if err := os.WriteFile(filepath.Clean(path), out.Bytes(), 0o644); err != nil {
		return fmt.Errorf("imageio: write file: %w", err)
	}
	return nil
}

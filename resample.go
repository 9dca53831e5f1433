package texblend

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// Resampler stretches a buffer to the requested size.
// Width and height are stretched independently, the image is never cropped.
type Resampler interface {
	Resample(src *PixelBuffer, width, height int) (*PixelBuffer, error)
}

// Interpolation selects the built-in interpolation mode.
type Interpolation int

const (
	// InterpolationNearest is nearest-neighbor sampling.
	InterpolationNearest Interpolation = iota
	// InterpolationBilinear is linear sampling.
	InterpolationBilinear
	// InterpolationBicubic is cubic sampling.
	InterpolationBicubic
	// InterpolationMitchellNetravali is Mitchell-Netravali sampling.
	InterpolationMitchellNetravali
	// InterpolationLanczos2 is Lanczos sampling with a=2.
	InterpolationLanczos2
	// InterpolationLanczos3 is Lanczos sampling with a=3.
	InterpolationLanczos3
)

var interpolationNames = map[string]Interpolation{
	"nearest":  InterpolationNearest,
	"bilinear": InterpolationBilinear,
	"linear":   InterpolationBilinear,
	"bicubic":  InterpolationBicubic,
	"cubic":    InterpolationBicubic,
	"mitchell": InterpolationMitchellNetravali,
	"lanczos2": InterpolationLanczos2,
	"lanczos3": InterpolationLanczos3,
}

func (i Interpolation) String() string {
	switch i {
	case InterpolationNearest:
		return "nearest"
	case InterpolationBilinear:
		return "bilinear"
	case InterpolationBicubic:
		return "bicubic"
	case InterpolationMitchellNetravali:
		return "mitchell"
	case InterpolationLanczos2:
		return "lanczos2"
	case InterpolationLanczos3:
		return "lanczos3"
	default:
		return fmt.Sprintf("interpolation(%d)", int(i))
	}
}

// ParseInterpolation resolves an interpolation name.
func ParseInterpolation(name string) (Interpolation, error) {
	if i, ok := interpolationNames[strings.ToLower(strings.TrimSpace(name))]; ok {
		return i, nil
	}
	return 0, fmt.Errorf("unknown interpolation %q", name)
}

// Resampler backend names.
const (
	BackendKernel = "kernel"
	BackendNFNT   = "nfnt"
	BackendXDraw  = "xdraw"
)

// NewResampler builds a resampler from backend and interpolation names.
// Empty backend selects the built-in kernel resampler, empty interpolation selects bilinear.
func NewResampler(backend, interp string) (Resampler, error) {
	i := InterpolationBilinear
	if interp != "" {
		var err error
		if i, err = ParseInterpolation(interp); err != nil {
			return nil, err
		}
	}
	switch strings.ToLower(backend) {
	case "", BackendKernel:
		return KernelResampler{Interpolation: i}, nil
	case BackendNFNT:
		return NFNTResampler{Interpolation: i}, nil
	case BackendXDraw:
		return NewXDrawResampler(i), nil
	default:
		return nil, fmt.Errorf("unknown resampler backend %q", backend)
	}
}

func checkResample(src *PixelBuffer, width, height int) error {
	if err := src.Validate(); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: target %dx%d", ErrInvalidDimensions, width, height)
	}
	return nil
}

// NFNTResampler resamples with github.com/nfnt/resize.
type NFNTResampler struct {
	Interpolation Interpolation
}

func (r NFNTResampler) interpolationFunction() resize.InterpolationFunction {
	switch r.Interpolation {
	case InterpolationNearest:
		return resize.NearestNeighbor
	case InterpolationBicubic:
		return resize.Bicubic
	case InterpolationMitchellNetravali:
		return resize.MitchellNetravali
	case InterpolationLanczos2:
		return resize.Lanczos2
	case InterpolationLanczos3:
		return resize.Lanczos3
	default:
		return resize.Bilinear
	}
}

// Resample implements Resampler.
func (r NFNTResampler) Resample(src *PixelBuffer, width, height int) (*PixelBuffer, error) {
	if err := checkResample(src, width, height); err != nil {
		return nil, err
	}
	out := resize.Resize(uint(width), uint(height), src.Image(), r.interpolationFunction())
	if out == nil {
		return nil, errors.New("nfnt resize returned no image")
	}
	res := FromImage(out)
	if !(res.Width == width && res.Height == height) {
		return nil, fmt.Errorf("nfnt resize produced %dx%d, want %dx%d", res.Width, res.Height, width, height)
	}
	return res, nil
}

// XDrawResampler resamples with golang.org/x/image/draw scalers.
type XDrawResampler struct {
	Scaler xdraw.Scaler
}

// NewXDrawResampler maps an interpolation to the closest x/image/draw scaler.
func NewXDrawResampler(i Interpolation) XDrawResampler {
	switch i {
	case InterpolationNearest:
		return XDrawResampler{Scaler: xdraw.NearestNeighbor}
	case InterpolationBilinear:
		return XDrawResampler{Scaler: xdraw.BiLinear}
	default:
		return XDrawResampler{Scaler: xdraw.CatmullRom}
	}
}

// Resample implements Resampler.
func (r XDrawResampler) Resample(src *PixelBuffer, width, height int) (*PixelBuffer, error) {
	if err := checkResample(src, width, height); err != nil {
		return nil, err
	}
	scaler := r.Scaler
	if scaler == nil {
		scaler = xdraw.BiLinear
	}
	dst := image.NewNRGBA(image.Rect(0, 0, width, height))
	scaler.Scale(dst, dst.Bounds(), src.Image(), image.Rect(0, 0, src.Width, src.Height), xdraw.Src, nil)
	return FromImage(dst), nil
}

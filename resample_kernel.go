package texblend

import "math"

// KernelResampler is a separable convolution resampler.
// Filter weights are computed per call and not retained.
type KernelResampler struct {
	Interpolation Interpolation
}

type resampleWeights struct {
	coeffs       []float32
	start        []int
	filterLength int
}

type kernelDef struct {
	taps   int
	kernel func(float64) float64
}

func kernelForInterpolation(interp Interpolation) kernelDef {
	switch interp {
	case InterpolationNearest:
		return kernelDef{taps: 2, kernel: nearestKernel}
	case InterpolationBicubic:
		return kernelDef{taps: 4, kernel: cubicKernel}
	case InterpolationMitchellNetravali:
		return kernelDef{taps: 4, kernel: mitchellNetravaliKernel}
	case InterpolationLanczos2:
		return kernelDef{taps: 4, kernel: lanczos2Kernel}
	case InterpolationLanczos3:
		return kernelDef{taps: 6, kernel: lanczos3Kernel}
	default:
		return kernelDef{taps: 2, kernel: linearKernel}
	}
}

// Resample implements Resampler.
func (r KernelResampler) Resample(src *PixelBuffer, width, height int) (*PixelBuffer, error) {
	if err := checkResample(src, width, height); err != nil {
		return nil, err
	}
	if src.Width == width && src.Height == height {
		return src.Clone(), nil
	}
	if r.Interpolation == InterpolationNearest {
		return nearestScale(src, width, height), nil
	}
	plane := resampleRGB(src.Pix, src.Width, src.Height, width, height, kernelForInterpolation(r.Interpolation))
	out := &PixelBuffer{Width: width, Height: height, Pix: make([]uint8, len(plane))}
	for i, v := range plane {
		out.Pix[i] = clampToByte(v)
	}
	return out, nil
}

func nearestScale(src *PixelBuffer, dw, dh int) *PixelBuffer {
	dst := &PixelBuffer{Width: dw, Height: dh, Pix: make([]uint8, dw*dh*channels)}
	for y := 0; y < dh; y++ {
		sy := y * src.Height / dh
		for x := 0; x < dw; x++ {
			sx := x * src.Width / dw
			si := sy*src.Stride() + sx*channels
			copy(dst.Pix[y*dst.Stride()+x*channels:], src.Pix[si:si+channels])
		}
	}
	return dst
}

// resampleRGB runs a horizontal then a vertical pass over interleaved RGB samples.
func resampleRGB(src []uint8, srcW, srcH, dstW, dstH int, def kernelDef) []float32 {
	wx := computeWeights(srcW, dstW, def)
	wy := computeWeights(srcH, dstH, def)

	temp := make([]float32, dstW*srcH*channels)
	for y := 0; y < srcH; y++ {
		row := src[y*srcW*channels:]
		outRow := temp[y*dstW*channels:]
		for x := 0; x < dstW; x++ {
			s := wx.start[x]
			base := x * wx.filterLength
			var r, g, b float32
			for i := 0; i < wx.filterLength; i++ {
				xi := clampIndex(s+i, srcW)
				off := xi * channels
				w := wx.coeffs[base+i]
				r += float32(row[off+0]) * w
				g += float32(row[off+1]) * w
				b += float32(row[off+2]) * w
			}
			outOff := x * channels
			outRow[outOff+0] = r
			outRow[outOff+1] = g
			outRow[outOff+2] = b
		}
	}

	out := make([]float32, dstW*dstH*channels)
	for y := 0; y < dstH; y++ {
		s := wy.start[y]
		base := y * wy.filterLength
		row := out[y*dstW*channels:]
		for x := 0; x < dstW; x++ {
			var r, g, b float32
			for i := 0; i < wy.filterLength; i++ {
				yi := clampIndex(s+i, srcH)
				off := (yi*dstW + x) * channels
				w := wy.coeffs[base+i]
				r += temp[off+0] * w
				g += temp[off+1] * w
				b += temp[off+2] * w
			}
			outOff := x * channels
			row[outOff+0] = r
			row[outOff+1] = g
			row[outOff+2] = b
		}
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

func computeWeights(src, dst int, def kernelDef) resampleWeights {
	scale := float64(src) / float64(dst)
	filterLength := def.taps * int(math.Max(math.Ceil(scale), 1))
	filterFactor := math.Min(1.0/scale, 1.0)
	coeffs := make([]float32, dst*filterLength)
	start := make([]int, dst)
	for y := 0; y < dst; y++ {
		interpX := scale*(float64(y)+0.5) - 0.5
		start[y] = int(math.Floor(interpX)) - filterLength/2 + 1
		interpX -= float64(start[y])
		base := y * filterLength
		var sum float64
		for i := 0; i < filterLength; i++ {
			in := (interpX - float64(i)) * filterFactor
			w := def.kernel(in)
			coeffs[base+i] = float32(w)
			sum += w
		}
		if sum != 0 {
			inv := float32(1.0 / sum)
			for i := 0; i < filterLength; i++ {
				coeffs[base+i] *= inv
			}
		}
	}
	return resampleWeights{coeffs: coeffs, start: start, filterLength: filterLength}
}

func nearestKernel(in float64) float64 {
	if in >= -0.5 && in < 0.5 {
		return 1
	}
	return 0
}

func linearKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return 1 - in
	}
	return 0
}

func cubicKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return in*in*(1.5*in-2.5) + 1.0
	}
	if in <= 2 {
		return in*(in*(2.5-0.5*in)-4.0) + 2.0
	}
	return 0
}

func mitchellNetravaliKernel(in float64) float64 {
	in = math.Abs(in)
	if in <= 1 {
		return (7.0*in*in*in - 12.0*in*in + 5.33333333333) * 0.16666666666
	}
	if in <= 2 {
		return (-2.33333333333*in*in*in + 12.0*in*in - 20.0*in + 10.6666666667) * 0.16666666666
	}
	return 0
}

func sinc(x float64) float64 {
	x = math.Abs(x) * math.Pi
	if x >= 1.220703e-4 {
		return math.Sin(x) / x
	}
	return 1
}

func lanczos2Kernel(in float64) float64 {
	if in > -2 && in < 2 {
		return sinc(in) * sinc(in*0.5)
	}
	return 0
}

func lanczos3Kernel(in float64) float64 {
	if in > -3 && in < 3 {
		return sinc(in) * sinc(in*0.3333333333333333)
	}
	return 0
}

func clampToByte(v float32) uint8 {
	if !(v > 0) {
		return 0
	}
	if v >= maxSample {
		return 255
	}
	return uint8(v + 0.5)
}

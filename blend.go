package texblend

// contribution returns the amount a layer sample p with weight w adds to accumulator value acc.
//
// Multiply, Add and Overlay read the running accumulator, so results depend on layer order.
// Add re-adds the whole accumulator on top of the weighted sample.
func contribution(mode BlendMode, acc, p, w float32) float32 {
	switch mode {
	case Multiply:
		return (p / maxSample) * acc * w
	case Add:
		return acc + p*w
	case Overlay:
		var base float32
		if acc <= overlayPivot {
			base = (2 * acc * p) / maxSample
		} else {
			base = maxSample - (2*(maxSample-acc)*(maxSample-p))/maxSample
		}
		return base * w
	default:
		return p * w
	}
}

// accumulate folds one canvas-sized layer into acc.
func accumulate(acc []float32, pix []uint8, mode BlendMode, w float32) {
	if !mode.Known() {
		mode = Normal
	}
	for i, v := range pix {
		acc[i] += contribution(mode, acc[i], float32(v), w)
	}
}

// normalize divides acc by total weight and stores clamped samples into dst.
// Samples are rounded to the nearest integer rather than truncated, so a mean of 100.5 becomes 101.
func normalize(dst []uint8, acc []float32, totalWeight float64) {
	inv := 1 / totalWeight
	for i, v := range acc {
		dst[i] = clampToByte(float32(float64(v) * inv))
	}
}

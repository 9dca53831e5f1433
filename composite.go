package texblend

import (
	"errors"
	"log/slog"
	"math"
)

// Options controls composition.
type Options struct {
	// Interpolation selects the built-in kernel used to stretch mismatched layers
	// when Resampler is nil.
	Interpolation Interpolation
	// Resampler overrides the built-in kernel resampler.
	Resampler Resampler
	// Logger overrides the package logger.
	Logger *slog.Logger
	// OnSkip is called for every layer skipped during composition.
	OnSkip func(w LayerWarning)
}

// Compositor blends tasks into single images.
// It holds only configuration, a single Compositor may serve concurrent calls on different tasks.
type Compositor struct {
	resampler Resampler
	logger    *slog.Logger
	onSkip    func(w LayerWarning)
}

// NewCompositor creates a compositor, bilinear resampling is used by default.
func NewCompositor(opts ...func(o *Options)) *Compositor {
	opt := Options{
		Interpolation: InterpolationBilinear,
	}
	for _, applyOpt := range opts {
		applyOpt(&opt)
	}

	c := &Compositor{
		resampler: opt.Resampler,
		logger:    opt.Logger,
		onSkip:    opt.OnSkip,
	}
	if c.resampler == nil {
		c.resampler = KernelResampler{Interpolation: opt.Interpolation}
	}
	return c
}

// Blend composites a task with a default compositor configured by opts.
func Blend(task *Task, opts ...func(o *Options)) (*Result, error) {
	return NewCompositor(opts...).Blend(task)
}

func (c *Compositor) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	return Logger()
}

// Blend composites enabled task layers in order.
//
// The first enabled readable layer defines the canvas, other layers are stretched to it.
// Unreadable layers and layers that fail to resample are skipped and reported in Result.Skipped.
// EmptyTask is returned when no layer can define the canvas, NoContribution when the applied
// weights sum to zero.
func (c *Compositor) Blend(task *Task) (*Result, error) {
	if task == nil {
		return nil, newError(EmptyTask, -1, nil, "nil task")
	}
	logger := c.log().With("task", task.label())
	res := &Result{}

	skip := func(i int, l *Layer, err error) {
		w := LayerWarning{Index: i, Name: l.Name, Err: err}
		res.Skipped = append(res.Skipped, w)
		logger.Warn("layer skipped", "layer", i, "name", l.Name, "error", err)
		if c.onSkip != nil {
			c.onSkip(w)
		}
	}

	layers := task.layers
	canvas := -1
	for i, l := range layers {
		if !l.Enabled {
			continue
		}
		if err := l.Readable(); err != nil {
			skip(i, l, newError(UnreadableLayer, i, err, "source buffer"))
			continue
		}
		canvas = i
		break
	}
	if canvas < 0 {
		return nil, newError(EmptyTask, -1, nil, "no enabled readable layer among %d", len(layers))
	}

	canvasBuf := layers[canvas].Source
	width, height := canvasBuf.Width, canvasBuf.Height
	logger.Debug("canvas resolved", "layer", canvas, "width", width, "height", height)

	acc := make([]float32, width*height*channels)
	var totalWeight float64

	for i := canvas; i < len(layers); i++ {
		l := layers[i]
		if !l.Enabled {
			continue
		}
		if math.IsNaN(l.Weight) || math.IsInf(l.Weight, 0) {
			skip(i, l, newError(UnreadableLayer, i, nil, "non-finite weight %v", l.Weight))
			continue
		}
		if l.Weight == 0 {
			continue
		}
		if err := l.Readable(); err != nil {
			skip(i, l, newError(UnreadableLayer, i, err, "source buffer"))
			continue
		}

		src := l.Source
		if !src.SameSize(canvasBuf) {
			resampled, err := c.resampler.Resample(src, width, height)
			if err == nil {
				err = checkCanvas(resampled, width, height)
			}
			if err != nil {
				skip(i, l, newError(ResampleFailure, i, err, "%dx%d to %dx%d", src.Width, src.Height, width, height))
				continue
			}
			logger.Debug("layer resampled", "layer", i, "from_width", src.Width, "from_height", src.Height)
			src = resampled
		}

		accumulate(acc, src.Pix, l.Mode, float32(l.Weight))
		totalWeight += l.Weight
		res.Applied++
		logger.Debug("layer applied", "layer", i, "mode", l.Mode.String(), "weight", l.Weight)
	}

	res.TotalWeight = totalWeight
	if totalWeight == 0 {
		return nil, newError(NoContribution, -1, nil, "total weight %v over %d layers", totalWeight, res.Applied)
	}

	out := &PixelBuffer{Width: width, Height: height, Pix: make([]uint8, len(acc))}
	normalize(out.Pix, acc, totalWeight)
	res.Image = out

	return res, nil
}

func checkCanvas(b *PixelBuffer, width, height int) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Width != width || b.Height != height {
		return errors.New("resampler returned wrong size")
	}
	return nil
}

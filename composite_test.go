package texblend

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solid(t *testing.T, w, h int, v uint8) *PixelBuffer {
	t.Helper()
	b, err := NewPixelBuffer(w, h)
	require.NoError(t, err)
	b.Fill(v, v, v)
	return b
}

func gradient(t *testing.T, w, h int) *PixelBuffer {
	t.Helper()
	b, err := NewPixelBuffer(w, h)
	require.NoError(t, err)
	for i := range b.Pix {
		b.Pix[i] = uint8((i * 37) % 256)
	}
	return b
}

func layer(src *PixelBuffer, w float64, m BlendMode) *Layer {
	return NewLayer("", src).SetWeight(w).SetMode(m)
}

func blendOK(t *testing.T, task *Task) *Result {
	t.Helper()
	res, err := Blend(task)
	require.NoError(t, err)
	require.NotNil(t, res.Image)
	return res
}

func assertUniform(t *testing.T, b *PixelBuffer, want uint8) {
	t.Helper()
	for i, v := range b.Pix {
		if v != want {
			t.Fatalf("sample %d: got %d want %d", i, v, want)
		}
	}
}

func TestBlend_SingleLayerIdentity(t *testing.T) {
	src := gradient(t, 3, 2)
	for _, w := range []float64{1e-10, 0.1, 0.3, 1, 2.5, 7} {
		t.Run(fmt.Sprint(w), func(t *testing.T) {
			res := blendOK(t, NewTask("one", layer(src, w, Normal)))
			assert.Equal(t, src.Pix, res.Image.Pix)
			assert.Equal(t, 3, res.Image.Width)
			assert.Equal(t, 2, res.Image.Height)
			assert.Equal(t, 1, res.Applied)
			assert.InDelta(t, w, res.TotalWeight, 1e-12)
		})
	}
}

func TestBlend_RoundsToNearest(t *testing.T) {
	res := blendOK(t, NewTask("", layer(solid(t, 1, 1, 100), 0.5, Normal), layer(solid(t, 1, 1, 101), 0.5, Normal)))
	assertUniform(t, res.Image, 101)

	res = blendOK(t, NewTask("", layer(solid(t, 1, 1, 100), 3, Normal), layer(solid(t, 1, 1, 101), 1, Normal)))
	assertUniform(t, res.Image, 100)
}

func TestBlend_ZeroWeightExclusion(t *testing.T) {
	a := solid(t, 2, 2, 100)
	b := solid(t, 2, 2, 200)

	for _, m := range BlendModes() {
		t.Run(m.String(), func(t *testing.T) {
			zero := blendOK(t, NewTask("", layer(a, 1, Normal), layer(b, 0, m)))
			disabled := blendOK(t, NewTask("", layer(a, 1, Normal), layer(b, 1, m).SetEnabled(false)))
			assert.Equal(t, disabled.Image.Pix, zero.Image.Pix)
			assert.Equal(t, disabled.TotalWeight, zero.TotalWeight)
			assertUniform(t, zero.Image, 100)
		})
	}
}

func TestBlend_DisabledLayersAreInvisible(t *testing.T) {
	a := gradient(t, 4, 3)
	b := solid(t, 4, 3, 90)
	c := solid(t, 2, 2, 240)

	with := blendOK(t, NewTask("",
		layer(a, 0.7, Normal),
		layer(b, 0.4, Overlay).SetEnabled(false),
		layer(c, 0.2, Add),
	))
	without := blendOK(t, NewTask("",
		layer(a, 0.7, Normal),
		layer(c, 0.2, Add),
	))
	assert.Equal(t, without.Image.Pix, with.Image.Pix)

	// A disabled first layer does not define the canvas.
	res := blendOK(t, NewTask("", layer(c, 1, Normal).SetEnabled(false), layer(a, 1, Normal)))
	assert.Equal(t, 4, res.Image.Width)
	assert.Equal(t, 3, res.Image.Height)
	assert.Equal(t, a.Pix, res.Image.Pix)
}

func TestBlend_OrderSensitivity(t *testing.T) {
	a := solid(t, 2, 1, 200)
	b := solid(t, 2, 1, 50)

	t.Run("add", func(t *testing.T) {
		// acc: 0 -> 200 -> 200+(200+50) = 450, /2.
		ab := blendOK(t, NewTask("", layer(a, 1, Add), layer(b, 1, Add)))
		assertUniform(t, ab.Image, 225)

		// acc: 0 -> 50 -> 50+(50+200) = 300, /2.
		ba := blendOK(t, NewTask("", layer(b, 1, Add), layer(a, 1, Add)))
		assertUniform(t, ba.Image, 150)
	})

	t.Run("overlay", func(t *testing.T) {
		base := solid(t, 2, 1, 100)
		ab := blendOK(t, NewTask("", layer(base, 1, Normal), layer(a, 1, Overlay), layer(b, 1, Overlay)))
		ba := blendOK(t, NewTask("", layer(base, 1, Normal), layer(b, 1, Overlay), layer(a, 1, Overlay)))
		assert.NotEqual(t, ab.Image.Pix, ba.Image.Pix)
	})

	t.Run("multiply on empty accumulator", func(t *testing.T) {
		// Multiply scales the accumulator, starting from zero it stays zero in any order.
		ab := blendOK(t, NewTask("", layer(a, 1, Multiply), layer(b, 1, Multiply)))
		ba := blendOK(t, NewTask("", layer(b, 1, Multiply), layer(a, 1, Multiply)))
		assertUniform(t, ab.Image, 0)
		assertUniform(t, ba.Image, 0)
		assert.Equal(t, 2.0, ab.TotalWeight)
	})
}

func TestBlend_ModeArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		layers func(t *testing.T) []*Layer
		want   uint8
	}{
		{
			name: "normal average",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 100), 1, Normal), layer(solid(t, 1, 1, 200), 3, Normal)}
			},
			want: 175,
		},
		{
			name: "multiply by white keeps accumulator",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 100), 1, Normal), layer(solid(t, 1, 1, 255), 1, Multiply)}
			},
			want: 100, // (100 + 100) / 2
		},
		{
			name: "add re-adds accumulator",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 100), 1, Normal), layer(solid(t, 1, 1, 50), 1, Add)}
			},
			want: 125, // (100 + 100 + 50) / 2
		},
		{
			name: "overlay at pivot takes lower branch",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 127), 1, Normal), layer(solid(t, 1, 1, 0), 1, Overlay)}
			},
			want: 64, // (127 + 0) / 2 rounded, the upper branch would give 63
		},
		{
			name: "unknown mode behaves as normal",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 100), 1, Normal), layer(solid(t, 1, 1, 200), 3, BlendMode(42))}
			},
			want: 175,
		},
		{
			name: "clamped high",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 200), 1, Normal), layer(solid(t, 1, 1, 200), 1, Add)}
			},
			want: 255, // 600 / 2
		},
		{
			name: "clamped low with negative weight",
			layers: func(t *testing.T) []*Layer {
				return []*Layer{layer(solid(t, 1, 1, 50), 1, Normal), layer(solid(t, 1, 1, 250), -0.9, Normal)}
			},
			want: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := blendOK(t, NewTask(tt.name, tt.layers(t)...))
			assertUniform(t, res.Image, tt.want)
		})
	}
}

func TestBlend_RoundTripWhite(t *testing.T) {
	res := blendOK(t, NewTask("white",
		layer(solid(t, 2, 2, 255), 0.5, Normal),
		layer(solid(t, 2, 2, 255), 0.5, Normal),
	))
	assert.Equal(t, 2, res.Image.Width)
	assert.Equal(t, 2, res.Image.Height)
	assertUniform(t, res.Image, 255)
}

func TestBlend_ResizeReconciliation(t *testing.T) {
	t.Run("smaller layer stretched", func(t *testing.T) {
		res := blendOK(t, NewTask("",
			layer(solid(t, 4, 2, 100), 1, Normal),
			layer(solid(t, 2, 1, 200), 1, Normal),
		))
		assert.Equal(t, 4, res.Image.Width)
		assert.Equal(t, 2, res.Image.Height)
		assertUniform(t, res.Image, 150)
	})

	t.Run("larger layer shrunk", func(t *testing.T) {
		res := blendOK(t, NewTask("",
			layer(solid(t, 1, 1, 10), 1, Normal),
			layer(solid(t, 5, 3, 30), 1, Normal),
		))
		assert.Equal(t, 1, res.Image.Width)
		assert.Equal(t, 1, res.Image.Height)
		assertUniform(t, res.Image, 20)
	})

	t.Run("zero weight first layer defines canvas", func(t *testing.T) {
		res := blendOK(t, NewTask("",
			layer(solid(t, 3, 3, 10), 0, Normal),
			layer(solid(t, 6, 1, 30), 1, Normal),
		))
		assert.Equal(t, 3, res.Image.Width)
		assert.Equal(t, 3, res.Image.Height)
		assertUniform(t, res.Image, 30)
	})

	t.Run("custom resampler", func(t *testing.T) {
		calls := 0
		res, err := Blend(NewTask("",
			layer(solid(t, 4, 4, 10), 1, Normal),
			layer(solid(t, 2, 2, 30), 1, Normal),
			layer(solid(t, 4, 4, 50), 1, Normal),
		), func(o *Options) {
			o.Resampler = resamplerFunc(func(src *PixelBuffer, w, h int) (*PixelBuffer, error) {
				calls++
				return KernelResampler{Interpolation: InterpolationNearest}.Resample(src, w, h)
			})
		})
		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		assertUniform(t, res.Image, 30)
	})
}

func nan() float64 { return math.NaN() }

type resamplerFunc func(src *PixelBuffer, w, h int) (*PixelBuffer, error)

func (f resamplerFunc) Resample(src *PixelBuffer, w, h int) (*PixelBuffer, error) { return f(src, w, h) }

func TestBlend_Failures(t *testing.T) {
	tests := []struct {
		name string
		task *Task
		kind ErrorKind
		is   error
	}{
		{name: "nil task", task: nil, kind: EmptyTask, is: ErrEmptyTask},
		{name: "no layers", task: NewTask("empty"), kind: EmptyTask, is: ErrEmptyTask},
		{
			name: "all disabled",
			task: NewTask("", layer(solid(t, 1, 1, 1), 1, Normal).SetEnabled(false)),
			kind: EmptyTask, is: ErrEmptyTask,
		},
		{
			name: "all unreadable",
			task: NewTask("", NewLayer("missing.png", nil), NewLayer("broken", &PixelBuffer{Width: 2, Height: 2})),
			kind: EmptyTask, is: ErrEmptyTask,
		},
		{
			name: "all zero weight",
			task: NewTask("", layer(solid(t, 1, 1, 1), 0, Normal), layer(solid(t, 1, 1, 2), 0, Add)),
			kind: NoContribution, is: ErrNoContribution,
		},
		{
			name: "weights cancel out",
			task: NewTask("", layer(solid(t, 1, 1, 1), 0.5, Normal), layer(solid(t, 1, 1, 2), -0.5, Normal)),
			kind: NoContribution, is: ErrNoContribution,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Blend(tt.task)
			require.Error(t, err)
			assert.Nil(t, res)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.ErrorIs(t, err, tt.is)
		})
	}
}

func TestBlend_SkipAndContinue(t *testing.T) {
	a := solid(t, 2, 2, 60)
	c := solid(t, 2, 2, 120)

	var skipped []LayerWarning
	res, err := Blend(NewTask("skips",
		NewLayer("missing", nil),
		layer(a, 1, Normal),
		NewLayer("short", &PixelBuffer{Width: 2, Height: 2, Pix: []uint8{1, 2, 3}}),
		layer(c, 1, Normal),
	), func(o *Options) {
		o.OnSkip = func(w LayerWarning) { skipped = append(skipped, w) }
	})
	require.NoError(t, err)
	assertUniform(t, res.Image, 90)
	assert.Equal(t, 2, res.Applied)

	require.Len(t, res.Skipped, 2)
	assert.Equal(t, res.Skipped, skipped)
	assert.Equal(t, 0, res.Skipped[0].Index)
	assert.Equal(t, "missing", res.Skipped[0].Name)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrUnreadableLayer)
	assert.ErrorIs(t, res.Skipped[0].Err, ErrNilBuffer)
	assert.Equal(t, 2, res.Skipped[1].Index)
	assert.ErrorIs(t, res.Skipped[1].Err, ErrBufferSize)
}

func TestBlend_ResampleFailureIsSkipped(t *testing.T) {
	failing := resamplerFunc(func(*PixelBuffer, int, int) (*PixelBuffer, error) {
		return nil, errors.New("boom")
	})
	wrongSize := resamplerFunc(func(*PixelBuffer, int, int) (*PixelBuffer, error) {
		return NewPixelBuffer(1, 1)
	})

	for name, r := range map[string]Resampler{"error": failing, "wrong size": wrongSize} {
		t.Run(name, func(t *testing.T) {
			res, err := Blend(NewTask("",
				layer(solid(t, 3, 3, 40), 1, Normal),
				layer(solid(t, 2, 2, 200), 1, Normal),
			), func(o *Options) { o.Resampler = r })
			require.NoError(t, err)
			assertUniform(t, res.Image, 40)
			require.Len(t, res.Skipped, 1)
			assert.Equal(t, ResampleFailure, KindOf(res.Skipped[0].Err))
		})
	}
}

func TestBlend_NonFiniteWeightIsSkipped(t *testing.T) {
	res := blendOK(t, NewTask("",
		layer(solid(t, 1, 1, 80), 1, Normal),
		layer(solid(t, 1, 1, 200), nan(), Normal),
	))
	assertUniform(t, res.Image, 80)
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, UnreadableLayer, KindOf(res.Skipped[0].Err))
}

func TestBlend_IdempotentAndInputsUntouched(t *testing.T) {
	a := gradient(t, 5, 4)
	b := gradient(t, 3, 2)
	origA, origB := a.Clone(), b.Clone()
	task := NewTask("", layer(a, 0.6, Normal), layer(b, 0.3, Overlay), layer(a, 0.1, Multiply))

	c := NewCompositor(func(o *Options) { o.Interpolation = InterpolationLanczos3 })
	first, err := c.Blend(task)
	require.NoError(t, err)
	second, err := c.Blend(task)
	require.NoError(t, err)

	assert.Equal(t, first.Image.Pix, second.Image.Pix)
	assert.Equal(t, origA.Pix, a.Pix)
	assert.Equal(t, origB.Pix, b.Pix)
}

package texblend

import (
	"fmt"
	"strings"
)

// BlendMode selects how a layer combines with the running accumulator.
type BlendMode int

const (
	// Normal adds the weighted layer pixels.
	Normal BlendMode = iota
	// Multiply scales the accumulator by the layer pixels.
	Multiply
	// Add re-adds the accumulator together with the weighted layer pixels.
	Add
	// Overlay applies an overlay curve thresholded on the accumulator.
	Overlay
)

var blendModeNames = [...]string{
	Normal:   "normal",
	Multiply: "multiply",
	Add:      "add",
	Overlay:  "overlay",
}

// BlendModes returns all supported modes in declaration order.
func BlendModes() []BlendMode {
	return []BlendMode{Normal, Multiply, Add, Overlay}
}

func (m BlendMode) String() string {
	if m >= 0 && int(m) < len(blendModeNames) {
		return blendModeNames[m]
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Known reports whether m is one of the supported modes.
func (m BlendMode) Known() bool {
	return m >= Normal && m <= Overlay
}

// LookupBlendMode resolves a mode name case-insensitively.
// Unknown names resolve to Normal with ok set to false.
func LookupBlendMode(name string) (mode BlendMode, ok bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range blendModeNames {
		if n == name {
			return BlendMode(i), true
		}
	}
	return Normal, false
}

// ParseBlendMode is LookupBlendMode without the ok flag.
func ParseBlendMode(name string) BlendMode {
	m, _ := LookupBlendMode(name)
	return m
}

// MarshalText implements encoding.TextMarshaler.
func (m BlendMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler, unknown names map to Normal.
func (m *BlendMode) UnmarshalText(b []byte) error {
	*m = ParseBlendMode(string(b))
	return nil
}

// Layer is one weighted raster contribution to a task.
// Weight is stored as supplied and never clamped.
type Layer struct {
	Name    string
	Source  *PixelBuffer
	Weight  float64
	Mode    BlendMode
	Enabled bool
}

// NewLayer creates an enabled Normal layer with weight 1.
func NewLayer(name string, src *PixelBuffer) *Layer {
	return &Layer{
		Name:    name,
		Source:  src,
		Weight:  defaultWeight,
		Mode:    Normal,
		Enabled: true,
	}
}

// SetWeight sets layer weight.
func (l *Layer) SetWeight(w float64) *Layer {
	l.Weight = w
	return l
}

// SetMode sets layer blend mode.
func (l *Layer) SetMode(m BlendMode) *Layer {
	l.Mode = m
	return l
}

// SetEnabled toggles the layer.
func (l *Layer) SetEnabled(enabled bool) *Layer {
	l.Enabled = enabled
	return l
}

// Readable checks that the layer has a valid source buffer.
func (l *Layer) Readable() error {
	if l.Source == nil {
		return ErrNilBuffer
	}
	return l.Source.Validate()
}

func (l *Layer) String() string {
	state := "on"
	if !l.Enabled {
		state = "off"
	}
	return fmt.Sprintf("%s:%g:%s:%s", l.Name, l.Weight, l.Mode, state)
}

// Task is an ordered, named collection of layers composited into one output.
//
// A task owns its layers, a layer must not be added to more than one task.
// Order matters: Multiply, Add and Overlay blend against the partial result of earlier layers.
type Task struct {
	Name   string
	layers []*Layer
}

// NewTask creates a task with the given layers in order.
func NewTask(name string, layers ...*Layer) *Task {
	t := &Task{Name: name}
	t.Add(layers...)
	return t
}

// Add appends layers, nil layers are ignored.
func (t *Task) Add(layers ...*Layer) {
	for _, l := range layers {
		if l != nil {
			t.layers = append(t.layers, l)
		}
	}
}

// Remove deletes the layer at position i.
func (t *Task) Remove(i int) error {
	if i < 0 || i >= len(t.layers) {
		return fmt.Errorf("%w: %d", ErrLayerIndex, i)
	}
	t.layers = append(t.layers[:i], t.layers[i+1:]...)
	return nil
}

// Move relocates the layer at position from to position to, shifting the others.
func (t *Task) Move(from, to int) error {
	if from < 0 || from >= len(t.layers) {
		return fmt.Errorf("%w: %d", ErrLayerIndex, from)
	}
	if to < 0 || to >= len(t.layers) {
		return fmt.Errorf("%w: %d", ErrLayerIndex, to)
	}
	l := t.layers[from]
	t.layers = append(t.layers[:from], t.layers[from+1:]...)
	t.layers = append(t.layers[:to], append([]*Layer{l}, t.layers[to:]...)...)
	return nil
}

// Layer returns the layer at position i.
func (t *Task) Layer(i int) (*Layer, error) {
	if i < 0 || i >= len(t.layers) {
		return nil, fmt.Errorf("%w: %d", ErrLayerIndex, i)
	}
	return t.layers[i], nil
}

// Layers returns a copy of the ordered layer list.
func (t *Task) Layers() []*Layer {
	return append([]*Layer(nil), t.layers...)
}

// Len returns the number of layers.
func (t *Task) Len() int {
	return len(t.layers)
}

// EnabledCount returns the number of enabled layers.
func (t *Task) EnabledCount() int {
	n := 0
	for _, l := range t.layers {
		if l.Enabled {
			n++
		}
	}
	return n
}

func (t *Task) label() string {
	if t.Name == "" {
		return defaultTaskTag
	}
	return t.Name
}

// LayerWarning records a layer that was skipped during composition.
type LayerWarning struct {
	Index int
	Name  string
	Err   error
}

func (w LayerWarning) String() string {
	return fmt.Sprintf("layer %d (%s) skipped: %v", w.Index, w.Name, w.Err)
}

// Result is a successful composition.
type Result struct {
	Image       *PixelBuffer
	TotalWeight float64
	Applied     int
	Skipped     []LayerWarning
}

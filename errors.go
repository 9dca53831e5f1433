package texblend

import (
	"errors"
	"fmt"
)

// ErrorKind classifies compositing failures.
type ErrorKind int

const (
	// EmptyTask means no enabled and readable layer exists to establish a canvas.
	EmptyTask ErrorKind = iota + 1
	// NoContribution means the total applied weight is zero.
	NoContribution
	// UnreadableLayer means a layer source is missing or corrupt.
	UnreadableLayer
	// ResampleFailure means a layer could not be stretched to the canvas.
	ResampleFailure
)

func (k ErrorKind) String() string {
	switch k {
	case EmptyTask:
		return "empty task"
	case NoContribution:
		return "no contribution"
	case UnreadableLayer:
		return "unreadable layer"
	case ResampleFailure:
		return "resample failure"
	default:
		return fmt.Sprintf("error kind %d", int(k))
	}
}

// Error is a typed compositing error.
// Layer is the index of the offending layer in its task, or -1 for task-level errors.
type Error struct {
	Kind    ErrorKind
	Message string
	Layer   int
	Err     error
}

// Sentinel errors, compare with errors.Is.
var (
	ErrEmptyTask       = &Error{Kind: EmptyTask, Layer: -1}
	ErrNoContribution  = &Error{Kind: NoContribution, Layer: -1}
	ErrUnreadableLayer = &Error{Kind: UnreadableLayer, Layer: -1}
	ErrResampleFailure = &Error{Kind: ResampleFailure, Layer: -1}

	// ErrInvalidDimensions is returned for non-positive buffer sizes.
	ErrInvalidDimensions = errors.New("texblend: invalid dimensions")
	// ErrBufferSize is returned when pixel data does not match buffer dimensions.
	ErrBufferSize = errors.New("texblend: pixel data does not match dimensions")
	// ErrNilBuffer is returned when a layer has no source buffer.
	ErrNilBuffer = errors.New("texblend: nil buffer")
	// ErrLayerIndex is returned for out of range layer positions.
	ErrLayerIndex = errors.New("texblend: layer index out of range")
)

func (e *Error) Error() string {
	msg := "texblend: " + e.Kind.String()
	if e.Layer >= 0 {
		msg += fmt.Sprintf(" (layer %d)", e.Layer)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the ErrorKind carried by err, or 0 if err is not a compositing error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

func newError(kind ErrorKind, layer int, err error, format string, args ...any) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
		Layer:   layer,
		Err:     err,
	}
}

// Package lifecycle gates effect construction on visibility and frame
// readiness, classifies effect errors, and contains per-frame failures.
package lifecycle

import (
	"errors"
	"fmt"
)

// CapabilityError reports a missing graphics feature. It is fatal and must
// not be retried for the same card.
type CapabilityError struct {
	Feature string
	Detail  string
}

func (e *CapabilityError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("missing capability: %s", e.Feature)
	}
	return fmt.Sprintf("missing capability: %s (%s)", e.Feature, e.Detail)
}

// TransientFrameError wraps a single-frame failure, such as a texture
// upload during a source switch. The frame is skipped and the loop goes on.
type TransientFrameError struct {
	Err error
}

func (e *TransientFrameError) Error() string {
	return fmt.Sprintf("transient frame error: %v", e.Err)
}

func (e *TransientFrameError) Unwrap() error { return e.Err }

// InitializationFailure wraps any other construction failure. Resources
// allocated before the failure have already been released.
type InitializationFailure struct {
	Stage string
	Err   error
}

func (e *InitializationFailure) Error() string {
	return fmt.Sprintf("initialization failed at %s: %v", e.Stage, e.Err)
}

func (e *InitializationFailure) Unwrap() error { return e.Err }

// PanicError carries a recovered panic from a frame callback.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in frame: %v", e.Value)
}

// Class is the handling policy for an error.
type Class int

const (
	ClassNone Class = iota
	ClassTransient
	ClassCapability
	ClassFatal
)

func (c Class) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassTransient:
		return "transient"
	case ClassCapability:
		return "capability"
	default:
		return "fatal"
	}
}

// Classify maps err onto a handling policy. A capability error wins over a
// transient wrapper; anything unrecognised is fatal.
func Classify(err error) Class {
	if err == nil {
		return ClassNone
	}
	var capErr *CapabilityError
	if errors.As(err, &capErr) {
		return ClassCapability
	}
	var transient *TransientFrameError
	if errors.As(err, &transient) {
		return ClassTransient
	}
	return ClassFatal
}

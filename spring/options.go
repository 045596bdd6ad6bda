package spring

import "fmt"

// Variant selects which part of the surface reacts to the pointer.
type Variant string

const (
	// VariantWhole deforms the whole plane, pins its corners, bulges it at
	// rest and pushes dragged nodes into the screen.
	VariantWhole Variant = "whole"
	// VariantEdge lets only a band along the border ripple; the center
	// stays still.
	VariantEdge Variant = "edge"
)

// DefaultVideoAspect is assumed when neither the source nor the options
// report a video size.
const DefaultVideoAspect = 16.0 / 9.0

// Options are the tunables of one spring engine. They are copied at
// construction.
type Options struct {
	Variant Variant `yaml:"variant"`

	SegX   int     `yaml:"seg_x"`
	SegY   int     `yaml:"seg_y"`
	PlaneW float64 `yaml:"plane_w"`
	PlaneH float64 `yaml:"plane_h"`

	Elasticity float64 `yaml:"elasticity"`
	Damping    float64 `yaml:"damping"`
	AdjacentK  float64 `yaml:"adjacent_k"`

	MouseStrength float64 `yaml:"mouse_strength"`
	MouseRadius   float64 `yaml:"mouse_radius"`

	AutoWobble float64 `yaml:"auto_wobble"`
	ZBulge     float64 `yaml:"z_bulge"`
	ZDrag      float64 `yaml:"z_drag"`

	EdgeBand float64 `yaml:"edge_band"`
	MaxStep  float64 `yaml:"max_step"` // 0 disables the velocity clamp

	VideoAspect float64 `yaml:"video_aspect"` // 0 = from the frame source
}

// WholeOptions returns the tuning for the whole-surface variant.
func WholeOptions() Options {
	return Options{
		Variant:       VariantWhole,
		SegX:          70,
		SegY:          70,
		PlaneW:        1.6,
		PlaneH:        1.6,
		Elasticity:    0.02,
		Damping:       0.78,
		AdjacentK:     0.1,
		MouseStrength: 0.65,
		MouseRadius:   0.35,
		AutoWobble:    0.0025,
		ZBulge:        0.05,
		ZDrag:         0.12,
	}
}

// EdgeOptions returns the tuning for the edge-only variant.
func EdgeOptions() Options {
	return Options{
		Variant:       VariantEdge,
		SegX:          40,
		SegY:          40,
		PlaneW:        2,
		PlaneH:        2,
		Elasticity:    0.07,
		Damping:       0.82,
		AdjacentK:     0.03,
		MouseStrength: 1.35,
		MouseRadius:   0.45,
		EdgeBand:      0.14,
		MaxStep:       0.05,
	}
}

// Validate reports the first out-of-range tunable.
func (o Options) Validate() error {
	switch o.Variant {
	case VariantWhole, VariantEdge:
	default:
		return fmt.Errorf("unknown variant %q", o.Variant)
	}
	if o.SegX < 1 || o.SegY < 1 {
		return fmt.Errorf("segments must be positive, got %dx%d", o.SegX, o.SegY)
	}
	if o.PlaneW <= 0 || o.PlaneH <= 0 {
		return fmt.Errorf("plane size must be positive, got %vx%v", o.PlaneW, o.PlaneH)
	}
	if o.Damping < 0 || o.Damping >= 1 {
		return fmt.Errorf("damping %v outside [0,1)", o.Damping)
	}
	if o.Elasticity < 0 {
		return fmt.Errorf("elasticity must not be negative, got %v", o.Elasticity)
	}
	if o.MouseRadius <= 0 {
		return fmt.Errorf("mouse_radius must be positive, got %v", o.MouseRadius)
	}
	if o.Variant == VariantEdge && o.EdgeBand <= 0 {
		return fmt.Errorf("edge_band must be positive for the edge variant, got %v", o.EdgeBand)
	}
	if o.MaxStep < 0 {
		return fmt.Errorf("max_step must not be negative, got %v", o.MaxStep)
	}
	return nil
}

package fluid

import "fmt"

// Mode selects the force-injection policy.
type Mode string

const (
	ModeAuto    Mode = "auto"
	ModePointer Mode = "pointer"
	ModeNone    Mode = "none"
)

// MaxSplatsPerFrame caps auto injection. More splats per frame collapse the
// frame rate on weak GPUs.
const MaxSplatsPerFrame = 4

// Options are the tunables of one engine instance. They are copied at
// construction; changing them requires a new Engine.
type Options struct {
	Mode Mode   `yaml:"mode"`
	Seed uint32 `yaml:"seed"` // 0 = derive from the card's sources

	CursorSize      float32 `yaml:"cursor_size"`
	CursorPower     float32 `yaml:"cursor_power"`
	DistortionPower float32 `yaml:"distortion_power"`

	VelocityDissipation float32 `yaml:"velocity_dissipation"`
	DyeDissipation      float32 `yaml:"dye_dissipation"`
	DyeTimeScale        float32 `yaml:"dye_time_scale"` // dye advects over this many velocity steps
	PressureIterations  int     `yaml:"pressure_iterations"`
	TimeStep            float32 `yaml:"time_step"`

	MinSimRes   int     `yaml:"min_sim_res"`
	MaxDPR      float32 `yaml:"max_dpr"`
	MediaAspect float32 `yaml:"media_aspect"` // 0 = from the frame source

	AutoSpeed       float32 `yaml:"auto_speed"`
	AutoScanSpeed   float32 `yaml:"auto_scan_speed"`
	AutoVelocity    float32 `yaml:"auto_velocity"`
	AutoDye         float32 `yaml:"auto_dye"`
	AutoJitter      float32 `yaml:"auto_jitter"`
	SplatsPerFrame  int     `yaml:"splats_per_frame"`
	WarmStartSplats int     `yaml:"warm_start_splats"`
}

// DefaultOptions returns the reference tuning.
func DefaultOptions() Options {
	return Options{
		Mode:                ModeAuto,
		Seed:                1,
		CursorSize:          2,
		CursorPower:         24,
		DistortionPower:     0.25,
		VelocityDissipation: 0.97,
		DyeDissipation:      0.98,
		DyeTimeScale:        8,
		PressureIterations:  16,
		TimeStep:            1.0 / 60.0,
		MinSimRes:           256,
		MaxDPR:              2,
		AutoSpeed:           0.55,
		AutoScanSpeed:       0.22,
		AutoVelocity:        30,
		AutoDye:             22,
		AutoJitter:          0.035,
		SplatsPerFrame:      1,
		WarmStartSplats:     18,
	}
}

// Validate reports the first out-of-range tunable.
func (o Options) Validate() error {
	switch o.Mode {
	case ModeAuto, ModePointer, ModeNone:
	default:
		return fmt.Errorf("unknown mode %q", o.Mode)
	}
	if o.VelocityDissipation < 0 || o.VelocityDissipation > 1 {
		return fmt.Errorf("velocity_dissipation %v outside [0,1]", o.VelocityDissipation)
	}
	if o.DyeDissipation < 0 || o.DyeDissipation > 1 {
		return fmt.Errorf("dye_dissipation %v outside [0,1]", o.DyeDissipation)
	}
	if o.PressureIterations < 0 {
		return fmt.Errorf("pressure_iterations must not be negative, got %d", o.PressureIterations)
	}
	if o.TimeStep <= 0 {
		return fmt.Errorf("time_step must be positive, got %v", o.TimeStep)
	}
	if o.MinSimRes < 1 {
		return fmt.Errorf("min_sim_res must be positive, got %d", o.MinSimRes)
	}
	if o.MaxDPR <= 0 {
		return fmt.Errorf("max_dpr must be positive, got %v", o.MaxDPR)
	}
	if o.SplatsPerFrame > MaxSplatsPerFrame {
		return fmt.Errorf("splats_per_frame %d exceeds %d", o.SplatsPerFrame, MaxSplatsPerFrame)
	}
	if o.WarmStartSplats < 0 {
		return fmt.Errorf("warm_start_splats must not be negative, got %d", o.WarmStartSplats)
	}
	if o.MediaAspect < 0 {
		return fmt.Errorf("media_aspect must not be negative, got %v", o.MediaAspect)
	}
	return nil
}

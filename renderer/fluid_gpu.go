package renderer

import (
	"fmt"
	"image"
	"image/color"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/fluid"
	"github.com/pthm-cable/cardfx/source"
)

// FluidGPU is the raylib fluid.Backend. Every field lives in float render
// targets and every pass is one full-target shader draw.
type FluidGPU struct {
	progs *fluidPrograms
	size  fluid.Size

	velocity   *DoubleTarget
	dye        *DoubleTarget
	pressure   *DoubleTarget
	divergence *FloatTarget
	canvas     rl.RenderTexture2D

	video    *VideoTexture
	released bool
}

// NewFluidGPU checks float rendering support and compiles the solver
// programs. A context without float targets yields a
// *lifecycle.CapabilityError.
func NewFluidGPU() (*FluidGPU, error) {
	if err := FloatCapability(); err != nil {
		return nil, err
	}
	progs, err := loadFluidPrograms()
	if err != nil {
		return nil, err
	}
	return &FluidGPU{progs: progs, video: NewVideoTexture()}, nil
}

// Resize implements fluid.Backend. Partial allocations are released when
// any target fails.
func (g *FluidGPU) Resize(size fluid.Size) (err error) {
	if g.released {
		return fmt.Errorf("fluid backend already released")
	}
	g.releaseTargets()
	defer func() {
		if err != nil {
			g.releaseTargets()
		}
	}()

	if g.velocity, err = NewDoubleTarget(size.SimW, size.SimH); err != nil {
		return err
	}
	if g.dye, err = NewDoubleTarget(size.SimW, size.SimH); err != nil {
		return err
	}
	if g.pressure, err = NewDoubleTarget(size.SimW, size.SimH); err != nil {
		return err
	}
	if g.divergence, err = NewFloatTarget(size.SimW, size.SimH); err != nil {
		return err
	}
	g.canvas = rl.LoadRenderTexture(int32(size.CanvasW), int32(size.CanvasH))
	if !rl.IsRenderTextureValid(g.canvas) {
		return fmt.Errorf("creating %dx%d canvas", size.CanvasW, size.CanvasH)
	}
	g.size = size
	return nil
}

// UploadFrame implements fluid.Backend.
func (g *FluidGPU) UploadFrame(frame source.Frame) error {
	return g.video.Upload(frame)
}

// pass draws one full-target quad into dst with sh bound.
func (g *FluidGPU) pass(dst *FloatTarget, sh rl.Shader, uniforms func()) {
	rl.BeginTextureMode(dst.rt)
	rl.BeginShaderMode(sh)
	uniforms()
	rl.DrawRectangle(0, 0, int32(dst.W), int32(dst.H), rl.White)
	rl.EndShaderMode()
	rl.EndTextureMode()
}

func (g *FluidGPU) resolution(sh rl.Shader, loc int32) {
	setVec2(sh, loc, float32(g.size.SimW), float32(g.size.SimH))
}

// Splat implements fluid.Backend.
func (g *FluidGPU) Splat(s fluid.Splat) {
	if g.released || g.velocity == nil {
		return
	}
	p := &g.progs.splat
	splatInto := func(field *DoubleTarget, x, y, z float32) {
		g.pass(field.Write(), p.shader, func() {
			rl.SetShaderValueTexture(p.shader, p.target, field.Read().Texture())
			g.resolution(p.shader, p.resolution)
			setFloat(p.shader, p.ratio, s.Aspect)
			setVec2(p.shader, p.point, s.X, s.Y)
			setVec3(p.shader, p.pointValue, x, y, z)
			setFloat(p.shader, p.radius, s.Radius)
		})
		field.Swap()
	}
	splatInto(g.velocity, s.VX, s.VY, 0)
	splatInto(g.dye, s.Dye, 0, 0)
}

// Divergence implements fluid.Backend.
func (g *FluidGPU) Divergence() {
	if g.released || g.velocity == nil {
		return
	}
	p := &g.progs.divergence
	g.pass(g.divergence, p.shader, func() {
		rl.SetShaderValueTexture(p.shader, p.velocity, g.velocity.Read().Texture())
		g.resolution(p.shader, p.resolution)
	})
}

// PressureIteration implements fluid.Backend.
func (g *FluidGPU) PressureIteration() {
	if g.released || g.pressure == nil {
		return
	}
	p := &g.progs.pressure
	g.pass(g.pressure.Write(), p.shader, func() {
		rl.SetShaderValueTexture(p.shader, p.pressure, g.pressure.Read().Texture())
		rl.SetShaderValueTexture(p.shader, p.divergence, g.divergence.Texture())
		g.resolution(p.shader, p.resolution)
	})
	g.pressure.Swap()
}

// GradientSubtract implements fluid.Backend.
func (g *FluidGPU) GradientSubtract() {
	if g.released || g.velocity == nil {
		return
	}
	p := &g.progs.gradient
	g.pass(g.velocity.Write(), p.shader, func() {
		rl.SetShaderValueTexture(p.shader, p.pressure, g.pressure.Read().Texture())
		rl.SetShaderValueTexture(p.shader, p.velocity, g.velocity.Read().Texture())
		g.resolution(p.shader, p.resolution)
	})
	g.velocity.Swap()
}

func (g *FluidGPU) advect(field *DoubleTarget, dt, dissipation float32) {
	p := &g.progs.advect
	g.pass(field.Write(), p.shader, func() {
		rl.SetShaderValueTexture(p.shader, p.velocity, g.velocity.Read().Texture())
		rl.SetShaderValueTexture(p.shader, p.source, field.Read().Texture())
		g.resolution(p.shader, p.resolution)
		setFloat(p.shader, p.dt, dt)
		setFloat(p.shader, p.dissipation, dissipation)
	})
	field.Swap()
}

// AdvectVelocity implements fluid.Backend.
func (g *FluidGPU) AdvectVelocity(dt, dissipation float32) {
	if g.released || g.velocity == nil {
		return
	}
	g.advect(g.velocity, dt, dissipation)
}

// AdvectDye implements fluid.Backend.
func (g *FluidGPU) AdvectDye(dt, dissipation float32) {
	if g.released || g.dye == nil {
		return
	}
	g.advect(g.dye, dt, dissipation)
}

// Composite implements fluid.Backend. The canvas holds premultiplied
// color.
func (g *FluidGPU) Composite(cp fluid.CompositeParams) {
	if g.released || g.dye == nil {
		return
	}
	p := &g.progs.composite
	rl.BeginTextureMode(g.canvas)
	rl.ClearBackground(rl.Blank)
	rl.BeginBlendMode(rl.BlendAlphaPremultiply)
	rl.BeginShaderMode(p.shader)
	rl.SetShaderValueTexture(p.shader, p.dye, g.dye.Read().Texture())
	rl.SetShaderValueTexture(p.shader, p.velocity, g.velocity.Read().Texture())
	rl.SetShaderValueTexture(p.shader, p.video, g.video.Texture())
	setVec2(p.shader, p.resolution, float32(g.size.CanvasW), float32(g.size.CanvasH))
	setFloat(p.shader, p.ratio, cp.ViewAspect)
	setFloat(p.shader, p.mediaRatio, cp.MediaAspect)
	setFloat(p.shader, p.power, cp.Power)
	rl.DrawRectangle(0, 0, int32(g.size.CanvasW), int32(g.size.CanvasH), rl.White)
	rl.EndShaderMode()
	rl.EndBlendMode()
	rl.EndTextureMode()
}

// Canvas returns the composited output. Like every render texture it is
// stored bottom-up; DrawCanvas accounts for that.
func (g *FluidGPU) Canvas() rl.Texture2D { return g.canvas.Texture }

// Snapshot reads the canvas back into a top-down image.
func (g *FluidGPU) Snapshot() *image.RGBA {
	if g.released || g.canvas.ID == 0 {
		return nil
	}
	img := rl.LoadImageFromTexture(g.canvas.Texture)
	defer rl.UnloadImage(img)
	rl.ImageFlipVertical(img)

	colors := rl.LoadImageColors(img)
	defer rl.UnloadImageColors(colors)

	out := image.NewRGBA(image.Rect(0, 0, int(img.Width), int(img.Height)))
	for i, c := range colors {
		out.SetRGBA(i%int(img.Width), i/int(img.Width), color.RGBA{R: c.R, G: c.G, B: c.B, A: c.A})
	}
	return out
}

// Size returns the allocated sizes.
func (g *FluidGPU) Size() fluid.Size { return g.size }

func (g *FluidGPU) releaseTargets() {
	g.velocity.Unload()
	g.dye.Unload()
	g.pressure.Unload()
	g.divergence.Unload()
	g.velocity, g.dye, g.pressure, g.divergence = nil, nil, nil, nil
	if g.canvas.ID != 0 {
		rl.UnloadRenderTexture(g.canvas)
		g.canvas = rl.RenderTexture2D{}
	}
}

// Release implements fluid.Backend. It is safe to call more than once.
func (g *FluidGPU) Release() {
	if g.released {
		return
	}
	g.released = true
	g.releaseTargets()
	g.video.Unload()
	g.progs.unload()
}

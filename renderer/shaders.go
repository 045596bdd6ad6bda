package renderer

import (
	"embed"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/lifecycle"
)

//go:embed shaders/*.fs
var shaderFiles embed.FS

// loadShader compiles an embedded fragment shader against raylib's default
// vertex shader. raylib silently falls back to its default program when
// compilation fails, so that case is reported as missing GLSL support.
func loadShader(name string) (rl.Shader, error) {
	src, err := shaderFiles.ReadFile("shaders/" + name + ".fs")
	if err != nil {
		return rl.Shader{}, fmt.Errorf("reading shader %s: %w", name, err)
	}
	sh := rl.LoadShaderFromMemory("", string(src))
	if !rl.IsShaderValid(sh) || sh.ID == rl.GetShaderIdDefault() {
		return rl.Shader{}, &lifecycle.CapabilityError{Feature: "GLSL 330", Detail: "compiling " + name + ".fs"}
	}
	return sh, nil
}

// locator resolves uniform locations for one shader and keeps the first
// missing name.
type locator struct {
	name   string
	shader rl.Shader
	err    error
}

func (l *locator) loc(uniform string) int32 {
	loc := rl.GetShaderLocation(l.shader, uniform)
	if loc < 0 && l.err == nil {
		l.err = fmt.Errorf("shader %s: uniform %q not found", l.name, uniform)
	}
	return loc
}

// Uniform binding tables. Locations are resolved once when the program loads.

type splatProgram struct {
	shader                                               rl.Shader
	target, resolution, ratio, pointValue, point, radius int32
}

func (p *splatProgram) bind(l *locator) {
	p.target = l.loc("target")
	p.resolution = l.loc("resolution")
	p.ratio = l.loc("ratio")
	p.pointValue = l.loc("pointValue")
	p.point = l.loc("point")
	p.radius = l.loc("radius")
}

type divergenceProgram struct {
	shader               rl.Shader
	velocity, resolution int32
}

func (p *divergenceProgram) bind(l *locator) {
	p.velocity = l.loc("velocity")
	p.resolution = l.loc("resolution")
}

type pressureProgram struct {
	shader                           rl.Shader
	pressure, divergence, resolution int32
}

func (p *pressureProgram) bind(l *locator) {
	p.pressure = l.loc("pressure")
	p.divergence = l.loc("divergence")
	p.resolution = l.loc("resolution")
}

type gradientProgram struct {
	shader                         rl.Shader
	pressure, velocity, resolution int32
}

func (p *gradientProgram) bind(l *locator) {
	p.pressure = l.loc("pressure")
	p.velocity = l.loc("velocity")
	p.resolution = l.loc("resolution")
}

type advectProgram struct {
	shader                                        rl.Shader
	velocity, source, resolution, dt, dissipation int32
}

func (p *advectProgram) bind(l *locator) {
	p.velocity = l.loc("velocity")
	p.source = l.loc("source")
	p.resolution = l.loc("resolution")
	p.dt = l.loc("dt")
	p.dissipation = l.loc("dissipation")
}

type compositeProgram struct {
	shader                                                     rl.Shader
	dye, velocity, video, resolution, ratio, mediaRatio, power int32
}

func (p *compositeProgram) bind(l *locator) {
	p.dye = l.loc("dye")
	p.velocity = l.loc("velocity")
	p.video = l.loc("video")
	p.resolution = l.loc("resolution")
	p.ratio = l.loc("ratio")
	p.mediaRatio = l.loc("mediaRatio")
	p.power = l.loc("power")
}

// fluidPrograms holds every program the GPU solver runs.
type fluidPrograms struct {
	splat      splatProgram
	divergence divergenceProgram
	pressure   pressureProgram
	gradient   gradientProgram
	advect     advectProgram
	composite  compositeProgram
}

// loadFluidPrograms compiles all solver programs. On failure the ones
// already compiled are unloaded.
func loadFluidPrograms() (*fluidPrograms, error) {
	p := &fluidPrograms{}
	entries := []struct {
		name   string
		shader *rl.Shader
		bind   func(*locator)
	}{
		{"splat", &p.splat.shader, p.splat.bind},
		{"divergence", &p.divergence.shader, p.divergence.bind},
		{"pressure", &p.pressure.shader, p.pressure.bind},
		{"gradient", &p.gradient.shader, p.gradient.bind},
		{"advect", &p.advect.shader, p.advect.bind},
		{"composite", &p.composite.shader, p.composite.bind},
	}
	for _, e := range entries {
		sh, err := loadShader(e.name)
		if err != nil {
			p.unload()
			return nil, err
		}
		*e.shader = sh
		l := &locator{name: e.name, shader: sh}
		e.bind(l)
		if l.err != nil {
			p.unload()
			return nil, l.err
		}
	}
	return p, nil
}

func (p *fluidPrograms) unload() {
	for _, sh := range []*rl.Shader{
		&p.splat.shader, &p.divergence.shader, &p.pressure.shader,
		&p.gradient.shader, &p.advect.shader, &p.composite.shader,
	} {
		if sh.ID != 0 {
			rl.UnloadShader(*sh)
			*sh = rl.Shader{}
		}
	}
}

func setFloat(sh rl.Shader, loc int32, v float32) {
	rl.SetShaderValue(sh, loc, []float32{v}, rl.ShaderUniformFloat)
}

func setVec2(sh rl.Shader, loc int32, x, y float32) {
	rl.SetShaderValue(sh, loc, []float32{x, y}, rl.ShaderUniformVec2)
}

func setVec3(sh rl.Shader, loc int32, x, y, z float32) {
	rl.SetShaderValue(sh, loc, []float32{x, y, z}, rl.ShaderUniformVec3)
}

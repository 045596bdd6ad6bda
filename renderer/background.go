package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// BackgroundRenderer renders a slow value-noise texture behind the card
// grid. It scrolls with the page.
type BackgroundRenderer struct {
	shader        rl.Shader
	timeLoc       int32
	resolutionLoc int32
	scrollLoc     int32
	baseColorLoc  int32

	screenW, screenH float32
	baseColor        [3]float32
	initialized      bool

	// load compiles the shader; initErr latches its first failure.
	load    func(name string) (rl.Shader, error)
	initErr error
}

// NewBackgroundRenderer creates a new background renderer.
func NewBackgroundRenderer(screenW, screenH int32, baseR, baseG, baseB uint8) *BackgroundRenderer {
	return &BackgroundRenderer{
		screenW: float32(screenW),
		screenH: float32(screenH),
		baseColor: [3]float32{
			float32(baseR) / 255.0,
			float32(baseG) / 255.0,
			float32(baseB) / 255.0,
		},
		load: loadShader,
	}
}

// Init initializes the renderer (must be called after raylib window is created).
// A failed compile is not retried; later calls return the same error.
func (b *BackgroundRenderer) Init() error {
	if b.initialized {
		return nil
	}
	if b.initErr != nil {
		return b.initErr
	}

	sh, err := b.load("background")
	if err != nil {
		b.initErr = fmt.Errorf("background: %w", err)
		return b.initErr
	}
	b.shader = sh
	b.timeLoc = rl.GetShaderLocation(b.shader, "time")
	b.resolutionLoc = rl.GetShaderLocation(b.shader, "resolution")
	b.scrollLoc = rl.GetShaderLocation(b.shader, "scroll")
	b.baseColorLoc = rl.GetShaderLocation(b.shader, "baseColor")

	// Set static uniforms
	setVec2(b.shader, b.resolutionLoc, b.screenW, b.screenH)
	rl.SetShaderValue(b.shader, b.baseColorLoc, b.baseColor[:], rl.ShaderUniformVec3)

	b.initialized = true
	return nil
}

// Resize updates the screen size uniform.
func (b *BackgroundRenderer) Resize(screenW, screenH int32) {
	b.screenW = float32(screenW)
	b.screenH = float32(screenH)
	if b.initialized {
		setVec2(b.shader, b.resolutionLoc, b.screenW, b.screenH)
	}
}

// Draw renders the background. Without shader support it falls back to a
// flat fill, and the shader is not compiled again.
func (b *BackgroundRenderer) Draw(time, scroll float32) {
	if !b.initialized {
		if err := b.Init(); err != nil {
			c := rl.NewColor(uint8(b.baseColor[0]*255), uint8(b.baseColor[1]*255), uint8(b.baseColor[2]*255), 255)
			rl.ClearBackground(c)
			return
		}
	}

	rl.BeginShaderMode(b.shader)

	setFloat(b.shader, b.timeLoc, time)
	setFloat(b.shader, b.scrollLoc, scroll)

	// Draw fullscreen quad
	rl.DrawRectangle(0, 0, int32(b.screenW), int32(b.screenH), rl.White)

	rl.EndShaderMode()
}

// Unload frees resources.
func (b *BackgroundRenderer) Unload() {
	if b.initialized {
		rl.UnloadShader(b.shader)
		b.initialized = false
	}
}

package renderer

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/lifecycle"
)

// FloatCapability reports whether the current context can render into
// float32 RGBA targets. It needs a GL 3.3+ context and a complete
// framebuffer with a float color attachment.
func FloatCapability() error {
	if v := rl.GetVersion(); v != rl.Opengl33 && v != rl.Opengl43 {
		return &lifecycle.CapabilityError{
			Feature: "float render targets",
			Detail:  fmt.Sprintf("OpenGL 3.3 required, context reports version id %d", v),
		}
	}
	probe, err := NewFloatTarget(4, 4)
	if err != nil {
		return err
	}
	probe.Unload()
	return nil
}

// FloatTarget is a framebuffer with a single float32 RGBA color texture.
type FloatTarget struct {
	rt   rl.RenderTexture2D
	W, H int
}

// NewFloatTarget allocates a zeroed float target. Allocation failures are
// capability errors: the context cannot provide float rendering.
func NewFloatTarget(w, h int) (*FloatTarget, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("float target size %dx%d", w, h)
	}
	img := rl.GenImageColor(w, h, rl.Blank)
	rl.ImageFormat(img, rl.UncompressedR32g32b32a32)
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if !rl.IsTextureValid(tex) {
		return nil, &lifecycle.CapabilityError{Feature: "float render targets", Detail: "float32 texture upload failed"}
	}
	rl.SetTextureFilter(tex, rl.FilterPoint)
	rl.SetTextureWrap(tex, rl.WrapClamp)

	fbo := rl.LoadFramebuffer()
	if fbo == 0 {
		rl.UnloadTexture(tex)
		return nil, &lifecycle.CapabilityError{Feature: "float render targets", Detail: "framebuffer creation failed"}
	}
	rl.FramebufferAttach(fbo, tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadFramebuffer(fbo)
		rl.UnloadTexture(tex)
		return nil, &lifecycle.CapabilityError{Feature: "float render targets", Detail: "float32 color attachment incomplete"}
	}

	return &FloatTarget{
		rt: rl.RenderTexture2D{ID: fbo, Texture: tex},
		W:  w,
		H:  h,
	}, nil
}

// Texture returns the color attachment.
func (t *FloatTarget) Texture() rl.Texture2D { return t.rt.Texture }

// Unload frees the framebuffer and its texture.
func (t *FloatTarget) Unload() {
	if t == nil || t.rt.ID == 0 {
		return
	}
	rl.UnloadFramebuffer(t.rt.ID)
	rl.UnloadTexture(t.rt.Texture)
	t.rt = rl.RenderTexture2D{}
}

// DoubleTarget is an arena of two float targets plus a read index. Passes
// read one slot and write the other; Swap flips which is authoritative.
type DoubleTarget struct {
	slots [2]*FloatTarget
	read  int
}

// NewDoubleTarget allocates both slots or neither.
func NewDoubleTarget(w, h int) (*DoubleTarget, error) {
	a, err := NewFloatTarget(w, h)
	if err != nil {
		return nil, err
	}
	b, err := NewFloatTarget(w, h)
	if err != nil {
		a.Unload()
		return nil, err
	}
	return &DoubleTarget{slots: [2]*FloatTarget{a, b}}, nil
}

func (d *DoubleTarget) Read() *FloatTarget  { return d.slots[d.read] }
func (d *DoubleTarget) Write() *FloatTarget { return d.slots[1-d.read] }
func (d *DoubleTarget) Swap()               { d.read = 1 - d.read }

// Unload frees both slots.
func (d *DoubleTarget) Unload() {
	if d == nil {
		return
	}
	d.slots[0].Unload()
	d.slots[1].Unload()
}

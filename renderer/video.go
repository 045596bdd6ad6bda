package renderer

import (
	"errors"
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/lifecycle"
	"github.com/pthm-cable/cardfx/source"
)

var errMalformedFrame = errors.New("malformed frame")

// VideoTexture mirrors the current frame of a source on the GPU. Upload
// problems never escape as anything but *lifecycle.TransientFrameError; the
// previous contents stay on screen.
type VideoTexture struct {
	tex    rl.Texture2D
	w, h   int
	seq    uint64
	loaded bool
}

// NewVideoTexture creates an empty texture. Nothing is allocated until the
// first upload.
func NewVideoTexture() *VideoTexture {
	return &VideoTexture{}
}

// Texture returns the GPU texture. Its ID is 0 before the first upload.
func (v *VideoTexture) Texture() rl.Texture2D { return v.tex }

// Size returns the uploaded frame size.
func (v *VideoTexture) Size() (int, int) { return v.w, v.h }

// Upload copies frame into the texture, recreating it when the frame size
// changes. Re-uploading the same sequence number is a no-op.
func (v *VideoTexture) Upload(f source.Frame) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &lifecycle.TransientFrameError{Err: fmt.Errorf("video upload panicked: %v", r)}
		}
	}()

	if f.W <= 0 || f.H <= 0 || len(f.Pix) < f.W*f.H {
		return &lifecycle.TransientFrameError{Err: errMalformedFrame}
	}
	if v.loaded && f.W == v.w && f.H == v.h && f.Seq == v.seq {
		return nil
	}
	if !v.loaded || f.W != v.w || f.H != v.h {
		v.Unload()
		img := rl.GenImageColor(f.W, f.H, rl.Black)
		tex := rl.LoadTextureFromImage(img)
		rl.UnloadImage(img)
		if !rl.IsTextureValid(tex) {
			return &lifecycle.TransientFrameError{Err: fmt.Errorf("creating %dx%d video texture", f.W, f.H)}
		}
		rl.SetTextureFilter(tex, rl.FilterBilinear)
		rl.SetTextureWrap(tex, rl.WrapClamp)
		v.tex, v.w, v.h, v.loaded = tex, f.W, f.H, true
	}
	rl.UpdateTexture(v.tex, f.Pix[:f.W*f.H])
	v.seq = f.Seq
	return nil
}

// UploadFrom pulls the current frame from src. A source without current
// data is skipped silently.
func (v *VideoTexture) UploadFrom(src source.FrameSource) error {
	if src == nil || !src.Ready() {
		return nil
	}
	f, err := src.Frame()
	if err != nil {
		return &lifecycle.TransientFrameError{Err: err}
	}
	return v.Upload(f)
}

// Unload frees the texture.
func (v *VideoTexture) Unload() {
	if !v.loaded {
		return
	}
	rl.UnloadTexture(v.tex)
	v.tex = rl.Texture2D{}
	v.loaded = false
	v.w, v.h, v.seq = 0, 0, 0
}

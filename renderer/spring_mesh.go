package renderer

import (
	"fmt"
	"log/slog"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
)

// Surface reports the backing size a card renders at.
type Surface interface {
	CanvasSize(maxDPR float32) (w, h int)
}

// SpringMesh is the raylib spring.MeshRenderer. It draws the warped plane,
// textured with the card's video, into a per-card render target.
type SpringMesh struct {
	src     source.FrameSource
	surface Surface
	maxDPR  float32

	opts      spring.Options
	mesh      rl.Mesh
	model     rl.Model
	camera    rl.Camera3D
	positions []float32
	built     bool

	target rl.RenderTexture2D
	tw, th int

	video    *VideoTexture
	boundTex uint32
	skipped  uint64
	released bool
}

// NewSpringMesh creates a renderer for one card. Nothing touches the GPU
// until Build.
func NewSpringMesh(src source.FrameSource, surface Surface, maxDPR float32) *SpringMesh {
	return &SpringMesh{
		src:     src,
		surface: surface,
		maxDPR:  maxDPR,
		video:   NewVideoTexture(),
	}
}

// Build implements spring.MeshRenderer. The plane comes from GenMeshPlane,
// whose vertex order (row-major, row 0 first) matches spring.Mesh.
func (r *SpringMesh) Build(m *spring.Mesh, opts spring.Options) error {
	if r.released {
		return fmt.Errorf("spring renderer already released")
	}
	mesh := rl.GenMeshPlane(float32(opts.PlaneW), float32(opts.PlaneH), opts.SegX, opts.SegY)
	if int(mesh.VertexCount) != len(m.Nodes) {
		rl.UnloadMesh(&mesh)
		return fmt.Errorf("plane has %d vertices, mesh has %d nodes", mesh.VertexCount, len(m.Nodes))
	}
	r.mesh = mesh
	r.model = rl.LoadModelFromMesh(mesh)
	r.opts = opts
	r.camera = cameraFor(opts)
	r.positions = make([]float32, len(m.Nodes)*3)
	r.built = true
	r.uploadPositions(m)
	return nil
}

// cameraFor returns the perspective camera of the whole variant or the
// orthographic one of the edge variant. Both look down -z at the origin.
func cameraFor(opts spring.Options) rl.Camera3D {
	up := rl.NewVector3(0, 1, 0)
	if opts.Variant == spring.VariantEdge {
		return rl.NewCamera3D(rl.NewVector3(0, 0, 5), rl.NewVector3(0, 0, 0), up,
			float32(2*opts.ViewHalfHeight()), rl.CameraOrthographic)
	}
	return rl.NewCamera3D(rl.NewVector3(0, 0, spring.PerspectiveZ), rl.NewVector3(0, 0, 0), up,
		spring.PerspectiveFovY, rl.CameraPerspective)
}

// uploadPositions writes node positions into the vertex buffer.
func (r *SpringMesh) uploadPositions(m *spring.Mesh) {
	r.positions = m.Positions(r.positions)
	data := unsafe.Slice((*byte)(unsafe.Pointer(&r.positions[0])), len(r.positions)*4)
	rl.UpdateMeshBuffer(r.mesh, 0, data, 0)
}

// ensureTarget (re)creates the render target when the card's backing size
// changes.
func (r *SpringMesh) ensureTarget() error {
	w, h := r.surface.CanvasSize(r.maxDPR)
	if r.target.ID != 0 && w == r.tw && h == r.th {
		return nil
	}
	if r.target.ID != 0 {
		rl.UnloadRenderTexture(r.target)
		r.target = rl.RenderTexture2D{}
	}
	r.target = rl.LoadRenderTexture(int32(w), int32(h))
	if !rl.IsRenderTextureValid(r.target) {
		r.target = rl.RenderTexture2D{}
		return fmt.Errorf("creating %dx%d spring target", w, h)
	}
	r.tw, r.th = w, h
	return nil
}

// Draw implements spring.MeshRenderer.
func (r *SpringMesh) Draw(m *spring.Mesh, sx, sy float64) error {
	if r.released || !r.built {
		return nil
	}
	if err := r.video.UploadFrom(r.src); err != nil {
		r.skipped++
		slog.Debug("spring video upload skipped", "error", err)
	}
	if tex := r.video.Texture(); tex.ID != r.boundTex {
		mats := r.model.GetMaterials()
		rl.SetMaterialTexture(&mats[0], rl.MapDiffuse, tex)
		r.boundTex = tex.ID
	}
	r.uploadPositions(m)
	if err := r.ensureTarget(); err != nil {
		return err
	}

	x, y := r.opts.ModelScale(sx, sy, float64(r.tw)/float64(r.th))
	rl.BeginTextureMode(r.target)
	rl.ClearBackground(rl.Blank)
	rl.BeginMode3D(r.camera)
	rl.DisableBackfaceCulling()
	rl.DrawModelEx(r.model, rl.Vector3{}, rl.NewVector3(0, 1, 0), 0, rl.NewVector3(float32(x), float32(y), 1), rl.White)
	rl.EnableBackfaceCulling()
	rl.EndMode3D()
	rl.EndTextureMode()
	return nil
}

// Canvas returns the rendered card. Like every render texture it is stored
// bottom-up; DrawCanvas accounts for that.
func (r *SpringMesh) Canvas() rl.Texture2D { return r.target.Texture }

// Skipped returns how many video uploads were skipped.
func (r *SpringMesh) Skipped() uint64 { return r.skipped }

// Release implements spring.MeshRenderer. It is safe to call more than
// once.
func (r *SpringMesh) Release() {
	if r.released {
		return
	}
	r.released = true
	if r.built {
		// The model owns the mesh buffers.
		rl.UnloadModel(r.model)
		r.built = false
	}
	if r.target.ID != 0 {
		rl.UnloadRenderTexture(r.target)
		r.target = rl.RenderTexture2D{}
	}
	r.video.Unload()
}

package source

import (
	"fmt"
	"image"
	_ "image/jpeg" // register decoder
	_ "image/png"  // register decoder
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// Sequence plays a directory of numbered PNG or JPEG frames on a loop.
// Frames are decoded on demand; the source becomes ready once the current
// frame has decoded and drops readiness when a decode fails.
type Sequence struct {
	Notifier

	dir    string
	files  []string
	fps    float64
	clock  float64
	index  int
	cache  map[int]Frame
	keep   int
	w, h   int
	err    error
	loaded bool
}

// NewSequence lists dir and prepares playback at fps. It fails when the
// directory holds no frames.
func NewSequence(dir string, fps float64) (*Sequence, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading frame directory: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no frames in %s", dir)
	}
	slices.Sort(files)
	if fps <= 0 {
		fps = 30
	}
	return &Sequence{
		dir:   dir,
		files: files,
		fps:   fps,
		cache: make(map[int]Frame),
		keep:  4,
		index: -1,
	}, nil
}

// ID implements FrameSource.
func (s *Sequence) ID() string { return s.dir }

// Len returns the number of frames.
func (s *Sequence) Len() int { return len(s.files) }

// Size implements FrameSource.
func (s *Sequence) Size() (int, int) { return s.w, s.h }

// Err returns the last decode error.
func (s *Sequence) Err() error { return s.err }

// Advance implements FrameSource.
func (s *Sequence) Advance(dt float64) {
	if s.loaded {
		s.clock += dt
	}
	idx := int(s.clock*s.fps) % len(s.files)
	if idx == s.index && s.loaded {
		return
	}
	s.index = idx
	if _, err := s.decode(idx); err != nil {
		s.err = err
		s.Set(false)
		return
	}
	s.loaded = true
	s.err = nil
	s.Set(true)
}

// Frame implements FrameSource.
func (s *Sequence) Frame() (Frame, error) {
	if s.index < 0 {
		return Frame{}, fmt.Errorf("sequence %s: no frame decoded yet", s.dir)
	}
	return s.decode(s.index)
}

func (s *Sequence) decode(idx int) (Frame, error) {
	if f, ok := s.cache[idx]; ok {
		return f, nil
	}
	f, err := loadFrame(s.files[idx])
	if err != nil {
		return Frame{}, err
	}
	f.Seq = uint64(idx)
	if len(s.cache) >= s.keep {
		clear(s.cache)
	}
	s.cache[idx] = f
	s.w, s.h = f.W, f.H
	return f, nil
}

func loadFrame(path string) (Frame, error) {
	fh, err := os.Open(path)
	if err != nil {
		return Frame{}, fmt.Errorf("opening frame: %w", err)
	}
	defer fh.Close()
	img, _, err := image.Decode(fh)
	if err != nil {
		return Frame{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return FrameFromImage(img), nil
}

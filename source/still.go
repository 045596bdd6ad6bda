package source

import "fmt"

// Still is a single poster image. It is always ready.
type Still struct {
	Notifier
	id    string
	frame Frame
}

// NewStill wraps an already decoded frame.
func NewStill(id string, f Frame) *Still {
	s := &Still{id: id, frame: f}
	s.Set(true)
	return s
}

// LoadStill decodes a poster image from disk.
func LoadStill(path string) (*Still, error) {
	f, err := loadFrame(path)
	if err != nil {
		return nil, fmt.Errorf("loading poster: %w", err)
	}
	return NewStill(path, f), nil
}

func (s *Still) ID() string            { return s.id }
func (s *Still) Size() (int, int)      { return s.frame.W, s.frame.H }
func (s *Still) Frame() (Frame, error) { return s.frame, nil }
func (s *Still) Advance(float64)       {}

package gallery

import (
	"log/slog"
	"slices"

	"github.com/mlange-42/ark/ecs"

	"github.com/pthm-cable/cardfx/config"
	"github.com/pthm-cable/cardfx/source"
)

// OpenSource builds the frame source a card video names: a frame
// directory, or "noise:<seed>" for procedural frames.
func OpenSource(video string, sc config.SourceConfig) (source.FrameSource, error) {
	if config.IsNoise(video) {
		seed, err := config.NoiseSeed(video)
		if err != nil {
			return nil, err
		}
		return source.NewNoise(source.NoiseConfig{
			Width:        sc.NoiseWidth,
			Height:       sc.NoiseHeight,
			Seed:         seed,
			Scale:        sc.NoiseScale,
			Speed:        sc.NoiseSpeed,
			BufferFrames: sc.BufferFrames,
		}), nil
	}
	return source.NewSequence(video, sc.FPS)
}

// openSources opens the card's video and poster and subscribes to
// readiness edges. A card whose video cannot be opened stays on its poster.
func (g *Gallery) openSources(e ecs.Entity, card Card, r *Readiness) {
	if card.PosterSrc != "" {
		still, err := source.LoadStill(card.PosterSrc)
		if err != nil {
			slog.Warn("poster unavailable", "card", card.Name, "poster", card.PosterSrc, "error", err)
		} else {
			r.Poster, _ = still.Frame()
		}
	}

	src, err := OpenSource(card.VideoSrc, g.cfg.Source)
	if err != nil {
		slog.Warn("video unavailable", "card", card.Name, "video", card.VideoSrc, "error", err)
		r.Err = err
		return
	}
	r.Source = src
	r.cancel = src.Subscribe(func(ready bool) {
		g.edges = append(g.edges, readyEdge{entity: e, ready: ready})
	})
	if src.Ready() {
		g.edges = append(g.edges, readyEdge{entity: e, ready: true})
	}
}

// capturePoster keeps the first decoded frame as the poster when none was
// configured. Sources may reuse their pixel buffer, so it is copied.
func capturePoster(r *Readiness) {
	if r.Poster.W > 0 || r.Source == nil {
		return
	}
	f, err := r.Source.Frame()
	if err != nil {
		return
	}
	f.Pix = slices.Clone(f.Pix)
	r.Poster = f
}

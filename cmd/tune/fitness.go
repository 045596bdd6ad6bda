package main

import (
	"image/color"
	"math"
	"sync"

	"github.com/pthm-cable/cardfx/motion"
	"github.com/pthm-cable/cardfx/source"
	"github.com/pthm-cable/cardfx/spring"
	"github.com/pthm-cable/cardfx/viewport"
)

// Trial shape. A drag sweeps the pointer across the plane, then the mesh
// is left alone until it comes back to rest.
const (
	dragFrames      = 30
	settleEps       = 0.002 // max node displacement counted as rest
	settleEnergyEps = 1e-7
	frameDT         = 1.0 / 60.0
)

// FitnessEvaluator runs headless spring trials and computes fitness.
type FitnessEvaluator struct {
	params     *ParamVector
	base       spring.Options
	seeds      []uint32
	maxFrames  int
	targetPeak float64
	cardW      float32
	cardH      float32
	videoW     int
	videoH     int

	mu         sync.Mutex
	lastResult trialSummary
}

// trialResult holds the outcome of one drag-and-release run.
type trialResult struct {
	peak   float64 // largest displacement while dragging
	settle int     // frames after release until rest, or maxFrames
	ok     bool    // reached rest within maxFrames
}

// trialSummary averages the trials of one evaluation.
type trialSummary struct {
	Peak    float64
	Settle  float64
	Settled int
}

// NewFitnessEvaluator creates a new evaluator. Card and video sizes set the
// cover scale, so the tuned values hold for that card shape.
func NewFitnessEvaluator(params *ParamVector, base spring.Options, seeds []uint32, maxFrames int, targetPeak float64) *FitnessEvaluator {
	base.AutoWobble = 0
	return &FitnessEvaluator{
		params:     params,
		base:       base,
		seeds:      seeds,
		maxFrames:  maxFrames,
		targetPeak: targetPeak,
		cardW:      360,
		cardH:      480,
		videoW:     16,
		videoH:     9,
	}
}

// LastSummary returns the trial averages from the most recent evaluation.
func (fe *FitnessEvaluator) LastSummary() trialSummary {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastResult
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Settling time dominates; a peak far from the target displacement is
// penalized so the search cannot win by ignoring the pointer.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	opts := fe.params.Apply(fe.base, x)

	// Run all seeds in parallel
	results := make([]trialResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s uint32) {
			defer wg.Done()
			results[idx] = fe.runTrial(opts, s)
		}(i, seed)
	}
	wg.Wait()

	var fitness float64
	var sum trialSummary
	for _, r := range results {
		fitness += fe.computeFitness(r)
		sum.Peak += r.peak
		sum.Settle += float64(r.settle)
		if r.ok {
			sum.Settled++
		}
	}
	n := float64(len(results))
	sum.Peak /= n
	sum.Settle /= n

	fe.mu.Lock()
	fe.lastResult = sum
	fe.mu.Unlock()

	return fitness / n
}

// runTrial drags across the plane along a seeded path and measures how
// long the mesh takes to come back to rest.
func (fe *FitnessEvaluator) runTrial(opts spring.Options, seed uint32) trialResult {
	rng := motion.NewRand(seed)
	vp := viewport.New(viewport.Rect{W: fe.cardW, H: fe.cardH}, 1)
	src := source.NewStill("tune", source.Frame{
		W:   fe.videoW,
		H:   fe.videoH,
		Pix: make([]color.RGBA, fe.videoW*fe.videoH),
	})

	engine, err := spring.New(opts, src, vp, &spring.NullRenderer{})
	if err != nil {
		return trialResult{settle: fe.maxFrames}
	}
	defer engine.Dispose()

	// Straight sweep through a random point, half a plane long.
	hw, hh := opts.PlaneW/2, opts.PlaneH/2
	cx, cy := rng.Range(-hw/2, hw/2), rng.Range(-hh/2, hh/2)
	angle := rng.Range(0, 2*math.Pi)
	length := math.Min(opts.PlaneW, opts.PlaneH) / 2
	dx, dy := math.Cos(angle)*length, math.Sin(angle)*length

	var res trialResult
	for i := 0; i <= dragFrames; i++ {
		t := float64(i)/dragFrames - 0.5
		engine.SetPointer(cx+dx*t, cy+dy*t)
		if err := engine.Step(frameDT); err != nil {
			return trialResult{settle: fe.maxFrames}
		}
		res.peak = math.Max(res.peak, engine.Mesh().MaxDisplacement())
	}
	engine.PointerLeave()

	for res.settle = 0; res.settle < fe.maxFrames; res.settle++ {
		if err := engine.Step(frameDT); err != nil {
			return trialResult{peak: res.peak, settle: fe.maxFrames}
		}
		m := engine.Mesh()
		if m.MaxDisplacement() < settleEps && m.Energy() < settleEnergyEps {
			res.ok = true
			break
		}
	}
	return res
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: settle/maxFrames + (peak/target - 1)^2, plus 1 if the mesh
// never came to rest.
func (fe *FitnessEvaluator) computeFitness(r trialResult) float64 {
	f := float64(r.settle) / float64(fe.maxFrames)
	if fe.targetPeak > 0 {
		rel := r.peak/fe.targetPeak - 1
		f += rel * rel
	}
	if !r.ok {
		f++
	}
	return f
}

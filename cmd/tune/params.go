// Package main provides CMA-ES tuning of spring warp tunables.
package main

import (
	"github.com/pthm-cable/cardfx/spring"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name string  // Human-readable name
	Min  float64 // Lower bound
	Max  float64 // Upper bound
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable spring tunables.
// Mesh shape, variant and edge band stay as configured.
func NewParamVector() *ParamVector {
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "elasticity", Min: 0.005, Max: 0.2},
			{Name: "damping", Min: 0.5, Max: 0.95},
			{Name: "adjacent_k", Min: 0.0, Max: 0.3},
			{Name: "mouse_strength", Min: 0.2, Max: 3.0},
			{Name: "mouse_radius", Min: 0.1, Max: 0.8},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// Apply returns base with the parameter values written over it.
// Order must match Specs order.
func (pv *ParamVector) Apply(base spring.Options, values []float64) spring.Options {
	c := pv.Clamp(values)
	opts := base
	opts.Elasticity = c[0]
	opts.Damping = c[1]
	opts.AdjacentK = c[2]
	opts.MouseStrength = c[3]
	opts.MouseRadius = c[4]
	return opts
}

// Extract reads the current parameter values from opts.
func (pv *ParamVector) Extract(opts spring.Options) []float64 {
	return []float64{
		opts.Elasticity,
		opts.Damping,
		opts.AdjacentK,
		opts.MouseStrength,
		opts.MouseRadius,
	}
}

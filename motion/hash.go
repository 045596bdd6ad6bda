// Package motion provides the seeded, deterministic randomness used by the
// card effects. Nothing here reads an external entropy source.
package motion

import (
	"unicode"
	"unicode/utf16"
)

// FNV-1a 32-bit parameters.
const (
	fnvOffset32 uint32 = 2166136261
	fnvPrime32  uint32 = 16777619
)

// HashString returns the 32-bit FNV-1a hash of s taken over its UTF-16
// code units, one unit per step. ASCII strings hash the same as their bytes.
func HashString(s string) uint32 {
	h := fnvOffset32
	for _, r := range s {
		if r1, r2 := utf16.EncodeRune(r); r1 != unicode.ReplacementChar {
			h = fnvStep(fnvStep(h, uint32(r1)), uint32(r2))
			continue
		}
		h = fnvStep(h, uint32(r))
	}
	return h
}

func fnvStep(h, unit uint32) uint32 {
	return (h ^ unit) * fnvPrime32
}

// SeedFor derives a card's motion seed from its media identifiers.
// The result is never zero.
func SeedFor(videoSrc, posterSrc string) uint32 {
	h := HashString(videoSrc + "|" + posterSrc)
	if h == 0 {
		return 1
	}
	return h
}

package config

import (
	"fmt"
	"strconv"
	"strings"
)

const noisePrefix = "noise:"

// IsNoise reports whether a card video names a procedural source.
func IsNoise(video string) bool {
	return strings.HasPrefix(video, noisePrefix)
}

// NoiseSeed parses the seed of a "noise:<seed>" video.
func NoiseSeed(video string) (int64, error) {
	if !IsNoise(video) {
		return 0, fmt.Errorf("%q is not a noise source", video)
	}
	seed, err := strconv.ParseInt(strings.TrimPrefix(video, noisePrefix), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing noise seed: %w", err)
	}
	return seed, nil
}

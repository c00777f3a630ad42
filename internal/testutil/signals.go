// Package testutil holds deterministic signals and assertion helpers shared
// by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// DC generates a constant-valued signal.
func DC(value float64, length int) []float64 {
	out := make([]float64, length)
	for i := range out {
		out[i] = value
	}

	return out
}

// Stereo32 converts channel slices to a planar float32 block.
func Stereo32(channels ...[]float64) [][]float32 {
	out := make([][]float32, len(channels))
	for ch, src := range channels {
		out[ch] = make([]float32, len(src))
		for i, v := range src {
			out[ch][i] = float32(v)
		}
	}

	return out
}

// Silence32 returns a zeroed planar float32 block.
func Silence32(channels, length int) [][]float32 {
	out := make([][]float32, channels)
	for ch := range out {
		out[ch] = make([]float32, length)
	}

	return out
}

// Split32 cuts a planar block into consecutive views of at most size
// samples per channel.
func Split32(block [][]float32, size int) [][][]float32 {
	if len(block) == 0 || size <= 0 {
		return nil
	}

	var parts [][][]float32

	for start := 0; start < len(block[0]); start += size {
		end := min(start+size, len(block[0]))
		part := make([][]float32, len(block))

		for ch := range block {
			part[ch] = block[ch][start:end]
		}

		parts = append(parts, part)
	}

	return parts
}

// Package saturation implements the harmonic saturation stage: a family of
// static waveshapers plus a stateful magnetic hysteresis model, wrapped in a
// [Saturator] that handles drive, dry/wet mix, output trim, DC removal and a
// final safety bound.
//
// The Saturator is meant to run inside an oversampled section; prepare it
// with the oversampled rate.
package saturation

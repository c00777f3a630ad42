// Package oversample runs nonlinear stages at an integer multiple of the
// host sample rate.
//
// Every non-unity factor is a cascade of 2x half-band stages. Two stage
// families are available: a polyphase IIR half-band built from two allpass
// chains (low CPU, minimum phase, no integer latency) and a linear-phase
// Kaiser-windowed FIR half-band (constant group delay reported through
// [Manager.LatencySamples]).
//
// A [Manager] allocates all filter state and work buffers for the largest
// factor in Prepare. Switching between prepared factors with
// [Manager.SelectPrepared] does not allocate and is safe on the audio
// goroutine, but it clears the filter state and changes the latency.
// Callers that switch on live audio run one Manager per factor, keep both
// running and crossfade, with the [Adaptive] controller picking the side.
package oversample

// Package smooth provides lock-free parameter smoothing for the audio thread.
//
// A [Smoother] turns stepwise control changes into exponential ramps so that
// gain, drive and ceiling changes never produce zipper noise. Targets may be
// published from any goroutine; the audio goroutine advances the ramp with
// [Smoother.Next] or [Smoother.Block] without locks or allocation.
package smooth

// Package biquad provides biquad (second-order IIR) filter runtime primitives.
//
// A [Section] implements Direct Form II Transposed processing for a single
// second-order section defined by [Coefficients]. Multiple sections can be
// cascaded via [Chain] for higher-order filters such as the K-weighting
// pre-filter and the band limiters used by the subharmonic generator.
//
// All processing methods are allocation free and safe to call from the
// real-time audio goroutine. Coefficient design lives in dsp/filter/design.
package biquad

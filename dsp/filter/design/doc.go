// Package design provides digital IIR filter coefficient designers.
//
// The functions in this package produce biquad coefficients consumable by
// dsp/filter/biquad for runtime processing. Designers follow the RBJ audio
// EQ cookbook and return the zero value for invalid frequencies so callers
// can detect a failed design without an error path on the audio thread.
package design

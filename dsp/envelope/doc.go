// Package envelope provides level detectors for dynamics and transient
// processing: an attack/release peak follower, a windowed RMS detector, an
// adaptive threshold that follows program level, and a transient detector
// built from the three.
//
// All detectors are per channel, sized in their constructor, and allocation
// free while processing. Attack and release times may be changed between
// samples without discontinuities.
package envelope

// Package weighting provides the ITU-R BS.1770 K-weighting filter.
//
// K-weighting is the cascade of two second-order sections: a high-shelf
// "pre-filter" of about +4 dB above 1.5 kHz that models the acoustic effect
// of the head, and a revised low-frequency B-curve (RLB) high-pass around
// 38 Hz.
//
// The coefficients are re-derived for every sample rate from the analog
// prototype parameters (centre frequency, gain and Q) so that 48 kHz yields
// the values tabulated in the recommendation and other rates track the same
// response. The returned [biquad.Chain] is used by measure/loudness.
package weighting

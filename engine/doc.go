// Package engine runs the mastering chain on a streaming block of audio.
//
// The chain is a fixed ordered list of stages:
//
//	input → [oversampled: saturation → subharmonic → glue] → limiter → output
//
// The input stage removes non-finite samples and DC and applies the input
// trim. Saturation, subharmonic synthesis and glue compression run inside
// one oversampling pair. The limiter stage applies the output trim and
// then limits with its own true-peak oversampler, so the trim drives into
// the ceiling rather than past it. The output stage removes DC and clamps
// to the hard ceiling. A click-free switch crossfades the processed signal with a
// latency-aligned dry copy, and the loudness and correlation meters and the
// performance governor observe the result.
//
// Prepare allocates and is not real-time safe. Process does not allocate,
// lock or log. Parameters, metering and the enable switch may be used from
// another goroutine.
package engine

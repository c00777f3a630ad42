// Package dynamics provides the bus compressor used ahead of the limiter.
//
// Glue is a stereo-linked soft-knee compressor with a log2-domain gain
// computer, optional program-dependent release and a parallel mix. An eco
// mode swaps the exact log and exp calls for polynomial approximations.
package dynamics

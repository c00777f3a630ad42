// Package loudness implements ITU-R BS.1770-4 / EBU R128 loudness metering:
// momentary, short-term and gated integrated loudness, loudness range and
// true peak.
//
// All storage is allocated by NewMeter. Processing never allocates, so a
// Meter can run on the audio goroutine; readings are plain method calls and
// must be published by the owner if another goroutine needs them.
package loudness

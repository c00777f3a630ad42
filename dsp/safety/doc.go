// Package safety contains the guards that wrap every processing block:
// DC removal, denormal suppression, non-finite sample containment and the
// click-free enable/disable crossfade.
//
// None of the types here allocate after Prepare. Counters that the UI or
// diagnostics read from other goroutines are atomics.
package safety

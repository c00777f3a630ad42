// Package governor watches per-block processing time and steers the
// quality tier so sustained overload degrades quality instead of dropping
// audio.
//
// The governor only observes: it cannot interrupt a block in flight. A
// block that overruns is finished normally, and later blocks run at a
// cheaper tier once the overload has persisted long enough.
package governor

package core

// Block is a channel-major multi-channel buffer. Every channel slice has the
// same length.
type Block [][]float64

// NewBlock allocates a block with the given channel count and length.
func NewBlock(channels, length int) Block {
	b := make(Block, channels)
	for ch := range b {
		b[ch] = make([]float64, length)
	}

	return b
}

// Len returns the per-channel length, or 0 for an empty block.
func (b Block) Len() int {
	if len(b) == 0 {
		return 0
	}

	return len(b[0])
}

// Slice returns a view of the first n samples of every channel. dst is reused
// as the backing header slice so the call does not allocate once dst has
// enough capacity.
func (b Block) Slice(dst Block, n int) Block {
	dst = dst[:0]
	for ch := range b {
		dst = append(dst, b[ch][:n])
	}

	return dst
}

// Zero clears every channel.
func (b Block) Zero() {
	for ch := range b {
		Zero(b[ch])
	}
}

// CopyFrom copies src into b channel by channel and returns the number of
// samples copied per channel.
func (b Block) CopyFrom(src Block) int {
	n := 0
	for ch := range b {
		if ch >= len(src) {
			break
		}

		n = CopyInto(b[ch], src[ch])
	}

	return n
}

// EnsureLen returns a slice with the requested length, reusing buf capacity if possible.
func EnsureLen(buf []float64, n int) []float64 {
	if n <= 0 {
		return buf[:0]
	}

	if cap(buf) >= n {
		return buf[:n]
	}

	return make([]float64, n)
}

// Zero sets all values in buf to 0.
func Zero(buf []float64) {
	for i := range buf {
		buf[i] = 0
	}
}

// CopyInto copies src into dst and returns the number of copied elements.
func CopyInto(dst, src []float64) int {
	n := min(len(dst), len(src))
	copy(dst[:n], src[:n])

	return n
}

// Widen converts float32 samples into dst and returns the number converted.
func Widen(dst []float64, src []float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float64(src[i])
	}

	return n
}

// Narrow converts float64 samples into float32 dst and returns the number
// converted.
func Narrow(dst []float32, src []float64) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = float32(src[i])
	}

	return n
}

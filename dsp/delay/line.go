// Package delay provides integer sample delays used to align parallel
// signal paths.
package delay

import "fmt"

// Line is a circular integer delay for one channel.
type Line struct {
	buffer   []float64
	writePos int
	delay    int
}

// New returns a line that can delay by up to maxDelay samples. The
// initial delay is maxDelay.
func New(maxDelay int) (*Line, error) {
	if maxDelay < 0 {
		return nil, fmt.Errorf("delay must be >= 0: %d", maxDelay)
	}

	return &Line{buffer: make([]float64, maxDelay+1), delay: maxDelay}, nil
}

// MaxDelay returns the largest supported delay.
func (d *Line) MaxDelay() int { return len(d.buffer) - 1 }

// Delay returns the current delay in samples.
func (d *Line) Delay() int { return d.delay }

// SetDelay changes the delay, clamped to [0, MaxDelay].
func (d *Line) SetDelay(n int) {
	d.delay = min(max(n, 0), d.MaxDelay())
}

// Process writes x and returns the sample written Delay() calls ago.
func (d *Line) Process(x float64) float64 {
	size := len(d.buffer)
	d.buffer[d.writePos] = x

	readPos := d.writePos - d.delay
	if readPos < 0 {
		readPos += size
	}

	y := d.buffer[readPos]

	d.writePos++
	if d.writePos == size {
		d.writePos = 0
	}

	return y
}

// ProcessBlock delays buf in place.
func (d *Line) ProcessBlock(buf []float64) {
	if d.delay == 0 {
		for _, x := range buf {
			d.Process(x)
		}

		return
	}

	for i, x := range buf {
		buf[i] = d.Process(x)
	}
}

// Reset clears the line.
func (d *Line) Reset() {
	clear(d.buffer)
	d.writePos = 0
}

// Compensator delays every channel of a block by the same amount.
type Compensator struct {
	lines []*Line
}

// NewCompensator creates per-channel lines of the given delay.
func NewCompensator(channels, samples int) (*Compensator, error) {
	if channels < 1 {
		return nil, fmt.Errorf("delay channels must be >= 1: %d", channels)
	}

	c := &Compensator{lines: make([]*Line, channels)}

	for ch := range c.lines {
		l, err := New(samples)
		if err != nil {
			return nil, err
		}

		c.lines[ch] = l
	}

	return c, nil
}

// Delay returns the compensation delay in samples.
func (c *Compensator) Delay() int { return c.lines[0].Delay() }

// ProcessBlock delays each channel of block in place.
func (c *Compensator) ProcessBlock(block [][]float64) {
	for ch, buf := range block {
		if ch < len(c.lines) {
			c.lines[ch].ProcessBlock(buf)
		}
	}
}

// Reset clears all lines.
func (c *Compensator) Reset() {
	for _, l := range c.lines {
		l.Reset()
	}
}

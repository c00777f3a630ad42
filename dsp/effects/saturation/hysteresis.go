package saturation

import "math"

const maxHysteresisSubsteps = 4

// HysteresisState is the per-channel memory of the magnetic model.
type HysteresisState struct {
	M            float64 // magnetisation
	LastInput    float64 // previous field H
	Anhysteretic float64 // anhysteretic magnetisation at LastInput
}

// Hysteresis is a simplified Jiles–Atherton magnetic model.
//
// The anhysteretic curve Man = Ms·tanh(H/a) is the equilibrium the core
// would settle on without losses. The irreversible part follows
// dM = (Man−M)/(δ·k − α·(Man−M))·ΔH with δ = sign(ΔH): M moves toward Man
// at a rate proportional to |ΔH|/k (k is coercivity), and only while the
// field drives it there. When the field reverses, M stays pinned until Man
// crosses it, so rising and falling halves of a cycle trace different
// paths. A fraction c of the change in Man is applied reversibly. Large
// field steps are sub-stepped and |M| never exceeds Ms.
type Hysteresis struct {
	Ms float64 // saturation magnetisation
	A  float64 // anhysteretic shape
	K  float64 // coercivity
	C  float64 // reversibility in [0, 1)

	// Alpha is the interdomain coupling. Keep Alpha·2·Ms below K.
	Alpha float64

	tanh   func(float64) float64
	states []HysteresisState
}

// NewHysteresis creates a model with tape-like defaults for channels
// channels.
func NewHysteresis(channels int) *Hysteresis {
	return &Hysteresis{
		Ms:     1,
		A:      0.6,
		K:      0.35,
		C:      0.15,
		Alpha:  0.1,
		tanh:   math.Tanh,
		states: make([]HysteresisState, max(channels, 1)),
	}
}

// State returns the state of channel ch.
func (h *Hysteresis) State(ch int) HysteresisState { return h.states[ch] }

// Shape implements Curve.
func (h *Hysteresis) Shape(x float64, ch int) float64 {
	st := &h.states[ch]

	dH := x - st.LastInput

	steps := 1
	if a := math.Abs(dH); a > h.K {
		steps = min(maxHysteresisSubsteps, int(math.Ceil(a/h.K)))
	}

	step := dH / float64(steps)
	H := st.LastInput
	M := st.M
	man := st.Anhysteretic

	delta := 0.0
	if step > 0 {
		delta = 1
	} else if step < 0 {
		delta = -1
	}

	for range steps {
		H += step
		manNew := h.Ms * h.tanh(H/h.A)

		if d := manNew - M; d*delta > 0 {
			k := math.Max(h.K-h.Alpha*math.Abs(d), 0.1*h.K)
			rate := math.Min((1-h.C)*math.Abs(step)/k, 1)
			M += rate * d
		}

		M += h.C * (manNew - man)
		man = manNew
	}

	M = math.Max(-h.Ms, math.Min(h.Ms, M))
	if math.IsNaN(M) {
		M = 0
	}

	st.M = M
	st.LastInput = H
	st.Anhysteretic = man

	return M
}

// Reset clears all channel memory.
func (h *Hysteresis) Reset() { clear(h.states) }

package oversample

import (
	"math"
	"testing"
)

func TestDesignIIRCoefficientsStable(t *testing.T) {
	coeffs, err := designIIR(8, 0.04)
	if err != nil {
		t.Fatal(err)
	}

	for i, c := range coeffs {
		if !(c > 0 && c < 1) {
			t.Fatalf("coeff[%d] = %v outside (0,1)", i, c)
		}

		if i > 0 && c <= coeffs[i-1] {
			t.Fatalf("coefficients not increasing at %d: %v", i, coeffs)
		}
	}

	if att := iirAttenuation(8, 0.04); att < 90 {
		t.Fatalf("attenuation = %v dB, want >= 90", att)
	}
}

func TestDesignIIRRejectsBadParams(t *testing.T) {
	if _, err := designIIR(0, 0.1); err == nil {
		t.Fatal("expected error for zero coefficients")
	}

	if _, err := designIIR(4, 0.5); err == nil {
		t.Fatal("expected error for transition 0.5")
	}
}

func TestDesignFIRHalfBand(t *testing.T) {
	for _, n := range []int{31, 63} {
		h, err := designFIR(n, 80)
		if err != nil {
			t.Fatal(err)
		}

		center := (n - 1) / 2

		var sum float64
		for i, v := range h {
			sum += v

			if d := i - center; d != 0 && d%2 == 0 && v != 0 {
				t.Fatalf("taps=%d: h[%d] = %v, want 0", n, i, v)
			}

			if math.Abs(v-h[n-1-i]) > 1e-15 {
				t.Fatalf("taps=%d: not symmetric at %d", n, i)
			}
		}

		if math.Abs(sum-1) > 1e-12 {
			t.Fatalf("taps=%d: DC gain = %v, want 1", n, sum)
		}
	}

	if _, err := designFIR(32, 80); err == nil {
		t.Fatal("expected error for 32 taps")
	}
}

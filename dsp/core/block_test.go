package core

import "testing"

func TestBlockSliceDoesNotCopy(t *testing.T) {
	b := NewBlock(2, 8)
	view := b.Slice(make(Block, 0, 2), 4)

	if view.Len() != 4 {
		t.Fatalf("len = %d, want 4", view.Len())
	}

	view[1][3] = 7
	if b[1][3] != 7 {
		t.Fatal("view must alias the parent block")
	}
}

func TestWidenNarrow(t *testing.T) {
	src := []float32{0.25, -0.5, 1}
	wide := make([]float64, 3)

	if n := Widen(wide, src); n != 3 {
		t.Fatalf("Widen n = %d, want 3", n)
	}

	out := make([]float32, 2)
	if n := Narrow(out, wide); n != 2 {
		t.Fatalf("Narrow n = %d, want 2", n)
	}

	if out[0] != 0.25 || out[1] != -0.5 {
		t.Fatalf("unexpected output %v", out)
	}
}

func TestBlockCopyAndZero(t *testing.T) {
	dst := NewBlock(2, 3)
	src := Block{{1, 2, 3}, {4, 5, 6}}

	if n := dst.CopyFrom(src); n != 3 {
		t.Fatalf("CopyFrom n = %d, want 3", n)
	}

	dst.Zero()

	for ch := range dst {
		for i, v := range dst[ch] {
			if v != 0 {
				t.Fatalf("dst[%d][%d] = %v, want 0", ch, i, v)
			}
		}
	}
}

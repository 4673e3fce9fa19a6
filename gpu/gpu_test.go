package gpu

import (
	"testing"

	"github.com/lptafa/rstationx/renderer"
)

func TestGP0DrawModePacking(t *testing.T) {
	// End-to-end scenario 6: 0xE1000508 -> draw-to-display, no dithering,
	// depth T15, semi-transparency follows the command.
	g := New(&renderer.Null{})

	if err := g.GP0(0xE1000508); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	status := g.Status()
	if (status>>10)&1 != 1 {
		t.Errorf("bit 10 (draw-to-display) = %d, want 1", (status>>10)&1)
	}
	if (status>>9)&1 != 0 {
		t.Errorf("bit 9 (dithering) = %d, want 0", (status>>9)&1)
	}
	if (status>>7)&3 != 2 {
		t.Errorf("bits 7:8 (depth) = %d, want 2 (T15)", (status>>7)&3)
	}
	wantSemi := uint32((0x0508 >> 5) & 3)
	if (status>>5)&3 != wantSemi {
		t.Errorf("bits 5:6 (semi-transparency) = %d, want %d", (status>>5)&3, wantSemi)
	}
}

func TestGP0QuadRequiresFiveWords(t *testing.T) {
	n := &renderer.Null{}
	g := New(n)

	words := []uint32{0x28000000, 0x00000000, 0x00010001, 0x00010000, 0x00000001}
	for i, w := range words {
		if err := g.GP0(w); err != nil {
			t.Fatalf("word %d: unexpected error: %v", i, err)
		}
		if i < 4 && n.Quads != 0 {
			t.Fatalf("push_quad called early, after word %d", i)
		}
	}
	if n.Quads != 1 {
		t.Fatalf("Quads = %d, want exactly 1", n.Quads)
	}
}

func TestGP0UnknownOpcodeErrors(t *testing.T) {
	g := New(&renderer.Null{})
	if err := g.GP0(0xFF000000); err == nil {
		t.Fatal("expected error for unknown GP0 opcode")
	}
}

func TestGP0DrawingOffsetSignExtends(t *testing.T) {
	g := New(&renderer.Null{})
	// x = 0x7FF (max 11-bit magnitude, sign bit set -> -1), y = 0
	val := uint32(0xE5000000) | 0x7FF
	if err := g.GP0(val); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.drawingOffsetX != -1 {
		t.Errorf("drawingOffsetX = %d, want -1", g.drawingOffsetX)
	}
	if g.drawingOffsetY != 0 {
		t.Errorf("drawingOffsetY = %d, want 0", g.drawingOffsetY)
	}
}

func TestGP1Reset(t *testing.T) {
	g := New(&renderer.Null{})
	_ = g.GP0(0xE1000508) // dirty some state

	if err := g.GP1(0x00000000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fresh := New(&renderer.Null{})
	if g.Status() != fresh.Status() {
		t.Errorf("status after reset = 0x%08x, want fresh status 0x%08x", g.Status(), fresh.Status())
	}
}

func TestGP1DMADirection(t *testing.T) {
	g := New(&renderer.Null{})
	if err := g.GP1(0x04000002); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.dmaDirection != DMACPU2GP0 {
		t.Errorf("dmaDirection = %v, want DMACPU2GP0", g.dmaDirection)
	}
}

func TestGP1DisplayModeUnsupportedReverse(t *testing.T) {
	g := New(&renderer.Null{})
	if err := g.GP1(0x08000080); err == nil {
		t.Fatal("expected error for unsupported reverse display mode bit")
	}
}

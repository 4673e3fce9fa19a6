package memmap

import "testing"

func TestMaskIdempotent(t *testing.T) {
	addrs := []uint32{0x0000_0000, 0x8000_1234, 0xA000_5678, 0xBFC0_0000, 0x1F80_1810, 0xFFFE_0130}
	for _, a := range addrs {
		m1 := Mask(a)
		m2 := Mask(m1)
		if m1 != m2 {
			t.Errorf("Mask(0x%08x) = 0x%08x, Mask(that) = 0x%08x, not idempotent", a, m1, m2)
		}
	}
}

func TestMaskCollapsesSegments(t *testing.T) {
	// KUSEG, KSEG0, KSEG1 views of RAM address 0x1234 all collapse to the
	// same physical offset.
	kuseg := uint32(0x0000_1234)
	kseg0 := uint32(0x8000_1234)
	kseg1 := uint32(0xA000_1234)
	if Mask(kuseg) != 0x1234 || Mask(kseg0) != 0x1234 || Mask(kseg1) != 0x1234 {
		t.Fatalf("expected all three segment views to mask to 0x1234, got %#x %#x %#x",
			Mask(kuseg), Mask(kseg0), Mask(kseg1))
	}
}

func TestLookupRegions(t *testing.T) {
	cases := []struct {
		addr   uint32
		region Region
		offset uint32
	}{
		{0x0000_0000, RAM, 0},
		{0x801F_FFFF, RAM, 0x1F_FFFF},
		{0xBFC0_0000, BIOS, 0},
		{0xBFC7_FFFF, BIOS, 512*1024 - 1},
		{0x9F80_1080, DMA, 0},
		{0x9F80_10F0, DMA, 0x70},
		{0x9F80_1810, GPU, 0},
		{0x9F80_1814, GPU, 4},
		{0xFFFE_0130, CacheControl, 0},
	}
	for _, c := range cases {
		r, off, err := Lookup(c.addr)
		if err != nil {
			t.Errorf("Lookup(0x%08x) returned error: %v", c.addr, err)
			continue
		}
		if r != c.region || off != c.offset {
			t.Errorf("Lookup(0x%08x) = (%v, 0x%x), want (%v, 0x%x)", c.addr, r, off, c.region, c.offset)
		}
	}
}

func TestLookupUnmapped(t *testing.T) {
	if _, _, err := Lookup(0x1F80_0000); err == nil {
		t.Error("expected error for unmapped address, got nil")
	}
}

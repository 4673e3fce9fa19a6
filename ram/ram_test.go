package ram

import "testing"

func TestLoadStoreRoundTrip(t *testing.T) {
	r := New()

	r.StoreByte(0x10, 0xAB)
	if got := r.LoadByte(0x10); got != 0xAB {
		t.Errorf("byte round trip: got 0x%02x, want 0xab", got)
	}

	r.StoreHalf(0x20, 0xBEEF)
	if got := r.LoadHalf(0x20); got != 0xBEEF {
		t.Errorf("half round trip: got 0x%04x, want 0xbeef", got)
	}

	r.StoreWord(0x100, 0xDEADBEEF)
	if got := r.LoadWord(0x100); got != 0xDEADBEEF {
		t.Errorf("word round trip: got 0x%08x, want 0xdeadbeef", got)
	}
}

func TestLittleEndianLayout(t *testing.T) {
	r := New()
	r.StoreWord(0, 0x12345678)
	if r.LoadByte(0) != 0x78 || r.LoadByte(1) != 0x56 || r.LoadByte(2) != 0x34 || r.LoadByte(3) != 0x12 {
		t.Fatalf("expected little-endian byte layout, got %02x %02x %02x %02x",
			r.LoadByte(0), r.LoadByte(1), r.LoadByte(2), r.LoadByte(3))
	}
}

func TestSize(t *testing.T) {
	r := New()
	if len(r.data) != Size {
		t.Fatalf("expected %d bytes, got %d", Size, len(r.data))
	}
}

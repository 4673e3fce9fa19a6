package bus

import (
	"bytes"
	"io"
	"log/slog"
	"testing"

	"github.com/lptafa/rstationx/bios"
	"github.com/lptafa/rstationx/dma"
	"github.com/lptafa/rstationx/gpu"
	"github.com/lptafa/rstationx/renderer"
)

func newTestBus(t *testing.T) *Bus {
	t.Helper()
	img, err := bios.Load(bytes.NewReader(make([]byte, 512*1024)))
	if err != nil {
		t.Fatalf("bios.Load: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(img, gpu.New(&renderer.Null{}), log)
}

func TestRAMRoundTripThroughKSEG0(t *testing.T) {
	b := newTestBus(t)
	if err := b.StoreWord(0x8000_0100, 0x1234_5678); err != nil {
		t.Fatalf("StoreWord: %v", err)
	}
	v, err := b.LoadWord(0x8000_0100)
	if err != nil {
		t.Fatalf("LoadWord: %v", err)
	}
	if v != 0x1234_5678 {
		t.Fatalf("got 0x%08x, want 0x12345678", v)
	}
	// Same physical RAM cell seen through KUSEG.
	v, err = b.LoadWord(0x0000_0100)
	if err != nil {
		t.Fatalf("LoadWord: %v", err)
	}
	if v != 0x1234_5678 {
		t.Fatalf("got 0x%08x through KUSEG, want 0x12345678", v)
	}
}

func TestBIOSRejectsStore(t *testing.T) {
	b := newTestBus(t)
	if err := b.StoreWord(0xBFC0_0000, 0x1); err == nil {
		t.Fatal("expected error storing to BIOS")
	}
}

func TestMemControlRejectsBadExpansion1Base(t *testing.T) {
	b := newTestBus(t)
	if err := b.StoreWord(0x1F80_1000, 0xDEAD_BEEF); err == nil {
		t.Fatal("expected error for bad Expansion1 base literal")
	}
	if err := b.StoreWord(0x1F80_1000, 0x1F00_0000); err != nil {
		t.Fatalf("expected correct literal to be accepted: %v", err)
	}
}

func TestExpansion1ReadsOpenBus(t *testing.T) {
	b := newTestBus(t)
	v, err := b.LoadWord(0x1F00_0000)
	if err != nil {
		t.Fatalf("LoadWord: %v", err)
	}
	if v != 0xFFFF_FFFF {
		t.Fatalf("got 0x%08x, want open-bus 0xffffffff", v)
	}
}

func TestGPURegistersRouteThroughBus(t *testing.T) {
	b := newTestBus(t)
	if err := b.StoreWord(0x1F80_1810, 0xE1000508); err != nil {
		t.Fatalf("gp0 store: %v", err)
	}
	status, err := b.LoadWord(0x1F80_1814)
	if err != nil {
		t.Fatalf("status load: %v", err)
	}
	if (status>>10)&1 != 1 {
		t.Fatalf("status draw-to-display bit = %d, want 1", (status>>10)&1)
	}
}

// End-to-end scenario 5: OTC channel block transfer writes a descending
// linked list terminating at 0x00FFFFFF.
func TestOTCBlockTransfer(t *testing.T) {
	b := newTestBus(t)

	otcBase := uint32(0x1F80_1080) + uint32(dma.OTC)<<4
	if err := b.StoreWord(otcBase+0x0, 0x100); err != nil { // base
		t.Fatalf("set base: %v", err)
	}
	if err := b.StoreWord(otcBase+0x4, 4); err != nil { // block_control: size=4, count=0
		t.Fatalf("set block control: %v", err)
	}
	// control: direction ToDevice(0), address mode Increment(0), sync Manual(0),
	// enable (bit24) + manual trigger (bit28).
	if err := b.StoreWord(otcBase+0x8, (1<<24)|(1<<28)); err != nil {
		t.Fatalf("set control: %v", err)
	}

	want := []uint32{0x0000_00FC, 0x0000_0100, 0x0000_0104, 0x00FF_FFFF}
	for i, w := range want {
		addr := uint32(0x100 + i*4)
		got, err := b.LoadWord(addr)
		if err != nil {
			t.Fatalf("LoadWord(0x%x): %v", addr, err)
		}
		if got != w {
			t.Errorf("RAM[0x%x] = 0x%08x, want 0x%08x", addr, got, w)
		}
	}

	ch := b.dma.Channel(dma.OTC)
	if ch.Active() {
		t.Fatal("channel still active after transfer, want set_finished to have cleared it")
	}
}

// A linked-list node whose next-pointer refers back to itself would spin
// forever without the bounded node budget; runLinkedListTransfer must
// detect it and fail instead of hanging.
func TestGPULinkedListCycleIsBounded(t *testing.T) {
	b := newTestBus(t)

	const node = 0x200
	if err := b.StoreWord(node, node); err != nil { // length=0, no terminator, next=self
		t.Fatalf("seed node: %v", err)
	}

	gpuBase := uint32(0x1F80_1080) + uint32(dma.GPU)<<4
	if err := b.StoreWord(gpuBase+0x0, node); err != nil { // base
		t.Fatalf("set base: %v", err)
	}
	// control: direction ToDevice(0), sync LinkedList(2), enable (bit24).
	if err := b.StoreWord(gpuBase+0x8, (2<<9)|(1<<24)); err == nil {
		t.Fatal("expected the cyclic linked list to be rejected")
	}
}

func TestMisalignedWordLoadErrors(t *testing.T) {
	b := newTestBus(t)
	if _, err := b.LoadWord(0x8000_0001); err == nil {
		t.Fatal("expected alignment error")
	}
}

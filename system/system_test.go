package system

import (
	"bytes"
	"encoding/binary"
	"io"
	"log/slog"
	"testing"

	"github.com/lptafa/rstationx/bios"
	"github.com/lptafa/rstationx/renderer"
)

func newTestSystem(t *testing.T, words ...uint32) *System {
	t.Helper()
	buf := make([]byte, 512*1024)
	for i, w := range words {
		binary.LittleEndian.PutUint32(buf[i*4:], w)
	}
	img, err := bios.Load(bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("bios.Load: %v", err)
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(img, &renderer.Null{}, log)
}

func TestBootFetchesFromBIOSResetVector(t *testing.T) {
	s := newTestSystem(t,
		0x3C081234, // lui $t0, 0x1234
		0x35085678, // ori $t0, $t0, 0x5678
	)

	if got := s.CPU.PC(); got != 0xBFC0_0000 {
		t.Fatalf("initial pc = 0x%08x, want BIOS reset vector", got)
	}

	if err := s.Step(); err != nil {
		t.Fatalf("step 1: %v", err)
	}
	if err := s.Step(); err != nil {
		t.Fatalf("step 2: %v", err)
	}
	if got := s.CPU.Reg(8); got != 0x1234_5678 {
		t.Fatalf("R8 = 0x%08x, want 0x12345678", got)
	}
}

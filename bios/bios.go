// Package bios implements the PSX BIOS image: a 512 KiB read-only store
// loaded from a file at startup, per spec sections 4.2 and 6.
package bios

import (
	"fmt"
	"io"
)

const Size = 512 * 1024

type BIOS struct {
	data []uint8
}

// Load reads exactly Size bytes from r. Any other length is a fatal
// configuration error, mirroring the size-validated-header pattern the
// teacher's ROM loader uses for iNES headers.
func Load(r io.Reader) (*BIOS, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("bios: read failed: %w", err)
	}
	if len(data) != Size {
		return nil, fmt.Errorf("bios: image must be exactly %d bytes, got %d", Size, len(data))
	}
	return &BIOS{data: data}, nil
}

func (b *BIOS) LoadByte(offset uint32) uint8 {
	return b.data[offset]
}

func (b *BIOS) LoadHalf(offset uint32) uint16 {
	return uint16(b.data[offset]) | uint16(b.data[offset+1])<<8
}

func (b *BIOS) LoadWord(offset uint32) uint32 {
	return uint32(b.data[offset]) |
		uint32(b.data[offset+1])<<8 |
		uint32(b.data[offset+2])<<16 |
		uint32(b.data[offset+3])<<24
}

// ErrReadOnly is returned by the bus when a store targets the BIOS region;
// BIOS itself exposes no store method, so this exists purely as the bus's
// error value (spec 4.2: "raised as an error by the bus, not by BIOS").
var ErrReadOnly = fmt.Errorf("bios: store to read-only region")

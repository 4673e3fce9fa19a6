// Package bus implements the system bus described in spec section 4.3: it
// owns RAM, BIOS, the DMA controller, and the GPU, and is the sole
// dispatch point for every load/store the CPU issues. Because it is the
// only component with simultaneous access to RAM and the GPU, it is also
// where the DMA engine's block and linked-list transfer algorithms
// (spec section 4.4) run — the dma package models the registers, the bus
// walks memory.
package bus

import (
	"fmt"
	"log/slog"

	"github.com/lptafa/rstationx/bios"
	"github.com/lptafa/rstationx/dma"
	"github.com/lptafa/rstationx/gpu"
	"github.com/lptafa/rstationx/memmap"
	"github.com/lptafa/rstationx/ram"
)

// Bus is the central load/store dispatcher the cpu.Bus interface is
// satisfied against.
type Bus struct {
	ram  *ram.RAM
	bios *bios.BIOS
	dma  *dma.Controller
	gpu  *gpu.GPU
	log  *slog.Logger
}

// New returns a Bus wired to the given BIOS image and GPU renderer,
// owning a fresh RAM and DMA controller.
func New(biosImage *bios.BIOS, g *gpu.GPU, log *slog.Logger) *Bus {
	return &Bus{
		ram:  ram.New(),
		bios: biosImage,
		dma:  dma.New(),
		gpu:  g,
		log:  log,
	}
}

// GPU exposes the GPU for the renderer-facing presentation loop.
func (b *Bus) GPU() *gpu.GPU { return b.gpu }

func alignErr(addr, size uint32) error {
	return fmt.Errorf("bus: misaligned access at 0x%08x (size %d)", addr, size)
}

// LoadByte reads one byte, per spec 4.3's dispatch algorithm.
func (b *Bus) LoadByte(addr uint32) (uint8, error) {
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return 0, err
	}
	switch region {
	case memmap.RAM:
		return b.ram.LoadByte(offset), nil
	case memmap.BIOS:
		return b.bios.LoadByte(offset), nil
	case memmap.Expansion1:
		return 0xFF, nil
	default:
		w, err := b.loadRegisterWord(region, offset&^3)
		if err != nil {
			return 0, err
		}
		return uint8(w >> ((offset & 3) * 8)), nil
	}
}

// LoadHalf reads one little-endian halfword, per spec 4.3.
func (b *Bus) LoadHalf(addr uint32) (uint16, error) {
	if addr%2 != 0 {
		return 0, alignErr(addr, 2)
	}
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return 0, err
	}
	switch region {
	case memmap.RAM:
		return b.ram.LoadHalf(offset), nil
	case memmap.BIOS:
		return b.bios.LoadHalf(offset), nil
	case memmap.Expansion1:
		return 0xFFFF, nil
	default:
		w, err := b.loadRegisterWord(region, offset&^3)
		if err != nil {
			return 0, err
		}
		return uint16(w >> ((offset & 2) * 8)), nil
	}
}

// LoadWord reads one little-endian word, per spec 4.3.
func (b *Bus) LoadWord(addr uint32) (uint32, error) {
	if addr%4 != 0 {
		return 0, alignErr(addr, 4)
	}
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return 0, err
	}
	switch region {
	case memmap.RAM:
		return b.ram.LoadWord(offset), nil
	case memmap.BIOS:
		return b.bios.LoadWord(offset), nil
	case memmap.Expansion1:
		return 0xFFFF_FFFF, nil
	default:
		return b.loadRegisterWord(region, offset)
	}
}

// loadRegisterWord handles every region whose authoritative access
// granularity is a 32-bit register, per spec 4.3's per-region table.
func (b *Bus) loadRegisterWord(region memmap.Region, offset uint32) (uint32, error) {
	switch region {
	case memmap.MemControl, memmap.Expansion2, memmap.RAMSize, memmap.CacheControl:
		return 0, nil
	case memmap.IRQControl, memmap.Timers, memmap.SPU:
		return 0, nil
	case memmap.DMA:
		return b.loadDMA(offset), nil
	case memmap.GPU:
		switch offset {
		case 0:
			return b.gpu.Read(), nil
		case 4:
			return b.gpu.Status(), nil
		default:
			return 0, fmt.Errorf("bus: unhandled GPU register read at offset %d", offset)
		}
	default:
		return 0, fmt.Errorf("bus: unhandled load in region %s offset 0x%x", region, offset)
	}
}

// StoreByte writes one byte. Only RAM stores the value; byte writes to
// Expansion2 are logged and discarded, and a byte store to any other
// region is an error.
func (b *Bus) StoreByte(addr uint32, v uint8) error {
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return err
	}
	switch region {
	case memmap.RAM:
		b.ram.StoreByte(offset, v)
		return nil
	case memmap.BIOS:
		return bios.ErrReadOnly
	case memmap.Expansion2:
		b.log.Debug("unhandled store to Expansion2", "offset", offset, "value", v)
		return nil
	default:
		return fmt.Errorf("bus: unhandled byte store in region %s offset 0x%x", region, offset)
	}
}

// StoreHalf writes one little-endian halfword.
func (b *Bus) StoreHalf(addr uint32, v uint16) error {
	if addr%2 != 0 {
		return alignErr(addr, 2)
	}
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return err
	}
	switch region {
	case memmap.RAM:
		b.ram.StoreHalf(offset, v)
		return nil
	case memmap.BIOS:
		return bios.ErrReadOnly
	case memmap.SPU, memmap.Timers, memmap.IRQControl:
		b.log.Debug("unhandled store to register region", "region", region, "offset", offset, "value", v)
		return nil
	default:
		return fmt.Errorf("bus: unhandled half store in region %s offset 0x%x", region, offset)
	}
}

// StoreWord writes one little-endian word, per spec 4.3's authoritative
// per-region behaviors.
func (b *Bus) StoreWord(addr uint32, v uint32) error {
	if addr%4 != 0 {
		return alignErr(addr, 4)
	}
	region, offset, err := memmap.Lookup(addr)
	if err != nil {
		return err
	}
	switch region {
	case memmap.RAM:
		b.ram.StoreWord(offset, v)
		return nil
	case memmap.BIOS:
		return bios.ErrReadOnly
	case memmap.MemControl:
		return b.storeMemControl(offset, v)
	case memmap.RAMSize, memmap.CacheControl, memmap.Expansion2:
		return nil
	case memmap.IRQControl, memmap.Timers, memmap.SPU:
		b.log.Debug("unhandled store to register region", "region", region, "offset", offset, "value", v)
		return nil
	case memmap.DMA:
		return b.storeDMA(offset, v)
	case memmap.GPU:
		switch offset {
		case 0:
			return b.gpu.GP0(v)
		case 4:
			return b.gpu.GP1(v)
		default:
			return fmt.Errorf("bus: unhandled GPU register write at offset %d", offset)
		}
	default:
		return fmt.Errorf("bus: unhandled word store in region %s offset 0x%x", region, offset)
	}
}

func (b *Bus) storeMemControl(offset, v uint32) error {
	switch offset {
	case 0:
		if v != 0x1F00_0000 {
			return fmt.Errorf("bus: bad Expansion1 base 0x%08x", v)
		}
	case 4:
		if v != 0x1F80_2000 {
			return fmt.Errorf("bus: bad Expansion2 base 0x%08x", v)
		}
	}
	return nil
}

package bus

import (
	"fmt"

	"github.com/lptafa/rstationx/dma"
)

// loadDMA reads the DMA register at offset = (major<<4)|minor, per spec
// 4.4's addressing scheme.
func (b *Bus) loadDMA(offset uint32) uint32 {
	major := offset >> 4
	minor := offset & 0xF

	if major == 7 {
		switch minor {
		case 0:
			return b.dma.Control
		case 4:
			return b.dma.Interrupt()
		default:
			return 0
		}
	}

	port, err := dma.PortFromIndex(major)
	if err != nil {
		return 0
	}
	ch := b.dma.Channel(port)
	switch minor {
	case 0:
		return ch.Base
	case 4:
		return ch.BlockControl()
	case 8:
		return ch.Control()
	default:
		return 0
	}
}

// storeDMA writes the DMA register at offset, triggering a synchronous
// transfer when the write makes a channel newly active, per spec 4.4.
func (b *Bus) storeDMA(offset, v uint32) error {
	major := offset >> 4
	minor := offset & 0xF

	if major == 7 {
		switch minor {
		case 0:
			b.dma.Control = v
		case 4:
			b.dma.SetInterrupt(v)
		}
		return nil
	}

	port, err := dma.PortFromIndex(major)
	if err != nil {
		return fmt.Errorf("bus: dma: %w", err)
	}
	ch := b.dma.Channel(port)

	wasActive := ch.Active()
	switch minor {
	case 0:
		ch.SetBase(v)
	case 4:
		ch.SetBlockControl(v)
	case 8:
		ch.SetControl(v)
	default:
		return fmt.Errorf("bus: dma: unhandled channel register at minor offset %d", minor)
	}

	if !wasActive && ch.Active() {
		return b.runTransfer(port, ch)
	}
	return nil
}

// runTransfer dispatches to the block or linked-list transfer walk
// appropriate to the channel's sync mode, per spec 4.4. It runs
// synchronously and atomically from the program's perspective: no CPU
// instruction is interleaved while it executes.
func (b *Bus) runTransfer(port dma.Port, ch *dma.Channel) error {
	switch ch.SyncMode {
	case dma.Manual, dma.Request:
		return b.runBlockTransfer(port, ch)
	case dma.LinkedList:
		return b.runLinkedListTransfer(port, ch)
	default:
		return fmt.Errorf("bus: dma: invalid sync mode %v", ch.SyncMode)
	}
}

// runBlockTransfer walks a Manual or Request transfer word by word, per
// spec 4.4.
func (b *Bus) runBlockTransfer(port dma.Port, ch *dma.Channel) error {
	var remaining uint32
	if ch.SyncMode == dma.Manual {
		remaining = uint32(ch.BlockSize)
	} else {
		remaining = uint32(ch.BlockCount) * uint32(ch.BlockSize)
	}

	step := uint32(4)
	if ch.AddressMode == dma.Decrement {
		step = ^uint32(4) + 1 // -4, wrapping
	}

	addr := ch.Base
	for remaining > 0 {
		current := addr & 0x1F_FFFC

		switch ch.Direction {
		case dma.ToDevice:
			if port != dma.OTC {
				return fmt.Errorf("bus: dma: port %s does not support ToDevice block transfer", port)
			}
			var word uint32
			if remaining == 1 {
				word = 0x00FF_FFFF
			} else {
				word = (addr - 4) & 0x1F_FFFF
			}
			b.ram.StoreWord(current, word)
		case dma.FromDevice:
			if port != dma.GPU {
				return fmt.Errorf("bus: dma: port %s does not support FromDevice block transfer", port)
			}
			word := b.ram.LoadWord(current)
			if err := b.gpu.GP0(word); err != nil {
				return err
			}
		}

		addr += step
		remaining--
	}

	ch.SetFinished()
	return nil
}

// runLinkedListTransfer walks a GPU ToDevice LinkedList transfer, per spec
// 4.4: each node is a header word (high byte is a word count) followed by
// that many command words, forwarded to gpu.GP0.
func (b *Bus) runLinkedListTransfer(port dma.Port, ch *dma.Channel) error {
	if port != dma.GPU || ch.Direction != dma.ToDevice {
		return fmt.Errorf("bus: dma: linked-list transfer is only valid on GPU/ToDevice")
	}

	addr := ch.Base & 0x1F_FFFC
	for nodes := 0; ; nodes++ {
		if nodes >= dma.MaxLinkedListNodes {
			b.log.Error("dma: linked-list transfer exceeded node budget, aborting", "base", ch.Base, "limit", dma.MaxLinkedListNodes)
			return fmt.Errorf("bus: dma: linked-list transfer exceeded %d nodes, likely a cycle", dma.MaxLinkedListNodes)
		}

		header := b.ram.LoadWord(addr)
		length := header >> 24

		for i := uint32(0); i < length; i++ {
			addr = (addr + 4) & 0x1F_FFFC
			word := b.ram.LoadWord(addr)
			if err := b.gpu.GP0(word); err != nil {
				return err
			}
		}

		if header&0x80_0000 != 0 {
			break
		}
		addr = header & 0x1F_FFFC
	}

	ch.SetFinished()
	return nil
}

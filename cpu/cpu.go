// Package cpu implements the MIPS R3000A interpreter: register file,
// branch/load delay slots, the COP0 system-control subset, exception
// entry, and the ~60-opcode instruction set, per spec section 4.6. It is
// the hot path of the machine (spec section 2 budgets it at 40% of the
// implementation), so opcode dispatch uses a plain switch rather than the
// teacher's reflect.ValueOf(...).MethodByName dispatch — both are
// table-driven in spirit (spec section 9's "command parser as data, not
// inheritance" note applies here too), but reflection has no place on
// this particular hot path.
package cpu

import (
	"fmt"

	"github.com/lptafa/rstationx/instruction"
)

// Bus is the narrow load/store surface the CPU drives. It matches
// spec 4.3's Result-returning load<T>/store<T> contract; bus.Bus
// satisfies it.
type Bus interface {
	LoadByte(addr uint32) (uint8, error)
	LoadHalf(addr uint32) (uint16, error)
	LoadWord(addr uint32) (uint32, error)
	StoreByte(addr uint32, v uint8) error
	StoreHalf(addr uint32, v uint16) error
	StoreWord(addr uint32, v uint32) error
}

// Exception codes, per spec 4.6.
const (
	ExcInterrupt          = 0
	ExcAddressErrorLoad   = 4
	ExcAddressErrorStore  = 5
	ExcBusErrorFetch      = 6
	ExcBusErrorLoad       = 7
	ExcSyscall            = 8
	ExcBreak              = 9
	ExcIllegalInstruction = 10
	ExcCoprocessorError   = 11
	ExcOverflow           = 12
)

const (
	srCacheIsolated = 1 << 16
	srBEV           = 1 << 22
)

// CPU is the R3000A register/COP0 state described in spec section 3.
type CPU struct {
	regs [32]uint32

	pc, currentPC, nextPC uint32

	pendingReg   uint32
	pendingValue uint32
	pendingValid bool

	// flush holds the previous instruction's pending load while the
	// current instruction executes: not yet committed to regs (so
	// ordinary Reg reads don't see it), but still visible to the lwl/lwr
	// same-register bypass via currentRt, matching the real R3000A's
	// load-delay forwarding for unaligned-load merges.
	flushReg   uint32
	flushValue uint32
	flushValid bool

	writtenReg   uint32
	writtenValid bool

	branch, delay bool

	hi, lo uint32

	sr, cause, epc uint32

	instrCount uint64

	bus Bus
}

// New returns a CPU that fetches through bus, with pc/nextPC pointed at
// the BIOS reset vector.
func New(bus Bus) *CPU {
	c := &CPU{bus: bus}
	c.pc = 0xBFC0_0000
	c.nextPC = c.pc + 4
	return c
}

// Reg returns register i (R[0] always reads 0).
func (c *CPU) Reg(i uint32) uint32 {
	if i == 0 {
		return 0
	}
	return c.regs[i]
}

// setReg writes register i, discarding writes to R[0] per spec's
// hardwired-zero invariant. It records the destination so Step can tell,
// at end of instruction, whether this instruction's own write should
// take precedence over a same-cycle load-delay flush targeting the same
// register.
func (c *CPU) setReg(i, v uint32) {
	c.writtenReg = i
	c.writtenValid = true
	if i == 0 {
		return
	}
	c.regs[i] = v
}

// PC returns the next fetch target.
func (c *CPU) PC() uint32 { return c.pc }

// SetPC overrides the fetch target, used by the debug console.
func (c *CPU) SetPC(pc uint32) {
	c.pc = pc
	c.nextPC = pc + 4
}

// InstrCount returns the diagnostic instruction counter.
func (c *CPU) InstrCount() uint64 { return c.instrCount }

// String renders a one-line register dump, styled on mos6502.cpu.String,
// used both by the fatal-error path and the interactive debug console.
func (c *CPU) String() string {
	return fmt.Sprintf("pc=%08x next_pc=%08x sr=%08x cause=%08x epc=%08x hi=%08x lo=%08x instrs=%d",
		c.pc, c.nextPC, c.sr, c.cause, c.epc, c.hi, c.lo, c.instrCount)
}

// queueLoad replaces the pending load-delay pair. Per spec 4.6, at most
// one pending load exists: a second load before the first commits simply
// replaces it (delayed_load_chain).
func (c *CPU) queueLoad(reg, value uint32) {
	if c.flushValid && c.flushReg == reg {
		c.flushValid = false
	}
	c.pendingReg = reg
	c.pendingValue = value
	c.pendingValid = true
}

// commitReg writes a flushed load-delay value straight into the register
// file, bypassing the writtenReg bookkeeping setReg does for the
// currently-executing instruction.
func (c *CPU) commitReg(i, v uint32) {
	if i != 0 {
		c.regs[i] = v
	}
}

// Step advances the CPU by exactly one instruction, per spec 4.6's step
// algorithm. A returned error is always a taxon-2 "unimplemented
// behavior" condition (spec 7) — architectural exceptions are handled
// internally and never surface here.
func (c *CPU) Step() error {
	c.currentPC = c.pc

	if c.currentPC%4 != 0 {
		c.exception(ExcAddressErrorLoad)
		return nil
	}

	word, err := c.bus.LoadWord(c.currentPC)
	if err != nil {
		return fmt.Errorf("cpu: instruction fetch at 0x%08x: %w", c.currentPC, err)
	}

	c.pc = c.nextPC
	c.nextPC += 4

	c.delay = c.branch
	c.branch = false

	// Snapshot and clear the pending load before decode: this instruction's
	// own register reads (via Reg) must see the file as it stood before the
	// flush, which is the entire point of the load-delay slot (the
	// instruction immediately after a load never observes the loaded
	// value). The snapshot is written into the file only after execute
	// returns, so the loaded value first becomes visible to the
	// instruction *after* this one.
	c.flushReg, c.flushValue, c.flushValid = c.pendingReg, c.pendingValue, c.pendingValid
	c.pendingValid = false
	c.writtenValid = false

	c.instrCount++

	err = c.execute(instruction.Instruction(word))

	// If this instruction itself wrote the same register the stale load
	// was about to flush into, its own write wins: apply the flush only
	// when it wasn't just overwritten.
	if c.flushValid && !(c.writtenValid && c.writtenReg == c.flushReg) {
		c.commitReg(c.flushReg, c.flushValue)
	}
	c.flushValid = false

	return err
}

// exception redirects control to the exception handler, per spec 4.6.
func (c *CPU) exception(code uint32) {
	var handler uint32 = 0x8000_0080
	if c.sr&srBEV != 0 {
		handler = 0xBFC0_0180
	}

	mode := c.sr & 0x3F
	c.sr = (c.sr &^ 0x3F) | ((mode << 2) & 0x3F)

	c.cause = (c.cause &^ 0x7C) | (code << 2)

	if c.delay {
		c.epc = c.currentPC + 4
		c.cause |= 1 << 31
	} else {
		c.epc = c.currentPC
		c.cause &^= 1 << 31
	}

	c.pc = handler
	c.nextPC = handler + 4
}

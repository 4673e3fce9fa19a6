package cpu

import "github.com/lptafa/rstationx/instruction"

// execute decodes and dispatches the primary opcode, per spec 4.6's
// instruction table.
func (c *CPU) execute(i instruction.Instruction) error {
	switch i.Opcode() {
	case 0x00:
		return c.special(i)
	case 0x01:
		return c.opBcondz(i)
	case 0x02:
		return c.opJ(i)
	case 0x03:
		return c.opJal(i)
	case 0x04:
		return c.opBeq(i)
	case 0x05:
		return c.opBne(i)
	case 0x06:
		return c.opBlez(i)
	case 0x07:
		return c.opBgtz(i)
	case 0x08:
		return c.opAddi(i)
	case 0x09:
		return c.opAddiu(i)
	case 0x0A:
		return c.opSlti(i)
	case 0x0B:
		return c.opSltiu(i)
	case 0x0C:
		return c.opAndi(i)
	case 0x0D:
		return c.opOri(i)
	case 0x0E:
		return c.opXori(i)
	case 0x0F:
		return c.opLui(i)
	case 0x10:
		return c.opCop0(i)
	case 0x11, 0x13:
		c.exception(ExcCoprocessorError)
		return nil
	case 0x12:
		c.exception(ExcCoprocessorError)
		return nil
	case 0x20:
		return c.opLb(i)
	case 0x21:
		return c.opLh(i)
	case 0x22:
		return c.opLwl(i)
	case 0x23:
		return c.opLw(i)
	case 0x24:
		return c.opLbu(i)
	case 0x25:
		return c.opLhu(i)
	case 0x26:
		return c.opLwr(i)
	case 0x28:
		return c.opSb(i)
	case 0x29:
		return c.opSh(i)
	case 0x2A:
		return c.opSwl(i)
	case 0x2B:
		return c.opSw(i)
	case 0x2E:
		return c.opSwr(i)
	case 0x32, 0x3A:
		// lwc2/swc2: GTE is out of scope (spec non-goal), modeled as a
		// coprocessor-unusable exception.
		c.exception(ExcCoprocessorError)
		return nil
	default:
		c.exception(ExcIllegalInstruction)
		return nil
	}
}

// special dispatches the secondary (function) field when the primary
// opcode is 0x00, per spec 4.6.
func (c *CPU) special(i instruction.Instruction) error {
	switch i.Funct() {
	case 0x00:
		return c.opSll(i)
	case 0x02:
		return c.opSrl(i)
	case 0x03:
		return c.opSra(i)
	case 0x04:
		return c.opSllv(i)
	case 0x06:
		return c.opSrlv(i)
	case 0x07:
		return c.opSrav(i)
	case 0x08:
		return c.opJr(i)
	case 0x09:
		return c.opJalr(i)
	case 0x0C:
		c.exception(ExcSyscall)
		return nil
	case 0x0D:
		c.exception(ExcBreak)
		return nil
	case 0x10:
		return c.opMfhi(i)
	case 0x11:
		return c.opMthi(i)
	case 0x12:
		return c.opMflo(i)
	case 0x13:
		return c.opMtlo(i)
	case 0x18:
		return c.opMult(i)
	case 0x19:
		return c.opMultu(i)
	case 0x1A:
		return c.opDiv(i)
	case 0x1B:
		return c.opDivu(i)
	case 0x20:
		return c.opAdd(i)
	case 0x21:
		return c.opAddu(i)
	case 0x22:
		return c.opSub(i)
	case 0x23:
		return c.opSubu(i)
	case 0x24:
		return c.opAnd(i)
	case 0x25:
		return c.opOr(i)
	case 0x26:
		return c.opXor(i)
	case 0x27:
		return c.opNor(i)
	case 0x2A:
		return c.opSlt(i)
	case 0x2B:
		return c.opSltu(i)
	default:
		c.exception(ExcIllegalInstruction)
		return nil
	}
}

// branchTo sets next_pc to a PC-relative target, marking branch taken.
// target is already expressed as an absolute address.
func (c *CPU) branchTo(target uint32) {
	c.nextPC = target
	c.branch = true
}

// --- branches & jumps ---

func (c *CPU) opBcondz(i instruction.Instruction) error {
	s := int32(c.Reg(i.Rs()))

	bgez := i.Rt()&0x01 != 0
	link := i.Rt()&0x10 != 0

	test := uint32(0)
	if s < 0 {
		test = 1
	}
	taken := (test == 1) != bgez

	if link {
		c.setReg(31, c.nextPC)
	}

	if taken {
		c.branchTo(c.pc + (i.ImmSE() << 2))
	}
	return nil
}

func (c *CPU) opJ(i instruction.Instruction) error {
	c.branchTo((c.pc & 0xF000_0000) | (i.Target() << 2))
	return nil
}

func (c *CPU) opJal(i instruction.Instruction) error {
	c.setReg(31, c.nextPC)
	return c.opJ(i)
}

func (c *CPU) opBeq(i instruction.Instruction) error {
	if c.Reg(i.Rs()) == c.Reg(i.Rt()) {
		c.branchTo(c.pc + (i.ImmSE() << 2))
	}
	return nil
}

func (c *CPU) opBne(i instruction.Instruction) error {
	if c.Reg(i.Rs()) != c.Reg(i.Rt()) {
		c.branchTo(c.pc + (i.ImmSE() << 2))
	}
	return nil
}

func (c *CPU) opBlez(i instruction.Instruction) error {
	if int32(c.Reg(i.Rs())) <= 0 {
		c.branchTo(c.pc + (i.ImmSE() << 2))
	}
	return nil
}

func (c *CPU) opBgtz(i instruction.Instruction) error {
	if int32(c.Reg(i.Rs())) > 0 {
		c.branchTo(c.pc + (i.ImmSE() << 2))
	}
	return nil
}

func (c *CPU) opJr(i instruction.Instruction) error {
	c.branchTo(c.Reg(i.Rs()))
	return nil
}

func (c *CPU) opJalr(i instruction.Instruction) error {
	ra := c.nextPC
	c.branchTo(c.Reg(i.Rs()))
	c.setReg(i.Rd(), ra)
	return nil
}

// --- immediate arithmetic/logic ---

func (c *CPU) opAddi(i instruction.Instruction) error {
	s := int32(c.Reg(i.Rs()))
	imm := int32(i.ImmSE())
	v := s + imm
	if overflowsAdd(s, imm, v) {
		c.exception(ExcOverflow)
		return nil
	}
	c.setReg(i.Rt(), uint32(v))
	return nil
}

func (c *CPU) opAddiu(i instruction.Instruction) error {
	c.setReg(i.Rt(), c.Reg(i.Rs())+i.ImmSE())
	return nil
}

func (c *CPU) opSlti(i instruction.Instruction) error {
	v := uint32(0)
	if int32(c.Reg(i.Rs())) < int32(i.ImmSE()) {
		v = 1
	}
	c.setReg(i.Rt(), v)
	return nil
}

func (c *CPU) opSltiu(i instruction.Instruction) error {
	v := uint32(0)
	if c.Reg(i.Rs()) < i.ImmSE() {
		v = 1
	}
	c.setReg(i.Rt(), v)
	return nil
}

func (c *CPU) opAndi(i instruction.Instruction) error {
	c.setReg(i.Rt(), c.Reg(i.Rs())&i.Imm())
	return nil
}

func (c *CPU) opOri(i instruction.Instruction) error {
	c.setReg(i.Rt(), c.Reg(i.Rs())|i.Imm())
	return nil
}

func (c *CPU) opXori(i instruction.Instruction) error {
	c.setReg(i.Rt(), c.Reg(i.Rs())^i.Imm())
	return nil
}

func (c *CPU) opLui(i instruction.Instruction) error {
	c.setReg(i.Rt(), i.Imm()<<16)
	return nil
}

// --- register arithmetic/logic ---

func overflowsAdd(a, b, sum int32) bool {
	return ((a ^ sum) & (b ^ sum)) < 0
}

func (c *CPU) opAdd(i instruction.Instruction) error {
	a := int32(c.Reg(i.Rs()))
	b := int32(c.Reg(i.Rt()))
	v := a + b
	if overflowsAdd(a, b, v) {
		c.exception(ExcOverflow)
		return nil
	}
	c.setReg(i.Rd(), uint32(v))
	return nil
}

func (c *CPU) opAddu(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rs())+c.Reg(i.Rt()))
	return nil
}

func (c *CPU) opSub(i instruction.Instruction) error {
	a := int32(c.Reg(i.Rs()))
	b := int32(c.Reg(i.Rt()))
	v := a - b
	if overflowsAdd(a, -b, v) {
		c.exception(ExcOverflow)
		return nil
	}
	c.setReg(i.Rd(), uint32(v))
	return nil
}

func (c *CPU) opSubu(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rs())-c.Reg(i.Rt()))
	return nil
}

func (c *CPU) opAnd(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rs())&c.Reg(i.Rt()))
	return nil
}

func (c *CPU) opOr(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rs())|c.Reg(i.Rt()))
	return nil
}

func (c *CPU) opXor(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rs())^c.Reg(i.Rt()))
	return nil
}

func (c *CPU) opNor(i instruction.Instruction) error {
	c.setReg(i.Rd(), ^(c.Reg(i.Rs()) | c.Reg(i.Rt())))
	return nil
}

func (c *CPU) opSlt(i instruction.Instruction) error {
	v := uint32(0)
	if int32(c.Reg(i.Rs())) < int32(c.Reg(i.Rt())) {
		v = 1
	}
	c.setReg(i.Rd(), v)
	return nil
}

func (c *CPU) opSltu(i instruction.Instruction) error {
	v := uint32(0)
	if c.Reg(i.Rs()) < c.Reg(i.Rt()) {
		v = 1
	}
	c.setReg(i.Rd(), v)
	return nil
}

// --- shifts ---

func (c *CPU) opSll(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rt())<<i.Shamt())
	return nil
}

func (c *CPU) opSrl(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rt())>>i.Shamt())
	return nil
}

func (c *CPU) opSra(i instruction.Instruction) error {
	c.setReg(i.Rd(), uint32(int32(c.Reg(i.Rt()))>>i.Shamt()))
	return nil
}

func (c *CPU) opSllv(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rt())<<(c.Reg(i.Rs())&0x1F))
	return nil
}

func (c *CPU) opSrlv(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.Reg(i.Rt())>>(c.Reg(i.Rs())&0x1F))
	return nil
}

func (c *CPU) opSrav(i instruction.Instruction) error {
	c.setReg(i.Rd(), uint32(int32(c.Reg(i.Rt()))>>(c.Reg(i.Rs())&0x1F)))
	return nil
}

// --- hi/lo transfer ---

func (c *CPU) opMfhi(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.hi)
	return nil
}

func (c *CPU) opMthi(i instruction.Instruction) error {
	c.hi = c.Reg(i.Rs())
	return nil
}

func (c *CPU) opMflo(i instruction.Instruction) error {
	c.setReg(i.Rd(), c.lo)
	return nil
}

func (c *CPU) opMtlo(i instruction.Instruction) error {
	c.lo = c.Reg(i.Rs())
	return nil
}

// --- multiply/divide ---

func (c *CPU) opMult(i instruction.Instruction) error {
	a := int64(int32(c.Reg(i.Rs())))
	b := int64(int32(c.Reg(i.Rt())))
	v := uint64(a * b)
	c.hi = uint32(v >> 32)
	c.lo = uint32(v)
	return nil
}

func (c *CPU) opMultu(i instruction.Instruction) error {
	v := uint64(c.Reg(i.Rs())) * uint64(c.Reg(i.Rt()))
	c.hi = uint32(v >> 32)
	c.lo = uint32(v)
	return nil
}

func (c *CPU) opDiv(i instruction.Instruction) error {
	n := int32(c.Reg(i.Rs()))
	d := int32(c.Reg(i.Rt()))

	switch {
	case d == 0:
		c.hi = uint32(n)
		if n >= 0 {
			c.lo = 0xFFFF_FFFF
		} else {
			c.lo = 1
		}
	case uint32(n) == 0x8000_0000 && d == -1:
		c.hi = 0
		c.lo = 0x8000_0000
	default:
		c.hi = uint32(n % d)
		c.lo = uint32(n / d)
	}
	return nil
}

func (c *CPU) opDivu(i instruction.Instruction) error {
	n := c.Reg(i.Rs())
	d := c.Reg(i.Rt())

	if d == 0 {
		c.hi = n
		c.lo = 0xFFFF_FFFF
		return nil
	}
	c.hi = n % d
	c.lo = n / d
	return nil
}

// --- memory access ---

func (c *CPU) cacheIsolated() bool {
	return c.sr&srCacheIsolated != 0
}

func (c *CPU) opLb(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	v, err := c.bus.LoadByte(addr)
	if err != nil {
		return err
	}
	c.queueLoad(i.Rt(), uint32(int32(int8(v))))
	return nil
}

func (c *CPU) opLbu(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	v, err := c.bus.LoadByte(addr)
	if err != nil {
		return err
	}
	c.queueLoad(i.Rt(), uint32(v))
	return nil
}

func (c *CPU) opLh(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if addr%2 != 0 {
		c.exception(ExcAddressErrorLoad)
		return nil
	}
	if c.cacheIsolated() {
		return nil
	}
	v, err := c.bus.LoadHalf(addr)
	if err != nil {
		return err
	}
	c.queueLoad(i.Rt(), uint32(int32(int16(v))))
	return nil
}

func (c *CPU) opLhu(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if addr%2 != 0 {
		c.exception(ExcAddressErrorLoad)
		return nil
	}
	if c.cacheIsolated() {
		return nil
	}
	v, err := c.bus.LoadHalf(addr)
	if err != nil {
		return err
	}
	c.queueLoad(i.Rt(), uint32(v))
	return nil
}

func (c *CPU) opLw(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if addr%4 != 0 {
		c.exception(ExcAddressErrorLoad)
		return nil
	}
	if c.cacheIsolated() {
		return nil
	}
	v, err := c.bus.LoadWord(addr)
	if err != nil {
		return err
	}
	c.queueLoad(i.Rt(), v)
	return nil
}

// currentRt returns the value rt currently holds for an lwl/lwr merge: the
// not-yet-committed load-delay value if it targets rt, else the register
// file's value. This is the one place the pending load is visible before
// it retires — real R3000A hardware forwards it here specifically so a
// load immediately followed by its complementary lwl/lwr merges against
// the fresh value rather than the stale one, per spec 4.6's
// unaligned-merge algorithm.
func (c *CPU) currentRt(rt uint32) uint32 {
	if c.flushValid && c.flushReg == rt {
		return c.flushValue
	}
	return c.Reg(rt)
}

// lwlLayout / lwrLayout give the keep-mask and shift for each (addr mod 4)
// case, bit-exact per spec 4.6's table.
var lwlLayout = [4]struct {
	keepMask uint32
	shift    uint
}{
	{0x00FF_FFFF, 24},
	{0x0000_FFFF, 16},
	{0x0000_00FF, 8},
	{0x0000_0000, 0},
}

var lwrLayout = [4]struct {
	keepMask uint32
	shift    uint
}{
	{0x0000_0000, 0},
	{0xFF00_0000, 8},
	{0xFFFF_0000, 16},
	{0xFFFF_FF00, 24},
}

func (c *CPU) opLwl(i instruction.Instruction) error {
	if c.cacheIsolated() {
		return nil
	}
	addr := c.Reg(i.Rs()) + i.ImmSE()
	aligned := addr &^ 3
	word, err := c.bus.LoadWord(aligned)
	if err != nil {
		return err
	}
	layout := lwlLayout[addr&3]
	cur := c.currentRt(i.Rt())
	result := (cur & layout.keepMask) | (word << layout.shift)
	c.queueLoad(i.Rt(), result)
	return nil
}

func (c *CPU) opLwr(i instruction.Instruction) error {
	if c.cacheIsolated() {
		return nil
	}
	addr := c.Reg(i.Rs()) + i.ImmSE()
	aligned := addr &^ 3
	word, err := c.bus.LoadWord(aligned)
	if err != nil {
		return err
	}
	layout := lwrLayout[addr&3]
	cur := c.currentRt(i.Rt())
	result := (cur & layout.keepMask) | (word >> layout.shift)
	c.queueLoad(i.Rt(), result)
	return nil
}

func (c *CPU) opSb(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if c.cacheIsolated() {
		return nil
	}
	return c.bus.StoreByte(addr, uint8(c.Reg(i.Rt())))
}

func (c *CPU) opSh(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if addr%2 != 0 {
		c.exception(ExcAddressErrorStore)
		return nil
	}
	if c.cacheIsolated() {
		return nil
	}
	return c.bus.StoreHalf(addr, uint16(c.Reg(i.Rt())))
}

func (c *CPU) opSw(i instruction.Instruction) error {
	addr := c.Reg(i.Rs()) + i.ImmSE()
	if addr%4 != 0 {
		c.exception(ExcAddressErrorStore)
		return nil
	}
	if c.cacheIsolated() {
		return nil
	}
	return c.bus.StoreWord(addr, c.Reg(i.Rt()))
}

// swlMemMask / swrMemMask give the mask applied to the existing memory word
// before merging in the shifted register value, the mirror image of the
// lwl/lwr layouts (spec 4.6: "SWL/SWR are symmetric").
var swlMemMask = [4]uint32{0xFFFF_FF00, 0xFFFF_0000, 0xFF00_0000, 0x0000_0000}
var swrMemMask = [4]uint32{0x0000_0000, 0x0000_00FF, 0x0000_FFFF, 0x00FF_FFFF}

func (c *CPU) opSwl(i instruction.Instruction) error {
	if c.cacheIsolated() {
		return nil
	}
	addr := c.Reg(i.Rs()) + i.ImmSE()
	aligned := addr &^ 3
	mem, err := c.bus.LoadWord(aligned)
	if err != nil {
		return err
	}
	n := addr & 3
	v := c.Reg(i.Rt())
	result := (mem & swlMemMask[n]) | (v >> lwlLayout[n].shift)
	return c.bus.StoreWord(aligned, result)
}

func (c *CPU) opSwr(i instruction.Instruction) error {
	if c.cacheIsolated() {
		return nil
	}
	addr := c.Reg(i.Rs()) + i.ImmSE()
	aligned := addr &^ 3
	mem, err := c.bus.LoadWord(aligned)
	if err != nil {
		return err
	}
	n := addr & 3
	v := c.Reg(i.Rt())
	result := (mem & swrMemMask[n]) | (v << lwrLayout[n].shift)
	return c.bus.StoreWord(aligned, result)
}

// --- COP0 ---

func (c *CPU) opCop0(i instruction.Instruction) error {
	switch i.CopOpcode() {
	case 0x00:
		return c.mfc0(i)
	case 0x04:
		return c.mtc0(i)
	case 0x10:
		return c.rfe(i)
	default:
		c.exception(ExcIllegalInstruction)
		return nil
	}
}

func (c *CPU) mfc0(i instruction.Instruction) error {
	var v uint32
	switch i.Rd() {
	case 12:
		v = c.sr
	case 13:
		v = c.cause
	case 14:
		v = c.epc
	default:
		return errUnhandledCop0Read(i.Rd())
	}
	c.queueLoad(i.Rt(), v)
	return nil
}

func (c *CPU) mtc0(i instruction.Instruction) error {
	v := c.Reg(i.Rt())
	switch i.Rd() {
	case 12:
		c.sr = v
	case 13:
		c.cause = v
	case 14:
		c.epc = v
	case 3, 5, 6, 7, 9, 11:
		if v != 0 {
			return errUnhandledCop0Write(i.Rd())
		}
	default:
		return errUnhandledCop0Write(i.Rd())
	}
	return nil
}

func (c *CPU) rfe(i instruction.Instruction) error {
	mode := c.sr & 0x3F
	c.sr = (c.sr &^ 0xF) | (mode >> 2)
	return nil
}

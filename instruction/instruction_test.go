package instruction

import "testing"

func TestFields(t *testing.T) {
	// lui $t0, 0x1234 => 0x3C081234
	i := Instruction(0x3C081234)
	if i.Opcode() != 0x0F {
		t.Errorf("Opcode() = 0x%02x, want 0x0f", i.Opcode())
	}
	if i.Rt() != 8 {
		t.Errorf("Rt() = %d, want 8", i.Rt())
	}
	if i.Imm() != 0x1234 {
		t.Errorf("Imm() = 0x%04x, want 0x1234", i.Imm())
	}
}

func TestImmSESignExtends(t *testing.T) {
	i := Instruction(0x0000FFFF)
	if i.ImmSE() != 0xFFFFFFFF {
		t.Errorf("ImmSE() = 0x%08x, want 0xffffffff", i.ImmSE())
	}
	i2 := Instruction(0x00007FFF)
	if i2.ImmSE() != 0x00007FFF {
		t.Errorf("ImmSE() = 0x%08x, want 0x00007fff", i2.ImmSE())
	}
}

func TestRFields(t *testing.T) {
	// An R-type word with rs=1, rt=2, rd=3, shamt=4, funct=0x20 (add).
	word := uint32(0)<<26 | uint32(1)<<21 | uint32(2)<<16 | uint32(3)<<11 | uint32(4)<<6 | 0x20
	i := Instruction(word)
	if i.Rs() != 1 || i.Rt() != 2 || i.Rd() != 3 || i.Shamt() != 4 || i.Funct() != 0x20 {
		t.Fatalf("R-fields mismatch: rs=%d rt=%d rd=%d shamt=%d funct=0x%x",
			i.Rs(), i.Rt(), i.Rd(), i.Shamt(), i.Funct())
	}
}

func TestTarget(t *testing.T) {
	// j 0x0001_0000 => target field is addr>>2
	i := Instruction(uint32(0x02)<<26 | (0x0001_0000 >> 2))
	if i.Target() != 0x0001_0000>>2 {
		t.Errorf("Target() = 0x%x, want 0x%x", i.Target(), 0x0001_0000>>2)
	}
}

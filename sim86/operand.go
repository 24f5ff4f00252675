package sim86

import (
	"fmt"
)

// MOD field encodings.
const (
	ModMemory       = 0b00
	ModMemoryDisp8  = 0b01
	ModMemoryDisp16 = 0b10
	ModRegister     = 0b11
)

// rmDirect is the R/M value that selects a direct address when MOD is 00.
const rmDirect = 0b110

// Operand is a register or one of the memory addressing forms produced by the
// MOD and R/M fields. The set of implementations is closed.
type Operand interface {
	fmt.Stringer
	operand()
}

// Register is a register operand. Index selects the register as encoded in a
// REG or R/M field.
type Register struct {
	Width Width
	Index byte
}

// DirectMemory is an absolute 16-bit address.
type DirectMemory struct {
	Address uint16
}

// IndexedMemory is base/index registers plus a displacement. 8-bit
// displacements are already sign-extended.
type IndexedMemory struct {
	RM           byte
	Displacement uint16
}

// IndexedMemoryNoDisplacement is base/index registers with no displacement.
type IndexedMemoryNoDisplacement struct {
	RM byte
}

func (Register) operand()                    {}
func (DirectMemory) operand()                {}
func (IndexedMemory) operand()               {}
func (IndexedMemoryNoDisplacement) operand() {}

// effectiveAddr lists the registers summed for each R/M value. A second
// register of -1 means the row uses a single register.
var effectiveAddr = [8][2]int{
	0b000: {BX, SI},
	0b001: {BX, DI},
	0b010: {BP, SI},
	0b011: {BP, DI},
	0b100: {SI, -1},
	0b101: {DI, -1},
	0b110: {BP, -1},
	0b111: {BX, -1},
}

// effective address clocks, table 2-20 of the 8086 family user's manual
var (
	eaCyclesNoDisp = [8]int{7, 8, 8, 7, 5, 5, 0, 5}
	eaCyclesDisp   = [8]int{11, 12, 12, 11, 9, 9, 9, 9}
)

const eaCyclesDirect = 6

func effectiveAddrString(rm byte) string {
	ea := effectiveAddr[rm&7]
	if ea[1] < 0 {
		return registerNames[Word][ea[0]]
	}
	return registerNames[Word][ea[0]] + " + " + registerNames[Word][ea[1]]
}

func (o Register) String() string {
	return RegisterName(o.Width, o.Index)
}

func (o DirectMemory) String() string {
	return fmt.Sprintf("[%d]", o.Address)
}

func (o IndexedMemory) String() string {
	d := int16(o.Displacement)
	if d < 0 {
		return fmt.Sprintf("[%s - %d]", effectiveAddrString(o.RM), -int(d))
	}
	return fmt.Sprintf("[%s + %d]", effectiveAddrString(o.RM), d)
}

func (o IndexedMemoryNoDisplacement) String() string {
	return fmt.Sprintf("[%s]", effectiveAddrString(o.RM))
}

// IsMemory reports whether op addresses memory.
func IsMemory(op Operand) bool {
	switch op.(type) {
	case DirectMemory, IndexedMemory, IndexedMemoryNoDisplacement:
		return true
	}
	return false
}

func baseSum(rm byte, regs *Registers) uint16 {
	ea := effectiveAddr[rm&7]
	sum := regs[ea[0]]
	if ea[1] >= 0 {
		sum += regs[ea[1]]
	}
	return sum
}

// EffectiveAddress returns the memory address op refers to given the current
// register values. ok is false for register operands.
func EffectiveAddress(op Operand, regs *Registers) (addr uint16, ok bool) {
	switch o := op.(type) {
	case DirectMemory:
		return o.Address, true
	case IndexedMemory:
		return baseSum(o.RM, regs) + o.Displacement, true
	case IndexedMemoryNoDisplacement:
		return baseSum(o.RM, regs), true
	}
	return 0, false
}

// EACycles is the effective address calculation cost of op. Register
// operands cost nothing.
func EACycles(op Operand) int {
	switch o := op.(type) {
	case DirectMemory:
		return eaCyclesDirect
	case IndexedMemory:
		return eaCyclesDisp[o.RM&7]
	case IndexedMemoryNoDisplacement:
		return eaCyclesNoDisp[o.RM&7]
	}
	return 0
}

// DecodeOperand reads the displacement bytes (if any) selected by mod and rm
// and returns the operand they describe.
//
// [mod|reg|r/m] [disp-lo] [disp-hi]
func DecodeOperand(r *Reader, mod, w, rm byte) (Operand, error) {
	rm &= 0b111
	switch mod & 0b11 {
	case ModMemory:
		if rm == rmDirect {
			addr, err := r.ReadWord()
			if err != nil {
				return nil, err
			}
			return DirectMemory{Address: addr}, nil
		}
		return IndexedMemoryNoDisplacement{RM: rm}, nil

	case ModMemoryDisp8:
		b, err := r.ReadByte()
		if err != nil {
			return nil, truncated(err)
		}
		return IndexedMemory{RM: rm, Displacement: uint16(int16(int8(b)))}, nil

	case ModMemoryDisp16:
		disp, err := r.ReadWord()
		if err != nil {
			return nil, err
		}
		return IndexedMemory{RM: rm, Displacement: disp}, nil
	}

	return Register{Width: Width(w & 1), Index: rm}, nil
}

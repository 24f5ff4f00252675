package sim86

import (
	"errors"
	"testing"
)

func TestDecodeOperandRegisterMode(t *testing.T) {
	for modrm := 0; modrm < 256; modrm++ {
		b := byte(modrm)
		if b>>6 != ModRegister {
			continue
		}
		for w := byte(0); w < 2; w++ {
			r := newReader(t, 0xaa, 0xbb)
			op, err := DecodeOperand(r, b>>6, w, b&7)
			if err != nil {
				t.Fatalf("%08b: %v", b, err)
			}
			if r.Pos() != 0 {
				t.Errorf("%08b: consumed %d bytes, want 0", b, r.Pos())
			}
			reg, ok := op.(Register)
			if !ok {
				t.Fatalf("%08b: got %T, want Register", b, op)
			}
			if reg.Index != b&7 || reg.Width != Width(w) {
				t.Errorf("%08b: got %+v", b, reg)
			}
		}
	}
}

func TestDecodeOperandMemory(t *testing.T) {
	tests := []struct {
		name     string
		mod, rm  byte
		data     []byte
		want     Operand
		consumed int64
		text     string
	}{
		{"direct", ModMemory, 0b110, []byte{0xe8, 0x03}, DirectMemory{Address: 1000}, 2, "[1000]"},
		{"no displacement", ModMemory, 0b000, nil, IndexedMemoryNoDisplacement{RM: 0}, 0, "[bx + si]"},
		{"single register", ModMemory, 0b111, nil, IndexedMemoryNoDisplacement{RM: 7}, 0, "[bx]"},
		{"disp8", ModMemoryDisp8, 0b010, []byte{0x04}, IndexedMemory{RM: 2, Displacement: 4}, 1, "[bp + si + 4]"},
		{"disp8 negative", ModMemoryDisp8, 0b110, []byte{0xfe}, IndexedMemory{RM: 6, Displacement: 0xfffe}, 1, "[bp - 2]"},
		{"disp8 zero", ModMemoryDisp8, 0b110, []byte{0x00}, IndexedMemory{RM: 6}, 1, "[bp + 0]"},
		{"disp16", ModMemoryDisp16, 0b011, []byte{0x87, 0x13}, IndexedMemory{RM: 3, Displacement: 0x1387}, 2, "[bp + di + 4999]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReader(t, tt.data...)
			op, err := DecodeOperand(r, tt.mod, 1, tt.rm)
			if err != nil {
				t.Fatal(err)
			}
			if op != tt.want {
				t.Errorf("got %#v, want %#v", op, tt.want)
			}
			if r.Pos() != tt.consumed {
				t.Errorf("consumed %d bytes, want %d", r.Pos(), tt.consumed)
			}
			if op.String() != tt.text {
				t.Errorf("String() = %q, want %q", op.String(), tt.text)
			}
			if !IsMemory(op) {
				t.Error("IsMemory = false")
			}
		})
	}
}

func TestDecodeOperandTruncated(t *testing.T) {
	tests := []struct {
		name    string
		mod, rm byte
		data    []byte
	}{
		{"direct", ModMemory, 0b110, []byte{0x01}},
		{"disp8", ModMemoryDisp8, 0b000, nil},
		{"disp16", ModMemoryDisp16, 0b000, []byte{0x01}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeOperand(newReader(t, tt.data...), tt.mod, 1, tt.rm)
			if !errors.Is(err, ErrTruncatedStream) {
				t.Errorf("got %v, want ErrTruncatedStream", err)
			}
		})
	}
}

func TestEffectiveAddress(t *testing.T) {
	var regs Registers
	regs[BX] = 1000
	regs[BP] = 2000
	regs[SI] = 10
	regs[DI] = 20

	tests := []struct {
		op   Operand
		want uint16
	}{
		{DirectMemory{Address: 42}, 42},
		{IndexedMemoryNoDisplacement{RM: 0b000}, 1010},
		{IndexedMemoryNoDisplacement{RM: 0b001}, 1020},
		{IndexedMemoryNoDisplacement{RM: 0b010}, 2010},
		{IndexedMemoryNoDisplacement{RM: 0b011}, 2020},
		{IndexedMemoryNoDisplacement{RM: 0b100}, 10},
		{IndexedMemoryNoDisplacement{RM: 0b101}, 20},
		{IndexedMemoryNoDisplacement{RM: 0b111}, 1000},
		{IndexedMemory{RM: 0b110, Displacement: 4}, 2004},
		{IndexedMemory{RM: 0b000, Displacement: 0xfffe}, 1008},
	}
	for _, tt := range tests {
		got, ok := EffectiveAddress(tt.op, &regs)
		if !ok || got != tt.want {
			t.Errorf("EffectiveAddress(%v) = %d, %v; want %d", tt.op, got, ok, tt.want)
		}
	}

	if _, ok := EffectiveAddress(Register{Word, AX}, &regs); ok {
		t.Error("register operand has an effective address")
	}
}

func TestEACycles(t *testing.T) {
	tests := []struct {
		op   Operand
		want int
	}{
		{Register{Word, BX}, 0},
		{DirectMemory{Address: 1}, 6},
		{IndexedMemoryNoDisplacement{RM: 0b000}, 7},
		{IndexedMemoryNoDisplacement{RM: 0b001}, 8},
		{IndexedMemoryNoDisplacement{RM: 0b010}, 8},
		{IndexedMemoryNoDisplacement{RM: 0b011}, 7},
		{IndexedMemoryNoDisplacement{RM: 0b111}, 5},
		{IndexedMemory{RM: 0b000}, 11},
		{IndexedMemory{RM: 0b001}, 12},
		{IndexedMemory{RM: 0b010}, 12},
		{IndexedMemory{RM: 0b011}, 11},
		{IndexedMemory{RM: 0b110}, 9},
	}
	for _, tt := range tests {
		if got := EACycles(tt.op); got != tt.want {
			t.Errorf("EACycles(%v) = %d, want %d", tt.op, got, tt.want)
		}
	}
}

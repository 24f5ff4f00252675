package sim86

import (
	"strings"
	"testing"
)

func TestEncodingsExclusive(t *testing.T) {
	for b := 0; b < 256; b++ {
		if found := encoder.Decode(byte(b)); len(found) > 1 {
			t.Errorf("%08b matches %d encodings: %v", b, len(found), found)
		}
	}
}

func TestEncodingsOrder(t *testing.T) {
	encs := encoder.Encodings()
	for i := 1; i < len(encs); i++ {
		if encs[i].Fixed() > encs[i-1].Fixed() {
			t.Errorf("%q (%d fixed bits) sorted after %q (%d fixed bits)",
				encs[i].Orig, encs[i].Fixed(), encs[i-1].Orig, encs[i-1].Fixed())
		}
	}
}

func TestEncodingsTable(t *testing.T) {
	tests := []struct {
		opcode   byte
		mnemonic string
		family   Family
		mask     byte
	}{
		{0b10111000, "mov", FamilyImmToReg, 0b11110000},
		{0b10000011, "-", FamilyImmToRM, 0b11111100},
		{0b11000111, "mov", FamilyImmToRM, 0b11111110},
		{0b10001011, "mov", FamilyRMToRM, 0b11111100},
		{0b00000001, "add", FamilyRMToRM, 0b11111100},
		{0b00101000, "sub", FamilyRMToRM, 0b11111100},
		{0b00111010, "cmp", FamilyRMToRM, 0b11111100},
		{0b00000101, "add", FamilyImmToAcc, 0b11111110},
		{0b00101100, "sub", FamilyImmToAcc, 0b11111110},
		{0b00111101, "cmp", FamilyImmToAcc, 0b11111110},
		{0b01110101, "jne", FamilyJump, 0b11111111},
		{0b01110100, "je", FamilyJump, 0b11111111},
		{0b11100011, "jcxz", FamilyJump, 0b11111111},
	}
	for _, tt := range tests {
		enc, ok := encoder.Lookup(tt.opcode)
		if !ok {
			t.Errorf("%08b: no encoding", tt.opcode)
			continue
		}
		if enc.Mnemonic != tt.mnemonic || enc.Family != tt.family || enc.Mask != tt.mask {
			t.Errorf("%08b: got %v, want %s %s mask %08b", tt.opcode, enc, tt.mnemonic, tt.family, tt.mask)
		}
	}

	jumps := 0
	for _, enc := range encoder.Encodings() {
		if enc.Family == FamilyJump {
			jumps++
		}
	}
	if jumps != 20 {
		t.Errorf("got %d jump encodings, want 20", jumps)
	}

	for _, b := range []byte{0x90, 0xc3, 0xff, 0x06} {
		if enc, ok := encoder.Lookup(b); ok {
			t.Errorf("%08b: unexpected match %v", b, enc)
		}
	}
}

func TestEncodingField(t *testing.T) {
	enc, _ := encoder.Lookup(0b10111011) // mov bx, imm16
	if w, _ := enc.Field(0b10111011, "W"); w != 1 {
		t.Errorf("W = %d, want 1", w)
	}
	if reg, _ := enc.Field(0b10111011, "REG"); reg != BX {
		t.Errorf("REG = %d, want %d", reg, BX)
	}
	if _, ok := enc.Field(0b10111011, "D"); ok {
		t.Error("mov immediate to register has no D field")
	}

	if _, ok := enc.Field(0b10111011, "1011"); ok {
		t.Error("constant part reported as a field")
	}

	enc, _ = encoder.Lookup(0b10000011)
	if s, _ := enc.Field(0b10000011, "S"); s != 1 {
		t.Errorf("S = %d, want 1", s)
	}
}

func TestNewEncoderErrors(t *testing.T) {
	tests := []struct {
		name  string
		table string
		want  string
	}{
		{"short", "mov rm_rm 10001_D_W", "don't equal 8 bits"},
		{"family", "mov nowhere 100010_D_W", "unknown family"},
		{"mnemonic", "xor rm_rm 001100_D_W", "unknown mnemonic"},
		{"bits", "mov rm_rm 1000x0_D_W", "invalid bit"},
		{"columns", "mov 100010_D_W", "expected mnemonic"},
		{"overlap", "mov imm_reg 1011_W_REG\nmov rm_rm 101110_D_W", "matches both"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEncoder(tt.table)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("got %v, want error containing %q", err, tt.want)
			}
		})
	}
}

func TestNewEncoderComments(t *testing.T) {
	e, err := NewEncoder("# comment\n\n   \njne jump 01110101\n")
	if err != nil {
		t.Fatal(err)
	}
	if len(e.Encodings()) != 1 {
		t.Fatalf("got %d encodings, want 1", len(e.Encodings()))
	}
	if e.Encodings()[0].Operation != OpJump {
		t.Errorf("operation = %v, want jump", e.Encodings()[0].Operation)
	}
}

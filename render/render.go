// Package render formats decoded and simulated instructions as NASM
// compatible text.
package render

import (
	"fmt"
	"io"
	"strings"

	"sim8086/sim86"
)

// Header is printed before the first instruction.
func Header(name string) string {
	return fmt.Sprintf("; %s\n\nbits 16\n\n", name)
}

func immediate(w sim86.Width, v uint16) int {
	if w == sim86.Byte {
		return int(int8(v))
	}
	return int(int16(v))
}

// jumpTarget formats a jump displacement relative to the start of the
// instruction, which is how NASM reads "$".
func jumpTarget(disp int16) string {
	offset := int(disp) + 2
	switch {
	case offset == 0:
		return "$+0"
	case offset > 0:
		return fmt.Sprintf("$+%d+0", offset)
	}
	return fmt.Sprintf("$%d+0", offset)
}

// Instruction returns the assembly text of in.
func Instruction(in sim86.Instruction) string {
	if in.Family == sim86.FamilyJump {
		return fmt.Sprintf("%s %s", in.Mnemonic, jumpTarget(in.Displacement()))
	}

	dst := in.Dst.String()
	if in.Src != nil {
		return fmt.Sprintf("%s %s, %s", in.Mnemonic, dst, in.Src)
	}

	if sim86.IsMemory(in.Dst) {
		dst = in.Width.String() + " " + dst
	}
	return fmt.Sprintf("%s %s, %d", in.Mnemonic, dst, immediate(in.Width, in.Immediate))
}

// Record returns the assembly text of rec followed, for simulated records,
// by the clocks and the state it changed.
func Record(rec *sim86.Record) string {
	s := Instruction(rec.Instruction)
	if !rec.Simulated {
		return s
	}

	var sb strings.Builder
	sb.WriteString(s)
	fmt.Fprintf(&sb, " ; Clocks: +%d = %d |", rec.Cycles, rec.TotalCycles)
	if rec.Family != sim86.FamilyJump && rec.Old != rec.New {
		fmt.Fprintf(&sb, " %s:%#x->%#x", rec.Dst, rec.Old, rec.New)
	}
	fmt.Fprintf(&sb, " ip:%#x->%#x", rec.IPBefore, rec.IPAfter)
	if rec.FlagsBefore != rec.FlagsAfter {
		fmt.Fprintf(&sb, " flags:%s->%s", rec.FlagsBefore, rec.FlagsAfter)
	}
	return sb.String()
}

// Final returns the register dump printed at the end of a simulation.
func Final(st sim86.State) string {
	var sb strings.Builder
	sb.WriteString("Final registers:\n")
	for i, v := range st.Registers {
		fmt.Fprintf(&sb, "\t%s: 0x%04x (%d)\n", sim86.RegisterName(sim86.Word, byte(i)), v, v)
	}
	fmt.Fprintf(&sb, "\tip: 0x%04x (%d)\n", st.IP, st.IP)
	fmt.Fprintf(&sb, "\tflags: %s\n", st.Flags)
	fmt.Fprintf(&sb, "\tclocks: %d\n", st.Cycles)
	return sb.String()
}

// Binary writes every byte of data in binary, the way the raw dump mode
// shows a file.
func Binary(w io.Writer, data []byte) error {
	for _, b := range data {
		if _, err := fmt.Fprintf(w, "0b%08b ", b); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}

// Bytes formats the encoded bytes of an instruction for the debug output.
func Bytes(data []byte) string {
	var sb strings.Builder
	sb.WriteString(" (")
	for _, b := range data {
		fmt.Fprintf(&sb, " %08b", b)
	}
	sb.WriteString(" )")
	return sb.String()
}

package sim86

import "strings"

// Flags holds the condition codes updated by arithmetic. Only ZF and SF are
// modelled.
type Flags uint16

const (
	FlagZF Flags = 1 << 6
	FlagSF Flags = 1 << 7
)

var flagNames = []struct {
	name string
	flag Flags
}{
	{"Z", FlagZF},
	{"S", FlagSF},
}

func (f *Flags) set(flag Flags, on bool) {
	if on {
		*f |= flag
	} else {
		*f &^= flag
	}
}

// IsSet reports whether every bit of flag is set.
func (f Flags) IsSet(flag Flags) bool {
	return f&flag == flag
}

func (f Flags) Zero() bool { return f.IsSet(FlagZF) }
func (f Flags) Sign() bool { return f.IsSet(FlagSF) }

// Update recomputes the flags from a signed 16-bit result.
func (f *Flags) Update(result int16) {
	f.set(FlagZF, result == 0)
	f.set(FlagSF, result < 0)
}

// update sign-extends a byte result before recomputing the flags.
func (f *Flags) update(w Width, v uint16) {
	f.Update(signed(w, v))
}

// String returns the set flags in the order Z, S. No flags is "".
func (f Flags) String() string {
	var sb strings.Builder
	for _, fn := range flagNames {
		if f.IsSet(fn.flag) {
			sb.WriteString(fn.name)
		}
	}
	return sb.String()
}

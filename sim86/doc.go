// Package sim86 decodes a subset of the 8086 instruction set and simulates
// its effect on a small machine: eight general purpose registers, 64KiB of
// byte addressable memory, the zero and sign flags and a cycle counter.
//
// Supported are mov, add, sub and cmp in their register/memory, immediate and
// accumulator forms, plus the conditional jump and loop family. Of the jumps
// only jne is simulated; the others are decoded and cost their not-taken
// clocks.
//
// The instruction pointer is the position of the underlying io.ReadSeeker.
// A taken branch seeks it.
package sim86

// Package disasm decodes emitted native code with real ISA disassemblers
// so tests can assert on actual mnemonics instead of literal byte
// strings, grounded on the zboralski-unflutter example's disasm package
// in this retrieval pack.
package disasm

import (
	"fmt"

	"golang.org/x/arch/arm64/arm64asm"
	"golang.org/x/arch/x86/x86asm"
)

// Inst is one decoded instruction.
type Inst struct {
	Offset int
	Size   int
	Text   string
}

// X86_64 decodes a little-endian x86-64 byte stream until it is
// exhausted or a byte sequence fails to decode.
func X86_64(code []byte) ([]Inst, error) {
	var out []Inst
	for off := 0; off < len(code); {
		inst, err := x86asm.Decode(code[off:], 64)
		if err != nil {
			return out, fmt.Errorf("decode at offset %d: %w", off, err)
		}
		out = append(out, Inst{Offset: off, Size: inst.Len, Text: x86asm.GNUSyntax(inst, uint64(off), nil)})
		off += inst.Len
	}
	return out, nil
}

// ARM64 decodes a little-endian AArch64 instruction stream, which is
// always 4-byte fixed-width.
func ARM64(code []byte) ([]Inst, error) {
	var out []Inst
	for off := 0; off+4 <= len(code); off += 4 {
		inst, err := arm64asm.Decode(code[off : off+4])
		if err != nil {
			return out, fmt.Errorf("decode at offset %d: %w", off, err)
		}
		out = append(out, Inst{Offset: off, Size: 4, Text: inst.String()})
	}
	return out, nil
}

// Package elf assembles the minimal ELF64 executable container spec
// §4.5.2 mandates: one PT_LOAD segment, no section headers, code at a
// fixed file offset. debug/elf supplies the typed constants only —
// it has no executable encoder, so the layout is hand-assembled with
// encoding/binary the way the teacher hand-assembles Wasm binary
// sections rather than reach for a generic encoder.
package elf

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/quantrpeter/jit/codegen"
)

const (
	ehSize    = 64
	phSize    = 56
	codeFileOffset = 0x1000
	baseVaddr = 0x400000
)

// Write serializes code at file offset 0x1000 inside a minimal ELF64
// executable, with its entry point at baseVaddr+0x1000+entryOffset.
func Write(isa codegen.ISA, code []byte, entryOffset int) []byte {
	machine := elf.EM_X86_64
	if isa == codegen.ARM64 {
		machine = elf.EM_AARCH64
	}

	vaddr := uint64(baseVaddr + codeFileOffset)
	entry := vaddr + uint64(entryOffset)

	var buf bytes.Buffer
	buf.Write([]byte{0x7F, 'E', 'L', 'F'}) // e_ident magic
	buf.WriteByte(byte(elf.ELFCLASS64))
	buf.WriteByte(byte(elf.ELFDATA2LSB))
	buf.WriteByte(byte(elf.EV_CURRENT))
	buf.WriteByte(byte(elf.ELFOSABI_NONE))
	buf.Write(make([]byte, 8)) // e_ident padding (abiversion + 7 reserved bytes)

	putU16 := func(v uint16) { var b [2]byte; binary.LittleEndian.PutUint16(b[:], v); buf.Write(b[:]) }
	putU32 := func(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); buf.Write(b[:]) }
	putU64 := func(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); buf.Write(b[:]) }

	putU16(uint16(elf.ET_EXEC))
	putU16(uint16(machine))
	putU32(uint32(elf.EV_CURRENT))
	putU64(entry)
	putU64(ehSize)       // e_phoff
	putU64(0)            // e_shoff
	putU32(0)            // e_flags
	putU16(ehSize)       // e_ehsize
	putU16(phSize)       // e_phentsize
	putU16(1)            // e_phnum
	putU16(0)            // e_shentsize
	putU16(0)            // e_shnum
	putU16(0)            // e_shstrndx

	// Program header: single PT_LOAD, R|X, covering the code region.
	putU32(uint32(elf.PT_LOAD))
	putU32(uint32(elf.PF_R | elf.PF_X))
	putU64(codeFileOffset)
	putU64(vaddr)
	putU64(vaddr)
	putU64(uint64(len(code)))
	putU64(uint64(len(code)))
	putU64(0x1000) // align

	if buf.Len() != ehSize+phSize {
		panic("elf: header layout drifted from the fixed contract")
	}

	buf.Write(make([]byte, codeFileOffset-buf.Len()))
	buf.Write(code)

	return buf.Bytes()
}

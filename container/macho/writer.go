// Package macho assembles the minimal Mach-O 64 executable container
// spec §4.5.3 mandates: one LC_SEGMENT_64 (carrying a single __text
// section) plus one LC_MAIN, no trampoline — the emitted method's own
// return is expected to reach LC_MAIN's declared entry directly.
package macho

import (
	"bytes"
	"debug/macho"
	"encoding/binary"

	"github.com/quantrpeter/jit/codegen"
)

const (
	machHeaderSize    = 32
	segmentCmdSize    = 72
	sectionSize       = 80
	lcMainSize        = 24
	codeFileOffset    = 0x1000
	vmBase            = 0x100000000
	cpuSubtypeX86_64  = 3
	cpuSubtypeARM64   = 0
	ncmds             = 2
	flagsExec         = 0x200005 // MH_NOUNDEFS | MH_DYLDLINK | MH_PIE
	lcSegment64       = 0x19
	vmProtReadExecute = 5
	lcMainCmd         = 0x80000028
	sectionFlags      = 0x80000400 // S_ATTR_PURE_INSTRUCTIONS | S_ATTR_SOME_INSTRUCTIONS
)

func name16(s string) [16]byte {
	var b [16]byte
	copy(b[:], s)
	return b
}

// Write serializes code at file offset 0x1000 inside a minimal Mach-O
// 64 executable, with LC_MAIN's entryoff at entryOffset+0x1000.
func Write(isa codegen.ISA, code []byte, entryOffset int) []byte {
	cpuType, cpuSubtype := uint32(macho.CpuAmd64), uint32(cpuSubtypeX86_64)
	if isa == codegen.ARM64 {
		cpuType, cpuSubtype = uint32(macho.CpuArm64), cpuSubtypeARM64
	}

	var buf bytes.Buffer
	putU32 := func(v uint32) { var b [4]byte; binary.LittleEndian.PutUint32(b[:], v); buf.Write(b[:]) }
	putU64 := func(v uint64) { var b [8]byte; binary.LittleEndian.PutUint64(b[:], v); buf.Write(b[:]) }

	// mach_header_64
	putU32(macho.Magic64)
	putU32(cpuType)
	putU32(cpuSubtype)
	putU32(uint32(macho.TypeExec))
	putU32(ncmds)
	putU32(segmentCmdSize + sectionSize + lcMainSize) // sizeofcmds
	putU32(flagsExec)
	putU32(0) // reserved

	// segment_command_64
	putU32(lcSegment64)
	putU32(segmentCmdSize + sectionSize) // cmdsize
	segName := name16("__TEXT")
	buf.Write(segName[:])
	putU64(vmBase)
	putU64(uint64(len(code)))
	putU64(codeFileOffset)
	putU64(uint64(len(code)))
	putU32(vmProtReadExecute) // maxprot
	putU32(vmProtReadExecute) // initprot
	putU32(1)                 // nsects
	putU32(0)                 // flags

	// section_64
	sectName := name16("__text")
	buf.Write(sectName[:])
	buf.Write(segName[:])
	putU64(vmBase + codeFileOffset)
	putU64(uint64(len(code)))
	putU32(codeFileOffset)
	putU32(4) // align, 2^4 = 16
	putU32(0) // reloff
	putU32(0) // nreloc
	putU32(sectionFlags)
	putU32(0) // reserved1
	putU32(0) // reserved2
	putU32(0) // reserved3

	// LC_MAIN
	putU32(lcMainCmd)
	putU32(lcMainSize)
	putU64(uint64(entryOffset + codeFileOffset))
	putU64(0) // stacksize

	if buf.Len() != machHeaderSize+segmentCmdSize+sectionSize+lcMainSize {
		panic("macho: header layout drifted from the fixed contract")
	}

	buf.Write(make([]byte, codeFileOffset-buf.Len()))
	buf.Write(code)

	return buf.Bytes()
}

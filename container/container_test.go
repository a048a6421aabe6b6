package container_test

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/codegen"
	"github.com/quantrpeter/jit/container"
)

func TestBuildELF64HeaderAndCodeOffset(t *testing.T) {
	code := []byte{0xB8, 0x2A, 0x00, 0x00, 0x00} // mov eax, 42 (arbitrary body)
	image := container.Build(codegen.X86_64, container.ELF64, code, 0)

	require.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, image[:4], "property 5: ELF magic at offset 0")
	require.GreaterOrEqual(t, len(image), 0x1000+17+len(code))

	entry := binary.LittleEndian.Uint64(image[24:32])
	require.Equal(t, uint64(0x400000+0x1000), entry, "entry = base_vaddr + 0x1000 + entry_offset, entry_offset=0")

	tail := image[0x1000 : 0x1000+17+len(code)]
	require.Equal(t, container.X86_64Trampoline, tail[:17])
	require.Equal(t, code, tail[17:])
}

func TestBuildMachO64HeaderAndCodeOffset(t *testing.T) {
	code := []byte{0x91, 0x00, 0x00, 0x00} // arbitrary 4-byte body
	image := container.Build(codegen.ARM64, container.MachO64, code, 0)

	require.Equal(t, []byte{0xCF, 0xFA, 0xED, 0xFE}, image[:4], "property 5: Mach-O magic at offset 0 (little-endian FEEDFACF)")
	require.GreaterOrEqual(t, len(image), 0x1000+len(code))

	// Mach-O never gets the exit trampoline; code starts at 0x1000 directly.
	require.Equal(t, code, image[0x1000:0x1000+len(code)])
}

func TestBuildARM64LinuxIncludesTrampoline(t *testing.T) {
	code := []byte{0x1F, 0x20, 0x03, 0xD5} // nop
	image := container.Build(codegen.ARM64, container.ELF64, code, 0)

	tail := image[0x1000:]
	require.Equal(t, container.ARM64LinuxTrampoline, tail[:12])
	require.Equal(t, code, tail[12:12+len(code)])
}

// Package container builds minimal platform executables around a
// codegen.NativeBlob: a fixed header, one loadable segment, and the
// blob itself at a fixed file offset. ISA/format dispatch follows spec
// §9's "common write(container, blob, entry, isa) operation with two
// variants" — container.Write is that operation; container/elf and
// container/macho are the variants.
package container

import (
	"fmt"
	"os"

	"github.com/quantrpeter/jit/codegen"
	"github.com/quantrpeter/jit/container/elf"
	"github.com/quantrpeter/jit/container/macho"
	"github.com/quantrpeter/jit/internal/diag"
)

// Format selects the target executable container.
type Format int

const (
	ELF64 Format = iota
	MachO64
)

// Build assembles the full executable image: an ISA/format-appropriate
// exit trampoline (absent for Mach-O, per spec §4.5.1's documented
// limitation) followed by code, wrapped in the format's header.
// entryOffset is added to the start of that payload (the trampoline, when
// there is one) to form the format's entry point. The trampoline always
// calls the first byte of code, so the entry method goes first and
// entryOffset is ordinarily 0.
func Build(isa codegen.ISA, format Format, code []byte, entryOffset int) []byte {
	tramp := trampolineFor(isa, format)
	payload := make([]byte, 0, len(tramp)+len(code))
	payload = append(payload, tramp...)
	payload = append(payload, code...)

	if format == MachO64 {
		return macho.Write(isa, payload, entryOffset)
	}
	return elf.Write(isa, payload, entryOffset)
}

// Write builds the executable image and writes it to path, then sets
// rwxr-xr-x permissions. A failed write returns a wrapped error
// (WriteFailed in spec §7's taxonomy); a failed chmod is logged via
// internal/diag and does not fail the call (PermissionSetFailed, spec
// §7's non-fatal I/O error).
func Write(path string, isa codegen.ISA, format Format, code []byte, entryOffset int) error {
	image := Build(isa, format, code, entryOffset)

	if err := os.WriteFile(path, image, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := os.Chmod(path, 0o755); err != nil {
		diag.PermissionSetFailed(path, err)
	}

	return nil
}

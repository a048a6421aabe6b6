package container

import "github.com/quantrpeter/jit/codegen"

// X86_64Trampoline is exactly the 17 bytes spec §4.5.1 mandates,
// prepended to the user blob: call past itself into the wrapper, move
// the call's return value into the exit syscall's argument register,
// then invoke Linux's exit(2).
var X86_64Trampoline = []byte{
	0xE8, 0x0C, 0x00, 0x00, 0x00, // call rel32 -> +12
	0x48, 0x89, 0xC7, // mov rdi, rax
	0x48, 0xC7, 0xC0, 0x3C, 0x00, 0x00, 0x00, // mov rax, 60
	0x0F, 0x05, // syscall
}

// ARM64LinuxTrampoline follows the same pattern on AArch64 for a Linux
// target: call the user blob via bl, load exit's syscall number (93)
// into x8, and svc #0. The blob returns its value in w0, which is already
// the exit syscall's argument register, so no move is emitted (unlike the
// x86-64 form's mov rdi, rax).
//
// bl +12          ; branch to offset 12, past the 8 wrapper bytes after bl
// mov x8, #93     ; Linux exit syscall number
// svc #0
var ARM64LinuxTrampoline = []byte{
	0x03, 0x00, 0x00, 0x94, // bl +12 (imm26=3 instructions ahead)
	0xA8, 0x0B, 0x80, 0xD2, // mov x8, #93
	0x01, 0x00, 0x00, 0xD4, // svc #0
}

// trampolineFor returns the ISA-specific exit trampoline for a Linux
// (ELF) target. Per spec §4.5.1, the AArch64 trampoline is absent for
// Mach-O targets: the emitted blob's own return is expected to
// terminate the process via dyld reaching LC_MAIN, a limitation
// inherited from the source and documented rather than worked around.
func trampolineFor(isa codegen.ISA, format Format) []byte {
	if format == MachO64 {
		return nil
	}
	if isa == codegen.ARM64 {
		return ARM64LinuxTrampoline
	}
	return X86_64Trampoline
}

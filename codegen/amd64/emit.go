// Package amd64 is the x86-64 backend for the Code Generator. It
// implements the shared operation vocabulary (spec §9) over the native
// call stack, using 8-byte slots throughout so a 32-bit push and a
// 32-bit pop always agree on stride — the fix for the open question in
// spec §9 about the source's push-vs-read slot-size mismatch.
package amd64

import (
	"encoding/binary"

	"github.com/quantrpeter/jit/codegen/isa"
)

// Emitter lowers the shared vocabulary to x86-64 machine code.
type Emitter struct{}

// New constructs an x86-64 Emitter.
func New() *Emitter { return &Emitter{} }

// Prologue is exactly the byte sequence spec §4.4 mandates:
// push rbp; mov rbp, rsp; sub rsp, 64.
func (Emitter) Prologue() []byte {
	return []byte{
		0x55,                   // push rbp
		0x48, 0x89, 0xE5,       // mov rbp, rsp
		0x48, 0x83, 0xEC, 0x40, // sub rsp, 64
	}
}

// Epilogue is exactly the byte sequence spec §4.4 mandates:
// mov rsp, rbp; pop rbp; ret.
func (Emitter) Epilogue() []byte {
	return []byte{
		0x48, 0x89, 0xEC, // mov rsp, rbp
		0x5D,             // pop rbp
		0xC3,             // ret
	}
}

// PushConst materializes v in eax (zero-extending into rax, the same
// behavior a 32-bit mov always has on this ISA) and pushes the full
// 8-byte register, keeping every operand-stack slot 8 bytes wide.
func (Emitter) PushConst(v int32) []byte {
	var imm [4]byte
	binary.LittleEndian.PutUint32(imm[:], uint32(v))
	return []byte{0xB8, imm[0], imm[1], imm[2], imm[3], 0x50} // mov eax, imm32; push rax
}

// LoadLocal reads the 32-bit slot at [rbp-(index+1)*4], zero-extends it
// into rax, and pushes it.
func (Emitter) LoadLocal(index int) []byte {
	disp := localDisp8(index)
	return []byte{0x8B, 0x45, disp, 0x50} // mov eax, [rbp+disp8]; push rax
}

// StoreLocal pops an 8-byte slot and writes its low 32 bits to
// [rbp-(index+1)*4].
func (Emitter) StoreLocal(index int) []byte {
	disp := localDisp8(index)
	return []byte{0x58, 0x89, 0x45, disp} // pop rax; mov [rbp+disp8], eax
}

// BinOp pops the two top operand-stack slots (rhs first, then lhs),
// computes lhs OP rhs in eax using idiv's required edx:eax dividend
// form for division, and pushes the 8-byte result.
func (Emitter) BinOp(op isa.BinOp) []byte {
	out := []byte{0x5B, 0x58} // pop rbx (rhs); pop rax (lhs)
	switch op {
	case isa.BinAdd:
		out = append(out, 0x01, 0xD8) // add eax, ebx
	case isa.BinSub:
		out = append(out, 0x29, 0xD8) // sub eax, ebx
	case isa.BinMul:
		out = append(out, 0x0F, 0xAF, 0xC3) // imul eax, ebx
	case isa.BinDiv:
		out = append(out, 0x99, 0xF7, 0xFB) // cdq; idiv ebx
	}
	return append(out, 0x50) // push rax
}

// Return pops the native-stack slot holding the operand-stack's top
// value into eax when isVoid is false, then executes the epilogue.
func (e Emitter) Return(isVoid bool) []byte {
	var out []byte
	if !isVoid {
		out = append(out, 0x58) // pop rax
	}
	return append(out, e.Epilogue()...)
}

// Nop emits a single-byte x86-64 nop, the documented lossy fallback for
// opcodes outside the supported set.
func (Emitter) Nop() []byte { return []byte{0x90} }

// localDisp8 computes the signed [rbp+disp8] displacement for local
// variable slot index, per spec §4.4's (index+1)*4 formula. The 64-byte
// reservation gives 16 valid slots; indices 16..31 reach below the
// reserved area into the operand-stack slots pushed under it, and from
// index 32 the 8-bit displacement wraps to a positive offset. This is a
// documented limit (spec §9), not a checked error.
func localDisp8(index int) byte {
	return byte(int8(-(index + 1) * 4))
}

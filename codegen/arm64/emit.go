// Package arm64 is the AArch64 backend for the Code Generator. Constant
// materialization uses a full MOVZ/MOVK pair (the fix for the open
// question in spec §9 flagging the source's structurally invalid
// constant encoding for most values); the operand stack is modeled as
// 16-byte-aligned slots on the native stack pointer, addressed with
// plain ldr/str rather than pre/post-indexed forms.
package arm64

import (
	"encoding/binary"

	"github.com/quantrpeter/jit/codegen/isa"
)

// Emitter lowers the shared vocabulary to AArch64 machine code.
type Emitter struct{}

// New constructs an AArch64 Emitter.
func New() *Emitter { return &Emitter{} }

const (
	regSP = 31
	regFP = 29 // x29, the frame pointer
	regZR = 31 // xzr/wzr in the register-field position
	slot  = 16 // operand-stack slot width, 16-byte aligned
)

func le32(w uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], w)
	return b[:]
}

// addSubImm encodes the 64-bit "Add/subtract (immediate)" family used
// for stack-pointer and frame-pointer adjustments: op=0 is ADD, op=1 is
// SUB, both with the flags-setting bit clear.
func addSubImm(op, imm12, rn, rd uint32) uint32 {
	const sf = 1
	return sf<<31 | op<<30 | 0<<29 | 0x11<<24 | 0<<22 | imm12<<10 | rn<<5 | rd
}

// addSubRegW encodes the 32-bit "Add/subtract (shifted register)"
// family used by binop's add/sub.
func addSubRegW(op, rm, rn, rd uint32) uint32 {
	const sf = 0
	return sf<<31 | op<<30 | 0<<29 | 0x0B<<24 | 0<<22 | 0<<21 | rm<<16 | 0<<10 | rn<<5 | rd
}

// movWide encodes MOVZ (opc=10) / MOVK (opc=11) into a 32-bit Wd.
func movWide(opc, hw, imm16, rd uint32) uint32 {
	const sf = 0
	return sf<<31 | opc<<29 | 0x25<<23 | hw<<21 | imm16<<5 | rd
}

// ldrStrUnsignedX encodes LDR/STR (immediate, unsigned offset), 64-bit:
// opc=01 is LDR, opc=00 is STR. imm12 is pre-scaled (byte offset / 8).
func ldrStrUnsignedX(opc, imm12, rn, rt uint32) uint32 {
	return 3<<30 | 0x7<<27 | 0<<26 | 0x1<<24 | opc<<22 | imm12<<10 | rn<<5 | rt
}

// ldurSturW encodes LDUR/STUR (immediate, unscaled signed offset),
// 32-bit: opc=01 is LDUR, opc=00 is STUR. simm9 is a signed byte offset.
func ldurSturW(opc uint32, simm9 int32, rn, rt uint32) uint32 {
	return 2<<30 | 0x7<<27 | 0<<26 | 0x0<<24 | opc<<22 | (uint32(simm9)&0x1FF)<<12 | rn<<5 | rt
}

// mulW encodes MADD Wd, Wn, Wm, WZR (i.e. MUL Wd, Wn, Wm).
func mulW(rm, rn, rd uint32) uint32 {
	return 0xD8<<21 | rm<<16 | 0<<15 | regZR<<10 | rn<<5 | rd
}

// sdivW encodes SDIV Wd, Wn, Wm.
func sdivW(rm, rn, rd uint32) uint32 {
	return 0xD6<<21 | rm<<16 | 0x3<<10 | rn<<5 | rd
}

// Prologue is exactly the byte sequence spec §4.4 mandates:
// stp x29, x30, [sp, #-16]!; mov x29, sp; sub sp, sp, #64.
func (Emitter) Prologue() []byte {
	var out []byte
	out = append(out, le32(0xA9BF7BFD)...) // stp x29, x30, [sp, #-16]!
	out = append(out, le32(addSubImm(0, 0, regSP, regFP))...) // mov x29, sp (add x29, sp, #0)
	out = append(out, le32(addSubImm(1, 64, regSP, regSP))...) // sub sp, sp, #64
	return out
}

// Epilogue is exactly the byte sequence spec §4.4 mandates:
// add sp, sp, #64; ldp x29, x30, [sp], #16; ret.
func (Emitter) Epilogue() []byte {
	var out []byte
	out = append(out, le32(addSubImm(0, 64, regSP, regSP))...) // add sp, sp, #64
	out = append(out, le32(0xA8C17BFD)...)                     // ldp x29, x30, [sp], #16
	out = append(out, le32(0xD65F03C0)...)                     // ret
	return out
}

// PushConst materializes v in w0 via MOVZ and, when the upper halfword
// is non-zero, a following MOVK, then pushes the full (zero-extended)
// x0 onto a 16-byte operand-stack slot.
func (Emitter) PushConst(v int32) []byte {
	u := uint32(v)
	lo, hi := u&0xFFFF, (u>>16)&0xFFFF

	var out []byte
	out = append(out, le32(movWide(0x2, 0, lo, 0))...) // movz w0, #lo
	if hi != 0 {
		out = append(out, le32(movWide(0x3, 1, hi, 0))...) // movk w0, #hi, lsl #16
	}
	out = append(out, pushX(0)...)
	return out
}

// LoadLocal reads the 32-bit slot at [x29-(index+1)*4] with LDUR,
// zero-extending into x0, and pushes it.
func (Emitter) LoadLocal(index int) []byte {
	off := int32(-(index + 1) * 4)
	var out []byte
	out = append(out, le32(ldurSturW(0x1, off, regFP, 0))...) // ldur w0, [x29, #off]
	out = append(out, pushX(0)...)
	return out
}

// StoreLocal pops a slot into x0 and writes its low 32 bits to
// [x29-(index+1)*4] with STUR.
func (Emitter) StoreLocal(index int) []byte {
	off := int32(-(index + 1) * 4)
	var out []byte
	out = append(out, popX(0)...)
	out = append(out, le32(ldurSturW(0x0, off, regFP, 0))...) // stur w0, [x29, #off]
	return out
}

// BinOp pops the two top operand-stack slots (rhs into x1, then lhs
// into x0), computes lhs OP rhs into w0, and pushes the result.
func (Emitter) BinOp(op isa.BinOp) []byte {
	var out []byte
	out = append(out, popX(1)...) // rhs
	out = append(out, popX(0)...) // lhs
	switch op {
	case isa.BinAdd:
		out = append(out, le32(addSubRegW(0, 1, 0, 0))...) // add w0, w0, w1
	case isa.BinSub:
		out = append(out, le32(addSubRegW(1, 1, 0, 0))...) // sub w0, w0, w1
	case isa.BinMul:
		out = append(out, le32(mulW(1, 0, 0))...) // mul w0, w0, w1
	case isa.BinDiv:
		out = append(out, le32(sdivW(1, 0, 0))...) // sdiv w0, w0, w1
	}
	out = append(out, pushX(0)...)
	return out
}

// Return pops the operand-stack's top value into x0 (the ISA return
// register, spec §4.4) when isVoid is false, then executes the
// epilogue.
func (e Emitter) Return(isVoid bool) []byte {
	var out []byte
	if !isVoid {
		out = append(out, popX(0)...)
	}
	return append(out, e.Epilogue()...)
}

// Nop emits a single AArch64 NOP instruction, the documented lossy
// fallback for opcodes outside the supported set.
func (Emitter) Nop() []byte { return le32(0xD503201F) }

func pushX(rt uint32) []byte {
	var out []byte
	out = append(out, le32(addSubImm(1, slot, regSP, regSP))...)     // sub sp, sp, #16
	out = append(out, le32(ldrStrUnsignedX(0x0, 0, regSP, rt))...)   // str xt, [sp]
	return out
}

func popX(rt uint32) []byte {
	var out []byte
	out = append(out, le32(ldrStrUnsignedX(0x1, 0, regSP, rt))...) // ldr xt, [sp]
	out = append(out, le32(addSubImm(0, slot, regSP, regSP))...)   // add sp, sp, #16
	return out
}

// Package codegen implements the Code Generator (C4): it walks a
// method's instruction list and lowers the supported integer opcode
// subset to native machine code through a shared instruction-level
// selector, dispatching each vocabulary operation (push_const, binop,
// load_local, store_local, ret, nop) to an ISA-specific Emitter. Per
// spec §9, the two ISA backends are siblings, not subclasses of one
// another — codegen shares only this selector above them.
package codegen

import (
	"runtime"

	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/codegen/amd64"
	"github.com/quantrpeter/jit/codegen/arm64"
	"github.com/quantrpeter/jit/codegen/isa"
	"github.com/quantrpeter/jit/internal/diag"
)

// ISA selects a target instruction set architecture.
type ISA int

const (
	X86_64 ISA = iota
	ARM64
)

// DetectISA picks an ISA from the host architecture, the default per
// spec §4.4 ("automatic detection from the host is permitted as a
// default").
func DetectISA() ISA {
	if runtime.GOARCH == "arm64" {
		return ARM64
	}
	return X86_64
}

// BinOp re-exports the shared arithmetic-kind vocabulary for callers
// outside this package.
type BinOp = isa.BinOp

const (
	BinAdd = isa.BinAdd
	BinSub = isa.BinSub
	BinMul = isa.BinMul
	BinDiv = isa.BinDiv
)

// Emitter is the shared operation vocabulary named in spec §9. Each ISA
// backend implements it independently; codegen's selector loop is the
// only code shared between them.
type Emitter interface {
	Prologue() []byte
	Epilogue() []byte
	PushConst(v int32) []byte
	LoadLocal(index int) []byte
	StoreLocal(index int) []byte
	BinOp(op isa.BinOp) []byte
	Return(isVoid bool) []byte
	Nop() []byte
}

// NewEmitter constructs the Emitter for isa.
func NewEmitter(isa ISA) Emitter {
	if isa == ARM64 {
		return arm64.New()
	}
	return amd64.New()
}

// NativeBlob is the Code Generator's output for one method: an
// append-only byte sequence with no internal structure (spec §3).
type NativeBlob struct {
	Bytes []byte
}

// Len returns the blob's length in bytes.
func (b *NativeBlob) Len() int { return len(b.Bytes) }

// CompileMethod lowers method's instruction list to isa-native machine
// code. Opcodes outside the supported set (spec §4.4's table) are
// emitted as a single ISA nop and logged via internal/diag; the emitter
// never fails on input (spec §4.4 "Failure").
func CompileMethod(method *classfile.Method, isa ISA) *NativeBlob {
	e := NewEmitter(isa)
	var out []byte
	out = append(out, e.Prologue()...)

	for i := range method.Instructions {
		n := &method.Instructions[i]
		if n.Kind != classfile.NodeOp {
			continue
		}
		switch {
		case n.IsIntConstPush():
			out = append(out, e.PushConst(n.IntImm)...)
		case n.Op == classfile.OpIload:
			out = append(out, e.LoadLocal(n.VarIndex)...)
		case n.Op == classfile.OpIstore:
			out = append(out, e.StoreLocal(n.VarIndex)...)
		case n.Op == classfile.OpIadd:
			out = append(out, e.BinOp(BinAdd)...)
		case n.Op == classfile.OpIsub:
			out = append(out, e.BinOp(BinSub)...)
		case n.Op == classfile.OpImul:
			out = append(out, e.BinOp(BinMul)...)
		case n.Op == classfile.OpIdiv:
			out = append(out, e.BinOp(BinDiv)...)
		case n.Op == classfile.OpIreturn:
			out = append(out, e.Return(false)...)
		case n.Op == classfile.OpReturn:
			out = append(out, e.Return(true)...)
		default:
			diag.LossyOpcode(method.Name, byte(n.Op))
			out = append(out, e.Nop()...)
		}
	}

	return &NativeBlob{Bytes: out}
}

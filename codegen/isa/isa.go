// Package isa holds the small vocabulary types the Code Generator's
// selector and its two ISA backends (codegen/amd64, codegen/arm64)
// share. It exists only to break the import cycle that would otherwise
// exist between codegen (which dispatches to the backends) and the
// backends (which implement codegen.Emitter) if the vocabulary types
// lived in codegen itself.
package isa

// BinOp identifies one of the four supported integer arithmetic kinds
// (spec §4.4: iadd, isub, imul, idiv).
type BinOp int

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
)

package codegen_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/codegen"
	"github.com/quantrpeter/jit/internal/disasm"
)

func op(o classfile.Opcode) classfile.Node { return classfile.Node{Kind: classfile.NodeOp, Op: o} }

func addOneAndTwoMethod() classfile.Method {
	instructions := []classfile.Node{
		classfile.NewIntConstNode(1),
		classfile.NewIntConstNode(2),
		op(classfile.OpIadd),
		op(classfile.OpIreturn),
	}
	return classfile.NewMethod("f", "()I", classfile.AccPublic|classfile.AccStatic, 2, 0, instructions)
}

func TestCompileMethodX86_64EndsWithRet(t *testing.T) {
	m := addOneAndTwoMethod()
	blob := codegen.CompileMethod(&m, codegen.X86_64)

	require.NotZero(t, blob.Len())
	require.Equal(t, byte(0xC3), blob.Bytes[len(blob.Bytes)-1], "property 7: every blob ends with its ISA's ret")

	insns, err := disasm.X86_64(blob.Bytes)
	require.NoError(t, err)
	require.NotEmpty(t, insns)
	require.Contains(t, insns[len(insns)-1].Text, "ret")
}

func TestCompileMethodARM64EndsWithRet(t *testing.T) {
	m := addOneAndTwoMethod()
	blob := codegen.CompileMethod(&m, codegen.ARM64)

	require.NotZero(t, blob.Len())
	require.Zero(t, blob.Len()%4, "every AArch64 instruction is 4 bytes")

	insns, err := disasm.ARM64(blob.Bytes)
	require.NoError(t, err)
	require.NotEmpty(t, insns)
	require.Contains(t, insns[len(insns)-1].Text, "RET")
}

func TestCompileMethodUnsupportedOpcodeEmitsNop(t *testing.T) {
	instructions := []classfile.Node{op(classfile.OpAthrow), op(classfile.OpReturn)}
	m := classfile.NewMethod("g", "()V", 0, 0, 0, instructions)

	blob := codegen.CompileMethod(&m, codegen.X86_64)

	require.NotZero(t, blob.Len())
	require.Equal(t, byte(0x90), blob.Bytes[8], "athrow has no lowering: a single nop follows the 8-byte prologue")
}

func TestDetectISA(t *testing.T) {
	isa := codegen.DetectISA()
	require.True(t, isa == codegen.X86_64 || isa == codegen.ARM64)
}

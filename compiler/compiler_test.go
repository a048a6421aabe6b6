package compiler_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/codegen"
	"github.com/quantrpeter/jit/compiler"
	"github.com/quantrpeter/jit/container"
	"github.com/quantrpeter/jit/internal/disasm"
	"github.com/quantrpeter/jit/internal/testclass"
)

func simpleClass(t *testing.T) []byte {
	t.Helper()
	return testclass.Build("Sums", []testclass.Method{
		{
			Name:        "main",
			Descriptor:  "([Ljava/lang/String;)V",
			AccessFlags: classfile.AccPublic | classfile.AccStatic,
			MaxStack:    0,
			MaxLocals:   1,
			Code:        []byte{0xB1}, // return
		},
		{
			Name:        "answer",
			Descriptor:  "()I",
			AccessFlags: classfile.AccPublic | classfile.AccStatic,
			MaxStack:    2,
			MaxLocals:   0,
			Code:        testclass.IaddChain(15, 25),
		},
	})
}

func TestAnalyzeReportsEveryMethod(t *testing.T) {
	info, err := compiler.Analyze(simpleClass(t))
	require.NoError(t, err)
	require.Contains(t, info, "main#([Ljava/lang/String;)V")
	require.Contains(t, info, "answer#()I")

	answer := info["answer#()I"]
	require.Equal(t, 1, answer.ArithmeticOps)

	report := info.Report()
	require.Contains(t, report, "answer#()I")
}

func TestJITRewriteLeavesColdMethodUnfoldedAndRoundTrips(t *testing.T) {
	rewritten, compiled, err := compiler.JITRewrite(simpleClass(t))
	require.NoError(t, err)
	require.NotEmpty(t, rewritten)
	require.Len(t, compiled.Methods, 2)

	c2, err := classfile.Decode(rewritten)
	require.NoError(t, err)
	m, ok := c2.Method("answer", "()I")
	require.True(t, ok)

	var ops []classfile.Opcode
	for _, n := range m.Instructions {
		if n.Kind == classfile.NodeOp {
			ops = append(ops, n.Op)
		}
	}
	// "answer" has only 3 real instructions (two pushes + iadd) + ireturn,
	// below the hot threshold, so it is left untouched: folding requires
	// is_hot, and analysis.MethodInfo.IsHot is false here.
	require.Equal(t, []classfile.Opcode{classfile.OpBipush, classfile.OpBipush, classfile.OpIadd, classfile.OpIreturn}, ops)
}

func TestCompileClassNativeWritesExecutableELF(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sums")

	err := compiler.CompileClassNative(simpleClass(t), out, container.ELF64, codegen.X86_64)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, []byte{0x7F, 'E', 'L', 'F'}, data[:4])

	fi, err := os.Stat(out)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0o755), fi.Mode().Perm())
}

func TestCompileMethodNativeSelectsByName(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "answer")

	err := compiler.CompileMethodNative(simpleClass(t), "answer", out, container.ELF64, codegen.X86_64)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	code := data[0x1000+17:] // past the x86-64 trampoline
	insns, err := disasm.X86_64(code)
	require.NoError(t, err)
	require.NotEmpty(t, insns)
}

func TestCompileMethodNativeUnknownSelectorFails(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "missing")

	err := compiler.CompileMethodNative(simpleClass(t), "nope", out, container.ELF64, codegen.X86_64)
	require.ErrorIs(t, err, compiler.ErrNoExecutableMethod)

	_, statErr := os.Stat(out)
	require.True(t, os.IsNotExist(statErr))
}

func TestCompileExpressionWritesLiteralReturn(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "lit")

	err := compiler.CompileExpression(42, out, container.MachO64, codegen.ARM64)
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, []byte{0xCF, 0xFA, 0xED, 0xFE}, data[:4])
}

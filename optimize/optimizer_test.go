package optimize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/optimize"
)

func op(o classfile.Opcode) classfile.Node { return classfile.Node{Kind: classfile.NodeOp, Op: o} }

func TestFoldsSingleIadd(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(15),
		classfile.NewIntConstNode(25),
		op(classfile.OpIadd),
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("h", in)

	require.Len(t, out, 2)
	require.True(t, out[0].IsIntConstPush())
	require.Equal(t, int32(40), out[0].IntImm)
	require.Equal(t, classfile.OpIreturn, out[1].Op)
}

func TestFoldsChainedIadds(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(1),
		classfile.NewIntConstNode(2),
		op(classfile.OpIadd),
		classfile.NewIntConstNode(3),
		op(classfile.OpIadd),
		classfile.NewIntConstNode(4),
		op(classfile.OpIadd),
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("chain", in)

	require.Len(t, out, 2, "at most one integer-push followed by ireturn after folding")
	require.Equal(t, int32(10), out[0].IntImm)
}

func TestDoesNotFoldOtherArithmetic(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(7),
		classfile.NewIntConstNode(8),
		op(classfile.OpImul),
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("mul", in)

	require.Len(t, out, 4, "spec §4.3 recognizes only iadd for folding")
	require.Equal(t, classfile.OpImul, out[2].Op)
}

func TestWrapsOnOverflow(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(2147483647),
		classfile.NewIntConstNode(1),
		op(classfile.OpIadd),
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("overflow", in)

	require.Len(t, out, 2)
	require.Equal(t, int32(-2147483648), out[0].IntImm)
}

func TestDeadCodeEliminatedAfterReturn(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(1),
		op(classfile.OpIreturn),
		classfile.NewIntConstNode(2), // unreachable
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("dead", in)

	require.Len(t, out, 2)
}

func TestDeadCodeStopsAtLabel(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(1),
		op(classfile.OpIreturn),
		{Kind: classfile.NodeLabel, LabelID: 0},
		classfile.NewIntConstNode(2),
		op(classfile.OpIreturn),
	}

	out := optimize.Optimize("label", in)

	require.Len(t, out, 5, "a jump target must never be removed, even after an earlier return")
}

func TestDeadCodePreservesMetadataNodes(t *testing.T) {
	in := []classfile.Node{
		classfile.NewIntConstNode(1),
		op(classfile.OpIreturn),
		{Kind: classfile.NodeLineNumber, LineNumber: 9},
		{Kind: classfile.NodeFrame, FrameRaw: []byte{0x01}},
		classfile.NewIntConstNode(2),
	}

	out := optimize.Optimize("meta", in)

	require.Len(t, out, 4, "unreachable op is dropped, but LineNumber/Frame nodes survive")
	require.Equal(t, classfile.NodeLineNumber, out[2].Kind)
	require.Equal(t, classfile.NodeFrame, out[3].Kind)
}

package analysis_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/analysis"
	"github.com/quantrpeter/jit/classfile"
)

func op(o classfile.Opcode) classfile.Node { return classfile.Node{Kind: classfile.NodeOp, Op: o} }

func TestAnalyzeCounts(t *testing.T) {
	instructions := []classfile.Node{
		classfile.NewIntConstNode(1),
		classfile.NewIntConstNode(2),
		op(classfile.OpIadd),
		op(classfile.OpGetstatic),
		op(classfile.OpInvokevirtual),
		op(classfile.OpIfeq),
		op(classfile.OpIreturn),
		{Kind: classfile.NodeLabel, LabelID: 0},
		{Kind: classfile.NodeLineNumber, LineNumber: 7},
	}
	m := classfile.NewMethod("f", "()I", classfile.AccPublic|classfile.AccStatic, 2, 0, instructions)

	info := analysis.Analyze(&m)
	require.Equal(t, 7, info.InstructionCount) // Label/LineNumber nodes are not counted
	require.Equal(t, 1, info.ArithmeticOps)
	require.Equal(t, 1, info.MethodCallCount)
	require.Equal(t, 1, info.FieldAccessCount)
	require.Equal(t, 1, info.BranchCount)
	require.Equal(t, 1, info.ReturnCount)
	require.False(t, info.IsHot())
}

func TestAnalyzeIsHotByInstructionCount(t *testing.T) {
	var instructions []classfile.Node
	for i := 0; i < 12; i++ {
		instructions = append(instructions, classfile.NewIntConstNode(1))
	}
	m := classfile.NewMethod("f", "()I", 0, 1, 0, instructions)

	require.True(t, analysis.Analyze(&m).IsHot())
}

func TestAnalyzeIsHotByArithmeticOps(t *testing.T) {
	instructions := []classfile.Node{
		op(classfile.OpIadd), op(classfile.OpIsub), op(classfile.OpImul), op(classfile.OpIdiv),
	}
	m := classfile.NewMethod("f", "()I", 0, 1, 0, instructions)

	require.True(t, analysis.Analyze(&m).IsHot())
}

func TestAnalyzeIsPure(t *testing.T) {
	instructions := []classfile.Node{classfile.NewIntConstNode(5), op(classfile.OpIreturn)}
	m := classfile.NewMethod("f", "()I", 0, 1, 0, instructions)

	first := analysis.Analyze(&m)
	second := analysis.Analyze(&m)
	require.Equal(t, first, second)
}

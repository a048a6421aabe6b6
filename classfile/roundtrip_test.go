package classfile_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/internal/testclass"
)

func TestDecodeSimpleReturn(t *testing.T) {
	data := testclass.Build("Answer", []testclass.Method{
		{
			Name:        "f",
			Descriptor:  "()I",
			AccessFlags: classfile.AccPublic | classfile.AccStatic,
			MaxStack:    1,
			MaxLocals:   0,
			Code:        testclass.PushIntsAndIreturn(42),
		},
	})

	c, err := classfile.Decode(data)
	require.NoError(t, err)
	require.Equal(t, "Answer", c.Name)
	require.Equal(t, "java/lang/Object", c.SuperName)

	m, ok := c.Method("f", "()I")
	require.True(t, ok)
	require.True(t, m.HasCode())
	require.True(t, m.ReturnsInt())

	var ops []classfile.Opcode
	for _, n := range m.Instructions {
		if n.Kind == classfile.NodeOp {
			ops = append(ops, n.Op)
		}
	}
	require.Equal(t, []classfile.Opcode{classfile.OpBipush, classfile.OpIreturn}, ops)
}

func TestEncodeDecodeFixedPoint(t *testing.T) {
	data := testclass.Build("Adder", []testclass.Method{
		{
			Name:        "sum",
			Descriptor:  "()I",
			AccessFlags: classfile.AccPublic | classfile.AccStatic,
			MaxStack:    2,
			MaxLocals:   0,
			Code:        testclass.IaddChain(2, 3, 4),
		},
	})

	c, err := classfile.Decode(data)
	require.NoError(t, err)

	reencoded := classfile.Encode(c)
	c2, err := classfile.Decode(reencoded)
	require.NoError(t, err)

	m1, _ := c.Method("sum", "()I")
	m2, _ := c2.Method("sum", "()I")
	require.Equal(t, len(m1.Instructions), len(m2.Instructions))
	for i := range m1.Instructions {
		require.Equal(t, m1.Instructions[i].Op, m2.Instructions[i].Op)
	}

	reencodedAgain := classfile.Encode(c2)
	require.Equal(t, reencoded, reencodedAgain, "decode-then-re-encode must be a fixed point")
}

func TestEncodeGrowsPoolForFoldedConstant(t *testing.T) {
	data := testclass.Build("K", []testclass.Method{
		{
			Name:        "k",
			Descriptor:  "()I",
			AccessFlags: classfile.AccPublic | classfile.AccStatic,
			MaxStack:    1,
			MaxLocals:   0,
			Code:        testclass.PushIntsAndIreturn(1),
		},
	})
	c, err := classfile.Decode(data)
	require.NoError(t, err)

	poolLenBefore := c.Pool.Len()
	m, _ := c.Method("k", "()I")
	m.Instructions = []classfile.Node{classfile.NewIntConstNode(99), {Kind: classfile.NodeOp, Op: classfile.OpIreturn}}

	encoded := classfile.Encode(c)
	require.Equal(t, poolLenBefore, c.Pool.Len(), "Encode must not mutate the caller's pool")

	decoded, err := classfile.Decode(encoded)
	require.NoError(t, err)

	dm, ok := decoded.Method("k", "()I")
	require.True(t, ok)
	require.Len(t, dm.Instructions, 2)
	require.Equal(t, int32(99), dm.Instructions[0].IntImm)
}

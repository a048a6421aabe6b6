package amd64_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/codegen/amd64"
	"github.com/quantrpeter/jit/codegen/isa"
	"github.com/quantrpeter/jit/internal/disasm"
)

func TestPrologueEpilogueAreTheMandatedBytes(t *testing.T) {
	e := amd64.New()
	require.Equal(t, []byte{0x55, 0x48, 0x89, 0xE5, 0x48, 0x83, 0xEC, 0x40}, e.Prologue())
	require.Equal(t, []byte{0x48, 0x89, 0xEC, 0x5D, 0xC3}, e.Epilogue())
}

func TestPushConstDisassemblesToMovAndPush(t *testing.T) {
	e := amd64.New()
	insns, err := disasm.X86_64(e.PushConst(7))
	require.NoError(t, err)
	require.Len(t, insns, 2)
	require.Contains(t, insns[0].Text, "mov")
	require.Contains(t, insns[1].Text, "push")
}

func TestBinOpEncodesEachKind(t *testing.T) {
	e := amd64.New()
	cases := map[isa.BinOp]string{
		isa.BinAdd: "add",
		isa.BinSub: "sub",
		isa.BinMul: "imul",
		isa.BinDiv: "idiv",
	}
	for op, mnemonic := range cases {
		insns, err := disasm.X86_64(e.BinOp(op))
		require.NoError(t, err)
		found := false
		for _, i := range insns {
			if strings.Contains(i.Text, mnemonic) {
				found = true
			}
		}
		require.True(t, found, "expected %s in %v", mnemonic, insns)
	}
}

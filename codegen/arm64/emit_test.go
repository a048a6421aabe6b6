package arm64_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quantrpeter/jit/codegen/arm64"
	"github.com/quantrpeter/jit/codegen/isa"
	"github.com/quantrpeter/jit/internal/disasm"
)

func TestPrologueEpilogueAreTheMandatedWords(t *testing.T) {
	e := arm64.New()
	require.Len(t, e.Prologue(), 12)
	require.Len(t, e.Epilogue(), 12)
	require.Equal(t, []byte{0xFD, 0x7B, 0xBF, 0xA9}, e.Prologue()[:4], "stp x29, x30, [sp, #-16]!")
	require.Equal(t, []byte{0xC0, 0x03, 0x5F, 0xD6}, e.Epilogue()[8:], "ret")
}

func TestPushConstUsesMovzAndMovkOnlyWhenNeeded(t *testing.T) {
	e := arm64.New()
	require.Len(t, e.PushConst(5), 12, "small constant: movz + push, no movk")
	require.Len(t, e.PushConst(0x10001), 16, "constant with a nonzero upper halfword needs movk too")
}

func TestBinOpDisassemblesToExpectedMnemonic(t *testing.T) {
	e := arm64.New()
	cases := map[isa.BinOp]string{
		isa.BinAdd: "ADD",
		isa.BinSub: "SUB",
		isa.BinMul: "MUL",
		isa.BinDiv: "SDIV",
	}
	for op, mnemonic := range cases {
		insns, err := disasm.ARM64(e.BinOp(op))
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

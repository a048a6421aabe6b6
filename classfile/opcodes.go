package classfile

// Opcode is a single JVM bytecode instruction opcode, per the class file
// format's instruction set. The opcodes that decoding, classification,
// optimization or code generation refer to are given names below;
// everything else decodes fine (see Reader) but is classified generically.
// Codegen emits a nop for any opcode outside its supported set.
type Opcode byte

const (
	OpNop      Opcode = 0
	OpAConstNull Opcode = 1

	OpIConstM1 Opcode = 2
	OpIConst0  Opcode = 3
	OpIConst1  Opcode = 4
	OpIConst2  Opcode = 5
	OpIConst3  Opcode = 6
	OpIConst4  Opcode = 7
	OpIConst5  Opcode = 8

	OpLConst0 Opcode = 9
	OpLConst1 Opcode = 10
	OpFConst0 Opcode = 11
	OpFConst1 Opcode = 12
	OpFConst2 Opcode = 13
	OpDConst0 Opcode = 14
	OpDConst1 Opcode = 15

	OpBipush Opcode = 16
	OpSipush Opcode = 17
	OpLdc    Opcode = 18
	OpLdcW   Opcode = 19
	OpLdc2W  Opcode = 20

	OpIload Opcode = 21
	OpLload Opcode = 22
	OpFload Opcode = 23
	OpDload Opcode = 24
	OpAload Opcode = 25

	OpIload0 Opcode = 26
	OpIload1 Opcode = 27
	OpIload2 Opcode = 28
	OpIload3 Opcode = 29

	OpLload0 Opcode = 30
	OpFload0 Opcode = 34
	OpDload0 Opcode = 38
	OpAload0 Opcode = 42

	OpIaload Opcode = 46
	OpSaload Opcode = 53

	OpIstore Opcode = 54
	OpLstore Opcode = 55
	OpFstore Opcode = 56
	OpDstore Opcode = 57
	OpAstore Opcode = 58

	OpIstore0 Opcode = 59
	OpIstore1 Opcode = 60
	OpIstore2 Opcode = 61
	OpIstore3 Opcode = 62

	OpLstore0 Opcode = 63
	OpFstore0 Opcode = 67
	OpDstore0 Opcode = 71
	OpAstore0 Opcode = 75

	OpIastore Opcode = 79
	OpSastore Opcode = 86

	OpPop   Opcode = 87
	OpPop2  Opcode = 88
	OpSwap  Opcode = 95

	OpIadd Opcode = 96
	OpLadd Opcode = 97
	OpFadd Opcode = 98
	OpDadd Opcode = 99
	OpIsub Opcode = 100
	OpLsub Opcode = 101
	OpFsub Opcode = 102
	OpDsub Opcode = 103
	OpImul Opcode = 104
	OpLmul Opcode = 105
	OpFmul Opcode = 106
	OpDmul Opcode = 107
	OpIdiv Opcode = 108
	OpLdiv Opcode = 109
	OpFdiv Opcode = 110
	OpDdiv Opcode = 111
	OpIrem Opcode = 112
	OpLrem Opcode = 113
	OpFrem Opcode = 114
	OpDrem Opcode = 115

	OpIneg Opcode = 116
	OpDneg Opcode = 119

	OpIshl  Opcode = 120
	OpLushr Opcode = 125

	OpIand Opcode = 126
	OpLxor Opcode = 131

	OpIinc Opcode = 132

	OpI2l Opcode = 133
	OpD2f Opcode = 144
	OpI2b Opcode = 145
	OpI2c Opcode = 146
	OpI2s Opcode = 147

	OpLcmp  Opcode = 148
	OpDcmpg Opcode = 152

	OpIfeq      Opcode = 153
	OpIfne      Opcode = 154
	OpIflt      Opcode = 155
	OpIfge      Opcode = 156
	OpIfgt      Opcode = 157
	OpIfle      Opcode = 158
	OpIfIcmpeq  Opcode = 159
	OpIfIcmpne  Opcode = 160
	OpIfIcmplt  Opcode = 161
	OpIfIcmpge  Opcode = 162
	OpIfIcmpgt  Opcode = 163
	OpIfIcmple  Opcode = 164
	OpIfAcmpeq  Opcode = 165
	OpIfAcmpne  Opcode = 166
	OpGoto      Opcode = 167
	OpJsr       Opcode = 168
	OpRet       Opcode = 169
	OpTableswitch  Opcode = 170
	OpLookupswitch Opcode = 171

	OpIreturn Opcode = 172
	OpLreturn Opcode = 173
	OpFreturn Opcode = 174
	OpDreturn Opcode = 175
	OpAreturn Opcode = 176
	OpReturn  Opcode = 177

	OpGetstatic Opcode = 178
	OpPutstatic Opcode = 179
	OpGetfield  Opcode = 180
	OpPutfield  Opcode = 181

	OpInvokevirtual   Opcode = 182
	OpInvokespecial   Opcode = 183
	OpInvokestatic    Opcode = 184
	OpInvokeinterface Opcode = 185
	OpInvokedynamic   Opcode = 186

	OpNew          Opcode = 187
	OpNewarray     Opcode = 188
	OpAnewarray    Opcode = 189
	OpArraylength  Opcode = 190
	OpAthrow       Opcode = 191
	OpCheckcast    Opcode = 192
	OpInstanceof   Opcode = 193
	OpMonitorenter Opcode = 194
	OpMonitorexit  Opcode = 195

	OpWide            Opcode = 196
	OpMultianewarray  Opcode = 197
	OpIfnull          Opcode = 198
	OpIfnonnull       Opcode = 199
	OpGotoW           Opcode = 200
	OpJsrW            Opcode = 201
)

// IsArithmetic reports whether op is one of the integer/float/double
// arithmetic opcodes iadd..drem, per the Bytecode Analyzer classification
// table (spec §4.2).
func (op Opcode) IsArithmetic() bool {
	return op >= OpIadd && op <= OpDrem
}

// IsReturn reports whether op is one of ireturn..return.
func (op Opcode) IsReturn() bool {
	return op >= OpIreturn && op <= OpReturn
}

// IsFieldAccess reports whether op is a field get/put form.
func (op Opcode) IsFieldAccess() bool {
	return op >= OpGetstatic && op <= OpPutfield
}

// IsInvoke reports whether op is any invoke-form.
func (op Opcode) IsInvoke() bool {
	return op >= OpInvokevirtual && op <= OpInvokedynamic
}

// IsBranch reports whether op is a conditional or unconditional jump.
// tableswitch/lookupswitch are structurally branches but the original
// analyzer only counts the JumpInsnNode family (ifeq..if_acmpne, goto,
// jsr, ifnull, ifnonnull, goto_w, jsr_w); matched here for fidelity.
func (op Opcode) IsBranch() bool {
	switch {
	case op >= OpIfeq && op <= OpJsr:
		return true
	case op == OpIfnull || op == OpIfnonnull || op == OpGotoW || op == OpJsrW:
		return true
	default:
		return false
	}
}

// isIntConstShort reports whether op is one of the single-byte integer
// constant-push forms (iconst_m1..iconst_5) used by constant folding.
func (op Opcode) isIntConstShort() bool {
	return op >= OpIConstM1 && op <= OpIConst5
}

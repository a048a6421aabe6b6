package classfile

// NodeKind discriminates the instruction-list node variants described in
// spec §3: a real opcode, or one of the two synthetic pseudo-instructions
// (Label, LineNumber/Frame) that must round-trip but carry no executable
// semantics of their own.
type NodeKind uint8

const (
	// NodeOp is a real bytecode instruction.
	NodeOp NodeKind = iota
	// NodeLabel is a transparent branch-target marker. Analysis and codegen
	// skip it; the optimizer must never remove one or cross it.
	NodeLabel
	// NodeLineNumber is a LineNumberTable entry, preserved but ignored.
	NodeLineNumber
	// NodeFrame is a StackMapTable frame entry, preserved but ignored.
	NodeFrame
)

// SwitchPair is one (key, target) entry of a lookupswitch.
type SwitchPair struct {
	Key   int32
	Label int
}

// Node is one element of a Method's instruction list. It is a
// discriminated record: Kind selects which fields are meaningful. Branch
// and switch targets are resolved to synthetic Label ids at decode time
// (see Reader), not kept as raw byte offsets, so the optimizer is free to
// add or remove instructions between a branch and its target without
// invalidating it.
type Node struct {
	Kind NodeKind

	// --- NodeOp fields ---

	Op Opcode

	// IntImm holds the push value for iconst_*/bipush/sipush, and the
	// iinc increment amount (second operand) when Op == OpIinc.
	IntImm int32

	// VarIndex holds the resolved local-variable slot for *load/*store,
	// iinc, and ret. The iload_N/istore_N short forms are decoded as
	// iload/istore with VarIndex N; the other typed short forms
	// (lload_N, aload_N, ...) keep their own opcode and leave VarIndex 0.
	VarIndex int

	// ConstPoolIndex holds the raw constant-pool index operand for ldc,
	// ldc_w, ldc2_w, getstatic/putstatic/getfield/putfield, the invoke
	// family, new, anewarray, checkcast, instanceof and multianewarray.
	ConstPoolIndex uint16
	HasConstIndex  bool

	// ldcIsInt records whether an OpLdc node's constant-pool entry
	// resolved to an Integer at decode time, per the folding window's
	// "ldc whose constant-pool entry resolves to an integer" clause.
	ldcIsInt bool

	// InvokeInterfaceCount is invokeinterface's "count" operand byte,
	// kept only so re-encoding is exact.
	InvokeInterfaceCount byte
	// MultianewarrayDims is multianewarray's dimensions operand byte.
	MultianewarrayDims byte

	// BranchLabel is the resolved target for the conditional/unconditional
	// jump family (ifeq..if_acmpne, goto, jsr, ifnull, ifnonnull, goto_w,
	// jsr_w).
	BranchLabel int

	// Switch* fields are valid for tableswitch/lookupswitch.
	SwitchDefault int
	SwitchLow     int32
	SwitchHigh    int32
	SwitchLabels  []int // tableswitch per-case targets, length High-Low+1
	SwitchPairs   []SwitchPair

	// --- NodeLabel fields ---

	LabelID int

	// --- NodeLineNumber fields ---

	LineNumber int

	// --- NodeFrame fields ---

	// FrameRaw is the verbatim encoded bytes of one StackMapTable frame
	// entry. The decoder never interprets frame contents; see DESIGN.md
	// for the round-trip policy around optimized methods.
	FrameRaw []byte
}

// IsIntConstPush reports whether the node pushes a 32-bit integer constant
// (short form, bipush, sipush, or an integer-valued ldc) per the folding
// window's pattern match in spec §4.3.
func (n *Node) IsIntConstPush() bool {
	if n.Kind != NodeOp {
		return false
	}
	switch n.Op {
	case OpIConstM1, OpIConst0, OpIConst1, OpIConst2, OpIConst3, OpIConst4, OpIConst5, OpBipush, OpSipush:
		return true
	case OpLdc:
		return n.ldcIsInt
	default:
		return false
	}
}

// NewIntConstNode builds a synthetic ldc node pushing value. The Bytecode
// Optimizer's constant-folding pass uses this to collapse a folded window
// into the single node spec §4.3 calls for; the Class Writer assigns it a
// fresh Integer constant-pool entry when re-encoding.
func NewIntConstNode(value int32) Node {
	return Node{Kind: NodeOp, Op: OpLdc, IntImm: value, ldcIsInt: true}
}

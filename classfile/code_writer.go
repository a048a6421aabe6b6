package classfile

import "bytes"

// prepareMethod encodes one method_info entry (access_flags through its
// attribute list), assigning any fresh constant-pool entries a folded
// instruction needs before the caller serializes the constant pool. It
// never mutates m; it works against a copy of the instruction list.
func prepareMethod(pool *ConstantPool, m *Method) []byte {
	var codeInfo []byte
	if m.HasCode() {
		codeInfo = encodeCode(pool, m)
	}

	var buf bytes.Buffer
	putU2(&buf, m.AccessFlags)
	putU2(&buf, m.NameIndex)
	putU2(&buf, m.DescIndex)

	attrCount := len(m.Attributes)
	if codeInfo != nil {
		attrCount++
	}
	putU2(&buf, uint16(attrCount))

	if codeInfo != nil {
		putU2(&buf, pool.FindOrAddUTF8("Code"))
		putU4(&buf, uint32(len(codeInfo)))
		buf.Write(codeInfo)
	}
	for _, a := range m.Attributes {
		putU2(&buf, a.NameIndex)
		putU4(&buf, uint32(len(a.Info)))
		buf.Write(a.Info)
	}

	return buf.Bytes()
}

type lineEntry struct{ offset, line int }

type planItem struct {
	node   Node
	offset int
}

// encodeCode rebuilds a method's Code attribute body from its (possibly
// optimized) Instructions list. Layout is a single forward pass: every
// node's length depends only on its own opcode, its operand values and
// (for tableswitch/lookupswitch padding) its own offset, never on a
// resolved branch/switch target, so offsets and label positions can
// be computed in one sweep before any operand bytes are emitted (see
// DESIGN.md). StackMapTable frames are dropped; LineNumberTable is
// regenerated fresh from the final offsets of surviving NodeLineNumber
// entries.
func encodeCode(pool *ConstantPool, m *Method) []byte {
	instructions := append([]Node(nil), m.Instructions...)

	runningOffset := 0
	labelOffset := map[int]int{}
	var plan []planItem
	var lines []lineEntry

	for _, n := range instructions {
		switch n.Kind {
		case NodeLabel:
			labelOffset[n.LabelID] = runningOffset
		case NodeLineNumber:
			lines = append(lines, lineEntry{offset: runningOffset, line: n.LineNumber})
		case NodeFrame:
			// dropped on re-encode; see DESIGN.md.
		case NodeOp:
			length := computeOpLength(pool, &n, runningOffset)
			plan = append(plan, planItem{node: n, offset: runningOffset})
			runningOffset += length
		}
	}
	codeLen := runningOffset

	var code bytes.Buffer
	for _, item := range plan {
		emitOp(&code, item.node, item.offset, labelOffset)
	}

	var out bytes.Buffer
	putU2(&out, m.MaxStack)
	putU2(&out, m.MaxLocals)
	putU4(&out, uint32(codeLen))
	out.Write(code.Bytes())

	putU2(&out, uint16(len(m.Exceptions)))
	for _, e := range m.Exceptions {
		putU2(&out, uint16(labelOffset[e.StartLabel]))
		putU2(&out, uint16(labelOffset[e.EndLabel]))
		putU2(&out, uint16(labelOffset[e.HandlerLabel]))
		putU2(&out, e.CatchType)
	}

	var attrs []Attribute
	if len(lines) > 0 {
		attrs = append(attrs, encodeLineNumberTable(pool, lines))
	}
	attrs = append(attrs, m.CodeAttributes...)

	putU2(&out, uint16(len(attrs)))
	for _, a := range attrs {
		putU2(&out, a.NameIndex)
		putU4(&out, uint32(len(a.Info)))
		out.Write(a.Info)
	}

	return out.Bytes()
}

func encodeLineNumberTable(pool *ConstantPool, lines []lineEntry) Attribute {
	var info bytes.Buffer
	putU2(&info, uint16(len(lines)))
	for _, l := range lines {
		putU2(&info, uint16(l.offset))
		putU2(&info, uint16(l.line))
	}
	return Attribute{NameIndex: pool.FindOrAddUTF8("LineNumberTable"), Info: info.Bytes()}
}

func isLoadStoreOp(op Opcode) bool {
	switch op {
	case OpIload, OpLload, OpFload, OpDload, OpAload,
		OpIstore, OpLstore, OpFstore, OpDstore, OpAstore:
		return true
	default:
		return false
	}
}

func shortLoadStoreBase(op Opcode) Opcode {
	switch op {
	case OpIload:
		return OpIload0
	case OpLload:
		return OpLload0
	case OpFload:
		return OpFload0
	case OpDload:
		return OpDload0
	case OpAload:
		return OpAload0
	case OpIstore:
		return OpIstore0
	case OpLstore:
		return OpLstore0
	case OpFstore:
		return OpFstore0
	case OpDstore:
		return OpDstore0
	case OpAstore:
		return OpAstore0
	default:
		return op
	}
}

func isConstIndex3(op Opcode) bool {
	if op.IsFieldAccess() {
		return true
	}
	switch op {
	case OpInvokevirtual, OpInvokespecial, OpInvokestatic, OpNew, OpAnewarray, OpCheckcast, OpInstanceof:
		return true
	default:
		return false
	}
}

func tableswitchPad(ownOffset int) int { return (4 - (ownOffset+1)%4) % 4 }

// computeOpLength returns the byte length n will occupy when emitted at
// ownOffset, resolving any encoding choice (short vs. wide local-variable
// form, ldc vs. ldc_w) that depends only on n's own operand values. It
// assigns a fresh constant-pool entry to a folded ldc that doesn't have
// one yet, mutating n and pool in place.
func computeOpLength(pool *ConstantPool, n *Node, ownOffset int) int {
	switch {
	case n.Op.isIntConstShort():
		return 1
	case n.Op == OpBipush:
		return 2
	case n.Op == OpSipush:
		return 3
	case n.Op == OpLdc:
		if !n.HasConstIndex {
			n.ConstPoolIndex = pool.AddInteger(n.IntImm)
			n.HasConstIndex = true
		}
		if n.ConstPoolIndex > 255 {
			n.Op = OpLdcW
			return 3
		}
		return 2
	case n.Op == OpLdcW, n.Op == OpLdc2W:
		return 3
	case isLoadStoreOp(n.Op):
		if n.VarIndex >= 0 && n.VarIndex <= 3 {
			return 1
		}
		if n.VarIndex <= 255 {
			return 2
		}
		return 4
	case n.Op == OpIinc:
		if n.VarIndex <= 255 && n.IntImm >= -128 && n.IntImm <= 127 {
			return 3
		}
		return 6
	case n.Op == OpRet:
		if n.VarIndex <= 255 {
			return 2
		}
		return 4
	case n.Op.IsBranch():
		if n.Op == OpGotoW || n.Op == OpJsrW {
			return 5
		}
		return 3
	case n.Op == OpTableswitch:
		count := int(n.SwitchHigh-n.SwitchLow) + 1
		return 1 + tableswitchPad(ownOffset) + 12 + count*4
	case n.Op == OpLookupswitch:
		return 1 + tableswitchPad(ownOffset) + 8 + len(n.SwitchPairs)*8
	case isConstIndex3(n.Op):
		return 3
	case n.Op == OpInvokeinterface, n.Op == OpInvokedynamic:
		return 5
	case n.Op == OpNewarray:
		return 2
	case n.Op == OpMultianewarray:
		return 4
	default:
		return 1
	}
}

// emitOp writes n's final bytes, resolving branch/switch targets relative
// to ownOffset via labelOffset.
func emitOp(buf *bytes.Buffer, n Node, ownOffset int, labelOffset map[int]int) {
	switch {
	case n.Op.isIntConstShort():
		putU1(buf, byte(n.Op))
	case n.Op == OpBipush:
		putU1(buf, byte(n.Op))
		putU1(buf, byte(int8(n.IntImm)))
	case n.Op == OpSipush:
		putU1(buf, byte(n.Op))
		putU2(buf, uint16(int16(n.IntImm)))
	case n.Op == OpLdc:
		putU1(buf, byte(n.Op))
		putU1(buf, byte(n.ConstPoolIndex))
	case n.Op == OpLdcW, n.Op == OpLdc2W:
		putU1(buf, byte(n.Op))
		putU2(buf, n.ConstPoolIndex)
	case isLoadStoreOp(n.Op):
		switch {
		case n.VarIndex >= 0 && n.VarIndex <= 3:
			putU1(buf, byte(shortLoadStoreBase(n.Op))+byte(n.VarIndex))
		case n.VarIndex <= 255:
			putU1(buf, byte(n.Op))
			putU1(buf, byte(n.VarIndex))
		default:
			putU1(buf, byte(OpWide))
			putU1(buf, byte(n.Op))
			putU2(buf, uint16(n.VarIndex))
		}
	case n.Op == OpIinc:
		if n.VarIndex <= 255 && n.IntImm >= -128 && n.IntImm <= 127 {
			putU1(buf, byte(n.Op))
			putU1(buf, byte(n.VarIndex))
			putU1(buf, byte(int8(n.IntImm)))
		} else {
			putU1(buf, byte(OpWide))
			putU1(buf, byte(n.Op))
			putU2(buf, uint16(n.VarIndex))
			putU2(buf, uint16(int16(n.IntImm)))
		}
	case n.Op == OpRet:
		if n.VarIndex <= 255 {
			putU1(buf, byte(n.Op))
			putU1(buf, byte(n.VarIndex))
		} else {
			putU1(buf, byte(OpWide))
			putU1(buf, byte(n.Op))
			putU2(buf, uint16(n.VarIndex))
		}
	case n.Op.IsBranch():
		rel := labelOffset[n.BranchLabel] - ownOffset
		putU1(buf, byte(n.Op))
		if n.Op == OpGotoW || n.Op == OpJsrW {
			putU4(buf, uint32(int32(rel)))
		} else {
			putU2(buf, uint16(int16(rel)))
		}
	case n.Op == OpTableswitch:
		putU1(buf, byte(n.Op))
		for i := 0; i < tableswitchPad(ownOffset); i++ {
			putU1(buf, 0)
		}
		putU4(buf, uint32(int32(labelOffset[n.SwitchDefault]-ownOffset)))
		putU4(buf, uint32(n.SwitchLow))
		putU4(buf, uint32(n.SwitchHigh))
		for _, lbl := range n.SwitchLabels {
			putU4(buf, uint32(int32(labelOffset[lbl]-ownOffset)))
		}
	case n.Op == OpLookupswitch:
		putU1(buf, byte(n.Op))
		for i := 0; i < tableswitchPad(ownOffset); i++ {
			putU1(buf, 0)
		}
		putU4(buf, uint32(int32(labelOffset[n.SwitchDefault]-ownOffset)))
		putU4(buf, uint32(len(n.SwitchPairs)))
		for _, p := range n.SwitchPairs {
			putU4(buf, uint32(p.Key))
			putU4(buf, uint32(int32(labelOffset[p.Label]-ownOffset)))
		}
	case isConstIndex3(n.Op):
		putU1(buf, byte(n.Op))
		putU2(buf, n.ConstPoolIndex)
	case n.Op == OpInvokeinterface:
		putU1(buf, byte(n.Op))
		putU2(buf, n.ConstPoolIndex)
		putU1(buf, n.InvokeInterfaceCount)
		putU1(buf, 0)
	case n.Op == OpInvokedynamic:
		putU1(buf, byte(n.Op))
		putU2(buf, n.ConstPoolIndex)
		putU2(buf, 0)
	case n.Op == OpNewarray:
		putU1(buf, byte(n.Op))
		putU1(buf, byte(n.IntImm))
	case n.Op == OpMultianewarray:
		putU1(buf, byte(n.Op))
		putU2(buf, n.ConstPoolIndex)
		putU1(buf, n.MultianewarrayDims)
	default:
		putU1(buf, byte(n.Op))
	}
}

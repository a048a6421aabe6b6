package classfile

import (
	"encoding/binary"
	"fmt"
	"sort"
)

// decodeCode parses a Code attribute's body into m.Instructions and
// m.Exceptions. Every opcode in the class file format's instruction set is
// recognized at least enough to compute its length and any branch/switch
// targets, per spec §4.1's "decoding of wide, branch offsets,
// tableswitch/lookupswitch, and local-variable index forms must be
// correct even though they are not emitted".
func decodeCode(m *Method, pool *ConstantPool, body []byte) error {
	bc := &cursor{buf: body}

	maxStack, err := bc.u2()
	if err != nil {
		return err
	}
	maxLocals, err := bc.u2()
	if err != nil {
		return err
	}
	m.MaxStack, m.MaxLocals = maxStack, maxLocals

	codeLen, err := bc.u4()
	if err != nil {
		return err
	}
	code, err := bc.raw(int(codeLen))
	if err != nil {
		return err
	}

	excCount, err := bc.u2()
	if err != nil {
		return err
	}
	type rawExc struct{ start, end, handler int; catchType uint16 }
	rawExcs := make([]rawExc, excCount)
	for i := range rawExcs {
		start, err := bc.u2()
		if err != nil {
			return err
		}
		end, err := bc.u2()
		if err != nil {
			return err
		}
		handler, err := bc.u2()
		if err != nil {
			return err
		}
		catchType, err := bc.u2()
		if err != nil {
			return err
		}
		rawExcs[i] = rawExc{int(start), int(end), int(handler), catchType}
	}

	attrCount, err := bc.u2()
	if err != nil {
		return err
	}

	lineTable := map[int]int{}   // offset -> line number
	frameBlobs := map[int][]byte{} // offset -> raw frame entry bytes (one blob per frame, keyed by its own offset)

	for i := uint16(0); i < attrCount; i++ {
		nameIdx, err := bc.u2()
		if err != nil {
			return err
		}
		length, err := bc.u4()
		if err != nil {
			return err
		}
		info, err := bc.raw(int(length))
		if err != nil {
			return err
		}
		name, err := pool.UTF8At(nameIdx)
		if err != nil {
			return err
		}
		switch name {
		case "LineNumberTable":
			if err := decodeLineNumberTable(info, lineTable); err != nil {
				return err
			}
		case "StackMapTable":
			if err := decodeStackMapTable(info, frameBlobs); err != nil {
				return err
			}
		default:
			m.CodeAttributes = append(m.CodeAttributes, Attribute{NameIndex: nameIdx, Info: append([]byte(nil), info...)})
		}
	}

	insns, targets, err := decodeInstructions(code, pool)
	if err != nil {
		return err
	}
	for _, e := range rawExcs {
		targets[e.start] = true
		targets[e.end] = true
		targets[e.handler] = true
	}

	labelOf := assignLabels(targets)

	m.Instructions = buildNodeList(insns, len(code), labelOf, lineTable, frameBlobs)

	m.Exceptions = make([]ExceptionHandler, len(rawExcs))
	for i, e := range rawExcs {
		m.Exceptions[i] = ExceptionHandler{
			StartLabel:   labelOf[e.start],
			EndLabel:     labelOf[e.end],
			HandlerLabel: labelOf[e.handler],
			CatchType:    e.catchType,
		}
	}
	return nil
}

func decodeLineNumberTable(info []byte, out map[int]int) error {
	c := &cursor{buf: info}
	count, err := c.u2()
	if err != nil {
		return err
	}
	for i := uint16(0); i < count; i++ {
		startPC, err := c.u2()
		if err != nil {
			return err
		}
		line, err := c.u2()
		if err != nil {
			return err
		}
		out[int(startPC)] = int(line)
	}
	return nil
}

// decodeStackMapTable splits a StackMapTable attribute into per-frame raw
// blobs keyed by the bytecode offset each frame applies to, without
// interpreting verification type contents. See DESIGN.md for the
// round-trip policy around optimized methods.
func decodeStackMapTable(info []byte, out map[int][]byte) error {
	c := &cursor{buf: info}
	count, err := c.u2()
	if err != nil {
		return err
	}
	offset := -1 // first frame's delta is an absolute offset, not +1'd
	for i := uint16(0); i < count; i++ {
		start := c.pos
		frameType, err := c.u1()
		if err != nil {
			return err
		}
		var delta int
		switch {
		case frameType <= 63:
			delta = int(frameType)
		case frameType <= 127:
			delta = int(frameType) - 64
		case frameType == 247: // same_locals_1_stack_item_frame_extended
			d, err := c.u2()
			if err != nil {
				return err
			}
			if err := skipVerificationType(c); err != nil {
				return err
			}
			delta = int(d)
		case frameType >= 248 && frameType <= 250: // chop_frame
			d, err := c.u2()
			if err != nil {
				return err
			}
			delta = int(d)
		case frameType == 251: // same_frame_extended
			d, err := c.u2()
			if err != nil {
				return err
			}
			delta = int(d)
		case frameType >= 252 && frameType <= 254: // append_frame
			d, err := c.u2()
			if err != nil {
				return err
			}
			delta = int(d)
			for k := byte(0); k < frameType-251; k++ {
				if err := skipVerificationType(c); err != nil {
					return err
				}
			}
		case frameType == 255: // full_frame
			d, err := c.u2()
			if err != nil {
				return err
			}
			delta = int(d)
			numLocals, err := c.u2()
			if err != nil {
				return err
			}
			for k := uint16(0); k < numLocals; k++ {
				if err := skipVerificationType(c); err != nil {
					return err
				}
			}
			numStack, err := c.u2()
			if err != nil {
				return err
			}
			for k := uint16(0); k < numStack; k++ {
				if err := skipVerificationType(c); err != nil {
					return err
				}
			}
		case frameType >= 64 && frameType <= 127:
			// same_locals_1_stack_item_frame, handled by the <=127 case above
		default:
			return fmt.Errorf("unrecognized stack map frame type %d: %w", frameType, ErrMalformedClass)
		}
		if frameType >= 64 && frameType <= 127 {
			if err := skipVerificationType(c); err != nil {
				return err
			}
		}
		if offset < 0 {
			offset = delta
		} else {
			offset = offset + delta + 1
		}
		out[offset] = append([]byte(nil), info[start:c.pos]...)
	}
	return nil
}

func skipVerificationType(c *cursor) error {
	tag, err := c.u1()
	if err != nil {
		return err
	}
	if tag == 7 || tag == 8 { // Object_variable_info, Uninitialized_variable_info
		if _, err := c.u2(); err != nil {
			return err
		}
	}
	return nil
}

type decodedInsn struct {
	offset int
	node   Node
	length int
}

// decodeInstructions decodes the raw bytecode array into a list of
// instruction nodes with BranchLabel/Switch* fields left as absolute
// target byte offsets; targets collects every offset referenced by a
// branch or switch so assignLabels can synthesize Label nodes for them.
func decodeInstructions(code []byte, pool *ConstantPool) ([]decodedInsn, map[int]bool, error) {
	targets := map[int]bool{}
	var insns []decodedInsn

	for offset := 0; offset < len(code); {
		op := Opcode(code[offset])
		n := Node{Kind: NodeOp, Op: op}
		length := 1

		switch {
		case op.isIntConstShort():
			n.IntImm = int32(op) - int32(OpIConst0)

		case op == OpBipush:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated bipush at %d: %w", offset, ErrMalformedClass)
			}
			n.IntImm = int32(int8(code[offset+1]))
			length = 2

		case op == OpSipush:
			if offset+3 > len(code) {
				return nil, nil, fmt.Errorf("truncated sipush at %d: %w", offset, ErrMalformedClass)
			}
			n.IntImm = int32(int16(binary.BigEndian.Uint16(code[offset+1:])))
			length = 3

		case op == OpLdc:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated ldc at %d: %w", offset, ErrMalformedClass)
			}
			idx := uint16(code[offset+1])
			n.ConstPoolIndex, n.HasConstIndex = idx, true
			if v, err := pool.IntegerAt(idx); err == nil {
				n.IntImm, n.ldcIsInt = v, true
			}
			length = 2

		case op == OpLdcW || op == OpLdc2W:
			if offset+3 > len(code) {
				return nil, nil, fmt.Errorf("truncated %v at %d: %w", op, offset, ErrMalformedClass)
			}
			idx := binary.BigEndian.Uint16(code[offset+1:])
			n.ConstPoolIndex, n.HasConstIndex = idx, true
			if op == OpLdcW {
				if v, err := pool.IntegerAt(idx); err == nil {
					n.IntImm, n.ldcIsInt = v, true
				}
			}
			length = 3

		case op == OpIload0 || op == OpIload1 || op == OpIload2 || op == OpIload3:
			n.Op = OpIload
			n.VarIndex = int(op) - int(OpIload0)
		case op == OpIstore0 || op == OpIstore1 || op == OpIstore2 || op == OpIstore3:
			n.Op = OpIstore
			n.VarIndex = int(op) - int(OpIstore0)
		case op == OpIload || op == OpLload || op == OpFload || op == OpDload || op == OpAload:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated load at %d: %w", offset, ErrMalformedClass)
			}
			n.VarIndex = int(code[offset+1])
			length = 2
		case op == OpIstore || op == OpLstore || op == OpFstore || op == OpDstore || op == OpAstore:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated store at %d: %w", offset, ErrMalformedClass)
			}
			n.VarIndex = int(code[offset+1])
			length = 2

		case op == OpIinc:
			if offset+3 > len(code) {
				return nil, nil, fmt.Errorf("truncated iinc at %d: %w", offset, ErrMalformedClass)
			}
			n.VarIndex = int(code[offset+1])
			n.IntImm = int32(int8(code[offset+2]))
			length = 3

		case op == OpRet:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated ret at %d: %w", offset, ErrMalformedClass)
			}
			n.VarIndex = int(code[offset+1])
			length = 2

		case op.IsBranch():
			if op == OpGotoW || op == OpJsrW {
				if offset+5 > len(code) {
					return nil, nil, fmt.Errorf("truncated wide branch at %d: %w", offset, ErrMalformedClass)
				}
				rel := int32(binary.BigEndian.Uint32(code[offset+1:]))
				target := offset + int(rel)
				n.BranchLabel = target
				targets[target] = true
				length = 5
			} else {
				if offset+3 > len(code) {
					return nil, nil, fmt.Errorf("truncated branch at %d: %w", offset, ErrMalformedClass)
				}
				rel := int32(int16(binary.BigEndian.Uint16(code[offset+1:])))
				target := offset + int(rel)
				n.BranchLabel = target
				targets[target] = true
				length = 3
			}

		case op == OpTableswitch:
			l, err := decodeTableswitch(code, offset, &n, targets)
			if err != nil {
				return nil, nil, err
			}
			length = l

		case op == OpLookupswitch:
			l, err := decodeLookupswitch(code, offset, &n, targets)
			if err != nil {
				return nil, nil, err
			}
			length = l

		case op == OpGetstatic || op == OpPutstatic || op == OpGetfield || op == OpPutfield,
			op == OpInvokevirtual || op == OpInvokespecial || op == OpInvokestatic,
			op == OpNew || op == OpAnewarray || op == OpCheckcast || op == OpInstanceof:
			if offset+3 > len(code) {
				return nil, nil, fmt.Errorf("truncated at %d: %w", offset, ErrMalformedClass)
			}
			n.ConstPoolIndex, n.HasConstIndex = binary.BigEndian.Uint16(code[offset+1:]), true
			length = 3

		case op == OpInvokeinterface:
			if offset+5 > len(code) {
				return nil, nil, fmt.Errorf("truncated invokeinterface at %d: %w", offset, ErrMalformedClass)
			}
			n.ConstPoolIndex, n.HasConstIndex = binary.BigEndian.Uint16(code[offset+1:]), true
			n.InvokeInterfaceCount = code[offset+3]
			length = 5

		case op == OpInvokedynamic:
			if offset+5 > len(code) {
				return nil, nil, fmt.Errorf("truncated invokedynamic at %d: %w", offset, ErrMalformedClass)
			}
			n.ConstPoolIndex, n.HasConstIndex = binary.BigEndian.Uint16(code[offset+1:]), true
			length = 5

		case op == OpNewarray:
			if offset+2 > len(code) {
				return nil, nil, fmt.Errorf("truncated newarray at %d: %w", offset, ErrMalformedClass)
			}
			n.IntImm = int32(code[offset+1])
			length = 2

		case op == OpMultianewarray:
			if offset+4 > len(code) {
				return nil, nil, fmt.Errorf("truncated multianewarray at %d: %w", offset, ErrMalformedClass)
			}
			n.ConstPoolIndex, n.HasConstIndex = binary.BigEndian.Uint16(code[offset+1:]), true
			n.MultianewarrayDims = code[offset+3]
			length = 4

		case op == OpWide:
			l, err := decodeWide(code, offset, &n)
			if err != nil {
				return nil, nil, err
			}
			length = l

		default:
			// nop, aconst_null, xaload/xastore, pop/pop2/dup*/swap, binary
			// arithmetic, conversions, comparisons, xreturn/return,
			// arraylength, athrow, monitorenter/exit: all single-byte,
			// no operand to decode.
			length = 1
		}

		insns = append(insns, decodedInsn{offset: offset, node: n, length: length})
		offset += length
	}

	return insns, targets, nil
}

func decodeTableswitch(code []byte, offset int, n *Node, targets map[int]bool) (int, error) {
	pad := (4 - (offset+1)%4) % 4
	p := offset + 1 + pad
	if p+12 > len(code) {
		return 0, fmt.Errorf("truncated tableswitch at %d: %w", offset, ErrMalformedClass)
	}
	def := int32(binary.BigEndian.Uint32(code[p:]))
	low := int32(binary.BigEndian.Uint32(code[p+4:]))
	high := int32(binary.BigEndian.Uint32(code[p+8:]))
	n.SwitchDefault = offset + int(def)
	targets[n.SwitchDefault] = true
	n.SwitchLow, n.SwitchHigh = low, high

	count := int(high - low + 1)
	if count < 0 {
		return 0, fmt.Errorf("invalid tableswitch bounds at %d: %w", offset, ErrMalformedClass)
	}
	base := p + 12
	if base+count*4 > len(code) {
		return 0, fmt.Errorf("truncated tableswitch table at %d: %w", offset, ErrMalformedClass)
	}
	n.SwitchLabels = make([]int, count)
	for i := 0; i < count; i++ {
		off := int32(binary.BigEndian.Uint32(code[base+i*4:]))
		target := offset + int(off)
		n.SwitchLabels[i] = target
		targets[target] = true
	}
	return base + count*4 - offset, nil
}

func decodeLookupswitch(code []byte, offset int, n *Node, targets map[int]bool) (int, error) {
	pad := (4 - (offset+1)%4) % 4
	p := offset + 1 + pad
	if p+8 > len(code) {
		return 0, fmt.Errorf("truncated lookupswitch at %d: %w", offset, ErrMalformedClass)
	}
	def := int32(binary.BigEndian.Uint32(code[p:]))
	npairs := int32(binary.BigEndian.Uint32(code[p+4:]))
	n.SwitchDefault = offset + int(def)
	targets[n.SwitchDefault] = true

	base := p + 8
	if npairs < 0 || base+int(npairs)*8 > len(code) {
		return 0, fmt.Errorf("truncated lookupswitch table at %d: %w", offset, ErrMalformedClass)
	}
	n.SwitchPairs = make([]SwitchPair, npairs)
	for i := 0; i < int(npairs); i++ {
		key := int32(binary.BigEndian.Uint32(code[base+i*8:]))
		off := int32(binary.BigEndian.Uint32(code[base+i*8+4:]))
		target := offset + int(off)
		n.SwitchPairs[i] = SwitchPair{Key: key, Label: target}
		targets[target] = true
	}
	return base + int(npairs)*8 - offset, nil
}

func decodeWide(code []byte, offset int, n *Node) (int, error) {
	if offset+2 > len(code) {
		return 0, fmt.Errorf("truncated wide at %d: %w", offset, ErrMalformedClass)
	}
	inner := Opcode(code[offset+1])
	switch inner {
	case OpIload, OpLload, OpFload, OpDload, OpAload, OpIstore, OpLstore, OpFstore, OpDstore, OpAstore, OpRet:
		if offset+4 > len(code) {
			return 0, fmt.Errorf("truncated wide load/store at %d: %w", offset, ErrMalformedClass)
		}
		n.Op = inner
		n.VarIndex = int(binary.BigEndian.Uint16(code[offset+2:]))
		return 4, nil
	case OpIinc:
		if offset+6 > len(code) {
			return 0, fmt.Errorf("truncated wide iinc at %d: %w", offset, ErrMalformedClass)
		}
		n.Op = OpIinc
		n.VarIndex = int(binary.BigEndian.Uint16(code[offset+2:]))
		n.IntImm = int32(int16(binary.BigEndian.Uint16(code[offset+4:])))
		return 6, nil
	default:
		return 0, fmt.Errorf("unrecognized wide opcode %d at %d: %w", inner, offset, ErrMalformedClass)
	}
}

// assignLabels gives every target offset a stable, increasing label id in
// offset order, so re-encoding is deterministic.
func assignLabels(targets map[int]bool) map[int]int {
	offsets := make([]int, 0, len(targets))
	for off := range targets {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)
	out := make(map[int]int, len(offsets))
	for i, off := range offsets {
		out[off] = i
	}
	return out
}

// buildNodeList interleaves Label/LineNumber/Frame pseudo-nodes with the
// decoded instructions, in offset order, resolving every branch/switch
// target to the label id assigned at that offset.
func buildNodeList(insns []decodedInsn, codeLen int, labelOf map[int]int, lineTable map[int]int, frames map[int][]byte) []Node {
	var out []Node
	insnAt := make(map[int]*decodedInsn, len(insns))
	for i := range insns {
		insnAt[insns[i].offset] = &insns[i]
	}

	emitPseudosAt := func(off int) {
		if id, ok := labelOf[off]; ok {
			out = append(out, Node{Kind: NodeLabel, LabelID: id})
		}
		if raw, ok := frames[off]; ok {
			out = append(out, Node{Kind: NodeFrame, FrameRaw: raw})
		}
		if line, ok := lineTable[off]; ok {
			out = append(out, Node{Kind: NodeLineNumber, LineNumber: line})
		}
	}

	for i := 0; i < len(insns); i++ {
		off := insns[i].offset
		emitPseudosAt(off)
		n := insns[i].node
		resolveTargets(&n, labelOf)
		out = append(out, n)
	}
	// A target offset exactly at end-of-code (common for exception table
	// end_pc and the rare empty-body branch) still needs its Label.
	emitPseudosAt(codeLen)

	return out
}

func resolveTargets(n *Node, labelOf map[int]int) {
	switch {
	case n.Op.IsBranch() && n.Op != OpTableswitch && n.Op != OpLookupswitch:
		n.BranchLabel = labelOf[n.BranchLabel]
	case n.Op == OpTableswitch:
		n.SwitchDefault = labelOf[n.SwitchDefault]
		for i, t := range n.SwitchLabels {
			n.SwitchLabels[i] = labelOf[t]
		}
	case n.Op == OpLookupswitch:
		n.SwitchDefault = labelOf[n.SwitchDefault]
		for i, p := range n.SwitchPairs {
			n.SwitchPairs[i].Label = labelOf[p.Label]
		}
	}
}

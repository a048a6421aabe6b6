// Package analysis implements the Bytecode Analyzer: it walks a decoded
// method's instruction list and counts the categories of instruction the
// rest of the pipeline cares about, without interpreting data flow or
// control flow beyond counting jumps.
package analysis

import "github.com/quantrpeter/jit/classfile"

// MethodInfo is the per-method instruction census the analyzer produces.
type MethodInfo struct {
	InstructionCount int
	ArithmeticOps    int
	MethodCallCount  int
	FieldAccessCount int
	BranchCount      int
	ReturnCount      int
}

// IsHot reports whether a method is worth optimizing, per the threshold
// rule: more than 10 instructions, or more than 3 arithmetic operations,
// or more than 2 branches.
func (i MethodInfo) IsHot() bool {
	return i.InstructionCount > 10 || i.ArithmeticOps > 3 || i.BranchCount > 2
}

// Analyze classifies every real instruction in method, skipping the
// synthetic Label/LineNumber/Frame pseudo-nodes the Class Reader
// interleaves into Instructions.
func Analyze(method *classfile.Method) MethodInfo {
	var info MethodInfo
	for i := range method.Instructions {
		n := &method.Instructions[i]
		if n.Kind != classfile.NodeOp {
			continue
		}
		info.InstructionCount++
		switch {
		case n.Op.IsArithmetic():
			info.ArithmeticOps++
		case n.Op.IsInvoke():
			info.MethodCallCount++
		case n.Op.IsFieldAccess():
			info.FieldAccessCount++
		case n.Op.IsBranch():
			info.BranchCount++
		case n.Op.IsReturn():
			info.ReturnCount++
		}
	}
	return info
}

// Package optimize implements the Bytecode Optimizer: constant folding
// over a sliding three-node window, and dead-code elimination of anything
// unreachable after a return within the same basic block.
package optimize

import (
	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/internal/diag"
)

// Optimize returns a new instruction list with constant folding and
// post-return dead-code elimination applied. The input is never mutated.
// methodName is used only for diagnostic logging.
func Optimize(methodName string, instructions []classfile.Node) []classfile.Node {
	folded := foldConstants(methodName, instructions)
	before := len(folded)
	out := eliminateDeadCode(folded)
	diag.DeadCodeEliminated(methodName, before-len(out))
	return out
}

// foldConstants collapses any window [push A] [push B] [iadd] into a
// single pushed constant, sliding forward by one node whenever a window
// doesn't match and resuming after the folded window when one does. Passes
// repeat until one makes no change, so chains of folds like 1+2+3 resolve
// left to right across repeated passes.
func foldConstants(methodName string, instructions []classfile.Node) []classfile.Node {
	out := append([]classfile.Node(nil), instructions...)
	for {
		folded, changed := foldOnePass(methodName, out)
		out = folded
		if !changed {
			return out
		}
	}
}

func foldOnePass(methodName string, in []classfile.Node) ([]classfile.Node, bool) {
	out := make([]classfile.Node, 0, len(in))
	changed := false
	i := 0
	for i < len(in) {
		if i+2 < len(in) && isFoldableWindow(in[i], in[i+1], in[i+2]) {
			a := operandValue(in[i])
			b := operandValue(in[i+1])
			result, ok := applyArithmetic(in[i+2].Op, a, b)
			if ok {
				out = append(out, classfile.NewIntConstNode(result))
				diag.ConstantFolded(methodName, result)
				i += 3
				changed = true
				continue
			}
		}
		out = append(out, in[i])
		i++
	}
	return out, changed
}

// isFoldableWindow matches (push A, push B, iadd) only — the folder
// recognizes no other arithmetic opcode.
func isFoldableWindow(a, b, op classfile.Node) bool {
	return a.Kind == classfile.NodeOp && b.Kind == classfile.NodeOp && op.Kind == classfile.NodeOp &&
		a.IsIntConstPush() && b.IsIntConstPush() && op.Op == classfile.OpIadd
}

func operandValue(n classfile.Node) int32 { return n.IntImm }

// applyArithmetic computes a+b with 32-bit two's-complement wrap-around;
// Go's native int32 addition already wraps, so overflow is never an
// error.
func applyArithmetic(op classfile.Opcode, a, b int32) (int32, bool) {
	if op != classfile.OpIadd {
		return 0, false
	}
	return a + b, true
}

// eliminateDeadCode drops any instruction that follows a return within
// the same straight-line run, stopping at the next Label so a later
// branch target is never removed out from under a jump.
func eliminateDeadCode(instructions []classfile.Node) []classfile.Node {
	out := make([]classfile.Node, 0, len(instructions))
	dead := false
	for _, n := range instructions {
		switch n.Kind {
		case classfile.NodeLabel:
			dead = false
			out = append(out, n)
		case classfile.NodeLineNumber, classfile.NodeFrame:
			out = append(out, n)
		case classfile.NodeOp:
			if dead {
				continue
			}
			out = append(out, n)
			if n.Op.IsReturn() {
				dead = true
			}
		default:
			out = append(out, n)
		}
	}
	return out
}

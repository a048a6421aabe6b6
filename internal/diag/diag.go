// Package diag is the diagnostic sink named in spec §7: a structured
// replacement for the original implementation's System.out.println
// notices (lossy nop fallback, fold/DCE notices, permission-set
// warnings), backed by the commonlog logger the chazu-maggie example in
// this retrieval pack registers.
package diag

import (
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"
)

var logger = commonlog.GetLogger("jit")

// LossyOpcode logs that op (an unsupported opcode, identified by its
// numeric value) in method was emitted as a single ISA nop.
func LossyOpcode(method string, op byte) {
	logger.Infof("method %s: opcode %#02x has no native lowering, emitting nop", method, op)
}

// ConstantFolded logs that a three-node window collapsed to a single
// pushed constant during optimization.
func ConstantFolded(method string, result int32) {
	logger.Infof("method %s: constant-folded to %d", method, result)
}

// DeadCodeEliminated logs that count instructions were dropped after an
// unreachable return.
func DeadCodeEliminated(method string, count int) {
	if count == 0 {
		return
	}
	logger.Infof("method %s: eliminated %d unreachable instruction(s) after return", method, count)
}

// PermissionSetFailed logs the non-fatal failure to set executable
// permission bits on path, per §7's "warn and continue" contract.
func PermissionSetFailed(path string, err error) {
	logger.Warningf("could not set executable permission on %s: %v", path, err)
}

// Info logs a free-form informational message, used by the analyze
// diagnostic dump (SPEC_FULL.md §9).
func Info(message string) {
	logger.Info(message)
}

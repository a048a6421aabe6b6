// Package compiler is the invocation surface named in spec §6: the five
// operations (Analyze, JITRewrite, CompileMethodNative, CompileClassNative,
// CompileExpression) a driver calls into. It is the only package that
// imports classfile, analysis, optimize, codegen, and container together;
// everything below it stays decoupled.
package compiler

import (
	"fmt"
	"sort"

	"github.com/quantrpeter/jit/analysis"
	"github.com/quantrpeter/jit/classfile"
	"github.com/quantrpeter/jit/codegen"
	"github.com/quantrpeter/jit/container"
	"github.com/quantrpeter/jit/internal/diag"
	"github.com/quantrpeter/jit/optimize"
)

// MethodInfoMap is Analyze's result, keyed by "name#descriptor" so
// overloaded methods don't collide.
type MethodInfoMap map[string]analysis.MethodInfo

// Report renders the census as a human-readable table, the Go
// replacement for the original BytecodeAnalyzer's console dump (spec
// SPEC_FULL.md §9): one line per method, fed through internal/diag at
// Info level as it's built, and also returned so callers that want the
// text directly (rather than the log) can use it.
func (m MethodInfoMap) Report() string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := ""
	for _, k := range keys {
		info := m[k]
		line := fmt.Sprintf("%-40s insns=%-4d arith=%-3d calls=%-3d fields=%-3d branches=%-3d rets=%-3d hot=%v",
			k, info.InstructionCount, info.ArithmeticOps, info.MethodCallCount,
			info.FieldAccessCount, info.BranchCount, info.ReturnCount, info.IsHot())
		diag.Info(line)
		out += line + "\n"
	}
	return out
}

// CompiledMethod is one method's JIT bookkeeping record, carried by
// CompiledClass for an external JIT driver to act on (spec §1's Non-goal
// keeps the driver itself out of this module).
type CompiledMethod struct {
	Name       string
	Descriptor string
	Optimized  bool
}

// CompiledClass is JITRewrite's bookkeeping result alongside the
// rewritten class bytes.
type CompiledClass struct {
	Methods []CompiledMethod
}

func methodKey(name, descriptor string) string { return name + "#" + descriptor }

// Analyze decodes class and returns a per-method instruction census.
func Analyze(class []byte) (MethodInfoMap, error) {
	c, err := classfile.Decode(class)
	if err != nil {
		return nil, err
	}

	out := make(MethodInfoMap, len(c.Methods))
	for i := range c.Methods {
		m := &c.Methods[i]
		if !m.HasCode() {
			continue
		}
		out[methodKey(m.Name, m.Descriptor)] = analysis.Analyze(m)
	}
	return out, nil
}

// JITRewrite decodes class, applies the Bytecode Optimizer to every
// method C2 judges hot (spec §3's data flow: "optionally C3 rewrite"),
// and re-encodes. Cold methods keep their instruction lists unchanged and
// class-level metadata is carried through, but every Code attribute is
// rebuilt by classfile.Encode, which drops StackMapTable frames and
// regenerates LineNumberTable, so the output is not byte-identical to the
// input.
func JITRewrite(class []byte) ([]byte, *CompiledClass, error) {
	c, err := classfile.Decode(class)
	if err != nil {
		return nil, nil, err
	}

	compiled := &CompiledClass{Methods: make([]CompiledMethod, 0, len(c.Methods))}
	for i := range c.Methods {
		m := &c.Methods[i]
		optimized := false
		if m.HasCode() {
			info := analysis.Analyze(m)
			if info.IsHot() {
				m.Instructions = optimize.Optimize(m.Name, m.Instructions)
				optimized = true
			}
		}
		compiled.Methods = append(compiled.Methods, CompiledMethod{
			Name:       m.Name,
			Descriptor: m.Descriptor,
			Optimized:  optimized,
		})
	}

	return classfile.Encode(c), compiled, nil
}

// CompileMethodNative decodes class, selects the method named by
// methodSelector (or, when empty, the findExecutableMethod precedence),
// optionally optimizes it, lowers it to native code, and writes a
// container executable to outPath.
func CompileMethodNative(class []byte, methodSelector, outPath string, format container.Format, isa codegen.ISA) error {
	c, err := classfile.Decode(class)
	if err != nil {
		return err
	}

	m, err := findExecutableMethod(c, methodSelector)
	if err != nil {
		return err
	}

	optimizeIfHot(m)
	blob := codegen.CompileMethod(m, isa)
	return container.Write(outPath, isa, format, blob.Bytes, 0)
}

// CompileClassNative decodes class, compiles every method into one
// blob with the findExecutableMethod-selected method placed first (so
// it becomes the container's entry, per spec §5's "entry is the file
// offset of the first emitted method"), and writes a container
// executable to outPath.
func CompileClassNative(class []byte, outPath string, format container.Format, isa codegen.ISA) error {
	c, err := classfile.Decode(class)
	if err != nil {
		return err
	}

	entry, err := findExecutableMethod(c, "")
	if err != nil {
		return err
	}

	var blob []byte
	optimizeIfHot(entry)
	blob = append(blob, codegen.CompileMethod(entry, isa).Bytes...)

	for i := range c.Methods {
		m := &c.Methods[i]
		if m == entry || !m.HasCode() {
			continue
		}
		optimizeIfHot(m)
		blob = append(blob, codegen.CompileMethod(m, isa).Bytes...)
	}

	return container.Write(outPath, isa, format, blob, 0)
}

// CompileExpression emits a method body that pushes literal and returns
// it, with no class-file round-trip at all — the architecture-specific
// literal-return path the original implementation hand-emits directly
// (SPEC_FULL.md §9).
func CompileExpression(literal int32, outPath string, format container.Format, isa codegen.ISA) error {
	e := codegen.NewEmitter(isa)
	var code []byte
	code = append(code, e.Prologue()...)
	code = append(code, e.PushConst(literal)...)
	code = append(code, e.Return(false)...)

	return container.Write(outPath, isa, format, code, 0)
}

func optimizeIfHot(m *classfile.Method) {
	if !m.HasCode() {
		return
	}
	info := analysis.Analyze(m)
	if info.IsHot() {
		m.Instructions = optimize.Optimize(m.Name, m.Instructions)
	}
}

// findExecutableMethod implements the original NativeCompiler's
// method-selection precedence (SPEC_FULL.md §9): when selector is
// non-empty, the first method by that name with a Code attribute; else a
// conventional-descriptor main method, else the first public static
// non-constructor, else the first non-constructor method with code.
func findExecutableMethod(c *classfile.Class, selector string) (*classfile.Method, error) {
	if selector != "" {
		for i := range c.Methods {
			m := &c.Methods[i]
			if m.Name == selector && m.HasCode() {
				return m, nil
			}
		}
		return nil, ErrNoExecutableMethod
	}

	const mainDescriptor = "([Ljava/lang/String;)V"
	for i := range c.Methods {
		m := &c.Methods[i]
		if m.HasCode() && m.Name == "main" && m.Descriptor == mainDescriptor {
			return m, nil
		}
	}

	isConstructor := func(name string) bool { return name == "<init>" || name == "<clinit>" }

	for i := range c.Methods {
		m := &c.Methods[i]
		if m.HasCode() && !isConstructor(m.Name) &&
			m.AccessFlags&classfile.AccPublic != 0 && m.AccessFlags&classfile.AccStatic != 0 {
			return m, nil
		}
	}

	for i := range c.Methods {
		m := &c.Methods[i]
		if m.HasCode() && !isConstructor(m.Name) {
			return m, nil
		}
	}

	return nil, ErrNoExecutableMethod
}

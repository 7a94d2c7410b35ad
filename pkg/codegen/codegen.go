// Package codegen lowers a validated AST to x86-64 AT&T-syntax assembly
// text as a pure string-building operation with no intermediate IR,
// following its-hmny-nand2tetris's pkg/asm.CodeGenerator (Generate,
// switch-dispatched GenerateXInst methods each returning (string,
// error)). The scratch-register bitmap is a flat, no-spill simplification
// of gmofishsauce-wut4's lang/gen.RegAllocator.
package codegen

import (
	"fmt"
	"strings"

	"umberlang.dev/umberc/pkg/ast"
	"umberlang.dev/umberc/pkg/cerr"
	"umberlang.dev/umberc/pkg/token"
	"umberlang.dev/umberc/pkg/types"
)

// scratchRegs is the fixed seven-register file the generator may
// reserve and free; there is no spilling beyond it.
var scratchRegs = [7]string{"rbx", "r10", "r11", "r12", "r13", "r14", "r15"}

// RegisterAllocator holds a bitmap of in-use scratch registers. reserve
// and free are the whole allocator: no spill slots, no virtual-to-
// physical indirection.
type RegisterAllocator struct {
	inUse [7]bool
}

// Reserve returns the lowest-indexed free register, or an error if all
// seven are taken — an 8th-register program fails fast rather than
// silently spilling.
func (r *RegisterAllocator) Reserve() (int, error) {
	for i, used := range r.inUse {
		if !used {
			r.inUse[i] = true
			return i, nil
		}
	}
	return -1, fmt.Errorf("codegen: register file exhausted (all %d scratch registers in use)", len(scratchRegs))
}

// Free clears bit i. Callers must balance every Reserve with exactly
// one Free along every control path — the register-allocator-balance
// invariant tests in this package assert.
func (r *RegisterAllocator) Free(i int) {
	r.inUse[i] = false
}

// Snapshot returns the bitmap's current value, used by tests to assert
// balance before/after code-gen of a subtree.
func (r *RegisterAllocator) Snapshot() [7]bool { return r.inUse }

func regName(i int) string { return scratchRegs[i] }

// LabelAllocator produces monotonically increasing `.L<n>` labels.
type LabelAllocator struct{ counter int }

func (l *LabelAllocator) Next() string {
	l.counter++
	return fmt.Sprintf(".L%d", l.counter)
}

// CodeGenerator walks a validated AST and emits assembly text. It is
// infallible over a validated tree except for the internal-error and
// register-exhaustion cases below.
type CodeGenerator struct {
	regs   RegisterAllocator
	labels LabelAllocator
	out    strings.Builder
}

func New() *CodeGenerator { return &CodeGenerator{} }

// Generate lowers root (the program's top-level Statements) and returns
// the full assembly text.
func (cg *CodeGenerator) Generate(root ast.Node) (string, error) {
	if _, err := cg.generateNode(root); err != nil {
		return "", err
	}
	return cg.out.String(), nil
}

// RegistersInUse reports the allocator's bitmap after Generate returns,
// letting callers (mainly tests) assert the register-balance invariant:
// every Reserve along the way must have been matched by a Free.
func (cg *CodeGenerator) RegistersInUse() [7]bool { return cg.regs.Snapshot() }

func (cg *CodeGenerator) emit(format string, args ...any) {
	cg.out.WriteString(fmt.Sprintf(format, args...))
	cg.out.WriteByte('\n')
}

// generateNode returns the register holding the node's result value, or
// a negative result for nodes that produce no value (statements,
// declarations, control flow). Every case that reserves a register must
// free it before returning unless the caller is explicitly passed
// ownership — generateStatements frees every child's result immediately.
func (cg *CodeGenerator) generateNode(n ast.Node) (result int, err error) {
	switch node := n.(type) {
	case ast.Statements:
		return -1, cg.generateStatements(node)
	case ast.Number:
		return cg.generateNumber(node)
	case ast.BinOp:
		return cg.generateBinOp(node)
	case ast.FunctionDef:
		return -1, cg.generateFunctionDef(node)
	case ast.Ignored:
		// The validator replaces every Import with Ignored, dropping the
		// imported file's parsed contents, and the parser yields Ignored
		// for a duplicate import; there is nothing to emit for it.
		return -1, nil
	case ast.VarDeclaration, ast.VarAssign, ast.Return, ast.If, ast.While, ast.For,
		ast.ConstDefinition, ast.StaticDefinition, ast.StaticDeclaration,
		ast.StructDefinition, ast.Extern, ast.Import, ast.MacroDef,
		ast.FunctionDecl, ast.Break, ast.Continue, ast.Assembly:
		// This core only lowers Statements, Number, BinOp(+/-/*), and
		// FunctionDef bodies. Every other kind is a fatal internal error at
		// run time rather than silently wrong assembly.
		return -1, cerr.New(cerr.IOError, n.PosStart(), n.PosEnd(),
			fmt.Sprintf("codegen: unhandled node kind %T (not yet lowered by this core)", n))
	default:
		return -1, cerr.New(cerr.IOError, n.PosStart(), n.PosEnd(),
			fmt.Sprintf("codegen: unhandled node kind %T", n))
	}
}

// generateStatements lowers each child in order, freeing its result
// register immediately.
func (cg *CodeGenerator) generateStatements(node ast.Statements) error {
	for _, child := range node.Children {
		r, err := cg.generateNode(child)
		if err != nil {
			return err
		}
		if r >= 0 {
			cg.regs.Free(r)
		}
	}
	return nil
}

// generateNumber reserves a register R and emits `MOVQ $n, R`.
func (cg *CodeGenerator) generateNumber(node ast.Number) (int, error) {
	r, err := cg.regs.Reserve()
	if err != nil {
		return -1, err
	}
	cg.emit("    MOVQ $%s, %%%s", node.Token.Text, regName(r))
	return r, nil
}

// generateBinOp lowers `+`, `-`, and `*`. Any other operator is a fatal
// internal error rather than silently emitting wrong code for an
// operator this core has no lowering rule for.
func (cg *CodeGenerator) generateBinOp(node ast.BinOp) (int, error) {
	left, err := cg.generateNode(node.Left)
	if err != nil {
		return -1, err
	}
	right, err := cg.generateNode(node.Right)
	if err != nil {
		return -1, err
	}

	switch node.Op.Kind {
	case token.Plus:
		cg.emit("    ADDQ %%%s, %%%s", regName(left), regName(right))
		cg.regs.Free(left)
		return right, nil
	case token.Minus:
		cg.emit("    SUBQ %%%s, %%%s", regName(left), regName(right))
		cg.regs.Free(left)
		return right, nil
	case token.Mul:
		cg.emit("    MOVQ %%%s, %%rax", regName(left))
		cg.emit("    IMULQ %%%s", regName(right))
		result, err := cg.regs.Reserve()
		if err != nil {
			return -1, err
		}
		cg.emit("    MOVQ %%rax, %%%s", regName(result))
		cg.regs.Free(left)
		cg.regs.Free(right)
		return result, nil
	default:
		cg.regs.Free(left)
		cg.regs.Free(right)
		return -1, cerr.New(cerr.IOError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("codegen: unhandled binary operator %s (only +, -, * are lowered by this core)", node.Op.Kind))
	}
}

// generateFunctionDef allocates a label and emits it, then lowers the
// body; this core emits no epilogue beyond the body itself.
func (cg *CodeGenerator) generateFunctionDef(node ast.FunctionDef) error {
	label := cg.labels.Next()
	cg.emit("%s:", label)
	if node.Body == nil {
		return nil
	}
	return cg.generateStatements(node.Body.(ast.Statements))
}

// sizeSuffix maps a ValueType's byte width to the AT&T mnemonic suffix a
// future widening of this core's instruction selection would need; the
// seam where generateNumber/generateBinOp's hardcoded Q-suffixes would
// grow register-width-aware.
func sizeSuffix(size types.ValueSize) byte {
	switch size {
	case types.Byte:
		return 'B'
	case types.Word:
		return 'W'
	case types.Dword:
		return 'L'
	default:
		return 'Q'
	}
}

// Package validator type-checks the AST the parser produces. The
// scope-stack symbol table and Handle<Kind>-by-type-switch dispatch
// follow its-hmny-nand2tetris's pkg/jack/scopes.go (ScopeTable
// push/pop/resolve) and pkg/jack/typechecking.go (TypeChecker's
// Handle* dispatch, fmt.Errorf wrapping), generalized from Jack's four
// parallel scope kinds to a single block-scoped stack of frames, and
// from its error-return style to cerr.Error's position-carrying kind.
package validator

import (
	"fmt"

	"umberlang.dev/umberc/pkg/ast"
	"umberlang.dev/umberc/pkg/cerr"
	"umberlang.dev/umberc/pkg/token"
	"umberlang.dev/umberc/pkg/types"
	"umberlang.dev/umberc/pkg/utils"
)

// Symbol is what a scope frame maps a name to.
type Symbol struct {
	Type      types.ValueType
	IsMutable bool
}

// Scope is one frame of the symbol table: pushed on block/function
// entry, popped on exit. Lookup across the whole stack goes
// innermost-first; shadowing (redeclaring a name visible from *any*
// enclosing frame) is a hard error, not just within the same frame.
type Scope struct {
	Names map[string]Symbol
}

func newScope() *Scope { return &Scope{Names: make(map[string]Symbol)} }

// Validator walks an AST once, producing either an annotated copy of the
// tree (the input nodes are left unchanged) or the first SemanticError
// encountered — validation
// short-circuits on the first failure rather than collecting all of them.
type Validator struct {
	scopes  utils.Stack[*Scope]
	structs map[string]ast.StructDefinition
	// currentReturn tracks the declared return type of the function
	// being validated, used to check every Return against it.
	currentReturn types.ValueType
	sawReturn     bool
}

func New() *Validator {
	v := &Validator{structs: make(map[string]ast.StructDefinition)}
	v.pushScope()
	return v
}

func (v *Validator) pushScope() { v.scopes.Push(newScope()) }

func (v *Validator) popScope() {
	if _, err := v.scopes.Pop(); err != nil {
		panic("validator: scope stack underflow: " + err.Error())
	}
}

// lookup searches every frame innermost-first.
func (v *Validator) lookup(name string) (Symbol, bool) {
	for sym := range v.scopes.Iterator() {
		if s, ok := sym.Names[name]; ok {
			return s, true
		}
	}
	return Symbol{}, false
}

// declaredAnywhere reports whether name is visible in ANY enclosing
// frame — shadowing is disallowed against every frame, not just the
// current one.
func (v *Validator) declaredAnywhere(name string) bool {
	_, ok := v.lookup(name)
	return ok
}

func (v *Validator) declareInTop(name string, sym Symbol) {
	top, err := v.scopes.Top()
	if err != nil {
		panic("validator: empty scope stack")
	}
	top.Names[name] = sym
}

// Validate type-checks root (normally the top-level Statements produced
// by the parser) and returns the annotated tree.
func (v *Validator) Validate(root ast.Node) (ast.Node, types.ValueType, error) {
	return v.validateNode(root)
}

// validateNode is the Handle<Kind>-style dispatcher: one case per AST
// variant, mirroring pkg/jack/typechecking.go's HandleStatement shape
// but via a single Go type switch instead of Jack's two-interface split.
func (v *Validator) validateNode(n ast.Node) (ast.Node, types.ValueType, error) {
	switch node := n.(type) {
	case ast.Statements:
		return v.validateStatements(node)
	case ast.Number:
		return node, types.U64, nil
	case ast.FloatingPoint:
		return node, types.F64Type{}, nil
	case ast.String:
		return node, types.StringType{}, nil
	case ast.Char:
		return node, types.CharType{}, nil
	case ast.List:
		return v.validateList(node)
	case ast.VarDeclaration:
		return v.validateVarDeclaration(node)
	case ast.VarAssign:
		return v.validateVarAssign(node)
	case ast.VarAccess:
		return v.validateVarAccess(node)
	case ast.AddressOf:
		return v.validateAddressOf(node)
	case ast.Dereference:
		return v.validateDereference(node)
	case ast.BinOp:
		return v.validateBinOp(node)
	case ast.UnaryOp:
		return v.validateUnaryOp(node)
	case ast.Cast:
		return v.validateCast(node)
	case ast.Offset:
		return v.validateOffset(node)
	case ast.Accessor:
		return v.validateAccessor(node)
	case ast.ReadBytes:
		return v.validateReadBytes(node)
	case ast.If:
		return v.validateIf(node)
	case ast.While:
		return v.validateWhile(node)
	case ast.For:
		return v.validateFor(node)
	case ast.Return:
		return v.validateReturn(node)
	case ast.Break:
		return node, types.VoidType{}, nil
	case ast.Continue:
		return node, types.VoidType{}, nil
	case ast.FunctionDef:
		return v.validateFunctionDef(node)
	case ast.FunctionDecl:
		return v.validateFunctionDecl(node)
	case ast.Call:
		return v.validateCall(node)
	case ast.ConstDefinition:
		return v.validateConstDefinition(node)
	case ast.StaticDefinition:
		return v.validateStaticDefinition(node)
	case ast.StaticDeclaration:
		return v.validateStaticDeclaration(node)
	case ast.StructDefinition:
		v.structs[node.Name] = node
		return node, types.VoidType{}, nil
	case ast.StructInit:
		return node, types.StructType{Name: node.Name}, nil
	case ast.Extern:
		return node, types.VoidType{}, nil
	case ast.Import:
		// Opaque: the imported file's parsed Child is neither validated
		// nor kept; the node is replaced by Ignored.
		return ast.Ignored{}, types.IgnoredType{}, nil
	case ast.Ignored:
		return node, types.IgnoredType{}, nil
	case ast.MacroDef:
		return node, types.VoidType{}, nil
	case ast.Assembly:
		return node, types.VoidType{}, nil
	case ast.Syscall:
		return v.validateSyscall(node)
	case ast.SizeOf:
		return node, types.U64, nil
	case ast.StackAllocation:
		return node, types.PointerType{Pointee: types.U8}, nil
	default:
		return nil, nil, cerr.New(cerr.SemanticError, n.PosStart(), n.PosEnd(),
			fmt.Sprintf("internal error: unhandled node kind %T during validation", n))
	}
}

func (v *Validator) validateStatements(node ast.Statements) (ast.Node, types.ValueType, error) {
	children := make([]ast.Node, len(node.Children))
	for i, c := range node.Children {
		validated, _, err := v.validateNode(c)
		if err != nil {
			return nil, nil, err
		}
		children[i] = validated
	}
	node.Children = children
	return node, types.VoidType{}, nil
}

func (v *Validator) validateList(node ast.List) (ast.Node, types.ValueType, error) {
	elems := make([]ast.Node, len(node.Elements))
	for i, e := range node.Elements {
		validated, ty, err := v.validateNode(e)
		if err != nil {
			return nil, nil, err
		}
		if !ty.Equals(node.ElementType) {
			return nil, nil, cerr.New(cerr.SemanticError, e.PosStart(), e.PosEnd(),
				fmt.Sprintf("list element of type %s does not match declared element type %s", ty, node.ElementType))
		}
		elems[i] = validated
	}
	node.Elements = elems
	return node, types.PointerType{Pointee: node.ElementType}, nil
}

func (v *Validator) validateVarDeclaration(node ast.VarDeclaration) (ast.Node, types.ValueType, error) {
	if v.declaredAnywhere(node.Name) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("Variable '%s' was already declared in this scope!", node.Name))
	}
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	if !valType.Equals(node.VarType) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot assign value of type %s to variable '%s' of type %s", valType, node.Name, node.VarType))
	}
	v.declareInTop(node.Name, Symbol{Type: node.VarType, IsMutable: node.IsMutable})
	node.Value = value
	return node, types.VoidType{}, nil
}

func (v *Validator) validateVarAssign(node ast.VarAssign) (ast.Node, types.ValueType, error) {
	sym, ok := v.lookup(node.Name)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("Variable '%s' is not defined!", node.Name))
	}
	if !sym.IsMutable {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("Variable '%s' is not mutable!", node.Name))
	}
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	// Errors when types do NOT match.
	if !valType.Equals(sym.Type) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot assign value of type %s to variable '%s' of type %s", valType, node.Name, sym.Type))
	}
	node.Value = value
	return node, sym.Type, nil
}

func (v *Validator) validateVarAccess(node ast.VarAccess) (ast.Node, types.ValueType, error) {
	sym, ok := v.lookup(node.Name)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("Variable '%s' is not defined!", node.Name))
	}
	return ast.VarTypedAccess{NodeBase: node.NodeBase, Name: node.Name, Type: sym.Type}, sym.Type, nil
}

func (v *Validator) validateAddressOf(node ast.AddressOf) (ast.Node, types.ValueType, error) {
	sym, ok := v.lookup(node.Name)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("Variable '%s' is not defined!", node.Name))
	}
	return node, types.PointerType{Pointee: sym.Type, Mutable: sym.IsMutable}, nil
}

func (v *Validator) validateDereference(node ast.Dereference) (ast.Node, types.ValueType, error) {
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	ptr, ok := valType.(types.PointerType)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot dereference non-pointer type %s", valType))
	}
	node.Value = value
	return node, ptr.Pointee, nil
}

func (v *Validator) validateBinOp(node ast.BinOp) (ast.Node, types.ValueType, error) {
	left, leftType, err := v.validateNode(node.Left)
	if err != nil {
		return nil, nil, err
	}
	right, rightType, err := v.validateNode(node.Right)
	if err != nil {
		return nil, nil, err
	}
	op := tokenToBinOp(node.Op)
	result, ok := leftType.BinOpResult(op, rightType)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("binary operation %s not allowed between %s and %s", node.Op.Kind, leftType, rightType))
	}
	node.Left, node.Right = left, right
	if _, isFloat := leftType.(types.F64Type); isFloat {
		return ast.FloatingBinOp{NodeBase: node.NodeBase, Left: left, Op: node.Op, Right: right}, result, nil
	}
	return node, result, nil
}

func (v *Validator) validateUnaryOp(node ast.UnaryOp) (ast.Node, types.ValueType, error) {
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	op := tokenToUnaryOp(node.Op)
	result, ok := valType.UnaryOpResult(op)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("unary operation %s not allowed on %s", node.Op.Kind, valType))
	}
	node.Value = value
	return node, result, nil
}

func (v *Validator) validateCast(node ast.Cast) (ast.Node, types.ValueType, error) {
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	if !valType.CanCastTo(node.TargetType) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot cast %s to %s", valType, node.TargetType))
	}
	node.Value = value
	if _, fromFloat := valType.(types.F64Type); fromFloat {
		if _, toFloat := node.TargetType.(types.F64Type); !toFloat {
			return ast.F64ToU64{NodeBase: node.NodeBase, Value: value}, node.TargetType, nil
		}
	}
	if _, toFloat := node.TargetType.(types.F64Type); toFloat {
		if _, fromFloat := valType.(types.F64Type); !fromFloat {
			return ast.U64ToF64{NodeBase: node.NodeBase, Value: value}, node.TargetType, nil
		}
	}
	return node, node.TargetType, nil
}

func (v *Validator) validateOffset(node ast.Offset) (ast.Node, types.ValueType, error) {
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	offsetNode, offsetType, err := v.validateNode(node.OffsetNode)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := offsetType.(types.IntType); !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.OffsetNode.PosStart(), node.OffsetNode.PosEnd(),
			fmt.Sprintf("offset index must be an integer, got %s", offsetType))
	}
	ptr, ok := valType.(types.PointerType)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot index non-pointer type %s", valType))
	}
	node.Value, node.OffsetNode, node.PointeeType = value, offsetNode, ptr.Pointee
	return node, ptr.Pointee, nil
}

func (v *Validator) validateAccessor(node ast.Accessor) (ast.Node, types.ValueType, error) {
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	st, ok := valType.(types.StructType)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot access field '%s' on non-struct type %s", node.FieldName, valType))
	}
	def, ok := v.structs[st.Name]
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("unknown struct type '%s'", st.Name))
	}
	for _, f := range def.Fields {
		if f.Name == node.FieldName {
			node.Value = value
			return node, f.Type, nil
		}
	}
	return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
		fmt.Sprintf("struct '%s' has no field '%s'", st.Name, node.FieldName))
}

func (v *Validator) validateReadBytes(node ast.ReadBytes) (ast.Node, types.ValueType, error) {
	if node.Size != 1 && node.Size != 2 && node.Size != 4 && node.Size != 8 {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("ReadBytes size must be one of 1, 2, 4, 8, got %d", node.Size))
	}
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := valType.(types.PointerType); !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot narrow-read through non-pointer type %s", valType))
	}
	node.Value = value
	return node, sizeToIntType(node.Size), nil
}

func sizeToIntType(n int) types.ValueType {
	switch n {
	case 1:
		return types.U8
	case 2:
		return types.U16
	case 4:
		return types.U32
	default:
		return types.U64
	}
}

func (v *Validator) validateIf(node ast.If) (ast.Node, types.ValueType, error) {
	cases := make([]ast.IfCase, len(node.Cases))
	for i, c := range node.Cases {
		cond, condType, err := v.validateNode(c.Cond)
		if err != nil {
			return nil, nil, err
		}
		if _, ok := condType.(types.BoolType); !ok {
			return nil, nil, cerr.New(cerr.SemanticError, c.Cond.PosStart(), c.Cond.PosEnd(),
				fmt.Sprintf("if condition must be bool, got %s", condType))
		}
		v.pushScope()
		body, _, err := v.validateNode(c.Body)
		v.popScope()
		if err != nil {
			return nil, nil, err
		}
		cases[i] = ast.IfCase{Cond: cond, Body: body}
	}
	node.Cases = cases
	if node.Else != nil {
		v.pushScope()
		elseBody, _, err := v.validateNode(node.Else)
		v.popScope()
		if err != nil {
			return nil, nil, err
		}
		node.Else = elseBody
	}
	return node, types.VoidType{}, nil
}

func (v *Validator) validateWhile(node ast.While) (ast.Node, types.ValueType, error) {
	cond, condType, err := v.validateNode(node.Cond)
	if err != nil {
		return nil, nil, err
	}
	if _, ok := condType.(types.BoolType); !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.Cond.PosStart(), node.Cond.PosEnd(),
			fmt.Sprintf("while condition must be bool, got %s", condType))
	}
	v.pushScope()
	body, _, err := v.validateNode(node.Body)
	v.popScope()
	if err != nil {
		return nil, nil, err
	}
	node.Cond, node.Body = cond, body
	return node, types.VoidType{}, nil
}

func (v *Validator) validateFor(node ast.For) (ast.Node, types.ValueType, error) {
	v.pushScope()
	init, _, err := v.validateNode(node.Init)
	if err != nil {
		v.popScope()
		return nil, nil, err
	}
	cond, condType, err := v.validateNode(node.Cond)
	if err != nil {
		v.popScope()
		return nil, nil, err
	}
	if _, ok := condType.(types.BoolType); !ok {
		v.popScope()
		return nil, nil, cerr.New(cerr.SemanticError, node.Cond.PosStart(), node.Cond.PosEnd(),
			fmt.Sprintf("for condition must be bool, got %s", condType))
	}
	next, _, err := v.validateNode(node.Next)
	if err != nil {
		v.popScope()
		return nil, nil, err
	}
	body, _, err := v.validateNode(node.Body)
	v.popScope()
	if err != nil {
		return nil, nil, err
	}
	node.Init, node.Cond, node.Next, node.Body = init, cond, next, body
	return node, types.VoidType{}, nil
}

func (v *Validator) validateReturn(node ast.Return) (ast.Node, types.ValueType, error) {
	var retType types.ValueType = types.VoidType{}
	if node.Value != nil {
		value, vt, err := v.validateNode(node.Value)
		if err != nil {
			return nil, nil, err
		}
		node.Value = value
		retType = vt
	}
	if v.currentReturn != nil && !retType.Equals(v.currentReturn) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("return type %s does not match function's declared return type %s", retType, v.currentReturn))
	}
	v.sawReturn = true
	return node, retType, nil
}

func (v *Validator) validateFunctionDef(node ast.FunctionDef) (ast.Node, types.ValueType, error) {
	if v.declaredAnywhere(node.Name) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("function '%s' was already declared", node.Name))
	}
	argTypes := make([]types.ValueType, len(node.Args))
	for i, a := range node.Args {
		argTypes[i] = a.Type
	}
	v.declareInTop(node.Name, Symbol{Type: types.FunctionType{Args: argTypes, Return: node.ReturnType}})

	outerReturn, outerSaw := v.currentReturn, v.sawReturn
	v.currentReturn, v.sawReturn = node.ReturnType, false

	v.pushScope()
	for _, a := range node.Args {
		v.declareInTop(a.Name, Symbol{Type: a.Type, IsMutable: false})
	}
	body, _, err := v.validateNode(node.Body)
	v.popScope()

	sawReturn := v.sawReturn
	v.currentReturn, v.sawReturn = outerReturn, outerSaw
	if err != nil {
		return nil, nil, err
	}
	if _, isVoid := node.ReturnType.(types.VoidType); !isVoid && !sawReturn {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("function '%s' must return a value of type %s", node.Name, node.ReturnType))
	}
	node.Body = body
	return node, types.VoidType{}, nil
}

func (v *Validator) validateFunctionDecl(node ast.FunctionDecl) (ast.Node, types.ValueType, error) {
	if v.declaredAnywhere(node.Name) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("function '%s' was already declared", node.Name))
	}
	argTypes := make([]types.ValueType, len(node.Args))
	for i, a := range node.Args {
		argTypes[i] = a.Type
	}
	v.declareInTop(node.Name, Symbol{Type: types.FunctionType{Args: argTypes, Return: node.ReturnType}})
	return node, types.VoidType{}, nil
}

func (v *Validator) validateCall(node ast.Call) (ast.Node, types.ValueType, error) {
	sym, ok := v.lookup(node.Name)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("function '%s' is not defined", node.Name))
	}
	fn, ok := sym.Type.(types.FunctionType)
	if !ok {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("'%s' is not callable", node.Name))
	}
	if len(node.Args) != len(fn.Args) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("function '%s' expects %d argument(s), got %d", node.Name, len(fn.Args), len(node.Args)))
	}
	args := make([]ast.Node, len(node.Args))
	for i, a := range node.Args {
		validated, at, err := v.validateNode(a)
		if err != nil {
			return nil, nil, err
		}
		if !at.Equals(fn.Args[i]) {
			return nil, nil, cerr.New(cerr.SemanticError, a.PosStart(), a.PosEnd(),
				fmt.Sprintf("argument %d of '%s' must be %s, got %s", i+1, node.Name, fn.Args[i], at))
		}
		args[i] = validated
	}
	node.Args = args
	return node, fn.Return, nil
}

func (v *Validator) validateConstDefinition(node ast.ConstDefinition) (ast.Node, types.ValueType, error) {
	if v.declaredAnywhere(node.Name) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("'%s' was already declared", node.Name))
	}
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	if !valType.Equals(node.Type) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot assign value of type %s to const '%s' of type %s", valType, node.Name, node.Type))
	}
	v.declareInTop(node.Name, Symbol{Type: node.Type, IsMutable: false})
	node.Value = value
	return node, types.VoidType{}, nil
}

func (v *Validator) validateStaticDefinition(node ast.StaticDefinition) (ast.Node, types.ValueType, error) {
	if v.declaredAnywhere(node.Name) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("'%s' was already declared", node.Name))
	}
	value, valType, err := v.validateNode(node.Value)
	if err != nil {
		return nil, nil, err
	}
	if !valType.Equals(node.Type) {
		return nil, nil, cerr.New(cerr.SemanticError, node.PosStart(), node.PosEnd(),
			fmt.Sprintf("cannot assign value of type %s to static '%s' of type %s", valType, node.Name, node.Type))
	}
	v.declareInTop(node.Name, Symbol{Type: node.Type, IsMutable: node.IsMutable})
	node.Value = value
	return node, types.VoidType{}, nil
}

func (v *Validator) validateStaticDeclaration(node ast.StaticDeclaration) (ast.Node, types.ValueType, error) {
	v.declareInTop(node.Name, Symbol{Type: node.Type, IsMutable: node.IsMutable})
	return node, types.VoidType{}, nil
}

func (v *Validator) validateSyscall(node ast.Syscall) (ast.Node, types.ValueType, error) {
	for i, a := range node.Args {
		validated, _, err := v.validateNode(a)
		if err != nil {
			return nil, nil, err
		}
		node.Args[i] = validated
	}
	return node, types.U64, nil
}

func tokenToBinOp(t token.Token) types.BinOp {
	switch t.Kind {
	case token.Plus:
		return types.OpAdd
	case token.Minus:
		return types.OpSub
	case token.Mul:
		return types.OpMul
	case token.Div:
		return types.OpDiv
	case token.Modulo:
		return types.OpMod
	case token.Ee:
		return types.OpEq
	case token.Ne:
		return types.OpNe
	case token.Lt:
		return types.OpLt
	case token.Gt:
		return types.OpGt
	case token.Lte:
		return types.OpLte
	case token.Gte:
		return types.OpGte
	case token.And:
		return types.OpAnd
	case token.Or:
		return types.OpOr
	case token.BitAnd:
		return types.OpBitAnd
	case token.BitOr:
		return types.OpBitOr
	case token.BitXor:
		return types.OpBitXor
	case token.BitShl:
		return types.OpShl
	case token.BitShr:
		return types.OpShr
	default:
		return types.OpAdd
	}
}

func tokenToUnaryOp(t token.Token) types.UnaryOp {
	switch t.Kind {
	case token.Minus:
		return types.OpNeg
	case token.Not:
		return types.OpNot
	case token.BitNot:
		return types.OpBitNot
	default:
		return types.OpNeg
	}
}

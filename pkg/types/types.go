// Package types implements the Umber ValueType lattice. The original
// trait-object hierarchy collapses here into one interface implemented
// directly by each concrete variant: the "pattern match" the design
// calls for is just Go's per-receiver method dispatch, not a central
// switch.
package types

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// ValueSize is the storage width a ValueType occupies, in bytes;
// codegen's sizeSuffix maps it to an AT&T instruction suffix.
type ValueSize int

const (
	Byte ValueSize = 1 << iota
	Word
	Dword
	Qword
)

func (s ValueSize) String() string {
	switch s {
	case Byte:
		return "byte"
	case Word:
		return "word"
	case Dword:
		return "dword"
	case Qword:
		return "qword"
	default:
		return "unknown"
	}
}

// BinOp / UnaryOp name the operator families ValueType capability
// queries are asked about. These mirror the token kinds that can head a
// BinOp/UnaryOp AST node, not the full token set.
type BinOp int

const (
	OpAdd BinOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpEq
	OpNe
	OpLt
	OpGt
	OpLte
	OpGte
	OpAnd
	OpOr
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
)

type UnaryOp int

const (
	OpNeg UnaryOp = iota
	OpNot
	OpBitNot
)

// ValueType is the capability interface every concrete type implements.
type ValueType interface {
	// Equals reports structural equality to another ValueType.
	Equals(other ValueType) bool
	// BinOpResult returns the result type of applying op with rhs on the
	// right, or ok=false if the combination is not permitted.
	BinOpResult(op BinOp, rhs ValueType) (result ValueType, ok bool)
	// UnaryOpResult returns the result type of applying a unary op, or
	// ok=false if not permitted for this type.
	UnaryOpResult(op UnaryOp) (result ValueType, ok bool)
	// CanCastTo reports whether an explicit `as` cast to target is legal.
	CanCastTo(target ValueType) bool
	// Size returns the storage width of this type.
	Size() ValueSize
	// Clone returns an independent value copy (types are value objects).
	Clone() ValueType
	String() string
}

// --- integer family -------------------------------------------------

// IntType covers every unsigned/signed fixed-width integer variant.
type IntType struct {
	Bits   int // 8, 16, 32, 64
	Signed bool
}

var (
	U8  = IntType{Bits: 8}
	U16 = IntType{Bits: 16}
	U32 = IntType{Bits: 32}
	U64 = IntType{Bits: 64}
	I8  = IntType{Bits: 8, Signed: true}
	I16 = IntType{Bits: 16, Signed: true}
	I32 = IntType{Bits: 32, Signed: true}
	I64 = IntType{Bits: 64, Signed: true}
)

func (t IntType) String() string {
	if t.Signed {
		return fmt.Sprintf("i%d", t.Bits)
	}
	return fmt.Sprintf("u%d", t.Bits)
}

func (t IntType) Clone() ValueType { return t }

func (t IntType) Equals(other ValueType) bool {
	o, ok := other.(IntType)
	return ok && o.Bits == t.Bits && o.Signed == t.Signed
}

func (t IntType) Size() ValueSize {
	switch t.Bits {
	case 8:
		return Byte
	case 16:
		return Word
	case 32:
		return Dword
	default:
		return Qword
	}
}

// widerOf picks the wider of two integer bit widths using the ordered
// constraints.Integer comparison rather than a hand-rolled if-ladder.
func widerOf[T constraints.Integer](a, b T) T {
	if a > b {
		return a
	}
	return b
}

func (t IntType) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	o, ok := rhs.(IntType)
	if !ok {
		return nil, false
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr:
		if t.Signed != o.Signed {
			return nil, false
		}
		return IntType{Bits: widerOf(t.Bits, o.Bits), Signed: t.Signed}, true
	case OpEq, OpNe, OpLt, OpGt, OpLte, OpGte:
		if t.Signed != o.Signed {
			return nil, false
		}
		return BoolType{}, true
	default:
		return nil, false
	}
}

func (t IntType) UnaryOpResult(op UnaryOp) (ValueType, bool) {
	switch op {
	case OpNeg:
		if !t.Signed {
			return nil, false
		}
		return t, true
	case OpBitNot:
		return t, true
	default:
		return nil, false
	}
}

func (t IntType) CanCastTo(target ValueType) bool {
	switch target.(type) {
	case IntType, F64Type, CharType, BoolType:
		return true
	case PointerType:
		return t.Bits == 64
	default:
		return false
	}
}

// --- float ------------------------------------------------------------

type F64Type struct{}

func (F64Type) String() string      { return "f64" }
func (F64Type) Clone() ValueType    { return F64Type{} }
func (F64Type) Size() ValueSize     { return Qword }
func (F64Type) Equals(o ValueType) bool {
	_, ok := o.(F64Type)
	return ok
}
func (F64Type) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	if _, ok := rhs.(F64Type); !ok {
		return nil, false
	}
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv:
		return F64Type{}, true
	case OpEq, OpNe, OpLt, OpGt, OpLte, OpGte:
		return BoolType{}, true
	default:
		return nil, false
	}
}
func (F64Type) UnaryOpResult(op UnaryOp) (ValueType, bool) {
	if op == OpNeg {
		return F64Type{}, true
	}
	return nil, false
}
func (F64Type) CanCastTo(target ValueType) bool {
	switch target.(type) {
	case IntType, F64Type:
		return true
	default:
		return false
	}
}

// --- bool / char / string / void --------------------------------------

type BoolType struct{}

func (BoolType) String() string   { return "bool" }
func (BoolType) Clone() ValueType { return BoolType{} }
func (BoolType) Size() ValueSize  { return Byte }
func (BoolType) Equals(o ValueType) bool {
	_, ok := o.(BoolType)
	return ok
}
func (BoolType) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	if _, ok := rhs.(BoolType); !ok {
		return nil, false
	}
	switch op {
	case OpAnd, OpOr, OpEq, OpNe:
		return BoolType{}, true
	default:
		return nil, false
	}
}
func (BoolType) UnaryOpResult(op UnaryOp) (ValueType, bool) {
	if op == OpNot {
		return BoolType{}, true
	}
	return nil, false
}
func (BoolType) CanCastTo(target ValueType) bool {
	_, ok := target.(IntType)
	return ok
}

type CharType struct{}

func (CharType) String() string   { return "char" }
func (CharType) Clone() ValueType { return CharType{} }
func (CharType) Size() ValueSize  { return Byte }
func (CharType) Equals(o ValueType) bool {
	_, ok := o.(CharType)
	return ok
}
func (CharType) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	if _, ok := rhs.(CharType); !ok {
		return nil, false
	}
	switch op {
	case OpEq, OpNe, OpLt, OpGt, OpLte, OpGte:
		return BoolType{}, true
	default:
		return nil, false
	}
}
func (CharType) UnaryOpResult(UnaryOp) (ValueType, bool) { return nil, false }
func (CharType) CanCastTo(target ValueType) bool {
	_, ok := target.(IntType)
	return ok
}

type StringType struct{}

func (StringType) String() string   { return "string" }
func (StringType) Clone() ValueType { return StringType{} }
func (StringType) Size() ValueSize  { return Qword }
func (StringType) Equals(o ValueType) bool {
	_, ok := o.(StringType)
	return ok
}
func (StringType) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	if _, ok := rhs.(StringType); !ok {
		return nil, false
	}
	if op == OpEq || op == OpNe {
		return BoolType{}, true
	}
	return nil, false
}
func (StringType) UnaryOpResult(UnaryOp) (ValueType, bool) { return nil, false }
func (StringType) CanCastTo(ValueType) bool                { return false }

type VoidType struct{}

func (VoidType) String() string                             { return "void" }
func (VoidType) Clone() ValueType                            { return VoidType{} }
func (VoidType) Size() ValueSize                             { return 0 }
func (VoidType) Equals(o ValueType) bool                     { _, ok := o.(VoidType); return ok }
func (VoidType) BinOpResult(BinOp, ValueType) (ValueType, bool)  { return nil, false }
func (VoidType) UnaryOpResult(UnaryOp) (ValueType, bool)         { return nil, false }
func (VoidType) CanCastTo(ValueType) bool                        { return false }

// --- pointer, struct, generic, function, ignored -----------------------

type PointerType struct {
	Pointee ValueType
	Mutable bool
}

func (t PointerType) String() string {
	if t.Mutable {
		return t.Pointee.String() + "* mut"
	}
	return t.Pointee.String() + "*"
}
func (t PointerType) Clone() ValueType { return PointerType{Pointee: t.Pointee.Clone(), Mutable: t.Mutable} }
func (PointerType) Size() ValueSize    { return Qword }
func (t PointerType) Equals(o ValueType) bool {
	op, ok := o.(PointerType)
	return ok && op.Mutable == t.Mutable && t.Pointee.Equals(op.Pointee)
}
func (t PointerType) BinOpResult(op BinOp, rhs ValueType) (ValueType, bool) {
	switch op {
	case OpEq, OpNe:
		if _, ok := rhs.(PointerType); ok {
			return BoolType{}, true
		}
	case OpAdd, OpSub:
		if i, ok := rhs.(IntType); ok && !i.Signed {
			return t, true
		}
	}
	return nil, false
}
func (t PointerType) UnaryOpResult(UnaryOp) (ValueType, bool) { return nil, false }
func (t PointerType) CanCastTo(target ValueType) bool {
	switch tt := target.(type) {
	case PointerType:
		return true
	case IntType:
		return tt.Bits == 64
	default:
		return false
	}
}

type StructType struct {
	Name string
}

func (t StructType) String() string   { return "struct " + t.Name }
func (t StructType) Clone() ValueType { return StructType{Name: t.Name} }
func (StructType) Size() ValueSize    { return Qword } // aggregate; exact layout owned by validator's struct table
func (t StructType) Equals(o ValueType) bool {
	op, ok := o.(StructType)
	return ok && op.Name == t.Name
}
func (StructType) BinOpResult(BinOp, ValueType) (ValueType, bool) { return nil, false }
func (StructType) UnaryOpResult(UnaryOp) (ValueType, bool)        { return nil, false }
func (StructType) CanCastTo(ValueType) bool                       { return false }

// GenericType stands for an as-yet-unresolved type parameter; its size
// is unknown until monomorphization, which is out of this core's scope.
type GenericType struct {
	Name string
}

func (t GenericType) String() string                             { return t.Name }
func (t GenericType) Clone() ValueType                            { return GenericType{Name: t.Name} }
func (GenericType) Size() ValueSize                               { return 0 }
func (t GenericType) Equals(o ValueType) bool                     { op, ok := o.(GenericType); return ok && op.Name == t.Name }
func (GenericType) BinOpResult(BinOp, ValueType) (ValueType, bool) { return nil, false }
func (GenericType) UnaryOpResult(UnaryOp) (ValueType, bool)        { return nil, false }
func (GenericType) CanCastTo(ValueType) bool                       { return false }

// FunctionType is internal-only: it never appears as a variable's
// declared type, only as what the validator stores for a function
// symbol so that Call nodes can check arity/argument types.
type FunctionType struct {
	Args   []ValueType
	Return ValueType
}

func (t FunctionType) String() string {
	s := "fun("
	for i, a := range t.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ") " + t.Return.String()
}
func (t FunctionType) Clone() ValueType {
	args := make([]ValueType, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.Clone()
	}
	return FunctionType{Args: args, Return: t.Return.Clone()}
}
func (FunctionType) Size() ValueSize { return Qword }
func (t FunctionType) Equals(o ValueType) bool {
	of, ok := o.(FunctionType)
	if !ok || len(of.Args) != len(t.Args) || !t.Return.Equals(of.Return) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equals(of.Args[i]) {
			return false
		}
	}
	return true
}
func (FunctionType) BinOpResult(BinOp, ValueType) (ValueType, bool) { return nil, false }
func (FunctionType) UnaryOpResult(UnaryOp) (ValueType, bool)        { return nil, false }
func (FunctionType) CanCastTo(ValueType) bool                       { return false }

// IgnoredType is the result type of a pruned (duplicate) import.
type IgnoredType struct{}

func (IgnoredType) String() string                                { return "<ignored>" }
func (IgnoredType) Clone() ValueType                               { return IgnoredType{} }
func (IgnoredType) Size() ValueSize                                { return 0 }
func (IgnoredType) Equals(o ValueType) bool                        { _, ok := o.(IgnoredType); return ok }
func (IgnoredType) BinOpResult(BinOp, ValueType) (ValueType, bool) { return nil, false }
func (IgnoredType) UnaryOpResult(UnaryOp) (ValueType, bool)        { return nil, false }
func (IgnoredType) CanCastTo(ValueType) bool                       { return false }

package ast

import (
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// ExprKind enumerates typed expression kinds.
type ExprKind uint8

const (
	// ExprLiteral represents int, float, bool, char, string and null literals.
	ExprLiteral ExprKind = iota
	// ExprRef names a parameter, local, static, constant, lli binding or function.
	ExprRef
	// ExprCast represents `value as T`.
	ExprCast
	// ExprCall represents a direct call by name.
	ExprCall
	// ExprStructLit constructs a struct value field by field.
	ExprStructLit
	// ExprArrayLit constructs a fixed array value.
	ExprArrayLit
	// ExprProperty reads a (possibly nested) struct field.
	ExprProperty
	// ExprIndex reads one element of a fixed array or pointer.
	ExprIndex
	ExprBinary
	ExprUnary
	ExprGroup

	// ExprAlloc is the `alloc` low-level instruction.
	ExprAlloc
	// ExprLoad is the `load` low-level instruction.
	ExprLoad
	// ExprWrite is the `write` low-level instruction. It yields no value.
	ExprWrite
	// ExprAddress is the `address` low-level instruction.
	ExprAddress
	// ExprDeref is the `deref` low-level instruction.
	ExprDeref

	// ExprBuiltin covers halloc, sizeof, alignof, memcpy, memmove and memset.
	ExprBuiltin
)

// String returns a human-readable name for the expression kind.
func (k ExprKind) String() string {
	switch k {
	case ExprLiteral:
		return "Literal"
	case ExprRef:
		return "Ref"
	case ExprCast:
		return "Cast"
	case ExprCall:
		return "Call"
	case ExprStructLit:
		return "StructLit"
	case ExprArrayLit:
		return "ArrayLit"
	case ExprProperty:
		return "Property"
	case ExprIndex:
		return "Index"
	case ExprBinary:
		return "Binary"
	case ExprUnary:
		return "Unary"
	case ExprGroup:
		return "Group"
	case ExprAlloc:
		return "Alloc"
	case ExprLoad:
		return "Load"
	case ExprWrite:
		return "Write"
	case ExprAddress:
		return "Address"
	case ExprDeref:
		return "Deref"
	case ExprBuiltin:
		return "Builtin"
	default:
		return "Unknown"
	}
}

// IsLowLevel reports the memory instruction kinds.
func (k ExprKind) IsLowLevel() bool {
	return k >= ExprAlloc && k <= ExprDeref
}

// Expr is a typed expression. Type is always resolved upstream.
type Expr struct {
	Kind ExprKind
	Type types.Type
	Span source.Span
	Data ExprData // Kind-specific payload
}

// ExprData is the interface for expression-specific data.
type ExprData interface {
	exprData()
}

// LiteralKind enumerates literal value kinds.
type LiteralKind uint8

const (
	LiteralInt LiteralKind = iota
	LiteralFloat
	LiteralBool
	LiteralChar
	LiteralStr
	LiteralNull
)

// LiteralData holds data for ExprLiteral. Integers keep their raw bits.
type LiteralData struct {
	Kind   LiteralKind
	Int    uint64
	Signed bool
	Float  float64
	Bool   bool
	Str    string
}

func (LiteralData) exprData() {}

// RefData holds data for ExprRef.
type RefData struct {
	Name string
}

func (RefData) exprData() {}

// CastData holds data for ExprCast; the target type is Expr.Type.
type CastData struct {
	Value *Expr
}

func (CastData) exprData() {}

// CallData holds data for ExprCall.
type CallData struct {
	Name string
	Args []*Expr
}

func (CallData) exprData() {}

// StructLitData holds data for ExprStructLit. Fields are in declaration order.
type StructLitData struct {
	Name   string
	Fields []*Expr
}

func (StructLitData) exprData() {}

// ArrayLitData holds data for ExprArrayLit.
type ArrayLitData struct {
	Elements []*Expr
}

func (ArrayLitData) exprData() {}

// PropertyData holds data for ExprProperty. Indexes walk nested struct fields.
type PropertyData struct {
	Source  *Expr
	Indexes []uint32
}

func (PropertyData) exprData() {}

// IndexData holds data for ExprIndex.
type IndexData struct {
	Source *Expr
	Index  *Expr
}

func (IndexData) exprData() {}

// BinaryOp enumerates binary operators.
type BinaryOp uint8

const (
	BinAdd BinaryOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinEq
	BinNe
	BinLt
	BinLe
	BinGt
	BinGe
	BinAnd
	BinOr
	BinBitAnd
	BinBitOr
	BinBitXor
	BinShl
	BinShr
)

var binaryOpSpelling = [...]string{
	BinAdd: "+", BinSub: "-", BinMul: "*", BinDiv: "/", BinRem: "%",
	BinEq: "==", BinNe: "!=", BinLt: "<", BinLe: "<=", BinGt: ">", BinGe: ">=",
	BinAnd: "&&", BinOr: "||", BinBitAnd: "&", BinBitOr: "|", BinBitXor: "^",
	BinShl: "<<", BinShr: ">>",
}

func (op BinaryOp) String() string {
	if int(op) < len(binaryOpSpelling) {
		return binaryOpSpelling[op]
	}
	return "?"
}

// IsComparison reports the relational operators.
func (op BinaryOp) IsComparison() bool {
	return op >= BinEq && op <= BinGe
}

// ParseBinaryOp resolves the source spelling of an operator.
func ParseBinaryOp(s string) (BinaryOp, bool) {
	for i, sp := range binaryOpSpelling {
		if sp == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// BinaryData holds data for ExprBinary.
type BinaryData struct {
	Op    BinaryOp
	Left  *Expr
	Right *Expr
}

func (BinaryData) exprData() {}

// UnaryOp enumerates unary operators.
type UnaryOp uint8

const (
	UnaryNeg UnaryOp = iota
	UnaryNot
	UnaryBitNot
)

func (op UnaryOp) String() string {
	switch op {
	case UnaryNeg:
		return "-"
	case UnaryNot:
		return "!"
	case UnaryBitNot:
		return "~"
	default:
		return "?"
	}
}

// ParseUnaryOp resolves the source spelling of a unary operator.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	switch s {
	case "-":
		return UnaryNeg, true
	case "!":
		return UnaryNot, true
	case "~":
		return UnaryBitNot, true
	}
	return 0, false
}

// UnaryData holds data for ExprUnary.
type UnaryData struct {
	Op      UnaryOp
	Operand *Expr
}

func (UnaryData) exprData() {}

// GroupData holds data for ExprGroup.
type GroupData struct {
	Inner *Expr
}

func (GroupData) exprData() {}

// AllocData holds data for ExprAlloc. Expr.Type is the resulting pointer;
// Elem is the type storage is created for.
type AllocData struct {
	Elem types.Type
	Site AllocSite
	Name string // name hint from the declaring instr, may be empty
}

func (AllocData) exprData() {}

// LoadData holds data for ExprLoad. Type is the type read from memory;
// Expr.Type is the result, which is Cast when one is present.
type LoadData struct {
	Source    *Expr
	Type      types.Type
	Cast      *types.Type
	Modifiers Modifiers
}

func (LoadData) exprData() {}

// WriteData holds data for ExprWrite.
type WriteData struct {
	Target    *Expr
	Value     *Expr
	WriteType types.Type
	Modifiers Modifiers
}

func (WriteData) exprData() {}

// AddressData holds data for ExprAddress.
type AddressData struct {
	Base    *Expr
	Indexes []*Expr
}

func (AddressData) exprData() {}

// DerefData holds data for ExprDeref. Expr.Type is the type read.
type DerefData struct {
	Value     *Expr
	Modifiers Modifiers
}

func (DerefData) exprData() {}

// BuiltinKind enumerates builtins resolved from keywords upstream.
type BuiltinKind uint8

const (
	BuiltinHalloc BuiltinKind = iota + 1
	BuiltinSizeOf
	BuiltinAlignOf
	BuiltinMemCpy
	BuiltinMemMove
	BuiltinMemSet
)

// BuiltinData holds data for ExprBuiltin. TypeArg is used by halloc,
// sizeof and alignof; Args by the mem* family.
type BuiltinData struct {
	Builtin BuiltinKind
	TypeArg types.Type
	Args    []*Expr
}

func (BuiltinData) exprData() {}

// Unparen strips grouping.
func Unparen(e *Expr) *Expr {
	for e != nil && e.Kind == ExprGroup {
		g, ok := e.Data.(GroupData)
		if !ok || g.Inner == nil {
			break
		}
		e = g.Inner
	}
	return e
}

// AsRef reports whether e is a bare reference and returns its name.
func AsRef(e *Expr) (string, bool) {
	e = Unparen(e)
	if e == nil || e.Kind != ExprRef {
		return "", false
	}
	ref, ok := e.Data.(RefData)
	if !ok {
		return "", false
	}
	return ref.Name, true
}

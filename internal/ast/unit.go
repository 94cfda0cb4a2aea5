package ast

import (
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// Param is a function parameter.
type Param struct {
	Name    string
	Type    types.Type
	Mutable bool
	Span    source.Span
}

// Func is a function definition, or a declaration when Body is nil.
type Func struct {
	Name     string
	Params   []Param
	Ret      types.Type
	Variadic bool
	Body     *Block
	Attrs    Attributes
	Span     source.Span
}

// Signature returns the function type of f.
func (f *Func) Signature() types.Type {
	params := make([]types.Type, 0, len(f.Params))
	for _, p := range f.Params {
		params = append(params, p.Type)
	}
	return types.MakeFn(params, f.Ret, f.Variadic).At(f.Span)
}

// Static is a module-level static. Value must fold to a constant.
type Static struct {
	Name    string
	Type    types.Type
	Value   *Expr // nil means zero-initialised
	Mutable bool
	Attrs   Attributes
	Span    source.Span
}

// Const is a module-level constant.
type Const struct {
	Name  string
	Type  types.Type
	Value *Expr
	Attrs Attributes
	Span  source.Span
}

// Unit is one typed compilation unit.
type Unit struct {
	Name    string
	Path    string
	Consts  []*Const
	Statics []*Static
	Funcs   []*Func
}

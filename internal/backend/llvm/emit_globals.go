package llvm

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	lltypes "github.com/llir/llvm/ir/types"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/diag"
	"github.com/thrushlang/thrushc-sub009/internal/symbols"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

var tlsModels = map[ast.ThreadMode]enum.TLSModel{
	ast.ThreadGeneric:      enum.TLSModelGeneric,
	ast.ThreadInitialExec:  enum.TLSModelInitialExec,
	ast.ThreadLocalDynamic: enum.TLSModelLocalDynamic,
	ast.ThreadLocalExec:    enum.TLSModelLocalExec,
}

func (e *Emitter) emitConst(c *ast.Const) {
	name := c.Attrs.SymbolName(c.Name)
	e.claimGlobal(name, c.Span)
	init := e.mustConst(c.Value, c.Type, c.Name)

	g := e.mod.NewGlobalDef(name, init)
	g.Immutable = true
	g.UnnamedAddr = enum.UnnamedAddrUnnamedAddr
	if !c.Attrs.Public {
		g.Linkage = enum.LinkagePrivate
	}
	g.Align = e.alignOf(c.Type, c.Span)

	e.syms.DeclareGlobal(symbols.Symbol{
		Name:   c.Name,
		Kind:   symbols.SymbolConst,
		Handle: g,
		Type:   c.Type,
		Site:   ast.SiteStatic,
		Span:   c.Span,
	})
}

func (e *Emitter) emitStatic(s *ast.Static) {
	name := s.Attrs.SymbolName(s.Name)
	e.claimGlobal(name, s.Span)

	var g *ir.Global
	if s.Attrs.Extern {
		g = e.mod.NewGlobal(name, e.llvmType(s.Type))
		g.Linkage = enum.LinkageExternal
	} else {
		var init constant.Constant
		if s.Value != nil {
			init = e.mustConst(s.Value, s.Type, s.Name)
		} else {
			if types.IsVoid(s.Type) {
				diag.Abort(0, diag.GenUnsizedType, s.Span, "static '%s' has no storage size", s.Name)
			}
			init = constant.NewZeroInitializer(e.llvmType(s.Type))
		}
		g = e.mod.NewGlobalDef(name, init)
		if !s.Attrs.Public {
			g.Linkage = enum.LinkageInternal
		}
		g.Align = e.alignOf(s.Type, s.Span)
	}
	if s.Attrs.Linkage != ast.LinkageDefault {
		g.Linkage = linkages[s.Attrs.Linkage]
	}
	g.Immutable = !s.Mutable || s.Attrs.Constant
	if m, ok := tlsModels[s.Attrs.ThreadMode]; ok {
		g.TLSModel = m
	}

	var flags symbols.SymbolFlags
	if s.Mutable {
		flags |= symbols.SymbolFlagMutable
	}
	e.syms.DeclareGlobal(symbols.Symbol{
		Name:   s.Name,
		Kind:   symbols.SymbolStatic,
		Handle: g,
		Type:   s.Type,
		Site:   ast.SiteStatic,
		Flags:  flags,
		Span:   s.Span,
	})
}

func (e *Emitter) mustConst(x *ast.Expr, t types.Type, name string) constant.Constant {
	c, ok := e.constAs(x, t)
	if !ok {
		diag.Abort(1, diag.GenNotConstant, x.Span, "initializer of '%s' is not a constant expression", name)
	}
	return c
}

// constInit returns the initializer of an immutable global symbol.
func (e *Emitter) constInit(sym symbols.Symbol) (constant.Constant, bool) {
	g, ok := sym.Handle.(*ir.Global)
	if !ok || g.Init == nil || !g.Immutable {
		return nil, false
	}
	return g.Init, true
}

// constAs folds x into a constant of type t.
func (e *Emitter) constAs(x *ast.Expr, t types.Type) (constant.Constant, bool) {
	x = ast.Unparen(x)
	if lit, ok := x.Data.(ast.LiteralData); ok {
		return e.literalConst(lit, t), true
	}
	c, ok := e.constExpr(x)
	if !ok || !lltypes.Equal(c.Type(), e.llvmType(t)) {
		return nil, false
	}
	return c, true
}

// constExpr folds literals, constant references, casts and negations of
// literals, and aggregates of constants. ok is false for anything that
// needs instructions.
func (e *Emitter) constExpr(x *ast.Expr) (constant.Constant, bool) {
	x = ast.Unparen(x)
	switch d := x.Data.(type) {
	case ast.LiteralData:
		return e.literalConst(d, x.Type), true
	case ast.CastData:
		if lit, ok := ast.Unparen(d.Value).Data.(ast.LiteralData); ok && lit.Kind != ast.LiteralStr {
			return e.literalConst(lit, x.Type), true
		}
	case ast.UnaryData:
		lit, ok := ast.Unparen(d.Operand).Data.(ast.LiteralData)
		if !ok || d.Op != ast.UnaryNeg {
			break
		}
		switch lit.Kind {
		case ast.LiteralInt:
			lit.Int = -lit.Int
			return e.literalConst(lit, x.Type), true
		case ast.LiteralFloat:
			lit.Float = -lit.Float
			return e.literalConst(lit, x.Type), true
		}
	case ast.RefData:
		sym, ok := e.syms.Lookup(d.Name)
		if ok && sym.Kind == symbols.SymbolConst {
			return e.constInit(sym)
		}
	case ast.StructLitData:
		st, ok := e.llvmType(x.Type).(*lltypes.StructType)
		fields := types.StructFields(types.Unwrap(x.Type))
		if !ok || len(fields) != len(d.Fields) {
			break
		}
		cs := make([]constant.Constant, 0, len(d.Fields))
		for i, f := range d.Fields {
			c, ok := e.constAs(f, fields[i])
			if !ok {
				return nil, false
			}
			cs = append(cs, c)
		}
		return constant.NewStruct(st, cs...), true
	case ast.ArrayLitData:
		at, ok := e.llvmType(x.Type).(*lltypes.ArrayType)
		elem, hasElem := types.ElemType(types.Unwrap(x.Type))
		if !ok || !hasElem {
			break
		}
		cs := make([]constant.Constant, 0, len(d.Elements))
		for _, el := range d.Elements {
			c, ok := e.constAs(el, elem)
			if !ok {
				return nil, false
			}
			cs = append(cs, c)
		}
		return constant.NewArray(at, cs...), true
	}
	return nil, false
}

func (e *Emitter) literal(x *ast.Expr, d ast.LiteralData) constant.Constant {
	return e.literalConst(d, x.Type)
}

// literalConst materialises a literal at type t. Integer bits are kept
// as written, so unsigned values above the signed range wrap.
func (e *Emitter) literalConst(d ast.LiteralData, t types.Type) constant.Constant {
	if d.Kind == ast.LiteralStr {
		return e.stringPtr(d.Str)
	}
	lt := e.llvmType(t)
	switch lt := lt.(type) {
	case *lltypes.IntType:
		switch d.Kind {
		case ast.LiteralBool:
			if d.Bool {
				return constant.NewInt(lt, 1)
			}
			return constant.NewInt(lt, 0)
		case ast.LiteralFloat:
			return constant.NewInt(lt, int64(d.Float))
		}
		return constant.NewInt(lt, int64(d.Int))
	case *lltypes.FloatType:
		f := d.Float
		if d.Kind == ast.LiteralInt {
			if d.Signed {
				f = float64(int64(d.Int))
			} else {
				f = float64(d.Int)
			}
		}
		if lt == lltypes.Float {
			f = float64(float32(f))
		}
		return constant.NewFloat(lt, f)
	case *lltypes.PointerType:
		if d.Kind == ast.LiteralInt && d.Int != 0 {
			return constant.NewIntToPtr(constant.NewInt(e.sizeType(), int64(d.Int)), lt)
		}
		return constant.NewNull(lt)
	}
	return constant.NewZeroInitializer(lt)
}

// stringPtr interns s as a private NUL-terminated global and returns a
// pointer to its first byte.
func (e *Emitter) stringPtr(s string) constant.Constant {
	g, ok := e.strs[s]
	if !ok {
		data := constant.NewCharArrayFromString(s + "\x00")
		g = e.mod.NewGlobalDef(e.uniqueGlobal(".str"), data)
		g.Linkage = enum.LinkagePrivate
		g.UnnamedAddr = enum.UnnamedAddrUnnamedAddr
		g.Immutable = true
		e.strs[s] = g
	}
	zero := constant.NewInt(lltypes.I64, 0)
	return constant.NewGetElementPtr(g.ContentType, g, zero, zero)
}

package astio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// ErrSchema reports a `.tast` file written with an unsupported schema.
var ErrSchema = errors.New("unsupported .tast schema")

// Document is a decoded `.tast` file.
type Document struct {
	Unit   *ast.Unit
	Source []byte // original source text, may be nil
}

// ReadFile decodes the `.tast` file at path. Spans are attributed to file.
func ReadFile(path string, file source.FileID) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	doc, err := Decode(f, file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode reads one unit from r.
func Decode(r io.Reader, file source.FileID) (*Document, error) {
	var w wireUnit
	if err := msgpack.NewDecoder(r).Decode(&w); err != nil {
		return nil, fmt.Errorf("decode unit: %w", err)
	}
	if w.Schema != SchemaVersion {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrSchema, w.Schema, SchemaVersion)
	}
	d := decoder{file: file}
	unit, err := d.unit(&w)
	if err != nil {
		return nil, err
	}
	return &Document{Unit: unit, Source: w.Source}, nil
}

type decoder struct {
	file source.FileID
}

func (d *decoder) span(s wireSpan) source.Span {
	return source.Span{File: d.file, Start: s.Start, End: s.End}
}

// typ reattributes every nested span to the decoder's file.
func (d *decoder) typ(t types.Type) types.Type {
	t.Span.File = d.file
	if t.Elem != nil {
		elem := d.typ(*t.Elem)
		t.Elem = &elem
	}
	if t.Ret != nil {
		ret := d.typ(*t.Ret)
		t.Ret = &ret
	}
	if len(t.Fields) > 0 {
		fields := make([]types.Type, len(t.Fields))
		for i, f := range t.Fields {
			fields[i] = d.typ(f)
		}
		t.Fields = fields
	}
	if len(t.Params) > 0 {
		params := make([]types.Type, len(t.Params))
		for i, p := range t.Params {
			params[i] = d.typ(p)
		}
		t.Params = params
	}
	return t
}

func (d *decoder) unit(w *wireUnit) (*ast.Unit, error) {
	u := &ast.Unit{Name: w.Name, Path: w.Path}
	for i := range w.Consts {
		g := &w.Consts[i]
		attrs, err := d.attrs(g.Attrs)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", g.Name, err)
		}
		if g.Value == nil {
			return nil, fmt.Errorf("const %s: missing value", g.Name)
		}
		value, err := d.expr(g.Value)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", g.Name, err)
		}
		u.Consts = append(u.Consts, &ast.Const{
			Name:  g.Name,
			Type:  d.typ(g.Type),
			Value: value,
			Attrs: attrs,
			Span:  d.span(g.Span),
		})
	}
	for i := range w.Statics {
		g := &w.Statics[i]
		attrs, err := d.attrs(g.Attrs)
		if err != nil {
			return nil, fmt.Errorf("static %s: %w", g.Name, err)
		}
		var value *ast.Expr
		if g.Value != nil {
			if value, err = d.expr(g.Value); err != nil {
				return nil, fmt.Errorf("static %s: %w", g.Name, err)
			}
		}
		u.Statics = append(u.Statics, &ast.Static{
			Name:    g.Name,
			Type:    d.typ(g.Type),
			Value:   value,
			Mutable: g.Mutable,
			Attrs:   attrs,
			Span:    d.span(g.Span),
		})
	}
	for i := range w.Funcs {
		fn, err := d.fn(&w.Funcs[i])
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", w.Funcs[i].Name, err)
		}
		u.Funcs = append(u.Funcs, fn)
	}
	return u, nil
}

func (d *decoder) attrs(w wireAttrs) (ast.Attributes, error) {
	a := ast.Attributes{
		Public:     w.Public,
		Extern:     w.Extern,
		ExternName: w.ExternName,
		Constant:   w.Constant,
		Inline:     w.Inline,
		NoInline:   w.NoInline,
		Hot:        w.Hot,

		InlineHint:    w.InlineHint,
		MinSize:       w.MinSize,
		NoUnwind:      w.NoUnwind,
		PreciseFloats: w.PreciseFloats,
		Pure:          w.Pure,
	}
	var ok bool
	if w.Convention != "" {
		if a.Convention, ok = ast.LookupConvention(w.Convention); !ok {
			return a, fmt.Errorf("unknown calling convention %q", w.Convention)
		}
	}
	if w.Linkage != "" {
		if a.Linkage, ok = ast.LookupLinkage(w.Linkage); !ok {
			return a, fmt.Errorf("unknown linkage %q", w.Linkage)
		}
	}
	if w.Stack != "" {
		if a.Stack, ok = ast.LookupStackProtect(w.Stack); !ok {
			return a, fmt.Errorf("unknown stack protection %q", w.Stack)
		}
	}
	switch w.Thread {
	case "":
	case "threadlocal":
		a.ThreadMode = ast.ThreadGeneric
	default:
		kw, ok := ast.LookupKeyword(w.Thread)
		if !ok || kw.Kind != ast.KeywordThread {
			return a, fmt.Errorf("unknown thread mode %q", w.Thread)
		}
		a.ThreadMode = kw.Thread
	}
	return a, nil
}

func (d *decoder) fn(w *wireFunc) (*ast.Func, error) {
	attrs, err := d.attrs(w.Attrs)
	if err != nil {
		return nil, err
	}
	fn := &ast.Func{
		Name:     w.Name,
		Ret:      d.typ(w.Ret),
		Variadic: w.Variadic,
		Attrs:    attrs,
		Span:     d.span(w.Span),
	}
	for _, p := range w.Params {
		fn.Params = append(fn.Params, ast.Param{
			Name:    p.Name,
			Type:    d.typ(p.Type),
			Mutable: p.Mutable,
			Span:    d.span(p.Span),
		})
	}
	if w.Body != nil {
		if fn.Body, err = d.block(w.Body); err != nil {
			return nil, err
		}
	}
	return fn, nil
}

func (d *decoder) block(w *wireBlock) (*ast.Block, error) {
	b := &ast.Block{Span: d.span(w.Span), Stmts: make([]*ast.Stmt, 0, len(w.Stmts))}
	for i := range w.Stmts {
		st, err := d.stmt(&w.Stmts[i])
		if err != nil {
			return nil, err
		}
		b.Stmts = append(b.Stmts, st)
	}
	return b, nil
}

func (d *decoder) site(s string) (ast.AllocSite, error) {
	if s == "" {
		return ast.SiteStack, nil
	}
	kw, ok := ast.LookupKeyword(s)
	if !ok || kw.Kind != ast.KeywordSite {
		return 0, fmt.Errorf("unknown allocation site %q", s)
	}
	return kw.Site, nil
}

func (d *decoder) mods(w wireMods) (ast.Modifiers, error) {
	m := ast.Modifiers{Volatile: w.Volatile}
	if w.Ordering == "" {
		return m, nil
	}
	kw, ok := ast.LookupKeyword(w.Ordering)
	if !ok || kw.Kind != ast.KeywordOrdering {
		return m, fmt.Errorf("unknown memory ordering %q", w.Ordering)
	}
	m.Ordering = kw.Ordering
	return m, nil
}

func (d *decoder) exprAt(w *wireStmt, i int) (*ast.Expr, error) {
	if i >= len(w.Exprs) {
		return nil, fmt.Errorf("%s statement: missing operand %d", w.Kind, i)
	}
	return d.expr(&w.Exprs[i])
}

func (d *decoder) blockAt(w *wireStmt, i int) (*ast.Block, error) {
	if i >= len(w.Blocks) {
		return nil, fmt.Errorf("%s statement: missing block %d", w.Kind, i)
	}
	return d.block(&w.Blocks[i])
}

func (d *decoder) stmt(w *wireStmt) (*ast.Stmt, error) {
	st := &ast.Stmt{Span: d.span(w.Span)}
	switch w.Kind {
	case stmtLocal:
		site, err := d.site(w.Site)
		if err != nil {
			return nil, err
		}
		if w.Type == nil {
			return nil, fmt.Errorf("local %s: missing type", w.Name)
		}
		data := ast.LocalData{Name: w.Name, Type: d.typ(*w.Type), Site: site, Mutable: w.Mutable}
		if len(w.Exprs) > 0 {
			if data.Value, err = d.expr(&w.Exprs[0]); err != nil {
				return nil, err
			}
		}
		st.Kind, st.Data = ast.StmtLocal, data
	case stmtInstr:
		if w.Type == nil {
			return nil, fmt.Errorf("instr %s: missing type", w.Name)
		}
		value, err := d.exprAt(w, 0)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtInstr, ast.InstrData{Name: w.Name, Type: d.typ(*w.Type), Value: value}
	case stmtAssign:
		target, err := d.exprAt(w, 0)
		if err != nil {
			return nil, err
		}
		value, err := d.exprAt(w, 1)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtAssign, ast.AssignData{Target: target, Value: value}
	case stmtExpr:
		e, err := d.exprAt(w, 0)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtExpr, ast.ExprStmtData{Expr: e}
	case stmtReturn:
		data := ast.ReturnData{}
		if len(w.Exprs) > 0 {
			var err error
			if data.Value, err = d.expr(&w.Exprs[0]); err != nil {
				return nil, err
			}
		}
		st.Kind, st.Data = ast.StmtReturn, data
	case stmtBreak:
		st.Kind, st.Data = ast.StmtBreak, ast.BreakData{}
	case stmtContinue:
		st.Kind, st.Data = ast.StmtContinue, ast.ContinueData{}
	case stmtIf:
		cond, err := d.exprAt(w, 0)
		if err != nil {
			return nil, err
		}
		then, err := d.blockAt(w, 0)
		if err != nil {
			return nil, err
		}
		data := ast.IfData{Cond: cond, Then: then}
		for i := range w.Elifs {
			el := &w.Elifs[i]
			c, err := d.expr(&el.Cond)
			if err != nil {
				return nil, err
			}
			b, err := d.block(&el.Then)
			if err != nil {
				return nil, err
			}
			data.Elifs = append(data.Elifs, ast.ElifClause{Cond: c, Then: b, Span: d.span(el.Span)})
		}
		if w.HasElse {
			if data.Else, err = d.blockAt(w, 1); err != nil {
				return nil, err
			}
		}
		st.Kind, st.Data = ast.StmtIf, data
	case stmtWhile:
		cond, err := d.exprAt(w, 0)
		if err != nil {
			return nil, err
		}
		body, err := d.blockAt(w, 0)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtWhile, ast.WhileData{Cond: cond, Body: body}
	case stmtLoop:
		body, err := d.blockAt(w, 0)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtLoop, ast.LoopData{Body: body}
	case stmtBlock:
		b, err := d.blockAt(w, 0)
		if err != nil {
			return nil, err
		}
		st.Kind, st.Data = ast.StmtBlock, ast.BlockStmtData{Block: b}
	default:
		return nil, fmt.Errorf("unknown statement kind %q", w.Kind)
	}
	return st, nil
}

func (d *decoder) exprs(ws []wireExpr) ([]*ast.Expr, error) {
	out := make([]*ast.Expr, 0, len(ws))
	for i := range ws {
		e, err := d.expr(&ws[i])
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *decoder) arg(w *wireExpr, i int) (*ast.Expr, error) {
	if i >= len(w.Args) {
		return nil, fmt.Errorf("%s: missing operand %d", w.Kind, i)
	}
	return d.expr(&w.Args[i])
}

func (d *decoder) expr(w *wireExpr) (*ast.Expr, error) {
	e := &ast.Expr{Type: d.typ(w.Type), Span: d.span(w.Span)}
	var err error
	switch w.Kind {
	case kindLit:
		if w.Lit == nil {
			return nil, errors.New("literal without payload")
		}
		e.Kind = ast.ExprLiteral
		e.Data, err = literal(w.Lit)
	case kindRef:
		e.Kind, e.Data = ast.ExprRef, ast.RefData{Name: w.Name}
	case kindCast:
		var v *ast.Expr
		v, err = d.arg(w, 0)
		e.Kind, e.Data = ast.ExprCast, ast.CastData{Value: v}
	case kindCall:
		var args []*ast.Expr
		args, err = d.exprs(w.Args)
		e.Kind, e.Data = ast.ExprCall, ast.CallData{Name: w.Name, Args: args}
	case kindStruct:
		var fields []*ast.Expr
		fields, err = d.exprs(w.Args)
		e.Kind, e.Data = ast.ExprStructLit, ast.StructLitData{Name: w.Name, Fields: fields}
	case kindArray:
		var elems []*ast.Expr
		elems, err = d.exprs(w.Args)
		e.Kind, e.Data = ast.ExprArrayLit, ast.ArrayLitData{Elements: elems}
	case kindProp:
		var src *ast.Expr
		src, err = d.arg(w, 0)
		e.Kind, e.Data = ast.ExprProperty, ast.PropertyData{Source: src, Indexes: w.Indexes}
	case kindIndex:
		var src, idx *ast.Expr
		if src, err = d.arg(w, 0); err == nil {
			idx, err = d.arg(w, 1)
		}
		e.Kind, e.Data = ast.ExprIndex, ast.IndexData{Source: src, Index: idx}
	case kindBin:
		op, ok := ast.ParseBinaryOp(w.Op)
		if !ok {
			return nil, fmt.Errorf("unknown binary operator %q", w.Op)
		}
		var l, r *ast.Expr
		if l, err = d.arg(w, 0); err == nil {
			r, err = d.arg(w, 1)
		}
		e.Kind, e.Data = ast.ExprBinary, ast.BinaryData{Op: op, Left: l, Right: r}
	case kindUnary:
		op, ok := ast.ParseUnaryOp(w.Op)
		if !ok {
			return nil, fmt.Errorf("unknown unary operator %q", w.Op)
		}
		var v *ast.Expr
		v, err = d.arg(w, 0)
		e.Kind, e.Data = ast.ExprUnary, ast.UnaryData{Op: op, Operand: v}
	case kindGroup:
		var v *ast.Expr
		v, err = d.arg(w, 0)
		e.Kind, e.Data = ast.ExprGroup, ast.GroupData{Inner: v}
	default:
		return d.keywordExpr(w, e)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// keywordExpr decodes instruction and builtin nodes, whose kinds are spelled
// as source keywords.
func (d *decoder) keywordExpr(w *wireExpr, e *ast.Expr) (*ast.Expr, error) {
	kw, ok := ast.LookupKeyword(w.Kind)
	if !ok {
		return nil, fmt.Errorf("unknown expression kind %q", w.Kind)
	}
	var err error
	switch kw.Kind {
	case ast.KeywordInstr:
		e.Kind = kw.Instr
		e.Data, err = d.instr(kw.Instr, w)
	case ast.KeywordBuiltin:
		data := ast.BuiltinData{Builtin: kw.Builtin}
		if w.Elem != nil {
			data.TypeArg = d.typ(*w.Elem)
		}
		data.Args, err = d.exprs(w.Args)
		e.Kind, e.Data = ast.ExprBuiltin, data
	default:
		return nil, fmt.Errorf("keyword %q is not an expression", w.Kind)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (d *decoder) instr(kind ast.ExprKind, w *wireExpr) (ast.ExprData, error) {
	switch kind {
	case ast.ExprAlloc:
		if w.Elem == nil {
			return nil, errors.New("alloc without element type")
		}
		site, err := d.site(w.Site)
		if err != nil {
			return nil, err
		}
		return ast.AllocData{Elem: d.typ(*w.Elem), Site: site, Name: w.Name}, nil
	case ast.ExprLoad:
		src, err := d.arg(w, 0)
		if err != nil {
			return nil, err
		}
		mods, err := d.mods(w.Mods)
		if err != nil {
			return nil, err
		}
		data := ast.LoadData{Source: src, Modifiers: mods}
		if w.Cast != nil {
			c := d.typ(*w.Cast)
			data.Cast = &c
		}
		switch {
		case w.Elem != nil:
			data.Type = d.typ(*w.Elem)
		case w.Cast == nil:
			data.Type = d.typ(w.Type)
		}
		return data, nil
	case ast.ExprWrite:
		target, err := d.arg(w, 0)
		if err != nil {
			return nil, err
		}
		value, err := d.arg(w, 1)
		if err != nil {
			return nil, err
		}
		mods, err := d.mods(w.Mods)
		if err != nil {
			return nil, err
		}
		data := ast.WriteData{Target: target, Value: value, WriteType: value.Type, Modifiers: mods}
		if w.Elem != nil {
			data.WriteType = d.typ(*w.Elem)
		}
		return data, nil
	case ast.ExprAddress:
		base, err := d.arg(w, 0)
		if err != nil {
			return nil, err
		}
		idx, err := d.exprs(w.Args[1:])
		if err != nil {
			return nil, err
		}
		return ast.AddressData{Base: base, Indexes: idx}, nil
	case ast.ExprDeref:
		v, err := d.arg(w, 0)
		if err != nil {
			return nil, err
		}
		mods, err := d.mods(w.Mods)
		if err != nil {
			return nil, err
		}
		return ast.DerefData{Value: v, Modifiers: mods}, nil
	}
	return nil, fmt.Errorf("unsupported instruction %s", kind)
}

func literal(w *wireLit) (ast.LiteralData, error) {
	lit := ast.LiteralData{Int: w.Int, Signed: w.Signed, Float: w.Float, Bool: w.Bool, Str: w.Str}
	switch w.Kind {
	case litInt:
		lit.Kind = ast.LiteralInt
	case litFloat:
		lit.Kind = ast.LiteralFloat
	case litBool:
		lit.Kind = ast.LiteralBool
	case litChar:
		lit.Kind = ast.LiteralChar
	case litStr:
		lit.Kind = ast.LiteralStr
	case litNull:
		lit.Kind = ast.LiteralNull
	default:
		return lit, fmt.Errorf("unknown literal kind %q", w.Kind)
	}
	return lit, nil
}

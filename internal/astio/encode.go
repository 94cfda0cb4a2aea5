package astio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/thrushlang/thrushc-sub009/internal/ast"
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// Encode writes doc to w in the current schema.
func Encode(w io.Writer, doc *Document) error {
	if doc == nil || doc.Unit == nil {
		return fmt.Errorf("encode: nil unit")
	}
	wu, err := encodeUnit(doc.Unit)
	if err != nil {
		return err
	}
	wu.Source = doc.Source
	return msgpack.NewEncoder(w).Encode(wu)
}

// WriteFile encodes doc into path, replacing it atomically.
func WriteFile(path string, doc *Document) error {
	f, err := os.CreateTemp(filepath.Dir(path), "tast-*")
	if err != nil {
		return err
	}
	defer os.Remove(f.Name())
	if err := Encode(f, doc); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}

func spanOut(s source.Span) wireSpan {
	return wireSpan{Start: s.Start, End: s.End}
}

func encodeUnit(u *ast.Unit) (*wireUnit, error) {
	w := &wireUnit{Schema: SchemaVersion, Name: u.Name, Path: u.Path}
	for _, c := range u.Consts {
		v, err := encodeExpr(c.Value)
		if err != nil {
			return nil, fmt.Errorf("const %s: %w", c.Name, err)
		}
		w.Consts = append(w.Consts, wireGlobal{Name: c.Name, Type: c.Type, Value: v, Attrs: attrsOut(c.Attrs), Span: spanOut(c.Span)})
	}
	for _, s := range u.Statics {
		g := wireGlobal{Name: s.Name, Type: s.Type, Mutable: s.Mutable, Attrs: attrsOut(s.Attrs), Span: spanOut(s.Span)}
		if s.Value != nil {
			v, err := encodeExpr(s.Value)
			if err != nil {
				return nil, fmt.Errorf("static %s: %w", s.Name, err)
			}
			g.Value = v
		}
		w.Statics = append(w.Statics, g)
	}
	for _, fn := range u.Funcs {
		wf := wireFunc{Name: fn.Name, Ret: fn.Ret, Variadic: fn.Variadic, Attrs: attrsOut(fn.Attrs), Span: spanOut(fn.Span)}
		for _, p := range fn.Params {
			wf.Params = append(wf.Params, wireParam{Name: p.Name, Type: p.Type, Mutable: p.Mutable, Span: spanOut(p.Span)})
		}
		if fn.Body != nil {
			b, err := encodeBlock(fn.Body)
			if err != nil {
				return nil, fmt.Errorf("fn %s: %w", fn.Name, err)
			}
			wf.Body = &b
		}
		w.Funcs = append(w.Funcs, wf)
	}
	return w, nil
}

func attrsOut(a ast.Attributes) wireAttrs {
	w := wireAttrs{
		Public:     a.Public,
		Extern:     a.Extern,
		ExternName: a.ExternName,
		Constant:   a.Constant,
		Inline:     a.Inline,
		NoInline:   a.NoInline,
		Hot:        a.Hot,

		Convention:    a.Convention.String(),
		Linkage:       a.Linkage.String(),
		InlineHint:    a.InlineHint,
		MinSize:       a.MinSize,
		NoUnwind:      a.NoUnwind,
		Stack:         a.Stack.String(),
		PreciseFloats: a.PreciseFloats,
		Pure:          a.Pure,
	}
	switch a.ThreadMode {
	case ast.ThreadNone:
	case ast.ThreadGeneric:
		w.Thread = "threadlocal"
	default:
		w.Thread = ast.ThreadKeyword(a.ThreadMode)
	}
	return w
}

func encodeBlock(b *ast.Block) (wireBlock, error) {
	wb := wireBlock{Span: spanOut(b.Span), Stmts: make([]wireStmt, 0, len(b.Stmts))}
	for _, st := range b.Stmts {
		ws, err := encodeStmt(st)
		if err != nil {
			return wb, err
		}
		wb.Stmts = append(wb.Stmts, ws)
	}
	return wb, nil
}

func (w *wireStmt) addExpr(e *ast.Expr) error {
	we, err := encodeExpr(e)
	if err != nil {
		return err
	}
	w.Exprs = append(w.Exprs, *we)
	return nil
}

func (w *wireStmt) addBlock(b *ast.Block) error {
	wb, err := encodeBlock(b)
	if err != nil {
		return err
	}
	w.Blocks = append(w.Blocks, wb)
	return nil
}

func encodeStmt(st *ast.Stmt) (wireStmt, error) {
	w := wireStmt{Span: spanOut(st.Span)}
	var err error
	switch data := st.Data.(type) {
	case ast.LocalData:
		w.Kind, w.Name, w.Mutable = stmtLocal, data.Name, data.Mutable
		t := data.Type
		w.Type = &t
		w.Site = ast.SiteKeyword(data.Site)
		if data.Value != nil {
			err = w.addExpr(data.Value)
		}
	case ast.InstrData:
		w.Kind, w.Name = stmtInstr, data.Name
		t := data.Type
		w.Type = &t
		err = w.addExpr(data.Value)
	case ast.AssignData:
		w.Kind = stmtAssign
		if err = w.addExpr(data.Target); err == nil {
			err = w.addExpr(data.Value)
		}
	case ast.ExprStmtData:
		w.Kind = stmtExpr
		err = w.addExpr(data.Expr)
	case ast.ReturnData:
		w.Kind = stmtReturn
		if data.Value != nil {
			err = w.addExpr(data.Value)
		}
	case ast.BreakData:
		w.Kind = stmtBreak
	case ast.ContinueData:
		w.Kind = stmtContinue
	case ast.IfData:
		w.Kind = stmtIf
		if err = w.addExpr(data.Cond); err != nil {
			break
		}
		if err = w.addBlock(data.Then); err != nil {
			break
		}
		for _, el := range data.Elifs {
			c, cerr := encodeExpr(el.Cond)
			if cerr != nil {
				return w, cerr
			}
			b, berr := encodeBlock(el.Then)
			if berr != nil {
				return w, berr
			}
			w.Elifs = append(w.Elifs, wireElif{Cond: *c, Then: b, Span: spanOut(el.Span)})
		}
		if data.Else != nil {
			w.HasElse = true
			err = w.addBlock(data.Else)
		}
	case ast.WhileData:
		w.Kind = stmtWhile
		if err = w.addExpr(data.Cond); err == nil {
			err = w.addBlock(data.Body)
		}
	case ast.LoopData:
		w.Kind = stmtLoop
		err = w.addBlock(data.Body)
	case ast.BlockStmtData:
		w.Kind = stmtBlock
		err = w.addBlock(data.Block)
	default:
		return w, fmt.Errorf("cannot encode statement %s", st.Kind)
	}
	return w, err
}

func encodeExprs(es []*ast.Expr) ([]wireExpr, error) {
	out := make([]wireExpr, 0, len(es))
	for _, e := range es {
		we, err := encodeExpr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, *we)
	}
	return out, nil
}

func modsOut(m ast.Modifiers) wireMods {
	w := wireMods{Volatile: m.Volatile}
	if m.Ordering != ast.OrderingNone {
		w.Ordering = ast.OrderingKeyword(m.Ordering)
	}
	return w
}

func encodeExpr(e *ast.Expr) (*wireExpr, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}
	w := &wireExpr{Type: e.Type, Span: spanOut(e.Span)}
	var err error
	switch data := e.Data.(type) {
	case ast.LiteralData:
		w.Kind = kindLit
		w.Lit = literalOut(data)
	case ast.RefData:
		w.Kind, w.Name = kindRef, data.Name
	case ast.CastData:
		w.Kind = kindCast
		w.Args, err = encodeExprs([]*ast.Expr{data.Value})
	case ast.CallData:
		w.Kind, w.Name = kindCall, data.Name
		w.Args, err = encodeExprs(data.Args)
	case ast.StructLitData:
		w.Kind, w.Name = kindStruct, data.Name
		w.Args, err = encodeExprs(data.Fields)
	case ast.ArrayLitData:
		w.Kind = kindArray
		w.Args, err = encodeExprs(data.Elements)
	case ast.PropertyData:
		w.Kind, w.Indexes = kindProp, data.Indexes
		w.Args, err = encodeExprs([]*ast.Expr{data.Source})
	case ast.IndexData:
		w.Kind = kindIndex
		w.Args, err = encodeExprs([]*ast.Expr{data.Source, data.Index})
	case ast.BinaryData:
		w.Kind, w.Op = kindBin, data.Op.String()
		w.Args, err = encodeExprs([]*ast.Expr{data.Left, data.Right})
	case ast.UnaryData:
		w.Kind, w.Op = kindUnary, data.Op.String()
		w.Args, err = encodeExprs([]*ast.Expr{data.Operand})
	case ast.GroupData:
		w.Kind = kindGroup
		w.Args, err = encodeExprs([]*ast.Expr{data.Inner})
	case ast.AllocData:
		w.Kind, _ = ast.InstrKeyword(ast.ExprAlloc)
		elem := data.Elem
		w.Elem, w.Site, w.Name = &elem, ast.SiteKeyword(data.Site), data.Name
	case ast.LoadData:
		w.Kind, _ = ast.InstrKeyword(ast.ExprLoad)
		w.Cast, w.Mods = data.Cast, modsOut(data.Modifiers)
		if data.Type.Kind != types.KindInvalid {
			lt := data.Type
			w.Elem = &lt
		}
		w.Args, err = encodeExprs([]*ast.Expr{data.Source})
	case ast.WriteData:
		w.Kind, _ = ast.InstrKeyword(ast.ExprWrite)
		wt := data.WriteType
		w.Elem, w.Mods = &wt, modsOut(data.Modifiers)
		w.Args, err = encodeExprs([]*ast.Expr{data.Target, data.Value})
	case ast.AddressData:
		w.Kind, _ = ast.InstrKeyword(ast.ExprAddress)
		w.Args, err = encodeExprs(append([]*ast.Expr{data.Base}, data.Indexes...))
	case ast.DerefData:
		w.Kind, _ = ast.InstrKeyword(ast.ExprDeref)
		w.Mods = modsOut(data.Modifiers)
		w.Args, err = encodeExprs([]*ast.Expr{data.Value})
	case ast.BuiltinData:
		name, ok := ast.BuiltinKeyword(data.Builtin)
		if !ok {
			return nil, fmt.Errorf("unknown builtin %d", data.Builtin)
		}
		w.Kind = name
		if data.Builtin == ast.BuiltinHalloc || data.Builtin == ast.BuiltinSizeOf || data.Builtin == ast.BuiltinAlignOf {
			t := data.TypeArg
			w.Elem = &t
		}
		w.Args, err = encodeExprs(data.Args)
	default:
		return nil, fmt.Errorf("cannot encode expression %s", e.Kind)
	}
	if err != nil {
		return nil, err
	}
	return w, nil
}

func literalOut(l ast.LiteralData) *wireLit {
	w := &wireLit{Int: l.Int, Signed: l.Signed, Float: l.Float, Bool: l.Bool, Str: l.Str}
	switch l.Kind {
	case ast.LiteralInt:
		w.Kind = litInt
	case ast.LiteralFloat:
		w.Kind = litFloat
	case ast.LiteralBool:
		w.Kind = litBool
	case ast.LiteralChar:
		w.Kind = litChar
	case ast.LiteralStr:
		w.Kind = litStr
	case ast.LiteralNull:
		w.Kind = litNull
	}
	return w
}

package astio

import (
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// SchemaVersion is the current `.tast` wire schema. Bump it whenever the
// layout of the wire structs changes.
const SchemaVersion uint16 = 1

// Expression kind spellings that are not instruction or builtin keywords.
const (
	kindLit    = "lit"
	kindRef    = "ref"
	kindCast   = "as"
	kindCall   = "call"
	kindStruct = "struct"
	kindArray  = "array"
	kindProp   = "prop"
	kindIndex  = "index"
	kindBin    = "bin"
	kindUnary  = "unary"
	kindGroup  = "group"
)

// Statement kind spellings.
const (
	stmtLocal    = "local"
	stmtInstr    = "instr"
	stmtAssign   = "assign"
	stmtExpr     = "expr"
	stmtReturn   = "return"
	stmtBreak    = "break"
	stmtContinue = "continue"
	stmtIf       = "if"
	stmtWhile    = "while"
	stmtLoop     = "loop"
	stmtBlock    = "block"
)

// Literal kind spellings.
const (
	litInt   = "int"
	litFloat = "float"
	litBool  = "bool"
	litChar  = "char"
	litStr   = "str"
	litNull  = "null"
)

type wireSpan struct {
	Start uint32 `msgpack:"s"`
	End   uint32 `msgpack:"e"`
}

type wireMods struct {
	Volatile bool   `msgpack:"vol,omitempty"`
	Ordering string `msgpack:"ord,omitempty"` // atom* keyword
}

type wireLit struct {
	Kind   string  `msgpack:"k"`
	Int    uint64  `msgpack:"i,omitempty"`
	Signed bool    `msgpack:"sg,omitempty"`
	Float  float64 `msgpack:"f,omitempty"`
	Bool   bool    `msgpack:"b,omitempty"`
	Str    string  `msgpack:"s,omitempty"`
}

type wireExpr struct {
	Kind string     `msgpack:"k"`
	Type types.Type `msgpack:"t"`
	Span wireSpan   `msgpack:"sp"`

	Lit     *wireLit    `msgpack:"lit,omitempty"`
	Name    string      `msgpack:"name,omitempty"`
	Op      string      `msgpack:"op,omitempty"`
	Args    []wireExpr  `msgpack:"args,omitempty"`
	Indexes []uint32    `msgpack:"idx,omitempty"`
	Site    string      `msgpack:"site,omitempty"`
	Mods    wireMods    `msgpack:"mods,omitempty"`
	Cast    *types.Type `msgpack:"cast,omitempty"`
	Elem    *types.Type `msgpack:"elem,omitempty"`
}

type wireElif struct {
	Cond wireExpr  `msgpack:"c"`
	Then wireBlock `msgpack:"b"`
	Span wireSpan  `msgpack:"sp"`
}

type wireBlock struct {
	Stmts []wireStmt `msgpack:"st"`
	Span  wireSpan   `msgpack:"sp"`
}

type wireStmt struct {
	Kind string   `msgpack:"k"`
	Span wireSpan `msgpack:"sp"`

	Name    string      `msgpack:"name,omitempty"`
	Type    *types.Type `msgpack:"t,omitempty"`
	Site    string      `msgpack:"site,omitempty"`
	Mutable bool        `msgpack:"mut,omitempty"`
	Exprs   []wireExpr  `msgpack:"x,omitempty"` // value; target then value for assign; cond for if/while
	Blocks  []wireBlock `msgpack:"b,omitempty"` // then/else or body
	Elifs   []wireElif  `msgpack:"elif,omitempty"`
	HasElse bool        `msgpack:"else,omitempty"`
}

type wireAttrs struct {
	Public     bool   `msgpack:"pub,omitempty"`
	Extern     bool   `msgpack:"ext,omitempty"`
	ExternName string `msgpack:"extname,omitempty"`
	Constant   bool   `msgpack:"const,omitempty"`
	Thread     string `msgpack:"thread,omitempty"` // thread* keyword, "threadlocal" for the generic model
	Inline     bool   `msgpack:"inline,omitempty"`
	NoInline   bool   `msgpack:"noinline,omitempty"`
	Hot        bool   `msgpack:"hot,omitempty"`

	Convention    string `msgpack:"conv,omitempty"`
	Linkage       string `msgpack:"linkage,omitempty"`
	InlineHint    bool   `msgpack:"inlinehint,omitempty"`
	MinSize       bool   `msgpack:"minsize,omitempty"`
	NoUnwind      bool   `msgpack:"nounwind,omitempty"`
	Stack         string `msgpack:"stack,omitempty"` // safestack, strongstack or weakstack
	PreciseFloats bool   `msgpack:"precisefp,omitempty"`
	Pure          bool   `msgpack:"pure,omitempty"`
}

type wireParam struct {
	Name    string     `msgpack:"name"`
	Type    types.Type `msgpack:"t"`
	Mutable bool       `msgpack:"mut,omitempty"`
	Span    wireSpan   `msgpack:"sp"`
}

type wireFunc struct {
	Name     string      `msgpack:"name"`
	Params   []wireParam `msgpack:"params,omitempty"`
	Ret      types.Type  `msgpack:"ret"`
	Variadic bool        `msgpack:"va,omitempty"`
	Body     *wireBlock  `msgpack:"body,omitempty"`
	Attrs    wireAttrs   `msgpack:"attrs"`
	Span     wireSpan    `msgpack:"sp"`
}

type wireGlobal struct {
	Name    string     `msgpack:"name"`
	Type    types.Type `msgpack:"t"`
	Value   *wireExpr  `msgpack:"v,omitempty"`
	Mutable bool       `msgpack:"mut,omitempty"`
	Attrs   wireAttrs  `msgpack:"attrs"`
	Span    wireSpan   `msgpack:"sp"`
}

type wireUnit struct {
	Schema  uint16       `msgpack:"schema"`
	Name    string       `msgpack:"name"`
	Path    string       `msgpack:"path"`
	Source  []byte       `msgpack:"src,omitempty"`
	Consts  []wireGlobal `msgpack:"consts,omitempty"`
	Statics []wireGlobal `msgpack:"statics,omitempty"`
	Funcs   []wireFunc   `msgpack:"funcs,omitempty"`
}

package ast

import (
	"github.com/thrushlang/thrushc-sub009/internal/source"
	"github.com/thrushlang/thrushc-sub009/internal/types"
)

// StmtKind enumerates statement kinds.
type StmtKind uint8

const (
	// StmtLocal declares a local with an upstream-chosen site.
	StmtLocal StmtKind = iota
	// StmtInstr binds the value of a low-level instruction to a name.
	StmtInstr
	// StmtAssign stores into an existing binding (`name = value`).
	StmtAssign
	StmtExpr
	StmtReturn
	StmtBreak
	StmtContinue
	StmtIf
	StmtWhile
	StmtLoop
	StmtBlock
)

// String returns a human-readable name for the statement kind.
func (k StmtKind) String() string {
	switch k {
	case StmtLocal:
		return "Local"
	case StmtInstr:
		return "Instr"
	case StmtAssign:
		return "Assign"
	case StmtExpr:
		return "Expr"
	case StmtReturn:
		return "Return"
	case StmtBreak:
		return "Break"
	case StmtContinue:
		return "Continue"
	case StmtIf:
		return "If"
	case StmtWhile:
		return "While"
	case StmtLoop:
		return "Loop"
	case StmtBlock:
		return "Block"
	default:
		return "Unknown"
	}
}

// Stmt represents a statement.
type Stmt struct {
	Kind StmtKind
	Span source.Span
	Data StmtData // Kind-specific payload
}

// StmtData is the interface for statement-specific data.
type StmtData interface {
	stmtData()
}

// Block is a lexical block; each one gets its own scope frame.
type Block struct {
	Stmts []*Stmt
	Span  source.Span
}

// LocalData holds data for StmtLocal.
type LocalData struct {
	Name    string
	Type    types.Type
	Site    AllocSite
	Value   *Expr // nil if none
	Mutable bool
}

func (LocalData) stmtData() {}

// InstrData holds data for StmtInstr.
type InstrData struct {
	Name  string
	Type  types.Type
	Value *Expr
}

func (InstrData) stmtData() {}

// AssignData holds data for StmtAssign.
type AssignData struct {
	Target *Expr
	Value  *Expr
}

func (AssignData) stmtData() {}

// ExprStmtData holds data for StmtExpr.
type ExprStmtData struct {
	Expr *Expr
}

func (ExprStmtData) stmtData() {}

// ReturnData holds data for StmtReturn.
type ReturnData struct {
	Value *Expr // nil for bare return
}

func (ReturnData) stmtData() {}

// BreakData holds data for StmtBreak.
type BreakData struct{}

func (BreakData) stmtData() {}

// ContinueData holds data for StmtContinue.
type ContinueData struct{}

func (ContinueData) stmtData() {}

// ElifClause is one `elif` arm.
type ElifClause struct {
	Cond *Expr
	Then *Block
	Span source.Span
}

// IfData holds data for StmtIf.
type IfData struct {
	Cond  *Expr
	Then  *Block
	Elifs []ElifClause
	Else  *Block // nil if none
}

func (IfData) stmtData() {}

// WhileData holds data for StmtWhile.
type WhileData struct {
	Cond *Expr
	Body *Block
}

func (WhileData) stmtData() {}

// LoopData holds data for StmtLoop.
type LoopData struct {
	Body *Block
}

func (LoopData) stmtData() {}

// BlockStmtData holds data for StmtBlock.
type BlockStmtData struct {
	Block *Block
}

func (BlockStmtData) stmtData() {}

package diag

import "fmt"

// Code identifies the class of a backend fault.
type Code uint16

const (
	UnknownCode Code = 0

	// Allocation site resolution
	GenNoFunction      Code = 9001
	GenNoInsertPoint   Code = 9002
	GenUnsizedType     Code = 9003
	GenNamelessStatic  Code = 9004
	GenLayout          Code = 9005
	GenNotConstant     Code = 9006
	GenDuplicateGlobal Code = 9007

	// Lowering
	GenUnboundSymbol   Code = 9101
	GenUnknownFunction Code = 9102
	GenBadOperand      Code = 9103
	GenBadIndex        Code = 9104
	GenLoopControl     Code = 9105
	GenUnsupported     Code = 9106
)

var codeDescription = map[Code]string{
	UnknownCode:        "Unknown fault",
	GenNoFunction:      "No current function",
	GenNoInsertPoint:   "No insertion point",
	GenUnsizedType:     "Type has no storage size",
	GenNamelessStatic:  "Static storage without a name",
	GenLayout:          "Layout computation failed",
	GenNotConstant:     "Initializer is not a constant",
	GenDuplicateGlobal: "Global defined twice",
	GenUnboundSymbol:   "Symbol not bound",
	GenUnknownFunction: "Function not declared",
	GenBadOperand:      "Operand has an unexpected shape",
	GenBadIndex:        "Index out of range",
	GenLoopControl:     "Loop control outside of a loop",
	GenUnsupported:     "Construct not supported by the backend",
}

func (c Code) ID() string {
	if ic := int(c); ic >= 9000 && ic < 10000 {
		return fmt.Sprintf("GEN%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}

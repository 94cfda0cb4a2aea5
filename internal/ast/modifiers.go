package ast

// MemoryOrdering selects the atomic ordering of a low-level memory access.
// OrderingNone leaves the access non-atomic.
type MemoryOrdering uint8

const (
	OrderingNone MemoryOrdering = iota
	OrderingUnordered
	OrderingMonotonic
	OrderingAcquire
	OrderingRelease
	OrderingAcqRel
	OrderingSeqCst
)

func (o MemoryOrdering) String() string {
	switch o {
	case OrderingNone:
		return "none"
	case OrderingUnordered:
		return "unordered"
	case OrderingMonotonic:
		return "monotonic"
	case OrderingAcquire:
		return "acquire"
	case OrderingRelease:
		return "release"
	case OrderingAcqRel:
		return "acq_rel"
	case OrderingSeqCst:
		return "seq_cst"
	default:
		return "unknown"
	}
}

// Modifiers are attached to load, write and deref instructions. Volatile and
// Ordering are independent of each other.
type Modifiers struct {
	Volatile bool
	Ordering MemoryOrdering
}

// Atomic reports whether the access must be emitted as an atomic operation.
func (m Modifiers) Atomic() bool {
	return m.Ordering != OrderingNone
}

// AllocSite is the storage class chosen upstream for a value.
type AllocSite uint8

const (
	SiteStack AllocSite = iota
	SiteHeap
	SiteStatic
)

func (s AllocSite) String() string {
	switch s {
	case SiteStack:
		return "stack"
	case SiteHeap:
		return "heap"
	case SiteStatic:
		return "static"
	default:
		return "unknown"
	}
}

// ThreadMode is the thread-local storage model of a static.
type ThreadMode uint8

const (
	ThreadNone ThreadMode = iota
	ThreadGeneric
	ThreadInitialExec
	ThreadLocalDynamic
	ThreadLocalExec
)

// Attributes carries the attribute-checker output honoured by the backend.
type Attributes struct {
	Public     bool
	Extern     bool
	ExternName string // foreign symbol name; empty means the declared name
	Constant   bool
	ThreadMode ThreadMode
	Inline     bool
	NoInline   bool
	Hot        bool

	// Function-only attributes.
	Convention    CallConv
	Linkage       Linkage // overrides the visibility-derived linkage when set
	InlineHint    bool
	MinSize       bool
	NoUnwind      bool
	Stack         StackProtect
	PreciseFloats bool
	Pure          bool
}

// SymbolName returns the name a declaration is emitted under.
func (a Attributes) SymbolName(declared string) string {
	if a.Extern && a.ExternName != "" {
		return a.ExternName
	}
	return declared
}

// CallConv is the calling convention requested by `@convention("...")`.
type CallConv uint8

const (
	ConvDefault CallConv = iota
	ConvC
	ConvFast
	ConvTail
	ConvCold
	ConvPreserveMost
	ConvPreserveAll
	ConvSwift
	ConvGHC
	ConvHiPE
)

var convNames = [...]string{
	ConvC:            "C",
	ConvFast:         "fast",
	ConvTail:         "tail",
	ConvCold:         "cold",
	ConvPreserveMost: "weakReg",
	ConvPreserveAll:  "strongReg",
	ConvSwift:        "Swift",
	ConvGHC:          "Haskell",
	ConvHiPE:         "Erlang",
}

// LookupConvention resolves the source spelling of a calling convention.
func LookupConvention(name string) (CallConv, bool) {
	for c, n := range convNames {
		if n != "" && n == name {
			return CallConv(c), true
		}
	}
	return ConvDefault, false
}

func (c CallConv) String() string {
	if int(c) < len(convNames) {
		return convNames[c]
	}
	return ""
}

// Linkage is the symbol linkage requested by `@linkage("...")`, spelled
// as in LLVM.
type Linkage uint8

const (
	LinkageDefault Linkage = iota
	LinkageExternal
	LinkageInternal
	LinkagePrivate
	LinkageWeak
	LinkageWeakODR
	LinkageLinkOnce
	LinkageLinkOnceODR
	LinkageCommon
	LinkageAppending
	LinkageExternWeak
	LinkageAvailableExternally
)

var linkageNames = [...]string{
	LinkageExternal:            "external",
	LinkageInternal:            "internal",
	LinkagePrivate:             "private",
	LinkageWeak:                "weak",
	LinkageWeakODR:             "weak_odr",
	LinkageLinkOnce:            "linkonce",
	LinkageLinkOnceODR:         "linkonce_odr",
	LinkageCommon:              "common",
	LinkageAppending:           "appending",
	LinkageExternWeak:          "extern_weak",
	LinkageAvailableExternally: "available_externally",
}

// LookupLinkage resolves a linkage name.
func LookupLinkage(name string) (Linkage, bool) {
	for l, n := range linkageNames {
		if n != "" && n == name {
			return Linkage(l), true
		}
	}
	return LinkageDefault, false
}

func (l Linkage) String() string {
	if int(l) < len(linkageNames) {
		return linkageNames[l]
	}
	return ""
}

// StackProtect selects the stack hardening of a function: `@safestack`,
// `@strongstack` or `@weakstack`.
type StackProtect uint8

const (
	StackDefault StackProtect = iota
	StackSafe
	StackStrong
	StackWeak
)

var stackNames = [...]string{
	StackSafe:   "safestack",
	StackStrong: "strongstack",
	StackWeak:   "weakstack",
}

// LookupStackProtect resolves an attribute spelling such as "strongstack".
func LookupStackProtect(name string) (StackProtect, bool) {
	for s, n := range stackNames {
		if n != "" && n == name {
			return StackProtect(s), true
		}
	}
	return StackDefault, false
}

func (s StackProtect) String() string {
	if int(s) < len(stackNames) {
		return stackNames[s]
	}
	return ""
}

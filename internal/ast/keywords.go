package ast

// KeywordKind classifies entries of the built-in keyword table.
type KeywordKind uint8

const (
	KeywordInstr KeywordKind = iota + 1
	KeywordBuiltin
	KeywordSite
	KeywordOrdering
	KeywordVolatile
	KeywordThread
)

// Keyword is one immutable entry of the built-in keyword table.
type Keyword struct {
	Name     string
	Kind     KeywordKind
	Instr    ExprKind
	Builtin  BuiltinKind
	Site     AllocSite
	Ordering MemoryOrdering
	Thread   ThreadMode
}

var keywordTable = buildKeywordTable()

func buildKeywordTable() map[string]Keyword {
	entries := []Keyword{
		{Name: "alloc", Kind: KeywordInstr, Instr: ExprAlloc},
		{Name: "load", Kind: KeywordInstr, Instr: ExprLoad},
		{Name: "write", Kind: KeywordInstr, Instr: ExprWrite},
		{Name: "address", Kind: KeywordInstr, Instr: ExprAddress},
		{Name: "deref", Kind: KeywordInstr, Instr: ExprDeref},

		{Name: "halloc", Kind: KeywordBuiltin, Builtin: BuiltinHalloc},
		{Name: "sizeof", Kind: KeywordBuiltin, Builtin: BuiltinSizeOf},
		{Name: "alignof", Kind: KeywordBuiltin, Builtin: BuiltinAlignOf},
		{Name: "memcpy", Kind: KeywordBuiltin, Builtin: BuiltinMemCpy},
		{Name: "memmove", Kind: KeywordBuiltin, Builtin: BuiltinMemMove},
		{Name: "memset", Kind: KeywordBuiltin, Builtin: BuiltinMemSet},

		{Name: "stack", Kind: KeywordSite, Site: SiteStack},
		{Name: "heap", Kind: KeywordSite, Site: SiteHeap},
		{Name: "static", Kind: KeywordSite, Site: SiteStatic},

		{Name: "atomnone", Kind: KeywordOrdering, Ordering: OrderingNone},
		{Name: "atomfree", Kind: KeywordOrdering, Ordering: OrderingUnordered},
		{Name: "atomrelax", Kind: KeywordOrdering, Ordering: OrderingMonotonic},
		{Name: "atomgrab", Kind: KeywordOrdering, Ordering: OrderingAcquire},
		{Name: "atomdrop", Kind: KeywordOrdering, Ordering: OrderingRelease},
		{Name: "atomsync", Kind: KeywordOrdering, Ordering: OrderingAcqRel},
		{Name: "atomstrict", Kind: KeywordOrdering, Ordering: OrderingSeqCst},

		{Name: "volatile", Kind: KeywordVolatile},

		{Name: "threadinit", Kind: KeywordThread, Thread: ThreadInitialExec},
		{Name: "threaddyn", Kind: KeywordThread, Thread: ThreadLocalDynamic},
		{Name: "threadexec", Kind: KeywordThread, Thread: ThreadLocalExec},
	}
	table := make(map[string]Keyword, len(entries))
	for _, e := range entries {
		table[e.Name] = e
	}
	return table
}

// LookupKeyword resolves a built-in keyword. The table is read-only and
// shared by every unit.
func LookupKeyword(name string) (Keyword, bool) {
	kw, ok := keywordTable[name]
	return kw, ok
}

// KeywordCount reports the number of built-in keywords.
func KeywordCount() int {
	return len(keywordTable)
}

// InstrKeyword returns the source spelling of a low-level instruction kind.
func InstrKeyword(kind ExprKind) (string, bool) {
	for name, kw := range keywordTable {
		if kw.Kind == KeywordInstr && kw.Instr == kind {
			return name, true
		}
	}
	return "", false
}

// BuiltinKeyword returns the source spelling of a builtin.
func BuiltinKeyword(kind BuiltinKind) (string, bool) {
	for name, kw := range keywordTable {
		if kw.Kind == KeywordBuiltin && kw.Builtin == kind {
			return name, true
		}
	}
	return "", false
}

// OrderingKeyword returns the source spelling of an ordering.
func OrderingKeyword(o MemoryOrdering) string {
	for name, kw := range keywordTable {
		if kw.Kind == KeywordOrdering && kw.Ordering == o {
			return name
		}
	}
	return "atomnone"
}

// SiteKeyword returns the source spelling of an allocation site.
func SiteKeyword(s AllocSite) string {
	for name, kw := range keywordTable {
		if kw.Kind == KeywordSite && kw.Site == s {
			return name
		}
	}
	return "stack"
}

// ThreadKeyword returns the source spelling of a thread-local mode; the
// generic model has no keyword of its own.
func ThreadKeyword(m ThreadMode) string {
	for name, kw := range keywordTable {
		if kw.Kind == KeywordThread && kw.Thread == m {
			return name
		}
	}
	return ""
}

// Package astindex implements the AST Symbol Index: a flat arena of parsed
// code symbols keyed by a stable identifier, with parent/child and
// caller/declaration cross-links expressed as identifiers rather than
// pointers (so the graph is trivially serializable and never cyclic in the
// Go sense).
package astindex

// Kind is the tagged-variant discriminator replacing the source's
// trait-object dispatch over symbol types.
type Kind string

const (
	KindStruct         Kind = "struct"
	KindTypeAlias      Kind = "type_alias"
	KindField          Kind = "field"
	KindImport         Kind = "import"
	KindVariableDef    Kind = "variable_def"
	KindFunctionDecl   Kind = "function_decl"
	KindComment        Kind = "comment"
	KindFunctionCall   Kind = "function_call"
	KindVariableUsage  Kind = "variable_usage"
)

// RequestKind filters search_by_name results to declarations, usages, or
// both.
type RequestKind string

const (
	RequestDeclaration RequestKind = "declaration"
	RequestUsage       RequestKind = "usage"
	RequestAny         RequestKind = "any"
)

func (k Kind) isDeclaration() bool {
	switch k {
	case KindStruct, KindTypeAlias, KindField, KindImport, KindVariableDef, KindFunctionDecl:
		return true
	default:
		return false
	}
}

func (k Kind) isUsage() bool {
	switch k {
	case KindFunctionCall, KindVariableUsage:
		return true
	default:
		return false
	}
}

// Range is a half-open source span, in 0-indexed rows and columns (tree-
// sitter's convention, carried through from internal/chunk.Point).
type Range struct {
	StartRow, StartCol uint32
	EndRow, EndCol     uint32
}

// Contains reports whether (row, col) falls within r.
func (r Range) Contains(row, col uint32) bool {
	if row < r.StartRow || row > r.EndRow {
		return false
	}
	if row == r.StartRow && col < r.StartCol {
		return false
	}
	if row == r.EndRow && col > r.EndCol {
		return false
	}
	return true
}

// size is used to pick the smallest enclosing range when several symbols
// contain the same cursor position.
func (r Range) size() int64 {
	return int64(r.EndRow-r.StartRow)*1_000_000 + int64(r.EndCol) - int64(r.StartCol)
}

// Symbol is the shared header record every kind carries, plus an inlined
// kind-specific payload. All cross-references are Guids, never pointers:
// a missing Guid is "unresolved", not an error.
type Symbol struct {
	Guid     string
	Name     string
	Kind     Kind
	Language string
	FilePath string
	Namespace string // dotted parent namespace, not including Name

	ParentGuid   string // empty means root
	ChildrenGuids []string

	FullRange        Range
	DeclarationRange Range
	DefinitionRange  Range

	ContentHash string // of the file, at parse time

	// Kind-specific payload. Only the fields relevant to Kind are populated.
	Types      []string // field/variable type names
	Arguments  []string // function_decl argument signatures
	ReturnType string   // function_decl return type
	CallerGuid string   // function_call: resolved caller symbol, if known
	ResolvedDeclGuid string // function_call/variable_usage: resolved declaration

	DocComment string
	Signature  string
}

// SymbolPath returns the dotted namespace+name path used by
// search_by_symbol_path.
func (s *Symbol) SymbolPath() string {
	if s.Namespace == "" {
		return s.Name
	}
	return s.Namespace + "." + s.Name
}

// NamedResult pairs a symbol with its computed similarity to a query, for
// search_by_name.
type NamedResult struct {
	Symbol     *Symbol
	SimToQuery float64
}

// CursorResult is the return shape of search_by_cursor: the symbol(s)
// enclosing the cursor plus related symbols found in that range's text.
type CursorResult struct {
	CursorSymbols []*Symbol
	SearchResults []NamedResult
}

package astindex

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/Aman-CERP/amanmcp/internal/chunk"
)

// kindFromSymbolType maps the teacher's chunk-level SymbolType (grounded on
// internal/chunk/extractor.go's per-language extraction) onto the tagged
// variant this index stores.
func kindFromSymbolType(t chunk.SymbolType) Kind {
	switch t {
	case chunk.SymbolTypeFunction, chunk.SymbolTypeMethod:
		return KindFunctionDecl
	case chunk.SymbolTypeClass, chunk.SymbolTypeInterface:
		return KindStruct
	case chunk.SymbolTypeType:
		return KindTypeAlias
	case chunk.SymbolTypeConstant, chunk.SymbolTypeVariable:
		return KindVariableDef
	default:
		return KindVariableDef
	}
}

// parseFile parses source with the tree-sitter grammar for language
// (selected via the shared chunk.LanguageRegistry) and extracts a flat
// symbol list. If no grammar is registered for language, returns
// (nil, nil): the file is skipped by AST, exactly as the vector index
// continues to see it (spec §4.4 "if none, the file is skipped by AST").
func (idx *Index) parseFile(ctx context.Context, filePath string, source []byte, language string) ([]*Symbol, error) {
	if _, ok := idx.registry.GetByName(language); !ok {
		return nil, nil
	}

	tree, err := idx.parser.Parse(ctx, source, language)
	if err != nil {
		return nil, err
	}

	rawSymbols := idx.extractor.Extract(tree, source)
	hash := contentHash(source)

	out := make([]*Symbol, 0, len(rawSymbols))
	for _, rs := range rawSymbols {
		sym := &Symbol{
			Guid:     newGuid(),
			Name:     rs.Name,
			Kind:     kindFromSymbolType(rs.Type),
			Language: language,
			FilePath: filePath,
			FullRange: Range{
				StartRow: uint32(rs.StartLine - 1),
				EndRow:   uint32(rs.EndLine - 1),
				EndCol:   1 << 20, // line-granular extraction; treat columns as unbounded
			},
			ContentHash: hash,
			DocComment:  rs.DocComment,
			Signature:   rs.Signature,
		}
		sym.DeclarationRange = sym.FullRange
		sym.DefinitionRange = sym.FullRange
		out = append(out, sym)
	}

	buildHierarchy(out)
	return out, nil
}

func contentHash(source []byte) string {
	sum := sha256.Sum256(source)
	return hex.EncodeToString(sum[:])
}

// buildHierarchy establishes parent/child links by range containment: a
// symbol's parent is the smallest other symbol in the same file whose
// range strictly contains it. Namespaces are derived by walking up the
// resulting parent chain.
func buildHierarchy(symbols []*Symbol) {
	for _, s := range symbols {
		var parent *Symbol
		for _, candidate := range symbols {
			if candidate == s {
				continue
			}
			if !encloses(candidate.FullRange, s.FullRange) {
				continue
			}
			if parent == nil || candidate.FullRange.size() < parent.FullRange.size() {
				parent = candidate
			}
		}
		if parent != nil {
			s.ParentGuid = parent.Guid
			parent.ChildrenGuids = append(parent.ChildrenGuids, s.Guid)
		}
	}

	for _, s := range symbols {
		s.Namespace = namespaceFor(s, symbols)
	}
}

func encloses(outer, inner Range) bool {
	if outer.StartRow > inner.StartRow || outer.EndRow < inner.EndRow {
		return false
	}
	if outer.StartRow == inner.StartRow && outer.EndRow == inner.EndRow {
		return false // identical range, not a real ancestor
	}
	return true
}

func namespaceFor(s *Symbol, all []*Symbol) string {
	if s.ParentGuid == "" {
		return ""
	}
	var parent *Symbol
	for _, c := range all {
		if c.Guid == s.ParentGuid {
			parent = c
			break
		}
	}
	if parent == nil {
		return ""
	}
	if parent.Namespace == "" {
		return parent.Name
	}
	return parent.Namespace + "." + parent.Name
}

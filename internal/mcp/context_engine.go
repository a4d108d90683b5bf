package mcp

import (
	"github.com/Aman-CERP/amanmcp/internal/astindex"
	"github.com/Aman-CERP/amanmcp/internal/memstore"
	"github.com/Aman-CERP/amanmcp/internal/patch"
	"github.com/Aman-CERP/amanmcp/internal/scheduler"
	"github.com/Aman-CERP/amanmcp/internal/vecdb"
	"github.com/Aman-CERP/amanmcp/internal/workspace"
)

// ContextEngine bundles the workspace-context subsystems (Document
// Registry, AST Symbol Index, Embedding Index, Memory Store, Indexing
// Scheduler, and Patch Parser) the MCP server exposes as tools alongside
// the existing hybrid search engine. A nil *ContextEngine disables these
// tools entirely (SetContextEngine is never called in that case), so the
// server continues to work standalone for hybrid search.
type ContextEngine struct {
	Registry   *workspace.Registry
	AST        *astindex.Index
	Vectors    *vecdb.Index
	Vectorizer *vecdb.Vectorizer
	Memory     *memstore.Store
	Scheduler  *scheduler.Scheduler
	Patch      *patch.Parser
}

package mcp

import (
	"context"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Aman-CERP/amanmcp/internal/astindex"
)

// --- workspace_add_folder / workspace_remove_folder -------------------------------

type WorkspaceFolderInput struct {
	Path string `json:"path" jsonschema:"absolute path of the workspace folder"`
}

type WorkspaceFolderOutput struct {
	OK bool `json:"ok" jsonschema:"true once the folder has been enumerated and its files enqueued for indexing"`
}

// --- get_file_text -----------------------------------------------------------------

type GetFileTextInput struct {
	Path string `json:"path" jsonschema:"path of the file to read, as known to the document registry"`
}

type GetFileTextOutput struct {
	Text string `json:"text" jsonschema:"the file's current text, including any unsaved in-memory edits"`
}

// --- correct_filename ---------------------------------------------------------------

type CorrectFilenameInput struct {
	Name  string `json:"name" jsonschema:"a filename or path fragment to resolve against the workspace"`
	Fuzzy bool   `json:"fuzzy,omitempty" jsonschema:"fall back to fuzzy matching when no exact suffix match exists"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of candidates to return, default 5"`
}

type CorrectFilenameOutput struct {
	Candidates []string `json:"candidates" jsonschema:"matching paths, best first"`
}

// --- ast_search_by_name --------------------------------------------------------------

type ASTSearchByNameInput struct {
	Name  string `json:"name" jsonschema:"symbol name to search for"`
	Kind  string `json:"kind,omitempty" jsonschema:"declaration, usage, or any (default any)"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

type ASTSymbolOutput struct {
	Guid       string  `json:"guid"`
	Name       string  `json:"name"`
	Kind       string  `json:"kind"`
	FilePath   string  `json:"file_path"`
	SymbolPath string  `json:"symbol_path"`
	Signature  string  `json:"signature,omitempty"`
	SimToQuery float64 `json:"sim_to_query,omitempty"`
}

type ASTSearchOutput struct {
	Results []ASTSymbolOutput `json:"results"`
}

// --- ast_search_by_symbol_path ---------------------------------------------------------

type ASTSearchBySymbolPathInput struct {
	Path  string `json:"path" jsonschema:"dotted namespace+name path, e.g. pkg.Type.Method"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
}

// --- vecdb_search -----------------------------------------------------------------------

type VecdbSearchInput struct {
	Query       string `json:"query" jsonschema:"natural-language or code query to embed and search for"`
	Limit       int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 10"`
	ScopePrefix string `json:"scope_prefix,omitempty" jsonschema:"restrict results to file paths with this prefix"`
}

type VecdbRecordOutput struct {
	FilePath   string  `json:"file_path"`
	StartLine  int     `json:"start_line"`
	EndLine    int     `json:"end_line"`
	Distance   float32 `json:"distance"`
	Usefulness float64 `json:"usefulness"`
}

type VecdbSearchOutput struct {
	Results []VecdbRecordOutput `json:"results"`
}

// --- memory_add / memory_search ------------------------------------------------------

type MemoryAddInput struct {
	Type    string `json:"type" jsonschema:"short tag describing the memory's kind, e.g. preference, fact, todo"`
	Goal    string `json:"goal" jsonschema:"what this memory is meant to help accomplish"`
	Project string `json:"project,omitempty" jsonschema:"project this memory applies to, empty for global"`
	Payload string `json:"payload" jsonschema:"the memory's content"`
}

type MemoryAddOutput struct {
	Memid string `json:"memid"`
}

type MemorySearchInput struct {
	Query string `json:"query" jsonschema:"natural-language query to match against stored memories"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of results, default 5"`
}

type MemoryRecordOutput struct {
	Memid    string  `json:"memid"`
	Type     string  `json:"type"`
	Goal     string  `json:"goal"`
	Project  string  `json:"project,omitempty"`
	Payload  string  `json:"payload"`
	Distance float32 `json:"distance"`
}

type MemorySearchOutput struct {
	Results []MemoryRecordOutput `json:"results"`
}

// --- index_reindex -------------------------------------------------------------------

type ReindexInput struct {
	Paths    []string `json:"paths" jsonschema:"file paths to (re-)enqueue for indexing"`
	ToAST    bool     `json:"to_ast,omitempty" jsonschema:"enqueue into the AST Symbol Index, default true"`
	ToVector bool     `json:"to_vector,omitempty" jsonschema:"enqueue into the Embedding Index, default true"`
	Force    bool     `json:"force,omitempty" jsonschema:"bypass the content-hash early-exit and re-index unconditionally"`
}

type ReindexOutput struct {
	Enqueued int `json:"enqueued"`
}

// --- patch_parse --------------------------------------------------------------------

type PatchParseInput struct {
	Content string `json:"content" jsonschema:"LLM output containing one or more fenced ```diff blocks"`
}

type PatchChunkOutput struct {
	FileName       string `json:"file_name"`
	FileNameRename string `json:"file_name_rename,omitempty"`
	FileAction     string `json:"file_action"`
	Line1          int    `json:"line1"`
	Line2          int    `json:"line2"`
	LinesRemove    string `json:"lines_remove,omitempty"`
	LinesAdd       string `json:"lines_add,omitempty"`
}

type PatchParseOutput struct {
	Chunks []PatchChunkOutput `json:"chunks"`
}

// registerContextTools registers the tools backed by s.ctxEngine. Callers
// must hold s.mu and have already set s.ctxEngine to a non-nil value.
func (s *Server) registerContextTools() {
	eng := s.ctxEngine

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workspace_add_folder",
		Description: "Register a folder as a workspace root: enumerates its files and enqueues them into the AST and Embedding indexes.",
	}, s.mcpWorkspaceAddFolderHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "workspace_remove_folder",
		Description: "Remove a previously registered workspace folder and its documents from both indexes.",
	}, s.mcpWorkspaceRemoveFolderHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "get_file_text",
		Description: "Read a file's current text through the document registry, including unsaved in-editor edits.",
	}, s.mcpGetFileTextHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "correct_filename",
		Description: "Resolve a possibly-misspelled or partial filename to real paths in the workspace.",
	}, s.mcpCorrectFilenameHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ast_search_by_name",
		Description: "Search the AST Symbol Index for declarations or usages matching a symbol name.",
	}, s.mcpASTSearchByNameHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "ast_search_by_symbol_path",
		Description: "Search the AST Symbol Index by dotted namespace path, e.g. finding a method by pkg.Type.Method.",
	}, s.mcpASTSearchBySymbolPathHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "vecdb_search",
		Description: "Semantic search over the Embedding Index: finds code windows by meaning rather than keyword.",
	}, s.mcpVecdbSearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_add",
		Description: "Store a note in the Memory Store for later semantic retrieval.",
	}, s.mcpMemoryAddHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "memory_search",
		Description: "Search the Memory Store for notes relevant to a query.",
	}, s.mcpMemorySearchHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "index_reindex",
		Description: "Enqueue files into the Indexing Scheduler, optionally forcing re-indexing past the content-hash cache.",
	}, s.mcpReindexHandler)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name:        "patch_parse",
		Description: "Parse fenced ```diff blocks out of LLM output into normalized, file-located edit chunks ready to apply.",
	}, s.mcpPatchParseHandler)

	s.logger.Info("context engine tools registered", slog.Int("count", 10), slog.Bool("memory_enabled", eng.Memory != nil))
}

func (s *Server) mcpWorkspaceAddFolderHandler(ctx context.Context, _ *mcp.CallToolRequest, input WorkspaceFolderInput) (
	*mcp.CallToolResult, WorkspaceFolderOutput, error,
) {
	if input.Path == "" {
		return nil, WorkspaceFolderOutput{}, NewInvalidParamsError("path parameter is required")
	}
	if err := s.ctxEngine.Registry.AddFolder(ctx, input.Path); err != nil {
		return nil, WorkspaceFolderOutput{}, MapError(err)
	}
	return nil, WorkspaceFolderOutput{OK: true}, nil
}

func (s *Server) mcpWorkspaceRemoveFolderHandler(ctx context.Context, _ *mcp.CallToolRequest, input WorkspaceFolderInput) (
	*mcp.CallToolResult, WorkspaceFolderOutput, error,
) {
	if input.Path == "" {
		return nil, WorkspaceFolderOutput{}, NewInvalidParamsError("path parameter is required")
	}
	if err := s.ctxEngine.Registry.RemoveFolder(ctx, input.Path); err != nil {
		return nil, WorkspaceFolderOutput{}, MapError(err)
	}
	return nil, WorkspaceFolderOutput{OK: true}, nil
}

func (s *Server) mcpGetFileTextHandler(ctx context.Context, _ *mcp.CallToolRequest, input GetFileTextInput) (
	*mcp.CallToolResult, GetFileTextOutput, error,
) {
	if input.Path == "" {
		return nil, GetFileTextOutput{}, NewInvalidParamsError("path parameter is required")
	}
	text, err := s.ctxEngine.Registry.GetFileText(input.Path)
	if err != nil {
		return nil, GetFileTextOutput{}, MapError(err)
	}
	return nil, GetFileTextOutput{Text: text}, nil
}

func (s *Server) mcpCorrectFilenameHandler(ctx context.Context, _ *mcp.CallToolRequest, input CorrectFilenameInput) (
	*mcp.CallToolResult, CorrectFilenameOutput, error,
) {
	if input.Name == "" {
		return nil, CorrectFilenameOutput{}, NewInvalidParamsError("name parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	candidates := s.ctxEngine.Registry.State().Correct(input.Name, input.Fuzzy, limit)
	return nil, CorrectFilenameOutput{Candidates: candidates}, nil
}

func astRequestKind(s string) astindex.RequestKind {
	switch s {
	case "declaration":
		return astindex.RequestDeclaration
	case "usage":
		return astindex.RequestUsage
	default:
		return astindex.RequestAny
	}
}

func toASTSymbolOutput(r astindex.NamedResult) ASTSymbolOutput {
	return ASTSymbolOutput{
		Guid:       r.Symbol.Guid,
		Name:       r.Symbol.Name,
		Kind:       string(r.Symbol.Kind),
		FilePath:   r.Symbol.FilePath,
		SymbolPath: r.Symbol.SymbolPath(),
		Signature:  r.Symbol.Signature,
		SimToQuery: r.SimToQuery,
	}
}

func (s *Server) mcpASTSearchByNameHandler(ctx context.Context, _ *mcp.CallToolRequest, input ASTSearchByNameInput) (
	*mcp.CallToolResult, ASTSearchOutput, error,
) {
	if input.Name == "" {
		return nil, ASTSearchOutput{}, NewInvalidParamsError("name parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	results := s.ctxEngine.AST.SearchByName(input.Name, astRequestKind(input.Kind), limit)
	out := ASTSearchOutput{Results: make([]ASTSymbolOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, toASTSymbolOutput(r))
	}
	return nil, out, nil
}

func (s *Server) mcpASTSearchBySymbolPathHandler(ctx context.Context, _ *mcp.CallToolRequest, input ASTSearchBySymbolPathInput) (
	*mcp.CallToolResult, ASTSearchOutput, error,
) {
	if input.Path == "" {
		return nil, ASTSearchOutput{}, NewInvalidParamsError("path parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	results := s.ctxEngine.AST.SearchBySymbolPath(input.Path, limit)
	out := ASTSearchOutput{Results: make([]ASTSymbolOutput, 0, len(results))}
	for _, r := range results {
		out.Results = append(out.Results, toASTSymbolOutput(r))
	}
	return nil, out, nil
}

func (s *Server) mcpVecdbSearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input VecdbSearchInput) (
	*mcp.CallToolResult, VecdbSearchOutput, error,
) {
	if input.Query == "" {
		return nil, VecdbSearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}
	vec, err := s.ctxEngine.Vectorizer.VectorizeQuery(ctx, input.Query)
	if err != nil {
		return nil, VecdbSearchOutput{}, MapError(err)
	}
	records, err := s.ctxEngine.Vectors.Search(ctx, vec, limit, input.ScopePrefix)
	if err != nil {
		return nil, VecdbSearchOutput{}, MapError(err)
	}
	out := VecdbSearchOutput{Results: make([]VecdbRecordOutput, 0, len(records))}
	for _, r := range records {
		out.Results = append(out.Results, VecdbRecordOutput{
			FilePath:   r.FilePath,
			StartLine:  r.StartLine,
			EndLine:    r.EndLine,
			Distance:   r.Distance,
			Usefulness: r.Usefulness,
		})
	}
	return nil, out, nil
}

func (s *Server) mcpMemoryAddHandler(ctx context.Context, _ *mcp.CallToolRequest, input MemoryAddInput) (
	*mcp.CallToolResult, MemoryAddOutput, error,
) {
	if s.ctxEngine.Memory == nil {
		return nil, MemoryAddOutput{}, NewInvalidParamsError("memory store is not enabled")
	}
	if input.Type == "" || input.Goal == "" || input.Payload == "" {
		return nil, MemoryAddOutput{}, NewInvalidParamsError("type, goal, and payload parameters are required")
	}
	memid, err := s.ctxEngine.Memory.Add(ctx, input.Type, input.Goal, input.Project, input.Payload)
	if err != nil {
		return nil, MemoryAddOutput{}, MapError(err)
	}
	return nil, MemoryAddOutput{Memid: memid}, nil
}

func (s *Server) mcpMemorySearchHandler(ctx context.Context, _ *mcp.CallToolRequest, input MemorySearchInput) (
	*mcp.CallToolResult, MemorySearchOutput, error,
) {
	if s.ctxEngine.Memory == nil {
		return nil, MemorySearchOutput{}, NewInvalidParamsError("memory store is not enabled")
	}
	if input.Query == "" {
		return nil, MemorySearchOutput{}, NewInvalidParamsError("query parameter is required")
	}
	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}
	records, err := s.ctxEngine.Memory.Search(ctx, input.Query, limit)
	if err != nil {
		return nil, MemorySearchOutput{}, MapError(err)
	}
	out := MemorySearchOutput{Results: make([]MemoryRecordOutput, 0, len(records))}
	for _, r := range records {
		out.Results = append(out.Results, MemoryRecordOutput{
			Memid:    r.Memid,
			Type:     r.MType,
			Goal:     r.MGoal,
			Project:  r.MProject,
			Payload:  r.MPayload,
			Distance: r.Distance,
		})
	}
	return nil, out, nil
}

func (s *Server) mcpReindexHandler(ctx context.Context, _ *mcp.CallToolRequest, input ReindexInput) (
	*mcp.CallToolResult, ReindexOutput, error,
) {
	if len(input.Paths) == 0 {
		return nil, ReindexOutput{}, NewInvalidParamsError("paths parameter is required")
	}
	toAST, toVector := input.ToAST, input.ToVector
	if !toAST && !toVector {
		toAST, toVector = true, true
	}
	s.ctxEngine.Scheduler.Enqueue(input.Paths, toAST, toVector, input.Force)
	return nil, ReindexOutput{Enqueued: len(input.Paths)}, nil
}

func (s *Server) mcpPatchParseHandler(ctx context.Context, _ *mcp.CallToolRequest, input PatchParseInput) (
	*mcp.CallToolResult, PatchParseOutput, error,
) {
	if input.Content == "" {
		return nil, PatchParseOutput{}, NewInvalidParamsError("content parameter is required")
	}
	chunks, err := s.ctxEngine.Patch.ParseMessage(input.Content)
	if err != nil {
		return nil, PatchParseOutput{}, MapError(err)
	}
	out := PatchParseOutput{Chunks: make([]PatchChunkOutput, 0, len(chunks))}
	for _, c := range chunks {
		out.Chunks = append(out.Chunks, PatchChunkOutput{
			FileName:       c.FileName,
			FileNameRename: c.FileNameRename,
			FileAction:     c.FileAction,
			Line1:          c.Line1,
			Line2:          c.Line2,
			LinesRemove:    c.LinesRemove,
			LinesAdd:       c.LinesAdd,
		})
	}
	return nil, out, nil
}

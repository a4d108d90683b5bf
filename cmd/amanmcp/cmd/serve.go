package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/amanmcp/internal/astindex"
	"github.com/Aman-CERP/amanmcp/internal/chunk"
	"github.com/Aman-CERP/amanmcp/internal/config"
	"github.com/Aman-CERP/amanmcp/internal/embed"
	"github.com/Aman-CERP/amanmcp/internal/logging"
	"github.com/Aman-CERP/amanmcp/internal/mcp"
	"github.com/Aman-CERP/amanmcp/internal/memstore"
	"github.com/Aman-CERP/amanmcp/internal/patch"
	"github.com/Aman-CERP/amanmcp/internal/scanner"
	"github.com/Aman-CERP/amanmcp/internal/scheduler"
	"github.com/Aman-CERP/amanmcp/internal/search"
	"github.com/Aman-CERP/amanmcp/internal/session"
	"github.com/Aman-CERP/amanmcp/internal/store"
	"github.com/Aman-CERP/amanmcp/internal/vecdb"
	"github.com/Aman-CERP/amanmcp/internal/workspace"
)

func newServeCmd() *cobra.Command {
	var transport string
	var port int
	var sessionName string
	var debug bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Starts the MCP server over the given transport, wiring the hybrid search
engine together with the workspace context engine (document registry, AST
symbol index, embedding index, memory store, and patch parser).

MCP requires stdout to carry nothing but JSON-RPC frames, so all status and
log output is routed to a file; use 'amanmcp logs' to read it back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				cleanup, err := logging.SetupMCPModeWithLevel("debug")
				if err != nil {
					return fmt.Errorf("failed to configure logging: %w", err)
				}
				defer cleanup()
			} else {
				cleanup, err := logging.SetupMCPMode()
				if err != nil {
					return fmt.Errorf("failed to configure logging: %w", err)
				}
				defer cleanup()
			}

			if err := verifyStdinForMCP(); err != nil {
				slog.Warn("stdin check failed", slog.String("error", err.Error()))
			}

			if sessionName != "" {
				root, err := config.FindProjectRoot(".")
				if err != nil {
					root, _ = os.Getwd()
				}
				return runServeWithSession(cmd.Context(), sessionName, root, transport, port)
			}
			return runServe(cmd.Context(), transport, port)
		},
	}

	cmd.Flags().StringVar(&transport, "transport", "stdio", "Transport type (stdio|sse)")
	cmd.Flags().IntVar(&port, "port", 8765, "Port for SSE transport")
	cmd.Flags().StringVar(&sessionName, "session", "", "Open (or create) a named session before serving")
	cmd.Flags().BoolVar(&debug, "debug", false, "Enable verbose debug logging (to file, never stdout)")

	return cmd
}

// verifyStdinForMCP warns when stdin looks like an interactive terminal
// rather than a pipe, since an MCP client always speaks JSON-RPC over a
// pipe and a terminal session will otherwise hang silently.
func verifyStdinForMCP() error {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("stdin is a terminal, not a pipe: amanmcp serve expects to be launched by an MCP client")
	}
	return nil
}

// runServe builds the full engine against the current project root and
// serves it over transport until ctx is cancelled.
func runServe(ctx context.Context, transport string, port int) error {
	root, err := config.FindProjectRoot(".")
	if err != nil {
		root, _ = os.Getwd()
	}
	return serveProject(ctx, root, transport, port)
}

// runServeWithSession opens (or creates) a named session, copying its saved
// index into the project's data directory before serving, and serves the
// project named by rootPath.
func runServeWithSession(ctx context.Context, name, rootPath, transport string, port int) error {
	cfg := config.NewConfig()

	mgr, err := session.NewManager(session.ManagerConfig{
		StoragePath: cfg.Sessions.StoragePath,
		MaxSessions: cfg.Sessions.MaxSessions,
	})
	if err != nil {
		return fmt.Errorf("failed to create session manager: %w", err)
	}

	sess, err := mgr.Open(name, rootPath)
	if err != nil {
		return fmt.Errorf("failed to open session %q: %w", name, err)
	}
	sess.UpdateLastUsed()
	_ = mgr.Save(sess)

	return serveProject(ctx, rootPath, transport, port)
}

// serveProject constructs the hybrid search engine plus the workspace
// context engine for root and serves them until ctx is cancelled.
func serveProject(ctx context.Context, root, transport string, port int) error {
	dataDir := filepath.Join(root, ".amanmcp")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg, err := config.Load(root)
	if err != nil {
		cfg = config.NewConfig()
	}

	metadataPath := filepath.Join(dataDir, "metadata.db")
	metadata, err := store.NewSQLiteStore(metadataPath)
	if err != nil {
		return fmt.Errorf("failed to open metadata store: %w", err)
	}
	defer func() { _ = metadata.Close() }()

	bm25BasePath := filepath.Join(dataDir, "bm25")
	bm25, err := store.NewBM25IndexWithBackend(bm25BasePath, store.DefaultBM25Config(), cfg.Search.BM25Backend)
	if err != nil {
		return fmt.Errorf("failed to open BM25 index: %w", err)
	}
	defer func() { _ = bm25.Close() }()

	embedCtx, embedCancel := context.WithTimeout(ctx, 15*time.Second)
	provider := embed.ParseProvider(cfg.Embeddings.Provider)
	embedder, err := embed.NewEmbedder(embedCtx, provider, cfg.Embeddings.Model)
	embedCancel()
	if err != nil {
		return fmt.Errorf("embedder initialization failed: %w", err)
	}
	defer func() { _ = embedder.Close() }()

	dimensions := embedder.Dimensions()
	vectorCfg := store.DefaultVectorStoreConfig(dimensions)
	searchVectors, err := store.NewHNSWStore(vectorCfg)
	if err != nil {
		return fmt.Errorf("failed to open vector store: %w", err)
	}
	defer func() { _ = searchVectors.Close() }()

	engine, err := search.NewEngine(bm25, searchVectors, embedder, metadata, search.DefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to build search engine: %w", err)
	}

	srv, err := mcp.NewServer(engine, metadata, embedder, cfg, root)
	if err != nil {
		return fmt.Errorf("failed to build MCP server: %w", err)
	}

	ctxEngine, closeCtxEngine, err := buildContextEngine(cfg, metadata, embedder, dimensions)
	if err != nil {
		slog.Warn("context engine unavailable, serving hybrid search only", slog.String("error", err.Error()))
	} else {
		defer closeCtxEngine()
		srv.SetContextEngine(ctxEngine)

		indexLock := scheduler.NewIndexLock(dataDir)
		acquired, lockErr := indexLock.TryLock()
		if lockErr != nil || !acquired {
			slog.Warn("another process already holds the index lock, running without the workspace context engine's scheduler",
				slog.String("path", dataDir))
		} else {
			defer func() { _ = indexLock.Unlock() }()

			engineCtx, engineCancel := context.WithCancel(ctx)
			defer engineCancel()
			go ctxEngine.Scheduler.Run(engineCtx)

			// Enumeration and the initial watcher start can be slow on large
			// trees; run them in the background so the MCP handshake isn't held
			// up waiting on them (mirrors the teacher's "serve first, index in
			// background" startup ordering).
			go func() {
				if err := ctxEngine.Registry.AddFolder(engineCtx, root); err != nil {
					slog.Warn("failed to register workspace folder", slog.String("path", root), slog.String("error", err.Error()))
				}
			}()
		}
	}

	addr := ""
	if transport == "sse" {
		addr = fmt.Sprintf(":%d", port)
	}
	return srv.Serve(ctx, transport, addr)
}

// buildContextEngine constructs the workspace-context subsystems sharing
// root's data directory and the search engine's embedder. The Memory Store
// and Embedding Index use a distinct HNSW namespace from the hybrid search
// engine's vector store, per SPEC_FULL.md's separate-namespace requirement.
func buildContextEngine(cfg *config.Config, metadata store.MetadataStore, embedder embed.Embedder, dimensions int) (*mcp.ContextEngine, func(), error) {
	sc, err := scanner.New()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	enum := workspace.NewEnumerator(sc, workspace.EnumeratorOptions{
		IncludePatterns:  cfg.Paths.Include,
		ExcludePatterns:  cfg.Paths.Exclude,
		RespectGitignore: true,
		Submodules:       &cfg.Submodules,
	})

	langRegistry := chunk.DefaultRegistry()
	ast := astindex.NewIndex(langRegistry)

	codeVectorCfg := store.DefaultVectorStoreConfig(dimensions)
	codeVectorStore, err := store.NewHNSWStore(codeVectorCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open embedding index vector store: %w", err)
	}
	vectors := vecdb.NewIndex(codeVectorStore)

	vectorizer := vecdb.NewVectorizer(embedder, vecdb.DefaultBatchConfig(), slog.Default())
	splitter := vecdb.NewSplitter(langRegistry, vecdb.DefaultSplitterConfig())

	memVectorStore, err := store.NewHNSWStore(store.DefaultVectorStoreConfig(dimensions))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open memory vector store: %w", err)
	}
	memVectors := vecdb.NewIndex(memVectorStore)
	memVectorizer := vecdb.NewVectorizer(embedder, vecdb.DefaultBatchConfig(), slog.Default())
	memory := memstore.New(metadata, memVectors, memVectorizer)

	sched := scheduler.New(nil, ast, splitter, vectorizer, vectors, scheduler.DefaultCooldown, slog.Default())

	registry := workspace.NewRegistry(enum, sched.Enqueue, ast.Reset, slog.Default())
	sched.SetTextGetter(registry)

	patchParser := patch.NewParser(registry)

	closeFn := func() {
		_ = codeVectorStore.Close()
		_ = memVectorStore.Close()
		splitter.Close()
		ast.Close()
		_ = registry.Close()
	}

	return &mcp.ContextEngine{
		Registry:   registry,
		AST:        ast,
		Vectors:    vectors,
		Vectorizer: vectorizer,
		Memory:     memory,
		Scheduler:  sched,
		Patch:      patchParser,
	}, closeFn, nil
}

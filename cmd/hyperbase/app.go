package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gobwas/glob"

	"hyperbase/internal/config"
	"hyperbase/internal/engine"
	"hyperbase/internal/mcp/runtime"
	"hyperbase/internal/shared/observability"
	"hyperbase/internal/watcher"
)

// App executes one CLI command against the configured database.
type App struct {
	cfg    *config.Config
	logger *slog.Logger
}

func (a *App) Run(command string, args []string) error {
	switch command {
	case "init":
		return a.runInit()
	case "node":
		return a.runNode(args)
	case "edge":
		return a.runEdge(args)
	case "query":
		return a.runQuery(args)
	case "stats":
		return a.runStats()
	case "validate":
		return a.runValidate()
	case "export":
		return a.runExport(args)
	case "import":
		return a.runImport(args)
	case "mcp":
		return a.runMCP()
	case "watch":
		return a.runWatch()
	default:
		return fmt.Errorf("unknown command: %s (run 'hyperbase -h' for usage)", command)
	}
}

func (a *App) openEngine() (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(a.logger)}
	if a.cfg.Database.Namespace != "" {
		opts = append(opts, engine.WithNamespace(a.cfg.Database.Namespace))
	}
	return engine.Open(a.cfg.Database.Path, opts...)
}

func (a *App) runInit() error {
	if a.cfg.Database.Path == "" {
		return fmt.Errorf("init requires a database path (-db or config)")
	}
	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	if err := eng.Save(context.Background()); err != nil {
		_ = eng.Close()
		return err
	}
	if err := eng.Close(); err != nil {
		return err
	}
	a.logger.Info("database initialized",
		"path", a.cfg.Database.Path,
		"namespace", eng.CurrentNamespace())
	return nil
}

func (a *App) runNode(args []string) error {
	fs := flag.NewFlagSet("node", flag.ContinueOnError)
	nodeType := fs.String("type", "", "Node type")
	propsJSON := fs.String("props", "", "Node properties as a JSON object")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: hyperbase node [flags] <id>")
	}

	props, err := parseProps(*propsJSON)
	if err != nil {
		return err
	}

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	node, err := eng.Node(context.Background(), fs.Arg(0), engine.NodeOptions{
		Type:       *nodeType,
		Properties: props,
	})
	if err != nil {
		return err
	}
	return printJSON(node)
}

func (a *App) runEdge(args []string) error {
	fs := flag.NewFlagSet("edge", flag.ContinueOnError)
	nodeList := fs.String("nodes", "", "Comma-separated node ids (at least 2)")
	edgeType := fs.String("type", "", "Edge type")
	directed := fs.Bool("directed", false, "First node is tail, last is head")
	source := fs.String("source", "", "Provenance source")
	confidence := fs.Float64("confidence", 1.0, "Confidence in [0,1]")
	propsJSON := fs.String("props", "", "Edge properties as a JSON object")
	edgeID := fs.String("id", "", "Explicit edge id")
	upsert := fs.Bool("upsert", false, "Reuse an existing edge with the same vertex set and type")
	if err := fs.Parse(args); err != nil {
		return err
	}

	nodeIDs := splitList(*nodeList)
	if len(nodeIDs) < 2 {
		return fmt.Errorf("edge requires -nodes with at least 2 comma-separated ids")
	}
	if *edgeType == "" {
		return fmt.Errorf("edge requires -type")
	}

	props, err := parseProps(*propsJSON)
	if err != nil {
		return err
	}

	var confPtr *float64
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "confidence" {
			confPtr = confidence
		}
	})

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	ctx := context.Background()
	opts := engine.EdgeOptions{
		Type:       *edgeType,
		Directed:   *directed,
		Source:     *source,
		Confidence: confPtr,
		Properties: props,
		ID:         *edgeID,
	}

	if *upsert {
		edge, err := eng.UpsertEdgeByVertexSet(ctx, nodeIDs, *edgeType, props, opts, nil)
		if err != nil {
			return err
		}
		return printJSON(edge)
	}

	edge, err := eng.Edge(ctx, nodeIDs, opts)
	if err != nil {
		return err
	}
	return printJSON(edge)
}

func (a *App) runQuery(args []string) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	nodeList := fs.String("nodes", "", "Only edges touching these comma-separated node ids")
	matchAll := fs.Bool("match-all", false, "Require every listed node instead of any")
	edgeType := fs.String("type", "", "Exact edge type")
	typePattern := fs.String("type-pattern", "", "Glob pattern over edge types")
	source := fs.String("source", "", "Provenance source")
	minConfidence := fs.Float64("min-confidence", 0, "Minimum confidence")
	limit := fs.Int("limit", 100, "Maximum results")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var minConfPtr *float64
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "min-confidence" {
			minConfPtr = minConfidence
		}
	})

	var pattern glob.Glob
	if *typePattern != "" {
		compiled, err := glob.Compile(*typePattern)
		if err != nil {
			return fmt.Errorf("invalid -type-pattern: %w", err)
		}
		pattern = compiled
	}

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	edges := eng.Edges(engine.EdgeFilter{
		Containing:    splitList(*nodeList),
		MatchAll:      *matchAll,
		Type:          *edgeType,
		Source:        *source,
		MinConfidence: minConfPtr,
	})

	printed := 0
	for _, edge := range edges {
		if pattern != nil && !pattern.Match(edge.Type) {
			continue
		}
		if *limit > 0 && printed >= *limit {
			break
		}
		if err := printJSON(edge); err != nil {
			return err
		}
		printed++
	}
	a.logger.Debug("query finished", "matched", printed)
	return nil
}

func (a *App) runStats() error {
	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	return printJSON(map[string]any{
		"namespace": eng.CurrentNamespace(),
		"stats":     eng.Stats(),
		"sources":   eng.Sources(),
	})
}

func (a *App) runValidate() error {
	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	report := eng.Validate()
	if err := printJSON(report); err != nil {
		return err
	}
	if !report.Valid {
		return fmt.Errorf("graph has %d consistency errors", len(report.Errors))
	}
	return nil
}

func (a *App) runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	outPath := fs.String("o", "", "Output file (default stdout)")
	hif := fs.Bool("hif", false, "Write HIF instead of the native interchange format")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	out := os.Stdout
	if *outPath != "" {
		f, err := os.Create(*outPath)
		if err != nil {
			return err
		}
		defer f.Close()
		out = f
	}
	if *hif {
		return eng.ExportHIF(out)
	}
	return eng.ExportJSON(out)
}

func (a *App) runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	hif := fs.Bool("hif", false, "Read HIF instead of the native interchange format")
	strict := fs.Bool("strict", false, "With -hif, reject incidences that reference undeclared nodes or edges")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: hyperbase import [flags] <file>")
	}

	f, err := os.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer f.Close()

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if *hif {
		err = eng.ImportHIFJSON(context.Background(), f, *strict)
	} else {
		err = eng.ImportJSON(context.Background(), f)
	}
	if err != nil {
		return err
	}
	stats := eng.Stats()
	a.logger.Info("import complete",
		"file", fs.Arg(0),
		"nodes", stats.NodeCount,
		"edges", stats.EdgeCount)
	return nil
}

func (a *App) runMCP() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdown, err := observability.InitTracer(ctx, a.cfg.Tracing.Endpoint, "hyperbase")
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			a.logger.Warn("tracer shutdown failed", "error", err)
		}
	}()

	eng, err := a.openEngine()
	if err != nil {
		return err
	}
	defer eng.Close()

	if a.cfg.Metrics.Enabled {
		obs := observability.NewServer(a.cfg.Metrics.Addr, func(ctx context.Context) observability.HealthStatus {
			stats := eng.Stats()
			return observability.HealthStatus{
				Status:    "up",
				Namespace: eng.CurrentNamespace(),
				Nodes:     stats.NodeCount,
				Edges:     stats.EdgeCount,
			}
		})
		if err := obs.Start(ctx); err != nil {
			return err
		}
		defer obs.Stop(context.Background())
	}

	server, err := runtime.New(a.cfg, eng, a.logger)
	if err != nil {
		return err
	}
	err = server.Start(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func (a *App) runWatch() error {
	path := a.cfg.Database.Path
	if path == "" {
		return fmt.Errorf("watch requires a database path (-db or config)")
	}

	onReload := func() {
		eng, err := engine.Open(path, engine.WithLogger(a.logger))
		if err != nil {
			a.logger.Error("reload failed", "error", err)
			return
		}
		defer eng.Close()

		namespaces, err := eng.Namespaces(context.Background())
		if err != nil {
			a.logger.Error("reload failed", "error", err)
			return
		}
		for _, ns := range namespaces {
			stats := eng.Namespace(ns).Stats()
			a.logger.Info("database reloaded",
				"namespace", ns,
				"nodes", stats.NodeCount,
				"edges", stats.EdgeCount)
		}
	}

	w, err := watcher.New(path, a.cfg.Watch.Debounce, a.logger, onReload)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Watch(path); err != nil {
		return err
	}
	a.logger.Info("watching database file", "path", path, "debounce", a.cfg.Watch.Debounce)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	<-ctx.Done()
	return nil
}

func parseProps(raw string) (map[string]any, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("invalid -props JSON: %w", err)
	}
	return props, nil
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

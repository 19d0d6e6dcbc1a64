package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"hyperbase/internal/config"
)

const VERSION = "1.0.0"

var (
	configPath = flag.String("config", "", "Path to config file (TOML)")
	dbPath     = flag.String("db", "", "Database file path (overrides config; empty = in-memory)")
	namespace  = flag.String("namespace", "", "Namespace to operate on (overrides config)")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	version    = flag.Bool("version", false, "Print version and exit")
)

func usage() {
	fmt.Fprintf(os.Stderr, `hyperbase - embedded hypergraph data engine

Usage: hyperbase [flags] <command> [args]

Commands:
  init                    create the database file and the initial namespace
  node <id>               create or update a node
  edge                    create a hyperedge
  query                   search edges
  stats                   print graph statistics
  validate                check graph consistency
  export                  write the graph as interchange JSON (-hif for HIF)
  import <file>           load an interchange JSON document (-hif for HIF)
  mcp                     run the MCP stdio server
  watch                   monitor the database file for external writes

Flags:
`)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("hyperbase v%s\n", VERSION)
		os.Exit(0)
	}

	logLevel := slog.LevelInfo
	if *verbose {
		logLevel = slog.LevelDebug
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *namespace != "" {
		cfg.Database.Namespace = *namespace
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	logger := newLogger(cfg.Logging, logLevel)
	slog.SetDefault(logger)

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	app := &App{cfg: cfg, logger: logger}
	command := flag.Arg(0)
	args := flag.Args()[1:]

	if err := app.Run(command, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newLogger(cfg config.Logging, fallback slog.Level) *slog.Logger {
	level := fallback
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"hyperbase/internal/config"
	"hyperbase/internal/engine"
)

func testApp(t *testing.T, dbPath string) *App {
	t.Helper()
	cfg := config.Default()
	cfg.Database.Path = dbPath
	return &App{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(os.Stderr, nil)),
	}
}

func TestSplitList(t *testing.T) {
	got := splitList(" a, b ,,c ")
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if splitList("  ") != nil {
		t.Fatal("expected nil for blank input")
	}
}

func TestParseProps(t *testing.T) {
	props, err := parseProps(`{"weight": 2, "label": "x"}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if props["label"] != "x" {
		t.Fatalf("unexpected props: %v", props)
	}

	if _, err := parseProps("{broken"); err == nil {
		t.Fatal("expected error for malformed JSON")
	}

	empty, err := parseProps("")
	if err != nil || empty != nil {
		t.Fatalf("expected nil props for empty input, got %v, %v", empty, err)
	}
}

func TestRunInitAndEdgeRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	app := testApp(t, dbPath)

	if err := app.Run("init", nil); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected database file: %v", err)
	}

	if err := app.Run("edge", []string{"-nodes", "a,b,c", "-type", "meeting", "-source", "cli"}); err != nil {
		t.Fatalf("edge: %v", err)
	}

	eng, err := engine.Open(dbPath)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer eng.Close()

	stats := eng.Stats()
	if stats.NodeCount != 3 || stats.EdgeCount != 1 {
		t.Fatalf("expected 3 nodes / 1 edge persisted, got %d / %d", stats.NodeCount, stats.EdgeCount)
	}
}

func TestRunValidateCleanGraph(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "graph.db")
	app := testApp(t, dbPath)

	if err := app.Run("edge", []string{"-nodes", "a,b", "-type", "rel"}); err != nil {
		t.Fatalf("edge: %v", err)
	}
	if err := app.Run("validate", nil); err != nil {
		t.Fatalf("validate: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	app := testApp(t, "")
	if err := app.Run("bogus", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

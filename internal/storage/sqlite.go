package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	apperrors "hyperbase/internal/core/errors"
	"hyperbase/internal/hypergraph"
)

const sqliteDriverName = "sqlite"

const schemaVersion = "4"

const schemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS nodes (
  id TEXT NOT NULL,
  namespace TEXT NOT NULL DEFAULT 'default',
  type TEXT NOT NULL DEFAULT 'unknown',
  properties TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (id, namespace)
);

CREATE TABLE IF NOT EXISTS edges (
  id TEXT NOT NULL,
  namespace TEXT NOT NULL DEFAULT 'default',
  type TEXT NOT NULL,
  source TEXT NOT NULL DEFAULT 'unknown',
  confidence REAL NOT NULL DEFAULT 1.0,
  properties TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (id, namespace)
);

CREATE TABLE IF NOT EXISTS incidences (
  edge_id TEXT NOT NULL,
  namespace TEXT NOT NULL DEFAULT 'default',
  node_id TEXT,
  ref_edge_id TEXT,
  position INTEGER NOT NULL,
  direction TEXT,
  properties TEXT NOT NULL DEFAULT '{}',
  PRIMARY KEY (edge_id, namespace, position),
  FOREIGN KEY (edge_id, namespace) REFERENCES edges(id, namespace) ON DELETE CASCADE,
  CHECK (
    (node_id IS NOT NULL AND ref_edge_id IS NULL) OR
    (node_id IS NULL AND ref_edge_id IS NOT NULL)
  )
);

CREATE TABLE IF NOT EXISTS vertex_set_index (
  vertex_set_hash TEXT NOT NULL,
  edge_id TEXT NOT NULL,
  namespace TEXT NOT NULL DEFAULT 'default',
  PRIMARY KEY (vertex_set_hash, edge_id, namespace),
  FOREIGN KEY (edge_id, namespace) REFERENCES edges(id, namespace) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_nodes_type ON nodes(type);
CREATE INDEX IF NOT EXISTS idx_nodes_ns ON nodes(namespace);
CREATE INDEX IF NOT EXISTS idx_edges_type ON edges(type);
CREATE INDEX IF NOT EXISTS idx_edges_ns ON edges(namespace);
CREATE INDEX IF NOT EXISTS idx_incidences_node ON incidences(node_id);
CREATE INDEX IF NOT EXISTS idx_incidences_edge ON incidences(edge_id);
CREATE INDEX IF NOT EXISTS idx_incidences_ns ON incidences(namespace);
`

// SQLiteStore persists whole namespaces to SQLite. Every table carries
// a namespace column, so independent graphs share one database file.
// Writes replace a namespace's rows wholesale inside one transaction.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// Open creates or opens the database file, applies pragmas, and
// ensures the schema exists. A schema_version newer than this build
// understands is refused rather than migrated blindly.
func Open(path string) (*SQLiteStore, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "database path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, apperrors.Newf(apperrors.CodeValidation, "database path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("create database directory %q", dir))
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(sqliteDriverName, dsn)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("open database %q", cleanPath))
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("ping database %q", cleanPath))
	}

	if err := migrateSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, path: cleanPath}, nil
}

func migrateSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "apply schema")
	}

	var version string
	err := db.QueryRow(`SELECT value FROM meta WHERE key = 'schema_version'`).Scan(&version)
	switch {
	case err == sql.ErrNoRows:
		if _, err := db.Exec(`INSERT INTO meta (key, value) VALUES ('schema_version', ?)`, schemaVersion); err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, "record schema version")
		}
	case err != nil:
		return apperrors.Wrap(err, apperrors.CodeStorage, "read schema version")
	case version != schemaVersion:
		return apperrors.Newf(apperrors.CodeStorage,
			"database schema version %s is not supported (expected %s)", version, schemaVersion)
	}
	return nil
}

func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "close database")
	}
	return nil
}

// SaveNamespace replaces the namespace's rows with the core's current
// contents in a single transaction.
func (s *SQLiteStore) SaveNamespace(ctx context.Context, namespace string, core *hypergraph.Core) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteNamespaceRows(ctx, tx, namespace); err != nil {
		return err
	}

	for _, node := range core.AllNodes() {
		props, err := json.Marshal(node.Properties)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("marshal node %q properties", node.ID))
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO nodes (id, namespace, type, properties) VALUES (?, ?, ?, ?)`,
			node.ID, namespace, node.Type, string(props))
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("insert node %q", node.ID))
		}
	}

	for _, edge := range core.AllEdges() {
		props, err := json.Marshal(edge.Properties)
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("marshal edge %q properties", edge.ID))
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO edges (id, namespace, type, source, confidence, properties) VALUES (?, ?, ?, ?, ?, ?)`,
			edge.ID, namespace, edge.Type, edge.Source, edge.Confidence, string(props))
		if err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("insert edge %q", edge.ID))
		}

		for pos, inc := range edge.Incidences {
			incProps, err := json.Marshal(inc.Properties)
			if err != nil {
				return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("marshal incidence properties of edge %q", edge.ID))
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO incidences (edge_id, namespace, node_id, ref_edge_id, position, direction, properties)
				 VALUES (?, ?, ?, ?, ?, ?, ?)`,
				edge.ID, namespace, nullable(inc.NodeID), nullable(inc.EdgeRefID), pos, nullable(inc.Direction), string(incProps))
			if err != nil {
				return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("insert incidence %d of edge %q", pos, edge.ID))
			}
		}

		if ids := edge.NodeIDs(); len(ids) > 0 {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO vertex_set_index (vertex_set_hash, edge_id, namespace) VALUES (?, ?, ?)`,
				hypergraph.VertexSetDigestOf(ids), edge.ID, namespace)
			if err != nil {
				return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("index edge %q", edge.ID))
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "commit transaction")
	}
	return nil
}

// LoadNamespace rebuilds one namespace from its rows. Unknown
// namespaces yield an empty graph rather than an error.
func (s *SQLiteStore) LoadNamespace(ctx context.Context, namespace string) (*hypergraph.Core, error) {
	core := hypergraph.NewCore()

	nodeRows, err := s.db.QueryContext(ctx,
		`SELECT id, type, properties FROM nodes WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "query nodes")
	}
	defer nodeRows.Close()
	for nodeRows.Next() {
		var id, nodeType, propsJSON string
		if err := nodeRows.Scan(&id, &nodeType, &propsJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorage, "scan node row")
		}
		props, err := unmarshalProperties(propsJSON)
		if err != nil {
			return nil, apperrors.AddContext(err, apperrors.CtxNodeID, id)
		}
		if err := core.AddNode(hypergraph.Node{ID: id, Type: nodeType, Properties: props}); err != nil {
			return nil, err
		}
	}
	if err := nodeRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "iterate node rows")
	}

	type edgeRow struct {
		id, edgeType, source, propsJSON string
		confidence                      float64
	}
	var edgeList []edgeRow
	edgeRows, err := s.db.QueryContext(ctx,
		`SELECT id, type, source, confidence, properties FROM edges WHERE namespace = ?`, namespace)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "query edges")
	}
	defer edgeRows.Close()
	for edgeRows.Next() {
		var row edgeRow
		if err := edgeRows.Scan(&row.id, &row.edgeType, &row.source, &row.confidence, &row.propsJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorage, "scan edge row")
		}
		edgeList = append(edgeList, row)
	}
	if err := edgeRows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "iterate edge rows")
	}

	for _, row := range edgeList {
		props, err := unmarshalProperties(row.propsJSON)
		if err != nil {
			return nil, apperrors.AddContext(err, apperrors.CtxEdgeID, row.id)
		}
		incidences, err := s.loadIncidences(ctx, row.id, namespace)
		if err != nil {
			return nil, err
		}
		err = core.AddEdge(hypergraph.Edge{
			ID:         row.id,
			Type:       row.edgeType,
			Incidences: incidences,
			Source:     row.source,
			Confidence: row.confidence,
			Properties: props,
		})
		if err != nil {
			return nil, err
		}
	}

	return core, nil
}

func (s *SQLiteStore) loadIncidences(ctx context.Context, edgeID, namespace string) ([]hypergraph.Incidence, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT node_id, ref_edge_id, direction, properties FROM incidences
		 WHERE edge_id = ? AND namespace = ? ORDER BY position`, edgeID, namespace)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("query incidences of edge %q", edgeID))
	}
	defer rows.Close()

	var incidences []hypergraph.Incidence
	for rows.Next() {
		var nodeID, refEdgeID, direction sql.NullString
		var propsJSON string
		if err := rows.Scan(&nodeID, &refEdgeID, &direction, &propsJSON); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorage, "scan incidence row")
		}
		props, err := unmarshalProperties(propsJSON)
		if err != nil {
			return nil, apperrors.AddContext(err, apperrors.CtxEdgeID, edgeID)
		}
		incidences = append(incidences, hypergraph.Incidence{
			NodeID:     nodeID.String,
			EdgeRefID:  refEdgeID.String,
			Direction:  direction.String,
			Properties: props,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "iterate incidence rows")
	}
	return incidences, nil
}

// ListNamespaces returns every namespace with at least one node or
// edge, sorted.
func (s *SQLiteStore) ListNamespaces(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT namespace FROM nodes UNION SELECT namespace FROM edges`)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "query namespaces")
	}
	defer rows.Close()

	var namespaces []string
	for rows.Next() {
		var ns string
		if err := rows.Scan(&ns); err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeStorage, "scan namespace row")
		}
		namespaces = append(namespaces, ns)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "iterate namespace rows")
	}
	sort.Strings(namespaces)
	return namespaces, nil
}

// DeleteNamespace removes all rows belonging to the namespace.
func (s *SQLiteStore) DeleteNamespace(ctx context.Context, namespace string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()
	if err := deleteNamespaceRows(ctx, tx, namespace); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return apperrors.Wrap(err, apperrors.CodeStorage, "commit transaction")
	}
	return nil
}

func deleteNamespaceRows(ctx context.Context, tx *sql.Tx, namespace string) error {
	for _, table := range []string{"incidences", "vertex_set_index", "edges", "nodes"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE namespace = ?`, namespace); err != nil {
			return apperrors.Wrap(err, apperrors.CodeStorage, fmt.Sprintf("clear %s for namespace %q", table, namespace))
		}
	}
	return nil
}

func unmarshalProperties(raw string) (hypergraph.Properties, error) {
	if raw == "" || raw == "{}" || raw == "null" {
		return hypergraph.Properties{}, nil
	}
	var decoded map[string]any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeStorage, "decode properties")
	}
	return hypergraph.NormalizeProperties(decoded)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// Package storage persists the latest finished run per scan root to
// sqlite, so a later invocation can inspect graph counts without a
// fresh extraction.
package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"crossref/internal/callgraph"
	"crossref/internal/extract"
	"crossref/internal/index"
)

const driverName = "sqlite"

type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

// RunSummary is the stored header of one persisted run.
type RunSummary struct {
	ID              string
	Root            string
	CreatedAt       time.Time
	FileCount       int
	DefinitionCount int
	EdgeCount       int
	UnresolvedCount int
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("storage path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("storage path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts during watch-mode churn.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite storage %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite storage %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveRun replaces the stored run for root with the given index and
// graph, all in one transaction. Only the latest run per root is kept.
func (s *Store) SaveRun(root string, fileCount int, idx *index.Index, g *callgraph.Graph) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	runID := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM runs WHERE root = ?`, root); err != nil {
		return "", fmt.Errorf("drop previous run for %q: %w", root, err)
	}

	if _, err := tx.Exec(`
INSERT INTO runs (id, root, created_at_utc, file_count, definition_count, edge_count, unresolved_count)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		runID,
		root,
		time.Now().UTC().Format(time.RFC3339Nano),
		fileCount,
		idx.Len(),
		g.EdgeCount(),
		g.UnresolvedCount(),
	); err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	defStmt, err := tx.Prepare(`
INSERT INTO definitions (run_id, id, name, kind, scope, doc, file, start_line, start_col, end_line, end_col)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare definition insert: %w", err)
	}
	defer defStmt.Close()

	for _, d := range idx.All() {
		if _, err := defStmt.Exec(
			runID, d.ID, d.Name, string(d.Kind), strings.Join(d.Scope, "."), d.Doc,
			d.Span.File, d.Span.StartLine, d.Span.StartCol, d.Span.EndLine, d.Span.EndCol,
		); err != nil {
			return "", fmt.Errorf("insert definition %s: %w", d.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare(`
INSERT INTO edges (run_id, seq, caller, callee, raw_name, qualifier, resolved, file, start_line, start_col)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for seq, e := range g.Edges() {
		resolved := 0
		if e.Resolved {
			resolved = 1
		}
		if _, err := edgeStmt.Exec(
			runID, seq, e.Caller, e.Callee, e.RawName, e.Qualifier, resolved,
			e.Span.File, e.Span.StartLine, e.Span.StartCol,
		); err != nil {
			return "", fmt.Errorf("insert edge %d: %w", seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save run: %w", err)
	}
	return runID, nil
}

// LatestRun returns the stored run header for a root, if any.
func (s *Store) LatestRun(root string) (RunSummary, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		summary RunSummary
		tsRaw   string
	)
	err := s.db.QueryRow(`
SELECT id, root, created_at_utc, file_count, definition_count, edge_count, unresolved_count
FROM runs WHERE root = ? ORDER BY created_at_utc DESC LIMIT 1`, root).Scan(
		&summary.ID, &summary.Root, &tsRaw,
		&summary.FileCount, &summary.DefinitionCount, &summary.EdgeCount, &summary.UnresolvedCount,
	)
	if err == sql.ErrNoRows {
		return RunSummary{}, false, nil
	}
	if err != nil {
		return RunSummary{}, false, fmt.Errorf("load run for %q: %w", root, err)
	}

	ts, err := time.Parse(time.RFC3339Nano, tsRaw)
	if err != nil {
		return RunSummary{}, false, fmt.Errorf("parse run timestamp %q: %w", tsRaw, err)
	}
	summary.CreatedAt = ts.UTC()
	return summary, true, nil
}

// LoadDefinitions returns the persisted definitions of a run in index
// order (file, then span start).
func (s *Store) LoadDefinitions(runID string) ([]extract.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
SELECT id, name, kind, scope, doc, file, start_line, start_col, end_line, end_col
FROM definitions WHERE run_id = ? ORDER BY file ASC, start_line ASC, start_col ASC, name ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load definitions: %w", err)
	}
	defer rows.Close()

	var defs []extract.Definition
	for rows.Next() {
		var (
			d     extract.Definition
			kind  string
			scope string
		)
		if err := rows.Scan(
			&d.ID, &d.Name, &kind, &scope, &d.Doc,
			&d.Span.File, &d.Span.StartLine, &d.Span.StartCol, &d.Span.EndLine, &d.Span.EndCol,
		); err != nil {
			return nil, fmt.Errorf("scan definition row: %w", err)
		}
		d.Kind = extract.DefinitionKind(kind)
		if scope != "" {
			d.Scope = strings.Split(scope, ".")
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate definition rows: %w", err)
	}
	return defs, nil
}

// LoadEdges returns the persisted edges of a run in build order.
func (s *Store) LoadEdges(runID string) ([]callgraph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
SELECT caller, callee, raw_name, qualifier, resolved, file, start_line, start_col
FROM edges WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("load edges: %w", err)
	}
	defer rows.Close()

	var edges []callgraph.Edge
	for rows.Next() {
		var (
			e        callgraph.Edge
			resolved int
		)
		if err := rows.Scan(
			&e.Caller, &e.Callee, &e.RawName, &e.Qualifier, &resolved,
			&e.Span.File, &e.Span.StartLine, &e.Span.StartCol,
		); err != nil {
			return nil, fmt.Errorf("scan edge row: %w", err)
		}
		e.Resolved = resolved != 0
		edges = append(edges, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate edge rows: %w", err)
	}
	return edges, nil
}
